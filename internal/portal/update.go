package portal

import "collabportal.org/internal/access"

// Partial-update descriptors. A nil pointer leaves the stored column
// untouched; every update also advances the row's updated_at server-side.

type OrganizationUpdate struct {
	Name               *string
	Email              *string
	Phone              *string
	Address            *string
	Website            *string
	Logo               *string
	Timezone           *string
	Currency           *string
	FiscalYearStart    *string
	PaymentTerms       *int
	InvoicePrefix      *string
	TaxRate            *float64
	RegistrationNumber *string
	PaymentMethods     *PaymentMethods
	Notifications      *Notifications
	Branding           *Branding
	IsActive           *bool
}

// Empty reports whether the update carries no fields.
func (u OrganizationUpdate) Empty() bool {
	return u == OrganizationUpdate{}
}

type ProjectUpdate struct {
	OrganizationID *string
	Name           *string
	Client         *string
	Description    *string
	Budget         *float64
	Spent          *float64
	StartDate      *string
	EndDate        *string
	Status         *string
	TeamMembers    *[]string
	HourlyBudget   *float64
	HoursSpent     *float64
	Priority       *string
	Tags           *[]string
}

func (u ProjectUpdate) Empty() bool {
	return u == ProjectUpdate{}
}

type StaffMemberUpdate struct {
	UserID         *string
	Name           *string
	Email          *string
	Phone          *string
	Department     *string
	Role           *string
	HourlyRate     *float64
	TotalEarned    *float64
	HoursThisMonth *float64
	Status         *string
	Avatar         *string
	AccessControl  *access.Control
}

func (u StaffMemberUpdate) Empty() bool {
	return u == StaffMemberUpdate{}
}

// SubmissionUpdate covers the mutable fields of invoices, payment
// requests, and time entries. Status transitions are expressed through
// Status plus the matching timestamp pointer.
type SubmissionUpdate struct {
	Title       *string
	Description *string
	Amount      *float64
	Currency    *string
	Hours       *float64
	Date        *string
	DueDate     *string
	FileURL     *string
	ReceiptURL  *string
	Status      *string
}

func (u SubmissionUpdate) Empty() bool {
	return u == SubmissionUpdate{}
}
