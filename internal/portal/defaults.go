package portal

import (
	"fmt"
	"strings"
	"time"
)

// Server-side defaults applied at creation time. Callers submit sparse
// records; the store persists the filled-in result, so a subsequent list
// returns exactly what was written.
const (
	DefaultTimezone        = "America/New_York"
	DefaultCurrency        = "USD"
	DefaultFiscalYearStart = "01-01"
	DefaultPaymentTerms    = 30
	DefaultDepartment      = "General"
	DefaultPrimaryColor    = "#2563eb"
	DefaultSecondaryColor  = "#64748b"
	DefaultPriority        = "medium"
)

// NewOrganization validates input and fills creation defaults. Name and
// email are the only required fields.
func NewOrganization(in Organization, now time.Time) (Organization, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return Organization{}, fmt.Errorf("%w: organization name is required", ErrInvalidInput)
	}
	if in.Email == "" {
		return Organization{}, fmt.Errorf("%w: organization email is required", ErrInvalidInput)
	}
	if in.Timezone == "" {
		in.Timezone = DefaultTimezone
	}
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}
	if in.FiscalYearStart == "" {
		in.FiscalYearStart = DefaultFiscalYearStart
	}
	if in.PaymentTerms == 0 {
		in.PaymentTerms = DefaultPaymentTerms
	}
	if in.TaxRate < 0 {
		return Organization{}, fmt.Errorf("%w: tax rate must not be negative", ErrInvalidInput)
	}
	if in.Branding.PrimaryColor == "" {
		in.Branding.PrimaryColor = DefaultPrimaryColor
	}
	if in.Branding.SecondaryColor == "" {
		in.Branding.SecondaryColor = DefaultSecondaryColor
	}
	if in.Notifications == (Notifications{}) {
		in.Notifications = Notifications{
			EmailNotifications:   true,
			InvoiceReminders:     true,
			PaymentConfirmations: true,
		}
	}
	in.IsActive = true
	in.CreatedAt = now.UTC()
	in.UpdatedAt = in.CreatedAt
	return in, nil
}

// NewProject validates input and fills creation defaults. A project must
// name its owning organization.
func NewProject(in Project, now time.Time) (Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.OrganizationID == "" {
		return Project{}, fmt.Errorf("%w: project organization_id is required", ErrInvalidInput)
	}
	if in.Name == "" {
		return Project{}, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	if in.Budget < 0 || in.Spent < 0 || in.HourlyBudget < 0 || in.HoursSpent < 0 {
		return Project{}, fmt.Errorf("%w: budget figures must not be negative", ErrInvalidInput)
	}
	if in.Status == "" {
		in.Status = ProjectStatusPlanning
	}
	if !validProjectStatus(in.Status) {
		return Project{}, fmt.Errorf("%w: unknown project status %q", ErrInvalidInput, in.Status)
	}
	if in.Priority == "" {
		in.Priority = DefaultPriority
	}
	if in.TeamMembers == nil {
		in.TeamMembers = []string{}
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	in.CreatedAt = now.UTC()
	in.UpdatedAt = in.CreatedAt
	return in, nil
}

// NewStaffMember validates input and fills creation defaults.
func NewStaffMember(in StaffMember, now time.Time) (StaffMember, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Name == "" {
		return StaffMember{}, fmt.Errorf("%w: staff name is required", ErrInvalidInput)
	}
	if in.Email == "" {
		return StaffMember{}, fmt.Errorf("%w: staff email is required", ErrInvalidInput)
	}
	if in.Department == "" {
		in.Department = DefaultDepartment
	}
	if in.Role == "" {
		in.Role = RoleStaff
	}
	if in.Role != RoleAdmin && in.Role != RoleStaff {
		return StaffMember{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}
	if in.HourlyRate < 0 {
		return StaffMember{}, fmt.Errorf("%w: hourly rate must not be negative", ErrInvalidInput)
	}
	if in.Status == "" {
		in.Status = StaffStatusActive
	}
	if in.Status != StaffStatusActive && in.Status != StaffStatusInactive {
		return StaffMember{}, fmt.Errorf("%w: unknown staff status %q", ErrInvalidInput, in.Status)
	}
	if in.JoinedAt.IsZero() {
		in.JoinedAt = now.UTC()
	}
	in.CreatedAt = now.UTC()
	in.UpdatedAt = in.CreatedAt
	return in, nil
}

// NewInvoice validates input and fills creation defaults.
func NewInvoice(in Invoice, now time.Time) (Invoice, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.StaffMemberID == "" || in.OrganizationID == "" {
		return Invoice{}, fmt.Errorf("%w: invoice requires staff_member_id and organization_id", ErrInvalidInput)
	}
	if in.Title == "" {
		return Invoice{}, fmt.Errorf("%w: invoice title is required", ErrInvalidInput)
	}
	if in.Amount <= 0 {
		return Invoice{}, fmt.Errorf("%w: invoice amount must be positive", ErrInvalidInput)
	}
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}
	in.Status = SubmissionPending
	in.SubmittedAt = now.UTC()
	in.CreatedAt = now.UTC()
	in.UpdatedAt = in.CreatedAt
	return in, nil
}

// NewPaymentRequest validates input and fills creation defaults.
func NewPaymentRequest(in PaymentRequest, now time.Time) (PaymentRequest, error) {
	in.Description = strings.TrimSpace(in.Description)
	if in.StaffMemberID == "" || in.OrganizationID == "" {
		return PaymentRequest{}, fmt.Errorf("%w: payment request requires staff_member_id and organization_id", ErrInvalidInput)
	}
	if in.Description == "" {
		return PaymentRequest{}, fmt.Errorf("%w: payment request description is required", ErrInvalidInput)
	}
	if in.Amount <= 0 {
		return PaymentRequest{}, fmt.Errorf("%w: payment request amount must be positive", ErrInvalidInput)
	}
	if in.Type == "" {
		in.Type = PaymentTypeExpense
	}
	switch in.Type {
	case PaymentTypeExpense, PaymentTypeAdvance, PaymentTypeBonus:
	default:
		return PaymentRequest{}, fmt.Errorf("%w: unknown payment request type %q", ErrInvalidInput, in.Type)
	}
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}
	in.Status = SubmissionPending
	in.SubmittedAt = now.UTC()
	in.CreatedAt = now.UTC()
	in.UpdatedAt = in.CreatedAt
	return in, nil
}

// NewTimeEntry validates input and fills creation defaults.
func NewTimeEntry(in TimeEntry, now time.Time) (TimeEntry, error) {
	in.Description = strings.TrimSpace(in.Description)
	if in.StaffMemberID == "" || in.ProjectID == "" {
		return TimeEntry{}, fmt.Errorf("%w: time entry requires staff_member_id and project_id", ErrInvalidInput)
	}
	if in.Description == "" {
		return TimeEntry{}, fmt.Errorf("%w: time entry description is required", ErrInvalidInput)
	}
	if in.Hours <= 0 {
		return TimeEntry{}, fmt.Errorf("%w: time entry hours must be positive", ErrInvalidInput)
	}
	if in.Date == "" {
		in.Date = now.UTC().Format("2006-01-02")
	}
	in.Status = TimeEntrySubmitted
	in.CreatedAt = now.UTC()
	in.UpdatedAt = in.CreatedAt
	return in, nil
}

func validProjectStatus(s string) bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted:
		return true
	}
	return false
}
