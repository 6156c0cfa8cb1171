// Package portal defines the Collaborator Portal entity model and the
// store contract the synchronization and HTTP layers are built on.
package portal

import (
	"time"

	"collabportal.org/internal/access"
)

// Roles a portal identity can hold.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// StaffMember statuses.
const (
	StaffStatusActive   = "active"
	StaffStatusInactive = "inactive"
)

// Project statuses.
const (
	ProjectStatusPlanning  = "planning"
	ProjectStatusActive    = "active"
	ProjectStatusOnHold    = "on-hold"
	ProjectStatusCompleted = "completed"
)

// Submission statuses shared by invoices and payment requests.
const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionPaid     = "paid"
	SubmissionRejected = "rejected"
)

// Time entry statuses.
const (
	TimeEntrySubmitted = "submitted"
	TimeEntryApproved  = "approved"
)

// PaymentRequest types.
const (
	PaymentTypeExpense = "expense"
	PaymentTypeAdvance = "advance"
	PaymentTypeBonus   = "bonus"
)

// PaypalConfig holds PayPal payout credentials. Stored only; the portal
// never calls the provider.
type PaypalConfig struct {
	Enabled      bool   `json:"enabled"`
	Email        string `json:"email,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// WiseConfig holds Wise payout credentials.
type WiseConfig struct {
	Enabled   bool   `json:"enabled"`
	APIKey    string `json:"api_key,omitempty"`
	ProfileID string `json:"profile_id,omitempty"`
}

// VeemConfig holds Veem payout credentials.
type VeemConfig struct {
	Enabled   bool   `json:"enabled"`
	APIKey    string `json:"api_key,omitempty"`
	AccountID string `json:"account_id,omitempty"`
}

// PaymentMethods groups the per-provider configurations. Each provider
// keeps its own typed credential fields.
type PaymentMethods struct {
	Paypal PaypalConfig `json:"paypal"`
	Wise   WiseConfig   `json:"wise"`
	Veem   VeemConfig   `json:"veem"`
}

// Notifications flags controlled per organization.
type Notifications struct {
	EmailNotifications   bool `json:"email_notifications"`
	InvoiceReminders     bool `json:"invoice_reminders"`
	PaymentConfirmations bool `json:"payment_confirmations"`
	WeeklyReports        bool `json:"weekly_reports"`
}

// Branding holds the organization's presentation settings.
type Branding struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	LogoURL        string `json:"logo_url,omitempty"`
}

// Organization is the scoping root for projects and staff assignments.
type Organization struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Email              string         `json:"email"`
	Phone              string         `json:"phone,omitempty"`
	Address            string         `json:"address,omitempty"`
	Website            string         `json:"website,omitempty"`
	Logo               string         `json:"logo,omitempty"`
	Timezone           string         `json:"timezone"`
	Currency           string         `json:"currency"`
	FiscalYearStart    string         `json:"fiscal_year_start"`
	PaymentTerms       int            `json:"payment_terms"`
	InvoicePrefix      string         `json:"invoice_prefix,omitempty"`
	TaxRate            float64        `json:"tax_rate"`
	RegistrationNumber string         `json:"registration_number,omitempty"`
	PaymentMethods     PaymentMethods `json:"payment_methods"`
	Notifications      Notifications  `json:"notifications"`
	Branding           Branding       `json:"branding"`
	IsActive           bool           `json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Project is owned by exactly one organization.
type Project struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Client         string    `json:"client"`
	Description    string    `json:"description,omitempty"`
	Budget         float64   `json:"budget"`
	Spent          float64   `json:"spent"`
	StartDate      string    `json:"start_date,omitempty"`
	EndDate        string    `json:"end_date,omitempty"`
	Status         string    `json:"status"`
	TeamMembers    []string  `json:"team_members"`
	HourlyBudget   float64   `json:"hourly_budget"`
	HoursSpent     float64   `json:"hours_spent"`
	Priority       string    `json:"priority"`
	Tags           []string  `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Ref returns the fields access decisions need.
func (p Project) Ref() access.ProjectRef {
	return access.ProjectRef{ID: p.ID, OrganizationID: p.OrganizationID}
}

// StaffMember is the portal-side record for a collaborator. UserID stays
// empty while the record is merely provisioned by an admin; it is filled
// in when the matching external identity first signs in.
type StaffMember struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id,omitempty"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone,omitempty"`
	Department     string          `json:"department"`
	Role           string          `json:"role"`
	HourlyRate     float64         `json:"hourly_rate"`
	TotalEarned    float64         `json:"total_earned"`
	HoursThisMonth float64         `json:"hours_this_month"`
	Status         string          `json:"status"`
	Avatar         string          `json:"avatar,omitempty"`
	AccessControl  *access.Control `json:"access_control,omitempty"`
	JoinedAt       time.Time       `json:"joined_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Linked reports whether the record is bound to an external identity.
func (m StaffMember) Linked() bool { return m.UserID != "" }

// Invoice is a contractor billing submission.
type Invoice struct {
	ID             string     `json:"id"`
	StaffMemberID  string     `json:"staff_member_id"`
	OrganizationID string     `json:"organization_id"`
	ProjectID      string     `json:"project_id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Amount         float64    `json:"amount"`
	Currency       string     `json:"currency"`
	DueDate        string     `json:"due_date,omitempty"`
	Status         string     `json:"status"`
	FileURL        string     `json:"file_url,omitempty"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// PaymentRequest is an expense/advance/bonus submission.
type PaymentRequest struct {
	ID             string     `json:"id"`
	StaffMemberID  string     `json:"staff_member_id"`
	OrganizationID string     `json:"organization_id"`
	Type           string     `json:"type"`
	Description    string     `json:"description"`
	Amount         float64    `json:"amount"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"`
	ReceiptURL     string     `json:"receipt_url,omitempty"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TimeEntry is a logged block of hours against a project.
type TimeEntry struct {
	ID            string    `json:"id"`
	StaffMemberID string    `json:"staff_member_id"`
	ProjectID     string    `json:"project_id"`
	Description   string    `json:"description"`
	Hours         float64   `json:"hours"`
	Date          string    `json:"date"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
