package portal

import "context"

// Store is the authoritative persistence contract. Listings are ordered
// by descending creation time; Create persists the already-defaulted
// record; Update applies only the provided fields and stamps updated_at.
// The client-side caches in the sync package are snapshots of this store,
// never the other way round.
type Store interface {
	Organizations() OrganizationStore
	Projects() ProjectStore
	StaffMembers() StaffMemberStore
	Invoices() InvoiceStore
	PaymentRequests() PaymentRequestStore
	TimeEntries() TimeEntryStore
}

type OrganizationStore interface {
	List(ctx context.Context) ([]Organization, error)
	Get(ctx context.Context, id string) (Organization, error)
	Create(ctx context.Context, org Organization) (Organization, error)
	Update(ctx context.Context, id string, upd OrganizationUpdate) (Organization, error)
	Delete(ctx context.Context, id string) error
}

type ProjectStore interface {
	List(ctx context.Context) ([]Project, error)
	Get(ctx context.Context, id string) (Project, error)
	Create(ctx context.Context, p Project) (Project, error)
	Update(ctx context.Context, id string, upd ProjectUpdate) (Project, error)
	Delete(ctx context.Context, id string) error
}

type StaffMemberStore interface {
	List(ctx context.Context) ([]StaffMember, error)
	Get(ctx context.Context, id string) (StaffMember, error)
	FindByEmail(ctx context.Context, email string) (StaffMember, error)
	Create(ctx context.Context, m StaffMember) (StaffMember, error)
	Update(ctx context.Context, id string, upd StaffMemberUpdate) (StaffMember, error)
	Delete(ctx context.Context, id string) error
}

type InvoiceStore interface {
	List(ctx context.Context) ([]Invoice, error)
	Get(ctx context.Context, id string) (Invoice, error)
	Create(ctx context.Context, inv Invoice) (Invoice, error)
	Update(ctx context.Context, id string, upd SubmissionUpdate) (Invoice, error)
	Delete(ctx context.Context, id string) error
}

type PaymentRequestStore interface {
	List(ctx context.Context) ([]PaymentRequest, error)
	Get(ctx context.Context, id string) (PaymentRequest, error)
	Create(ctx context.Context, pr PaymentRequest) (PaymentRequest, error)
	Update(ctx context.Context, id string, upd SubmissionUpdate) (PaymentRequest, error)
	Delete(ctx context.Context, id string) error
}

type TimeEntryStore interface {
	List(ctx context.Context) ([]TimeEntry, error)
	Get(ctx context.Context, id string) (TimeEntry, error)
	Create(ctx context.Context, te TimeEntry) (TimeEntry, error)
	Update(ctx context.Context, id string, upd SubmissionUpdate) (TimeEntry, error)
	Delete(ctx context.Context, id string) error
}
