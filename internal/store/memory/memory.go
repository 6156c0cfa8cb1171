// Package memory implements portal.Store in process memory. It backs
// tests and demo deployments that run without Postgres; the pg package
// is the durable twin.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"collabportal.org/internal/ids"
	"collabportal.org/internal/portal"
)

// Store holds every entity collection behind one lock. Copies go in and
// out; callers never observe internal slices.
type Store struct {
	mu    sync.RWMutex
	now   func() time.Time
	orgs  map[string]portal.Organization
	projs map[string]portal.Project
	staff map[string]portal.StaffMember
	invs  map[string]portal.Invoice
	prs   map[string]portal.PaymentRequest
	tes   map[string]portal.TimeEntry
}

// Option configures the store.
type Option func(*Store)

// WithClock overrides the time source. Test hook.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		orgs:  make(map[string]portal.Organization),
		projs: make(map[string]portal.Project),
		staff: make(map[string]portal.StaffMember),
		invs:  make(map[string]portal.Invoice),
		prs:   make(map[string]portal.PaymentRequest),
		tes:   make(map[string]portal.TimeEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portal.Store = (*Store)(nil)

func (s *Store) Organizations() portal.OrganizationStore     { return orgFacet{s} }
func (s *Store) Projects() portal.ProjectStore               { return projectFacet{s} }
func (s *Store) StaffMembers() portal.StaffMemberStore       { return staffFacet{s} }
func (s *Store) Invoices() portal.InvoiceStore               { return invoiceFacet{s} }
func (s *Store) PaymentRequests() portal.PaymentRequestStore { return paymentFacet{s} }
func (s *Store) TimeEntries() portal.TimeEntryStore          { return timeEntryFacet{s} }

// --- organizations ---

type orgFacet struct{ s *Store }

func (f orgFacet) List(ctx context.Context) ([]portal.Organization, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	out := make([]portal.Organization, 0, len(f.s.orgs))
	for _, v := range f.s.orgs {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (f orgFacet) Get(ctx context.Context, id string) (portal.Organization, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	v, ok := f.s.orgs[id]
	if !ok {
		return portal.Organization{}, portal.ErrNotFound
	}
	return v, nil
}

func (f orgFacet) Create(ctx context.Context, org portal.Organization) (portal.Organization, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if org.ID == "" {
		org.ID = ids.New()
	}
	if _, exists := f.s.orgs[org.ID]; exists {
		return portal.Organization{}, portal.ErrConflict
	}
	f.s.orgs[org.ID] = org
	return org, nil
}

func (f orgFacet) Update(ctx context.Context, id string, upd portal.OrganizationUpdate) (portal.Organization, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	org, ok := f.s.orgs[id]
	if !ok {
		return portal.Organization{}, portal.ErrNotFound
	}
	if upd.Name != nil {
		org.Name = *upd.Name
	}
	if upd.Email != nil {
		org.Email = *upd.Email
	}
	if upd.Phone != nil {
		org.Phone = *upd.Phone
	}
	if upd.Address != nil {
		org.Address = *upd.Address
	}
	if upd.Website != nil {
		org.Website = *upd.Website
	}
	if upd.Logo != nil {
		org.Logo = *upd.Logo
	}
	if upd.Timezone != nil {
		org.Timezone = *upd.Timezone
	}
	if upd.Currency != nil {
		org.Currency = *upd.Currency
	}
	if upd.FiscalYearStart != nil {
		org.FiscalYearStart = *upd.FiscalYearStart
	}
	if upd.PaymentTerms != nil {
		org.PaymentTerms = *upd.PaymentTerms
	}
	if upd.InvoicePrefix != nil {
		org.InvoicePrefix = *upd.InvoicePrefix
	}
	if upd.TaxRate != nil {
		org.TaxRate = *upd.TaxRate
	}
	if upd.RegistrationNumber != nil {
		org.RegistrationNumber = *upd.RegistrationNumber
	}
	if upd.PaymentMethods != nil {
		org.PaymentMethods = *upd.PaymentMethods
	}
	if upd.Notifications != nil {
		org.Notifications = *upd.Notifications
	}
	if upd.Branding != nil {
		org.Branding = *upd.Branding
	}
	if upd.IsActive != nil {
		org.IsActive = *upd.IsActive
	}
	org.UpdatedAt = f.s.now().UTC()
	f.s.orgs[id] = org
	return org, nil
}

func (f orgFacet) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.orgs[id]; !ok {
		return portal.ErrNotFound
	}
	delete(f.s.orgs, id)
	return nil
}

// --- projects ---

type projectFacet struct{ s *Store }

func (f projectFacet) List(ctx context.Context) ([]portal.Project, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	out := make([]portal.Project, 0, len(f.s.projs))
	for _, v := range f.s.projs {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (f projectFacet) Get(ctx context.Context, id string) (portal.Project, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	v, ok := f.s.projs[id]
	if !ok {
		return portal.Project{}, portal.ErrNotFound
	}
	return v, nil
}

func (f projectFacet) Create(ctx context.Context, p portal.Project) (portal.Project, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.orgs[p.OrganizationID]; !ok {
		return portal.Project{}, portal.ErrNotFound
	}
	if p.ID == "" {
		p.ID = ids.New()
	}
	if _, exists := f.s.projs[p.ID]; exists {
		return portal.Project{}, portal.ErrConflict
	}
	f.s.projs[p.ID] = p
	return p, nil
}

func (f projectFacet) Update(ctx context.Context, id string, upd portal.ProjectUpdate) (portal.Project, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.projs[id]
	if !ok {
		return portal.Project{}, portal.ErrNotFound
	}
	if upd.OrganizationID != nil {
		p.OrganizationID = *upd.OrganizationID
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Client != nil {
		p.Client = *upd.Client
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Budget != nil {
		p.Budget = *upd.Budget
	}
	if upd.Spent != nil {
		p.Spent = *upd.Spent
	}
	if upd.StartDate != nil {
		p.StartDate = *upd.StartDate
	}
	if upd.EndDate != nil {
		p.EndDate = *upd.EndDate
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if upd.TeamMembers != nil {
		p.TeamMembers = append([]string(nil), (*upd.TeamMembers)...)
	}
	if upd.HourlyBudget != nil {
		p.HourlyBudget = *upd.HourlyBudget
	}
	if upd.HoursSpent != nil {
		p.HoursSpent = *upd.HoursSpent
	}
	if upd.Priority != nil {
		p.Priority = *upd.Priority
	}
	if upd.Tags != nil {
		p.Tags = append([]string(nil), (*upd.Tags)...)
	}
	p.UpdatedAt = f.s.now().UTC()
	f.s.projs[id] = p
	return p, nil
}

func (f projectFacet) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.projs[id]; !ok {
		return portal.ErrNotFound
	}
	delete(f.s.projs, id)
	return nil
}

// --- staff members ---

type staffFacet struct{ s *Store }

func (f staffFacet) List(ctx context.Context) ([]portal.StaffMember, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	out := make([]portal.StaffMember, 0, len(f.s.staff))
	for _, v := range f.s.staff {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (f staffFacet) Get(ctx context.Context, id string) (portal.StaffMember, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	v, ok := f.s.staff[id]
	if !ok {
		return portal.StaffMember{}, portal.ErrNotFound
	}
	return v, nil
}

func (f staffFacet) FindByEmail(ctx context.Context, email string) (portal.StaffMember, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, v := range f.s.staff {
		if strings.ToLower(v.Email) == email {
			return v, nil
		}
	}
	return portal.StaffMember{}, portal.ErrNotFound
}

func (f staffFacet) Create(ctx context.Context, m portal.StaffMember) (portal.StaffMember, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, v := range f.s.staff {
		if strings.EqualFold(v.Email, m.Email) {
			return portal.StaffMember{}, portal.ErrConflict
		}
	}
	if m.ID == "" {
		m.ID = ids.New()
	}
	f.s.staff[m.ID] = m
	return m, nil
}

func (f staffFacet) Update(ctx context.Context, id string, upd portal.StaffMemberUpdate) (portal.StaffMember, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	m, ok := f.s.staff[id]
	if !ok {
		return portal.StaffMember{}, portal.ErrNotFound
	}
	if upd.UserID != nil {
		m.UserID = *upd.UserID
	}
	if upd.Name != nil {
		m.Name = *upd.Name
	}
	if upd.Email != nil {
		m.Email = strings.ToLower(strings.TrimSpace(*upd.Email))
	}
	if upd.Phone != nil {
		m.Phone = *upd.Phone
	}
	if upd.Department != nil {
		m.Department = *upd.Department
	}
	if upd.Role != nil {
		m.Role = *upd.Role
	}
	if upd.HourlyRate != nil {
		m.HourlyRate = *upd.HourlyRate
	}
	if upd.TotalEarned != nil {
		m.TotalEarned = *upd.TotalEarned
	}
	if upd.HoursThisMonth != nil {
		m.HoursThisMonth = *upd.HoursThisMonth
	}
	if upd.Status != nil {
		m.Status = *upd.Status
	}
	if upd.Avatar != nil {
		m.Avatar = *upd.Avatar
	}
	if upd.AccessControl != nil {
		c := *upd.AccessControl
		m.AccessControl = &c
	}
	m.UpdatedAt = f.s.now().UTC()
	f.s.staff[id] = m
	return m, nil
}

func (f staffFacet) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.staff[id]; !ok {
		return portal.ErrNotFound
	}
	delete(f.s.staff, id)
	return nil
}

// --- invoices ---

type invoiceFacet struct{ s *Store }

func (f invoiceFacet) List(ctx context.Context) ([]portal.Invoice, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	out := make([]portal.Invoice, 0, len(f.s.invs))
	for _, v := range f.s.invs {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (f invoiceFacet) Get(ctx context.Context, id string) (portal.Invoice, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	v, ok := f.s.invs[id]
	if !ok {
		return portal.Invoice{}, portal.ErrNotFound
	}
	return v, nil
}

func (f invoiceFacet) Create(ctx context.Context, inv portal.Invoice) (portal.Invoice, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if inv.ID == "" {
		inv.ID = ids.New()
	}
	f.s.invs[inv.ID] = inv
	return inv, nil
}

func (f invoiceFacet) Update(ctx context.Context, id string, upd portal.SubmissionUpdate) (portal.Invoice, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	inv, ok := f.s.invs[id]
	if !ok {
		return portal.Invoice{}, portal.ErrNotFound
	}
	now := f.s.now().UTC()
	if upd.Title != nil {
		inv.Title = *upd.Title
	}
	if upd.Description != nil {
		inv.Description = *upd.Description
	}
	if upd.Amount != nil {
		inv.Amount = *upd.Amount
	}
	if upd.Currency != nil {
		inv.Currency = *upd.Currency
	}
	if upd.DueDate != nil {
		inv.DueDate = *upd.DueDate
	}
	if upd.FileURL != nil {
		inv.FileURL = *upd.FileURL
	}
	if upd.Status != nil {
		inv.Status = *upd.Status
		switch *upd.Status {
		case portal.SubmissionApproved:
			inv.ApprovedAt = &now
		case portal.SubmissionPaid:
			inv.PaidAt = &now
		}
	}
	inv.UpdatedAt = now
	f.s.invs[id] = inv
	return inv, nil
}

func (f invoiceFacet) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.invs[id]; !ok {
		return portal.ErrNotFound
	}
	delete(f.s.invs, id)
	return nil
}

// --- payment requests ---

type paymentFacet struct{ s *Store }

func (f paymentFacet) List(ctx context.Context) ([]portal.PaymentRequest, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	out := make([]portal.PaymentRequest, 0, len(f.s.prs))
	for _, v := range f.s.prs {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (f paymentFacet) Get(ctx context.Context, id string) (portal.PaymentRequest, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	v, ok := f.s.prs[id]
	if !ok {
		return portal.PaymentRequest{}, portal.ErrNotFound
	}
	return v, nil
}

func (f paymentFacet) Create(ctx context.Context, pr portal.PaymentRequest) (portal.PaymentRequest, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if pr.ID == "" {
		pr.ID = ids.New()
	}
	f.s.prs[pr.ID] = pr
	return pr, nil
}

func (f paymentFacet) Update(ctx context.Context, id string, upd portal.SubmissionUpdate) (portal.PaymentRequest, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	pr, ok := f.s.prs[id]
	if !ok {
		return portal.PaymentRequest{}, portal.ErrNotFound
	}
	now := f.s.now().UTC()
	if upd.Description != nil {
		pr.Description = *upd.Description
	}
	if upd.Amount != nil {
		pr.Amount = *upd.Amount
	}
	if upd.Currency != nil {
		pr.Currency = *upd.Currency
	}
	if upd.ReceiptURL != nil {
		pr.ReceiptURL = *upd.ReceiptURL
	}
	if upd.Status != nil {
		pr.Status = *upd.Status
		switch *upd.Status {
		case portal.SubmissionApproved:
			pr.ApprovedAt = &now
		case portal.SubmissionPaid:
			pr.PaidAt = &now
		}
	}
	pr.UpdatedAt = now
	f.s.prs[id] = pr
	return pr, nil
}

func (f paymentFacet) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.prs[id]; !ok {
		return portal.ErrNotFound
	}
	delete(f.s.prs, id)
	return nil
}

// --- time entries ---

type timeEntryFacet struct{ s *Store }

func (f timeEntryFacet) List(ctx context.Context) ([]portal.TimeEntry, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	out := make([]portal.TimeEntry, 0, len(f.s.tes))
	for _, v := range f.s.tes {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (f timeEntryFacet) Get(ctx context.Context, id string) (portal.TimeEntry, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	v, ok := f.s.tes[id]
	if !ok {
		return portal.TimeEntry{}, portal.ErrNotFound
	}
	return v, nil
}

func (f timeEntryFacet) Create(ctx context.Context, te portal.TimeEntry) (portal.TimeEntry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if te.ID == "" {
		te.ID = ids.New()
	}
	f.s.tes[te.ID] = te
	return te, nil
}

func (f timeEntryFacet) Update(ctx context.Context, id string, upd portal.SubmissionUpdate) (portal.TimeEntry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	te, ok := f.s.tes[id]
	if !ok {
		return portal.TimeEntry{}, portal.ErrNotFound
	}
	if upd.Description != nil {
		te.Description = *upd.Description
	}
	if upd.Hours != nil {
		te.Hours = *upd.Hours
	}
	if upd.Date != nil {
		te.Date = *upd.Date
	}
	if upd.Status != nil {
		te.Status = *upd.Status
	}
	te.UpdatedAt = f.s.now().UTC()
	f.s.tes[id] = te
	return te, nil
}

func (f timeEntryFacet) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.tes[id]; !ok {
		return portal.ErrNotFound
	}
	delete(f.s.tes, id)
	return nil
}

// newestFirst orders by created_at desc with id as a stable tiebreak.
func newestFirst(ta time.Time, ida string, tb time.Time, idb string) bool {
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return ida > idb
}
