package pg

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"collabportal.org/internal/access"
	"collabportal.org/internal/portal"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

var orgRowColumns = []string{
	"id", "name", "email", "phone", "address", "website", "logo",
	"timezone", "currency", "fiscal_year_start", "payment_terms",
	"invoice_prefix", "tax_rate", "registration_number",
	"payment_methods", "notifications", "branding", "is_active",
	"created_at", "updated_at",
}

func TestOrganizationRowRoundTrip(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	want, err := portal.NewOrganization(portal.Organization{
		ID:    "org-1",
		Name:  "Acme",
		Email: "ops@acme.test",
	}, now)
	if err != nil {
		t.Fatalf("NewOrganization: %v", err)
	}
	want.PaymentMethods.Paypal = portal.PaypalConfig{Enabled: true, Email: "pay@acme.test"}

	methods, _ := json.Marshal(want.PaymentMethods)
	notif, _ := json.Marshal(want.Notifications)
	branding, _ := json.Marshal(want.Branding)

	mock.ExpectQuery("select (.+) from organizations").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows(orgRowColumns).AddRow(
			want.ID, want.Name, want.Email, want.Phone, want.Address,
			want.Website, want.Logo, want.Timezone, want.Currency,
			want.FiscalYearStart, want.PaymentTerms, want.InvoicePrefix,
			want.TaxRate, want.RegistrationNumber, methods, notif,
			branding, want.IsActive, want.CreatedAt, want.UpdatedAt,
		))

	got, err := store.Organizations().Get(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Currency != portal.DefaultCurrency || got.Timezone != portal.DefaultTimezone {
		t.Fatalf("defaults lost in round trip: %+v", got)
	}
	if !got.PaymentMethods.Paypal.Enabled || got.PaymentMethods.Paypal.Email != "pay@acme.test" {
		t.Fatalf("payment methods lost in round trip: %+v", got.PaymentMethods)
	}
	if got.Branding.PrimaryColor != portal.DefaultPrimaryColor {
		t.Fatalf("branding lost in round trip: %+v", got.Branding)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOrganizationGetNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("select (.+) from organizations").
		WithArgs("absent").
		WillReturnRows(sqlmock.NewRows(orgRowColumns))
	if _, err := store.Organizations().Get(context.Background(), "absent"); !errors.Is(err, portal.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestOrganizationCreateConflict(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	org, err := portal.NewOrganization(portal.Organization{ID: "org-1", Name: "Acme", Email: "ops@acme.test"}, now)
	if err != nil {
		t.Fatalf("NewOrganization: %v", err)
	}

	mock.ExpectExec("insert into organizations").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	if _, err := store.Organizations().Create(context.Background(), org); !errors.Is(err, portal.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProjectCreateMissingOrganization(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	p, err := portal.NewProject(portal.Project{
		ID:             "proj-1",
		OrganizationID: "org-missing",
		Name:           "Rollout",
		Client:         "Acme",
	}, now)
	if err != nil {
		t.Fatalf("NewProject: %v", err)
	}

	mock.ExpectExec("insert into projects").
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})

	if _, err := store.Projects().Create(context.Background(), p); !errors.Is(err, portal.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStaffMemberAccessControlRoundTrip(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	ctrl := &access.Control{
		Organizations:          []string{"org-1"},
		Projects:               []string{"proj-1"},
		RestrictToAssignedOnly: true,
	}
	rawCtrl, _ := json.Marshal(ctrl)

	cols := []string{
		"id", "user_id", "name", "email", "phone", "department", "role",
		"hourly_rate", "total_earned", "hours_this_month", "status",
		"avatar", "access_control", "joined_at", "created_at", "updated_at",
	}
	mock.ExpectQuery("select (.+) from staff_members").
		WithArgs("sarah@company.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"staff-1", "user-1", "Sarah Johnson", "sarah@company.com", "",
			"Engineering", portal.RoleStaff, 85.0, 0.0, 0.0,
			portal.StaffStatusActive, "", rawCtrl, now, now, now,
		))

	m, err := store.StaffMembers().FindByEmail(context.Background(), "sarah@company.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if m.AccessControl == nil || !m.AccessControl.RestrictToAssignedOnly {
		t.Fatalf("access control lost in round trip: %+v", m.AccessControl)
	}
	if !access.CanAccessOrganization(m.AccessControl, "org-1") {
		t.Fatal("assigned organization should be accessible")
	}
	if access.CanAccessOrganization(m.AccessControl, "org-2") {
		t.Fatal("unassigned organization must be blocked")
	}
}

func TestStaffMemberUpdatePartial(t *testing.T) {
	store, mock := newMockStore(t)
	name := "Renamed"

	mock.ExpectExec(`update staff_members set name = \$1, updated_at = now\(\) where id = \$2`).
		WithArgs(name, "staff-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	cols := []string{
		"id", "user_id", "name", "email", "phone", "department", "role",
		"hourly_rate", "total_earned", "hours_this_month", "status",
		"avatar", "access_control", "joined_at", "created_at", "updated_at",
	}
	now := time.Now().UTC()
	mock.ExpectQuery("select (.+) from staff_members").
		WithArgs("staff-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"staff-1", "", name, "s@example.com", "", "General",
			portal.RoleStaff, 0.0, 0.0, 0.0, portal.StaffStatusActive,
			"", nil, now, now, now,
		))

	m, err := store.StaffMembers().Update(context.Background(), "staff-1", portal.StaffMemberUpdate{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if m.Name != name {
		t.Fatalf("name = %q", m.Name)
	}
	if m.AccessControl != nil {
		t.Fatalf("expected nil access control, got %+v", m.AccessControl)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInvoiceStatusTransitionStampsApproval(t *testing.T) {
	store, mock := newMockStore(t)
	status := portal.SubmissionApproved

	mock.ExpectExec(`update invoices set status = \$1, approved_at = now\(\), updated_at = now\(\) where id = \$2`).
		WithArgs(status, "inv-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now().UTC()
	cols := []string{
		"id", "staff_member_id", "organization_id", "project_id", "title",
		"description", "amount", "currency", "due_date", "status",
		"file_url", "submitted_at", "approved_at", "paid_at",
		"created_at", "updated_at",
	}
	mock.ExpectQuery("select (.+) from invoices").
		WithArgs("inv-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"inv-1", "staff-1", "org-1", "", "April work", "", 1200.0,
			"USD", "", status, "", now, now, nil, now, now,
		))

	inv, err := store.Invoices().Update(context.Background(), "inv-1", portal.SubmissionUpdate{Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if inv.Status != portal.SubmissionApproved || inv.ApprovedAt == nil {
		t.Fatalf("transition not recorded: status=%q approved=%v", inv.Status, inv.ApprovedAt)
	}
	if inv.PaidAt != nil {
		t.Fatalf("paid_at must stay empty, got %v", inv.PaidAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteMissingRowNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("delete from time_entries").
		WithArgs("absent").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.TimeEntries().Delete(context.Background(), "absent"); !errors.Is(err, portal.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
