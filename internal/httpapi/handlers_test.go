package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"collabportal.org/internal/access"
	"collabportal.org/internal/identity"
	"collabportal.org/internal/portal"
	"collabportal.org/internal/session"
	"collabportal.org/internal/store/memory"
	"collabportal.org/internal/stream"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	store   portal.Store
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	t.Setenv("PORTAL_AUTH_SECRET", "test-secret")
	session.ResetSecretForTests()

	store := memory.New()
	seedStaff(t, store)

	gateway, err := identity.NewStatic(identity.DefaultSeeds()...)
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	sessions := session.NewManager(gateway, store.StaffMembers(), session.NewMemoryCache())

	api := New(ReadyProbe{}, "test", store, sessions, stream.New(), WithRateLimit(100, 100))

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		store:   store,
		t:       t,
	}
}

// seedStaff provisions the records behind the static identities: the
// fallback admin and one staff member restricted to org-assigned.
func seedStaff(t *testing.T, store portal.Store) {
	t.Helper()
	now := time.Now()
	admin, err := portal.NewStaffMember(portal.StaffMember{
		ID:     "staff-admin",
		UserID: "seed-admin",
		Name:   "Admin User",
		Email:  "admin@company.com",
		Role:   portal.RoleAdmin,
	}, now)
	if err != nil {
		t.Fatalf("NewStaffMember: %v", err)
	}
	if _, err := store.StaffMembers().Create(context.Background(), admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	staff, err := portal.NewStaffMember(portal.StaffMember{
		ID:     "staff-sarah",
		UserID: "seed-staff",
		Name:   "Sarah Johnson",
		Email:  "sarah@company.com",
		AccessControl: &access.Control{
			Organizations:          []string{"org-assigned"},
			RestrictToAssignedOnly: true,
		},
	}, now)
	if err != nil {
		t.Fatalf("NewStaffMember: %v", err)
	}
	if _, err := store.StaffMembers().Create(context.Background(), staff); err != nil {
		t.Fatalf("seed staff: %v", err)
	}
}

func (c *apiClient) do(method, path string, body any, token string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	req, err := http.NewRequest(method, u.String(), bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) login(email, password string) string {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("unexpected login status: %d", resp.StatusCode)
	}
	var payload sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.t.Fatalf("decode login response: %v", err)
	}
	if payload.Token == "" {
		c.t.Fatalf("empty token issued")
	}
	return payload.Token
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

func TestLoginIssuesAdminSession(t *testing.T) {
	c := newTestAPI(t)
	resp := c.do(http.MethodPost, "/v1/auth/login", map[string]string{
		"email":    "admin@company.com",
		"password": "admin123",
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	payload := decode[sessionResponse](t, resp)
	if payload.User.Role != portal.RoleAdmin {
		t.Fatalf("role = %q, want admin", payload.User.Role)
	}
	if payload.User.ID != "staff-admin" {
		t.Fatalf("user id = %q", payload.User.ID)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	c := newTestAPI(t)
	resp := c.do(http.MethodPost, "/v1/auth/login", map[string]string{
		"email":    "admin@company.com",
		"password": "wrong",
	}, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := newTestAPI(t)
	resp := c.do(http.MethodGet, "/v1/organizations", nil, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestOrganizationCreateAppliesDefaults(t *testing.T) {
	c := newTestAPI(t)
	token := c.login("admin@company.com", "admin123")

	resp := c.do(http.MethodPost, "/v1/organizations", map[string]any{
		"name":  "Acme",
		"email": "ops@acme.test",
	}, token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	org := decode[portal.Organization](t, resp)
	if org.Currency != portal.DefaultCurrency || org.PaymentTerms != portal.DefaultPaymentTerms {
		t.Fatalf("defaults not applied: %+v", org)
	}
	if org.Timezone != portal.DefaultTimezone || org.FiscalYearStart != portal.DefaultFiscalYearStart {
		t.Fatalf("defaults not applied: %+v", org)
	}
	if !org.IsActive {
		t.Fatal("new organizations start active")
	}
	if org.PaymentMethods.Paypal.Enabled || org.PaymentMethods.Wise.Enabled || org.PaymentMethods.Veem.Enabled {
		t.Fatal("payment providers must start disabled")
	}
	if org.Branding.PrimaryColor != portal.DefaultPrimaryColor {
		t.Fatalf("branding default missing: %+v", org.Branding)
	}
}

func TestStaffCannotCreateOrganizations(t *testing.T) {
	c := newTestAPI(t)
	token := c.login("sarah@company.com", "staff123")

	resp := c.do(http.MethodPost, "/v1/organizations", map[string]any{
		"name":  "Rogue Org",
		"email": "rogue@example.com",
	}, token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestStaffOrganizationVisibility(t *testing.T) {
	c := newTestAPI(t)
	now := time.Now()
	for _, org := range []portal.Organization{
		{ID: "org-assigned", Name: "Assigned", Email: "a@example.com"},
		{ID: "org-other", Name: "Other", Email: "o@example.com"},
	} {
		created, err := portal.NewOrganization(org, now)
		if err != nil {
			t.Fatalf("NewOrganization: %v", err)
		}
		if _, err := c.store.Organizations().Create(context.Background(), created); err != nil {
			t.Fatalf("create org: %v", err)
		}
	}

	adminToken := c.login("admin@company.com", "admin123")
	resp := c.do(http.MethodGet, "/v1/organizations", nil, adminToken)
	if got := decode[listResponse[portal.Organization]](t, resp); len(got.Items) != 2 {
		t.Fatalf("admin sees %d organizations, want 2", len(got.Items))
	}

	staffToken := c.login("sarah@company.com", "staff123")
	resp = c.do(http.MethodGet, "/v1/organizations", nil, staffToken)
	got := decode[listResponse[portal.Organization]](t, resp)
	if len(got.Items) != 1 || got.Items[0].ID != "org-assigned" {
		t.Fatalf("staff visibility wrong: %+v", got.Items)
	}

	resp = c.do(http.MethodGet, "/v1/organizations/org-other", nil, staffToken)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for unassigned organization", resp.StatusCode)
	}
}

func TestStaffProjectVisibilityFollowsOrganizationGate(t *testing.T) {
	c := newTestAPI(t)
	now := time.Now()
	ctx := context.Background()
	for _, org := range []string{"org-assigned", "org-other"} {
		created, err := portal.NewOrganization(portal.Organization{ID: org, Name: org, Email: org + "@example.com"}, now)
		if err != nil {
			t.Fatalf("NewOrganization: %v", err)
		}
		if _, err := c.store.Organizations().Create(ctx, created); err != nil {
			t.Fatalf("create org: %v", err)
		}
	}
	for id, org := range map[string]string{
		"proj-in":  "org-assigned",
		"proj-out": "org-other",
	} {
		p, err := portal.NewProject(portal.Project{ID: id, OrganizationID: org, Name: id, Client: "c"}, now)
		if err != nil {
			t.Fatalf("NewProject: %v", err)
		}
		if _, err := c.store.Projects().Create(ctx, p); err != nil {
			t.Fatalf("create project: %v", err)
		}
	}

	staffToken := c.login("sarah@company.com", "staff123")
	resp := c.do(http.MethodGet, "/v1/projects", nil, staffToken)
	got := decode[listResponse[portal.Project]](t, resp)
	if len(got.Items) != 1 || got.Items[0].ID != "proj-in" {
		t.Fatalf("project visibility wrong: %+v", got.Items)
	}
}

func TestInvoiceWorkflow(t *testing.T) {
	c := newTestAPI(t)
	now := time.Now()
	ctx := context.Background()
	org, err := portal.NewOrganization(portal.Organization{ID: "org-assigned", Name: "Assigned", Email: "a@example.com"}, now)
	if err != nil {
		t.Fatalf("NewOrganization: %v", err)
	}
	if _, err := c.store.Organizations().Create(ctx, org); err != nil {
		t.Fatalf("create org: %v", err)
	}

	staffToken := c.login("sarah@company.com", "staff123")

	resp := c.do(http.MethodPost, "/v1/invoices", map[string]any{
		"staff_member_id": "someone-else",
		"organization_id": "org-assigned",
		"title":           "April work",
		"amount":          1200.0,
	}, staffToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	inv := decode[portal.Invoice](t, resp)
	if inv.StaffMemberID != "staff-sarah" {
		t.Fatalf("staff submissions must be forced to the caller, got %q", inv.StaffMemberID)
	}
	if inv.Status != portal.SubmissionPending {
		t.Fatalf("status = %q, want pending", inv.Status)
	}

	adminToken := c.login("admin@company.com", "admin123")

	// pending -> paid skips approval and must be rejected
	resp = c.do(http.MethodPost, "/v1/invoices/"+inv.ID+"/status", map[string]string{"status": portal.SubmissionPaid}, adminToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409 for pending->paid", resp.StatusCode)
	}

	resp = c.do(http.MethodPost, "/v1/invoices/"+inv.ID+"/status", map[string]string{"status": portal.SubmissionApproved}, adminToken)
	approved := decode[portal.Invoice](t, resp)
	if approved.Status != portal.SubmissionApproved || approved.ApprovedAt == nil {
		t.Fatalf("approval not recorded: %+v", approved)
	}

	resp = c.do(http.MethodPost, "/v1/invoices/"+inv.ID+"/status", map[string]string{"status": portal.SubmissionPaid}, adminToken)
	paid := decode[portal.Invoice](t, resp)
	if paid.Status != portal.SubmissionPaid || paid.PaidAt == nil {
		t.Fatalf("payment not recorded: %+v", paid)
	}

	// staff cannot drive transitions
	resp = c.do(http.MethodPost, "/v1/invoices/"+inv.ID+"/status", map[string]string{"status": portal.SubmissionApproved}, staffToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestStaffSeeOnlyOwnInvoices(t *testing.T) {
	c := newTestAPI(t)
	now := time.Now()
	ctx := context.Background()
	org, err := portal.NewOrganization(portal.Organization{ID: "org-assigned", Name: "Assigned", Email: "a@example.com"}, now)
	if err != nil {
		t.Fatalf("NewOrganization: %v", err)
	}
	if _, err := c.store.Organizations().Create(ctx, org); err != nil {
		t.Fatalf("create org: %v", err)
	}
	for _, in := range []portal.Invoice{
		{ID: "inv-own", StaffMemberID: "staff-sarah", OrganizationID: "org-assigned", Title: "mine", Amount: 10},
		{ID: "inv-foreign", StaffMemberID: "staff-admin", OrganizationID: "org-assigned", Title: "theirs", Amount: 20},
	} {
		inv, err := portal.NewInvoice(in, now)
		if err != nil {
			t.Fatalf("NewInvoice: %v", err)
		}
		if _, err := c.store.Invoices().Create(ctx, inv); err != nil {
			t.Fatalf("create invoice: %v", err)
		}
	}

	staffToken := c.login("sarah@company.com", "staff123")
	resp := c.do(http.MethodGet, "/v1/invoices", nil, staffToken)
	got := decode[listResponse[portal.Invoice]](t, resp)
	if len(got.Items) != 1 || got.Items[0].ID != "inv-own" {
		t.Fatalf("invoice visibility wrong: %+v", got.Items)
	}

	resp = c.do(http.MethodGet, "/v1/invoices/inv-foreign", nil, staffToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestTimeEntryApproval(t *testing.T) {
	c := newTestAPI(t)
	now := time.Now()
	ctx := context.Background()
	org, err := portal.NewOrganization(portal.Organization{ID: "org-assigned", Name: "Assigned", Email: "a@example.com"}, now)
	if err != nil {
		t.Fatalf("NewOrganization: %v", err)
	}
	if _, err := c.store.Organizations().Create(ctx, org); err != nil {
		t.Fatalf("create org: %v", err)
	}
	p, err := portal.NewProject(portal.Project{ID: "proj-in", OrganizationID: "org-assigned", Name: "Rollout", Client: "c"}, now)
	if err != nil {
		t.Fatalf("NewProject: %v", err)
	}
	if _, err := c.store.Projects().Create(ctx, p); err != nil {
		t.Fatalf("create project: %v", err)
	}

	staffToken := c.login("sarah@company.com", "staff123")
	resp := c.do(http.MethodPost, "/v1/time-entries", map[string]any{
		"project_id":  "proj-in",
		"description": "code review",
		"hours":       3.5,
	}, staffToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	te := decode[portal.TimeEntry](t, resp)
	if te.Status != portal.TimeEntrySubmitted {
		t.Fatalf("status = %q, want submitted", te.Status)
	}

	adminToken := c.login("admin@company.com", "admin123")
	resp = c.do(http.MethodPost, "/v1/time-entries/"+te.ID+"/approve", nil, adminToken)
	approved := decode[portal.TimeEntry](t, resp)
	if approved.Status != portal.TimeEntryApproved {
		t.Fatalf("status = %q, want approved", approved.Status)
	}

	// double approval conflicts
	resp = c.do(http.MethodPost, "/v1/time-entries/"+te.ID+"/approve", nil, adminToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestProfileUpdate(t *testing.T) {
	c := newTestAPI(t)
	token := c.login("admin@company.com", "admin123")

	resp := c.do(http.MethodPatch, "/v1/auth/profile", map[string]string{"name": "Renamed Admin"}, token)
	user := decode[session.User](t, resp)
	if user.Name != "Renamed Admin" {
		t.Fatalf("name = %q", user.Name)
	}

	m, err := c.store.StaffMembers().Get(context.Background(), "staff-admin")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.Name != "Renamed Admin" {
		t.Fatalf("store name = %q", m.Name)
	}
}

func TestHealthAndInfoArePublic(t *testing.T) {
	c := newTestAPI(t)
	for _, path := range []string{"/healthz", "/readyz", "/v1/info", "/openapi.yaml"} {
		resp := c.do(http.MethodGet, path, nil, "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, resp.StatusCode)
		}
	}
}
