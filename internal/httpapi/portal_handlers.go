package httpapi

import (
	"net/http"
	"strings"
	"time"

	"collabportal.org/internal/access"
	"collabportal.org/internal/ids"
	"collabportal.org/internal/portal"
	"collabportal.org/internal/session"
	"collabportal.org/internal/stream"
)

// --- organizations ---

type organizationUpdateRequest struct {
	Name               *string                `json:"name"`
	Email              *string                `json:"email"`
	Phone              *string                `json:"phone"`
	Address            *string                `json:"address"`
	Website            *string                `json:"website"`
	Logo               *string                `json:"logo"`
	Timezone           *string                `json:"timezone"`
	Currency           *string                `json:"currency"`
	FiscalYearStart    *string                `json:"fiscal_year_start"`
	PaymentTerms       *int                   `json:"payment_terms"`
	InvoicePrefix      *string                `json:"invoice_prefix"`
	TaxRate            *float64               `json:"tax_rate"`
	RegistrationNumber *string                `json:"registration_number"`
	PaymentMethods     *portal.PaymentMethods `json:"payment_methods"`
	Notifications      *portal.Notifications  `json:"notifications"`
	Branding           *portal.Branding       `json:"branding"`
	IsActive           *bool                  `json:"is_active"`
}

func (req organizationUpdateRequest) toUpdate() portal.OrganizationUpdate {
	return portal.OrganizationUpdate{
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		Address:            req.Address,
		Website:            req.Website,
		Logo:               req.Logo,
		Timezone:           req.Timezone,
		Currency:           req.Currency,
		FiscalYearStart:    req.FiscalYearStart,
		PaymentTerms:       req.PaymentTerms,
		InvoicePrefix:      req.InvoicePrefix,
		TaxRate:            req.TaxRate,
		RegistrationNumber: req.RegistrationNumber,
		PaymentMethods:     req.PaymentMethods,
		Notifications:      req.Notifications,
		Branding:           req.Branding,
		IsActive:           req.IsActive,
	}
}

func (a *API) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listOrganizations(w, r)
	case http.MethodPost:
		a.createOrganization(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listOrganizations(w http.ResponseWriter, r *http.Request) {
	_, ctrl, err := a.caller(r.Context())
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "session expired")
		return
	}
	orgs, err := a.store.Organizations().List(r.Context())
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	visible := make([]portal.Organization, 0, len(orgs))
	for _, org := range orgs {
		if access.CanAccessOrganization(ctrl, org.ID) {
			visible = append(visible, org)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": visible})
}

func (a *API) createOrganization(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	var in portal.Organization
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in.ID = ids.New()
	org, err := portal.NewOrganization(in, time.Now())
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	org, err = a.store.Organizations().Create(r.Context(), org)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	a.audit(r.Context(), "portal.organization.create", "organization", org.ID, map[string]string{"name": org.Name})
	a.publish(stream.EventOrganizationCreated, org.ID, actorID(r), org)
	w.Header().Set("Location", "/v1/organizations/"+org.ID)
	writeJSON(w, http.StatusCreated, org)
}

func (a *API) handleOrganizationResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/v1/organizations/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		_, ctrl, err := a.caller(r.Context())
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "session expired")
			return
		}
		if !access.CanAccessOrganization(ctrl, id) {
			writeError(w, r, http.StatusForbidden, "organization not accessible")
			return
		}
		org, err := a.store.Organizations().Get(r.Context(), id)
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, org)
	case http.MethodPatch:
		if !a.requireAdmin(w, r) {
			return
		}
		var req organizationUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		org, err := a.store.Organizations().Update(r.Context(), id, req.toUpdate())
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		a.audit(r.Context(), "portal.organization.update", "organization", id, nil)
		a.publish(stream.EventOrganizationUpdated, id, actorID(r), org)
		writeJSON(w, http.StatusOK, org)
	case http.MethodDelete:
		if !a.requireAdmin(w, r) {
			return
		}
		if err := a.store.Organizations().Delete(r.Context(), id); err != nil {
			handlePortalError(w, r, err)
			return
		}
		a.audit(r.Context(), "portal.organization.delete", "organization", id, nil)
		a.publish(stream.EventOrganizationDeleted, id, actorID(r), nil)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

// --- projects ---

type projectUpdateRequest struct {
	OrganizationID *string   `json:"organization_id"`
	Name           *string   `json:"name"`
	Client         *string   `json:"client"`
	Description    *string   `json:"description"`
	Budget         *float64  `json:"budget"`
	Spent          *float64  `json:"spent"`
	StartDate      *string   `json:"start_date"`
	EndDate        *string   `json:"end_date"`
	Status         *string   `json:"status"`
	TeamMembers    *[]string `json:"team_members"`
	HourlyBudget   *float64  `json:"hourly_budget"`
	HoursSpent     *float64  `json:"hours_spent"`
	Priority       *string   `json:"priority"`
	Tags           *[]string `json:"tags"`
}

func (req projectUpdateRequest) toUpdate() portal.ProjectUpdate {
	return portal.ProjectUpdate{
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		Client:         req.Client,
		Description:    req.Description,
		Budget:         req.Budget,
		Spent:          req.Spent,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Status:         req.Status,
		TeamMembers:    req.TeamMembers,
		HourlyBudget:   req.HourlyBudget,
		HoursSpent:     req.HoursSpent,
		Priority:       req.Priority,
		Tags:           req.Tags,
	}
}

func (a *API) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listProjects(w, r)
	case http.MethodPost:
		a.createProject(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listProjects(w http.ResponseWriter, r *http.Request) {
	_, ctrl, err := a.caller(r.Context())
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "session expired")
		return
	}
	projects, err := a.store.Projects().List(r.Context())
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	visible := make([]portal.Project, 0, len(projects))
	for _, p := range projects {
		if access.CanAccessProject(ctrl, p.Ref()) {
			visible = append(visible, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": visible})
}

func (a *API) createProject(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	var in portal.Project
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in.ID = ids.New()
	p, err := portal.NewProject(in, time.Now())
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	p, err = a.store.Projects().Create(r.Context(), p)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	a.audit(r.Context(), "portal.project.create", "project", p.ID, map[string]string{
		"organization_id": p.OrganizationID,
		"name":            p.Name,
	})
	a.publish(stream.EventProjectCreated, p.ID, actorID(r), p)
	w.Header().Set("Location", "/v1/projects/"+p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) handleProjectResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/v1/projects/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		_, ctrl, err := a.caller(r.Context())
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "session expired")
			return
		}
		p, err := a.store.Projects().Get(r.Context(), id)
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		if !access.CanAccessProject(ctrl, p.Ref()) {
			writeError(w, r, http.StatusForbidden, "project not accessible")
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPatch:
		if !a.requireAdmin(w, r) {
			return
		}
		var req projectUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		p, err := a.store.Projects().Update(r.Context(), id, req.toUpdate())
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		a.audit(r.Context(), "portal.project.update", "project", id, nil)
		a.publish(stream.EventProjectUpdated, id, actorID(r), p)
		writeJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		if !a.requireAdmin(w, r) {
			return
		}
		if err := a.store.Projects().Delete(r.Context(), id); err != nil {
			handlePortalError(w, r, err)
			return
		}
		a.audit(r.Context(), "portal.project.delete", "project", id, nil)
		a.publish(stream.EventProjectDeleted, id, actorID(r), nil)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

// --- staff members ---

type staffUpdateRequest struct {
	Name           *string         `json:"name"`
	Email          *string         `json:"email"`
	Phone          *string         `json:"phone"`
	Department     *string         `json:"department"`
	Role           *string         `json:"role"`
	HourlyRate     *float64        `json:"hourly_rate"`
	TotalEarned    *float64        `json:"total_earned"`
	HoursThisMonth *float64        `json:"hours_this_month"`
	Status         *string         `json:"status"`
	Avatar         *string         `json:"avatar"`
	AccessControl  *access.Control `json:"access_control"`
}

func (req staffUpdateRequest) toUpdate() portal.StaffMemberUpdate {
	return portal.StaffMemberUpdate{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Department:     req.Department,
		Role:           req.Role,
		HourlyRate:     req.HourlyRate,
		TotalEarned:    req.TotalEarned,
		HoursThisMonth: req.HoursThisMonth,
		Status:         req.Status,
		Avatar:         req.Avatar,
		AccessControl:  req.AccessControl,
	}
}

func (a *API) handleStaff(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.requireAdmin(w, r) {
			return
		}
		members, err := a.store.StaffMembers().List(r.Context())
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": members})
	case http.MethodPost:
		a.createStaffMember(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createStaffMember(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	var in portal.StaffMember
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in.ID = ids.New()
	// Records created here are provisioned, not linked; the identity
	// back-reference is set on first sign-in.
	in.UserID = ""
	m, err := portal.NewStaffMember(in, time.Now())
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	m, err = a.store.StaffMembers().Create(r.Context(), m)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	a.audit(r.Context(), "portal.staff.create", "staff_member", m.ID, map[string]string{"email": m.Email})
	a.publish(stream.EventStaffCreated, m.ID, actorID(r), m)
	w.Header().Set("Location", "/v1/staff/"+m.ID)
	writeJSON(w, http.StatusCreated, m)
}

func (a *API) handleStaffResource(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r.URL.Path, "/v1/staff/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		// Staff may read their own record; everything else is admin.
		if !session.IsAdmin(r.Context()) {
			userID, _ := session.UserIDFromContext(r.Context())
			if userID != id {
				writeError(w, r, http.StatusForbidden, "admin role required")
				return
			}
		}
		m, err := a.store.StaffMembers().Get(r.Context(), id)
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	case http.MethodPatch:
		if !a.requireAdmin(w, r) {
			return
		}
		var req staffUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		m, err := a.store.StaffMembers().Update(r.Context(), id, req.toUpdate())
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		a.audit(r.Context(), "portal.staff.update", "staff_member", id, nil)
		a.publish(stream.EventStaffUpdated, id, actorID(r), m)
		writeJSON(w, http.StatusOK, m)
	case http.MethodDelete:
		if !a.requireAdmin(w, r) {
			return
		}
		if err := a.store.StaffMembers().Delete(r.Context(), id); err != nil {
			handlePortalError(w, r, err)
			return
		}
		a.audit(r.Context(), "portal.staff.delete", "staff_member", id, nil)
		a.publish(stream.EventStaffDeleted, id, actorID(r), nil)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

// --- shared ---

func resourceID(path, prefix string) string {
	id := strings.TrimPrefix(path, prefix)
	id = strings.Trim(id, "/")
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}

func actorID(r *http.Request) string {
	id, _ := session.UserIDFromContext(r.Context())
	return id
}
