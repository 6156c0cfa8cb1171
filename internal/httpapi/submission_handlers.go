package httpapi

import (
	"net/http"
	"strings"
	"time"

	"collabportal.org/internal/ids"
	"collabportal.org/internal/portal"
	"collabportal.org/internal/session"
	"collabportal.org/internal/stream"
)

type submissionUpdateRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	Currency    *string  `json:"currency"`
	Hours       *float64 `json:"hours"`
	Date        *string  `json:"date"`
	DueDate     *string  `json:"due_date"`
	FileURL     *string  `json:"file_url"`
	ReceiptURL  *string  `json:"receipt_url"`
}

func (req submissionUpdateRequest) toUpdate() portal.SubmissionUpdate {
	return portal.SubmissionUpdate{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Hours:       req.Hours,
		Date:        req.Date,
		DueDate:     req.DueDate,
		FileURL:     req.FileURL,
		ReceiptURL:  req.ReceiptURL,
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

// validTransition encodes the submission workflow: pending submissions
// get approved or rejected, approved ones get paid.
func validTransition(from, to string) bool {
	switch from {
	case portal.SubmissionPending:
		return to == portal.SubmissionApproved || to == portal.SubmissionRejected
	case portal.SubmissionApproved:
		return to == portal.SubmissionPaid
	default:
		return false
	}
}

// --- invoices ---

func (a *API) handleInvoices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listInvoices(w, r)
	case http.MethodPost:
		a.createInvoice(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listInvoices(w http.ResponseWriter, r *http.Request) {
	member, _, err := a.caller(r.Context())
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "session expired")
		return
	}
	items, err := a.store.Invoices().List(r.Context())
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	if !session.IsAdmin(r.Context()) {
		own := make([]portal.Invoice, 0, len(items))
		for _, inv := range items {
			if inv.StaffMemberID == member.ID {
				own = append(own, inv)
			}
		}
		items = own
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) createInvoice(w http.ResponseWriter, r *http.Request) {
	member, _, err := a.caller(r.Context())
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "session expired")
		return
	}
	var in portal.Invoice
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !session.IsAdmin(r.Context()) {
		// Staff submit for themselves.
		in.StaffMemberID = member.ID
	}
	in.ID = ids.New()
	inv, err := portal.NewInvoice(in, time.Now())
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	inv, err = a.store.Invoices().Create(r.Context(), inv)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	a.audit(r.Context(), "portal.invoice.create", "invoice", inv.ID, map[string]string{
		"staff_member_id": inv.StaffMemberID,
		"organization_id": inv.OrganizationID,
	})
	a.publish(stream.EventSubmissionCreated, inv.ID, actorID(r), inv)
	w.Header().Set("Location", "/v1/invoices/"+inv.ID)
	writeJSON(w, http.StatusCreated, inv)
}

func (a *API) handleInvoiceResource(w http.ResponseWriter, r *http.Request) {
	id, action := submissionPath(r.URL.Path, "/v1/invoices/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if action == "status" {
		a.transitionInvoice(w, r, id)
		return
	}
	if action != "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		inv, err := a.store.Invoices().Get(r.Context(), id)
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		if !a.canReadSubmission(r, inv.StaffMemberID) {
			writeError(w, r, http.StatusForbidden, "not your submission")
			return
		}
		writeJSON(w, http.StatusOK, inv)
	case http.MethodPatch:
		inv, err := a.store.Invoices().Get(r.Context(), id)
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		if !a.canReadSubmission(r, inv.StaffMemberID) {
			writeError(w, r, http.StatusForbidden, "not your submission")
			return
		}
		if inv.Status != portal.SubmissionPending && !session.IsAdmin(r.Context()) {
			writeError(w, r, http.StatusConflict, "only pending submissions can be edited")
			return
		}
		var req submissionUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		inv, err = a.store.Invoices().Update(r.Context(), id, req.toUpdate())
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		a.publish(stream.EventSubmissionUpdated, id, actorID(r), inv)
		writeJSON(w, http.StatusOK, inv)
	case http.MethodDelete:
		if !a.requireAdmin(w, r) {
			return
		}
		if err := a.store.Invoices().Delete(r.Context(), id); err != nil {
			handlePortalError(w, r, err)
			return
		}
		a.audit(r.Context(), "portal.invoice.delete", "invoice", id, nil)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) transitionInvoice(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.requireAdmin(w, r) {
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	inv, err := a.store.Invoices().Get(r.Context(), id)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	if !validTransition(inv.Status, req.Status) {
		writeError(w, r, http.StatusConflict, "invalid status transition")
		return
	}
	inv, err = a.store.Invoices().Update(r.Context(), id, portal.SubmissionUpdate{Status: &req.Status})
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	a.audit(r.Context(), "portal.invoice.status", "invoice", id, map[string]string{"status": req.Status})
	a.publish(stream.EventSubmissionUpdated, id, actorID(r), inv)
	writeJSON(w, http.StatusOK, inv)
}

// --- payment requests ---

func (a *API) handlePaymentRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listPaymentRequests(w, r)
	case http.MethodPost:
		a.createPaymentRequest(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listPaymentRequests(w http.ResponseWriter, r *http.Request) {
	member, _, err := a.caller(r.Context())
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "session expired")
		return
	}
	items, err := a.store.PaymentRequests().List(r.Context())
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	if !session.IsAdmin(r.Context()) {
		own := make([]portal.PaymentRequest, 0, len(items))
		for _, pr := range items {
			if pr.StaffMemberID == member.ID {
				own = append(own, pr)
			}
		}
		items = own
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) createPaymentRequest(w http.ResponseWriter, r *http.Request) {
	member, _, err := a.caller(r.Context())
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "session expired")
		return
	}
	var in portal.PaymentRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !session.IsAdmin(r.Context()) {
		in.StaffMemberID = member.ID
	}
	in.ID = ids.New()
	pr, err := portal.NewPaymentRequest(in, time.Now())
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	pr, err = a.store.PaymentRequests().Create(r.Context(), pr)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	a.audit(r.Context(), "portal.payment_request.create", "payment_request", pr.ID, map[string]string{
		"type":            pr.Type,
		"staff_member_id": pr.StaffMemberID,
	})
	a.publish(stream.EventSubmissionCreated, pr.ID, actorID(r), pr)
	w.Header().Set("Location", "/v1/payment-requests/"+pr.ID)
	writeJSON(w, http.StatusCreated, pr)
}

func (a *API) handlePaymentRequestResource(w http.ResponseWriter, r *http.Request) {
	id, action := submissionPath(r.URL.Path, "/v1/payment-requests/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if action == "status" {
		a.transitionPaymentRequest(w, r, id)
		return
	}
	if action != "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		pr, err := a.store.PaymentRequests().Get(r.Context(), id)
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		if !a.canReadSubmission(r, pr.StaffMemberID) {
			writeError(w, r, http.StatusForbidden, "not your submission")
			return
		}
		writeJSON(w, http.StatusOK, pr)
	case http.MethodPatch:
		pr, err := a.store.PaymentRequests().Get(r.Context(), id)
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		if !a.canReadSubmission(r, pr.StaffMemberID) {
			writeError(w, r, http.StatusForbidden, "not your submission")
			return
		}
		if pr.Status != portal.SubmissionPending && !session.IsAdmin(r.Context()) {
			writeError(w, r, http.StatusConflict, "only pending submissions can be edited")
			return
		}
		var req submissionUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		pr, err = a.store.PaymentRequests().Update(r.Context(), id, req.toUpdate())
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		a.publish(stream.EventSubmissionUpdated, id, actorID(r), pr)
		writeJSON(w, http.StatusOK, pr)
	case http.MethodDelete:
		if !a.requireAdmin(w, r) {
			return
		}
		if err := a.store.PaymentRequests().Delete(r.Context(), id); err != nil {
			handlePortalError(w, r, err)
			return
		}
		a.audit(r.Context(), "portal.payment_request.delete", "payment_request", id, nil)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) transitionPaymentRequest(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.requireAdmin(w, r) {
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	pr, err := a.store.PaymentRequests().Get(r.Context(), id)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	if !validTransition(pr.Status, req.Status) {
		writeError(w, r, http.StatusConflict, "invalid status transition")
		return
	}
	pr, err = a.store.PaymentRequests().Update(r.Context(), id, portal.SubmissionUpdate{Status: &req.Status})
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	a.audit(r.Context(), "portal.payment_request.status", "payment_request", id, map[string]string{"status": req.Status})
	a.publish(stream.EventSubmissionUpdated, id, actorID(r), pr)
	writeJSON(w, http.StatusOK, pr)
}

// --- time entries ---

func (a *API) handleTimeEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listTimeEntries(w, r)
	case http.MethodPost:
		a.createTimeEntry(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listTimeEntries(w http.ResponseWriter, r *http.Request) {
	member, _, err := a.caller(r.Context())
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "session expired")
		return
	}
	items, err := a.store.TimeEntries().List(r.Context())
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	if !session.IsAdmin(r.Context()) {
		own := make([]portal.TimeEntry, 0, len(items))
		for _, te := range items {
			if te.StaffMemberID == member.ID {
				own = append(own, te)
			}
		}
		items = own
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) createTimeEntry(w http.ResponseWriter, r *http.Request) {
	member, _, err := a.caller(r.Context())
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "session expired")
		return
	}
	var in portal.TimeEntry
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !session.IsAdmin(r.Context()) {
		in.StaffMemberID = member.ID
	}
	in.ID = ids.New()
	te, err := portal.NewTimeEntry(in, time.Now())
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	te, err = a.store.TimeEntries().Create(r.Context(), te)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	a.audit(r.Context(), "portal.time_entry.create", "time_entry", te.ID, map[string]string{
		"project_id": te.ProjectID,
	})
	a.publish(stream.EventSubmissionCreated, te.ID, actorID(r), te)
	w.Header().Set("Location", "/v1/time-entries/"+te.ID)
	writeJSON(w, http.StatusCreated, te)
}

func (a *API) handleTimeEntryResource(w http.ResponseWriter, r *http.Request) {
	id, action := submissionPath(r.URL.Path, "/v1/time-entries/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if action == "approve" {
		a.approveTimeEntry(w, r, id)
		return
	}
	if action != "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		te, err := a.store.TimeEntries().Get(r.Context(), id)
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		if !a.canReadSubmission(r, te.StaffMemberID) {
			writeError(w, r, http.StatusForbidden, "not your submission")
			return
		}
		writeJSON(w, http.StatusOK, te)
	case http.MethodPatch:
		te, err := a.store.TimeEntries().Get(r.Context(), id)
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		if !a.canReadSubmission(r, te.StaffMemberID) {
			writeError(w, r, http.StatusForbidden, "not your submission")
			return
		}
		if te.Status != portal.TimeEntrySubmitted && !session.IsAdmin(r.Context()) {
			writeError(w, r, http.StatusConflict, "approved entries cannot be edited")
			return
		}
		var req submissionUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		te, err = a.store.TimeEntries().Update(r.Context(), id, req.toUpdate())
		if err != nil {
			handlePortalError(w, r, err)
			return
		}
		a.publish(stream.EventSubmissionUpdated, id, actorID(r), te)
		writeJSON(w, http.StatusOK, te)
	case http.MethodDelete:
		if !a.requireAdmin(w, r) {
			return
		}
		if err := a.store.TimeEntries().Delete(r.Context(), id); err != nil {
			handlePortalError(w, r, err)
			return
		}
		a.audit(r.Context(), "portal.time_entry.delete", "time_entry", id, nil)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) approveTimeEntry(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.requireAdmin(w, r) {
		return
	}
	te, err := a.store.TimeEntries().Get(r.Context(), id)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	if te.Status != portal.TimeEntrySubmitted {
		writeError(w, r, http.StatusConflict, "entry is not awaiting approval")
		return
	}
	approved := portal.TimeEntryApproved
	te, err = a.store.TimeEntries().Update(r.Context(), id, portal.SubmissionUpdate{Status: &approved})
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	a.audit(r.Context(), "portal.time_entry.approve", "time_entry", id, nil)
	a.publish(stream.EventSubmissionUpdated, id, actorID(r), te)
	writeJSON(w, http.StatusOK, te)
}

// --- shared ---

func (a *API) canReadSubmission(r *http.Request, ownerID string) bool {
	if session.IsAdmin(r.Context()) {
		return true
	}
	userID, _ := session.UserIDFromContext(r.Context())
	return userID == ownerID
}

// submissionPath splits "/v1/<kind>/{id}" and "/v1/<kind>/{id}/{action}".
func submissionPath(path, prefix string) (id, action string) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return "", ""
	}
	parts := strings.Split(rest, "/")
	switch len(parts) {
	case 1:
		return parts[0], ""
	case 2:
		return parts[0], parts[1]
	default:
		return "", ""
	}
}
