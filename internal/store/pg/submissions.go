package pg

import (
	"context"
	"database/sql"
	"errors"

	"collabportal.org/internal/portal"
)

// Invoices, payment requests, and time entries share the partial-update
// shape; the status columns carry their transition timestamps in SQL so
// approved_at/paid_at always match the transition that set them.

type invoiceStore struct{ s *Store }

const invoiceColumns = `id, staff_member_id, organization_id,
	coalesce(project_id, ''), title, description, amount, currency,
	coalesce(due_date, ''), status, file_url, submitted_at, approved_at,
	paid_at, created_at, updated_at`

func scanInvoice(row interface{ Scan(...any) error }) (portal.Invoice, error) {
	var (
		inv      portal.Invoice
		approved sql.NullTime
		paid     sql.NullTime
	)
	err := row.Scan(
		&inv.ID, &inv.StaffMemberID, &inv.OrganizationID, &inv.ProjectID,
		&inv.Title, &inv.Description, &inv.Amount, &inv.Currency,
		&inv.DueDate, &inv.Status, &inv.FileURL, &inv.SubmittedAt,
		&approved, &paid, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return portal.Invoice{}, err
	}
	if approved.Valid {
		inv.ApprovedAt = &approved.Time
	}
	if paid.Valid {
		inv.PaidAt = &paid.Time
	}
	return inv, nil
}

func (f invoiceStore) List(ctx context.Context) ([]portal.Invoice, error) {
	if f.s.db == nil {
		return nil, errNoDB
	}
	rows, err := f.s.db.QueryContext(ctx, `
		select `+invoiceColumns+`
		from invoices
		order by created_at desc, id desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []portal.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (f invoiceStore) Get(ctx context.Context, id string) (portal.Invoice, error) {
	if f.s.db == nil {
		return portal.Invoice{}, errNoDB
	}
	inv, err := scanInvoice(f.s.db.QueryRowContext(ctx, `
		select `+invoiceColumns+`
		from invoices
		where id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return portal.Invoice{}, portal.ErrNotFound
	}
	return inv, err
}

func (f invoiceStore) Create(ctx context.Context, inv portal.Invoice) (portal.Invoice, error) {
	if f.s.db == nil {
		return portal.Invoice{}, errNoDB
	}
	_, err := f.s.db.ExecContext(ctx, `
		insert into invoices (
			id, staff_member_id, organization_id, project_id, title,
			description, amount, currency, due_date, status, file_url,
			submitted_at, created_at, updated_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, inv.ID, inv.StaffMemberID, inv.OrganizationID,
		nullIfEmpty(inv.ProjectID), inv.Title, inv.Description, inv.Amount,
		inv.Currency, nullIfEmpty(inv.DueDate), inv.Status, inv.FileURL,
		inv.SubmittedAt, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return portal.Invoice{}, translateWriteError(err)
	}
	return inv, nil
}

func (f invoiceStore) Update(ctx context.Context, id string, upd portal.SubmissionUpdate) (portal.Invoice, error) {
	if f.s.db == nil {
		return portal.Invoice{}, errNoDB
	}
	var b updateBuilder
	if upd.Title != nil {
		b.set("title", *upd.Title)
	}
	if upd.Description != nil {
		b.set("description", *upd.Description)
	}
	if upd.Amount != nil {
		b.set("amount", *upd.Amount)
	}
	if upd.Currency != nil {
		b.set("currency", *upd.Currency)
	}
	if upd.DueDate != nil {
		b.set("due_date", nullIfEmpty(*upd.DueDate))
	}
	if upd.FileURL != nil {
		b.set("file_url", *upd.FileURL)
	}
	applyStatus(&b, upd.Status)

	query, args := b.query("invoices", id)
	res, err := f.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return portal.Invoice{}, translateWriteError(err)
	}
	if err := checkAffected(res); err != nil {
		return portal.Invoice{}, err
	}
	return f.Get(ctx, id)
}

func (f invoiceStore) Delete(ctx context.Context, id string) error {
	if f.s.db == nil {
		return errNoDB
	}
	res, err := f.s.db.ExecContext(ctx, `delete from invoices where id = $1`, id)
	if err != nil {
		return translateWriteError(err)
	}
	return checkAffected(res)
}

func applyStatus(b *updateBuilder, status *string) {
	if status == nil {
		return
	}
	b.set("status", *status)
	switch *status {
	case portal.SubmissionApproved:
		b.setExpr("approved_at = now()")
	case portal.SubmissionPaid:
		b.setExpr("paid_at = now()")
	}
}

// --- payment requests ---

type paymentStore struct{ s *Store }

const paymentColumns = `id, staff_member_id, organization_id, type,
	description, amount, currency, status, receipt_url, submitted_at,
	approved_at, paid_at, created_at, updated_at`

func scanPaymentRequest(row interface{ Scan(...any) error }) (portal.PaymentRequest, error) {
	var (
		pr       portal.PaymentRequest
		approved sql.NullTime
		paid     sql.NullTime
	)
	err := row.Scan(
		&pr.ID, &pr.StaffMemberID, &pr.OrganizationID, &pr.Type,
		&pr.Description, &pr.Amount, &pr.Currency, &pr.Status,
		&pr.ReceiptURL, &pr.SubmittedAt, &approved, &paid,
		&pr.CreatedAt, &pr.UpdatedAt,
	)
	if err != nil {
		return portal.PaymentRequest{}, err
	}
	if approved.Valid {
		pr.ApprovedAt = &approved.Time
	}
	if paid.Valid {
		pr.PaidAt = &paid.Time
	}
	return pr, nil
}

func (f paymentStore) List(ctx context.Context) ([]portal.PaymentRequest, error) {
	if f.s.db == nil {
		return nil, errNoDB
	}
	rows, err := f.s.db.QueryContext(ctx, `
		select `+paymentColumns+`
		from payment_requests
		order by created_at desc, id desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []portal.PaymentRequest
	for rows.Next() {
		pr, err := scanPaymentRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (f paymentStore) Get(ctx context.Context, id string) (portal.PaymentRequest, error) {
	if f.s.db == nil {
		return portal.PaymentRequest{}, errNoDB
	}
	pr, err := scanPaymentRequest(f.s.db.QueryRowContext(ctx, `
		select `+paymentColumns+`
		from payment_requests
		where id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return portal.PaymentRequest{}, portal.ErrNotFound
	}
	return pr, err
}

func (f paymentStore) Create(ctx context.Context, pr portal.PaymentRequest) (portal.PaymentRequest, error) {
	if f.s.db == nil {
		return portal.PaymentRequest{}, errNoDB
	}
	_, err := f.s.db.ExecContext(ctx, `
		insert into payment_requests (
			id, staff_member_id, organization_id, type, description,
			amount, currency, status, receipt_url, submitted_at,
			created_at, updated_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, pr.ID, pr.StaffMemberID, pr.OrganizationID, pr.Type,
		pr.Description, pr.Amount, pr.Currency, pr.Status, pr.ReceiptURL,
		pr.SubmittedAt, pr.CreatedAt, pr.UpdatedAt)
	if err != nil {
		return portal.PaymentRequest{}, translateWriteError(err)
	}
	return pr, nil
}

func (f paymentStore) Update(ctx context.Context, id string, upd portal.SubmissionUpdate) (portal.PaymentRequest, error) {
	if f.s.db == nil {
		return portal.PaymentRequest{}, errNoDB
	}
	var b updateBuilder
	if upd.Description != nil {
		b.set("description", *upd.Description)
	}
	if upd.Amount != nil {
		b.set("amount", *upd.Amount)
	}
	if upd.Currency != nil {
		b.set("currency", *upd.Currency)
	}
	if upd.ReceiptURL != nil {
		b.set("receipt_url", *upd.ReceiptURL)
	}
	applyStatus(&b, upd.Status)

	query, args := b.query("payment_requests", id)
	res, err := f.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return portal.PaymentRequest{}, translateWriteError(err)
	}
	if err := checkAffected(res); err != nil {
		return portal.PaymentRequest{}, err
	}
	return f.Get(ctx, id)
}

func (f paymentStore) Delete(ctx context.Context, id string) error {
	if f.s.db == nil {
		return errNoDB
	}
	res, err := f.s.db.ExecContext(ctx, `delete from payment_requests where id = $1`, id)
	if err != nil {
		return translateWriteError(err)
	}
	return checkAffected(res)
}

// --- time entries ---

type timeEntryStore struct{ s *Store }

const timeEntryColumns = `id, staff_member_id, project_id, description,
	hours, entry_date, status, created_at, updated_at`

func scanTimeEntry(row interface{ Scan(...any) error }) (portal.TimeEntry, error) {
	var te portal.TimeEntry
	err := row.Scan(
		&te.ID, &te.StaffMemberID, &te.ProjectID, &te.Description,
		&te.Hours, &te.Date, &te.Status, &te.CreatedAt, &te.UpdatedAt,
	)
	if err != nil {
		return portal.TimeEntry{}, err
	}
	return te, nil
}

func (f timeEntryStore) List(ctx context.Context) ([]portal.TimeEntry, error) {
	if f.s.db == nil {
		return nil, errNoDB
	}
	rows, err := f.s.db.QueryContext(ctx, `
		select `+timeEntryColumns+`
		from time_entries
		order by created_at desc, id desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []portal.TimeEntry
	for rows.Next() {
		te, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, te)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (f timeEntryStore) Get(ctx context.Context, id string) (portal.TimeEntry, error) {
	if f.s.db == nil {
		return portal.TimeEntry{}, errNoDB
	}
	te, err := scanTimeEntry(f.s.db.QueryRowContext(ctx, `
		select `+timeEntryColumns+`
		from time_entries
		where id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return portal.TimeEntry{}, portal.ErrNotFound
	}
	return te, err
}

func (f timeEntryStore) Create(ctx context.Context, te portal.TimeEntry) (portal.TimeEntry, error) {
	if f.s.db == nil {
		return portal.TimeEntry{}, errNoDB
	}
	_, err := f.s.db.ExecContext(ctx, `
		insert into time_entries (
			id, staff_member_id, project_id, description, hours,
			entry_date, status, created_at, updated_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, te.ID, te.StaffMemberID, te.ProjectID, te.Description, te.Hours,
		te.Date, te.Status, te.CreatedAt, te.UpdatedAt)
	if err != nil {
		return portal.TimeEntry{}, translateWriteError(err)
	}
	return te, nil
}

func (f timeEntryStore) Update(ctx context.Context, id string, upd portal.SubmissionUpdate) (portal.TimeEntry, error) {
	if f.s.db == nil {
		return portal.TimeEntry{}, errNoDB
	}
	var b updateBuilder
	if upd.Description != nil {
		b.set("description", *upd.Description)
	}
	if upd.Hours != nil {
		b.set("hours", *upd.Hours)
	}
	if upd.Date != nil {
		b.set("entry_date", *upd.Date)
	}
	if upd.Status != nil {
		b.set("status", *upd.Status)
	}

	query, args := b.query("time_entries", id)
	res, err := f.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return portal.TimeEntry{}, translateWriteError(err)
	}
	if err := checkAffected(res); err != nil {
		return portal.TimeEntry{}, err
	}
	return f.Get(ctx, id)
}

func (f timeEntryStore) Delete(ctx context.Context, id string) error {
	if f.s.db == nil {
		return errNoDB
	}
	res, err := f.s.db.ExecContext(ctx, `delete from time_entries where id = $1`, id)
	if err != nil {
		return translateWriteError(err)
	}
	return checkAffected(res)
}
