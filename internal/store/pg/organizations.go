package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"collabportal.org/internal/portal"
)

type orgStore struct{ s *Store }

const orgColumns = `id, name, email, phone, address, website, logo,
	timezone, currency, fiscal_year_start, payment_terms, invoice_prefix,
	tax_rate, registration_number, payment_methods, notifications,
	branding, is_active, created_at, updated_at`

func scanOrganization(row interface{ Scan(...any) error }) (portal.Organization, error) {
	var (
		org         portal.Organization
		rawMethods  []byte
		rawNotif    []byte
		rawBranding []byte
	)
	err := row.Scan(
		&org.ID, &org.Name, &org.Email, &org.Phone, &org.Address,
		&org.Website, &org.Logo, &org.Timezone, &org.Currency,
		&org.FiscalYearStart, &org.PaymentTerms, &org.InvoicePrefix,
		&org.TaxRate, &org.RegistrationNumber, &rawMethods, &rawNotif,
		&rawBranding, &org.IsActive, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		return portal.Organization{}, err
	}
	if len(rawMethods) > 0 {
		if err := json.Unmarshal(rawMethods, &org.PaymentMethods); err != nil {
			return portal.Organization{}, fmt.Errorf("decode payment methods: %w", err)
		}
	}
	if len(rawNotif) > 0 {
		if err := json.Unmarshal(rawNotif, &org.Notifications); err != nil {
			return portal.Organization{}, fmt.Errorf("decode notifications: %w", err)
		}
	}
	if len(rawBranding) > 0 {
		if err := json.Unmarshal(rawBranding, &org.Branding); err != nil {
			return portal.Organization{}, fmt.Errorf("decode branding: %w", err)
		}
	}
	return org, nil
}

func (f orgStore) List(ctx context.Context) ([]portal.Organization, error) {
	if f.s.db == nil {
		return nil, errNoDB
	}
	rows, err := f.s.db.QueryContext(ctx, `
		select `+orgColumns+`
		from organizations
		order by created_at desc, id desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []portal.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, org)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (f orgStore) Get(ctx context.Context, id string) (portal.Organization, error) {
	if f.s.db == nil {
		return portal.Organization{}, errNoDB
	}
	org, err := scanOrganization(f.s.db.QueryRowContext(ctx, `
		select `+orgColumns+`
		from organizations
		where id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return portal.Organization{}, portal.ErrNotFound
	}
	return org, err
}

func (f orgStore) Create(ctx context.Context, org portal.Organization) (portal.Organization, error) {
	if f.s.db == nil {
		return portal.Organization{}, errNoDB
	}
	methods, err := json.Marshal(org.PaymentMethods)
	if err != nil {
		return portal.Organization{}, fmt.Errorf("marshal payment methods: %w", err)
	}
	notif, err := json.Marshal(org.Notifications)
	if err != nil {
		return portal.Organization{}, fmt.Errorf("marshal notifications: %w", err)
	}
	branding, err := json.Marshal(org.Branding)
	if err != nil {
		return portal.Organization{}, fmt.Errorf("marshal branding: %w", err)
	}
	_, err = f.s.db.ExecContext(ctx, `
		insert into organizations (
			id, name, email, phone, address, website, logo,
			timezone, currency, fiscal_year_start, payment_terms,
			invoice_prefix, tax_rate, registration_number,
			payment_methods, notifications, branding, is_active,
			created_at, updated_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`, org.ID, org.Name, org.Email, org.Phone, org.Address, org.Website,
		org.Logo, org.Timezone, org.Currency, org.FiscalYearStart,
		org.PaymentTerms, org.InvoicePrefix, org.TaxRate,
		org.RegistrationNumber, methods, notif, branding, org.IsActive,
		org.CreatedAt, org.UpdatedAt)
	if err != nil {
		return portal.Organization{}, translateWriteError(err)
	}
	return org, nil
}

func (f orgStore) Update(ctx context.Context, id string, upd portal.OrganizationUpdate) (portal.Organization, error) {
	if f.s.db == nil {
		return portal.Organization{}, errNoDB
	}
	var b updateBuilder
	if upd.Name != nil {
		b.set("name", *upd.Name)
	}
	if upd.Email != nil {
		b.set("email", *upd.Email)
	}
	if upd.Phone != nil {
		b.set("phone", *upd.Phone)
	}
	if upd.Address != nil {
		b.set("address", *upd.Address)
	}
	if upd.Website != nil {
		b.set("website", *upd.Website)
	}
	if upd.Logo != nil {
		b.set("logo", *upd.Logo)
	}
	if upd.Timezone != nil {
		b.set("timezone", *upd.Timezone)
	}
	if upd.Currency != nil {
		b.set("currency", *upd.Currency)
	}
	if upd.FiscalYearStart != nil {
		b.set("fiscal_year_start", *upd.FiscalYearStart)
	}
	if upd.PaymentTerms != nil {
		b.set("payment_terms", *upd.PaymentTerms)
	}
	if upd.InvoicePrefix != nil {
		b.set("invoice_prefix", *upd.InvoicePrefix)
	}
	if upd.TaxRate != nil {
		b.set("tax_rate", *upd.TaxRate)
	}
	if upd.RegistrationNumber != nil {
		b.set("registration_number", *upd.RegistrationNumber)
	}
	if upd.PaymentMethods != nil {
		raw, err := json.Marshal(upd.PaymentMethods)
		if err != nil {
			return portal.Organization{}, fmt.Errorf("marshal payment methods: %w", err)
		}
		b.set("payment_methods", raw)
	}
	if upd.Notifications != nil {
		raw, err := json.Marshal(upd.Notifications)
		if err != nil {
			return portal.Organization{}, fmt.Errorf("marshal notifications: %w", err)
		}
		b.set("notifications", raw)
	}
	if upd.Branding != nil {
		raw, err := json.Marshal(upd.Branding)
		if err != nil {
			return portal.Organization{}, fmt.Errorf("marshal branding: %w", err)
		}
		b.set("branding", raw)
	}
	if upd.IsActive != nil {
		b.set("is_active", *upd.IsActive)
	}

	query, args := b.query("organizations", id)
	res, err := f.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return portal.Organization{}, translateWriteError(err)
	}
	if err := checkAffected(res); err != nil {
		return portal.Organization{}, err
	}
	return f.Get(ctx, id)
}

func (f orgStore) Delete(ctx context.Context, id string) error {
	if f.s.db == nil {
		return errNoDB
	}
	res, err := f.s.db.ExecContext(ctx, `delete from organizations where id = $1`, id)
	if err != nil {
		return translateWriteError(err)
	}
	return checkAffected(res)
}
