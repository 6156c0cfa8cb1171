package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"collabportal.org/internal/access"
	"collabportal.org/internal/portal"
)

type staffStore struct{ s *Store }

const staffColumns = `id, coalesce(user_id, ''), name, email, phone,
	department, role, hourly_rate, total_earned, hours_this_month,
	status, avatar, access_control, joined_at, created_at, updated_at`

func scanStaffMember(row interface{ Scan(...any) error }) (portal.StaffMember, error) {
	var (
		m          portal.StaffMember
		rawControl []byte
	)
	err := row.Scan(
		&m.ID, &m.UserID, &m.Name, &m.Email, &m.Phone, &m.Department,
		&m.Role, &m.HourlyRate, &m.TotalEarned, &m.HoursThisMonth,
		&m.Status, &m.Avatar, &rawControl, &m.JoinedAt, &m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return portal.StaffMember{}, err
	}
	if len(rawControl) > 0 {
		var ctrl access.Control
		if err := json.Unmarshal(rawControl, &ctrl); err != nil {
			return portal.StaffMember{}, fmt.Errorf("decode access control: %w", err)
		}
		m.AccessControl = &ctrl
	}
	return m, nil
}

func (f staffStore) List(ctx context.Context) ([]portal.StaffMember, error) {
	if f.s.db == nil {
		return nil, errNoDB
	}
	rows, err := f.s.db.QueryContext(ctx, `
		select `+staffColumns+`
		from staff_members
		order by created_at desc, id desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []portal.StaffMember
	for rows.Next() {
		m, err := scanStaffMember(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (f staffStore) Get(ctx context.Context, id string) (portal.StaffMember, error) {
	if f.s.db == nil {
		return portal.StaffMember{}, errNoDB
	}
	m, err := scanStaffMember(f.s.db.QueryRowContext(ctx, `
		select `+staffColumns+`
		from staff_members
		where id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return portal.StaffMember{}, portal.ErrNotFound
	}
	return m, err
}

func (f staffStore) FindByEmail(ctx context.Context, email string) (portal.StaffMember, error) {
	if f.s.db == nil {
		return portal.StaffMember{}, errNoDB
	}
	m, err := scanStaffMember(f.s.db.QueryRowContext(ctx, `
		select `+staffColumns+`
		from staff_members
		where lower(email) = lower($1)
	`, strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return portal.StaffMember{}, portal.ErrNotFound
	}
	return m, err
}

func (f staffStore) Create(ctx context.Context, m portal.StaffMember) (portal.StaffMember, error) {
	if f.s.db == nil {
		return portal.StaffMember{}, errNoDB
	}
	var rawControl []byte
	if m.AccessControl != nil {
		raw, err := json.Marshal(m.AccessControl)
		if err != nil {
			return portal.StaffMember{}, fmt.Errorf("marshal access control: %w", err)
		}
		rawControl = raw
	}
	_, err := f.s.db.ExecContext(ctx, `
		insert into staff_members (
			id, user_id, name, email, phone, department, role,
			hourly_rate, total_earned, hours_this_month, status,
			avatar, access_control, joined_at, created_at, updated_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`, m.ID, nullIfEmpty(m.UserID), m.Name, m.Email, m.Phone,
		m.Department, m.Role, m.HourlyRate, m.TotalEarned,
		m.HoursThisMonth, m.Status, m.Avatar, rawControl, m.JoinedAt,
		m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return portal.StaffMember{}, translateWriteError(err)
	}
	return m, nil
}

func (f staffStore) Update(ctx context.Context, id string, upd portal.StaffMemberUpdate) (portal.StaffMember, error) {
	if f.s.db == nil {
		return portal.StaffMember{}, errNoDB
	}
	var b updateBuilder
	if upd.UserID != nil {
		b.set("user_id", nullIfEmpty(*upd.UserID))
	}
	if upd.Name != nil {
		b.set("name", *upd.Name)
	}
	if upd.Email != nil {
		b.set("email", strings.ToLower(strings.TrimSpace(*upd.Email)))
	}
	if upd.Phone != nil {
		b.set("phone", *upd.Phone)
	}
	if upd.Department != nil {
		b.set("department", *upd.Department)
	}
	if upd.Role != nil {
		b.set("role", *upd.Role)
	}
	if upd.HourlyRate != nil {
		b.set("hourly_rate", *upd.HourlyRate)
	}
	if upd.TotalEarned != nil {
		b.set("total_earned", *upd.TotalEarned)
	}
	if upd.HoursThisMonth != nil {
		b.set("hours_this_month", *upd.HoursThisMonth)
	}
	if upd.Status != nil {
		b.set("status", *upd.Status)
	}
	if upd.Avatar != nil {
		b.set("avatar", *upd.Avatar)
	}
	if upd.AccessControl != nil {
		raw, err := json.Marshal(upd.AccessControl)
		if err != nil {
			return portal.StaffMember{}, fmt.Errorf("marshal access control: %w", err)
		}
		b.set("access_control", raw)
	}

	query, args := b.query("staff_members", id)
	res, err := f.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return portal.StaffMember{}, translateWriteError(err)
	}
	if err := checkAffected(res); err != nil {
		return portal.StaffMember{}, err
	}
	return f.Get(ctx, id)
}

func (f staffStore) Delete(ctx context.Context, id string) error {
	if f.s.db == nil {
		return errNoDB
	}
	res, err := f.s.db.ExecContext(ctx, `delete from staff_members where id = $1`, id)
	if err != nil {
		return translateWriteError(err)
	}
	return checkAffected(res)
}
