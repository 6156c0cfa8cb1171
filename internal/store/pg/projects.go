package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"collabportal.org/internal/portal"
)

type projectStore struct{ s *Store }

const projectColumns = `id, organization_id, name, client, description,
	budget, spent, coalesce(start_date, ''), coalesce(end_date, ''), status,
	team_members, hourly_budget, hours_spent, priority, tags,
	created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (portal.Project, error) {
	var (
		p          portal.Project
		rawMembers []byte
		rawTags    []byte
	)
	err := row.Scan(
		&p.ID, &p.OrganizationID, &p.Name, &p.Client, &p.Description,
		&p.Budget, &p.Spent, &p.StartDate, &p.EndDate, &p.Status,
		&rawMembers, &p.HourlyBudget, &p.HoursSpent, &p.Priority,
		&rawTags, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return portal.Project{}, err
	}
	p.TeamMembers = []string{}
	if len(rawMembers) > 0 {
		if err := json.Unmarshal(rawMembers, &p.TeamMembers); err != nil {
			return portal.Project{}, fmt.Errorf("decode team members: %w", err)
		}
	}
	p.Tags = []string{}
	if len(rawTags) > 0 {
		if err := json.Unmarshal(rawTags, &p.Tags); err != nil {
			return portal.Project{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	return p, nil
}

func (f projectStore) List(ctx context.Context) ([]portal.Project, error) {
	if f.s.db == nil {
		return nil, errNoDB
	}
	rows, err := f.s.db.QueryContext(ctx, `
		select `+projectColumns+`
		from projects
		order by created_at desc, id desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []portal.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (f projectStore) Get(ctx context.Context, id string) (portal.Project, error) {
	if f.s.db == nil {
		return portal.Project{}, errNoDB
	}
	p, err := scanProject(f.s.db.QueryRowContext(ctx, `
		select `+projectColumns+`
		from projects
		where id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return portal.Project{}, portal.ErrNotFound
	}
	return p, err
}

func (f projectStore) Create(ctx context.Context, p portal.Project) (portal.Project, error) {
	if f.s.db == nil {
		return portal.Project{}, errNoDB
	}
	members, err := json.Marshal(p.TeamMembers)
	if err != nil {
		return portal.Project{}, fmt.Errorf("marshal team members: %w", err)
	}
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return portal.Project{}, fmt.Errorf("marshal tags: %w", err)
	}
	_, err = f.s.db.ExecContext(ctx, `
		insert into projects (
			id, organization_id, name, client, description, budget,
			spent, start_date, end_date, status, team_members,
			hourly_budget, hours_spent, priority, tags, created_at, updated_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, p.ID, p.OrganizationID, p.Name, p.Client, p.Description, p.Budget,
		p.Spent, nullIfEmpty(p.StartDate), nullIfEmpty(p.EndDate), p.Status,
		members, p.HourlyBudget, p.HoursSpent, p.Priority, tags,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return portal.Project{}, translateWriteError(err)
	}
	return p, nil
}

func (f projectStore) Update(ctx context.Context, id string, upd portal.ProjectUpdate) (portal.Project, error) {
	if f.s.db == nil {
		return portal.Project{}, errNoDB
	}
	var b updateBuilder
	if upd.OrganizationID != nil {
		b.set("organization_id", *upd.OrganizationID)
	}
	if upd.Name != nil {
		b.set("name", *upd.Name)
	}
	if upd.Client != nil {
		b.set("client", *upd.Client)
	}
	if upd.Description != nil {
		b.set("description", *upd.Description)
	}
	if upd.Budget != nil {
		b.set("budget", *upd.Budget)
	}
	if upd.Spent != nil {
		b.set("spent", *upd.Spent)
	}
	if upd.StartDate != nil {
		b.set("start_date", nullIfEmpty(*upd.StartDate))
	}
	if upd.EndDate != nil {
		b.set("end_date", nullIfEmpty(*upd.EndDate))
	}
	if upd.Status != nil {
		b.set("status", *upd.Status)
	}
	if upd.TeamMembers != nil {
		raw, err := json.Marshal(*upd.TeamMembers)
		if err != nil {
			return portal.Project{}, fmt.Errorf("marshal team members: %w", err)
		}
		b.set("team_members", raw)
	}
	if upd.HourlyBudget != nil {
		b.set("hourly_budget", *upd.HourlyBudget)
	}
	if upd.HoursSpent != nil {
		b.set("hours_spent", *upd.HoursSpent)
	}
	if upd.Priority != nil {
		b.set("priority", *upd.Priority)
	}
	if upd.Tags != nil {
		raw, err := json.Marshal(*upd.Tags)
		if err != nil {
			return portal.Project{}, fmt.Errorf("marshal tags: %w", err)
		}
		b.set("tags", raw)
	}

	query, args := b.query("projects", id)
	res, err := f.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return portal.Project{}, translateWriteError(err)
	}
	if err := checkAffected(res); err != nil {
		return portal.Project{}, err
	}
	return f.Get(ctx, id)
}

func (f projectStore) Delete(ctx context.Context, id string) error {
	if f.s.db == nil {
		return errNoDB
	}
	res, err := f.s.db.ExecContext(ctx, `delete from projects where id = $1`, id)
	if err != nil {
		return translateWriteError(err)
	}
	return checkAffected(res)
}
