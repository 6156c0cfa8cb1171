// Package pg implements the portal store over PostgreSQL using
// database/sql with the pgx stdlib driver. Structured columns
// (payment methods, branding, access control, string lists) live in
// jsonb; everything else is flat columns.
package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"collabportal.org/internal/portal"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

type Store struct {
	db *sql.DB
}

var _ portal.Store = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection. Used by tests with sqlmock.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Organizations() portal.OrganizationStore     { return orgStore{s} }
func (s *Store) Projects() portal.ProjectStore               { return projectStore{s} }
func (s *Store) StaffMembers() portal.StaffMemberStore       { return staffStore{s} }
func (s *Store) Invoices() portal.InvoiceStore               { return invoiceStore{s} }
func (s *Store) PaymentRequests() portal.PaymentRequestStore { return paymentStore{s} }
func (s *Store) TimeEntries() portal.TimeEntryStore          { return timeEntryStore{s} }

// --- helpers ---

var errNoDB = errors.New("database connection unavailable")

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func translateWriteError(err error) error {
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return portal.ErrConflict
		case pgErrForeignKeyViolation:
			return portal.ErrNotFound
		}
	}
	return err
}

func nullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// updateBuilder accumulates "col = $n" clauses for partial updates.
type updateBuilder struct {
	sets []string
	args []any
}

func (b *updateBuilder) set(col string, v any) {
	b.args = append(b.args, v)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", col, len(b.args)))
}

func (b *updateBuilder) setExpr(expr string) {
	b.sets = append(b.sets, expr)
}

// query renders "update <table> set ... where id = $n" and returns the
// final args slice with id appended.
func (b *updateBuilder) query(table, id string) (string, []any) {
	b.sets = append(b.sets, "updated_at = now()")
	args := append(b.args, id)
	q := fmt.Sprintf("update %s set %s where id = $%d", table, strings.Join(b.sets, ", "), len(args))
	return q, args
}

func checkAffected(res sql.Result) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return portal.ErrNotFound
	}
	return nil
}
