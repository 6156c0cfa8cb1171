package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"collabportal.org/internal/portal"
	"collabportal.org/internal/store/memory"
)

func newOrgCollection(t *testing.T) (*Organizations, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewOrganizations(store.Organizations()), store
}

func mustOrg(t *testing.T, name, email string) portal.Organization {
	t.Helper()
	org, err := portal.NewOrganization(portal.Organization{Name: name, Email: email}, time.Now())
	if err != nil {
		t.Fatalf("build organization: %v", err)
	}
	return org
}

func TestCreateRefreshesSnapshot(t *testing.T) {
	ctx := context.Background()
	col, _ := newOrgCollection(t)

	created, err := col.Create(ctx, mustOrg(t, "Acme", "a@acme.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created organization must carry an id")
	}

	items := col.Items()
	if len(items) != 1 {
		t.Fatalf("snapshot must equal store state after create, got %d items", len(items))
	}
	if items[0].ID != created.ID || items[0].Currency != "USD" {
		t.Fatalf("snapshot row mismatch: %+v", items[0])
	}
}

func TestDeleteRemovesFromSnapshot(t *testing.T) {
	ctx := context.Background()
	col, _ := newOrgCollection(t)

	created, err := col.Create(ctx, mustOrg(t, "Acme", "a@acme.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := col.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, item := range col.Items() {
		if item.ID == created.ID {
			t.Fatal("deleted row must not remain in the snapshot")
		}
	}
}

func TestEmptyUpdateOnlyTouchesTimestamp(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := memory.New(memory.WithClock(func() time.Time { return clock }))
	col := NewOrganizations(store.Organizations())

	created, err := col.Create(ctx, mustOrg(t, "Acme", "a@acme.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clock = clock.Add(time.Hour)
	if err := col.Update(ctx, created.ID, portal.OrganizationUpdate{}); err != nil {
		t.Fatalf("empty update: %v", err)
	}

	after := col.Items()[0]
	if after.Name != created.Name || after.Email != created.Email ||
		after.Currency != created.Currency || after.PaymentTerms != created.PaymentTerms {
		t.Fatalf("business fields changed by empty update: %+v", after)
	}
	if !after.UpdatedAt.After(created.UpdatedAt) {
		t.Fatal("updated_at must advance on update")
	}
}

func TestListFailureKeepsPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	listErr := errors.New("store offline")
	healthy := true
	store := memory.New()

	col := NewCollection(Ops[portal.Organization, portal.OrganizationUpdate]{
		List: func(ctx context.Context) ([]portal.Organization, error) {
			if !healthy {
				return nil, listErr
			}
			return store.Organizations().List(ctx)
		},
		Create: store.Organizations().Create,
		Update: store.Organizations().Update,
		Delete: store.Organizations().Delete,
	})

	if _, err := col.Create(ctx, mustOrg(t, "Acme", "a@acme.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	before := col.Items()

	healthy = false
	got := col.List(ctx)
	if len(got) != len(before) {
		t.Fatalf("failed list must yield previous snapshot, got %d rows", len(got))
	}
	if !errors.Is(col.Err(), listErr) {
		t.Fatalf("sticky error expected, got %v", col.Err())
	}

	healthy = true
	col.List(ctx)
	if col.Err() != nil {
		t.Fatalf("error must clear after successful refresh, got %v", col.Err())
	}
}

func TestCreateFailureReachesCaller(t *testing.T) {
	ctx := context.Background()
	col, _ := newOrgCollection(t)

	// memory store rejects duplicate ids
	created, err := col.Create(ctx, mustOrg(t, "Acme", "a@acme.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := mustOrg(t, "Other", "o@other.com")
	dup.ID = created.ID
	if _, err := col.Create(ctx, dup); !errors.Is(err, portal.ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}
