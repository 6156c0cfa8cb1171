package identity

import (
	"context"
	"errors"
	"testing"
)

func TestStaticSignIn(t *testing.T) {
	g, err := NewStatic(DefaultSeeds()...)
	if err != nil {
		t.Fatalf("build gateway: %v", err)
	}
	ctx := context.Background()

	id, err := g.SignInWithPassword(ctx, "Admin@Company.com", "admin123")
	if err != nil {
		t.Fatalf("seeded admin must authenticate: %v", err)
	}
	if id.Email != "admin@company.com" || id.ID != "seed-admin" {
		t.Fatalf("unexpected identity %+v", id)
	}

	if _, err := g.SignInWithPassword(ctx, "admin@company.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password must fail with ErrInvalidCredentials, got %v", err)
	}
	if _, err := g.SignInWithPassword(ctx, "nobody@company.com", "admin123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email must fail with ErrInvalidCredentials, got %v", err)
	}
}

func TestStaticUnavailable(t *testing.T) {
	g, err := NewStatic(DefaultSeeds()...)
	if err != nil {
		t.Fatalf("build gateway: %v", err)
	}
	g.SetUnavailable(true)
	if _, err := g.SignInWithPassword(context.Background(), "admin@company.com", "admin123"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := g.SignOut(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from SignOut, got %v", err)
	}
}
