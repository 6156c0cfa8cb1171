// Package identity abstracts the external identity provider. The portal
// only ever consumes an opaque Identity payload; password verification
// and federated flows live behind the Gateway interface so the session
// layer stays provider-agnostic.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials covers both unknown emails and wrong
	// passwords so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")

	// ErrUnavailable indicates the gateway could not be reached.
	ErrUnavailable = errors.New("identity: gateway unavailable")
)

// Identity is the provider-issued payload the portal reacts to. Only
// ID, Email, and the optional profile metadata are ever consumed.
type Identity struct {
	ID        string
	Email     string
	FullName  string
	AvatarURL string
}

// Gateway is the password-login surface of the identity provider.
type Gateway interface {
	// SignInWithPassword authenticates the email/password pair and
	// returns the external identity on success.
	SignInWithPassword(ctx context.Context, email, password string) (Identity, error)

	// SignOut invalidates the provider-side session. A failure here
	// must not keep the local session alive; callers clear local state
	// regardless.
	SignOut(ctx context.Context) error
}

// Federated is the redirect-style login surface. Completion is observed
// through the callback exchange rather than a direct return value.
type Federated interface {
	// AuthCodeURL returns the provider URL to redirect the browser to.
	AuthCodeURL(state string) string

	// Exchange turns the callback authorization code into an Identity.
	Exchange(ctx context.Context, code string) (Identity, error)
}
