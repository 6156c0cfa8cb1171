package identity

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Seed describes one statically provisioned identity. Passwords are
// hashed at construction; the plaintext never leaves NewStatic.
type Seed struct {
	ID        string
	Email     string
	Password  string
	FullName  string
	AvatarURL string
}

// Static is an in-process Gateway backed by seeded identities. It backs
// demo deployments and tests, and serves as the fallback when no OIDC
// issuer is configured.
type Static struct {
	mu     sync.RWMutex
	seeds  map[string]staticRecord
	broken bool // simulate an unreachable provider in tests
}

type staticRecord struct {
	identity Identity
	hash     []byte
}

// NewStatic builds a gateway from the given seeds.
func NewStatic(seeds ...Seed) (*Static, error) {
	g := &Static{seeds: make(map[string]staticRecord, len(seeds))}
	for _, s := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		email := strings.ToLower(strings.TrimSpace(s.Email))
		g.seeds[email] = staticRecord{
			identity: Identity{ID: s.ID, Email: email, FullName: s.FullName, AvatarURL: s.AvatarURL},
			hash:     hash,
		}
	}
	return g, nil
}

// DefaultSeeds returns the demo identities shipped with the portal.
func DefaultSeeds() []Seed {
	return []Seed{
		{ID: "seed-admin", Email: "admin@company.com", Password: "admin123", FullName: "Admin User"},
		{ID: "seed-staff", Email: "sarah@company.com", Password: "staff123", FullName: "Sarah Johnson"},
	}
}

// SignInWithPassword implements Gateway.
func (g *Static) SignInWithPassword(ctx context.Context, email, password string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.broken {
		return Identity{}, ErrUnavailable
	}
	rec, ok := g.seeds[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(rec.hash, []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return rec.identity, nil
}

// SignOut implements Gateway.
func (g *Static) SignOut(ctx context.Context) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.broken {
		return ErrUnavailable
	}
	return nil
}

// SetUnavailable toggles simulated provider outage. Test hook.
func (g *Static) SetUnavailable(v bool) {
	g.mu.Lock()
	g.broken = v
	g.mu.Unlock()
}
