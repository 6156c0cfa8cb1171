// Package session owns the authenticated user lifecycle: restore from
// the persisted snapshot, authenticate against the identity gateway,
// reconcile external identities with staff records, and tear down on
// logout. All mutation goes through the Manager API; there is no
// ambient session state.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"collabportal.org/internal/access"
	"collabportal.org/internal/identity"
	"collabportal.org/internal/portal"
)

// State is the session lifecycle position.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// User is the hydrated portal identity handed to views. It mirrors the
// staff record it was resolved from plus gateway profile metadata.
type User struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Role          string          `json:"role"`
	Department    string          `json:"department,omitempty"`
	Avatar        string          `json:"avatar,omitempty"`
	AccessControl *access.Control `json:"access_control,omitempty"`
}

// Manager drives one logical session. A restored snapshot yields
// Authenticated without a gateway round trip; the snapshot stays valid
// until a logout or a failed authentication attempt tears it down.
type Manager struct {
	gateway       identity.Gateway
	staff         portal.StaffMemberStore
	cache         Cache
	autoProvision bool
	now           func() time.Time

	mu    sync.Mutex
	state State
	user  *User
}

// Option configures the Manager.
type Option func(*Manager)

// WithAutoProvision controls whether an unrecognized external identity
// gets a staff record created on first login. Defaults to true, matching
// an open-tenant deployment; closed tenants should disable it.
func WithAutoProvision(v bool) Option {
	return func(m *Manager) { m.autoProvision = v }
}

// WithClock overrides the time source. Test hook.
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// NewManager builds a Manager and restores any persisted snapshot.
func NewManager(gateway identity.Gateway, staff portal.StaffMemberStore, cache Cache, opts ...Option) *Manager {
	m := &Manager{
		gateway:       gateway,
		staff:         staff,
		cache:         cache,
		autoProvision: true,
		now:           time.Now,
		state:         Anonymous,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cache == nil {
		m.cache = NewMemoryCache()
	}
	if u, err := m.cache.Load(); err == nil && u != nil {
		m.user = u
		m.state = Authenticated
	}
	return m
}

// Current returns the session user and state.
func (m *Manager) Current() (User, State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return User{}, m.state
	}
	return *m.user, m.state
}

// Login authenticates the email/password pair. It reports success with
// a boolean; credential failures and gateway outages both come back as
// false so the login form shows one generic failure message.
func (m *Manager) Login(ctx context.Context, email, password string) (User, bool) {
	m.setState(Authenticating)

	ident, err := m.gateway.SignInWithPassword(ctx, email, password)
	if err != nil {
		m.demote()
		return User{}, false
	}
	user, err := m.ResolveIdentity(ctx, ident)
	if err != nil {
		m.demote()
		return User{}, false
	}
	return user, true
}

// demote returns the session to Anonymous after a failed authentication
// attempt. The previous user snapshot and its persisted copy go with it,
// so state and user never disagree.
func (m *Manager) demote() {
	m.mu.Lock()
	m.state = Anonymous
	m.user = nil
	m.mu.Unlock()
	_ = m.cache.Clear()
}

// ResolveIdentity reconciles an external identity with the staff
// directory and moves the session to Authenticated. It fires on direct
// login and on federated callback alike, which is why it is exported.
//
// Reconciliation policy: a staff row matched by email wins and keeps its
// role, department, and access control; a missing row is provisioned
// with staff defaults when auto-provisioning is enabled. A matched row
// without an identity back-reference gets linked here.
func (m *Manager) ResolveIdentity(ctx context.Context, ident identity.Identity) (User, error) {
	email := strings.ToLower(strings.TrimSpace(ident.Email))

	member, err := m.staff.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if !member.Linked() && ident.ID != "" {
			userID := ident.ID
			if updated, uerr := m.staff.Update(ctx, member.ID, portal.StaffMemberUpdate{UserID: &userID}); uerr == nil {
				member = updated
			}
			// A failed link leaves the record provisioned; the next
			// login retries.
		}
	case m.autoProvision:
		member, err = m.provision(ctx, ident, email)
		if err != nil {
			return User{}, err
		}
	default:
		return User{}, portal.ErrNotFound
	}

	user := hydrate(member, ident)
	m.mu.Lock()
	m.user = &user
	m.state = Authenticated
	m.mu.Unlock()
	_ = m.cache.Save(user)
	return user, nil
}

func (m *Manager) provision(ctx context.Context, ident identity.Identity, email string) (portal.StaffMember, error) {
	name := strings.TrimSpace(ident.FullName)
	if name == "" {
		if at := strings.IndexByte(email, '@'); at > 0 {
			name = email[:at]
		} else {
			name = email
		}
	}
	draft, err := portal.NewStaffMember(portal.StaffMember{
		UserID: ident.ID,
		Name:   name,
		Email:  email,
		Avatar: ident.AvatarURL,
		AccessControl: &access.Control{
			Organizations: []string{},
			Projects:      []string{},
		},
	}, m.now())
	if err != nil {
		return portal.StaffMember{}, err
	}
	return m.staff.Create(ctx, draft)
}

// Logout tears the session down. The gateway sign-out is attempted but
// its failure never keeps the local session alive: the snapshot and
// state are cleared unconditionally.
func (m *Manager) Logout(ctx context.Context) {
	_ = m.gateway.SignOut(ctx)
	m.mu.Lock()
	m.user = nil
	m.state = Anonymous
	m.mu.Unlock()
	_ = m.cache.Clear()
}

// UpdateProfile persists the allowed profile fields (currently name
// only) to the staff row, then merges the change into the local
// snapshot. The merge happens even when the remote write fails; the
// profile name is non-critical and the next resolve reconverges.
func (m *Manager) UpdateProfile(ctx context.Context, name string) (User, bool) {
	m.mu.Lock()
	if m.user == nil {
		m.mu.Unlock()
		return User{}, false
	}
	current := *m.user
	m.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return current, false
	}

	_, _ = m.staff.Update(ctx, current.ID, portal.StaffMemberUpdate{Name: &name})

	m.mu.Lock()
	current.Name = name
	m.user = &current
	m.mu.Unlock()
	_ = m.cache.Save(current)
	return current, true
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func hydrate(member portal.StaffMember, ident identity.Identity) User {
	role := portal.RoleStaff
	if member.Role == portal.RoleAdmin {
		role = portal.RoleAdmin
	}
	avatar := ident.AvatarURL
	if avatar == "" {
		avatar = member.Avatar
	}
	return User{
		ID:            member.ID,
		Name:          member.Name,
		Email:         member.Email,
		Role:          role,
		Department:    member.Department,
		Avatar:        avatar,
		AccessControl: member.AccessControl,
	}
}
