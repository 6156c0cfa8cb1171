package httpapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"collabportal.org/internal/audit"
	"collabportal.org/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      session.User `json:"user"`
}

type profileRequest struct {
	Name string `json:"name"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	user, ok := a.sessions.Login(r.Context(), email, req.Password)
	if !ok {
		// One generic answer for wrong credentials, unknown accounts,
		// and provider outages.
		_ = audit.LogEvent(r.Context(), "auth.login.denied", map[string]any{"email": email})
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	a.issueSession(w, r, user, "auth.login.success")
}

func (a *API) handleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if a.federated == nil {
		writeError(w, r, http.StatusNotImplemented, "federated login not configured")
		return
	}
	state := uuid.NewString()
	a.states.put(state)
	writeJSON(w, http.StatusOK, map[string]string{
		"url":   a.federated.AuthCodeURL(state),
		"state": state,
	})
}

func (a *API) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if a.federated == nil {
		writeError(w, r, http.StatusNotImplemented, "federated login not configured")
		return
	}
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" || !a.states.take(state) {
		writeError(w, r, http.StatusBadRequest, "invalid state or code")
		return
	}

	ident, err := a.federated.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "code exchange failed")
		return
	}
	user, err := a.sessions.ResolveIdentity(r.Context(), ident)
	if err != nil {
		_ = audit.LogEvent(r.Context(), "auth.login.denied", map[string]any{"email": ident.Email})
		writeError(w, r, http.StatusForbidden, "no portal account for this identity")
		return
	}

	a.issueSession(w, r, user, "auth.login.federated")
}

func (a *API) issueSession(w http.ResponseWriter, r *http.Request, user session.User, event string) {
	token, err := session.GenerateToken(user.ID, user.Role, a.sessionTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	expiresAt := time.Now().UTC().Add(a.sessionTTL)
	_ = audit.LogEvent(r.Context(), event, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
	})
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	a.sessions.Logout(r.Context())
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	member, ctrl, err := a.caller(r.Context())
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "session expired")
		return
	}
	if session.IsAdmin(r.Context()) {
		writeJSON(w, http.StatusOK, map[string]any{
			"user_id": member.ID,
			"role":    member.Role,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":        member.ID,
		"role":           member.Role,
		"name":           member.Name,
		"email":          member.Email,
		"department":     member.Department,
		"access_control": ctrl,
	})
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	user, ok := a.sessions.UpdateProfile(r.Context(), name)
	if !ok {
		writeError(w, r, http.StatusConflict, "no active session to update")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.profile.update", map[string]any{"name": name})
	writeJSON(w, http.StatusOK, user)
}

// stateStore keeps pending OAuth states. Entries older than ten minutes
// are dropped on the next access.
type stateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

func (s *stateStore) put(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.states == nil {
		s.states = make(map[string]time.Time)
	}
	s.prune()
	s.states[state] = time.Now()
}

func (s *stateStore) take(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	if _, ok := s.states[state]; !ok {
		return false
	}
	delete(s.states, state)
	return true
}

func (s *stateStore) prune() {
	cutoff := time.Now().Add(-10 * time.Minute)
	for k, ts := range s.states {
		if ts.Before(cutoff) {
			delete(s.states, k)
		}
	}
}
