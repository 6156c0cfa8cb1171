package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"collabportal.org/internal/access"
	"collabportal.org/internal/portal"
	"collabportal.org/internal/session"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/login",
	"/v1/auth/oauth/login",
	"/v1/auth/oauth/callback",
	"/metrics",
	"/healthz",
	"/readyz",
	"/openapi.yaml",
	"/v1/info",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := session.ParseAndValidate(token)
		if err != nil {
			if errors.Is(err, session.ErrInvalidToken) {
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		ctx := session.ContextWithUser(r.Context(), claims.Subject, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin gates mutating entity endpoints.
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !session.IsAdmin(r.Context()) {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return false
	}
	return true
}

// caller resolves the authenticated staff member and the access control
// that governs its reads. Admins get a nil control, which means
// unrestricted.
func (a *API) caller(ctx context.Context) (portal.StaffMember, *access.Control, error) {
	userID, ok := session.UserIDFromContext(ctx)
	if !ok {
		return portal.StaffMember{}, nil, errors.New("no authenticated user")
	}
	if session.IsAdmin(ctx) {
		return portal.StaffMember{ID: userID, Role: portal.RoleAdmin}, nil, nil
	}
	member, err := a.store.StaffMembers().Get(ctx, userID)
	if err != nil {
		return portal.StaffMember{}, nil, err
	}
	// A nil control, or one without the restriction flag, reads as
	// unrestricted.
	return member, member.AccessControl, nil
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
