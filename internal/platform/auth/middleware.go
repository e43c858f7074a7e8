package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
	SessionKey   contextKey = "session"
)

// tokenFromRequest prefers the session cookie and falls back to a bearer
// Authorization header for API clients.
func tokenFromRequest(c echo.Context) (string, bool) {
	if ck, err := c.Cookie(CookieName); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	header := c.Request().Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// SessionMiddleware rejects requests without a valid session and puts the
// session, user id and role on the request context. An invalid cookie is
// cleared.
func SessionMiddleware(m *Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := tokenFromRequest(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "login required")
			}
			s, err := m.Parse(token)
			if err != nil {
				m.ClearCookie(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired or invalid")
			}

			c.Set("session_role", s.Role)
			c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), s)))
			return next(c)
		}
	}
}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	ctx = context.WithValue(ctx, SessionKey, s)
	ctx = context.WithValue(ctx, UserIDKey, s.Subject)
	ctx = context.WithValue(ctx, UserRolesKey, []string{s.Role})
	return ctx
}

func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(SessionKey).(*Session)
	return s
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}
