package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSecret = "test-secret-key-for-unit-tests-only"

func newTestManager() *Manager {
	return NewManager(testSecret, time.Hour, false)
}

func issue(t *testing.T, m *Manager, s Session) string {
	t.Helper()
	token, _, err := m.Issue(s)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func runSession(t *testing.T, m *Manager, req *http.Request) (*Session, *httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *Session
	handler := func(c echo.Context) error {
		got = SessionFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	}
	err := SessionMiddleware(m)(handler)(c)
	return got, rec, err
}

func TestSessionMiddleware_Missing(t *testing.T) {
	_, _, err := runSession(t, newTestManager(), httptest.NewRequest(http.MethodGet, "/", nil))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", httpErr.Code)
	}
}

func TestSessionMiddleware_Cookie(t *testing.T) {
	m := newTestManager()
	token := issue(t, m, Session{Role: RolePatient, Subject: "1234", Name: "Asha", PatientID: "1234"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	s, _, err := runSession(t, m, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s == nil || s.PatientID != "1234" || s.Role != RolePatient || s.Name != "Asha" {
		t.Errorf("unexpected session: %+v", s)
	}
	if !s.IsPatient() {
		t.Error("expected patient session")
	}
}

func TestSessionMiddleware_Bearer(t *testing.T) {
	m := newTestManager()
	token := issue(t, m, Session{Role: RoleAdmin, Subject: "admin", Name: "Administrator"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	s, _, err := runSession(t, m, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Role != RoleAdmin || s.IsPatient() {
		t.Errorf("unexpected session: %+v", s)
	}
}

func TestSessionMiddleware_Invalid(t *testing.T) {
	m := newTestManager()
	other := NewManager("another-secret", time.Hour, false)
	expired := newTestManager()
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong key", issue(t, other, Session{Role: RoleAdmin, Subject: "admin"})},
		{"expired", issue(t, expired, Session{Role: RoleAdmin, Subject: "admin"})},
		{"alg none", noneToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.token})
			_, rec, err := runSession(t, m, req)
			httpErr, ok := err.(*echo.HTTPError)
			if !ok || httpErr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %v", err)
			}
			if got := rec.Header().Get("Set-Cookie"); got == "" {
				t.Error("expected invalid cookie to be cleared")
			}
		})
	}
}

func TestManager_IssueUnknownRole(t *testing.T) {
	if _, _, err := newTestManager().Issue(Session{Role: "nurse"}); err == nil {
		t.Error("expected error for unknown role")
	}
}
