package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Roles carried by a session.
const (
	RoleAdmin   = "admin"
	RolePatient = "patient"
)

// CookieName is the session cookie set on login.
const CookieName = "clinic_session"

const issuer = "clinic"

var (
	// ErrInvalidCredentials is returned by authenticators when the login
	// does not match any account.
	ErrInvalidCredentials = errors.New("invalid credentials")
	errInvalidSession     = errors.New("invalid session")
)

// Session identifies the logged-in caller. PatientID is set only for the
// patient role.
type Session struct {
	Role      string `json:"role"`
	Subject   string `json:"subject"`
	Name      string `json:"name"`
	PatientID string `json:"patient_id,omitempty"`
}

// IsPatient reports whether predictions made in this session are recorded
// in a patient history.
func (s *Session) IsPatient() bool {
	return s != nil && s.Role == RolePatient && s.PatientID != ""
}

type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	Name      string `json:"name"`
	PatientID string `json:"patient_id,omitempty"`
}

// Manager signs and verifies HS256 session tokens and manages the cookie
// that carries them.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration, secureCookie bool) *Manager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, secure: secureCookie, now: time.Now}
}

// Issue signs a token for s and returns it with its expiry.
func (m *Manager) Issue(s Session) (string, time.Time, error) {
	if s.Role != RoleAdmin && s.Role != RolePatient {
		return "", time.Time{}, fmt.Errorf("unknown role %q", s.Role)
	}
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   s.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role:      s.Role,
		Name:      s.Name,
		PatientID: s.PatientID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, exp, nil
}

// Parse verifies a token and returns its session.
func (m *Manager) Parse(token string) (*Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, errInvalidSession
	}
	if claims.Role != RoleAdmin && claims.Role != RolePatient {
		return nil, errInvalidSession
	}
	return &Session{
		Role:      claims.Role,
		Subject:   claims.Subject,
		Name:      claims.Name,
		PatientID: claims.PatientID,
	}, nil
}

// SetCookie writes the session cookie.
func (m *Manager) SetCookie(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie in the browser.
func (m *Manager) ClearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
