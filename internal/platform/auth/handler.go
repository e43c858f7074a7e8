package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Principal is what an authenticator returns for a successful login.
type Principal struct {
	Subject   string
	Name      string
	PatientID string
}

// AdminAuthenticator checks administrator username and password.
type AdminAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) (*Principal, error)
}

// PatientAuthenticator checks a patient identifier (id or name) and contact number.
type PatientAuthenticator interface {
	Authenticate(ctx context.Context, identifier, contact string) (*Principal, error)
}

type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	UserType string `json:"usertype" form:"usertype"`
}

type LoginResponse struct {
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	PatientID string    `json:"patient_id,omitempty"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Handler struct {
	sessions *Manager
	admins   AdminAuthenticator
	patients PatientAuthenticator
	logger   zerolog.Logger
}

func NewHandler(sessions *Manager, admins AdminAuthenticator, patients PatientAuthenticator, logger zerolog.Logger) *Handler {
	return &Handler{sessions: sessions, admins: admins, patients: patients, logger: logger}
}

// RegisterRoutes mounts the public login and logout endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/auth")
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	ctx := c.Request().Context()
	var (
		p    *Principal
		err  error
		role string
		msg  string
	)
	// An omitted usertype is an administrator login.
	switch req.UserType {
	case RoleAdmin, "":
		role, msg = RoleAdmin, "invalid admin credentials"
		p, err = h.admins.Authenticate(ctx, req.Username, req.Password)
	case RolePatient:
		role, msg = RolePatient, "invalid patient id or contact number"
		p, err = h.patients.Authenticate(ctx, req.Username, strings.TrimSpace(req.Password))
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "usertype must be admin or patient")
	}
	if errors.Is(err, ErrInvalidCredentials) {
		h.logger.Warn().Str("role", role).Str("username", req.Username).Msg("login rejected")
		return echo.NewHTTPError(http.StatusUnauthorized, msg)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	s := Session{Role: role, Subject: p.Subject, Name: p.Name, PatientID: p.PatientID}
	token, exp, err := h.sessions.Issue(s)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.sessions.SetCookie(c, token, exp)

	return c.JSON(http.StatusOK, LoginResponse{
		Role:      s.Role,
		Name:      s.Name,
		PatientID: s.PatientID,
		Token:     token,
		ExpiresAt: exp,
	})
}

func (h *Handler) Logout(c echo.Context) error {
	h.sessions.ClearCookie(c)
	return c.NoContent(http.StatusNoContent)
}
