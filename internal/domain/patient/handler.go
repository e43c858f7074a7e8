package patient

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/domain/history"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc      *Service
	history  *history.Service
	sessions *auth.Manager
}

func NewHandler(svc *Service, hist *history.Service, sessions *auth.Manager) *Handler {
	return &Handler{svc: svc, history: hist, sessions: sessions}
}

// RegisterRoutes mounts self-registration on the public group and the
// dashboards on the session-protected group.
func (h *Handler) RegisterRoutes(public *echo.Group, api *echo.Group) {
	public.POST("/auth/register", h.Register)

	api.GET("/me", h.Me, auth.RequirePatient())

	adminOnly := auth.RequireRole(auth.RoleAdmin)
	api.GET("/dashboard", h.Dashboard, adminOnly)
	api.GET("/patients", h.List, adminOnly)
	api.GET("/patients/:id", h.Get, adminOnly)
}

// PatientView is a patient with their prediction history.
type PatientView struct {
	Patient *Patient          `json:"patient"`
	History []*history.Record `json:"history"`
}

type DashboardView struct {
	Patients []*Patient `json:"patients"`
	Stats    *Stats     `json:"stats"`
}

type RegisterResponse struct {
	PatientID string `json:"patient_id"`
	Message   string `json:"message"`
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Register(c.Request().Context(), &req)
	if errors.Is(err, ErrIDsExhausted) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, RegisterResponse{
		PatientID: p.PatientID,
		Message:   "Account created. Log in with your Patient ID and contact number.",
	})
}

func (h *Handler) view(c echo.Context, id string) (*PatientView, error) {
	ctx := c.Request().Context()
	p, err := h.svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	recs, err := h.history.ForPatient(ctx, p.PatientID)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []*history.Record{}
	}
	return &PatientView{Patient: p, History: recs}, nil
}

// Me is the patient dashboard. A session whose patient no longer exists is
// cleared.
func (h *Handler) Me(c echo.Context) error {
	s := auth.SessionFromContext(c.Request().Context())
	v, err := h.view(c, s.PatientID)
	if errors.Is(err, ErrNotFound) {
		h.sessions.ClearCookie(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "patient record not found, please log in again")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Get(c echo.Context) error {
	v, err := h.view(c, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	patients, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, p.Limit, p.Offset))
}

// Dashboard is the admin overview: every patient plus gender counts.
func (h *Handler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := h.svc.Stats(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	patients, _, err := h.svc.List(ctx, stats.Total, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, DashboardView{Patients: patients, Stats: stats})
}
