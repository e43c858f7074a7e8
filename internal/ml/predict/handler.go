package predict

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the prediction endpoints. Any signed-in role may use
// them.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/predict", h.Predict)
	api.GET("/predict/status", h.Status)
}

func (h *Handler) Predict(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	session := auth.SessionFromContext(c.Request().Context())

	res, err := h.svc.Predict(c.Request().Context(), &in, session)
	if err != nil {
		var perr *ParseError
		switch {
		case errors.Is(err, ErrModelUnavailable):
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		case errors.As(err, &perr):
			return echo.NewHTTPError(http.StatusBadRequest, perr.Error())
		}
		h.logger.Error().Err(err).Msg("prediction failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "prediction failed")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Status())
}
