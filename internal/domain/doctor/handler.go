package doctor

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	dir *Directory
}

func NewHandler(dir *Directory) *Handler {
	return &Handler{dir: dir}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors/options", h.Options)
	api.GET("/doctors", h.Search)
}

func (h *Handler) Options(c echo.Context) error {
	opts, err := h.dir.Options()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, opts)
}

// SearchResponse echoes the applied filters with the matches.
type SearchResponse struct {
	City           string   `json:"city"`
	Specialization string   `json:"specialization"`
	Doctors        []Doctor `json:"doctors"`
	Total          int      `json:"total"`
}

func (h *Handler) Search(c echo.Context) error {
	city := c.QueryParam("city")
	spec := c.QueryParam("specialization")
	doctors, err := h.dir.Search(city, spec)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, SearchResponse{
		City:           city,
		Specialization: spec,
		Doctors:        doctors,
		Total:          len(doctors),
	})
}
