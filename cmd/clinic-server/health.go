package main

import (
	"context"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
)

type healthCheck func(ctx context.Context) (interface{}, error)

type checkResult struct {
	Status string      `json:"status"`
	Detail interface{} `json:"detail,omitempty"`
	Error  string      `json:"error,omitempty"`
}

type healthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]checkResult `json:"checks"`
}

// healthHandler runs every check in name order. Any failing check turns the
// response into 503.
func healthHandler(checks map[string]healthCheck) echo.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c echo.Context) error {
		resp := healthResponse{Status: "ok", Checks: make(map[string]checkResult, len(checks))}
		for _, name := range names {
			detail, err := checks[name](c.Request().Context())
			r := checkResult{Status: "ok", Detail: detail}
			if err != nil {
				r.Status = "error"
				r.Error = err.Error()
				resp.Status = "degraded"
			}
			resp.Checks[name] = r
		}
		code := http.StatusOK
		if resp.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, resp)
	}
}
