package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/delivery/http/middleware"
)

// HealthCheck reports whether one backing service is reachable.
type HealthCheck func(ctx context.Context) error

// HealthResponse is the response body for GET /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// CSRFResponse is the response body for GET /csrf.
type CSRFResponse struct {
	Token  string `json:"token"`
	Header string `json:"header"`
}

type SystemController struct {
	Logger *slog.Logger
	Checks map[string]HealthCheck
}

func NewSystemController(logger *slog.Logger, checks map[string]HealthCheck) *SystemController {
	return &SystemController{Logger: logger, Checks: checks}
}

// Health godoc
// @Summary Health check
// @Description Pings the database and Redis.
// @Tags system
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains HealthResponse"
// @Failure 503 {object} helpers.APIResponse "data contains HealthResponse"
// @Router /healthz [get]
func (c *SystemController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(c.Checks))}
	status := http.StatusOK
	for name, check := range c.Checks {
		if err := check(ctx); err != nil {
			c.Logger.WarnContext(ctx, "health check failed", "check", name, "err", err)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	helpers.WriteJSONSuccess(w, status, resp)
}

// CSRFToken godoc
// @Summary CSRF token
// @Description Returns the token form submissions must carry in the X-CSRF-Token header.
// @Tags system
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains CSRFResponse"
// @Router /csrf [get]
func (c *SystemController) CSRFToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSONSuccess(w, http.StatusOK, CSRFResponse{Token: middleware.CSRFToken(r), Header: middleware.CSRFHeader})
}
