package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"
	"campusevents/internal/session"
)

// DashboardResponse is the response body for GET /dashboard/{role}. Only the sections of
// the requested role are set.
type DashboardResponse struct {
	Role              domain.Role                     `json:"role"`
	Profile           *domain.Profile                 `json:"profile"`
	Events            []*domain.Event                 `json:"events,omitempty"`
	Registrations     []*domain.RegistrationWithEvent `json:"registrations,omitempty"`
	PendingEvents     []*domain.Event                 `json:"pending_events,omitempty"`
	PendingOrganizers []*domain.Profile               `json:"pending_organizers,omitempty"`
}

// ResolvingResponse is returned while the session is still being resolved.
type ResolvingResponse struct {
	Status string `json:"status"`
}

type DashboardController struct {
	Logger        *slog.Logger
	Events        domain.EventService
	Registrations domain.RegistrationService
	Approvals     domain.ApprovalService
}

func NewDashboardController(logger *slog.Logger, events domain.EventService, registrations domain.RegistrationService, approvals domain.ApprovalService) *DashboardController {
	return &DashboardController{
		Logger:        logger,
		Events:        events,
		Registrations: registrations,
		Approvals:     approvals,
	}
}

// Dashboard godoc
// @Summary Role dashboard
// @Description Applies the route guard to the dashboard of the role in the path. A client that may not see it is sent to the role's login page.
// @Tags session
// @Produce json
// @Param role path string true "student, organizer or admin"
// @Success 200 {object} helpers.APIResponse "data contains DashboardResponse"
// @Success 202 {object} helpers.APIResponse "data.status: resolving"
// @Success 303 "Location: /login/{role}"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /dashboard/{role} [get]
func (c *DashboardController) Dashboard(w http.ResponseWriter, r *http.Request) {
	client, ok := middleware.SessionClientFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "session unavailable")
		return
	}
	state := client.Manager.State()
	decision := session.Guard(state, r.URL.Path)
	switch decision.Outcome {
	case session.Hold:
		w.Header().Set("Retry-After", "1")
		helpers.WriteJSONSuccess(w, http.StatusAccepted, ResolvingResponse{Status: "resolving"})
		return
	case session.Redirect:
		http.Redirect(w, r, decision.Path, http.StatusSeeOther)
		return
	case session.NotFound:
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "page not found")
		return
	}

	resp, err := c.load(r.Context(), state.Profile)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, resp)
}

func (c *DashboardController) load(ctx context.Context, p *domain.Profile) (*DashboardResponse, error) {
	resp := &DashboardResponse{Role: p.Role, Profile: p}
	var err error
	switch p.Role {
	case domain.RoleStudent:
		if resp.Events, err = c.Events.ListApprovedForStudents(ctx); err != nil {
			return nil, err
		}
		resp.Registrations, err = c.Registrations.ListForStudent(ctx, p.ID)
	case domain.RoleOrganizer:
		resp.Events, err = c.Events.ListForOrganizer(ctx, p.ID)
	case domain.RoleAdmin:
		if resp.PendingEvents, err = c.Events.ListPendingForAdmin(ctx); err != nil {
			return nil, err
		}
		resp.PendingOrganizers, err = c.Approvals.ListPendingOrganizers(ctx)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}
