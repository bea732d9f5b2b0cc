package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

// RegistrationStatusResponse is the response body for GET /student/events/{eventID}/registration.
type RegistrationStatusResponse struct {
	EventID    string `json:"event_id"`
	Registered bool   `json:"registered"`
}

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{Logger: logger, Service: svc}
}

// Register godoc
// @Summary Register for an event
// @Description Registers the signed-in student for an approved event. Registering twice is not an error.
// @Tags registrations
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 201 {object} helpers.APIResponse "data contains RegistrationStatusResponse"
// @Success 200 {object} helpers.APIResponse "already registered"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (event not approved)"
// @Router /student/events/{eventID}/registration [post]
func (c *RegistrationController) Register(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID", "event")
	if !ok {
		return
	}
	p, ok := currentProfile(w, r)
	if !ok {
		return
	}
	_, err := c.Service.Register(r.Context(), eventID, p.ID)
	if errors.Is(err, domain.ErrAlreadyRegistered) {
		helpers.WriteJSONSuccess(w, http.StatusOK, RegistrationStatusResponse{EventID: eventID, Registered: true})
		return
	}
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, RegistrationStatusResponse{EventID: eventID, Registered: true})
}

// Cancel godoc
// @Summary Cancel a registration
// @Tags registrations
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains RegistrationStatusResponse"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /student/events/{eventID}/registration [delete]
func (c *RegistrationController) Cancel(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID", "event")
	if !ok {
		return
	}
	p, ok := currentProfile(w, r)
	if !ok {
		return
	}
	if err := c.Service.Cancel(r.Context(), eventID, p.ID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RegistrationStatusResponse{EventID: eventID, Registered: false})
}

// Status godoc
// @Summary Registration status
// @Tags registrations
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains RegistrationStatusResponse"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /student/events/{eventID}/registration [get]
func (c *RegistrationController) Status(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID", "event")
	if !ok {
		return
	}
	p, ok := currentProfile(w, r)
	if !ok {
		return
	}
	registered, err := c.Service.IsRegistered(r.Context(), eventID, p.ID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RegistrationStatusResponse{EventID: eventID, Registered: registered})
}

// ListMine godoc
// @Summary List my registrations
// @Description Lists the signed-in student's registrations with their events.
// @Tags registrations
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains []domain.RegistrationWithEvent"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /student/registrations [get]
func (c *RegistrationController) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := currentProfile(w, r)
	if !ok {
		return
	}
	regs, err := c.Service.ListForStudent(r.Context(), p.ID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nonNil(regs))
}
