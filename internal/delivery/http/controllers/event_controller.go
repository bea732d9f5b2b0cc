package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

// CreateEventRequest is the request body for POST /organizer/events. Field rules are
// checked by the event service so that they are reported per field.
type CreateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	VenueID     string `json:"venue_id"`
}

// EventDecisionRequest is the request body for POST /admin/events/{eventID}/decision.
type EventDecisionRequest struct {
	Decision domain.EventStatus `json:"decision"`
}

// Validate implements Validator.
func (d EventDecisionRequest) Validate() []string {
	if !d.Decision.IsDecision() {
		return []string{"decision must be approved or rejected"}
	}
	return nil
}

// CreateEventSuccessResponse is the success response envelope for POST /organizer/events (201).
type CreateEventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{Logger: logger, Service: svc}
}

// CreateEvent godoc
// @Summary Propose an event
// @Description Creates a pending event owned by the signed-in organizer. Markup in title and description is stripped.
// @Tags events
// @Accept json
// @Produce json
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.CreateEventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: validation_failed"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (venue)"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /organizer/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	p, ok := currentProfile(w, r)
	if !ok {
		return
	}
	event, err := c.Service.Create(r.Context(), p.ID, domain.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		VenueID:     strings.TrimSpace(req.VenueID),
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListOrganizerEvents godoc
// @Summary List my events
// @Description Lists every event of the signed-in organizer, newest first.
// @Tags events
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains []domain.Event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /organizer/events [get]
func (c *EventController) ListOrganizerEvents(w http.ResponseWriter, r *http.Request) {
	p, ok := currentProfile(w, r)
	if !ok {
		return
	}
	events, err := c.Service.ListForOrganizer(r.Context(), p.ID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nonNil(events))
}

// ListPendingEvents godoc
// @Summary List events awaiting a decision
// @Tags events
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains []domain.Event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/events/pending [get]
func (c *EventController) ListPendingEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListPendingForAdmin(r.Context())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nonNil(events))
}

// DecideEvent godoc
// @Summary Approve or reject an event
// @Description Moves a pending event to approved or rejected. Decided events cannot change again.
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param body body EventDecisionRequest true "approved or rejected"
// @Success 200 {object} helpers.APIResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already decided)"
// @Router /admin/events/{eventID}/decision [post]
func (c *EventController) DecideEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID", "event")
	if !ok {
		return
	}
	var req EventDecisionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	admin, ok := currentProfile(w, r)
	if !ok {
		return
	}
	event, err := c.Service.Transition(r.Context(), eventID, req.Decision, admin.ID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListApprovedEvents godoc
// @Summary Browse approved events
// @Description Lists approved events in date order. Supports pagination.
// @Tags events
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Items per page (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /student/events [get]
func (c *EventController) ListApprovedEvents(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	events, err := c.Service.ListApprovedForStudents(r.Context())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.Paginate(events, params))
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
