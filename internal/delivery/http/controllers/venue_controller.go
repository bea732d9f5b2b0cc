package controllers

import (
	"log/slog"
	"net/http"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

type VenueController struct {
	Logger  *slog.Logger
	Service domain.VenueService
}

func NewVenueController(logger *slog.Logger, svc domain.VenueService) *VenueController {
	return &VenueController{Logger: logger, Service: svc}
}

// ListVenues godoc
// @Summary List venues
// @Tags venues
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains []domain.Venue"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /venues [get]
func (c *VenueController) ListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := c.Service.List(r.Context())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nonNil(venues))
}

// Availability godoc
// @Summary Venue availability on a date
// @Description Lists the pending and approved events holding the venue on the given date.
// @Tags venues
// @Produce json
// @Param venueID path string true "Venue ID (UUID)"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} helpers.APIResponse "data contains domain.VenueAvailability"
// @Failure 400 {object} helpers.APIResponse "error.code: validation_failed"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /venues/{venueID}/availability [get]
func (c *VenueController) Availability(w http.ResponseWriter, r *http.Request) {
	venueID, ok := pathID(w, r, "venueID", "venue")
	if !ok {
		return
	}
	avail, err := c.Service.Availability(r.Context(), venueID, r.URL.Query().Get("date"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, avail)
}
