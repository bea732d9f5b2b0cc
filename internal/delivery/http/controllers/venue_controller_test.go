package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusevents/internal/domain"
)

func TestVenueController_ListVenues(t *testing.T) {
	c := NewVenueController(testLogger, &fakeVenueService{venues: []*domain.Venue{{ID: venueID, Name: "Main Hall", Capacity: 300}}})
	rr := serve(c.ListVenues, newRequest(t, http.MethodGet, "/venues", nil, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var venues []*domain.Venue
	require.Nil(t, decode(t, rr, &venues))
	require.Len(t, venues, 1)
	assert.Equal(t, "Main Hall", venues[0].Name)
}

func TestVenueController_Availability(t *testing.T) {
	svc := &fakeVenueService{}
	c := NewVenueController(testLogger, svc)

	req := newRequest(t, http.MethodGet, "/venues/"+venueID+"/availability?date=2026-11-02", nil, map[string]string{"venueID": venueID})
	rr := serve(c.Availability, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var avail domain.VenueAvailability
	require.Nil(t, decode(t, rr, &avail))
	assert.True(t, avail.Free)
	assert.Equal(t, "2026-11-02", svc.lastDate)

	verr := &domain.ValidationError{}
	verr.Add("date", "must be formatted YYYY-MM-DD")
	c = NewVenueController(testLogger, &fakeVenueService{availErr: verr})
	req = newRequest(t, http.MethodGet, "/venues/"+venueID+"/availability?date=tomorrow", nil, map[string]string{"venueID": venueID})
	assert.Equal(t, http.StatusBadRequest, serve(c.Availability, req).Code)

	req = newRequest(t, http.MethodGet, "/venues/main-hall/availability", nil, map[string]string{"venueID": "main-hall"})
	assert.Equal(t, http.StatusNotFound, serve(c.Availability, req).Code)
}
