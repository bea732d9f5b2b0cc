package domain

import "context"

// Venue is read-only reference data for event creation and display.
// swagger:model Venue
type Venue struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Location string `json:"location"`
}

// VenueRepository defines the interface for venue storage.
type VenueRepository interface {
	GetByID(ctx context.Context, id string) (*Venue, error)
	List(ctx context.Context) ([]*Venue, error)
}

// VenueAvailability lists the events holding a venue on a date.
// Rejected events do not hold the venue.
type VenueAvailability struct {
	Venue  *Venue   `json:"venue"`
	Date   string   `json:"date"`
	Events []*Event `json:"events"`
	Free   bool     `json:"free"`
}

// VenueService exposes the venue catalogue.
type VenueService interface {
	List(ctx context.Context) ([]*Venue, error)
	Availability(ctx context.Context, venueID, date string) (*VenueAvailability, error)
}
