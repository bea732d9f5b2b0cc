package domain

import (
	"context"
	"time"
)

// EventStatus is the lifecycle state of an event. Approved and rejected are terminal.
type EventStatus string

const (
	EventPending  EventStatus = "pending"
	EventApproved EventStatus = "approved"
	EventRejected EventStatus = "rejected"
)

// IsDecision reports whether s is a valid admin decision.
func (s EventStatus) IsDecision() bool {
	return s == EventApproved || s == EventRejected
}

// Event represents a campus event proposed by an organizer.
// swagger:model Event
type Event struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
	VenueID     string      `json:"venue_id"`
	// VenueName is filled by listings only.
	VenueName   string      `json:"venue_name,omitempty"`
	OrganizerID string      `json:"organizer_id"`
	Status      EventStatus `json:"status"`
	DecidedBy   *string     `json:"decided_by,omitempty"`
	DecidedAt   *time.Time  `json:"decided_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewEvent returns a pending Event. ID is typically set by the repository on create.
func NewEvent(organizerID, title, description, date, timeOfDay, venueID string, createdAt time.Time) *Event {
	return &Event{
		Title:       title,
		Description: description,
		Date:        date,
		Time:        timeOfDay,
		VenueID:     venueID,
		OrganizerID: organizerID,
		Status:      EventPending,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

// EventInput is the organizer-supplied part of a new event.
type EventInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	VenueID     string `json:"venue_id"`
}

// EventFilter selects events for EventRepository.ListBy. Zero-valued fields do not filter.
type EventFilter struct {
	OrganizerID string
	Status      EventStatus
	VenueID     string
	Date        string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// UpdateStatus moves the event from `from` to `to`. It returns ErrNotFound when the event
	// does not exist and ErrStatusConflict when its status is not `from`.
	UpdateStatus(ctx context.Context, id string, from, to EventStatus, decidedBy string, at time.Time) (*Event, error)
	ListBy(ctx context.Context, filter EventFilter) ([]*Event, error)
	// ListByIDs returns the events that still exist among ids, in no particular order.
	ListByIDs(ctx context.Context, ids []string) ([]*Event, error)
}

// EventService defines the event approval lifecycle.
type EventService interface {
	Create(ctx context.Context, organizerID string, input EventInput) (*Event, error)
	Transition(ctx context.Context, eventID string, decision EventStatus, adminID string) (*Event, error)
	ListForOrganizer(ctx context.Context, organizerID string) ([]*Event, error)
	ListPendingForAdmin(ctx context.Context) ([]*Event, error)
	ListApprovedForStudents(ctx context.Context) ([]*Event, error)
}
