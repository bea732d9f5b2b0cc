package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"campusevents/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

// event_date and event_time are DATE and TIME columns; they travel as YYYY-MM-DD and HH:MM text.
const eventColumns = `id, title, description, to_char(event_date, 'YYYY-MM-DD'), to_char(event_time, 'HH24:MI'), venue_id, organizer_id, status, decided_by, decided_at, created_at, updated_at`

// listedEventColumns reads events joined with their venue for listings. A deleted venue
// leaves venue_name empty.
const listedEventColumns = `e.id, e.title, e.description, to_char(e.event_date, 'YYYY-MM-DD'), to_char(e.event_time, 'HH24:MI'), e.venue_id, e.organizer_id, e.status, e.decided_by, e.decided_at, e.created_at, e.updated_at, COALESCE(v.name, '')`

const listedEventSource = ` FROM events e LEFT JOIN venues v ON v.id = e.venue_id`

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	return scanEventRow(row, false)
}

func scanEventRow(row interface{ Scan(...any) error }, withVenue bool) (*domain.Event, error) {
	e := &domain.Event{}
	var status string
	var decidedBy sql.NullString
	var decidedAt sql.NullTime
	dest := []any{
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.VenueID, &e.OrganizerID,
		&status, &decidedBy, &decidedAt, &e.CreatedAt, &e.UpdatedAt,
	}
	if withVenue {
		dest = append(dest, &e.VenueName)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	e.Status = domain.EventStatus(status)
	if decidedBy.Valid {
		e.DecidedBy = &decidedBy.String
	}
	if decidedAt.Valid {
		e.DecidedAt = &decidedAt.Time
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, event_date, event_time, venue_id, organizer_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Date, e.Time, e.VenueID, e.OrganizerID, string(e.Status), e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil && pqCode(err) == foreignKeyViolation {
		return &domain.ReferenceError{Kind: "venue", ID: e.VenueID}
	}
	return err
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pqCode(err) == invalidTextRepresentation {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// UpdateStatus applies the transition only while the row still holds `from`. Zero rows
// updated is resolved into ErrNotFound or ErrStatusConflict with a follow-up read.
func (r *eventRepository) UpdateStatus(ctx context.Context, id string, from, to domain.EventStatus, decidedBy string, at time.Time) (*domain.Event, error) {
	query := `
		UPDATE events SET status = $1, decided_by = $2, decided_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
		RETURNING ` + eventColumns
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, string(to), decidedBy, at, id, string(from)))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrStatusConflict
}

func (r *eventRepository) ListBy(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	var where []string
	args := []interface{}{}
	n := 1
	if filter.OrganizerID != "" {
		where = append(where, fmt.Sprintf("e.organizer_id = $%d", n))
		args = append(args, filter.OrganizerID)
		n++
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("e.status = $%d", n))
		args = append(args, string(filter.Status))
		n++
	}
	if filter.VenueID != "" {
		where = append(where, fmt.Sprintf("e.venue_id = $%d", n))
		args = append(args, filter.VenueID)
		n++
	}
	if filter.Date != "" {
		where = append(where, fmt.Sprintf("e.event_date = $%d", n))
		args = append(args, filter.Date)
		n++
	}
	query := `SELECT ` + listedEventColumns + listedEventSource
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY e.event_date ASC, e.event_time ASC, e.created_at ASC`
	return r.query(ctx, query, args...)
}

func (r *eventRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Event, error) {
	if len(ids) == 0 {
		return []*domain.Event{}, nil
	}
	query := `SELECT ` + listedEventColumns + listedEventSource + ` WHERE e.id = ANY($1)`
	return r.query(ctx, query, pq.Array(ids))
}

func (r *eventRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEventRow(rows, true)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
