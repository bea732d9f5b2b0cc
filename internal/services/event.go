package services

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"campusevents/internal/domain"
	"campusevents/internal/metrics"
)

const (
	minTitleLen       = 3
	minDescriptionLen = 10
	dateLayout        = "2006-01-02"
	timeLayout        = "15:04"
)

// textPolicy strips all markup from organizer-supplied text.
var textPolicy = bluemonday.StrictPolicy()

func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

type eventService struct {
	eventRepo      domain.EventRepository
	venueRepo      domain.VenueRepository
	profileRepo    domain.ProfileRepository
	emailService   domain.EmailService
	metrics        metrics.Recorder
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewEventService creates the event lifecycle service.
func NewEventService(
	eventRepo domain.EventRepository,
	venueRepo domain.VenueRepository,
	profileRepo domain.ProfileRepository,
	emailService domain.EmailService,
	recorder metrics.Recorder,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &eventService{
		eventRepo:      eventRepo,
		venueRepo:      venueRepo,
		profileRepo:    profileRepo,
		emailService:   emailService,
		metrics:        recorder,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func validateEventInput(in *domain.EventInput) error {
	in.Title = sanitizeText(in.Title)
	in.Description = sanitizeText(in.Description)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.VenueID = strings.TrimSpace(in.VenueID)

	verr := &domain.ValidationError{}
	if utf8.RuneCountInString(in.Title) < minTitleLen {
		verr.Add("title", "must be at least 3 characters")
	}
	if utf8.RuneCountInString(in.Description) < minDescriptionLen {
		verr.Add("description", "must be at least 10 characters")
	}
	if in.Date == "" {
		verr.Add("date", "is required")
	} else if _, err := time.Parse(dateLayout, in.Date); err != nil {
		verr.Add("date", "must be formatted YYYY-MM-DD")
	}
	if in.Time == "" {
		verr.Add("time", "is required")
	} else if _, err := time.Parse(timeLayout, in.Time); err != nil {
		verr.Add("time", "must be formatted HH:MM")
	}
	if in.VenueID == "" {
		verr.Add("venue_id", "is required")
	}
	return verr.OrNil()
}

func (s *eventService) Create(ctx context.Context, organizerID string, input domain.EventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if organizerID == "" {
		verr := &domain.ValidationError{}
		verr.Add("organizer_id", "is required")
		return nil, verr
	}
	if err := validateEventInput(&input); err != nil {
		return nil, err
	}

	if _, err := s.venueRepo.GetByID(ctx, input.VenueID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ReferenceError{Kind: "venue", ID: input.VenueID}
		}
		return nil, domain.NewServiceError("get venue", err)
	}

	event := domain.NewEvent(organizerID, input.Title, input.Description, input.Date, input.Time, input.VenueID, time.Now())
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, domain.NewServiceError("create event", err)
	}
	s.metrics.RecordEventCreated()
	return event, nil
}

func (s *eventService) Transition(ctx context.Context, eventID string, decision domain.EventStatus, adminID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !decision.IsDecision() {
		verr := &domain.ValidationError{}
		verr.Add("decision", `must be "approved" or "rejected"`)
		return nil, verr
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ReferenceError{Kind: "event", ID: eventID}
		}
		return nil, domain.NewServiceError("get event", err)
	}
	if event.Status != domain.EventPending {
		s.metrics.RecordEventTransition(string(decision), "invalid")
		return nil, domain.ErrInvalidTransition
	}

	updated, err := s.eventRepo.UpdateStatus(ctx, eventID, domain.EventPending, decision, adminID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrStatusConflict):
			s.metrics.RecordEventTransition(string(decision), "invalid")
			return nil, domain.ErrInvalidTransition
		case errors.Is(err, domain.ErrNotFound):
			return nil, &domain.ReferenceError{Kind: "event", ID: eventID}
		}
		return nil, domain.NewServiceError("update event status", err)
	}
	s.metrics.RecordEventTransition(string(decision), "ok")
	s.logger.InfoContext(ctx, "event decision",
		"event_id", eventID,
		"decision", decision,
		"admin_id", adminID,
	)
	s.notifyOrganizer(ctx, updated)
	return updated, nil
}

// notifyOrganizer emails the organizer about a decision. Failures are logged only.
func (s *eventService) notifyOrganizer(ctx context.Context, event *domain.Event) {
	if s.emailService == nil {
		return
	}
	organizer, err := s.profileRepo.GetByID(ctx, event.OrganizerID)
	if err != nil || organizer.Email == "" {
		s.logger.WarnContext(ctx, "event decision email skipped", "event_id", event.ID, "err", err)
		return
	}
	data := &domain.EventDecisionEmailData{
		Email:      organizer.Email,
		Name:       organizer.Name,
		EventTitle: event.Title,
		EventDate:  event.Date,
		Status:     event.Status,
	}
	if err := s.emailService.SendEventDecision(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "event decision email failed", "event_id", event.ID, "err", err)
	}
}

func (s *eventService) list(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListBy(ctx, filter)
	if err != nil {
		return nil, domain.NewServiceError("list events", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) ListForOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	return s.list(ctx, domain.EventFilter{OrganizerID: organizerID})
}

func (s *eventService) ListPendingForAdmin(ctx context.Context) ([]*domain.Event, error) {
	return s.list(ctx, domain.EventFilter{Status: domain.EventPending})
}

func (s *eventService) ListApprovedForStudents(ctx context.Context) ([]*domain.Event, error) {
	return s.list(ctx, domain.EventFilter{Status: domain.EventApproved})
}
