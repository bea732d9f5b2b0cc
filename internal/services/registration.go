package services

import (
	"context"
	"errors"
	"time"

	"campusevents/internal/domain"
	"campusevents/internal/metrics"
)

type registrationService struct {
	eventRepo        domain.EventRepository
	registrationRepo domain.RegistrationRepository
	metrics          metrics.Recorder
}

// NewRegistrationService creates the registration ledger.
func NewRegistrationService(
	eventRepo domain.EventRepository,
	registrationRepo domain.RegistrationRepository,
	recorder metrics.Recorder,
) domain.RegistrationService {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &registrationService{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		metrics:          recorder,
	}
}

func (s *registrationService) Register(ctx context.Context, eventID, studentID string) (*domain.Registration, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ReferenceError{Kind: "event", ID: eventID}
		}
		return nil, domain.NewServiceError("get event", err)
	}
	if event.Status != domain.EventApproved {
		s.metrics.RecordEventRegistration("not_approved")
		return nil, domain.ErrEventNotApproved
	}

	// Check first; the unique index is the real guarantor when two attempts race past this.
	if _, err := s.registrationRepo.Find(ctx, eventID, studentID); err == nil {
		s.metrics.RecordEventRegistration("already_registered")
		return nil, domain.ErrAlreadyRegistered
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewServiceError("find registration", err)
	}

	reg := domain.NewRegistration(eventID, studentID, time.Now())
	if err := s.registrationRepo.Create(ctx, reg); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			s.metrics.RecordEventRegistration("duplicate")
			return nil, domain.ErrDuplicate
		}
		return nil, domain.NewServiceError("create registration", err)
	}
	s.metrics.RecordEventRegistration("created")
	return reg, nil
}

func (s *registrationService) Cancel(ctx context.Context, eventID, studentID string) error {
	if _, err := s.registrationRepo.Delete(ctx, eventID, studentID); err != nil {
		return domain.NewServiceError("delete registration", err)
	}
	return nil
}

func (s *registrationService) IsRegistered(ctx context.Context, eventID, studentID string) (bool, error) {
	_, err := s.registrationRepo.Find(ctx, eventID, studentID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, domain.NewServiceError("find registration", err)
}

func (s *registrationService) ListForStudent(ctx context.Context, studentID string) ([]*domain.RegistrationWithEvent, error) {
	regs, err := s.registrationRepo.ListByStudentID(ctx, studentID)
	if err != nil {
		return nil, domain.NewServiceError("list registrations", err)
	}
	result := make([]*domain.RegistrationWithEvent, 0, len(regs))
	if len(regs) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(regs))
	for _, reg := range regs {
		ids = append(ids, reg.EventID)
	}
	events, err := s.eventRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, domain.NewServiceError("list registered events", err)
	}
	eventsByID := make(map[string]*domain.Event, len(events))
	for _, ev := range events {
		eventsByID[ev.ID] = ev
	}
	for _, reg := range regs {
		ev, ok := eventsByID[reg.EventID]
		if !ok {
			continue
		}
		result = append(result, &domain.RegistrationWithEvent{
			Registration: reg,
			Event:        ev,
		})
	}
	return result, nil
}
