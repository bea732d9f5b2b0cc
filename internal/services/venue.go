package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"campusevents/internal/domain"
)

type venueService struct {
	venueRepo domain.VenueRepository
	eventRepo domain.EventRepository
}

// NewVenueService creates the read-only venue catalogue.
func NewVenueService(venueRepo domain.VenueRepository, eventRepo domain.EventRepository) domain.VenueService {
	return &venueService{venueRepo: venueRepo, eventRepo: eventRepo}
}

func (s *venueService) List(ctx context.Context) ([]*domain.Venue, error) {
	venues, err := s.venueRepo.List(ctx)
	if err != nil {
		return nil, domain.NewServiceError("list venues", err)
	}
	if venues == nil {
		venues = []*domain.Venue{}
	}
	return venues, nil
}

// Availability lists the pending and approved events booked at the venue on date.
func (s *venueService) Availability(ctx context.Context, venueID, date string) (*domain.VenueAvailability, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(dateLayout, date); err != nil {
		verr := &domain.ValidationError{}
		verr.Add("date", "must be formatted YYYY-MM-DD")
		return nil, verr
	}

	venue, err := s.venueRepo.GetByID(ctx, venueID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ReferenceError{Kind: "venue", ID: venueID}
		}
		return nil, domain.NewServiceError("get venue", err)
	}

	events, err := s.eventRepo.ListBy(ctx, domain.EventFilter{VenueID: venueID, Date: date})
	if err != nil {
		return nil, domain.NewServiceError("list venue events", err)
	}
	holding := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		if e.Status != domain.EventRejected {
			holding = append(holding, e)
		}
	}
	return &domain.VenueAvailability{
		Venue:  venue,
		Date:   date,
		Events: holding,
		Free:   len(holding) == 0,
	}, nil
}
