package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"campusevents/internal/domain"
	"campusevents/internal/metrics"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

var errDB = errors.New("connection refused")

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Event
	nextID    int
	createErr error // if set, Create returns this error
	getErr    error
	updateErr error
	listErr   error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		byID:   make(map[string]*domain.Event),
		nextID: 1,
	}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) UpdateStatus(ctx context.Context, id string, from, to domain.EventStatus, decidedBy string, at time.Time) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if e.Status != from {
		return nil, domain.ErrStatusConflict
	}
	e.Status = to
	e.DecidedBy = &decidedBy
	e.DecidedAt = &at
	e.UpdatedAt = at
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) ListBy(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*domain.Event
	for _, e := range f.byID {
		if filter.OrganizerID != "" && e.OrganizerID != filter.OrganizerID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.VenueID != "" && e.VenueID != filter.VenueID {
			continue
		}
		if filter.Date != "" && e.Date != filter.Date {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEventRepo) ListByIDs(ctx context.Context, ids []string) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Event, 0, len(ids))
	for _, id := range ids {
		if e, ok := f.byID[id]; ok {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) put(e *domain.Event) {
	f.mu.Lock()
	cp := *e
	f.byID[e.ID] = &cp
	f.mu.Unlock()
}

// fakeVenueRepo is an in-memory VenueRepository for tests.
type fakeVenueRepo struct {
	venues []*domain.Venue
	err    error
}

func (f *fakeVenueRepo) GetByID(ctx context.Context, id string) (*domain.Venue, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range f.venues {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeVenueRepo) List(ctx context.Context) ([]*domain.Venue, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.venues, nil
}

func newFakeVenueRepo() *fakeVenueRepo {
	return &fakeVenueRepo{venues: []*domain.Venue{
		{ID: "main-hall", Name: "Main Hall", Capacity: 300, Location: "Building A"},
		{ID: "lab-2", Name: "Lab 2", Capacity: 40, Location: "Building C"},
	}}
}

// fakeProfileRepo is an in-memory ProfileRepository for tests.
type fakeProfileRepo struct {
	byID      map[string]*domain.Profile
	getErr    error
	updateErr error
	listErr   error
	updates   int
}

func newFakeProfileRepo(profiles ...*domain.Profile) *fakeProfileRepo {
	f := &fakeProfileRepo{byID: make(map[string]*domain.Profile)}
	for _, p := range profiles {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProfileRepo) Create(ctx context.Context, p *domain.Profile) error {
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileRepo) UpdateApprovalStatus(ctx context.Context, id string, status domain.ApprovalStatus, at time.Time) (*domain.Profile, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	f.updates++
	p.ApprovalStatus = status
	p.UpdatedAt = at
	cp := *p
	return &cp, nil
}

func (f *fakeProfileRepo) ListByRoleAndStatus(ctx context.Context, role domain.Role, status domain.ApprovalStatus) ([]*domain.Profile, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*domain.Profile
	for _, p := range f.byID {
		if p.Role == role && p.ApprovalStatus == status {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeRegistrationRepo is an in-memory RegistrationRepository. The map key mirrors the
// (event_id, student_id) unique index.
type fakeRegistrationRepo struct {
	mu      sync.Mutex
	rows    map[[2]string]*domain.Registration
	findErr error
	// skipFind makes Find miss, simulating a concurrent insert after the check.
	skipFind bool
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{rows: make(map[[2]string]*domain.Registration)}
}

func (f *fakeRegistrationRepo) Create(ctx context.Context, reg *domain.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]string{reg.EventID, reg.StudentID}
	if _, ok := f.rows[key]; ok {
		return domain.ErrDuplicate
	}
	f.rows[key] = reg
	return nil
}

func (f *fakeRegistrationRepo) Find(ctx context.Context, eventID, studentID string) (*domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.skipFind {
		return nil, domain.ErrNotFound
	}
	reg, ok := f.rows[[2]string{eventID, studentID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return reg, nil
}

func (f *fakeRegistrationRepo) Delete(ctx context.Context, eventID, studentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]string{eventID, studentID}
	if _, ok := f.rows[key]; !ok {
		return false, nil
	}
	delete(f.rows, key)
	return true, nil
}

func (f *fakeRegistrationRepo) ListByStudentID(ctx context.Context, studentID string) ([]*domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Registration
	for _, reg := range f.rows {
		if reg.StudentID == studentID {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, nil
}

func (f *fakeRegistrationRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// fakeEmailService records sent decision emails.
type fakeEmailService struct {
	organizerDecisions []*domain.OrganizerDecisionEmailData
	eventDecisions     []*domain.EventDecisionEmailData
	err                error
}

func (f *fakeEmailService) SendOrganizerDecision(ctx context.Context, data *domain.OrganizerDecisionEmailData) error {
	f.organizerDecisions = append(f.organizerDecisions, data)
	return f.err
}

func (f *fakeEmailService) SendEventDecision(ctx context.Context, data *domain.EventDecisionEmailData) error {
	f.eventDecisions = append(f.eventDecisions, data)
	return f.err
}

// recordingMetrics keeps the outcomes the services report.
type recordingMetrics struct {
	metrics.Noop
	mu            sync.Mutex
	registrations []string
	transitions   []string
	decisions     []string
	created       int
}

func (r *recordingMetrics) RecordEventRegistration(outcome string) {
	r.mu.Lock()
	r.registrations = append(r.registrations, outcome)
	r.mu.Unlock()
}

func (r *recordingMetrics) RecordEventTransition(decision, outcome string) {
	r.mu.Lock()
	r.transitions = append(r.transitions, decision+":"+outcome)
	r.mu.Unlock()
}

func (r *recordingMetrics) RecordOrganizerDecision(status string) {
	r.mu.Lock()
	r.decisions = append(r.decisions, status)
	r.mu.Unlock()
}

func (r *recordingMetrics) RecordEventCreated() {
	r.mu.Lock()
	r.created++
	r.mu.Unlock()
}

var testTime = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
