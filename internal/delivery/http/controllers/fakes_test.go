package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"
	"campusevents/internal/session"
	"campusevents/internal/session/sessiontest"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	studentID   = "00000000-0000-4000-8000-000000000101"
	organizerID = "00000000-0000-4000-8000-000000000102"
	pendingID   = "00000000-0000-4000-8000-000000000103"
	adminID     = "00000000-0000-4000-8000-000000000104"
	eventID     = "11111111-1111-4111-8111-111111111111"
	venueID     = "22222222-2222-4222-8222-222222222222"
)

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	createErr     error
	transitionErr error
	listErr       error
	events        []*domain.Event

	lastOrganizerID string
	lastInput       domain.EventInput
	lastEventID     string
	lastDecision    domain.EventStatus
	lastAdminID     string
}

func (f *fakeEventService) Create(_ context.Context, organizerID string, input domain.EventInput) (*domain.Event, error) {
	f.lastOrganizerID = organizerID
	f.lastInput = input
	if f.createErr != nil {
		return nil, f.createErr
	}
	e := domain.NewEvent(organizerID, input.Title, input.Description, input.Date, input.Time, input.VenueID, time.Now())
	e.ID = eventID
	return e, nil
}

func (f *fakeEventService) Transition(_ context.Context, id string, decision domain.EventStatus, adminID string) (*domain.Event, error) {
	f.lastEventID, f.lastDecision, f.lastAdminID = id, decision, adminID
	if f.transitionErr != nil {
		return nil, f.transitionErr
	}
	return &domain.Event{ID: id, Status: decision, DecidedBy: &adminID}, nil
}

func (f *fakeEventService) ListForOrganizer(_ context.Context, organizerID string) ([]*domain.Event, error) {
	f.lastOrganizerID = organizerID
	return f.events, f.listErr
}

func (f *fakeEventService) ListPendingForAdmin(context.Context) ([]*domain.Event, error) {
	return f.events, f.listErr
}

func (f *fakeEventService) ListApprovedForStudents(context.Context) ([]*domain.Event, error) {
	return f.events, f.listErr
}

// fakeRegistrationService implements domain.RegistrationService for handler tests.
type fakeRegistrationService struct {
	registerErr   error
	cancelErr     error
	registered    bool
	registrations []*domain.RegistrationWithEvent

	lastEventID   string
	lastStudentID string
}

func (f *fakeRegistrationService) Register(_ context.Context, eventID, studentID string) (*domain.Registration, error) {
	f.lastEventID, f.lastStudentID = eventID, studentID
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return domain.NewRegistration(eventID, studentID, time.Now()), nil
}

func (f *fakeRegistrationService) Cancel(_ context.Context, eventID, studentID string) error {
	f.lastEventID, f.lastStudentID = eventID, studentID
	return f.cancelErr
}

func (f *fakeRegistrationService) IsRegistered(_ context.Context, eventID, studentID string) (bool, error) {
	f.lastEventID, f.lastStudentID = eventID, studentID
	return f.registered, nil
}

func (f *fakeRegistrationService) ListForStudent(_ context.Context, studentID string) ([]*domain.RegistrationWithEvent, error) {
	f.lastStudentID = studentID
	return f.registrations, nil
}

// fakeApprovalService implements domain.ApprovalService for handler tests.
type fakeApprovalService struct {
	pending   []*domain.Profile
	decideErr error

	lastProfileID string
	lastStatus    domain.ApprovalStatus
	lastAdminID   string
}

func (f *fakeApprovalService) ListPendingOrganizers(context.Context) ([]*domain.Profile, error) {
	return f.pending, nil
}

func (f *fakeApprovalService) DecideOrganizer(_ context.Context, profileID string, status domain.ApprovalStatus, adminID string) (*domain.Profile, error) {
	f.lastProfileID, f.lastStatus, f.lastAdminID = profileID, status, adminID
	if f.decideErr != nil {
		return nil, f.decideErr
	}
	return &domain.Profile{ID: profileID, Role: domain.RoleOrganizer, ApprovalStatus: status}, nil
}

// fakeVenueService implements domain.VenueService for handler tests.
type fakeVenueService struct {
	venues   []*domain.Venue
	availErr error
	lastDate string
}

func (f *fakeVenueService) List(context.Context) ([]*domain.Venue, error) {
	return f.venues, nil
}

func (f *fakeVenueService) Availability(_ context.Context, venueID, date string) (*domain.VenueAvailability, error) {
	f.lastDate = date
	if f.availErr != nil {
		return nil, f.availErr
	}
	return &domain.VenueAvailability{Venue: &domain.Venue{ID: venueID}, Date: date, Events: []*domain.Event{}, Free: true}, nil
}

// sessions holds live clients backed by in-memory identity and profile stores.
type sessions struct {
	identities *sessiontest.Identities
	profiles   *sessiontest.Profiles
	registry   *session.Registry
}

func newSessions(t *testing.T) *sessions {
	t.Helper()
	now := time.Now()
	approved := domain.NewProfile(organizerID, "Olga", domain.RoleOrganizer, now)
	approved.ApprovalStatus = domain.ApprovalApproved

	s := &sessions{
		identities: sessiontest.NewIdentities(),
		profiles: sessiontest.NewProfiles(
			domain.NewProfile(studentID, "Sam", domain.RoleStudent, now),
			approved,
			domain.NewProfile(pendingID, "Pat", domain.RoleOrganizer, now),
			domain.NewProfile(adminID, "Ada", domain.RoleAdmin, now),
		),
	}
	s.identities.AddCredential(studentID, "sam@x.com", "password123")
	s.identities.AddCredential(organizerID, "olga@x.com", "password123")
	s.identities.AddCredential(pendingID, "pat@x.com", "password123")
	s.identities.AddCredential(adminID, "ada@x.com", "password123")
	s.registry = session.NewRegistry(s.identities, s.profiles, nil, testLogger, session.RegistryConfig{})
	t.Cleanup(s.registry.Close)
	return s
}

// client returns the live session of clientID, signed in as email when email is set.
func (s *sessions) client(t *testing.T, clientID, email string) *session.Client {
	t.Helper()
	ctx := context.Background()
	if email != "" {
		_, err := s.identities.ForClient(clientID).SignIn(ctx, email, "password123")
		require.NoError(t, err)
	}
	c, err := s.registry.Get(ctx, clientID)
	require.NoError(t, err)
	return c
}

// newRequest builds a request with JSON body (when non-nil) and the given path values.
func newRequest(t *testing.T, method, target string, body any, pathValues map[string]string) *http.Request {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = bytes.NewBufferString(b)
		default:
			buf, err := json.Marshal(b)
			require.NoError(t, err)
			rdr = bytes.NewReader(buf)
		}
	}
	req := httptest.NewRequest(method, "http://test"+target, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	return req
}

func withClient(req *http.Request, c *session.Client) *http.Request {
	return req.WithContext(middleware.SetSessionClient(req.Context(), c))
}

func withProfile(req *http.Request, p *domain.Profile) *http.Request {
	return req.WithContext(middleware.SetProfile(req.Context(), p))
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

// decode unmarshals the envelope's data into dest and returns the envelope's error.
func decode(t *testing.T, rr *httptest.ResponseRecorder, dest any) *helpers.APIError {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	if dest != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, dest))
	}
	return envelope.Error
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	apiErr := decode(t, rr, nil)
	require.NotNil(t, apiErr)
	return apiErr.Code
}

func serveHandler(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
