package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"campusevents/internal/domain"
	"campusevents/internal/metrics"
	"campusevents/internal/services"
)

const (
	minPasswordLen      = 8
	notificationTimeout = 10 * time.Second
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// echo is a notification the manager expects the identity store to send back for one of
// its own direct calls.
type echo struct {
	typ       domain.IdentityEventType
	sessionID string
}

// Manager is the single writer of a client's published session. It reconciles direct
// sign-in, sign-out and registration calls with the identity store's pushed notifications.
//
// Direct calls are serialized. Every direct call starts a new generation; work started
// under an older generation never publishes. Notifications arriving during a direct call
// are held and replayed after it, minus the echoes of the call itself, so the call's own
// navigation and notice fire exactly once.
type Manager struct {
	identity domain.IdentityStore
	profiles domain.ProfileRepository
	store    *Store
	nav      Navigator
	metrics  metrics.Recorder
	logger   *slog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	opMu  sync.Mutex
	// pubMu orders publications; it is taken before mu and held while subscribers run.
	pubMu sync.Mutex

	mu        sync.Mutex
	gen       uint64
	inFlight  bool
	deferred  []domain.IdentityEvent
	sessionID string
	sub       domain.Subscription
	closed    bool
}

// NewManager creates a Manager for one client. Call Start before serving requests.
func NewManager(identity domain.IdentityStore, profiles domain.ProfileRepository, nav Navigator, recorder metrics.Recorder, logger *slog.Logger) *Manager {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		identity: identity,
		profiles: profiles,
		store:    NewStore(),
		nav:      nav,
		metrics:  recorder,
		logger:   logger,
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Store returns the published session store.
func (m *Manager) Store() *Store { return m.store }

// State returns the current published state.
func (m *Manager) State() State { return m.store.Snapshot() }

// Start subscribes to the identity store's change channel and initializes the session.
func (m *Manager) Start(ctx context.Context) error {
	sub, err := m.identity.OnChange(ctx, m.handleChange)
	if err != nil {
		return domain.NewServiceError("subscribe to identity changes", err)
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = sub.Close()
		return nil
	}
	m.sub = sub
	m.mu.Unlock()
	return m.Initialize(ctx)
}

// Close tears down the identity subscription. Pending work is discarded.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.gen++
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()

	m.cancel()
	if sub != nil {
		return sub.Close()
	}
	return nil
}

// Initialize resolves any session the identity store already holds for this client.
// It always leaves Loading false.
func (m *Manager) Initialize(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	gen := m.begin()
	var echoes []echo
	defer func() { m.end(echoes) }()

	prev := m.store.Snapshot()
	m.publishIf(gen, State{Identity: prev.Identity, Profile: prev.Profile, Loading: true}, m.currentSessionID())

	sess, err := m.identity.CurrentSession(ctx)
	if err != nil {
		m.publishIf(gen, State{}, "")
		return domain.NewServiceError("get current session", err)
	}
	if sess == nil {
		m.publishIf(gen, State{}, "")
		return nil
	}

	ident := sess.Identity
	profile, err := m.fetchProfile(ctx, ident.ID)
	if err != nil {
		m.publishIf(gen, State{Identity: &ident}, sess.ID)
		m.logger.WarnContext(ctx, "session profile unresolved", "identity_id", ident.ID, "err", err)
		return err
	}
	m.publishIf(gen, State{Identity: &ident, Profile: profile}, sess.ID)
	return nil
}

// SignIn authenticates with the identity store and admits the identity only if the
// approval gate allows the claimed role. A denied or unverifiable identity is signed out
// again before the error is returned.
func (m *Manager) SignIn(ctx context.Context, email, password string, claimed domain.Role) (*domain.Profile, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	gen := m.begin()
	var echoes []echo
	defer func() { m.end(echoes) }()

	email = strings.TrimSpace(strings.ToLower(email))
	prev := m.store.Snapshot()
	prevSessionID := m.currentSessionID()
	m.publishIf(gen, State{Identity: prev.Identity, Profile: prev.Profile, Loading: true}, prevSessionID)

	sess, err := m.identity.SignIn(ctx, email, password)
	if err != nil {
		m.publishIf(gen, State{Identity: prev.Identity, Profile: prev.Profile}, prevSessionID)
		if errors.Is(err, domain.ErrInvalidCredentials) {
			m.metrics.RecordSignIn(string(claimed), "invalid_credentials")
			m.logger.InfoContext(ctx, "auth_event", "event", "login_failed", "email", email, "reason", "invalid_credentials")
			m.fail("Login failed", domain.ErrInvalidCredentials)
			return nil, domain.ErrInvalidCredentials
		}
		m.metrics.RecordSignIn(string(claimed), "error")
		err = domain.NewServiceError("sign in", err)
		m.fail("Login failed", err)
		return nil, err
	}
	echoes = append(echoes, echo{domain.IdentitySignedIn, sess.ID})

	profile, err := m.fetchProfile(ctx, sess.Identity.ID)
	if err != nil {
		m.terminate(ctx, sess, &echoes)
		m.publishIf(gen, State{}, "")
		m.metrics.RecordSignIn(string(claimed), "profile_error")
		m.logger.WarnContext(ctx, "auth_event", "event", "login_failed", "email", email, "reason", "profile_unavailable", "err", err)
		m.fail("Login failed", err)
		return nil, err
	}

	if decision := services.EvaluateRole(profile, claimed); !decision.Allowed {
		m.terminate(ctx, sess, &echoes)
		m.publishIf(gen, State{}, "")
		m.metrics.RecordSignIn(string(claimed), "denied")
		m.logger.InfoContext(ctx, "auth_event", "event", "login_blocked", "email", email, "role", claimed, "reason", decision.Reason)
		denial := &domain.ApprovalError{Reason: decision.Reason}
		m.fail("Login failed", denial)
		return nil, denial
	}

	ident := sess.Identity
	m.publishIf(gen, State{Identity: &ident, Profile: profile}, sess.ID)
	m.metrics.RecordSignIn(string(claimed), "ok")
	m.logger.InfoContext(ctx, "auth_event", "event", "login", "identity_id", ident.ID, "role", claimed)
	m.nav.Navigate(DashboardPath(claimed))
	m.nav.Notify(Notice{
		Level:   NoticeInfo,
		Title:   "Login successful",
		Message: fmt.Sprintf("Welcome to your %s dashboard!", claimed),
	})
	return profile, nil
}

// SignOut terminates the external session and clears the published state. Without a
// published identity it does nothing.
func (m *Manager) SignOut(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	prev := m.store.Snapshot()
	if prev.Identity == nil {
		return nil
	}

	gen := m.begin()
	var echoes []echo
	defer func() { m.end(echoes) }()

	sessionID := m.currentSessionID()
	err := m.identity.SignOut(ctx)
	if sessionID != "" {
		echoes = append(echoes, echo{domain.IdentitySignedOut, sessionID})
	}
	m.publishIf(gen, State{}, "")
	m.metrics.RecordSignOut()
	m.logger.InfoContext(ctx, "auth_event", "event", "logout", "identity_id", prev.Identity.ID)
	m.nav.Navigate(LandingPath)

	if err != nil {
		err = domain.NewServiceError("sign out", err)
		m.fail("Sign out failed", err)
		return err
	}
	m.nav.Notify(Notice{
		Level:   NoticeInfo,
		Title:   "Signed out",
		Message: "You have been successfully signed out.",
	})
	return nil
}

// Register creates identity-store credentials and the matching profile. If the profile
// cannot be stored the new identity is removed again on a best-effort basis. The session
// created by sign-up is always terminated: the new account signs in through SignIn.
func (m *Manager) Register(ctx context.Context, email, password string, role domain.Role, name string) (*domain.Profile, error) {
	if role == domain.RoleAdmin {
		m.metrics.RecordAccountRegistration(string(role), "rejected")
		return nil, &domain.RegistrationError{Reason: "role not open for self-service registration"}
	}
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if err := validateRegistration(email, password, role, name); err != nil {
		m.metrics.RecordAccountRegistration(string(role), "invalid")
		return nil, err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	gen := m.begin()
	var echoes []echo
	defer func() { m.end(echoes) }()

	sess, err := m.identity.SignUp(ctx, email, password)
	if err != nil {
		m.metrics.RecordAccountRegistration(string(role), "error")
		err = domain.NewServiceError("sign up", err)
		m.fail("Registration failed", err)
		return nil, err
	}
	echoes = append(echoes, echo{domain.IdentitySignedIn, sess.ID})

	profile := domain.NewProfile(sess.Identity.ID, name, role, time.Now())
	profile.Email = sess.Identity.Email
	if err := m.profiles.Create(ctx, profile); err != nil {
		m.compensate(ctx, sess, &echoes)
		m.publishIf(gen, State{}, "")
		m.metrics.RecordAccountRegistration(string(role), "error")
		err = domain.NewServiceError("create profile", err)
		m.fail("Registration failed", err)
		return nil, err
	}

	m.terminate(ctx, sess, &echoes)
	m.publishIf(gen, State{}, "")
	m.metrics.RecordAccountRegistration(string(role), "ok")
	m.logger.InfoContext(ctx, "auth_event", "event", "register", "identity_id", profile.ID, "role", role)

	message := "Your account has been created. You can now sign in."
	if profile.ApprovalStatus == domain.ApprovalPending {
		message = "Your account has been created and is pending admin approval."
	}
	m.nav.Navigate(LoginPath(role))
	m.nav.Notify(Notice{Level: NoticeInfo, Title: "Registration successful", Message: message})
	return profile, nil
}

func validateRegistration(email, password string, role domain.Role, name string) error {
	verr := &domain.ValidationError{}
	if _, ok := domain.ParseRole(string(role)); !ok {
		verr.Add("role", "must be student or organizer")
	}
	if email == "" {
		verr.Add("email", "is required")
	} else if !emailRegexp.MatchString(email) {
		verr.Add("email", "invalid email format")
	}
	if len(password) < minPasswordLen {
		verr.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	if name == "" {
		verr.Add("name", "is required")
	}
	return verr.OrNil()
}

func (m *Manager) fetchProfile(ctx context.Context, identityID string) (*domain.Profile, error) {
	profile, err := m.profiles.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ProfileFetchError{IdentityID: identityID}
		}
		return nil, &domain.ProfileFetchError{IdentityID: identityID, Err: err}
	}
	return profile, nil
}

// terminate signs out a session the manager must not keep alive.
func (m *Manager) terminate(ctx context.Context, sess *domain.IdentitySession, echoes *[]echo) {
	*echoes = append(*echoes, echo{domain.IdentitySignedOut, sess.ID})
	if err := m.identity.SignOut(ctx); err != nil {
		m.logger.ErrorContext(ctx, "failed to terminate session", "session_id", sess.ID, "identity_id", sess.Identity.ID, "err", err)
	}
}

// compensate removes an identity whose profile could not be created. Failures are logged.
func (m *Manager) compensate(ctx context.Context, sess *domain.IdentitySession, echoes *[]echo) {
	m.terminate(ctx, sess, echoes)
	if err := m.identity.DeleteIdentity(ctx, sess.Identity.ID); err != nil {
		m.logger.ErrorContext(ctx, "orphaned identity cleanup failed", "identity_id", sess.Identity.ID, "err", err)
	}
}

func (m *Manager) fail(title string, err error) {
	m.nav.Notify(Notice{Level: NoticeError, Title: title, Message: userMessage(err)})
}

// userMessage renders err for display without leaking infrastructure detail.
func userMessage(err error) string {
	var serviceErr *domain.ServiceError
	if errors.As(err, &serviceErr) {
		return "The service is temporarily unavailable. Please try again."
	}
	var profileErr *domain.ProfileFetchError
	if errors.As(err, &profileErr) {
		return "Your profile could not be loaded."
	}
	return err.Error()
}

func (m *Manager) begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.inFlight = true
	return m.gen
}

// end replays the notifications held during a direct call, skipping the call's own echoes.
func (m *Manager) end(echoes []echo) {
	m.mu.Lock()
	m.inFlight = false
	deferred := m.deferred
	m.deferred = nil
	gen := m.gen
	m.mu.Unlock()

	for _, ev := range deferred {
		if consumeEcho(&echoes, ev) {
			continue
		}
		m.apply(gen, ev)
	}
}

func consumeEcho(echoes *[]echo, ev domain.IdentityEvent) bool {
	if ev.Session == nil {
		return false
	}
	for i, e := range *echoes {
		if e.typ == ev.Type && e.sessionID == ev.Session.ID {
			*echoes = append((*echoes)[:i], (*echoes)[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Manager) currentSessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// publishIf publishes next unless a newer generation has started or the manager closed.
// Subscribers run without mu held, so they may read State or Close the manager.
func (m *Manager) publishIf(gen uint64, next State, sessionID string) bool {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	if m.closed || m.gen != gen {
		m.mu.Unlock()
		return false
	}
	m.sessionID = sessionID
	m.mu.Unlock()

	m.store.publish(next)
	return true
}

// handleChange is the identity store callback.
func (m *Manager) handleChange(ev domain.IdentityEvent) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.inFlight {
		m.deferred = append(m.deferred, ev)
		m.mu.Unlock()
		return
	}
	gen := m.gen
	m.mu.Unlock()

	m.apply(gen, ev)
}

// apply reconciles one notification that did not originate from a direct call.
func (m *Manager) apply(gen uint64, ev domain.IdentityEvent) {
	ctx, cancel := context.WithTimeout(m.baseCtx, notificationTimeout)
	defer cancel()

	switch ev.Type {
	case domain.IdentitySignedIn:
		if ev.Session == nil || ev.Session.ID == m.currentSessionID() {
			return
		}
		// Late echoes of sessions already terminated must not resurrect them.
		cur, err := m.identity.CurrentSession(ctx)
		if err != nil || cur == nil || cur.ID != ev.Session.ID {
			return
		}
		ident := cur.Identity
		if !m.publishIf(gen, State{Identity: &ident, Loading: true}, cur.ID) {
			return
		}
		profile, err := m.fetchProfile(ctx, ident.ID)
		if err != nil {
			m.logger.WarnContext(ctx, "session profile unresolved", "identity_id", ident.ID, "err", err)
			m.publishIf(gen, State{Identity: &ident}, cur.ID)
			return
		}
		m.publishIf(gen, State{Identity: &ident, Profile: profile}, cur.ID)

	case domain.IdentitySignedOut:
		if m.store.Snapshot().Identity == nil {
			return
		}
		if ev.Session != nil {
			if current := m.currentSessionID(); current != "" && current != ev.Session.ID {
				return
			}
		}
		if !m.publishIf(gen, State{}, "") {
			return
		}
		m.metrics.RecordSignOut()
		m.logger.InfoContext(ctx, "auth_event", "event", "logout", "reason", "external")
		m.nav.Navigate(LandingPath)
		m.nav.Notify(Notice{
			Level:   NoticeInfo,
			Title:   "Signed out",
			Message: "Your session ended.",
		})
	}
}
