// Package sessiontest provides in-memory identity and profile collaborators for tests that
// need live sessions.
package sessiontest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"campusevents/internal/domain"
)

// ErrUnavailable is returned by collaborators switched into failure mode.
var ErrUnavailable = errors.New("backend unavailable")

type credential struct {
	id       string
	password string
}

// Identities is an in-memory identity store shared by any number of clients.
// Notifications are delivered synchronously after the store's lock is released.
type Identities struct {
	mu        sync.Mutex
	creds     map[string]credential
	current   map[string]*domain.IdentitySession
	listeners map[string]map[int]func(domain.IdentityEvent)
	nextID    int
}

// NewIdentities returns an empty store.
func NewIdentities() *Identities {
	return &Identities{
		creds:     make(map[string]credential),
		current:   make(map[string]*domain.IdentitySession),
		listeners: make(map[string]map[int]func(domain.IdentityEvent)),
	}
}

// AddCredential registers email/password for identityID.
func (s *Identities) AddCredential(identityID, email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[email] = credential{id: identityID, password: password}
}

// HasCredential reports whether email has credentials.
func (s *Identities) HasCredential(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.creds[email]
	return ok
}

// ForClient returns the store as seen by clientID.
func (s *Identities) ForClient(clientID string) domain.IdentityStore {
	return &clientIdentity{store: s, clientID: clientID}
}

// SignOutClient ends clientID's session as if it expired elsewhere.
func (s *Identities) SignOutClient(clientID string) {
	_ = (&clientIdentity{store: s, clientID: clientID}).SignOut(context.Background())
}

func (s *Identities) emit(clientID string, ev domain.IdentityEvent) {
	s.mu.Lock()
	fns := make([]func(domain.IdentityEvent), 0, len(s.listeners[clientID]))
	for _, fn := range s.listeners[clientID] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

type clientIdentity struct {
	store    *Identities
	clientID string
}

func (c *clientIdentity) start(identityID, email string) *domain.IdentitySession {
	s := c.store
	s.nextID++
	sess := &domain.IdentitySession{
		ID:          fmt.Sprintf("sess-%d", s.nextID),
		Identity:    domain.Identity{ID: identityID, Email: email},
		AccessToken: fmt.Sprintf("token-%d", s.nextID),
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	s.current[c.clientID] = sess
	return sess
}

func (c *clientIdentity) SignIn(_ context.Context, email, password string) (*domain.IdentitySession, error) {
	s := c.store
	s.mu.Lock()
	cred, ok := s.creds[email]
	if !ok || cred.password != password {
		s.mu.Unlock()
		return nil, domain.ErrInvalidCredentials
	}
	sess := c.start(cred.id, email)
	s.mu.Unlock()

	s.emit(c.clientID, domain.IdentityEvent{Type: domain.IdentitySignedIn, Session: sess})
	return sess, nil
}

func (c *clientIdentity) SignUp(_ context.Context, email, password string) (*domain.IdentitySession, error) {
	s := c.store
	s.mu.Lock()
	if _, ok := s.creds[email]; ok {
		s.mu.Unlock()
		return nil, domain.ErrEmailTaken
	}
	id := fmt.Sprintf("00000000-0000-4000-8000-%012d", len(s.creds)+1)
	s.creds[email] = credential{id: id, password: password}
	sess := c.start(id, email)
	s.mu.Unlock()

	s.emit(c.clientID, domain.IdentityEvent{Type: domain.IdentitySignedIn, Session: sess})
	return sess, nil
}

func (c *clientIdentity) SignOut(_ context.Context) error {
	s := c.store
	s.mu.Lock()
	ended := s.current[c.clientID]
	delete(s.current, c.clientID)
	s.mu.Unlock()

	if ended != nil {
		s.emit(c.clientID, domain.IdentityEvent{Type: domain.IdentitySignedOut, Session: ended})
	}
	return nil
}

func (c *clientIdentity) CurrentSession(_ context.Context) (*domain.IdentitySession, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return c.store.current[c.clientID], nil
}

func (c *clientIdentity) OnChange(_ context.Context, fn func(domain.IdentityEvent)) (domain.Subscription, error) {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners[c.clientID] == nil {
		s.listeners[c.clientID] = make(map[int]func(domain.IdentityEvent))
	}
	s.nextID++
	id := s.nextID
	s.listeners[c.clientID][id] = fn
	return &subscription{close: func() {
		s.mu.Lock()
		delete(s.listeners[c.clientID], id)
		s.mu.Unlock()
	}}, nil
}

func (c *clientIdentity) DeleteIdentity(_ context.Context, identityID string) error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, cred := range s.creds {
		if cred.id == identityID {
			delete(s.creds, email)
			return nil
		}
	}
	return domain.ErrNotFound
}

type subscription struct {
	once  sync.Once
	close func()
}

func (s *subscription) Close() error {
	s.once.Do(s.close)
	return nil
}

// Profiles is an in-memory profile repository.
type Profiles struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	getErr   error
}

// NewProfiles returns a repository holding profiles.
func NewProfiles(profiles ...*domain.Profile) *Profiles {
	p := &Profiles{profiles: make(map[string]*domain.Profile)}
	for _, profile := range profiles {
		p.Put(profile)
	}
	return p
}

// Put stores a copy of profile.
func (p *Profiles) Put(profile *domain.Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := *profile
	p.profiles[profile.ID] = &cp
}

// FailGet makes GetByID fail with ErrUnavailable until called with false.
func (p *Profiles) FailGet(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.getErr = nil
	if fail {
		p.getErr = ErrUnavailable
	}
}

func (p *Profiles) Create(_ context.Context, profile *domain.Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.profiles[profile.ID]; ok {
		return domain.ErrEmailTaken
	}
	cp := *profile
	p.profiles[profile.ID] = &cp
	return nil
}

func (p *Profiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return nil, p.getErr
	}
	profile, ok := p.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *profile
	return &cp, nil
}

func (p *Profiles) UpdateApprovalStatus(_ context.Context, id string, status domain.ApprovalStatus, at time.Time) (*domain.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	profile, ok := p.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	profile.ApprovalStatus = status
	profile.UpdatedAt = at
	cp := *profile
	return &cp, nil
}

func (p *Profiles) ListByRoleAndStatus(_ context.Context, role domain.Role, status domain.ApprovalStatus) ([]*domain.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []*domain.Profile{}
	for _, profile := range p.profiles {
		if profile.Role == role && profile.ApprovalStatus == status {
			cp := *profile
			out = append(out, &cp)
		}
	}
	return out, nil
}
