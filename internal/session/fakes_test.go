package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"campusevents/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeCredential struct {
	id       string
	password string
}

// fakeIdentityStore is an in-memory IdentityStore for one client. Notifications are
// delivered synchronously on the calling goroutine, after the store's own lock is released.
type fakeIdentityStore struct {
	mu        sync.Mutex
	creds     map[string]fakeCredential
	current   *domain.IdentitySession
	listeners map[int]func(domain.IdentityEvent)
	nextID    int
	calls     map[string]int

	signInErr   error // if set, SignIn returns this error
	signUpErr   error
	signOutErr  error
	currentErr  error
	deleteErr   error
	onChangeErr error
}

func newFakeIdentityStore() *fakeIdentityStore {
	return &fakeIdentityStore{
		creds:     make(map[string]fakeCredential),
		listeners: make(map[int]func(domain.IdentityEvent)),
		calls:     make(map[string]int),
	}
}

func (f *fakeIdentityStore) newSession(id, email string) *domain.IdentitySession {
	f.nextID++
	return &domain.IdentitySession{
		ID:          fmt.Sprintf("sess-%d", f.nextID),
		Identity:    domain.Identity{ID: id, Email: email},
		AccessToken: "token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func (f *fakeIdentityStore) SignIn(ctx context.Context, email, password string) (*domain.IdentitySession, error) {
	f.mu.Lock()
	f.calls["SignIn"]++
	if f.signInErr != nil {
		f.mu.Unlock()
		return nil, f.signInErr
	}
	cred, ok := f.creds[email]
	if !ok || cred.password != password {
		f.mu.Unlock()
		return nil, domain.ErrInvalidCredentials
	}
	sess := f.newSession(cred.id, email)
	f.current = sess
	f.mu.Unlock()

	f.emit(domain.IdentityEvent{Type: domain.IdentitySignedIn, Session: sess})
	return sess, nil
}

func (f *fakeIdentityStore) SignUp(ctx context.Context, email, password string) (*domain.IdentitySession, error) {
	f.mu.Lock()
	f.calls["SignUp"]++
	if f.signUpErr != nil {
		f.mu.Unlock()
		return nil, f.signUpErr
	}
	if _, ok := f.creds[email]; ok {
		f.mu.Unlock()
		return nil, domain.ErrEmailTaken
	}
	id := fmt.Sprintf("id-%d", len(f.creds)+1)
	f.creds[email] = fakeCredential{id: id, password: password}
	sess := f.newSession(id, email)
	f.current = sess
	f.mu.Unlock()

	f.emit(domain.IdentityEvent{Type: domain.IdentitySignedIn, Session: sess})
	return sess, nil
}

func (f *fakeIdentityStore) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.calls["SignOut"]++
	if f.signOutErr != nil {
		f.mu.Unlock()
		return f.signOutErr
	}
	ended := f.current
	f.current = nil
	f.mu.Unlock()

	if ended != nil {
		f.emit(domain.IdentityEvent{Type: domain.IdentitySignedOut, Session: ended})
	}
	return nil
}

func (f *fakeIdentityStore) CurrentSession(ctx context.Context) (*domain.IdentitySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CurrentSession"]++
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.current, nil
}

func (f *fakeIdentityStore) OnChange(ctx context.Context, fn func(domain.IdentityEvent)) (domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onChangeErr != nil {
		return nil, f.onChangeErr
	}
	id := len(f.listeners) + 1
	for f.listeners[id] != nil {
		id++
	}
	f.listeners[id] = fn
	return &fakeSubscription{store: f, id: id}, nil
}

func (f *fakeIdentityStore) DeleteIdentity(ctx context.Context, identityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteIdentity"]++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for email, cred := range f.creds {
		if cred.id == identityID {
			delete(f.creds, email)
			return nil
		}
	}
	return domain.ErrNotFound
}

// emit delivers ev to every listener, as another tab or replica would.
func (f *fakeIdentityStore) emit(ev domain.IdentityEvent) {
	f.mu.Lock()
	fns := make([]func(domain.IdentityEvent), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// setCurrent replaces the live session without notifying.
func (f *fakeIdentityStore) setCurrent(sess *domain.IdentitySession) {
	f.mu.Lock()
	f.current = sess
	f.mu.Unlock()
}

func (f *fakeIdentityStore) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeIdentityStore) hasCredential(email string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.creds[email]
	return ok
}

func (f *fakeIdentityStore) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

type fakeSubscription struct {
	store *fakeIdentityStore
	id    int
}

func (s *fakeSubscription) Close() error {
	s.store.mu.Lock()
	delete(s.store.listeners, s.id)
	s.store.mu.Unlock()
	return nil
}

// fakeProfileRepo is an in-memory ProfileRepository for tests.
type fakeProfileRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Profile
	createErr error
	getErr    error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{byID: make(map[string]*domain.Profile)}
}

func (f *fakeProfileRepo) Create(ctx context.Context, p *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakeProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.ApprovalStatus = status
	p.UpdatedAt = at
	cp := *p
	return &cp, nil
}

func (f *fakeProfileRepo) ListByRoleAndStatus(ctx context.Context, role domain.Role, status domain.ApprovalStatus) ([]*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Profile
	for _, p := range f.byID {
		if p.Role == role && p.ApprovalStatus == status {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeProfileRepo) put(p *domain.Profile) {
	f.mu.Lock()
	cp := *p
	f.byID[p.ID] = &cp
	f.mu.Unlock()
}

var errBackend = errors.New("backend unavailable")
