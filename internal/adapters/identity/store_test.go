package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"campusevents/internal/adapters/auth"
	"campusevents/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type memCredentials struct {
	mu      sync.Mutex
	byEmail map[string]*domain.Credential
	getErr  error
}

func newMemCredentials() *memCredentials {
	return &memCredentials{byEmail: make(map[string]*domain.Credential)}
}

func (m *memCredentials) Create(_ context.Context, c *domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[c.Email]; ok {
		return domain.ErrEmailTaken
	}
	c.ID = uuid.NewString()
	cp := *c
	m.byEmail[c.Email] = &cp
	return nil
}

func (m *memCredentials) GetByEmail(_ context.Context, email string) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	c, ok := m.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (m *memCredentials) GetByID(_ context.Context, id string) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byEmail {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCredentials) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, c := range m.byEmail {
		if c.ID == id {
			delete(m.byEmail, email)
			return nil
		}
	}
	return domain.ErrNotFound
}

func setup(t *testing.T) (*Store, *memCredentials, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	creds := newMemCredentials()
	store := NewStore(rdb, creds, auth.NewBcryptHasher(bcrypt.MinCost), auth.NewJWT("secret"), time.Hour, testLogger)
	return store, creds, mr
}

type eventSink struct {
	ch chan domain.IdentityEvent
}

func subscribe(t *testing.T, s domain.IdentityStore) (*eventSink, domain.Subscription) {
	t.Helper()
	sink := &eventSink{ch: make(chan domain.IdentityEvent, 16)}
	sub, err := s.OnChange(context.Background(), func(ev domain.IdentityEvent) { sink.ch <- ev })
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })
	return sink, sub
}

func (s *eventSink) next(t *testing.T) domain.IdentityEvent {
	t.Helper()
	select {
	case ev := <-s.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no identity event received")
		return domain.IdentityEvent{}
	}
}

func TestStore_SignUpSignInSignOut(t *testing.T) {
	store, _, _ := setup(t)
	ctx := context.Background()
	client := store.ForClient("client-1")
	sink, _ := subscribe(t, client)

	signedUp, err := client.SignUp(ctx, " Jane@X.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", signedUp.Identity.Email)
	assert.NotEmpty(t, signedUp.AccessToken)

	ev := sink.next(t)
	assert.Equal(t, domain.IdentitySignedIn, ev.Type)
	assert.Equal(t, signedUp.ID, ev.Session.ID)

	require.NoError(t, client.SignOut(ctx))
	ev = sink.next(t)
	assert.Equal(t, domain.IdentitySignedOut, ev.Type)
	assert.Equal(t, signedUp.ID, ev.Session.ID)
	assert.Equal(t, signedUp.Identity.ID, ev.Session.Identity.ID)

	cur, err := client.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)

	signedIn, err := client.SignIn(ctx, "jane@x.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, signedUp.Identity.ID, signedIn.Identity.ID)
	assert.NotEqual(t, signedUp.ID, signedIn.ID)

	cur, err = client.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, signedIn.ID, cur.ID)

	claims, err := auth.NewJWT("secret").Verify(cur.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, signedIn.ID, claims.SessionID)
}

func TestStore_SignIn_InvalidCredentials(t *testing.T) {
	store, _, _ := setup(t)
	ctx := context.Background()
	client := store.ForClient("client-1")

	_, err := client.SignIn(ctx, "nobody@x.com", "password123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = client.SignUp(ctx, "jane@x.com", "password123")
	require.NoError(t, err)
	require.NoError(t, client.SignOut(ctx))

	_, err = client.SignIn(ctx, "jane@x.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	cur, err := client.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestStore_SignIn_BackendError(t *testing.T) {
	store, creds, _ := setup(t)
	creds.getErr = errors.New("connection refused")

	_, err := store.ForClient("client-1").SignIn(context.Background(), "jane@x.com", "password123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestStore_SignUp_EmailTaken(t *testing.T) {
	store, _, _ := setup(t)
	ctx := context.Background()

	_, err := store.ForClient("a").SignUp(ctx, "jane@x.com", "password123")
	require.NoError(t, err)

	_, err = store.ForClient("b").SignUp(ctx, "JANE@x.com", "password456")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestStore_SignOut_WithoutSessionIsNoop(t *testing.T) {
	store, _, _ := setup(t)
	client := store.ForClient("client-1")
	sink, _ := subscribe(t, client)

	require.NoError(t, client.SignOut(context.Background()))

	select {
	case ev := <-sink.ch:
		t.Fatalf("unexpected event %v", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStore_ClientsAreIsolated(t *testing.T) {
	store, _, _ := setup(t)
	ctx := context.Background()
	a := store.ForClient("a")
	b := store.ForClient("b")
	sinkB, _ := subscribe(t, b)

	_, err := a.SignUp(ctx, "jane@x.com", "password123")
	require.NoError(t, err)

	cur, err := b.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)

	select {
	case ev := <-sinkB.ch:
		t.Fatalf("client b received %v for client a", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStore_SignInReplacesPreviousSession(t *testing.T) {
	store, _, _ := setup(t)
	ctx := context.Background()
	client := store.ForClient("client-1")

	first, err := client.SignUp(ctx, "jane@x.com", "password123")
	require.NoError(t, err)
	sink, _ := subscribe(t, client)

	second, err := client.SignIn(ctx, "jane@x.com", "password123")
	require.NoError(t, err)

	ev := sink.next(t)
	assert.Equal(t, domain.IdentitySignedOut, ev.Type)
	assert.Equal(t, first.ID, ev.Session.ID)
	ev = sink.next(t)
	assert.Equal(t, domain.IdentitySignedIn, ev.Type)
	assert.Equal(t, second.ID, ev.Session.ID)
}

func TestStore_SessionExpires(t *testing.T) {
	store, _, mr := setup(t)
	ctx := context.Background()
	client := store.ForClient("client-1")

	_, err := client.SignUp(ctx, "jane@x.com", "password123")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	cur, err := client.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestStore_DeleteIdentity(t *testing.T) {
	store, creds, _ := setup(t)
	ctx := context.Background()
	client := store.ForClient("client-1")

	sess, err := client.SignUp(ctx, "jane@x.com", "password123")
	require.NoError(t, err)

	require.NoError(t, client.DeleteIdentity(ctx, sess.Identity.ID))
	_, err = creds.GetByID(ctx, sess.Identity.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, client.DeleteIdentity(ctx, sess.Identity.ID), domain.ErrNotFound)
}

func TestStore_SubscriptionClose(t *testing.T) {
	store, _, _ := setup(t)
	client := store.ForClient("client-1")
	_, sub := subscribe(t, client)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	select {
	case <-sub.(*subscription).done:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery goroutine did not stop")
	}
}
