package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"campusevents/internal/domain"
)

const (
	sessionPrefix = "identity:session:"
	clientPrefix  = "identity:client:"
	eventsPrefix  = "identity:events:"

	defaultSessionTTL = 24 * time.Hour
)

// Store is the identity authority shared by every client. Credentials live in the
// credential repository, live sessions in Redis, and change notifications are published on
// a per-client Redis channel.
type Store struct {
	rdb    *redis.Client
	creds  domain.CredentialRepository
	hasher domain.PasswordHasher
	tokens domain.TokenIssuer
	ttl    time.Duration
	logger *slog.Logger
}

// NewStore creates a Store. A non-positive ttl falls back to 24h.
func NewStore(rdb *redis.Client, creds domain.CredentialRepository, hasher domain.PasswordHasher, tokens domain.TokenIssuer, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Store{rdb: rdb, creds: creds, hasher: hasher, tokens: tokens, ttl: ttl, logger: logger}
}

// ForClient returns the store as seen by one client.
func (s *Store) ForClient(clientID string) domain.IdentityStore {
	return &clientStore{Store: s, clientID: clientID}
}

type clientStore struct {
	*Store
	clientID string
}

func sessionKey(id string) string { return sessionPrefix + id }

func (c *clientStore) clientKey() string { return clientPrefix + c.clientID }
func (c *clientStore) channel() string   { return eventsPrefix + c.clientID }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (c *clientStore) SignIn(ctx context.Context, email, password string) (*domain.IdentitySession, error) {
	cred, err := c.creds.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("identity: load credentials: %w", err)
	}
	if err := c.hasher.Compare(cred.PasswordHash, cred.Salt, password); err != nil {
		return nil, err
	}
	return c.startSession(ctx, domain.Identity{ID: cred.ID, Email: cred.Email})
}

func (c *clientStore) SignUp(ctx context.Context, email, password string) (*domain.IdentitySession, error) {
	salt, err := c.hasher.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("identity: generate salt: %w", err)
	}
	hash, err := c.hasher.Hash(salt, password)
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}
	cred := &domain.Credential{
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    time.Now(),
	}
	if err := c.creds.Create(ctx, cred); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("identity: create credentials: %w", err)
	}
	return c.startSession(ctx, domain.Identity{ID: cred.ID, Email: cred.Email})
}

// startSession stores a new session as the client's current one, ending any previous
// session first.
func (c *clientStore) startSession(ctx context.Context, ident domain.Identity) (*domain.IdentitySession, error) {
	if err := c.SignOut(ctx); err != nil {
		return nil, err
	}

	sess := &domain.IdentitySession{
		ID:        uuid.NewString(),
		Identity:  ident,
		ExpiresAt: time.Now().Add(c.ttl),
	}
	token, err := c.tokens.Issue(ident.ID, ident.Email, sess.ID, c.ttl)
	if err != nil {
		return nil, fmt.Errorf("identity: issue token: %w", err)
	}
	sess.AccessToken = token

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("identity: marshal session: %w", err)
	}
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sess.ID), data, c.ttl)
		pipe.Set(ctx, c.clientKey(), sess.ID, c.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("identity: store session: %w", err)
	}

	c.publish(ctx, domain.IdentityEvent{Type: domain.IdentitySignedIn, Session: sess})
	return sess, nil
}

func (c *clientStore) SignOut(ctx context.Context) error {
	sid, err := c.rdb.GetDel(ctx, c.clientKey()).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("identity: end session: %w", err)
	}

	ended, err := c.loadSession(ctx, sid)
	if err != nil {
		return err
	}
	if ended == nil {
		ended = &domain.IdentitySession{ID: sid}
	}
	if err := c.rdb.Del(ctx, sessionKey(sid)).Err(); err != nil {
		return fmt.Errorf("identity: end session: %w", err)
	}

	c.publish(ctx, domain.IdentityEvent{Type: domain.IdentitySignedOut, Session: ended})
	return nil
}

func (c *clientStore) CurrentSession(ctx context.Context) (*domain.IdentitySession, error) {
	sid, err := c.rdb.Get(ctx, c.clientKey()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("identity: current session: %w", err)
	}
	sess, err := c.loadSession(ctx, sid)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	return sess, nil
}

func (c *clientStore) loadSession(ctx context.Context, sid string) (*domain.IdentitySession, error) {
	val, err := c.rdb.Get(ctx, sessionKey(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("identity: load session: %w", err)
	}
	var sess domain.IdentitySession
	if err := json.Unmarshal(val, &sess); err != nil {
		return nil, fmt.Errorf("identity: unmarshal session: %w", err)
	}
	return &sess, nil
}

func (c *clientStore) DeleteIdentity(ctx context.Context, identityID string) error {
	if err := c.creds.Delete(ctx, identityID); err != nil {
		return fmt.Errorf("identity: delete credentials: %w", err)
	}
	return nil
}

// publish sends ev to the client's channel. The session state is already stored, so a
// failed publish is only logged.
func (c *clientStore) publish(ctx context.Context, ev domain.IdentityEvent) {
	data, err := json.Marshal(ev)
	if err == nil {
		err = c.rdb.Publish(ctx, c.channel(), data).Err()
	}
	if err != nil {
		c.logger.WarnContext(ctx, "identity event not published", "client_id", c.clientID, "type", ev.Type, "err", err)
	}
}

func (c *clientStore) OnChange(ctx context.Context, fn func(domain.IdentityEvent)) (domain.Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, c.channel())
	// Wait for the subscription to be confirmed so no later publish is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("identity: subscribe: %w", err)
	}

	sub := &subscription{pubsub: pubsub, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		for msg := range pubsub.Channel() {
			var ev domain.IdentityEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				c.logger.Warn("malformed identity event", "client_id", c.clientID, "err", err)
				continue
			}
			fn(ev)
		}
	}()
	return sub, nil
}

type subscription struct {
	pubsub *redis.PubSub
	once   sync.Once
	err    error
	done   chan struct{}
}

// Close stops delivery. It does not wait for an in-progress callback.
func (s *subscription) Close() error {
	s.once.Do(func() { s.err = s.pubsub.Close() })
	return s.err
}
