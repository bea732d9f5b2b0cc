package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"campusevents/internal/domain"
	"campusevents/internal/metrics"
)

// IdentityProvider hands out the identity store view of one client.
type IdentityProvider interface {
	ForClient(clientID string) domain.IdentityStore
}

// Client is the live session of one browser client.
type Client struct {
	ID      string
	Manager *Manager
	Flash   *Flash

	lastAccess  time.Time
	unsubscribe func()
}

// RegistryConfig holds the idle eviction settings.
type RegistryConfig struct {
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

// Registry keeps one Manager per client and evicts clients that stay idle.
type Registry struct {
	identities IdentityProvider
	profiles   domain.ProfileRepository
	metrics    metrics.Recorder
	logger     *slog.Logger
	config     RegistryConfig

	mu       sync.Mutex
	clients  map[string]*Client
	signedIn map[string]struct{}

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRegistry creates a Registry and starts its background cleanup.
func NewRegistry(identities IdentityProvider, profiles domain.ProfileRepository, recorder metrics.Recorder, logger *slog.Logger, config RegistryConfig) *Registry {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 30 * time.Minute
	}
	r := &Registry{
		identities: identities,
		profiles:   profiles,
		metrics:    recorder,
		logger:     logger,
		config:     config,
		clients:    make(map[string]*Client),
		signedIn:   make(map[string]struct{}),
		stopCh:     make(chan struct{}),
	}

	go r.cleanupLoop()

	return r
}

// Get returns the client's session, creating and starting it on first use. A client whose
// previous resolution failed is initialized again.
func (r *Registry) Get(ctx context.Context, clientID string) (*Client, error) {
	r.mu.Lock()
	c, ok := r.clients[clientID]
	if ok {
		c.lastAccess = time.Now()
		r.mu.Unlock()
		if c.Manager.State().Resolving() {
			if err := c.Manager.Initialize(ctx); err != nil {
				r.logger.WarnContext(ctx, "session re-initialization failed", "client_id", clientID, "err", err)
			}
		}
		return c, nil
	}

	flash := &Flash{}
	c = &Client{
		ID:         clientID,
		Manager:    NewManager(r.identities.ForClient(clientID), r.profiles, flash, r.metrics, r.logger.With("client_id", clientID)),
		Flash:      flash,
		lastAccess: time.Now(),
	}
	c.unsubscribe = c.Manager.Store().Subscribe(r.observer(c))
	r.clients[clientID] = c
	count := len(r.clients)
	r.mu.Unlock()
	r.metrics.SetActiveClients(count)

	if err := c.Manager.Start(ctx); err != nil {
		var profileErr *domain.ProfileFetchError
		if !errors.As(err, &profileErr) {
			r.remove(clientID, c)
			return nil, err
		}
		r.logger.WarnContext(ctx, "session profile unresolved", "client_id", clientID, "err", err)
	}
	return c, nil
}

// observer keeps the signed-in gauge in step with the published state of c.
func (r *Registry) observer(c *Client) func(State) {
	return func(s State) {
		r.mu.Lock()
		if r.clients[c.ID] != c {
			r.mu.Unlock()
			return
		}
		if s.Profile != nil {
			r.signedIn[c.ID] = struct{}{}
		} else {
			delete(r.signedIn, c.ID)
		}
		n := len(r.signedIn)
		r.mu.Unlock()
		r.metrics.SetSignedInClients(n)
	}
}

// SignedIn returns the number of live clients with a resolved profile.
func (r *Registry) SignedIn() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.signedIn)
}

// Len returns the number of live clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Close stops the cleanup loop and closes every manager.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stopCh) })

	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]*Client)
	r.signedIn = make(map[string]struct{})
	r.mu.Unlock()

	for id, c := range clients {
		if err := c.close(); err != nil {
			r.logger.Error("failed to close session manager", "client_id", id, "err", err)
		}
	}
	r.metrics.SetActiveClients(0)
	r.metrics.SetSignedInClients(0)
}

func (r *Registry) remove(clientID string, c *Client) {
	r.mu.Lock()
	if r.clients[clientID] == c {
		delete(r.clients, clientID)
		delete(r.signedIn, clientID)
	}
	count, signedIn := len(r.clients), len(r.signedIn)
	r.mu.Unlock()
	r.metrics.SetActiveClients(count)
	r.metrics.SetSignedInClients(signedIn)
	_ = c.close()
}

func (c *Client) close() error {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	return c.Manager.Close()
}

func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanup(time.Now())
		case <-r.stopCh:
			return
		}
	}
}

// cleanup closes managers idle for longer than IdleTTL. The identity store keeps the
// session itself; a returning client is resolved again by Get.
func (r *Registry) cleanup(now time.Time) {
	var idle []*Client

	r.mu.Lock()
	for id, c := range r.clients {
		if now.Sub(c.lastAccess) > r.config.IdleTTL {
			delete(r.clients, id)
			delete(r.signedIn, id)
			idle = append(idle, c)
		}
	}
	count, signedIn := len(r.clients), len(r.signedIn)
	r.mu.Unlock()

	if len(idle) == 0 {
		return
	}
	r.metrics.SetActiveClients(count)
	r.metrics.SetSignedInClients(signedIn)
	for _, c := range idle {
		if err := c.close(); err != nil {
			r.logger.Warn("failed to close idle session manager", "client_id", c.ID, "err", err)
		}
	}
	r.logger.Debug("evicted idle clients", "count", len(idle))
}
