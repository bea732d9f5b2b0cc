package middleware

import (
	"context"

	"campusevents/internal/domain"
	"campusevents/internal/session"
)

type contextKey string

const (
	clientIDKey      contextKey = "clientID"
	sessionClientKey contextKey = "sessionClient"
	profileKey       contextKey = "profile"
)

// SetClientID returns a context carrying the browser client ID.
func SetClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// ClientIDFromContext returns the browser client ID set by ClientCookie.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey).(string)
	return id, ok && id != ""
}

// SetSessionClient returns a context carrying the client's live session.
func SetSessionClient(ctx context.Context, c *session.Client) context.Context {
	return context.WithValue(ctx, sessionClientKey, c)
}

// SessionClientFromContext returns the live session attached by Session.
func SessionClientFromContext(ctx context.Context) (*session.Client, bool) {
	c, ok := ctx.Value(sessionClientKey).(*session.Client)
	return c, ok && c != nil
}

// SetProfile returns a context carrying the authorized profile.
func SetProfile(ctx context.Context, p *domain.Profile) context.Context {
	return context.WithValue(ctx, profileKey, p)
}

// ProfileFromContext returns the profile authorized by RequireRole.
func ProfileFromContext(ctx context.Context) (*domain.Profile, bool) {
	p, ok := ctx.Value(profileKey).(*domain.Profile)
	return p, ok && p != nil
}
