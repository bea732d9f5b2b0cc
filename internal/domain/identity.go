package domain

import (
	"context"
	"time"
)

// Identity is the subject of an authenticated external session.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// IdentitySession is the session handle issued by the identity store.
type IdentitySession struct {
	ID          string    `json:"id"`
	Identity    Identity  `json:"identity"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IdentityEventType is the kind of a pushed identity-store notification.
type IdentityEventType string

const (
	IdentitySignedIn  IdentityEventType = "SIGNED_IN"
	IdentitySignedOut IdentityEventType = "SIGNED_OUT"
)

// IdentityEvent is a notification pushed by the identity store. For SIGNED_OUT, Session is
// the session that ended.
type IdentityEvent struct {
	Type    IdentityEventType `json:"type"`
	Session *IdentitySession  `json:"session,omitempty"`
}

// Subscription is a cancellable registration on the identity store's change channel.
type Subscription interface {
	Close() error
}

// IdentityStore is the external credential and session authority as seen by one client.
type IdentityStore interface {
	// SignIn returns ErrInvalidCredentials when the email/password pair does not match.
	SignIn(ctx context.Context, email, password string) (*IdentitySession, error)
	// SignUp creates credentials and a session. Returns ErrEmailTaken when the email is in use.
	SignUp(ctx context.Context, email, password string) (*IdentitySession, error)
	// SignOut terminates the client's current session. It is a no-op without one.
	SignOut(ctx context.Context) error
	// CurrentSession returns the client's live session, or nil when there is none.
	CurrentSession(ctx context.Context) (*IdentitySession, error)
	// OnChange delivers SIGNED_IN and SIGNED_OUT notifications for this client, in order and
	// from a single goroutine, until the subscription is closed. ctx bounds the setup only.
	OnChange(ctx context.Context, fn func(IdentityEvent)) (Subscription, error)
	// DeleteIdentity removes credentials created by SignUp. Used only to compensate a
	// registration whose profile could not be stored.
	DeleteIdentity(ctx context.Context, identityID string) error
}

// Credential is the stored secret of an identity.
type Credential struct {
	ID           string
	Email        string
	PasswordHash string
	Salt         string
	CreatedAt    time.Time
}

// CredentialRepository stores identity credentials.
type CredentialRepository interface {
	// Create returns ErrEmailTaken when the email already has credentials.
	Create(ctx context.Context, c *Credential) error
	// GetByEmail returns ErrNotFound when no credentials exist for email.
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	GetByID(ctx context.Context, id string) (*Credential, error)
	Delete(ctx context.Context, id string) error
}
