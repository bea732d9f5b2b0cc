package domain

import (
	"context"
	"time"
)

// Role is the application role a profile operates as.
type Role string

const (
	RoleStudent   Role = "student"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Roles lists every role in display order.
var Roles = []Role{RoleStudent, RoleOrganizer, RoleAdmin}

// ParseRole returns the Role for s and whether it is known.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleStudent, RoleOrganizer, RoleAdmin:
		return r, true
	}
	return "", false
}

// ApprovalStatus is the organizer approval state. Students and admins carry ApprovalNone.
type ApprovalStatus string

const (
	ApprovalNone     ApprovalStatus = "none"
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Profile is the role and approval record of an identity. ID equals the identity ID.
// swagger:model Profile
type Profile struct {
	ID             string         `json:"id"`
	Email          string         `json:"email"`
	Name           string         `json:"name"`
	Role           Role           `json:"role"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewProfile returns a Profile for a freshly created identity. Organizers always start
// pending; every other role carries no approval state.
func NewProfile(identityID, name string, role Role, now time.Time) *Profile {
	status := ApprovalNone
	if role == RoleOrganizer {
		status = ApprovalPending
	}
	return &Profile{
		ID:             identityID,
		Name:           name,
		Role:           role,
		ApprovalStatus: status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ProfileRepository defines the interface for profile storage.
type ProfileRepository interface {
	Create(ctx context.Context, p *Profile) error
	// GetByID returns ErrNotFound when no profile exists for id.
	GetByID(ctx context.Context, id string) (*Profile, error)
	UpdateApprovalStatus(ctx context.Context, id string, status ApprovalStatus, at time.Time) (*Profile, error)
	ListByRoleAndStatus(ctx context.Context, role Role, status ApprovalStatus) ([]*Profile, error)
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues access tokens for an identity session.
type TokenIssuer interface {
	Issue(identityID, email, sessionID string, expiry time.Duration) (string, error)
}

// TokenClaims are the verified contents of an access token.
type TokenClaims struct {
	IdentityID string
	Email      string
	SessionID  string
	ExpiresAt  time.Time
}

// TokenVerifier verifies an access token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*TokenClaims, error)
}
