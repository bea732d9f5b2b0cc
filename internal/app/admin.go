package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusevents/internal/domain"
)

// AdminAccount is the input of the create-admin command.
type AdminAccount struct {
	Email    string
	Password string
	Name     string
}

// adminFromEnv reads ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_NAME through getenv.
func adminFromEnv(getenv func(string) string) AdminAccount {
	return AdminAccount{
		Email:    getenv("ADMIN_EMAIL"),
		Password: getenv("ADMIN_PASSWORD"),
		Name:     getenv("ADMIN_NAME"),
	}
}

// CreateAdmin stores credentials and an admin profile for acc. If the profile cannot be
// stored the credentials are removed again.
func CreateAdmin(ctx context.Context, creds domain.CredentialRepository, profiles domain.ProfileRepository, hasher domain.PasswordHasher, acc AdminAccount) (*domain.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(acc.Email))
	name := strings.TrimSpace(acc.Name)
	if name == "" {
		name = "Administrator"
	}
	verr := &domain.ValidationError{}
	if email == "" {
		verr.Add("ADMIN_EMAIL", "is required")
	}
	if len(acc.Password) < 8 {
		verr.Add("ADMIN_PASSWORD", "must be at least 8 characters")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	salt, err := hasher.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	hash, err := hasher.Hash(salt, acc.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now()
	cred := &domain.Credential{Email: email, PasswordHash: hash, Salt: salt, CreatedAt: now}
	if err := creds.Create(ctx, cred); err != nil {
		return nil, fmt.Errorf("create credentials: %w", err)
	}

	profile := domain.NewProfile(cred.ID, name, domain.RoleAdmin, now)
	profile.Email = email
	if err := profiles.Create(ctx, profile); err != nil {
		if delErr := creds.Delete(ctx, cred.ID); delErr != nil {
			err = errors.Join(err, fmt.Errorf("remove credentials: %w", delErr))
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}
