package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"campusevents/internal/domain"
)

type profileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(db *sql.DB) domain.ProfileRepository {
	return &profileRepository{DB: db}
}

const profileColumns = `id, email, name, role, approval_status, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*domain.Profile, error) {
	p := &domain.Profile{}
	var role, status string
	if err := row.Scan(&p.ID, &p.Email, &p.Name, &role, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Role = domain.Role(role)
	p.ApprovalStatus = domain.ApprovalStatus(status)
	return p, nil
}

func (r *profileRepository) Create(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (id, email, name, role, approval_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query, p.ID, p.Email, p.Name, string(p.Role), string(p.ApprovalStatus), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		switch pqCode(err) {
		case uniqueViolation:
			return domain.ErrEmailTaken
		case foreignKeyViolation:
			return &domain.ReferenceError{Kind: "identity", ID: p.ID}
		}
		return err
	}
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *profileRepository) UpdateApprovalStatus(ctx context.Context, id string, status domain.ApprovalStatus, at time.Time) (*domain.Profile, error) {
	query := `
		UPDATE profiles SET approval_status = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + profileColumns
	p, err := scanProfile(r.DB.QueryRowContext(ctx, query, string(status), at, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *profileRepository) ListByRoleAndStatus(ctx context.Context, role domain.Role, status domain.ApprovalStatus) ([]*domain.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE role = $1 AND approval_status = $2
		ORDER BY created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, string(role), string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]*domain.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
