package postgres

import (
	"context"
	"database/sql"
	"errors"

	"campusevents/internal/domain"
)

type registrationRepository struct {
	DB *sql.DB
}

func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{
		DB: db,
	}
}

// Create relies on the (event_id, student_id) unique index to reject a second row.
func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	query := `
		INSERT INTO event_registrations (event_id, student_id, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.DB.ExecContext(ctx, query, reg.EventID, reg.StudentID, reg.CreatedAt)
	if err != nil {
		switch pqCode(err) {
		case uniqueViolation:
			return domain.ErrDuplicate
		case foreignKeyViolation:
			return &domain.ReferenceError{Kind: "event", ID: reg.EventID}
		}
		return err
	}
	return nil
}

func (r *registrationRepository) Find(ctx context.Context, eventID, studentID string) (*domain.Registration, error) {
	query := `
		SELECT event_id, student_id, created_at
		FROM event_registrations
		WHERE event_id = $1 AND student_id = $2
	`
	reg := &domain.Registration{}
	err := r.DB.QueryRowContext(ctx, query, eventID, studentID).
		Scan(&reg.EventID, &reg.StudentID, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) Delete(ctx context.Context, eventID, studentID string) (bool, error) {
	query := `DELETE FROM event_registrations WHERE event_id = $1 AND student_id = $2`
	result, err := r.DB.ExecContext(ctx, query, eventID, studentID)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *registrationRepository) ListByStudentID(ctx context.Context, studentID string) ([]*domain.Registration, error) {
	query := `
		SELECT event_id, student_id, created_at
		FROM event_registrations
		WHERE student_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []*domain.Registration
	for rows.Next() {
		reg := &domain.Registration{}
		if err := rows.Scan(&reg.EventID, &reg.StudentID, &reg.CreatedAt); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	return regs, nil
}
