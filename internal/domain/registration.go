package domain

import (
	"context"
	"time"
)

// Registration is a student's claim on an approved event. Unique on (EventID, StudentID).
// swagger:model Registration
type Registration struct {
	EventID   string    `json:"event_id"`
	StudentID string    `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRegistration creates a new Registration.
func NewRegistration(eventID, studentID string, createdAt time.Time) *Registration {
	return &Registration{
		EventID:   eventID,
		StudentID: studentID,
		CreatedAt: createdAt,
	}
}

// RegistrationRepository defines storage operations for registrations.
type RegistrationRepository interface {
	// Create returns ErrDuplicate when the (event, student) pair already exists.
	Create(ctx context.Context, reg *Registration) error
	// Find returns ErrNotFound when no registration matches.
	Find(ctx context.Context, eventID, studentID string) (*Registration, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, eventID, studentID string) (bool, error)
	ListByStudentID(ctx context.Context, studentID string) ([]*Registration, error)
}

// RegistrationWithEvent bundles a registration with its related event.
type RegistrationWithEvent struct {
	Registration *Registration `json:"registration"`
	Event        *Event        `json:"event"`
}

// RegistrationService defines student registration operations.
type RegistrationService interface {
	Register(ctx context.Context, eventID, studentID string) (*Registration, error)
	Cancel(ctx context.Context, eventID, studentID string) error
	IsRegistered(ctx context.Context, eventID, studentID string) (bool, error)
	ListForStudent(ctx context.Context, studentID string) ([]*RegistrationWithEvent, error)
}

// ApprovalService defines the admin organizer-approval workflow.
type ApprovalService interface {
	ListPendingOrganizers(ctx context.Context) ([]*Profile, error)
	DecideOrganizer(ctx context.Context, profileID string, status ApprovalStatus, adminID string) (*Profile, error)
}
