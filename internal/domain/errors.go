package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across services and repositories.
var (
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials is the AuthError: the identity store rejected the email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned by the identity store when signing up with an email that already has credentials.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidTransition is returned when a decision is applied to an event that is no longer pending.
	ErrInvalidTransition = errors.New("event has already been decided")

	// ErrAlreadyRegistered is returned when the student already holds a registration for the event.
	ErrAlreadyRegistered = errors.New("already registered for this event")

	// ErrDuplicate is returned when the store's uniqueness constraint rejects a registration
	// that passed the existence check. It matches ErrAlreadyRegistered under errors.Is.
	ErrDuplicate = fmt.Errorf("duplicate registration: %w", ErrAlreadyRegistered)

	// ErrEventNotApproved is returned when registering for an event whose status is not approved.
	ErrEventNotApproved = errors.New("event is not open for registration")

	// ErrStatusConflict is returned by repositories when a compare-and-set status update finds
	// the row in a different state than expected.
	ErrStatusConflict = errors.New("status conflict")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned for bad user input. It is recoverable by correcting the listed fields.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns e when at least one field error was recorded, nil otherwise.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ApprovalError is returned when the role approval gate denies a sign-in.
type ApprovalError struct {
	Reason string
}

func (e *ApprovalError) Error() string {
	return "sign-in denied: " + e.Reason
}

// RegistrationError is returned when a self-service registration request is not allowed.
type RegistrationError struct {
	Reason string
}

func (e *RegistrationError) Error() string {
	return "registration rejected: " + e.Reason
}

// ReferenceError is returned when an operation names an entity that does not exist.
type ReferenceError struct {
	Kind string
	ID   string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
}

// Is lets callers match any ReferenceError against ErrNotFound.
func (e *ReferenceError) Is(target error) bool {
	return target == ErrNotFound
}

// ProfileFetchError is returned when the profile of an authenticated identity could not be loaded.
type ProfileFetchError struct {
	IdentityID string
	Err        error
}

func (e *ProfileFetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("profile for identity %q not found", e.IdentityID)
	}
	return fmt.Sprintf("fetch profile for identity %q: %v", e.IdentityID, e.Err)
}

func (e *ProfileFetchError) Unwrap() error { return e.Err }

// ServiceError wraps an unavailable or failing collaborator. No retry is attempted.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NewServiceError wraps err as a ServiceError for op. Errors that already belong to the
// domain taxonomy are returned unchanged.
func NewServiceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &ServiceError{Op: op, Err: err}
}

// IsDomainError reports whether err is one of the user-facing error kinds rather than an
// infrastructure failure.
func IsDomainError(err error) bool {
	var (
		validationErr   *ValidationError
		approvalErr     *ApprovalError
		registrationErr *RegistrationError
		referenceErr    *ReferenceError
		profileErr      *ProfileFetchError
		serviceErr      *ServiceError
	)
	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &approvalErr),
		errors.As(err, &registrationErr),
		errors.As(err, &referenceErr),
		errors.As(err, &profileErr),
		errors.As(err, &serviceErr):
		return true
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrEventNotApproved):
		return true
	}
	return false
}
