package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"campusevents/internal/domain"
)

// WriteServiceError maps a service error to its HTTP status and writes the error envelope.
// Unexpected errors are logged and reported as 503 without their details.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		validationErr   *domain.ValidationError
		approvalErr     *domain.ApprovalError
		registrationErr *domain.RegistrationError
		referenceErr    *domain.ReferenceError
		profileErr      *domain.ProfileFetchError
	)
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, APIResponse{Error: &APIError{
			Code:    ErrCodeValidation,
			Message: "Please correct the highlighted fields.",
			Fields:  validationErr.Fields,
		}})
	case errors.Is(err, domain.ErrInvalidCredentials):
		WriteJSONError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid email or password.")
	case errors.As(err, &approvalErr):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, approvalErr.Reason)
	case errors.As(err, &registrationErr):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, registrationErr.Reason)
	case errors.Is(err, domain.ErrEmailTaken):
		WriteJSONError(w, http.StatusConflict, ErrCodeEmailTaken, "An account with this email already exists.")
	case errors.As(err, &referenceErr):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, referenceErr.Kind+" not found")
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrEventNotApproved), errors.Is(err, domain.ErrAlreadyRegistered):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.As(err, &profileErr):
		logger.WarnContext(r.Context(), "profile unavailable", "path", r.URL.Path, "identity_id", profileErr.IdentityID, "err", err)
		WriteJSONError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Your profile could not be loaded. Please try again.")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "The service is temporarily unavailable. Please try again.")
	}
}
