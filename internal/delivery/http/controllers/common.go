package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"
)

// pathID returns the path value name when it is a UUID. Anything else cannot name a stored
// entity, so it is answered with 404 before reaching a service.
func pathID(w http.ResponseWriter, r *http.Request, name, kind string) (string, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, kind+" not found")
		return "", false
	}
	return id.String(), true
}

// pathRole returns the {role} path value, answering 404 for unknown roles.
func pathRole(w http.ResponseWriter, r *http.Request) (domain.Role, bool) {
	role, ok := domain.ParseRole(r.PathValue("role"))
	if !ok {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "page not found")
		return "", false
	}
	return role, true
}

// currentProfile returns the profile authorized by middleware.RequireRole.
func currentProfile(w http.ResponseWriter, r *http.Request) (*domain.Profile, bool) {
	p, ok := middleware.ProfileFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return nil, false
	}
	return p, true
}
