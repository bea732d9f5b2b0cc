package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	h "campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
	"campusevents/internal/session"
)

// RequireRole returns a wrapper that admits only clients whose session passes the approval
// gate for role, and sets the authorized profile in the request context. It must run inside
// Session.
//
// A request that also carries a Bearer access token must present a valid token issued to
// the session's identity.
func RequireRole(role domain.Role, verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			c, ok := SessionClientFromContext(r.Context())
			if !ok {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
				return
			}
			state := c.Manager.State()
			switch session.Authorize(state, role).Outcome {
			case session.Hold:
				w.Header().Set("Retry-After", "1")
				h.WriteJSONError(w, http.StatusServiceUnavailable, h.ErrCodeSessionResolving, "session is still resolving")
				return
			case session.Allow:
			default:
				if state.Profile == nil {
					h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "sign in required")
					return
				}
				h.WriteJSONError(w, http.StatusForbidden, h.ErrCodeForbidden, "forbidden")
				return
			}

			if auth := r.Header.Get("Authorization"); auth != "" {
				const prefix = "Bearer "
				if !strings.HasPrefix(auth, prefix) {
					h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid authorization format")
					return
				}
				claims, err := verifier.Verify(strings.TrimSpace(auth[len(prefix):]))
				if err != nil || claims.IdentityID != state.Identity.ID {
					logger.WarnContext(r.Context(), "access token rejected", "client_id", c.ID, "err", err)
					h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
					return
				}
			}

			next(w, r.WithContext(SetProfile(r.Context(), state.Profile)))
		}
	}
}
