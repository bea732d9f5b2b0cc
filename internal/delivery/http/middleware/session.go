package middleware

import (
	"context"
	"log/slog"
	"net/http"

	h "campusevents/internal/delivery/http/helpers"
	"campusevents/internal/session"
)

// SessionSource hands out the live session of a client.
type SessionSource interface {
	Get(ctx context.Context, clientID string) (*session.Client, error)
}

// Session attaches the client's live session to the request. It must run after
// ClientCookie.
func Session(source SessionSource, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			clientID, ok := ClientIDFromContext(r.Context())
			if !ok {
				h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing client id")
				return
			}
			c, err := source.Get(r.Context(), clientID)
			if err != nil {
				h.WriteServiceError(w, r, logger, err)
				return
			}
			next(w, r.WithContext(SetSessionClient(r.Context(), c)))
		}
	}
}
