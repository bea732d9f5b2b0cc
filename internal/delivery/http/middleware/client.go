package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// ClientCookieName names the cookie identifying one browser client.
const ClientCookieName = "ce_client"

const clientCookieMaxAge = 365 * 24 * 60 * 60

// ClientCookie assigns every browser a client ID cookie and puts the ID in the request
// context. Malformed IDs are replaced.
func ClientCookie(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ""
			if c, err := r.Cookie(ClientCookieName); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					clientID = id.String()
				}
			}
			if clientID == "" {
				clientID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     ClientCookieName,
					Value:    clientID,
					Path:     "/",
					MaxAge:   clientCookieMaxAge,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(SetClientID(r.Context(), clientID)))
		})
	}
}
