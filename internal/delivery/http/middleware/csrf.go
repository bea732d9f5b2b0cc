package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	h "campusevents/internal/delivery/http/helpers"
)

// CSRFHeader is the request header carrying the token returned by GET /csrf.
const CSRFHeader = "X-CSRF-Token"

// CSRF protects form submissions with gorilla/csrf. JSON requests are exempt: browsers
// cannot send them cross-origin without a CORS preflight. authKey must be 32 bytes.
func CSRF(authKey []byte, secure bool, trustedOrigins []string) func(http.Handler) http.Handler {
	protect := csrf.Protect(
		authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFHeader),
		csrf.TrustedOrigins(trustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.WriteJSONError(w, http.StatusForbidden, h.ErrCodeForbidden, "invalid CSRF token")
		})),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				next.ServeHTTP(w, r)
				return
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// CSRFToken returns the token for the current request. Empty when CSRF is not wired.
func CSRFToken(r *http.Request) string {
	return csrf.Token(r)
}

// Chain applies middlewares in order (outer to inner).
func Chain(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
