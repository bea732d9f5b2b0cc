package http

import (
	"log/slog"
	"net/http"
	"net/url"

	httpSwagger "github.com/swaggo/http-swagger"

	"campusevents/internal/delivery/http/controllers"
	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"
	"campusevents/internal/metrics"
)

// RouterDeps holds everything NewRouter wires into the route table.
type RouterDeps struct {
	Logger   *slog.Logger
	Sessions middleware.SessionSource
	Verifier domain.TokenVerifier
	Limiter  *middleware.RateLimiter
	Recorder metrics.Recorder
	// MetricsHandler serves GET /metrics. Nil leaves the route unregistered.
	MetricsHandler http.Handler

	AllowedOrigins []string
	CSRFKey        []byte
	Secure         bool

	Session       *controllers.SessionController
	Dashboard     *controllers.DashboardController
	Events        *controllers.EventController
	Registrations *controllers.RegistrationController
	Approvals     *controllers.ApprovalController
	Venues        *controllers.VenueController
	System        *controllers.SystemController
}

// NewRouter initializes the HTTP router with all application routes and wraps it in the
// shared middleware chain.
func NewRouter(d RouterDeps) http.Handler {
	if d.Recorder == nil {
		d.Recorder = metrics.Noop{}
	}
	mux := http.NewServeMux()

	withSession := middleware.Session(d.Sessions, d.Logger)
	as := func(role domain.Role, h http.HandlerFunc) http.HandlerFunc {
		return withSession(middleware.RequireRole(role, d.Verifier, d.Logger)(h))
	}

	// Public pages and session
	mux.HandleFunc("GET /{$}", d.Session.Landing)
	mux.HandleFunc("GET /login/{role}", d.Session.LoginPage)
	mux.HandleFunc("GET /register/{role}", d.Session.RegisterPage)
	mux.HandleFunc("POST /login/{role}", d.Limiter.Limit(withSession(d.Session.SignIn)))
	mux.HandleFunc("POST /register/{role}", d.Limiter.Limit(withSession(d.Session.Register)))
	mux.HandleFunc("POST /logout", withSession(d.Session.SignOut))
	mux.HandleFunc("GET /session", withSession(d.Session.State))
	mux.HandleFunc("GET /dashboard/{role}", withSession(d.Dashboard.Dashboard))

	// Venues
	mux.HandleFunc("GET /venues", d.Venues.ListVenues)
	mux.HandleFunc("GET /venues/{venueID}/availability", d.Venues.Availability)

	// Organizer
	mux.HandleFunc("POST /organizer/events", as(domain.RoleOrganizer, d.Events.CreateEvent))
	mux.HandleFunc("GET /organizer/events", as(domain.RoleOrganizer, d.Events.ListOrganizerEvents))

	// Admin
	mux.HandleFunc("GET /admin/events/pending", as(domain.RoleAdmin, d.Events.ListPendingEvents))
	mux.HandleFunc("POST /admin/events/{eventID}/decision", as(domain.RoleAdmin, d.Events.DecideEvent))
	mux.HandleFunc("GET /admin/organizers/pending", as(domain.RoleAdmin, d.Approvals.ListPendingOrganizers))
	mux.HandleFunc("POST /admin/organizers/{profileID}/decision", as(domain.RoleAdmin, d.Approvals.DecideOrganizer))

	// Student
	mux.HandleFunc("GET /student/events", as(domain.RoleStudent, d.Events.ListApprovedEvents))
	mux.HandleFunc("GET /student/registrations", as(domain.RoleStudent, d.Registrations.ListMine))
	mux.HandleFunc("POST /student/events/{eventID}/registration", as(domain.RoleStudent, d.Registrations.Register))
	mux.HandleFunc("DELETE /student/events/{eventID}/registration", as(domain.RoleStudent, d.Registrations.Cancel))
	mux.HandleFunc("GET /student/events/{eventID}/registration", as(domain.RoleStudent, d.Registrations.Status))

	// System
	mux.HandleFunc("GET /healthz", d.System.Health)
	mux.HandleFunc("GET /csrf", d.System.CSRFToken)
	if d.MetricsHandler != nil {
		mux.Handle("GET /metrics", d.MetricsHandler)
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "page not found")
	})

	return middleware.Chain(mux,
		func(next http.Handler) http.Handler { return middleware.Recovery(d.Logger, next) },
		middleware.ClientCookie(d.Secure),
		func(next http.Handler) http.Handler { return middleware.LoggingMiddleware(d.Logger, next) },
		func(next http.Handler) http.Handler { return middleware.Metrics(d.Recorder, next) },
		func(next http.Handler) http.Handler { return middleware.CORS(d.AllowedOrigins, next) },
		middleware.CSRF(d.CSRFKey, d.Secure, originHosts(d.AllowedOrigins)),
	)
}

// originHosts turns CORS origins into the host[:port] form CSRF origin checks compare against.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	return hosts
}
