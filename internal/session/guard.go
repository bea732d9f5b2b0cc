package session

import (
	"strings"

	"campusevents/internal/domain"
	"campusevents/internal/services"
)

// Outcome is the kind of a guard Decision.
type Outcome int

const (
	Allow Outcome = iota
	// Hold suspends the decision while the session is resolving.
	Hold
	Redirect
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Hold:
		return "hold"
	case Redirect:
		return "redirect"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

// Decision is the guard's answer for a requested path.
type Decision struct {
	Outcome Outcome
	// Path is the redirect target when Outcome is Redirect.
	Path string
}

// LandingPath is where sign-out sends the client.
const LandingPath = "/"

// LoginPath returns the login route of role.
func LoginPath(role domain.Role) string { return "/login/" + string(role) }

// RegisterPath returns the self-registration route of role.
func RegisterPath(role domain.Role) string { return "/register/" + string(role) }

// DashboardPath returns the dashboard route of role.
func DashboardPath(role domain.Role) string { return "/dashboard/" + string(role) }

// Guard maps the published state and a requested path to a routing decision.
// Landing, login and register routes are public; dashboards require a profile that
// passes the approval gate for the dashboard's role.
func Guard(state State, path string) Decision {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if path == LandingPath {
		return Decision{Outcome: Allow}
	}

	section, rest, ok := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if !ok || strings.Contains(rest, "/") {
		return Decision{Outcome: NotFound}
	}
	role, known := domain.ParseRole(rest)
	if !known {
		return Decision{Outcome: NotFound}
	}

	switch section {
	case "login", "register":
		return Decision{Outcome: Allow}
	case "dashboard":
		return Authorize(state, role)
	}
	return Decision{Outcome: NotFound}
}

// Authorize applies the dashboard rule for role. The role-gated API uses it directly.
func Authorize(state State, role domain.Role) Decision {
	if state.Resolving() {
		return Decision{Outcome: Hold}
	}
	if state.Profile != nil && services.EvaluateRole(state.Profile, role).Allowed {
		return Decision{Outcome: Allow}
	}
	return Decision{Outcome: Redirect, Path: LoginPath(role)}
}
