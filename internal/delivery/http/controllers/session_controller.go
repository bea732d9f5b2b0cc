package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"
	"campusevents/internal/session"
)

// SignInRequest is the request body for POST /login/{role}.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (s SignInRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(s.Email) == "" {
		errs = append(errs, "email is required")
	}
	if s.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// RegisterRequest is the request body for POST /register/{role}. Field rules are checked
// by the session manager so that they are reported per field.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SessionResponse is the published session together with the navigation and notices the
// operation produced.
type SessionResponse struct {
	State    session.State    `json:"state"`
	Redirect string           `json:"redirect,omitempty"`
	Notices  []session.Notice `json:"notices,omitempty"`
}

// RouteInfo describes a public page of the application.
type RouteInfo struct {
	Role   domain.Role `json:"role"`
	Path   string      `json:"path"`
	Action string      `json:"action"`
	Fields []string    `json:"fields"`
}

// LandingResponse is the response body for GET /.
type LandingResponse struct {
	Name     string      `json:"name"`
	Login    []RouteInfo `json:"login"`
	Register []RouteInfo `json:"register"`
}

type SessionController struct {
	Logger *slog.Logger
}

func NewSessionController(logger *slog.Logger) *SessionController {
	return &SessionController{Logger: logger}
}

func loginRoute(role domain.Role) RouteInfo {
	return RouteInfo{Role: role, Path: session.LoginPath(role), Action: "POST " + session.LoginPath(role), Fields: []string{"email", "password"}}
}

func registerRoute(role domain.Role) RouteInfo {
	return RouteInfo{Role: role, Path: session.RegisterPath(role), Action: "POST " + session.RegisterPath(role), Fields: []string{"email", "password", "name"}}
}

// Landing godoc
// @Summary Landing page
// @Description Lists the login routes of every role and the self-registration routes.
// @Tags session
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains LandingResponse"
// @Router / [get]
func (c *SessionController) Landing(w http.ResponseWriter, r *http.Request) {
	resp := LandingResponse{Name: "Campus Events"}
	for _, role := range domain.Roles {
		resp.Login = append(resp.Login, loginRoute(role))
		if role != domain.RoleAdmin {
			resp.Register = append(resp.Register, registerRoute(role))
		}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, resp)
}

// LoginPage godoc
// @Summary Login page metadata
// @Tags session
// @Produce json
// @Param role path string true "student, organizer or admin"
// @Success 200 {object} helpers.APIResponse "data contains RouteInfo"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /login/{role} [get]
func (c *SessionController) LoginPage(w http.ResponseWriter, r *http.Request) {
	role, ok := pathRole(w, r)
	if !ok {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, loginRoute(role))
}

// RegisterPage godoc
// @Summary Registration page metadata
// @Tags session
// @Produce json
// @Param role path string true "student, organizer or admin"
// @Success 200 {object} helpers.APIResponse "data contains RouteInfo"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /register/{role} [get]
func (c *SessionController) RegisterPage(w http.ResponseWriter, r *http.Request) {
	role, ok := pathRole(w, r)
	if !ok {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, registerRoute(role))
}

// SignIn godoc
// @Summary Sign in with a claimed role
// @Description Authenticates the client and admits it only when its profile passes the approval gate for the role in the path.
// @Tags session
// @Accept json
// @Produce json
// @Param role path string true "student, organizer or admin"
// @Param body body SignInRequest true "Credentials"
// @Success 200 {object} helpers.APIResponse "data contains SessionResponse"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (role mismatch or pending approval)"
// @Failure 429 {object} helpers.APIResponse "error.code: rate_limit_exceeded"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /login/{role} [post]
func (c *SessionController) SignIn(w http.ResponseWriter, r *http.Request) {
	role, ok := pathRole(w, r)
	if !ok {
		return
	}
	var req SignInRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	client, ok := c.client(w, r)
	if !ok {
		return
	}
	if _, err := client.Manager.SignIn(r.Context(), strings.TrimSpace(req.Email), req.Password, role); err != nil {
		client.Flash.Take()
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, takeSession(client))
}

// Register godoc
// @Summary Self-service registration
// @Description Creates credentials and a profile. Organizers start pending approval. The new session is ended; the client must sign in.
// @Tags session
// @Accept json
// @Produce json
// @Param role path string true "student or organizer"
// @Param body body RegisterRequest true "Account data"
// @Success 201 {object} helpers.APIResponse "data contains SessionResponse"
// @Failure 400 {object} helpers.APIResponse "error.code: validation_failed"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (role not open for registration)"
// @Failure 409 {object} helpers.APIResponse "error.code: email_taken"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /register/{role} [post]
func (c *SessionController) Register(w http.ResponseWriter, r *http.Request) {
	role, ok := pathRole(w, r)
	if !ok {
		return
	}
	var req RegisterRequest
	// Admin registration is refused whatever the body holds.
	if role != domain.RoleAdmin && !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	client, ok := c.client(w, r)
	if !ok {
		return
	}
	if _, err := client.Manager.Register(r.Context(), strings.TrimSpace(req.Email), req.Password, role, strings.TrimSpace(req.Name)); err != nil {
		client.Flash.Take()
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, takeSession(client))
}

// SignOut godoc
// @Summary Sign out
// @Description Ends the client's session. Signing out without a session is a no-op.
// @Tags session
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains SessionResponse"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /logout [post]
func (c *SessionController) SignOut(w http.ResponseWriter, r *http.Request) {
	client, ok := c.client(w, r)
	if !ok {
		return
	}
	if err := client.Manager.SignOut(r.Context()); err != nil {
		client.Flash.Take()
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, takeSession(client))
}

// State godoc
// @Summary Current session
// @Description Returns the published session and any navigation or notices produced since the last call, such as an external sign-out.
// @Tags session
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains SessionResponse"
// @Router /session [get]
func (c *SessionController) State(w http.ResponseWriter, r *http.Request) {
	client, ok := c.client(w, r)
	if !ok {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, takeSession(client))
}

func (c *SessionController) client(w http.ResponseWriter, r *http.Request) (*session.Client, bool) {
	client, ok := middleware.SessionClientFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "session unavailable")
		return nil, false
	}
	return client, true
}

func takeSession(client *session.Client) SessionResponse {
	redirect, notices := client.Flash.Take()
	return SessionResponse{State: client.Manager.State(), Redirect: redirect, Notices: notices}
}
