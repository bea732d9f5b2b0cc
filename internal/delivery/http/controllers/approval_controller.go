package controllers

import (
	"log/slog"
	"net/http"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

// OrganizerDecisionRequest is the request body for POST /admin/organizers/{profileID}/decision.
type OrganizerDecisionRequest struct {
	Status domain.ApprovalStatus `json:"status"`
}

// Validate implements Validator.
func (d OrganizerDecisionRequest) Validate() []string {
	if d.Status != domain.ApprovalApproved && d.Status != domain.ApprovalRejected {
		return []string{"status must be approved or rejected"}
	}
	return nil
}

type ApprovalController struct {
	Logger  *slog.Logger
	Service domain.ApprovalService
}

func NewApprovalController(logger *slog.Logger, svc domain.ApprovalService) *ApprovalController {
	return &ApprovalController{Logger: logger, Service: svc}
}

// ListPendingOrganizers godoc
// @Summary List organizers awaiting approval
// @Tags approvals
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains []domain.Profile"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/organizers/pending [get]
func (c *ApprovalController) ListPendingOrganizers(w http.ResponseWriter, r *http.Request) {
	profiles, err := c.Service.ListPendingOrganizers(r.Context())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, nonNil(profiles))
}

// DecideOrganizer godoc
// @Summary Approve or reject an organizer
// @Description Sets the approval status of an organizer profile and notifies the organizer by email.
// @Tags approvals
// @Accept json
// @Produce json
// @Param profileID path string true "Profile ID (UUID)"
// @Param body body OrganizerDecisionRequest true "approved or rejected"
// @Success 200 {object} helpers.APIResponse "data contains the updated profile"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_failed"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/organizers/{profileID}/decision [post]
func (c *ApprovalController) DecideOrganizer(w http.ResponseWriter, r *http.Request) {
	profileID, ok := pathID(w, r, "profileID", "profile")
	if !ok {
		return
	}
	var req OrganizerDecisionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	admin, ok := currentProfile(w, r)
	if !ok {
		return
	}
	profile, err := c.Service.DecideOrganizer(r.Context(), profileID, req.Status, admin.ID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, profile)
}
