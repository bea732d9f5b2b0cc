package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"campusevents/internal/domain"
	"campusevents/internal/metrics"
)

// Denial reasons returned by EvaluateRole.
const (
	ReasonRoleMismatch    = "role mismatch"
	ReasonPendingApproval = "pending approval"
)

// Decision is the outcome of the role approval gate.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow is the permitting Decision.
var Allow = Decision{Allowed: true}

// Deny returns a denying Decision with reason.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// EvaluateRole decides whether profile may operate as the claimed role. It has no side
// effects; callers act on a denial.
func EvaluateRole(profile *domain.Profile, claimed domain.Role) Decision {
	if profile == nil || profile.Role != claimed {
		return Deny(ReasonRoleMismatch)
	}
	if claimed == domain.RoleOrganizer && profile.ApprovalStatus != domain.ApprovalApproved {
		return Deny(ReasonPendingApproval)
	}
	return Allow
}

type approvalService struct {
	profileRepo  domain.ProfileRepository
	emailService domain.EmailService
	metrics      metrics.Recorder
	logger       *slog.Logger
}

// NewApprovalService creates the admin organizer-approval workflow.
func NewApprovalService(profileRepo domain.ProfileRepository, emailService domain.EmailService, recorder metrics.Recorder, logger *slog.Logger) domain.ApprovalService {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &approvalService{
		profileRepo:  profileRepo,
		emailService: emailService,
		metrics:      recorder,
		logger:       logger,
	}
}

func (s *approvalService) ListPendingOrganizers(ctx context.Context) ([]*domain.Profile, error) {
	profiles, err := s.profileRepo.ListByRoleAndStatus(ctx, domain.RoleOrganizer, domain.ApprovalPending)
	if err != nil {
		return nil, domain.NewServiceError("list pending organizers", err)
	}
	if profiles == nil {
		profiles = []*domain.Profile{}
	}
	return profiles, nil
}

func (s *approvalService) DecideOrganizer(ctx context.Context, profileID string, status domain.ApprovalStatus, adminID string) (*domain.Profile, error) {
	if status != domain.ApprovalApproved && status != domain.ApprovalRejected {
		verr := &domain.ValidationError{}
		verr.Add("status", `must be "approved" or "rejected"`)
		return nil, verr
	}

	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ReferenceError{Kind: "profile", ID: profileID}
		}
		return nil, domain.NewServiceError("get profile", err)
	}
	if profile.Role != domain.RoleOrganizer {
		verr := &domain.ValidationError{}
		verr.Add("profile_id", "only organizer accounts go through approval")
		return nil, verr
	}
	if profile.ApprovalStatus == status {
		return profile, nil
	}

	updated, err := s.profileRepo.UpdateApprovalStatus(ctx, profileID, status, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ReferenceError{Kind: "profile", ID: profileID}
		}
		return nil, domain.NewServiceError("update approval status", err)
	}
	s.metrics.RecordOrganizerDecision(string(status))
	s.logger.InfoContext(ctx, "organizer decision",
		"profile_id", profileID,
		"status", status,
		"admin_id", adminID,
	)

	if s.emailService != nil && updated.Email != "" {
		data := &domain.OrganizerDecisionEmailData{
			Email:  updated.Email,
			Name:   updated.Name,
			Status: status,
		}
		if err := s.emailService.SendOrganizerDecision(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "organizer decision email failed", "profile_id", profileID, "err", err)
		}
	}
	return updated, nil
}
