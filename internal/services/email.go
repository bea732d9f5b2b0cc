package services

import (
	"context"
	"fmt"
	"log/slog"

	"campusevents/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendOrganizerDecision sends the "organizer_decision" template to the organizer.
func (s *emailService) SendOrganizerDecision(ctx context.Context, data *domain.OrganizerDecisionEmailData) error {
	if data == nil {
		return fmt.Errorf("organizer decision data is nil")
	}
	return s.send(ctx, "organizer_decision", data.Email, data)
}

// SendEventDecision sends the "event_decision" template to the event's organizer.
func (s *emailService) SendEventDecision(ctx context.Context, data *domain.EventDecisionEmailData) error {
	if data == nil {
		return fmt.Errorf("event decision data is nil")
	}
	return s.send(ctx, "event_decision", data.Email, data)
}

func (s *emailService) send(ctx context.Context, template, to string, data any) error {
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", template, err)
	}
	if err := s.mailer.Send(ctx, to, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", template, err)
	}
	s.logger.InfoContext(ctx, "email sent", "template", template, "to", to)
	return nil
}
