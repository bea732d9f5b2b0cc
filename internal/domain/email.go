package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// OrganizerDecisionEmailData holds data for the organizer approval decision email.
type OrganizerDecisionEmailData struct {
	Email  string
	Name   string
	Status ApprovalStatus
}

// EventDecisionEmailData holds data for the event decision email sent to the organizer.
type EventDecisionEmailData struct {
	Email      string
	Name       string
	EventTitle string
	EventDate  string
	Status     EventStatus
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendOrganizerDecision(ctx context.Context, data *OrganizerDecisionEmailData) error
	SendEventDecision(ctx context.Context, data *EventDecisionEmailData) error
}
