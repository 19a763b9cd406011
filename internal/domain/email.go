package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// RegistrationEmailData holds data for registration related emails.
type RegistrationEmailData struct {
	Email          string
	EventTitle     string
	EventLocation  string
	EventDate      time.Time
	RegistrationID string
	// Position is the waitlist position; only used by the waitlisted template.
	Position int
}

// NotificationService sends registrant-facing emails.
type NotificationService interface {
	SendRegistrationConfirmed(ctx context.Context, data *RegistrationEmailData) error
	SendWaitlisted(ctx context.Context, data *RegistrationEmailData) error
	SendWaitlistPromotion(ctx context.Context, data *RegistrationEmailData) error
}
