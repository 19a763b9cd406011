package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventregistration/internal/domain"
)

const (
	templateRegistrationConfirmed = "registration_confirmed"
	templateWaitlisted            = "waitlisted"
	templateWaitlistPromoted      = "waitlist_promoted"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns a NotificationService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.NotificationService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendRegistrationConfirmed sends the "registration_confirmed" email.
func (s *emailService) SendRegistrationConfirmed(ctx context.Context, data *domain.RegistrationEmailData) error {
	return s.send(ctx, templateRegistrationConfirmed, data)
}

// SendWaitlisted sends the "waitlisted" email including the waitlist position.
func (s *emailService) SendWaitlisted(ctx context.Context, data *domain.RegistrationEmailData) error {
	return s.send(ctx, templateWaitlisted, data)
}

// SendWaitlistPromotion tells a waitlisted registrant they now hold a seat.
func (s *emailService) SendWaitlistPromotion(ctx context.Context, data *domain.RegistrationEmailData) error {
	return s.send(ctx, templateWaitlistPromoted, data)
}

func (s *emailService) send(ctx context.Context, template string, data *domain.RegistrationEmailData) error {
	if data == nil {
		return fmt.Errorf("%s email data is nil", template)
	}
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", template, err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", template, err)
	}
	s.logger.InfoContext(ctx, "email sent", "template", template, "to", data.Email)
	return nil
}
