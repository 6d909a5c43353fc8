package email

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"eventplanner/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrDisabled is returned when no email provider is configured.
var ErrDisabled = errors.New("email delivery disabled")

// InviteNotice describes one invitation email.
type InviteNotice struct {
	To         string
	Recipient  string
	Sender     string
	EventTitle string
	EventDate  string
	EventURL   string
	Message    string
}

// Notifier sends invite notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	NotifyInvite(ctx context.Context, notice InviteNotice) error
}

// Service sends transactional email through Resend.
type Service struct {
	config       config.EmailConfig
	resendClient *resend.Client
	templates    *template.Template
	logger       zerolog.Logger
}

var _ Notifier = (*Service)(nil)

// NewService creates an email service. With no API key configured the
// service is returned disabled and every send reports ErrDisabled.
func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	s := &Service{
		config:    cfg,
		templates: templates,
		logger:    logger.With().Str("component", "email").Logger(),
	}
	if cfg.Enabled() {
		s.resendClient = resend.NewClient(cfg.ResendAPIKey)
	}
	return s, nil
}

// Enabled reports whether emails are actually delivered.
func (s *Service) Enabled() bool {
	return s != nil && s.resendClient != nil
}

// NotifyInvite emails notice.To that they were invited to an event.
func (s *Service) NotifyInvite(ctx context.Context, notice InviteNotice) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	if _, err := mail.ParseAddress(notice.To); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", notice.To, err)
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "invite.html", notice); err != nil {
		return fmt.Errorf("failed to render invite template: %w", err)
	}

	subject := fmt.Sprintf("%s invited you to %s", notice.Sender, notice.EventTitle)
	return s.send(ctx, notice.To, subject, body.String())
}

// EventURL builds the public link for an event slug.
func EventURL(baseURL, slug string) string {
	if baseURL == "" || slug == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/events/" + slug
}

func (s *Service) send(ctx context.Context, to, subject, htmlBody string) error {
	params := &resend.SendEmailRequest{
		From:    s.config.From,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	sent, err := s.resendClient.Emails.SendWithContext(ctx, params)
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit exceeded")
		}
		return fmt.Errorf("resend API error: %w", err)
	}

	s.logger.Info().
		Str("email_id", sent.Id).
		Str("to", to).
		Msg("invite email sent")
	return nil
}
