package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/ports"
	"github.com/seu-repo/crm-ia/pkg/config"
)

// Provider defines the interface for email providers
type Provider interface {
	Send(ctx context.Context, to, subject, body string, isHTML bool) error
}

// AttachmentSender is implemented by providers able to attach a file
type AttachmentSender interface {
	SendWithAttachment(ctx context.Context, to, subject, body string, isHTML bool, attachment Attachment) error
}

// Attachment is a single file attached to an email
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Config holds email service configuration
type Config struct {
	// Provider type: "sendgrid", "smtp" or "none"
	Provider string

	// From email address
	FromEmail string
	FromName  string

	// SendGrid configuration
	SendGridAPIKey string

	// SMTP configuration (for Mailpit or other SMTP servers)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPUseTLS   bool

	// RedirectTo replaces every recipient when set
	RedirectTo string

	// Location is the zone meeting dates and times are expressed in
	Location *time.Location
}

// DefaultConfig returns a default configuration for development (Mailpit)
func DefaultConfig() *Config {
	return &Config{
		Provider:   "smtp",
		FromEmail:  "crm@resend.dev",
		FromName:   "CRM",
		SMTPHost:   "localhost",
		SMTPPort:   1025,
		SMTPUseTLS: false,
		Location:   time.UTC,
	}
}

// ConfigFrom maps the application email settings onto the service configuration
func ConfigFrom(cfg config.EmailConfig, loc *time.Location) *Config {
	return &Config{
		Provider:       cfg.Provider,
		FromEmail:      cfg.From,
		FromName:       cfg.FromName,
		SendGridAPIKey: cfg.APIKey,
		SMTPHost:       cfg.SMTPHost,
		SMTPPort:       cfg.SMTPPort,
		SMTPUsername:   cfg.SMTPUsername,
		SMTPPassword:   cfg.SMTPPassword,
		SMTPUseTLS:     cfg.SMTPUseTLS,
		RedirectTo:     cfg.RedirectTo,
		Location:       loc,
	}
}

// Service sends transactional email and implements ports.ConfirmationNotifier
type Service struct {
	config    *Config
	provider  Provider
	templates map[string]*template.Template
	now       func() time.Time
	log       *zap.Logger
}

var _ ports.ConfirmationNotifier = (*Service)(nil)

// NewService creates a new email service
func NewService(cfg *Config, log *zap.Logger) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	s := &Service{
		config:    cfg,
		templates: make(map[string]*template.Template),
		now:       time.Now,
		log:       log,
	}

	switch cfg.Provider {
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SendGrid API key is required")
		}
		s.provider = NewSendGridProvider(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName)
	case "smtp":
		s.provider = NewSMTPProvider(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUsername,
			cfg.SMTPPassword,
			cfg.FromEmail,
			cfg.FromName,
			cfg.SMTPUseTLS,
		)
	case "none", "":
		s.provider = NewLogProvider(log)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}

	s.loadTemplates()

	return s, nil
}

func (s *Service) loadTemplates() {
	s.templates["meeting_confirmation"] = template.Must(template.New("meeting_confirmation").Parse(meetingConfirmationTemplate))
}

func (s *Service) recipient(to string) string {
	if s.config.RedirectTo != "" {
		return s.config.RedirectTo
	}
	return to
}

// Send sends a generic email
func (s *Service) Send(ctx context.Context, to, subject, body string) error {
	to = s.recipient(to)
	s.log.Info("Sending email",
		zap.String("to", to),
		zap.String("subject", subject),
	)

	if err := s.provider.Send(ctx, to, subject, body, false); err != nil {
		s.log.Error("Failed to send email",
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendHTML sends an HTML email
func (s *Service) SendHTML(ctx context.Context, to, subject, htmlBody string) error {
	to = s.recipient(to)
	s.log.Info("Sending HTML email",
		zap.String("to", to),
		zap.String("subject", subject),
	)

	if err := s.provider.Send(ctx, to, subject, htmlBody, true); err != nil {
		s.log.Error("Failed to send HTML email",
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send HTML email: %w", err)
	}

	return nil
}

// Render executes a named template with the given data
func (s *Service) Render(templateName string, data any) (string, error) {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// SendMeetingConfirmation mails the meeting details to the client with a
// calendar invite attached when the provider supports attachments and the
// slot can be parsed.
func (s *Service) SendMeetingConfirmation(ctx context.Context, meeting ports.MeetingConfirmation, recipientEmail string) error {
	if recipientEmail == "" {
		return fmt.Errorf("recipient email is required")
	}

	body, err := s.Render("meeting_confirmation", meeting)
	if err != nil {
		return err
	}

	subject := meeting.Subject
	if subject == "" {
		subject = "Meeting Confirmation"
	}

	sender, ok := s.provider.(AttachmentSender)
	if !ok {
		return s.SendHTML(ctx, recipientEmail, subject, body)
	}

	invite, err := BuildInvite(meeting, s.config.Location, s.now())
	if err != nil {
		s.log.Warn("Sending confirmation without invite", zap.String("event_id", meeting.EventID), zap.Error(err))
		return s.SendHTML(ctx, recipientEmail, subject, body)
	}

	to := s.recipient(recipientEmail)
	s.log.Info("Sending meeting confirmation",
		zap.String("to", to),
		zap.String("event_id", meeting.EventID),
	)

	attachment := Attachment{
		Filename:    "invite.ics",
		ContentType: "text/calendar",
		Data:        invite,
	}
	if err := sender.SendWithAttachment(ctx, to, subject, body, true, attachment); err != nil {
		s.log.Error("Failed to send meeting confirmation",
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send meeting confirmation: %w", err)
	}

	return nil
}

// LogProvider only logs outgoing mail, used when no provider is configured
type LogProvider struct {
	log *zap.Logger
}

// NewLogProvider creates a provider that writes emails to the log
func NewLogProvider(log *zap.Logger) *LogProvider {
	return &LogProvider{log: log}
}

func (p *LogProvider) Send(ctx context.Context, to, subject, body string, isHTML bool) error {
	p.log.Info("Email delivery disabled, dropping message",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)),
	)
	return nil
}
