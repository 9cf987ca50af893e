package email

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/ports"
)

// MockProvider is a mock email provider for testing
type MockProvider struct {
	SentEmails []MockEmail
	ShouldFail bool
	FailError  error
}

type MockEmail struct {
	To         string
	Subject    string
	Body       string
	IsHTML     bool
	Attachment *Attachment
}

func (m *MockProvider) Send(ctx context.Context, to, subject, body string, isHTML bool) error {
	if m.ShouldFail {
		if m.FailError != nil {
			return m.FailError
		}
		return errors.New("mock send failed")
	}

	m.SentEmails = append(m.SentEmails, MockEmail{
		To:      to,
		Subject: subject,
		Body:    body,
		IsHTML:  isHTML,
	})
	return nil
}

// MockAttachmentProvider also accepts attachments
type MockAttachmentProvider struct {
	MockProvider
}

func (m *MockAttachmentProvider) SendWithAttachment(ctx context.Context, to, subject, body string, isHTML bool, attachment Attachment) error {
	if err := m.Send(ctx, to, subject, body, isHTML); err != nil {
		return err
	}
	m.SentEmails[len(m.SentEmails)-1].Attachment = &attachment
	return nil
}

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func newTestService(provider Provider) *Service {
	s := &Service{
		config: &Config{
			Provider:  "mock",
			FromEmail: "test@crm.dev",
			FromName:  "CRM Test",
			Location:  time.UTC,
		},
		provider:  provider,
		templates: make(map[string]*template.Template),
		now: func() time.Time {
			return time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
		},
		log: newTestLogger(),
	}
	s.loadTemplates()
	return s
}

func testMeeting() ports.MeetingConfirmation {
	return ports.MeetingConfirmation{
		EventID:         "evt-1",
		ClientName:      "Jean Dupont",
		Subject:         "Revue du contrat",
		Date:            "2025-09-10",
		Time:            "10:00",
		Duration:        "60 min",
		DurationMinutes: 60,
		Language:        "French",
	}
}

func TestService_Send_Success(t *testing.T) {
	// Arrange
	mockProvider := &MockProvider{}
	service := newTestService(mockProvider)

	// Act
	err := service.Send(context.Background(), "user@example.com", "Test Subject", "Test Body")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(mockProvider.SentEmails) != 1 {
		t.Fatalf("expected 1 email sent, got %d", len(mockProvider.SentEmails))
	}
	email := mockProvider.SentEmails[0]
	if email.To != "user@example.com" {
		t.Errorf("expected to 'user@example.com', got '%s'", email.To)
	}
	if email.Subject != "Test Subject" {
		t.Errorf("expected subject 'Test Subject', got '%s'", email.Subject)
	}
	if email.Body != "Test Body" {
		t.Errorf("expected body 'Test Body', got '%s'", email.Body)
	}
	if email.IsHTML {
		t.Error("expected plain text email, got HTML")
	}
}

func TestService_Send_Failure(t *testing.T) {
	// Arrange
	mockProvider := &MockProvider{
		ShouldFail: true,
		FailError:  errors.New("SMTP connection failed"),
	}
	service := newTestService(mockProvider)

	// Act
	err := service.Send(context.Background(), "user@example.com", "Test Subject", "Test Body")

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "SMTP connection failed") {
		t.Errorf("expected error to contain 'SMTP connection failed', got '%s'", err.Error())
	}
}

func TestService_SendHTML_Success(t *testing.T) {
	// Arrange
	mockProvider := &MockProvider{}
	service := newTestService(mockProvider)

	htmlBody := "<h1>Hello World</h1>"

	// Act
	err := service.SendHTML(context.Background(), "user@example.com", "HTML Subject", htmlBody)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(mockProvider.SentEmails) != 1 {
		t.Fatalf("expected 1 email sent, got %d", len(mockProvider.SentEmails))
	}
	email := mockProvider.SentEmails[0]
	if !email.IsHTML {
		t.Error("expected HTML email, got plain text")
	}
	if email.Body != htmlBody {
		t.Errorf("expected body '%s', got '%s'", htmlBody, email.Body)
	}
}

func TestNewService_SendGridProvider(t *testing.T) {
	// Arrange
	config := &Config{
		Provider:       "sendgrid",
		SendGridAPIKey: "test-api-key",
		FromEmail:      "test@example.com",
		FromName:       "Test",
	}

	// Act
	service, err := NewService(config, newTestLogger())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if service == nil {
		t.Fatal("expected service, got nil")
	}
	if _, ok := service.provider.(*SendGridProvider); !ok {
		t.Error("expected SendGridProvider")
	}
}

func TestNewService_SMTPProvider(t *testing.T) {
	// Arrange
	config := &Config{
		Provider:  "smtp",
		SMTPHost:  "localhost",
		SMTPPort:  1025,
		FromEmail: "test@example.com",
		FromName:  "Test",
	}

	// Act
	service, err := NewService(config, newTestLogger())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if service == nil {
		t.Fatal("expected service, got nil")
	}
	if _, ok := service.provider.(*SMTPProvider); !ok {
		t.Error("expected SMTPProvider")
	}
}

func TestNewService_UnknownProvider(t *testing.T) {
	// Arrange
	config := &Config{
		Provider: "unknown",
	}

	// Act
	_, err := NewService(config, newTestLogger())

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "unknown email provider") {
		t.Errorf("expected 'unknown email provider' error, got '%s'", err.Error())
	}
}

func TestNewService_SendGridMissingAPIKey(t *testing.T) {
	// Arrange
	config := &Config{
		Provider:       "sendgrid",
		SendGridAPIKey: "", // Missing
	}

	// Act
	_, err := NewService(config, newTestLogger())

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "API key is required") {
		t.Errorf("expected 'API key is required' error, got '%s'", err.Error())
	}
}

func TestDefaultConfig(t *testing.T) {
	// Act
	config := DefaultConfig()

	// Assert
	if config.Provider != "smtp" {
		t.Errorf("expected provider 'smtp', got '%s'", config.Provider)
	}
	if config.SMTPHost != "localhost" {
		t.Errorf("expected SMTP host 'localhost', got '%s'", config.SMTPHost)
	}
	if config.SMTPPort != 1025 {
		t.Errorf("expected SMTP port 1025, got %d", config.SMTPPort)
	}
}

func TestNewService_NoneProviderLogsOnly(t *testing.T) {
	// Arrange
	config := &Config{Provider: "none"}

	// Act
	service, err := NewService(config, newTestLogger())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := service.provider.(*LogProvider); !ok {
		t.Error("expected LogProvider")
	}
	if err := service.Send(context.Background(), "a@b.c", "s", "b"); err != nil {
		t.Errorf("expected log provider to accept mail, got %v", err)
	}
}

func TestService_Send_RedirectTo(t *testing.T) {
	// Arrange
	mockProvider := &MockProvider{}
	service := newTestService(mockProvider)
	service.config.RedirectTo = "staging@crm.dev"

	// Act
	err := service.Send(context.Background(), "client@example.com", "Subject", "Body")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := mockProvider.SentEmails[0].To; got != "staging@crm.dev" {
		t.Errorf("expected redirected recipient, got '%s'", got)
	}
}

func TestService_SendMeetingConfirmation_WithInvite(t *testing.T) {
	// Arrange
	mockProvider := &MockAttachmentProvider{}
	service := newTestService(mockProvider)

	// Act
	err := service.SendMeetingConfirmation(context.Background(), testMeeting(), "jean@example.com")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(mockProvider.SentEmails) != 1 {
		t.Fatalf("expected 1 email sent, got %d", len(mockProvider.SentEmails))
	}
	email := mockProvider.SentEmails[0]
	if email.To != "jean@example.com" {
		t.Errorf("expected to 'jean@example.com', got '%s'", email.To)
	}
	if email.Subject != "Revue du contrat" {
		t.Errorf("expected meeting subject as email subject, got '%s'", email.Subject)
	}
	if !email.IsHTML {
		t.Error("expected HTML email")
	}
	for _, want := range []string{"Meeting Confirmation", "Hello Jean Dupont", "2025-09-10", "10:00", "60 min"} {
		if !strings.Contains(email.Body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
	if email.Attachment == nil {
		t.Fatal("expected invite attachment")
	}
	if email.Attachment.Filename != "invite.ics" || email.Attachment.ContentType != "text/calendar" {
		t.Errorf("unexpected attachment %s (%s)", email.Attachment.Filename, email.Attachment.ContentType)
	}
	if !strings.Contains(string(email.Attachment.Data), "DTSTART:20250910T100000Z") {
		t.Errorf("expected invite start, got:\n%s", email.Attachment.Data)
	}
}

func TestService_SendMeetingConfirmation_PlainProvider(t *testing.T) {
	// Arrange
	mockProvider := &MockProvider{}
	service := newTestService(mockProvider)

	// Act
	err := service.SendMeetingConfirmation(context.Background(), testMeeting(), "jean@example.com")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(mockProvider.SentEmails) != 1 {
		t.Fatalf("expected 1 email sent, got %d", len(mockProvider.SentEmails))
	}
	if mockProvider.SentEmails[0].Attachment != nil {
		t.Error("expected no attachment from plain provider")
	}
}

func TestService_SendMeetingConfirmation_UnparseableSlotSkipsInvite(t *testing.T) {
	// Arrange
	mockProvider := &MockAttachmentProvider{}
	service := newTestService(mockProvider)
	meeting := testMeeting()
	meeting.Time = "ten o'clock"

	// Act
	err := service.SendMeetingConfirmation(context.Background(), meeting, "jean@example.com")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mockProvider.SentEmails[0].Attachment != nil {
		t.Error("expected confirmation without invite")
	}
}

func TestService_SendMeetingConfirmation_ProviderFailure(t *testing.T) {
	// Arrange
	mockProvider := &MockAttachmentProvider{MockProvider: MockProvider{ShouldFail: true}}
	service := newTestService(mockProvider)

	// Act
	err := service.SendMeetingConfirmation(context.Background(), testMeeting(), "jean@example.com")

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "failed to send meeting confirmation") {
		t.Errorf("unexpected error '%s'", err.Error())
	}
}

func TestService_SendMeetingConfirmation_MissingRecipient(t *testing.T) {
	// Arrange
	mockProvider := &MockProvider{}
	service := newTestService(mockProvider)

	// Act
	err := service.SendMeetingConfirmation(context.Background(), testMeeting(), "")

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(mockProvider.SentEmails) != 0 {
		t.Error("expected nothing sent")
	}
}

func TestBuildInvite_LocalZoneAndDefaultDuration(t *testing.T) {
	// Arrange
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	meeting := testMeeting()
	meeting.DurationMinutes = 0

	// Act
	data, err := BuildInvite(meeting, paris, time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	ics := string(data)
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"UID:evt-1@crm-ia",
		"DTSTART:20250910T080000Z",
		"DTEND:20250910T090000Z",
		"SUMMARY:Revue du contrat",
	} {
		if !strings.Contains(ics, want) {
			t.Errorf("expected invite to contain %q, got:\n%s", want, ics)
		}
	}
}
