package ports

import (
	"context"

	"github.com/seu-repo/crm-ia/internal/domain"
)

// SpeechToText transcribes an audio clip.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}

// LanguageModel completes a single prompt under the fixed machine-output
// system instruction and returns the raw model text.
type LanguageModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SpeechOptions overrides the configured synthesis defaults. Empty fields keep the defaults.
type SpeechOptions struct {
	VoiceID      string
	ModelID      string
	OutputFormat string
}

// TextToSpeech synthesizes text into audio bytes.
type TextToSpeech interface {
	Synthesize(ctx context.Context, text string, opts SpeechOptions) ([]byte, error)
}

// ClientLookup resolves a spoken client name to a stored client, nil when nothing matches.
type ClientLookup interface {
	FindClient(ctx context.Context, name, company, organisationID string) (*domain.Client, error)
}

// MeetingConfirmation is the content of the confirmation sent to a client.
type MeetingConfirmation struct {
	EventID         string
	ClientName      string
	Subject         string
	Date            string
	Time            string
	Duration        string
	DurationMinutes int
	Language        string
}

// ConfirmationNotifier delivers meeting confirmations.
type ConfirmationNotifier interface {
	SendMeetingConfirmation(ctx context.Context, meeting MeetingConfirmation, recipientEmail string) error
}

// EventPublisher fans out agenda changes (message queue, websocket push).
type EventPublisher interface {
	PublishEventCreated(ctx context.Context, event *domain.CalendarEvent) error
}

// TokenValidator validates API bearer tokens and returns the caller's user id.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*Principal, error)
}

// Principal is the authenticated caller of an API request.
type Principal struct {
	UserID         string
	OrganisationID string
	Role           string
}

// AssistantService runs the voice scheduling workflow and the language probe.
type AssistantService interface {
	RunWorkflow(ctx context.Context, cmd domain.VoiceCommand) *domain.WorkflowResult
	DetectLanguage(ctx context.Context, audio []byte, contentType string) *domain.LanguageProbeResult
}

// AgendaService lists a user's calendar events.
type AgendaService interface {
	ListEvents(ctx context.Context, userID string) ([]domain.CalendarEvent, error)
}
