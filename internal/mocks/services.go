package mocks

import (
	"context"
	"errors"

	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/ports"
)

// MockSpeechToText is a mock implementation of SpeechToText
type MockSpeechToText struct {
	TranscribeFunc func(ctx context.Context, audio []byte, contentType string) (string, error)
	Calls          int
}

func (m *MockSpeechToText) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	m.Calls++
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, contentType)
	}
	return "", nil
}

// MockLanguageModel is a mock implementation of LanguageModel.
// Without a CompleteFunc it answers with Replies in order.
type MockLanguageModel struct {
	CompleteFunc func(ctx context.Context, prompt string) (string, error)
	Replies      []string
	Prompts      []string
}

func (m *MockLanguageModel) Complete(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	if len(m.Replies) == 0 {
		return "", errors.New("mock language model: no reply queued")
	}
	reply := m.Replies[0]
	m.Replies = m.Replies[1:]
	return reply, nil
}

// MockTextToSpeech is a mock implementation of TextToSpeech
type MockTextToSpeech struct {
	SynthesizeFunc func(ctx context.Context, text string, opts ports.SpeechOptions) ([]byte, error)
	Texts          []string
}

func (m *MockTextToSpeech) Synthesize(ctx context.Context, text string, opts ports.SpeechOptions) ([]byte, error) {
	m.Texts = append(m.Texts, text)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, opts)
	}
	return []byte("audio:" + text), nil
}

// MockClientLookup is a mock implementation of ClientLookup
type MockClientLookup struct {
	FindClientFunc func(ctx context.Context, name, company, organisationID string) (*domain.Client, error)
	Calls          int
}

func (m *MockClientLookup) FindClient(ctx context.Context, name, company, organisationID string) (*domain.Client, error) {
	m.Calls++
	if m.FindClientFunc != nil {
		return m.FindClientFunc(ctx, name, company, organisationID)
	}
	return nil, nil
}

// SentConfirmation records one call to the notifier
type SentConfirmation struct {
	Meeting ports.MeetingConfirmation
	To      string
}

// MockConfirmationNotifier is a mock implementation of ConfirmationNotifier
type MockConfirmationNotifier struct {
	SendFunc func(ctx context.Context, meeting ports.MeetingConfirmation, recipientEmail string) error
	Sent     []SentConfirmation
}

func (m *MockConfirmationNotifier) SendMeetingConfirmation(ctx context.Context, meeting ports.MeetingConfirmation, recipientEmail string) error {
	m.Sent = append(m.Sent, SentConfirmation{Meeting: meeting, To: recipientEmail})
	if m.SendFunc != nil {
		return m.SendFunc(ctx, meeting, recipientEmail)
	}
	return nil
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	PublishFunc func(ctx context.Context, event *domain.CalendarEvent) error
	Published   []domain.CalendarEvent
}

func (m *MockEventPublisher) PublishEventCreated(ctx context.Context, event *domain.CalendarEvent) error {
	m.Published = append(m.Published, *event)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	return nil
}

// MockTokenValidator is a mock implementation of TokenValidator
type MockTokenValidator struct {
	ValidateTokenFunc func(ctx context.Context, token string) (*ports.Principal, error)
}

func (m *MockTokenValidator) ValidateToken(ctx context.Context, token string) (*ports.Principal, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, token)
	}
	return &ports.Principal{UserID: token}, nil
}

// MockAssistantService is a mock implementation of AssistantService
type MockAssistantService struct {
	RunWorkflowFunc    func(ctx context.Context, cmd domain.VoiceCommand) *domain.WorkflowResult
	DetectLanguageFunc func(ctx context.Context, audio []byte, contentType string) *domain.LanguageProbeResult
	Commands           []domain.VoiceCommand
	ProbeCalls         int
}

func (m *MockAssistantService) RunWorkflow(ctx context.Context, cmd domain.VoiceCommand) *domain.WorkflowResult {
	m.Commands = append(m.Commands, cmd)
	if m.RunWorkflowFunc != nil {
		return m.RunWorkflowFunc(ctx, cmd)
	}
	return &domain.WorkflowResult{OK: true, Text: "ok", Audio: []byte("audio"), AudioContentType: domain.DefaultAudioContentType}
}

func (m *MockAssistantService) DetectLanguage(ctx context.Context, audio []byte, contentType string) *domain.LanguageProbeResult {
	m.ProbeCalls++
	if m.DetectLanguageFunc != nil {
		return m.DetectLanguageFunc(ctx, audio, contentType)
	}
	return &domain.LanguageProbeResult{OK: true, Language: domain.DefaultLanguage, Transcription: "rendez-vous demain"}
}

// MockAgendaService is a mock implementation of AgendaService
type MockAgendaService struct {
	ListEventsFunc func(ctx context.Context, userID string) ([]domain.CalendarEvent, error)
}

func (m *MockAgendaService) ListEvents(ctx context.Context, userID string) ([]domain.CalendarEvent, error) {
	if m.ListEventsFunc != nil {
		return m.ListEventsFunc(ctx, userID)
	}
	return []domain.CalendarEvent{}, nil
}
