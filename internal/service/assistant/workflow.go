package assistant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/observability/telemetry"
	"github.com/seu-repo/crm-ia/internal/ports"
)

const (
	DefaultMaxPromptEvents = 30

	idempotencyKeyPrefix = "assistant:event:"
)

// Config tunes the orchestrator. Zero values take the defaults.
type Config struct {
	DefaultLanguage   string
	MaxPromptEvents   int
	LookupErrorsFatal bool
	IdempotencyTTL    time.Duration
	Location          *time.Location
	Speech            ports.SpeechOptions
}

// Dependencies are the collaborators of the orchestrator. Notifier,
// Publisher and Cache are optional.
type Dependencies struct {
	STT       ports.SpeechToText
	LLM       ports.LanguageModel
	TTS       ports.TextToSpeech
	Clients   ports.ClientLookup
	Calendar  ports.CalendarRepository
	Users     ports.UserRepository
	Notifier  ports.ConfirmationNotifier
	Publisher ports.EventPublisher
	Cache     ports.Cache
}

type Option func(*Assistant)

// WithClock replaces time.Now as the reference clock.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

// WithIDGenerator replaces uuid.NewString for new event ids.
func WithIDGenerator(newID func() string) Option {
	return func(a *Assistant) { a.newID = newID }
}

// Assistant turns voice commands into scheduled calendar events
type Assistant struct {
	deps  Dependencies
	cfg   Config
	now   func() time.Time
	newID func() string
	log   *zap.Logger
}

var _ ports.AssistantService = (*Assistant)(nil)

func NewAssistant(deps Dependencies, cfg Config, log *zap.Logger, opts ...Option) *Assistant {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = domain.DefaultLanguage
	}
	if cfg.MaxPromptEvents <= 0 {
		cfg.MaxPromptEvents = DefaultMaxPromptEvents
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	a := &Assistant{
		deps:  deps,
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
		log:   log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RunWorkflow runs the full pipeline: transcript, intent, client lookup,
// calendar, scheduling, insert, confirmation speech and email. It never
// returns an error; failures are reported in the result.
func (a *Assistant) RunWorkflow(ctx context.Context, cmd domain.VoiceCommand) (result *domain.WorkflowResult) {
	ctx, span := telemetry.Tracer().Start(ctx, "assistant.RunWorkflow")
	defer span.End()

	log := a.log.With(zap.String("user_id", cmd.UserID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Workflow panicked", zap.Any("panic", r), zap.Stack("stack"))
			result = domain.FailedWorkflow(domain.NewWorkflowError(domain.ErrorKindInternal, "workflow", fmt.Errorf("panic: %v", r)))
		}
		status := "success"
		if !result.OK {
			status = string(result.Kind)
			span.SetStatus(codes.Error, result.Error)
			log.Warn("Workflow failed", zap.String("kind", status), zap.String("error", result.Error))
		}
		telemetry.WorkflowRunsTotal.WithLabelValues("workflow", status).Inc()
	}()

	if err := cmd.Validate(); err != nil {
		return domain.FailedWorkflow(err)
	}

	// 1. Transcript
	transcript, err := a.transcript(ctx, cmd)
	if err != nil {
		return domain.FailedWorkflow(err)
	}
	log.Info("Transcript ready", zap.Int("length", len(transcript)), zap.Bool("from_audio", !cmd.HasTranscription()))

	key := idempotencyKey(cmd.UserID, transcript)
	if replayed := a.replay(ctx, key); replayed != nil {
		return replayed
	}

	// 2. Intent
	intentJSON, err := a.complete(ctx, "intent", IntentPrompt(transcript))
	if err != nil {
		return domain.FailedWorkflow(err)
	}
	intent := intentFromMap(intentJSON)
	language := a.language(intent)
	span.SetAttributes(attribute.String("assistant.language", language))

	// 3. Client lookup
	client, err := a.lookupClient(ctx, cmd.UserID, intent)
	if err != nil {
		return domain.FailedWorkflow(err)
	}

	// 4. Calendar
	events := a.upcomingEvents(ctx, cmd.UserID)

	// 5. Scheduling
	now := a.now().In(a.cfg.Location)
	prompt, err := SchedulingPrompt(intentJSON, events, language, now)
	if err != nil {
		return domain.FailedWorkflow(domain.NewWorkflowError(domain.ErrorKindInternal, "schedule", err))
	}
	decisionJSON, err := a.complete(ctx, "schedule", prompt)
	if err != nil {
		return domain.FailedWorkflow(err)
	}
	decision := decisionFromMap(decisionJSON)

	// 6. Persist
	event, err := a.persist(ctx, cmd, intent, decision, now)
	if err != nil {
		return domain.FailedWorkflow(err)
	}
	a.remember(ctx, key, replayRecord{EventID: event.ID, Text: decision.NaturalResponse, Metadata: decisionJSON})

	// 7. Confirmation sentence
	if decision.NaturalResponse == "" {
		return domain.FailedWorkflow(domain.NewWorkflowError(domain.ErrorKindExtraction, "schedule", domain.ErrNoNaturalResponse))
	}

	// 8. Speech
	audio, err := a.synthesize(ctx, decision.NaturalResponse)
	if err != nil {
		return domain.FailedWorkflow(err)
	}

	// 9. Email
	a.notify(ctx, client, event, language)

	log.Info("Workflow completed",
		zap.String("event_id", event.ID),
		zap.String("date", string(event.Date)),
		zap.String("time", string(event.Time)),
	)

	// 10. Result
	return &domain.WorkflowResult{
		OK:               true,
		Audio:            audio,
		AudioContentType: domain.DefaultAudioContentType,
		Text:             decision.NaturalResponse,
		Metadata:         decisionJSON,
		EventID:          event.ID,
	}
}

// DetectLanguage transcribes audio and asks the model for the command
// language only. Nothing is persisted.
func (a *Assistant) DetectLanguage(ctx context.Context, audio []byte, contentType string) (result *domain.LanguageProbeResult) {
	ctx, span := telemetry.Tracer().Start(ctx, "assistant.DetectLanguage")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			a.log.Error("Language probe panicked", zap.Any("panic", r), zap.Stack("stack"))
			result = domain.FailedProbe(domain.NewWorkflowError(domain.ErrorKindInternal, "probe", fmt.Errorf("panic: %v", r)))
		}
		status := "success"
		if !result.OK {
			status = string(result.Kind)
			span.SetStatus(codes.Error, result.Error)
		}
		telemetry.WorkflowRunsTotal.WithLabelValues("probe", status).Inc()
	}()

	if len(audio) == 0 {
		return domain.FailedProbe(domain.NewWorkflowError(domain.ErrorKindInput, "validate", domain.ErrMissingAudio))
	}

	transcript, err := a.transcript(ctx, domain.VoiceCommand{Audio: audio, AudioContentType: contentType})
	if err != nil {
		return domain.FailedProbe(err)
	}

	intentJSON, err := a.complete(ctx, "probe", ProbePrompt(transcript))
	if err != nil {
		return domain.FailedProbe(err)
	}

	return &domain.LanguageProbeResult{
		OK:            true,
		Language:      a.language(intentFromMap(intentJSON)),
		Transcription: transcript,
	}
}

func (a *Assistant) transcript(ctx context.Context, cmd domain.VoiceCommand) (string, error) {
	if cmd.HasTranscription() {
		return strings.TrimSpace(cmd.Transcription), nil
	}

	ctx, done := a.step(ctx, "transcribe")
	text, err := a.deps.STT.Transcribe(ctx, cmd.Audio, cmd.AudioContentType)
	if err == nil && strings.TrimSpace(text) == "" {
		err = domain.ErrEmptyProviderReply
	}
	done(err)
	if err != nil {
		return "", domain.NewWorkflowError(domain.ErrorKindProvider, "transcribe", err)
	}
	return strings.TrimSpace(text), nil
}

// complete calls the model and recovers the JSON object of its reply.
func (a *Assistant) complete(ctx context.Context, op, prompt string) (map[string]any, error) {
	ctx, done := a.step(ctx, op)
	reply, err := a.deps.LLM.Complete(ctx, prompt)
	done(err)
	if err != nil {
		return nil, domain.NewWorkflowError(domain.ErrorKindProvider, op, err)
	}

	out := decodeReply(reply)
	if out == nil {
		a.log.Warn("Model reply has no JSON object", zap.String("step", op), zap.Int("reply_length", len(reply)))
		return nil, domain.NewWorkflowError(domain.ErrorKindExtraction, op, domain.ErrNoJSON)
	}
	return out, nil
}

func (a *Assistant) language(intent *domain.Intent) string {
	if l := strings.TrimSpace(intent.Language); l != "" {
		return l
	}
	return a.cfg.DefaultLanguage
}

// lookupClient resolves the caller's organisation and the spoken client.
// Errors are swallowed unless LookupErrorsFatal is set.
func (a *Assistant) lookupClient(ctx context.Context, userID string, intent *domain.Intent) (*domain.Client, error) {
	if !intent.HasClient() || a.deps.Clients == nil {
		return nil, nil
	}

	ctx, done := a.step(ctx, "lookup")
	client, err := a.findClient(ctx, userID, intent)
	done(err)
	if err == nil {
		return client, nil
	}

	if a.cfg.LookupErrorsFatal {
		return nil, domain.NewWorkflowError(domain.ErrorKindCollaborator, "lookup", err)
	}
	telemetry.ClientLookupTotal.WithLabelValues("lookup_error").Inc()
	a.log.Warn("Client lookup failed, continuing without a client",
		zap.String("user_id", userID),
		zap.String("client_name", intent.ClientName),
		zap.Error(err),
	)
	return nil, nil
}

func (a *Assistant) findClient(ctx context.Context, userID string, intent *domain.Intent) (*domain.Client, error) {
	user, err := a.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return a.deps.Clients.FindClient(ctx, intent.ClientName, intent.ClientCompany, user.OrganisationID)
}

// upcomingEvents returns the user's events from today on, capped for the
// prompt. It never fails: a missing or unreadable calendar is an empty one.
func (a *Assistant) upcomingEvents(ctx context.Context, userID string) []domain.CalendarEvent {
	ctx, done := a.step(ctx, "calendar")
	events, err := a.deps.Calendar.FindByUserID(ctx, userID)
	if errors.Is(err, domain.ErrNoCalendarEvents) {
		done(nil)
	} else {
		done(err)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrNoCalendarEvents) {
			a.log.Warn("Calendar fetch failed, scheduling without events", zap.String("user_id", userID), zap.Error(err))
		}
		return []domain.CalendarEvent{}
	}
	today := domain.CivilDate(a.now().In(a.cfg.Location).Format(domain.DateLayout))
	upcoming := make([]domain.CalendarEvent, 0, len(events))
	for _, e := range events {
		if e.Date >= today {
			upcoming = append(upcoming, e)
		}
		if len(upcoming) == a.cfg.MaxPromptEvents {
			break
		}
	}
	return upcoming
}

func (a *Assistant) persist(ctx context.Context, cmd domain.VoiceCommand, intent *domain.Intent, decision *domain.SchedulingDecision, now time.Time) (*domain.CalendarEvent, error) {
	date, clock, err := resolveSlot(decision, now)
	if err != nil {
		return nil, domain.NewWorkflowError(domain.ErrorKindExtraction, "schedule", err)
	}

	event := &domain.CalendarEvent{
		UserID:     cmd.UserID,
		Subject:    decision.Subject,
		ClientName: decision.ClientName,
		Date:       date,
		Time:       clock,
		Duration:   decision.Duration.Int(),
	}
	if event.Subject == "" {
		event.Subject = intent.Subject
	}
	if event.Duration == nil {
		event.Duration = intent.Duration.Int()
	}

	event.ID = a.newID()
	ctx, done := a.step(ctx, "persist")
	err = a.deps.Calendar.Save(ctx, event)
	done(err)
	if err != nil {
		return nil, domain.NewWorkflowError(domain.ErrorKindPersistence, "persist", err)
	}
	telemetry.EventsCreatedTotal.Inc()

	if a.deps.Publisher != nil {
		if err := a.deps.Publisher.PublishEventCreated(ctx, event); err != nil {
			a.log.Warn("Failed to publish event created", zap.String("event_id", event.ID), zap.Error(err))
		}
	}
	return event, nil
}

func idempotencyKey(userID, transcript string) string {
	sum := sha256.Sum256([]byte(userID + "\x00" + strings.ToLower(strings.TrimSpace(transcript))))
	return idempotencyKeyPrefix + hex.EncodeToString(sum[:])
}

// replayRecord is what a repeated command needs to answer like the first run.
type replayRecord struct {
	EventID  string         `json:"event_id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// replay answers a command already scheduled within the idempotency window
// from the stored event and the first run's confirmation. Nothing is
// inserted or emailed. It returns nil when the command has not been seen or
// its event no longer exists.
func (a *Assistant) replay(ctx context.Context, key string) *domain.WorkflowResult {
	if a.deps.Cache == nil || a.cfg.IdempotencyTTL <= 0 {
		return nil
	}
	raw, err := a.deps.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			a.log.Warn("Idempotency cache read failed", zap.Error(err))
		}
		return nil
	}
	var record replayRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil || record.EventID == "" {
		a.log.Warn("Ignoring unreadable idempotency record", zap.Error(err))
		return nil
	}

	event, err := a.deps.Calendar.FindByID(ctx, record.EventID)
	if err != nil {
		a.log.Warn("Failed to load replayed event", zap.String("event_id", record.EventID), zap.Error(err))
		return nil
	}
	if event == nil {
		return nil
	}
	a.log.Info("Duplicate command, replaying event", zap.String("event_id", event.ID), zap.String("user_id", event.UserID))

	if record.Text == "" {
		return domain.FailedWorkflow(domain.NewWorkflowError(domain.ErrorKindExtraction, "schedule", domain.ErrNoNaturalResponse))
	}
	audio, err := a.synthesize(ctx, record.Text)
	if err != nil {
		return domain.FailedWorkflow(err)
	}
	return &domain.WorkflowResult{
		OK:               true,
		Audio:            audio,
		AudioContentType: domain.DefaultAudioContentType,
		Text:             record.Text,
		Metadata:         record.Metadata,
		EventID:          event.ID,
	}
}

func (a *Assistant) remember(ctx context.Context, key string, record replayRecord) {
	if a.deps.Cache == nil || a.cfg.IdempotencyTTL <= 0 {
		return
	}
	data, err := json.Marshal(record)
	if err != nil {
		a.log.Warn("Failed to encode idempotency record", zap.Error(err))
		return
	}
	if err := a.deps.Cache.Set(ctx, key, string(data), a.cfg.IdempotencyTTL); err != nil {
		a.log.Warn("Idempotency cache write failed", zap.Error(err))
	}
}

func (a *Assistant) synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, done := a.step(ctx, "synthesize")
	audio, err := a.deps.TTS.Synthesize(ctx, text, a.cfg.Speech)
	if err == nil && len(audio) == 0 {
		err = domain.ErrEmptyProviderReply
	}
	done(err)
	if err != nil {
		return nil, domain.NewWorkflowError(domain.ErrorKindProvider, "synthesize", err)
	}
	return audio, nil
}

// notify emails the matched client. Send failures are logged only.
func (a *Assistant) notify(ctx context.Context, client *domain.Client, event *domain.CalendarEvent, language string) {
	if client == nil || strings.TrimSpace(client.Email) == "" || a.deps.Notifier == nil {
		a.log.Debug("Skipping confirmation email: no client or client email")
		return
	}

	meeting := ports.MeetingConfirmation{
		EventID:    event.ID,
		ClientName: event.ClientName,
		Subject:    event.Subject,
		Date:       string(event.Date),
		Time:       string(event.Time),
		Language:   language,
	}
	if event.ClientName == "" {
		meeting.ClientName = client.Name
	}
	if event.Duration != nil {
		meeting.Duration = fmt.Sprintf("%d min", *event.Duration)
		meeting.DurationMinutes = *event.Duration
	}

	ctx, done := a.step(ctx, "notify")
	err := a.deps.Notifier.SendMeetingConfirmation(ctx, meeting, client.Email)
	done(err)
	if err != nil {
		a.log.Warn("Failed to send confirmation email", zap.String("client_id", client.ID), zap.Error(err))
	}
}

func (a *Assistant) step(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := telemetry.Tracer().Start(ctx, "assistant."+name)
	start := time.Now()
	return ctx, func(err error) {
		telemetry.WorkflowStepDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
