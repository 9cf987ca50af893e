package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/crm-ia/internal/adapter/cache"
	"github.com/seu-repo/crm-ia/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/crm-ia/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/crm-ia/internal/adapter/storage/postgres"
	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/mocks"
	"github.com/seu-repo/crm-ia/internal/service/agenda"
	"github.com/seu-repo/crm-ia/internal/service/assistant"
	"github.com/seu-repo/crm-ia/internal/service/auth"
	"github.com/seu-repo/crm-ia/internal/service/clientlookup"
)

const (
	intentReply   = `{"subject":"Revue du contrat","client_name":"Jean Dupond","duration":60,"language":"French"}`
	scheduleReply = `{"natural_response":"C'est noté pour le 10 septembre à 10h avec Jean Dupont.","subject":"Revue du contrat","client_name":"Jean Dupont","date":"2025-09-10","time":"10:00","duration":60}`
)

type apiFixture struct {
	app      *fiber.App
	llm      *mocks.MockLanguageModel
	notifier *mocks.MockConfirmationNotifier
	token    string
}

func setupTestApp(t *testing.T, env *TestEnv) *apiFixture {
	redisCache := cache.NewRedisCacheFromClient(env.Redis, env.Logger)
	calendarRepo := postgres.NewCalendarRepository(env.Gorm, env.Logger)

	f := &apiFixture{
		llm:      &mocks.MockLanguageModel{},
		notifier: &mocks.MockConfirmationNotifier{},
	}

	assistantService := assistant.NewAssistant(assistant.Dependencies{
		STT:      &mocks.MockSpeechToText{},
		LLM:      f.llm,
		TTS:      &mocks.MockTextToSpeech{},
		Clients:  clientlookup.NewService(postgres.NewClientRepository(env.Gorm, env.Logger), 0.3, env.Logger),
		Calendar: calendarRepo,
		Users:    postgres.NewUserRepository(env.Gorm, env.Logger),
		Notifier: f.notifier,
		Cache:    redisCache,
	}, assistant.Config{
		IdempotencyTTL: time.Minute,
		Location:       time.UTC,
	}, env.Logger,
		assistant.WithClock(func() time.Time { return time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC) }),
	)

	jwtService := auth.NewJWTService("integration-secret", "crm-ia", time.Hour, redisCache, env.Logger)
	token, err := jwtService.GenerateAccessToken(&domain.User{ID: "u1", TeamRole: domain.TeamRoleSales, OrganisationID: "org-1"})
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	f.token = token

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(env.Logger)})
	v1 := app.Group("/api/v1", middleware.AuthRequired(jwtService))
	v1.Post("/ai-workflow", handlers.NewAssistantHandler(assistantService, false, env.Logger).Run)
	v1.Get("/agenda", handlers.NewAgendaHandler(agenda.NewService(calendarRepo, env.Logger), env.Logger).List)
	f.app = app

	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *http.Response {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.app.Test(req, 10000)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

// TestAPI_WorkflowSchedulesMeeting runs the workflow against real storage
func TestAPI_WorkflowSchedulesMeeting(t *testing.T) {
	env := SetupTestEnvironment(t)
	CleanDatabase(t, env.DB)
	FlushRedis(t, env.Redis)
	SeedUser(t, env.DB, "u1", "org-1")
	SeedClient(t, env.DB, "c1", "Jean Dupont", "Boulangerie Dupont", "jean@example.com", "org-1")

	f := setupTestApp(t, env)
	command := map[string]string{"transcription": "Planifie une revue du contrat avec Jean Dupond le 10 septembre à 10h"}

	var eventID string
	t.Run("Schedule", func(t *testing.T) {
		f.llm.Replies = []string{intentReply, scheduleReply}

		resp := f.do(t, http.MethodPost, "/api/v1/ai-workflow", command)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}
		var result handlers.WorkflowResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if !result.OK || result.EventID == "" || result.Audio == "" {
			t.Fatalf("Unexpected response %+v", result)
		}
		eventID = result.EventID

		if len(f.notifier.Sent) != 1 || f.notifier.Sent[0].To != "jean@example.com" {
			t.Errorf("Expected a confirmation to jean@example.com, got %+v", f.notifier.Sent)
		}
	})

	t.Run("ReplayReusesEvent", func(t *testing.T) {
		f.llm.Replies = []string{intentReply, scheduleReply}

		resp := f.do(t, http.MethodPost, "/api/v1/ai-workflow", command)
		defer resp.Body.Close()

		var result handlers.WorkflowResponse
		json.NewDecoder(resp.Body).Decode(&result)
		if result.EventID != eventID {
			t.Errorf("Expected replay to reuse %s, got %s", eventID, result.EventID)
		}

		var count int
		if err := env.DB.QueryRow(`SELECT COUNT(*) FROM calendar WHERE user_id = 'u1'`).Scan(&count); err != nil {
			t.Fatalf("Failed to count events: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected one stored event, got %d", count)
		}
		if len(f.notifier.Sent) != 1 {
			t.Errorf("Expected no second confirmation on replay, got %d", len(f.notifier.Sent))
		}
	})

	t.Run("Agenda", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/api/v1/agenda", nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}
		var events []domain.CalendarEvent
		if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
			t.Fatalf("Failed to decode agenda: %v", err)
		}
		if len(events) != 1 || events[0].ID != eventID || events[0].ClientName != "Jean Dupont" {
			t.Errorf("Unexpected agenda %+v", events)
		}
	})
}

// TestAPI_RequiresToken checks the API rejects anonymous calls
func TestAPI_RequiresToken(t *testing.T) {
	env := SetupTestEnvironment(t)
	f := setupTestApp(t, env)
	f.token = "not-a-token"

	resp := f.do(t, http.MethodGet, "/api/v1/agenda", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.StatusCode)
	}
}
