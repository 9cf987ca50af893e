package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seu-repo/crm-ia/internal/adapter/ai/elevenlabs"
	"github.com/seu-repo/crm-ia/internal/adapter/ai/mistral"
	"github.com/seu-repo/crm-ia/internal/adapter/cache"
	"github.com/seu-repo/crm-ia/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/crm-ia/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/crm-ia/internal/adapter/queue"
	"github.com/seu-repo/crm-ia/internal/adapter/storage/postgres"
	"github.com/seu-repo/crm-ia/internal/adapter/vault"
	wsAdapter "github.com/seu-repo/crm-ia/internal/adapter/websocket"
	"github.com/seu-repo/crm-ia/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/crm-ia/internal/observability/telemetry"
	"github.com/seu-repo/crm-ia/internal/ports"
	"github.com/seu-repo/crm-ia/internal/service/agenda"
	"github.com/seu-repo/crm-ia/internal/service/assistant"
	"github.com/seu-repo/crm-ia/internal/service/auth"
	"github.com/seu-repo/crm-ia/internal/service/clientlookup"
	"github.com/seu-repo/crm-ia/internal/service/email"
	"github.com/seu-repo/crm-ia/internal/service/health"
	"github.com/seu-repo/crm-ia/pkg/config"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// 2. Initialize Logger
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting CRM assistant",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// 3. Overlay secrets from Vault, then validate
	if cfg.Vault.Address != "" {
		secrets, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token, logger)
		if err != nil {
			logger.Fatal("Failed to create Vault client", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		applied, err := secrets.Overlay(ctx, cfg)
		cancel()
		if err != nil {
			logger.Fatal("Failed to read secrets from Vault", zap.Error(err))
		}
		logger.Info("Secrets loaded from Vault", zap.Strings("keys", applied))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// 4. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(cfg.OpenTelemetry.ServiceName, cfg.App.Version, cfg.OpenTelemetry.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 5. Initialize PostgreSQL Connection Pool
	db, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := postgres.RunMigrations(db, cfg.Database.AutoMigrate, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// 6. Initialize Cache (Redis, in-memory when no URL is set)
	var appCache ports.Cache
	if cfg.Redis.URL != "" {
		appCache, err = cache.NewRedisCache(cfg.Redis.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
	} else {
		logger.Warn("Redis URL not set, using in-memory cache")
		appCache = cache.NewLocalCache(time.Minute, logger)
	}
	defer appCache.Close()

	// 7. Initialize Message Queue
	messageQueue, err := queue.New(cfg.Queue, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	if messageQueue != nil {
		defer messageQueue.Close()
	}

	// 8. Initialize WebSocket Hub and the agenda relay
	wsHub := wsAdapter.NewHub(logger)
	go wsHub.Run()
	defer wsHub.Stop()

	publisher := agenda.NewPublisher(messageQueue, wsHub, logger)
	if err := publisher.Relay(); err != nil {
		logger.Fatal("Failed to subscribe to agenda events", zap.Error(err))
	}

	// 9. Initialize Repositories
	calendarRepo := postgres.NewCalendarRepository(db, logger)
	clientRepo := postgres.NewClientRepository(db, logger)
	userRepo := postgres.NewUserRepository(db, logger)

	// 10. Initialize Provider Clients behind circuit breakers
	breakers := circuitbreaker.NewManager(circuitbreaker.Settings{
		MaxRequests:      cfg.CircuitBreaker.MaxRequests,
		Interval:         cfg.CircuitBreaker.Interval,
		Timeout:          cfg.CircuitBreaker.Timeout,
		FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
	}, logger)
	timeout := cfg.Workflow.ProviderTimeout

	llm := mistral.NewClient(cfg.Mistral.APIKey, cfg.Mistral.BaseURL, cfg.Mistral.Model,
		circuitbreaker.NewHTTPClient("mistral", nil, breakers, timeout, logger), logger)

	voiceCfg := elevenlabs.Config{
		APIKey:       cfg.ElevenLabs.APIKey,
		BaseURL:      cfg.ElevenLabs.BaseURL,
		STTModel:     cfg.ElevenLabs.STTModel,
		VoiceID:      cfg.ElevenLabs.VoiceID,
		TTSModel:     cfg.ElevenLabs.TTSModel,
		OutputFormat: cfg.ElevenLabs.OutputFormat,
	}
	stt := elevenlabs.NewSTTClient(voiceCfg,
		circuitbreaker.NewHTTPClient("elevenlabs-stt", nil, breakers, timeout, logger), logger)
	tts := elevenlabs.NewTTSClient(voiceCfg,
		circuitbreaker.NewHTTPClient("elevenlabs-tts", nil, breakers, timeout, logger), logger)

	// 11. Initialize Services (Business Logic Layer)
	emailService, err := email.NewService(email.ConfigFrom(cfg.Notification.Email, cfg.Location()), logger)
	if err != nil {
		logger.Fatal("Failed to initialize email service", zap.Error(err))
	}

	agendaService := agenda.NewService(calendarRepo, logger)
	assistantService := assistant.NewAssistant(assistant.Dependencies{
		STT:       stt,
		LLM:       llm,
		TTS:       tts,
		Clients:   clientlookup.NewService(clientRepo, cfg.Workflow.LookupThreshold, logger),
		Calendar:  calendarRepo,
		Users:     userRepo,
		Notifier:  emailService,
		Publisher: publisher,
		Cache:     appCache,
	}, assistant.Config{
		DefaultLanguage:   cfg.Workflow.DefaultLanguage,
		MaxPromptEvents:   cfg.Workflow.MaxPromptEvents,
		LookupErrorsFatal: cfg.Workflow.LookupErrorsFatal,
		IdempotencyTTL:    cfg.Workflow.IdempotencyTTL,
		Location:          cfg.Location(),
	}, logger)

	healthConfig := &health.Config{
		Version:  cfg.App.Version,
		DB:       sqlDB,
		Cache:    appCache,
		Breakers: breakers,
	}
	if state, ok := messageQueue.(health.ConnectionState); ok {
		healthConfig.Queue = state
	}
	healthService := health.NewService(healthConfig, logger)

	// 12. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ServerHeader:          cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		BodyLimit:             cfg.HTTP.BodyLimit,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(middleware.NewCORS(cfg.CORS))

	// Health Check Endpoints
	health.NewFiberHandler(healthService).RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	// Authentication: bearer tokens, or the caller-supplied user id when disabled
	var (
		authenticate fiber.Handler
		permissions  middleware.PermissionChecker
	)
	if cfg.JWT.Disabled {
		logger.Warn("JWT authentication disabled, trusting the userId supplied by callers")
		authenticate = middleware.AnonymousUser()
		permissions = allowAll{}
	} else {
		authenticate = middleware.AuthRequired(auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessDuration, appCache, logger))
		permissions = auth.NewRBACService(logger)
	}

	// API v1 Routes
	var apiMiddleware []fiber.Handler
	if cfg.RateLimiting.Enabled {
		apiMiddleware = append(apiMiddleware, limiter.New(limiter.Config{
			Max:        cfg.RateLimiting.MaxRequests,
			Expiration: cfg.RateLimiting.Window,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"ok":    false,
					"error": "Too many requests",
				})
			},
		}))
	}
	if cfg.CircuitBreaker.Enabled {
		apiMiddleware = append(apiMiddleware, middleware.CircuitBreaker(breakers, "api", logger))
	}
	apiMiddleware = append(apiMiddleware, authenticate)

	v1 := app.Group("/api/v1", apiMiddleware...)

	// Assistant routes
	assistantHandler := handlers.NewAssistantHandler(assistantService, cfg.JWT.Disabled, logger)
	useAssistant := middleware.RequirePermission(permissions, auth.ResourceAssistant, auth.ActionUse)
	v1.Post("/ai-workflow", useAssistant, assistantHandler.Run)
	v1.Post("/ai-workflow/start", useAssistant, assistantHandler.Start)

	// Agenda routes
	agendaHandler := handlers.NewAgendaHandler(agendaService, logger)
	v1.Get("/agenda", middleware.RequirePermission(permissions, auth.ResourceAgenda, auth.ActionRead), agendaHandler.List)

	// Provider passthrough routes
	providerHandler := handlers.NewProviderHandler(stt, tts, llm, logger)
	useProviders := middleware.RequirePermission(permissions, auth.ResourceProviders, auth.ActionUse)
	v1.Post("/stt", useProviders, providerHandler.Transcribe)
	v1.Post("/tts", useProviders, providerHandler.Synthesize)
	v1.Post("/llm", useProviders, providerHandler.Complete)
	v1.Get("/llm", useProviders, providerHandler.Greet)

	// WebSocket routes
	streamHandler := wsAdapter.NewAssistantStreamHandler(assistantService, logger)
	wsAdapter.SetupRoutes(app, streamHandler, wsHub, authenticate)

	// 13. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 14. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// newLogger builds a development logger outside production and applies the configured level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.App.Environment == "development" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if cfg.Logging.Format == "console" {
		zapCfg.Encoding = "console"
	}
	if cfg.Logging.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zapCfg.Build()
}

// allowAll grants every permission, used when authentication is disabled.
type allowAll struct{}

func (allowAll) CheckPermission(ctx context.Context, role, resource, action string) bool {
	return true
}
