package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith reads the configuration into v. Tests pass a preconfigured viper.
// The result is not validated: secrets may still come from Vault, so callers
// run Validate once the configuration is complete.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.AddConfigPath("/app/configs")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	v.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	v.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	v.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	v.BindEnv("queue.url", "NATS_URL", "APP_QUEUE_URL")
	v.BindEnv("jwt.secret", "JWT_SECRET", "APP_JWT_SECRET")
	v.BindEnv("mistral.api_key", "MISTRAL_API_KEY", "APP_MISTRAL_API_KEY")
	v.BindEnv("elevenlabs.api_key", "ELEVENLABS_API_KEY", "APP_ELEVENLABS_API_KEY")
	v.BindEnv("notification.email.api_key", "SENDGRID_API_KEY", "APP_NOTIFICATION_EMAIL_API_KEY")
	v.BindEnv("vault.address", "VAULT_ADDR", "APP_VAULT_ADDRESS")
	v.BindEnv("vault.token", "VAULT_TOKEN", "APP_VAULT_TOKEN")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("logging.level", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "crm-ia")
	v.SetDefault("app.version", "v1.0.0")
	v.SetDefault("app.environment", "production")

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 60*time.Second)
	v.SetDefault("http.write_timeout", 120*time.Second)
	v.SetDefault("http.idle_timeout", 120*time.Second)
	v.SetDefault("http.body_limit", 25*1024*1024)

	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("queue.driver", "nats")

	v.SetDefault("jwt.issuer", "crm-ia")
	v.SetDefault("jwt.access_duration", "24h")

	v.SetDefault("mistral.base_url", "https://api.mistral.ai")
	v.SetDefault("mistral.model", "mistral-small-latest")

	v.SetDefault("elevenlabs.base_url", "https://api.elevenlabs.io")
	v.SetDefault("elevenlabs.stt_model", "scribe_v1")
	v.SetDefault("elevenlabs.voice_id", "Xb7hH8MSUJpSbSDYk0k2")
	v.SetDefault("elevenlabs.tts_model", "eleven_multilingual_v2")
	v.SetDefault("elevenlabs.output_format", "mp3_44100_128")

	v.SetDefault("workflow.provider_timeout", 30*time.Second)
	v.SetDefault("workflow.default_language", "French")
	v.SetDefault("workflow.max_prompt_events", 30)
	v.SetDefault("workflow.lookup_threshold", 0.3)
	v.SetDefault("workflow.lookup_errors_fatal", false)
	v.SetDefault("workflow.idempotency_ttl", 10*time.Minute)

	v.SetDefault("vault.path", "secret/data/crm-ia")

	v.SetDefault("opentelemetry.service_name", "crm-ia")
	v.SetDefault("opentelemetry.endpoint", "http://jaeger:14268/api/traces")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("rate_limiting.enabled", true)
	v.SetDefault("rate_limiting.max_requests", 60)
	v.SetDefault("rate_limiting.window", time.Minute)

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.failure_threshold", 5)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("notification.email.provider", "smtp")
	v.SetDefault("notification.email.from", "crm@resend.dev")
	v.SetDefault("notification.email.from_name", "CRM")
	v.SetDefault("notification.email.smtp_host", "localhost")
	v.SetDefault("notification.email.smtp_port", 1025)

	v.SetDefault("region.timezone", "Europe/Paris")
	v.SetDefault("region.locale", "fr-FR")
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Workflow.LookupThreshold < 0 || c.Workflow.LookupThreshold >= 1 {
		return fmt.Errorf("workflow.lookup_threshold must be in [0,1), got %v", c.Workflow.LookupThreshold)
	}
	if c.Workflow.MaxPromptEvents < 0 {
		return fmt.Errorf("workflow.max_prompt_events must not be negative")
	}
	if _, err := time.LoadLocation(c.Region.Timezone); err != nil {
		return fmt.Errorf("region.timezone: %w", err)
	}
	switch c.Queue.Driver {
	case "nats", "rabbitmq", "none", "":
	default:
		return fmt.Errorf("unknown queue driver: %s", c.Queue.Driver)
	}
	if !c.JWT.Disabled && c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required unless jwt.disabled is set")
	}
	return nil
}

// Location returns the configured timezone, UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Region.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
