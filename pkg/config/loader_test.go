package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadWith_Defaults(t *testing.T) {
	// Arrange
	v := viper.New()

	// Act
	cfg, err := LoadWith(v)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Mistral.Model != "mistral-small-latest" {
		t.Errorf("unexpected model %q", cfg.Mistral.Model)
	}
	if cfg.ElevenLabs.VoiceID != "Xb7hH8MSUJpSbSDYk0k2" || cfg.ElevenLabs.STTModel != "scribe_v1" {
		t.Errorf("unexpected elevenlabs defaults %+v", cfg.ElevenLabs)
	}
	if cfg.Workflow.LookupThreshold != 0.3 {
		t.Errorf("expected threshold 0.3, got %v", cfg.Workflow.LookupThreshold)
	}
	if cfg.Workflow.ProviderTimeout != 30*time.Second {
		t.Errorf("expected 30s provider timeout, got %v", cfg.Workflow.ProviderTimeout)
	}
	if cfg.Workflow.DefaultLanguage != "French" {
		t.Errorf("expected French, got %q", cfg.Workflow.DefaultLanguage)
	}
	if cfg.JWT.AccessDuration != 24*time.Hour {
		t.Errorf("expected 24h token lifetime, got %v", cfg.JWT.AccessDuration)
	}
}

func TestLoadWith_EnvAliases(t *testing.T) {
	// Arrange
	t.Setenv("MISTRAL_API_KEY", "m-key")
	t.Setenv("NATS_URL", "nats://queue:4222")
	t.Setenv("APP_WORKFLOW_MAX_PROMPT_EVENTS", "5")

	// Act
	cfg, err := LoadWith(viper.New())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Mistral.APIKey != "m-key" {
		t.Errorf("expected MISTRAL_API_KEY alias, got %q", cfg.Mistral.APIKey)
	}
	if cfg.Queue.URL != "nats://queue:4222" {
		t.Errorf("expected NATS_URL alias, got %q", cfg.Queue.URL)
	}
	if cfg.Workflow.MaxPromptEvents != 5 {
		t.Errorf("expected prefixed env override, got %d", cfg.Workflow.MaxPromptEvents)
	}
}

func validConfig() *Config {
	cfg, _ := LoadWith(viper.New())
	cfg.JWT.Secret = "secret"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"threshold too high", func(c *Config) { c.Workflow.LookupThreshold = 1 }, "lookup_threshold"},
		{"negative threshold", func(c *Config) { c.Workflow.LookupThreshold = -0.1 }, "lookup_threshold"},
		{"bad timezone", func(c *Config) { c.Region.Timezone = "Mars/Olympus" }, "region.timezone"},
		{"bad queue driver", func(c *Config) { c.Queue.Driver = "kafka" }, "queue driver"},
		{"missing jwt secret", func(c *Config) { c.JWT.Secret = "" }, "jwt.secret"},
		{"jwt disabled", func(c *Config) { c.JWT.Secret = ""; c.JWT.Disabled = true }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cfg := validConfig()
			tt.mutate(cfg)

			// Act
			err := cfg.Validate()

			// Assert
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
