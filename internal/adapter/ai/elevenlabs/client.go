package elevenlabs

import (
	"strings"

	"github.com/seu-repo/crm-ia/internal/infrastructure/circuitbreaker"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL      = "https://api.elevenlabs.io"
	DefaultSTTModel     = "scribe_v1"
	DefaultVoiceID      = "Xb7hH8MSUJpSbSDYk0k2"
	DefaultTTSModel     = "eleven_multilingual_v2"
	DefaultOutputFormat = "mp3_44100_128"
)

// Config holds the account key and the defaults applied to every call.
type Config struct {
	APIKey       string
	BaseURL      string
	STTModel     string
	VoiceID      string
	TTSModel     string
	OutputFormat string
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.STTModel == "" {
		c.STTModel = DefaultSTTModel
	}
	if c.VoiceID == "" {
		c.VoiceID = DefaultVoiceID
	}
	if c.TTSModel == "" {
		c.TTSModel = DefaultTTSModel
	}
	if c.OutputFormat == "" {
		c.OutputFormat = DefaultOutputFormat
	}
	return c
}

type base struct {
	cfg  Config
	http *circuitbreaker.HTTPClient
	log  *zap.Logger
}
