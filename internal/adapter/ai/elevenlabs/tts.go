package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/crm-ia/internal/ports"
	"go.uber.org/zap"
)

const ttsProvider = "ElevenLabs TTS"

// TTSClient synthesizes speech with the ElevenLabs text-to-speech API
type TTSClient struct {
	base
}

func NewTTSClient(cfg Config, httpClient *circuitbreaker.HTTPClient, log *zap.Logger) *TTSClient {
	return &TTSClient{base{cfg: cfg.withDefaults(), http: httpClient, log: log}}
}

type ttsRequest struct {
	Text         string `json:"text"`
	ModelID      string `json:"model_id"`
	OutputFormat string `json:"output_format"`
}

// Synthesize returns the encoded audio for text. Empty options fall back to the client defaults.
func (c *TTSClient) Synthesize(ctx context.Context, text string, opts ports.SpeechOptions) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, &domain.ProviderError{Provider: ttsProvider, Err: domain.ErrProviderNotSet}
	}

	voice := opts.VoiceID
	if voice == "" {
		voice = c.cfg.VoiceID
	}
	reqBody := ttsRequest{
		Text:         text,
		ModelID:      opts.ModelID,
		OutputFormat: opts.OutputFormat,
	}
	if reqBody.ModelID == "" {
		reqBody.ModelID = c.cfg.TTSModel
	}
	if reqBody.OutputFormat == "" {
		reqBody.OutputFormat = c.cfg.OutputFormat
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	endpoint := c.cfg.BaseURL + "/v1/text-to-speech/" + url.PathEscape(voice)
	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("xi-api-key", c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/mpeg")
		return req, nil
	})
	if err != nil {
		return nil, &domain.ProviderError{Provider: ttsProvider, Err: err}
	}
	if !resp.OK() {
		return nil, &domain.ProviderError{Provider: ttsProvider, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	if len(resp.Body) == 0 {
		return nil, &domain.ProviderError{Provider: ttsProvider, StatusCode: resp.StatusCode, Err: domain.ErrEmptyProviderReply}
	}

	c.log.Debug("Speech synthesized",
		zap.String("voice_id", voice),
		zap.Int("audio_bytes", len(resp.Body)),
	)

	return resp.Body, nil
}
