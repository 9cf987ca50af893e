package elevenlabs

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/infrastructure/circuitbreaker"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const sttProvider = "ElevenLabs STT"

// STTClient transcribes audio with the ElevenLabs speech-to-text API
type STTClient struct {
	base
}

func NewSTTClient(cfg Config, httpClient *circuitbreaker.HTTPClient, log *zap.Logger) *STTClient {
	return &STTClient{base{cfg: cfg.withDefaults(), http: httpClient, log: log}}
}

// Transcribe uploads audio as a multipart form and returns the transcript.
func (c *STTClient) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", &domain.ProviderError{Provider: sttProvider, Err: domain.ErrProviderNotSet}
	}
	if len(audio) == 0 {
		return "", &domain.ProviderError{Provider: sttProvider, Err: domain.ErrMissingAudio}
	}
	if contentType == "" {
		contentType = "audio/wav"
	}

	body, formType, err := sttForm(audio, contentType, c.cfg.STTModel)
	if err != nil {
		return "", fmt.Errorf("elevenlabs: build form: %w", err)
	}

	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/speech-to-text", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("xi-api-key", c.cfg.APIKey)
		req.Header.Set("Content-Type", formType)
		return req, nil
	})
	if err != nil {
		return "", &domain.ProviderError{Provider: sttProvider, Err: err}
	}
	if !resp.OK() {
		return "", &domain.ProviderError{Provider: sttProvider, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	fields := gjson.GetManyBytes(resp.Body, "text", "transcription")
	if !fields[0].Exists() && !fields[1].Exists() {
		return "", &domain.ProviderError{Provider: sttProvider, StatusCode: resp.StatusCode, Body: string(resp.Body), Err: domain.ErrEmptyProviderReply}
	}
	var text string
	for _, f := range fields {
		if text = strings.TrimSpace(f.String()); text != "" {
			break
		}
	}

	c.log.Debug("Audio transcribed",
		zap.Int("audio_bytes", len(audio)),
		zap.Int("transcript_length", len(text)),
	)

	return text, nil
}

func sttForm(audio []byte, contentType, model string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="audio.wav"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("model_id", model); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
