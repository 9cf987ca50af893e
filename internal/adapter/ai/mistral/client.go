package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/infrastructure/circuitbreaker"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	providerName = "Mistral"

	DefaultBaseURL = "https://api.mistral.ai"
	DefaultModel   = "mistral-small-latest"

	// SystemInstruction is sent with every completion: answers are consumed by
	// the assistant pipeline, not shown verbatim to the user.
	SystemInstruction = "You do not communicate directly with the user, so dont style your answers as if you were doing so. " +
		"Instead, provide your response in a format that can be used by another system to communicate with the user. " +
		"Keep your responses concise and to the point."
)

// responsePaths lists where the completion text may live, in order.
var responsePaths = []string{
	"choices.0.message.content",
	"choices.0.text",
	"text",
	"output.0.content",
}

// Client talks to the Mistral chat completions API
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *circuitbreaker.HTTPClient
	log     *zap.Logger
}

// NewClient creates a new Mistral API client
func NewClient(apiKey, baseURL, model string, httpClient *circuitbreaker.HTTPClient, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    httpClient,
		log:     log,
	}
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// Complete sends prompt with the fixed system instruction and returns the reply text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", &domain.ProviderError{Provider: providerName, Err: domain.ErrProviderNotSet}
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: SystemInstruction},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("mistral: marshal request: %w", err)
	}

	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return "", &domain.ProviderError{Provider: providerName, Err: err}
	}

	if !resp.OK() {
		return "", &domain.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	text, ok := ResponseText(resp.Body)
	if !ok {
		return "", &domain.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Body: string(resp.Body), Err: domain.ErrEmptyProviderReply}
	}

	c.log.Debug("Mistral completion received",
		zap.String("model", c.model),
		zap.Int("reply_length", len(text)),
	)

	return text, nil
}

// ResponseText pulls the completion text out of the known response shapes.
// A response that is not JSON is returned as-is.
func ResponseText(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		text := strings.TrimSpace(string(body))
		return text, text != ""
	}
	for _, path := range responsePaths {
		if r := gjson.GetBytes(body, path); r.Exists() && r.Type == gjson.String {
			return r.String(), true
		}
	}
	return "", false
}
