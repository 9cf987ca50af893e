package handlers

import (
	"bytes"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/ports"
)

// llmGreetingPrompt is sent by GET /api/v1/llm as a connectivity check
const llmGreetingPrompt = "Bonjour, introduisez-vous."

// ProviderHandler exposes the speech and language providers directly
type ProviderHandler struct {
	stt ports.SpeechToText
	tts ports.TextToSpeech
	llm ports.LanguageModel
	log *zap.Logger
}

func NewProviderHandler(stt ports.SpeechToText, tts ports.TextToSpeech, llm ports.LanguageModel, log *zap.Logger) *ProviderHandler {
	return &ProviderHandler{
		stt: stt,
		tts: tts,
		llm: llm,
		log: log,
	}
}

// Transcribe handles POST /api/v1/stt with a raw audio body or a multipart "file" field
func (h *ProviderHandler) Transcribe(c *fiber.Ctx) error {
	audio, contentType, err := audioFromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}

	text, err := h.stt.Transcribe(c.UserContext(), audio, contentType)
	if err != nil {
		h.log.Error("Transcription failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"ok": true, "text": text})
}

type SpeechRequest struct {
	Text         string `json:"text"`
	VoiceID      string `json:"voice_id"`
	ModelID      string `json:"model_id"`
	OutputFormat string `json:"output_format"`
}

// Synthesize handles POST /api/v1/tts and answers with the audio bytes
func (h *ProviderHandler) Synthesize(c *fiber.Ctx) error {
	var req SpeechRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": `Missing "text" in request body`})
	}

	audio, err := h.tts.Synthesize(c.UserContext(), req.Text, ports.SpeechOptions{
		VoiceID:      req.VoiceID,
		ModelID:      req.ModelID,
		OutputFormat: req.OutputFormat,
	})
	if err != nil {
		h.log.Error("Speech synthesis failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="speech.mp3"`)
	return c.Send(audio)
}

type CompletionRequest struct {
	Prompt string `json:"prompt"`
}

// Complete handles POST /api/v1/llm
func (h *ProviderHandler) Complete(c *fiber.Ctx) error {
	var req CompletionRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "Missing `prompt` in request body"})
	}
	return h.complete(c, req.Prompt)
}

// Greet handles GET /api/v1/llm
func (h *ProviderHandler) Greet(c *fiber.Ctx) error {
	return h.complete(c, llmGreetingPrompt)
}

func (h *ProviderHandler) complete(c *fiber.Ctx, prompt string) error {
	content, err := h.llm.Complete(c.UserContext(), prompt)
	if err != nil {
		h.log.Error("Completion failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	if strings.TrimSpace(content) == "" {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "No assistant message in response"})
	}
	return c.JSON(fiber.Map{"ok": true, "content": content})
}

func audioFromRequest(c *fiber.Ctx) ([]byte, string, error) {
	contentType := c.Get(fiber.HeaderContentType)
	if !strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		return bytes.Clone(c.Body()), contentType, nil
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, `Missing "file" form field`)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	audio, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return audio, fh.Header.Get(fiber.HeaderContentType), nil
}
