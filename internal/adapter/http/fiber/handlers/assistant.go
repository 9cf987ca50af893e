package handlers

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/ports"
)

// AssistantHandler exposes the voice scheduling workflow over HTTP
type AssistantHandler struct {
	assistant ports.AssistantService
	// allowBodyUser honours the userId sent by the client, only when authentication is off
	allowBodyUser bool
	log           *zap.Logger
}

func NewAssistantHandler(assistant ports.AssistantService, allowBodyUser bool, log *zap.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistant:     assistant,
		allowBodyUser: allowBodyUser,
		log:           log,
	}
}

type WorkflowRequest struct {
	Transcription string `json:"transcription"`
	UserID        string `json:"userId"`
}

type WorkflowResponse struct {
	OK               bool           `json:"ok"`
	Text             string         `json:"text"`
	Audio            string         `json:"audio"`
	AudioContentType string         `json:"audio_content_type"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	EventID          string         `json:"event_id,omitempty"`
}

// Run handles POST /api/v1/ai-workflow with either a JSON transcription or a raw audio body
func (h *AssistantHandler) Run(c *fiber.Ctx) error {
	contentType := c.Get(fiber.HeaderContentType)
	cmd := domain.VoiceCommand{UserID: localUserID(c)}

	switch {
	case strings.Contains(contentType, fiber.MIMEApplicationJSON):
		var req WorkflowRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "Invalid request body"})
		}
		cmd.Transcription = req.Transcription
		if cmd.UserID == "" && h.allowBodyUser {
			cmd.UserID = req.UserID
		}
	case strings.HasPrefix(contentType, "audio/"), strings.HasPrefix(contentType, fiber.MIMEOctetStream):
		cmd.Audio = bytes.Clone(c.Body())
		cmd.AudioContentType = contentType
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "Unsupported content-type"})
	}

	result := h.assistant.RunWorkflow(c.UserContext(), cmd)
	if !result.OK {
		h.log.Warn("Assistant workflow failed",
			zap.String("user_id", cmd.UserID),
			zap.String("kind", string(result.Kind)),
			zap.String("error", result.Error),
		)
		return c.Status(statusForKind(result.Kind)).JSON(fiber.Map{
			"ok":    false,
			"error": result.Error,
			"kind":  result.Kind,
		})
	}

	if strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEMultipartForm) {
		return writeMultipartResult(c, result)
	}

	return c.JSON(WorkflowResponse{
		OK:               true,
		Text:             result.Text,
		Audio:            base64.StdEncoding.EncodeToString(result.Audio),
		AudioContentType: result.AudioContentType,
		Metadata:         result.Metadata,
		EventID:          result.EventID,
	})
}

// Start handles POST /api/v1/ai-workflow/start: language and transcription of a raw audio body
func (h *AssistantHandler) Start(c *fiber.Ctx) error {
	probe := h.assistant.DetectLanguage(c.UserContext(), bytes.Clone(c.Body()), c.Get(fiber.HeaderContentType))
	if !probe.OK {
		h.log.Warn("Language probe failed", zap.String("error", probe.Error))
		return c.Status(statusForKind(probe.Kind)).JSON(fiber.Map{"error": probe.Error})
	}

	return c.JSON(fiber.Map{
		"language":      probe.Language,
		"transcription": probe.Transcription,
	})
}

func writeMultipartResult(c *fiber.Ctx, result *domain.WorkflowResult) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="audio"; filename="ai-response.mp3"`)
	header.Set("Content-Type", result.AudioContentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := part.Write(result.Audio); err != nil {
		return err
	}
	if err := w.WriteField("text", result.Text); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, w.FormDataContentType())
	return c.Send(body.Bytes())
}

func statusForKind(kind domain.ErrorKind) int {
	if kind == domain.ErrorKindInput {
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func localUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}
