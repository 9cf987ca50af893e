package websocket

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/ports"
)

const (
	MessageProbe  = "probe"
	MessageResult = "result"
	MessageError  = "error"
)

// StreamMessage is every frame the server writes on /ws/assistant
type StreamMessage struct {
	Type             string                      `json:"type"`
	Probe            *domain.LanguageProbeResult `json:"probe,omitempty"`
	OK               bool                        `json:"ok"`
	Text             string                      `json:"text,omitempty"`
	Audio            string                      `json:"audio,omitempty"`
	AudioContentType string                      `json:"audio_content_type,omitempty"`
	Metadata         map[string]any              `json:"metadata,omitempty"`
	EventID          string                      `json:"event_id,omitempty"`
	Error            string                      `json:"error,omitempty"`
	Kind             domain.ErrorKind            `json:"kind,omitempty"`
}

// textCommand is a text frame carrying an already transcribed command
type textCommand struct {
	Transcription string `json:"transcription"`
}

// AssistantStreamHandler runs the assistant over a websocket. A binary
// frame is treated as recorded audio: the probe result is sent first, then
// the workflow result computed from the probe transcript.
type AssistantStreamHandler struct {
	assistant ports.AssistantService
	log       *zap.Logger
}

func NewAssistantStreamHandler(assistant ports.AssistantService, log *zap.Logger) *AssistantStreamHandler {
	return &AssistantStreamHandler{
		assistant: assistant,
		log:       log,
	}
}

// HandleAssistantStream serves one connection until the client disconnects
func (h *AssistantStreamHandler) HandleAssistantStream(c *websocket.Conn) {
	userID, _ := c.Locals("user_id").(string)
	contentType := c.Query("content_type", "audio/webm")

	ctx := context.Background()

	for {
		messageType, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("Assistant stream closed unexpectedly", zap.String("user_id", userID), zap.Error(err))
			}
			return
		}

		var replies []StreamMessage
		switch messageType {
		case websocket.BinaryMessage:
			replies = h.handleAudio(ctx, userID, data, contentType)
		case websocket.TextMessage:
			replies = []StreamMessage{h.handleText(ctx, userID, data)}
		default:
			continue
		}

		for _, reply := range replies {
			if err := c.WriteJSON(reply); err != nil {
				h.log.Error("Failed to write assistant stream message", zap.String("user_id", userID), zap.Error(err))
				return
			}
		}
	}
}

func (h *AssistantStreamHandler) handleAudio(ctx context.Context, userID string, audio []byte, contentType string) []StreamMessage {
	probe := h.assistant.DetectLanguage(ctx, audio, contentType)
	replies := []StreamMessage{{Type: MessageProbe, OK: probe.OK, Probe: probe}}
	if !probe.OK {
		return replies
	}

	result := h.assistant.RunWorkflow(ctx, domain.VoiceCommand{
		UserID:        userID,
		Transcription: probe.Transcription,
	})
	return append(replies, resultMessage(result))
}

func (h *AssistantStreamHandler) handleText(ctx context.Context, userID string, data []byte) StreamMessage {
	var cmd textCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return StreamMessage{Type: MessageError, Error: "invalid message", Kind: domain.ErrorKindInput}
	}

	result := h.assistant.RunWorkflow(ctx, domain.VoiceCommand{
		UserID:        userID,
		Transcription: cmd.Transcription,
	})
	return resultMessage(result)
}

func resultMessage(result *domain.WorkflowResult) StreamMessage {
	msg := StreamMessage{
		Type:             MessageResult,
		OK:               result.OK,
		Text:             result.Text,
		AudioContentType: result.AudioContentType,
		Metadata:         result.Metadata,
		EventID:          result.EventID,
		Error:            result.Error,
		Kind:             result.Kind,
	}
	if len(result.Audio) > 0 {
		msg.Audio = base64.StdEncoding.EncodeToString(result.Audio)
	}
	return msg
}

// HandleUpdates registers the connection on the hub for agenda notifications
func (h *Hub) HandleUpdates(c *websocket.Conn) {
	userID, _ := c.Locals("user_id").(string)
	h.AddClient(c, userID)
}

// SetupRoutes mounts /ws/assistant and /ws/updates on router. The handlers in
// auth run after the upgrade check and must set the user_id local.
func SetupRoutes(router fiber.Router, stream *AssistantStreamHandler, hub *Hub, auth ...fiber.Handler) {
	upgrade := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	ws := router.Group("/ws", append([]fiber.Handler{upgrade}, auth...)...)
	ws.Get("/assistant", websocket.New(stream.HandleAssistantStream))
	ws.Get("/updates", websocket.New(hub.HandleUpdates))
}
