package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/ports"
)

type AgendaHandler struct {
	service ports.AgendaService
	log     *zap.Logger
}

func NewAgendaHandler(service ports.AgendaService, log *zap.Logger) *AgendaHandler {
	return &AgendaHandler{
		service: service,
		log:     log,
	}
}

// List handles GET /api/v1/agenda
func (h *AgendaHandler) List(c *fiber.Ctx) error {
	userID := localUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "userId is required"})
	}

	events, err := h.service.ListEvents(c.UserContext(), userID)
	if err != nil {
		h.log.Error("Failed to list agenda", zap.String("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"details": err.Error(),
		})
	}

	return c.JSON(events)
}
