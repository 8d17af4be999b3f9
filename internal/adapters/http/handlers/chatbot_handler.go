package handlers

import (
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/http/middleware"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/services"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/response"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// ChatbotHandler handles the assistant widget endpoint
type ChatbotHandler struct {
	chatbotService *services.ChatbotService
}

// NewChatbotHandler creates a new chatbot handler
func NewChatbotHandler(chatbotService *services.ChatbotService) *ChatbotHandler {
	return &ChatbotHandler{chatbotService: chatbotService}
}

// Message answers a chatbot prompt
// @Summary Chatbot message
// @Description Keyword-matched template responses, personalized when authenticated
// @Tags Chatbot
// @Accept json
// @Produce json
// @Param body body services.ChatMessageInput true "Prompt"
// @Success 200 {object} response.Response
// @Router /chatbot/message [post]
func (h *ChatbotHandler) Message(c *fiber.Ctx) error {
	var input services.ChatMessageInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, err)
	}

	// Personalization is optional; anonymous callers get generic answers
	userID, _ := c.Locals(middleware.LocalUserID).(string)

	reply := h.chatbotService.Respond(c.UserContext(), userID, &input)
	return response.Success(c, "Reply generated", reply)
}
