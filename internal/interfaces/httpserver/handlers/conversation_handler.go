package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"taskpilot/chat-api/internal/domain/conversation"
	"taskpilot/chat-api/internal/interfaces/httpserver/dto"
)

// ConversationHandler serves conversation read endpoints.
type ConversationHandler struct {
	conversations conversation.Repository
	messages      conversation.MessageRepository
	logger        zerolog.Logger
}

func NewConversationHandler(conversations conversation.Repository, messages conversation.MessageRepository, logger zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		messages:      messages,
		logger:        logger.With().Str("component", "conversation_handler").Logger(),
	}
}

// ListMessages handles GET /v1/conversations/:conversation_id/messages.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	raw := c.Param("conversation_id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "conversation_id must be a positive integer"})
		return
	}
	conversationID := uint(id)
	ownerID := OwnerID(c)

	// Ownership check first so foreign ids read as not found.
	if _, err := h.conversations.FindForOwner(c.Request.Context(), conversationID, ownerID); err != nil {
		RespondError(c, h.logger, err)
		return
	}

	msgs, err := h.messages.ListByConversationID(c.Request.Context(), conversationID)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	views := make([]dto.MessageView, 0, len(msgs))
	for _, msg := range msgs {
		views = append(views, dto.MessageView{
			ID:        msg.ID,
			Role:      string(msg.Role),
			Content:   msg.Content,
			ToolCalls: dto.ToolCallViews(msg.ToolCalls),
			CreatedAt: msg.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, dto.MessagesResponse{
		ConversationID: conversationID,
		Messages:       views,
	})
}
