package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"taskpilot/chat-api/internal/domain/agent"
	"taskpilot/chat-api/internal/domain/breaker"
	"taskpilot/chat-api/internal/infrastructure/metrics"
	"taskpilot/chat-api/internal/infrastructure/observability"
	"taskpilot/chat-api/internal/interfaces/httpserver/dto"
	"taskpilot/chat-api/internal/utils/platformerrors"
)

// ChatHandler serves the chat endpoint.
type ChatHandler struct {
	orchestrator *agent.Orchestrator
	cb           *breaker.CircuitBreaker
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

func NewChatHandler(orchestrator *agent.Orchestrator, cb *breaker.CircuitBreaker, m *metrics.Metrics, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		cb:           cb,
		metrics:      m,
		logger:       logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Chat handles POST /v1/chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	start := time.Now()

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.observe(start, "validation_error")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "message is required"})
		return
	}

	ctx, span := observability.StartSpan(c.Request.Context(), "chat.request")
	defer span.End()

	result, err := h.orchestrator.Chat(ctx, agent.ChatParams{
		OwnerID:        OwnerID(c),
		ConversationID: req.ConversationID,
		Message:        req.Message,
	})
	if err != nil {
		h.observe(start, "error")
		RespondError(c, h.logger, err)
		return
	}

	if h.metrics != nil {
		h.metrics.SetCircuitOpen(h.cb.State() == breaker.StateOpen)
		for _, call := range result.ToolCalls {
			isErr, _ := call.Result["is_error"].(bool)
			h.metrics.ObserveToolCall(call.Tool, !isErr)
		}
	}

	status := "ok"
	if result.Degraded {
		status = "degraded"
	}
	h.observe(start, status)

	c.JSON(http.StatusOK, dto.ChatResponse{
		ConversationID: result.ConversationID,
		Response:       result.Response,
		ToolCalls:      dto.ToolCallViews(result.ToolCalls),
		Degraded:       result.Degraded,
	})
}

func (h *ChatHandler) observe(start time.Time, status string) {
	if h.metrics != nil {
		h.metrics.ObserveChatRequest(time.Since(start), status)
	}
}

// RespondError maps typed errors onto HTTP responses. Internal details
// never leak to the client.
func RespondError(c *gin.Context, logger zerolog.Logger, err error) {
	var pe *platformerrors.PlatformError
	if !errors.As(err, &pe) {
		pe = platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler,
			platformerrors.ErrorTypeInternal, "internal server error", err)
	}

	status := platformerrors.ErrorTypeToHTTPStatus(pe.Type)
	message := pe.Message
	if status >= http.StatusInternalServerError {
		message = "internal server error"
	}

	platformerrors.LogError(logger, pe)
	c.JSON(status, dto.ErrorResponse{Error: message, RequestID: pe.RequestID})
}
