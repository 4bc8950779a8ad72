package agent

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"
)

// Event names emitted by the agent loop. Dashboards key off these values,
// so they are stable strings rather than free-form log text.
const (
	eventUserMessageStored      = "user_message_stored"
	eventAssistantMessageStored = "assistant_message_stored"
	eventAgentToolCall          = "agent_tool_call"
	eventCircuitOpen            = "circuit_open"
	eventUpstreamDegraded       = "upstream_degraded"
	eventIterationLimitExceeded = "iteration_limit_exceeded"
)

// Events writes the agent's structured log events. Owner identifiers are
// hashed before logging so raw user ids never appear in log output.
type Events struct {
	logger zerolog.Logger
}

func NewEvents(logger zerolog.Logger) *Events {
	return &Events{logger: logger.With().Str("component", "agent").Logger()}
}

// HashOwner derives a short stable pseudonym for an owner id.
func HashOwner(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])[:12]
}

func (e *Events) base(event string, conversationID uint, ownerID string) *zerolog.Event {
	return e.logger.Info().
		Str("event", event).
		Uint("conversation_id", conversationID).
		Str("owner_hash", HashOwner(ownerID))
}

func (e *Events) UserMessageStored(conversationID uint, ownerID string) {
	e.base(eventUserMessageStored, conversationID, ownerID).Send()
}

func (e *Events) AssistantMessageStored(conversationID uint, ownerID string, toolCalls int) {
	e.base(eventAssistantMessageStored, conversationID, ownerID).
		Int("tool_calls", toolCalls).
		Send()
}

func (e *Events) ToolCall(conversationID uint, ownerID, tool string, duration time.Duration, succeeded bool) {
	outcome := "ok"
	if !succeeded {
		outcome = "error"
	}
	e.base(eventAgentToolCall, conversationID, ownerID).
		Str("tool", tool).
		Dur("duration", duration).
		Str("outcome", outcome).
		Send()
}

func (e *Events) CircuitOpen(conversationID uint, ownerID string) {
	e.logger.Warn().
		Str("event", eventCircuitOpen).
		Uint("conversation_id", conversationID).
		Str("owner_hash", HashOwner(ownerID)).
		Send()
}

func (e *Events) UpstreamDegraded(conversationID uint, ownerID string, err error) {
	e.logger.Warn().
		Str("event", eventUpstreamDegraded).
		Uint("conversation_id", conversationID).
		Str("owner_hash", HashOwner(ownerID)).
		Err(err).
		Send()
}

func (e *Events) IterationLimitExceeded(conversationID uint, ownerID string, iterations int) {
	e.logger.Warn().
		Str("event", eventIterationLimitExceeded).
		Uint("conversation_id", conversationID).
		Str("owner_hash", HashOwner(ownerID)).
		Int("iterations", iterations).
		Send()
}
