package tool

import (
	"context"
	"encoding/json"

	"taskpilot/chat-api/internal/domain/llm"
)

// Result is the outcome of one tool execution. Execution failures are
// carried in-band via IsError so the agent loop can feed them back to the
// model instead of aborting the conversation.
type Result struct {
	Data    map[string]any `json:"data,omitempty"`
	IsError bool           `json:"is_error,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Executor is the boundary between the agent loop and the tools. Tool
// names form a closed set; asking for an unregistered name is a
// validation error, never a dynamic dispatch.
type Executor interface {
	Definitions() []llm.ToolDefinition
	Execute(ctx context.Context, ownerID string, name string, args json.RawMessage) (*Result, error)
}
