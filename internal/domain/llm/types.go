package llm

import (
	"context"
	"encoding/json"
)

// Provider is the single narrow boundary to the model dependency. All
// upstream suspension is confined here; callers wrap invocations in a
// circuit breaker that enforces the per-call timeout.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (*Completion, error)
}

// GenerateRequest carries one model invocation: the working context plus
// the tool schema manifest.
type GenerateRequest struct {
	Model    string           `json:"model"`
	Messages []ChatMessage    `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// ChatMessage represents a single turn in the working context.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID *string    `json:"tool_call_id,omitempty"`
}

// ToolCall mirrors the OpenAI tool call format.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction contains the function name and raw JSON arguments.
type ToolFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition is the OpenAI compatible representation of a tool.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function ToolFunctionSchema `json:"function"`
}

// ToolFunctionSchema declares the function contract passed to the model.
type ToolFunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// Completion captures the assistant turn produced by one model call.
type Completion struct {
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
	Usage        *Usage      `json:"usage,omitempty"`
}

// Usage contains token accounting metadata reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
