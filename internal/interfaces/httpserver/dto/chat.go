package dto

import "taskpilot/chat-api/internal/domain/conversation"

// ChatRequest is the POST /v1/chat payload.
type ChatRequest struct {
	ConversationID *uint  `json:"conversation_id,omitempty"`
	Message        string `json:"message" binding:"required"`
}

// ToolCallView mirrors one audited tool execution in the response.
type ToolCallView struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Result    map[string]any `json:"result,omitempty"`
}

// ChatResponse is the POST /v1/chat reply.
type ChatResponse struct {
	ConversationID uint           `json:"conversation_id"`
	Response       string         `json:"response"`
	ToolCalls      []ToolCallView `json:"tool_calls"`
	Degraded       bool           `json:"degraded,omitempty"`
}

// MessageView is one stored message in a conversation listing.
type MessageView struct {
	ID        uint           `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []ToolCallView `json:"tool_calls,omitempty"`
	CreatedAt string         `json:"created_at"`
}

// MessagesResponse is the GET /v1/conversations/:id/messages reply.
type MessagesResponse struct {
	ConversationID uint          `json:"conversation_id"`
	Messages       []MessageView `json:"messages"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func ToolCallViews(audits []conversation.ToolCallAudit) []ToolCallView {
	out := make([]ToolCallView, 0, len(audits))
	for _, audit := range audits {
		out = append(out, ToolCallView{
			Tool:      audit.Tool,
			Arguments: audit.Arguments,
			Result:    audit.Result,
		})
	}
	return out
}
