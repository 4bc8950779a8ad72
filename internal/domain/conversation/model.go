package conversation

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Conversation is an append-only log of messages owned by one user.
// It is created lazily on the first message when the caller supplies no
// identifier.
type Conversation struct {
	ID        uint
	OwnerID   string
	CreatedAt time.Time
}

// Message is one immutable entry in a conversation log. The owner id is
// denormalized onto every message so isolation checks never need a join.
type Message struct {
	ID             uint
	ConversationID uint
	OwnerID        string
	Role           Role
	Content        string
	ToolCalls      []ToolCallAudit
	CreatedAt      time.Time
}

// ToolCallAudit records, on the assistant message, which tools ran while
// producing it. Intermediate tool turns themselves are never persisted.
type ToolCallAudit struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Result    map[string]any `json:"result,omitempty"`
}
