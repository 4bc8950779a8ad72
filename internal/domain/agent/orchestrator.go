package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"taskpilot/chat-api/internal/domain/breaker"
	"taskpilot/chat-api/internal/domain/conversation"
	"taskpilot/chat-api/internal/domain/llm"
	"taskpilot/chat-api/internal/domain/tool"
	"taskpilot/chat-api/internal/utils/platformerrors"
)

// DegradedResponse is returned to the caller when the model dependency is
// unavailable. The user's message is already stored at that point, so the
// request still succeeds.
const DegradedResponse = "I'm temporarily unable to respond. Your message has been saved, please try again in a moment."

// Options tunes the agent loop.
type Options struct {
	Model string
	// SystemPrompt is prepended to every working context when non-empty.
	SystemPrompt string
	// MaxToolIterations bounds model round trips within one request.
	MaxToolIterations int
	// MaxInputChars bounds the user message length.
	MaxInputChars int
}

// ChatParams is one user turn.
type ChatParams struct {
	OwnerID        string
	ConversationID *uint
	Message        string
}

// ChatResult is the outcome of one chat request.
type ChatResult struct {
	ConversationID uint
	Response       string
	ToolCalls      []conversation.ToolCallAudit
	Degraded       bool
}

// Orchestrator drives the stateless request cycle: persist the user turn,
// load and compress history, run the bounded tool loop against the model,
// persist at most one assistant turn.
type Orchestrator struct {
	conversations conversation.Repository
	messages      conversation.MessageRepository
	loader        *conversation.Loader
	provider      llm.Provider
	executor      tool.Executor
	cb            *breaker.CircuitBreaker
	events        *Events
	opts          Options
	logger        zerolog.Logger
}

func NewOrchestrator(
	conversations conversation.Repository,
	messages conversation.MessageRepository,
	loader *conversation.Loader,
	provider llm.Provider,
	executor tool.Executor,
	cb *breaker.CircuitBreaker,
	opts Options,
	logger zerolog.Logger,
) *Orchestrator {
	if opts.MaxToolIterations <= 0 {
		opts.MaxToolIterations = 5
	}
	return &Orchestrator{
		conversations: conversations,
		messages:      messages,
		loader:        loader,
		provider:      provider,
		executor:      executor,
		cb:            cb,
		events:        NewEvents(logger),
		opts:          opts,
		logger:        logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Chat processes one user message end to end.
func (o *Orchestrator) Chat(ctx context.Context, params ChatParams) (*ChatResult, error) {
	if err := o.validateInput(ctx, params.Message); err != nil {
		return nil, err
	}

	conv, err := o.resolveConversation(ctx, params)
	if err != nil {
		return nil, err
	}

	// The user turn is durable before any model call. A later upstream
	// failure must never lose it.
	userMsg := &conversation.Message{
		ConversationID: conv.ID,
		OwnerID:        params.OwnerID,
		Role:           conversation.RoleUser,
		Content:        params.Message,
	}
	if err := o.messages.Append(ctx, userMsg); err != nil {
		return nil, err
	}
	o.events.UserMessageStored(conv.ID, params.OwnerID)

	history, err := o.loader.Load(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	working := make([]llm.ChatMessage, 0, len(history)+1)
	if o.opts.SystemPrompt != "" {
		working = append(working, llm.ChatMessage{Role: "system", Content: o.opts.SystemPrompt})
	}
	working = append(working, history...)

	return o.runLoop(ctx, conv, params.OwnerID, working)
}

func (o *Orchestrator) validateInput(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "message must not be empty", nil)
	}
	if o.opts.MaxInputChars > 0 && utf8.RuneCountInString(message) > o.opts.MaxInputChars {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("message exceeds %d characters", o.opts.MaxInputChars), nil)
	}
	return nil
}

func (o *Orchestrator) resolveConversation(ctx context.Context, params ChatParams) (*conversation.Conversation, error) {
	if params.ConversationID != nil {
		return o.conversations.FindForOwner(ctx, *params.ConversationID, params.OwnerID)
	}
	conv := &conversation.Conversation{OwnerID: params.OwnerID}
	if err := o.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// runLoop executes the bounded tool-call cycle. Tool turns live only in
// the working slice for this request; the stored log receives at most one
// assistant message.
func (o *Orchestrator) runLoop(ctx context.Context, conv *conversation.Conversation, ownerID string, working []llm.ChatMessage) (*ChatResult, error) {
	var audits []conversation.ToolCallAudit
	definitions := o.executor.Definitions()

	for iteration := 0; iteration < o.opts.MaxToolIterations; iteration++ {
		completion, err := breaker.Do(ctx, o.cb, func(callCtx context.Context) (*llm.Completion, error) {
			return o.provider.Generate(callCtx, llm.GenerateRequest{
				Model:    o.opts.Model,
				Messages: working,
				Tools:    definitions,
			})
		})
		if err != nil {
			return o.degrade(conv, ownerID, err), nil
		}

		assistant := completion.Message
		if len(assistant.ToolCalls) == 0 {
			return o.finish(ctx, conv, ownerID, assistant.Content, audits)
		}

		working = append(working, assistant)
		for _, call := range assistant.ToolCalls {
			audit, turn := o.executeToolCall(ctx, conv.ID, ownerID, call)
			audits = append(audits, audit)
			working = append(working, turn)
		}
	}

	o.events.IterationLimitExceeded(conv.ID, ownerID, o.opts.MaxToolIterations)
	return o.finish(ctx, conv, ownerID, summarizeToolResults(audits), audits)
}

// degrade produces the fallback reply. Nothing further is persisted; the
// stored log keeps only the user turn.
func (o *Orchestrator) degrade(conv *conversation.Conversation, ownerID string, err error) *ChatResult {
	if o.cb.State() == breaker.StateOpen {
		o.events.CircuitOpen(conv.ID, ownerID)
	}
	o.events.UpstreamDegraded(conv.ID, ownerID, err)
	return &ChatResult{
		ConversationID: conv.ID,
		Response:       DegradedResponse,
		Degraded:       true,
	}
}

// finish persists the assistant turn with its tool audit and returns the
// result.
func (o *Orchestrator) finish(ctx context.Context, conv *conversation.Conversation, ownerID, content string, audits []conversation.ToolCallAudit) (*ChatResult, error) {
	assistantMsg := &conversation.Message{
		ConversationID: conv.ID,
		OwnerID:        ownerID,
		Role:           conversation.RoleAssistant,
		Content:        content,
		ToolCalls:      audits,
	}
	if err := o.messages.Append(ctx, assistantMsg); err != nil {
		return nil, err
	}
	o.events.AssistantMessageStored(conv.ID, ownerID, len(audits))

	return &ChatResult{
		ConversationID: conv.ID,
		Response:       content,
		ToolCalls:      audits,
	}, nil
}

// executeToolCall runs one requested tool and returns both the audit
// record and the ephemeral tool turn fed back to the model. Failures are
// carried in-band so the model can correct itself on the next iteration.
func (o *Orchestrator) executeToolCall(ctx context.Context, conversationID uint, ownerID string, call llm.ToolCall) (conversation.ToolCallAudit, llm.ChatMessage) {
	name := call.Function.Name
	start := time.Now()

	result, err := o.executor.Execute(ctx, ownerID, name, call.Function.Arguments)
	if err != nil {
		result = &tool.Result{
			IsError: true,
			Error:   platformerrors.SafeMessage(err, "tool execution failed"),
		}
	}
	o.events.ToolCall(conversationID, ownerID, name, time.Since(start), !result.IsError)

	audit := conversation.ToolCallAudit{
		Tool:      name,
		Arguments: rawToMap(call.Function.Arguments),
		Result:    resultToMap(result),
	}

	payload, marshalErr := json.Marshal(resultToMap(result))
	if marshalErr != nil {
		payload = []byte(`{"is_error":true,"error":"unserializable tool result"}`)
	}
	id := call.ID
	turn := llm.ChatMessage{
		Role:       "tool",
		Content:    string(payload),
		ToolCallID: &id,
	}
	return audit, turn
}

func rawToMap(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return out
}

func resultToMap(result *tool.Result) map[string]any {
	if result.IsError {
		return map[string]any{"is_error": true, "error": result.Error}
	}
	if result.Data == nil {
		return map[string]any{}
	}
	return result.Data
}

// summarizeToolResults composes the fallback reply when the iteration
// budget runs out before the model produces text.
func summarizeToolResults(audits []conversation.ToolCallAudit) string {
	if len(audits) == 0 {
		return "I wasn't able to complete that request. Please try rephrasing it."
	}

	parts := make([]string, 0, len(audits))
	for _, audit := range audits {
		outcome := "ok"
		if isErr, _ := audit.Result["is_error"].(bool); isErr {
			outcome = "failed"
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", audit.Tool, outcome))
	}
	return fmt.Sprintf("I ran these actions but couldn't finish composing a full reply: %s. Ask me to continue if anything is missing.", strings.Join(parts, ", "))
}
