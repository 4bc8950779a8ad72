package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"taskpilot/chat-api/internal/domain/breaker"
	"taskpilot/chat-api/internal/domain/conversation"
	"taskpilot/chat-api/internal/domain/llm"
	"taskpilot/chat-api/internal/domain/tool"
	"taskpilot/chat-api/internal/utils/platformerrors"
)

type fakeConvRepo struct {
	nextID uint
	convs  map[uint]conversation.Conversation
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{nextID: 1, convs: make(map[uint]conversation.Conversation)}
}

func (f *fakeConvRepo) Create(_ context.Context, conv *conversation.Conversation) error {
	conv.ID = f.nextID
	f.nextID++
	f.convs[conv.ID] = *conv
	return nil
}

func (f *fakeConvRepo) FindForOwner(ctx context.Context, id uint, ownerID string) (*conversation.Conversation, error) {
	conv, ok := f.convs[id]
	if !ok || conv.OwnerID != ownerID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound, "conversation not found", nil)
	}
	copied := conv
	return &copied, nil
}

func (f *fakeConvRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type fakeMsgRepo struct {
	messages []conversation.Message
}

func (f *fakeMsgRepo) Append(_ context.Context, msg *conversation.Message) error {
	msg.ID = uint(len(f.messages) + 1)
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMsgRepo) ListRecent(_ context.Context, conversationID uint, limit int) ([]conversation.Message, error) {
	var out []conversation.Message
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeMsgRepo) ListByConversationID(_ context.Context, conversationID uint) ([]conversation.Message, error) {
	return f.ListRecent(context.Background(), conversationID, 1<<30)
}

// scriptedProvider returns canned completions in sequence.
type scriptedProvider struct {
	completions []*llm.Completion
	errs        []error
	calls       int
	requests    []llm.GenerateRequest
}

func (p *scriptedProvider) Generate(_ context.Context, req llm.GenerateRequest) (*llm.Completion, error) {
	p.requests = append(p.requests, req)
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i < len(p.completions) {
		return p.completions[i], nil
	}
	return &llm.Completion{Message: llm.ChatMessage{Role: "assistant", Content: "done"}}, nil
}

type fakeExecutor struct {
	calls   []string
	results map[string]*tool.Result
	errs    map[string]error
}

func (f *fakeExecutor) Definitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{{
		Type:     "function",
		Function: llm.ToolFunctionSchema{Name: "add_task", Parameters: map[string]any{"type": "object"}},
	}}
}

func (f *fakeExecutor) Execute(_ context.Context, _ string, name string, _ json.RawMessage) (*tool.Result, error) {
	f.calls = append(f.calls, name)
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	if result, ok := f.results[name]; ok {
		return result, nil
	}
	return &tool.Result{Data: map[string]any{"ok": true}}, nil
}

func textCompletion(content string) *llm.Completion {
	return &llm.Completion{
		Message:      llm.ChatMessage{Role: "assistant", Content: content},
		FinishReason: "stop",
	}
}

func toolCompletion(name string, args string) *llm.Completion {
	return &llm.Completion{
		Message: llm.ChatMessage{
			Role: "assistant",
			ToolCalls: []llm.ToolCall{{
				ID:   "call_1",
				Type: "function",
				Function: llm.ToolFunction{
					Name:      name,
					Arguments: json.RawMessage(args),
				},
			}},
		},
		FinishReason: "tool_calls",
	}
}

type harness struct {
	orch     *Orchestrator
	convs    *fakeConvRepo
	msgs     *fakeMsgRepo
	provider *scriptedProvider
	executor *fakeExecutor
	cb       *breaker.CircuitBreaker
}

func newHarness(provider *scriptedProvider, opts Options) *harness {
	convs := newFakeConvRepo()
	msgs := &fakeMsgRepo{}
	executor := &fakeExecutor{}
	cb := breaker.New(breaker.Config{FailureThreshold: 3, RecoveryTimeout: time.Minute}, zerolog.Nop())
	loader := conversation.NewLoader(msgs, conversation.KeywordSummarizer{},
		conversation.ContextBudget{MaxMessages: 50, MaxContextChars: 32000, RecentAlways: 10},
		zerolog.Nop())

	if opts.Model == "" {
		opts.Model = "test-model"
	}
	if opts.MaxToolIterations == 0 {
		opts.MaxToolIterations = 5
	}
	orch := NewOrchestrator(convs, msgs, loader, provider, executor, cb, opts, zerolog.Nop())
	return &harness{orch: orch, convs: convs, msgs: msgs, provider: provider, executor: executor, cb: cb}
}

func (h *harness) persistedByRole(role conversation.Role) []conversation.Message {
	var out []conversation.Message
	for _, msg := range h.msgs.messages {
		if msg.Role == role {
			out = append(out, msg)
		}
	}
	return out
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	h := newHarness(&scriptedProvider{}, Options{})
	_, err := h.orch.Chat(context.Background(), ChatParams{OwnerID: "alice", Message: "   "})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
	if len(h.msgs.messages) != 0 {
		t.Error("nothing should be persisted for invalid input")
	}
}

func TestChatRejectsOversizedMessage(t *testing.T) {
	h := newHarness(&scriptedProvider{}, Options{MaxInputChars: 10})
	_, err := h.orch.Chat(context.Background(), ChatParams{OwnerID: "alice", Message: strings.Repeat("a", 11)})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestChatCreatesConversationWhenMissing(t *testing.T) {
	provider := &scriptedProvider{completions: []*llm.Completion{textCompletion("hello")}}
	h := newHarness(provider, Options{})

	result, err := h.orch.Chat(context.Background(), ChatParams{OwnerID: "alice", Message: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ConversationID == 0 {
		t.Error("expected a new conversation id")
	}
	if result.Response != "hello" {
		t.Errorf("response = %q", result.Response)
	}
}

func TestChatRejectsForeignConversation(t *testing.T) {
	h := newHarness(&scriptedProvider{}, Options{})
	conv := &conversation.Conversation{OwnerID: "alice"}
	h.convs.Create(context.Background(), conv)

	_, err := h.orch.Chat(context.Background(), ChatParams{
		OwnerID: "bob", ConversationID: &conv.ID, Message: "hi",
	})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("err = %v, want not found for foreign conversation", err)
	}
}

func TestChatToolLoopPersistsSingleAssistantMessage(t *testing.T) {
	provider := &scriptedProvider{completions: []*llm.Completion{
		toolCompletion("add_task", `{"title":"buy milk"}`),
		textCompletion("Added the task for you."),
	}}
	h := newHarness(provider, Options{})

	result, err := h.orch.Chat(context.Background(), ChatParams{OwnerID: "alice", Message: "add buy milk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Response != "Added the task for you." {
		t.Errorf("response = %q", result.Response)
	}
	if len(result.ToolCalls) != 1 || result.ToolCalls[0].Tool != "add_task" {
		t.Errorf("tool calls = %v", result.ToolCalls)
	}
	if got := h.executor.calls; len(got) != 1 || got[0] != "add_task" {
		t.Errorf("executed tools = %v", got)
	}

	// Exactly one user and one assistant turn stored; intermediate tool
	// turns never reach the log.
	if got := h.persistedByRole(conversation.RoleUser); len(got) != 1 {
		t.Errorf("stored user messages = %d, want 1", len(got))
	}
	assistants := h.persistedByRole(conversation.RoleAssistant)
	if len(assistants) != 1 {
		t.Fatalf("stored assistant messages = %d, want 1", len(assistants))
	}
	if len(assistants[0].ToolCalls) != 1 {
		t.Errorf("assistant audit = %v, want 1 entry", assistants[0].ToolCalls)
	}

	// The second model call must see the assistant tool request and the
	// tool result turn.
	if provider.calls != 2 {
		t.Fatalf("provider calls = %d, want 2", provider.calls)
	}
	second := provider.requests[1].Messages
	var sawTool bool
	for _, msg := range second {
		if msg.Role == "tool" {
			sawTool = true
			if msg.ToolCallID == nil || *msg.ToolCallID != "call_1" {
				t.Error("tool turn missing tool_call_id")
			}
		}
	}
	if !sawTool {
		t.Error("tool result turn missing from second model call")
	}
}

func TestChatDegradesWhenCircuitOpen(t *testing.T) {
	boom := errors.New("upstream down")
	provider := &scriptedProvider{errs: []error{boom, boom, boom, boom}}
	h := newHarness(provider, Options{})

	// Three failing requests open the circuit.
	for i := 0; i < 3; i++ {
		result, err := h.orch.Chat(context.Background(), ChatParams{OwnerID: "alice", Message: "hi"})
		if err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
		if !result.Degraded {
			t.Fatalf("request %d should be degraded", i)
		}
	}
	if got := h.cb.State(); got != breaker.StateOpen {
		t.Fatalf("breaker state = %s, want open", got)
	}

	// Fourth request fails fast without touching the provider.
	before := provider.calls
	result, err := h.orch.Chat(context.Background(), ChatParams{OwnerID: "alice", Message: "hi again"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Degraded || result.Response != DegradedResponse {
		t.Errorf("result = %+v, want degraded fallback", result)
	}
	if provider.calls != before {
		t.Errorf("provider called while circuit open")
	}

	// Every user message is stored, no assistant messages.
	if got := h.persistedByRole(conversation.RoleUser); len(got) != 4 {
		t.Errorf("stored user messages = %d, want 4", len(got))
	}
	if got := h.persistedByRole(conversation.RoleAssistant); len(got) != 0 {
		t.Errorf("stored assistant messages = %d, want 0 when degraded", len(got))
	}
}

func TestChatIterationLimitProducesSummary(t *testing.T) {
	// The model keeps asking for tools and never returns text.
	var completions []*llm.Completion
	for i := 0; i < 10; i++ {
		completions = append(completions, toolCompletion("add_task", `{"title":"t"}`))
	}
	provider := &scriptedProvider{completions: completions}
	h := newHarness(provider, Options{MaxToolIterations: 3})

	result, err := h.orch.Chat(context.Background(), ChatParams{OwnerID: "alice", Message: "go wild"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.calls != 3 {
		t.Errorf("provider calls = %d, want 3", provider.calls)
	}
	if result.Response == "" || !strings.Contains(result.Response, "add_task") {
		t.Errorf("summary response = %q, want mention of executed tools", result.Response)
	}
	if got := h.persistedByRole(conversation.RoleAssistant); len(got) != 1 {
		t.Errorf("stored assistant messages = %d, want 1 best-effort summary", len(got))
	}
}

func TestChatToolFailureFedBackToModel(t *testing.T) {
	provider := &scriptedProvider{completions: []*llm.Completion{
		toolCompletion("add_task", `{"title":"buy milk"}`),
		textCompletion("Sorry, that didn't work."),
	}}
	h := newHarness(provider, Options{})
	h.executor.results = map[string]*tool.Result{
		"add_task": {IsError: true, Error: "task storage unavailable"},
	}

	result, err := h.orch.Chat(context.Background(), ChatParams{OwnerID: "alice", Message: "add buy milk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Degraded {
		t.Error("tool failure must not degrade the request")
	}

	second := provider.requests[1].Messages
	var toolTurn string
	for _, msg := range second {
		if msg.Role == "tool" {
			toolTurn = msg.Content
		}
	}
	if !strings.Contains(toolTurn, "task storage unavailable") {
		t.Errorf("tool error not fed back to model: %q", toolTurn)
	}
}

func TestChatSystemPromptPrepended(t *testing.T) {
	provider := &scriptedProvider{completions: []*llm.Completion{textCompletion("hi")}}
	h := newHarness(provider, Options{SystemPrompt: "You are a task assistant."})

	if _, err := h.orch.Chat(context.Background(), ChatParams{OwnerID: "alice", Message: "hello"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := provider.requests[0].Messages
	if len(first) == 0 || first[0].Role != "system" || first[0].Content != "You are a task assistant." {
		t.Errorf("system prompt not prepended: %+v", first)
	}
}
