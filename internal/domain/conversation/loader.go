package conversation

import (
	"context"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"taskpilot/chat-api/internal/domain/llm"
	"taskpilot/chat-api/internal/utils/platformerrors"
)

// ContextBudget bounds the working context handed to the model.
type ContextBudget struct {
	// MaxMessages caps how many recent messages are loaded from storage.
	MaxMessages int
	// MaxContextChars is the total character budget for the loaded slice.
	MaxContextChars int
	// RecentAlways is the count of trailing messages kept verbatim when
	// compression kicks in.
	RecentAlways int
}

// Loader reads a conversation's recent history and compresses it to fit
// the context budget. The stored log is never mutated; compression only
// shapes the in-memory slice for the current request.
type Loader struct {
	messages   MessageRepository
	summarizer Summarizer
	budget     ContextBudget
	logger     zerolog.Logger
}

func NewLoader(messages MessageRepository, summarizer Summarizer, budget ContextBudget, logger zerolog.Logger) *Loader {
	return &Loader{
		messages:   messages,
		summarizer: summarizer,
		budget:     budget,
		logger:     logger.With().Str("component", "context_loader").Logger(),
	}
}

// Load returns the working context for a conversation, ascending by
// creation order and guaranteed to fit the budget unless a single recent
// message alone exceeds it.
func (l *Loader) Load(ctx context.Context, conversationID uint) ([]llm.ChatMessage, error) {
	history, err := l.messages.ListRecent(ctx, conversationID, l.budget.MaxMessages)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeDatabaseError, "failed to load conversation history", err)
	}
	return l.compress(history), nil
}

func (l *Loader) compress(history []Message) []llm.ChatMessage {
	total := 0
	for _, msg := range history {
		total += utf8.RuneCountInString(msg.Content)
	}
	if total <= l.budget.MaxContextChars || len(history) <= l.budget.RecentAlways {
		return toChatMessages(history)
	}

	split := len(history) - l.budget.RecentAlways
	older, recent := history[:split], history[split:]
	summary := l.summarizer.Summarize(older)

	l.logger.Debug().
		Int("total_chars", total).
		Int("budget_chars", l.budget.MaxContextChars).
		Int("compressed", len(older)).
		Int("kept", len(recent)).
		Msg("compressed conversation context")

	out := make([]llm.ChatMessage, 0, len(recent)+1)
	if summary != "" {
		out = append(out, llm.ChatMessage{Role: string(RoleSystem), Content: summary})
	}
	return append(out, toChatMessages(recent)...)
}

func toChatMessages(history []Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(history))
	for _, msg := range history {
		out = append(out, llm.ChatMessage{Role: string(msg.Role), Content: msg.Content})
	}
	return out
}
