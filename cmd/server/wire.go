//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"taskpilot/chat-api/internal/config"
	"taskpilot/chat-api/internal/domain/conversation"
	"taskpilot/chat-api/internal/domain/llm"
	"taskpilot/chat-api/internal/domain/task"
	"taskpilot/chat-api/internal/domain/tool"
	"taskpilot/chat-api/internal/infrastructure/llmprovider"
	"taskpilot/chat-api/internal/infrastructure/metrics"
	convrepo "taskpilot/chat-api/internal/infrastructure/repository/conversation"
	taskrepo "taskpilot/chat-api/internal/infrastructure/repository/task"
	"taskpilot/chat-api/internal/interfaces/httpserver"
	"taskpilot/chat-api/internal/interfaces/httpserver/handlers"
)

func buildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, error) {
	wire.Build(
		provideDB,
		metrics.New,
		provideValidator,
		convrepo.NewPostgresRepository,
		wire.Bind(new(conversation.Repository), new(*convrepo.PostgresRepository)),
		convrepo.NewMessageRepository,
		wire.Bind(new(conversation.MessageRepository), new(*convrepo.MessageRepository)),
		taskrepo.NewPostgresRepository,
		wire.Bind(new(task.Repository), new(*taskrepo.PostgresRepository)),
		provideTaskService,
		wire.Bind(new(task.Service), new(*task.ServiceImpl)),
		provideRegistry,
		wire.Bind(new(tool.Executor), new(*tool.Registry)),
		provideBreaker,
		provideLLMClient,
		wire.Bind(new(llm.Provider), new(*llmprovider.Client)),
		provideLoader,
		provideOrchestrator,
		handlers.NewChatHandler,
		handlers.NewConversationHandler,
		httpserver.New,
		provideSweeper,
		newApplication,
	)
	return nil, nil
}
