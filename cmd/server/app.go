//go:build !wireinject

package main

import (
	"context"

	"github.com/rs/zerolog"

	"taskpilot/chat-api/internal/config"
	"taskpilot/chat-api/internal/infrastructure/metrics"
	convrepo "taskpilot/chat-api/internal/infrastructure/repository/conversation"
	taskrepo "taskpilot/chat-api/internal/infrastructure/repository/task"
	"taskpilot/chat-api/internal/interfaces/httpserver"
	"taskpilot/chat-api/internal/interfaces/httpserver/handlers"
)

// buildApplication assembles the service graph. The wire injector in
// wire.go declares the same graph; this is its expanded form.
func buildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, error) {
	db, err := provideDB(cfg, log)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	validator, err := provideValidator(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	conversations := convrepo.NewPostgresRepository(db)
	messages := convrepo.NewMessageRepository(db)
	tasks := taskrepo.NewPostgresRepository(db)

	taskService := provideTaskService(tasks, log)
	registry := provideRegistry(taskService, log)
	cb := provideBreaker(cfg, log)
	provider := provideLLMClient(cfg, m, log)
	loader := provideLoader(messages, cfg, log)
	orchestrator := provideOrchestrator(conversations, messages, loader, provider, registry, cb, cfg, log)

	chatHandler := handlers.NewChatHandler(orchestrator, cb, m, log)
	conversationHandler := handlers.NewConversationHandler(conversations, messages, log)
	server := httpserver.New(cfg, chatHandler, conversationHandler, validator, log)
	sweeper := provideSweeper(conversations, cfg, log)

	return newApplication(cfg, log, db, server, sweeper), nil
}
