package main

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"taskpilot/chat-api/internal/config"
	"taskpilot/chat-api/internal/domain/agent"
	"taskpilot/chat-api/internal/domain/breaker"
	"taskpilot/chat-api/internal/domain/conversation"
	"taskpilot/chat-api/internal/domain/task"
	"taskpilot/chat-api/internal/domain/tool"
	"taskpilot/chat-api/internal/infrastructure/auth"
	"taskpilot/chat-api/internal/infrastructure/database"
	"taskpilot/chat-api/internal/infrastructure/llmprovider"
	"taskpilot/chat-api/internal/infrastructure/metrics"
	"taskpilot/chat-api/internal/infrastructure/retention"
	"taskpilot/chat-api/internal/interfaces/httpserver"
)

// Application holds the assembled service.
type Application struct {
	Config     *config.Config
	Logger     zerolog.Logger
	DB         *gorm.DB
	HTTPServer *httpserver.HTTPServer
	Sweeper    *retention.Sweeper
}

func newApplication(cfg *config.Config, log zerolog.Logger, db *gorm.DB, server *httpserver.HTTPServer, sweeper *retention.Sweeper) *Application {
	return &Application{
		Config:     cfg,
		Logger:     log,
		DB:         db,
		HTTPServer: server,
		Sweeper:    sweeper,
	}
}

func provideDB(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func provideValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	if !cfg.AuthEnabled {
		return nil, nil
	}
	return auth.NewValidator(ctx, cfg.AuthJWKSURL, cfg.AuthIssuer, cfg.AuthAudience, log)
}

func provideBreaker(cfg *config.Config, log zerolog.Logger) *breaker.CircuitBreaker {
	return breaker.New(breaker.Config{
		FailureThreshold: cfg.BreakerFailureThreshold,
		RecoveryTimeout:  cfg.BreakerRecoveryTimeout,
		CallTimeout:      cfg.LLMCallTimeout,
	}, log)
}

func provideLLMClient(cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) *llmprovider.Client {
	return llmprovider.NewClient(cfg.LLMAPIURL, cfg.LLMAPIKey, m, log)
}

func provideTaskService(repo task.Repository, log zerolog.Logger) *task.ServiceImpl {
	return task.NewService(repo, log)
}

func provideRegistry(svc task.Service, log zerolog.Logger) *tool.Registry {
	return tool.NewTaskRegistry(svc, log)
}

func provideLoader(messages conversation.MessageRepository, cfg *config.Config, log zerolog.Logger) *conversation.Loader {
	return conversation.NewLoader(messages, conversation.KeywordSummarizer{}, conversation.ContextBudget{
		MaxMessages:     cfg.MaxHistoryMessages,
		MaxContextChars: cfg.MaxContextChars(),
		RecentAlways:    cfg.RecentAlways,
	}, log)
}

func provideOrchestrator(
	conversations conversation.Repository,
	messages conversation.MessageRepository,
	loader *conversation.Loader,
	provider *llmprovider.Client,
	registry *tool.Registry,
	cb *breaker.CircuitBreaker,
	cfg *config.Config,
	log zerolog.Logger,
) *agent.Orchestrator {
	return agent.NewOrchestrator(conversations, messages, loader, provider, registry, cb, agent.Options{
		Model:             cfg.LLMModel,
		SystemPrompt:      cfg.SystemPrompt,
		MaxToolIterations: cfg.MaxToolIterations,
		MaxInputChars:     cfg.MaxInputChars,
	}, log)
}

func provideSweeper(conversations conversation.Repository, cfg *config.Config, log zerolog.Logger) *retention.Sweeper {
	return retention.NewSweeper(conversations, cfg.RetentionDays, log)
}
