package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"taskpilot/chat-api/internal/config"
	"taskpilot/chat-api/internal/infrastructure/auth"
	"taskpilot/chat-api/internal/interfaces/httpserver/handlers"
)

// HTTPServer wires the gin engine, routes and lifecycle.
type HTTPServer struct {
	engine *gin.Engine
	server *http.Server
	cfg    *config.Config
	logger zerolog.Logger
}

func New(
	cfg *config.Config,
	chatHandler *handlers.ChatHandler,
	conversationHandler *handlers.ConversationHandler,
	validator *auth.Validator,
	logger zerolog.Logger,
) *HTTPServer {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())
	engine.Use(accessLogMiddleware(logger))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/v1")
	v1.Use(authMiddleware(validator, logger))
	v1.POST("/chat", chatHandler.Chat)
	v1.GET("/conversations/:conversation_id/messages", conversationHandler.ListMessages)

	return &HTTPServer{
		engine: engine,
		server: &http.Server{
			Addr:    cfg.Addr(),
			Handler: engine,
		},
		cfg:    cfg,
		logger: logger.With().Str("component", "http_server").Logger(),
	}
}

// Run serves until ctx is cancelled, then drains connections within the
// shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("http server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("shutting down http server")
	return s.server.Shutdown(shutdownCtx)
}
