package llmprovider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"taskpilot/chat-api/internal/domain/llm"
	"taskpilot/chat-api/internal/infrastructure/metrics"
	"taskpilot/chat-api/internal/utils/platformerrors"
)

// Client talks to an OpenAI compatible chat completion endpoint. It is
// the only implementation of llm.Provider; the circuit breaker wrapping
// it owns the per-call deadline, so the resty timeout here is only a
// backstop.
type Client struct {
	http    *resty.Client
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

type completionRequest struct {
	Model    string               `json:"model"`
	Messages []llm.ChatMessage    `json:"messages"`
	Tools    []llm.ToolDefinition `json:"tools,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message      llm.ChatMessage `json:"message"`
		FinishReason string          `json:"finish_reason"`
	} `json:"choices"`
	Usage *llm.Usage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func NewClient(baseURL string, apiKey string, m *metrics.Metrics, logger zerolog.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(75 * time.Second).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		http.SetAuthToken(apiKey)
	}
	return &Client{
		http:    http,
		metrics: m,
		logger:  logger.With().Str("component", "llm_client").Logger(),
	}
}

var _ llm.Provider = (*Client)(nil)

func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.Completion, error) {
	start := time.Now()
	var parsed completionResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(completionRequest{
			Model:    req.Model,
			Messages: req.Messages,
			Tools:    req.Tools,
		}).
		SetResult(&parsed).
		SetError(&parsed).
		Post("/v1/chat/completions")

	c.observe(start, err == nil && resp != nil && resp.IsSuccess())

	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeUpstreamUnavailable, "model request failed", err)
	}
	if !resp.IsSuccess() {
		detail := resp.Status()
		if parsed.Error != nil && parsed.Error.Message != "" {
			detail = parsed.Error.Message
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeUpstreamUnavailable,
			fmt.Sprintf("model request rejected: %s", detail), nil)
	}
	if len(parsed.Choices) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeUpstreamUnavailable, "model returned no choices", nil)
	}

	choice := parsed.Choices[0]
	return &llm.Completion{
		Message:      choice.Message,
		FinishReason: choice.FinishReason,
		Usage:        parsed.Usage,
	}, nil
}

func (c *Client) observe(start time.Time, success bool) {
	duration := time.Since(start)
	if c.metrics != nil {
		c.metrics.ObserveLLMCall(duration, success)
	}
	c.logger.Debug().
		Dur("duration", duration).
		Bool("success", success).
		Msg("model call finished")
}
