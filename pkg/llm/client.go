// Package llm provides completion clients for OpenAI-compatible and
// Anthropic endpoints, plus helpers for digging structured data out of
// model replies.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/retry"
)

// Config holds settings for constructing a completion client.
type Config struct {
	Provider   string // "openai" (any OpenAI-compatible endpoint) or "anthropic"
	BaseURL    string // optional override, e.g. a local vLLM endpoint
	Model      string
	APIKey     string
	Timeout    time.Duration // per-request deadline
	MaxRetries int           // transient-failure retries per request
}

// OpenAIClient talks to OpenAI-compatible chat completion endpoints.
type OpenAIClient struct {
	client   *openai.Client
	model    string
	timeout  time.Duration
	retryCfg *retry.Config
	logger   *zap.Logger
}

var _ CompletionClient = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAIClient(cfg *Config, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		retryCfg: retryConfig(cfg.MaxRetries),
		logger:   logger.Named("llm"),
	}, nil
}

// Complete sends a prompt and returns the reply text. Transient failures
// (rate limits, 5xx, timeouts) are retried with backoff; permanent failures
// return immediately as a classified *Error.
func (c *OpenAIClient) Complete(ctx context.Context, prompt, system string, temperature float64) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	c.logger.Debug("completion request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", temperature))

	start := time.Now()

	content, err := retry.DoWithResultIfRetryable(ctx, c.retryCfg, func() (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: float32(temperature),
		})
		if err != nil {
			return "", ClassifyError(err)
		}
		if len(resp.Choices) == 0 {
			return "", NewError(ErrorTypeUnknown, "no choices in response", false, nil)
		}

		c.logger.Info("completion finished",
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			zap.Duration("elapsed", time.Since(start)))

		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		c.logger.Error("completion failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", err
	}

	return content, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.model
}

// retryConfig scales the default backoff schedule to the configured budget.
func retryConfig(maxRetries int) *retry.Config {
	cfg := retry.DefaultConfig()
	if maxRetries >= 0 {
		cfg.MaxRetries = maxRetries
	}
	return cfg
}
