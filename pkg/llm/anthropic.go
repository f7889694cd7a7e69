package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/retry"
)

// anthropicMaxTokens caps reply length; pipeline prompts expect compact
// JSON, so this is generous.
const anthropicMaxTokens = 4096

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client   *anthropic.Client
	model    string
	timeout  time.Duration
	retryCfg *retry.Config
	logger   *zap.Logger
}

var _ CompletionClient = (*AnthropicClient)(nil)

// NewAnthropicClient creates a client for the Anthropic Messages API.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicClient{
		client:   anthropic.NewClient(cfg.APIKey, opts...),
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		retryCfg: retryConfig(cfg.MaxRetries),
		logger:   logger.Named("llm"),
	}, nil
}

// Complete sends a prompt and returns the reply text.
func (c *AnthropicClient) Complete(ctx context.Context, prompt, system string, temperature float64) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	}
	if system != "" {
		req.System = system
	}
	if temperature >= 0 {
		temp := float32(temperature)
		req.Temperature = &temp
	}

	c.logger.Debug("completion request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", temperature))

	start := time.Now()

	content, err := retry.DoWithResultIfRetryable(ctx, c.retryCfg, func() (string, error) {
		resp, err := c.client.CreateMessages(ctx, req)
		if err != nil {
			return "", ClassifyError(err)
		}

		for _, block := range resp.Content {
			if block.Type == "text" && block.Text != nil {
				c.logger.Info("completion finished",
					zap.Duration("elapsed", time.Since(start)))
				return *block.Text, nil
			}
		}
		return "", NewError(ErrorTypeUnknown, "no text content in response", false, nil)
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
func (c *AnthropicClient) Model() string {
	return c.model
}
