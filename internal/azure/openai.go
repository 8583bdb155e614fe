package azure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"go.uber.org/zap"
)

const apiVersion = "2024-08-01-preview"

// CompletionRequest is one narrative completion call. System carries the
// metrics prompt, User the instruction; Temperature and MaxTokens are set
// by the caller because narrative length and tone are a domain decision,
// not a transport one.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int64
}

// OpenAIClient generates adherence narratives through an Azure OpenAI
// deployment, retrying transient failures with exponential backoff.
type OpenAIClient struct {
	client     *openai.Client
	deployment string
	logger     *zap.Logger
	maxRetries int
	baseDelay  time.Duration
}

// NewOpenAIClient creates a narrative completion client for one Azure
// OpenAI deployment
func NewOpenAIClient(endpoint, apiKey, deployment string, logger *zap.Logger) (*OpenAIClient, error) {
	if endpoint == "" || apiKey == "" || deployment == "" {
		return nil, fmt.Errorf("endpoint, apiKey, and deployment are required")
	}

	client := openai.NewClient(
		azure.WithEndpoint(endpoint, apiVersion),
		azure.WithAPIKey(apiKey),
	)

	return &OpenAIClient{
		client:     &client,
		deployment: deployment,
		logger:     logger,
		maxRetries: 3,
		baseDelay:  time.Second,
	}, nil
}

// Complete runs the completion, retrying transient failures until the
// retry budget or the caller's context runs out
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if strings.TrimSpace(req.System) == "" && strings.TrimSpace(req.User) == "" {
		return "", fmt.Errorf("completion request has no content")
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return "", fmt.Errorf("narrative completion canceled during backoff: %w", err)
			}
		}

		narrative, err := c.complete(ctx, req)
		if err == nil {
			return narrative, nil
		}

		lastErr = err
		if !retryable(err) {
			c.logger.Error("narrative completion rejected",
				zap.Error(err),
				zap.String("deployment", c.deployment),
			)
			return "", fmt.Errorf("narrative completion rejected: %w", err)
		}

		c.logger.Warn("narrative completion failed, will retry",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
		)
	}

	return "", fmt.Errorf("narrative completion failed after %d attempts: %w", c.maxRetries, lastErr)
}

// backoff waits out the exponential delay for the given attempt, aborting
// early when the caller's context ends
func (c *OpenAIClient) backoff(ctx context.Context, attempt int) error {
	delay := c.baseDelay << uint(attempt-1)
	c.logger.Info("retrying narrative completion",
		zap.Int("attempt", attempt+1),
		zap.Duration("delay", delay),
	)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *OpenAIClient) complete(ctx context.Context, req CompletionRequest) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	if req.User != "" {
		messages = append(messages, openai.UserMessage(req.User))
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.deployment),
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(req.MaxTokens)
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("deployment returned no narrative content")
	}

	c.logger.Debug("narrative completion token usage",
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("request_time", time.Since(start)),
	)

	return resp.Choices[0].Message.Content, nil
}

// retryable classifies a completion failure. API rejections with a caller
// error status are final; rate limits, server errors and transport
// failures are worth another attempt.
func retryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return true
		case apiErr.StatusCode == 408:
			return true
		case apiErr.StatusCode >= 500:
			return true
		}
		return false
	}

	// No API status means the request never got an answer: timeouts,
	// resets and DNS failures.
	return true
}
