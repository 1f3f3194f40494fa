// internal/llmclient/chat_client.go

// Package llmclient talks to the vision-capable reasoning backend over the
// OpenAI-compatible chat completions wire format, which both the hosted
// OpenAI API and a local Ollama daemon speak.
package llmclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/hackparv/operator-cli/api/schemas"
	"github.com/hackparv/operator-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ChatClient implements schemas.VisionClient against an OpenAI-compatible
// chat completions endpoint.
type ChatClient struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
	cfg        config.ModelConfig

	// backoffFactory builds the retry policy per call; injectable in tests to
	// avoid real multi-second waits.
	backoffFactory func() backoff.BackOff
}

// -- Chat completions wire structures (internal to this file) --

type chatRequest struct {
	Model       string                `json:"model"`
	Messages    []schemas.ChatMessage `json:"messages"`
	MaxTokens   int                   `json:"max_tokens,omitempty"`
	Temperature float64               `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewChatClient initializes the client for the configured provider.
func NewChatClient(cfg config.ModelConfig, logger *zap.Logger) (*ChatClient, error) {
	if cfg.Provider == config.ProviderOpenAI && cfg.APIKey == "" {
		return nil, fmt.Errorf("an API key is required for the openai provider")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("a model name is required")
	}

	c := &ChatClient{
		apiKey:   cfg.APIKey,
		endpoint: cfg.ChatEndpoint(),
		model:    cfg.Model,
		cfg:      cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger.Named("llm_client." + string(cfg.Provider)),
	}
	c.backoffFactory = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = cfg.BackoffInitial
		b.MaxInterval = cfg.BackoffMax
		b.Multiplier = 2.0
		return b
	}
	return c, nil
}

// Statically assert the interface.
var _ schemas.VisionClient = (*ChatClient)(nil)

// Generate assembles the request (system instruction, deduplicated history,
// fresh user turn with the inline screenshot), submits it, and retries
// transient failures up to the configured attempt cap with exponential
// backoff. Exhaustion surfaces a *schemas.ModelCallError; the caller decides
// whether that aborts the run. The conversation state is never mutated here.
func (c *ChatClient) Generate(ctx context.Context, req schemas.VisionRequest) (string, error) {
	payload := c.buildRequestPayload(req)
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	maxRetries := uint64(0)
	if c.cfg.MaxAttempts > 1 {
		maxRetries = uint64(c.cfg.MaxAttempts - 1)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(c.backoffFactory(), maxRetries), ctx)

	var responseContent string
	attempts := 0

	operation := func() error {
		attempts++
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		startTime := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		duration := time.Since(startTime)

		if err != nil {
			c.logger.Warn("Network error during model request, retrying...", zap.Error(err), zap.Int("attempt", attempts))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return c.handleAPIError(resp.StatusCode, respBody, attempts)
		}

		var responsePayload chatResponse
		if err := json.Unmarshal(respBody, &responsePayload); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response payload: %w", err))
		}
		if responsePayload.Error != nil {
			return backoff.Permanent(fmt.Errorf("backend error: %s (%s)", responsePayload.Error.Message, responsePayload.Error.Type))
		}
		if len(responsePayload.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("backend returned no choices"))
		}

		choice := responsePayload.Choices[0]
		if choice.Message.Content == "" {
			return fmt.Errorf("backend returned empty content (finish_reason: %s)", choice.FinishReason)
		}

		c.logger.Info("Model generation complete",
			zap.Duration("duration", duration),
			zap.String("model", c.model),
			zap.Int("prompt_tokens", responsePayload.Usage.PromptTokens),
			zap.Int("completion_tokens", responsePayload.Usage.CompletionTokens),
			zap.Int("total_tokens", responsePayload.Usage.TotalTokens),
		)

		responseContent = choice.Message.Content
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return "", &schemas.ModelCallError{Attempts: attempts, Err: err}
	}
	return responseContent, nil
}

// buildRequestPayload merges the fixed system instruction, the prior turns
// (any system turns in history are skipped so the instruction is never sent
// twice), and the fresh objective + screenshot user turn.
func (c *ChatClient) buildRequestPayload(req schemas.VisionRequest) chatRequest {
	messages := make([]schemas.ChatMessage, 0, len(req.History)+2)
	messages = append(messages, schemas.NewSystemTurn(req.SystemPrompt))
	for _, msg := range req.History {
		if msg.Role == schemas.RoleSystem {
			continue
		}
		messages = append(messages, msg)
	}
	messages = append(messages, schemas.NewUserTurn(req.Objective, req.ImageB64))

	return chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
}

// handleAPIError classifies an HTTP failure as transient (retry) or
// permanent.
func (c *ChatClient) handleAPIError(statusCode int, body []byte, attempt int) error {
	err := fmt.Errorf("backend API error: status %d, body: %s", statusCode, string(body))

	switch statusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		c.logger.Warn("Transient backend error, retrying...",
			zap.Int("status", statusCode), zap.Int("attempt", attempt))
		return err
	default:
		c.logger.Error("Permanent backend error",
			zap.Int("status", statusCode), zap.String("response", string(body)))
		return backoff.Permanent(err)
	}
}
