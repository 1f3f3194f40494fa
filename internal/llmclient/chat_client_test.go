// internal/llmclient/chat_client_test.go
package llmclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackparv/operator-cli/api/schemas"
	"github.com/hackparv/operator-cli/internal/config"
)

func testModelConfig(endpoint string) config.ModelConfig {
	return config.ModelConfig{
		Provider:       config.ProviderOpenAI,
		Model:          "gpt-4o",
		APIKey:         "test-key",
		Endpoint:       endpoint,
		RequestTimeout: 5 * time.Second,
		MaxAttempts:    3,
		BackoffInitial: 4 * time.Second,
		BackoffMax:     10 * time.Second,
		Temperature:    0.7,
		MaxTokens:      1000,
	}
}

// newTestClient builds a client against the given endpoint with an
// effectively zero backoff so retry tests run instantly.
func newTestClient(t *testing.T, endpoint string) *ChatClient {
	t.Helper()
	client, err := NewChatClient(testModelConfig(endpoint), zap.NewNop())
	require.NoError(t, err)
	client.backoffFactory = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = time.Millisecond
		b.MaxInterval = time.Millisecond
		return b
	}
	return client
}

func chatResponseBody(content string) string {
	return `{"choices":[{"message":{"content":` + string(mustMarshalString(content)) + `},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`
}

func mustMarshalString(s string) []byte {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return b
}

func visionRequest() schemas.VisionRequest {
	return schemas.VisionRequest{
		SystemPrompt: "You operate a computer.",
		Objective:    "open the browser",
		ImageB64:     "aGVsbG8=",
		Temperature:  0.7,
		MaxTokens:    1000,
	}
}

func TestNewChatClient_RequiresAPIKeyForOpenAI(t *testing.T) {
	cfg := testModelConfig("http://example.invalid")
	cfg.APIKey = ""
	_, err := NewChatClient(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "API key")
}

func TestNewChatClient_OllamaNeedsNoKey(t *testing.T) {
	cfg := testModelConfig("")
	cfg.Provider = config.ProviderOllama
	cfg.APIKey = ""
	cfg.OllamaHost = "http://127.0.0.1:11434"
	client, err := NewChatClient(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:11434/v1/chat/completions", client.endpoint)
}

func TestChatClient_Generate_Success(t *testing.T) {
	var gotAuth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, chatResponseBody(`[{"operation": "done", "summary": "all set"}]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	content, err := client.Generate(context.Background(), visionRequest())

	require.NoError(t, err)
	assert.Contains(t, content, `"done"`)
	assert.Equal(t, "Bearer test-key", gotAuth.Load())
}

func TestChatClient_Generate_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, chatResponseBody("recovered"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	content, err := client.Generate(context.Background(), visionRequest())

	require.NoError(t, err)
	assert.Equal(t, "recovered", content)
	assert.Equal(t, int32(3), calls.Load())
}

func TestChatClient_Generate_ExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Generate(context.Background(), visionRequest())

	require.Error(t, err)
	var callErr *schemas.ModelCallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, 3, callErr.Attempts, "transient failures retry up to the attempt cap")
	assert.Equal(t, int32(3), calls.Load())
}

func TestChatClient_Generate_PermanentErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Generate(context.Background(), visionRequest())

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "a 4xx other than 429 must not be retried")
}

func TestChatClient_Generate_ContextCancellationStopsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	// Restore a slow policy so cancellation lands between attempts.
	client.backoffFactory = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = time.Minute
		b.MaxInterval = time.Minute
		return b
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Generate(ctx, visionRequest())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

// The outgoing payload carries exactly one system turn: the fixed instruction
// first, with any system turns in the supplied history dropped.
func TestChatClient_BuildRequestPayload_DeduplicatesSystemTurn(t *testing.T) {
	client := newTestClient(t, "http://example.invalid")

	req := visionRequest()
	req.History = []schemas.ChatMessage{
		schemas.NewSystemTurn("stale system turn"),
		schemas.NewUserTurn("open the browser", "aGVsbG8="),
		schemas.NewAssistantTurn(`[{"operation":"click","x":0.5,"y":0.5}]`),
	}

	payload := client.buildRequestPayload(req)

	require.Len(t, payload.Messages, 4)
	assert.Equal(t, schemas.RoleSystem, payload.Messages[0].Role)
	assert.Equal(t, "You operate a computer.", payload.Messages[0].Content[0].Text)
	assert.Equal(t, schemas.RoleUser, payload.Messages[1].Role)
	assert.Equal(t, schemas.RoleAssistant, payload.Messages[2].Role)

	// Last message is the fresh user turn with the inline screenshot.
	last := payload.Messages[3]
	assert.Equal(t, schemas.RoleUser, last.Role)
	require.Len(t, last.Content, 2)
	assert.Contains(t, last.Content[0].Text, "open the browser")
	require.NotNil(t, last.Content[1].ImageURL)
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", last.Content[1].ImageURL.URL)

	assert.Equal(t, "gpt-4o", payload.Model)
	assert.Equal(t, 1000, payload.MaxTokens)
}
