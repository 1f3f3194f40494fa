// internal/llmclient/ollama_test.go
package llmclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const tagsPayload = `{
  "models": [
    {
      "name": "llava:latest",
      "size": 4733363377,
      "modified_at": "2026-08-01T12:00:00Z",
      "details": {"family": "llama"}
    },
    {
      "name": "llama3.2-vision:11b",
      "size": 7901829417,
      "modified_at": "2026-08-15T09:30:00Z",
      "details": {"family": "mllama"}
    }
  ]
}`

func TestOllamaRegistry_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(tagsPayload))
	}))
	defer server.Close()

	reg := NewOllamaRegistry(server.URL, zap.NewNop())
	models, err := reg.ListModels(context.Background())

	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "llava:latest", models[0].Name)
	assert.Equal(t, "llama", models[0].Family)
	assert.Equal(t, int64(4733363377), models[0].SizeBytes)
}

func TestOllamaRegistry_ListModels_DaemonDown(t *testing.T) {
	reg := NewOllamaRegistry("http://127.0.0.1:1", zap.NewNop())

	_, err := reg.ListModels(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "ollama serve")
}

func TestOllamaRegistry_ListModels_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	reg := NewOllamaRegistry(server.URL, zap.NewNop())
	_, err := reg.ListModels(context.Background())
	assert.ErrorContains(t, err, "status 500")
}

func TestOllamaRegistry_HasModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tagsPayload))
	}))
	defer server.Close()

	reg := NewOllamaRegistry(server.URL, zap.NewNop())

	found, err := reg.HasModel(context.Background(), "llava:latest")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = reg.HasModel(context.Background(), "mistral")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResolveModelSpec(t *testing.T) {
	tests := []struct {
		name       string
		spec       string
		configured string
		want       string
		wantErr    bool
	}{
		{name: "passthrough", spec: "gpt-4o", want: "gpt-4o"},
		{name: "bare ollama uses configured default", spec: "ollama", configured: "bakllava", want: "bakllava"},
		{name: "bare ollama falls back to llava", spec: "ollama", want: "llava"},
		{name: "prefixed name", spec: "ollama:llama3.2-vision", want: "llama3.2-vision"},
		{name: "prefix with empty name", spec: "ollama:", wantErr: true},
		{name: "empty spec", spec: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveModelSpec(tc.spec, tc.configured)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestModelInfoSizeHuman(t *testing.T) {
	assert.Equal(t, "512 B", ModelInfo{SizeBytes: 512}.SizeHuman())
	assert.Equal(t, "4.4 GB", ModelInfo{SizeBytes: 4733363377}.SizeHuman())
}
