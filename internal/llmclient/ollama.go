// internal/llmclient/ollama.go
package llmclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ModelInfo describes one locally installed Ollama model.
type ModelInfo struct {
	Name       string
	SizeBytes  int64
	ModifiedAt time.Time
	Family     string
}

// SizeHuman renders the model size for table output.
func (m ModelInfo) SizeHuman() string {
	size := float64(m.SizeBytes)
	units := []string{"B", "KB", "MB", "GB", "TB"}
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d %s", m.SizeBytes, units[i])
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}

// OllamaRegistry queries a local Ollama daemon for installed models.
type OllamaRegistry struct {
	host       string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOllamaRegistry builds a registry client for the given daemon host.
func NewOllamaRegistry(host string, logger *zap.Logger) *OllamaRegistry {
	return &OllamaRegistry{
		host:       strings.TrimRight(host, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.Named("ollama_registry"),
	}
}

type ollamaTagsResponse struct {
	Models []struct {
		Name       string    `json:"name"`
		Size       int64     `json:"size"`
		ModifiedAt time.Time `json:"modified_at"`
		Details    struct {
			Family string `json:"family"`
		} `json:"details"`
	} `json:"models"`
}

// ListModels returns the locally available models. A connection failure is
// reported as a single wrapped error so the CLI can suggest starting the
// daemon.
func (r *OllamaRegistry) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.host+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to Ollama at %s (is 'ollama serve' running?): %w", r.host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload ollamaTagsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode tags response: %w", err)
	}

	models := make([]ModelInfo, 0, len(payload.Models))
	for _, m := range payload.Models {
		models = append(models, ModelInfo{
			Name:       m.Name,
			SizeBytes:  m.Size,
			ModifiedAt: m.ModifiedAt,
			Family:     m.Details.Family,
		})
	}
	r.logger.Debug("Listed local models", zap.Int("count", len(models)))
	return models, nil
}

// HasModel reports whether a model with the given name is installed.
func (r *OllamaRegistry) HasModel(ctx context.Context, name string) (bool, error) {
	models, err := r.ListModels(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range models {
		if m.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// ResolveModelSpec maps a user-facing model spec to a concrete Ollama model
// name. Supported forms: a bare model name (returned as-is), the explicit
// "ollama:NAME" prefix, and plain "ollama" which resolves to the configured
// default, falling back to "llava".
func ResolveModelSpec(spec, configuredDefault string) (string, error) {
	if spec == "" {
		return "", fmt.Errorf("model specification cannot be empty")
	}
	if spec == "ollama" {
		if configuredDefault != "" {
			return configuredDefault, nil
		}
		return "llava", nil
	}
	if strings.HasPrefix(spec, "ollama:") {
		name := strings.TrimPrefix(spec, "ollama:")
		if name == "" {
			return "", fmt.Errorf("model name cannot be empty after 'ollama:' prefix")
		}
		return name, nil
	}
	return spec, nil
}
