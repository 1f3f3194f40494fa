// internal/llmclient/factory.go
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hackparv/operator-cli/api/schemas"
	"github.com/hackparv/operator-cli/internal/config"
)

// NewClient constructs the vision client for the configured provider. Both
// supported providers speak the same chat completions wire format; they
// differ only in endpoint and credentials.
func NewClient(cfg config.ModelConfig, logger *zap.Logger) (schemas.VisionClient, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, config.ProviderOllama:
		client, err := NewChatClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
		}
		logger.Info("Instantiated model client",
			zap.String("provider", string(cfg.Provider)),
			zap.String("model", cfg.Model),
			zap.String("endpoint", cfg.ChatEndpoint()),
		)
		return client, nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
