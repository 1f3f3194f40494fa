// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/lpernett/godotenv"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration. It is built exactly once
// per run (in the command layer) and handed to each component's constructor;
// nothing reads viper after startup.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Model    ModelConfig    `mapstructure:"model" yaml:"model"`
	Agent    AgentConfig    `mapstructure:"agent" yaml:"agent"`
	Screen   ScreenConfig   `mapstructure:"screen" yaml:"screen"`
	Executor ExecutorConfig `mapstructure:"executor" yaml:"executor"`
}

// LoggerConfig controls the zap logger construction.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"` // megabytes, per rotated file
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to console colors.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// Provider identifies a model backend flavor.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
)

// ModelConfig describes the vision backend and the retry/backoff policy for
// calls against it.
type ModelConfig struct {
	Provider Provider `mapstructure:"provider" yaml:"provider"`
	Model    string   `mapstructure:"model" yaml:"model"`
	APIKey   string   `mapstructure:"api_key" yaml:"api_key"`
	// Endpoint overrides the chat completions URL. When empty it is derived
	// from the provider (hosted OpenAI, or OllamaHost for local models).
	Endpoint   string `mapstructure:"endpoint" yaml:"endpoint"`
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`
	// DefaultOllamaModel backs the bare "ollama" model spec.
	DefaultOllamaModel string `mapstructure:"default_ollama_model" yaml:"default_ollama_model"`

	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	BackoffInitial time.Duration `mapstructure:"backoff_initial" yaml:"backoff_initial"`
	BackoffMax     time.Duration `mapstructure:"backoff_max" yaml:"backoff_max"`

	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// AgentConfig controls the orchestration loop.
type AgentConfig struct {
	// MaxIterations caps the number of model calls per run; 0 means unlimited.
	// The cap guards against an objective the model never judges complete.
	MaxIterations int `mapstructure:"max_iterations" yaml:"max_iterations"`
}

// ScreenConfig bounds the screenshot encoding pipeline.
type ScreenConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	MaxWidth    int    `mapstructure:"max_width" yaml:"max_width"`
	MaxHeight   int    `mapstructure:"max_height" yaml:"max_height"`
	JPEGQuality int    `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
}

// ExecutorConfig tunes the input executor's timing.
type ExecutorConfig struct {
	MouseMoveDuration time.Duration `mapstructure:"mouse_move_duration" yaml:"mouse_move_duration"`
	OrbitDuration     time.Duration `mapstructure:"orbit_duration" yaml:"orbit_duration"`
	OrbitRadius       float64       `mapstructure:"orbit_radius" yaml:"orbit_radius"`
	KeyHold           time.Duration `mapstructure:"key_hold" yaml:"key_hold"`
	// TypingRate is keystrokes per second for write actions.
	TypingRate float64 `mapstructure:"typing_rate" yaml:"typing_rate"`
}

// SetDefaults registers every configuration default on the given viper
// instance. Values not present in the config file or environment fall back to
// these.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "operator-cli")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("model.provider", "openai")
	v.SetDefault("model.model", "gpt-4o")
	v.SetDefault("model.ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("model.default_ollama_model", "llava")
	v.SetDefault("model.request_timeout", 2*time.Minute)
	v.SetDefault("model.max_attempts", 3)
	v.SetDefault("model.backoff_initial", 4*time.Second)
	v.SetDefault("model.backoff_max", 10*time.Second)
	v.SetDefault("model.temperature", 0.7)
	v.SetDefault("model.max_tokens", 1000)

	v.SetDefault("agent.max_iterations", 30)

	v.SetDefault("screen.dir", "screenshots")
	v.SetDefault("screen.max_width", 1920)
	v.SetDefault("screen.max_height", 1080)
	v.SetDefault("screen.jpeg_quality", 85)

	v.SetDefault("executor.mouse_move_duration", 200*time.Millisecond)
	v.SetDefault("executor.orbit_duration", 500*time.Millisecond)
	v.SetDefault("executor.orbit_radius", 50.0)
	v.SetDefault("executor.key_hold", 100*time.Millisecond)
	v.SetDefault("executor.typing_rate", 25.0)
}

// Load reads the configuration from an optional file, the environment, and a
// local .env file, and returns the fully resolved Config. A missing config
// file is not an error; defaults and environment variables carry the run.
func Load(cfgFile string) (*Config, error) {
	// .env first so OPERATOR_MODEL_API_KEY can live beside the binary rather
	// than in the YAML. Absence is fine.
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("operator")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("OPERATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints after unmarshalling.
func (c *Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if c.Screen.MaxWidth <= 0 || c.Screen.MaxHeight <= 0 {
		return fmt.Errorf("screen.max_width and screen.max_height must be positive")
	}
	if c.Screen.JPEGQuality < 1 || c.Screen.JPEGQuality > 100 {
		return fmt.Errorf("screen.jpeg_quality must be in [1,100], got %d", c.Screen.JPEGQuality)
	}
	if c.Agent.MaxIterations < 0 {
		return fmt.Errorf("agent.max_iterations must be >= 0")
	}
	if c.Executor.TypingRate <= 0 {
		return fmt.Errorf("executor.typing_rate must be positive")
	}
	return nil
}

// Validate checks the model backend section.
func (m *ModelConfig) Validate() error {
	switch m.Provider {
	case ProviderOpenAI:
		if m.APIKey == "" {
			return fmt.Errorf("model.api_key is required for the openai provider (set OPERATOR_MODEL_API_KEY)")
		}
	case ProviderOllama:
		if m.OllamaHost == "" {
			return fmt.Errorf("model.ollama_host is required for the ollama provider")
		}
	default:
		return fmt.Errorf("unknown model provider %q", m.Provider)
	}
	if m.MaxAttempts < 1 {
		return fmt.Errorf("model.max_attempts must be >= 1")
	}
	if m.BackoffInitial <= 0 || m.BackoffMax < m.BackoffInitial {
		return fmt.Errorf("model backoff bounds are invalid (initial=%s max=%s)", m.BackoffInitial, m.BackoffMax)
	}
	return nil
}

// ChatEndpoint resolves the chat completions URL for the configured provider.
func (m *ModelConfig) ChatEndpoint() string {
	if m.Endpoint != "" {
		return m.Endpoint
	}
	if m.Provider == ProviderOllama {
		return strings.TrimRight(m.OllamaHost, "/") + "/v1/chat/completions"
	}
	return "https://api.openai.com/v1/chat/completions"
}

// NewDefaultConfig returns a Config populated purely from defaults. Used by
// tests and as the fallback when config loading fails before logging exists.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Unmarshalling registered defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}
