package backend

import (
	"fmt"
	"net/http"
	"os"
)

// Type identifies supported backends.
type Type string

const (
	TypeMock      Type = "mock"
	TypeAnthropic Type = "anthropic"
	TypeOpenAI    Type = "openai"
)

// Config holds backend configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient HTTPClient
}

// ConfigOption modifies backend configuration.
type ConfigOption func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL sets the base URL.
func WithBaseURL(url string) ConfigOption {
	return func(c *Config) { c.BaseURL = url }
}

// WithModel sets the model.
func WithModel(model string) ConfigOption {
	return func(c *Config) { c.Model = model }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client HTTPClient) ConfigOption {
	return func(c *Config) { c.HTTPClient = client }
}

// Builder constructs a backend from config.
type Builder func(cfg Config) Backend

// Factory creates generation backends. Each Create call returns a fresh
// instance with a zeroed token accumulator.
type Factory struct {
	builders map[Type]Builder
}

// NewFactory creates a factory with the built-in builders.
func NewFactory() *Factory {
	f := &Factory{builders: make(map[Type]Builder)}
	f.RegisterDefaults()
	return f
}

// RegisterDefaults registers the built-in backend builders.
func (f *Factory) RegisterDefaults() {
	f.Register(TypeMock, func(Config) Backend {
		return NewMock()
	})
	f.Register(TypeAnthropic, func(cfg Config) Backend {
		return NewAnthropicWithClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.HTTPClient)
	})
	f.Register(TypeOpenAI, func(cfg Config) Backend {
		return NewOpenAIWithClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.HTTPClient)
	})
}

// Register adds a builder. Allows extension with custom backends.
func (f *Factory) Register(t Type, builder Builder) {
	f.builders[t] = builder
}

// Create returns a new backend instance.
func (f *Factory) Create(t Type, opts ...ConfigOption) (Backend, error) {
	cfg := Config{
		HTTPClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Apply environment defaults
	if cfg.APIKey == "" {
		cfg.APIKey = envKey(t)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = envBaseURL(t)
	}

	builder, ok := f.builders[t]
	if !ok {
		return nil, fmt.Errorf("unknown backend type: %s", t)
	}
	return builder(cfg), nil
}

// CreateByID creates a backend from a string ID.
func (f *Factory) CreateByID(id string, opts ...ConfigOption) (Backend, error) {
	switch id {
	case "mock", "dry-run", "":
		return f.Create(TypeMock, opts...)
	case "anthropic", "claude":
		return f.Create(TypeAnthropic, opts...)
	case "openai", "gpt":
		return f.Create(TypeOpenAI, opts...)
	default:
		return nil, fmt.Errorf("unknown backend: %s", id)
	}
}

// Default is the global factory instance.
var Default = NewFactory()

// envKey returns the environment variable for a backend's API key.
func envKey(t Type) string {
	switch t {
	case TypeAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case TypeOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

// envBaseURL returns the environment variable for a backend's base URL.
func envBaseURL(t Type) string {
	switch t {
	case TypeAnthropic:
		return os.Getenv("ANTHROPIC_BASE_URL")
	case TypeOpenAI:
		return os.Getenv("OPENAI_BASE_URL")
	}
	return ""
}
