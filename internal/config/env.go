// Package config provides centralized configuration management.
// All environment lookups live here instead of scattering os.Getenv
// calls across the codebase.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// OptimizerEnv holds all promptsmith environment variables.
type OptimizerEnv struct {
	// Backend selects the generation backend (PROMPT_OPT_BACKEND):
	// mock, anthropic or openai. Defaults to mock.
	Backend string

	// Model overrides the backend's default model (PROMPT_OPT_MODEL).
	Model string

	// DefaultStep is the stage the wizard opens on (PROMPT_OPT_DEFAULT_STEP).
	DefaultStep string

	// Plain forces the line-mode orchestrator even on a TTY (PROMPT_OPT_PLAIN).
	Plain bool

	// NoColor disables colored output (NO_COLOR, any value).
	NoColor bool

	// AnthropicKey is the Anthropic API key (ANTHROPIC_API_KEY).
	AnthropicKey string

	// AnthropicBaseURL overrides the Anthropic endpoint (ANTHROPIC_BASE_URL).
	AnthropicBaseURL string

	// OpenAIKey is the OpenAI API key (OPENAI_API_KEY).
	OpenAIKey string

	// OpenAIBaseURL overrides the OpenAI endpoint (OPENAI_BASE_URL).
	OpenAIBaseURL string
}

var (
	env     *OptimizerEnv
	envOnce sync.Once
)

// Env returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Env() *OptimizerEnv {
	envOnce.Do(func() {
		env = &OptimizerEnv{
			Backend:          getEnvDefault("PROMPT_OPT_BACKEND", "mock"),
			Model:            os.Getenv("PROMPT_OPT_MODEL"),
			DefaultStep:      getEnvDefault("PROMPT_OPT_DEFAULT_STEP", "user_intent"),
			Plain:            os.Getenv("PROMPT_OPT_PLAIN") == "1",
			NoColor:          os.Getenv("NO_COLOR") != "",
			AnthropicKey:     os.Getenv("ANTHROPIC_API_KEY"),
			AnthropicBaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
			OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		}
	})
	return env
}

// ResetEnv resets the cached environment (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	env = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Paths holds standard promptsmith directory paths.
type Paths struct {
	// Home is the promptsmith home directory (~/.promptsmith)
	Home string

	// Data is the data directory (~/.promptsmith/data)
	Data string

	// Templates is the template override directory (~/.promptsmith/templates)
	Templates string

	// EnvFile is the .env file path (~/.promptsmith/.env)
	EnvFile string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		psHome := filepath.Join(home, ".promptsmith")

		paths = &Paths{
			Home:      psHome,
			Data:      filepath.Join(psHome, "data"),
			Templates: filepath.Join(psHome, "templates"),
			EnvFile:   filepath.Join(psHome, ".env"),
		}
	})
	return paths
}

// Path returns a path under the promptsmith home directory.
func Path(parts ...string) string {
	p := GetPaths()
	allParts := append([]string{p.Home}, parts...)
	return filepath.Join(allParts...)
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// LoadEnvFile reads KEY=VALUE lines from path into the process
// environment. Variables already set keep their value: the real
// environment always wins over the file. A missing file is not an error.
// Call before the first Env() use.
func LoadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}
