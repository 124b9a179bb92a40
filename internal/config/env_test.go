package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv(t *testing.T) {
	ResetEnv()
	t.Setenv("PROMPT_OPT_BACKEND", "anthropic")
	t.Setenv("PROMPT_OPT_MODEL", "claude-3-5-haiku-20241022")
	t.Setenv("PROMPT_OPT_PLAIN", "1")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	defer ResetEnv()

	env := Env()

	assert.Equal(t, "anthropic", env.Backend)
	assert.Equal(t, "claude-3-5-haiku-20241022", env.Model)
	assert.True(t, env.Plain)
	assert.Equal(t, "sk-test", env.AnthropicKey)
}

func TestEnvDefaults(t *testing.T) {
	ResetEnv()
	t.Setenv("PROMPT_OPT_BACKEND", "")
	t.Setenv("PROMPT_OPT_DEFAULT_STEP", "")
	defer ResetEnv()

	env := Env()

	assert.Equal(t, "mock", env.Backend)
	assert.Equal(t, "user_intent", env.DefaultStep)
}

func TestEnvSingleton(t *testing.T) {
	ResetEnv()
	defer ResetEnv()

	assert.Same(t, Env(), Env())
}

func TestGetEnvDefault(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		envVal   string
		fallback string
		want     string
	}{
		{"env set", "PS_TEST_KEY", "value", "default", "value"},
		{"env empty", "PS_TEST_KEY", "", "default", "default"},
		{"env not set", "PS_TEST_KEY_NOTSET", "", "fallback", "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envVal != "" {
				t.Setenv(tt.key, tt.envVal)
			}
			got := getEnvDefault(tt.key, tt.fallback)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetPaths(t *testing.T) {
	paths := GetPaths()

	assert.NotEmpty(t, paths.Home)
	assert.Contains(t, paths.Home, ".promptsmith")
	assert.Equal(t, filepath.Join(paths.Home, "data"), paths.Data)
	assert.Equal(t, filepath.Join(paths.Home, "templates"), paths.Templates)
	assert.Equal(t, filepath.Join(paths.Home, ".env"), paths.EnvFile)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"# comment\n"+
			"PS_FILE_KEY=from-file\n"+
			"PS_FILE_QUOTED=\"quoted value\"\n"+
			"PS_FILE_PRESET=from-file\n"+
			"not a pair\n",
	), 0644))

	t.Setenv("PS_FILE_PRESET", "from-env")
	os.Unsetenv("PS_FILE_KEY")
	os.Unsetenv("PS_FILE_QUOTED")
	defer os.Unsetenv("PS_FILE_KEY")
	defer os.Unsetenv("PS_FILE_QUOTED")

	require.NoError(t, LoadEnvFile(envFile))

	assert.Equal(t, "from-file", os.Getenv("PS_FILE_KEY"))
	assert.Equal(t, "quoted value", os.Getenv("PS_FILE_QUOTED"))
	// Real environment wins over the file.
	assert.Equal(t, "from-env", os.Getenv("PS_FILE_PRESET"))
}

func TestLoadEnvFileMissing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")))
}
