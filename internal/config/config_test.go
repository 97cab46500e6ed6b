package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "server:\n  port: \"9090\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "./data/wellness.db", cfg.Database.Path)
	assert.Equal(t, 6*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 10, cfg.LLM.HistoryLimit)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.LLM.Secondary.BaseURL)
	assert.Equal(t, 6*time.Second, cfg.Mood.Timeout)
	assert.Equal(t, "none", cfg.Translation.Provider)
	assert.Equal(t, 5*time.Second, cfg.Translation.Timeout)
	assert.Equal(t, 2, cfg.Recorder.Workers)
	assert.Equal(t, 256, cfg.Recorder.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.Recorder.WriteTimeout)
}

func TestLoadConfig_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "g-key")
	t.Setenv("TEST_JWT", "jwt-secret")

	cfg, err := LoadConfig(writeConfig(t, `
llm:
  timeout: 3s
  primary:
    api_key: ${TEST_GEMINI_KEY}
    model_name: gemini-pro
admin:
  jwt_secret: ${TEST_JWT}
translation:
  provider: libre
  url: http://translate.local
`))
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "g-key", cfg.LLM.Primary.APIKey)
	assert.Equal(t, "jwt-secret", cfg.Admin.JWTSecret)
	// The extractor inherits the primary model settings.
	assert.Equal(t, "g-key", cfg.Mood.Gemini.APIKey)
	assert.Equal(t, "gemini-pro", cfg.Mood.Gemini.ModelName)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"database type", "database:\n  type: mysql\n  path: x\n"},
		{"postgres without url", "database:\n  type: postgres\n"},
		{"libre without url", "translation:\n  provider: libre\n"},
		{"google without key", "translation:\n  provider: google\n"},
		{"unknown provider", "translation:\n  provider: deepl\n"},
		{"telegram without token", "telegram:\n  enabled: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
