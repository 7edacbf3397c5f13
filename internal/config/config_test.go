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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearProviderEnv(t *testing.T) {
	for _, key := range []string{"OPENAI_API_KEY", "DOUBAO_API_KEY", "ARK_API_KEY", "DASHSCOPE_API_KEY", "GEMINI_API_KEY", "JWT_SECRET"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, "delimiter", cfg.Docent.OutputMode)
	assert.Equal(t, DefaultSystemPrompt, cfg.Docent.SystemPrompt)
	assert.Equal(t, 500, cfg.Docent.MaxTokens)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Same(t, cfg, Get())
}

func TestLoadFile(t *testing.T) {
	clearProviderEnv(t)
	path := writeConfig(t, `
model:
  provider: qwen
qwen:
  api_key: from-file
docent:
  max_tokens: 300
  access_key: museum
storage:
  type: sqlite
auth:
  jwt_secret: secret
  admins:
    - email: curator@example.com
      password_hash: "$2a$10$abc"
`)
	t.Setenv("DASHSCOPE_API_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "qwen", cfg.Model.Provider)
	assert.Equal(t, "from-file", cfg.Qwen.APIKey, "file values win over provider env vars")
	assert.Equal(t, "qwen-plus", cfg.Qwen.Model)
	assert.Equal(t, 300, cfg.Docent.MaxTokens)
	assert.Equal(t, "museum", cfg.Docent.AccessKey)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	require.Len(t, cfg.Auth.Admins, 1)
	assert.Equal(t, "curator@example.com", cfg.Auth.Admins[0].Email)
}

func TestLoadEnv(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("DOCENT_MODEL_PROVIDER", "gemini")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, "gem-key", cfg.Gemini.APIKey)
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearProviderEnv(t)
	cases := map[string]string{
		"provider":    "model:\n  provider: llama\n",
		"output mode": "docent:\n  output_mode: xml\n",
		"storage":     "storage:\n  type: postgres\n",
		"admins without secret": `
auth:
  admins:
    - email: curator@example.com
      password_hash: x
`,
		"redis without url":    "rate_limit:\n  backend: redis\n",
		"zero temperature":     "docent:\n  temperature: 0\n",
		"negative temperature": "docent:\n  temperature: -0.5\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
