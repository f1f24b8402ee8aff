package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindtuner/mindtuner-go/pkg/core"
)

func TestLoadConfigFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, cfg *core.Config)
		wantErr bool
	}{
		{
			name: "sqlite with deepseek",
			envVars: map[string]string{
				"DATABASE_PROVIDER": "sqlite",
				"SQLITE_PATH":       "./test.db",
				"LLM_PROVIDER":      "deepseek",
				"LLM_API_KEY":       "test-key",
			},
			check: func(t *testing.T, cfg *core.Config) {
				assert.Equal(t, "./test.db", cfg.Database.SQLite.Path)
				assert.Equal(t, "deepseek", cfg.LLM.Provider)
				assert.Equal(t, 30, cfg.LLM.TimeoutSeconds)
				assert.NoError(t, cfg.Validate())
			},
		},
		{
			name: "postgres with speech",
			envVars: map[string]string{
				"DATABASE_PROVIDER":    "postgres",
				"POSTGRES_PORT":        "6543",
				"LLM_PROVIDER":         "openai",
				"LLM_API_KEY":          "test-key",
				"LLM_RATE_LIMIT":       "2.5",
				"SPEECH_ENABLED":       "true",
				"SPEECH_BUCKET":        "mt-audio",
				"SPEECH_SPEAKING_RATE": "1.1",
			},
			check: func(t *testing.T, cfg *core.Config) {
				assert.Equal(t, 6543, cfg.Database.Postgres.Port)
				assert.Equal(t, 2.5, cfg.LLM.RateLimit)
				assert.True(t, cfg.Speech.Enabled)
				assert.Equal(t, 1.1, cfg.Speech.SpeakingRate)
				assert.Equal(t, "en-US-Standard-A", cfg.Speech.VoiceName)
				assert.NoError(t, cfg.Validate())
			},
		},
		{
			name: "malformed port",
			envVars: map[string]string{
				"MYSQL_PORT": "not-a-port",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := core.LoadConfigFromEnv()
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
		"database": {"provider": "memory"},
		"llm": {"provider": "openai", "api_key": "k", "model": "gpt-4o"},
		"logging": {"level": "debug"}
	}`), 0o600))

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
database:
  provider: mysql
  mysql:
    host: db
    port: 3306
    user: mt
    database: mindtuner
llm:
  provider: deepseek
  api_key: k
  timeout_seconds: 10
speech:
  enabled: true
  bucket: audio
  cdn_domain: cdn.example.com
`), 0o600))

	cfg, err := core.LoadConfigFromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())

	cfg, err = core.LoadConfigFromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "db", cfg.Database.MySQL.Host)
	assert.Equal(t, 10, cfg.LLM.TimeoutSeconds)
	assert.Equal(t, "cdn.example.com", cfg.Speech.CDNDomain)
	assert.Equal(t, "en-US", cfg.Speech.SynthesizerConfig().LanguageCode)
	assert.NoError(t, cfg.Validate())

	_, err = core.LoadConfigFromFile(filepath.Join(dir, "config.toml"))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = core.LoadConfigFromJSON(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *core.Config {
		return &core.Config{
			Database: core.DatabaseConfig{Provider: core.DatabaseMemory},
			LLM:      core.LLMConfig{Provider: core.LLMDeepSeek, APIKey: "k"},
		}
	}
	require.NoError(t, valid().Validate())

	local := valid()
	local.LLM = core.LLMConfig{Provider: core.LLMOllama}
	require.NoError(t, local.Validate(), "ollama needs no api key")

	tests := []struct {
		name   string
		mutate func(c *core.Config)
	}{
		{"unknown database", func(c *core.Config) { c.Database.Provider = "oracle" }},
		{"sqlite without path", func(c *core.Config) { c.Database.Provider = core.DatabaseSQLite }},
		{"unknown llm", func(c *core.Config) { c.LLM.Provider = "anthropic" }},
		{"missing api key", func(c *core.Config) { c.LLM.APIKey = "" }},
		{"negative timeout", func(c *core.Config) { c.LLM.TimeoutSeconds = -1 }},
		{"speech without bucket", func(c *core.Config) { c.Speech.Enabled = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)
		})
	}
}

func TestFindEnvFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("LOG_LEVEL=debug\n"), 0o600))

	chdir(t, nested)
	path, found := core.FindEnvFile()
	require.True(t, found)
	assert.Equal(t, ".env", filepath.Base(path))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
