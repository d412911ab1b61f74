package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dougong-game/aichat-client/exception"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_MinimalFileGetsDefaults(t *testing.T) {
	path := writeConfigFile(t, DefaultConfigFileName, `{
		"apiBaseUrl": " https://api.example.com/v1 ",
		"apiKey": "sk-test",
		"model": "gpt-4o-mini"
	}`)

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1", cfg.ApiBaseUrl)
	assert.Equal(t, "sk-test", cfg.ApiKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "/chat/completions", cfg.ChatCompletionsPath)
	assert.Equal(t, "/models", cfg.HeartbeatPath)
	assert.Equal(t, 60, cfg.RequestOptions.ChatTimeoutSeconds)
	assert.Equal(t, 0.7, cfg.RequestOptions.Temperature)
	assert.True(t, cfg.Heartbeat.Enabled)
	assert.Equal(t, 5.0, cfg.Heartbeat.IntervalSeconds)
	assert.Equal(t, 8, cfg.Heartbeat.TimeoutSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Logging.MaxSizeMb)
	assert.Empty(t, cfg.Monitoring.ListenAddress)
}

func TestLoadConfig_NestedOptions(t *testing.T) {
	path := writeConfigFile(t, "aichat.yaml", `
apiBaseUrl: http://localhost:8080/v1
apiKey: sk-local
model: local-model
chatCompletionsPath: https://proxy.example.com/chat
requestOptions:
  chatTimeoutSeconds: 15
  temperature: 1.2
  systemPrompt: You are a helpful innkeeper.
heartbeat:
  enabled: false
  intervalSeconds: 0.5
logging:
  level: DEBUG
monitoring:
  listenAddress: 127.0.0.1:9090
`)

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "https://proxy.example.com/chat", cfg.ChatCompletionsPath)
	assert.Equal(t, 15, cfg.RequestOptions.ChatTimeoutSeconds)
	assert.Equal(t, 1.2, cfg.RequestOptions.Temperature)
	assert.Equal(t, "You are a helpful innkeeper.", cfg.RequestOptions.SystemPrompt)
	assert.False(t, cfg.Heartbeat.Enabled)
	assert.Equal(t, 0.5, cfg.Heartbeat.IntervalSeconds)
	assert.Equal(t, 8, cfg.Heartbeat.TimeoutSeconds)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:9090", cfg.Monitoring.ListenAddress)
}

func TestLoadConfig_MissingMandatoryField(t *testing.T) {
	path := writeConfigFile(t, "openai_config.json", `{"apiBaseUrl":"https://api.example.com","model":"   "}`)

	cfg, err := LoadConfig(path)

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.True(t, exception.HasCode(err, exception.ConfigurationError))
	assert.Contains(t, err.Error(), "Config.ApiKey")
	assert.Contains(t, err.Error(), "Config.Model")
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "openai_config.json", `{"apiBaseUrl":"https://api.example.com","model":"gpt-test"}`)
	t.Setenv("AICHAT_APIKEY", "sk-from-env")
	t.Setenv("AICHAT_REQUESTOPTIONS_TEMPERATURE", "0.2")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.ApiKey)
	assert.Equal(t, 0.2, cfg.RequestOptions.Temperature)
}

func TestLoadConfig_FileErrors(t *testing.T) {
	_, err := LoadConfig("  ")
	assert.True(t, exception.HasCode(err, exception.ConfigurationError))

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, exception.HasCode(err, exception.ConfigFileNotFound))

	path := writeConfigFile(t, "broken.json", `{"apiBaseUrl": `)
	_, err = LoadConfig(path)
	assert.True(t, exception.HasCode(err, exception.ConfigFileReadFailed))
}

func TestLoadConfig_FileWithoutExtensionIsJson(t *testing.T) {
	path := writeConfigFile(t, "aichat", `{"apiBaseUrl":"https://api.example.com","apiKey":"k","model":"m"}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "m", cfg.Model)
}

func TestValidate_WhitespaceOnlyIsBlank(t *testing.T) {
	err := Validate(Config{ApiBaseUrl: "http://localhost", ApiKey: "  ", Model: "gpt-test"})
	require.Error(t, err)
	assert.True(t, exception.HasCode(err, exception.ConfigurationError))
	assert.Contains(t, err.Error(), "Config.ApiKey (required)")

	assert.NoError(t, Validate(Config{ApiBaseUrl: " http://localhost ", ApiKey: "sk", Model: "gpt-test", Logging: LoggingConfig{Level: " INFO "}}))
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	err := Validate(Config{ApiBaseUrl: "u", ApiKey: "k", Model: "m", Logging: LoggingConfig{Level: "loud"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.Logging.Level (oneof)")
}
