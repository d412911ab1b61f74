package config

const DefaultConfigFileName = "openai_config.json"

type Config struct {
	ApiBaseUrl          string               `mapstructure:"apiBaseUrl" validate:"required"`
	ApiKey              string               `mapstructure:"apiKey" validate:"required" sensitive:"true"`
	Model               string               `mapstructure:"model" validate:"required"`
	ChatCompletionsPath string               `mapstructure:"chatCompletionsPath"`
	HeartbeatPath       string               `mapstructure:"heartbeatPath"`
	ProxyUrl            string               `mapstructure:"proxyUrl"`
	RequestOptions      RequestOptionsConfig `mapstructure:"requestOptions"`
	Heartbeat           HeartbeatConfig      `mapstructure:"heartbeat"`
	Logging             LoggingConfig        `mapstructure:"logging"`
	Monitoring          MonitoringConfig     `mapstructure:"monitoring"`
}

type RequestOptionsConfig struct {
	ChatTimeoutSeconds int     `mapstructure:"chatTimeoutSeconds" validate:"gte=0"`
	Temperature        float64 `mapstructure:"temperature"`
	SystemPrompt       string  `mapstructure:"systemPrompt"`
}

type HeartbeatConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	IntervalSeconds float64 `mapstructure:"intervalSeconds"`
	TimeoutSeconds  int     `mapstructure:"timeoutSeconds" validate:"gte=0"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	File       string `mapstructure:"file"`
	MaxSizeMb  int    `mapstructure:"maxSizeMb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"maxBackups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"maxAgeDays" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

type MonitoringConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
}
