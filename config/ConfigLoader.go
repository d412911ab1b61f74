// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dougong-game/aichat-client/exception"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "AICHAT"

// LoadConfig reads the chat client configuration from a local file.
// Values may be overridden with AICHAT_* environment variables (AICHAT_APIKEY, AICHAT_REQUESTOPTIONS_TEMPERATURE, ...).
// apiBaseUrl, apiKey and model are mandatory, a blank value of any of them is a hard failure.
func LoadConfig(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.ConfigurationError,
			Message: exception.ConfigurationErrorMsg,
			Params:  map[string]interface{}{"reason": "config filename is empty"},
		}
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &exception.CustomError{
				Status:  http.StatusNotFound,
				Code:    exception.ConfigFileNotFound,
				Message: exception.ConfigFileNotFoundMsg,
				Params:  map[string]interface{}{"path": path},
			}
		}
		return nil, &exception.CustomError{
			Status:  http.StatusInternalServerError,
			Code:    exception.ConfigFileReadFailed,
			Message: exception.ConfigFileReadFailedMsg,
			Params:  map[string]interface{}{"path": path},
			Debug:   err.Error(),
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"apiBaseUrl", "apiKey", "model", "proxyUrl"} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrapf(err, "failed to bind env for %s", key)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, &exception.CustomError{
			Status:  http.StatusInternalServerError,
			Code:    exception.ConfigFileReadFailed,
			Message: exception.ConfigFileReadFailedMsg,
			Params:  map[string]interface{}{"path": path},
			Debug:   errors.Wrap(err, "failed to parse config").Error(),
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.ConfigurationError,
			Message: exception.ConfigurationErrorMsg,
			Params:  map[string]interface{}{"reason": "unable to decode config"},
			Debug:   err.Error(),
		}
	}

	Normalize(&cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chatCompletionsPath", "/chat/completions")
	v.SetDefault("heartbeatPath", "/models")
	v.SetDefault("proxyUrl", "")
	v.SetDefault("requestOptions.chatTimeoutSeconds", 60)
	v.SetDefault("requestOptions.temperature", 0.7)
	v.SetDefault("requestOptions.systemPrompt", "")
	v.SetDefault("heartbeat.enabled", true)
	v.SetDefault("heartbeat.intervalSeconds", 5)
	v.SetDefault("heartbeat.timeoutSeconds", 8)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.maxSizeMb", 100)
	v.SetDefault("logging.maxBackups", 3)
	v.SetDefault("logging.maxAgeDays", 7)
	v.SetDefault("logging.compress", false)
	v.SetDefault("monitoring.listenAddress", "")
}

// Normalize trims the string settings and lowercases the log level.
func Normalize(cfg *Config) {
	cfg.ApiBaseUrl = strings.TrimSpace(cfg.ApiBaseUrl)
	cfg.ApiKey = strings.TrimSpace(cfg.ApiKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.ChatCompletionsPath = strings.TrimSpace(cfg.ChatCompletionsPath)
	cfg.HeartbeatPath = strings.TrimSpace(cfg.HeartbeatPath)
	cfg.ProxyUrl = strings.TrimSpace(cfg.ProxyUrl)
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
}

// Validate checks struct tags of the config and reports every failed field in one error.
// Whitespace-only values count as blank.
func Validate(cfg Config) error {
	Normalize(&cfg)
	validate := validator.New()
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.ConfigurationError,
			Message: exception.ConfigurationErrorMsg,
			Params:  map[string]interface{}{"reason": "validation failed"},
			Debug:   err.Error(),
		}
	}
	fields := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, fieldErr.Namespace()+" ("+fieldErr.Tag()+")")
	}
	return &exception.CustomError{
		Status:  http.StatusBadRequest,
		Code:    exception.ConfigurationError,
		Message: exception.ConfigurationErrorMsg,
		Params:  map[string]interface{}{"reason": "invalid fields: " + strings.Join(fields, ", ")},
	}
}
