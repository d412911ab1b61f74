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

package main

import (
	"strings"
	"time"

	"github.com/dougong-game/aichat-client/config"
	"github.com/dougong-game/aichat-client/logger"
	"github.com/dougong-game/aichat-client/metrics"
	"github.com/dougong-game/aichat-client/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	cfg        *config.Config

	rootCmd = &cobra.Command{
		Use:           "aichat",
		Short:         "Streaming chat client for OpenAI compatible endpoints",
		Long:          `aichat talks to an OpenAI compatible chat completions endpoint, prints streamed answers as they arrive and keeps probing the endpoint with a heartbeat.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if level := strings.TrimSpace(logLevel); level != "" {
				loaded.Logging.Level = strings.ToLower(level)
			}
			logger.Init(loaded.Logging)
			if log.IsLevelEnabled(log.DebugLevel) {
				utils.PrintConfig(loaded)
			}
			cfg = loaded
			return nil
		},
	}

	chatCmd = &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat interactively, or send a single message when one is given",
		Long: `Without arguments every line read from stdin is sent as a chat message.
Lines starting with / are commands: /cancel, /status, /heartbeat, /clear, /quit.
Ctrl+C cancels the running request, or exits when no request is running.`,
		RunE: runChat,
	}
	systemPrompt string
	tickInterval time.Duration

	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Probe the endpoint once and report whether the API key is accepted",
		Args:  cobra.NoArgs,
		RunE:  runPing,
	}
)

func init() {
	metrics.RegisterAllPrometheusApplicationMetrics()

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFileName, "path to the chat client config file (json, yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "overrides logging.level from the config file")

	chatCmd.Flags().StringVarP(&systemPrompt, "system", "s", "", "extra system prompt sent with every message")
	chatCmd.Flags().DurationVar(&tickInterval, "tick", 16*time.Millisecond, "interval of the foreground loop that drains streamed chunks")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(pingCmd)
}
