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

package logger

import (
	"io"
	"os"
	"strings"

	"github.com/dougong-game/aichat-client/config"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Init configures the standard logrus logger. When a log file is configured the output
// goes to both stderr and a rotated file.
func Init(cfg config.LoggingConfig) {
	level, err := log.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	formatter := &prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
		ForceFormatting: true,
	}
	if cfg.File == "" {
		log.SetFormatter(formatter)
		log.SetOutput(os.Stderr)
		return
	}

	formatter.DisableColors = true
	log.SetFormatter(formatter)
	log.SetOutput(io.MultiWriter(os.Stderr, newRotatingWriter(cfg)))
	log.Debugf("Logging to file %s (maxSizeMb=%d, maxBackups=%d, maxAgeDays=%d)", cfg.File, cfg.MaxSizeMb, cfg.MaxBackups, cfg.MaxAgeDays)
}

func newRotatingWriter(cfg config.LoggingConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMb,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}
