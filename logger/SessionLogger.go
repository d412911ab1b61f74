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
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type sessionKey struct{}

// WithSession returns a context whose log lines are prefixed with the chat session id.
func WithSession(ctx context.Context, sessionId string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionId)
}

func getSessionPrefix(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if sessionId, ok := ctx.Value(sessionKey{}).(string); ok && sessionId != "" {
		return fmt.Sprintf("[session=%s] ", sessionId)
	}
	return ""
}

func Debugf(ctx context.Context, format string, args ...interface{}) {
	log.Debug(getSessionPrefix(ctx) + fmt.Sprintf(format, args...))
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	log.Info(getSessionPrefix(ctx) + fmt.Sprintf(format, args...))
}

func Warnf(ctx context.Context, format string, args ...interface{}) {
	log.Warn(getSessionPrefix(ctx) + fmt.Sprintf(format, args...))
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	log.Error(getSessionPrefix(ctx) + fmt.Sprintf(format, args...))
}

func Tracef(ctx context.Context, format string, args ...interface{}) {
	log.Trace(getSessionPrefix(ctx) + fmt.Sprintf(format, args...))
}
