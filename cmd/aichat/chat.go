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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dougong-game/aichat-client/service"
	"github.com/dougong-game/aichat-client/view"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func runChat(cmd *cobra.Command, args []string) error {
	aiChat, err := service.NewAIChatService(cfg)
	if err != nil {
		return err
	}
	defer aiChat.Close()

	readyChan := make(chan bool, 1)
	var readyOnce sync.Once
	aiChat.Heartbeat().AddStateListener(func(state view.HeartbeatState) {
		if state.ConnectionValid {
			readyOnce.Do(func() { readyChan <- true })
		}
	})
	if cfg.Heartbeat.Enabled {
		aiChat.StartHeartbeat()
	}

	loop := newChatLoop(aiChat, cmd.OutOrStdout(), cmd.ErrOrStderr(), systemPrompt, tickInterval)

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	group, groupCtx := errgroup.WithContext(ctx)
	if address := strings.TrimSpace(cfg.Monitoring.ListenAddress); address != "" {
		group.Go(func() error {
			return runStatusServer(groupCtx, address, newStatusRouter(aiChat, readyChan))
		})
	}
	group.Go(func() error {
		defer cancel()
		if len(args) > 0 {
			return loop.runOnce(groupCtx, strings.Join(args, " "), interrupts)
		}
		return loop.run(groupCtx, readLines(cmd.InOrStdin()), interrupts)
	})
	return group.Wait()
}

// chatLoop is the foreground side of the chat client: it owns every SendChat, Tick and cancel call.
type chatLoop struct {
	aiChat       service.AIChatService
	out          io.Writer
	errOut       io.Writer
	systemPrompt string
	tick         time.Duration
}

func newChatLoop(aiChat service.AIChatService, out io.Writer, errOut io.Writer, systemPrompt string, tick time.Duration) *chatLoop {
	if tick <= 0 {
		tick = 16 * time.Millisecond
	}
	l := &chatLoop{aiChat: aiChat, out: out, errOut: errOut, systemPrompt: systemPrompt, tick: tick}
	aiChat.AddListener(service.ChatStreamListenerFuncs{
		TextUpdated: func(delta string) {
			fmt.Fprint(l.out, delta)
		},
		RequestCompleted: func(fullText string) {
			fmt.Fprintln(l.out)
		},
		RequestFailed: func(errorMessage string) {
			fmt.Fprintf(l.errOut, "\n[error] %s\n", errorMessage)
		},
	})
	return l
}

func (l *chatLoop) run(ctx context.Context, lines <-chan string, interrupts <-chan os.Signal) error {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()
	quitting := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				lines = nil
				quitting = true
			} else if l.handleLine(line) {
				quitting = true
				l.aiChat.CancelCurrentRequest()
			}
		case <-interrupts:
			if !l.aiChat.IsRequesting() {
				return nil
			}
			l.aiChat.CancelCurrentRequest()
		case <-ticker.C:
			l.aiChat.Tick()
		}
		if quitting && !l.aiChat.IsRequesting() {
			return nil
		}
	}
}

// runOnce sends one message and waits for its terminal notification.
func (l *chatLoop) runOnce(ctx context.Context, message string, interrupts <-chan os.Signal) error {
	if err := l.aiChat.SendChat(message, l.systemPrompt); err != nil {
		return err
	}
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for l.aiChat.IsRequesting() {
		select {
		case <-ctx.Done():
			l.aiChat.CancelCurrentRequest()
		case <-interrupts:
			l.aiChat.CancelCurrentRequest()
		case <-ticker.C:
		}
		l.aiChat.Tick()
	}
	if l.aiChat.Status() != view.SessionCompleted {
		return errors.New(l.aiChat.LastRequestErrorMessage())
	}
	return nil
}

// handleLine sends a chat message or runs a slash command, it reports whether the user asked to quit.
func (l *chatLoop) handleLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	switch trimmed {
	case "":
		return false
	case "/quit", "/exit":
		return true
	case "/cancel":
		l.aiChat.CancelCurrentRequest()
		return false
	case "/heartbeat":
		l.aiChat.TriggerHeartbeat()
		return false
	case "/clear":
		if l.aiChat.IsRequesting() {
			fmt.Fprintln(l.errOut, "[error] cannot clear while a request is running")
			return false
		}
		l.aiChat.ClearChatCache()
		return false
	case "/status":
		status, err := json.MarshalIndent(l.aiChat.AIChatStatus(), "", "  ")
		if err != nil {
			log.Errorf("Failed to render status: %v", err)
			return false
		}
		fmt.Fprintln(l.out, string(status))
		return false
	}
	if err := l.aiChat.SendChat(line, l.systemPrompt); err != nil {
		log.Debugf("Chat message was not sent: %v", err)
	}
	return false
}

func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			log.Warnf("Failed to read input: %v", err)
		}
	}()
	return lines
}
