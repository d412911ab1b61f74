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

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dougong-game/aichat-client/config"
	"github.com/dougong-game/aichat-client/exception"
	"github.com/dougong-game/aichat-client/logger"
	"github.com/dougong-game/aichat-client/metrics"
	"github.com/dougong-game/aichat-client/utils"
	"github.com/dougong-game/aichat-client/view"
	"github.com/google/uuid"
)

const ChatCanceledMsg = "AI chat request canceled."

const minTemperature = 0.0
const maxTemperature = 2.0

// ChatSessionService runs at most one streaming chat session at a time.
//
// SendChat, Tick, CancelCurrentRequest, ClearChatCache and the cache accessors belong to a single
// foreground goroutine. The transport runs on its own goroutine and only touches the payload queue.
// IsRequesting, Status, SessionId and LastRequestErrorMessage may be read from any goroutine.
type ChatSessionService interface {
	SendChat(userInput string, extraSystemPrompt string) error
	CancelCurrentRequest()
	ClearChatCache()
	// Tick drains received payloads and finalizes the session once the transport has returned.
	Tick()
	BuildRequestBody(userInput string, extraSystemPrompt string) ([]byte, error)
	AddListener(listener ChatStreamListener) func()

	IsRequesting() bool
	Status() view.SessionStatus
	SessionId() string
	LastRequestErrorMessage() string
	CachedResponseText() string
	CachedChunks() []view.StreamChunk
	SawDoneMarker() bool
}

func NewChatSessionService(cfg config.Config, networkService NetworkService, decoder ChunkDecoder) ChatSessionService {
	c := &chatSessionServiceImpl{
		cfg:            cfg,
		networkService: networkService,
		decoder:        decoder,
		queue:          NewPayloadQueue(),
		listeners:      &listenerRegistry{},
		status:         view.SessionIdle,
	}
	c.publish()
	return c
}

type activeSession struct {
	id        string
	logCtx    context.Context
	cancel    context.CancelFunc
	done      chan view.StreamResult
	startedAt time.Time
}

type sessionSnapshot struct {
	status    view.SessionStatus
	sessionId string
	lastError string
}

type chatSessionServiceImpl struct {
	cfg            config.Config
	networkService NetworkService
	decoder        ChunkDecoder
	queue          PayloadQueue
	listeners      *listenerRegistry

	active       *activeSession
	status       view.SessionStatus
	sessionId    string
	lastError    string
	chunks       []view.StreamChunk
	responseText strings.Builder
	sawDone      bool

	requesting atomic.Bool
	snapshot   atomic.Pointer[sessionSnapshot]
}

func (c *chatSessionServiceImpl) SendChat(userInput string, extraSystemPrompt string) error {
	if strings.TrimSpace(userInput) == "" {
		err := &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidChatInput,
			Message: exception.InvalidChatInputMsg,
		}
		if c.active == nil {
			c.lastError = err.Error()
			c.publish()
		}
		c.reject(err)
		return err
	}
	if c.active != nil {
		// the running session keeps its state, lastError included
		err := &exception.CustomError{
			Status:  http.StatusConflict,
			Code:    exception.ChatRequestInProgress,
			Message: exception.ChatRequestInProgressMsg,
			Params:  map[string]interface{}{"sessionId": c.active.id},
		}
		c.reject(err)
		return err
	}

	c.lastError = ""
	c.ClearChatCache()

	chatUrl := utils.BuildEndpointUrl(c.cfg.ApiBaseUrl, c.cfg.ChatCompletionsPath)
	if chatUrl == "" {
		return c.failBeforeStart(&exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.EmptyEndpointUrl,
			Message: ChatUrlEmptyMsg,
		})
	}

	body, err := c.BuildRequestBody(userInput, extraSystemPrompt)
	if err != nil {
		return c.failBeforeStart(&exception.CustomError{
			Status:  http.StatusInternalServerError,
			Code:    exception.RequestBodyBuildFailed,
			Message: exception.RequestBodyBuildFailedMsg,
			Debug:   err.Error(),
		})
	}

	sessionId := uuid.New().String()
	ctx, cancel := context.WithCancel(context.Background())
	active := &activeSession{
		id:        sessionId,
		logCtx:    logger.WithSession(context.Background(), sessionId),
		cancel:    cancel,
		done:      make(chan view.StreamResult, 1),
		startedAt: time.Now(),
	}
	c.active = active
	c.sessionId = sessionId
	c.status = view.SessionSending
	c.requesting.Store(true)
	c.publish()
	metrics.ChatSessionActive.Set(1)

	logger.Infof(active.logCtx, "AI chat request started. url=%s model=%s", chatUrl, c.cfg.Model)
	logger.Debugf(active.logCtx, "AI chat request body fingerprint=%s size=%d", utils.GetEncodedXXHash128(body), len(body))

	apiKey := c.cfg.ApiKey
	timeout := time.Duration(c.cfg.RequestOptions.ChatTimeoutSeconds) * time.Second
	queue := c.queue
	utils.SafeAsync(func() {
		var result view.StreamResult
		if err := utils.SafeSync(func() error {
			result = c.networkService.StreamChat(ctx, chatUrl, apiKey, body, timeout, queue.Enqueue)
			return nil
		}); err != nil {
			result = view.StreamFailure(false, 0, exception.TransportError, err.Error(), "")
		}
		active.done <- result
	})

	c.status = view.SessionStreaming
	c.publish()
	return nil
}

func (c *chatSessionServiceImpl) CancelCurrentRequest() {
	if c.active == nil {
		return
	}
	logger.Infof(c.active.logCtx, "AI chat request cancel requested")
	c.active.cancel()
}

func (c *chatSessionServiceImpl) ClearChatCache() {
	c.chunks = nil
	c.responseText.Reset()
	c.sawDone = false
	c.queue.Clear()
}

func (c *chatSessionServiceImpl) Tick() {
	c.drainPayloads()

	active := c.active
	if active == nil {
		return
	}
	select {
	case result := <-active.done:
		// payloads enqueued after the drain above but before the transport returned
		c.drainPayloads()
		c.finalize(active, result)
	default:
	}
}

func (c *chatSessionServiceImpl) BuildRequestBody(userInput string, extraSystemPrompt string) ([]byte, error) {
	return json.Marshal(c.buildRequest(userInput, extraSystemPrompt))
}

func (c *chatSessionServiceImpl) buildRequest(userInput string, extraSystemPrompt string) view.ChatRequest {
	messages := make([]view.ChatMessage, 0, 3)
	// blank prompts are left out, the rest are sent as written
	if strings.TrimSpace(c.cfg.RequestOptions.SystemPrompt) != "" {
		messages = append(messages, view.ChatMessage{Role: view.ChatRoleSystem, Content: c.cfg.RequestOptions.SystemPrompt})
	}
	if strings.TrimSpace(extraSystemPrompt) != "" {
		messages = append(messages, view.ChatMessage{Role: view.ChatRoleSystem, Content: extraSystemPrompt})
	}
	messages = append(messages, view.ChatMessage{Role: view.ChatRoleUser, Content: userInput})

	return view.ChatRequest{
		Model:       c.cfg.Model,
		Stream:      true,
		Temperature: clampTemperature(c.cfg.RequestOptions.Temperature),
		Messages:    messages,
	}
}

func (c *chatSessionServiceImpl) AddListener(listener ChatStreamListener) func() {
	return c.listeners.add(listener)
}

func (c *chatSessionServiceImpl) IsRequesting() bool {
	return c.requesting.Load()
}

func (c *chatSessionServiceImpl) Status() view.SessionStatus {
	return c.snapshot.Load().status
}

func (c *chatSessionServiceImpl) SessionId() string {
	return c.snapshot.Load().sessionId
}

func (c *chatSessionServiceImpl) LastRequestErrorMessage() string {
	return c.snapshot.Load().lastError
}

func (c *chatSessionServiceImpl) CachedResponseText() string {
	return c.responseText.String()
}

func (c *chatSessionServiceImpl) CachedChunks() []view.StreamChunk {
	chunks := make([]view.StreamChunk, len(c.chunks))
	copy(chunks, c.chunks)
	return chunks
}

func (c *chatSessionServiceImpl) SawDoneMarker() bool {
	return c.sawDone
}

func (c *chatSessionServiceImpl) drainPayloads() {
	logCtx := context.Background()
	if c.active != nil {
		logCtx = c.active.logCtx
	}
	for {
		payload, ok := c.queue.Dequeue()
		if !ok {
			return
		}
		c.processPayload(logCtx, payload)
	}
}

func (c *chatSessionServiceImpl) processPayload(logCtx context.Context, payload string) {
	if payload == view.DoneMarker {
		c.sawDone = true
		return
	}

	chunk, err := c.decoder.Decode(payload)
	if err != nil {
		metrics.StreamDecodeFailuresTotal.Inc()
		logger.Warnf(logCtx, "%s payload='%s'", err.Error(), utils.TruncateForLog(payload, 256))
		return
	}

	c.chunks = append(c.chunks, *chunk)
	metrics.StreamChunksTotal.Inc()
	c.listeners.chunkReceived(*chunk)

	delta := c.decoder.ExtractTextDelta(chunk)
	if delta == "" {
		return
	}
	c.responseText.WriteString(delta)
	c.listeners.textUpdated(delta)
}

// finalize records the terminal state and releases the session before notifying,
// so listeners may start the next session from a terminal notification.
func (c *chatSessionServiceImpl) finalize(active *activeSession, result view.StreamResult) {
	var notify func()
	func() {
		defer c.release(active)
		notify = c.applyResult(active, result)
	}()
	notify()
}

func (c *chatSessionServiceImpl) applyResult(active *activeSession, result view.StreamResult) func() {
	elapsed := time.Since(active.startedAt)

	switch {
	case result.Canceled:
		c.lastError = ChatCanceledMsg
		c.status = view.SessionCanceled
		c.publish()
		recordSession(metrics.OutcomeCanceled, elapsed)
		logger.Infof(active.logCtx, "AI chat request canceled after %d ms, %d chars received", elapsed.Milliseconds(), c.responseText.Len())
		message := c.lastError
		return func() { c.listeners.requestFailed(message) }

	case !result.Success:
		c.lastError = buildRequestErrorMessage(result)
		c.status = view.SessionFailed
		c.publish()
		recordSession(metrics.OutcomeFailed, elapsed)
		logger.Warnf(active.logCtx, "AI chat request failed. %s (code=%s)", c.lastError, result.ErrorCode)
		message := c.lastError
		return func() { c.listeners.requestFailed(message) }

	default:
		if !c.sawDone && len(c.chunks) > 0 {
			logger.Warnf(active.logCtx, "AI chat stream completed without receiving %s marker.", view.DoneMarker)
		}
		c.status = view.SessionCompleted
		c.publish()
		recordSession(metrics.OutcomeCompleted, elapsed)
		logger.Infof(active.logCtx, "AI chat request completed in %d ms. chunks=%d chars=%d", elapsed.Milliseconds(), len(c.chunks), c.responseText.Len())
		fullText := c.responseText.String()
		return func() { c.listeners.requestCompleted(fullText) }
	}
}

func (c *chatSessionServiceImpl) release(active *activeSession) {
	active.cancel()
	if c.active == active {
		c.active = nil
	}
	c.requesting.Store(false)
	metrics.ChatSessionActive.Set(0)
}

// failBeforeStart ends a SendChat that could not reach the transport.
func (c *chatSessionServiceImpl) failBeforeStart(err *exception.CustomError) error {
	c.lastError = err.Message
	c.status = view.SessionFailed
	c.publish()
	c.reject(err)
	return err
}

func (c *chatSessionServiceImpl) reject(err *exception.CustomError) {
	metrics.ChatSessionsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
	logger.Warnf(context.Background(), "%s", err.Error())
	c.listeners.requestFailed(err.Message)
}

func (c *chatSessionServiceImpl) publish() {
	c.snapshot.Store(&sessionSnapshot{
		status:    c.status,
		sessionId: c.sessionId,
		lastError: c.lastError,
	})
}

func buildRequestErrorMessage(result view.StreamResult) string {
	if result.ErrorBody == "" {
		return fmt.Sprintf("%s (status=%d)", result.ErrorMessage, result.StatusCode)
	}
	return fmt.Sprintf("%s (status=%d) body=%s", result.ErrorMessage, result.StatusCode, result.ErrorBody)
}

func recordSession(outcome string, elapsed time.Duration) {
	metrics.ChatSessionsTotal.WithLabelValues(outcome).Inc()
	metrics.ChatSessionDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func clampTemperature(temperature float64) float64 {
	if temperature < minTemperature {
		return minTemperature
	}
	if temperature > maxTemperature {
		return maxTemperature
	}
	return temperature
}
