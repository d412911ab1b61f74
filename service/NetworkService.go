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
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dougong-game/aichat-client/exception"
	"github.com/dougong-game/aichat-client/metrics"
	"github.com/dougong-game/aichat-client/view"
	log "github.com/sirupsen/logrus"
)

const minRequestTimeout = time.Second
const maxErrorBodyBytes = 64 * 1024
const ssePayloadPrefix = "data:"

const HeartbeatUrlEmptyMsg = "Heartbeat failed. URL is empty."
const HeartbeatCanceledMsg = "Heartbeat canceled by caller."
const HeartbeatTimeoutMsg = "Heartbeat timeout."
const ChatUrlEmptyMsg = "AI chat request failed. URL is empty."
const ChatTimeoutMsg = "AI chat request timeout."
const NetworkServiceClosedMsg = "AI chat network service is closed."

// NetworkService performs the two HTTP exchanges of the chat client on one shared http.Client.
// Both calls block until done and are meant to be run off the foreground goroutine.
type NetworkService interface {
	SendHeartbeat(ctx context.Context, url string, apiKey string, timeout time.Duration) view.HeartbeatResult
	// StreamChat posts body and calls onPayload, on the calling goroutine, for every non-empty SSE data payload in wire order.
	StreamChat(ctx context.Context, url string, apiKey string, body []byte, timeout time.Duration, onPayload func(payload string)) view.StreamResult
	Close()
}

func NewNetworkService(httpClient *http.Client) NetworkService {
	return &networkServiceImpl{httpClient: httpClient}
}

type networkServiceImpl struct {
	httpClient *http.Client
	closeOnce  sync.Once
	closed     atomic.Bool
}

func (n *networkServiceImpl) SendHeartbeat(ctx context.Context, url string, apiKey string, timeout time.Duration) view.HeartbeatResult {
	if strings.TrimSpace(url) == "" {
		return view.HeartbeatFailure(false, 0, exception.EmptyEndpointUrl, HeartbeatUrlEmptyMsg)
	}
	if n.closed.Load() {
		return view.HeartbeatFailure(false, 0, exception.TransportError, NetworkServiceClosedMsg)
	}

	reqCtx, cancel := context.WithTimeout(ctx, clampTimeout(timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return view.HeartbeatFailure(false, 0, exception.TransportError, err.Error())
	}
	applyAuthorization(req, apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return view.HeartbeatFailure(false, 0, exception.CancellationError, HeartbeatCanceledMsg)
		case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
			return view.HeartbeatFailure(false, 0, exception.TimeoutError, HeartbeatTimeoutMsg)
		default:
			log.Debugf("Heartbeat request to %s failed: %v", url, err)
			return view.HeartbeatFailure(false, 0, exception.TransportError, err.Error())
		}
	}
	defer resp.Body.Close()

	if isSuccessStatus(resp.StatusCode) {
		return view.HeartbeatSuccess(resp.StatusCode)
	}
	if isAuthStatus(resp.StatusCode) {
		return view.HeartbeatFailure(true, resp.StatusCode, exception.AuthenticationError, exception.AuthenticationErrorMsg)
	}

	errorBody := tryReadBody(resp.Body)
	errorMessage := fmt.Sprintf("Heartbeat failed with HTTP %d.", resp.StatusCode)
	if errorBody != "" {
		errorMessage += " body=" + errorBody
	}
	return view.HeartbeatFailure(true, resp.StatusCode, exception.ProtocolError, errorMessage)
}

func (n *networkServiceImpl) StreamChat(ctx context.Context, url string, apiKey string, body []byte, timeout time.Duration, onPayload func(payload string)) view.StreamResult {
	if strings.TrimSpace(url) == "" {
		return view.StreamFailure(false, 0, exception.EmptyEndpointUrl, ChatUrlEmptyMsg, "")
	}
	if n.closed.Load() {
		return view.StreamFailure(false, 0, exception.TransportError, NetworkServiceClosedMsg, "")
	}

	reqCtx, cancel := context.WithTimeout(ctx, clampTimeout(timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return view.StreamFailure(false, 0, exception.TransportError, err.Error(), "")
	}
	applyAuthorization(req, apiKey)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return interruptedStreamResult(ctx, reqCtx, err, false, 0)
	}
	defer resp.Body.Close()

	metrics.ChatHttpStatusTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if !isSuccessStatus(resp.StatusCode) {
		errorBody := tryReadBody(resp.Body)
		errorMessage := strings.TrimSpace(fmt.Sprintf("HTTP %d %s", resp.StatusCode, reasonPhrase(resp)))
		errorCode := exception.ProtocolError
		if isAuthStatus(resp.StatusCode) {
			errorCode = exception.AuthenticationError
		}
		return view.StreamFailure(true, resp.StatusCode, errorCode, errorMessage, errorBody)
	}

	if err := readDataLines(resp.Body, onPayload); err != nil {
		return interruptedStreamResult(ctx, reqCtx, err, true, resp.StatusCode)
	}
	return view.StreamSuccess(resp.StatusCode)
}

func (n *networkServiceImpl) Close() {
	n.closeOnce.Do(func() {
		n.closed.Store(true)
		n.httpClient.CloseIdleConnections()
		log.Debug("AI chat network service closed")
	})
}

// readDataLines reads body line by line and hands every non-empty "data:" payload to onPayload.
// Lines without the prefix (blank keep-alives, event:, id:, comments) are ignored.
func readDataLines(body io.Reader, onPayload func(payload string)) error {
	reader := bufio.NewReader(body)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if payload, ok := extractDataPayload(line); ok && onPayload != nil {
				onPayload(payload)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func extractDataPayload(line string) (string, bool) {
	if len(line) < len(ssePayloadPrefix) || !strings.EqualFold(line[:len(ssePayloadPrefix)], ssePayloadPrefix) {
		return "", false
	}
	payload := strings.TrimSpace(line[len(ssePayloadPrefix):])
	if payload == "" {
		return "", false
	}
	return payload, true
}

// interruptedStreamResult tells a caller cancel apart from the request deadline.
// The caller context is checked first, so a cancel racing the deadline is reported as a cancel.
func interruptedStreamResult(callerCtx context.Context, reqCtx context.Context, err error, reachable bool, statusCode int) view.StreamResult {
	if callerCtx.Err() != nil {
		return view.StreamCanceled(exception.CancellationError)
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return view.StreamFailure(reachable, statusCode, exception.TimeoutError, ChatTimeoutMsg, "")
	}
	log.Debugf("AI chat transport failed: %v", err)
	return view.StreamFailure(reachable, statusCode, exception.TransportError, err.Error(), "")
}

func applyAuthorization(req *http.Request, apiKey string) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
}

func tryReadBody(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil && len(data) == 0 {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func reasonPhrase(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if strings.HasPrefix(resp.Status, prefix) {
		if reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, prefix)); reason != "" {
			return reason
		}
	}
	return http.StatusText(resp.StatusCode)
}

func clampTimeout(timeout time.Duration) time.Duration {
	if timeout < minRequestTimeout {
		return minRequestTimeout
	}
	return timeout
}

func isSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
