package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dougong-game/aichat-client/config"
	"github.com/dougong-game/aichat-client/view"
	"github.com/stretchr/testify/require"
)

const testApiKey = "sk-test-key"

func testConfig(baseUrl string) config.Config {
	return config.Config{
		ApiBaseUrl:          baseUrl,
		ApiKey:              testApiKey,
		Model:               "gpt-test",
		ChatCompletionsPath: "/chat/completions",
		HeartbeatPath:       "/models",
		RequestOptions: config.RequestOptionsConfig{
			ChatTimeoutSeconds: 5,
			Temperature:        0.7,
		},
		Heartbeat: config.HeartbeatConfig{
			Enabled:         true,
			IntervalSeconds: 0.1,
			TimeoutSeconds:  2,
		},
	}
}

// newSSEServer answers every request with the given SSE lines, each followed by a blank line.
func newSSEServer(lines ...string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n\n", line)
			flusher.Flush()
		}
	}))
}

func contentLine(content string) string {
	return fmt.Sprintf(`data: {"choices":[{"delta":{"content":%q}}]}`, content)
}

type recordingListener struct {
	mutex     sync.Mutex
	chunks    []view.StreamChunk
	deltas    []string
	completed []string
	failed    []string
}

func (l *recordingListener) OnStreamChunkReceived(chunk view.StreamChunk) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.chunks = append(l.chunks, chunk)
}

func (l *recordingListener) OnStreamTextUpdated(delta string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.deltas = append(l.deltas, delta)
}

func (l *recordingListener) OnStreamRequestCompleted(fullText string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.completed = append(l.completed, fullText)
}

func (l *recordingListener) OnStreamRequestFailed(errorMessage string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.failed = append(l.failed, errorMessage)
}

func newTestSession(cfg config.Config) (ChatSessionService, *recordingListener) {
	session := NewChatSessionService(cfg, NewNetworkService(&http.Client{}), NewChunkDecoder())
	listener := &recordingListener{}
	session.AddListener(listener)
	return session, listener
}

// tickUntilIdle drives the foreground loop until the session is finalized.
func tickUntilIdle(t *testing.T, session ChatSessionService) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for session.IsRequesting() {
		require.True(t, time.Now().Before(deadline), "chat session did not finish in time")
		session.Tick()
		time.Sleep(5 * time.Millisecond)
	}
}

type fakeNetworkService struct {
	heartbeat      func(ctx context.Context) view.HeartbeatResult
	stream         func(ctx context.Context, onPayload func(payload string)) view.StreamResult
	heartbeatCalls atomic.Int32
	closeCalls     atomic.Int32
}

func (f *fakeNetworkService) SendHeartbeat(ctx context.Context, url string, apiKey string, timeout time.Duration) view.HeartbeatResult {
	f.heartbeatCalls.Add(1)
	if f.heartbeat == nil {
		return view.HeartbeatSuccess(http.StatusOK)
	}
	return f.heartbeat(ctx)
}

func (f *fakeNetworkService) StreamChat(ctx context.Context, url string, apiKey string, body []byte, timeout time.Duration, onPayload func(payload string)) view.StreamResult {
	if f.stream == nil {
		return view.StreamSuccess(http.StatusOK)
	}
	return f.stream(ctx, onPayload)
}

func (f *fakeNetworkService) Close() {
	f.closeCalls.Add(1)
}
