package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dougong-game/aichat-client/exception"
	"github.com/dougong-game/aichat-client/metrics"
	"github.com/dougong-game/aichat-client/view"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendChat_StreamsHelloToCompletion(t *testing.T) {
	requests := make(chan view.ChatRequest, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		var request view.ChatRequest
		assert.NoError(t, json.Unmarshal(body, &request))
		requests <- request

		flusher := w.(http.Flusher)
		for _, line := range []string{contentLine("Hel"), contentLine("lo"), "data: [DONE]"} {
			fmt.Fprintf(w, "%s\n\n", line)
			flusher.Flush()
		}
	}))
	defer server.Close()

	session, listener := newTestSession(testConfig(server.URL + "/v1/"))
	require.NoError(t, session.SendChat("Say hello", ""))
	assert.True(t, session.IsRequesting())
	assert.Equal(t, view.SessionStreaming, session.Status())
	assert.NotEmpty(t, session.SessionId())

	tickUntilIdle(t, session)

	assert.Equal(t, []string{"Hel", "lo"}, listener.deltas)
	assert.Equal(t, []string{"Hello"}, listener.completed)
	assert.Empty(t, listener.failed)
	assert.Len(t, listener.chunks, 2)
	assert.Equal(t, view.SessionCompleted, session.Status())
	assert.Equal(t, "Hello", session.CachedResponseText())
	assert.Len(t, session.CachedChunks(), 2)
	assert.True(t, session.SawDoneMarker())
	assert.Empty(t, session.LastRequestErrorMessage())

	requestBody := <-requests
	assert.Equal(t, "gpt-test", requestBody.Model)
	assert.True(t, requestBody.Stream)
	require.Len(t, requestBody.Messages, 1)
	assert.Equal(t, view.ChatRoleUser, requestBody.Messages[0].Role)
	assert.Equal(t, "Say hello", requestBody.Messages[0].Content)
}

func TestSendChat_RateLimitedFailsOnceWithStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer server.Close()

	session, listener := newTestSession(testConfig(server.URL))
	require.NoError(t, session.SendChat("hi", ""))
	tickUntilIdle(t, session)

	require.Len(t, listener.failed, 1)
	assert.Contains(t, listener.failed[0], "429")
	assert.Contains(t, listener.failed[0], `{"error":"rate limited"}`)
	assert.Equal(t, "HTTP 429 Too Many Requests (status=429) body={\"error\":\"rate limited\"}", listener.failed[0])
	assert.Empty(t, listener.completed)
	assert.Equal(t, view.SessionFailed, session.Status())
	assert.Equal(t, listener.failed[0], session.LastRequestErrorMessage())
}

func TestSendChat_RejectedWhileActive(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprintf(w, "%s\n\n", contentLine("first"))
		flusher.Flush()
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	session, listener := newTestSession(testConfig(server.URL))
	require.NoError(t, session.SendChat("first question", ""))
	sessionId := session.SessionId()

	deadline := time.Now().Add(5 * time.Second)
	for session.CachedResponseText() != "first" {
		require.True(t, time.Now().Before(deadline))
		session.Tick()
		time.Sleep(5 * time.Millisecond)
	}

	rejected := session.SendChat("second question", "")
	require.Error(t, rejected)
	assert.True(t, exception.HasCode(rejected, exception.ChatRequestInProgress))
	assert.Equal(t, []string{exception.ChatRequestInProgressMsg}, listener.failed)
	assert.True(t, session.IsRequesting())
	assert.Equal(t, view.SessionStreaming, session.Status())
	assert.Equal(t, sessionId, session.SessionId())
	assert.Empty(t, session.LastRequestErrorMessage())
	assert.Equal(t, "first", session.CachedResponseText())

	close(release)
	tickUntilIdle(t, session)

	assert.Equal(t, []string{"first"}, listener.completed)
	assert.Equal(t, view.SessionCompleted, session.Status())
}

func TestSendChat_BlankInputRejected(t *testing.T) {
	session, listener := newTestSession(testConfig("http://127.0.0.1:1"))

	err := session.SendChat("  \t ", "")

	require.Error(t, err)
	assert.True(t, exception.HasCode(err, exception.InvalidChatInput))
	assert.False(t, session.IsRequesting())
	assert.Equal(t, exception.InvalidChatInputMsg, session.LastRequestErrorMessage())
	assert.Equal(t, []string{exception.InvalidChatInputMsg}, listener.failed)
	assert.Equal(t, view.SessionIdle, session.Status())
}

func TestSendChat_EmptyEndpointUrl(t *testing.T) {
	session, listener := newTestSession(testConfig(""))

	err := session.SendChat("hi", "")

	require.Error(t, err)
	assert.True(t, exception.HasCode(err, exception.EmptyEndpointUrl))
	assert.False(t, session.IsRequesting())
	assert.Equal(t, ChatUrlEmptyMsg, session.LastRequestErrorMessage())
	assert.Equal(t, []string{ChatUrlEmptyMsg}, listener.failed)
}

func TestSendChat_MalformedPayloadIsSkipped(t *testing.T) {
	server := newSSEServer(contentLine("Hel"), `data: {"choices":[{"delta":`, `data: {"choices":[{"delta":{"content":123}}]}`, contentLine("lo"), "data: [DONE]")
	defer server.Close()

	failuresBefore := testutil.ToFloat64(metrics.StreamDecodeFailuresTotal)
	session, listener := newTestSession(testConfig(server.URL))
	require.NoError(t, session.SendChat("hi", ""))
	tickUntilIdle(t, session)

	assert.Equal(t, []string{"Hel", "lo"}, listener.deltas)
	assert.Len(t, listener.chunks, 2)
	assert.Equal(t, []string{"Hello"}, listener.completed)
	assert.Empty(t, listener.failed)
	assert.Equal(t, failuresBefore+2, testutil.ToFloat64(metrics.StreamDecodeFailuresTotal))
}

func TestSendChat_MissingDoneMarkerStillCompletes(t *testing.T) {
	server := newSSEServer(contentLine("Hel"), contentLine("lo"))
	defer server.Close()

	session, listener := newTestSession(testConfig(server.URL))
	require.NoError(t, session.SendChat("hi", ""))
	tickUntilIdle(t, session)

	assert.False(t, session.SawDoneMarker())
	assert.Equal(t, view.SessionCompleted, session.Status())
	assert.Equal(t, []string{"Hello"}, listener.completed)
}

func TestSendChat_DoneMarkerEmitsNoChunkEvents(t *testing.T) {
	server := newSSEServer("data: [DONE]")
	defer server.Close()

	session, listener := newTestSession(testConfig(server.URL))
	require.NoError(t, session.SendChat("hi", ""))
	tickUntilIdle(t, session)

	assert.True(t, session.SawDoneMarker())
	assert.Empty(t, listener.chunks)
	assert.Empty(t, listener.deltas)
	assert.Equal(t, []string{""}, listener.completed)
}

func TestCancelCurrentRequest_KeepsPartialText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s\n\n", contentLine("Hel"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	session, listener := newTestSession(testConfig(server.URL))
	require.NoError(t, session.SendChat("hi", ""))

	deadline := time.Now().Add(5 * time.Second)
	for session.CachedResponseText() != "Hel" {
		require.True(t, time.Now().Before(deadline))
		session.Tick()
		time.Sleep(5 * time.Millisecond)
	}
	session.CancelCurrentRequest()
	tickUntilIdle(t, session)

	assert.Equal(t, view.SessionCanceled, session.Status())
	assert.NotEqual(t, view.SessionFailed, session.Status())
	assert.Equal(t, "Hel", session.CachedResponseText())
	assert.Equal(t, []string{ChatCanceledMsg}, listener.failed)
	assert.Empty(t, listener.completed)
	assert.Equal(t, ChatCanceledMsg, session.LastRequestErrorMessage())
}

func TestSendChat_NextSessionClearsCache(t *testing.T) {
	server := newSSEServer(contentLine("one"), "data: [DONE]")
	defer server.Close()

	session, listener := newTestSession(testConfig(server.URL))
	require.NoError(t, session.SendChat("hi", ""))
	tickUntilIdle(t, session)
	firstSessionId := session.SessionId()

	require.NoError(t, session.SendChat("again", ""))
	assert.Empty(t, session.CachedResponseText())
	assert.Empty(t, session.CachedChunks())
	assert.False(t, session.SawDoneMarker())
	tickUntilIdle(t, session)

	assert.NotEqual(t, firstSessionId, session.SessionId())
	assert.Equal(t, "one", session.CachedResponseText())
	assert.Equal(t, []string{"one", "one"}, listener.completed)
}

func TestSendChat_ListenerMayStartNextSessionOnCompletion(t *testing.T) {
	server := newSSEServer(contentLine("ok"), "data: [DONE]")
	defer server.Close()

	session, _ := newTestSession(testConfig(server.URL))
	var followUpErr error
	followUps := 0
	session.AddListener(ChatStreamListenerFuncs{
		RequestCompleted: func(fullText string) {
			if followUps == 0 {
				followUps++
				followUpErr = session.SendChat("follow up", "")
			}
		},
	})

	require.NoError(t, session.SendChat("hi", ""))
	tickUntilIdle(t, session)

	assert.Equal(t, 1, followUps)
	assert.NoError(t, followUpErr)
}

func TestSendChat_TransportPanicBecomesFailure(t *testing.T) {
	fake := &fakeNetworkService{
		stream: func(ctx context.Context, onPayload func(payload string)) view.StreamResult {
			onPayload(`{"choices":[{"delta":{"content":"partial"}}]}`)
			panic("transport exploded")
		},
	}
	session := NewChatSessionService(testConfig("http://localhost"), fake, NewChunkDecoder())
	listener := &recordingListener{}
	session.AddListener(listener)

	require.NoError(t, session.SendChat("hi", ""))
	tickUntilIdle(t, session)

	require.Len(t, listener.failed, 1)
	assert.Contains(t, listener.failed[0], "transport exploded")
	assert.Equal(t, "partial", session.CachedResponseText())
	assert.Equal(t, view.SessionFailed, session.Status())
}

func TestTick_PanickingListenerDoesNotStopSession(t *testing.T) {
	server := newSSEServer(contentLine("Hel"), contentLine("lo"), "data: [DONE]")
	defer server.Close()

	session := NewChatSessionService(testConfig(server.URL), NewNetworkService(&http.Client{}), NewChunkDecoder())
	session.AddListener(ChatStreamListenerFuncs{
		TextUpdated: func(delta string) {
			panic("listener boom")
		},
	})
	listener := &recordingListener{}
	session.AddListener(listener)

	require.NoError(t, session.SendChat("hi", ""))
	tickUntilIdle(t, session)

	assert.False(t, session.IsRequesting())
	assert.Equal(t, view.SessionCompleted, session.Status())
	assert.Equal(t, []string{"Hel", "lo"}, listener.deltas)
	assert.Equal(t, []string{"Hello"}, listener.completed)
}

func TestAddListener_Unsubscribe(t *testing.T) {
	session, first := newTestSession(testConfig(""))
	second := &recordingListener{}
	unsubscribe := session.AddListener(second)
	unsubscribe()

	session.SendChat("", "")

	assert.Len(t, first.failed, 1)
	assert.Empty(t, second.failed)
}

func TestBuildRequestBody_MessageOrderAndClampedTemperature(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.RequestOptions.SystemPrompt = "  You are a tavern keeper. "
	cfg.RequestOptions.Temperature = 3.5
	session := NewChatSessionService(cfg, &fakeNetworkService{}, NewChunkDecoder())

	body, err := session.BuildRequestBody("Where is the inn?", "Answer briefly.\n")
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.ElementsMatch(t, []string{"model", "stream", "temperature", "messages"}, keys(raw))

	var request view.ChatRequest
	require.NoError(t, json.Unmarshal(body, &request))
	assert.Equal(t, "gpt-test", request.Model)
	assert.True(t, request.Stream)
	assert.Equal(t, 2.0, request.Temperature)
	assert.Equal(t, []view.ChatMessage{
		{Role: view.ChatRoleSystem, Content: "  You are a tavern keeper. "},
		{Role: view.ChatRoleSystem, Content: "Answer briefly.\n"},
		{Role: view.ChatRoleUser, Content: "Where is the inn?"},
	}, request.Messages)

	cfg.RequestOptions.Temperature = -1
	cfg.RequestOptions.SystemPrompt = " "
	session = NewChatSessionService(cfg, &fakeNetworkService{}, NewChunkDecoder())
	body, err = session.BuildRequestBody("hi", "  ")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &request))
	assert.Equal(t, 0.0, request.Temperature)
	assert.Equal(t, []view.ChatMessage{{Role: view.ChatRoleUser, Content: "hi"}}, request.Messages)
}

func keys(m map[string]interface{}) []string {
	result := make([]string, 0, len(m))
	for k := range m {
		result = append(result, k)
	}
	return result
}
