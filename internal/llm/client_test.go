package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type recordingObserver struct {
	mu     sync.Mutex
	events []LLMCallEvent
}

func (r *recordingObserver) OnCallComplete(e LLMCallEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) last() LLMCallEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func testConfig(endpoint string) LLMConfig {
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint + "/v1"
	cfg.APIKey = "sk-test"
	cfg.RequestsPerSecond = 0
	return cfg
}

func writeChat(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":    "chatcmpl-1",
		"model": "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
}

func writeAPIError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": msg, "type": "invalid_request_error"},
	})
}

func TestOpenAIClient_Generate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "system prompt", req.Messages[0].Content)
		assert.Equal(t, "user prompt", req.Messages[1].Content)

		writeChat(w, `{"title":"Deck"}`)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := NewOpenAIClient(testConfig(srv.URL), obs)
	resp, err := client.Generate(context.Background(), GenerateRequest{
		Task:         TaskStructure,
		SystemPrompt: "system prompt",
		UserPrompt:   "user prompt",
	})

	require.NoError(t, err)
	assert.Equal(t, `{"title":"Deck"}`, resp.Text)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.GreaterOrEqual(t, resp.LatencyMs, int64(0))
	assert.True(t, obs.last().Success)
	assert.Equal(t, 1, obs.last().Attempts)
}

func TestOpenAIClient_Generate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		writeChat(w, "late")
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Tasks = map[TaskType]TaskConfig{
		TaskStructure: {Temperature: 0.1, MaxTokens: 512, TimeoutMs: 50},
	}

	client := NewOpenAIClient(cfg, NoopObserver{})
	_, err := client.Generate(context.Background(), GenerateRequest{
		Task:       TaskStructure,
		UserPrompt: "test",
	})

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestOpenAIClient_Generate_Unavailable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Endpoint = "http://127.0.0.1:1/v1" // nothing listening
	cfg.MaxRetries = 0
	cfg.RequestsPerSecond = 0

	obs := &recordingObserver{}
	client := NewOpenAIClient(cfg, obs)
	_, err := client.Generate(context.Background(), GenerateRequest{
		Task:       TaskStructure,
		UserPrompt: "test",
	})

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "UNAVAILABLE", obs.last().ErrorCode)
}

func TestOpenAIClient_Generate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeAPIError(w, http.StatusInternalServerError, "boom")
			return
		}
		writeChat(w, "second time lucky")
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := NewOpenAIClient(testConfig(srv.URL), obs)
	resp, err := client.Generate(context.Background(), GenerateRequest{Task: TaskExpansion, UserPrompt: "x"})

	require.NoError(t, err)
	assert.Equal(t, "second time lucky", resp.Text)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, obs.last().Attempts)
}

func TestOpenAIClient_Generate_DoesNotRetryRejectedRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeAPIError(w, http.StatusBadRequest, "bad prompt")
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 3
	client := NewOpenAIClient(cfg, NoopObserver{})
	_, err := client.Generate(context.Background(), GenerateRequest{Task: TaskStructure, UserPrompt: "x"})

	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIClient_GenerateImage_Base64(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-image-1", req["model"])
		assert.Equal(t, "1536x1024", req["size"])
		assert.NotContains(t, req, "response_format")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data": []map[string]any{{
				"b64_json":       base64.StdEncoding.EncodeToString(pngHeader),
				"revised_prompt": "a tidy diagram",
			}},
		})
	}))
	defer srv.Close()

	client := NewOpenAIClient(testConfig(srv.URL), NoopObserver{})
	resp, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "diagram"})

	require.NoError(t, err)
	assert.Equal(t, pngHeader, resp.Data)
	assert.Equal(t, "image/png", resp.MimeType)
	assert.Equal(t, "a tidy diagram", resp.RevisedPrompt)
}

func TestOpenAIClient_GenerateImage_URLFallback(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/images/generations":
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "b64_json", req["response_format"])
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"created": 1,
				"data":    []map[string]any{{"url": srv.URL + "/img.png"}},
			})
		case "/img.png":
			_, _ = w.Write(pngHeader)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.ImageModel = "dall-e-3"
	client := NewOpenAIClient(cfg, NoopObserver{})
	resp, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "diagram", Size: "1792x1024"})

	require.NoError(t, err)
	assert.Equal(t, pngHeader, resp.Data)
}

func TestOpenAIClient_GenerateImage_URLTooLarge(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/images/generations":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"created": 1,
				"data":    []map[string]any{{"url": srv.URL + "/huge.png"}},
			})
		case "/huge.png":
			_, _ = w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 0
	client := NewOpenAIClient(cfg, NoopObserver{}).(*openAIClient)
	client.maxImage = 16

	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "diagram"})

	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
}

func TestOpenAIClient_Generate_CallerCancelIsNotTimeout(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := NewOpenAIClient(testConfig(srv.URL), obs)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.Generate(ctx, GenerateRequest{Task: TaskStructure, UserPrompt: "test"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "CANCELED", obs.last().ErrorCode)
	assert.Equal(t, 1, obs.last().Attempts)
}

func TestOpenAIClient_GenerateImage_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[]}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 0
	obs := &recordingObserver{}
	client := NewOpenAIClient(cfg, obs)
	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "diagram"})

	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Equal(t, TaskVisual, obs.last().Task)
}

func TestOpenAIClient_Available(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer srv.Close()

	assert.True(t, NewOpenAIClient(testConfig(srv.URL), nil).Available(context.Background()))

	cfg := DefaultConfig()
	cfg.Endpoint = "http://127.0.0.1:1/v1"
	assert.False(t, NewOpenAIClient(cfg, nil).Available(context.Background()))
}

func TestObservers_FanOut(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	obs := Observers(a, nil, b)
	obs.OnCallComplete(LLMCallEvent{Task: TaskVisual, Success: true})

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
	assert.IsType(t, NoopObserver{}, Observers())
}
