package llm

import (
	"Agora/config"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionBody(content, finish string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "qwen-plus",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.LLM{
		BaseURL:        srv.URL,
		APIKey:         "test",
		Model:          "qwen-plus",
		TimeoutSeconds: timeout,
		MaxRetries:     0,
	})
}

func TestClient_Complete(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("  你好，我是助手  ", "stop")))
	}, 5)

	res, err := c.Complete(context.Background(), "", []Message{
		{Role: RoleSystem, Content: "preamble"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "earlier"},
		{Role: RoleUser, Content: "again"},
	})
	require.NoError(t, err)

	assert.Equal(t, "你好，我是助手", res.Content)
	assert.Equal(t, "qwen-plus", res.Model)
	assert.EqualValues(t, 12, res.PromptTokens)
	assert.EqualValues(t, 5, res.CompletionTokens)

	assert.Equal(t, "qwen-plus", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "again", got.Messages[3].Content)
}

func TestClient_CompleteErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"quota", http.StatusTooManyRequests, `{"error":{"message":"rate limited","type":"requests","code":"rate_limit"}}`, ErrQuota},
		{"arrearage", http.StatusBadRequest, `{"error":{"message":"no money","type":"Arrearage","code":"Arrearage"}}`, ErrQuota},
		{"rejected", http.StatusBadRequest, `{"error":{"message":"inappropriate","type":"data_inspection_failed","code":"data_inspection_failed"}}`, ErrRejected},
		{"unavailable", http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error","code":"internal"}}`, ErrUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}, 5)

			_, err := c.Complete(context.Background(), "", []Message{{Role: RoleUser, Content: "hi"}})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestClient_CompleteContentFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("", "content_filter")))
	}, 5)

	_, err := c.Complete(context.Background(), "", []Message{{Role: RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, ErrRejected)
}

func TestClient_CompleteTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 5)
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, "", []Message{{Role: RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_GenerateTitle(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("“关于数据库事务隔离级别与并发控制的详细讨论和总结”", "stop")))
	}, 5)

	title, err := c.GenerateTitle(context.Background(), "事务隔离级别有哪些？")
	require.NoError(t, err)
	assert.Equal(t, "关于数据库事务隔离级别与并发控制的详细讨", title)
	assert.LessOrEqual(t, len([]rune(title)), TitleMaxRunes)
	assert.Equal(t, "事务隔离级别有哪些？", got.Messages[len(got.Messages)-1].Content)
}
