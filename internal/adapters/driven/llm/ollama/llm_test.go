package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrow-labs/docchat-cli/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewLLMService(Config{BaseURL: server.URL, Model: "test-model"})
}

func TestGenerate(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "say hi", req.Prompt)
		assert.False(t, req.Stream)

		json.NewEncoder(w).Encode(generateResponse{Response: "hi", Done: true})
	})

	out, err := svc.Generate(context.Background(), "say hi", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestChat(t *testing.T) {
	t.Run("sends messages and options", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/chat", r.URL.Path)

			var req chatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Messages, 2)
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "user", req.Messages[1].Role)
			require.NotNil(t, req.Options)
			assert.InDelta(t, 0.2, req.Options.Temperature, 1e-9)

			json.NewEncoder(w).Encode(chatResponse{
				Message: chatMessage{Role: "assistant", Content: "answer"},
				Done:    true,
			})
		})

		out, err := svc.Chat(context.Background(), []driven.ChatMessage{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "question"},
		}, driven.ChatOptions{Temperature: 0.2})
		require.NoError(t, err)
		assert.Equal(t, "answer", out)
	})

	t.Run("server error surfaces status", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		})

		_, err := svc.Chat(context.Background(), []driven.ChatMessage{
			{Role: "user", Content: "question"},
		}, driven.ChatOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, svc.Ping(context.Background()))
}

func TestDefaults(t *testing.T) {
	svc := NewLLMService(Config{})
	assert.Equal(t, DefaultModel, svc.ModelName())
}
