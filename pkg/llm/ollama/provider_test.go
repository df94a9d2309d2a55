package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-ereader-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.True(t, req.Stream)

		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, line := range lines {
			_, _ = w.Write([]byte(line + "\n"))
		}
	}))
}

func TestChatStream(t *testing.T) {
	srv := streamServer(t, []string{
		`{"message":{"role":"assistant","content":"Hel"},"done":false}`,
		``,
		`{"message":{"role":"assistant","content":"lo."},"done":false}`,
		`{"message":{"role":"assistant","content":""},"done":true}`,
	})
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "llama3")

	var chunks []string
	answer, err := provider.ChatStream(context.Background(),
		[]llm.Message{{Role: "user", Content: "hi"}},
		func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, "Hel"+"lo.", answer)
	assert.Equal(t, []string{"Hel", "lo."}, chunks)
}

func TestChatStreamHandlerErrorStops(t *testing.T) {
	srv := streamServer(t, []string{
		`{"message":{"role":"assistant","content":"one"},"done":false}`,
		`{"message":{"role":"assistant","content":"two"},"done":false}`,
	})
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "llama3")

	wantErr := errors.New("downstream gone")
	partial, err := provider.ChatStream(context.Background(),
		[]llm.Message{{Role: "user", Content: "hi"}},
		func(string) error { return wantErr })

	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, "one", partial)
}

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.False(t, req.Stream)
		assert.Equal(t, "llama3", req.Model)

		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"a full answer"},"done":true}`))
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "llama3")
	answer, err := provider.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})

	require.NoError(t, err)
	assert.Equal(t, "a full answer", answer)
}
