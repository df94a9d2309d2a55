package transcribe

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribe(t *testing.T) {
	var gotModel, gotFilename string
	var gotAudio []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/audio/transcriptions", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		buf := make([]byte, header.Size)
		_, _ = file.Read(buf)
		gotAudio = buf

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "hello world"}`))
	}))
	defer srv.Close()

	provider := NewWhisperProvider(srv.URL, "whisper-1")
	audio := []byte{0x1a, 0x45, 0xdf, 0xa3}

	text, err := provider.Transcribe(context.Background(), base64.StdEncoding.EncodeToString(audio), "ogg")
	require.NoError(t, err)

	assert.Equal(t, "hello world", text)
	assert.Equal(t, "whisper-1", gotModel)
	assert.Equal(t, "recording.ogg", gotFilename)
	assert.Equal(t, audio, gotAudio)
}

func TestTranscribeDefaultsExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "recording.webm", header.Filename)
		_, _ = w.Write([]byte(`{"text": ""}`))
	}))
	defer srv.Close()

	provider := NewWhisperProvider(srv.URL, "whisper-1")
	text, err := provider.Transcribe(context.Background(), base64.StdEncoding.EncodeToString([]byte("x")), "")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestTranscribeRejectsBadBase64(t *testing.T) {
	provider := NewWhisperProvider("http://unused", "whisper-1")
	_, err := provider.Transcribe(context.Background(), "not base64!!", "webm")
	assert.Error(t, err)
}

func TestTranscribeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	provider := NewWhisperProvider(srv.URL, "whisper-1")
	_, err := provider.Transcribe(context.Background(), base64.StdEncoding.EncodeToString([]byte("x")), "webm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
