package whisper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribeUploadsFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "whisper-1", r.FormValue("model"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "meeting.wav", header.Filename)

		_ = json.NewEncoder(w).Encode(transcriptionResponse{Text: "hello from the meeting"})
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "meeting.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFFfakeaudio"), 0o600))

	tr := New(Config{BaseURL: server.URL + "/v1"})
	text, err := tr.Transcribe(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "hello from the meeting", text)
}

func TestTranscribeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "unsupported format"},
		})
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(path, []byte("junk"), 0o600))

	tr := New(Config{BaseURL: server.URL + "/v1"})
	_, err := tr.Transcribe(context.Background(), path)
	assert.Error(t, err)
}

func TestTranscribeMissingFile(t *testing.T) {
	tr := New(Config{})
	_, err := tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "gone.wav"))
	assert.Error(t, err)
}
