// Package whisper provides a transcriber adapter for an
// OpenAI-compatible /v1/audio/transcriptions endpoint, served locally
// by whisper.cpp or faster-whisper, or remotely by the OpenAI API.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// Ensure Transcriber implements the interface.
var _ driven.Transcriber = (*Transcriber)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:9000/v1"
	DefaultModel   = "whisper-1"
	DefaultTimeout = 300 * time.Second
)

// Config holds configuration for the whisper transcriber.
type Config struct {
	// BaseURL is the API base URL (default: http://localhost:9000/v1).
	BaseURL string

	// APIKey authorizes the request. Optional for local servers.
	APIKey string

	// Model is the transcription model (default: whisper-1).
	Model string

	// Timeout is the request timeout (default: 300s). Transcription of
	// long recordings is slow.
	Timeout time.Duration
}

// Transcriber converts audio files to text over HTTP.
type Transcriber struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// transcriptionResponse is the endpoint's JSON response format.
type transcriptionResponse struct {
	Text  string `json:"text"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// New creates a whisper transcriber.
func New(cfg Config) *Transcriber {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Transcriber{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

// Transcribe uploads the audio file and returns its transcript.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read audio %s: %w", path, err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if err := writer.WriteField("model", t.model); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		t.baseURL+"/audio/transcriptions",
		&buf,
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var result transcriptionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("whisper: %s", result.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper status %d: %s", resp.StatusCode, string(body))
	}

	return result.Text, nil
}

// Ping validates the service is reachable.
func (t *Transcriber) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("whisper: failed to create ping request: %w", err)
	}
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("whisper: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whisper: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (t *Transcriber) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
