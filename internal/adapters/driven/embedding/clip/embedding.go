// Package clip provides an image-family embedding adapter backed by a
// CLIP-style HTTP server. The model embeds images and text into one
// joint space, so text queries can retrieve images.
package clip

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:8192"
	DefaultModel      = "clip-vit-base-patch32"
	DefaultDimensions = 512
	DefaultTimeout    = 60 * time.Second
)

// Config holds configuration for the CLIP embedding adapter.
type Config struct {
	// BaseURL is the embedding server base URL (default: http://localhost:8192).
	BaseURL string

	// Model is reported by ModelName (default: clip-vit-base-patch32).
	Model string

	// Dimensions is the joint-space vector size (default: 512).
	Dimensions int

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Embedder generates joint-space embeddings through a CLIP server.
type Embedder struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions int
}

// textRequest is the /embed/text request format.
type textRequest struct {
	Text string `json:"text"`
}

// imageRequest is the /embed/image request format. The image travels
// base64-encoded in JSON.
type imageRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// embeddingResponse is the response format of both endpoints.
type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// New creates a CLIP embedder.
func New(cfg Config) *Embedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Embedder{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Embed generates a joint-space vector. Image input goes through
// /embed/image; text input, including retrieval queries against the
// image index, goes through /embed/text.
func (e *Embedder) Embed(ctx context.Context, input driven.EmbedInput) ([]float32, error) {
	var (
		endpoint string
		reqBody  any
	)

	switch {
	case len(input.Data) > 0:
		endpoint = "/embed/image"
		reqBody = imageRequest{ImageBase64: base64.StdEncoding.EncodeToString(input.Data)}
	case input.Text != "":
		endpoint = "/embed/text"
		reqBody = textRequest{Text: input.Text}
	default:
		return nil, fmt.Errorf("%w: empty input", domain.ErrEmbeddingFailed)
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrEmbeddingFailed, err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		e.baseURL+endpoint,
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrEmbeddingFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", domain.ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrEmbeddingFailed, err)
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrEmbeddingFailed, err)
	}

	if embedResp.Error != "" {
		return nil, fmt.Errorf("%w: clip: %s", domain.ErrEmbeddingFailed, embedResp.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: clip status %d: %s", domain.ErrEmbeddingFailed, resp.StatusCode, string(body))
	}
	if len(embedResp.Embedding) != e.dimensions {
		return nil, fmt.Errorf("%w: model returned %d dimensions, expected %d",
			domain.ErrEmbeddingFailed, len(embedResp.Embedding), e.dimensions)
	}

	embedding := make([]float32, len(embedResp.Embedding))
	for i, v := range embedResp.Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

// Dimensions returns the joint-space vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the name of the embedding model being used.
func (e *Embedder) ModelName() string {
	return e.model
}

// Ping validates the server is reachable via its health endpoint.
func (e *Embedder) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("clip: failed to create ping request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("clip: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("clip: server returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (e *Embedder) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
