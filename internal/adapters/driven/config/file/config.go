// Package file provides the TOML configuration store. Configuration
// lives in ~/.recall/config.toml; missing values fall back to
// defaults, so a fresh install works against a local Ollama with no
// file at all.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Provider names accepted in the config file.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config is the full recall configuration.
type Config struct {
	Data       DataConfig       `toml:"data"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	LLM        LLMConfig        `toml:"llm"`
	Transcribe TranscribeConfig `toml:"transcribe"`
	Chunking   ChunkingConfig   `toml:"chunking"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Ingest     IngestConfig     `toml:"ingest"`
}

// DataConfig locates the on-disk state.
type DataConfig struct {
	// Dir holds the index snapshot and the history database
	// (default: ~/.recall/data).
	Dir string `toml:"dir"`
}

// EmbeddingConfig configures the two embedding families.
type EmbeddingConfig struct {
	// TextProvider selects the text-family embedder: ollama or openai.
	TextProvider string `toml:"text_provider"`

	// TextBaseURL overrides the provider's default base URL.
	TextBaseURL string `toml:"text_base_url"`

	// TextModel is the text embedding model.
	TextModel string `toml:"text_model"`

	// TextDimensions is the text-family vector size.
	TextDimensions int `toml:"text_dimensions"`

	// TextAPIKey authorizes the text provider when needed.
	TextAPIKey string `toml:"text_api_key"`

	// ImageBaseURL is the CLIP-style joint-space server.
	ImageBaseURL string `toml:"image_base_url"`

	// ImageModel is reported in logs and status output.
	ImageModel string `toml:"image_model"`

	// ImageDimensions is the image-family vector size.
	ImageDimensions int `toml:"image_dimensions"`

	// TimeoutSeconds bounds a single embedding call.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// LLMConfig configures answer generation.
type LLMConfig struct {
	// Provider selects the model service: ollama or openai.
	Provider string `toml:"provider"`

	// BaseURL overrides the provider's default base URL.
	BaseURL string `toml:"base_url"`

	// Model is the chat/completion model.
	Model string `toml:"model"`

	// APIKey authorizes the provider when needed.
	APIKey string `toml:"api_key"`

	// MaxTokens bounds the answer length.
	MaxTokens int `toml:"max_tokens"`

	// TimeoutSeconds bounds the model call.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// TranscribeConfig configures the speech-to-text service.
type TranscribeConfig struct {
	// BaseURL is the OpenAI-compatible transcription endpoint.
	BaseURL string `toml:"base_url"`

	// Model is the transcription model.
	Model string `toml:"model"`

	// APIKey authorizes the service when needed.
	APIKey string `toml:"api_key"`
}

// ChunkingConfig configures the text chunker.
type ChunkingConfig struct {
	// Size is the chunk size in runes.
	Size int `toml:"size"`

	// Overlap is the overlap between consecutive chunks in runes.
	Overlap int `toml:"overlap"`
}

// RetrievalConfig configures retrieval defaults.
type RetrievalConfig struct {
	// K is the default result count.
	K int `toml:"k"`

	// Threshold drops results scoring below it.
	Threshold float64 `toml:"threshold"`

	// TextWeight and ImageWeight scale per-family scores before the
	// cross-modal merge.
	TextWeight  float64 `toml:"text_weight"`
	ImageWeight float64 `toml:"image_weight"`
}

// IngestConfig configures ingestion.
type IngestConfig struct {
	// EmbedRate limits embedding calls per second.
	EmbedRate float64 `toml:"embed_rate"`
}

// Default returns the configuration for a fresh install: local Ollama
// for text and generation, a local CLIP server for images.
func Default() Config {
	return Config{
		Embedding: EmbeddingConfig{
			TextProvider:    ProviderOllama,
			TextModel:       "nomic-embed-text",
			TextDimensions:  768,
			ImageModel:      "clip-vit-base-patch32",
			ImageDimensions: 512,
			TimeoutSeconds:  60,
		},
		LLM: LLMConfig{
			Provider:       ProviderOllama,
			Model:          "llama3.2",
			MaxTokens:      1024,
			TimeoutSeconds: 120,
		},
		Transcribe: TranscribeConfig{
			Model: "whisper-1",
		},
		Chunking: ChunkingConfig{
			Size:    512,
			Overlap: 50,
		},
		Retrieval: RetrievalConfig{
			K:           5,
			Threshold:   0.25,
			TextWeight:  1.0,
			ImageWeight: 1.0,
		},
		Ingest: IngestConfig{
			EmbedRate: 10,
		},
	}
}

// Store loads and saves the TOML config file.
type Store struct {
	path string
}

// NewStore creates a config store. If configDir is empty, defaults to
// ~/.recall.
func NewStore(configDir string) (*Store, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".recall")
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	return &Store{path: filepath.Join(configDir, "config.toml")}, nil
}

// Path returns the config file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the config file and applies defaults for missing values.
// A missing file yields the defaults.
func (s *Store) Load() (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		if cfg.Data.Dir == "" {
			cfg.Data.Dir = defaultDataDir(s.path)
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = defaultDataDir(s.path)
	}
	return cfg, nil
}

// Save writes the config file.
func (s *Store) Save(cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// applyDefaults fills zero values after parsing, so a partial config
// file behaves like the defaults with overrides.
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Embedding.TextProvider == "" {
		cfg.Embedding.TextProvider = def.Embedding.TextProvider
	}
	if cfg.Embedding.TextModel == "" {
		cfg.Embedding.TextModel = def.Embedding.TextModel
	}
	if cfg.Embedding.TextDimensions <= 0 {
		cfg.Embedding.TextDimensions = def.Embedding.TextDimensions
	}
	if cfg.Embedding.ImageModel == "" {
		cfg.Embedding.ImageModel = def.Embedding.ImageModel
	}
	if cfg.Embedding.ImageDimensions <= 0 {
		cfg.Embedding.ImageDimensions = def.Embedding.ImageDimensions
	}
	if cfg.Embedding.TimeoutSeconds <= 0 {
		cfg.Embedding.TimeoutSeconds = def.Embedding.TimeoutSeconds
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = def.LLM.Provider
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.LLM.MaxTokens <= 0 {
		cfg.LLM.MaxTokens = def.LLM.MaxTokens
	}
	if cfg.LLM.TimeoutSeconds <= 0 {
		cfg.LLM.TimeoutSeconds = def.LLM.TimeoutSeconds
	}

	if cfg.Transcribe.Model == "" {
		cfg.Transcribe.Model = def.Transcribe.Model
	}

	if cfg.Chunking.Size <= 0 {
		cfg.Chunking.Size = def.Chunking.Size
	}
	if cfg.Chunking.Overlap < 0 {
		cfg.Chunking.Overlap = def.Chunking.Overlap
	}

	if cfg.Retrieval.K <= 0 {
		cfg.Retrieval.K = def.Retrieval.K
	}
	if cfg.Retrieval.Threshold == 0 {
		cfg.Retrieval.Threshold = def.Retrieval.Threshold
	}
	if cfg.Retrieval.TextWeight <= 0 {
		cfg.Retrieval.TextWeight = def.Retrieval.TextWeight
	}
	if cfg.Retrieval.ImageWeight <= 0 {
		cfg.Retrieval.ImageWeight = def.Retrieval.ImageWeight
	}

	if cfg.Ingest.EmbedRate <= 0 {
		cfg.Ingest.EmbedRate = def.Ingest.EmbedRate
	}
}

// defaultDataDir places data next to the config file.
func defaultDataDir(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "data")
}
