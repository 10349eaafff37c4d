// Command recall is a local multimodal RAG tool: it indexes text,
// images and audio into one vector store and answers questions about
// them with cited sources.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	configfile "github.com/recall-labs/recall-cli/internal/adapters/driven/config/file"
	clipembed "github.com/recall-labs/recall-cli/internal/adapters/driven/embedding/clip"
	ollamaembed "github.com/recall-labs/recall-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/recall-labs/recall-cli/internal/adapters/driven/embedding/openai"
	"github.com/recall-labs/recall-cli/internal/adapters/driven/index/flat"
	ollamallm "github.com/recall-labs/recall-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/recall-labs/recall-cli/internal/adapters/driven/llm/openai"
	"github.com/recall-labs/recall-cli/internal/adapters/driven/storage/sqlite"
	"github.com/recall-labs/recall-cli/internal/adapters/driven/transcribe/whisper"
	"github.com/recall-labs/recall-cli/internal/adapters/driving/cli"
	"github.com/recall-labs/recall-cli/internal/chunker"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/services"
	"github.com/recall-labs/recall-cli/internal/extractors"
	"github.com/recall-labs/recall-cli/internal/extractors/audio"
	"github.com/recall-labs/recall-cli/internal/extractors/image"
	"github.com/recall-labs/recall-cli/internal/extractors/markdown"
	"github.com/recall-labs/recall-cli/internal/extractors/pdf"
	"github.com/recall-labs/recall-cli/internal/extractors/plaintext"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := configfile.NewStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	cfg, err := configStore.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()

	index, err := flat.Open(ctx, flat.Options{
		Dir:             cfg.Data.Dir,
		TextDimensions:  cfg.Embedding.TextDimensions,
		ImageDimensions: cfg.Embedding.ImageDimensions,
	})
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer index.Close()

	history, err := sqlite.NewStore(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer history.Close()

	textEmbedder, err := buildTextEmbedder(cfg)
	if err != nil {
		return err
	}
	imageEmbedder := clipembed.New(clipembed.Config{
		BaseURL:    cfg.Embedding.ImageBaseURL,
		Model:      cfg.Embedding.ImageModel,
		Dimensions: cfg.Embedding.ImageDimensions,
		Timeout:    seconds(cfg.Embedding.TimeoutSeconds),
	})
	embedders := map[domain.ModalityFamily]driven.Embedder{
		domain.FamilyText:  textEmbedder,
		domain.FamilyImage: imageEmbedder,
	}

	llm, err := buildLLM(cfg)
	if err != nil {
		return err
	}

	transcriber := whisper.New(whisper.Config{
		BaseURL: cfg.Transcribe.BaseURL,
		Model:   cfg.Transcribe.Model,
		APIKey:  cfg.Transcribe.APIKey,
	})

	registry := extractors.NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(markdown.New())
	registry.Register(pdf.New())
	registry.Register(image.New())
	registry.Register(audio.New(transcriber))

	splitter := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	ingestService := services.NewIngestService(index, registry, embedders, splitter, history,
		services.IngestConfig{
			EmbedTimeout: seconds(cfg.Embedding.TimeoutSeconds),
			EmbedRate:    cfg.Ingest.EmbedRate,
		})
	retrieveService := services.NewRetrieveService(index, embedders,
		services.RetrieveConfig{
			DefaultK:         cfg.Retrieval.K,
			DefaultThreshold: cfg.Retrieval.Threshold,
			Weights: map[domain.ModalityFamily]float64{
				domain.FamilyText:  cfg.Retrieval.TextWeight,
				domain.FamilyImage: cfg.Retrieval.ImageWeight,
			},
		})
	generateService := services.NewGenerateService(llm,
		services.GenerateConfig{MaxTokens: cfg.LLM.MaxTokens})
	statusService := services.NewStatusService(index)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Ingest:    ingestService,
		Retriever: retrieveService,
		Generator: generateService,
		Status:    statusService,
		History:   history,
		Index:     index,
	})

	return cli.Execute()
}

func buildTextEmbedder(cfg configfile.Config) (driven.Embedder, error) {
	switch cfg.Embedding.TextProvider {
	case configfile.ProviderOpenAI:
		e, err := openaiembed.New(openaiembed.Config{
			APIKey:     cfg.Embedding.TextAPIKey,
			BaseURL:    cfg.Embedding.TextBaseURL,
			Model:      cfg.Embedding.TextModel,
			Dimensions: cfg.Embedding.TextDimensions,
			Timeout:    seconds(cfg.Embedding.TimeoutSeconds),
		})
		if err != nil {
			return nil, fmt.Errorf("configuring text embedder: %w", err)
		}
		return e, nil
	case configfile.ProviderOllama:
		return ollamaembed.New(ollamaembed.Config{
			BaseURL:    cfg.Embedding.TextBaseURL,
			Model:      cfg.Embedding.TextModel,
			Dimensions: cfg.Embedding.TextDimensions,
			Timeout:    seconds(cfg.Embedding.TimeoutSeconds),
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.TextProvider)
	}
}

func buildLLM(cfg configfile.Config) (driven.LLMService, error) {
	switch cfg.LLM.Provider {
	case configfile.ProviderOpenAI:
		svc, err := openaillm.New(openaillm.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: seconds(cfg.LLM.TimeoutSeconds),
		})
		if err != nil {
			return nil, fmt.Errorf("configuring LLM: %w", err)
		}
		return svc, nil
	case configfile.ProviderOllama:
		return ollamallm.New(ollamallm.Config{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: seconds(cfg.LLM.TimeoutSeconds),
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
