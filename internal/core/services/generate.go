package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
	"github.com/recall-labs/recall-cli/internal/logger"
)

// Ensure GenerateService implements the interface.
var _ driving.Generator = (*GenerateService)(nil)

// InsufficientContextAnswer is returned verbatim when retrieval found
// nothing to ground an answer in. No model call is made in that case.
const InsufficientContextAnswer = "I don't have enough indexed content to answer that question."

// Generation defaults.
const (
	DefaultMaxAnswerTokens = 1024
	DefaultMaxHistoryTurns = 5
)

// GenerateConfig holds generation tuning.
type GenerateConfig struct {
	// MaxTokens bounds the model's answer length.
	MaxTokens int

	// MaxHistoryTurns limits how many prior turns enter the prompt.
	MaxHistoryTurns int
}

// GenerateService produces grounded answers with citations from
// retrieval results. It makes a single blocking model call per answer
// and never retries; failures surface to the caller.
type GenerateService struct {
	llm driven.LLMService
	cfg GenerateConfig
}

// NewGenerateService creates a generate service.
func NewGenerateService(llm driven.LLMService, cfg GenerateConfig) *GenerateService {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxAnswerTokens
	}
	if cfg.MaxHistoryTurns <= 0 {
		cfg.MaxHistoryTurns = DefaultMaxHistoryTurns
	}
	return &GenerateService{llm: llm, cfg: cfg}
}

// Generate answers the question from the retrieved chunks. An empty
// result yields the fixed insufficient-context answer without calling
// the model. Citations cover exactly the chunks included in the
// prompt.
func (s *GenerateService) Generate(
	ctx context.Context,
	question string,
	result domain.QueryResult,
	history []domain.ConversationTurn,
) (domain.Answer, error) {
	logger.Section("Generation")

	if result.Empty() {
		logger.Info("No retrieved context, returning fixed answer")
		return domain.Answer{Text: InsufficientContextAnswer, Grounded: false}, nil
	}

	prompt := s.buildPrompt(question, result, history)
	logger.Debug("Prompt: %d chars, %d context chunk(s), model %s",
		len(prompt), len(result.Chunks), s.llm.ModelName())

	text, err := s.llm.Complete(ctx, prompt, s.cfg.MaxTokens)
	if err != nil {
		logger.Warn("Model call failed: %v", err)
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	return domain.Answer{
		Text:      strings.TrimSpace(text),
		Citations: result.Citations(),
		Grounded:  true,
	}, nil
}

// buildPrompt assembles the grounded prompt: numbered context chunks
// most relevant first, optional recent history, then the question.
func (s *GenerateService) buildPrompt(
	question string, result domain.QueryResult, history []domain.ConversationTurn,
) string {
	var b strings.Builder

	b.WriteString("Answer the question using only the numbered context below. ")
	b.WriteString("Reference context entries as [1], [2], etc. ")
	b.WriteString("If the context does not contain the answer, say so.\n\n")

	b.WriteString("Context:\n")
	for i, sc := range result.Chunks {
		fmt.Fprintf(&b, "[%d] (%s, %s) %s\n",
			i+1, sc.Chunk.SourcePath, sc.Chunk.Modality, sc.Chunk.TextPreview)
	}

	if len(history) > 0 {
		turns := history
		if len(turns) > s.cfg.MaxHistoryTurns {
			turns = turns[len(turns)-s.cfg.MaxHistoryTurns:]
		}
		b.WriteString("\nPrevious conversation:\n")
		for _, turn := range turns {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", turn.Question, turn.Answer)
		}
	}

	fmt.Fprintf(&b, "\nQuestion: %s\nAnswer:", question)
	return b.String()
}
