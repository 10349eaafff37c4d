package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
	"github.com/recall-labs/recall-cli/internal/logger"
)

// Ensure RetrieveService implements the interface.
var _ driving.Retriever = (*RetrieveService)(nil)

// Retrieval defaults.
const (
	DefaultK         = 5
	DefaultThreshold = 0.25
)

// RetrieveConfig holds retrieval tuning.
type RetrieveConfig struct {
	// DefaultK is the result count when the caller does not set one.
	DefaultK int

	// DefaultThreshold drops results scoring below it unless the
	// caller overrides.
	DefaultThreshold float64

	// Weights scales scores per family before the cross-modal merge.
	// Missing families default to 1.0.
	Weights map[domain.ModalityFamily]float64
}

// RetrieveService answers a text query with ranked cross-modal results.
// Each modality family is searched through its own embedder and
// sub-index; candidates are merged by weighted score.
type RetrieveService struct {
	index     driven.VectorIndex
	embedders map[domain.ModalityFamily]driven.Embedder
	cfg       RetrieveConfig
}

// NewRetrieveService creates a retrieve service. The embedders map
// holds one embedder per searchable family; families without an
// embedder are skipped.
func NewRetrieveService(
	index driven.VectorIndex,
	embedders map[domain.ModalityFamily]driven.Embedder,
	cfg RetrieveConfig,
) *RetrieveService {
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = DefaultK
	}
	return &RetrieveService{
		index:     index,
		embedders: embedders,
		cfg:       cfg,
	}
}

// Retrieve embeds the query once per requested family, searches the
// sub-indices concurrently and merges the candidates score-descending
// with ascending chunk ID as the tie-break. An empty result is
// success, not an error.
func (s *RetrieveService) Retrieve(
	ctx context.Context, query string, opts driving.RetrieveOptions,
) (domain.QueryResult, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return domain.QueryResult{}, nil
	}

	k := opts.K
	if k <= 0 {
		k = s.cfg.DefaultK
	}

	threshold := s.cfg.DefaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	logger.Debug("K: %d, threshold: %.3f", k, threshold)

	families := opts.Families
	if len(families) == 0 {
		for family := range s.embedders {
			families = append(families, family)
		}
		sort.Slice(families, func(i, j int) bool { return families[i] < families[j] })
	}

	var (
		mu         sync.Mutex
		candidates []driven.Hit
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, family := range families {
		embedder, ok := s.embedders[family]
		if !ok {
			logger.Warn("No embedder configured for family %s, skipping", family)
			continue
		}

		g.Go(func() error {
			hits, err := s.searchFamily(gctx, embedder, family, query, k)
			if err != nil {
				return err
			}

			weight := s.weight(family)
			mu.Lock()
			for _, hit := range hits {
				hit.Score *= weight
				candidates = append(candidates, hit)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.QueryResult{}, err
	}

	logger.Debug("Candidates across families: %d", len(candidates))

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ChunkID < candidates[j].ChunkID
	})

	result := domain.QueryResult{}
	for _, hit := range candidates {
		if hit.Score < threshold {
			continue
		}
		if len(result.Chunks) >= k {
			break
		}

		chunk, err := s.index.GetMetadata(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Deleted between search and hydration, skip it.
				continue
			}
			return domain.QueryResult{}, fmt.Errorf("hydrate chunk %d: %w", hit.ChunkID, err)
		}

		result.Chunks = append(result.Chunks, domain.ScoredChunk{Chunk: chunk, Score: hit.Score})
	}

	logger.Info("Final results: %d", len(result.Chunks))
	return result, nil
}

// searchFamily embeds the query for one family and searches its
// sub-index. Text queries against the image family go through the
// joint-space embedder's text input.
func (s *RetrieveService) searchFamily(
	ctx context.Context,
	embedder driven.Embedder,
	family domain.ModalityFamily,
	query string,
	k int,
) ([]driven.Hit, error) {
	logger.Debug("Embedding query for family %s (%s)", family, embedder.ModelName())

	embedding, err := embedder.Embed(ctx, driven.EmbedInput{
		Modality: domain.ModalityText,
		Text:     query,
	})
	if err != nil {
		return nil, fmt.Errorf("embed query for family %s: %w", family, err)
	}

	hits, err := s.index.Search(ctx, embedding, family, k)
	if err != nil {
		return nil, fmt.Errorf("search family %s: %w", family, err)
	}

	logger.Debug("Family %s: %d hits", family, len(hits))
	return hits, nil
}

// weight returns the configured score weight for a family, 1.0 when
// unset.
func (s *RetrieveService) weight(family domain.ModalityFamily) float64 {
	if w, ok := s.cfg.Weights[family]; ok && w > 0 {
		return w
	}
	return 1.0
}
