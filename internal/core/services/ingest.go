package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/recall-labs/recall-cli/internal/chunker"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
	"github.com/recall-labs/recall-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestCoordinator = (*IngestService)(nil)

// Ingestion defaults.
const (
	// DefaultEmbedTimeout bounds a single embedding call.
	DefaultEmbedTimeout = 60 * time.Second

	// DefaultEmbedRate is the embedding calls allowed per second.
	DefaultEmbedRate = 10

	// PreviewRunes is the length of the stored chunk preview.
	PreviewRunes = 200
)

// IngestConfig holds ingestion tuning.
type IngestConfig struct {
	// EmbedTimeout bounds each embedding call.
	EmbedTimeout time.Duration

	// EmbedRate limits embedding calls per second. Zero uses the
	// default.
	EmbedRate float64
}

// IngestService turns raw files into committed chunks: extract, chunk,
// embed, insert. Per-chunk failures are collected in the report and
// never abort sibling chunks or files.
type IngestService struct {
	index     driven.VectorIndex
	registry  driven.ExtractorRegistry
	embedders map[domain.ModalityFamily]driven.Embedder
	splitter  *chunker.Chunker
	history   driven.HistoryStore
	limiter   *rate.Limiter
	timeout   time.Duration
}

// NewIngestService creates an ingest service. The history store is
// optional; when set, each batch is recorded in the ingest ledger.
func NewIngestService(
	index driven.VectorIndex,
	registry driven.ExtractorRegistry,
	embedders map[domain.ModalityFamily]driven.Embedder,
	splitter *chunker.Chunker,
	history driven.HistoryStore,
	cfg IngestConfig,
) *IngestService {
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = DefaultEmbedTimeout
	}
	if cfg.EmbedRate <= 0 {
		cfg.EmbedRate = DefaultEmbedRate
	}

	return &IngestService{
		index:     index,
		registry:  registry,
		embedders: embedders,
		splitter:  splitter,
		history:   history,
		limiter:   rate.NewLimiter(rate.Limit(cfg.EmbedRate), 1),
		timeout:   cfg.EmbedTimeout,
	}
}

// Ingest processes each path and returns one report per file.
// Cancellation is checked between files; chunks already committed stay
// committed.
func (s *IngestService) Ingest(ctx context.Context, paths []string) ([]domain.IngestReport, error) {
	logger.Section("Ingestion")
	batchID := uuid.NewString()
	startedAt := time.Now().UTC()
	logger.Info("Batch %s: %d file(s)", batchID, len(paths))

	reports := make([]domain.IngestReport, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			s.recordBatch(batchID, paths, reports, startedAt)
			return reports, fmt.Errorf("ingest cancelled: %w", err)
		}

		report := s.ingestFile(ctx, path)
		if report.Failed() {
			logger.Warn("File %s failed: %v", path, report.Err)
		} else {
			logger.Info("File %s: %d chunk(s) committed, %d replaced, %d failure(s)",
				path, len(report.ChunkIDs), report.Replaced, len(report.Failures))
		}
		reports = append(reports, report)
	}

	s.recordBatch(batchID, paths, reports, startedAt)
	return reports, nil
}

// ingestFile processes one file end to end.
func (s *IngestService) ingestFile(ctx context.Context, path string) domain.IngestReport {
	report := domain.IngestReport{Path: path}

	extractor, err := s.registry.ForPath(path)
	if err != nil {
		report.Err = err
		return report
	}

	units, err := extractor.Extract(ctx, path)
	if err != nil {
		report.Err = fmt.Errorf("extract %s: %w", path, err)
		return report
	}
	logger.Debug("File %s: %d content unit(s)", path, len(units))

	// Re-ingesting a path supersedes its previous chunks.
	replaced, err := s.deleteExisting(ctx, path)
	if err != nil {
		report.Err = err
		return report
	}
	report.Replaced = replaced

	ordinal := 0
	for _, unit := range units {
		switch unit.Modality {
		case domain.ModalityImage:
			s.commitChunk(ctx, &report, pendingChunk{
				modality: domain.ModalityImage,
				preview:  fmt.Sprintf("image: %s", filepath.Base(path)),
				data:     unit.Data,
				offset:   unit.Offset,
			})

		default:
			for _, text := range s.splitter.Split(unit.Text) {
				s.commitChunk(ctx, &report, pendingChunk{
					modality: unit.Modality,
					preview:  preview(text),
					text:     text,
					offset:   ordinal,
				})
				ordinal++
			}
		}
	}

	if len(report.ChunkIDs) == 0 && len(report.Failures) > 0 {
		report.Err = fmt.Errorf("%s: every chunk failed to embed", path)
	}
	return report
}

// pendingChunk is one chunk awaiting embedding and insert.
type pendingChunk struct {
	modality domain.Modality
	preview  string
	text     string
	data     []byte
	offset   int
}

// commitChunk embeds and inserts one chunk, recording failure in the
// report instead of returning it.
func (s *IngestService) commitChunk(ctx context.Context, report *domain.IngestReport, pc pendingChunk) {
	embedder, ok := s.embedders[pc.modality.Family()]
	if !ok {
		report.Failures = append(report.Failures, domain.ChunkFailure{
			SourceOffset: pc.offset,
			Preview:      pc.preview,
			Err:          fmt.Errorf("%w: no embedder for family %s", domain.ErrEmbeddingFailed, pc.modality.Family()),
		})
		return
	}

	if err := s.limiter.Wait(ctx); err != nil {
		report.Failures = append(report.Failures, domain.ChunkFailure{
			SourceOffset: pc.offset,
			Preview:      pc.preview,
			Err:          err,
		})
		return
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.timeout)
	embedding, err := embedder.Embed(embedCtx, driven.EmbedInput{
		Modality: pc.modality,
		Text:     pc.text,
		Data:     pc.data,
	})
	cancel()
	if err != nil {
		logger.Warn("Embedding failed for %s offset %d: %v", report.Path, pc.offset, err)
		report.Failures = append(report.Failures, domain.ChunkFailure{
			SourceOffset: pc.offset,
			Preview:      pc.preview,
			Err:          err,
		})
		return
	}

	id, err := s.index.Add(ctx, embedding, domain.Chunk{
		Modality:     pc.modality,
		TextPreview:  pc.preview,
		SourcePath:   report.Path,
		SourceOffset: pc.offset,
	})
	if err != nil {
		logger.Warn("Insert failed for %s offset %d: %v", report.Path, pc.offset, err)
		report.Failures = append(report.Failures, domain.ChunkFailure{
			SourceOffset: pc.offset,
			Preview:      pc.preview,
			Err:          err,
		})
		return
	}

	report.ChunkIDs = append(report.ChunkIDs, id)
}

// deleteExisting soft-deletes the live chunks of a source path and
// returns how many were superseded.
func (s *IngestService) deleteExisting(ctx context.Context, path string) (int, error) {
	ids, err := s.index.BySource(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("lookup existing chunks for %s: %w", path, err)
	}
	for _, id := range ids {
		if err := s.index.Delete(ctx, id); err != nil {
			return 0, fmt.Errorf("delete superseded chunk %d: %w", id, err)
		}
	}
	if len(ids) > 0 {
		logger.Debug("File %s: superseded %d existing chunk(s)", path, len(ids))
	}
	return len(ids), nil
}

// recordBatch writes the batch outcome to the ingest ledger.
func (s *IngestService) recordBatch(
	batchID string, paths []string, reports []domain.IngestReport, startedAt time.Time,
) {
	if s.history == nil {
		return
	}

	rec := driven.IngestRecord{
		ID:         batchID,
		Paths:      paths,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
	}
	for _, r := range reports {
		if r.Failed() {
			rec.FilesFailed++
		} else {
			rec.FilesOK++
		}
		rec.Chunks += len(r.ChunkIDs)
	}

	// Ledger writes are best-effort; the index is the source of truth.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.history.SaveIngest(ctx, rec); err != nil {
		logger.Warn("Failed to record ingest batch %s: %v", batchID, err)
	}
}

// preview truncates text to the stored preview length, rune-safe.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewRunes {
		return text
	}
	return string(runes[:PreviewRunes])
}
