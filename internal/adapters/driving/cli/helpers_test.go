package cli

import (
	"context"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
)

// setupTestServices wires fake services into the package-level vars and
// returns a cleanup that restores the previous wiring.
func setupTestServices() func() {
	oldIngest := ingestCoordinator
	oldRetriever := retriever
	oldGenerator := generator
	oldStatus := statusReporter
	oldHistory := historyStore
	oldIndex := vectorIndex

	ingestCoordinator = &fakeIngest{reports: []domain.IngestReport{
		{Path: "notes.txt", ChunkIDs: []uint64{1, 2, 3}},
	}}
	retriever = &fakeRetriever{result: testQueryResult()}
	generator = &fakeGenerator{answer: domain.Answer{
		Text:      "Paris is the capital of France.",
		Citations: testQueryResult().Citations(),
		Grounded:  true,
	}}
	statusReporter = &fakeStatus{stats: domain.IndexStats{
		LiveChunks: 5,
		PerModality: map[domain.Modality]int{
			domain.ModalityText:  4,
			domain.ModalityImage: 1,
		},
	}}
	historyStore = &fakeHistory{}
	vectorIndex = &fakeIndex{}

	return func() {
		ingestCoordinator = oldIngest
		retriever = oldRetriever
		generator = oldGenerator
		statusReporter = oldStatus
		historyStore = oldHistory
		vectorIndex = oldIndex
	}
}

func testQueryResult() domain.QueryResult {
	return domain.QueryResult{Chunks: []domain.ScoredChunk{
		{
			Chunk: domain.Chunk{
				ID:          1,
				Modality:    domain.ModalityText,
				TextPreview: "Paris is the capital of France.",
				SourcePath:  "facts.txt",
			},
			Score: 0.92,
		},
		{
			Chunk: domain.Chunk{
				ID:           7,
				Modality:     domain.ModalityImage,
				TextPreview:  "image: eiffel.png",
				SourcePath:   "eiffel.png",
				SourceOffset: 0,
			},
			Score: 0.61,
		},
	}}
}

type fakeIngest struct {
	reports   []domain.IngestReport
	err       error
	lastPaths []string
}

func (f *fakeIngest) Ingest(_ context.Context, paths []string) ([]domain.IngestReport, error) {
	f.lastPaths = paths
	return f.reports, f.err
}

type fakeRetriever struct {
	result    domain.QueryResult
	err       error
	lastQuery string
	lastOpts  driving.RetrieveOptions
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, opts driving.RetrieveOptions) (domain.QueryResult, error) {
	f.lastQuery = query
	f.lastOpts = opts
	return f.result, f.err
}

type fakeGenerator struct {
	answer       domain.Answer
	err          error
	lastQuestion string
	lastHistory  []domain.ConversationTurn
}

func (f *fakeGenerator) Generate(_ context.Context, question string, _ domain.QueryResult, history []domain.ConversationTurn) (domain.Answer, error) {
	f.lastQuestion = question
	f.lastHistory = history
	return f.answer, f.err
}

type fakeStatus struct {
	stats domain.IndexStats
	err   error
}

func (f *fakeStatus) Status(_ context.Context) (domain.IndexStats, error) {
	return f.stats, f.err
}

type fakeHistory struct {
	turns      []domain.ConversationTurn
	ingests    []driven.IngestRecord
	savedTurns []domain.ConversationTurn
	err        error
}

func (f *fakeHistory) SaveTurn(_ context.Context, turn domain.ConversationTurn) error {
	f.savedTurns = append(f.savedTurns, turn)
	return f.err
}

func (f *fakeHistory) RecentTurns(_ context.Context, limit int) ([]domain.ConversationTurn, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.turns) {
		return f.turns[:limit], nil
	}
	return f.turns, nil
}

func (f *fakeHistory) SaveIngest(_ context.Context, rec driven.IngestRecord) error {
	f.ingests = append(f.ingests, rec)
	return f.err
}

func (f *fakeHistory) RecentIngests(_ context.Context, limit int) ([]driven.IngestRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.ingests) {
		return f.ingests[:limit], nil
	}
	return f.ingests, nil
}

func (f *fakeHistory) Close() error { return nil }

type fakeIndex struct {
	persisted int
	compacted int
	err       error
}

func (f *fakeIndex) Add(_ context.Context, _ []float32, _ domain.Chunk) (uint64, error) {
	return 0, f.err
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, _ domain.ModalityFamily, _ int) ([]driven.Hit, error) {
	return nil, f.err
}

func (f *fakeIndex) GetMetadata(_ context.Context, _ uint64) (domain.Chunk, error) {
	return domain.Chunk{}, domain.ErrNotFound
}

func (f *fakeIndex) Delete(_ context.Context, _ uint64) error { return f.err }

func (f *fakeIndex) BySource(_ context.Context, _ string) ([]uint64, error) {
	return nil, f.err
}

func (f *fakeIndex) Persist(_ context.Context) error {
	f.persisted++
	return f.err
}

func (f *fakeIndex) Load(_ context.Context) error { return f.err }

func (f *fakeIndex) Stats(_ context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{}, f.err
}

func (f *fakeIndex) Compact(_ context.Context) error {
	f.compacted++
	return f.err
}

func (f *fakeIndex) Close() error { return nil }

var (
	_ driving.IngestCoordinator = (*fakeIngest)(nil)
	_ driving.Retriever         = (*fakeRetriever)(nil)
	_ driving.Generator         = (*fakeGenerator)(nil)
	_ driving.StatusReporter    = (*fakeStatus)(nil)
	_ driven.HistoryStore       = (*fakeHistory)(nil)
	_ driven.VectorIndex        = (*fakeIndex)(nil)
)

// testTurn builds a history turn with a fixed timestamp.
func testTurn(question, answer string) domain.ConversationTurn {
	return domain.ConversationTurn{
		ID:        "turn-1",
		Question:  question,
		Answer:    answer,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}
