package domain

import "time"

// Chunk is the unit of retrievable content. Chunks are immutable once
// written; superseded chunks are soft-deleted, never mutated in place.
type Chunk struct {
	// ID is the unique identifier, allocated monotonically by the
	// vector index on insert.
	ID uint64

	// Modality is the content kind this chunk was produced from.
	Modality Modality

	// TextPreview is a human-readable excerpt used for citation display
	// and prompt assembly. For images it holds a short description of
	// the file rather than pixel data.
	TextPreview string

	// SourcePath is the file the chunk came from.
	SourcePath string

	// SourceOffset is the position within the source: the chunk ordinal
	// for text, the page for PDFs, the segment index for transcripts.
	SourceOffset int

	// CreatedAt is when the chunk was committed to the index.
	CreatedAt time.Time
}

// Citation points an answer back to a source chunk. Citations are a
// query-time projection of a chunk plus its score; they are never
// persisted by the core.
type Citation struct {
	ChunkID      uint64  `json:"chunk_id"`
	SourcePath   string  `json:"source_path"`
	SourceOffset int     `json:"source_offset"`
	Score        float64 `json:"score"`
}

// Cite projects a chunk and its similarity score into a Citation.
func Cite(c Chunk, score float64) Citation {
	return Citation{
		ChunkID:      c.ID,
		SourcePath:   c.SourcePath,
		SourceOffset: c.SourceOffset,
		Score:        score,
	}
}

// ScoredChunk pairs a chunk with its similarity score for one query.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// QueryResult is an ordered sequence of scored chunks, descending by
// score with ascending chunk ID as the tie-break, truncated to top-k.
// An empty QueryResult is the normal "no relevant content" outcome,
// not an error.
type QueryResult struct {
	Chunks []ScoredChunk
}

// Empty reports whether retrieval found no qualifying chunks.
func (r QueryResult) Empty() bool {
	return len(r.Chunks) == 0
}

// Citations projects every chunk in the result into a Citation.
func (r QueryResult) Citations() []Citation {
	if len(r.Chunks) == 0 {
		return nil
	}
	citations := make([]Citation, len(r.Chunks))
	for i, sc := range r.Chunks {
		citations[i] = Cite(sc.Chunk, sc.Score)
	}
	return citations
}

// Answer is the generator's output: the answer text plus the citations
// for every chunk that was included in the prompt.
type Answer struct {
	// Text is the generated answer, or the fixed insufficient-context
	// message when retrieval produced nothing.
	Text string

	// Citations trace the answer back to source chunks. Empty when the
	// answer is not grounded in retrieved content.
	Citations []Citation

	// Grounded is false only for the insufficient-context answer.
	Grounded bool
}

// ConversationTurn is one question/answer exchange. History is
// append-only and owned by the caller; the core treats it as opaque
// context when building prompts.
type ConversationTurn struct {
	ID        string
	Question  string
	Answer    string
	Citations []Citation
	CreatedAt time.Time
}

// IndexStats summarises live index contents.
type IndexStats struct {
	// LiveChunks is the number of non-deleted chunks across families.
	LiveChunks int

	// PerModality counts live chunks by modality.
	PerModality map[Modality]int
}
