// Package flat provides a brute-force cosine-similarity vector index
// with one sub-index per modality family, soft deletion and snapshot
// persistence.
//
// The index keeps its whole state in an immutable value swapped in
// atomically after each write: writes serialise on a mutex, reads are
// lock-free and never observe a half-written vector/metadata pair.
package flat

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// Options configures the index.
type Options struct {
	// Dir is the data directory for persisted snapshots.
	Dir string

	// TextDimensions is the vector size of the text family
	// (text and audio transcripts).
	TextDimensions int

	// ImageDimensions is the vector size of the image family.
	ImageDimensions int
}

// familyState holds the vectors of one modality family. Entries are
// append-only; tombstoned entries keep their slot until Compact.
type familyState struct {
	dim     int
	ids     []uint64
	vectors [][]float32
}

// state is the immutable index state swapped in after each write.
type state struct {
	families map[domain.ModalityFamily]*familyState
	chunks   map[uint64]domain.Chunk
	deleted  *roaring64.Bitmap
	nextID   uint64
}

// Store is the unified multimodal vector index.
type Store struct {
	writeMu sync.Mutex   // serialises Add/Delete/Persist/Compact/Load
	state   atomic.Value // holds *state for lock-free reads
	opts    Options
}

// Open creates the index and loads any persisted snapshot from the
// data directory. A missing store yields an empty index.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.TextDimensions <= 0 || opts.ImageDimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	s := &Store{opts: opts}
	s.state.Store(s.emptyState())

	if opts.Dir != "" {
		if err := s.Load(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// emptyState builds a fresh state with both sub-indices empty.
func (s *Store) emptyState() *state {
	return &state{
		families: map[domain.ModalityFamily]*familyState{
			domain.FamilyText:  {dim: s.opts.TextDimensions},
			domain.FamilyImage: {dim: s.opts.ImageDimensions},
		},
		chunks:  make(map[uint64]domain.Chunk),
		deleted: roaring64.New(),
		nextID:  1,
	}
}

// getState returns the current immutable state (lock-free read).
func (s *Store) getState() *state {
	return s.state.Load().(*state)
}

// cloneState deep-copies the mutable containers for copy-on-write.
func cloneState(st *state) *state {
	families := make(map[domain.ModalityFamily]*familyState, len(st.families))
	for family, fs := range st.families {
		ids := make([]uint64, len(fs.ids))
		copy(ids, fs.ids)
		vectors := make([][]float32, len(fs.vectors))
		copy(vectors, fs.vectors)
		families[family] = &familyState{dim: fs.dim, ids: ids, vectors: vectors}
	}

	chunks := make(map[uint64]domain.Chunk, len(st.chunks))
	for id, chunk := range st.chunks {
		chunks[id] = chunk
	}

	return &state{
		families: families,
		chunks:   chunks,
		deleted:  st.deleted.Clone(),
		nextID:   st.nextID,
	}
}

// Add appends a vector and its chunk atomically and returns the
// allocated chunk ID. The embedding must match the dimensionality of
// the chunk's modality family.
func (s *Store) Add(_ context.Context, embedding []float32, chunk domain.Chunk) (uint64, error) {
	if !chunk.Modality.Valid() {
		return 0, fmt.Errorf("%w: chunk modality %q", domain.ErrInvalidInput, chunk.Modality)
	}

	family := chunk.Modality.Family()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	oldState := s.getState()
	fs := oldState.families[family]
	if len(embedding) != fs.dim {
		return 0, fmt.Errorf("%w: family %s expects %d dimensions, got %d",
			domain.ErrDimensionMismatch, family, fs.dim, len(embedding))
	}

	normalized, ok := normalizeCopy(embedding)
	if !ok {
		return 0, fmt.Errorf("%w: zero-norm embedding", domain.ErrInvalidInput)
	}

	newState := cloneState(oldState)
	id := newState.nextID
	newState.nextID++

	chunk.ID = id
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now().UTC()
	}

	nfs := newState.families[family]
	nfs.ids = append(nfs.ids, id)
	nfs.vectors = append(nfs.vectors, normalized)
	newState.chunks[id] = chunk

	// Vector and metadata become visible in one atomic swap.
	s.state.Store(newState)
	return id, nil
}

// Search returns up to k live chunks from the family's sub-index,
// ordered by descending cosine similarity with ascending chunk ID as
// the tie-break.
func (s *Store) Search(_ context.Context, query []float32, family domain.ModalityFamily, k int) ([]driven.Hit, error) {
	st := s.getState()
	fs, ok := st.families[family]
	if !ok {
		return nil, fmt.Errorf("%w: unknown modality family %q", domain.ErrInvalidInput, family)
	}
	if len(query) != fs.dim {
		return nil, fmt.Errorf("%w: family %s expects %d dimensions, got %d",
			domain.ErrDimensionMismatch, family, fs.dim, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	normalized, ok := normalizeCopy(query)
	if !ok {
		return nil, fmt.Errorf("%w: zero-norm query", domain.ErrInvalidInput)
	}

	hits := make([]driven.Hit, 0, len(fs.ids))
	for i, id := range fs.ids {
		if st.deleted.Contains(id) {
			continue
		}
		hits = append(hits, driven.Hit{
			ChunkID: id,
			Score:   float64(dot(normalized, fs.vectors[i])),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// GetMetadata returns the chunk for an ID, or domain.ErrNotFound if it
// is unknown or deleted.
func (s *Store) GetMetadata(_ context.Context, id uint64) (domain.Chunk, error) {
	st := s.getState()
	chunk, ok := st.chunks[id]
	if !ok || st.deleted.Contains(id) {
		return domain.Chunk{}, fmt.Errorf("chunk %d: %w", id, domain.ErrNotFound)
	}
	return chunk, nil
}

// Delete soft-deletes a chunk. Idempotent; unknown IDs are a no-op.
func (s *Store) Delete(_ context.Context, id uint64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	oldState := s.getState()
	if _, ok := oldState.chunks[id]; !ok {
		return nil
	}
	if oldState.deleted.Contains(id) {
		return nil
	}

	newState := cloneState(oldState)
	newState.deleted.Add(id)
	s.state.Store(newState)
	return nil
}

// BySource returns the live chunk IDs for a source path in ascending
// order.
func (s *Store) BySource(_ context.Context, sourcePath string) ([]uint64, error) {
	st := s.getState()

	var ids []uint64
	for id, chunk := range st.chunks {
		if chunk.SourcePath == sourcePath && !st.deleted.Contains(id) {
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Stats returns live chunk counts.
func (s *Store) Stats(_ context.Context) (domain.IndexStats, error) {
	st := s.getState()

	stats := domain.IndexStats{PerModality: make(map[domain.Modality]int)}
	for id, chunk := range st.chunks {
		if st.deleted.Contains(id) {
			continue
		}
		stats.LiveChunks++
		stats.PerModality[chunk.Modality]++
	}
	return stats, nil
}

// Compact rebuilds the index dropping tombstoned entries. Chunk IDs
// are preserved so handles held by readers stay valid.
func (s *Store) Compact(_ context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	oldState := s.getState()
	if oldState.deleted.IsEmpty() {
		return nil
	}

	newState := &state{
		families: make(map[domain.ModalityFamily]*familyState, len(oldState.families)),
		chunks:   make(map[uint64]domain.Chunk, len(oldState.chunks)),
		deleted:  roaring64.New(),
		nextID:   oldState.nextID,
	}

	for family, fs := range oldState.families {
		nfs := &familyState{dim: fs.dim}
		for i, id := range fs.ids {
			if oldState.deleted.Contains(id) {
				continue
			}
			nfs.ids = append(nfs.ids, id)
			nfs.vectors = append(nfs.vectors, fs.vectors[i])
		}
		newState.families[family] = nfs
	}

	for id, chunk := range oldState.chunks {
		if !oldState.deleted.Contains(id) {
			newState.chunks[id] = chunk
		}
	}

	s.state.Store(newState)
	return nil
}

// Close releases resources. The in-memory index has none; callers are
// expected to Persist before exiting.
func (s *Store) Close() error {
	return nil
}

// normalizeCopy returns an L2-normalized copy of v. Returns false for
// zero-norm input.
func normalizeCopy(v []float32) ([]float32, bool) {
	var norm2 float32
	for _, x := range v {
		norm2 += x * x
	}
	if norm2 == 0 {
		return nil, false
	}

	inv := float32(1 / math.Sqrt(float64(norm2)))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * inv
	}
	return out, true
}

// dot computes the inner product of two equal-length vectors. Over
// normalized vectors this is the cosine similarity.
func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
