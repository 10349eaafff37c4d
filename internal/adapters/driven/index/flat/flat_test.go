package flat

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{
		TextDimensions:  4,
		ImageDimensions: 3,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func textChunk(source string, offset int) domain.Chunk {
	return domain.Chunk{
		Modality:     domain.ModalityText,
		TextPreview:  fmt.Sprintf("chunk %s/%d", source, offset),
		SourcePath:   source,
		SourceOffset: offset,
	}
}

func TestOpenRejectsBadDimensions(t *testing.T) {
	_, err := Open(context.Background(), Options{TextDimensions: 0, ImageDimensions: 3})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAddAllocatesMonotonicIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.Add(ctx, []float32{1, 0, 0, 0}, textChunk("a.txt", 0))
	require.NoError(t, err)
	id2, err := s.Add(ctx, []float32{0, 1, 0, 0}, textChunk("a.txt", 1))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), id1)
	assert.Equal(t, uint64(2), id2)
}

func TestSelfSimilarityIsOne(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	vec := []float32{3, 1, 4, 1}
	id, err := s.Add(ctx, vec, textChunk("pi.txt", 0))
	require.NoError(t, err)

	hits, err := s.Search(ctx, vec, domain.FamilyText, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-5)
}

func TestAddDimensionMismatchWritesNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, []float32{1, 0, 0, 0}, textChunk("a.txt", 0))
	require.NoError(t, err)

	_, err = s.Add(ctx, []float32{1, 0, 0}, textChunk("a.txt", 1))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LiveChunks)
}

func TestSearchDimensionMismatch(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Search(context.Background(), []float32{1, 0}, domain.FamilyText, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestAddRejectsZeroVector(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Add(context.Background(), []float32{0, 0, 0, 0}, textChunk("z.txt", 0))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFamiliesAreSeparate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, []float32{1, 0, 0, 0}, textChunk("a.txt", 0))
	require.NoError(t, err)
	imgID, err := s.Add(ctx, []float32{0, 1, 0}, domain.Chunk{
		Modality:    domain.ModalityImage,
		TextPreview: "photo",
		SourcePath:  "p.png",
	})
	require.NoError(t, err)

	hits, err := s.Search(ctx, []float32{0, 1, 0}, domain.FamilyImage, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, imgID, hits[0].ChunkID)
}

func TestSearchOrderingAndTieBreak(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Two identical vectors tie on score; the lower ID must come first.
	first, err := s.Add(ctx, []float32{1, 1, 0, 0}, textChunk("t.txt", 0))
	require.NoError(t, err)
	second, err := s.Add(ctx, []float32{1, 1, 0, 0}, textChunk("t.txt", 1))
	require.NoError(t, err)
	far, err := s.Add(ctx, []float32{0, 0, 0, 1}, textChunk("t.txt", 2))
	require.NoError(t, err)

	hits, err := s.Search(ctx, []float32{1, 1, 0, 0}, domain.FamilyText, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, first, hits[0].ChunkID)
	assert.Equal(t, second, hits[1].ChunkID)
	assert.Equal(t, far, hits[2].ChunkID)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
	assert.Greater(t, hits[1].Score, hits[2].Score)
}

func TestSearchTruncatesToK(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Add(ctx, []float32{1, float32(i), 0, 0}, textChunk("k.txt", i))
		require.NoError(t, err)
	}

	hits, err := s.Search(ctx, []float32{1, 0, 0, 0}, domain.FamilyText, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = s.Search(ctx, []float32{1, 0, 0, 0}, domain.FamilyText, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDeleteHidesChunkEverywhere(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	vec := []float32{1, 0, 0, 0}
	id, err := s.Add(ctx, vec, textChunk("d.txt", 0))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))

	hits, err := s.Search(ctx, vec, domain.FamilyText, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	_, err = s.GetMetadata(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ids, err := s.BySource(ctx, "d.txt")
	require.NoError(t, err)
	assert.Empty(t, ids)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.LiveChunks)
}

func TestDeleteIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Add(ctx, []float32{1, 0, 0, 0}, textChunk("d.txt", 0))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	require.NoError(t, s.Delete(ctx, id))
	require.NoError(t, s.Delete(ctx, 9999))
}

func TestGetMetadataUnknown(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetMetadata(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBySourceSortedAscending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var want []uint64
	for i := 0; i < 4; i++ {
		id, err := s.Add(ctx, []float32{1, float32(i + 1), 0, 0}, textChunk("multi.txt", i))
		require.NoError(t, err)
		want = append(want, id)
	}
	_, err := s.Add(ctx, []float32{0, 0, 1, 0}, textChunk("other.txt", 0))
	require.NoError(t, err)

	ids, err := s.BySource(ctx, "multi.txt")
	require.NoError(t, err)
	assert.Equal(t, want, ids)
}

func TestCompactPreservesIDsAndResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	keep, err := s.Add(ctx, []float32{1, 0, 0, 0}, textChunk("c.txt", 0))
	require.NoError(t, err)
	drop, err := s.Add(ctx, []float32{0, 1, 0, 0}, textChunk("c.txt", 1))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, drop))

	require.NoError(t, s.Compact(ctx))

	hits, err := s.Search(ctx, []float32{1, 0, 0, 0}, domain.FamilyText, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, keep, hits[0].ChunkID)

	// IDs allocated after compaction must not reuse the dropped one.
	next, err := s.Add(ctx, []float32{0, 0, 1, 0}, textChunk("c.txt", 2))
	require.NoError(t, err)
	assert.Greater(t, next, drop)
}

func TestStatsPerModality(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, []float32{1, 0, 0, 0}, textChunk("a.txt", 0))
	require.NoError(t, err)
	_, err = s.Add(ctx, []float32{1, 1, 0, 0}, domain.Chunk{
		Modality:   domain.ModalityAudioTranscript,
		SourcePath: "a.wav",
	})
	require.NoError(t, err)
	_, err = s.Add(ctx, []float32{1, 0, 0}, domain.Chunk{
		Modality:   domain.ModalityImage,
		SourcePath: "a.png",
	})
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.LiveChunks)
	assert.Equal(t, 1, stats.PerModality[domain.ModalityText])
	assert.Equal(t, 1, stats.PerModality[domain.ModalityAudioTranscript])
	assert.Equal(t, 1, stats.PerModality[domain.ModalityImage])
}

func TestConcurrentReadersDuringWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const chunks = 100
	query := []float32{1, 0, 0, 0}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Readers hammer Search and GetMetadata while the writer ingests.
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}

				hits, err := s.Search(ctx, query, domain.FamilyText, 10)
				assert.NoError(t, err)
				for _, hit := range hits {
					chunk, err := s.GetMetadata(ctx, hit.ChunkID)
					// A returned hit must always hydrate.
					assert.NoError(t, err)
					assert.Equal(t, hit.ChunkID, chunk.ID)
				}
			}
		}()
	}

	for i := 0; i < chunks; i++ {
		_, err := s.Add(ctx, []float32{1, float32(i), float32(i % 7), 0}, textChunk("stream.txt", i))
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, chunks, stats.LiveChunks)
}
