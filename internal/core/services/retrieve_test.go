package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
	"github.com/recall-labs/recall-cli/internal/testutil"
)

func embedInputText(text string) driven.EmbedInput {
	return driven.EmbedInput{Modality: domain.ModalityText, Text: text}
}

func (f *fixture) retrieveService() *RetrieveService {
	return NewRetrieveService(f.index, f.embedders, RetrieveConfig{})
}

// addText embeds and inserts one text chunk directly.
func (f *fixture) addText(t *testing.T, text, source string) uint64 {
	t.Helper()
	ctx := context.Background()

	embedding, err := f.embedders[domain.FamilyText].Embed(ctx, embedInputText(text))
	require.NoError(t, err)

	id, err := f.index.Add(ctx, embedding, domain.Chunk{
		Modality:    domain.ModalityText,
		TextPreview: text,
		SourcePath:  source,
	})
	require.NoError(t, err)
	return id
}

func floatPtr(v float64) *float64 { return &v }

func TestRetrieveRanksRelevantContentFirst(t *testing.T) {
	f := newFixture(t)
	svc := f.retrieveService()
	ctx := context.Background()

	parisID := f.addText(t, "Paris is the capital of France.", "facts.txt")
	f.addText(t, "Bananas are yellow and rich in potassium.", "fruit.txt")

	result, err := svc.Retrieve(ctx, "What is the capital of France?", driving.RetrieveOptions{
		Threshold: floatPtr(0.3),
	})
	require.NoError(t, err)
	require.False(t, result.Empty())

	top := result.Chunks[0]
	assert.Equal(t, parisID, top.Chunk.ID)
	assert.Greater(t, top.Score, 0.3)
}

func TestRetrieveEmptyIndexIsSuccess(t *testing.T) {
	f := newFixture(t)
	svc := f.retrieveService()

	result, err := svc.Retrieve(context.Background(), "anything", driving.RetrieveOptions{})
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestRetrieveThresholdAboveMaxYieldsEmpty(t *testing.T) {
	f := newFixture(t)
	svc := f.retrieveService()

	f.addText(t, "Paris is the capital of France.", "facts.txt")

	// Cosine similarity never exceeds 1.0, so 1.1 filters everything.
	result, err := svc.Retrieve(context.Background(), "capital of France",
		driving.RetrieveOptions{Threshold: floatPtr(1.1)})
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestRetrieveEmptyQueryYieldsEmpty(t *testing.T) {
	f := newFixture(t)
	svc := f.retrieveService()

	f.addText(t, "some content", "a.txt")

	result, err := svc.Retrieve(context.Background(), "   ", driving.RetrieveOptions{})
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestRetrieveTruncatesToK(t *testing.T) {
	f := newFixture(t)
	svc := f.retrieveService()

	for i := 0; i < 6; i++ {
		f.addText(t, "the capital of France is Paris", "dup.txt")
	}

	result, err := svc.Retrieve(context.Background(), "capital of France",
		driving.RetrieveOptions{K: 3, Threshold: floatPtr(0)})
	require.NoError(t, err)
	assert.Len(t, result.Chunks, 3)
}

func TestRetrieveDeterministicOrdering(t *testing.T) {
	f := newFixture(t)
	svc := f.retrieveService()
	ctx := context.Background()

	// Identical content ties on score; ordering falls back to chunk ID.
	for i := 0; i < 3; i++ {
		f.addText(t, "the capital of France is Paris", "dup.txt")
	}

	first, err := svc.Retrieve(ctx, "capital of France",
		driving.RetrieveOptions{Threshold: floatPtr(0)})
	require.NoError(t, err)
	second, err := svc.Retrieve(ctx, "capital of France",
		driving.RetrieveOptions{Threshold: floatPtr(0)})
	require.NoError(t, err)

	require.Equal(t, len(first.Chunks), len(second.Chunks))
	for i := range first.Chunks {
		assert.Equal(t, first.Chunks[i].Chunk.ID, second.Chunks[i].Chunk.ID)
	}
	for i := 1; i < len(first.Chunks); i++ {
		if first.Chunks[i-1].Score == first.Chunks[i].Score {
			assert.Less(t, first.Chunks[i-1].Chunk.ID, first.Chunks[i].Chunk.ID)
		}
	}
}

func TestRetrieveFamilyRestriction(t *testing.T) {
	f := newFixture(t)
	svc := f.retrieveService()
	ctx := context.Background()

	f.addText(t, "Paris is the capital of France.", "facts.txt")

	result, err := svc.Retrieve(ctx, "capital of France", driving.RetrieveOptions{
		Families:  []domain.ModalityFamily{domain.FamilyImage},
		Threshold: floatPtr(0),
	})
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestRetrieveExcludesDeletedChunks(t *testing.T) {
	f := newFixture(t)
	svc := f.retrieveService()
	ctx := context.Background()

	id := f.addText(t, "Paris is the capital of France.", "facts.txt")
	require.NoError(t, f.index.Delete(ctx, id))

	result, err := svc.Retrieve(ctx, "capital of France",
		driving.RetrieveOptions{Threshold: floatPtr(0)})
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestRetrieveEmbedderFailurePropagates(t *testing.T) {
	f := newFixture(t)
	f.embedders[domain.FamilyText] = &testutil.HashEmbedder{
		Dim:  testTextDim,
		Fail: domain.ErrEmbeddingFailed,
	}
	svc := f.retrieveService()

	f.embedders[domain.FamilyImage] = testutil.NewHashEmbedder(testImageDim)

	_, err := svc.Retrieve(context.Background(), "anything", driving.RetrieveOptions{
		Families: []domain.ModalityFamily{domain.FamilyText},
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
}
