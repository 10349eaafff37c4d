package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

func TestExtractSingleUnit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("  hello world\n"), 0o600))

	units, err := New().Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, domain.ModalityText, units[0].Modality)
	assert.Equal(t, "hello world", units[0].Text)
}

func TestExtractEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	units, err := New().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestExtractMissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))
	assert.Error(t, err)
}
