package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [paths...]", ingestCmd.Use)
}

func TestIngestCmd_RequiresAtLeastOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestIngestCmd_ReportsPerFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ingestCoordinator.(*fakeIngest).reports = []domain.IngestReport{
		{Path: "a.txt", ChunkIDs: []uint64{1, 2}, Replaced: 2},
		{Path: "b.xyz", Err: errors.New("unsupported file type")},
		{Path: "c.md", ChunkIDs: []uint64{3}, Failures: []domain.ChunkFailure{
			{SourceOffset: 1, Err: errors.New("embedding failed")},
		}},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "a.txt", "b.xyz", "c.md"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "indexed a.txt: 2 chunks (replaced 2)")
	assert.Contains(t, out, "failed  b.xyz: unsupported file type")
	assert.Contains(t, out, "indexed c.md: 1 chunks, 1 skipped")
	assert.Contains(t, out, "Ingested 2 of 3 files (3 chunks).")
}

func TestIngestCmd_PersistsAfterIngest(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "notes.txt"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, 1, vectorIndex.(*fakeIndex).persisted)
}

func TestIngestCmd_PassesAllPaths(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "one.txt", "two.md"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, []string{"one.txt", "two.md"}, ingestCoordinator.(*fakeIngest).lastPaths)
}

func TestIngestCmd_ServiceNotConfigured(t *testing.T) {
	oldIngest := ingestCoordinator
	ingestCoordinator = nil
	defer func() {
		ingestCoordinator = oldIngest
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "a.txt"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ingest service not configured")
}
