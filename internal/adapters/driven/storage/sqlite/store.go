package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/recall-labs/recall-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.HistoryStore = (*Store)(nil)

// Store is the SQLite-backed conversation history and ingest ledger.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a store at the specified data directory.
// If dataDir is empty, defaults to ~/.recall/data/history.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".recall", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveTurn appends a conversation turn.
func (s *Store) SaveTurn(ctx context.Context, turn domain.ConversationTurn) error {
	citationsJSON, err := json.Marshal(turn.Citations)
	if err != nil {
		return fmt.Errorf("marshalling citations: %w", err)
	}

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversation_turns (id, question, answer, citations, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, turn.ID, turn.Question, turn.Answer, string(citationsJSON), turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit turns, newest first.
func (s *Store) RecentTurns(ctx context.Context, limit int) ([]domain.ConversationTurn, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question, answer, citations, created_at
		FROM conversation_turns
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn
	for rows.Next() {
		var turn domain.ConversationTurn
		var citationsJSON string
		if err := rows.Scan(&turn.ID, &turn.Question, &turn.Answer, &citationsJSON, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if err := json.Unmarshal([]byte(citationsJSON), &turn.Citations); err != nil {
			return nil, fmt.Errorf("unmarshalling citations: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

// SaveIngest records the outcome of one ingest batch.
func (s *Store) SaveIngest(ctx context.Context, rec driven.IngestRecord) error {
	pathsJSON, err := json.Marshal(rec.Paths)
	if err != nil {
		return fmt.Errorf("marshalling paths: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ingest_batches (id, paths, files_ok, files_failed, chunks, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, string(pathsJSON), rec.FilesOK, rec.FilesFailed, rec.Chunks,
		rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("saving ingest batch: %w", err)
	}
	return nil
}

// RecentIngests returns up to limit batch records, newest first.
func (s *Store) RecentIngests(ctx context.Context, limit int) ([]driven.IngestRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, paths, files_ok, files_failed, chunks, started_at, finished_at
		FROM ingest_batches
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ingest batches: %w", err)
	}
	defer rows.Close()

	var records []driven.IngestRecord
	for rows.Next() {
		var rec driven.IngestRecord
		var pathsJSON string
		if err := rows.Scan(&rec.ID, &pathsJSON, &rec.FilesOK, &rec.FilesFailed,
			&rec.Chunks, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning ingest batch: %w", err)
		}
		if err := json.Unmarshal([]byte(pathsJSON), &rec.Paths); err != nil {
			return nil, fmt.Errorf("unmarshalling paths: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ingest batches: %w", err)
	}
	return records, nil
}
