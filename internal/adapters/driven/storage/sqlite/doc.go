// Package sqlite provides the SQLite-backed history store: the
// conversation log and the ingest batch ledger. The vector index never
// lives here; its chunk metadata is persisted alongside the index
// files so the two cannot drift apart.
package sqlite
