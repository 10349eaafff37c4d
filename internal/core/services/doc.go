// Package services contains the core business logic: ingestion,
// retrieval, answer generation and status reporting. Services depend
// only on driven ports and are wired to concrete adapters in main.
package services
