// Package domain contains the core business entities for recall:
// chunks, modalities, query results, citations and ingest reports.
// It has no dependencies on adapters or infrastructure.
package domain
