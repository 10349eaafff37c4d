// Package driving provides interfaces for the use cases exposed to
// callers (primary/inbound ports): ingestion, retrieval, generation
// and status.
package driving
