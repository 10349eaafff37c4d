package domain

// ChunkFailure records one chunk that could not be committed during
// ingestion, typically because the embedding adapter rejected it.
type ChunkFailure struct {
	// SourceOffset is the position of the failed chunk in its source.
	SourceOffset int

	// Preview is a short excerpt of the failed content.
	Preview string

	// Err is the underlying failure.
	Err error
}

// IngestReport is the per-file outcome of an ingest batch. Partial
// success is the normal case: failed chunks are recorded here and never
// abort their siblings.
type IngestReport struct {
	// Path is the ingested source file.
	Path string

	// ChunkIDs are the chunks committed for this file, in source order.
	ChunkIDs []uint64

	// Replaced is the number of prior chunks soft-deleted because the
	// same source path was ingested before.
	Replaced int

	// Failures lists chunks that were skipped.
	Failures []ChunkFailure

	// Err is set when the whole file failed (unreadable, unsupported,
	// or every chunk in it failed).
	Err error
}

// Failed reports whether the file produced no committed chunks.
func (r IngestReport) Failed() bool {
	return r.Err != nil
}
