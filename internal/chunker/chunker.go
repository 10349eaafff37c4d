// Package chunker provides overlapping fixed-size text chunking.
package chunker

// DefaultChunkSize is the default number of runes per chunk.
const DefaultChunkSize = 512

// DefaultChunkOverlap is the default number of overlapping runes.
const DefaultChunkOverlap = 50

// Chunker splits text into bounded, overlapping chunks. The overlap
// preserves local context across chunk boundaries while keeping each
// chunk within the embedding adapter's input limit.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in runes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in runes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for forward progress.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Split returns the overlapping chunks of text, in order. Splitting is
// rune-based so multi-byte characters are never cut in half. Empty
// input produces no chunks.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)

	step := c.chunkSize - c.overlap
	estimated := total/step + 1
	chunks := make([]string, 0, estimated)

	for start := 0; start < total; start += step {
		end := start + c.chunkSize
		if end > total {
			end = total
		}

		chunks = append(chunks, string(runes[start:end]))

		if end == total {
			break
		}
	}

	return chunks
}
