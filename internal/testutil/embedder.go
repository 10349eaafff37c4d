// Package testutil provides deterministic fakes for tests. The hash
// embedder maps shared tokens to shared vector buckets, so texts with
// overlapping vocabulary score high without any external model.
package testutil

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// Ensure HashEmbedder implements the interface.
var _ driven.Embedder = (*HashEmbedder)(nil)

// HashEmbedder is a deterministic bag-of-words embedder. Text is
// tokenized and each token hashed into a bucket; image bytes are
// hashed byte-wise. Identical input always yields an identical vector.
type HashEmbedder struct {
	Dim  int
	Name string

	// Fail makes every Embed call return this error, for failure-path
	// tests.
	Fail error
}

// NewHashEmbedder creates a hash embedder with the given
// dimensionality.
func NewHashEmbedder(dim int) *HashEmbedder {
	return &HashEmbedder{Dim: dim, Name: "hash-test"}
}

// Embed generates the deterministic vector for the input.
func (e *HashEmbedder) Embed(_ context.Context, input driven.EmbedInput) ([]float32, error) {
	if e.Fail != nil {
		return nil, e.Fail
	}

	vec := make([]float32, e.Dim)
	if input.Text != "" {
		for _, token := range tokenize(input.Text) {
			vec[bucket(token, e.Dim)]++
		}
	}
	for _, b := range input.Data {
		vec[int(b)%e.Dim]++
	}

	// A vector must never be all-zero; reserve bucket 0 as a floor.
	if isZero(vec) {
		vec[0] = 1
	}
	return vec, nil
}

// Dimensions returns the fixed vector size.
func (e *HashEmbedder) Dimensions() int { return e.Dim }

// ModelName returns the fake model name.
func (e *HashEmbedder) ModelName() string { return e.Name }

// Ping always succeeds.
func (e *HashEmbedder) Ping(context.Context) error { return nil }

// Close releases nothing.
func (e *HashEmbedder) Close() error { return nil }

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func bucket(token string, dim int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(dim))
}

func isZero(vec []float32) bool {
	for _, x := range vec {
		if x != 0 {
			return false
		}
	}
	return true
}
