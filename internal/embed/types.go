// Package embed produces the vectors the record store attaches to each
// chunk. The vectors are opaque to reconciliation; they only serve
// similarity search.
package embed

import (
	"context"
	"math"
)

// DefaultDimensions is the vector width used when none is configured.
const DefaultDimensions = 256

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for texts, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding width.
	Dimensions() int

	// ModelName identifies the embedding scheme; vectors from different
	// models are not comparable.
	ModelName() string

	Close() error
}

// normalize scales v to unit length. Zero vectors are returned unchanged.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	mag := math.Sqrt(sum)
	if mag == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / mag)
	}
	return out
}
