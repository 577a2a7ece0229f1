// Package embedding turns chunk text into fixed-dimension vectors using a
// named model. Producers compute only; they never touch storage.
package embedding

import (
	"context"
	"errors"
	"math"
)

var (
	// ErrEmptyInput is returned when a text is empty after trimming.
	// Embeddings of empty text are disallowed: they cluster at a
	// degenerate point and pollute nearest-neighbor results.
	ErrEmptyInput = errors.New("embedding: empty input text")

	// ErrModelUnavailable is returned when the embedding backend cannot
	// be reached or does not know the requested model. Transient.
	ErrModelUnavailable = errors.New("embedding: model unavailable")

	// ErrDimensionMismatch is returned when the backend produces vectors
	// of a width other than the model's declared dimensionality.
	ErrDimensionMismatch = errors.New("embedding: dimension mismatch")
)

// Producer computes embeddings for chunk or query text.
type Producer interface {
	// Embed returns one vector per input text, in input order. The whole
	// batch fails on the first empty text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedOne embeds a single text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// ModelName identifies the model that versions produced vectors.
	ModelName() string

	// Dimension is the fixed width of every vector this producer emits.
	Dimension() int
}

// dimensions declares the vector width of the models this deployment
// knows about. Unknown models are rejected up front rather than at the
// first mismatched upsert.
var dimensions = map[string]int{
	"all-MiniLM-L6-v2":       384,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// DefaultModel is the 384-dimension sentence-transformer the platform
// ships with, served behind an OpenAI-compatible endpoint.
const DefaultModel = "all-MiniLM-L6-v2"

// Dimensions returns the declared width for a model name.
func Dimensions(model string) (int, bool) {
	d, ok := dimensions[model]
	return d, ok
}

// Normalize scales v to unit length in place and returns it. Cosine
// similarity over normalized vectors reduces to a dot product.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}
