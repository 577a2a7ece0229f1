// Package vectorstore persists chunk embeddings and serves approximate
// nearest-neighbor retrieval by cosine similarity.
package vectorstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDimensionMismatch is returned when a vector's width disagrees
	// with the store's configured dimensionality. Caller error, no retry.
	ErrDimensionMismatch = errors.New("vectorstore: vector dimension mismatch")

	// ErrNotFound is returned by direct lookups on unknown chunks.
	// Deletes of unknown chunks are no-ops, not errors.
	ErrNotFound = errors.New("vectorstore: embedding not found")
)

// Record is one chunk embedding to persist. DocumentID is carried for
// document-scoped deletion; the relational backend resolves it through
// the chunk table instead.
type Record struct {
	ID         uuid.UUID
	CaseID     uuid.UUID
	DocumentID uuid.UUID
	ChunkID    uuid.UUID
	Vector     []float32
	ModelName  string
}

// Match is one similarity-search hit, similarity = 1 - cosine distance.
type Match struct {
	EmbeddingID uuid.UUID `json:"embedding_id"`
	CaseID      uuid.UUID `json:"case_id"`
	ChunkID     uuid.UUID `json:"chunk_id"`
	Similarity  float64   `json:"similarity"`
}

// Stats is the operational snapshot exposed by the statistics view.
type Stats struct {
	TotalEmbeddings int64      `json:"total_embeddings"`
	DistinctCases   int64      `json:"distinct_cases"`
	DistinctChunks  int64      `json:"distinct_chunks"`
	Dimension       int        `json:"dimension"`
	OldestCreatedAt *time.Time `json:"oldest_created_at,omitempty"`
	NewestCreatedAt *time.Time `json:"newest_created_at,omitempty"`
}

// Store holds at most one embedding per chunk and answers cosine
// similarity queries over them.
type Store interface {
	// Upsert inserts or replaces the embedding for a chunk. After the
	// call exactly one embedding exists for record.ChunkID.
	Upsert(ctx context.Context, record Record) error

	// UpsertBatch applies Upsert to every record atomically.
	UpsertBatch(ctx context.Context, records []Record) error

	// Delete removes the chunk's embedding if present. Idempotent.
	Delete(ctx context.Context, chunkID uuid.UUID) error

	// DeleteByDocument removes every embedding of the document's chunks.
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) error

	// DeleteByCase removes every embedding belonging to the case.
	DeleteByCase(ctx context.Context, caseID uuid.UUID) error

	// SearchSimilar returns up to limit matches with similarity >=
	// minSimilarity, descending by similarity, ties broken by chunk id.
	SearchSimilar(ctx context.Context, vector []float32, limit int, minSimilarity float64) ([]Match, error)

	// Stats reports counts and timestamps for operational visibility.
	Stats(ctx context.Context) (*Stats, error)

	// Dimension is the fixed vector width this store accepts.
	Dimension() int
}
