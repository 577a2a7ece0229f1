// Package lexical scores chunks by case-insensitive keyword containment,
// the second leg of hybrid retrieval.
package lexical

import (
	"context"

	"github.com/google/uuid"
)

// Entry is one chunk's text with its provenance, as stored in the index.
type Entry struct {
	ChunkID    uuid.UUID
	DocumentID uuid.UUID
	CaseID     uuid.UUID
	ChunkIndex int
	Text       string
	StartChar  int
	EndChar    int
}

// Hit is one keyword match, scored matched_keywords / total_keywords.
type Hit struct {
	ChunkID uuid.UUID `json:"chunk_id"`
	CaseID  uuid.UUID `json:"case_id"`
	Score   float64   `json:"score"`
}

// Index stores chunk text and answers keyword containment queries.
type Index interface {
	// Index inserts or replaces the entry for a chunk.
	Index(ctx context.Context, entry Entry) error

	// IndexBatch applies Index to every entry atomically.
	IndexBatch(ctx context.Context, entries []Entry) error

	// Remove drops a chunk from the index. Idempotent.
	Remove(ctx context.Context, chunkID uuid.UUID) error

	// RemoveByDocument drops every chunk of a document.
	RemoveByDocument(ctx context.Context, documentID uuid.UUID) error

	// RemoveByCase drops every chunk of a case.
	RemoveByCase(ctx context.Context, caseID uuid.UUID) error

	// Search returns up to limit chunks containing at least one keyword
	// (case-insensitive substring), descending by score, ties broken by
	// chunk id. Zero keywords yields an empty result.
	Search(ctx context.Context, keywords []string, limit int) ([]Hit, error)
}
