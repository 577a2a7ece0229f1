// Package consistency guards the invariant that no embedding outlives its
// chunk: dual writes into the vector store and the lexical index happen
// under a per-chunk lock, and chunk deletion synchronously clears both
// sides before it is considered complete.
package consistency

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/rmenezes/jurisearch/internal/lexical"
	"github.com/rmenezes/jurisearch/internal/vectorstore"
)

// ErrPartialIndex reports that one of the two indexes was updated and the
// other was not. Never tolerated silently: the caller must retry the
// whole chunk, otherwise rankings go one-sided.
var ErrPartialIndex = errors.New("consistency: partial index write")

const lockStripes = 64

// Manager serializes writes per chunk and fans deletions out to both
// indexes.
type Manager struct {
	vectors vectorstore.Store
	lex     lexical.Index
	logger  *slog.Logger
	locks   [lockStripes]sync.Mutex
}

func NewManager(vectors vectorstore.Store, lex lexical.Index, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{vectors: vectors, lex: lex, logger: logger}
}

// stripe maps a chunk id onto one of the mutexes. Concurrent Upsert and
// Delete on the same chunk serialize; unrelated chunks rarely contend.
func (m *Manager) stripe(chunkID uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	h.Write(chunkID[:])
	return &m.locks[h.Sum32()%lockStripes]
}

// IndexChunk writes the chunk text into the lexical index and its
// embedding into the vector store as one logical unit. The chunk text
// lands first: a chunk without an embedding is merely unindexed, an
// embedding without a chunk is an orphan.
func (m *Manager) IndexChunk(ctx context.Context, entry lexical.Entry, record vectorstore.Record) error {
	mu := m.stripe(entry.ChunkID)
	mu.Lock()
	defer mu.Unlock()

	if err := m.lex.Index(ctx, entry); err != nil {
		return fmt.Errorf("lexical index chunk %s: %w", entry.ChunkID, err)
	}

	if err := m.vectors.Upsert(ctx, record); err != nil {
		return fmt.Errorf("%w: chunk %s text indexed but embedding failed: %v",
			ErrPartialIndex, entry.ChunkID, err)
	}

	return nil
}

// DeleteChunk removes the chunk from both indexes. The embedding goes
// first so that no embedding references a missing chunk, even transiently
// under concurrent reads.
func (m *Manager) DeleteChunk(ctx context.Context, chunkID uuid.UUID) error {
	mu := m.stripe(chunkID)
	mu.Lock()
	defer mu.Unlock()

	if err := m.vectors.Delete(ctx, chunkID); err != nil {
		return fmt.Errorf("delete embedding for chunk %s: %w", chunkID, err)
	}

	if err := m.lex.Remove(ctx, chunkID); err != nil {
		return fmt.Errorf("%w: embedding deleted but chunk %s removal failed: %v",
			ErrPartialIndex, chunkID, err)
	}

	return nil
}

// DeleteDocument cascades over every chunk of the document, embeddings
// first.
func (m *Manager) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	if err := m.vectors.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete embeddings for document %s: %w", documentID, err)
	}

	if err := m.lex.RemoveByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("%w: embeddings deleted but chunks of document %s remain: %v",
			ErrPartialIndex, documentID, err)
	}

	m.logger.Info("document deindexed", "document_id", documentID)
	return nil
}

// DeleteCase cascades over every chunk of every document of the case.
func (m *Manager) DeleteCase(ctx context.Context, caseID uuid.UUID) error {
	if err := m.vectors.DeleteByCase(ctx, caseID); err != nil {
		return fmt.Errorf("delete embeddings for case %s: %w", caseID, err)
	}

	if err := m.lex.RemoveByCase(ctx, caseID); err != nil {
		return fmt.Errorf("%w: embeddings deleted but chunks of case %s remain: %v",
			ErrPartialIndex, caseID, err)
	}

	m.logger.Info("case deindexed", "case_id", caseID)
	return nil
}
