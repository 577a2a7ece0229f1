package lexical

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type memoryEntry struct {
	documentID uuid.UUID
	caseID     uuid.UUID
	lowerText  string
}

// MemoryIndex is an embedded Index holding lowercased chunk text under a
// read-write lock. Counterpart to the in-memory vector store.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*memoryEntry
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[uuid.UUID]*memoryEntry)}
}

func (ix *MemoryIndex) Index(ctx context.Context, entry Entry) error {
	return ix.IndexBatch(ctx, []Entry{entry})
}

func (ix *MemoryIndex) IndexBatch(ctx context.Context, entries []Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, e := range entries {
		ix.entries[e.ChunkID] = &memoryEntry{
			documentID: e.DocumentID,
			caseID:     e.CaseID,
			lowerText:  strings.ToLower(e.Text),
		}
	}
	return nil
}

func (ix *MemoryIndex) Remove(ctx context.Context, chunkID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.entries, chunkID)
	return nil
}

func (ix *MemoryIndex) RemoveByDocument(ctx context.Context, documentID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for id, e := range ix.entries {
		if e.documentID == documentID {
			delete(ix.entries, id)
		}
	}
	return nil
}

func (ix *MemoryIndex) RemoveByCase(ctx context.Context, caseID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for id, e := range ix.entries {
		if e.caseID == caseID {
			delete(ix.entries, id)
		}
	}
	return nil
}

func (ix *MemoryIndex) Search(ctx context.Context, keywords []string, limit int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}

	ix.mu.RLock()
	var hits []Hit
	for chunkID, e := range ix.entries {
		matched := 0
		for _, kw := range lowered {
			if kw != "" && strings.Contains(e.lowerText, kw) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		hits = append(hits, Hit{
			ChunkID: chunkID,
			CaseID:  e.caseID,
			Score:   float64(matched) / float64(len(keywords)),
		})
	}
	ix.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID.String() < hits[j].ChunkID.String()
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
