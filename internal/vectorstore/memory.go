package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	embeddingID uuid.UUID
	caseID      uuid.UUID
	documentID  uuid.UUID
	vector      []float32
	modelName   string
	createdAt   time.Time
}

// MemoryStore is an embedded Store using exhaustive cosine scoring under
// a read-write lock: reads run concurrently, index mutation takes the
// write lock for the minimum critical section. Suited to tests and
// single-node deployments without Postgres.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	entries   map[uuid.UUID]*memoryEntry // keyed by chunk id
}

func NewMemoryStore(dimension int) (*MemoryStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("vectorstore: dimension must be positive, got %d", dimension)
	}
	return &MemoryStore{
		dimension: dimension,
		entries:   make(map[uuid.UUID]*memoryEntry),
	}, nil
}

func (s *MemoryStore) Dimension() int { return s.dimension }

func (s *MemoryStore) Upsert(ctx context.Context, record Record) error {
	return s.UpsertBatch(ctx, []Record{record})
}

func (s *MemoryStore) UpsertBatch(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, r := range records {
		if len(r.Vector) != s.dimension {
			return fmt.Errorf("%w: chunk %s has %d dims, store wants %d",
				ErrDimensionMismatch, r.ChunkID, len(r.Vector), s.dimension)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)

		// Replacement keeps the original embedding row identity.
		id := r.ID
		if prev, ok := s.entries[r.ChunkID]; ok {
			id = prev.embeddingID
		} else if id == uuid.Nil {
			id = uuid.New()
		}

		s.entries[r.ChunkID] = &memoryEntry{
			embeddingID: id,
			caseID:      r.CaseID,
			documentID:  r.DocumentID,
			vector:      vec,
			modelName:   r.ModelName,
			createdAt:   time.Now().UTC(),
		}
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, chunkID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, chunkID)
	return nil
}

func (s *MemoryStore) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for chunkID, e := range s.entries {
		if e.documentID == documentID {
			delete(s.entries, chunkID)
		}
	}
	return nil
}

func (s *MemoryStore) DeleteByCase(ctx context.Context, caseID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for chunkID, e := range s.entries {
		if e.caseID == caseID {
			delete(s.entries, chunkID)
		}
	}
	return nil
}

func (s *MemoryStore) SearchSimilar(ctx context.Context, vector []float32, limit int, minSimilarity float64) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dims, store wants %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}
	if limit <= 0 {
		limit = 10
	}

	s.mu.RLock()
	matches := make([]Match, 0, len(s.entries))
	for chunkID, e := range s.entries {
		sim := cosine(vector, e.vector)
		if sim < minSimilarity {
			continue
		}
		matches = append(matches, Match{
			EmbeddingID: e.embeddingID,
			CaseID:      e.caseID,
			ChunkID:     chunkID,
			Similarity:  sim,
		})
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return strings.Compare(matches[i].ChunkID.String(), matches[j].ChunkID.String()) < 0
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &Stats{
		TotalEmbeddings: int64(len(s.entries)),
		DistinctChunks:  int64(len(s.entries)),
		Dimension:       s.dimension,
	}

	cases := make(map[uuid.UUID]bool)
	for _, e := range s.entries {
		cases[e.caseID] = true
		t := e.createdAt
		if st.OldestCreatedAt == nil || t.Before(*st.OldestCreatedAt) {
			tt := t
			st.OldestCreatedAt = &tt
		}
		if st.NewestCreatedAt == nil || t.After(*st.NewestCreatedAt) {
			tt := t
			st.NewestCreatedAt = &tt
		}
	}
	st.DistinctCases = int64(len(cases))
	return st, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
