package vectorstore

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(caseID, docID uuid.UUID, vec []float32) Record {
	return Record{
		CaseID:     caseID,
		DocumentID: docID,
		ChunkID:    uuid.New(),
		Vector:     vec,
		ModelName:  "all-MiniLM-L6-v2",
	}
}

func TestMemoryStoreUpsert(t *testing.T) {
	s, err := NewMemoryStore(3)
	require.NoError(t, err)

	caseID, docID := uuid.New(), uuid.New()

	t.Run("dimension mismatch rejected", func(t *testing.T) {
		err := s.Upsert(context.Background(), record(caseID, docID, []float32{1, 0}))
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("idempotent replacement keeps one embedding", func(t *testing.T) {
		r := record(caseID, docID, []float32{1, 0, 0})
		require.NoError(t, s.Upsert(context.Background(), r))
		require.NoError(t, s.Upsert(context.Background(), r))

		st, err := s.Stats(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 1, st.TotalEmbeddings)

		matches, err := s.SearchSimilar(context.Background(), []float32{1, 0, 0}, 10, 0)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, r.ChunkID, matches[0].ChunkID)
	})

	t.Run("reindex with new model replaces, not duplicates", func(t *testing.T) {
		s2, err := NewMemoryStore(3)
		require.NoError(t, err)

		r := record(caseID, docID, []float32{1, 0, 0})
		require.NoError(t, s2.Upsert(context.Background(), r))

		first, err := s2.SearchSimilar(context.Background(), []float32{1, 0, 0}, 1, 0)
		require.NoError(t, err)

		r.Vector = []float32{0, 1, 0}
		r.ModelName = "text-embedding-3-small"
		require.NoError(t, s2.Upsert(context.Background(), r))

		st, err := s2.Stats(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 1, st.TotalEmbeddings)

		second, err := s2.SearchSimilar(context.Background(), []float32{0, 1, 0}, 1, 0)
		require.NoError(t, err)
		require.Len(t, second, 1)
		// replacement preserves the embedding row identity
		assert.Equal(t, first[0].EmbeddingID, second[0].EmbeddingID)
	})
}

func TestMemoryStoreSearch(t *testing.T) {
	s, err := NewMemoryStore(3)
	require.NoError(t, err)

	caseID, docID := uuid.New(), uuid.New()
	exact := record(caseID, docID, []float32{1, 0, 0})
	near := record(caseID, docID, []float32{0.9, 0.1, 0})
	far := record(caseID, docID, []float32{0, 0, 1})
	require.NoError(t, s.UpsertBatch(context.Background(), []Record{far, near, exact}))

	t.Run("round trip returns the chunk itself first", func(t *testing.T) {
		matches, err := s.SearchSimilar(context.Background(), []float32{1, 0, 0}, 10, 0)
		require.NoError(t, err)
		require.NotEmpty(t, matches)
		assert.Equal(t, exact.ChunkID, matches[0].ChunkID)
		assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
	})

	t.Run("descending similarity order", func(t *testing.T) {
		matches, err := s.SearchSimilar(context.Background(), []float32{1, 0, 0}, 10, 0)
		require.NoError(t, err)
		for i := 1; i < len(matches); i++ {
			assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
		}
	})

	t.Run("min similarity excludes distant chunks", func(t *testing.T) {
		matches, err := s.SearchSimilar(context.Background(), []float32{1, 0, 0}, 10, 0.5)
		require.NoError(t, err)
		for _, m := range matches {
			assert.GreaterOrEqual(t, m.Similarity, 0.5)
			assert.NotEqual(t, far.ChunkID, m.ChunkID)
		}
	})

	t.Run("limit truncates", func(t *testing.T) {
		matches, err := s.SearchSimilar(context.Background(), []float32{1, 0, 0}, 2, 0)
		require.NoError(t, err)
		assert.Len(t, matches, 2)
	})

	t.Run("ties broken by chunk id", func(t *testing.T) {
		s2, err := NewMemoryStore(3)
		require.NoError(t, err)
		a := record(caseID, docID, []float32{1, 0, 0})
		b := record(caseID, docID, []float32{1, 0, 0})
		require.NoError(t, s2.UpsertBatch(context.Background(), []Record{a, b}))

		first, err := s2.SearchSimilar(context.Background(), []float32{1, 0, 0}, 10, 0)
		require.NoError(t, err)
		second, err := s2.SearchSimilar(context.Background(), []float32{1, 0, 0}, 10, 0)
		require.NoError(t, err)
		require.Len(t, first, 2)
		assert.Equal(t, first[0].ChunkID, second[0].ChunkID)
		assert.Less(t, first[0].ChunkID.String(), first[1].ChunkID.String())
	})

	t.Run("empty store yields empty result, not error", func(t *testing.T) {
		s2, err := NewMemoryStore(3)
		require.NoError(t, err)
		matches, err := s2.SearchSimilar(context.Background(), []float32{1, 0, 0}, 5, 0.9)
		assert.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("query dimension mismatch", func(t *testing.T) {
		_, err := s.SearchSimilar(context.Background(), []float32{1, 0}, 5, 0)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestMemoryStoreDelete(t *testing.T) {
	s, err := NewMemoryStore(3)
	require.NoError(t, err)

	caseID, docID := uuid.New(), uuid.New()
	r := record(caseID, docID, []float32{1, 0, 0})
	require.NoError(t, s.Upsert(context.Background(), r))

	t.Run("delete removes the embedding", func(t *testing.T) {
		require.NoError(t, s.Delete(context.Background(), r.ChunkID))
		matches, err := s.SearchSimilar(context.Background(), []float32{1, 0, 0}, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("delete of absent chunk is a no-op", func(t *testing.T) {
		assert.NoError(t, s.Delete(context.Background(), uuid.New()))
		assert.NoError(t, s.Delete(context.Background(), r.ChunkID))
	})

	t.Run("delete by document and by case", func(t *testing.T) {
		otherDoc := record(caseID, uuid.New(), []float32{0, 1, 0})
		sameDoc := record(caseID, docID, []float32{0, 0, 1})
		require.NoError(t, s.UpsertBatch(context.Background(), []Record{otherDoc, sameDoc}))

		require.NoError(t, s.DeleteByDocument(context.Background(), docID))
		matches, err := s.SearchSimilar(context.Background(), []float32{0, 0, 1}, 10, 0)
		require.NoError(t, err)
		for _, m := range matches {
			assert.NotEqual(t, sameDoc.ChunkID, m.ChunkID)
		}

		require.NoError(t, s.DeleteByCase(context.Background(), caseID))
		st, err := s.Stats(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 0, st.TotalEmbeddings)
	})
}

func TestMemoryStoreConcurrentReadsAndWrites(t *testing.T) {
	s, err := NewMemoryStore(3)
	require.NoError(t, err)
	caseID, docID := uuid.New(), uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.Upsert(context.Background(), record(caseID, docID, []float32{1, 0, 0}))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = s.SearchSimilar(context.Background(), []float32{1, 0, 0}, 5, 0)
			}
		}()
	}
	wg.Wait()
}

func TestMemoryStoreStats(t *testing.T) {
	s, err := NewMemoryStore(3)
	require.NoError(t, err)

	t.Run("empty store", func(t *testing.T) {
		st, err := s.Stats(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 0, st.TotalEmbeddings)
		assert.Nil(t, st.OldestCreatedAt)
		assert.Equal(t, 3, st.Dimension)
	})

	t.Run("counts distinct cases", func(t *testing.T) {
		caseA, caseB, docID := uuid.New(), uuid.New(), uuid.New()
		require.NoError(t, s.UpsertBatch(context.Background(), []Record{
			record(caseA, docID, []float32{1, 0, 0}),
			record(caseA, docID, []float32{0, 1, 0}),
			record(caseB, docID, []float32{0, 0, 1}),
		}))

		st, err := s.Stats(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 3, st.TotalEmbeddings)
		assert.EqualValues(t, 3, st.DistinctChunks)
		assert.EqualValues(t, 2, st.DistinctCases)
		assert.NotNil(t, st.OldestCreatedAt)
		assert.NotNil(t, st.NewestCreatedAt)
	})
}
