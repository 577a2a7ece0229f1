package lexical

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(docID, caseID uuid.UUID, text string) Entry {
	return Entry{
		ChunkID:    uuid.New(),
		DocumentID: docID,
		CaseID:     caseID,
		Text:       text,
	}
}

func TestMemoryIndexSearch(t *testing.T) {
	ix := NewMemoryIndex()
	docID, caseID := uuid.New(), uuid.New()

	locacao := entry(docID, caseID, "contrato de locação comercial inadimplido")
	despejo := entry(docID, caseID, "ação de despejo por falta de pagamento")
	compra := entry(docID, caseID, "contrato de compra e venda de imóvel")
	require.NoError(t, ix.IndexBatch(context.Background(), []Entry{locacao, despejo, compra}))

	t.Run("score is matched over total keywords", func(t *testing.T) {
		hits, err := ix.Search(context.Background(), []string{"contrato", "locação"}, 10)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, locacao.ChunkID, hits[0].ChunkID)
		assert.Equal(t, 1.0, hits[0].Score)
		assert.Equal(t, compra.ChunkID, hits[1].ChunkID)
		assert.Equal(t, 0.5, hits[1].Score)
	})

	t.Run("case-insensitive substring match", func(t *testing.T) {
		hits, err := ix.Search(context.Background(), []string{"DESPEJO"}, 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, despejo.ChunkID, hits[0].ChunkID)

		// substring containment, not whole words
		hits, err = ix.Search(context.Background(), []string{"pagament"}, 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
	})

	t.Run("no keywords yields empty result, not error", func(t *testing.T) {
		hits, err := ix.Search(context.Background(), nil, 10)
		assert.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("no matches yields empty result", func(t *testing.T) {
		hits, err := ix.Search(context.Background(), []string{"usucapião"}, 10)
		assert.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("limit truncates after ordering", func(t *testing.T) {
		hits, err := ix.Search(context.Background(), []string{"contrato", "locação"}, 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, locacao.ChunkID, hits[0].ChunkID)
	})

	t.Run("ties broken by chunk id", func(t *testing.T) {
		ix2 := NewMemoryIndex()
		a := entry(docID, caseID, "honorários advocatícios")
		b := entry(docID, caseID, "honorários periciais")
		require.NoError(t, ix2.IndexBatch(context.Background(), []Entry{a, b}))

		hits, err := ix2.Search(context.Background(), []string{"honorários"}, 10)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Less(t, hits[0].ChunkID.String(), hits[1].ChunkID.String())
	})
}

func TestMemoryIndexRemove(t *testing.T) {
	ix := NewMemoryIndex()
	caseID := uuid.New()
	docA, docB := uuid.New(), uuid.New()

	e1 := entry(docA, caseID, "ação de despejo")
	e2 := entry(docA, caseID, "despejo liminar")
	e3 := entry(docB, caseID, "despejo cumulado com cobrança")
	require.NoError(t, ix.IndexBatch(context.Background(), []Entry{e1, e2, e3}))

	t.Run("remove single chunk, idempotent", func(t *testing.T) {
		require.NoError(t, ix.Remove(context.Background(), e1.ChunkID))
		require.NoError(t, ix.Remove(context.Background(), e1.ChunkID))

		hits, err := ix.Search(context.Background(), []string{"despejo"}, 10)
		require.NoError(t, err)
		assert.Len(t, hits, 2)
	})

	t.Run("remove by document", func(t *testing.T) {
		require.NoError(t, ix.RemoveByDocument(context.Background(), docA))
		hits, err := ix.Search(context.Background(), []string{"despejo"}, 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, e3.ChunkID, hits[0].ChunkID)
	})

	t.Run("remove by case", func(t *testing.T) {
		require.NoError(t, ix.RemoveByCase(context.Background(), caseID))
		hits, err := ix.Search(context.Background(), []string{"despejo"}, 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestMemoryIndexReplacement(t *testing.T) {
	ix := NewMemoryIndex()
	e := entry(uuid.New(), uuid.New(), "texto original")
	require.NoError(t, ix.Index(context.Background(), e))

	e.Text = "texto substituído"
	require.NoError(t, ix.Index(context.Background(), e))

	hits, err := ix.Search(context.Background(), []string{"original"}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = ix.Search(context.Background(), []string{"substituído"}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}
