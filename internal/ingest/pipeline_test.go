package ingest

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmenezes/jurisearch/internal/consistency"
	"github.com/rmenezes/jurisearch/internal/embedding"
	"github.com/rmenezes/jurisearch/internal/lexical"
	"github.com/rmenezes/jurisearch/internal/models"
	"github.com/rmenezes/jurisearch/internal/vectorstore"
	"github.com/rmenezes/jurisearch/pkg/chunker"
)

// hashProducer derives a deterministic 3-dim vector from the text, so
// identical chunk text always embeds identically.
type hashProducer struct {
	calls    int
	failures int    // fail the first N calls
	failWith error  // error to fail with
	onCall   func() // invoked before each call
}

func (h *hashProducer) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	h.calls++
	if h.onCall != nil {
		h.onCall()
	}
	if h.failures > 0 {
		h.failures--
		return nil, h.failWith
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, embedding.ErrEmptyInput
		}
		hash := fnv.New32a()
		hash.Write([]byte(t))
		s := hash.Sum32()
		out[i] = embedding.Normalize([]float32{
			float32(s%101) + 1,
			float32(s%53) + 1,
			float32(s%29) + 1,
		})
	}
	return out, nil
}

func (h *hashProducer) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := h.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (h *hashProducer) ModelName() string { return "hash-v1" }
func (h *hashProducer) Dimension() int    { return 3 }

func testPipeline(t *testing.T, producer embedding.Producer, opts ...Option) (*Pipeline, *vectorstore.MemoryStore, *lexical.MemoryIndex) {
	t.Helper()
	store, err := vectorstore.NewMemoryStore(3)
	require.NoError(t, err)
	ix := lexical.NewMemoryIndex()
	manager := consistency.NewManager(store, ix, nil)

	ck, err := chunker.New(50, 10)
	require.NoError(t, err)

	opts = append([]Option{WithRetry(2, time.Millisecond), WithBatchSize(4)}, opts...)
	p, err := NewPipeline(ck, producer, manager, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p, store, ix
}

func testDoc() models.Document {
	return models.Document{
		ID:       uuid.New(),
		CaseID:   uuid.New(),
		FullText: strings.Repeat("ação de despejo por falta de pagamento de aluguel ", 20),
	}
}

func TestIndexDocument(t *testing.T) {
	producer := &hashProducer{}
	p, store, ix := testPipeline(t, producer)

	doc := testDoc()
	n, err := p.IndexDocument(context.Background(), doc, "0001234-06.2020.8.26.0100")
	require.NoError(t, err)
	require.True(t, n > 4, "expected several batches, got %d chunks", n)

	st, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, n, st.TotalEmbeddings)

	hits, err := ix.Search(context.Background(), []string{"aluguel"}, n*2)
	require.NoError(t, err)
	assert.Len(t, hits, n)

	t.Run("rerun yields the same chunk count", func(t *testing.T) {
		n2, err := p.IndexDocument(context.Background(), doc, "0001234-06.2020.8.26.0100")
		require.NoError(t, err)
		assert.Equal(t, n, n2)
	})
}

func TestIndexDocumentEmptyText(t *testing.T) {
	p, store, _ := testPipeline(t, &hashProducer{})

	n, err := p.IndexDocument(context.Background(), models.Document{ID: uuid.New(), CaseID: uuid.New()}, "")
	require.NoError(t, err)
	assert.Zero(t, n)

	st, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, st.TotalEmbeddings)
}

func TestTransientFailuresAreRetried(t *testing.T) {
	producer := &hashProducer{failures: 2, failWith: embedding.ErrModelUnavailable}
	p, store, _ := testPipeline(t, producer)

	doc := models.Document{ID: uuid.New(), CaseID: uuid.New(), FullText: "texto curto"}
	n, err := p.IndexDocument(context.Background(), doc, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, producer.calls)

	st, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.TotalEmbeddings)
}

func TestTransientFailuresExhaustRetries(t *testing.T) {
	producer := &hashProducer{failures: 10, failWith: embedding.ErrModelUnavailable}
	p, store, _ := testPipeline(t, producer)

	doc := models.Document{ID: uuid.New(), CaseID: uuid.New(), FullText: "texto curto"}
	_, err := p.IndexDocument(context.Background(), doc, "")
	assert.ErrorIs(t, err, embedding.ErrModelUnavailable)
	assert.Equal(t, 3, producer.calls) // 1 + 2 retries

	st, serr := store.Stats(context.Background())
	require.NoError(t, serr)
	assert.EqualValues(t, 0, st.TotalEmbeddings)
}

func TestCallerErrorsAreNotRetried(t *testing.T) {
	producer := &hashProducer{failures: 1, failWith: embedding.ErrEmptyInput}
	p, _, _ := testPipeline(t, producer)

	doc := models.Document{ID: uuid.New(), CaseID: uuid.New(), FullText: "texto"}
	_, err := p.IndexDocument(context.Background(), doc, "")
	assert.ErrorIs(t, err, embedding.ErrEmptyInput)
	assert.Equal(t, 1, producer.calls)
}

// A batch whose context is cancelled mid-embedding must commit nothing.
func TestCancelledBatchCommitsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	producer := &hashProducer{onCall: cancel}
	p, store, ix := testPipeline(t, producer)

	doc := models.Document{ID: uuid.New(), CaseID: uuid.New(), FullText: "texto curto"}
	_, err := p.IndexDocument(ctx, doc, "")
	assert.ErrorIs(t, err, context.Canceled)

	st, serr := store.Stats(context.Background())
	require.NoError(t, serr)
	assert.EqualValues(t, 0, st.TotalEmbeddings)

	hits, herr := ix.Search(context.Background(), []string{"texto"}, 5)
	require.NoError(t, herr)
	assert.Empty(t, hits)
}

// When the vector store write fails after the chunk text landed, the
// partial write must surface for retry, never pass silently.
func TestPartialIndexSurfaces(t *testing.T) {
	store, err := vectorstore.NewMemoryStore(2) // wrong width on purpose
	require.NoError(t, err)
	ix := lexical.NewMemoryIndex()
	manager := consistency.NewManager(store, ix, nil)

	ck, err := chunker.New(50, 10)
	require.NoError(t, err)
	p, err := NewPipeline(ck, &hashProducer{}, manager, WithRetry(0, time.Millisecond))
	require.NoError(t, err)
	defer p.Release()

	doc := models.Document{ID: uuid.New(), CaseID: uuid.New(), FullText: "texto curto"}
	_, err = p.IndexDocument(context.Background(), doc, "")
	assert.ErrorIs(t, err, consistency.ErrPartialIndex)
}

func TestNewPipelineValidation(t *testing.T) {
	ck, err := chunker.New(50, 10)
	require.NoError(t, err)
	store, err := vectorstore.NewMemoryStore(3)
	require.NoError(t, err)
	manager := consistency.NewManager(store, lexical.NewMemoryIndex(), nil)

	t.Run("missing collaborators", func(t *testing.T) {
		_, err := NewPipeline(nil, &hashProducer{}, manager)
		assert.Error(t, err)
		_, err = NewPipeline(ck, nil, manager)
		assert.Error(t, err)
		_, err = NewPipeline(ck, &hashProducer{}, nil)
		assert.Error(t, err)
	})

	t.Run("invalid batch size", func(t *testing.T) {
		_, err := NewPipeline(ck, &hashProducer{}, manager, WithBatchSize(0))
		assert.Error(t, err)
	})
}
