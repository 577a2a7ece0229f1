package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DefaultSearchBreadth is the HNSW ef_search applied per query. Recall
// improves monotonically as it grows, at the cost of latency.
const DefaultSearchBreadth = 64

// PgStore is the production Store backed by Postgres + pgvector with an
// HNSW index over the embedding column.
type PgStore struct {
	db        *pgxpool.Pool
	dimension int
	breadth   int
}

type PgOption func(*PgStore)

// WithSearchBreadth tunes the per-query HNSW ef_search.
func WithSearchBreadth(ef int) PgOption {
	return func(s *PgStore) {
		if ef > 0 {
			s.breadth = ef
		}
	}
}

func NewPgStore(db *pgxpool.Pool, dimension int, opts ...PgOption) (*PgStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("vectorstore: dimension must be positive, got %d", dimension)
	}
	s := &PgStore{db: db, dimension: dimension, breadth: DefaultSearchBreadth}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *PgStore) Dimension() int { return s.dimension }

func (s *PgStore) Upsert(ctx context.Context, record Record) error {
	return s.UpsertBatch(ctx, []Record{record})
}

func (s *PgStore) UpsertBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if len(r.Vector) != s.dimension {
			return fmt.Errorf("%w: chunk %s has %d dims, store wants %d",
				ErrDimensionMismatch, r.ChunkID, len(r.Vector), s.dimension)
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		id := r.ID
		if id == uuid.Nil {
			id = uuid.New()
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO embeddings_vector (id, case_id, chunk_id, embedding, model_name)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (chunk_id) DO UPDATE
			 SET embedding = EXCLUDED.embedding,
			     model_name = EXCLUDED.model_name,
			     created_at = now()`,
			id, r.CaseID, r.ChunkID, pgvector.NewVector(r.Vector), r.ModelName,
		)
		if err != nil {
			return fmt.Errorf("upsert embedding for chunk %s: %w", r.ChunkID, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PgStore) Delete(ctx context.Context, chunkID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		"DELETE FROM embeddings_vector WHERE chunk_id = $1", chunkID)
	if err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}
	return nil
}

func (s *PgStore) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM embeddings_vector
		 WHERE chunk_id IN (SELECT id FROM text_chunks WHERE document_id = $1)`,
		documentID)
	if err != nil {
		return fmt.Errorf("delete embeddings by document: %w", err)
	}
	return nil
}

func (s *PgStore) DeleteByCase(ctx context.Context, caseID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		"DELETE FROM embeddings_vector WHERE case_id = $1", caseID)
	if err != nil {
		return fmt.Errorf("delete embeddings by case: %w", err)
	}
	return nil
}

func (s *PgStore) SearchSimilar(ctx context.Context, vector []float32, limit int, minSimilarity float64) ([]Match, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dims, store wants %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}
	if limit <= 0 {
		limit = 10
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// SET LOCAL takes no bind parameters; breadth is validated int config.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", s.breadth)); err != nil {
		return nil, fmt.Errorf("set search breadth: %w", err)
	}

	rows, err := tx.Query(ctx,
		`SELECT id, case_id, chunk_id, 1 - (embedding <=> $1) AS similarity
		 FROM embeddings_vector
		 ORDER BY embedding <=> $1, chunk_id
		 LIMIT $2`,
		pgvector.NewVector(vector), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.EmbeddingID, &m.CaseID, &m.ChunkID, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if m.Similarity < minSimilarity {
			continue
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similarity search rows: %w", err)
	}

	return matches, tx.Commit(ctx)
}

func (s *PgStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Dimension: s.dimension}
	err := s.db.QueryRow(ctx,
		`SELECT total_embeddings, distinct_cases, distinct_chunks,
		        oldest_created_at, newest_created_at
		 FROM embedding_statistics`,
	).Scan(&st.TotalEmbeddings, &st.DistinctCases, &st.DistinctChunks,
		&st.OldestCreatedAt, &st.NewestCreatedAt)
	if err != nil {
		return nil, fmt.Errorf("embedding statistics: %w", err)
	}
	return st, nil
}
