package lexical

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgIndex keeps chunk text in the text_chunks table; inserting the chunk
// row is what makes a chunk lexically searchable.
type PgIndex struct {
	db *pgxpool.Pool
}

func NewPgIndex(db *pgxpool.Pool) *PgIndex {
	return &PgIndex{db: db}
}

func (ix *PgIndex) Index(ctx context.Context, entry Entry) error {
	return ix.IndexBatch(ctx, []Entry{entry})
}

func (ix *PgIndex) IndexBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := ix.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO text_chunks (id, document_id, case_id, chunk_index, chunk_text, start_char, end_char)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO UPDATE
			 SET chunk_text = EXCLUDED.chunk_text,
			     chunk_index = EXCLUDED.chunk_index,
			     start_char = EXCLUDED.start_char,
			     end_char = EXCLUDED.end_char`,
			e.ChunkID, e.DocumentID, e.CaseID, e.ChunkIndex, e.Text, e.StartChar, e.EndChar,
		)
		if err != nil {
			return fmt.Errorf("index chunk %s: %w", e.ChunkID, err)
		}
	}

	return tx.Commit(ctx)
}

func (ix *PgIndex) Remove(ctx context.Context, chunkID uuid.UUID) error {
	_, err := ix.db.Exec(ctx, "DELETE FROM text_chunks WHERE id = $1", chunkID)
	if err != nil {
		return fmt.Errorf("remove chunk: %w", err)
	}
	return nil
}

func (ix *PgIndex) RemoveByDocument(ctx context.Context, documentID uuid.UUID) error {
	_, err := ix.db.Exec(ctx, "DELETE FROM text_chunks WHERE document_id = $1", documentID)
	if err != nil {
		return fmt.Errorf("remove chunks by document: %w", err)
	}
	return nil
}

func (ix *PgIndex) RemoveByCase(ctx context.Context, caseID uuid.UUID) error {
	_, err := ix.db.Exec(ctx, "DELETE FROM text_chunks WHERE case_id = $1", caseID)
	if err != nil {
		return fmt.Errorf("remove chunks by case: %w", err)
	}
	return nil
}

func (ix *PgIndex) Search(ctx context.Context, keywords []string, limit int) ([]Hit, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	patterns := make([]string, len(keywords))
	for i, kw := range keywords {
		patterns[i] = "%" + escapeLike(kw) + "%"
	}

	rows, err := ix.db.Query(ctx,
		`SELECT tc.id, tc.case_id,
		        (SELECT count(*) FROM unnest($1::text[]) AS kw
		         WHERE tc.chunk_text ILIKE kw)::float8 / $2 AS score
		 FROM text_chunks tc
		 WHERE EXISTS (SELECT 1 FROM unnest($1::text[]) AS kw
		               WHERE tc.chunk_text ILIKE kw)
		 ORDER BY score DESC, tc.id
		 LIMIT $3`,
		patterns, len(keywords), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ChunkID, &h.CaseID, &h.Score); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("keyword search rows: %w", err)
	}
	return hits, nil
}

// escapeLike neutralizes LIKE metacharacters so keywords match literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
