package models

import (
	"time"

	"github.com/google/uuid"
)

// TextChunk is a bounded overlapping span of a document's text. StartChar
// and EndChar are rune offsets into the parent document.
type TextChunk struct {
	ID         uuid.UUID `json:"id" db:"id"`
	DocumentID uuid.UUID `json:"document_id" db:"document_id"`
	CaseID     uuid.UUID `json:"case_id" db:"case_id"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	ChunkText  string    `json:"chunk_text" db:"chunk_text"`
	StartChar  int       `json:"start_char" db:"start_char"`
	EndChar    int       `json:"end_char" db:"end_char"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Embedding is the vector representation of exactly one chunk. ChunkID is
// unique in storage; re-indexing replaces the row rather than adding one.
type Embedding struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CaseID    uuid.UUID `json:"case_id" db:"case_id"`
	ChunkID   uuid.UUID `json:"chunk_id" db:"chunk_id"`
	Vector    []float32 `json:"-" db:"embedding"`
	ModelName string    `json:"model_name" db:"model_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
