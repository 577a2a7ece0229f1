package models

import (
	"time"

	"github.com/google/uuid"
)

// Case is a legal matter identified by its CNJ case number. It owns its
// documents; deleting a case cascades through documents, chunks and
// embeddings.
type Case struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	CaseNumber   string     `json:"case_number" db:"case_number"`
	Court        string     `json:"court" db:"court"`
	CaseType     string     `json:"case_type,omitempty" db:"case_type"`
	Chamber      string     `json:"chamber,omitempty" db:"chamber"`
	Rapporteur   string     `json:"rapporteur,omitempty" db:"judge_rapporteur"`
	JudgmentDate *time.Time `json:"judgment_date,omitempty" db:"judgment_date"`
	Status       string     `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Document is one source text (an opinion, an acórdão) belonging to
// exactly one case.
type Document struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CaseID    uuid.UUID `json:"case_id" db:"case_id"`
	FullText  string    `json:"full_text" db:"full_text"`
	DocType   string    `json:"doc_type,omitempty" db:"doc_type"`
	Language  string    `json:"language" db:"language"`
	Processed bool      `json:"processed" db:"processed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

const (
	CaseStatusDownloaded = "downloaded"
	CaseStatusProcessed  = "processed"
	CaseStatusIndexed    = "indexed"
	CaseStatusError      = "error"
)
