// Package document manages cases and their source documents: the
// relational side of the platform, upstream of chunking and indexing.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rmenezes/jurisearch/internal/consistency"
	"github.com/rmenezes/jurisearch/internal/models"
	"github.com/rmenezes/jurisearch/pkg/cnj"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidCaseNumber = errors.New("invalid case number")
	ErrDuplicateCase     = errors.New("case number already registered")
)

type Service struct {
	db      *pgxpool.Pool
	manager *consistency.Manager
	logger  *slog.Logger
}

func NewService(db *pgxpool.Pool, manager *consistency.Manager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, manager: manager, logger: logger}
}

type CreateCaseRequest struct {
	CaseNumber string `json:"case_number"`
	Court      string `json:"court"`
	CaseType   string `json:"case_type,omitempty"`
	Chamber    string `json:"chamber,omitempty"`
	Rapporteur string `json:"rapporteur,omitempty"`
}

func (s *Service) CreateCase(ctx context.Context, req CreateCaseRequest) (*models.Case, error) {
	number, err := cnj.Parse(req.CaseNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCaseNumber, err)
	}
	if err := number.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCaseNumber, err)
	}

	court := req.Court
	if court == "" {
		court = number.SegmentName()
	}

	var c models.Case
	err = s.db.QueryRow(ctx,
		`INSERT INTO cases (id, case_number, court, case_type, chamber, judge_rapporteur, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (case_number) DO NOTHING
		 RETURNING id, case_number, court, case_type, chamber, judge_rapporteur, judgment_date, status, created_at, updated_at`,
		uuid.New(), number.String(), court, req.CaseType, req.Chamber, req.Rapporteur, models.CaseStatusDownloaded,
	).Scan(&c.ID, &c.CaseNumber, &c.Court, &c.CaseType, &c.Chamber, &c.Rapporteur,
		&c.JudgmentDate, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCase, number)
	}
	if err != nil {
		return nil, fmt.Errorf("insert case: %w", err)
	}
	return &c, nil
}

const caseColumns = `id, case_number, court, case_type, chamber, judge_rapporteur, judgment_date, status, created_at, updated_at`

func (s *Service) GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	var c models.Case
	err := s.db.QueryRow(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1`, id,
	).Scan(&c.ID, &c.CaseNumber, &c.Court, &c.CaseType, &c.Chamber, &c.Rapporteur,
		&c.JudgmentDate, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	return &c, nil
}

func (s *Service) GetCaseByNumber(ctx context.Context, caseNumber string) (*models.Case, error) {
	number, err := cnj.Parse(caseNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCaseNumber, err)
	}
	if err := number.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCaseNumber, err)
	}

	var c models.Case
	err = s.db.QueryRow(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE case_number = $1`, number.String(),
	).Scan(&c.ID, &c.CaseNumber, &c.Court, &c.CaseType, &c.Chamber, &c.Rapporteur,
		&c.JudgmentDate, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("case %s: %w", number, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get case by number: %w", err)
	}
	return &c, nil
}

func (s *Service) ListCases(ctx context.Context, limit, offset int) ([]models.Case, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+caseColumns+` FROM cases ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var cases []models.Case
	for rows.Next() {
		var c models.Case
		if err := rows.Scan(&c.ID, &c.CaseNumber, &c.Court, &c.CaseType, &c.Chamber, &c.Rapporteur,
			&c.JudgmentDate, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func (s *Service) UpdateCaseStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE cases SET status = $1, updated_at = now() WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("update case status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteCase removes the case and everything derived from it. Both
// search indexes are cleared before the relational rows go away, so a
// failure midway leaves rows that a retry can still resolve.
func (s *Service) DeleteCase(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetCase(ctx, id); err != nil {
		return err
	}

	if err := s.manager.DeleteCase(ctx, id); err != nil {
		return fmt.Errorf("clear indexes for case %s: %w", id, err)
	}

	if _, err := s.db.Exec(ctx, "DELETE FROM cases WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete case: %w", err)
	}

	s.logger.Info("case deleted", "case_id", id)
	return nil
}

type CreateDocumentRequest struct {
	CaseID   uuid.UUID `json:"case_id"`
	FullText string    `json:"full_text"`
	DocType  string    `json:"doc_type,omitempty"`
	Language string    `json:"language,omitempty"`
}

func (s *Service) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*models.Document, error) {
	if _, err := s.GetCase(ctx, req.CaseID); err != nil {
		return nil, err
	}

	lang := req.Language
	if lang == "" {
		lang = "pt-BR"
	}

	var d models.Document
	err := s.db.QueryRow(ctx,
		`INSERT INTO documents (id, case_id, full_text, doc_type, language)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, case_id, full_text, doc_type, language, processed, created_at, updated_at`,
		uuid.New(), req.CaseID, req.FullText, req.DocType, lang,
	).Scan(&d.ID, &d.CaseID, &d.FullText, &d.DocType, &d.Language, &d.Processed, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return &d, nil
}

const documentColumns = `id, case_id, full_text, doc_type, language, processed, created_at, updated_at`

func (s *Service) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var d models.Document
	err := s.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id,
	).Scan(&d.ID, &d.CaseID, &d.FullText, &d.DocType, &d.Language, &d.Processed, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

func (s *Service) ListDocuments(ctx context.Context, caseID uuid.UUID, limit, offset int) ([]models.Document, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE case_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		caseID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.CaseID, &d.FullText, &d.DocType, &d.Language,
			&d.Processed, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *Service) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE documents SET processed = true, updated_at = now() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("mark document processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteDocument removes the document and its chunks from both search
// indexes, then drops the relational row.
func (s *Service) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetDocument(ctx, id); err != nil {
		return err
	}

	if err := s.manager.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("clear indexes for document %s: %w", id, err)
	}

	if _, err := s.db.Exec(ctx, "DELETE FROM documents WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	s.logger.Info("document deleted", "document_id", id)
	return nil
}
