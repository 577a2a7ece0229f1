package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/rmenezes/jurisearch/internal/document"
	"github.com/rmenezes/jurisearch/internal/queue"
)

// PurgeWorker deletes documents or whole cases together with every
// chunk and embedding derived from them. Deletion is asynchronous so an
// index that is mid-write never races the API request.
type PurgeWorker struct {
	docSvc *document.Service
	cache  Invalidator
}

func NewPurgeWorker(docSvc *document.Service, cache Invalidator) *PurgeWorker {
	return &PurgeWorker{docSvc: docSvc, cache: cache}
}

func (w *PurgeWorker) ProcessDocumentPurge(ctx context.Context, t *asynq.Task) error {
	var payload queue.DocumentPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return fmt.Errorf("parse document ID: %w", err)
	}

	if err := w.docSvc.DeleteDocument(ctx, docID); err != nil {
		// an earlier attempt may already have removed the row
		if errors.Is(err, document.ErrNotFound) {
			slog.Info("document already purged", "document_id", docID)
			return nil
		}
		return fmt.Errorf("purge document %s: %w", docID, err)
	}

	w.invalidate(ctx)
	return nil
}

func (w *PurgeWorker) ProcessCasePurge(ctx context.Context, t *asynq.Task) error {
	var payload queue.CasePurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	caseID, err := uuid.Parse(payload.CaseID)
	if err != nil {
		return fmt.Errorf("parse case ID: %w", err)
	}

	if err := w.docSvc.DeleteCase(ctx, caseID); err != nil {
		if errors.Is(err, document.ErrNotFound) {
			slog.Info("case already purged", "case_id", caseID)
			return nil
		}
		return fmt.Errorf("purge case %s: %w", caseID, err)
	}

	w.invalidate(ctx)
	return nil
}

func (w *PurgeWorker) invalidate(ctx context.Context) {
	if w.cache == nil {
		return
	}
	if err := w.cache.Bump(ctx); err != nil {
		slog.Warn("search cache invalidation failed", "error", err)
	}
}
