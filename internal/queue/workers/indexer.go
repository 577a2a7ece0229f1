// Package workers holds the asynq task handlers for background
// indexing and purge jobs.
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/rmenezes/jurisearch/internal/document"
	"github.com/rmenezes/jurisearch/internal/ingest"
	"github.com/rmenezes/jurisearch/internal/models"
	"github.com/rmenezes/jurisearch/internal/queue"
)

// Invalidator drops derived search state after the indexes change.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// IndexWorker turns a stored document into searchable chunks.
type IndexWorker struct {
	docSvc   *document.Service
	pipeline *ingest.Pipeline
	cache    Invalidator
}

func NewIndexWorker(docSvc *document.Service, pipeline *ingest.Pipeline, cache Invalidator) *IndexWorker {
	return &IndexWorker{docSvc: docSvc, pipeline: pipeline, cache: cache}
}

func (w *IndexWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.DocumentIndexPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return fmt.Errorf("parse document ID: %w", err)
	}

	doc, err := w.docSvc.GetDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	slog.Info("indexing document", "document_id", docID, "case_id", doc.CaseID)

	chunks, err := w.pipeline.IndexDocument(ctx, *doc, payload.CaseNumber)
	if err != nil {
		if serr := w.docSvc.UpdateCaseStatus(ctx, doc.CaseID, models.CaseStatusError); serr != nil {
			slog.Error("mark case errored", "case_id", doc.CaseID, "error", serr)
		}
		return fmt.Errorf("index document %s: %w", docID, err)
	}

	if err := w.docSvc.MarkProcessed(ctx, docID); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	if err := w.docSvc.UpdateCaseStatus(ctx, doc.CaseID, models.CaseStatusIndexed); err != nil {
		return fmt.Errorf("mark case indexed: %w", err)
	}

	if w.cache != nil {
		if err := w.cache.Bump(ctx); err != nil {
			slog.Warn("search cache invalidation failed", "error", err)
		}
	}

	slog.Info("document indexed", "document_id", docID, "chunks", chunks)
	return nil
}
