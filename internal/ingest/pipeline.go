// Package ingest drives the indexing path: chunk a document, embed the
// chunk texts in batches, and write both indexes through the consistency
// manager under bounded parallelism.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/rmenezes/jurisearch/internal/consistency"
	"github.com/rmenezes/jurisearch/internal/embedding"
	"github.com/rmenezes/jurisearch/internal/lexical"
	"github.com/rmenezes/jurisearch/internal/models"
	"github.com/rmenezes/jurisearch/internal/vectorstore"
	"github.com/rmenezes/jurisearch/pkg/chunker"
)

// Pipeline turns documents into indexed chunks. Embedding latency
// dominates, so chunk texts are submitted to the model in batches; the
// resulting dual-index writes fan out over a shared worker pool.
type Pipeline struct {
	chunker    *chunker.Chunker
	producer   embedding.Producer
	manager    *consistency.Manager
	pool       *ants.Pool
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize bounds the index-write parallelism. Default is half the
// CPUs, minimum 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize bounds how many chunk texts go into one model call.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("batch size must be positive, got %d", n)
		}
		p.batchSize = n
		return nil
	}
}

// WithRetry sets the attempt count and initial backoff for transient
// embedding failures.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(p *Pipeline) error {
		if attempts < 0 {
			attempts = 0
		}
		p.maxRetries = attempts
		p.retryDelay = delay
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

func NewPipeline(ck *chunker.Chunker, producer embedding.Producer, manager *consistency.Manager, opts ...Option) (*Pipeline, error) {
	if ck == nil {
		return nil, errors.New("ingest: chunker required")
	}
	if producer == nil {
		return nil, errors.New("ingest: embedding producer required")
	}
	if manager == nil {
		return nil, errors.New("ingest: consistency manager required")
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chunker:    ck,
		producer:   producer,
		manager:    manager,
		pool:       pool,
		batchSize:  32,
		maxRetries: 3,
		retryDelay: 500 * time.Millisecond,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}
	return p, nil
}

// Release frees the worker pool.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// IndexDocument chunks and indexes one document, returning the number of
// chunks indexed. Batches are embedded and committed one at a time: a
// cancelled or failed batch commits none of its chunks, while previously
// committed batches stay indexed and are safe to re-run (upserts are
// keyed by chunk identity).
func (p *Pipeline) IndexDocument(ctx context.Context, doc models.Document, caseNumber string) (int, error) {
	chunks := p.chunker.Split(doc.FullText, chunker.Provenance{
		DocumentID: doc.ID,
		CaseID:     doc.CaseID,
		CaseNumber: caseNumber,
	})
	if len(chunks) == 0 {
		return 0, nil
	}

	indexed := 0
	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if err := p.indexBatch(ctx, batch); err != nil {
			return indexed, fmt.Errorf("index batch %d of document %s: %w",
				start/p.batchSize, doc.ID, err)
		}
		indexed += len(batch)
	}

	p.logger.Info("document indexed",
		"document_id", doc.ID, "case_id", doc.CaseID, "chunks", indexed,
		"model", p.producer.ModelName())
	return indexed, nil
}

func (p *Pipeline) indexBatch(ctx context.Context, batch []chunker.Chunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	vectors, err := p.embedWithRetry(ctx, texts)
	if err != nil {
		return err
	}

	// Nothing commits once the caller has given up.
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i := range batch {
		c, vec := batch[i], vectors[i]
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			err := p.manager.IndexChunk(ctx,
				lexical.Entry{
					ChunkID:    c.ID,
					DocumentID: c.DocumentID,
					CaseID:     c.CaseID,
					ChunkIndex: c.Index,
					Text:       c.Text,
					StartChar:  c.Start,
					EndChar:    c.End,
				},
				vectorstore.Record{
					CaseID:     c.CaseID,
					DocumentID: c.DocumentID,
					ChunkID:    c.ID,
					Vector:     vec,
					ModelName:  p.producer.ModelName(),
				},
			)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			return fmt.Errorf("submit index task: %w", submitErr)
		}
	}
	wg.Wait()

	return firstErr
}

// embedWithRetry retries transient failures with exponential backoff.
// Caller errors and a dead context are returned immediately.
func (p *Pipeline) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	delay := p.retryDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Warn("retrying embedding batch",
				"attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		vectors, err := p.producer.Embed(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, lastErr
		}
		if !transient(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("embedding batch failed after %d attempts: %w", p.maxRetries+1, lastErr)
}

func transient(err error) bool {
	return errors.Is(err, embedding.ErrModelUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
