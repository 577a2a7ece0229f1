// Package search fuses semantic (vector) and lexical (keyword) retrieval
// into one ranked result set.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rmenezes/jurisearch/internal/embedding"
	"github.com/rmenezes/jurisearch/internal/lexical"
	"github.com/rmenezes/jurisearch/internal/vectorstore"
	"github.com/rmenezes/jurisearch/pkg/tokenizer"
)

// DefaultSemanticWeight follows the platform's stock 70/30 fusion.
const DefaultSemanticWeight = 0.7

// ErrInvalidWeight reports a semantic weight outside [0,1].
var ErrInvalidWeight = errors.New("semantic weight outside [0,1]")

// Request is one hybrid query. Keywords may be left nil to derive them
// from the query text. SemanticWeight nil means the default; 0 degrades
// to pure keyword search, 1 to pure semantic search.
type Request struct {
	Query          string   `json:"query"`
	Keywords       []string `json:"keywords,omitempty"`
	Limit          int      `json:"limit,omitempty"`
	SemanticWeight *float64 `json:"semantic_weight,omitempty"`
	MinSimilarity  float64  `json:"min_similarity,omitempty"`
}

// Result is one ranked candidate with its constituent scores exposed for
// caller transparency. A score of 0 means the candidate was absent from
// that leg's pool.
type Result struct {
	ChunkID       uuid.UUID `json:"chunk_id"`
	CaseID        uuid.UUID `json:"case_id"`
	SemanticScore float64   `json:"semantic_score"`
	KeywordScore  float64   `json:"keyword_score"`
	FinalScore    float64   `json:"final_score"`
}

// Response carries the fused ranking. Degraded is set when the semantic
// leg failed transiently and only lexical scores contributed.
type Response struct {
	Results  []Result `json:"results"`
	Degraded bool     `json:"degraded,omitempty"`
}

// Engine issues both sub-queries concurrently and fuses the candidate
// pools. Each leg over-fetches 2x the requested limit so that pool
// non-overlap does not starve the final truncation.
type Engine struct {
	producer      embedding.Producer
	vectors       vectorstore.Store
	lex           lexical.Index
	logger        *slog.Logger
	defaultWeight float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultWeight sets the semantic weight applied to requests that
// omit one. Values outside [0,1] are ignored.
func WithDefaultWeight(w float64) Option {
	return func(e *Engine) {
		if w >= 0 && w <= 1 {
			e.defaultWeight = w
		}
	}
}

func NewEngine(producer embedding.Producer, vectors vectorstore.Store, lex lexical.Index, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		producer:      producer,
		vectors:       vectors,
		lex:           lex,
		logger:        logger,
		defaultWeight: DefaultSemanticWeight,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	weight := e.defaultWeight
	if req.SemanticWeight != nil {
		weight = *req.SemanticWeight
	}
	if weight < 0 || weight > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWeight, weight)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	fetch := limit * 2

	query := strings.TrimSpace(req.Query)
	if weight > 0 && query == "" {
		return nil, fmt.Errorf("embed query: %w", embedding.ErrEmptyInput)
	}

	keywords := req.Keywords
	if keywords == nil {
		keywords = tokenizer.Keywords(query)
	}

	var (
		matches     []vectorstore.Match
		hits        []lexical.Hit
		semanticErr error
	)

	g, gctx := errgroup.WithContext(ctx)

	if weight > 0 {
		g.Go(func() error {
			vec, err := e.producer.EmbedOne(gctx, query)
			if err != nil {
				semanticErr = err
				return nil
			}
			matches, err = e.vectors.SearchSimilar(gctx, vec, fetch, req.MinSimilarity)
			if err != nil {
				semanticErr = err
			}
			return nil
		})
	}

	if weight < 1 {
		g.Go(func() error {
			var err error
			hits, err = e.lex.Search(gctx, keywords, fetch)
			if err != nil {
				return fmt.Errorf("lexical search: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	degraded := false
	if semanticErr != nil {
		// Availability over completeness: a pure-semantic query has no
		// fallback, a weighted one degrades to its lexical leg.
		if weight == 1 || ctx.Err() != nil {
			return nil, fmt.Errorf("semantic search: %w", semanticErr)
		}
		degraded = true
		e.logger.Warn("semantic leg failed, serving lexical-only results", "error", semanticErr)
		matches = nil
	}

	return &Response{
		Results:  fuse(matches, hits, weight, limit),
		Degraded: degraded,
	}, nil
}

// fuse combines the two candidate pools over their union, scoring
// final = semantic*w + keyword*(1-w) with absent scores as zero.
func fuse(matches []vectorstore.Match, hits []lexical.Hit, weight float64, limit int) []Result {
	byChunk := make(map[uuid.UUID]*Result, len(matches)+len(hits))

	for _, m := range matches {
		byChunk[m.ChunkID] = &Result{
			ChunkID:       m.ChunkID,
			CaseID:        m.CaseID,
			SemanticScore: m.Similarity,
		}
	}
	for _, h := range hits {
		r, ok := byChunk[h.ChunkID]
		if !ok {
			r = &Result{ChunkID: h.ChunkID, CaseID: h.CaseID}
			byChunk[h.ChunkID] = r
		}
		r.KeywordScore = h.Score
	}

	results := make([]Result, 0, len(byChunk))
	for _, r := range byChunk {
		r.FinalScore = r.SemanticScore*weight + r.KeywordScore*(1-weight)
		results = append(results, *r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].ChunkID.String() < results[j].ChunkID.String()
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
