package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProducer calls an OpenAI-compatible embeddings endpoint. The
// default deployment points BaseURL at a local sentence-transformers
// server exposing all-MiniLM-L6-v2.
type OpenAIProducer struct {
	client    *openai.Client
	model     string
	dimension int
	batchSize int
}

// NewOpenAIProducer builds a producer for a known model. baseURL may be
// empty to use the public OpenAI API.
func NewOpenAIProducer(apiKey, baseURL, model string, batchSize int) (*OpenAIProducer, error) {
	if model == "" {
		model = DefaultModel
	}
	dim, ok := Dimensions(model)
	if !ok {
		return nil, fmt.Errorf("%w: unknown model %q", ErrModelUnavailable, model)
	}
	if batchSize <= 0 {
		batchSize = 32
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIProducer{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		dimension: dim,
		batchSize: batchSize,
	}, nil
}

func (p *OpenAIProducer) ModelName() string { return p.model }
func (p *OpenAIProducer) Dimension() int    { return p.dimension }

func (p *OpenAIProducer) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: text %d", ErrEmptyInput, i)
		}
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts[start:end],
			Model: openai.EmbeddingModel(p.model),
		})
		if err != nil {
			return nil, classify(err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts",
				ErrModelUnavailable, len(resp.Data), end-start)
		}

		for _, d := range resp.Data {
			if len(d.Embedding) != p.dimension {
				return nil, fmt.Errorf("%w: model %s returned %d-dim vector, want %d",
					ErrDimensionMismatch, p.model, len(d.Embedding), p.dimension)
			}
			vectors = append(vectors, Normalize(d.Embedding))
		}
	}

	return vectors, nil
}

func (p *OpenAIProducer) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// classify maps transport and API failures onto the package taxonomy so
// callers can decide between retry and rejection with errors.Is.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 404, 500, 502, 503, 529:
			return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
	}

	return fmt.Errorf("embed request: %w", err)
}
