// Package chunker splits normalized document text into fixed-size
// overlapping passages, the unit of indexing and retrieval.
package chunker

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Chunk is one contiguous span of a document's text. Start and End are
// rune offsets into the source text; consecutive chunks share exactly
// the configured overlap.
type Chunk struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	CaseID     uuid.UUID
	CaseNumber string
	Index      int
	Text       string
	Start      int
	End        int
}

// Provenance carries the document-level metadata every chunk inherits.
type Provenance struct {
	DocumentID uuid.UUID
	CaseID     uuid.UUID
	CaseNumber string
}

// Chunker produces deterministic fixed-overlap chunkings.
type Chunker struct {
	size    int
	overlap int
}

// New validates the chunking parameters. Both must be positive and the
// chunk size strictly greater than the overlap, otherwise consecutive
// chunks would never advance.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap <= 0 {
		return nil, fmt.Errorf("chunk overlap must be positive, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Default returns a chunker with the stock 1000/200 parameters.
func Default() *Chunker {
	c, _ := New(DefaultChunkSize, DefaultOverlap)
	return c
}

// Size returns the configured chunk size in runes.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in runes.
func (c *Chunker) Overlap() int { return c.overlap }

// Split covers text with overlapping chunks. Every non-final chunk has
// exactly size runes; each chunk after the first repeats the last overlap
// runes of its predecessor, so trimming the overlap-length tail of every
// non-final chunk and concatenating reconstructs the input. Empty text
// yields no chunks; text shorter than the chunk size yields exactly one.
func (c *Chunker) Split(text string, prov Provenance) []Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	step := c.size - c.overlap

	var chunks []Chunk
	for start, idx := 0, 0; ; idx++ {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, Chunk{
			ID:         uuid.New(),
			DocumentID: prov.DocumentID,
			CaseID:     prov.CaseID,
			CaseNumber: prov.CaseNumber,
			Index:      idx,
			Text:       string(runes[start:end]),
			Start:      start,
			End:        end,
		})

		if end == len(runes) {
			break
		}
		start += step
	}

	return chunks
}
