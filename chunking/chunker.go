// Package chunking splits document text into bounded, overlapping windows
// with stable identifiers.
package chunking

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/studyops/core"
)

// Chunker splits documents using a validated ChunkConfig.
type Chunker struct {
	cfg core.ChunkConfig
}

// New creates a Chunker. It rejects configurations where the window could
// not advance.
func New(cfg core.ChunkConfig) (*Chunker, error) {
	if err := core.ValidateChunkConfig(cfg); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg}, nil
}

// Config returns the chunker's configuration.
func (c *Chunker) Config() core.ChunkConfig {
	return c.cfg
}

// Split windows text according to the chunker's configuration.
func (c *Chunker) Split(text string) []string {
	return ChunkText(text, c.cfg.MaxChars, c.cfg.Overlap)
}

// Document chunks doc, numbering chunks 0..N-1 in generation order.
func (c *Chunker) Document(doc *core.Document) ([]core.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", core.ErrChunking)
	}
	if doc.DocID == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrChunking, core.ErrEmptyDocID)
	}

	parts := c.Split(doc.Text)
	chunks := make([]core.Chunk, 0, len(parts))
	for idx, part := range parts {
		metadata := core.CloneMetadata(doc.Metadata)
		metadata[core.MetaChunkIndex] = idx
		chunks = append(chunks, core.Chunk{
			ChunkID:  ChunkID(doc.DocID, idx, part),
			DocID:    doc.DocID,
			Text:     part,
			Metadata: metadata,
		})
	}
	return chunks, nil
}

// ChunkDocument is a convenience wrapper around New and Chunker.Document.
func ChunkDocument(doc *core.Document, cfg core.ChunkConfig) ([]core.Chunk, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return c.Document(doc)
}

// ChunkID derives a chunk identifier from its document, position and length
// in characters. Re-chunking unchanged text with the same configuration
// reproduces the same ids.
func ChunkID(docID string, index int, text string) string {
	key := docID + ":" + strconv.Itoa(index) + ":" + strconv.Itoa(utf8.RuneCountInString(text))
	return core.StableID(key)
}

// ChunkText trims text and slides a window of maxChars characters across it.
// Consecutive windows share overlap characters. Windows that are blank after
// trimming are dropped without ending iteration. Lengths are counted in
// characters, not bytes.
//
// The window always moves forward, even when overlap >= maxChars.
func ChunkText(text string, maxChars, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars < 1 {
		maxChars = 1
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(text)
	n := len(runes)

	var chunks []string
	start := 0
	for start < n {
		end := min(start+maxChars, n)
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == n {
			break
		}
		next := max(0, end-overlap)
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}
