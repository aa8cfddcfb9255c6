package core

import (
	"encoding/hex"
	"maps"

	"github.com/go-crypt/x/blake2b"
)

// Metadata keys set by loaders and the chunker.
const (
	MetaSourcePath = "source_path"
	MetaExt        = "ext"
	MetaName       = "name"
	MetaPages      = "pages"
	MetaChunkIndex = "chunk_index"
)

// StableID returns a short deterministic fingerprint of key.
// The same key always yields the same 16 character hex string.
func StableID(key string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}

// Document is the text extracted from one source file.
// DocID is the StableID of the resolved absolute source path, not of the
// content, so an edited file keeps its id across runs.
type Document struct {
	DocID    string
	Text     string
	Metadata map[string]any
}

// Chunk is a bounded piece of a Document's text.
type Chunk struct {
	ChunkID  string
	DocID    string
	Text     string
	Metadata map[string]any // Parent document metadata plus MetaChunkIndex
}

// ChunkConfig controls how document text is windowed.
type ChunkConfig struct {
	MaxChars int
	Overlap  int
}

// Default chunking parameters.
const (
	DefaultMaxChars = 1200
	DefaultOverlap  = 150
)

// DefaultChunkConfig returns the named default chunking parameters.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: DefaultMaxChars,
		Overlap:  DefaultOverlap,
	}
}

// NewChunkConfig builds a ChunkConfig and rejects invalid combinations.
func NewChunkConfig(maxChars, overlap int) (ChunkConfig, error) {
	cfg := ChunkConfig{MaxChars: maxChars, Overlap: overlap}
	if err := ValidateChunkConfig(cfg); err != nil {
		return ChunkConfig{}, err
	}
	return cfg, nil
}

// IngestResult summarises one ingestion run.
// DocsOK + DocsSkipped always equals FilesTotal.
type IngestResult struct {
	FilesTotal    int
	DocsOK        int
	DocsSkipped   int
	ChunksWritten int
}

// CloneMetadata returns a shallow copy of m that is never nil.
func CloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	maps.Copy(out, m)
	return out
}
