package storage

import (
	"context"

	"github.com/poiesic/studyops/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases the repository. The backend it was created from stays open.
	Close() error
}

// ChunkRepository stores chunks in one named collection, keyed by chunk id.
type ChunkRepository interface {
	Repository

	// Collection returns the collection name.
	Collection() string

	// UpsertChunks writes each chunk under its ChunkID, replacing any entry
	// with the same id. An empty call is a no-op. Writes are durable when
	// the call returns.
	UpsertChunks(ctx context.Context, chunks ...core.Chunk) error

	// Count returns the number of distinct chunk ids in the collection.
	Count(ctx context.Context) (int, error)

	// GetChunk retrieves a single chunk by id.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id string) (*core.Chunk, error)

	// ChunkIDs returns every chunk id in the collection in key order.
	ChunkIDs(ctx context.Context) ([]string, error)
}
