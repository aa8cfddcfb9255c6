package ingestion

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrInvalidMaxAttempts is returned when a retry is configured with fewer than one attempt.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrInvalidProgressInterval is returned when progress reporting is configured with a non-positive interval.
	ErrInvalidProgressInterval = errors.New("progress interval must be positive")
)
