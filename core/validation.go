// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
)

// ValidateChunkConfig validates a ChunkConfig.
//
// Validation rules:
//   - MaxChars must be positive
//   - Overlap must not be negative
//   - Overlap must be strictly smaller than MaxChars
func ValidateChunkConfig(cfg ChunkConfig) error {
	if cfg.MaxChars <= 0 {
		return fmt.Errorf("%w: %w (got %d)", ErrInvalidChunkConfig, ErrNonPositiveMaxChars, cfg.MaxChars)
	}

	if cfg.Overlap < 0 {
		return fmt.Errorf("%w: %w (got %d)", ErrInvalidChunkConfig, ErrNegativeOverlap, cfg.Overlap)
	}

	if cfg.Overlap >= cfg.MaxChars {
		return fmt.Errorf("%w: %w (overlap %d, max_chars %d)",
			ErrInvalidChunkConfig, ErrOverlapTooLarge, cfg.Overlap, cfg.MaxChars)
	}

	return nil
}

// ValidateChunk validates a Chunk before it is written to storage.
//
// Validation rules:
//   - ChunkID must not be empty
//   - DocID must not be empty
//
// NOT validated:
//   - Text (stored as produced by the chunker)
//   - Metadata (nil is stored as an empty map)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.ChunkID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkID)
	}

	if chunk.DocID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyDocID)
	}

	return nil
}
