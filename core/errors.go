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

import "errors"

// Domain errors
var (
	// ErrUnsupportedFileType indicates a loader was requested for an extension
	// outside the supported set.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrInvalidChunkConfig indicates a ChunkConfig failed validation.
	ErrInvalidChunkConfig = errors.New("invalid chunk config")

	// ErrNonPositiveMaxChars indicates MaxChars is zero or negative.
	ErrNonPositiveMaxChars = errors.New("max_chars must be positive")

	// ErrNegativeOverlap indicates Overlap is negative.
	ErrNegativeOverlap = errors.New("overlap cannot be negative")

	// ErrOverlapTooLarge indicates Overlap >= MaxChars, which would stop the
	// chunk window from advancing.
	ErrOverlapTooLarge = errors.New("overlap must be smaller than max_chars")

	// ErrDocumentLoad indicates a file could not be read or decoded.
	ErrDocumentLoad = errors.New("document load failed")

	// ErrChunking indicates a document could not be chunked.
	ErrChunking = errors.New("chunking failed")

	// ErrRootInaccessible indicates the ingestion root does not exist or
	// cannot be read.
	ErrRootInaccessible = errors.New("root path inaccessible")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyChunkID indicates the ChunkID field is empty.
	ErrEmptyChunkID = errors.New("chunk id cannot be empty")

	// ErrEmptyDocID indicates the DocID field is empty.
	ErrEmptyDocID = errors.New("doc id cannot be empty")
)
