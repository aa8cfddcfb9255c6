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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/studyops/chunking"
	"github.com/poiesic/studyops/core"
	"github.com/poiesic/studyops/loader"
	"github.com/poiesic/studyops/storage"
)

// SkipReason says why a file was not ingested.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipEmptyText
	SkipUnsupported
	SkipLoadFailed
	SkipChunkFailed
	SkipStoreFailed
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipEmptyText:
		return "empty text"
	case SkipUnsupported:
		return "unsupported"
	case SkipLoadFailed:
		return "load failed"
	case SkipChunkFailed:
		return "chunk failed"
	case SkipStoreFailed:
		return "store failed"
	default:
		return fmt.Sprintf("SkipReason(%d)", int(r))
	}
}

// Outcome is the result of processing one file.
// A file with Reason == SkipNone was ingested and wrote Chunks chunks.
type Outcome struct {
	Path   string
	DocID  string
	Chunks int
	Reason SkipReason
	Err    error
}

// Skipped reports whether the file was counted as skipped.
func (o Outcome) Skipped() bool {
	return o.Reason != SkipNone
}

// loaderFunc selects the loader for a path.
type loaderFunc func(path string, logger *slog.Logger) (loader.Loader, error)

// processor runs the load, chunk and store steps for a single file.
type processor struct {
	repo       storage.ChunkRepository
	chunker    *chunking.Chunker
	selectLoad loaderFunc
	attempts   int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// process ingests one file. It never returns an error; every failure is
// reported through the Outcome.
func (p *processor) process(ctx context.Context, path string) (out Outcome) {
	out.Path = path

	// Loaders call into third-party parsers; a panic skips the file.
	defer func() {
		if r := recover(); r != nil {
			out.Chunks = 0
			out.Reason = SkipLoadFailed
			out.Err = fmt.Errorf("%w: %v", core.ErrDocumentLoad, r)
		}
	}()

	l, err := p.selectLoad(path, p.logger)
	if err != nil {
		out.Reason = SkipUnsupported
		out.Err = err
		return out
	}

	doc, err := l.Load(path)
	if err != nil {
		out.Reason = SkipLoadFailed
		if errors.Is(err, core.ErrUnsupportedFileType) {
			out.Reason = SkipUnsupported
		}
		out.Err = err
		return out
	}
	out.DocID = doc.DocID

	if strings.TrimSpace(doc.Text) == "" {
		out.Reason = SkipEmptyText
		return out
	}

	chunks, err := p.chunker.Document(doc)
	if err != nil {
		out.Reason = SkipChunkFailed
		out.Err = err
		return out
	}

	err = retryWithBackoff(ctx, p.logger, func() error {
		return p.repo.UpsertChunks(ctx, chunks...)
	}, p.attempts, p.baseDelay)
	if err != nil {
		out.Reason = SkipStoreFailed
		out.Err = err
		return out
	}

	out.Chunks = len(chunks)
	return out
}
