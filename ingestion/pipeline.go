package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/studyops/chunking"
	"github.com/poiesic/studyops/core"
	"github.com/poiesic/studyops/discovery"
	"github.com/poiesic/studyops/loader"
	"github.com/poiesic/studyops/storage"
)

// Retry defaults for store writes.
const (
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = 50 * time.Millisecond
)

// Pipeline orchestrates discovery, loading, chunking and storage of the
// files under a root path.
type Pipeline struct {
	repo        storage.ChunkRepository
	chunker     *chunking.Chunker
	pool        *ants.Pool // nil when processing sequentially
	workers     int
	attempts    int
	baseDelay   time.Duration
	selectLoad  loaderFunc
	progressOut io.Writer
	progressN   int
	hook        func(Outcome)
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithWorkers sets how many files are processed concurrently.
// Values <= 1 process files one at a time, which is the default.
func WithWorkers(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		p.workers = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithRetry sets how store writes are retried.
// Default is 3 attempts starting with a 50ms delay.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if attempts < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidMaxAttempts, attempts)
		}
		if baseDelay < 0 {
			baseDelay = 0
		}
		p.attempts = attempts
		p.baseDelay = baseDelay
		return nil
	}
}

// WithProgress writes running counters to w after every interval files.
func WithProgress(w io.Writer, interval int) Option {
	return func(p *Pipeline) error {
		if interval < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidProgressInterval, interval)
		}
		p.progressOut = w
		p.progressN = interval
		return nil
	}
}

// WithOutcomeHook registers fn to receive every per-file Outcome.
// Calls are serialized.
func WithOutcomeHook(fn func(Outcome)) Option {
	return func(p *Pipeline) error {
		p.hook = fn
		return nil
	}
}

// withLoaderFunc replaces loader selection. Used by tests.
func withLoaderFunc(fn loaderFunc) Option {
	return func(p *Pipeline) error {
		p.selectLoad = fn
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline writing to repo.
// An invalid chunk configuration is rejected here, before any file is read.
func NewPipeline(repo storage.ChunkRepository, cfg core.ChunkConfig, opts ...Option) (*Pipeline, error) {
	if repo == nil {
		return nil, ErrChunkRepositoryRequired
	}

	chunker, err := chunking.New(cfg)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repo:       repo,
		chunker:    chunker,
		workers:    1,
		attempts:   DefaultRetryAttempts,
		baseDelay:  DefaultRetryBaseDelay,
		selectLoad: loader.Select,
		logger:     slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	if p.workers > 1 {
		pool, err := ants.NewPool(p.workers)
		if err != nil {
			return nil, err
		}
		p.pool = pool
	}

	return p, nil
}

// ChunkConfig returns the pipeline's chunking parameters.
func (p *Pipeline) ChunkConfig() core.ChunkConfig {
	return p.chunker.Config()
}

// Ingest processes every supported file under root.
//
// Per-file failures are counted in DocsSkipped and never abort the run.
// An inaccessible root returns an error and zero counters. If ctx is done
// the pipeline stops taking new files, waits for those in flight, and
// returns the counters so far together with ctx.Err().
// DocsOK + DocsSkipped == FilesTotal holds for every returned result.
func (p *Pipeline) Ingest(ctx context.Context, root string) (core.IngestResult, error) {
	var result core.IngestResult

	resolved, err := discovery.ResolveRoot(root)
	if err != nil {
		return result, err
	}
	files, err := discovery.Files(resolved, p.logger)
	if err != nil {
		return result, err
	}

	proc := &processor{
		repo:       p.repo,
		chunker:    p.chunker,
		selectLoad: p.selectLoad,
		attempts:   p.attempts,
		baseDelay:  p.baseDelay,
		logger:     p.logger,
	}

	var progress *progressReporter
	if p.progressOut != nil {
		progress = newProgressReporter(p.progressOut, p.progressN)
	}

	var mu sync.Mutex
	record := func(out Outcome) {
		mu.Lock()
		defer mu.Unlock()

		if out.Skipped() {
			result.DocsSkipped++
			p.logger.Warn("skipped file", "path", out.Path, "reason", out.Reason.String(), "err", out.Err)
		} else {
			result.DocsOK++
			result.ChunksWritten += out.Chunks
			p.logger.Debug("ingested file", "path", out.Path, "chunks", out.Chunks)
		}
		if p.hook != nil {
			p.hook(out)
		}
		if progress != nil {
			progress.update(result)
		}
	}

	p.logger.Info("ingestion started", "root", resolved, "workers", p.workers,
		"max_chars", p.chunker.Config().MaxChars, "overlap", p.chunker.Config().Overlap)

	var wg sync.WaitGroup
	for path := range files {
		if ctx.Err() != nil {
			break
		}

		mu.Lock()
		result.FilesTotal++
		mu.Unlock()

		if p.pool == nil {
			record(proc.process(ctx, path))
			continue
		}

		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			record(proc.process(ctx, path))
		}); err != nil {
			wg.Done()
			record(Outcome{Path: path, Reason: SkipLoadFailed, Err: err})
		}
	}
	wg.Wait()

	if progress != nil {
		progress.finish(result)
	}

	p.logger.Info("ingestion finished",
		"files", result.FilesTotal,
		"ok", result.DocsOK,
		"skipped", result.DocsSkipped,
		"chunks", result.ChunksWritten)

	return result, ctx.Err()
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
