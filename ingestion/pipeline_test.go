package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/studyops/core"
	"github.com/poiesic/studyops/loader"
	"github.com/poiesic/studyops/storage"
	"github.com/poiesic/studyops/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingRepository implements storage.ChunkRepository and rejects every write.
type failingRepository struct {
	calls atomic.Int32
}

var _ storage.ChunkRepository = (*failingRepository)(nil)

func (r *failingRepository) Close() error       { return nil }
func (r *failingRepository) Collection() string { return "failing" }

func (r *failingRepository) UpsertChunks(ctx context.Context, chunks ...core.Chunk) error {
	r.calls.Add(1)
	return errors.New("disk on fire")
}

func (r *failingRepository) Count(ctx context.Context) (int, error) { return 0, nil }

func (r *failingRepository) GetChunk(ctx context.Context, id string) (*core.Chunk, error) {
	return nil, storage.ErrNotFound
}

func (r *failingRepository) ChunkIDs(ctx context.Context) ([]string, error) { return nil, nil }

// panicLoader implements loader.Loader and panics on every load.
type panicLoader struct{}

func (panicLoader) Load(path string) (*core.Document, error) {
	panic("parser exploded")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func setupRepo(t *testing.T) *badger.ChunkRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryChunkRepository("test")
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func setupPipeline(t *testing.T, repo storage.ChunkRepository, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	p, err := NewPipeline(repo, core.DefaultChunkConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func collectOutcomes() (Option, func() []Outcome) {
	var mu sync.Mutex
	var outcomes []Outcome
	hook := WithOutcomeHook(func(o Outcome) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, o)
	})
	return hook, func() []Outcome {
		mu.Lock()
		defer mu.Unlock()
		return append([]Outcome(nil), outcomes...)
	}
}

func TestNewPipeline_Validation(t *testing.T) {
	repo := setupRepo(t)

	_, err := NewPipeline(nil, core.DefaultChunkConfig())
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewPipeline(repo, core.ChunkConfig{MaxChars: 100, Overlap: 100})
	assert.ErrorIs(t, err, core.ErrInvalidChunkConfig)

	_, err = NewPipeline(repo, core.ChunkConfig{MaxChars: 0, Overlap: 0})
	assert.ErrorIs(t, err, core.ErrInvalidChunkConfig)

	_, err = NewPipeline(repo, core.DefaultChunkConfig(), WithRetry(0, time.Millisecond))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = NewPipeline(repo, core.DefaultChunkConfig(), WithProgress(&bytes.Buffer{}, 0))
	assert.ErrorIs(t, err, ErrInvalidProgressInterval)
}

func TestIngest_FailureIsolation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# Alpha\n\nFirst note.")
	writeFile(t, dir, "b.txt", "Second note.")
	writeFile(t, dir, "sub/c.md", "Third note.")
	writeFile(t, dir, "sub/d.txt", "Fourth note.")
	writeFile(t, dir, "broken.pdf", "%PDF-1.4\nthis is not really a pdf")

	repo := setupRepo(t)
	hook, outcomes := collectOutcomes()
	p := setupPipeline(t, repo, hook)

	result, err := p.Ingest(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 5, result.FilesTotal)
	assert.Equal(t, 4, result.DocsOK)
	assert.Equal(t, 1, result.DocsSkipped)
	assert.Equal(t, 4, result.ChunksWritten)

	var skipped []Outcome
	for _, o := range outcomes() {
		if o.Skipped() {
			skipped = append(skipped, o)
		}
	}
	require.Len(t, skipped, 1)
	assert.Equal(t, "broken.pdf", filepath.Base(skipped[0].Path))
	assert.Equal(t, SkipLoadFailed, skipped[0].Reason)
	assert.ErrorIs(t, skipped[0].Err, core.ErrDocumentLoad)
}

func TestIngest_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "long.md", strings.Repeat("lorem ipsum dolor sit amet ", 200))
	writeFile(t, dir, "short.txt", "tiny")

	repo := setupRepo(t)
	p := setupPipeline(t, repo)
	ctx := context.Background()

	first, err := p.Ingest(ctx, dir)
	require.NoError(t, err)
	countFirst, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ChunksWritten, countFirst)
	assert.Greater(t, countFirst, 2)

	second, err := p.Ingest(ctx, dir)
	require.NoError(t, err)
	countSecond, err := repo.Count(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, countFirst, countSecond)
}

func TestIngest_FiltersUnsupported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.md", "keep me")
	writeFile(t, dir, "report.docx", "ignore me")

	repo := setupRepo(t)
	p := setupPipeline(t, repo)

	result, err := p.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, core.IngestResult{FilesTotal: 1, DocsOK: 1, ChunksWritten: 1}, result)
}

func TestIngest_EmptyTextSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blank.txt", "   \n\t  ")
	writeFile(t, dir, "full.txt", "content")

	repo := setupRepo(t)
	hook, outcomes := collectOutcomes()
	p := setupPipeline(t, repo, hook)

	result, err := p.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, core.IngestResult{FilesTotal: 2, DocsOK: 1, DocsSkipped: 1, ChunksWritten: 1}, result)

	for _, o := range outcomes() {
		if filepath.Base(o.Path) == "blank.txt" {
			assert.Equal(t, SkipEmptyText, o.Reason)
			assert.NoError(t, o.Err)
			assert.NotEmpty(t, o.DocID)
		}
	}
}

func TestIngest_MetadataPropagation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Guide.MD", strings.Repeat("abcdefghij", 30))

	repo := setupRepo(t)
	p, err := NewPipeline(repo, core.ChunkConfig{MaxChars: 100, Overlap: 10}, WithLogger(quietLogger()))
	require.NoError(t, err)
	defer p.Release()
	ctx := context.Background()

	result, err := p.Ingest(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 1, result.DocsOK)

	doc, err := loader.Load(path)
	require.NoError(t, err)

	ids, err := repo.ChunkIDs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, result.ChunksWritten)

	seen := make(map[int64]bool)
	for _, id := range ids {
		chunk, err := repo.GetChunk(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, doc.DocID, chunk.DocID)
		for key, value := range doc.Metadata {
			assert.Equal(t, value, chunk.Metadata[key], "metadata key %s", key)
		}
		idx, ok := chunk.Metadata[core.MetaChunkIndex].(int64)
		require.True(t, ok)
		seen[idx] = true
	}
	for i := 0; i < len(ids); i++ {
		assert.True(t, seen[int64(i)], "missing chunk_index %d", i)
	}
	assert.Equal(t, ".md", doc.Metadata[core.MetaExt])
	assert.Equal(t, "Guide.MD", doc.Metadata[core.MetaName])
}

func TestIngest_WorkersMatchSequential(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 25; i++ {
		writeFile(t, dir, fmt.Sprintf("d%02d/note%02d.md", i%5, i), strings.Repeat(fmt.Sprintf("note %d body. ", i), 100))
	}
	writeFile(t, dir, "bad.pdf", "garbage")

	seqRepo := setupRepo(t)
	seq := setupPipeline(t, seqRepo)
	seqResult, err := seq.Ingest(context.Background(), dir)
	require.NoError(t, err)

	parRepo := setupRepo(t)
	par := setupPipeline(t, parRepo, WithWorkers(4))
	parResult, err := par.Ingest(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, seqResult, parResult)
	assert.Equal(t, 26, parResult.FilesTotal)
	assert.Equal(t, 1, parResult.DocsSkipped)

	seqCount, err := seqRepo.Count(context.Background())
	require.NoError(t, err)
	parCount, err := parRepo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seqCount, parCount)
}

func TestIngest_CanceledBeforeStart(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha")

	repo := setupRepo(t)
	p := setupPipeline(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := p.Ingest(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, core.IngestResult{}, result)
}

func TestIngest_CanceledMidRun(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		writeFile(t, dir, fmt.Sprintf("n%02d.txt", i), "body")
	}

	repo := setupRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen atomic.Int32
	p := setupPipeline(t, repo, WithOutcomeHook(func(o Outcome) {
		if seen.Add(1) == 3 {
			cancel()
		}
	}))

	result, err := p.Ingest(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, result.FilesTotal)
	assert.Equal(t, result.FilesTotal, result.DocsOK+result.DocsSkipped)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.ChunksWritten, count)
}

func TestIngest_StoreFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha")
	writeFile(t, dir, "b.md", "beta")

	repo := &failingRepository{}
	hook, outcomes := collectOutcomes()
	p := setupPipeline(t, repo, hook, WithRetry(2, 0))

	result, err := p.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, core.IngestResult{FilesTotal: 2, DocsSkipped: 2}, result)
	assert.Equal(t, int32(4), repo.calls.Load())

	for _, o := range outcomes() {
		assert.Equal(t, SkipStoreFailed, o.Reason)
		assert.EqualError(t, o.Err, "disk on fire")
	}
}

func TestIngest_RootInaccessible(t *testing.T) {
	repo := setupRepo(t)
	p := setupPipeline(t, repo)

	result, err := p.Ingest(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, core.ErrRootInaccessible)
	assert.Equal(t, core.IngestResult{}, result)
}

func TestIngest_SingleFileRoot(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "one.txt", "just one")
	writeFile(t, dir, "two.txt", "not this one")

	repo := setupRepo(t)
	p := setupPipeline(t, repo)

	result, err := p.Ingest(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, core.IngestResult{FilesTotal: 1, DocsOK: 1, ChunksWritten: 1}, result)

	unsupported := writeFile(t, dir, "one.docx", "nope")
	result, err = p.Ingest(context.Background(), unsupported)
	require.NoError(t, err)
	assert.Equal(t, core.IngestResult{}, result)
}

func TestIngest_LoaderFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha")
	writeFile(t, dir, "b.md", "beta")
	writeFile(t, dir, "c.md", "gamma")

	repo := setupRepo(t)
	hook, outcomes := collectOutcomes()
	p := setupPipeline(t, repo, hook, withLoaderFunc(func(path string, logger *slog.Logger) (loader.Loader, error) {
		switch filepath.Base(path) {
		case "a.md":
			return nil, fmt.Errorf("%w: forced", core.ErrUnsupportedFileType)
		case "b.md":
			return panicLoader{}, nil
		default:
			return loader.Select(path, logger)
		}
	}))

	result, err := p.Ingest(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, core.IngestResult{FilesTotal: 3, DocsOK: 1, DocsSkipped: 2, ChunksWritten: 1}, result)

	reasons := make(map[string]SkipReason)
	for _, o := range outcomes() {
		reasons[filepath.Base(o.Path)] = o.Reason
	}
	assert.Equal(t, SkipUnsupported, reasons["a.md"])
	assert.Equal(t, SkipLoadFailed, reasons["b.md"])
	assert.Equal(t, SkipNone, reasons["c.md"])
}

func TestIngest_Progress(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 4; i++ {
		writeFile(t, dir, fmt.Sprintf("n%d.txt", i), "body")
	}

	var buf bytes.Buffer
	repo := setupRepo(t)
	p := setupPipeline(t, repo, WithProgress(&buf, 2))

	_, err := p.Ingest(context.Background(), dir)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Progress: 2 files (2 ok, 0 skipped), 2 chunks")
	assert.Contains(t, out, "Progress: 4 files (4 ok, 0 skipped), 4 chunks")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestSkipReason_String(t *testing.T) {
	assert.Equal(t, "none", SkipNone.String())
	assert.Equal(t, "empty text", SkipEmptyText.String())
	assert.Equal(t, "store failed", SkipStoreFailed.String())
	assert.Equal(t, "SkipReason(42)", SkipReason(42).String())
}
