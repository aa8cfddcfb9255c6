// Package loader extracts text and metadata from supported document files.
//
// A Loader is selected from a file's extension by ForPath. Text and markdown
// files are read with a forgiving decode; PDFs are extracted page by page.
// Every loader derives the document id from the resolved absolute path, so
// re-ingesting a changed file overwrites the chunks it produced earlier.
package loader

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/studyops/core"
)

// Loader turns a file into a Document.
type Loader interface {
	Load(path string) (*core.Document, error)
}

// ForPath selects the loader for path's extension.
// Unsupported extensions return core.ErrUnsupportedFileType.
func ForPath(path string) (Loader, error) {
	return Select(path, nil)
}

// Select is ForPath with a logger for loaders that report recovered
// per-page failures. A nil logger uses slog.Default().
func Select(path string, logger *slog.Logger) (Loader, error) {
	switch ft := core.FileTypeOf(path); ft {
	case core.FileTypeText:
		return TextLoader{}, nil
	case core.FileTypePDF:
		return PDFLoader{Logger: logger}, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedFileType, core.Ext(path))
	}
}

// Load selects a loader for path and runs it.
func Load(path string) (*core.Document, error) {
	l, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	return l.Load(path)
}

// resolvePath returns the absolute path with symlinks evaluated. If the
// links cannot be evaluated the absolute path is used as is.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// baseMetadata is shared by every loader variant. Extension and name come
// from the path as given; the source path is the resolved one.
func baseMetadata(path, resolved string) map[string]any {
	return map[string]any{
		core.MetaSourcePath: resolved,
		core.MetaExt:        core.Ext(path),
		core.MetaName:       filepath.Base(path),
	}
}
