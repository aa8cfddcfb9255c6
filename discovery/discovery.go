// Package discovery enumerates the files an ingestion run should load.
package discovery

import (
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/studyops/core"
)

// ResolveRoot expands a leading "~" and returns the cleaned absolute path.
func ResolveRoot(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: %w", core.ErrRootInaccessible, err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrRootInaccessible, err)
	}
	return abs, nil
}

// Files returns the supported files under root.
//
// A root that is a regular file is yielded alone if its extension is
// supported. A directory is walked recursively in lexical order, yielding
// regular files and symlinks to regular files. Symlinked directories are not
// descended into. Unreadable subdirectories are logged and skipped. An
// inaccessible root is an error.
//
// The walk is lazy: it happens while the sequence is ranged over, and
// stopping the range stops the walk.
func Files(root string, logger *slog.Logger) (iter.Seq[string], error) {
	if logger == nil {
		logger = slog.Default()
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrRootInaccessible, err)
	}

	if !info.IsDir() {
		return func(yield func(string) bool) {
			if info.Mode().IsRegular() && core.IsSupported(root) {
				yield(root)
			}
		}, nil
	}

	// WalkDir does not descend into a root that is itself a symlink.
	if linfo, err := os.Lstat(root); err == nil && linfo.Mode()&fs.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(root); err == nil {
			root = resolved
		}
	}

	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					logger.Warn("cannot read root directory", "path", path, "err", err)
					return fs.SkipAll
				}
				logger.Warn("skipping unreadable entry", "path", path, "err", err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !core.IsSupported(path) {
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 {
				target, err := os.Stat(path)
				if err != nil || !target.Mode().IsRegular() {
					return nil
				}
			} else if !d.Type().IsRegular() {
				return nil
			}
			if !yield(path) {
				return fs.SkipAll
			}
			return nil
		})
	}, nil
}
