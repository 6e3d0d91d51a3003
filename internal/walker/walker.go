// Package walker implements the file walker and watcher (C4): a bounded,
// streaming directory scan for full indexing runs, and a debounced
// fsnotify watcher for incremental runs.
//
// The walker loop is adapted from the teacher's FileDiscovery.DiscoverFiles
// (internal/indexer/discovery.go), generalized from "classify into code
// vs. docs" to "stream every non-ignored file onto a bounded channel";
// the coordinator drains that channel completely before it diffs. The
// watcher is adapted from internal/watcher/file_watcher.go, keeping its
// debounce-timer and pause/resume/accumulate design and adding the
// resync-on-overload behavior the component design calls for: when the
// accumulated change set crosses a burst threshold the watcher stops
// accumulating individual paths and instead emits a single resync signal
// telling the coordinator to fall back to a full walk.
package walker

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cortexindex/indexd/internal/ignore"
)

// File is one file the walker found, not excluded by the ignore matcher.
type File struct {
	// RelPath is project-relative and slash-separated.
	RelPath string
	AbsPath string
	Size    int64
	ModTime time.Time
}

// QueueCapacity is the default size of the walker's output channel. A
// bounded channel applies natural backpressure: a slow consumer (e.g. an
// embedder pool working through a backlog) keeps the walker from reading
// the entire tree into memory ahead of it.
const QueueCapacity = 256

// Walk streams every file under root that the matcher does not exclude
// onto the returned channel, closing it when the walk completes or ctx is
// canceled. Errors are reported on the returned error channel (buffered,
// capacity 1); a walk that hits a fatal error (e.g. root unreadable)
// closes the file channel immediately after reporting.
func Walk(ctx context.Context, root string, matcher *ignore.Matcher) (<-chan File, <-chan error) {
	files := make(chan File, QueueCapacity)
	errs := make(chan error, 1)

	go func() {
		defer close(files)

		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			rel = filepath.ToSlash(rel)
			if rel == "." {
				return nil
			}

			if info.IsDir() {
				if matcher.Match(rel) {
					return filepath.SkipDir
				}
				return nil
			}

			if matcher.Match(rel) {
				return nil
			}

			select {
			case files <- File{RelPath: rel, AbsPath: path, Size: info.Size(), ModTime: info.ModTime()}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			select {
			case errs <- err:
			default:
			}
		}
	}()

	return files, errs
}
