// Package file implements the local-filesystem data source used by the
// batch readers. Input files are selected by glob patterns anchored at a
// fixed directory depth under the input root.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// List resolves pattern under root and returns the matching paths in
// sorted order. A pattern that matches nothing is an error: the pipeline
// depends on seeing the whole batch, so an empty resolution means the
// input root is wrong or the feed is missing, never "zero rows".
func List(root, pattern string) ([]string, error) {
	full := filepath.Join(root, pattern)
	matches, err := filepath.Glob(full)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", full, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("glob %s: no input files", full)
	}
	sort.Strings(matches)
	return matches, nil
}

// Open opens path for reading. A canceled context short-circuits without
// touching the filesystem. Errors are wrapped with the path while keeping
// errors.Is(err, os.ErrNotExist) usable by callers.
func Open(ctx context.Context, path string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
