//go:build windows

package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

// Reader reads both signals in-process. The zero root defaults to
// %SystemRoot%.
type Reader struct {
	// SystemRoot overrides the system installation tree, for tests.
	SystemRoot string
}

// New returns a Reader for the current machine.
func New() *Reader {
	return &Reader{}
}

func (r *Reader) systemRoot() string {
	if r.SystemRoot != "" {
		return r.SystemRoot
	}
	if root := os.Getenv("SystemRoot"); root != "" {
		return root
	}
	return `C:\Windows`
}

// PendingFileRenames reads the pending file rename queue from the
// session manager key. A missing value means the queue is empty, not
// an error.
func (r *Reader) PendingFileRenames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, sessionManagerKey, registry.QUERY_VALUE)
	if err != nil {
		return nil, fmt.Errorf("open session manager key: %w", err)
	}
	defer k.Close()

	entries, _, err := k.GetStringsValue(pendingFileRenameValue)
	if errors.Is(err, registry.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pendingFileRenameValue, err)
	}
	return dropEmpty(entries), nil
}

// ServicingMarkerPresent tests for the servicing pending marker under
// the system root.
func (r *Reader) ServicingMarkerPresent(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(r.systemRoot(), markerRelPath))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat servicing marker: %w", err)
}

// dropEmpty removes the empty strings REG_MULTI_SZ pads the queue with.
func dropEmpty(entries []string) []string {
	out := entries[:0]
	for _, e := range entries {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
