//go:build !windows

package local

import "context"

// Reader is a stub on non-windows platforms; every read fails with
// ErrUnsupported and the caller records the signal as Unknown.
type Reader struct {
	SystemRoot string
}

// New returns a Reader for the current machine.
func New() *Reader {
	return &Reader{}
}

// PendingFileRenames always fails on non-windows platforms.
func (r *Reader) PendingFileRenames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrUnsupported
}

// ServicingMarkerPresent always fails on non-windows platforms.
func (r *Reader) ServicingMarkerPresent(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return false, ErrUnsupported
}
