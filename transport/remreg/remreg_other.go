//go:build !windows

package remreg

import "context"

// Client is a stub on non-windows platforms; the resolver records the
// registry fallback signal as Unknown.
type Client struct{}

// New returns a remote registry Client.
func New() *Client {
	return &Client{}
}

// PendingFileRenames always fails on non-windows platforms.
func (c *Client) PendingFileRenames(ctx context.Context, target string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrUnsupported
}
