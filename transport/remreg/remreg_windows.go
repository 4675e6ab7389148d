//go:build windows

package remreg

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

var (
	modadvapi32             = windows.NewLazySystemDLL("advapi32.dll")
	procRegConnectRegistryW = modadvapi32.NewProc("RegConnectRegistryW")
)

// Client reads the pending file rename queue from a remote machine's
// registry over the remote registry service.
type Client struct{}

// New returns a remote registry Client.
func New() *Client {
	return &Client{}
}

// PendingFileRenames connects to target's HKLM hive and reads the
// pending file rename queue. A missing value means an empty queue.
func (c *Client) PendingFileRenames(ctx context.Context, target string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := connect(target)
	if err != nil {
		return nil, fmt.Errorf("connect remote registry on %s: %w", target, err)
	}
	defer base.Close()

	k, err := registry.OpenKey(base, sessionManagerKey, registry.QUERY_VALUE)
	if err != nil {
		return nil, fmt.Errorf("open session manager key on %s: %w", target, err)
	}
	defer k.Close()

	entries, _, err := k.GetStringsValue(pendingFileRenameValue)
	if errors.Is(err, registry.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s on %s: %w", pendingFileRenameValue, target, err)
	}

	out := entries[:0]
	for _, e := range entries {
		if e != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

// connect opens the remote HKEY_LOCAL_MACHINE hive via
// RegConnectRegistryW.
func connect(target string) (registry.Key, error) {
	name, err := windows.UTF16PtrFromString(`\\` + target)
	if err != nil {
		return 0, err
	}
	var remote windows.Handle
	r0, _, _ := procRegConnectRegistryW.Call(
		uintptr(unsafe.Pointer(name)),
		uintptr(windows.HKEY_LOCAL_MACHINE),
		uintptr(unsafe.Pointer(&remote)),
	)
	if r0 != 0 {
		return 0, syscall.Errno(r0)
	}
	return registry.Key(remote), nil
}
