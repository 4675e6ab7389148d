// Package remreg is the direct remote registry fallback. It reads the
// pending file rename queue straight from a target's registry when the
// WinRM listener is firewalled but the remote registry service is not.
package remreg

import "errors"

const (
	sessionManagerKey      = `SYSTEM\CurrentControlSet\Control\Session Manager`
	pendingFileRenameValue = "PendingFileRenameOperations"
)

// ErrUnsupported is returned on platforms that cannot speak the remote
// registry protocol.
var ErrUnsupported = errors.New("remote registry fallback requires windows")
