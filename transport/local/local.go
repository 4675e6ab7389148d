// Package local reads the pending-reboot signals on the machine the
// checker itself runs on, with no transport in between.
package local

import "errors"

// Registry location of the pending file rename queue.
const (
	sessionManagerKey      = `SYSTEM\CurrentControlSet\Control\Session Manager`
	pendingFileRenameValue = "PendingFileRenameOperations"
)

// markerRelPath is the servicing pending marker, relative to the
// system root.
const markerRelPath = `WinSxS\pending.xml`

// ErrUnsupported is returned on platforms without local registry
// access. Callers downgrade the affected signal to Unknown.
var ErrUnsupported = errors.New("local pending-reboot checks require windows")
