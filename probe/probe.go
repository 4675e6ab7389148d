// Package probe defines the pending-reboot signals and the contract
// for reading them over a transport.
//
// A signal is one independently checkable indicator that a host has
// OS-level work queued behind a restart. Two canonical signals exist:
//
//   - RegistryPending: the pending-file-rename-operations queue in the
//     session manager registry key holds at least one entry.
//   - ServicingMarkerPresent: the component-servicing pending marker
//     (WinSxS\pending.xml) exists under the system root.
//
// Each signal resolves independently to True, False, or Unknown. A
// failure while reading one signal downgrades only that signal to
// Unknown; it never aborts the other signal and never propagates.
package probe

import (
	"context"

	"github.com/smnsjas/rebootcheck/tristate"
)

// Canonical signal names, used as keys in a Signals map.
const (
	SignalRegistryPending = "RegistryPending"
	SignalServicingMarker = "ServicingMarkerPresent"
)

// Signals maps signal names to their verdicts for one target.
type Signals map[string]tristate.Value

// NewSignals returns a Signals map with both canonical signals Unknown.
func NewSignals() Signals {
	return Signals{
		SignalRegistryPending: tristate.Unknown,
		SignalServicingMarker: tristate.Unknown,
	}
}

// Registry returns the RegistryPending verdict.
func (s Signals) Registry() tristate.Value { return s[SignalRegistryPending] }

// Marker returns the ServicingMarkerPresent verdict.
func (s Signals) Marker() tristate.Value { return s[SignalServicingMarker] }

// AllUnknown reports whether no signal resolved to a determinate value.
func (s Signals) AllUnknown() bool {
	for _, v := range s {
		if v != tristate.Unknown {
			return false
		}
	}
	return true
}

// Reader reads both raw signals for one host. Implementations exist
// for the local machine and for a remote session; each read is
// blocking I/O and honors the context deadline.
type Reader interface {
	// PendingFileRenames returns the entries of the pending file rename
	// queue. An empty result with a nil error means the queue is
	// definitively empty.
	PendingFileRenames(ctx context.Context) ([]string, error)
	// ServicingMarkerPresent reports whether the servicing pending
	// marker exists.
	ServicingMarkerPresent(ctx context.Context) (bool, error)
}

// FromRenames converts a pending-file-rename read into a verdict:
// True for a non-empty queue, False for an empty one, Unknown when the
// read itself failed.
func FromRenames(entries []string, err error) tristate.Value {
	if err != nil {
		return tristate.Unknown
	}
	return tristate.FromBool(len(entries) > 0)
}

// FromMarker converts a marker existence check into a verdict.
func FromMarker(present bool, err error) tristate.Value {
	if err != nil {
		return tristate.Unknown
	}
	return tristate.FromBool(present)
}

// Run probes both signals through r. Errors are absorbed per signal:
// a failed read yields Unknown for that signal only.
func Run(ctx context.Context, r Reader) Signals {
	s := NewSignals()
	entries, err := r.PendingFileRenames(ctx)
	s[SignalRegistryPending] = FromRenames(entries, err)
	present, err := r.ServicingMarkerPresent(ctx)
	s[SignalServicingMarker] = FromMarker(present, err)
	return s
}
