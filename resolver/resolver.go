// Package resolver decides how to reach a target and drives the probe
// attempts across the ordered transport chain.
//
// # State Machine
//
// Each target runs through a strict state machine:
//
//	Start ─→ Local ────────────────────────────────→ Done
//	  │
//	  └──→ NameCheck ─→ Primary ─→ Done
//	                       │
//	                       └─→ FallbackDecision ─→ Denied
//	                                │
//	                                └─→ Fallback ─→ {Done | Denied}
//
// States:
//   - Local: the target is this machine; probe in-process. Terminal
//     path - a local target can never be connection-denied.
//   - NameCheck: advisory name resolution for remote targets. A
//     resolution failure is logged but never aborts the attempt; the
//     primary transport can still succeed via other resolution paths.
//   - Primary: preflight the management listener, then read both
//     signals in one remote round trip.
//   - FallbackDecision: primary failed. Without fallback enabled the
//     target is denied with the classified primary failure.
//   - Fallback: direct registry and admin-share sub-attempts, each
//     tried exactly once, independently. One determinate signal is a
//     successful degraded check; both Unknown means denied with
//     FallbackFailed.
//   - Done / Denied: terminal. Denied implies both signals Unknown.
//
// No path loops: every attempt is made at most once per target.
package resolver

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/smnsjas/rebootcheck/failure"
	"github.com/smnsjas/rebootcheck/probe"
)

// DefaultAttemptTimeout bounds each transport attempt.
const DefaultAttemptTimeout = 30 * time.Second

// Local target sentinels, compared case-insensitively alongside the
// machine's own hostname.
var localSentinels = map[string]bool{
	".":         true,
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// state names one node of the per-target state machine.
type state int

const (
	stateStart state = iota
	stateLocal
	stateNameCheck
	statePrimary
	stateFallbackDecision
	stateFallback
	stateDone
	stateDenied
)

// String returns the state name.
func (s state) String() string {
	switch s {
	case stateStart:
		return "Start"
	case stateLocal:
		return "Local"
	case stateNameCheck:
		return "NameCheck"
	case statePrimary:
		return "PrimaryTransport"
	case stateFallbackDecision:
		return "FallbackDecision"
	case stateFallback:
		return "FallbackTransport"
	case stateDone:
		return "Done"
	case stateDenied:
		return "Denied"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// PrimarySession is the primary remote management transport.
type PrimarySession interface {
	// Preflight tests reachability without opening a session.
	Preflight(ctx context.Context, target string) error
	// ReadSignals reads both signals in a single remote round trip,
	// granting partial credit when only one half failed.
	ReadSignals(ctx context.Context, target string) (probe.Signals, error)
}

// RegistryFallback reads the pending file rename queue directly from a
// remote registry.
type RegistryFallback interface {
	PendingFileRenames(ctx context.Context, target string) ([]string, error)
}

// ShareFallback tests for the servicing marker over a remote file
// share.
type ShareFallback interface {
	ServicingMarkerPresent(ctx context.Context, target string) (bool, error)
}

// Logger is an optional interface for debug logging.
// If not set, no logging is performed.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Outcome is the resolver's verdict for one target.
type Outcome struct {
	Signals          probe.Signals
	ConnectionDenied bool
	Failure          *failure.Info
}

// Resolver orchestrates probe attempts across the transport chain.
// All collaborator fields must be set before Check is called; Lookup
// and Hostname default to the standard resolver and os.Hostname.
type Resolver struct {
	Local    probe.Reader
	Primary  PrimarySession
	Registry RegistryFallback
	Share    ShareFallback

	// Lookup is the advisory name check. Failures are logged only.
	Lookup func(ctx context.Context, host string) ([]string, error)
	// Hostname identifies the current machine for local detection.
	Hostname func() (string, error)
	// AttemptTimeout bounds each transport attempt. Zero means
	// DefaultAttemptTimeout.
	AttemptTimeout time.Duration
	// Logger receives state transition debug lines. Optional.
	Logger Logger
}

// New returns a Resolver over the given transports with default name
// resolution and hostname detection.
func New(local probe.Reader, primary PrimarySession, reg RegistryFallback, sh ShareFallback) *Resolver {
	return &Resolver{
		Local:    local,
		Primary:  primary,
		Registry: reg,
		Share:    sh,
		Lookup:   net.DefaultResolver.LookupHost,
		Hostname: os.Hostname,
	}
}

func (r *Resolver) logf(format string, v ...interface{}) {
	if r.Logger != nil {
		r.Logger.Printf(format, v...)
	}
}

func (r *Resolver) timeout() time.Duration {
	if r.AttemptTimeout > 0 {
		return r.AttemptTimeout
	}
	return DefaultAttemptTimeout
}

// IsLocal reports whether target identifies the current machine.
func (r *Resolver) IsLocal(target string) bool {
	t := strings.ToLower(strings.TrimSpace(target))
	if localSentinels[t] {
		return true
	}
	hostname := ""
	if r.Hostname != nil {
		if h, err := r.Hostname(); err == nil {
			hostname = strings.ToLower(h)
		}
	}
	if hostname == "" {
		return false
	}
	// Accept both the short name and an FQDN whose first label matches.
	return t == hostname || strings.SplitN(t, ".", 2)[0] == hostname
}

// Check runs the state machine for one target and returns its Outcome.
// Check never returns an error: every failure mode terminates in a
// Denied outcome or an Unknown signal.
func (r *Resolver) Check(ctx context.Context, target string, enableFallback bool) Outcome {
	var (
		out        Outcome
		primaryErr error
	)

	st := stateStart
	for {
		switch st {
		case stateStart:
			if r.IsLocal(target) {
				st = r.transition(target, st, stateLocal)
			} else {
				st = r.transition(target, st, stateNameCheck)
			}

		case stateLocal:
			attemptCtx, cancel := context.WithTimeout(ctx, r.timeout())
			out.Signals = probe.Run(attemptCtx, r.Local)
			cancel()
			st = r.transition(target, st, stateDone)

		case stateNameCheck:
			// Advisory only. Sessions can still connect through
			// resolution paths the standard resolver does not use.
			attemptCtx, cancel := context.WithTimeout(ctx, r.timeout())
			if _, err := r.lookup(attemptCtx, target); err != nil {
				r.logf("name check for %s failed (continuing): %v", target, err)
			}
			cancel()
			st = r.transition(target, st, statePrimary)

		case statePrimary:
			attemptCtx, cancel := context.WithTimeout(ctx, r.timeout())
			err := r.Primary.Preflight(attemptCtx, target)
			if err == nil {
				var sigs probe.Signals
				sigs, err = r.Primary.ReadSignals(attemptCtx, target)
				if err == nil {
					out.Signals = sigs
					cancel()
					st = r.transition(target, st, stateDone)
					continue
				}
			}
			cancel()
			primaryErr = err
			st = r.transition(target, st, stateFallbackDecision)

		case stateFallbackDecision:
			if !enableFallback {
				info := failure.Classify(primaryErr)
				out.Failure = &info
				st = r.transition(target, st, stateDenied)
				continue
			}
			st = r.transition(target, st, stateFallback)

		case stateFallback:
			sigs, regErr, shareErr := r.fallback(ctx, target)
			if sigs.AllUnknown() {
				info := fallbackFailure(primaryErr, regErr, shareErr)
				out.Failure = &info
				st = r.transition(target, st, stateDenied)
				continue
			}
			// Partial recovery is a successful degraded check; the
			// target is not denied.
			out.Signals = sigs
			st = r.transition(target, st, stateDone)

		case stateDenied:
			out.ConnectionDenied = true
			out.Signals = probe.NewSignals()
			return out

		case stateDone:
			if out.Signals == nil {
				out.Signals = probe.NewSignals()
			}
			return out
		}
	}
}

func (r *Resolver) lookup(ctx context.Context, host string) ([]string, error) {
	if r.Lookup != nil {
		return r.Lookup(ctx, host)
	}
	return net.DefaultResolver.LookupHost(ctx, host)
}

// fallback runs both degraded sub-attempts. Each is tried exactly once
// and independently; a failure in one never blocks the other.
func (r *Resolver) fallback(ctx context.Context, target string) (probe.Signals, error, error) {
	sigs := probe.NewSignals()

	regCtx, cancel := context.WithTimeout(ctx, r.timeout())
	entries, regErr := r.Registry.PendingFileRenames(regCtx, target)
	cancel()
	sigs[probe.SignalRegistryPending] = probe.FromRenames(entries, regErr)
	if regErr != nil {
		r.logf("registry fallback for %s failed: %v", target, regErr)
	}

	shareCtx, cancel := context.WithTimeout(ctx, r.timeout())
	present, shareErr := r.Share.ServicingMarkerPresent(shareCtx, target)
	cancel()
	sigs[probe.SignalServicingMarker] = probe.FromMarker(present, shareErr)
	if shareErr != nil {
		r.logf("share fallback for %s failed: %v", target, shareErr)
	}

	return sigs, regErr, shareErr
}

// fallbackFailure builds the Denied classification for a target whose
// primary transport and both fallbacks all failed.
func fallbackFailure(primaryErr, regErr, shareErr error) failure.Info {
	primary := failure.Classify(primaryErr)
	return failure.Info{
		Class: failure.ClassFallbackFailed,
		Reason: fmt.Sprintf("primary transport failed (%s); registry fallback: %s; share fallback: %s",
			primary.Class, errText(regErr), errText(shareErr)),
		RawDetail: primary.RawDetail,
	}
}

func errText(err error) string {
	if err == nil {
		return "no error"
	}
	return err.Error()
}

func (r *Resolver) transition(target string, from, to state) state {
	r.logf("target %s: %s -> %s", target, from, to)
	return to
}
