// Package rebootcheck detects pending reboots on Windows hosts.
//
// A host needs a reboot when OS-level work is queued behind a restart.
// This library checks two independent signals - the pending file
// rename queue in the registry and the component servicing marker file
// - and combines them into a single tri-state verdict: True, False, or
// Unknown when no signal could be determined. Absence of a definitive
// signal is never reported as "no reboot needed".
//
// # Architecture
//
// The library is organized into layers:
//
//   - engine: batch orchestration, result streaming, run summary
//   - resolver: the per-target transport state machine
//   - probe: signal definitions and the transport read contract
//   - failure: transport error classification taxonomy
//   - tristate: the three-valued verdict type and combine rule
//   - transport/local, transport/wsman, transport/remreg,
//     transport/share: concrete transports
//
// # Transport Chain
//
// Local targets are probed in-process. Remote targets are reached over
// WinRM, reading both signals in one remote round trip; when the
// listener is unreachable and fallback is enabled, direct remote
// registry and admin-share access are each tried once. A target is
// connection-denied only when no transport yielded any usable signal.
//
// # Basic Usage
//
//	res := resolver.New(local.New(), session, remreg.New(), shareAcc)
//	e := engine.New(res)
//	sum, err := e.Run(ctx, targets, engine.Options{EnableFallback: true},
//	    func(r engine.CheckResult) { fmt.Println(r.Target, r.RebootRequired) })
package rebootcheck

// Version is the library version.
const Version = "0.1.0"
