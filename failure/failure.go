// Package failure classifies transport-level errors into a fixed
// taxonomy of connection failure classes.
//
// Classification is a pure function over the error's identity and
// message text: an ordered table of (predicate, class) rules is
// evaluated top to bottom and the first match wins. An error that
// matches no rule is ClassUnknown - Classify never panics and never
// returns an out-of-taxonomy class.
package failure

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
)

// Class identifies one category of connection failure.
type Class int

const (
	// ClassUnknown is the default for errors matching no rule.
	ClassUnknown Class = iota
	// ClassNameResolutionOrBadTarget covers unresolvable or malformed
	// target names.
	ClassNameResolutionOrBadTarget
	// ClassConnectionBlocked covers unreachable transports (firewall,
	// service down, no route).
	ClassConnectionBlocked
	// ClassConnectionRefused covers endpoints that actively refused.
	ClassConnectionRefused
	// ClassProtocolClientCannotProcess covers client-side protocol or
	// configuration problems.
	ClassProtocolClientCannotProcess
	// ClassAccessDenied covers authorization failures.
	ClassAccessDenied
	// ClassAuthOrTrustConfig covers credential or trust negotiation
	// failures.
	ClassAuthOrTrustConfig
	// ClassTimeout covers attempts with no response within the deadline.
	ClassTimeout
	// ClassSessionOpenFailed covers session establishment failures not
	// otherwise categorized.
	ClassSessionOpenFailed
	// ClassFallbackFailed marks a target whose primary transport failed
	// and whose fallback attempts all failed as well. It is assigned by
	// the transport resolver, never by pattern matching.
	ClassFallbackFailed
)

// String returns the canonical class name.
func (c Class) String() string {
	switch c {
	case ClassNameResolutionOrBadTarget:
		return "NameResolutionOrBadTarget"
	case ClassConnectionBlocked:
		return "ConnectionBlocked"
	case ClassConnectionRefused:
		return "ConnectionRefused"
	case ClassProtocolClientCannotProcess:
		return "ProtocolClientCannotProcess"
	case ClassAccessDenied:
		return "AccessDenied"
	case ClassAuthOrTrustConfig:
		return "AuthOrTrustConfig"
	case ClassTimeout:
		return "Timeout"
	case ClassSessionOpenFailed:
		return "SessionOpenFailed"
	case ClassFallbackFailed:
		return "FallbackFailed"
	case ClassUnknown:
		return "Unknown"
	default:
		return "Unknown"
	}
}

// MarshalJSON encodes the class as its canonical name.
func (c Class) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// Tier is the display severity of a class. It drives presentation
// only, never control flow.
type Tier int

const (
	// TierBlocking marks failures that prevented any signal from being
	// obtained over the failed transport.
	TierBlocking Tier = iota
	// TierSoft marks advisory failures.
	TierSoft
)

// Tier returns the display severity for the class.
func (c Class) Tier() Tier {
	if c == ClassNameResolutionOrBadTarget {
		return TierSoft
	}
	return TierBlocking
}

// Info describes one classified failure. Immutable once constructed.
type Info struct {
	Class     Class
	Reason    string
	RawDetail string
}

// ErrSessionOpen marks an error as a session establishment failure.
// Transport adapters wrap their session-open errors with this sentinel
// so classification does not depend on a library's message text.
var ErrSessionOpen = errors.New("session open failed")

type rule struct {
	match  func(error, string) bool
	class  Class
	reason string
}

func anyOf(substrings ...string) func(error, string) bool {
	return func(_ error, msg string) bool {
		for _, s := range substrings {
			if strings.Contains(msg, s) {
				return true
			}
		}
		return false
	}
}

// rules is evaluated in order; first match wins. Order follows the
// taxonomy: specific network conditions before the broad timeout and
// session buckets.
var rules = []rule{
	{
		match: func(err error, msg string) bool {
			var dnsErr *net.DNSError
			if errors.As(err, &dnsErr) {
				return true
			}
			return anyOf("no such host", "cannot resolve", "server misbehaving", "invalid target")(err, msg)
		},
		class:  ClassNameResolutionOrBadTarget,
		reason: "target name does not resolve or is malformed",
	},
	{
		match:  anyOf("no route to host", "network is unreachable", "host is down", "unreachable"),
		class:  ClassConnectionBlocked,
		reason: "transport unreachable (firewall or service down)",
	},
	{
		match:  anyOf("connection refused", "actively refused", "connection reset"),
		class:  ClassConnectionRefused,
		reason: "remote endpoint refused the connection",
	},
	{
		match:  anyOf("cannot process the request", "client cannot process", "invalid content type", "unencrypted traffic"),
		class:  ClassProtocolClientCannotProcess,
		reason: "client-side protocol or configuration problem",
	},
	{
		match: func(err error, msg string) bool {
			if errors.Is(err, os.ErrPermission) {
				return true
			}
			return anyOf("access is denied", "access denied", "401", "unauthorized")(err, msg)
		},
		class:  ClassAccessDenied,
		reason: "authorization failure",
	},
	{
		match:  anyOf("kerberos", "ntlm", "credential", "trust relationship", "certificate", "x509", "logon failure", "authentication"),
		class:  ClassAuthOrTrustConfig,
		reason: "credential or trust negotiation failure",
	},
	{
		match: func(err error, msg string) bool {
			if errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return true
			}
			return anyOf("timeout", "timed out", "deadline exceeded")(err, msg)
		},
		class:  ClassTimeout,
		reason: "no response within the deadline",
	},
	{
		match: func(err error, msg string) bool {
			if errors.Is(err, ErrSessionOpen) {
				return true
			}
			return anyOf("failed to create shell", "session open")(err, msg)
		},
		class:  ClassSessionOpenFailed,
		reason: "session establishment failed",
	},
}

// Classify assigns err to a failure class. It never panics; a nil or
// unrecognized error yields ClassUnknown.
func Classify(err error) Info {
	if err == nil {
		return Info{Class: ClassUnknown, Reason: "unclassified failure"}
	}
	msg := strings.ToLower(err.Error())
	for _, r := range rules {
		if r.match(err, msg) {
			return Info{Class: r.class, Reason: r.reason, RawDetail: err.Error()}
		}
	}
	return Info{Class: ClassUnknown, Reason: "unclassified failure", RawDetail: err.Error()}
}
