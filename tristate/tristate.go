// Package tristate provides the three-valued verdict type used by the
// pending-reboot checks.
//
// A Value is True, False, or Unknown. Unknown means "could not be
// determined" - a check mechanism failed - and is deliberately distinct
// from False. Combining rules never report False from partial
// information: a false negative ("no reboot needed" when one is
// actually queued) is the costlier error for an operator than an
// honest Unknown.
package tristate

import "fmt"

// Value is a three-valued truth value.
// The zero value is Unknown.
type Value int

const (
	// Unknown indicates the check mechanism itself failed and the
	// signal could not be determined.
	Unknown Value = iota
	// False indicates the signal was checked and is definitively absent.
	False
	// True indicates the signal was checked and is definitively present.
	True
)

// String returns the canonical name of the value.
func (v Value) String() string {
	switch v {
	case True:
		return "True"
	case False:
		return "False"
	case Unknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Invalid(%d)", int(v))
	}
}

// MarshalJSON encodes the value as its canonical name.
func (v Value) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// FromBool converts a definite boolean outcome to a Value.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Parse converts a canonical name back to a Value. Unrecognized input
// parses as Unknown.
func Parse(s string) Value {
	switch s {
	case "True":
		return True
	case "False":
		return False
	default:
		return Unknown
	}
}

// Resolve combines two signal verdicts into one aggregate verdict.
//
// The rule, in order:
//  1. either signal True -> True
//  2. both signals False -> False
//  3. otherwise -> Unknown
//
// Any True wins outright; False requires full consensus. Resolve is
// total over {True, False, Unknown}^2 and commutative.
func Resolve(a, b Value) Value {
	switch {
	case a == True || b == True:
		return True
	case a == False && b == False:
		return False
	default:
		return Unknown
	}
}
