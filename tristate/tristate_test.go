package tristate

import "testing"

func TestResolveTotality(t *testing.T) {
	all := []Value{True, False, Unknown}

	cases := map[[2]Value]Value{
		{True, True}:       True,
		{True, False}:      True,
		{True, Unknown}:    True,
		{False, True}:      True,
		{False, False}:     False,
		{False, Unknown}:   Unknown,
		{Unknown, True}:    True,
		{Unknown, False}:   Unknown,
		{Unknown, Unknown}: Unknown,
	}

	for _, a := range all {
		for _, b := range all {
			want, ok := cases[[2]Value{a, b}]
			if !ok {
				t.Fatalf("no expectation for Resolve(%s, %s)", a, b)
			}
			if got := Resolve(a, b); got != want {
				t.Errorf("Resolve(%s, %s) = %s, want %s", a, b, got, want)
			}
		}
	}
}

func TestResolveCommutative(t *testing.T) {
	all := []Value{True, False, Unknown}
	for _, a := range all {
		for _, b := range all {
			if Resolve(a, b) != Resolve(b, a) {
				t.Errorf("Resolve(%s, %s) != Resolve(%s, %s)", a, b, b, a)
			}
		}
	}
}

func TestResolveNeverFalseFromPartial(t *testing.T) {
	// False must require both signals to be definitively False.
	for _, other := range []Value{True, Unknown} {
		if Resolve(False, other) == False {
			t.Errorf("Resolve(False, %s) reported False from partial information", other)
		}
	}
}

func TestString(t *testing.T) {
	if True.String() != "True" || False.String() != "False" || Unknown.String() != "Unknown" {
		t.Errorf("unexpected String output: %s %s %s", True, False, Unknown)
	}
	if got := Value(42).String(); got != "Invalid(42)" {
		t.Errorf("Value(42).String() = %q", got)
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, v := range []Value{True, False, Unknown} {
		if got := Parse(v.String()); got != v {
			t.Errorf("Parse(%q) = %s, want %s", v.String(), got, v)
		}
	}
	if got := Parse("maybe"); got != Unknown {
		t.Errorf("Parse of unrecognized input = %s, want Unknown", got)
	}
}

func TestZeroValueIsUnknown(t *testing.T) {
	var v Value
	if v != Unknown {
		t.Errorf("zero Value = %s, want Unknown", v)
	}
}

func TestMarshalJSON(t *testing.T) {
	b, err := True.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if string(b) != `"True"` {
		t.Errorf("MarshalJSON = %s, want %q", b, `"True"`)
	}
}
