package source

import "testing"

func TestInternerDedup(t *testing.T) {
	in := NewInterner()

	a := in.Intern("forall")
	b := in.Intern("forall")
	c := in.Intern("exists")

	if a != b {
		t.Fatalf("same string interned twice: %v vs %v", a, b)
	}
	if a == c {
		t.Fatalf("distinct strings share an ID")
	}
	if got := in.MustLookup(a); got != "forall" {
		t.Fatalf("MustLookup = %q", got)
	}
}

func TestInternerEmptyString(t *testing.T) {
	in := NewInterner()

	if got := in.Intern(""); got != NoStringID {
		t.Fatalf("empty string should map to NoStringID, got %v", got)
	}
	if s, ok := in.Lookup(NoStringID); !ok || s != "" {
		t.Fatalf("Lookup(NoStringID) = (%q, %v)", s, ok)
	}
}

func TestInternerLookupUnknown(t *testing.T) {
	in := NewInterner()

	if _, ok := in.Lookup(StringID(42)); ok {
		t.Fatalf("unknown ID should not resolve")
	}
}

func TestInternerBytes(t *testing.T) {
	in := NewInterner()

	buf := []byte("sum")
	id := in.InternBytes(buf)
	buf[0] = 'x' // the interner must have copied

	if got := in.MustLookup(id); got != "sum" {
		t.Fatalf("interner aliased caller buffer: %q", got)
	}
}
