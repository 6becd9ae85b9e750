package types

import (
	"testing"

	"github.com/NathanBHay/shackle/internal/source"
)

func TestInternerDedup(t *testing.T) {
	in := NewInterner()

	a := in.Intern(TypeInst{Kind: KindInt, Inst: InstVar})
	b := in.Intern(TypeInst{Kind: KindInt, Inst: InstVar})
	c := in.Intern(TypeInst{Kind: KindInt})

	if a != b {
		t.Fatalf("structurally equal descriptors got different ids: %v vs %v", a, b)
	}
	if a == c {
		t.Fatalf("par and var int must not share an id")
	}
	if a != in.Builtins().VarInt {
		t.Fatalf("var int should match the seeded builtin")
	}
}

func TestInternerStructured(t *testing.T) {
	in := NewInterner()
	bt := in.Builtins()

	arr1 := in.ArrayOf([]TypeID{bt.ParInt}, bt.VarFloat)
	arr2 := in.ArrayOf([]TypeID{bt.ParInt}, bt.VarFloat)
	arr3 := in.ArrayOf([]TypeID{bt.ParInt, bt.ParInt}, bt.VarFloat)

	if arr1 != arr2 {
		t.Fatalf("same array descriptors differ: %v vs %v", arr1, arr2)
	}
	if arr1 == arr3 {
		t.Fatalf("different dimension counts share an id")
	}

	got := in.MustLookup(arr3)
	if got.Kind != KindArray || len(got.Dims) != 2 || got.Elem != bt.VarFloat {
		t.Fatalf("lookup mismatch: %+v", got)
	}
}

func TestInternerWithInst(t *testing.T) {
	in := NewInterner()
	bt := in.Builtins()

	if got := in.WithInst(bt.ParInt, InstVar); got != bt.VarInt {
		t.Fatalf("WithInst(par int, var) = %v, want %v", got, bt.VarInt)
	}
	if got := in.WithInst(bt.VarInt, InstVar); got != bt.VarInt {
		t.Fatalf("WithInst should be identity for same inst")
	}
}

func TestRender(t *testing.T) {
	in := NewInterner()
	strs := source.NewInterner()
	bt := in.Builtins()

	tyVar := in.TypeVar(strs.Intern("$T"), KindTypeVar)
	arr := in.ArrayOf([]TypeID{bt.ParInt}, tyVar)
	optVarInt := in.WithOpt(bt.VarInt, true)

	tests := []struct {
		id   TypeID
		want string
	}{
		{bt.ParInt, "int"},
		{bt.VarBool, "var bool"},
		{optVarInt, "var opt int"},
		{in.SetOf(bt.ParInt, InstPar), "set of int"},
		{arr, "array[int] of $T"},
		{in.TupleOf([]TypeID{bt.ParInt, bt.ParString}), "tuple(int, string)"},
	}
	for _, tt := range tests {
		if got := in.Render(tt.id, strs); got != tt.want {
			t.Errorf("Render(%v) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
