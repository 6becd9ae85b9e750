// Package sema resolves names and calls over lowered fragments: identifiers
// bind to symbols, call sites pick an overload by unifying argument types
// against candidate signatures, and the chosen instantiation is recorded per
// call. Resolution is tolerant: nodes that already carry a syntax error get
// the silent error type and produce no further diagnostics.
package sema

import (
	"github.com/NathanBHay/shackle/internal/hir"
	"github.com/NathanBHay/shackle/internal/source"
	"github.com/NathanBHay/shackle/internal/types"
)

// Prelude builds the builtin declarations every model sees: the operators
// (lowered calls target these) and the core library functions. The returned
// fragment has no source file; it is prepended to every include closure
// before the global scope is built.
func Prelude(alloc *hir.Allocator, tin *types.Interner, strs *source.Interner) *hir.Fragment {
	b := &preludeBuilder{
		alloc: alloc,
		tin:   tin,
		strs:  strs,
		frag: &hir.Fragment{
			Path:  "<prelude>",
			Spans: make(hir.SourceMap),
		},
	}
	bt := tin.Builtins()
	tv := tin.TypeVar(strs.Intern("$T"), types.KindTypeVar)
	ev := tin.TypeVar(strs.Intern("$$E"), types.KindSetTypeVar)
	dim := tin.TypeVar(strs.Intern("$X"), types.KindTypeVar)

	varOf := func(id types.TypeID) types.TypeID { return tin.WithInst(id, types.InstVar) }
	setOf := func(id types.TypeID) types.TypeID { return tin.SetOf(id, types.InstPar) }
	arrOf := func(elem types.TypeID) types.TypeID {
		return tin.ArrayOf([]types.TypeID{dim}, elem)
	}

	// arithmetic
	for _, num := range []types.TypeID{bt.ParInt, bt.ParFloat} {
		v := varOf(num)
		for _, op := range []string{"+", "-", "*"} {
			b.fn(op, num, num, num)
			b.fn(op, v, v, v)
		}
		b.fn("-", num, num) // unary negation
		b.fn("-", v, v)
		b.fn("abs", num, num)
		b.fn("abs", v, v)
		for _, op := range []string{"min", "max"} {
			b.fn(op, num, num, num)
			b.fn(op, v, v, v)
		}
	}
	b.fn("/", bt.ParFloat, bt.ParFloat, bt.ParFloat)
	b.fn("/", bt.VarFloat, bt.VarFloat, bt.VarFloat)
	for _, op := range []string{"div", "mod"} {
		b.fn(op, bt.ParInt, bt.ParInt, bt.ParInt)
		b.fn(op, bt.VarInt, bt.VarInt, bt.VarInt)
	}

	// comparison; `==` lowers to `=`
	for _, cmp := range []string{"=", "!=", "<", "<=", ">", ">="} {
		for _, ty := range []types.TypeID{bt.ParInt, bt.ParFloat, bt.ParBool, bt.ParString} {
			b.fn(cmp, bt.ParBool, ty, ty)
		}
		for _, ty := range []types.TypeID{bt.VarInt, bt.VarFloat, bt.VarBool} {
			b.fn(cmp, bt.VarBool, ty, ty)
		}
	}
	b.fn("=", bt.ParBool, ev, ev) // enum atoms and other enumerable scalars
	b.fn("!=", bt.ParBool, ev, ev)
	b.fn("=", bt.ParBool, setOf(ev), setOf(ev))
	b.fn("!=", bt.ParBool, setOf(ev), setOf(ev))

	// logic
	for _, op := range []string{"/\\", "\\/", "->", "<-", "<->", "xor"} {
		b.fn(op, bt.ParBool, bt.ParBool, bt.ParBool)
		b.fn(op, bt.VarBool, bt.VarBool, bt.VarBool)
	}
	b.fn("not", bt.ParBool, bt.ParBool)
	b.fn("not", bt.VarBool, bt.VarBool)

	// sets
	b.fn("..", setOf(bt.ParInt), bt.ParInt, bt.ParInt)
	b.fn("in", bt.ParBool, ev, setOf(ev))
	b.fn("in", bt.VarBool, bt.VarInt, setOf(bt.ParInt))
	for _, op := range []string{"union", "diff", "symdiff", "intersect"} {
		b.fn(op, setOf(ev), setOf(ev), setOf(ev))
	}
	for _, op := range []string{"subset", "superset"} {
		b.fn(op, bt.ParBool, setOf(ev), setOf(ev))
	}
	b.fn("card", bt.ParInt, setOf(ev))

	// arrays and strings
	b.fn("++", arrOf(tv), arrOf(tv), arrOf(tv))
	b.fn("++", bt.ParString, bt.ParString, bt.ParString)
	b.fn("length", bt.ParInt, arrOf(tv))
	b.fn("forall", bt.ParBool, arrOf(bt.ParBool))
	b.fn("forall", bt.VarBool, arrOf(bt.VarBool))
	b.fn("exists", bt.ParBool, arrOf(bt.ParBool))
	b.fn("exists", bt.VarBool, arrOf(bt.VarBool))
	for _, num := range []types.TypeID{bt.ParInt, bt.ParFloat} {
		b.fn("sum", num, arrOf(num))
		b.fn("sum", varOf(num), arrOf(varOf(num)))
	}

	// conversions and output
	b.fn("show", bt.ParString, tv)
	b.fn("bool2int", bt.ParInt, bt.ParBool)
	b.fn("bool2int", bt.VarInt, bt.VarBool)
	b.fn("int2float", bt.ParFloat, bt.ParInt)
	b.fn("int2float", bt.VarFloat, bt.VarInt)
	b.fn("assert", bt.ParBool, bt.ParBool, bt.ParString)

	return b.frag
}

type preludeBuilder struct {
	alloc *hir.Allocator
	tin   *types.Interner
	strs  *source.Interner
	frag  *hir.Fragment
}

func (b *preludeBuilder) fn(name string, result types.TypeID, params ...types.TypeID) {
	f := &hir.Function{
		ID:      b.alloc.Next(),
		Name:    b.strs.Intern(name),
		Result:  result,
		Builtin: true,
	}
	for i, p := range params {
		f.Params = append(f.Params, &hir.Param{
			ID:   b.alloc.Next(),
			Name: b.strs.Intern(paramName(i)),
			Type: &hir.TypeNode{ID: b.alloc.Next(), Type: p},
		})
	}
	b.frag.Items = append(b.frag.Items, &hir.Item{
		ID:   b.alloc.Next(),
		Kind: hir.ItemFunction,
		Func: f,
	})
}

func paramName(i int) string {
	names := [...]string{"a", "b", "c", "d"}
	if i < len(names) {
		return names[i]
	}
	return "arg"
}
