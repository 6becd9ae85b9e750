package sema

import (
	"strings"
	"testing"

	"github.com/NathanBHay/shackle/internal/diag"
	"github.com/NathanBHay/shackle/internal/hir"
	"github.com/NathanBHay/shackle/internal/parser"
	"github.com/NathanBHay/shackle/internal/source"
	"github.com/NathanBHay/shackle/internal/symbols"
	"github.com/NathanBHay/shackle/internal/types"
)

type semaEnv struct {
	fs    *source.FileSet
	strs  *source.Interner
	tin   *types.Interner
	alloc *hir.Allocator
	lower *hir.Lowerer
	table *symbols.Table
	frag  *hir.Fragment
}

// resolveModel runs the full front half of the pipeline over one model
// text: parse, lower, prelude, scopes, resolve.
func resolveModel(t *testing.T, text string) (*semaEnv, *Result, *diag.Bag) {
	t.Helper()
	env := &semaEnv{
		fs:    source.NewFileSet(),
		strs:  source.NewInterner(),
		tin:   types.NewInterner(),
		alloc: hir.NewAllocator(),
	}
	env.lower = hir.NewLowerer(env.alloc, env.tin, env.strs)

	id := env.fs.AddVirtual("model.mzn", []byte(text))
	f := env.fs.Get(id)
	root := parser.New().Parse(id, f.Content)

	bag := diag.NewBag(64)
	rep := diag.BagReporter{Bag: bag}
	env.frag = env.lower.LowerFile(id, "model.mzn", f.Version, root, nil, rep)

	prelude := Prelude(env.alloc, env.tin, env.strs)
	env.table = symbols.NewTable(symbols.Hints{}, env.strs)
	frags := []*hir.Fragment{prelude, env.frag}
	symbols.BuildGlobal(env.table, env.tin, frags, rep)
	symbols.BuildLexical(env.table, env.frag)

	res := ResolveFragment(env.table, env.tin, env.frag, rep)
	return env, res, bag
}

func constraintExpr(t *testing.T, frag *hir.Fragment) *hir.Expr {
	t.Helper()
	for _, it := range frag.Items {
		if it.Kind == hir.ItemConstraint {
			return it.Expr
		}
	}
	t.Fatalf("model has no constraint item")
	return nil
}

func wantType(t *testing.T, env *semaEnv, res *Result, id hir.NodeID, want types.TypeID) {
	t.Helper()
	got, ok := res.Types[id]
	if !ok {
		t.Fatalf("no inferred type for %v", id)
	}
	if got != want {
		t.Fatalf("type = %s, want %s",
			env.tin.Render(got, env.strs), env.tin.Render(want, env.strs))
	}
}

func TestResolveParPicksParOverload(t *testing.T) {
	env, res, bag := resolveModel(t, "int: x = 1;\nconstraint x < 2;")
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %v", bag.Items())
	}
	wantType(t, env, res, constraintExpr(t, env.frag).ID, env.tin.Builtins().ParBool)
}

func TestResolveVarPicksVarOverload(t *testing.T) {
	env, res, bag := resolveModel(t, "var int: x;\nconstraint x < 2;")
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %v", bag.Items())
	}
	wantType(t, env, res, constraintExpr(t, env.frag).ID, env.tin.Builtins().VarBool)
}

func TestResolveIntWidensToFloat(t *testing.T) {
	env, res, bag := resolveModel(t, "constraint 1.5 < 2;")
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %v", bag.Items())
	}
	wantType(t, env, res, constraintExpr(t, env.frag).ID, env.tin.Builtins().ParBool)
}

func TestResolveGenericIdentity(t *testing.T) {
	env, res, bag := resolveModel(t,
		"function $T: id($T: x) = x;\nint: y = 1;\nconstraint id(y) < 2;")
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %v", bag.Items())
	}
	// the call instantiated $T = int
	cons := constraintExpr(t, env.frag)
	call := cons.Args[0]
	wantType(t, env, res, call.ID, env.tin.Builtins().ParInt)
	inst, ok := res.Insts[call.ID]
	if !ok {
		t.Fatalf("no instantiation recorded for generic call")
	}
	if got := inst[env.strs.Intern("$T")]; got != env.tin.Builtins().ParInt {
		t.Fatalf("$T bound to %s", env.tin.Render(got, env.strs))
	}
}

func TestResolveGenericArrayDims(t *testing.T) {
	env, res, bag := resolveModel(t,
		"function int: h(array[$X] of $T: a) = length(a);\nconstraint h([1.5, 2.0]) > 0;")
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %v", bag.Items())
	}
	cons := constraintExpr(t, env.frag)
	wantType(t, env, res, cons.Args[0].ID, env.tin.Builtins().ParInt)
	inst := res.Insts[cons.Args[0].ID]
	if got := inst[env.strs.Intern("$T")]; got != env.tin.Builtins().ParFloat {
		t.Fatalf("$T bound to %s", env.tin.Render(got, env.strs))
	}
}

func TestResolveGenericRepeatMustMatch(t *testing.T) {
	// $T binds on the first argument; a second occurrence has to be the
	// same type, coercion does not widen the binding
	_, _, bag := resolveModel(t, strings.Join([]string{
		"function int: h($T: x, $T: y) = 1;",
		"constraint h(1, 2) > 0;",
		"constraint h(1, 2.0) > 0;",
	}, "\n"))
	if bag.Len() != 1 || bag.Items()[0].Code != diag.ResNoMatchingOverload {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
}

func TestResolveUnknownIdentifier(t *testing.T) {
	_, _, bag := resolveModel(t, "constraint nope > 0;")
	if bag.Len() != 1 || bag.Items()[0].Code != diag.ResUnknownIdentifier {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
}

func TestResolveErrorTypeSuppressesCascades(t *testing.T) {
	// only the undefined identifier is reported; the enclosing comparison
	// stays silent
	_, _, bag := resolveModel(t, "constraint nope + 1 > 2;")
	if bag.Len() != 1 || bag.Items()[0].Code != diag.ResUnknownIdentifier {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
}

func TestResolveNoMatchingOverload(t *testing.T) {
	_, _, bag := resolveModel(t, `constraint "a" < true;`)
	if bag.Len() != 1 || bag.Items()[0].Code != diag.ResNoMatchingOverload {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
	if len(bag.Items()[0].Notes) == 0 {
		t.Fatalf("no candidate notes attached")
	}
}

func TestResolveAmbiguousOverload(t *testing.T) {
	_, _, bag := resolveModel(t, strings.Join([]string{
		"function int: f(int: a, var int: b) = a;",
		"function int: f(var int: a, int: b) = b;",
		"constraint f(1, 2) > 0;",
	}, "\n"))
	if bag.Len() != 1 || bag.Items()[0].Code != diag.ResAmbiguousOverload {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
}

func TestResolveNotCallable(t *testing.T) {
	_, _, bag := resolveModel(t, "int: x = 1;\nconstraint x(1) > 0;")
	if bag.Len() != 1 || bag.Items()[0].Code != diag.ResNotCallable {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
}

func TestResolveEnumMembers(t *testing.T) {
	env, res, bag := resolveModel(t, "enum Color = {Red, Green};\nconstraint Red != Green;")
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %v", bag.Items())
	}
	wantType(t, env, res, constraintExpr(t, env.frag).ID, env.tin.Builtins().ParBool)
}

func TestResolveAliasNormalization(t *testing.T) {
	env, res, bag := resolveModel(t, "type Size = int;\nSize: x = 3;\nconstraint x < 5;")
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %v", bag.Items())
	}
	wantType(t, env, res, constraintExpr(t, env.frag).ID, env.tin.Builtins().ParBool)
}

func TestResolveUnknownTypeName(t *testing.T) {
	_, _, bag := resolveModel(t, "Mystery: x;")
	if bag.Len() != 1 || bag.Items()[0].Code != diag.ResUnknownTypeName {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
}

func TestResolveComprehension(t *testing.T) {
	env, res, bag := resolveModel(t,
		"int: n = 3;\nconstraint forall([i > 0 | i in 1..n where i mod 2 = 1]);")
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %v", bag.Items())
	}
	wantType(t, env, res, constraintExpr(t, env.frag).ID, env.tin.Builtins().ParBool)
}

func TestResolveGeneratorSourceOrder(t *testing.T) {
	// the first generator's source runs before j exists
	_, _, bag := resolveModel(t,
		"constraint forall([true | i in j, j in [{1},{2}]]);")
	if bag.Len() != 1 || bag.Items()[0].Code != diag.ResUnknownIdentifier {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
}

func TestResolveDeterministic(t *testing.T) {
	text := strings.Join([]string{
		"function int: f(int: a) = a;",
		"function float: f(float: a) = 0.0;",
		"var int: x;",
		"constraint f(1) > 0 /\\ x < 2;",
	}, "\n")
	_, res1, _ := resolveModel(t, text)
	_, res2, _ := resolveModel(t, text)

	if len(res1.Bindings) != len(res2.Bindings) {
		t.Fatalf("binding counts differ: %d vs %d", len(res1.Bindings), len(res2.Bindings))
	}
	for id, sym := range res1.Bindings {
		if res2.Bindings[id] != sym {
			t.Fatalf("binding for %v differs between runs", id)
		}
	}
}
