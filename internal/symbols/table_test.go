package symbols

import (
	"strings"
	"testing"

	"github.com/NathanBHay/shackle/internal/diag"
	"github.com/NathanBHay/shackle/internal/hir"
	"github.com/NathanBHay/shackle/internal/parser"
	"github.com/NathanBHay/shackle/internal/source"
	"github.com/NathanBHay/shackle/internal/types"
)

type scopeEnv struct {
	fs    *source.FileSet
	strs  *source.Interner
	tin   *types.Interner
	lower *hir.Lowerer
	frags []*hir.Fragment
}

func newScopeEnv() *scopeEnv {
	env := &scopeEnv{
		fs:   source.NewFileSet(),
		strs: source.NewInterner(),
		tin:  types.NewInterner(),
	}
	env.lower = hir.NewLowerer(hir.NewAllocator(), env.tin, env.strs)
	return env
}

func (env *scopeEnv) addFile(t *testing.T, path, text string) *hir.Fragment {
	t.Helper()
	id := env.fs.AddVirtual(path, []byte(text))
	f := env.fs.Get(id)
	root := parser.New().Parse(id, f.Content)
	frag := env.lower.LowerFile(id, path, f.Version, root, nil, diag.NopReporter{})
	env.frags = append(env.frags, frag)
	return frag
}

func (env *scopeEnv) build(rep diag.Reporter) *Table {
	table := NewTable(Hints{}, env.strs)
	BuildGlobal(table, env.tin, env.frags, rep)
	for _, frag := range env.frags {
		BuildLexical(table, frag)
	}
	return table
}

func TestGlobalScopeAcrossFragments(t *testing.T) {
	env := newScopeEnv()
	env.addFile(t, "lib.mzn", "var int: shared;\nfunction int: f(int: x) = x;")
	env.addFile(t, "model.mzn", "constraint shared > 0;")

	bag := diag.NewBag(16)
	table := env.build(diag.BagReporter{Bag: bag})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}

	name := env.strs.Intern("shared")
	ids := table.Lookup(table.Global(), name)
	if len(ids) != 1 || table.Symbols.Get(ids[0]).Kind != SymbolVariable {
		t.Fatalf("lookup shared = %v", ids)
	}
}

func TestGlobalDuplicateFlagsLaterSite(t *testing.T) {
	env := newScopeEnv()
	env.addFile(t, "m.mzn", "var int: x;\nvar float: x;")

	bag := diag.NewBag(16)
	table := env.build(diag.BagReporter{Bag: bag})

	if bag.Len() != 1 || bag.Items()[0].Code != diag.ScopeDuplicateDeclaration {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
	// the first declaration wins
	ids := table.Lookup(table.Global(), env.strs.Intern("x"))
	if len(ids) != 1 {
		t.Fatalf("lookup x = %v", ids)
	}
	if got := table.Symbols.Get(ids[0]).Type; got != env.tin.Builtins().VarInt {
		t.Fatalf("surviving x type = %s", env.tin.Render(got, env.strs))
	}
}

func TestOverloadsShareAName(t *testing.T) {
	env := newScopeEnv()
	env.addFile(t, "m.mzn", strings.Join([]string{
		"function int: f(int: x) = x;",
		"function float: f(float: x) = x;",
		"predicate f(var bool: b) = b;",
	}, "\n"))

	bag := diag.NewBag(16)
	table := env.build(diag.BagReporter{Bag: bag})
	if bag.Len() != 0 {
		t.Fatalf("overloads flagged as duplicates: %v", bag.Items())
	}
	ids := table.LookupCallables(table.Global(), env.strs.Intern("f"))
	if len(ids) != 3 {
		t.Fatalf("overload set size = %d, want 3", len(ids))
	}
}

func TestEnumMembersEnterGlobalScope(t *testing.T) {
	env := newScopeEnv()
	env.addFile(t, "m.mzn", "enum Color = {Red, Green};")

	table := env.build(diag.NopReporter{})
	ids := table.Lookup(table.Global(), env.strs.Intern("Red"))
	if len(ids) != 1 || table.Symbols.Get(ids[0]).Kind != SymbolEnumMember {
		t.Fatalf("Red = %v", ids)
	}
}

func TestAssignmentChecks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want diag.Code
	}{
		{"undeclared", "x = 1;", diag.ScopeAssignUndeclared},
		{"double assign", "int: x;\nx = 1;\nx = 2;", diag.ScopeDuplicateDeclaration},
		{"enum reassigned", "enum E = {A};\nE = {A};", diag.ScopeEnumReassigned},
		{"assign before declaring include order", "x = 1;\nint: x;", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newScopeEnv()
			env.addFile(t, "m.mzn", tt.text)
			bag := diag.NewBag(16)
			env.build(diag.BagReporter{Bag: bag})
			if tt.want == 0 {
				if bag.Len() != 0 {
					t.Fatalf("unexpected diagnostics: %v", bag.Items())
				}
				return
			}
			if bag.Len() != 1 || bag.Items()[0].Code != tt.want {
				t.Fatalf("diagnostics = %v, want %v", bag.Items(), tt.want)
			}
		})
	}
}

func TestLetShadowsSilently(t *testing.T) {
	env := newScopeEnv()
	text := "int: x = 1;\nconstraint let { int: x = 2; } in x > 0;"
	frag := env.addFile(t, "m.mzn", text)

	bag := diag.NewBag(16)
	table := env.build(diag.BagReporter{Bag: bag})
	if bag.Len() != 0 {
		t.Fatalf("shadowing produced diagnostics: %v", bag.Items())
	}

	// the let body's x resolves to the binding, not the global
	var bodyIdent *hir.Expr
	hir.WalkExprs(frag.Items[1], func(e *hir.Expr) {
		if e.Kind == hir.ExprLet {
			bodyIdent = e.Body.Args[0] // `x > 0` is a call; first arg is x
		}
	})
	if bodyIdent == nil || bodyIdent.Kind != hir.ExprIdent {
		t.Fatalf("did not find let body identifier")
	}
	sc := table.ScopeOf(bodyIdent.ID)
	ids := table.Lookup(sc, env.strs.Intern("x"))
	if len(ids) != 1 || table.Symbols.Get(ids[0]).Kind != SymbolLocal {
		t.Fatalf("let body x resolved to %v", ids)
	}
}

func TestGeneratorScopeOrdering(t *testing.T) {
	env := newScopeEnv()
	frag := env.addFile(t, "m.mzn", "constraint forall([i | i in 1..3, j in [i]]);")

	table := env.build(diag.NopReporter{})
	var comp *hir.Expr
	hir.WalkExprs(frag.Items[0], func(e *hir.Expr) {
		if e.Kind == hir.ExprComprehension {
			comp = e
		}
	})
	if comp == nil {
		t.Fatalf("no comprehension lowered")
	}
	// `[i]` in the second generator sees the first generator's i
	src := comp.Gens[1].Source
	sc := table.ScopeOf(src.Args[0].ID)
	ids := table.Lookup(sc, env.strs.Intern("i"))
	if len(ids) != 1 || table.Symbols.Get(ids[0]).Kind != SymbolGenerator {
		t.Fatalf("generator i resolved to %v", ids)
	}
	// the first generator's source must not see the later j
	first := table.ScopeOf(comp.Gens[0].Source.ID)
	if got := table.Lookup(first, env.strs.Intern("j")); len(got) != 0 {
		t.Fatalf("first generator source sees later generator: %v", got)
	}
}

func TestLookupCallablesInnermostWins(t *testing.T) {
	table := NewTable(Hints{}, nil)
	name := table.Strings.Intern("f")
	global := table.Global()
	outer := table.Declare(global, &Symbol{Name: name, Kind: SymbolFunction})
	child := table.Scopes.New(ScopeLet, global, hir.NoNodeID, source.Span{})
	inner := table.Declare(child, &Symbol{Name: name, Kind: SymbolPredicate})

	// the inner binding hides the outer overloads instead of merging
	if got := table.LookupCallables(child, name); len(got) != 1 || got[0] != inner {
		t.Fatalf("LookupCallables from child = %v, want [%v]", got, inner)
	}
	if got := table.LookupCallables(global, name); len(got) != 1 || got[0] != outer {
		t.Fatalf("LookupCallables from global = %v, want [%v]", got, outer)
	}
}

func TestScopeAt(t *testing.T) {
	env := newScopeEnv()
	text := "int: g = 1;\nconstraint let { int: inner = 2; } in inner > g;"
	frag := env.addFile(t, "m.mzn", text)
	table := env.build(diag.NopReporter{})

	off := uint32(strings.Index(text, "inner >"))
	sc := table.ScopeAt(frag.File, off)
	if table.Scopes.Get(sc).Kind != ScopeLet {
		t.Fatalf("scope at let body = %s", table.Scopes.Get(sc).Kind)
	}
	visible := table.VisibleAt(sc)
	if _, ok := visible[env.strs.Intern("inner")]; !ok {
		t.Fatalf("inner not visible in let scope")
	}
	if _, ok := visible[env.strs.Intern("g")]; !ok {
		t.Fatalf("global g not visible from let scope")
	}

	if got := table.ScopeAt(frag.File, 0); table.Scopes.Get(got).Kind != ScopeGlobal {
		t.Fatalf("scope at file start = %s", table.Scopes.Get(got).Kind)
	}
}
