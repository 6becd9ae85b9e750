package symbols

import (
	"fmt"

	"github.com/NathanBHay/shackle/internal/diag"
	"github.com/NathanBHay/shackle/internal/hir"
	"github.com/NathanBHay/shackle/internal/source"
	"github.com/NathanBHay/shackle/internal/types"
)

// BuildGlobal assembles the workspace-wide scope from the include closure.
// Fragments must arrive in depth-first include order, each file once; later
// fragments see names declared by earlier ones. The first declaration of a
// name wins and every later non-callable duplicate is flagged at its own
// site. Callables of the same name accumulate into an overload set instead.
func BuildGlobal(t *Table, tin *types.Interner, frags []*hir.Fragment, rep diag.Reporter) ScopeID {
	g := &globalBuilder{t: t, tin: tin, rep: rep, scope: t.Global()}
	for _, frag := range frags {
		for _, it := range frag.Items {
			g.item(frag, it)
		}
	}
	// assignments run after all declarations so that a model file can assign
	// names a later include declares
	for _, frag := range frags {
		for _, it := range frag.Items {
			if it.Kind == hir.ItemAssignment {
				g.assignment(frag, it)
			}
		}
	}
	return g.scope
}

type globalBuilder struct {
	t     *Table
	tin   *types.Interner
	rep   diag.Reporter
	scope ScopeID
}

func (g *globalBuilder) span(frag *hir.Fragment, id hir.NodeID) source.Span {
	sp, _ := frag.Spans.Span(id)
	return sp
}

func (g *globalBuilder) name(id source.StringID) string {
	s, _ := g.t.Strings.Lookup(id)
	return s
}

func (g *globalBuilder) item(frag *hir.Fragment, it *hir.Item) {
	switch it.Kind {
	case hir.ItemDeclaration:
		d := it.Decl
		g.declareUnique(&Symbol{
			Name: d.Name,
			Kind: SymbolVariable,
			Node: d.ID,
			Span: g.span(frag, d.ID),
			Type: d.Type.Type,
		})
		if d.Init != nil {
			g.markAssigned(d.Name)
		}

	case hir.ItemFunction, hir.ItemPredicate, hir.ItemTest:
		g.declareCallable(frag, it)

	case hir.ItemEnum:
		e := it.Enum
		enumType := g.tin.EnumOf(e.Name)
		sym := &Symbol{
			Name: e.Name,
			Kind: SymbolEnum,
			Node: e.ID,
			Span: g.span(frag, e.ID),
			// an enum name in expression position denotes its member set
			Type: g.tin.SetOf(enumType, types.InstPar),
		}
		if len(e.Members) > 0 {
			sym.Flags |= SymbolFlagAssigned
		}
		g.declareUnique(sym)
		for _, m := range e.Members {
			g.declareUnique(&Symbol{
				Name: m.Name,
				Kind: SymbolEnumMember,
				Node: m.ID,
				Span: g.span(frag, m.ID),
				Type: enumType,
			})
		}

	case hir.ItemTypeAlias:
		a := it.Alias
		g.declareUnique(&Symbol{
			Name: a.Name,
			Kind: SymbolTypeAlias,
			Node: a.ID,
			Span: g.span(frag, a.ID),
			Type: a.Type.Type,
		})
	}
}

// declareUnique adds a non-callable symbol, flagging duplicates at the
// later site and keeping the first binding authoritative.
func (g *globalBuilder) declareUnique(sym *Symbol) {
	if prev := g.t.Scopes.Get(g.scope).NameIndex[sym.Name]; len(prev) > 0 {
		first := g.t.Symbols.Get(prev[0])
		diag.ReportError(g.rep, diag.ScopeDuplicateDeclaration, sym.Span,
			fmt.Sprintf("%q is already declared", g.name(sym.Name))).
			WithNote(first.Span, "first declared here").
			Emit()
		return
	}
	g.t.Declare(g.scope, sym)
}

func (g *globalBuilder) declareCallable(frag *hir.Fragment, it *hir.Item) {
	f := it.Func
	kind := SymbolFunction
	switch it.Kind {
	case hir.ItemPredicate:
		kind = SymbolPredicate
	case hir.ItemTest:
		kind = SymbolTest
	}
	sym := &Symbol{
		Name: f.Name,
		Kind: kind,
		Node: f.ID,
		Span: g.span(frag, f.ID),
		Type: f.Result,
		Func: f,
	}
	if f.Builtin {
		sym.Flags |= SymbolFlagBuiltin
	}
	if prev := g.t.Scopes.Get(g.scope).NameIndex[sym.Name]; len(prev) > 0 {
		if first := g.t.Symbols.Get(prev[0]); !first.Kind.IsCallable() {
			diag.ReportError(g.rep, diag.ScopeDuplicateDeclaration, sym.Span,
				fmt.Sprintf("%q is already declared as a %s", g.name(sym.Name), first.Kind)).
				WithNote(first.Span, "first declared here").
				Emit()
			return
		}
	}
	g.t.Declare(g.scope, sym)
}

// assignment checks `name = expr;` items against the declarations collected
// over the whole closure.
func (g *globalBuilder) assignment(frag *hir.Fragment, it *hir.Item) {
	a := it.Assign
	sp := g.span(frag, a.NameID)
	ids := g.t.Scopes.Get(g.scope).NameIndex[a.Name]
	if len(ids) == 0 {
		diag.ReportError(g.rep, diag.ScopeAssignUndeclared, sp,
			fmt.Sprintf("assignment to undeclared name %q", g.name(a.Name))).Emit()
		return
	}
	sym := g.t.Symbols.Get(ids[0])
	switch {
	case sym.Kind == SymbolEnum:
		if sym.Flags&SymbolFlagAssigned != 0 {
			diag.ReportError(g.rep, diag.ScopeEnumReassigned, sp,
				fmt.Sprintf("enum %q already has its members", g.name(a.Name))).
				WithNote(sym.Span, "declared here").
				Emit()
			return
		}
		sym.Flags |= SymbolFlagAssigned
	case sym.Kind == SymbolVariable:
		if sym.Flags&SymbolFlagAssigned != 0 {
			diag.ReportError(g.rep, diag.ScopeDuplicateDeclaration, sp,
				fmt.Sprintf("%q is assigned more than once", g.name(a.Name))).
				WithNote(sym.Span, "declared here").
				Emit()
			return
		}
		sym.Flags |= SymbolFlagAssigned
	default:
		diag.ReportError(g.rep, diag.ScopeAssignUndeclared, sp,
			fmt.Sprintf("cannot assign to %s %q", sym.Kind, g.name(a.Name))).Emit()
	}
}

func (g *globalBuilder) markAssigned(name source.StringID) {
	if ids := g.t.Scopes.Get(g.scope).NameIndex[name]; len(ids) > 0 {
		g.t.Symbols.Get(ids[0]).Flags |= SymbolFlagAssigned
	}
}
