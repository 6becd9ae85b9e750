package symbols

import (
	"github.com/NathanBHay/shackle/internal/hir"
	"github.com/NathanBHay/shackle/internal/source"
)

// BuildLexical opens the inner scopes of one fragment: function parameters,
// let bindings and comprehension generators. It records the innermost scope
// for every expression node so resolution and the scope-at query can start
// from the right place. Inner names shadow outer ones without diagnostics.
func BuildLexical(t *Table, frag *hir.Fragment) {
	lx := &lexicalBuilder{t: t, frag: frag}
	global := t.Global()
	for _, it := range frag.Items {
		switch it.Kind {
		case hir.ItemDeclaration:
			lx.typeNode(it.Decl.Type, global)
			lx.expr(it.Decl.Init, global)

		case hir.ItemFunction, hir.ItemPredicate, hir.ItemTest:
			lx.function(it, global)

		case hir.ItemTypeAlias:
			lx.typeNode(it.Alias.Type, global)

		case hir.ItemConstraint, hir.ItemOutput:
			lx.expr(it.Expr, global)

		case hir.ItemSolve:
			lx.expr(it.Solve.Objective, global)

		case hir.ItemAssignment:
			lx.expr(it.Assign.Value, global)
		}
	}
}

type lexicalBuilder struct {
	t    *Table
	frag *hir.Fragment
}

func (lx *lexicalBuilder) span(id hir.NodeID) source.Span {
	sp, _ := lx.frag.Spans.Span(id)
	return sp
}

func (lx *lexicalBuilder) function(it *hir.Item, parent ScopeID) {
	f := it.Func
	sc := lx.t.Scopes.New(ScopeFunction, parent, it.ID, lx.span(it.ID))
	// parameter domains may refer to other parameters
	for _, p := range f.Params {
		lx.t.Declare(sc, &Symbol{
			Name: p.Name,
			Kind: SymbolParam,
			Node: p.ID,
			Span: lx.span(p.ID),
			Type: p.Type.Type,
		})
	}
	if f.Ret != nil {
		lx.typeNode(f.Ret, sc)
	}
	for _, p := range f.Params {
		lx.typeNode(p.Type, sc)
	}
	lx.expr(f.Body, sc)
}

func (lx *lexicalBuilder) typeNode(t *hir.TypeNode, sc ScopeID) {
	if t == nil {
		return
	}
	for _, d := range t.Dims {
		lx.typeNode(d, sc)
	}
	lx.typeNode(t.Elem, sc)
	for _, f := range t.Fields {
		lx.typeNode(f, sc)
	}
	lx.expr(t.Domain, sc)
}

func (lx *lexicalBuilder) expr(e *hir.Expr, sc ScopeID) {
	if e == nil {
		return
	}
	lx.t.setScopeOf(e.ID, sc)

	switch e.Kind {
	case hir.ExprCall, hir.ExprArrayLit, hir.ExprSetLit, hir.ExprTupleLit:
		for _, a := range e.Args {
			lx.expr(a, sc)
		}

	case hir.ExprIndex:
		lx.expr(e.Base, sc)
		for _, a := range e.Args {
			lx.expr(a, sc)
		}

	case hir.ExprIf:
		lx.expr(e.Cond, sc)
		lx.expr(e.Then, sc)
		lx.expr(e.Else, sc)

	case hir.ExprComprehension:
		// one scope per generator, chained, so a source expression sees the
		// names of earlier generators only; where and body see them all
		cur := sc
		for _, g := range e.Gens {
			lx.expr(g.Source, cur)
			cur = lx.t.Scopes.New(ScopeComprehension, cur, e.ID, lx.span(e.ID))
			for _, n := range g.Names {
				lx.t.Declare(cur, &Symbol{
					Name: n.Name,
					Kind: SymbolGenerator,
					Node: n.ID,
					Span: lx.span(n.ID),
				})
			}
		}
		lx.expr(e.Where, cur)
		lx.expr(e.Body, cur)

	case hir.ExprLet:
		// same chaining for bindings: an initializer sees earlier bindings,
		// never itself or later ones
		cur := sc
		for _, b := range e.Bindings {
			if b.Decl != nil {
				lx.typeNode(b.Decl.Type, cur)
				lx.expr(b.Decl.Init, cur)
				cur = lx.t.Scopes.New(ScopeLet, cur, e.ID, lx.span(e.ID))
				lx.t.Declare(cur, &Symbol{
					Name: b.Decl.Name,
					Kind: SymbolLocal,
					Node: b.Decl.ID,
					Span: lx.span(b.Decl.ID),
					Type: b.Decl.Type.Type,
				})
			} else {
				lx.expr(b.Constraint, cur)
			}
		}
		lx.expr(e.Body, cur)
	}
}
