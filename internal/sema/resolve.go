package sema

import (
	"fmt"

	"github.com/NathanBHay/shackle/internal/diag"
	"github.com/NathanBHay/shackle/internal/hir"
	"github.com/NathanBHay/shackle/internal/source"
	"github.com/NathanBHay/shackle/internal/symbols"
	"github.com/NathanBHay/shackle/internal/types"
)

// Result holds the resolution facts for one fragment. It is keyed entirely
// by NodeID, so results for unchanged items survive re-lowering of the rest
// of the file.
type Result struct {
	File source.FileID

	// Bindings maps identifier and call nodes to the symbol they resolved to.
	Bindings map[hir.NodeID]symbols.SymbolID
	// Types records the inferred type-inst of expression nodes.
	Types map[hir.NodeID]types.TypeID
	// Insts records, per call of a generic signature, what each type
	// variable was instantiated to.
	Insts map[hir.NodeID]map[source.StringID]types.TypeID
}

// ResolveFragment resolves every expression in the fragment against the
// given scope table. The table must already contain the global scope and
// the fragment's lexical scopes.
func ResolveFragment(table *symbols.Table, tin *types.Interner, frag *hir.Fragment, rep diag.Reporter) *Result {
	r := &resolver{
		table: table,
		tin:   tin,
		frag:  frag,
		rep:   rep,
		res: &Result{
			File:     frag.File,
			Bindings: make(map[hir.NodeID]symbols.SymbolID),
			Types:    make(map[hir.NodeID]types.TypeID),
			Insts:    make(map[hir.NodeID]map[source.StringID]types.TypeID),
		},
	}
	for _, it := range frag.Items {
		r.item(it)
	}
	return r.res
}

type resolver struct {
	table *symbols.Table
	tin   *types.Interner
	frag  *hir.Fragment
	rep   diag.Reporter
	res   *Result
}

func (r *resolver) span(id hir.NodeID) source.Span {
	sp, _ := r.frag.Spans.Span(id)
	return sp
}

func (r *resolver) name(id source.StringID) string {
	s, _ := r.table.Strings.Lookup(id)
	return s
}

func (r *resolver) item(it *hir.Item) {
	switch it.Kind {
	case hir.ItemDeclaration:
		r.typeNode(it.Decl.Type)
		r.expr(it.Decl.Init)
	case hir.ItemFunction, hir.ItemPredicate, hir.ItemTest:
		f := it.Func
		r.typeNode(f.Ret)
		for _, p := range f.Params {
			r.typeNode(p.Type)
		}
		r.expr(f.Body)
	case hir.ItemTypeAlias:
		r.typeNode(it.Alias.Type)
	case hir.ItemConstraint, hir.ItemOutput:
		r.expr(it.Expr)
	case hir.ItemSolve:
		r.expr(it.Solve.Objective)
	case hir.ItemAssignment:
		r.expr(it.Assign.Value)
	}
}

// typeNode checks the names a type annotation mentions: enum and alias
// references must exist, and domain expressions resolve like any other.
func (r *resolver) typeNode(t *hir.TypeNode) {
	if t == nil {
		return
	}
	r.checkTypeName(t.ID, t.Type)
	for _, d := range t.Dims {
		r.typeNode(d)
	}
	r.typeNode(t.Elem)
	for _, f := range t.Fields {
		r.typeNode(f)
	}
	r.expr(t.Domain)
}

func (r *resolver) checkTypeName(at hir.NodeID, id types.TypeID) {
	t, ok := r.tin.Lookup(id)
	if !ok || t.Kind != types.KindEnum {
		return
	}
	ids := r.table.Lookup(r.table.Global(), t.Name)
	for _, sid := range ids {
		switch r.table.Symbols.Get(sid).Kind {
		case symbols.SymbolEnum, symbols.SymbolTypeAlias:
			return
		}
	}
	diag.ReportError(r.rep, diag.ResUnknownTypeName, r.span(at),
		fmt.Sprintf("unknown type name %q", r.name(t.Name))).Emit()
}

// normalize chases type aliases so that an alias name compares equal to the
// type it abbreviates. Cycles bottom out at the error type.
func (r *resolver) normalize(id types.TypeID) types.TypeID {
	for depth := 0; depth < 16; depth++ {
		t, ok := r.tin.Lookup(id)
		if !ok || t.Kind != types.KindEnum {
			return id
		}
		ids := r.table.Lookup(r.table.Global(), t.Name)
		if len(ids) == 0 {
			return id
		}
		sym := r.table.Symbols.Get(ids[0])
		if sym.Kind != symbols.SymbolTypeAlias {
			return id
		}
		id = sym.Type
	}
	return r.tin.Builtins().Error
}

// expr infers the type of an expression, resolving names and calls on the
// way. Results are memoized in the fragment's resolution record.
func (r *resolver) expr(e *hir.Expr) types.TypeID {
	if e == nil {
		return types.NoTypeID
	}
	if t, ok := r.res.Types[e.ID]; ok {
		return t
	}
	t := r.inferExpr(e)
	r.res.Types[e.ID] = t
	return t
}

func (r *resolver) inferExpr(e *hir.Expr) types.TypeID {
	bt := r.tin.Builtins()
	switch e.Kind {
	case hir.ExprError:
		return bt.Error
	case hir.ExprIntLit:
		return bt.ParInt
	case hir.ExprFloatLit:
		return bt.ParFloat
	case hir.ExprBoolLit:
		return bt.ParBool
	case hir.ExprStringLit:
		return bt.ParString

	case hir.ExprIdent:
		return r.ident(e)

	case hir.ExprCall:
		return r.call(e)

	case hir.ExprArrayLit:
		var elem types.TypeID
		for _, a := range e.Args {
			elem = r.lub(elem, r.expr(a))
		}
		if elem == types.NoTypeID {
			elem = bt.Error
		}
		return r.tin.ArrayOf([]types.TypeID{bt.ParInt}, elem)

	case hir.ExprSetLit:
		var elem types.TypeID
		for _, a := range e.Args {
			elem = r.lub(elem, r.expr(a))
		}
		if elem == types.NoTypeID {
			elem = bt.Error
		}
		return r.tin.SetOf(elem, types.InstPar)

	case hir.ExprTupleLit:
		fields := make([]types.TypeID, len(e.Args))
		for i, a := range e.Args {
			fields[i] = r.expr(a)
		}
		return r.tin.TupleOf(fields)

	case hir.ExprComprehension:
		for _, g := range e.Gens {
			srcT := r.expr(g.Source)
			elemT := r.elementType(srcT)
			for _, n := range g.Names {
				r.res.Types[n.ID] = elemT
			}
		}
		r.expr(e.Where)
		body := r.expr(e.Body)
		if e.IsSet {
			return r.tin.SetOf(body, types.InstPar)
		}
		return r.tin.ArrayOf([]types.TypeID{bt.ParInt}, body)

	case hir.ExprIf:
		r.expr(e.Cond)
		return r.lub(r.expr(e.Then), r.expr(e.Else))

	case hir.ExprLet:
		for _, b := range e.Bindings {
			if b.Decl != nil {
				r.typeNode(b.Decl.Type)
				r.expr(b.Decl.Init)
			} else {
				r.expr(b.Constraint)
			}
		}
		return r.expr(e.Body)

	case hir.ExprIndex:
		baseT := r.expr(e.Base)
		for _, a := range e.Args {
			r.expr(a)
		}
		if t, ok := r.tin.Lookup(r.normalize(baseT)); ok && t.Kind == types.KindArray {
			return t.Elem
		}
		return bt.Error
	}
	return bt.Error
}

// elementType extracts what a generator iterates over: set and array
// sources yield their element type.
func (r *resolver) elementType(srcT types.TypeID) types.TypeID {
	t, ok := r.tin.Lookup(r.normalize(srcT))
	if !ok {
		return r.tin.Builtins().Error
	}
	switch t.Kind {
	case types.KindSet, types.KindArray:
		return t.Elem
	}
	return r.tin.Builtins().Error
}

func (r *resolver) ident(e *hir.Expr) types.TypeID {
	scope := r.table.ScopeOf(e.ID)
	ids := r.table.Lookup(scope, e.Name)
	if len(ids) == 0 {
		diag.ReportError(r.rep, diag.ResUnknownIdentifier, r.span(e.ID),
			fmt.Sprintf("undefined identifier %q", r.name(e.Name))).Emit()
		return r.tin.Builtins().Error
	}
	if len(ids) > 1 {
		b := diag.ReportError(r.rep, diag.ResAmbiguousReference, r.span(e.ID),
			fmt.Sprintf("%q names %d overloads; a plain reference must be unique", r.name(e.Name), len(ids)))
		for _, sid := range ids[:min(len(ids), 3)] {
			b.WithNote(r.table.Symbols.Get(sid).Span, "candidate declared here")
		}
		b.Emit()
		return r.tin.Builtins().Error
	}
	sym := r.table.Symbols.Get(ids[0])
	r.res.Bindings[e.ID] = ids[0]
	if sym.Kind == symbols.SymbolGenerator {
		if t, ok := r.res.Types[sym.Node]; ok {
			return t
		}
		return r.tin.Builtins().Error
	}
	if sym.Type == types.NoTypeID {
		return r.tin.Builtins().Error
	}
	return r.normalize(sym.Type)
}
