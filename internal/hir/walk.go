package hir

// WalkItem visits every NodeID in the item's subtree in canonical preorder.
// Lowering mints ids in exactly this order, which is what lets a reused item
// replay its previous ids during incremental re-lowering.
func WalkItem(it *Item, fn func(NodeID)) {
	fn(it.ID)
	switch it.Kind {
	case ItemDeclaration:
		walkDecl(it.Decl, fn)
	case ItemFunction, ItemPredicate, ItemTest:
		walkFunc(it.Func, fn)
	case ItemEnum:
		fn(it.Enum.ID)
		for _, m := range it.Enum.Members {
			fn(m.ID)
		}
	case ItemTypeAlias:
		fn(it.Alias.ID)
		walkType(it.Alias.Type, fn)
	case ItemConstraint, ItemOutput:
		walkExpr(it.Expr, fn)
	case ItemSolve:
		walkExpr(it.Solve.Objective, fn)
	case ItemAssignment:
		fn(it.Assign.NameID)
		walkExpr(it.Assign.Value, fn)
	}
}

// CollectIDs returns the item's NodeIds in canonical preorder.
func CollectIDs(it *Item) []NodeID {
	var out []NodeID
	WalkItem(it, func(id NodeID) { out = append(out, id) })
	return out
}

func walkDecl(d *Declaration, fn func(NodeID)) {
	if d == nil {
		return
	}
	fn(d.ID)
	walkType(d.Type, fn)
	walkExpr(d.Init, fn)
}

func walkFunc(f *Function, fn func(NodeID)) {
	fn(f.ID)
	walkType(f.Ret, fn)
	for _, p := range f.Params {
		fn(p.ID)
		walkType(p.Type, fn)
	}
	walkExpr(f.Body, fn)
}

func walkType(t *TypeNode, fn func(NodeID)) {
	if t == nil {
		return
	}
	fn(t.ID)
	for _, d := range t.Dims {
		walkType(d, fn)
	}
	walkType(t.Elem, fn)
	for _, f := range t.Fields {
		walkType(f, fn)
	}
	walkExpr(t.Domain, fn)
}

func walkExpr(e *Expr, fn func(NodeID)) {
	if e == nil {
		return
	}
	fn(e.ID)
	switch e.Kind {
	case ExprCall, ExprArrayLit, ExprSetLit, ExprTupleLit:
		for _, a := range e.Args {
			walkExpr(a, fn)
		}
	case ExprIndex:
		walkExpr(e.Base, fn)
		for _, a := range e.Args {
			walkExpr(a, fn)
		}
	case ExprIf:
		walkExpr(e.Cond, fn)
		walkExpr(e.Then, fn)
		walkExpr(e.Else, fn)
	case ExprComprehension:
		walkExpr(e.Body, fn)
		for _, g := range e.Gens {
			fn(g.ID)
			for _, n := range g.Names {
				fn(n.ID)
			}
			walkExpr(g.Source, fn)
		}
		walkExpr(e.Where, fn)
	case ExprLet:
		for _, b := range e.Bindings {
			fn(b.ID)
			walkDecl(b.Decl, fn)
			walkExpr(b.Constraint, fn)
		}
		walkExpr(e.Body, fn)
	}
}

// WalkExprs visits every expression node under the item, preorder. Domain
// expressions inside type annotations are included; their identifiers need
// resolution like any other.
func WalkExprs(it *Item, fn func(*Expr)) {
	var exprFn func(e *Expr)
	var typeFn func(t *TypeNode)
	exprFn = func(e *Expr) {
		if e == nil {
			return
		}
		fn(e)
		switch e.Kind {
		case ExprCall, ExprArrayLit, ExprSetLit, ExprTupleLit:
			for _, a := range e.Args {
				exprFn(a)
			}
		case ExprIndex:
			exprFn(e.Base)
			for _, a := range e.Args {
				exprFn(a)
			}
		case ExprIf:
			exprFn(e.Cond)
			exprFn(e.Then)
			exprFn(e.Else)
		case ExprComprehension:
			exprFn(e.Body)
			for _, g := range e.Gens {
				exprFn(g.Source)
			}
			exprFn(e.Where)
		case ExprLet:
			for _, b := range e.Bindings {
				if b.Decl != nil {
					typeFn(b.Decl.Type)
					exprFn(b.Decl.Init)
				}
				exprFn(b.Constraint)
			}
			exprFn(e.Body)
		}
	}
	typeFn = func(t *TypeNode) {
		if t == nil {
			return
		}
		for _, d := range t.Dims {
			typeFn(d)
		}
		typeFn(t.Elem)
		for _, f := range t.Fields {
			typeFn(f)
		}
		exprFn(t.Domain)
	}
	switch it.Kind {
	case ItemDeclaration:
		if it.Decl != nil {
			typeFn(it.Decl.Type)
			exprFn(it.Decl.Init)
		}
	case ItemFunction, ItemPredicate, ItemTest:
		if it.Func != nil {
			typeFn(it.Func.Ret)
			for _, p := range it.Func.Params {
				typeFn(p.Type)
			}
			exprFn(it.Func.Body)
		}
	case ItemTypeAlias:
		typeFn(it.Alias.Type)
	case ItemConstraint, ItemOutput:
		exprFn(it.Expr)
	case ItemSolve:
		exprFn(it.Solve.Objective)
	case ItemAssignment:
		exprFn(it.Assign.Value)
	}
}
