package hir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/NathanBHay/shackle/internal/cst"
	"github.com/NathanBHay/shackle/internal/diag"
	"github.com/NathanBHay/shackle/internal/source"
	"github.com/NathanBHay/shackle/internal/types"
)

// Lowerer turns concrete syntax into HIR fragments. One lowerer serves a
// whole workspace: it owns the NodeID allocator and shares the string and
// type interners with the rest of the pipeline.
type Lowerer struct {
	alloc   *Allocator
	types   *types.Interner
	strings *source.Interner
}

func NewLowerer(alloc *Allocator, tin *types.Interner, strs *source.Interner) *Lowerer {
	return &Lowerer{alloc: alloc, types: tin, strings: strs}
}

// idSource hands out NodeIds during item lowering. For a reused item it
// replays the previous subtree's ids in preorder; otherwise it mints fresh
// ones from the allocator.
type idSource struct {
	alloc  *Allocator
	replay []NodeID
	pos    int
}

func (s *idSource) next() NodeID {
	if s.pos < len(s.replay) {
		id := s.replay[s.pos]
		s.pos++
		return id
	}
	return s.alloc.Next()
}

// LowerFile lowers a parsed file into a fragment. When prev is the fragment
// of an earlier version of the same file, items whose fingerprints match an
// unconsumed previous item keep that item's NodeIds; their spans are
// re-recorded at the new positions. Lowering never fails: broken regions
// become ItemError entries with diagnostics on rep.
func (lo *Lowerer) LowerFile(file source.FileID, path string, version uint32, root *cst.Node, prev *Fragment, rep diag.Reporter) *Fragment {
	frag := &Fragment{
		File:    file,
		Path:    path,
		Version: version,
		Spans:   make(SourceMap),
	}

	byFP := make(map[Fingerprint][]*Item)
	if prev != nil {
		for _, it := range prev.Items {
			byFP[it.Fingerprint] = append(byFP[it.Fingerprint], it)
		}
	}

	for _, node := range root.Children() {
		fp := FingerprintOf(node)
		ids := &idSource{alloc: lo.alloc}
		if olds := byFP[fp]; len(olds) > 0 {
			ids.replay = CollectIDs(olds[0])
			byFP[fp] = olds[1:]
		}
		lc := &lowerCtx{lo: lo, ids: ids, frag: frag, rep: rep}
		item := lc.lowerItem(node)
		item.Fingerprint = fp
		frag.Items = append(frag.Items, item)
	}
	return frag
}

type lowerCtx struct {
	lo   *Lowerer
	ids  *idSource
	frag *Fragment
	rep  diag.Reporter
}

// mint allocates (or replays) an id and records the node's span for it.
func (lc *lowerCtx) mint(n *cst.Node) NodeID {
	id := lc.ids.next()
	lc.frag.Spans[id] = n.Span()
	return id
}

func (lc *lowerCtx) intern(n *cst.Node) source.StringID {
	return lc.lo.strings.Intern(n.Text())
}

func (lc *lowerCtx) lowerItem(n *cst.Node) *Item {
	if n.IsError() {
		diag.ReportError(lc.rep, diag.SynError, n.Span(), "cannot parse this item").Emit()
		return &Item{ID: lc.mint(n), Kind: ItemError}
	}

	switch n.Kind() {
	case "include":
		it := &Item{ID: lc.mint(n), Kind: ItemInclude}
		it.Include = &Include{Path: unquote(n.Child(0).Text())}
		return it

	case "declaration":
		it := &Item{ID: lc.mint(n), Kind: ItemDeclaration}
		it.Decl = lc.lowerDeclaration(n)
		return it

	case "function_item":
		it := &Item{ID: lc.mint(n), Kind: ItemFunction}
		it.Func = lc.lowerFunction(n, ItemFunction)
		return it

	case "predicate_item":
		it := &Item{ID: lc.mint(n), Kind: ItemPredicate}
		it.Func = lc.lowerFunction(n, ItemPredicate)
		return it

	case "test_item":
		it := &Item{ID: lc.mint(n), Kind: ItemTest}
		it.Func = lc.lowerFunction(n, ItemTest)
		return it

	case "enum_item":
		it := &Item{ID: lc.mint(n), Kind: ItemEnum}
		enum := &Enum{ID: lc.mint(n.Child(0)), Name: lc.intern(n.Child(0))}
		if members := n.ChildOfKind("enum_members"); members != nil {
			for _, m := range members.Children() {
				enum.Members = append(enum.Members, &EnumMember{
					ID:   lc.mint(m),
					Name: lc.intern(m),
				})
			}
		}
		it.Enum = enum
		return it

	case "type_alias_item":
		it := &Item{ID: lc.mint(n), Kind: ItemTypeAlias}
		it.Alias = &TypeAlias{
			ID:   lc.mint(n.Child(0)),
			Name: lc.intern(n.Child(0)),
			Type: lc.lowerTypeInst(n.Child(1)),
		}
		return it

	case "constraint_item":
		it := &Item{ID: lc.mint(n), Kind: ItemConstraint}
		it.Expr = lc.lowerExpr(n.Child(0))
		return it

	case "solve_item":
		it := &Item{ID: lc.mint(n), Kind: ItemSolve}
		solve := &Solve{}
		switch n.Child(0).Text() {
		case "minimize":
			solve.Method = SolveMinimize
		case "maximize":
			solve.Method = SolveMaximize
		default:
			solve.Method = SolveSatisfy
		}
		if n.NumChildren() > 1 {
			solve.Objective = lc.lowerExpr(n.Child(1))
		}
		it.Solve = solve
		return it

	case "output_item":
		it := &Item{ID: lc.mint(n), Kind: ItemOutput}
		it.Expr = lc.lowerExpr(n.Child(0))
		return it

	case "assignment_item":
		it := &Item{ID: lc.mint(n), Kind: ItemAssignment}
		it.Assign = &Assignment{
			NameID: lc.mint(n.Child(0)),
			Name:   lc.intern(n.Child(0)),
			Value:  lc.lowerExpr(n.Child(1)),
		}
		return it
	}

	diag.ReportError(lc.rep, diag.SynExpectItem, n.Span(),
		fmt.Sprintf("unexpected %s at top level", n.Kind())).Emit()
	return &Item{ID: lc.mint(n), Kind: ItemError}
}

// lowerDeclaration handles both top-level declarations and let bindings:
// `<type-inst>: name [= expr]`.
func (lc *lowerCtx) lowerDeclaration(n *cst.Node) *Declaration {
	d := &Declaration{ID: lc.mint(n)}
	d.Type = lc.lowerTypeInst(n.Child(0))
	d.Name = lc.intern(n.Child(1))
	if n.NumChildren() > 2 {
		d.Init = lc.lowerExpr(n.Child(2))
	}
	return d
}

func (lc *lowerCtx) lowerFunction(n *cst.Node, kind ItemKind) *Function {
	f := &Function{ID: lc.mint(n)}
	i := 0
	if kind == ItemFunction {
		f.Ret = lc.lowerTypeInst(n.Child(0))
		f.Result = f.Ret.Type
		i = 1
	} else {
		bt := lc.lo.types.Builtins()
		if kind == ItemPredicate {
			f.Result = bt.VarBool
		} else {
			f.Result = bt.ParBool
		}
	}
	f.Name = lc.intern(n.Child(i))
	for _, pn := range n.Child(i + 1).Children() {
		f.Params = append(f.Params, &Param{
			ID:   lc.mint(pn),
			Type: lc.lowerTypeInst(pn.Child(0)),
			Name: lc.intern(pn.Child(1)),
		})
	}
	if n.NumChildren() > i+2 {
		f.Body = lc.lowerExpr(n.Child(i + 2))
	}
	return f
}

// lowerTypeInst lowers a type_inst node, composing the interned type from
// the inst/opt markers and the base form.
func (lc *lowerCtx) lowerTypeInst(n *cst.Node) *TypeNode {
	t := &TypeNode{ID: lc.mint(n)}
	tin := lc.lo.types

	inst := types.InstPar
	opt := false
	var base *cst.Node
	for _, c := range n.Children() {
		switch c.Kind() {
		case "inst":
			if c.Text() == "var" {
				inst = types.InstVar
			}
		case "opt":
			opt = true
		default:
			base = c
		}
	}
	if base == nil {
		diag.ReportError(lc.rep, diag.SynExpectType, n.Span(), "expected a type here").Emit()
		t.Type = tin.Builtins().Error
		return t
	}

	switch base.Kind() {
	case "base_type":
		t.Type = primitiveType(tin, base.Text())

	case "type_var":
		t.Type = tin.TypeVar(lc.intern(base), types.KindTypeVar)

	case "set_type_var":
		t.Type = tin.TypeVar(lc.intern(base), types.KindSetTypeVar)

	case "set_type":
		t.Elem = lc.lowerTypeInst(base.Child(0))
		t.Type = tin.SetOf(t.Elem.Type, types.InstPar)

	case "array_type":
		for _, dn := range base.Child(0).Children() {
			t.Dims = append(t.Dims, lc.lowerTypeInst(dn))
		}
		t.Elem = lc.lowerTypeInst(base.Child(1))
		dims := make([]types.TypeID, len(t.Dims))
		for i, d := range t.Dims {
			dims[i] = d.Type
		}
		t.Type = tin.ArrayOf(dims, t.Elem.Type)

	case "tuple_type":
		fields := make([]types.TypeID, 0, base.NumChildren())
		for _, fn := range base.Children() {
			ft := lc.lowerTypeInst(fn)
			t.Fields = append(t.Fields, ft)
			fields = append(fields, ft.Type)
		}
		t.Type = tin.TupleOf(fields)

	case "type_name":
		t.Type = tin.EnumOf(lc.intern(base))

	case "domain":
		t.Domain = lc.lowerExpr(base.Child(0))
		t.Type = domainBaseType(tin, base)

	default:
		diag.ReportError(lc.rep, diag.SynExpectType, base.Span(),
			fmt.Sprintf("unexpected %s in type position", base.Kind())).Emit()
		t.Type = tin.Builtins().Error
	}

	if inst == types.InstVar {
		t.Type = tin.WithInst(t.Type, types.InstVar)
	}
	if opt {
		t.Type = tin.WithOpt(t.Type, true)
	}
	return t
}

func primitiveType(tin *types.Interner, text string) types.TypeID {
	bt := tin.Builtins()
	switch text {
	case "bool":
		return bt.ParBool
	case "int":
		return bt.ParInt
	case "float":
		return bt.ParFloat
	case "string":
		return bt.ParString
	case "ann":
		return bt.Ann
	}
	return bt.Error
}

// domainBaseType picks the base type a value domain constrains: float when
// any float literal appears in the domain expression, int otherwise.
func domainBaseType(tin *types.Interner, domain *cst.Node) types.TypeID {
	isFloat := false
	domain.Walk(func(c *cst.Node) bool {
		if c.Kind() == "float_literal" {
			isFloat = true
		}
		return !isFloat
	})
	if isFloat {
		return tin.Builtins().ParFloat
	}
	return tin.Builtins().ParInt
}

func unquote(text string) string {
	if s, err := strconv.Unquote(text); err == nil {
		return s
	}
	return strings.Trim(text, `"`)
}
