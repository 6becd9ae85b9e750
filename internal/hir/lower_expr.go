package hir

import (
	"fmt"
	"strconv"

	"github.com/NathanBHay/shackle/internal/cst"
	"github.com/NathanBHay/shackle/internal/diag"
)

func (lc *lowerCtx) lowerExpr(n *cst.Node) *Expr {
	if n == nil {
		return nil
	}
	if n.IsError() {
		diag.ReportError(lc.rep, diag.SynExpectExpression, n.Span(), "cannot parse this expression").Emit()
		return &Expr{ID: lc.mint(n), Kind: ExprError}
	}

	switch n.Kind() {
	case "integer_literal":
		e := &Expr{ID: lc.mint(n), Kind: ExprIntLit}
		v, err := strconv.ParseInt(n.Text(), 10, 64)
		if err != nil {
			diag.ReportError(lc.rep, diag.SynBadLiteral, n.Span(),
				fmt.Sprintf("integer literal %q out of range", n.Text())).Emit()
		}
		e.Int = v
		return e

	case "float_literal":
		e := &Expr{ID: lc.mint(n), Kind: ExprFloatLit}
		v, err := strconv.ParseFloat(n.Text(), 64)
		if err != nil {
			diag.ReportError(lc.rep, diag.SynBadLiteral, n.Span(),
				fmt.Sprintf("malformed float literal %q", n.Text())).Emit()
		}
		e.Float = v
		return e

	case "boolean_literal":
		return &Expr{ID: lc.mint(n), Kind: ExprBoolLit, Bool: n.Text() == "true"}

	case "string_literal":
		return &Expr{ID: lc.mint(n), Kind: ExprStringLit, Str: unquote(n.Text())}

	case "identifier":
		return &Expr{ID: lc.mint(n), Kind: ExprIdent, Name: lc.intern(n)}

	case "paren":
		// grouping carries no semantics of its own
		return lc.lowerExpr(n.Child(0))

	case "binary_op":
		e := &Expr{ID: lc.mint(n), Kind: ExprCall, Operator: true}
		e.Name = lc.lo.strings.Intern(operatorName(n.Child(1).Text()))
		e.Args = []*Expr{lc.lowerExpr(n.Child(0)), lc.lowerExpr(n.Child(2))}
		return e

	case "unary_op":
		e := &Expr{ID: lc.mint(n), Kind: ExprCall, Operator: true}
		e.Name = lc.lo.strings.Intern(n.Child(0).Text())
		e.Args = []*Expr{lc.lowerExpr(n.Child(1))}
		return e

	case "call":
		e := &Expr{ID: lc.mint(n), Kind: ExprCall}
		e.Name = lc.intern(n.Child(0))
		for _, a := range n.Children()[1:] {
			e.Args = append(e.Args, lc.lowerExpr(a))
		}
		return e

	case "array_literal":
		return lc.lowerElems(n, ExprArrayLit)
	case "set_literal":
		return lc.lowerElems(n, ExprSetLit)
	case "tuple_literal":
		return lc.lowerElems(n, ExprTupleLit)

	case "array_comprehension":
		return lc.lowerComprehension(n, false)
	case "set_comprehension":
		return lc.lowerComprehension(n, true)

	case "if_then_else":
		e := &Expr{ID: lc.mint(n), Kind: ExprIf}
		e.Cond = lc.lowerExpr(n.Child(0))
		e.Then = lc.lowerExpr(n.Child(1))
		e.Else = lc.lowerExpr(n.Child(2))
		return e

	case "let_expr":
		e := &Expr{ID: lc.mint(n), Kind: ExprLet}
		kids := n.Children()
		for _, bn := range kids[:len(kids)-1] {
			b := &LetBinding{ID: lc.mint(bn)}
			if bn.Kind() == "constraint_item" {
				b.Constraint = lc.lowerExpr(bn.Child(0))
			} else {
				b.Decl = lc.lowerDeclaration(bn)
			}
			e.Bindings = append(e.Bindings, b)
		}
		e.Body = lc.lowerExpr(kids[len(kids)-1])
		return e

	case "index_access":
		e := &Expr{ID: lc.mint(n), Kind: ExprIndex}
		e.Base = lc.lowerExpr(n.Child(0))
		for _, a := range n.Children()[1:] {
			e.Args = append(e.Args, lc.lowerExpr(a))
		}
		return e
	}

	diag.ReportError(lc.rep, diag.SynExpectExpression, n.Span(),
		fmt.Sprintf("unexpected %s in expression position", n.Kind())).Emit()
	return &Expr{ID: lc.mint(n), Kind: ExprError}
}

func (lc *lowerCtx) lowerElems(n *cst.Node, kind ExprKind) *Expr {
	e := &Expr{ID: lc.mint(n), Kind: kind}
	for _, c := range n.Children() {
		e.Args = append(e.Args, lc.lowerExpr(c))
	}
	return e
}

func (lc *lowerCtx) lowerComprehension(n *cst.Node, isSet bool) *Expr {
	e := &Expr{ID: lc.mint(n), Kind: ExprComprehension, IsSet: isSet}
	e.Body = lc.lowerExpr(n.Child(0))
	for _, c := range n.Children()[1:] {
		switch c.Kind() {
		case "generator":
			g := &Generator{ID: lc.mint(c)}
			kids := c.Children()
			for _, name := range kids[:len(kids)-1] {
				g.Names = append(g.Names, &BoundName{ID: lc.mint(name), Name: lc.intern(name)})
			}
			g.Source = lc.lowerExpr(kids[len(kids)-1])
			e.Gens = append(e.Gens, g)
		case "where":
			e.Where = lc.lowerExpr(c.Child(0))
		}
	}
	return e
}

// operatorName canonicalizes operator spellings so each maps to a single
// builtin declaration. `==` and `=` are the same equality operator.
func operatorName(op string) string {
	if op == "==" {
		return "="
	}
	return op
}
