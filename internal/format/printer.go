// Package format renders lowered fragments back to canonical model text:
// one item per line, single spaces, operators re-infixed with minimal
// parentheses. Formatting a formatted model is a fixed point.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/NathanBHay/shackle/internal/hir"
	"github.com/NathanBHay/shackle/internal/source"
	"github.com/NathanBHay/shackle/internal/types"
)

// Print renders every printable item of the fragment, in item order.
// Items that failed to lower are skipped; their text is unknowable here.
func Print(frag *hir.Fragment, strs *source.Interner, tin *types.Interner) string {
	p := &printer{strs: strs, tin: tin}
	var b strings.Builder
	for _, it := range frag.Items {
		line := p.item(it)
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

type printer struct {
	strs *source.Interner
	tin  *types.Interner
}

func (p *printer) name(id source.StringID) string {
	return p.strs.MustLookup(id)
}

func (p *printer) item(it *hir.Item) string {
	switch it.Kind {
	case hir.ItemInclude:
		return fmt.Sprintf("include %q;", it.Include.Path)
	case hir.ItemDeclaration:
		return p.decl(it.Decl) + ";"
	case hir.ItemFunction, hir.ItemPredicate, hir.ItemTest:
		return p.function(it.Kind, it.Func)
	case hir.ItemEnum:
		return p.enum(it.Enum)
	case hir.ItemTypeAlias:
		return fmt.Sprintf("type %s = %s;", p.name(it.Alias.Name), p.typeNode(it.Alias.Type))
	case hir.ItemConstraint:
		return "constraint " + p.expr(it.Expr, 0) + ";"
	case hir.ItemSolve:
		if it.Solve.Method == hir.SolveSatisfy {
			return "solve satisfy;"
		}
		return fmt.Sprintf("solve %s %s;", it.Solve.Method, p.expr(it.Solve.Objective, 0))
	case hir.ItemOutput:
		return "output " + p.expr(it.Expr, 0) + ";"
	case hir.ItemAssignment:
		return fmt.Sprintf("%s = %s;", p.name(it.Assign.Name), p.expr(it.Assign.Value, 0))
	default:
		return ""
	}
}

func (p *printer) decl(d *hir.Declaration) string {
	s := p.typeNode(d.Type) + ": " + p.name(d.Name)
	if d.Init != nil {
		s += " = " + p.expr(d.Init, 0)
	}
	return s
}

func (p *printer) function(kind hir.ItemKind, f *hir.Function) string {
	var b strings.Builder
	switch kind {
	case hir.ItemPredicate:
		b.WriteString("predicate ")
	case hir.ItemTest:
		b.WriteString("test ")
	default:
		b.WriteString("function ")
		b.WriteString(p.typeNode(f.Ret))
		b.WriteString(": ")
	}
	b.WriteString(p.name(f.Name))
	b.WriteString("(")
	for i, prm := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.typeNode(prm.Type))
		b.WriteString(": ")
		b.WriteString(p.name(prm.Name))
	}
	b.WriteString(")")
	if f.Body != nil {
		b.WriteString(" = ")
		b.WriteString(p.expr(f.Body, 0))
	}
	b.WriteString(";")
	return b.String()
}

func (p *printer) enum(e *hir.Enum) string {
	if e.Members == nil {
		return fmt.Sprintf("enum %s;", p.name(e.Name))
	}
	parts := make([]string, len(e.Members))
	for i, m := range e.Members {
		parts[i] = p.name(m.Name)
	}
	return fmt.Sprintf("enum %s = {%s};", p.name(e.Name), strings.Join(parts, ", "))
}

// typeNode renders the annotation the way it was written: structural nodes
// recurse, domain nodes keep their expression, everything else falls back
// to the interned type's syntax.
func (p *printer) typeNode(t *hir.TypeNode) string {
	if t == nil {
		return ""
	}
	switch {
	case len(t.Dims) > 0:
		parts := make([]string, len(t.Dims))
		for i, d := range t.Dims {
			parts[i] = p.typeNode(d)
		}
		return fmt.Sprintf("array[%s] of %s", strings.Join(parts, ", "), p.typeNode(t.Elem))
	case len(t.Fields) > 0:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = p.typeNode(f)
		}
		return fmt.Sprintf("tuple(%s)", strings.Join(parts, ", "))
	case t.Elem != nil:
		return p.instPrefix(t.Type) + "set of " + p.typeNode(t.Elem)
	case t.Domain != nil:
		return p.instPrefix(t.Type) + p.expr(t.Domain, 0)
	default:
		return p.tin.Render(t.Type, p.strs)
	}
}

func (p *printer) instPrefix(id types.TypeID) string {
	t, ok := p.tin.Lookup(id)
	if !ok {
		return ""
	}
	var b strings.Builder
	if t.Inst == types.InstVar {
		b.WriteString("var ")
	}
	if t.Opt {
		b.WriteString("opt ")
	}
	return b.String()
}

// Binary operator precedence, loosest first; mirrors how the parser binds.
var opPrec = map[string]int{
	"<->": 1,
	"->":  2, "<-": 2,
	"\\/": 3, "xor": 3,
	"/\\": 4,
	"=":   5, "!=": 5, "<": 5, "<=": 5, ">": 5, ">=": 5,
	"in": 5, "subset": 5, "superset": 5,
	"union": 6, "diff": 6, "symdiff": 6,
	"..": 7,
	"+":  8, "-": 8, "++": 8,
	"*": 9, "/": 9, "div": 9, "mod": 9, "intersect": 9,
}

const precUnary = 10

// expr renders an expression; parens appear only when the rendered operator
// binds looser than the context requires.
func (p *printer) expr(e *hir.Expr, ctx int) string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case hir.ExprIntLit:
		return strconv.FormatInt(e.Int, 10)
	case hir.ExprFloatLit:
		s := strconv.FormatFloat(e.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case hir.ExprBoolLit:
		return strconv.FormatBool(e.Bool)
	case hir.ExprStringLit:
		return strconv.Quote(e.Str)
	case hir.ExprIdent:
		return p.name(e.Name)
	case hir.ExprCall:
		return p.call(e, ctx)
	case hir.ExprArrayLit:
		return "[" + p.exprList(e.Args) + "]"
	case hir.ExprSetLit:
		return "{" + p.exprList(e.Args) + "}"
	case hir.ExprTupleLit:
		return "(" + p.exprList(e.Args) + ")"
	case hir.ExprComprehension:
		return p.comprehension(e)
	case hir.ExprIf:
		return fmt.Sprintf("if %s then %s else %s endif",
			p.expr(e.Cond, 0), p.expr(e.Then, 0), p.expr(e.Else, 0))
	case hir.ExprLet:
		return p.let(e)
	case hir.ExprIndex:
		return p.expr(e.Base, precUnary) + "[" + p.exprList(e.Args) + "]"
	default:
		return "<error>"
	}
}

func (p *printer) call(e *hir.Expr, ctx int) string {
	name := p.name(e.Name)
	if e.Operator {
		if prec, ok := opPrec[name]; ok && len(e.Args) == 2 {
			sep := " " + name + " "
			if name == ".." {
				sep = ".."
			}
			s := p.expr(e.Args[0], prec) + sep + p.expr(e.Args[1], prec+1)
			if prec < ctx {
				return "(" + s + ")"
			}
			return s
		}
		if len(e.Args) == 1 {
			sep := ""
			if name == "not" {
				sep = " "
			}
			s := name + sep + p.expr(e.Args[0], precUnary)
			if precUnary < ctx {
				return "(" + s + ")"
			}
			return s
		}
	}
	return name + "(" + p.exprList(e.Args) + ")"
}

func (p *printer) comprehension(e *hir.Expr) string {
	open, shut := "[", "]"
	if e.IsSet {
		open, shut = "{", "}"
	}
	var b strings.Builder
	b.WriteString(open)
	b.WriteString(p.expr(e.Body, 0))
	b.WriteString(" | ")
	for i, g := range e.Gens {
		if i > 0 {
			b.WriteString(", ")
		}
		for j, n := range g.Names {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.name(n.Name))
		}
		b.WriteString(" in ")
		b.WriteString(p.expr(g.Source, 0))
	}
	if e.Where != nil {
		b.WriteString(" where ")
		b.WriteString(p.expr(e.Where, 0))
	}
	b.WriteString(shut)
	return b.String()
}

func (p *printer) let(e *hir.Expr) string {
	var b strings.Builder
	b.WriteString("let {")
	for i, bind := range e.Bindings {
		if i > 0 {
			b.WriteString(", ")
		}
		if bind.Decl != nil {
			b.WriteString(p.decl(bind.Decl))
		} else if bind.Constraint != nil {
			b.WriteString("constraint ")
			b.WriteString(p.expr(bind.Constraint, 0))
		}
	}
	b.WriteString("} in ")
	b.WriteString(p.expr(e.Body, 0))
	return b.String()
}

func (p *printer) exprList(args []*hir.Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = p.expr(a, 0)
	}
	return strings.Join(parts, ", ")
}
