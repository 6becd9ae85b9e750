package hir

import (
	"fmt"
	"strings"

	"github.com/NathanBHay/shackle/internal/source"
	"github.com/NathanBHay/shackle/internal/types"
)

// DumpOptions controls the debug outline.
type DumpOptions struct {
	// NodeIDs includes each node's id; the AST view leaves them out.
	NodeIDs bool
	// Annotate, when non-nil, is asked for a per-node suffix (resolution
	// targets, inferred types).
	Annotate func(NodeID) string
}

// Dump renders the fragment as an indented outline for inspection.
func Dump(frag *Fragment, strs *source.Interner, tin *types.Interner, opts DumpOptions) string {
	d := &dumper{strs: strs, tin: tin, opts: opts}
	for _, it := range frag.Items {
		d.item(it)
	}
	return d.b.String()
}

type dumper struct {
	b     strings.Builder
	strs  *source.Interner
	tin   *types.Interner
	opts  DumpOptions
	depth int
}

func (d *dumper) line(id NodeID, format string, args ...any) {
	for i := 0; i < d.depth; i++ {
		d.b.WriteString("  ")
	}
	fmt.Fprintf(&d.b, format, args...)
	if d.opts.NodeIDs && id.IsValid() {
		fmt.Fprintf(&d.b, " %s", id)
	}
	if d.opts.Annotate != nil && id.IsValid() {
		if note := d.opts.Annotate(id); note != "" {
			d.b.WriteString(" ")
			d.b.WriteString(note)
		}
	}
	d.b.WriteString("\n")
}

func (d *dumper) nested(fn func()) {
	d.depth++
	fn()
	d.depth--
}

func (d *dumper) name(id source.StringID) string {
	s, _ := d.strs.Lookup(id)
	return s
}

func (d *dumper) item(it *Item) {
	switch it.Kind {
	case ItemError:
		d.line(it.ID, "error")
	case ItemInclude:
		d.line(it.ID, "include %q", it.Include.Path)
	case ItemDeclaration:
		d.line(it.ID, "declaration")
		d.nested(func() { d.decl(it.Decl) })
	case ItemFunction, ItemPredicate, ItemTest:
		d.fun(it)
	case ItemEnum:
		names := make([]string, len(it.Enum.Members))
		for i, m := range it.Enum.Members {
			names[i] = d.name(m.Name)
		}
		d.line(it.ID, "enum %s {%s}", d.name(it.Enum.Name), strings.Join(names, ", "))
	case ItemTypeAlias:
		d.line(it.ID, "type %s", d.name(it.Alias.Name))
		d.nested(func() { d.typeNode(it.Alias.Type) })
	case ItemConstraint:
		d.line(it.ID, "constraint")
		d.nested(func() { d.expr(it.Expr) })
	case ItemSolve:
		d.line(it.ID, "solve %s", it.Solve.Method)
		if it.Solve.Objective != nil {
			d.nested(func() { d.expr(it.Solve.Objective) })
		}
	case ItemOutput:
		d.line(it.ID, "output")
		d.nested(func() { d.expr(it.Expr) })
	case ItemAssignment:
		d.line(it.ID, "assign %s", d.name(it.Assign.Name))
		d.nested(func() { d.expr(it.Assign.Value) })
	}
}

func (d *dumper) fun(it *Item) {
	f := it.Func
	d.line(it.ID, "%s %s/%d", it.Kind, d.name(f.Name), len(f.Params))
	d.nested(func() {
		if f.Ret != nil {
			d.typeNode(f.Ret)
		}
		for _, p := range f.Params {
			d.line(p.ID, "param %s: %s", d.name(p.Name), d.tin.Render(p.Type.Type, d.strs))
		}
		if f.Body != nil {
			d.expr(f.Body)
		}
	})
}

func (d *dumper) decl(dc *Declaration) {
	d.line(dc.ID, "%s: %s", d.tin.Render(dc.Type.Type, d.strs), d.name(dc.Name))
	if dc.Type.Domain != nil {
		d.nested(func() {
			d.line(NoNodeID, "domain")
			d.nested(func() { d.expr(dc.Type.Domain) })
		})
	}
	if dc.Init != nil {
		d.nested(func() { d.expr(dc.Init) })
	}
}

func (d *dumper) typeNode(t *TypeNode) {
	d.line(t.ID, "type %s", d.tin.Render(t.Type, d.strs))
	if t.Domain != nil {
		d.nested(func() { d.expr(t.Domain) })
	}
}

func (d *dumper) expr(e *Expr) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ExprError:
		d.line(e.ID, "error")
	case ExprIntLit:
		d.line(e.ID, "int %d", e.Int)
	case ExprFloatLit:
		d.line(e.ID, "float %g", e.Float)
	case ExprBoolLit:
		d.line(e.ID, "bool %t", e.Bool)
	case ExprStringLit:
		d.line(e.ID, "string %q", e.Str)
	case ExprIdent:
		d.line(e.ID, "ident %s", d.name(e.Name))
	case ExprCall:
		tag := "call"
		if e.Operator {
			tag = "op"
		}
		d.line(e.ID, "%s %s", tag, d.name(e.Name))
		d.nested(func() {
			for _, a := range e.Args {
				d.expr(a)
			}
		})
	case ExprArrayLit, ExprSetLit, ExprTupleLit:
		d.line(e.ID, "%s-literal", e.Kind)
		d.nested(func() {
			for _, a := range e.Args {
				d.expr(a)
			}
		})
	case ExprComprehension:
		form := "array"
		if e.IsSet {
			form = "set"
		}
		d.line(e.ID, "%s-comprehension", form)
		d.nested(func() {
			d.expr(e.Body)
			for _, g := range e.Gens {
				names := make([]string, len(g.Names))
				for i, n := range g.Names {
					names[i] = d.name(n.Name)
				}
				d.line(g.ID, "generator %s", strings.Join(names, ", "))
				d.nested(func() { d.expr(g.Source) })
			}
			if e.Where != nil {
				d.line(NoNodeID, "where")
				d.nested(func() { d.expr(e.Where) })
			}
		})
	case ExprIf:
		d.line(e.ID, "if")
		d.nested(func() {
			d.expr(e.Cond)
			d.expr(e.Then)
			d.expr(e.Else)
		})
	case ExprLet:
		d.line(e.ID, "let")
		d.nested(func() {
			for _, b := range e.Bindings {
				if b.Decl != nil {
					d.decl(b.Decl)
				} else {
					d.line(b.ID, "constraint")
					d.nested(func() { d.expr(b.Constraint) })
				}
			}
			d.line(NoNodeID, "in")
			d.nested(func() { d.expr(e.Body) })
		})
	case ExprIndex:
		d.line(e.ID, "index")
		d.nested(func() {
			d.expr(e.Base)
			for _, a := range e.Args {
				d.expr(a)
			}
		})
	}
}
