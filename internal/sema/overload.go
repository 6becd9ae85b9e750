package sema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NathanBHay/shackle/internal/diag"
	"github.com/NathanBHay/shackle/internal/hir"
	"github.com/NathanBHay/shackle/internal/symbols"
	"github.com/NathanBHay/shackle/internal/types"
)

type candidate struct {
	id  symbols.SymbolID
	fn  *hir.Function
	sub substitution
}

// call resolves one call site: gather the overload set visible at the call,
// keep the candidates whose parameters the argument types coerce into, and
// pick the unique most specific one. Argument types that are already
// erroneous suppress the call's own diagnostics to avoid cascades.
func (r *resolver) call(e *hir.Expr) types.TypeID {
	bt := r.tin.Builtins()

	argTypes := make([]types.TypeID, len(e.Args))
	hasErrorArg := false
	for i, a := range e.Args {
		argTypes[i] = r.expr(a)
		if r.tin.IsError(argTypes[i]) {
			hasErrorArg = true
		}
	}

	scope := r.table.ScopeOf(e.ID)
	ids := r.table.LookupCallables(scope, e.Name)
	if len(ids) == 0 {
		diag.ReportError(r.rep, diag.ResUnknownIdentifier, r.span(e.ID),
			fmt.Sprintf("undefined function %q", r.name(e.Name))).Emit()
		return bt.Error
	}

	// LookupCallables falls back to the shadowing binding when no callable
	// carries the name
	var cands []candidate
	for _, sid := range ids {
		sym := r.table.Symbols.Get(sid)
		if !sym.Kind.IsCallable() {
			diag.ReportError(r.rep, diag.ResNotCallable, r.span(e.ID),
				fmt.Sprintf("%q is a %s, not a function", r.name(e.Name), sym.Kind)).
				WithNote(sym.Span, "declared here").
				Emit()
			return bt.Error
		}
		cands = append(cands, candidate{id: sid, fn: sym.Func})
	}
	// declaration order keeps resolution deterministic
	sort.Slice(cands, func(i, j int) bool { return cands[i].id < cands[j].id })

	var matches []candidate
	for _, c := range cands {
		if len(c.fn.Params) != len(argTypes) {
			continue
		}
		sub := make(substitution)
		ok := true
		for i, at := range argTypes {
			if !r.coercible(at, c.fn.Params[i].Type.Type, sub) {
				ok = false
				break
			}
		}
		if ok {
			c.sub = sub
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		if !hasErrorArg {
			b := diag.ReportError(r.rep, diag.ResNoMatchingOverload, r.span(e.ID),
				fmt.Sprintf("no overload of %q accepts (%s)", r.name(e.Name), r.renderArgs(argTypes)))
			for _, c := range cands[:min(len(cands), 3)] {
				b.WithNote(r.table.Symbols.Get(c.id).Span, "candidate: "+r.renderSignature(c.fn))
			}
			b.Emit()
		}
		return bt.Error
	case 1:
		return r.accept(e, matches[0])
	}

	best := r.mostSpecific(matches)
	if len(best) == 1 {
		return r.accept(e, best[0])
	}
	if !hasErrorArg {
		b := diag.ReportError(r.rep, diag.ResAmbiguousOverload, r.span(e.ID),
			fmt.Sprintf("call of %q is ambiguous for (%s)", r.name(e.Name), r.renderArgs(argTypes)))
		for _, c := range best[:min(len(best), 3)] {
			b.WithNote(r.table.Symbols.Get(c.id).Span, "candidate: "+r.renderSignature(c.fn))
		}
		b.Emit()
	}
	return bt.Error
}

func (r *resolver) accept(e *hir.Expr, c candidate) types.TypeID {
	r.res.Bindings[e.ID] = c.id
	if len(c.sub) > 0 {
		r.res.Insts[e.ID] = c.sub
	}
	return r.applySubst(r.normalize(c.fn.Result), c.sub)
}

// mostSpecific keeps the candidates no other candidate is strictly more
// specific than. A is at least as specific as B when each of A's parameter
// types coerces into B's corresponding one.
func (r *resolver) mostSpecific(matches []candidate) []candidate {
	le := func(a, b candidate) bool {
		sub := make(substitution)
		for i := range a.fn.Params {
			if !r.coercible(a.fn.Params[i].Type.Type, b.fn.Params[i].Type.Type, sub) {
				return false
			}
		}
		return true
	}
	var best []candidate
	for i, c := range matches {
		dominated := false
		for j, o := range matches {
			if i == j {
				continue
			}
			if le(o, c) && !le(c, o) {
				dominated = true
				break
			}
		}
		if !dominated {
			best = append(best, c)
		}
	}
	return best
}

func (r *resolver) renderArgs(args []types.TypeID) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = r.tin.Render(a, r.table.Strings)
	}
	return strings.Join(parts, ", ")
}

func (r *resolver) renderSignature(f *hir.Function) string {
	var b strings.Builder
	b.WriteString(r.name(f.Name))
	b.WriteString("(")
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.tin.Render(p.Type.Type, r.table.Strings))
	}
	b.WriteString("): ")
	b.WriteString(r.tin.Render(f.Result, r.table.Strings))
	return b.String()
}
