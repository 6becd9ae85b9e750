package sema

import (
	"github.com/NathanBHay/shackle/internal/source"
	"github.com/NathanBHay/shackle/internal/types"
)

// substitution binds generic type variables by spelling. A `$T` in an
// array's index position acts as a dimension variable: it binds the whole
// index-set list, represented internally as a tuple of the dimension types.
type substitution map[source.StringID]types.TypeID

func (s substitution) clone() substitution {
	out := make(substitution, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// coercible reports whether a value of type arg can be passed where param
// is expected, updating the substitution for generic parameters. The
// subtype ladder: par fits where var is expected, plain fits where opt is
// expected, int widens to float, and the silent error type fits anywhere in
// both directions.
func (r *resolver) coercible(arg, param types.TypeID, sub substitution) bool {
	arg = r.normalize(arg)
	param = r.normalize(param)
	if arg == param {
		return true
	}
	a := r.tin.MustLookup(arg)
	p := r.tin.MustLookup(param)

	if a.Kind == types.KindError || p.Kind == types.KindError {
		return true
	}

	if p.IsGeneric() {
		return r.bindVar(a, arg, p, sub)
	}
	if a.IsGeneric() {
		// a generic argument type (a parameter used inside a generic body)
		// only fits another generic parameter, handled above
		return false
	}

	// instantiation: par <= var; optionality: plain <= opt
	if a.Inst == types.InstVar && p.Inst != types.InstVar {
		return false
	}
	if a.Opt && !p.Opt {
		return false
	}

	if a.Kind != p.Kind {
		// numeric widening
		return a.Kind == types.KindInt && p.Kind == types.KindFloat
	}

	switch p.Kind {
	case types.KindBool, types.KindInt, types.KindFloat, types.KindString, types.KindAnn:
		return true
	case types.KindEnum:
		return a.Name == p.Name
	case types.KindSet:
		return r.coercible(a.Elem, p.Elem, sub)
	case types.KindArray:
		if len(p.Dims) == 1 {
			if pd := r.tin.MustLookup(p.Dims[0]); pd.Kind == types.KindTypeVar {
				// dimension variable swallows the whole index list
				if !r.bindDims(pd.Name, a.Dims, sub) {
					return false
				}
				return r.coercible(a.Elem, p.Elem, sub)
			}
		}
		if len(a.Dims) != len(p.Dims) {
			return false
		}
		for i := range a.Dims {
			if !r.coercible(a.Dims[i], p.Dims[i], sub) {
				return false
			}
		}
		return r.coercible(a.Elem, p.Elem, sub)
	case types.KindTuple:
		if len(a.Fields) != len(p.Fields) {
			return false
		}
		for i := range a.Fields {
			if !r.coercible(a.Fields[i], p.Fields[i], sub) {
				return false
			}
		}
		return true
	}
	return false
}

// bindVar unifies a type against a generic variable, keeping bindings
// consistent across parameters. A repeat occurrence must match the first
// binding exactly; disagreeing occurrences fail the candidate even when
// one type would coerce into the other.
func (r *resolver) bindVar(a types.TypeInst, arg types.TypeID, p types.TypeInst, sub substitution) bool {
	if p.Kind == types.KindSetTypeVar {
		// set element variables range over enumerable scalars
		if a.Kind == types.KindSetTypeVar {
			return true
		}
		if a.Kind != types.KindInt && a.Kind != types.KindEnum {
			return false
		}
		if a.Inst == types.InstVar || a.Opt {
			return false
		}
	}
	if a.Kind == types.KindTypeVar {
		// generic-to-generic always fits
		return true
	}
	if bound, ok := sub[p.Name]; ok {
		return bound == arg
	}
	sub[p.Name] = arg
	return true
}

// bindDims binds a dimension variable to an index-set list, encoded as a
// tuple type.
func (r *resolver) bindDims(name source.StringID, dims []types.TypeID, sub substitution) bool {
	encoded := r.tin.TupleOf(dims)
	if bound, ok := sub[name]; ok {
		return bound == encoded
	}
	sub[name] = encoded
	return true
}

// applySubst instantiates a signature type with the substitution gathered
// during matching. Unbound variables stay as they are.
func (r *resolver) applySubst(id types.TypeID, sub substitution) types.TypeID {
	if len(sub) == 0 {
		return id
	}
	t := r.tin.MustLookup(id)
	switch t.Kind {
	case types.KindTypeVar, types.KindSetTypeVar:
		if bound, ok := sub[t.Name]; ok {
			out := bound
			if t.Inst == types.InstVar {
				out = r.tin.WithInst(out, types.InstVar)
			}
			if t.Opt {
				out = r.tin.WithOpt(out, true)
			}
			return out
		}
		return id
	case types.KindSet:
		elem := r.applySubst(t.Elem, sub)
		if elem == t.Elem {
			return id
		}
		return r.tin.Intern(types.TypeInst{Kind: types.KindSet, Inst: t.Inst, Opt: t.Opt, Elem: elem})
	case types.KindArray:
		var dims []types.TypeID
		if len(t.Dims) == 1 {
			if dv := r.tin.MustLookup(t.Dims[0]); dv.Kind == types.KindTypeVar {
				if bound, ok := sub[dv.Name]; ok {
					dims = append(dims, r.tin.MustLookup(bound).Fields...)
				}
			}
		}
		if dims == nil {
			for _, d := range t.Dims {
				dims = append(dims, r.applySubst(d, sub))
			}
		}
		return r.tin.ArrayOf(dims, r.applySubst(t.Elem, sub))
	case types.KindTuple:
		fields := make([]types.TypeID, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = r.applySubst(f, sub)
		}
		return r.tin.TupleOf(fields)
	}
	return id
}

// lub returns the least common supertype of two expression types under the
// coercion ladder, or the error type when they are unrelated.
func (r *resolver) lub(a, b types.TypeID) types.TypeID {
	if a == types.NoTypeID {
		return b
	}
	if b == types.NoTypeID {
		return a
	}
	if a == b {
		return a
	}
	if r.tin.IsError(a) {
		return b
	}
	if r.tin.IsError(b) {
		return a
	}
	sub := make(substitution)
	if r.coercible(a, b, sub) {
		return b
	}
	if r.coercible(b, a, sub) {
		return a
	}
	// int and float may still meet at a var float, etc.
	wa := r.tin.MustLookup(a)
	wb := r.tin.MustLookup(b)
	if isNumeric(wa.Kind) && isNumeric(wb.Kind) {
		inst := types.InstPar
		if wa.Inst == types.InstVar || wb.Inst == types.InstVar {
			inst = types.InstVar
		}
		out := r.tin.Builtins().ParInt
		if wa.Kind == types.KindFloat || wb.Kind == types.KindFloat {
			out = r.tin.Builtins().ParFloat
		}
		return r.tin.WithInst(out, inst)
	}
	return r.tin.Builtins().Error
}

func isNumeric(k types.Kind) bool {
	return k == types.KindInt || k == types.KindFloat
}
