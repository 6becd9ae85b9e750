package types

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"github.com/NathanBHay/shackle/internal/source"
)

// Builtins stores TypeIDs for frequently used type-insts.
type Builtins struct {
	Error     TypeID
	ParBool   TypeID
	ParInt    TypeID
	ParFloat  TypeID
	ParString TypeID
	Ann       TypeID
	VarBool   TypeID
	VarInt    TypeID
	VarFloat  TypeID
}

// Interner provides stable TypeIDs by structural deduplication. The same
// descriptor always maps to the same TypeID within one interner, so TypeIDs
// are directly comparable.
type Interner struct {
	types    []TypeInst
	index    map[string]TypeID
	builtins Builtins
}

// NewInterner constructs an interner seeded with builtin type-insts.
func NewInterner() *Interner {
	in := &Interner{
		types: make([]TypeInst, 1, 64), // index 0 reserved for NoTypeID
		index: make(map[string]TypeID, 64),
	}
	in.builtins.Error = in.Intern(TypeInst{Kind: KindError})
	in.builtins.ParBool = in.Intern(TypeInst{Kind: KindBool})
	in.builtins.ParInt = in.Intern(TypeInst{Kind: KindInt})
	in.builtins.ParFloat = in.Intern(TypeInst{Kind: KindFloat})
	in.builtins.ParString = in.Intern(TypeInst{Kind: KindString})
	in.builtins.Ann = in.Intern(TypeInst{Kind: KindAnn})
	in.builtins.VarBool = in.Intern(TypeInst{Kind: KindBool, Inst: InstVar})
	in.builtins.VarInt = in.Intern(TypeInst{Kind: KindInt, Inst: InstVar})
	in.builtins.VarFloat = in.Intern(TypeInst{Kind: KindFloat, Inst: InstVar})
	return in
}

// Builtins returns the seeded TypeIDs.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the descriptor has a stable TypeID.
func (in *Interner) Intern(t TypeInst) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("type interner overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[key] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (TypeInst, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return TypeInst{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) TypeInst {
	t, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return t
}

// WithInst reinterns the type with a different instantiation marker.
func (in *Interner) WithInst(id TypeID, inst Inst) TypeID {
	t := in.MustLookup(id)
	if t.Inst == inst {
		return id
	}
	t.Inst = inst
	return in.Intern(t)
}

// WithOpt reinterns the type with a different optionality marker.
func (in *Interner) WithOpt(id TypeID, opt bool) TypeID {
	t := in.MustLookup(id)
	if t.Opt == opt {
		return id
	}
	t.Opt = opt
	return in.Intern(t)
}

// SetOf interns `set of elem` with the given instantiation.
func (in *Interner) SetOf(elem TypeID, inst Inst) TypeID {
	return in.Intern(TypeInst{Kind: KindSet, Inst: inst, Elem: elem})
}

// ArrayOf interns `array[dims] of elem`.
func (in *Interner) ArrayOf(dims []TypeID, elem TypeID) TypeID {
	return in.Intern(TypeInst{Kind: KindArray, Dims: dims, Elem: elem})
}

// TupleOf interns `tuple(fields...)`.
func (in *Interner) TupleOf(fields []TypeID) TypeID {
	return in.Intern(TypeInst{Kind: KindTuple, Fields: fields})
}

// EnumOf interns the enum type with the given declared name.
func (in *Interner) EnumOf(name source.StringID) TypeID {
	return in.Intern(TypeInst{Kind: KindEnum, Name: name})
}

// TypeVar interns a generic type variable with the given spelling.
func (in *Interner) TypeVar(name source.StringID, kind Kind) TypeID {
	return in.Intern(TypeInst{Kind: kind, Name: name})
}

// IsError reports whether the id is the silent error type.
func (in *Interner) IsError(id TypeID) bool {
	t, ok := in.Lookup(id)
	return ok && t.Kind == KindError
}

// Render produces the human-readable type-inst syntax, e.g.
// "var opt int", "array[int] of var float", "set of $$E".
func (in *Interner) Render(id TypeID, strings_ *source.Interner) string {
	t, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	var b strings.Builder
	if t.Inst == InstVar {
		b.WriteString("var ")
	}
	if t.Opt {
		b.WriteString("opt ")
	}
	switch t.Kind {
	case KindError:
		b.WriteString("<error>")
	case KindBool, KindInt, KindFloat, KindString, KindAnn:
		b.WriteString(t.Kind.String())
	case KindSet:
		b.WriteString("set of ")
		b.WriteString(in.Render(t.Elem, strings_))
	case KindArray:
		b.WriteString("array[")
		for i, d := range t.Dims {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(in.Render(d, strings_))
		}
		b.WriteString("] of ")
		b.WriteString(in.Render(t.Elem, strings_))
	case KindTuple:
		b.WriteString("tuple(")
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(in.Render(f, strings_))
		}
		b.WriteString(")")
	case KindEnum, KindTypeVar, KindSetTypeVar:
		name, _ := strings_.Lookup(t.Name)
		if name == "" {
			name = t.Kind.String()
		}
		b.WriteString(name)
	default:
		b.WriteString(t.Kind.String())
	}
	return b.String()
}

func typeKey(t TypeInst) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%d|%t|%d|%d|", t.Kind, t.Inst, t.Opt, t.Elem, t.Name)
	for _, d := range t.Dims {
		fmt.Fprintf(&b, "d%d,", d)
	}
	for _, f := range t.Fields {
		fmt.Fprintf(&b, "f%d,", f)
	}
	return b.String()
}
