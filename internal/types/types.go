// Package types defines the closed type-inst algebra used by overload
// resolution: a base type, an instantiation marker (par/var) and an
// optionality marker, with structured element/dimension/field references for
// sets, arrays and tuples. The algebra is finite and handled by exhaustive
// switches; there is no open-ended dispatch.
package types

import (
	"fmt"

	"github.com/NathanBHay/shackle/internal/source"
)

// TypeID uniquely identifies a type-inst inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates the base types of the algebra.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindError is the silent type produced for expressions that already
	// carry a diagnostic. It unifies with everything to avoid cascades.
	KindError
	KindBool
	KindInt
	KindFloat
	KindString
	KindAnn
	KindSet
	KindArray
	KindTuple
	KindEnum
	// KindTypeVar is a generic type variable ($T). In an array's index
	// position it acts as a dimension variable binding the whole index-set
	// list.
	KindTypeVar
	// KindSetTypeVar is a generic set-element variable ($$E): it stands for
	// any enumerable element type (int or enum).
	KindSetTypeVar
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindError:
		return "error"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindAnn:
		return "ann"
	case KindSet:
		return "set"
	case KindArray:
		return "array"
	case KindTuple:
		return "tuple"
	case KindEnum:
		return "enum"
	case KindTypeVar:
		return "tyvar"
	case KindSetTypeVar:
		return "set-tyvar"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Inst is the instantiation marker: fixed parameter or decision variable.
type Inst uint8

const (
	InstPar Inst = iota
	InstVar
)

func (i Inst) String() string {
	if i == InstVar {
		return "var"
	}
	return "par"
}

// TypeInst is the structural descriptor interned by the Interner.
// Interpretation by Kind:
//
//	KindSet:        Elem is the element type
//	KindArray:      Dims are the index-set types, Elem the element type
//	KindTuple:      Fields are the field types
//	KindEnum:       Name is the enum's declared name
//	KindTypeVar:    Name is the variable spelling ("$T")
//	KindSetTypeVar: Name is the variable spelling ("$$E")
type TypeInst struct {
	Kind   Kind
	Inst   Inst
	Opt    bool
	Elem   TypeID
	Dims   []TypeID
	Fields []TypeID
	Name   source.StringID
}

// IsGeneric reports whether the descriptor itself is a generic variable.
func (t TypeInst) IsGeneric() bool {
	return t.Kind == KindTypeVar || t.Kind == KindSetTypeVar
}
