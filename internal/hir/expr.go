package hir

import (
	"fmt"

	"github.com/NathanBHay/shackle/internal/source"
)

// ExprKind tags expression nodes.
type ExprKind uint8

const (
	ExprError ExprKind = iota
	ExprIntLit
	ExprFloatLit
	ExprBoolLit
	ExprStringLit
	ExprIdent
	ExprCall
	ExprArrayLit
	ExprSetLit
	ExprTupleLit
	ExprComprehension
	ExprIf
	ExprLet
	ExprIndex
)

func (k ExprKind) String() string {
	switch k {
	case ExprError:
		return "error"
	case ExprIntLit:
		return "int"
	case ExprFloatLit:
		return "float"
	case ExprBoolLit:
		return "bool"
	case ExprStringLit:
		return "string"
	case ExprIdent:
		return "ident"
	case ExprCall:
		return "call"
	case ExprArrayLit:
		return "array"
	case ExprSetLit:
		return "set"
	case ExprTupleLit:
		return "tuple"
	case ExprComprehension:
		return "comprehension"
	case ExprIf:
		return "if"
	case ExprLet:
		return "let"
	case ExprIndex:
		return "index"
	default:
		return fmt.Sprintf("ExprKind(%d)", k)
	}
}

// Expr is one lowered expression node. Field use by Kind:
//
//	ExprIntLit:        Int
//	ExprFloatLit:      Float
//	ExprBoolLit:       Bool
//	ExprStringLit:     Str
//	ExprIdent:         Name
//	ExprCall:          Name (callee), Args, Operator
//	ExprArrayLit:      Args (elements)
//	ExprSetLit:        Args (elements)
//	ExprTupleLit:      Args (fields)
//	ExprComprehension: Body (template), Gens, Where, IsSet
//	ExprIf:            Cond, Then, Else
//	ExprLet:           Bindings, Body
//	ExprIndex:         Base, Args (indices)
//
// Operator syntax is lowered away: `a + b` becomes a call of the builtin
// declaration `+` with Operator set, so overload resolution treats operators
// and ordinary calls uniformly.
type Expr struct {
	ID   NodeID
	Kind ExprKind

	Int   int64
	Float float64
	Bool  bool
	Str   string

	Name     source.StringID
	Operator bool

	Args []*Expr
	Base *Expr

	Cond *Expr
	Then *Expr
	Else *Expr

	Body     *Expr
	Gens     []*Generator
	Where    *Expr
	IsSet    bool
	Bindings []*LetBinding
}

// Generator is one `names in source` clause of a comprehension. Its names
// are in scope for later generators, the where-condition and the template.
type Generator struct {
	ID     NodeID
	Names  []*BoundName
	Source *Expr
}

// BoundName is a name introduced by a generator.
type BoundName struct {
	ID   NodeID
	Name source.StringID
}

// LetBinding is one binding of a let expression: either a local declaration
// or a local constraint, never both.
type LetBinding struct {
	ID         NodeID
	Decl       *Declaration
	Constraint *Expr
}
