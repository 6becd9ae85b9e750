package hir

import (
	"fmt"

	"github.com/NathanBHay/shackle/internal/source"
	"github.com/NathanBHay/shackle/internal/types"
)

// ItemKind tags top-level items.
type ItemKind uint8

const (
	ItemError ItemKind = iota
	ItemInclude
	ItemDeclaration
	ItemFunction
	ItemPredicate
	ItemTest
	ItemEnum
	ItemTypeAlias
	ItemConstraint
	ItemSolve
	ItemOutput
	ItemAssignment
)

func (k ItemKind) String() string {
	switch k {
	case ItemError:
		return "error"
	case ItemInclude:
		return "include"
	case ItemDeclaration:
		return "declaration"
	case ItemFunction:
		return "function"
	case ItemPredicate:
		return "predicate"
	case ItemTest:
		return "test"
	case ItemEnum:
		return "enum"
	case ItemTypeAlias:
		return "type-alias"
	case ItemConstraint:
		return "constraint"
	case ItemSolve:
		return "solve"
	case ItemOutput:
		return "output"
	case ItemAssignment:
		return "assignment"
	default:
		return fmt.Sprintf("ItemKind(%d)", k)
	}
}

// Item is one lowered top-level item. Exactly one payload field matching Kind
// is non-nil; ItemError, ItemConstraint and ItemOutput use Expr directly
// (nil for ItemError).
type Item struct {
	ID          NodeID
	Kind        ItemKind
	Fingerprint Fingerprint

	Include *Include
	Decl    *Declaration
	Func    *Function
	Enum    *Enum
	Alias   *TypeAlias
	Solve   *Solve
	Assign  *Assignment
	Expr    *Expr
}

// Include is a lowered include item. Path is the unquoted include target;
// resolution to a file happens in the driver.
type Include struct {
	Path string
}

// Declaration is a lowered variable declaration. It doubles as a let binding.
type Declaration struct {
	ID   NodeID
	Name source.StringID
	Type *TypeNode
	Init *Expr // nil when the declaration has no initializer
}

// Function is a lowered function, predicate or test item. Predicates and
// tests have no declared return type node; Result still carries their
// implied bool type-inst.
type Function struct {
	ID      NodeID
	Name    source.StringID
	Ret     *TypeNode // nil for predicate and test items
	Result  types.TypeID
	Params  []*Param
	Body    *Expr // nil for bodyless (externally defined) signatures
	Builtin bool  // registered by the prelude, not lowered from source
}

// Param is one formal parameter.
type Param struct {
	ID   NodeID
	Name source.StringID
	Type *TypeNode
}

// Enum is a lowered enum item. Members is nil for an opaque `enum E;`.
type Enum struct {
	ID      NodeID
	Name    source.StringID
	Members []*EnumMember
}

// EnumMember is one enum atom.
type EnumMember struct {
	ID   NodeID
	Name source.StringID
}

// TypeAlias binds a name to a type-inst.
type TypeAlias struct {
	ID   NodeID
	Name source.StringID
	Type *TypeNode
}

// SolveMethod enumerates solve goals.
type SolveMethod uint8

const (
	SolveSatisfy SolveMethod = iota
	SolveMinimize
	SolveMaximize
)

func (m SolveMethod) String() string {
	switch m {
	case SolveMinimize:
		return "minimize"
	case SolveMaximize:
		return "maximize"
	default:
		return "satisfy"
	}
}

// Solve is the lowered solve item. Objective is nil for satisfy.
type Solve struct {
	Method    SolveMethod
	Objective *Expr
}

// Assignment binds a value to a previously declared name (`x = 5;`).
type Assignment struct {
	NameID NodeID
	Name   source.StringID
	Value  *Expr
}

// TypeNode is a lowered type-inst annotation. Type is the composed interned
// type; the structural fields mirror the written syntax so printing and
// domain resolution can recurse the way the source reads. Domain retains the
// original domain expression (`1..n`, `{1,3}`) when the type position held
// one.
type TypeNode struct {
	ID     NodeID
	Type   types.TypeID
	Domain *Expr
	Dims   []*TypeNode // array index-set positions
	Elem   *TypeNode   // set/array element
	Fields []*TypeNode // tuple fields
}
