// Package symbols builds and stores the name scopes of a model: the global
// scope assembled over an include closure, and the lexical scopes opened by
// function parameters, let expressions and comprehension generators.
package symbols

import (
	"github.com/NathanBHay/shackle/internal/hir"
	"github.com/NathanBHay/shackle/internal/source"
	"github.com/NathanBHay/shackle/internal/types"
)

// SymbolKind classifies what a name refers to.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolVariable
	SymbolFunction
	SymbolPredicate
	SymbolTest
	SymbolEnum
	SymbolEnumMember
	SymbolTypeAlias
	SymbolParam
	SymbolLocal     // let-bound declaration
	SymbolGenerator // comprehension generator name
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolVariable:
		return "variable"
	case SymbolFunction:
		return "function"
	case SymbolPredicate:
		return "predicate"
	case SymbolTest:
		return "test"
	case SymbolEnum:
		return "enum"
	case SymbolEnumMember:
		return "enum member"
	case SymbolTypeAlias:
		return "type alias"
	case SymbolParam:
		return "parameter"
	case SymbolLocal:
		return "local"
	case SymbolGenerator:
		return "generator"
	default:
		return "invalid"
	}
}

// IsCallable reports whether the symbol participates in overload sets
// instead of claiming its name exclusively.
func (k SymbolKind) IsCallable() bool {
	return k == SymbolFunction || k == SymbolPredicate || k == SymbolTest
}

// SymbolFlags encode quick-check attributes.
type SymbolFlags uint8

const (
	SymbolFlagBuiltin  SymbolFlags = 1 << iota // registered by the prelude
	SymbolFlagAssigned                         // declaration received a value via an assignment item
)

// Symbol is one named entity. Func is set for callables (their signature
// drives overload resolution); Type is set for value bindings where the
// declared type-inst is known at scope-build time.
type Symbol struct {
	Name  source.StringID
	Kind  SymbolKind
	Scope ScopeID
	Node  hir.NodeID
	Span  source.Span
	Flags SymbolFlags
	Type  types.TypeID
	Func  *hir.Function
}
