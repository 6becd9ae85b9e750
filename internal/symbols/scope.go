package symbols

import (
	"github.com/NathanBHay/shackle/internal/hir"
	"github.com/NathanBHay/shackle/internal/source"
)

// ScopeKind enumerates scope categories.
type ScopeKind uint8

const (
	ScopeInvalid       ScopeKind = iota
	ScopeGlobal                  // one per workspace, spans the include closure
	ScopeFunction                // parameters of a function, predicate or test
	ScopeLet                     // bindings of a let expression
	ScopeComprehension           // generator names of a comprehension
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeFunction:
		return "function"
	case ScopeLet:
		return "let"
	case ScopeComprehension:
		return "comprehension"
	default:
		return "invalid"
	}
}

// Scope is one lexical scope. Inner scopes shadow outer ones silently;
// NameIndex keeps every symbol sharing a name so callables form overload
// sets.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Owner     hir.NodeID // node that opened the scope; invalid for the global scope
	Span      source.Span
	NameIndex map[source.StringID][]SymbolID
	Symbols   []SymbolID
	Children  []ScopeID
}
