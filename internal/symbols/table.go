package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/NathanBHay/shackle/internal/hir"
	"github.com/NathanBHay/shackle/internal/source"
)

// Hints provide optional capacity suggestions for the table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates the scope and symbol arenas for one scope build. The
// driver constructs a fresh table whenever the global scope is invalidated;
// tables are never mutated after building, so snapshots can share them.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Strings *source.Interner

	global  ScopeID
	scopeOf map[hir.NodeID]ScopeID
}

// NewTable builds a fresh table. If strings is nil a private interner is
// allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Table{
		Scopes:  NewScopes(scopeCap),
		Symbols: NewSymbols(symCap),
		Strings: strings,
		scopeOf: make(map[hir.NodeID]ScopeID),
	}
}

// Global returns the workspace-wide scope, creating it on first use.
func (t *Table) Global() ScopeID {
	if !t.global.IsValid() {
		t.global = t.Scopes.New(ScopeGlobal, NoScopeID, hir.NoNodeID, source.Span{})
	}
	return t.global
}

// Declare records a symbol in its scope and name index.
func (t *Table) Declare(scope ScopeID, sym *Symbol) SymbolID {
	sym.Scope = scope
	id := t.Symbols.New(sym)
	sc := t.Scopes.Get(scope)
	sc.Symbols = append(sc.Symbols, id)
	sc.NameIndex[sym.Name] = append(sc.NameIndex[sym.Name], id)
	return id
}

// Lookup resolves a name from the given scope outward. It returns every
// symbol bound to the name in the innermost scope that has any; inner
// bindings shadow outer ones silently.
func (t *Table) Lookup(scope ScopeID, name source.StringID) []SymbolID {
	for sc := t.Scopes.Get(scope); sc != nil; sc = t.Scopes.Get(sc.Parent) {
		if ids := sc.NameIndex[name]; len(ids) > 0 {
			return ids
		}
	}
	return nil
}

// LookupCallables resolves a called name. The overload set comes from the
// innermost scope that binds the name at all; outer scopes never contribute,
// so an inner binding hides outer overloads rather than merging with them.
func (t *Table) LookupCallables(scope ScopeID, name source.StringID) []SymbolID {
	for sc := t.Scopes.Get(scope); sc != nil; sc = t.Scopes.Get(sc.Parent) {
		ids := sc.NameIndex[name]
		if len(ids) == 0 {
			continue
		}
		var out []SymbolID
		for _, id := range ids {
			if t.Symbols.Get(id).Kind.IsCallable() {
				out = append(out, id)
			}
		}
		if out == nil {
			// the name is shadowed by a non-callable binding
			return ids
		}
		return out
	}
	return nil
}

// ScopeOf returns the innermost scope enclosing the node, or the global
// scope when the node was not recorded.
func (t *Table) ScopeOf(node hir.NodeID) ScopeID {
	if sc, ok := t.scopeOf[node]; ok {
		return sc
	}
	return t.Global()
}

func (t *Table) setScopeOf(node hir.NodeID, scope ScopeID) {
	if node.IsValid() {
		t.scopeOf[node] = scope
	}
}

// ScopeAt returns the innermost scope whose span contains the offset, or
// the global scope. Chained scopes share a span; the later-created one is
// the deeper link, so ties go to it.
func (t *Table) ScopeAt(file source.FileID, off uint32) ScopeID {
	best := t.Global()
	bestLen := ^uint32(0)
	for i := 1; i <= t.Scopes.Len(); i++ {
		id := ScopeID(i)
		sc := t.Scopes.Get(id)
		if sc.Kind == ScopeGlobal || sc.Span.File != file || !sc.Span.Contains(off) {
			continue
		}
		if sc.Span.Len() <= bestLen {
			best, bestLen = id, sc.Span.Len()
		}
	}
	return best
}

// VisibleAt lists the names visible at a scope, innermost shadowing
// outermost, for scope inspection output.
func (t *Table) VisibleAt(scope ScopeID) map[source.StringID][]SymbolID {
	out := make(map[source.StringID][]SymbolID)
	for sc := t.Scopes.Get(scope); sc != nil; sc = t.Scopes.Get(sc.Parent) {
		for name, ids := range sc.NameIndex {
			if _, shadowed := out[name]; !shadowed {
				out[name] = ids
			}
		}
	}
	return out
}
