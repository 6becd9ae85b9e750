package hir

import (
	"crypto/sha256"

	"github.com/NathanBHay/shackle/internal/source"
)

// SourceMap maps NodeIds back to byte spans. Spans live in a side table so
// that a trivia-only edit can shift an item's position without touching node
// identity: re-lowering produces a fresh map with updated spans while reused
// items keep their ids.
type SourceMap map[NodeID]source.Span

// Span returns the recorded span for id.
func (m SourceMap) Span(id NodeID) (source.Span, bool) {
	sp, ok := m[id]
	return sp, ok
}

// NodeAt returns the id with the smallest span containing the byte offset,
// or NoNodeID.
func (m SourceMap) NodeAt(file source.FileID, off uint32) NodeID {
	best := NoNodeID
	bestLen := uint32(0)
	for id, sp := range m {
		if sp.File != file || !sp.Contains(off) {
			continue
		}
		if best == NoNodeID || sp.Len() < bestLen {
			best, bestLen = id, sp.Len()
		}
	}
	return best
}

// Fragment is the lowered form of one file version: its items in source
// order plus the span side table. Fragments are immutable after lowering.
type Fragment struct {
	File    source.FileID
	Path    string
	Version uint32
	Items   []*Item
	Spans   SourceMap
}

// Includes returns the include targets in item order.
func (f *Fragment) Includes() []string {
	var out []string
	for _, it := range f.Items {
		if it.Kind == ItemInclude {
			out = append(out, it.Include.Path)
		}
	}
	return out
}

// ItemAt returns the item whose span contains the byte offset, or nil.
func (f *Fragment) ItemAt(off uint32) *Item {
	for _, it := range f.Items {
		if sp, ok := f.Spans[it.ID]; ok && sp.Contains(off) {
			return it
		}
	}
	return nil
}

// DeclDigest hashes, in order, the fingerprints of all items that contribute
// names to the global scope. When two versions of a file share a digest,
// edits were confined to non-declaring items (constraints, solve, output)
// and scopes built over the file stay valid.
func (f *Fragment) DeclDigest() Fingerprint {
	h := sha256.New()
	for _, it := range f.Items {
		switch it.Kind {
		case ItemDeclaration, ItemFunction, ItemPredicate, ItemTest,
			ItemEnum, ItemTypeAlias, ItemInclude, ItemAssignment:
			h.Write(it.Fingerprint[:])
		}
	}
	var out Fingerprint
	h.Sum(out[:0])
	return out
}
