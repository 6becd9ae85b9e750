package driver

import (
	"fmt"
	"sort"

	"github.com/NathanBHay/shackle/internal/cst"
	"github.com/NathanBHay/shackle/internal/diag"
	"github.com/NathanBHay/shackle/internal/format"
	"github.com/NathanBHay/shackle/internal/hir"
	"github.com/NathanBHay/shackle/internal/sema"
	"github.com/NathanBHay/shackle/internal/source"
	"github.com/NathanBHay/shackle/internal/symbols"
	"github.com/NathanBHay/shackle/internal/types"
)

// Snapshot is a read-only view of the workspace at one version. Every
// query revalidates the version under the read lock, so a snapshot taken
// before an update cleanly refuses to answer instead of mixing states.
type Snapshot struct {
	ws      *Workspace
	version uint64
}

// Snapshot returns a view of the current version.
func (w *Workspace) Snapshot() *Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshotLocked()
}

func (w *Workspace) snapshotLocked() *Snapshot {
	return &Snapshot{ws: w, version: w.version}
}

// Version identifies the workspace state this snapshot was taken at.
func (s *Snapshot) Version() uint64 { return s.version }

func (s *Snapshot) state(path string) (*fileState, error) {
	if s.version != s.ws.version {
		return nil, ErrStaleVersion
	}
	st := s.ws.lookupState(path)
	if st == nil || st.frag == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFile, path)
	}
	return st, nil
}

// Files lists the closure in include order, roots first.
func (s *Snapshot) Files() ([]string, error) {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	if s.version != s.ws.version {
		return nil, ErrStaleVersion
	}
	out := make([]string, len(s.ws.order))
	copy(out, s.ws.order)
	return out, nil
}

// Stats reports counts from the load that produced this snapshot.
func (s *Snapshot) Stats() (LoadStats, error) {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	if s.version != s.ws.version {
		return LoadStats{}, ErrStaleVersion
	}
	return s.ws.stats, nil
}

// Sources exposes the file set for rendering spans. The set is append-only,
// but callers must not hold it across further updates.
func (s *Snapshot) Sources() (*source.FileSet, error) {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	if s.version != s.ws.version {
		return nil, ErrStaleVersion
	}
	return s.ws.fs, nil
}

// CST returns the concrete syntax tree of a loaded file.
func (s *Snapshot) CST(path string) (*cst.Node, error) {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	st, err := s.state(path)
	if err != nil {
		return nil, err
	}
	return st.root, nil
}

// Fragment returns the lowered form of a loaded file.
func (s *Snapshot) Fragment(path string) (*hir.Fragment, error) {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	st, err := s.state(path)
	if err != nil {
		return nil, err
	}
	return st.frag, nil
}

// Resolution returns the name and type resolution of a loaded file.
func (s *Snapshot) Resolution(path string) (*sema.Result, error) {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	st, err := s.state(path)
	if err != nil {
		return nil, err
	}
	return s.ws.results[st.path], nil
}

// Diagnostics merges every file's lowering, scope and resolution
// diagnostics, sorted by position with duplicates removed.
func (s *Snapshot) Diagnostics() ([]diag.Diagnostic, error) {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	if s.version != s.ws.version {
		return nil, ErrStaleVersion
	}
	merged := diag.NewBag(bagCap(s.ws.opts.MaxDiagnostics * (len(s.ws.order) + 1)))
	for _, p := range s.ws.order {
		merged.Merge(s.ws.files[p].lowerBag)
	}
	merged.Merge(s.ws.scopeBag)
	for _, p := range s.ws.order {
		merged.Merge(s.ws.resBags[p])
	}
	merged.Sort()
	merged.Dedup()
	return merged.Items(), nil
}

// DiagnosticsFor returns one file's lowering and resolution diagnostics.
// Scope diagnostics are global and not included.
func (s *Snapshot) DiagnosticsFor(path string) ([]diag.Diagnostic, error) {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	st, err := s.state(path)
	if err != nil {
		return nil, err
	}
	merged := diag.NewBag(bagCap(2 * s.ws.opts.MaxDiagnostics))
	merged.Merge(st.lowerBag)
	merged.Merge(s.ws.resBags[st.path])
	merged.Sort()
	merged.Dedup()
	return merged.Items(), nil
}

// bagCap clamps a merged-bag capacity to what a Bag can hold.
func bagCap(n int) int {
	const maxBag = int(^uint16(0))
	if n > maxBag {
		return maxBag
	}
	return n
}

// ScopeEntry describes one name visible at a position.
type ScopeEntry struct {
	Name string
	Kind symbols.SymbolKind
	Type types.TypeID
	Span source.Span
}

// ScopeAt lists the names visible at a byte offset in a file, innermost
// binding first per name, sorted by name.
func (s *Snapshot) ScopeAt(path string, off uint32) ([]ScopeEntry, error) {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	st, err := s.state(path)
	if err != nil {
		return nil, err
	}
	scope := s.ws.table.ScopeAt(st.file, off)
	visible := s.ws.table.VisibleAt(scope)

	var out []ScopeEntry
	for name, ids := range visible {
		for _, id := range ids {
			sym := s.ws.table.Symbols.Get(id)
			out = append(out, ScopeEntry{
				Name: s.ws.strs.MustLookup(name),
				Kind: sym.Kind,
				Type: sym.Type,
				Span: sym.Span,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Span.Start < out[j].Span.Start
	})
	return out, nil
}

// NodeAt returns the innermost node covering a byte offset in a file.
func (s *Snapshot) NodeAt(path string, off uint32) (hir.NodeID, error) {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	st, err := s.state(path)
	if err != nil {
		return hir.NoNodeID, err
	}
	return st.frag.Spans.NodeAt(st.file, off), nil
}

// TypeAt renders the inferred type of the innermost expression covering a
// byte offset, or "" when the position has no typed node.
func (s *Snapshot) TypeAt(path string, off uint32) (string, error) {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	st, err := s.state(path)
	if err != nil {
		return "", err
	}
	res := s.ws.results[st.path]
	id := st.frag.Spans.NodeAt(st.file, off)
	if !id.IsValid() {
		return "", nil
	}
	t, ok := res.Types[id]
	if !ok {
		return "", nil
	}
	return s.ws.tin.Render(t, s.ws.strs), nil
}

// PrettyPrint renders a loaded file's canonical form.
func (s *Snapshot) PrettyPrint(path string) (string, error) {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	st, err := s.state(path)
	if err != nil {
		return "", err
	}
	return format.Print(st.frag, s.ws.strs, s.ws.tin), nil
}

// DumpHIR renders a loaded file's lowered form for inspection.
func (s *Snapshot) DumpHIR(path string, opts hir.DumpOptions) (string, error) {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	st, err := s.state(path)
	if err != nil {
		return "", err
	}
	return hir.Dump(st.frag, s.ws.strs, s.ws.tin, opts), nil
}
