// Package driver owns the incremental pipeline: it loads an include
// closure, lowers every file, builds scopes, resolves names and hands out
// immutable snapshots. Updates are serialized; queries run against a
// snapshot and fail with ErrStaleVersion once the workspace moves on.
package driver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/NathanBHay/shackle/internal/cst"
	"github.com/NathanBHay/shackle/internal/diag"
	"github.com/NathanBHay/shackle/internal/hir"
	"github.com/NathanBHay/shackle/internal/parser"
	"github.com/NathanBHay/shackle/internal/project"
	"github.com/NathanBHay/shackle/internal/sema"
	"github.com/NathanBHay/shackle/internal/source"
	"github.com/NathanBHay/shackle/internal/symbols"
	"github.com/NathanBHay/shackle/internal/types"
)

var (
	// ErrStaleVersion is returned by snapshot queries after the workspace
	// has processed a newer update.
	ErrStaleVersion = errors.New("driver: snapshot is stale")
	// ErrUnknownFile is returned for paths outside the loaded closure.
	ErrUnknownFile = errors.New("driver: file not part of the workspace")
)

// Options configure a workspace.
type Options struct {
	// Locator resolves include targets; defaults to a DirLocator with no
	// extra search directories.
	Locator project.Locator
	// Parser produces concrete syntax; defaults to the built-in parser.
	Parser cst.Parser
	// MaxDiagnostics caps each diagnostic bag. Defaults to 100.
	MaxDiagnostics int
	// Jobs limits parallel file parsing. Defaults to GOMAXPROCS.
	Jobs int
	// Cache, when set, records per-file artifacts across runs.
	Cache *DiskCache
}

func (o *Options) fill() {
	if o.Locator == nil {
		o.Locator = project.NewDirLocator()
	}
	if o.Parser == nil {
		o.Parser = parser.New()
	}
	if o.MaxDiagnostics <= 0 {
		o.MaxDiagnostics = 100
	}
	if o.Jobs <= 0 {
		o.Jobs = runtime.GOMAXPROCS(0)
	}
}

type fileState struct {
	path     string
	file     source.FileID
	root     *cst.Node
	frag     *hir.Fragment
	digest   hir.Fingerprint // of frag's declaring items
	lowerBag *diag.Bag
	includes []string // resolved paths, in item order
	virtual  bool     // content is an in-memory overlay, never reloaded
	readErr  error
}

// LoadStats summarize one closure load.
type LoadStats struct {
	Files     int
	CacheHits int
}

// Workspace is the mutable owner of the pipeline state. All exported
// methods are safe for concurrent use; updates serialize behind the write
// lock.
type Workspace struct {
	mu   sync.RWMutex
	opts Options

	fs    *source.FileSet
	strs  *source.Interner
	tin   *types.Interner
	alloc *hir.Allocator
	lower *hir.Lowerer

	prelude *hir.Fragment

	version  uint64
	virtual  bool // loaded from in-memory texts; includes cannot hit the disk
	roots    []string
	order    []string // depth-first include order over the closure
	files    map[string]*fileState
	table    *symbols.Table
	scopeBag *diag.Bag
	results  map[string]*sema.Result
	resBags  map[string]*diag.Bag
	stats    LoadStats
}

// NewWorkspace builds an empty workspace.
func NewWorkspace(opts Options) *Workspace {
	opts.fill()
	w := &Workspace{
		opts:    opts,
		fs:      source.NewFileSet(),
		strs:    source.NewInterner(),
		tin:     types.NewInterner(),
		alloc:   hir.NewAllocator(),
		files:   make(map[string]*fileState),
		results: make(map[string]*sema.Result),
		resBags: make(map[string]*diag.Bag),
	}
	w.lower = hir.NewLowerer(w.alloc, w.tin, w.strs)
	w.prelude = sema.Prelude(w.alloc, w.tin, w.strs)
	return w
}

// RenderType renders an interned type for display.
func (w *Workspace) RenderType(t types.TypeID) string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tin.Render(t, w.strs)
}

// Load reads the given root model files and their include closures from
// disk, then builds scopes and resolutions for the whole workspace.
func (w *Workspace) Load(ctx context.Context, roots ...string) (*Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.version++ // mutation starts: existing snapshots go stale
	w.virtual = false

	w.roots = w.roots[:0]
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, err
		}
		w.roots = append(w.roots, abs)
	}
	if err := w.loadClosure(ctx, w.roots, false); err != nil {
		return nil, err
	}
	for _, r := range w.roots {
		if st := w.files[r]; st != nil && st.readErr != nil {
			return nil, st.readErr
		}
	}
	w.rebuild()
	return w.snapshotLocked(), nil
}

// LoadVirtual builds the workspace from in-memory texts instead of the
// filesystem; include targets must resolve through the configured locator
// to keys of texts. Tests and editor integrations use it.
func (w *Workspace) LoadVirtual(ctx context.Context, root string, texts map[string]string) (*Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.version++
	w.virtual = true

	for path, text := range texts {
		id := w.fs.AddVirtual(path, []byte(text))
		w.files[path] = &fileState{path: path, file: id, virtual: true}
	}
	w.roots = []string{root}
	if err := w.loadClosure(ctx, w.roots, true); err != nil {
		return nil, err
	}
	w.rebuild()
	return w.snapshotLocked(), nil
}

// loadClosure parses and lowers every reachable file, wave by wave until
// include resolution stops producing new paths. Files already lowered are
// left alone.
func (w *Workspace) loadClosure(ctx context.Context, pending []string, virtual bool) error {
	done := make(map[string]bool)
	for p, st := range w.files {
		if st.frag != nil {
			done[p] = true
		}
	}
	for len(pending) > 0 {
		var wave []string
		for _, p := range pending {
			if !done[p] {
				done[p] = true
				wave = append(wave, p)
			}
		}
		if len(wave) == 0 {
			break
		}
		if err := w.parseWave(ctx, wave, virtual); err != nil {
			return err
		}

		var next []string
		for _, p := range wave {
			st := w.files[p]
			if st == nil || st.frag == nil {
				continue
			}
			st.includes = w.resolveIncludes(st)
			next = append(next, st.includes...)
		}
		pending = next
	}
	w.order = w.closureOrder()
	return nil
}

// parseWave handles one batch of files. Reading mutates the file set and
// runs first on this goroutine; parsing is pure over the stored content
// and fans out over the errgroup; lowering mints NodeIds from the shared
// allocator and runs serially last.
func (w *Workspace) parseWave(ctx context.Context, wave []string, virtual bool) error {
	ids := make([]source.FileID, len(wave))
	failed := make([]bool, len(wave))
	for i, path := range wave {
		if st, ok := w.files[path]; ok && st.virtual {
			ids[i] = st.file
			continue
		}
		if virtual {
			return fmt.Errorf("%w: %s", ErrUnknownFile, path)
		}
		id, err := w.fs.Load(path)
		if err != nil {
			// a missing include surfaces as a diagnostic on the including
			// item, not as a load failure of the whole workspace; root files
			// report the error from Load instead
			failed[i] = true
			if w.files[path] == nil {
				w.files[path] = &fileState{path: path}
			}
			w.files[path].readErr = err
			continue
		}
		ids[i] = id
	}

	roots := make([]*cst.Node, len(wave))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(w.opts.Jobs, len(wave)))
	for i := range wave {
		if failed[i] {
			continue
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			f := w.fs.Get(ids[i])
			roots[i] = w.opts.Parser.Parse(ids[i], f.Content)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, path := range wave {
		if failed[i] {
			continue
		}
		st := w.files[path]
		if st == nil {
			st = &fileState{path: path}
			w.files[path] = st
		}
		st.file = ids[i]
		st.root = roots[i]
		w.lowerFile(st)
	}
	return nil
}

func (w *Workspace) lowerFile(st *fileState) {
	f := w.fs.Get(st.file)
	bag := diag.NewBag(w.opts.MaxDiagnostics)
	st.lowerBag = bag
	st.frag = w.lower.LowerFile(st.file, st.path, f.Version, st.root, st.frag, diag.BagReporter{Bag: bag})
	if w.opts.Cache != nil {
		if prev, err := w.opts.Cache.Get(f.Hash); err == nil && prev != nil {
			// same content as a previous run: the recorded digest stands in
			// for re-hashing the declaring items, and the entry is not
			// rewritten
			w.stats.CacheHits++
			st.digest = prev.DeclDigest
			return
		}
	}
	st.digest = st.frag.DeclDigest()
	if w.opts.Cache != nil {
		_ = w.opts.Cache.Put(f.Hash, &FileArtifacts{
			Path:       st.path,
			DeclDigest: st.digest,
			Includes:   st.frag.Includes(),
			DiagCount:  bag.Len(),
		})
	}
}

// resolveIncludes maps the fragment's include targets to paths, flagging
// targets the locator cannot find.
func (w *Workspace) resolveIncludes(st *fileState) []string {
	var out []string
	fromDir := filepath.Dir(st.path)
	for _, it := range st.frag.Items {
		if it.Kind != hir.ItemInclude {
			continue
		}
		target := it.Include.Path
		resolved, err := w.opts.Locator.Resolve(fromDir, target)
		if err != nil {
			sp, _ := st.frag.Spans.Span(it.ID)
			diag.ReportError(diag.BagReporter{Bag: st.lowerBag}, diag.ScopeUnresolvedInclude, sp,
				fmt.Sprintf("cannot resolve include %q", target)).Emit()
			continue
		}
		out = append(out, resolved)
	}
	return out
}

// closureOrder is the depth-first preorder over the include graph from the
// roots. Visited files are skipped, so diamond and cyclic includes are
// processed once.
func (w *Workspace) closureOrder() []string {
	var order []string
	visited := make(map[string]bool)
	var visit func(path string)
	visit = func(path string) {
		if visited[path] {
			return
		}
		visited[path] = true
		st := w.files[path]
		if st == nil || st.frag == nil {
			return
		}
		order = append(order, path)
		for _, inc := range st.includes {
			visit(inc)
		}
	}
	for _, r := range w.roots {
		visit(r)
	}
	return order
}

// rebuild reconstructs the scope table and every resolution from the
// current fragments. It runs after loads and after updates that change the
// set of globally visible declarations.
func (w *Workspace) rebuild() {
	w.table = symbols.NewTable(symbols.Hints{}, w.strs)
	w.scopeBag = diag.NewBag(w.opts.MaxDiagnostics)

	frags := make([]*hir.Fragment, 0, len(w.order)+1)
	frags = append(frags, w.prelude)
	for _, p := range w.order {
		frags = append(frags, w.files[p].frag)
	}
	symbols.BuildGlobal(w.table, w.tin, frags, diag.BagReporter{Bag: w.scopeBag})

	w.results = make(map[string]*sema.Result, len(w.order))
	w.resBags = make(map[string]*diag.Bag, len(w.order))
	for _, p := range w.order {
		frag := w.files[p].frag
		symbols.BuildLexical(w.table, frag)
		bag := diag.NewBag(w.opts.MaxDiagnostics)
		w.results[p] = sema.ResolveFragment(w.table, w.tin, frag, diag.BagReporter{Bag: bag})
		w.resBags[p] = bag
	}
	w.stats.Files = len(w.order)
	w.version++
}

// Update replaces one file's text and advances the workspace. A change
// confined to item bodies re-lowers and re-resolves only that file; a
// change to the declaring items or the include list invalidates the global
// scope and every resolution.
func (w *Workspace) Update(ctx context.Context, path string, text []byte) (*Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := w.lookupState(path)
	if st == nil || st.frag == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFile, path)
	}
	w.version++ // mutation starts: existing snapshots go stale

	oldDigest := st.digest
	oldIncludes := st.includes

	st.file = w.fs.AddVirtual(st.path, text)
	st.virtual = true
	st.root = w.opts.Parser.Parse(st.file, w.fs.Get(st.file).Content)
	w.lowerFile(st)
	st.includes = w.resolveIncludes(st)

	if st.digest == oldDigest && samePaths(oldIncludes, st.includes) {
		// body-only edit: the global scope still holds, so only this file's
		// lexical scopes and resolution are rebuilt
		symbols.BuildLexical(w.table, st.frag)
		bag := diag.NewBag(w.opts.MaxDiagnostics)
		w.results[st.path] = sema.ResolveFragment(w.table, w.tin, st.frag, diag.BagReporter{Bag: bag})
		w.resBags[st.path] = bag
		return w.snapshotLocked(), nil
	}

	// declaring items or includes changed: load any new includes, recompute
	// the order and rebuild scopes and resolutions from scratch. The closure
	// reloads from wherever the workspace was loaded from; the edited file
	// itself stays an overlay.
	if err := w.loadClosure(ctx, st.includes, w.virtual); err != nil {
		// keep the workspace consistent over what did load
		w.rebuild()
		return nil, err
	}
	w.rebuild()
	return w.snapshotLocked(), nil
}

func (w *Workspace) lookupState(path string) *fileState {
	if st, ok := w.files[path]; ok {
		return st
	}
	if abs, err := filepath.Abs(path); err == nil {
		return w.files[abs]
	}
	return nil
}

func samePaths(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
