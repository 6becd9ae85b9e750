package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NathanBHay/shackle/internal/diag"
	"github.com/NathanBHay/shackle/internal/hir"
	"github.com/NathanBHay/shackle/internal/project"
)

const (
	mainText = "include \"lib.mzn\";\nvar int: x;\nconstraint x < limit;\n"
	libText  = "int: limit = 10;\n"
)

func loadModel(t *testing.T, texts map[string]string) (*Workspace, *Snapshot) {
	t.Helper()
	loc := make(project.MapLocator)
	for path := range texts {
		loc[path] = path
	}
	w := NewWorkspace(Options{Locator: loc, Jobs: 2})
	snap, err := w.LoadVirtual(context.Background(), "main.mzn", texts)
	if err != nil {
		t.Fatalf("LoadVirtual: %v", err)
	}
	return w, snap
}

func noDiagnostics(t *testing.T, snap *Snapshot) {
	t.Helper()
	ds, err := snap.Diagnostics()
	if err != nil {
		t.Fatalf("Diagnostics: %v", err)
	}
	if len(ds) != 0 {
		t.Fatalf("unexpected diagnostics: %v", ds)
	}
}

func TestLoadResolvesAcrossIncludes(t *testing.T) {
	_, snap := loadModel(t, map[string]string{"main.mzn": mainText, "lib.mzn": libText})
	noDiagnostics(t, snap)

	files, err := snap.Files()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0] != "main.mzn" || files[1] != "lib.mzn" {
		t.Fatalf("files = %v", files)
	}
	res, err := snap.Resolution("main.mzn")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Bindings) == 0 {
		t.Fatalf("constraint did not bind any names")
	}
}

func TestDiamondIncludeLoadsOnce(t *testing.T) {
	_, snap := loadModel(t, map[string]string{
		"main.mzn": "include \"a.mzn\";\ninclude \"b.mzn\";\nconstraint shared > 0;\n",
		"a.mzn":    "include \"common.mzn\";\n",
		"b.mzn":    "include \"common.mzn\";\n",
		"common.mzn": "int: shared = 1;\n",
	})
	noDiagnostics(t, snap)

	files, err := snap.Files()
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]int)
	for _, f := range files {
		seen[f]++
	}
	if seen["common.mzn"] != 1 || len(files) != 4 {
		t.Fatalf("files = %v", files)
	}
}

func TestUnresolvedIncludeIsDiagnosed(t *testing.T) {
	_, snap := loadModel(t, map[string]string{
		"main.mzn": "include \"missing.mzn\";\nint: x = 1;\n",
	})
	ds, err := snap.Diagnostics()
	if err != nil {
		t.Fatal(err)
	}
	if len(ds) != 1 || ds[0].Code != diag.ScopeUnresolvedInclude {
		t.Fatalf("diagnostics = %v", ds)
	}
}

func TestBodyEditKeepsNodeIDsAndOtherResolutions(t *testing.T) {
	w, snap := loadModel(t, map[string]string{"main.mzn": mainText, "lib.mzn": libText})
	noDiagnostics(t, snap)

	before, err := snap.Fragment("main.mzn")
	if err != nil {
		t.Fatal(err)
	}
	libRes, err := snap.Resolution("lib.mzn")
	if err != nil {
		t.Fatal(err)
	}

	// only the constraint body changes; declaring items stay byte-identical
	edited := strings.Replace(mainText, "x < limit", "x < limit /\\ x > 0", 1)
	snap2, err := w.Update(context.Background(), "main.mzn", []byte(edited))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	noDiagnostics(t, snap2)

	after, err := snap2.Fragment("main.mzn")
	if err != nil {
		t.Fatal(err)
	}
	// declaring items replay their ids
	for i := range before.Items {
		if before.Items[i].Kind == hir.ItemConstraint {
			continue
		}
		was, now := hir.CollectIDs(before.Items[i]), hir.CollectIDs(after.Items[i])
		if len(was) != len(now) {
			t.Fatalf("item %d id count changed: %d vs %d", i, len(was), len(now))
		}
		for j := range was {
			if was[j] != now[j] {
				t.Fatalf("item %d id %d changed: %v vs %v", i, j, was[j], now[j])
			}
		}
	}
	// the untouched file's resolution was not rebuilt
	libRes2, err := snap2.Resolution("lib.mzn")
	if err != nil {
		t.Fatal(err)
	}
	if libRes2 != libRes {
		t.Fatalf("body edit rebuilt the untouched file's resolution")
	}
}

func TestDeclEditRebuildsScopes(t *testing.T) {
	w, snap := loadModel(t, map[string]string{"main.mzn": mainText, "lib.mzn": libText})
	libRes, err := snap.Resolution("lib.mzn")
	if err != nil {
		t.Fatal(err)
	}

	snap2, err := w.Update(context.Background(), "main.mzn",
		[]byte(mainText+"int: extra = 2;\nconstraint extra > 1;\n"))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	noDiagnostics(t, snap2)

	libRes2, err := snap2.Resolution("lib.mzn")
	if err != nil {
		t.Fatal(err)
	}
	if libRes2 == libRes {
		t.Fatalf("declaration edit did not rebuild resolutions")
	}
}

func TestStaleSnapshotRefusesQueries(t *testing.T) {
	w, snap := loadModel(t, map[string]string{"main.mzn": mainText, "lib.mzn": libText})
	if _, err := w.Update(context.Background(), "main.mzn", []byte(mainText)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if _, err := snap.Fragment("main.mzn"); !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("Fragment on stale snapshot: %v", err)
	}
	if _, err := snap.Diagnostics(); !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("Diagnostics on stale snapshot: %v", err)
	}
}

func TestUpdateUnknownFile(t *testing.T) {
	w, _ := loadModel(t, map[string]string{"main.mzn": mainText, "lib.mzn": libText})
	if _, err := w.Update(context.Background(), "other.mzn", []byte("int: a;\n")); !errors.Is(err, ErrUnknownFile) {
		t.Fatalf("Update unknown file: %v", err)
	}
}

func TestScopeAtSeesIncludedNames(t *testing.T) {
	_, snap := loadModel(t, map[string]string{"main.mzn": mainText, "lib.mzn": libText})

	off := uint32(strings.Index(mainText, "limit"))
	entries, err := snap.ScopeAt("main.mzn", off)
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]bool)
	for _, e := range entries {
		names[e.Name] = true
	}
	for _, want := range []string{"x", "limit", "forall"} {
		if !names[want] {
			t.Errorf("name %q not visible at constraint", want)
		}
	}
}

func TestTypeAtConstraint(t *testing.T) {
	_, snap := loadModel(t, map[string]string{"main.mzn": mainText, "lib.mzn": libText})

	off := uint32(strings.Index(mainText, "x < limit"))
	got, err := snap.TypeAt("main.mzn", off)
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Fatalf("no type at constraint operand")
	}
}

func writeModel(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUpdateLoadsNewIncludeFromDisk(t *testing.T) {
	dir := t.TempDir()
	mainPath := writeModel(t, dir, "main.mzn", "var int: x;\nconstraint x < 3;\n")
	writeModel(t, dir, "lib.mzn", libText)

	w := NewWorkspace(Options{Jobs: 2})
	snap, err := w.Load(context.Background(), mainPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	noDiagnostics(t, snap)

	// an earlier update must not flip the workspace into virtual mode
	if _, err := w.Update(context.Background(), mainPath,
		[]byte("var int: x;\nconstraint x < 4;\n")); err != nil {
		t.Fatalf("first Update: %v", err)
	}

	snap3, err := w.Update(context.Background(), mainPath,
		[]byte("include \"lib.mzn\";\nvar int: x;\nconstraint x < limit;\n"))
	if err != nil {
		t.Fatalf("Update adding an include: %v", err)
	}
	noDiagnostics(t, snap3)
	files, err := snap3.Files()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want main and the new include", files)
	}
}

func TestFailedUpdateInvalidatesSnapshots(t *testing.T) {
	loc := project.MapLocator{
		"main.mzn": "main.mzn", "lib.mzn": "lib.mzn", "ghost.mzn": "ghost.mzn",
	}
	w := NewWorkspace(Options{Locator: loc, Jobs: 2})
	snap, err := w.LoadVirtual(context.Background(), "main.mzn",
		map[string]string{"main.mzn": mainText, "lib.mzn": libText})
	if err != nil {
		t.Fatalf("LoadVirtual: %v", err)
	}

	// the include resolves but has no virtual text behind it
	_, err = w.Update(context.Background(), "main.mzn",
		[]byte("include \"lib.mzn\";\ninclude \"ghost.mzn\";\nvar int: x;\nconstraint x < limit;\n"))
	if !errors.Is(err, ErrUnknownFile) {
		t.Fatalf("Update with unknown include: %v", err)
	}
	// the file set already changed, so the old view must refuse to answer
	if _, err := snap.Fragment("main.mzn"); !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("snapshot survived a failed update: %v", err)
	}
}

func TestDiskCacheWarmStart(t *testing.T) {
	dir := t.TempDir()
	cacheDir := t.TempDir()
	mainPath := writeModel(t, dir, "main.mzn", mainText)
	writeModel(t, dir, "lib.mzn", libText)

	cold, err := NewDiskCache(cacheDir)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	w1 := NewWorkspace(Options{Jobs: 2, Cache: cold})
	snap1, err := w1.Load(context.Background(), mainPath)
	if err != nil {
		t.Fatalf("cold Load: %v", err)
	}
	if stats, _ := snap1.Stats(); stats.CacheHits != 0 {
		t.Fatalf("cold load reported %d cache hits", stats.CacheHits)
	}

	warm, err := NewDiskCache(cacheDir)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	w2 := NewWorkspace(Options{Jobs: 2, Cache: warm})
	snap2, err := w2.Load(context.Background(), mainPath)
	if err != nil {
		t.Fatalf("warm Load: %v", err)
	}
	noDiagnostics(t, snap2)
	stats, err := snap2.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.CacheHits != 2 {
		t.Fatalf("warm load cache hits = %d, want 2", stats.CacheHits)
	}

	// the cached digest drives the body-only decision on the warm workspace
	libRes, err := snap2.Resolution(filepath.Join(dir, "lib.mzn"))
	if err != nil {
		t.Fatal(err)
	}
	snap3, err := w2.Update(context.Background(), mainPath,
		[]byte(strings.Replace(mainText, "x < limit", "x <= limit", 1)))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	libRes2, err := snap3.Resolution(filepath.Join(dir, "lib.mzn"))
	if err != nil {
		t.Fatal(err)
	}
	if libRes2 != libRes {
		t.Fatalf("body edit after warm start rebuilt the untouched file")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	hash := [32]byte{1, 2, 3}
	if got, err := cache.Get(hash); err != nil || got != nil {
		t.Fatalf("empty cache Get = %v, %v", got, err)
	}
	in := &FileArtifacts{Path: "main.mzn", Includes: []string{"lib.mzn"}, DiagCount: 2}
	if err := cache.Put(hash, in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	out, err := cache.Get(hash)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out == nil || out.Path != "main.mzn" || out.DiagCount != 2 || len(out.Includes) != 1 {
		t.Fatalf("round trip = %+v", out)
	}
}
