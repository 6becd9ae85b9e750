package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/NathanBHay/shackle/internal/diag"
	"github.com/NathanBHay/shackle/internal/source"
)

func sampleDiag(t *testing.T) ([]diag.Diagnostic, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("model.mzn", []byte("int: n;\nconstraint nope > 0;\n"))
	off := uint32(strings.Index("int: n;\nconstraint nope > 0;\n", "nope"))
	sp := source.Span{File: id, Start: off, End: off + 4}
	d := diag.NewError(diag.ResUnknownIdentifier, sp, `undefined identifier "nope"`).
		WithNote(source.Span{File: id, Start: 0, End: 6}, "declared names are listed here")
	return []diag.Diagnostic{d}, fs
}

func TestPrettyOutput(t *testing.T) {
	items, fs := sampleDiag(t)
	var b bytes.Buffer
	Pretty(&b, items, fs, PrettyOpts{ShowNotes: true})

	out := b.String()
	for _, want := range []string{
		"model.mzn:2:12:",
		"ERROR [RES3001]",
		`undefined identifier "nope"`,
		"constraint nope > 0;",
		"^~~~",
		"note: declared names are listed here",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrettyBasenameMode(t *testing.T) {
	items, fs := sampleDiag(t)
	var b bytes.Buffer
	Pretty(&b, items, fs, PrettyOpts{PathMode: PathModeBasename})
	if !strings.HasPrefix(b.String(), "model.mzn:") {
		t.Fatalf("output = %q", b.String())
	}
}

func TestJSONOutput(t *testing.T) {
	items, fs := sampleDiag(t)
	var b bytes.Buffer
	if err := JSON(&b, items, fs, JSONOpts{IncludeNotes: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(b.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Code != "RES3001" || d.Severity != "ERROR" || d.Location.StartLine != 2 {
		t.Fatalf("diagnostic = %+v", d)
	}
	if len(d.Notes) != 1 {
		t.Fatalf("notes = %+v", d.Notes)
	}
}
