package diagfmt

import (
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/NathanBHay/shackle/internal/diag"
	"github.com/NathanBHay/shackle/internal/source"
)

// LocationJSON is a span resolved to file positions.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line"`
	StartCol  uint32 `json:"start_col"`
	EndLine   uint32 `json:"end_line"`
	EndCol    uint32 `json:"end_col"`
}

// NoteJSON is a secondary message attached to a diagnostic.
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON is one diagnostic in machine form.
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Title    string       `json:"title"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root of the JSON document.
type DiagnosticsOutput struct {
	Count       int              `json:"count"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
}

// JSON writes the diagnostics as one indented JSON document.
func JSON(w io.Writer, items []diag.Diagnostic, fs *source.FileSet, opts JSONOpts) error {
	out := DiagnosticsOutput{
		Count:       len(items),
		Diagnostics: make([]DiagnosticJSON, 0, len(items)),
	}
	for _, d := range items {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Location: location(fs, d.Primary, opts),
		}
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				dj.Notes = append(dj.Notes, NoteJSON{
					Message:  n.Msg,
					Location: location(fs, n.Span, opts),
				})
			}
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func location(fs *source.FileSet, sp source.Span, opts JSONOpts) LocationJSON {
	f := fs.Get(sp.File)
	path := f.Path
	if opts.PathMode == PathModeBasename {
		path = filepath.Base(path)
	}
	start, end := fs.Resolve(sp)
	return LocationJSON{
		File:      path,
		StartByte: sp.Start,
		EndByte:   sp.End,
		StartLine: start.Line,
		StartCol:  start.Col,
		EndLine:   end.Line,
		EndCol:    end.Col,
	}
}
