package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/NathanBHay/shackle/internal/diag"
	"github.com/NathanBHay/shackle/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
	posColor  = color.New(color.Bold)
	noteColor = color.New(color.FgCyan)
)

// Pretty writes diagnostics in the canonical human form:
//
//	<path>:<line>:<col>: ERROR [RES3003]: <message>
//	  <source line>
//	  ^~~~~
//	note: <note message>
//
// Diagnostics are written in the given order; sort the bag first.
func Pretty(w io.Writer, items []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range items {
		writeOne(w, d, fs, opts)
	}
}

func writeOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	sev := severityText(d.Severity, opts.Color)
	fmt.Fprintf(w, "%s %s [%s]: %s\n",
		position(fs, d.Primary, opts), sev, d.Code.ID(), d.Message)
	writeContext(w, fs, d.Primary, opts)

	if !opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		label := "note:"
		if opts.Color {
			label = noteColor.Sprint(label)
		}
		fmt.Fprintf(w, "  %s %s %s\n", position(fs, n.Span, opts), label, n.Msg)
	}
}

// writeContext prints the first line the span covers with a caret
// underline. Spans into unknown or empty files print nothing.
func writeContext(w io.Writer, fs *source.FileSet, sp source.Span, opts PrettyOpts) {
	if sp.Empty() && sp.Start == 0 {
		return
	}
	start, end := fs.Resolve(sp)
	line := fs.Get(sp.File).GetLine(start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(line, "\t", " "))

	width := uint32(1)
	if end.Line == start.Line && end.Col > start.Col {
		width = end.Col - start.Col
	}
	marker := "^" + strings.Repeat("~", int(width)-1)
	if opts.Color {
		marker = errColor.Sprint(marker)
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", int(start.Col)-1), marker)
}

func position(fs *source.FileSet, sp source.Span, opts PrettyOpts) string {
	f := fs.Get(sp.File)
	path := f.Path
	if opts.PathMode == PathModeBasename {
		path = filepath.Base(path)
	}
	start, _ := fs.Resolve(sp)
	s := fmt.Sprintf("%s:%d:%d:", path, start.Line, start.Col)
	if opts.Color {
		return posColor.Sprint(s)
	}
	return s
}

func severityText(sev diag.Severity, colored bool) string {
	if !colored {
		return sev.String()
	}
	switch sev {
	case diag.SevError:
		return errColor.Sprint(sev.String())
	case diag.SevWarning:
		return warnColor.Sprint(sev.String())
	default:
		return infoColor.Sprint(sev.String())
	}
}
