// Package diagfmt renders diagnostics for humans and machines: a colored
// pretty format with source context, and a stable JSON form for tooling.
package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeFull prints the path the workspace knows the file by.
	PathModeFull PathMode = iota
	// PathModeBasename strips directories.
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	IncludeNotes bool
}
