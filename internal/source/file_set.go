package source

import (
	"crypto/sha256"
	"fmt"
	"os"

	"fortio.org/safecast"
)

// FileSet stores every version of every source file seen by a workspace and
// resolves spans to line/column positions. Adding text for an already known
// path allocates a fresh FileID with a bumped Version; old versions are kept
// so superseded snapshots stay readable.
type FileSet struct {
	files    []File
	latest   map[string]FileID // path -> newest version's id
	versions map[string]uint32 // path -> newest version counter
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files:    make([]File, 0),
		latest:   make(map[string]FileID),
		versions: make(map[string]uint32),
	}
}

// Add stores normalized content under path and returns the new FileID.
// The version counter for the path is incremented on every call.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	hash := sha256.Sum256(content)
	lineIdx := buildLineIndex(content)
	normalizedPath := normalizePath(path)

	lenFiles, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	id := FileID(lenFiles)
	version := fs.versions[normalizedPath] + 1
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    normalizedPath,
		Version: version,
		Content: content,
		LineIdx: lineIdx,
		Hash:    hash,
		Flags:   flags,
	})
	fs.latest[normalizedPath] = id
	fs.versions[normalizedPath] = version
	return id
}

// AddText normalizes raw text (BOM, CRLF, NFC) and stores it under path.
func (fs *FileSet) AddText(path string, content []byte, flags FileFlags) FileID {
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)
	content, hadNFC := normalizeNFC(content)

	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	if hadNFC {
		flags |= FileNormalizedNFC
	}
	return fs.Add(path, content, flags)
}

// Load reads a file from disk and stores a normalized version of it.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return fs.AddText(path, content, 0), nil
}

// AddVirtual adds an in-memory file (test, stdin, editor buffer).
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.AddText(name, content, FileVirtual)
}

// Get returns the file metadata for the given ID.
func (fs *FileSet) Get(id FileID) *File {
	return &fs.files[id]
}

// Latest returns the newest FileID for the path, if the path is known.
func (fs *FileSet) Latest(path string) (FileID, bool) {
	id, ok := fs.latest[normalizePath(path)]
	return id, ok
}

// Version returns the newest version counter for the path (0 if unknown).
func (fs *FileSet) Version(path string) uint32 {
	return fs.versions[normalizePath(path)]
}

// IsLatest reports whether id is still the newest version of its path.
func (fs *FileSet) IsLatest(id FileID) bool {
	if int(id) >= len(fs.files) {
		return false
	}
	return fs.latest[fs.files[id].Path] == id
}

// Len returns the number of stored file versions.
func (fs *FileSet) Len() int {
	return len(fs.files)
}

// Resolve converts a span into line and column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.files[span.File]
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Text returns the content slice a span refers to.
func (fs *FileSet) Text(span Span) []byte {
	f := fs.files[span.File]
	if span.Start > span.End || int(span.End) > len(f.Content) {
		return nil
	}
	return f.Content[span.Start:span.End]
}

// GetLine returns the 1-based line from the file, or "" if out of range.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}

	var start, end, lenLineIdx, lenContent uint32
	var err error
	lenLineIdx, err = safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}
	lenContent, err = safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}

	switch {
	case lineNum == 1:
		start = 0
	case (lineNum - 2) < lenLineIdx:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return ""
	}

	if (lineNum - 1) < lenLineIdx {
		end = f.LineIdx[lineNum-1]
	} else {
		end = lenContent
	}

	if start >= lenContent {
		return ""
	}
	if end > lenContent {
		end = lenContent
	}

	return string(f.Content[start:end])
}
