package source

type (
	// FileID uniquely identifies one version of a source file within a FileSet.
	// Replacing a file's text allocates a fresh FileID; the old one stays
	// readable so superseded snapshots can still format their diagnostics.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, editor buffer).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
	FileNormalizedNFC
)

// File captures metadata and content for a single version of a source file.
type File struct {
	ID      FileID
	Path    string
	Version uint32
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
