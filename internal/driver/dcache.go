package driver

import (
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/NathanBHay/shackle/internal/hir"
)

// artifactsSchemaVersion invalidates cache entries written by older
// builds. Bump it whenever FileArtifacts or the digest layout changes.
const artifactsSchemaVersion uint32 = 1

// FileArtifacts are the per-content facts worth keeping across runs:
// enough to tell whether a file's declaring items changed without
// re-lowering it.
type FileArtifacts struct {
	Schema     uint32          `msgpack:"schema"`
	Path       string          `msgpack:"path"`
	DeclDigest hir.Fingerprint `msgpack:"digest"`
	Includes   []string        `msgpack:"includes"`
	DiagCount  int             `msgpack:"diags"`
}

// DiskCache stores FileArtifacts keyed by content hash. Entries are
// written atomically so a crashed run never leaves a torn file behind.
type DiskCache struct {
	root string
}

// NewDiskCache opens (creating if needed) a cache rooted at dir. An empty
// dir selects the user cache directory.
func NewDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "shackle")
	}
	if err := os.MkdirAll(filepath.Join(dir, "files"), 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{root: dir}, nil
}

func (c *DiskCache) pathFor(hash [32]byte) string {
	key := hex.EncodeToString(hash[:])
	return filepath.Join(c.root, "files", key[:2], key+".bin")
}

// Get loads the artifacts for a content hash. A missing entry or one
// written under another schema returns (nil, nil).
func (c *DiskCache) Get(hash [32]byte) (*FileArtifacts, error) {
	data, err := os.ReadFile(c.pathFor(hash))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var a FileArtifacts
	if err := msgpack.Unmarshal(data, &a); err != nil {
		return nil, nil // corrupt entry reads as a miss
	}
	if a.Schema != artifactsSchemaVersion {
		return nil, nil
	}
	return &a, nil
}

// Put stores the artifacts for a content hash via temp file and rename.
func (c *DiskCache) Put(hash [32]byte, a *FileArtifacts) error {
	a.Schema = artifactsSchemaVersion
	data, err := msgpack.Marshal(a)
	if err != nil {
		return err
	}
	path := c.pathFor(hash)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
