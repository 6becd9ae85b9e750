package hir

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"github.com/NathanBHay/shackle/internal/cst"
)

// Fingerprint is a content hash of one top-level item's syntax: node kinds
// in preorder plus leaf token text. Trivia (comments, whitespace) never
// reaches leaf tokens, so editing it leaves the fingerprint unchanged and
// the item keeps its NodeIds across re-lowering.
type Fingerprint [sha256.Size]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:8])
}

// FingerprintOf hashes one CST item subtree.
func FingerprintOf(n *cst.Node) Fingerprint {
	h := sha256.New()
	hashNode(h, n)
	var fp Fingerprint
	h.Sum(fp[:0])
	return fp
}

func hashNode(h hash.Hash, n *cst.Node) {
	h.Write([]byte{0x01})
	h.Write([]byte(n.Kind()))
	if n.NumChildren() == 0 {
		h.Write([]byte{0x02})
		h.Write([]byte(n.Text()))
	}
	for _, c := range n.Children() {
		hashNode(h, c)
	}
	h.Write([]byte{0x03})
}
