// Package hir provides the high-level intermediate representation for the
// modeling language: the lowered, identity-stable form all semantic analysis
// runs on.
//
// Every node carries a NodeID that is unique across the whole workspace and
// stable across incremental re-lowering of unchanged items: when a file is
// re-lowered, items whose content fingerprint matches a previous version
// keep their entire subtree (reuse, not reassignment), so downstream caches
// keyed on NodeID remain valid.
package hir

import (
	"fmt"

	"fortio.org/safecast"
)

// NodeID identifies an HIR node. IDs are minted per workspace, monotonic,
// never recycled. Zero is the invalid sentinel.
type NodeID uint32

const NoNodeID NodeID = 0

// IsValid returns true if the ID is valid (non-zero).
func (id NodeID) IsValid() bool { return id != NoNodeID }

func (id NodeID) String() string { return fmt.Sprintf("#%d", uint32(id)) }

// Allocator mints NodeIDs. It is the single piece of global mutable state in
// the pipeline: one allocator per workspace, and only the lowering engine
// calls Next. The incremental store serializes updates, so the allocator
// needs no internal locking.
type Allocator struct {
	next uint32
}

func NewAllocator() *Allocator {
	return &Allocator{next: 1}
}

// Next mints a fresh NodeID.
func (a *Allocator) Next() NodeID {
	id := a.next
	if _, err := safecast.Conv[int32](id); err != nil {
		panic(fmt.Errorf("node id overflow: %w", err))
	}
	a.next++
	return NodeID(id)
}

// Minted reports how many IDs have been handed out.
func (a *Allocator) Minted() uint32 { return a.next - 1 }
