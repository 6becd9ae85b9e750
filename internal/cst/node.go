// Package cst wraps the concrete syntax tree produced by a parser behind a
// typed, read-only walking interface. The semantic pipeline only ever sees
// this surface: node kind, byte span, ordered children, source text slice and
// an error predicate. Any error-tolerant parser that can produce these nodes
// can drive the pipeline.
package cst

import (
	"github.com/NathanBHay/shackle/internal/source"
)

// Node is one concrete syntax node. Nodes are immutable after parsing.
type Node struct {
	kind     string
	span     source.Span
	children []*Node
	err      bool
	src      []byte // whole-file content, shared across the tree
}

// Parser turns source text into a concrete syntax tree. Implementations must
// be error-tolerant: broken regions become nodes with IsError() == true, and
// the surrounding valid structure is still produced.
type Parser interface {
	Parse(file source.FileID, src []byte) *Node
}

// NewNode builds a node over the shared file content.
func NewNode(kind string, span source.Span, src []byte, children ...*Node) *Node {
	return &Node{kind: kind, span: span, children: children, src: src}
}

// NewErrorNode builds a node marking an unparsable region.
func NewErrorNode(span source.Span, src []byte, children ...*Node) *Node {
	return &Node{kind: "error", span: span, children: children, err: true, src: src}
}

// Kind returns the node's grammar kind tag.
func (n *Node) Kind() string { return n.kind }

// Span returns the byte range the node covers.
func (n *Node) Span() source.Span { return n.span }

// Children returns the ordered child list. Callers must not modify it.
func (n *Node) Children() []*Node { return n.children }

// NumChildren returns len(Children()).
func (n *Node) NumChildren() int { return len(n.children) }

// Child returns the i-th child or nil when out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// ChildOfKind returns the first child with the given kind, or nil.
func (n *Node) ChildOfKind(kind string) *Node {
	for _, c := range n.children {
		if c.kind == kind {
			return c
		}
	}
	return nil
}

// ChildrenOfKind returns all children with the given kind.
func (n *Node) ChildrenOfKind(kind string) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the source text slice the node covers.
func (n *Node) Text() string {
	if n.src == nil || int(n.span.End) > len(n.src) || n.span.Start > n.span.End {
		return ""
	}
	return string(n.src[n.span.Start:n.span.End])
}

// IsError reports whether the node marks an unparsable region.
func (n *Node) IsError() bool { return n.err }

// HasErrors reports whether the subtree contains any error node.
func (n *Node) HasErrors() bool {
	if n.err {
		return true
	}
	for _, c := range n.children {
		if c.HasErrors() {
			return true
		}
	}
	return false
}

// Walk calls fn for n and every descendant in depth-first order. Returning
// false prunes the subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// NodeAt returns the deepest node whose span contains the byte offset.
func (n *Node) NodeAt(off uint32) *Node {
	if !n.span.Contains(off) && !(n.span.Empty() && n.span.Start == off) {
		return nil
	}
	for _, c := range n.children {
		if found := c.NodeAt(off); found != nil {
			return found
		}
	}
	return n
}
