package cst

import (
	"fmt"
	"strings"
)

// Dump renders the tree as an indented textual outline, one node per line:
//
//	model 0-24
//	  declaration 0-11
//	    type_inst 0-3
//	    identifier 5-6
//
// Leaf nodes additionally show their text when it is short enough to read.
func Dump(n *Node) string {
	var b strings.Builder
	dumpInto(&b, n, 0)
	return b.String()
}

const dumpTextLimit = 32

func dumpInto(b *strings.Builder, n *Node, depth int) {
	if n == nil {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.kind)
	fmt.Fprintf(b, " %d-%d", n.span.Start, n.span.End)
	if n.err {
		b.WriteString(" !error")
	}
	if len(n.children) == 0 {
		if text := n.Text(); text != "" && len(text) <= dumpTextLimit && !strings.Contains(text, "\n") {
			fmt.Fprintf(b, " %q", text)
		}
	}
	b.WriteByte('\n')
	for _, c := range n.children {
		dumpInto(b, c, depth+1)
	}
}
