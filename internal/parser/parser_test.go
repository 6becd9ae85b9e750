package parser

import (
	"strings"
	"testing"

	"github.com/NathanBHay/shackle/internal/cst"
	"github.com/NathanBHay/shackle/internal/source"
)

func parseText(t *testing.T, text string) *cst.Node {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.mzn", []byte(text))
	root := New().Parse(id, fs.Get(id).Content)
	if root == nil {
		t.Fatalf("Parse returned nil root")
	}
	return root
}

func itemKinds(root *cst.Node) []string {
	var kinds []string
	for _, c := range root.Children() {
		kinds = append(kinds, c.Kind())
	}
	return kinds
}

func TestParseItemKinds(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"include", `include "globals.mzn";`, "include"},
		{"declaration", `var int: x;`, "declaration"},
		{"declaration with init", `int: x = 3;`, "declaration"},
		{"domain declaration", `var 1..10: x;`, "declaration"},
		{"set declaration", `set of int: s = {1, 2};`, "declaration"},
		{"array declaration", `array[int] of var float: xs;`, "declaration"},
		{"function", `function int: twice(int: x) = 2 * x;`, "function_item"},
		{"generic function", `function $T: id($T: x) = x;`, "function_item"},
		{"predicate", `predicate pos(var int: x) = x > 0;`, "predicate_item"},
		{"test", `test small(int: x) = x < 10;`, "test_item"},
		{"enum", `enum Color = {Red, Green, Blue};`, "enum_item"},
		{"opaque enum", `enum Color;`, "enum_item"},
		{"type alias", `type Pair = tuple(int, int);`, "type_alias_item"},
		{"constraint", `constraint x > 0 /\ y < 3;`, "constraint_item"},
		{"solve satisfy", `solve satisfy;`, "solve_item"},
		{"solve minimize", `solve minimize x + y;`, "solve_item"},
		{"output", `output ["x = ", show(x)];`, "output_item"},
		{"assignment", `x = 5;`, "assignment_item"},
		{"legacy assignment", `x := 5;`, "assignment_item"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parseText(t, tt.text)
			kinds := itemKinds(root)
			if len(kinds) != 1 || kinds[0] != tt.want {
				t.Fatalf("items = %v, want [%s]\ncst:\n%s", kinds, tt.want, cst.Dump(root))
			}
			if root.HasErrors() {
				t.Fatalf("unexpected error nodes:\n%s", cst.Dump(root))
			}
		})
	}
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind string // expected kind of the constraint's expression
	}{
		{"binary", `constraint a + b > c;`, "binary_op"},
		{"call", `constraint forall([x > 0, y > 0]);`, "call"},
		{"comprehension", `constraint forall([xs[i] > 0 | i in 1..n where i mod 2 = 0]);`, "call"},
		{"if then else", `constraint if c then x else y endif > 0;`, "binary_op"},
		{"elseif chain", `constraint if a then 1 elseif b then 2 else 3 endif > 0;`, "binary_op"},
		{"let", `constraint let { int: y = x + 1; constraint y > 0 } in y < 10;`, "let_expr"},
		{"unary", `constraint not (x = 1);`, "unary_op"},
		{"range in", `constraint x in 1..10;`, "binary_op"},
		{"set literal", `constraint x in {1, 3, 5};`, "binary_op"},
		{"index access", `constraint xs[i, j] = 0;`, "binary_op"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parseText(t, tt.text)
			if root.HasErrors() {
				t.Fatalf("unexpected error nodes:\n%s", cst.Dump(root))
			}
			item := root.Child(0)
			if item == nil || item.Kind() != "constraint_item" {
				t.Fatalf("expected constraint item:\n%s", cst.Dump(root))
			}
			if got := item.Child(0).Kind(); got != tt.kind {
				t.Fatalf("expr kind = %s, want %s\ncst:\n%s", got, tt.kind, cst.Dump(root))
			}
		})
	}
}

func TestParsePrecedence(t *testing.T) {
	root := parseText(t, `constraint a + b * c = d;`)
	expr := root.Child(0).Child(0)
	// top node must be '=', left '+', right of '+' is '*'
	if expr.Kind() != "binary_op" {
		t.Fatalf("top = %s", expr.Kind())
	}
	if got := expr.Child(1).Text(); got != "=" {
		t.Fatalf("top operator = %q, want %q", got, "=")
	}
	left := expr.Child(0)
	if got := left.Child(1).Text(); got != "+" {
		t.Fatalf("left operator = %q, want %q", got, "+")
	}
	if got := left.Child(2).Kind(); got != "binary_op" {
		t.Fatalf("right of '+' = %s, want binary_op", got)
	}
	if got := left.Child(2).Child(1).Text(); got != "*" {
		t.Fatalf("inner operator = %q, want %q", got, "*")
	}
}

func TestParseToleratesBrokenItem(t *testing.T) {
	text := strings.Join([]string{
		`int: x = 1;`,
		`var int +++ garbage here;`,
		`int: y = 2;`,
	}, "\n")
	root := parseText(t, text)

	kinds := itemKinds(root)
	want := []string{"declaration", "error", "declaration"}
	if len(kinds) != len(want) {
		t.Fatalf("items = %v, want %v\ncst:\n%s", kinds, want, cst.Dump(root))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("items = %v, want %v", kinds, want)
		}
	}
	if !root.Child(1).IsError() {
		t.Fatalf("middle item should be an error node")
	}
}

func TestParseBrokenItemDoesNotEatFollowingItems(t *testing.T) {
	// the let bindings contain a ';' inside braces; resync must not stop there
	text := `constraint let { int: y = 1; } in;` + "\n" + `int: z = 3;`
	root := parseText(t, text)

	kinds := itemKinds(root)
	if len(kinds) != 2 || kinds[0] != "error" || kinds[1] != "declaration" {
		t.Fatalf("items = %v, want [error declaration]\ncst:\n%s", kinds, cst.Dump(root))
	}
}

func TestParseCommentsAreTrivia(t *testing.T) {
	root := parseText(t, "% leading comment\nint: x /* inner */ = 1; % trailing\n")
	if root.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", cst.Dump(root))
	}
	item := root.Child(0)
	if item.Kind() != "declaration" {
		t.Fatalf("item = %s", item.Kind())
	}
	// no leaf token may cover comment text
	item.Walk(func(n *cst.Node) bool {
		if n.NumChildren() == 0 && strings.Contains(n.Text(), "%") {
			t.Errorf("leaf %s covers comment text %q", n.Kind(), n.Text())
		}
		return true
	})
}

func TestParseNodeAt(t *testing.T) {
	text := `constraint alpha + beta > 0;`
	root := parseText(t, text)

	off := uint32(strings.Index(text, "beta")) + 1
	node := root.NodeAt(off)
	if node == nil || node.Kind() != "identifier" || node.Text() != "beta" {
		t.Fatalf("NodeAt = %v", node)
	}
}
