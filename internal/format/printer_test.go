package format

import (
	"testing"

	"github.com/NathanBHay/shackle/internal/diag"
	"github.com/NathanBHay/shackle/internal/hir"
	"github.com/NathanBHay/shackle/internal/parser"
	"github.com/NathanBHay/shackle/internal/source"
	"github.com/NathanBHay/shackle/internal/types"
)

func printModel(t *testing.T, text string) string {
	t.Helper()
	fs := source.NewFileSet()
	strs := source.NewInterner()
	tin := types.NewInterner()
	lower := hir.NewLowerer(hir.NewAllocator(), tin, strs)

	id := fs.AddVirtual("model.mzn", []byte(text))
	f := fs.Get(id)
	root := parser.New().Parse(id, f.Content)
	bag := diag.NewBag(16)
	frag := lower.LowerFile(id, "model.mzn", f.Version, root, nil, diag.BagReporter{Bag: bag})
	if bag.Len() != 0 {
		t.Fatalf("lowering diagnostics: %v", bag.Items())
	}
	return Print(frag, strs, tin)
}

func TestPrintCanonicalForm(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"whitespace and eqeq normalize",
			"var   1..9 : x ;\nconstraint ( x == 3 )   \\/ x > 5;",
			"var 1..9: x;\nconstraint x = 3 \\/ x > 5;\n",
		},
		{
			"items keep order",
			"include \"lib.mzn\";\nint: n = 4;\nsolve satisfy;",
			"include \"lib.mzn\";\nint: n = 4;\nsolve satisfy;\n",
		},
		{
			"array declaration",
			"array [ 1..3 ] of var int : a;",
			"array[1..3] of var int: a;\n",
		},
		{
			"enum and alias",
			"enum Color = { Red , Green };\ntype Size = int;",
			"enum Color = {Red, Green};\ntype Size = int;\n",
		},
		{
			"function",
			"function int : twice ( int : v ) = v * 2;",
			"function int: twice(int: v) = v * 2;\n",
		},
		{
			"predicate",
			"predicate ok ( var int : v ) = v > 0;",
			"predicate ok(var int: v) = v > 0;\n",
		},
		{
			"comprehension",
			"constraint forall ( [ i > 0 | i in 1 .. 3 where i < 3 ] );",
			"constraint forall([i > 0 | i in 1..3 where i < 3]);\n",
		},
		{
			"let and if",
			"constraint let { int : y = 3 } in if y > 2 then true else false endif;",
			"constraint let {int: y = 3} in if y > 2 then true else false endif;\n",
		},
		{
			"solve objective",
			"var int: x;\nsolve minimize x + 1;",
			"var int: x;\nsolve minimize x + 1;\n",
		},
		{
			"assignment and output",
			"int: n;\nn = 7;\noutput show ( n );",
			"int: n;\nn = 7;\noutput show(n);\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := printModel(t, tc.in)
			if got != tc.want {
				t.Fatalf("printed:\n%s\nwant:\n%s", got, tc.want)
			}
		})
	}
}

func TestPrintKeepsNeededParens(t *testing.T) {
	got := printModel(t, "constraint (1 + 2) * 3 > 4;")
	want := "constraint (1 + 2) * 3 > 4;\n"
	if got != want {
		t.Fatalf("printed:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintIsFixedPoint(t *testing.T) {
	texts := []string{
		"var 1..9: x;\nconstraint x = 3 \\/ x > 5;\nsolve satisfy;",
		"array[1..3] of var int: a;\nconstraint forall([a[i] > 0 | i in 1..3]);",
		"function int: twice(int: v) = v * 2;\nconstraint twice(2) > 3;",
	}
	for _, text := range texts {
		once := printModel(t, text)
		twice := printModel(t, once)
		if once != twice {
			t.Fatalf("not a fixed point:\nfirst:\n%s\nsecond:\n%s", once, twice)
		}
	}
}

func TestPrintFloatKeepsDecimal(t *testing.T) {
	got := printModel(t, "float: f = 2.0;")
	if got != "float: f = 2.0;\n" {
		t.Fatalf("printed %q", got)
	}
}
