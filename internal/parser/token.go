package parser

import "github.com/NathanBHay/shackle/internal/source"

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokError
	tokIdent
	tokInt
	tokFloat
	tokString
	tokTypeVar    // $T
	tokSetTypeVar // $$E
	tokKeyword
	tokOp
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
	tokComma
	tokColon
	tokSemi
	tokPipe
)

type token struct {
	kind tokenKind
	span source.Span
	text string
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

func (t token) isKeyword(kw string) bool {
	return t.kind == tokKeyword && t.text == kw
}

var keywords = map[string]bool{
	"include": true, "function": true, "predicate": true, "test": true,
	"enum": true, "type": true, "constraint": true, "solve": true,
	"output": true, "satisfy": true, "minimize": true, "maximize": true,
	"var": true, "par": true, "opt": true, "set": true, "of": true,
	"array": true, "tuple": true, "bool": true, "int": true, "float": true,
	"string": true, "ann": true, "true": true, "false": true,
	"let": true, "in": true, "where": true, "if": true, "then": true,
	"elseif": true, "else": true, "endif": true, "not": true,
	"div": true, "mod": true, "union": true, "intersect": true,
	"subset": true, "superset": true, "diff": true, "symdiff": true,
	"xor": true,
}

// wordOps are keywords that act as infix operators.
var wordOps = map[string]bool{
	"in": true, "div": true, "mod": true, "union": true, "intersect": true,
	"subset": true, "superset": true, "diff": true, "symdiff": true,
	"xor": true,
}
