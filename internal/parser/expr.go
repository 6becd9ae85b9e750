package parser

import (
	"github.com/NathanBHay/shackle/internal/cst"
)

// Binary operator precedence, loosest first. Operators lower to calls of
// builtin declarations during HIR lowering, so the parser only has to get
// the tree shape right.
const (
	precIff       = 1 // <->
	precImplies   = 2 // -> <-
	precDisj      = 3 // \/ xor
	precConj      = 4 // /\
	precCompare   = 5 // == = != < <= > >= in subset superset
	precSetOp     = 6 // union diff symdiff
	precRange     = 7 // ..
	precAdditive  = 8 // + - ++
	precMultiplic = 9 // * / div mod intersect
)

func binOpPrec(tok token) int {
	switch tok.kind {
	case tokOp:
		switch tok.text {
		case "<->":
			return precIff
		case "->", "<-":
			return precImplies
		case "\\/":
			return precDisj
		case "/\\":
			return precConj
		case "==", "=", "!=", "<", "<=", ">", ">=":
			return precCompare
		case "..":
			return precRange
		case "+", "-", "++":
			return precAdditive
		case "*", "/":
			return precMultiplic
		}
	case tokKeyword:
		if !wordOps[tok.text] {
			return 0
		}
		switch tok.text {
		case "xor":
			return precDisj
		case "in", "subset", "superset":
			return precCompare
		case "union", "diff", "symdiff":
			return precSetOp
		case "div", "mod", "intersect":
			return precMultiplic
		}
	}
	return 0
}

func (p *parse) parseExpr() *cst.Node {
	return p.parseBinaryExpr(precIff)
}

func (p *parse) parseBinaryExpr(minPrec int) *cst.Node {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for {
		prec := binOpPrec(p.cur())
		if prec == 0 || prec < minPrec {
			return left
		}
		op := p.leaf("operator", p.advance())
		right := p.parseBinaryExpr(prec + 1)
		if right == nil {
			return nil
		}
		span := left.Span().Cover(right.Span())
		left = p.node("binary_op", span, left, op, right)
	}
}

func (p *parse) parseUnary() *cst.Node {
	if p.atOp("-") || p.atKeyword("not") {
		start := p.cur().span.Start
		op := p.leaf("operator", p.advance())
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return p.node("unary_op", p.spanFrom(start), op, operand)
	}
	return p.parsePostfix()
}

func (p *parse) parsePostfix() *cst.Node {
	expr := p.parseAtom()
	if expr == nil {
		return nil
	}
	for {
		switch {
		case p.at(tokLParen) && expr.Kind() == "identifier":
			p.advance()
			args := []*cst.Node{expr}
			for !p.at(tokRParen) && !p.at(tokEOF) {
				arg := p.parseExpr()
				if arg == nil {
					return nil
				}
				args = append(args, arg)
				if p.at(tokComma) {
					p.advance()
				} else {
					break
				}
			}
			if _, ok := p.eat(tokRParen); !ok {
				return nil
			}
			expr = p.node("call", p.spanFrom(expr.Span().Start), args...)

		case p.at(tokLBracket):
			p.advance()
			children := []*cst.Node{expr}
			for !p.at(tokRBracket) && !p.at(tokEOF) {
				idx := p.parseExpr()
				if idx == nil {
					return nil
				}
				children = append(children, idx)
				if p.at(tokComma) {
					p.advance()
				} else {
					break
				}
			}
			if _, ok := p.eat(tokRBracket); !ok {
				return nil
			}
			expr = p.node("index_access", p.spanFrom(expr.Span().Start), children...)

		default:
			return expr
		}
	}
}

func (p *parse) parseAtom() *cst.Node {
	start := p.cur().span.Start
	switch {
	case p.at(tokInt):
		return p.leaf("integer_literal", p.advance())
	case p.at(tokFloat):
		return p.leaf("float_literal", p.advance())
	case p.at(tokString):
		return p.leaf("string_literal", p.advance())
	case p.atKeyword("true"), p.atKeyword("false"):
		return p.leaf("boolean_literal", p.advance())
	case p.at(tokIdent):
		return p.leaf("identifier", p.advance())

	case p.at(tokLParen):
		p.advance()
		first := p.parseExpr()
		if first == nil {
			return nil
		}
		if p.at(tokComma) {
			fields := []*cst.Node{first}
			for p.at(tokComma) {
				p.advance()
				if p.at(tokRParen) {
					break
				}
				f := p.parseExpr()
				if f == nil {
					return nil
				}
				fields = append(fields, f)
			}
			if _, ok := p.eat(tokRParen); !ok {
				return nil
			}
			return p.node("tuple_literal", p.spanFrom(start), fields...)
		}
		if _, ok := p.eat(tokRParen); !ok {
			return nil
		}
		return p.node("paren", p.spanFrom(start), first)

	case p.at(tokLBracket):
		return p.parseCollection(tokRBracket, "array_literal", "array_comprehension")
	case p.at(tokLBrace):
		return p.parseCollection(tokRBrace, "set_literal", "set_comprehension")

	case p.atKeyword("if"):
		return p.parseIf()
	case p.atKeyword("let"):
		return p.parseLet()
	}
	return nil
}

// parseCollection handles `[...]` and `{...}` in both literal and
// comprehension forms.
func (p *parse) parseCollection(close tokenKind, literalKind, comprehensionKind string) *cst.Node {
	start := p.cur().span.Start
	p.advance()

	if p.at(close) {
		p.advance()
		return p.node(literalKind, p.spanFrom(start))
	}

	first := p.parseExpr()
	if first == nil {
		return nil
	}

	if p.at(tokPipe) {
		p.advance()
		children := []*cst.Node{first}
		gens := p.parseGenerators()
		if gens == nil {
			return nil
		}
		children = append(children, gens...)
		if _, ok := p.eat(close); !ok {
			return nil
		}
		return p.node(comprehensionKind, p.spanFrom(start), children...)
	}

	elems := []*cst.Node{first}
	for p.at(tokComma) {
		p.advance()
		if p.at(close) {
			break
		}
		e := p.parseExpr()
		if e == nil {
			return nil
		}
		elems = append(elems, e)
	}
	if _, ok := p.eat(close); !ok {
		return nil
	}
	return p.node(literalKind, p.spanFrom(start), elems...)
}

// parseGenerators parses `i, j in expr, k in expr where cond`. Each
// generator introduces its names into scope for later generators, the
// where-condition and the comprehension template.
func (p *parse) parseGenerators() []*cst.Node {
	var out []*cst.Node
	for {
		gstart := p.cur().span.Start
		var names []*cst.Node
		for {
			name, ok := p.eat(tokIdent)
			if !ok {
				return nil
			}
			names = append(names, p.leaf("identifier", name))
			if p.at(tokComma) {
				p.advance()
				continue
			}
			break
		}
		if !p.atKeyword("in") {
			return nil
		}
		p.advance()
		src := p.parseBinaryExpr(precSetOp)
		if src == nil {
			return nil
		}
		children := append(names, src)
		out = append(out, p.node("generator", p.spanFrom(gstart), children...))

		if p.at(tokComma) {
			p.advance()
			continue
		}
		break
	}
	if p.atKeyword("where") {
		wstart := p.cur().span.Start
		p.advance()
		cond := p.parseExpr()
		if cond == nil {
			return nil
		}
		out = append(out, p.node("where", p.spanFrom(wstart), cond))
	}
	return out
}

func (p *parse) parseIf() *cst.Node {
	start := p.cur().span.Start
	p.advance() // if
	cond := p.parseExpr()
	if cond == nil || !p.atKeyword("then") {
		return nil
	}
	p.advance()
	thenExpr := p.parseExpr()
	if thenExpr == nil {
		return nil
	}

	var elseExpr *cst.Node
	switch {
	case p.atKeyword("elseif"):
		// fold elseif chains into nested conditionals
		elseExpr = p.parseElseif()
	case p.atKeyword("else"):
		p.advance()
		elseExpr = p.parseExpr()
		if elseExpr == nil {
			return nil
		}
		if !p.atKeyword("endif") {
			return nil
		}
		p.advance()
	default:
		return nil
	}
	if elseExpr == nil {
		return nil
	}
	return p.node("if_then_else", p.spanFrom(start), cond, thenExpr, elseExpr)
}

func (p *parse) parseElseif() *cst.Node {
	start := p.cur().span.Start
	p.advance() // elseif
	cond := p.parseExpr()
	if cond == nil || !p.atKeyword("then") {
		return nil
	}
	p.advance()
	thenExpr := p.parseExpr()
	if thenExpr == nil {
		return nil
	}
	var elseExpr *cst.Node
	switch {
	case p.atKeyword("elseif"):
		elseExpr = p.parseElseif()
	case p.atKeyword("else"):
		p.advance()
		elseExpr = p.parseExpr()
		if elseExpr == nil {
			return nil
		}
		if !p.atKeyword("endif") {
			return nil
		}
		p.advance()
	default:
		return nil
	}
	if elseExpr == nil {
		return nil
	}
	return p.node("if_then_else", p.spanFrom(start), cond, thenExpr, elseExpr)
}

// parseLet parses `let { <declaration|constraint>; ... } in expr`. Bindings
// may be separated by ',' or ';'.
func (p *parse) parseLet() *cst.Node {
	start := p.cur().span.Start
	p.advance() // let
	if _, ok := p.eat(tokLBrace); !ok {
		return nil
	}
	var bindings []*cst.Node
	for !p.at(tokRBrace) && !p.at(tokEOF) {
		bstart := p.cur().span.Start
		var binding *cst.Node
		if p.atKeyword("constraint") {
			p.advance()
			expr := p.parseExpr()
			if expr == nil {
				return nil
			}
			binding = p.node("constraint_item", p.spanFrom(bstart), expr)
		} else {
			binding = p.parseDeclaration(bstart)
			if binding == nil {
				return nil
			}
		}
		bindings = append(bindings, binding)
		if p.at(tokComma) || p.at(tokSemi) {
			p.advance()
		} else {
			break
		}
	}
	if _, ok := p.eat(tokRBrace); !ok {
		return nil
	}
	if !p.atKeyword("in") {
		return nil
	}
	p.advance()
	body := p.parseExpr()
	if body == nil {
		return nil
	}
	children := append(bindings, body)
	return p.node("let_expr", p.spanFrom(start), children...)
}
