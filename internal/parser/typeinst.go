package parser

import (
	"github.com/NathanBHay/shackle/internal/cst"
)

// parseTypeInst parses `[var|par] [opt] <base>` where base is a primitive
// type, `set of <ti>`, `array[<index-list>] of <ti>`, `tuple(<ti>, ...)`, a
// type variable (`$T`, `$$E`), a type name, or an int domain expression
// (`1..n`, `{1,3}`). Returns nil when no type-inst starts here.
func (p *parse) parseTypeInst() *cst.Node {
	start := p.cur().span.Start
	var children []*cst.Node

	if p.atKeyword("var") || p.atKeyword("par") {
		children = append(children, p.leaf("inst", p.advance()))
	}
	if p.atKeyword("opt") {
		children = append(children, p.leaf("opt", p.advance()))
	}

	base := p.parseTypeBase()
	if base == nil {
		return nil
	}
	children = append(children, base)
	return p.node("type_inst", p.spanFrom(start), children...)
}

func (p *parse) parseTypeBase() *cst.Node {
	start := p.cur().span.Start
	switch {
	case p.atKeyword("bool"), p.atKeyword("int"), p.atKeyword("float"),
		p.atKeyword("string"), p.atKeyword("ann"):
		return p.leaf("base_type", p.advance())

	case p.at(tokTypeVar):
		return p.leaf("type_var", p.advance())

	case p.at(tokSetTypeVar):
		return p.leaf("set_type_var", p.advance())

	case p.atKeyword("set"):
		p.advance()
		if !p.atKeyword("of") {
			return nil
		}
		p.advance()
		elem := p.parseTypeInst()
		if elem == nil {
			return nil
		}
		return p.node("set_type", p.spanFrom(start), elem)

	case p.atKeyword("array"):
		p.advance()
		if _, ok := p.eat(tokLBracket); !ok {
			return nil
		}
		idxStart := p.cur().span.Start
		var dims []*cst.Node
		for !p.at(tokRBracket) && !p.at(tokEOF) {
			dim := p.parseTypeInst()
			if dim == nil {
				return nil
			}
			dims = append(dims, dim)
			if p.at(tokComma) {
				p.advance()
			} else {
				break
			}
		}
		idxList := p.node("index_list", p.spanFrom(idxStart), dims...)
		if _, ok := p.eat(tokRBracket); !ok {
			return nil
		}
		if !p.atKeyword("of") {
			return nil
		}
		p.advance()
		elem := p.parseTypeInst()
		if elem == nil {
			return nil
		}
		return p.node("array_type", p.spanFrom(start), idxList, elem)

	case p.atKeyword("tuple"):
		p.advance()
		if _, ok := p.eat(tokLParen); !ok {
			return nil
		}
		var fields []*cst.Node
		for !p.at(tokRParen) && !p.at(tokEOF) {
			f := p.parseTypeInst()
			if f == nil {
				return nil
			}
			fields = append(fields, f)
			if p.at(tokComma) {
				p.advance()
			} else {
				break
			}
		}
		if _, ok := p.eat(tokRParen); !ok {
			return nil
		}
		return p.node("tuple_type", p.spanFrom(start), fields...)

	case p.at(tokIdent):
		// enum or alias reference, unless it opens a domain like `n..m`
		if p.peek().is(tokOp, "..") {
			return p.parseDomain()
		}
		return p.leaf("type_name", p.advance())

	case p.at(tokInt), p.at(tokLBrace), p.atOp("-"):
		return p.parseDomain()
	}
	return nil
}

// parseDomain parses a value domain used in type position: a range
// expression or a set literal. Domains constrain values but lower to their
// element base type.
func (p *parse) parseDomain() *cst.Node {
	start := p.cur().span.Start
	expr := p.parseBinaryExpr(precRange)
	if expr == nil {
		return nil
	}
	return p.node("domain", p.spanFrom(start), expr)
}
