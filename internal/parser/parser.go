// Package parser provides the reference concrete-syntax parser for the
// constraint modeling language. It stands in for an external incremental
// parser: the semantic pipeline consumes only the cst.Node surface, so any
// parser producing that surface can replace this one.
//
// The parser is error tolerant. An unparsable item becomes a cst error node
// spanning the broken region and parsing resynchronizes at the next ';';
// sibling items are unaffected.
package parser

import (
	"github.com/NathanBHay/shackle/internal/cst"
	"github.com/NathanBHay/shackle/internal/source"
)

// Parser implements cst.Parser.
type Parser struct{}

func New() *Parser { return &Parser{} }

func (Parser) Parse(file source.FileID, src []byte) *cst.Node {
	p := &parse{file: file, src: src}
	lx := newLexer(file, src)
	for {
		tok := lx.next()
		p.toks = append(p.toks, tok)
		if tok.kind == tokEOF {
			break
		}
	}
	return p.parseModel()
}

type parse struct {
	file source.FileID
	src  []byte
	toks []token
	pos  int
}

func (p *parse) cur() token  { return p.toks[p.pos] }
func (p *parse) peek() token { return p.toks[min(p.pos+1, len(p.toks)-1)] }

func (p *parse) advance() token {
	tok := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parse) at(kind tokenKind) bool { return p.cur().kind == kind }

func (p *parse) atKeyword(kw string) bool { return p.cur().isKeyword(kw) }

func (p *parse) atOp(op string) bool { return p.cur().is(tokOp, op) }

func (p *parse) eat(kind tokenKind) (token, bool) {
	if p.at(kind) {
		return p.advance(), true
	}
	return p.cur(), false
}

func (p *parse) node(kind string, span source.Span, children ...*cst.Node) *cst.Node {
	return cst.NewNode(kind, span, p.src, children...)
}

func (p *parse) leaf(kind string, tok token) *cst.Node {
	return cst.NewNode(kind, tok.span, p.src)
}

func (p *parse) errNode(span source.Span) *cst.Node {
	return cst.NewErrorNode(span, p.src)
}

func (p *parse) spanFrom(start uint32) source.Span {
	end := start
	if p.pos > 0 {
		end = p.toks[p.pos-1].span.End
	}
	if end < start {
		end = start
	}
	return source.Span{File: p.file, Start: start, End: end}
}

// parseModel parses the whole token stream into a "model" root node.
func (p *parse) parseModel() *cst.Node {
	var items []*cst.Node
	for !p.at(tokEOF) {
		if p.at(tokSemi) {
			p.advance()
			continue
		}
		items = append(items, p.parseItem())
	}
	span := source.Span{File: p.file, Start: 0, End: uint32(len(p.src))}
	return p.node("model", span, items...)
}

// parseItem parses one top-level item. On failure it consumes up to the next
// ';' and returns an error node covering the skipped region.
func (p *parse) parseItem() *cst.Node {
	start := p.cur().span.Start
	startPos := p.pos

	item := p.tryParseItem()
	if item != nil && !p.at(tokSemi) && !p.at(tokEOF) {
		// trailing garbage inside the item: treat the whole extent as broken
		item = nil
	}
	if item == nil {
		p.pos = startPos
		p.resync()
		node := p.errNode(p.spanFrom(start))
		p.eatSemi()
		return node
	}
	p.eatSemi()
	return item
}

func (p *parse) eatSemi() {
	if p.at(tokSemi) {
		p.advance()
	}
}

// resync consumes tokens until the next ';' or EOF, balancing delimiters so a
// ';' inside a let body does not end the item early.
func (p *parse) resync() {
	depth := 0
	for !p.at(tokEOF) {
		switch p.cur().kind {
		case tokLParen, tokLBracket, tokLBrace:
			depth++
		case tokRParen, tokRBracket, tokRBrace:
			if depth > 0 {
				depth--
			}
		case tokSemi:
			if depth == 0 {
				return
			}
		}
		p.advance()
	}
}

func (p *parse) tryParseItem() *cst.Node {
	start := p.cur().span.Start
	switch {
	case p.atKeyword("include"):
		p.advance()
		str, ok := p.eat(tokString)
		if !ok {
			return nil
		}
		return p.node("include", p.spanFrom(start), p.leaf("string_literal", str))

	case p.atKeyword("function"):
		p.advance()
		ret := p.parseTypeInst()
		if ret == nil {
			return nil
		}
		if _, ok := p.eat(tokColon); !ok {
			return nil
		}
		return p.parseFuncTail("function_item", start, ret)

	case p.atKeyword("predicate"):
		p.advance()
		return p.parseFuncTail("predicate_item", start, nil)

	case p.atKeyword("test"):
		p.advance()
		return p.parseFuncTail("test_item", start, nil)

	case p.atKeyword("enum"):
		p.advance()
		name, ok := p.eat(tokIdent)
		if !ok {
			return nil
		}
		children := []*cst.Node{p.leaf("identifier", name)}
		if p.atOp("=") || p.atOp(":=") {
			p.advance()
			members := p.parseEnumMembers()
			if members == nil {
				return nil
			}
			children = append(children, members)
		}
		return p.node("enum_item", p.spanFrom(start), children...)

	case p.atKeyword("type"):
		p.advance()
		name, ok := p.eat(tokIdent)
		if !ok {
			return nil
		}
		if !p.atOp("=") && !p.atOp(":=") {
			return nil
		}
		p.advance()
		ti := p.parseTypeInst()
		if ti == nil {
			return nil
		}
		return p.node("type_alias_item", p.spanFrom(start), p.leaf("identifier", name), ti)

	case p.atKeyword("constraint"):
		p.advance()
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		return p.node("constraint_item", p.spanFrom(start), expr)

	case p.atKeyword("solve"):
		p.advance()
		switch {
		case p.atKeyword("satisfy"):
			method := p.leaf("solve_method", p.advance())
			return p.node("solve_item", p.spanFrom(start), method)
		case p.atKeyword("minimize"), p.atKeyword("maximize"):
			method := p.leaf("solve_method", p.advance())
			expr := p.parseExpr()
			if expr == nil {
				return nil
			}
			return p.node("solve_item", p.spanFrom(start), method, expr)
		default:
			return nil
		}

	case p.atKeyword("output"):
		p.advance()
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		return p.node("output_item", p.spanFrom(start), expr)

	case p.at(tokIdent) && (p.peek().is(tokOp, "=") || p.peek().is(tokOp, ":=")):
		// assignment item; '=' and ':=' are equivalent here
		name := p.advance()
		p.advance()
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		return p.node("assignment_item", p.spanFrom(start), p.leaf("identifier", name), expr)
	}

	return p.parseDeclaration(start)
}

// parseDeclaration parses `<type-inst>: name [= expr]`.
func (p *parse) parseDeclaration(start uint32) *cst.Node {
	ti := p.parseTypeInst()
	if ti == nil {
		return nil
	}
	if _, ok := p.eat(tokColon); !ok {
		return nil
	}
	name, ok := p.eat(tokIdent)
	if !ok {
		return nil
	}
	children := []*cst.Node{ti, p.leaf("identifier", name)}
	if p.atOp("=") || p.atOp(":=") {
		p.advance()
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		children = append(children, expr)
	}
	return p.node("declaration", p.spanFrom(start), children...)
}

// parseFuncTail parses `name(params) [= body]` for function/predicate/test
// items. ret is non-nil only for functions.
func (p *parse) parseFuncTail(kind string, start uint32, ret *cst.Node) *cst.Node {
	name, ok := p.eat(tokIdent)
	if !ok {
		return nil
	}
	params := p.parseParameters()
	if params == nil {
		return nil
	}
	var children []*cst.Node
	if ret != nil {
		children = append(children, ret)
	}
	children = append(children, p.leaf("identifier", name), params)
	if p.atOp("=") || p.atOp(":=") {
		p.advance()
		body := p.parseExpr()
		if body == nil {
			return nil
		}
		children = append(children, body)
	}
	return p.node(kind, p.spanFrom(start), children...)
}

func (p *parse) parseParameters() *cst.Node {
	start := p.cur().span.Start
	if _, ok := p.eat(tokLParen); !ok {
		return nil
	}
	var params []*cst.Node
	for !p.at(tokRParen) && !p.at(tokEOF) {
		pstart := p.cur().span.Start
		ti := p.parseTypeInst()
		if ti == nil {
			return nil
		}
		if _, ok := p.eat(tokColon); !ok {
			return nil
		}
		name, ok := p.eat(tokIdent)
		if !ok {
			return nil
		}
		params = append(params, p.node("parameter", p.spanFrom(pstart), ti, p.leaf("identifier", name)))
		if p.at(tokComma) {
			p.advance()
		} else {
			break
		}
	}
	if _, ok := p.eat(tokRParen); !ok {
		return nil
	}
	return p.node("parameters", p.spanFrom(start), params...)
}

func (p *parse) parseEnumMembers() *cst.Node {
	start := p.cur().span.Start
	if _, ok := p.eat(tokLBrace); !ok {
		return nil
	}
	var members []*cst.Node
	for !p.at(tokRBrace) && !p.at(tokEOF) {
		name, ok := p.eat(tokIdent)
		if !ok {
			return nil
		}
		members = append(members, p.leaf("identifier", name))
		if p.at(tokComma) {
			p.advance()
		} else {
			break
		}
	}
	if _, ok := p.eat(tokRBrace); !ok {
		return nil
	}
	return p.node("enum_members", p.spanFrom(start), members...)
}
