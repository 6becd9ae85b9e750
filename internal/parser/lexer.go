package parser

import (
	"github.com/NathanBHay/shackle/internal/source"
)

// lexer produces significant tokens over normalized source bytes. Comments
// (`% ...` line, `/* ... */` block) and whitespace are trivia: they are
// skipped entirely and never become part of any token span. Item
// fingerprints hash token text, which is what makes comment-only edits
// invisible to the incremental store.
type lexer struct {
	file source.FileID
	src  []byte
	pos  uint32
}

func newLexer(file source.FileID, src []byte) *lexer {
	return &lexer{file: file, src: src}
}

func (lx *lexer) eof() bool { return int(lx.pos) >= len(lx.src) }

func (lx *lexer) peek() byte {
	if lx.eof() {
		return 0
	}
	return lx.src[lx.pos]
}

func (lx *lexer) peekAt(off uint32) byte {
	if int(lx.pos+off) >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+off]
}

func (lx *lexer) skipTrivia() {
	for !lx.eof() {
		ch := lx.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			lx.pos++
		case ch == '%':
			for !lx.eof() && lx.peek() != '\n' {
				lx.pos++
			}
		case ch == '/' && lx.peekAt(1) == '*':
			lx.pos += 2
			for !lx.eof() {
				if lx.peek() == '*' && lx.peekAt(1) == '/' {
					lx.pos += 2
					break
				}
				lx.pos++
			}
		default:
			return
		}
	}
}

func (lx *lexer) span(start uint32) source.Span {
	return source.Span{File: lx.file, Start: start, End: lx.pos}
}

func (lx *lexer) token(kind tokenKind, start uint32) token {
	return token{kind: kind, span: lx.span(start), text: string(lx.src[start:lx.pos])}
}

// next scans one significant token. At end of input it returns tokEOF forever.
func (lx *lexer) next() token {
	lx.skipTrivia()
	start := lx.pos
	if lx.eof() {
		return token{kind: tokEOF, span: lx.span(start)}
	}

	ch := lx.peek()
	switch {
	case isIdentStart(ch):
		lx.pos++
		for !lx.eof() && isIdentContinue(lx.peek()) {
			lx.pos++
		}
		tok := lx.token(tokIdent, start)
		if keywords[tok.text] {
			tok.kind = tokKeyword
		}
		return tok

	case ch >= '0' && ch <= '9':
		return lx.scanNumber(start)

	case ch == '"':
		return lx.scanString(start)

	case ch == '$':
		return lx.scanTypeVar(start)
	}

	switch ch {
	case '(':
		lx.pos++
		return lx.token(tokLParen, start)
	case ')':
		lx.pos++
		return lx.token(tokRParen, start)
	case '[':
		lx.pos++
		return lx.token(tokLBracket, start)
	case ']':
		lx.pos++
		return lx.token(tokRBracket, start)
	case '{':
		lx.pos++
		return lx.token(tokLBrace, start)
	case '}':
		lx.pos++
		return lx.token(tokRBrace, start)
	case ',':
		lx.pos++
		return lx.token(tokComma, start)
	case ';':
		lx.pos++
		return lx.token(tokSemi, start)
	case '|':
		lx.pos++
		return lx.token(tokPipe, start)
	case ':':
		// ':' or historical ':=' assignment
		lx.pos++
		if lx.peek() == '=' {
			lx.pos++
			return lx.token(tokOp, start)
		}
		return lx.token(tokColon, start)
	}

	return lx.scanOperator(start)
}

func (lx *lexer) scanNumber(start uint32) token {
	for !lx.eof() && lx.peek() >= '0' && lx.peek() <= '9' {
		lx.pos++
	}
	// '..' must stay a range operator, not a float dot
	if lx.peek() == '.' && lx.peekAt(1) >= '0' && lx.peekAt(1) <= '9' {
		lx.pos++
		for !lx.eof() && lx.peek() >= '0' && lx.peek() <= '9' {
			lx.pos++
		}
		return lx.token(tokFloat, start)
	}
	return lx.token(tokInt, start)
}

func (lx *lexer) scanString(start uint32) token {
	lx.pos++ // opening quote
	for !lx.eof() {
		ch := lx.peek()
		if ch == '\\' {
			lx.pos += 2
			continue
		}
		if ch == '"' {
			lx.pos++
			return lx.token(tokString, start)
		}
		if ch == '\n' {
			break
		}
		lx.pos++
	}
	// unterminated string: report the fragment as an error token
	return lx.token(tokError, start)
}

func (lx *lexer) scanTypeVar(start uint32) token {
	lx.pos++ // '$'
	kind := tokTypeVar
	if lx.peek() == '$' {
		lx.pos++
		kind = tokSetTypeVar
	}
	if !isIdentStart(lx.peek()) {
		return lx.token(tokError, start)
	}
	for !lx.eof() && isIdentContinue(lx.peek()) {
		lx.pos++
	}
	return lx.token(kind, start)
}

var twoByteOps = map[string]bool{
	"==": true, "!=": true, "<=": true, ">=": true, "..": true,
	"/\\": true, "\\/": true, "->": true, "<-": true, "++": true,
}

func (lx *lexer) scanOperator(start uint32) token {
	// three-byte first: '<->'
	if lx.peek() == '<' && lx.peekAt(1) == '-' && lx.peekAt(2) == '>' {
		lx.pos += 3
		return lx.token(tokOp, start)
	}
	if int(lx.pos)+1 < len(lx.src) {
		two := string(lx.src[lx.pos : lx.pos+2])
		if twoByteOps[two] {
			lx.pos += 2
			return lx.token(tokOp, start)
		}
	}
	switch lx.peek() {
	case '+', '-', '*', '/', '<', '>', '=':
		lx.pos++
		return lx.token(tokOp, start)
	}
	// unknown byte
	lx.pos++
	return lx.token(tokError, start)
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
