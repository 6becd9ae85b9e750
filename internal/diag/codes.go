package diag

import (
	"fmt"
)

// Code is a compact numeric identifier with a stable string form.
type Code uint16

const (
	UnknownCode Code = 0

	// Syntax (1000-1999): produced while lowering a tolerant CST.
	SynInfo             Code = 1000
	SynError            Code = 1001
	SynExpectItem       Code = 1002
	SynExpectType       Code = 1003
	SynExpectExpression Code = 1004
	SynExpectIdentifier Code = 1005
	SynExpectSemicolon  Code = 1006
	SynUnclosedDelim    Code = 1007
	SynBadLiteral       Code = 1008
	SynBadTypeVar       Code = 1009

	// Scope construction (2000-2999).
	ScopeInfo                 Code = 2000
	ScopeDuplicateDeclaration Code = 2001
	ScopeUnresolvedInclude    Code = 2002
	ScopeAssignUndeclared     Code = 2003
	ScopeEnumReassigned       Code = 2004

	// Resolution (3000-3999).
	ResInfo               Code = 3000
	ResUnknownIdentifier  Code = 3001
	ResAmbiguousReference Code = 3002
	ResNoMatchingOverload Code = 3003
	ResAmbiguousOverload  Code = 3004
	ResNotCallable        Code = 3005
	ResUnknownTypeName    Code = 3006
)

var codeDescription = map[Code]string{
	UnknownCode: "unknown diagnostic",

	SynInfo:             "syntax info",
	SynError:            "syntax error",
	SynExpectItem:       "expected item",
	SynExpectType:       "expected type-inst",
	SynExpectExpression: "expected expression",
	SynExpectIdentifier: "expected identifier",
	SynExpectSemicolon:  "expected ';'",
	SynUnclosedDelim:    "unclosed delimiter",
	SynBadLiteral:       "malformed literal",
	SynBadTypeVar:       "malformed type variable",

	ScopeInfo:                 "scope info",
	ScopeDuplicateDeclaration: "duplicate declaration",
	ScopeUnresolvedInclude:    "unresolved include",
	ScopeAssignUndeclared:     "assignment to undeclared name",
	ScopeEnumReassigned:       "enum assigned more than once",

	ResInfo:               "resolution info",
	ResUnknownIdentifier:  "unknown identifier",
	ResAmbiguousReference: "ambiguous reference",
	ResNoMatchingOverload: "no matching overload",
	ResAmbiguousOverload:  "ambiguous overload",
	ResNotCallable:        "called name is not a function",
	ResUnknownTypeName:    "unknown type name",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SCP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("RES%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
