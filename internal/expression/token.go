package expression

import (
	"fmt"
	"strconv"
)

type TokenKind int

const (
	IdentToken TokenKind = iota
	NumberToken
	StringToken
	CommentToken
	OperatorSymbolToken
	LParenToken
	RParenToken
	LBracketToken
	RBracketToken
	ColonToken
	CommaToken
	AssignToken
	PipeToken
	IfToken
	ElseToken
	InToken
	SpaceToken
	TabToken
	NewlineToken
)

var tokenKindNames = map[TokenKind]string{
	IdentToken:          "Ident",
	NumberToken:         "Number",
	StringToken:         "String",
	CommentToken:        "Comment",
	OperatorSymbolToken: "OperatorSymbol",
	LParenToken:         "LParen",
	RParenToken:         "RParen",
	LBracketToken:       "LBracket",
	RBracketToken:       "RBracket",
	ColonToken:          "Colon",
	CommaToken:          "Comma",
	AssignToken:         "Assign",
	PipeToken:           "Pipe",
	IfToken:             "If",
	ElseToken:           "Else",
	InToken:             "In",
	SpaceToken:          "Space",
	TabToken:            "Tab",
	NewlineToken:        "Newline",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is one lexeme. Text holds the payload of identifier, string, comment and
// operator-symbol tokens; Number holds the value of number tokens.
type Token struct {
	Kind   TokenKind
	Text   string
	Number float64
	Pos    int
}

// IsIgnored reports whether the parser skips the token.
func (t Token) IsIgnored() bool {
	switch t.Kind {
	case SpaceToken, TabToken, NewlineToken, CommentToken:
		return true
	default:
		return false
	}
}

// SameKind compares tokens by kind and payload, ignoring the offset.
func (t Token) SameKind(o Token) bool {
	return t.Kind == o.Kind && t.Text == o.Text && t.Number == o.Number
}

// String renders the token as it would appear in source.
func (t Token) String() string {
	switch t.Kind {
	case IdentToken, OperatorSymbolToken:
		return t.Text
	case NumberToken:
		return strconv.FormatFloat(t.Number, 'g', -1, 64)
	case StringToken:
		return strconv.Quote(t.Text)
	case CommentToken:
		return "#" + t.Text
	case LParenToken:
		return "("
	case RParenToken:
		return ")"
	case LBracketToken:
		return "["
	case RBracketToken:
		return "]"
	case ColonToken:
		return ":"
	case CommaToken:
		return ","
	case AssignToken:
		return ":="
	case PipeToken:
		return "|"
	case IfToken:
		return "if"
	case ElseToken:
		return "else"
	case InToken:
		return "in"
	case SpaceToken:
		return " "
	case TabToken:
		return "    "
	case NewlineToken:
		return "\n"
	default:
		return t.Kind.String()
	}
}

var keywordTokenKinds = map[string]TokenKind{
	"if":   IfToken,
	"else": ElseToken,
	"in":   InToken,
}

// IsKeyword reports whether name is reserved by the grammar.
func IsKeyword(name string) bool {
	_, ok := keywordTokenKinds[name]
	return ok
}

var structuralTokenKinds = map[byte]TokenKind{
	'(': LParenToken,
	')': RParenToken,
	'[': LBracketToken,
	']': RBracketToken,
	',': CommaToken,
	'|': PipeToken,
}

const operatorSymbolAlphabet = `!$%&*+./<=>?@\^-~{}`

func isOperatorSymbolChar(c rune) bool {
	for _, s := range operatorSymbolAlphabet {
		if c == s {
			return true
		}
	}
	return false
}
