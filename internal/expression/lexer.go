package expression

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/karupanerura/rough/internal/types"
)

// Lexer produces tokens on demand in a single forward pass. Problems are recorded
// as diagnostics and scanning always resumes, so Next never fails.
type Lexer struct {
	source string
	index  int
	diags  types.Diagnostics
}

func NewLexer(source string) *Lexer {
	return &Lexer{source: source}
}

// Tokenize drains a fresh lexer over source.
func Tokenize(source string) ([]Token, types.Diagnostics) {
	l := NewLexer(source)
	var tokens []Token
	for {
		tok, ok := l.Next()
		if !ok {
			return tokens, l.Diagnostics()
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) Diagnostics() types.Diagnostics {
	return l.diags
}

func (l *Lexer) isCompleted() bool {
	return l.index >= len(l.source)
}

func (l *Lexer) peekByte(offset int) byte {
	if i := l.index + offset; i < len(l.source) {
		return l.source[i]
	}
	return 0
}

// Next returns the next token, or false once the source is exhausted.
func (l *Lexer) Next() (Token, bool) {
	for !l.isCompleted() {
		beginsPos := l.index
		c := l.source[l.index]
		if kind, ok := structuralTokenKinds[c]; ok {
			l.index++
			return Token{Kind: kind, Pos: beginsPos}, true
		}

		switch c {
		case ':':
			if l.peekByte(1) == '=' {
				l.index += 2
				return Token{Kind: AssignToken, Pos: beginsPos}, true
			}
			l.index++
			return Token{Kind: ColonToken, Pos: beginsPos}, true

		case '\n', '\r':
			l.index++
			if pair := l.peekByte(0); (c == '\n' && pair == '\r') || (c == '\r' && pair == '\n') {
				l.index++
			}
			return Token{Kind: NewlineToken, Pos: beginsPos}, true

		case ' ':
			if strings.HasPrefix(l.source[l.index:], "    ") {
				l.index += 4
				return Token{Kind: TabToken, Pos: beginsPos}, true
			}
			l.index++
			return Token{Kind: SpaceToken, Pos: beginsPos}, true

		case '\t':
			l.index++
			return Token{Kind: TabToken, Pos: beginsPos}, true

		case '"':
			if tok, ok := l.scanString(); ok {
				return tok, true
			}
			continue

		case '#':
			return l.scanComment(), true
		}

		if isDigit(c) {
			if tok, ok := l.scanNumber(); ok {
				return tok, true
			}
			continue
		}

		r, size := utf8.DecodeRuneInString(l.source[l.index:])
		switch {
		case isOperatorSymbolChar(r):
			return l.scanWhile(OperatorSymbolToken, isOperatorSymbolChar), true
		case isIdentChar(r):
			tok := l.scanWhile(IdentToken, isIdentChar)
			if kind, isKeyword := keywordTokenKinds[tok.Text]; isKeyword {
				return Token{Kind: kind, Pos: tok.Pos}, true
			}
			return tok, true
		}

		l.diags.Addf(types.LexicalErrorTag, beginsPos, "unrecognized character `%c` at offset %d", r, beginsPos)
		l.index += size
	}
	return Token{}, false
}

func (l *Lexer) scanString() (Token, bool) {
	beginsPos := l.index
	l.index++ // opening quote

	end := strings.IndexByte(l.source[l.index:], '"')
	if end == -1 {
		// resume right after the opening quote
		l.diags.Addf(types.LexicalErrorTag, beginsPos, "unterminated string starting at offset %d", beginsPos)
		return Token{}, false
	}

	text := l.source[l.index : l.index+end]
	l.index += end + 1
	return Token{Kind: StringToken, Text: text, Pos: beginsPos}, true
}

func (l *Lexer) scanComment() Token {
	beginsPos := l.index
	l.index++ // '#'

	rangeBeginsIdx := l.index
	for !l.isCompleted() {
		switch c := l.source[l.index]; {
		case c == '\n' || c == '\r':
			return Token{Kind: CommentToken, Text: l.source[rangeBeginsIdx:l.index], Pos: beginsPos}
		case c == '*' && l.peekByte(1) == '#':
			text := l.source[rangeBeginsIdx:l.index]
			l.index += 2
			return Token{Kind: CommentToken, Text: text, Pos: beginsPos}
		}
		l.index++
	}
	return Token{Kind: CommentToken, Text: l.source[rangeBeginsIdx:], Pos: beginsPos}
}

func (l *Lexer) scanNumber() (Token, bool) {
	beginsPos := l.index
	for !l.isCompleted() && isDigit(l.source[l.index]) {
		l.index++
	}

	digits := l.source[beginsPos:l.index]
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil || math.IsInf(v, 0) {
		l.diags.Addf(types.LexicalErrorTag, beginsPos, "number literal %s at offset %d is out of range", digits, beginsPos)
		return Token{}, false
	}
	return Token{Kind: NumberToken, Number: v, Pos: beginsPos}, true
}

func (l *Lexer) scanWhile(kind TokenKind, accept func(rune) bool) Token {
	beginsPos := l.index
	for !l.isCompleted() {
		r, size := utf8.DecodeRuneInString(l.source[l.index:])
		if !accept(r) {
			break
		}
		l.index += size
	}
	return Token{Kind: kind, Text: l.source[beginsPos:l.index], Pos: beginsPos}
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isIdentChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}
