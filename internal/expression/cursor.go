package expression

import "github.com/karupanerura/rough/internal/types"

// cursor is the parser's view of the token stream: whitespace and comments never
// show up as current or peek. Lexer diagnostics are forwarded to sink as soon as
// the token following them is pulled.
type cursor struct {
	lex  *Lexer
	sink *types.Diagnostics

	cur, next, after          Token
	hasCur, hasNext, hasAfter bool
	afterPulled               bool
	forwarded                 int
}

func newCursor(lex *Lexer, sink *types.Diagnostics) *cursor {
	c := &cursor{lex: lex, sink: sink}
	c.next, c.hasNext = c.pull()
	c.advance()
	return c
}

func (c *cursor) pull() (Token, bool) {
	defer c.forward()
	for {
		tok, ok := c.lex.Next()
		if !ok || !tok.IsIgnored() {
			return tok, ok
		}
	}
}

func (c *cursor) forward() {
	if diags := c.lex.Diagnostics(); len(diags) > c.forwarded {
		c.sink.Append(diags[c.forwarded:]...)
		c.forwarded = len(diags)
	}
}

func (c *cursor) current() (Token, bool) {
	return c.cur, c.hasCur
}

func (c *cursor) peek() (Token, bool) {
	return c.next, c.hasNext
}

// peekAfter looks one token past peek. It is only pulled on demand.
func (c *cursor) peekAfter() (Token, bool) {
	if !c.hasNext {
		return Token{}, false
	}
	if !c.afterPulled {
		c.after, c.hasAfter = c.pull()
		c.afterPulled = true
	}
	return c.after, c.hasAfter
}

// advance moves peek into current; it reports whether a token is now current.
func (c *cursor) advance() bool {
	c.cur, c.hasCur = c.next, c.hasNext
	switch {
	case c.afterPulled:
		c.next, c.hasNext = c.after, c.hasAfter
		c.afterPulled = false
	case c.hasNext:
		c.next, c.hasNext = c.pull()
	}
	return c.hasCur
}

// endPos is the offset used for diagnostics about input that ended too early.
func (c *cursor) endPos() int {
	return len(c.lex.source)
}
