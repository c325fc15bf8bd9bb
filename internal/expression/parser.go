package expression

import (
	"log"
	"os"
	"strconv"

	"github.com/k0kubun/pp"
	"github.com/karupanerura/rough/internal/types"
)

type prefixShape int

const (
	noPrefix prefixShape = iota
	numberPrefix
	stringPrefix
	functionPrefix
	identPrefix
	operatorPrefix
	conditionalPrefix
	groupPrefix
	listPrefix
)

type infixShape int

const (
	noInfix infixShape = iota
	operatorInfix
	operatorPostfix
	callInfix
	undefinedOperatorInfix
)

// keywordPrecedences is reserved for built-in constructs that will bind like
// operators. It is consulted before the operator table.
var keywordPrecedences = map[TokenKind]Precedence{}

var parserDebugLog = false

func init() {
	if v, err := strconv.ParseBool(os.Getenv("ROUGH_PARSER_DEBUG")); v && err == nil {
		parserDebugLog = true
	}
}

type parser struct {
	source string
	table  *OperatorTable
	cursor *cursor
	diags  types.Diagnostics
	debug  bool
}

// Parse reads one expression from source. The returned tree is best effort: it
// may be nil or contain nil children whenever diagnostics are non-empty.
func Parse(source string, table *OperatorTable) (Expression, types.Diagnostics) {
	p := &parser{source: source, table: table, debug: parserDebugLog}
	return p.parse()
}

func ParseWithDebugOutput(source string, table *OperatorTable) (Expression, types.Diagnostics) {
	p := &parser{source: source, table: table, debug: true}
	return p.parse()
}

func (p *parser) parse() (Expression, types.Diagnostics) {
	p.cursor = newCursor(NewLexer(p.source), &p.diags)

	expr, ok := p.parseExpression(LowestPrecedence)
	if ok {
		if tok, hasNext := p.cursor.peek(); hasNext {
			if p.debug {
				log.Println("not consumed token: ", tok)
			}
			p.errorf(tok.Pos, "unexpected token `%s` after expression", tok)
		}
	}

	// lexical problems past the failure point are still reported
	for p.cursor.advance() {
	}

	p.diags.SortByOffset()

	if p.debug {
		pp.Println(p.source)
		pp.Println(expr)
		log.Println(Render(expr))
	}
	return expr, p.diags
}

func (p *parser) errorf(offset int, format string, args ...any) {
	p.diags.Addf(types.SyntaxErrorTag, offset, format, args...)
}

// parseExpression is the precedence climbing loop. On return the current token is
// the last one of the expression.
func (p *parser) parseExpression(minPrecedence Precedence) (Expression, bool) {
	tok, ok := p.cursor.current()
	if !ok {
		p.errorf(p.cursor.endPos(), "premature end of input")
		return nil, false
	}
	if p.debug {
		log.Println("first token: ", tok, minPrecedence)
	}

	left, ok := p.parsePrefix(tok)
	if !ok {
		return left, false
	}

	for {
		next, hasNext := p.cursor.peek()
		if !hasNext {
			return left, true
		}

		shape, def, precedence := p.infixOf(next, p.canApply(left))
		if shape == undefinedOperatorInfix {
			p.errorf(next.Pos, "no infix or postfix operator `%s` is defined", next.Text)
			return left, false
		}
		if shape == noInfix || precedence.Compare(minPrecedence) <= 0 {
			return left, true
		}
		if p.debug {
			log.Println("infix token: ", next, precedence, Render(left))
		}

		p.cursor.advance()
		left, ok = p.parseInfix(shape, def, left)
		if !ok {
			return left, false
		}
	}
}

func (p *parser) prefixOf(tok Token) (prefixShape, OperatorDefinition) {
	switch tok.Kind {
	case NumberToken:
		return numberPrefix, OperatorDefinition{}
	case StringToken:
		return stringPrefix, OperatorDefinition{}
	case PipeToken:
		return functionPrefix, OperatorDefinition{}
	case IdentToken:
		if def, ok := p.table.Lookup(tok.Text, Prefix); ok {
			return operatorPrefix, def
		}
		return identPrefix, OperatorDefinition{}
	case OperatorSymbolToken:
		if def, ok := p.table.Lookup(tok.Text, Prefix); ok {
			return operatorPrefix, def
		}
		return noPrefix, OperatorDefinition{}
	case IfToken:
		return conditionalPrefix, OperatorDefinition{}
	case LParenToken:
		return groupPrefix, OperatorDefinition{}
	case LBracketToken:
		return listPrefix, OperatorDefinition{}
	default:
		return noPrefix, OperatorDefinition{}
	}
}

// canApply reports whether left is a bare identifier that was just read, so the
// next expression is its argument. A parenthesized identifier is not applied.
func (p *parser) canApply(left Expression) bool {
	if _, ok := left.(*Ident); !ok {
		return false
	}
	cur, _ := p.cursor.current()
	return cur.Kind == IdentToken
}

// infixOf classifies the token following an expression. Declared operators win
// over juxtaposition. An identifier with both infix and postfix definitions is
// infix only when an operand follows it.
func (p *parser) infixOf(tok Token, callable bool) (infixShape, OperatorDefinition, Precedence) {
	if precedence, reserved := keywordPrecedences[tok.Kind]; reserved {
		return noInfix, OperatorDefinition{}, precedence
	}

	if tok.Kind == IdentToken || tok.Kind == OperatorSymbolToken {
		infix, hasInfix := p.table.Lookup(tok.Text, Infix)
		postfix, hasPostfix := p.table.Lookup(tok.Text, Postfix)
		switch {
		case hasInfix && hasPostfix:
			if p.operandFollows() {
				return operatorInfix, infix, infix.Precedence
			}
			return operatorPostfix, postfix, postfix.Precedence
		case hasInfix:
			return operatorInfix, infix, infix.Precedence
		case hasPostfix:
			return operatorPostfix, postfix, postfix.Precedence
		}
	}

	if callable {
		if shape, _ := p.prefixOf(tok); shape != noPrefix {
			return callInfix, OperatorDefinition{}, callPrecedence
		}
	}

	if tok.Kind == OperatorSymbolToken {
		return undefinedOperatorInfix, OperatorDefinition{}, LowestPrecedence
	}
	return noInfix, OperatorDefinition{}, LowestPrecedence
}

// operandFollows reports whether the token after peek can start an expression.
func (p *parser) operandFollows() bool {
	after, ok := p.cursor.peekAfter()
	if !ok {
		return false
	}
	shape, _ := p.prefixOf(after)
	return shape != noPrefix
}

func (p *parser) parsePrefix(tok Token) (Expression, bool) {
	shape, def := p.prefixOf(tok)
	switch shape {
	case numberPrefix:
		return &Number{Pos: tok.Pos, Value: tok.Number}, true

	case stringPrefix:
		return &String{Pos: tok.Pos, Value: tok.Text}, true

	case identPrefix:
		return &Ident{Pos: tok.Pos, Name: tok.Text}, true

	case functionPrefix:
		return p.parseFunction(tok)

	case operatorPrefix:
		p.cursor.advance()
		operand, ok := p.parseExpression(def.Precedence)
		return &PrefixOperation{Pos: tok.Pos, Operator: def, Operand: operand}, ok

	case conditionalPrefix:
		return p.parseConditional(tok)

	case groupPrefix:
		return p.parseGroup()

	case listPrefix:
		return p.parseList(tok)

	case noPrefix:
		if tok.Kind == OperatorSymbolToken {
			p.errorf(tok.Pos, "no prefix operator `%s` is defined", tok.Text)
		} else {
			p.errorf(tok.Pos, "no expression can start with token `%s`", tok)
		}
		return nil, false

	default:
		panic("unknown prefix shape: " + strconv.Itoa(int(shape)))
	}
}

func (p *parser) parseInfix(shape infixShape, def OperatorDefinition, left Expression) (Expression, bool) {
	switch shape {
	case operatorInfix:
		p.cursor.advance()
		right, ok := p.parseExpression(def.Precedence)
		return &InfixOperation{Left: left, Operator: def, Right: right}, ok

	case operatorPostfix:
		return &PostfixOperation{Operand: left, Operator: def}, true

	case callInfix:
		return p.parseCall(left)

	default:
		panic("unknown infix shape: " + strconv.Itoa(int(shape)))
	}
}

// advanceToken moves to the next token, reporting premature end of input if there is none.
func (p *parser) advanceToken() (Token, bool) {
	if !p.cursor.advance() {
		p.errorf(p.cursor.endPos(), "premature end of input")
		return Token{}, false
	}
	tok, _ := p.cursor.current()
	return tok, true
}

// expectPeek advances onto the next token if it has the wanted kind.
func (p *parser) expectPeek(kind TokenKind, what string) bool {
	next, ok := p.cursor.peek()
	if !ok {
		p.errorf(p.cursor.endPos(), "expected %s but input ended", what)
		return false
	}
	if next.Kind != kind {
		p.errorf(next.Pos, "expected %s but found `%s`", what, next)
		return false
	}
	p.cursor.advance()
	return true
}

func (p *parser) parseCall(callee Expression) (Expression, bool) {
	call := &Call{Callee: callee}
	for {
		// the current token is the first one of the argument
		arg, ok := p.parseExpression(callPrecedence)
		if arg != nil {
			call.Args = append(call.Args, arg)
		}
		if !ok {
			return call, false
		}

		next, hasNext := p.cursor.peek()
		if !hasNext {
			return call, true
		}
		if shape, _, _ := p.infixOf(next, true); shape != callInfix {
			return call, true
		}
		p.cursor.advance()
	}
}

func (p *parser) parseFunction(pipe Token) (Expression, bool) {
	fn := &Function{Pos: pipe.Pos}

	tok, ok := p.advanceToken()
	if !ok {
		return fn, false
	}
	if tok.Kind == PipeToken {
		p.errorf(tok.Pos, "function literal requires at least one parameter")
		return fn, false
	}

params:
	for {
		if tok.Kind != IdentToken {
			p.errorf(tok.Pos, "expected parameter name but found `%s`", tok)
			return fn, false
		}
		fn.Params = append(fn.Params, tok.Text)

		sep, ok := p.advanceToken()
		if !ok {
			return fn, false
		}
		switch sep.Kind {
		case CommaToken:
			if tok, ok = p.advanceToken(); !ok {
				return fn, false
			}
		case PipeToken:
			break params
		default:
			p.errorf(sep.Pos, "expected `,` or `|` but found `%s`", sep)
			return fn, false
		}
	}

	p.cursor.advance()
	fn.Body, ok = p.parseExpression(LowestPrecedence)
	return fn, ok
}

func (p *parser) parseConditional(ifTok Token) (Expression, bool) {
	cond := &Conditional{Pos: ifTok.Pos}

	var ok bool
	p.cursor.advance()
	if cond.Condition, ok = p.parseExpression(LowestPrecedence); !ok {
		return cond, false
	}

	p.cursor.advance()
	if cond.Consequent, ok = p.parseExpression(LowestPrecedence); !ok {
		return cond, false
	}

	if next, hasNext := p.cursor.peek(); hasNext && next.Kind == ElseToken {
		p.cursor.advance()
		p.cursor.advance()
		cond.Alternative, ok = p.parseExpression(LowestPrecedence)
		return cond, ok
	}
	return cond, true
}

func (p *parser) parseGroup() (Expression, bool) {
	p.cursor.advance()
	inner, ok := p.parseExpression(LowestPrecedence)
	if !ok {
		return inner, false
	}
	if !p.expectPeek(RParenToken, "`)`") {
		return inner, false
	}
	return inner, true
}

func (p *parser) parseList(lbracket Token) (Expression, bool) {
	list := &List{Pos: lbracket.Pos}
	if next, ok := p.cursor.peek(); ok && next.Kind == RBracketToken {
		p.cursor.advance()
		return list, true
	}

	for {
		p.cursor.advance()
		elem, ok := p.parseExpression(LowestPrecedence)
		if ok {
			list.Elements = append(list.Elements, elem)

			next, hasNext := p.cursor.peek()
			switch {
			case hasNext && next.Kind == CommaToken:
				p.cursor.advance()
				continue
			case hasNext && next.Kind == RBracketToken:
				p.cursor.advance()
				return list, true
			case hasNext && next.Kind == ColonToken:
				p.errorf(next.Pos, "map literal elements are not supported")
			case hasNext:
				p.errorf(next.Pos, "expected `,` or `]` but found `%s`", next)
			default:
				p.errorf(p.cursor.endPos(), "expected `]` but input ended")
				return list, false
			}
			p.cursor.advance()
		}

		if !p.synchronizeList() {
			// a list that reached its own `]` is closed, so the enclosing
			// expression can go on
			_, closed := p.cursor.current()
			return list, closed
		}
	}
}

// synchronizeList skips the rest of a broken list element, starting at the current
// token. It stops on the `,` or `]` at the element's own nesting depth and reports
// whether another element follows.
func (p *parser) synchronizeList() bool {
	depth := 0
	for {
		tok, ok := p.cursor.current()
		if !ok {
			return false
		}

		switch tok.Kind {
		case LParenToken, LBracketToken:
			depth++
		case RParenToken:
			if depth > 0 {
				depth--
			}
		case RBracketToken:
			if depth == 0 {
				return false
			}
			depth--
		case CommaToken:
			if depth == 0 {
				return true
			}
		}
		p.cursor.advance()
	}
}
