package expression

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Render writes expr as an S-expression. Missing children of a partial tree are
// rendered as "?".
func Render(expr Expression) string {
	var b strings.Builder
	renderTo(&b, expr)
	return b.String()
}

func renderTo(b *strings.Builder, expr Expression) {
	switch e := expr.(type) {
	case nil:
		b.WriteByte('?')

	case *Ident:
		b.WriteString(e.Name)

	case *Number:
		b.WriteString(strconv.FormatFloat(e.Value, 'g', -1, 64))

	case *String:
		b.WriteString(strconv.Quote(e.Value))

	case *Function:
		b.WriteString("(fn (")
		b.WriteString(strings.Join(e.Params, " "))
		b.WriteString(") ")
		renderTo(b, e.Body)
		b.WriteByte(')')

	case *Call:
		b.WriteString("(call ")
		renderTo(b, e.Callee)
		for _, arg := range e.Args {
			b.WriteByte(' ')
			renderTo(b, arg)
		}
		b.WriteByte(')')

	case *PrefixOperation:
		b.WriteString("(prefix ")
		b.WriteString(e.Operator.Identifier)
		b.WriteByte(' ')
		renderTo(b, e.Operand)
		b.WriteByte(')')

	case *InfixOperation:
		b.WriteByte('(')
		b.WriteString(e.Operator.Identifier)
		b.WriteByte(' ')
		renderTo(b, e.Left)
		b.WriteByte(' ')
		renderTo(b, e.Right)
		b.WriteByte(')')

	case *PostfixOperation:
		b.WriteString("(postfix ")
		b.WriteString(e.Operator.Identifier)
		b.WriteByte(' ')
		renderTo(b, e.Operand)
		b.WriteByte(')')

	case *List:
		b.WriteByte('[')
		for i, elem := range e.Elements {
			if i != 0 {
				b.WriteByte(' ')
			}
			renderTo(b, elem)
		}
		b.WriteByte(']')

	case *Conditional:
		b.WriteString("(if ")
		renderTo(b, e.Condition)
		b.WriteByte(' ')
		renderTo(b, e.Consequent)
		if e.Alternative != nil {
			b.WriteByte(' ')
			renderTo(b, e.Alternative)
		}
		b.WriteByte(')')

	default:
		panic(fmt.Sprintf("unknown expression type %T", expr))
	}
}

// Dump converts expr to plain maps and slices for JSON encoding.
func Dump(expr Expression) any {
	switch e := expr.(type) {
	case nil:
		return nil

	case *Ident:
		return map[string]any{"kind": "ident", "pos": e.Pos, "name": e.Name}

	case *Number:
		return map[string]any{"kind": "number", "pos": e.Pos, "value": e.Value}

	case *String:
		return map[string]any{"kind": "string", "pos": e.Pos, "value": e.Value}

	case *Function:
		return map[string]any{"kind": "function", "pos": e.Pos, "params": e.Params, "body": Dump(e.Body)}

	case *Call:
		return map[string]any{"kind": "call", "pos": e.Position(), "callee": Dump(e.Callee), "args": dumpAll(e.Args)}

	case *PrefixOperation:
		return map[string]any{"kind": "prefix", "pos": e.Pos, "operator": dumpOperator(e.Operator), "operand": Dump(e.Operand)}

	case *InfixOperation:
		return map[string]any{"kind": "infix", "pos": e.Position(), "operator": dumpOperator(e.Operator), "left": Dump(e.Left), "right": Dump(e.Right)}

	case *PostfixOperation:
		return map[string]any{"kind": "postfix", "pos": e.Position(), "operator": dumpOperator(e.Operator), "operand": Dump(e.Operand)}

	case *List:
		return map[string]any{"kind": "list", "pos": e.Pos, "elements": dumpAll(e.Elements)}

	case *Conditional:
		return map[string]any{
			"kind":        "if",
			"pos":         e.Pos,
			"condition":   Dump(e.Condition),
			"consequent":  Dump(e.Consequent),
			"alternative": Dump(e.Alternative),
		}

	default:
		panic(fmt.Sprintf("unknown expression type %T", expr))
	}
}

func dumpAll(exprs []Expression) []any {
	return lo.Map(exprs, func(expr Expression, _ int) any {
		return Dump(expr)
	})
}

func dumpOperator(def OperatorDefinition) map[string]any {
	return map[string]any{
		"identifier": def.Identifier,
		"fixity":     def.Fixity.String(),
		"precedence": int(def.Precedence),
	}
}

// Position converts a byte offset into a 1-based line and column. A `\r\n` or
// `\n\r` pair counts as one line break, as in the lexer.
func Position(source string, offset int) (line, column int) {
	if offset > len(source) {
		offset = len(source)
	}

	line, column = 1, 1
	for i := 0; i < offset; i++ {
		switch c := source[i]; c {
		case '\n', '\r':
			if i+1 < offset && (source[i+1] == '\n' || source[i+1] == '\r') && source[i+1] != c {
				i++
			}
			line++
			column = 1
		default:
			if c&0xC0 != 0x80 { // not a UTF-8 continuation byte
				column++
			}
		}
	}
	return line, column
}
