package expression

// Expression is a node of the syntax tree. The set of node types is closed.
type Expression interface {
	// Position is the offset of the first token of the expression.
	Position() int
	expressionNode()
}

type Ident struct {
	Pos  int
	Name string
}

type Number struct {
	Pos   int
	Value float64
}

type String struct {
	Pos   int
	Value string
}

type Function struct {
	Pos    int
	Params []string
	Body   Expression
}

type Call struct {
	Callee Expression
	Args   []Expression
}

type PrefixOperation struct {
	Pos      int
	Operator OperatorDefinition
	Operand  Expression
}

type InfixOperation struct {
	Left     Expression
	Operator OperatorDefinition
	Right    Expression
}

type PostfixOperation struct {
	Operand  Expression
	Operator OperatorDefinition
}

type List struct {
	Pos      int
	Elements []Expression
}

// Conditional has a nil Alternative when there is no else branch.
type Conditional struct {
	Pos         int
	Condition   Expression
	Consequent  Expression
	Alternative Expression
}

var (
	_ Expression = (*Ident)(nil)
	_ Expression = (*Number)(nil)
	_ Expression = (*String)(nil)
	_ Expression = (*Function)(nil)
	_ Expression = (*Call)(nil)
	_ Expression = (*PrefixOperation)(nil)
	_ Expression = (*InfixOperation)(nil)
	_ Expression = (*PostfixOperation)(nil)
	_ Expression = (*List)(nil)
	_ Expression = (*Conditional)(nil)
)

func (e *Ident) Position() int            { return e.Pos }
func (e *Number) Position() int           { return e.Pos }
func (e *String) Position() int           { return e.Pos }
func (e *Function) Position() int         { return e.Pos }
func (e *Call) Position() int             { return e.Callee.Position() }
func (e *PrefixOperation) Position() int  { return e.Pos }
func (e *InfixOperation) Position() int   { return e.Left.Position() }
func (e *PostfixOperation) Position() int { return e.Operand.Position() }
func (e *List) Position() int             { return e.Pos }
func (e *Conditional) Position() int      { return e.Pos }

func (*Ident) expressionNode()            {}
func (*Number) expressionNode()           {}
func (*String) expressionNode()           {}
func (*Function) expressionNode()         {}
func (*Call) expressionNode()             {}
func (*PrefixOperation) expressionNode()  {}
func (*InfixOperation) expressionNode()   {}
func (*PostfixOperation) expressionNode() {}
func (*List) expressionNode()             {}
func (*Conditional) expressionNode()      {}
