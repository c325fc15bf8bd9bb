package grammar

import (
	"fmt"

	"github.com/karupanerura/rough/internal/expression"
)

// DefaultOperators is a conventional operator set: logic, comparison, arithmetic,
// exponentiation, factorial and field access.
var DefaultOperators = []expression.OperatorDefinition{
	{Identifier: "or", Fixity: expression.Infix, Precedence: expression.PrecedenceFirst},
	{Identifier: "and", Fixity: expression.Infix, Precedence: expression.PrecedenceSecond},
	{Identifier: "not", Fixity: expression.Prefix, Precedence: expression.PrecedenceThird},
	{Identifier: "==", Fixity: expression.Infix, Precedence: expression.PrecedenceFourth},
	{Identifier: "!=", Fixity: expression.Infix, Precedence: expression.PrecedenceFourth},
	{Identifier: "<", Fixity: expression.Infix, Precedence: expression.PrecedenceFourth},
	{Identifier: "<=", Fixity: expression.Infix, Precedence: expression.PrecedenceFourth},
	{Identifier: ">", Fixity: expression.Infix, Precedence: expression.PrecedenceFourth},
	{Identifier: ">=", Fixity: expression.Infix, Precedence: expression.PrecedenceFourth},
	{Identifier: "+", Fixity: expression.Infix, Precedence: expression.PrecedenceFifth},
	{Identifier: "-", Fixity: expression.Infix, Precedence: expression.PrecedenceFifth},
	{Identifier: "*", Fixity: expression.Infix, Precedence: expression.PrecedenceSixth},
	{Identifier: "/", Fixity: expression.Infix, Precedence: expression.PrecedenceSixth},
	{Identifier: "%", Fixity: expression.Infix, Precedence: expression.PrecedenceSixth},
	{Identifier: "-", Fixity: expression.Prefix, Precedence: expression.PrecedenceSeventh},
	{Identifier: "^", Fixity: expression.Infix, Precedence: expression.PrecedenceEighth},
	{Identifier: "!", Fixity: expression.Postfix, Precedence: expression.PrecedenceNinth},
	{Identifier: ".", Fixity: expression.Infix, Precedence: expression.PrecedenceTenth},
}

// Default builds the table of DefaultOperators.
func Default() *expression.OperatorTable {
	table, diags := expression.NewOperatorTable(DefaultOperators...)
	if len(diags) != 0 {
		panic(fmt.Sprintf("invalid default operators: %v", diags))
	}
	return table
}
