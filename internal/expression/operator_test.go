package expression_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/karupanerura/rough/internal/expression"
)

func TestNewOperatorTable(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name        string
		defs        []expression.OperatorDefinition
		size        int
		diagnostics []string
	}{
		{
			name: "Empty",
			size: 0,
		},
		{
			name: "PrefixAndInfixShareIdentifier",
			defs: []expression.OperatorDefinition{
				{Identifier: "-", Fixity: expression.Infix, Precedence: expression.PrecedenceFifth},
				{Identifier: "-", Fixity: expression.Prefix, Precedence: expression.PrecedenceSeventh},
				{Identifier: "-", Fixity: expression.Postfix, Precedence: expression.PrecedenceNinth},
			},
			size: 3,
		},
		{
			name: "WordOperators",
			defs: []expression.OperatorDefinition{
				{Identifier: "or", Fixity: expression.Infix, Precedence: expression.PrecedenceFirst},
				{Identifier: "not", Fixity: expression.Prefix, Precedence: expression.PrecedenceThird},
			},
			size: 2,
		},
		{
			name: "Duplicated",
			defs: []expression.OperatorDefinition{
				{Identifier: "+", Fixity: expression.Infix, Precedence: expression.PrecedenceThird},
				{Identifier: "+", Fixity: expression.Infix, Precedence: expression.PrecedenceFifth},
			},
			size:        1,
			diagnostics: []string{"infix + (fifth): conflicts with infix + (third)"},
		},
		{
			name: "Invalid",
			defs: []expression.OperatorDefinition{
				{Identifier: "", Fixity: expression.Infix, Precedence: expression.PrecedenceFirst},
				{Identifier: "+", Fixity: expression.Fixity(7), Precedence: expression.PrecedenceFirst},
				{Identifier: "+", Fixity: expression.Infix, Precedence: expression.LowestPrecedence},
				{Identifier: "+", Fixity: expression.Infix, Precedence: expression.Precedence(11)},
				{Identifier: "if", Fixity: expression.Prefix, Precedence: expression.PrecedenceFirst},
				{Identifier: "+a", Fixity: expression.Infix, Precedence: expression.PrecedenceFirst},
				{Identifier: "a b", Fixity: expression.Infix, Precedence: expression.PrecedenceFirst},
				{Identifier: "|", Fixity: expression.Infix, Precedence: expression.PrecedenceFirst},
				{Identifier: "x", Fixity: expression.Postfix, Precedence: expression.PrecedenceFirst},
			},
			size: 1,
			diagnostics: []string{
				"infix  (first): empty identifier",
				"Fixity(7) + (first): invalid fixity",
				"infix + (lowest): precedence must be between 1 and 10",
				"infix + (call): precedence must be between 1 and 10",
				`prefix if (first): "if" is a reserved keyword`,
				`infix +a (first): "+a" cannot be written as a single token`,
				`infix a b (first): "a b" cannot be written as a single token`,
				`infix | (first): "|" cannot be written as a single token`,
			},
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			table, diags := expression.NewOperatorTable(tt.defs...)
			if diff := cmp.Diff(tt.diagnostics, diags.Messages(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
			if table.Len() != tt.size {
				t.Errorf("expected %d definitions but got %d", tt.size, table.Len())
			}
		})
	}
}

func TestOperatorTableLookup(t *testing.T) {
	t.Parallel()

	table := newTestOperatorTable(t)
	for _, tt := range []struct {
		identifier string
		fixity     expression.Fixity
		precedence expression.Precedence
		found      bool
	}{
		{identifier: "-", fixity: expression.Infix, precedence: expression.PrecedenceThird, found: true},
		{identifier: "-", fixity: expression.Prefix, precedence: expression.PrecedenceSixth, found: true},
		{identifier: "-", fixity: expression.Postfix},
		{identifier: "!", fixity: expression.Postfix, precedence: expression.PrecedenceSeventh, found: true},
		{identifier: "not", fixity: expression.Prefix, precedence: expression.PrecedenceSecond, found: true},
		{identifier: "not", fixity: expression.Infix},
		{identifier: "$", fixity: expression.Infix},
	} {
		def, found := table.Lookup(tt.identifier, tt.fixity)
		if found != tt.found {
			t.Errorf("%s %s: expect found=%v but got %v", tt.fixity, tt.identifier, tt.found, found)
			continue
		}
		if found && def.Precedence != tt.precedence {
			t.Errorf("%s %s: expect precedence %s but got %s", tt.fixity, tt.identifier, tt.precedence, def.Precedence)
		}
	}

	var nilTable *expression.OperatorTable
	if _, found := nilTable.Lookup("+", expression.Infix); found {
		t.Error("nil table should not define anything")
	}
	if nilTable.Len() != 0 || nilTable.Definitions() != nil {
		t.Error("nil table should be empty")
	}
}

func TestOperatorTableDefinitions(t *testing.T) {
	t.Parallel()

	expected := []string{
		"infix and (first)",
		"prefix not (second)",
		"infix + (third)",
		"infix - (third)",
		"infix * (fifth)",
		"prefix - (sixth)",
		"prefix ~ (sixth)",
		"postfix ! (seventh)",
	}

	var got []string
	for _, def := range newTestOperatorTable(t).Definitions() {
		got = append(got, def.String())
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("definitions mismatch (-want +got):\n%s", diff)
	}
}

func TestPrecedence(t *testing.T) {
	t.Parallel()

	if c := expression.PrecedenceFirst.Compare(expression.PrecedenceTenth); c != -1 {
		t.Errorf("first should bind looser than tenth: %d", c)
	}
	if c := expression.PrecedenceTenth.Compare(expression.PrecedenceFirst); c != 1 {
		t.Errorf("tenth should bind tighter than first: %d", c)
	}
	if c := expression.PrecedenceFifth.Compare(expression.PrecedenceFifth); c != 0 {
		t.Errorf("same level should compare equal: %d", c)
	}

	if expression.LowestPrecedence.IsDeclarable() {
		t.Error("lowest level should not be declarable")
	}
	if !expression.PrecedenceFirst.IsDeclarable() || !expression.PrecedenceTenth.IsDeclarable() {
		t.Error("first through tenth should be declarable")
	}
	if got := expression.Precedence(42).String(); got != "Precedence(42)" {
		t.Errorf("unexpected name: %s", got)
	}
}

func TestParsePrecedence(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name     string
		expected expression.Precedence
		wantErr  bool
	}{
		{name: "first", expected: expression.PrecedenceFirst},
		{name: "Fifth", expected: expression.PrecedenceFifth},
		{name: "TENTH", expected: expression.PrecedenceTenth},
		{name: "lowest", wantErr: true},
		{name: "call", wantErr: true},
		{name: "eleventh", wantErr: true},
	} {
		got, err := expression.ParsePrecedence(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error but got %s", tt.name, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
		} else if got != tt.expected {
			t.Errorf("%s: expect to %s but got %s", tt.name, tt.expected, got)
		}
	}
}

func TestParseFixity(t *testing.T) {
	t.Parallel()

	for name, expected := range map[string]expression.Fixity{
		"prefix":  expression.Prefix,
		"Infix":   expression.Infix,
		"POSTFIX": expression.Postfix,
	} {
		got, err := expression.ParseFixity(name)
		if err != nil {
			t.Errorf("%s: %v", name, err)
		} else if got != expected {
			t.Errorf("%s: expect to %s but got %s", name, expected, got)
		}
	}

	if _, err := expression.ParseFixity("circumfix"); err == nil {
		t.Error("expected error for unknown fixity")
	}
}
