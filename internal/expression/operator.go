package expression

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/karupanerura/rough/internal/types"
	"github.com/samber/lo"
)

type Fixity int

const (
	Prefix Fixity = iota
	Infix
	Postfix
)

var fixityNames = map[Fixity]string{
	Prefix:  "prefix",
	Infix:   "infix",
	Postfix: "postfix",
}

var fixityByName = lo.Invert(fixityNames)

func (f Fixity) String() string {
	if name, ok := fixityNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Fixity(%d)", int(f))
}

func ParseFixity(name string) (Fixity, error) {
	if f, ok := fixityByName[strings.ToLower(name)]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("unknown fixity %q", name)
}

// Precedence orders binding strength; a larger level binds tighter.
type Precedence uint8

const (
	LowestPrecedence Precedence = iota
	PrecedenceFirst
	PrecedenceSecond
	PrecedenceThird
	PrecedenceFourth
	PrecedenceFifth
	PrecedenceSixth
	PrecedenceSeventh
	PrecedenceEighth
	PrecedenceNinth
	PrecedenceTenth

	// juxtaposition binds tighter than every declared operator
	callPrecedence
)

var precedenceNames = map[Precedence]string{
	LowestPrecedence:  "lowest",
	PrecedenceFirst:   "first",
	PrecedenceSecond:  "second",
	PrecedenceThird:   "third",
	PrecedenceFourth:  "fourth",
	PrecedenceFifth:   "fifth",
	PrecedenceSixth:   "sixth",
	PrecedenceSeventh: "seventh",
	PrecedenceEighth:  "eighth",
	PrecedenceNinth:   "ninth",
	PrecedenceTenth:   "tenth",
	callPrecedence:    "call",
}

var precedenceByName = lo.Invert(precedenceNames)

func (p Precedence) String() string {
	if name, ok := precedenceNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Precedence(%d)", int(p))
}

// Compare returns -1, 0 or +1 as p binds looser than, as tight as, or tighter than o.
func (p Precedence) Compare(o Precedence) int {
	switch {
	case p < o:
		return -1
	case p > o:
		return 1
	default:
		return 0
	}
}

// IsDeclarable reports whether operators may be declared at this level.
func (p Precedence) IsDeclarable() bool {
	return PrecedenceFirst <= p && p <= PrecedenceTenth
}

// ParsePrecedence accepts a level name such as "fifth".
func ParsePrecedence(name string) (Precedence, error) {
	if p, ok := precedenceByName[strings.ToLower(name)]; ok && p.IsDeclarable() {
		return p, nil
	}
	return 0, fmt.Errorf("unknown precedence %q", name)
}

type OperatorDefinition struct {
	Identifier string
	Fixity     Fixity
	Precedence Precedence
}

func (d OperatorDefinition) String() string {
	return fmt.Sprintf("%s %s (%s)", d.Fixity, d.Identifier, d.Precedence)
}

type operatorKey struct {
	identifier string
	fixity     Fixity
}

// OperatorTable is built once and only read afterwards, so one table may serve
// any number of parses, including concurrent ones.
type OperatorTable struct {
	definitions map[operatorKey]OperatorDefinition
}

// NewOperatorTable registers defs in order. Every rejected definition yields a
// diagnostic and is left out; the rest of the table is still usable.
func NewOperatorTable(defs ...OperatorDefinition) (*OperatorTable, types.Diagnostics) {
	table := &OperatorTable{definitions: make(map[operatorKey]OperatorDefinition, len(defs))}

	var diags types.Diagnostics
	for _, def := range defs {
		if err := validateOperatorDefinition(def); err != nil {
			diags.Addf(types.OperatorErrorTag, types.NoOffset, "%s: %v", def, err)
			continue
		}

		key := operatorKey{identifier: def.Identifier, fixity: def.Fixity}
		if prev, duplicated := table.definitions[key]; duplicated {
			diags.Addf(types.OperatorErrorTag, types.NoOffset, "%s: conflicts with %s", def, prev)
			continue
		}
		table.definitions[key] = def
	}
	return table, diags
}

func validateOperatorDefinition(def OperatorDefinition) error {
	if def.Identifier == "" {
		return fmt.Errorf("empty identifier")
	}
	if _, ok := fixityNames[def.Fixity]; !ok {
		return fmt.Errorf("invalid fixity")
	}
	if !def.Precedence.IsDeclarable() {
		return fmt.Errorf("precedence must be between %d and %d", PrecedenceFirst, PrecedenceTenth)
	}
	if IsKeyword(def.Identifier) {
		return fmt.Errorf("%q is a reserved keyword", def.Identifier)
	}

	// the identifier must come out of the lexer as one token
	first, _ := utf8.DecodeRuneInString(def.Identifier)
	accept := isIdentChar
	if isOperatorSymbolChar(first) {
		accept = isOperatorSymbolChar
	}
	for _, r := range def.Identifier {
		if !accept(r) {
			return fmt.Errorf("%q cannot be written as a single token", def.Identifier)
		}
	}
	return nil
}

func (t *OperatorTable) Lookup(identifier string, fixity Fixity) (OperatorDefinition, bool) {
	if t == nil {
		return OperatorDefinition{}, false
	}
	def, ok := t.definitions[operatorKey{identifier: identifier, fixity: fixity}]
	return def, ok
}

func (t *OperatorTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.definitions)
}

// Definitions lists the table ordered by precedence, then identifier, then fixity.
func (t *OperatorTable) Definitions() []OperatorDefinition {
	if t == nil {
		return nil
	}
	defs := lo.Values(t.definitions)
	sort.Slice(defs, func(i, j int) bool {
		if c := defs[i].Precedence.Compare(defs[j].Precedence); c != 0 {
			return c < 0
		}
		if defs[i].Identifier != defs[j].Identifier {
			return defs[i].Identifier < defs[j].Identifier
		}
		return defs[i].Fixity < defs[j].Fixity
	})
	return defs
}
