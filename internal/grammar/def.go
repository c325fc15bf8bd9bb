package grammar

import (
	"fmt"
	"reflect"

	"github.com/karupanerura/rough/internal/expression"
	"github.com/mitchellh/mapstructure"
)

type grammarDef struct {
	Operators []map[string]any `json:"operators"`
}

// operatorDef is one entry of the operators list, e.g.
//
//	- identifier: "+"
//	  fixity: infix
//	  precedence: 5   # or a level name such as "fifth"
type operatorDef struct {
	Identifier string                `mapstructure:"identifier"`
	Fixity     expression.Fixity     `mapstructure:"fixity"`
	Precedence expression.Precedence `mapstructure:"precedence"`
}

func (d grammarDef) compile() (*expression.OperatorTable, error) {
	if len(d.Operators) == 0 {
		return nil, fmt.Errorf("empty operators")
	}

	defs := make([]expression.OperatorDefinition, len(d.Operators))
	for i, raw := range d.Operators {
		def, err := decodeOperatorDef(raw)
		if err != nil {
			return nil, fmt.Errorf("operators[%d]: %w", i, err)
		}
		defs[i] = def
	}

	table, diags := expression.NewOperatorTable(defs...)
	if err := diags.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

func decodeOperatorDef(raw map[string]any) (expression.OperatorDefinition, error) {
	var def operatorDef
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.DecodeHookFuncType(decodeOperatorField),
		ErrorUnused: true,
		Result:      &def,
	})
	if err != nil {
		return expression.OperatorDefinition{}, fmt.Errorf("mapstructure.NewDecoder: %w", err)
	}
	if err = decoder.Decode(raw); err != nil {
		return expression.OperatorDefinition{}, err
	}
	if _, ok := raw["fixity"]; !ok {
		return expression.OperatorDefinition{}, fmt.Errorf("fixity is required")
	}
	if _, ok := raw["precedence"]; !ok {
		return expression.OperatorDefinition{}, fmt.Errorf("precedence is required")
	}

	return expression.OperatorDefinition{
		Identifier: def.Identifier,
		Fixity:     def.Fixity,
		Precedence: def.Precedence,
	}, nil
}

var (
	fixityType     = reflect.TypeOf(expression.Fixity(0))
	precedenceType = reflect.TypeOf(expression.Precedence(0))
)

func decodeOperatorField(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to {
	case fixityType:
		name, ok := data.(string)
		if !ok {
			return nil, fmt.Errorf("fixity must be a string but got %T", data)
		}
		return expression.ParseFixity(name)

	case precedenceType:
		return decodePrecedence(data)

	default:
		return data, nil
	}
}
