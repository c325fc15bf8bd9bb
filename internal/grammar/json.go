package grammar

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/karupanerura/rough/internal/expression"
)

// decodePrecedence accepts a level number (JSON number or numeric string) or a
// level name. The range is checked later by the operator table.
func decodePrecedence(v any) (expression.Precedence, error) {
	switch vv := v.(type) {
	case json.Number:
		return decodeJSONNumber(vv)

	case string:
		if n, err := strconv.ParseInt(vv, 10, 64); err == nil {
			return precedenceLevel(n)
		} else if !errors.Is(err, strconv.ErrSyntax) {
			return 0, fmt.Errorf("precedence %q: %w", vv, err)
		}
		return expression.ParsePrecedence(vv)

	case int:
		return precedenceLevel(int64(vv))

	case int64:
		return precedenceLevel(vv)

	case float64:
		if vv != math.Trunc(vv) {
			return 0, fmt.Errorf("precedence must be an integer but got %v", vv)
		}
		return precedenceLevel(int64(vv))

	default:
		return 0, fmt.Errorf("precedence must be a number or a level name but got %T", v)
	}
}

func decodeJSONNumber(n json.Number) (expression.Precedence, error) {
	i, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("precedence must be an integer but got %s", n.String())
	}
	return precedenceLevel(i)
}

func precedenceLevel(n int64) (expression.Precedence, error) {
	if n < 0 || n > math.MaxUint8 {
		return 0, fmt.Errorf("precedence %d is out of range", n)
	}
	return expression.Precedence(n), nil
}
