package model

import (
	"fmt"

	"github.com/sqlscore/sqlscore/errs"
)

// Row maps variable names to input values: numbers for continuous
// predictors, strings for categorical ones. A variable absent from the map
// is treated as missing, which aborts evaluation for that row.
type Row map[string]any

// Float returns the numeric value of the named variable. Integer and float
// types are accepted and widened to float64.
//
// Returns an error wrapping ErrMissingVariable when the variable is absent,
// or ErrInvalidValue when its value is not numeric.
func (r Row) Float(name string) (float64, error) {
	v, ok := r[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", errs.ErrMissingVariable, name)
	}

	f, ok := asFloat(v)
	if !ok {
		return 0, fmt.Errorf("%w: variable %s has non-numeric value %v (%T)", errs.ErrInvalidValue, name, v, v)
	}

	return f, nil
}

// Text returns the string value of the named variable.
//
// Returns an error wrapping ErrMissingVariable when the variable is absent,
// or ErrInvalidValue when its value is not a string.
func (r Row) Text(name string) (string, error) {
	v, ok := r[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", errs.ErrMissingVariable, name)
	}

	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: variable %s has non-string value %v (%T)", errs.ErrInvalidValue, name, v, v)
	}

	return s, nil
}

// asFloat widens the common numeric types to float64.
func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int16:
		return float64(x), true
	case int8:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint8:
		return float64(x), true
	default:
		return 0, false
	}
}
