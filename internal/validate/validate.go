// Package validate checks caller-supplied range bounds before any request
// is made to the randomness service.
package validate

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// Field names used in validation messages.
const (
	FieldMin = "Min"
	FieldMax = "Max"
)

// int64 bounds as float64. 2^63 itself does not fit.
const (
	minInt64Float = -9223372036854775808.0
	maxInt64Float = 9223372036854775808.0
)

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Range is an inclusive, ordered pair of integer bounds.
type Range struct {
	Min int64
	Max int64
}

// AssertIsNumber fails unless value has a numeric Go type and is finite.
// Numeric-looking strings are rejected. The normalised float64 is returned
// so callers can continue with the integer check.
func AssertIsNumber(field string, value any) (float64, error) {
	if !isNumeric(value) {
		return 0, notNumber(field)
	}

	var (
		f   float64
		err error
	)
	if n, ok := value.(json.Number); ok {
		f, err = n.Float64()
	} else {
		f, err = cast.ToFloat64E(value)
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, notNumber(field)
	}
	return f, nil
}

// AssertIsInteger fails unless value has no fractional part.
func AssertIsInteger(field string, value float64) error {
	if math.Trunc(value) != value {
		return notInteger(field)
	}
	return nil
}

// AssertRangeOrdered fails when min is greater than max.
func AssertRangeOrdered(min, max float64) error {
	if min > max {
		return outOfOrder()
	}
	return nil
}

// NewRange runs the full validation pass: both bounds numeric, both
// integral, then ordered. Integer inputs are carried exactly; only float
// inputs go through float64.
func NewRange(min, max any) (Range, error) {
	minF, err := AssertIsNumber(FieldMin, min)
	if err != nil {
		return Range{}, err
	}
	maxF, err := AssertIsNumber(FieldMax, max)
	if err != nil {
		return Range{}, err
	}

	lo, err := toInt64(FieldMin, min, minF)
	if err != nil {
		return Range{}, err
	}
	hi, err := toInt64(FieldMax, max, maxF)
	if err != nil {
		return Range{}, err
	}

	if lo > hi {
		return Range{}, outOfOrder()
	}

	return Range{Min: lo, Max: hi}, nil
}

// toInt64 converts a value that passed AssertIsNumber. f is its float64
// form, used only when value is not already an integer.
func toInt64(field string, value any, f float64) (int64, error) {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		i, err := cast.ToInt64E(v)
		if err != nil {
			return 0, notInteger(field)
		}
		return i, nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, notInteger(field)
		}
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, notInteger(field)
		}
		return int64(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
	}

	// Floats, and json.Number values such as "1.0" or "1e3".
	if err := AssertIsInteger(field, f); err != nil {
		return 0, err
	}
	if f < minInt64Float || f >= maxInt64Float {
		return 0, notInteger(field)
	}
	return int64(f), nil
}

func isNumeric(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return true
	default:
		return false
	}
}

func notNumber(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%s must be a valid number.", field),
	}
}

func notInteger(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%s must be an integer.", field),
	}
}

func outOfOrder() *ValidationError {
	return &ValidationError{
		Field:   FieldMin,
		Message: "Min cannot be greater than Max.",
	}
}
