// Package performance holds the ratio metric shared by row-level and grouped
// views: Actual / Target * 100, its color classification and display label.
package performance

import (
	"encoding/json"
	"math"
	"strconv"
)

// Color is the classification bucket of a performance value.
type Color string

const (
	ColorGreen  Color = "green"
	ColorOrange Color = "orange"
	ColorRed    Color = "red"
	// ColorGrey marks an undefined performance (zero target).
	ColorGrey Color = "grey"
)

const (
	greenThreshold  = 100.0
	orangeThreshold = 70.0

	undefinedLabel = "n/a"
)

// Value is a percentage that may be undefined when its divisor was zero.
type Value struct {
	Percent float64
	Defined bool
}

// Undefined is returned for a zero target.
var Undefined = Value{}

// Of computes actual / target * 100. Target must be the sum over the same rows
// as actual when used for a group.
func Of(actual, target int64) Value {
	if target == 0 {
		return Undefined
	}
	return Value{Percent: float64(actual) / float64(target) * 100, Defined: true}
}

// Percentage wraps an already computed percentage.
func Percentage(p float64) Value {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return Undefined
	}
	return Value{Percent: p, Defined: true}
}

// Classify maps a performance value to its color: >= 100 green, [70, 100)
// orange, below 70 red.
func Classify(v Value) Color {
	switch {
	case !v.Defined:
		return ColorGrey
	case v.Percent >= greenThreshold:
		return ColorGreen
	case v.Percent >= orangeThreshold:
		return ColorOrange
	default:
		return ColorRed
	}
}

// Color is shorthand for Classify(v).
func (v Value) Color() Color {
	return Classify(v)
}

// Rounded returns the percentage rounded to one decimal place, 0 when
// undefined. Exact ties round to even: 6.25 becomes 6.2.
func (v Value) Rounded() float64 {
	if !v.Defined {
		return 0
	}
	return math.RoundToEven(v.Percent*10) / 10
}

// Label formats the value as e.g. "73.3%".
func (v Value) Label() string {
	if !v.Defined {
		return undefinedLabel
	}
	return strconv.FormatFloat(v.Rounded(), 'f', 1, 64) + "%"
}

func (v Value) String() string {
	return v.Label()
}

// MarshalJSON encodes the raw percentage, or null when undefined.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(v.Percent)
}

// UnmarshalJSON accepts a number or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Undefined
		return nil
	}
	var p float64
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = Percentage(p)
	return nil
}
