package guard

import (
	"fmt"
	"math"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/roach88/efsmcheck/internal/ir"
)

// toCty converts a variable value into its cty representation.
func toCty(v ir.Value) (cty.Value, error) {
	switch val := v.(type) {
	case ir.IntValue:
		return cty.NumberIntVal(int64(val)), nil
	case ir.BoolValue:
		return cty.BoolVal(bool(val)), nil
	case ir.EnumValue:
		return cty.StringVal(string(val)), nil
	default:
		return cty.NilVal, fmt.Errorf("unknown value type: %T", v)
	}
}

// truthy coerces an evaluation result to a boolean: zero, the empty string,
// false, and null are false; everything else is true.
func truthy(v cty.Value) bool {
	if v.IsNull() || !v.IsKnown() {
		return false
	}
	switch v.Type() {
	case cty.Bool:
		return v.True()
	case cty.Number:
		return v.AsBigFloat().Sign() != 0
	case cty.String:
		return v.AsString() != ""
	default:
		return true
	}
}

// clampResult records whether an int coercion had to clamp.
type clampResult int

const (
	inRange clampResult = iota
	clampedHigh
	clampedLow
)

// coerceInt floors v and clamps it into the variable's bounds. Booleans
// count as 0 and 1; strings are parsed as numbers. Unbounded ends clamp to
// the int64 range.
func coerceInt(v cty.Value, variable ir.Variable) (int64, clampResult, error) {
	if v.IsNull() {
		return 0, inRange, fmt.Errorf("null is not a number")
	}
	if v.Type() == cty.Bool {
		if v.True() {
			v = cty.NumberIntVal(1)
		} else {
			v = cty.NumberIntVal(0)
		}
	}
	num, err := convert.Convert(v, cty.Number)
	if err != nil {
		return 0, inRange, fmt.Errorf("not a number: %w", err)
	}

	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if variable.Min != nil {
		lo = *variable.Min
	}
	if variable.Max != nil {
		hi = *variable.Max
	}

	f := num.AsBigFloat()
	if f.IsInf() {
		if f.Sign() > 0 {
			return hi, clampedHigh, nil
		}
		return lo, clampedLow, nil
	}

	n := floor(f)
	switch {
	case n.Cmp(big.NewInt(hi)) > 0:
		return hi, clampedHigh, nil
	case n.Cmp(big.NewInt(lo)) < 0:
		return lo, clampedLow, nil
	default:
		return n.Int64(), inRange, nil
	}
}

// floor rounds f toward negative infinity.
func floor(f *big.Float) *big.Int {
	n, acc := f.Int(nil)
	// Int truncates toward zero; for negative non-integers that lands above f.
	if acc == big.Above {
		n.Sub(n, big.NewInt(1))
	}
	return n
}

// coerceEnum renders v as a string and checks it against the enum's values.
func coerceEnum(v cty.Value, variable ir.Variable) (string, error) {
	if v.IsNull() {
		return "", fmt.Errorf("null is not a value of enum %s", variable.Name)
	}
	var s string
	switch v.Type() {
	case cty.String:
		s = v.AsString()
	case cty.Number:
		s = v.AsBigFloat().Text('f', -1)
	case cty.Bool:
		s = fmt.Sprintf("%t", v.True())
	default:
		return "", fmt.Errorf("%s value cannot be an enum value", v.Type().FriendlyName())
	}
	if !variable.HasValue(s) {
		return "", fmt.Errorf("%q is not a value of enum %s", s, variable.Name)
	}
	return s, nil
}
