package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is a sealed interface over the concrete values an EFSM variable can
// hold. Only IntValue, BoolValue, and EnumValue implement it; every switch
// over Value must handle all three and report anything else.
type Value interface {
	value() // Sealed
	// String renders the value as it appears in canonical keys.
	String() string
}

// IntValue is the value of an int variable.
type IntValue int64

func (IntValue) value() {}

func (v IntValue) String() string { return strconv.FormatInt(int64(v), 10) }

// BoolValue is the value of a bool variable.
type BoolValue bool

func (BoolValue) value() {}

func (v BoolValue) String() string { return strconv.FormatBool(bool(v)) }

// EnumValue is the value of an enum variable. It must be one of the
// variable's declared values.
type EnumValue string

func (EnumValue) value() {}

func (v EnumValue) String() string { return string(v) }

// TypeOf returns the variable type a value's tag corresponds to.
func TypeOf(v Value) (VarType, error) {
	switch v.(type) {
	case IntValue:
		return VarInt, nil
	case BoolValue:
		return VarBool, nil
	case EnumValue:
		return VarEnum, nil
	default:
		return "", fmt.Errorf("unknown value type: %T", v)
	}
}

// MarshalValue renders a Value as plain JSON (number, boolean, or string).
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case IntValue:
		return json.Marshal(int64(val))
	case BoolValue:
		return json.Marshal(bool(val))
	case EnumValue:
		return json.Marshal(string(val))
	default:
		return nil, fmt.Errorf("unknown value type: %T", v)
	}
}

// ValueFromAny converts a decoded document value (YAML, JSON, or CUE) into a
// Value. Integral floats are accepted since JSON decoders often produce them.
// Fractional numbers are rejected.
func ValueFromAny(raw any) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return nil, nil
	case Value:
		return val, nil
	case bool:
		return BoolValue(val), nil
	case string:
		return EnumValue(val), nil
	case int:
		return IntValue(val), nil
	case int64:
		return IntValue(val), nil
	case int32:
		return IntValue(val), nil
	case uint64:
		return IntValue(int64(val)), nil
	case float64:
		if val != float64(int64(val)) {
			return nil, fmt.Errorf("fractional values are not allowed: %v", val)
		}
		return IntValue(int64(val)), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("not an integer: %s", val)
		}
		return IntValue(n), nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", raw)
	}
}
