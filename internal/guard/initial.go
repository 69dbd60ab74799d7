package guard

import "github.com/roach88/efsmcheck/internal/ir"

// InitialVariableState returns the starting valuation of vars.
//
// A declared initial value is used when its type matches the variable.
// Otherwise int starts at min (0 when unbounded below), bool at false, and
// enum at its first declared value (the empty string for an empty enum,
// which the analyzer reports separately).
func InitialVariableState(vars []ir.Variable) ir.VariableState {
	state := make(ir.VariableState, len(vars))
	for _, v := range vars {
		if _, dup := state[v.Name]; dup {
			continue
		}
		if v.Initial != nil {
			if t, err := ir.TypeOf(v.Initial); err == nil && t == v.Type {
				state[v.Name] = v.Initial
				continue
			}
		}
		state[v.Name] = defaultValue(v)
	}
	return state
}

func defaultValue(v ir.Variable) ir.Value {
	switch v.Type {
	case ir.VarInt:
		if v.Min != nil {
			return ir.IntValue(*v.Min)
		}
		return ir.IntValue(0)
	case ir.VarBool:
		return ir.BoolValue(false)
	case ir.VarEnum:
		if len(v.Values) > 0 {
			return ir.EnumValue(v.Values[0])
		}
		return ir.EnumValue("")
	default:
		return ir.IntValue(0)
	}
}
