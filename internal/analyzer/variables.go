package analyzer

import (
	"fmt"

	"github.com/roach88/efsmcheck/internal/ir"
)

// checkVariables validates variable declarations.
func checkVariables(vars []ir.Variable) []ir.Diagnostic {
	var diags []ir.Diagnostic
	seen := map[string]bool{}

	for _, v := range vars {
		loc := ir.Location{Variable: v.Name}
		if seen[v.Name] {
			diags = append(diags, ir.Diagnostic{
				Kind: ir.KindAmbiguous, Severity: ir.SeverityError, Code: CodeDuplicateVariable,
				Location: loc, Message: fmt.Sprintf("Duplicate variable name: %s", v.Name),
				Suggestion: "Variable names must be unique",
			})
		}
		seen[v.Name] = true

		switch v.Type {
		case ir.VarInt:
			diags = append(diags, checkIntVariable(v, loc)...)
		case ir.VarBool:
			if v.Initial != nil {
				if _, ok := v.Initial.(ir.BoolValue); !ok {
					diags = append(diags, initialTypeMismatch(v, loc))
				}
			}
		case ir.VarEnum:
			diags = append(diags, checkEnumVariable(v, loc)...)
		default:
			diags = append(diags, ir.Diagnostic{
				Kind: ir.KindTypeMismatch, Severity: ir.SeverityError, Code: CodeUnknownVariableType,
				Location: loc, Message: fmt.Sprintf("Variable %s has unknown type %q", v.Name, v.Type),
				Suggestion: "Use int, bool, or enum",
			})
		}
	}
	return diags
}

func checkIntVariable(v ir.Variable, loc ir.Location) []ir.Diagnostic {
	var diags []ir.Diagnostic
	if v.Min == nil || v.Max == nil {
		diags = append(diags, ir.Diagnostic{
			Kind: ir.KindUnbounded, Severity: ir.SeverityError, Code: CodeUnboundedInt,
			Location: loc, Message: fmt.Sprintf("Integer variable %s must have min and max bounds", v.Name),
			Suggestion: "Set both min and max so exploration has a finite domain",
		})
	}
	if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
		diags = append(diags, ir.Diagnostic{
			Kind: ir.KindContradiction, Severity: ir.SeverityError, Code: CodeInvertedBounds,
			Location: loc, Message: fmt.Sprintf("Variable %s has min %d greater than max %d", v.Name, *v.Min, *v.Max),
			Suggestion: "Swap or correct the bounds",
		})
	}
	if v.Initial == nil {
		return diags
	}
	n, ok := v.Initial.(ir.IntValue)
	if !ok {
		return append(diags, initialTypeMismatch(v, loc))
	}
	switch {
	case v.Min != nil && int64(n) < *v.Min:
		diags = append(diags, ir.Diagnostic{
			Kind: ir.KindUnderflow, Severity: ir.SeverityWarning, Code: CodeInitialOutOfRange,
			Location: loc, Message: fmt.Sprintf("Initial value %d of %s is below min %d", n, v.Name, *v.Min),
		})
	case v.Max != nil && int64(n) > *v.Max:
		diags = append(diags, ir.Diagnostic{
			Kind: ir.KindOverflow, Severity: ir.SeverityWarning, Code: CodeInitialOutOfRange,
			Location: loc, Message: fmt.Sprintf("Initial value %d of %s is above max %d", n, v.Name, *v.Max),
		})
	}
	return diags
}

func checkEnumVariable(v ir.Variable, loc ir.Location) []ir.Diagnostic {
	var diags []ir.Diagnostic
	if len(v.Values) == 0 {
		diags = append(diags, ir.Diagnostic{
			Kind: ir.KindUnbounded, Severity: ir.SeverityError, Code: CodeEmptyEnum,
			Location: loc, Message: fmt.Sprintf("Enum variable %s must declare at least one value", v.Name),
			Suggestion: "List the enum's values",
		})
	}
	if v.Initial == nil {
		return diags
	}
	s, ok := v.Initial.(ir.EnumValue)
	if !ok {
		return append(diags, initialTypeMismatch(v, loc))
	}
	if len(v.Values) > 0 && !v.HasValue(string(s)) {
		diags = append(diags, ir.Diagnostic{
			Kind: ir.KindTypeMismatch, Severity: ir.SeverityWarning, Code: CodeInitialType,
			Location: loc, Message: fmt.Sprintf("Initial value %q of %s is not one of its values", string(s), v.Name),
		})
	}
	return diags
}

func initialTypeMismatch(v ir.Variable, loc ir.Location) ir.Diagnostic {
	return ir.Diagnostic{
		Kind: ir.KindTypeMismatch, Severity: ir.SeverityWarning, Code: CodeInitialType,
		Location: loc, Message: fmt.Sprintf("Initial value %s of %s does not match its type %s", v.Initial, v.Name, v.Type),
	}
}
