package guard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/roach88/efsmcheck/internal/ir"
)

// assignmentPattern matches `name = rhs`. A right-hand side starting with
// another '=' is a comparison, not an assignment, and is rejected later.
var assignmentPattern = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=(.*)$`)

// Assignment is one `target = expression` statement of an action.
type Assignment struct {
	Target     string `json:"target"`
	Expression string `json:"expression"`
}

// ActionParse is the structured result of ParseAction.
type ActionParse struct {
	Valid       bool            `json:"valid"`
	Errors      []ir.Diagnostic `json:"errors,omitempty"`
	Warnings    []ir.Diagnostic `json:"warnings,omitempty"`
	Assignments []Assignment    `json:"assignments,omitempty"`
}

// ActionOutcome is the result of ExecuteAction: the successor state plus any
// conditions met while coercing results (clamping, rejected enum values,
// failed right-hand sides).
type ActionOutcome struct {
	State      ir.VariableState
	Conditions []ir.Diagnostic
}

// ParseAction splits text on ';' and validates each `name = expression`
// statement. A blank action is valid with no assignments.
func (e *Evaluator) ParseAction(text string) ActionParse {
	if cached, ok := e.actions[text]; ok {
		return *cached
	}
	res := e.parseAction(text)
	e.actions[text] = &res
	return res
}

func (e *Evaluator) parseAction(text string) ActionParse {
	res := ActionParse{}
	assigned := map[string]bool{}

	for _, stmt := range strings.Split(text, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		m := assignmentPattern.FindStringSubmatch(stmt)
		rhs := ""
		if m != nil {
			rhs = strings.TrimSpace(m[2])
		}
		if m == nil || rhs == "" || strings.HasPrefix(rhs, "=") {
			res.Errors = append(res.Errors, ir.Diagnostic{
				Kind:       ir.KindInvalidExpression,
				Severity:   ir.SeverityError,
				Code:       CodeInvalidStatement,
				Location:   ir.Location{Expression: stmt},
				Message:    fmt.Sprintf("Invalid assignment: %s", stmt),
				Suggestion: "Use the form variable = expression, separated by ';'",
			})
			continue
		}
		target := m[1]

		variable, defined := e.vars[target]
		if !defined {
			res.Errors = append(res.Errors, ir.Diagnostic{
				Kind:       ir.KindUndefinedVariable,
				Severity:   ir.SeverityError,
				Code:       CodeUndefinedVariable,
				Location:   ir.Location{Variable: target, Expression: stmt},
				Message:    fmt.Sprintf("Assignment to undefined variable: %s", target),
				Suggestion: fmt.Sprintf("Define variable %q in the model's variables", target),
			})
		}
		if assigned[target] {
			res.Warnings = append(res.Warnings, ir.Diagnostic{
				Kind:     ir.KindAmbiguous,
				Severity: ir.SeverityWarning,
				Code:     CodeDuplicateTarget,
				Location: ir.Location{Variable: target, Expression: text},
				Message:  fmt.Sprintf("Variable %s is assigned more than once; the last assignment wins", target),
			})
		}
		assigned[target] = true

		parsed := e.ParseGuard(rhs)
		res.Errors = append(res.Errors, parsed.Errors...)
		res.Warnings = append(res.Warnings, parsed.Warnings...)
		if parsed.Valid && defined {
			res.Warnings = append(res.Warnings, e.constantAssignmentWarnings(variable, rhs)...)
		}
		res.Assignments = append(res.Assignments, Assignment{Target: target, Expression: rhs})
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// constantAssignmentWarnings flags a constant right-hand side that can never
// be stored in the target, such as an enum literal outside the value set.
func (e *Evaluator) constantAssignmentWarnings(variable ir.Variable, rhs string) []ir.Diagnostic {
	c := e.compile(rhs)
	if c.expr == nil || len(c.refs) > 0 {
		return nil
	}
	val, ok := constValue(c.expr)
	if !ok {
		return nil
	}
	var msg string
	switch variable.Type {
	case ir.VarEnum:
		if _, err := coerceEnum(val, variable); err != nil {
			msg = err.Error()
		}
	case ir.VarInt:
		if _, _, err := coerceInt(val, variable); err != nil {
			msg = fmt.Sprintf("cannot assign %s to int variable %s", renderConst(val), variable.Name)
		}
	}
	if msg == "" {
		return nil
	}
	return []ir.Diagnostic{{
		Kind:     ir.KindTypeMismatch,
		Severity: ir.SeverityWarning,
		Code:     CodeTypeMismatch,
		Location: ir.Location{Variable: variable.Name, Expression: rhs},
		Message:  msg,
	}}
}

// ExecuteAction applies the action's assignments to current and returns the
// successor state.
//
// Every right-hand side is evaluated against current, not against the
// partially updated state: `a = b; b = a` swaps. Results are coerced to the
// target's type:
//   - int: floored, then clamped into [min, max] (recorded as a condition)
//   - bool: truthiness
//   - enum: must be a declared value, otherwise the variable keeps its value
//
// An action that fails to parse leaves the state unchanged. current is never
// mutated.
func (e *Evaluator) ExecuteAction(text string, current ir.VariableState) ActionOutcome {
	next := current.Clone()
	if strings.TrimSpace(text) == "" {
		return ActionOutcome{State: next}
	}
	parsed := e.ParseAction(text)
	if !parsed.Valid {
		e.logger.Debug("action does not parse; state unchanged", "action", text)
		return ActionOutcome{State: next, Conditions: parsed.Errors}
	}

	var conds []ir.Diagnostic
	for _, a := range parsed.Assignments {
		variable := e.vars[a.Target]
		c := e.compile(a.Expression)
		val, err := e.eval(c, current)
		if err != nil {
			conds = append(conds, ir.Diagnostic{
				Kind:     ir.KindInvalidExpression,
				Severity: ir.SeverityWarning,
				Code:     CodeInvalidExpression,
				Location: ir.Location{Variable: a.Target, Expression: a.Expression},
				Message:  fmt.Sprintf("Could not evaluate %s: %v; value unchanged", a.Expression, err),
			})
			continue
		}
		cond, ok := assign(next, variable, val, a.Expression)
		if cond != nil {
			conds = append(conds, *cond)
		}
		if !ok {
			e.logger.Debug("assignment rejected", "target", a.Target, "expression", a.Expression)
		}
	}
	return ActionOutcome{State: next, Conditions: conds}
}

// assign stores val into state under the variable's type rules. ok is false
// when the value was rejected and the variable left unchanged.
func assign(state ir.VariableState, variable ir.Variable, val cty.Value, expr string) (*ir.Diagnostic, bool) {
	loc := ir.Location{Variable: variable.Name, Expression: expr}
	switch variable.Type {
	case ir.VarInt:
		n, clamp, err := coerceInt(val, variable)
		if err != nil {
			return &ir.Diagnostic{
				Kind: ir.KindTypeMismatch, Severity: ir.SeverityWarning, Code: CodeTypeMismatch,
				Location: loc, Message: fmt.Sprintf("Result of %s is not a number; %s unchanged", expr, variable.Name),
			}, false
		}
		state[variable.Name] = ir.IntValue(n)
		switch clamp {
		case clampedHigh:
			return &ir.Diagnostic{
				Kind: ir.KindOverflow, Severity: ir.SeverityInfo, Code: CodeClamped,
				Location: loc, Message: fmt.Sprintf("%s exceeded its maximum; clamped to %d", variable.Name, n),
			}, true
		case clampedLow:
			return &ir.Diagnostic{
				Kind: ir.KindUnderflow, Severity: ir.SeverityInfo, Code: CodeClamped,
				Location: loc, Message: fmt.Sprintf("%s fell below its minimum; clamped to %d", variable.Name, n),
			}, true
		}
		return nil, true
	case ir.VarBool:
		state[variable.Name] = ir.BoolValue(truthy(val))
		return nil, true
	case ir.VarEnum:
		s, err := coerceEnum(val, variable)
		if err != nil {
			return &ir.Diagnostic{
				Kind: ir.KindTypeMismatch, Severity: ir.SeverityWarning, Code: CodeTypeMismatch,
				Location: loc, Message: fmt.Sprintf("%v; %s unchanged", err, variable.Name),
			}, false
		}
		state[variable.Name] = ir.EnumValue(s)
		return nil, true
	default:
		return &ir.Diagnostic{
			Kind: ir.KindTypeMismatch, Severity: ir.SeverityError, Code: CodeTypeMismatch,
			Location: loc, Message: fmt.Sprintf("variable %s has unknown type %q", variable.Name, variable.Type),
		}, false
	}
}
