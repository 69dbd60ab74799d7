package guard

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/roach88/efsmcheck/internal/ir"
)

// Diagnostic codes produced by this package.
const (
	CodeUndefinedVariable = "E201"
	CodeInvalidExpression = "E202"
	CodeUnknownFunction   = "E203"
	CodeInvalidStatement  = "E204"
	CodeTypeMismatch      = "W201"
	CodeDuplicateTarget   = "W202"
	CodeClamped           = "I201"
)

// Result is the tri-state outcome of evaluating a guard.
type Result int

const (
	False Result = iota
	True
	// Unknown means the guard references a variable that is undefined or has
	// no value in the supplied state, or could not be parsed. It is never
	// silently coerced to True or False.
	Unknown
)

func (r Result) String() string {
	switch r {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// GuardParse is the structured result of ParseGuard.
type GuardParse struct {
	Valid      bool            `json:"valid"`
	Errors     []ir.Diagnostic `json:"errors,omitempty"`
	Warnings   []ir.Diagnostic `json:"warnings,omitempty"`
	Referenced []string        `json:"referenced_variables,omitempty"`
}

// compiled is a cached parse of one expression source.
type compiled struct {
	expr     hclsyntax.Expression // nil when parsing failed
	refs     []string             // root variable names, first-appearance order
	parseErr string
}

// Evaluator parses and evaluates expressions over one variable set.
//
// An Evaluator caches parses and is NOT safe for concurrent use. Each
// analysis or exploration owns its own instance.
type Evaluator struct {
	vars    map[string]ir.Variable
	logger  *slog.Logger
	exprs   map[string]*compiled
	actions map[string]*ActionParse
	funcs   map[string]function.Function
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used for evaluation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// WithFields makes protocol fields referenceable as unbounded int
// variables under their sanitized names, so guards rendered from field
// conditions parse cleanly. A declared variable with the same name wins.
func WithFields(fields []ir.Field) Option {
	return func(e *Evaluator) {
		for _, f := range fields {
			name := SanitizeIdentifier(f.Name)
			if _, exists := e.vars[name]; !exists {
				e.vars[name] = ir.Variable{Name: name, Type: ir.VarInt}
			}
		}
	}
}

// New creates an Evaluator for the given variable definitions.
func New(vars []ir.Variable, opts ...Option) *Evaluator {
	e := &Evaluator{
		vars:    ir.VariableByName(vars),
		logger:  slog.Default(),
		exprs:   make(map[string]*compiled),
		actions: make(map[string]*ActionParse),
		funcs:   functions(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// functions is the closed set of callable functions. All are O(args).
func functions() map[string]function.Function {
	return map[string]function.Function{
		"min": stdlib.MinFunc,
		"max": stdlib.MaxFunc,
		"abs": stdlib.AbsoluteFunc,
	}
}

// Variable returns the definition of the named variable.
func (e *Evaluator) Variable(name string) (ir.Variable, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// parseExpression parses authored text as a single HCL expression.
func parseExpression(src string) (hclsyntax.Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(normalizeSource(src)), "expr", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s", diagMessage(diags))
	}
	return expr, nil
}

func (e *Evaluator) compile(src string) *compiled {
	if c, ok := e.exprs[src]; ok {
		return c
	}
	c := &compiled{}
	expr, err := parseExpression(src)
	if err != nil {
		c.parseErr = err.Error()
	} else {
		c.expr = expr
		c.refs = rootNames(expr)
	}
	e.exprs[src] = c
	return c
}

// rootNames returns the distinct root names of every variable traversal in
// expr, in order of first appearance.
func rootNames(expr hclsyntax.Expression) []string {
	var names []string
	seen := map[string]bool{}
	for _, trav := range expr.Variables() {
		name := trav.RootName()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func diagMessage(diags hcl.Diagnostics) string {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		if d.Detail != "" {
			return d.Summary + ": " + d.Detail
		}
		return d.Summary
	}
	return diags.Error()
}

// ParseGuard validates a guard expression. A blank expression is valid and
// denotes true.
func (e *Evaluator) ParseGuard(expr string) GuardParse {
	if strings.TrimSpace(expr) == "" {
		return GuardParse{Valid: true}
	}
	c := e.compile(expr)
	if c.expr == nil {
		return GuardParse{Errors: []ir.Diagnostic{invalidExpression(expr, c.parseErr)}}
	}

	res := GuardParse{Referenced: c.refs}
	res.Errors = append(res.Errors, e.undefinedVariables(expr, c.refs)...)
	res.Errors = append(res.Errors, e.unknownFunctions(expr, c.expr)...)
	res.Warnings = e.comparisonTypeWarnings(expr, c.expr)
	res.Valid = len(res.Errors) == 0
	return res
}

// EvaluateGuard evaluates expr against state.
//
// A blank expression is True. The result is Unknown exactly when the
// expression cannot be parsed or references a variable that is not defined
// or not present in state. A runtime type error over fully defined
// variables evaluates to False. Non-boolean results are coerced by
// truthiness.
func (e *Evaluator) EvaluateGuard(expr string, state ir.VariableState) Result {
	if strings.TrimSpace(expr) == "" {
		return True
	}
	c := e.compile(expr)
	if c.expr == nil {
		e.logger.Debug("guard does not parse", "guard", expr, "error", c.parseErr)
		return Unknown
	}
	for _, name := range c.refs {
		if _, ok := e.vars[name]; !ok {
			e.logger.Debug("guard references undefined variable", "guard", expr, "variable", name)
			return Unknown
		}
		if _, ok := state[name]; !ok {
			e.logger.Debug("guard variable missing from state", "guard", expr, "variable", name)
			return Unknown
		}
	}

	val, err := e.eval(c, state)
	if err != nil {
		e.logger.Debug("guard evaluation failed", "guard", expr, "error", err)
		return False
	}
	if truthy(val) {
		return True
	}
	return False
}

// eval evaluates a compiled expression. Panics inside cty are converted to
// errors so a malformed model can never take down the caller.
func (e *Evaluator) eval(c *compiled, state ir.VariableState) (val cty.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluation panicked: %v", r)
		}
	}()

	vars := make(map[string]cty.Value, len(c.refs))
	for _, name := range c.refs {
		v, ok := state[name]
		if !ok {
			return cty.NilVal, fmt.Errorf("variable %q has no value", name)
		}
		cv, convErr := toCty(v)
		if convErr != nil {
			return cty.NilVal, convErr
		}
		vars[name] = cv
	}

	out, diags := evalExpr(c.expr, &hcl.EvalContext{Variables: vars, Functions: e.funcs})
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("%s", diagMessage(diags))
	}
	if !out.IsWhollyKnown() {
		return cty.NilVal, fmt.Errorf("expression result is not known")
	}
	return out, nil
}

// evalExpr evaluates expr as hclsyntax does, except that the operands of
// &&, || and ! are coerced by truthiness. A bare int is a condition on its
// own, and it stays one under the logical operators.
func evalExpr(expr hclsyntax.Expression, ctx *hcl.EvalContext) (cty.Value, hcl.Diagnostics) {
	switch x := expr.(type) {
	case *hclsyntax.ParenthesesExpr:
		return evalExpr(x.Expression, ctx)
	case *hclsyntax.UnaryOpExpr:
		if x.Op == hclsyntax.OpLogicalNot {
			v, diags := evalCondition(x.Val, ctx)
			if diags.HasErrors() {
				return cty.NilVal, diags
			}
			return cty.BoolVal(!v), diags
		}
	case *hclsyntax.BinaryOpExpr:
		if x.Op == hclsyntax.OpLogicalAnd || x.Op == hclsyntax.OpLogicalOr {
			l, diags := evalCondition(x.LHS, ctx)
			r, rDiags := evalCondition(x.RHS, ctx)
			diags = append(diags, rDiags...)
			if diags.HasErrors() {
				return cty.NilVal, diags
			}
			if x.Op == hclsyntax.OpLogicalAnd {
				return cty.BoolVal(l && r), diags
			}
			return cty.BoolVal(l || r), diags
		}
	}
	return expr.Value(ctx)
}

func evalCondition(expr hclsyntax.Expression, ctx *hcl.EvalContext) (bool, hcl.Diagnostics) {
	v, diags := evalExpr(expr, ctx)
	if diags.HasErrors() {
		return false, diags
	}
	if !v.IsWhollyKnown() {
		return false, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "expression result is not known",
			Subject:  expr.Range().Ptr(),
		})
	}
	return truthy(v), diags
}

func (e *Evaluator) undefinedVariables(expr string, refs []string) []ir.Diagnostic {
	var diags []ir.Diagnostic
	for _, name := range refs {
		if _, ok := e.vars[name]; ok {
			continue
		}
		diags = append(diags, ir.Diagnostic{
			Kind:       ir.KindUndefinedVariable,
			Severity:   ir.SeverityError,
			Code:       CodeUndefinedVariable,
			Location:   ir.Location{Variable: name, Expression: expr},
			Message:    fmt.Sprintf("Undefined variable: %s", name),
			Suggestion: fmt.Sprintf("Define variable %q in the model's variables", name),
		})
	}
	return diags
}

func (e *Evaluator) unknownFunctions(src string, expr hclsyntax.Expression) []ir.Diagnostic {
	var diags []ir.Diagnostic
	hclsyntax.VisitAll(expr, func(n hclsyntax.Node) hcl.Diagnostics {
		call, ok := n.(*hclsyntax.FunctionCallExpr)
		if !ok {
			return nil
		}
		if _, known := e.funcs[call.Name]; !known {
			diags = append(diags, ir.Diagnostic{
				Kind:       ir.KindInvalidExpression,
				Severity:   ir.SeverityError,
				Code:       CodeUnknownFunction,
				Location:   ir.Location{Expression: src},
				Message:    fmt.Sprintf("Unknown function: %s", call.Name),
				Suggestion: "Only min, max, and abs are available",
			})
		}
		return nil
	})
	return diags
}

// comparisonTypeWarnings flags comparisons between a variable and a
// constant that can never be meaningful for the variable's type.
func (e *Evaluator) comparisonTypeWarnings(src string, expr hclsyntax.Expression) []ir.Diagnostic {
	var diags []ir.Diagnostic
	warn := func(name, msg string) {
		diags = append(diags, ir.Diagnostic{
			Kind:     ir.KindTypeMismatch,
			Severity: ir.SeverityWarning,
			Code:     CodeTypeMismatch,
			Location: ir.Location{Variable: name, Expression: src},
			Message:  msg,
		})
	}

	hclsyntax.VisitAll(expr, func(n hclsyntax.Node) hcl.Diagnostics {
		bin, ok := n.(*hclsyntax.BinaryOpExpr)
		if !ok {
			return nil
		}
		op, isCmp := comparisonOp(bin.Op)
		if !isCmp {
			return nil
		}
		name, lit, _, ok := variableVersusConstant(bin.LHS, bin.RHS, op)
		if !ok {
			return nil
		}
		v, defined := e.vars[name]
		if !defined {
			return nil
		}
		ordering := op != OpEq && op != OpNe

		switch v.Type {
		case ir.VarEnum:
			switch {
			case ordering:
				warn(name, fmt.Sprintf("Ordering comparison on enum variable %s", name))
			case lit.Type() != cty.String:
				warn(name, fmt.Sprintf("Enum variable %s compared with non-string value", name))
			case !v.HasValue(lit.AsString()):
				warn(name, fmt.Sprintf("%q is not a value of enum %s", lit.AsString(), name))
			}
		case ir.VarBool:
			if ordering {
				warn(name, fmt.Sprintf("Ordering comparison on bool variable %s", name))
			} else if lit.Type() != cty.Bool {
				warn(name, fmt.Sprintf("Bool variable %s compared with non-boolean value", name))
			}
		case ir.VarInt:
			if lit.Type() != cty.Number {
				warn(name, fmt.Sprintf("Int variable %s compared with non-numeric value", name))
			}
		}
		return nil
	})
	return diags
}

func invalidExpression(expr, msg string) ir.Diagnostic {
	return ir.Diagnostic{
		Kind:       ir.KindInvalidExpression,
		Severity:   ir.SeverityError,
		Code:       CodeInvalidExpression,
		Location:   ir.Location{Expression: expr},
		Message:    fmt.Sprintf("Invalid expression: %s", msg),
		Suggestion: "Use operators like ==, !=, <, >, &&, || and !, e.g. x > 0 && ready",
	}
}
