package guard

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Comparison operators of an Atom.
const (
	OpEq = "=="
	OpNe = "!="
	OpLt = "<"
	OpLe = "<="
	OpGt = ">"
	OpGe = ">="
)

// Atom is one conjunct of a guard of the form `name op constant`. A bare
// `name` is recorded as `name == true` and `!name` as `name == false`, with
// Bare set so callers can tell truthiness tests from explicit comparisons.
type Atom struct {
	Variable string
	Op       string
	Value    cty.Value
	Bare     bool
}

func (a Atom) String() string {
	return fmt.Sprintf("%s %s %s", a.Variable, a.Op, renderConst(a.Value))
}

// Conjuncts splits a guard into its top-level && conjuncts and returns the
// ones that are atoms. complete is false when any conjunct is something
// else (a disjunction, arithmetic, a function call), in which case atoms
// describe only part of the guard. ok is false when the text does not parse.
//
// Since the guard implies every one of its conjuncts, reasoning over a
// subset of atoms is sound for proving unsatisfiability.
func Conjuncts(src string) (atoms []Atom, complete bool, ok bool) {
	expr, err := parseExpression(src)
	if err != nil {
		return nil, false, false
	}
	complete = true
	var walk func(hclsyntax.Expression)
	walk = func(e hclsyntax.Expression) {
		e = unwrapParens(e)
		switch n := e.(type) {
		case *hclsyntax.BinaryOpExpr:
			if n.Op == hclsyntax.OpLogicalAnd {
				walk(n.LHS)
				walk(n.RHS)
				return
			}
			if op, isCmp := comparisonOp(n.Op); isCmp {
				if name, val, flippedOp, found := variableVersusConstant(n.LHS, n.RHS, op); found {
					atoms = append(atoms, Atom{Variable: name, Op: flippedOp, Value: val})
					return
				}
			}
		case *hclsyntax.ScopeTraversalExpr:
			if len(n.Traversal) == 1 {
				atoms = append(atoms, Atom{Variable: n.Traversal.RootName(), Op: OpEq, Value: cty.True, Bare: true})
				return
			}
		case *hclsyntax.UnaryOpExpr:
			if n.Op == hclsyntax.OpLogicalNot {
				if trav, isTrav := unwrapParens(n.Val).(*hclsyntax.ScopeTraversalExpr); isTrav && len(trav.Traversal) == 1 {
					atoms = append(atoms, Atom{Variable: trav.Traversal.RootName(), Op: OpEq, Value: cty.False, Bare: true})
					return
				}
			}
		case *hclsyntax.LiteralValueExpr:
			if n.Val.Type() == cty.Bool && n.Val.True() {
				return // "true" conjunct adds nothing
			}
		}
		complete = false
	}
	walk(expr)
	return atoms, complete, true
}

func unwrapParens(e hclsyntax.Expression) hclsyntax.Expression {
	for {
		p, ok := e.(*hclsyntax.ParenthesesExpr)
		if !ok {
			return e
		}
		e = p.Expression
	}
}

func comparisonOp(op *hclsyntax.Operation) (string, bool) {
	switch op {
	case hclsyntax.OpEqual:
		return OpEq, true
	case hclsyntax.OpNotEqual:
		return OpNe, true
	case hclsyntax.OpLessThan:
		return OpLt, true
	case hclsyntax.OpLessThanOrEqual:
		return OpLe, true
	case hclsyntax.OpGreaterThan:
		return OpGt, true
	case hclsyntax.OpGreaterThanOrEqual:
		return OpGe, true
	default:
		return "", false
	}
}

// flip mirrors an operator for swapped operands: 3 < x is x > 3.
func flip(op string) string {
	switch op {
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	case OpGt:
		return OpLt
	case OpGe:
		return OpLe
	default:
		return op
	}
}

// variableVersusConstant matches `name op constant` or `constant op name`
// and returns the comparison normalized so the variable is on the left.
func variableVersusConstant(lhs, rhs hclsyntax.Expression, op string) (string, cty.Value, string, bool) {
	if name, ok := singleVariable(lhs); ok {
		if val, isConst := constValue(rhs); isConst {
			return name, val, op, true
		}
	}
	if name, ok := singleVariable(rhs); ok {
		if val, isConst := constValue(lhs); isConst {
			return name, val, flip(op), true
		}
	}
	return "", cty.NilVal, "", false
}

func singleVariable(e hclsyntax.Expression) (string, bool) {
	trav, ok := unwrapParens(e).(*hclsyntax.ScopeTraversalExpr)
	if !ok || len(trav.Traversal) != 1 {
		return "", false
	}
	return trav.Traversal.RootName(), true
}

// constValue evaluates an expression that references no variables.
func constValue(e hclsyntax.Expression) (val cty.Value, ok bool) {
	if len(e.Variables()) > 0 {
		return cty.NilVal, false
	}
	defer func() {
		if recover() != nil {
			val, ok = cty.NilVal, false
		}
	}()
	v, diags := e.Value(&hcl.EvalContext{Functions: functions()})
	if diags.HasErrors() || !v.IsWhollyKnown() || v.IsNull() {
		return cty.NilVal, false
	}
	switch v.Type() {
	case cty.Number, cty.Bool, cty.String:
		return v, true
	default:
		return cty.NilVal, false
	}
}

func renderConst(v cty.Value) string {
	if v.Type() == cty.NilType || v.IsNull() {
		return "null"
	}
	switch v.Type() {
	case cty.Number:
		return v.AsBigFloat().Text('f', -1)
	case cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	case cty.String:
		return fmt.Sprintf("%q", v.AsString())
	default:
		return v.GoString()
	}
}
