package guard

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/efsmcheck/internal/ir"
)

var fieldOperators = map[string]string{
	ir.OpEquals:         OpEq,
	ir.OpNotEquals:      OpNe,
	ir.OpGreaterThan:    OpGt,
	ir.OpLessThan:       OpLt,
	ir.OpGreaterOrEqual: OpGe,
	ir.OpLessOrEqual:    OpLe,
}

// BuildGuardFromFieldConditions renders protocol field comparisons as one
// conjunctive guard, e.g. "msg_type == 3 && length > 0".
//
// Each field is referenced by its sanitized name. A condition naming a field
// option resolves to that option's numeric value; a missing value renders as
// 0. Conditions on unknown fields or with unknown operators are skipped.
// The output depends only on the inputs and their order.
func BuildGuardFromFieldConditions(conditions []ir.FieldCondition, fields []ir.Field) string {
	if len(conditions) == 0 {
		return ""
	}
	byID := make(map[string]ir.Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	parts := make([]string, 0, len(conditions))
	for _, cond := range conditions {
		field, ok := byID[cond.FieldID]
		if !ok {
			continue
		}
		op, ok := fieldOperators[cond.Operator]
		if !ok {
			continue
		}
		parts = append(parts, SanitizeIdentifier(field.Name)+" "+op+" "+strconv.FormatInt(conditionValue(cond, field), 10))
	}
	return strings.Join(parts, " && ")
}

func conditionValue(cond ir.FieldCondition, field ir.Field) int64 {
	if cond.Option != "" {
		for _, opt := range field.Options {
			if opt.Name == cond.Option {
				return opt.Value
			}
		}
	}
	if cond.Value != nil {
		return *cond.Value
	}
	return 0
}

// SanitizeIdentifier turns a display name into an expression identifier:
// every rune outside [A-Za-z0-9_] becomes '_', and a leading digit or one
// of the literal keywords true, false and null gets a '_' prefix. Names are
// NFC normalized first so visually identical names map to the same
// identifier. An empty name becomes "_".
func SanitizeIdentifier(name string) string {
	name = norm.NFC.String(name)
	var b strings.Builder
	for _, r := range name {
		if isIdentRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if isDigit(rune(out[0])) || expressionKeywords[out] {
		return "_" + out
	}
	return out
}

// expressionKeywords parse as literals, never as variable references.
var expressionKeywords = map[string]bool{"true": true, "false": true, "null": true}

// Text returns the textual expression a guard evaluates: the manual
// expression, the rendered field conditions, or "" for always-true.
func Text(g ir.Guard, fields []ir.Field) string {
	switch g.Kind {
	case ir.GuardManual:
		return strings.TrimSpace(g.Expression)
	case ir.GuardProtocol:
		return BuildGuardFromFieldConditions(g.Conditions, fields)
	default:
		return ""
	}
}
