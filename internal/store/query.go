package store

import (
	"fmt"
	"strings"
)

// Predicate is a condition on a runs table column.
//
// This is a sealed interface: only Equals and And implement it, so the
// compiler's type switch is exhaustive.
type Predicate interface {
	predicateNode()
}

// Equals matches rows whose Column holds Value.
type Equals struct {
	Column string
	Value  any
}

func (Equals) predicateNode() {}

// And matches rows that satisfy every predicate. An empty And matches
// everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// filterableColumns are the runs columns a predicate may name. Column
// names are interpolated into SQL, so nothing else is accepted.
var filterableColumns = map[string]bool{
	"id":         true,
	"model":      true,
	"model_hash": true,
	"passed":     true,
	"status":     true,
}

// compilePredicate renders p as a WHERE fragment. Values are always bound
// as parameters.
func compilePredicate(p Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil
	}
	switch pred := p.(type) {
	case Equals:
		return compileEquals(pred)
	case *Equals:
		return compileEquals(*pred)
	case And:
		return compileAnd(pred)
	case *And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq Equals) (string, []any, error) {
	if !filterableColumns[eq.Column] {
		return "", nil, fmt.Errorf("column %q cannot be filtered", eq.Column)
	}
	if eq.Value == nil {
		return "", nil, fmt.Errorf("column %s: nil value", eq.Column)
	}
	return eq.Column + " = ?", []any{eq.Value}, nil
}

func compileAnd(and And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}
	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, args, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, args...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// predicate builds the conjunction for the filter's set fields.
func (f Filter) predicate() Predicate {
	var and And
	if f.Model != "" {
		and.Predicates = append(and.Predicates, Equals{Column: "model", Value: f.Model})
	}
	if f.ModelHash != "" {
		and.Predicates = append(and.Predicates, Equals{Column: "model_hash", Value: f.ModelHash})
	}
	if f.Status != "" {
		and.Predicates = append(and.Predicates, Equals{Column: "status", Value: string(f.Status)})
	}
	if f.Passed != nil {
		and.Predicates = append(and.Predicates, Equals{Column: "passed", Value: *f.Passed})
	}
	return and
}
