package engine

import (
	"fmt"

	"github.com/roach88/efsmcheck/internal/ir"
)

// LargeDomain is the domain size above which a bounded int variable draws
// a performance warning.
const LargeDomain = 100

// BoundsReport tells whether every variable has a finite domain.
type BoundsReport struct {
	Bounded   bool     `json:"bounded"`
	Unbounded []string `json:"unbounded,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// AreVariablesBounded checks that every int variable declares both bounds.
// Bool and enum variables are always bounded. A domain of more than
// LargeDomain values is a warning, not a failure.
//
// An unbounded model is still explored, but exploration over it is not
// sound; callers surface the report rather than fixing the bounds.
func AreVariablesBounded(vars []ir.Variable) BoundsReport {
	report := BoundsReport{Bounded: true}
	for _, v := range vars {
		if v.Type != ir.VarInt {
			continue
		}
		if v.Min == nil || v.Max == nil {
			report.Bounded = false
			report.Unbounded = append(report.Unbounded, v.Name)
			continue
		}
		lo, hi := *v.Min, *v.Max
		// Two's complement subtraction gives the exact width for hi >= lo.
		if hi >= lo && uint64(hi)-uint64(lo) >= LargeDomain {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("Variable %s has a large domain [%d, %d]; exploration may be slow", v.Name, lo, hi))
		}
	}
	return report
}
