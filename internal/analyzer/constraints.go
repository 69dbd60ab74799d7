package analyzer

import (
	"math/big"

	"github.com/zclconf/go-cty/cty"

	"github.com/roach88/efsmcheck/internal/guard"
	"github.com/roach88/efsmcheck/internal/ir"
)

// satisfiability is the outcome of solving a set of atoms.
type satisfiability int

const (
	undecided satisfiability = iota
	satisfiable
	unsatisfiable
)

// domain accumulates the atoms constraining one variable.
type domain interface {
	// add narrows the domain; it returns false when the atom is outside
	// what the domain can reason about.
	add(a guard.Atom) bool
	satisfiable() bool
}

// intDomain is an integer interval with point equalities and exclusions.
type intDomain struct {
	lo, hi   *big.Int // inclusive, nil when unbounded
	eq       *big.Int
	neq      []*big.Int
	conflict bool
}

func newIntDomain(v ir.Variable, useBounds bool) *intDomain {
	d := &intDomain{}
	if useBounds {
		if v.Min != nil {
			d.lo = big.NewInt(*v.Min)
		}
		if v.Max != nil {
			d.hi = big.NewInt(*v.Max)
		}
	}
	return d
}

func (d *intDomain) add(a guard.Atom) bool {
	var c *big.Float
	switch {
	case a.Bare:
		// truthiness of an int: x means x != 0, !x means x == 0
		if a.Value.True() {
			d.neq = append(d.neq, big.NewInt(0))
		} else {
			d.setEq(big.NewInt(0))
		}
		return true
	case a.Value.Type() == cty.Number:
		c = a.Value.AsBigFloat()
	default:
		return false
	}
	if c.IsInf() {
		return false
	}

	switch a.Op {
	case guard.OpEq:
		if !c.IsInt() {
			d.conflict = true
			return true
		}
		n, _ := c.Int(nil)
		d.setEq(n)
	case guard.OpNe:
		if c.IsInt() {
			n, _ := c.Int(nil)
			d.neq = append(d.neq, n)
		}
	case guard.OpGt:
		d.raiseLo(new(big.Int).Add(floorInt(c), big.NewInt(1)))
	case guard.OpGe:
		d.raiseLo(ceilInt(c))
	case guard.OpLt:
		d.lowerHi(new(big.Int).Sub(ceilInt(c), big.NewInt(1)))
	case guard.OpLe:
		d.lowerHi(floorInt(c))
	default:
		return false
	}
	return true
}

func (d *intDomain) setEq(n *big.Int) {
	if d.eq != nil && d.eq.Cmp(n) != 0 {
		d.conflict = true
		return
	}
	d.eq = n
}

func (d *intDomain) raiseLo(n *big.Int) {
	if d.lo == nil || n.Cmp(d.lo) > 0 {
		d.lo = n
	}
}

func (d *intDomain) lowerHi(n *big.Int) {
	if d.hi == nil || n.Cmp(d.hi) < 0 {
		d.hi = n
	}
}

func (d *intDomain) excluded(n *big.Int) bool {
	for _, x := range d.neq {
		if x.Cmp(n) == 0 {
			return true
		}
	}
	return false
}

func (d *intDomain) satisfiable() bool {
	if d.conflict {
		return false
	}
	if d.lo != nil && d.hi != nil && d.lo.Cmp(d.hi) > 0 {
		return false
	}
	if d.eq != nil {
		if d.lo != nil && d.eq.Cmp(d.lo) < 0 {
			return false
		}
		if d.hi != nil && d.eq.Cmp(d.hi) > 0 {
			return false
		}
		return !d.excluded(d.eq)
	}
	if d.lo == nil || d.hi == nil {
		return true
	}
	// Finite interval: satisfiable unless every member is excluded.
	size := new(big.Int).Sub(d.hi, d.lo)
	size.Add(size, big.NewInt(1))
	seen := map[string]bool{}
	for _, x := range d.neq {
		if x.Cmp(d.lo) >= 0 && x.Cmp(d.hi) <= 0 {
			seen[x.String()] = true
		}
	}
	return big.NewInt(int64(len(seen))).Cmp(size) < 0
}

func floorInt(f *big.Float) *big.Int {
	n, acc := f.Int(nil)
	if acc == big.Above {
		n.Sub(n, big.NewInt(1))
	}
	return n
}

func ceilInt(f *big.Float) *big.Int {
	n, acc := f.Int(nil)
	if acc == big.Below {
		n.Add(n, big.NewInt(1))
	}
	return n
}

// enumDomain tracks equalities and exclusions over string values. With
// values set, only those values are possible.
type enumDomain struct {
	values   []string
	eq       *string
	neq      map[string]bool
	conflict bool
}

func newEnumDomain(v ir.Variable, useBounds bool) *enumDomain {
	d := &enumDomain{neq: map[string]bool{}}
	if useBounds {
		d.values = v.Values
	}
	return d
}

func (d *enumDomain) add(a guard.Atom) bool {
	if a.Bare || a.Value.Type() != cty.String {
		return false
	}
	s := a.Value.AsString()
	switch a.Op {
	case guard.OpEq:
		if d.eq != nil && *d.eq != s {
			d.conflict = true
		}
		d.eq = &s
	case guard.OpNe:
		d.neq[s] = true
	default:
		return false
	}
	return true
}

func (d *enumDomain) satisfiable() bool {
	if d.conflict {
		return false
	}
	if d.eq != nil {
		if d.neq[*d.eq] {
			return false
		}
		return d.values == nil || contains(d.values, *d.eq)
	}
	if d.values == nil {
		return true
	}
	for _, v := range d.values {
		if !d.neq[v] {
			return true
		}
	}
	return false
}

// boolDomain tracks the required truth value of a bool variable.
type boolDomain struct {
	eq       *bool
	conflict bool
}

func (d *boolDomain) add(a guard.Atom) bool {
	if a.Value.Type() != cty.Bool {
		return false
	}
	want := a.Value.True()
	switch a.Op {
	case guard.OpEq:
	case guard.OpNe:
		want = !want
	default:
		return false
	}
	if d.eq != nil && *d.eq != want {
		d.conflict = true
	}
	d.eq = &want
	return true
}

func (d *boolDomain) satisfiable() bool {
	return !d.conflict
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// solution is the outcome of solve.
type solution struct {
	result satisfiability
	// culprit is the first variable whose constraints admit no value.
	culprit string
	// exact is false when some atom could not be reasoned about.
	exact bool
}

// solve checks whether a conjunction of atoms can hold. Atoms over unknown
// variables or with unsupported operand types are dropped, which only
// weakens the conjunction: an unsatisfiable answer stays sound, while a
// satisfiable one is then undecided.
//
// With useBounds, int bounds and enum value sets of the declarations
// restrict the domains.
func solve(atoms []guard.Atom, lookup func(string) (ir.Variable, bool), useBounds bool) solution {
	domains := map[string]domain{}
	var order []string
	exact := true

	for _, a := range atoms {
		v, ok := lookup(a.Variable)
		if !ok {
			exact = false
			continue
		}
		d, seen := domains[a.Variable]
		if !seen {
			switch v.Type {
			case ir.VarInt:
				d = newIntDomain(v, useBounds)
			case ir.VarEnum:
				d = newEnumDomain(v, useBounds)
			case ir.VarBool:
				d = &boolDomain{}
			default:
				exact = false
				continue
			}
			domains[a.Variable] = d
			order = append(order, a.Variable)
		}
		if !d.add(a) {
			exact = false
		}
	}

	for _, name := range order {
		if !domains[name].satisfiable() {
			return solution{result: unsatisfiable, culprit: name, exact: exact}
		}
	}
	if exact {
		return solution{result: satisfiable, exact: true}
	}
	return solution{result: undecided}
}
