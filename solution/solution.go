// Package solution holds the rational solution container: primal, slack,
// dual, and reduced-cost vectors in rational.R, plus the optional
// unbounded/infeasibility certificates.
package solution

import "simplexcore/rational"

// Solution is the exact result of a refine.Driver run.
type Solution struct {
	Primal   []rational.R // length n
	Slacks   []rational.R // length m, = A x
	Dual     []rational.R // length m
	RedCost  []rational.R // length n

	IsPrimalFeasible bool
	IsDualFeasible   bool

	HasPrimalRay bool
	PrimalRay    []rational.R // length n, present iff HasPrimalRay

	HasDualFarkas bool
	DualFarkas    []rational.R // length m, present iff HasDualFarkas

	ObjValue rational.R
}

// New allocates a zeroed Solution sized for n columns, m rows.
func New(n, m int) *Solution {
	s := &Solution{
		Primal:  make([]rational.R, n),
		RedCost: make([]rational.R, n),
		Slacks:  make([]rational.R, m),
		Dual:    make([]rational.R, m),
	}
	return s
}
