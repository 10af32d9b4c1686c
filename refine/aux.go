package refine

import (
	"github.com/pkg/errors"

	"simplexcore/lp"
	"simplexcore/rational"
	"simplexcore/solution"
)

// resolveUnbounded runs the unbounded auxiliary LP. The
// homogenized problem zeroes every finite side and bound, turns the
// objective into the constraint c·x − τ = 0, and maximizes τ ∈ (−∞, 1]. A
// boxed variable loses all slack to move and so is correctly frozen out of
// any ray direction. If τ reaches 1, primal/τ restricted to the original
// columns is a ray; if τ stays at zero with a feasible dual, the original
// is certified not unbounded and the infeasibility test decides the rest.
func (d *Driver) resolveUnbounded(sol *solution.Solution) lp.Status {
	d.unbdRefinements++
	n0, m0 := d.L.NumCols(), d.L.NumRows()
	snap := d.L.Snapshot()

	for i := 0; i < m0; i++ {
		rt := d.L.RowRange[i]
		d.L.SetRow(i, rational.Zero, rational.Zero, rt.FiniteLower(), rt.FiniteUpper())
	}
	var objRow []lp.ColCoeff
	for j := 0; j < n0; j++ {
		if !d.L.ObjQ[j].IsZero() {
			objRow = append(objRow, lp.ColCoeff{Col: j, Val: d.L.ObjQ[j]})
		}
	}
	tau := d.L.AddCol(nil, rational.Zero, rational.One, rational.One, false, true)
	objRow = append(objRow, lp.ColCoeff{Col: tau, Val: rational.FromInt64(-1)})
	d.L.AddRow(objRow, rational.Zero, rational.Zero, true, true)
	for j := 0; j < n0; j++ {
		d.L.SetObj(j, rational.Zero)
		rt := d.L.ColRange[j]
		d.L.SetBounds(j, rational.Zero, rational.Zero, rt.FiniteLower(), rt.FiniteUpper())
	}
	d.L.SyncFloat()

	st := newIterState(n0+1, m0+1)
	aux := solution.New(n0+1, m0+1)
	status := d.performOptIR(st, aux)
	tauVal := aux.Primal[tau]
	dualFeasible := aux.IsDualFeasible
	d.L.Restore(snap)

	if status != lp.Optimal && status != lp.Regular {
		return status
	}
	feastol := rational.FromFloat64(d.Params.FeasTol)
	if tauVal.Cmp(rational.One.Sub(feastol)) >= 0 {
		ray := make([]rational.R, n0)
		for j := range ray {
			ray[j] = aux.Primal[j].Quo(tauVal)
		}
		sol.HasPrimalRay = true
		sol.PrimalRay = ray
		return lp.Unbounded
	}
	if tauVal.Cmp(feastol) <= 0 && dualFeasible {
		// certified not unbounded; the first solve's verdict was a fp
		// artifact or the problem is infeasible
		d.Log.Logf("unbounded test rejected: tau=%v, deciding feasibility", tauVal)
		return d.resolveInfeasible(sol, false)
	}
	return lp.INForUNBD
}

// resolveInfeasible runs the feasibility auxiliary LP: zero
// the objective, shift every bounded variable so 0 lies inside its range
// (folding the shift into the row sides), homogenize the rows against a
// fresh column τ ∈ [0,1] carrying the negated sides, and maximize τ. τ = 1
// recovers a feasible point of the original by unshifting; τ < 1 makes the
// auxiliary duals a Farkas certificate.
//
// retryPrimal re-enters the main refinement loop when the feasibility test
// succeeds on a problem first reported infeasible; the tail call from the
// unbounded test passes false, where a feasible outcome leaves the overall
// verdict undecided.
func (d *Driver) resolveInfeasible(sol *solution.Solution, retryPrimal bool) lp.Status {
	d.feasRefinements++
	n0, m0 := d.L.NumCols(), d.L.NumRows()
	snap := d.L.Snapshot()

	shift := make([]rational.R, n0)
	for j := 0; j < n0; j++ {
		rt := d.L.ColRange[j]
		var s rational.R
		if rt.FiniteLower() {
			s = d.L.LowerQ[j]
		} else if rt.FiniteUpper() {
			s = d.L.UpperQ[j]
		}
		shift[j] = s
		d.L.SetObj(j, rational.Zero)
		if s.IsZero() {
			continue
		}
		for _, e := range d.L.ColsQ[j] {
			i := e.Row
			rrt := d.L.RowRange[i]
			delta := e.Val.Mul(s)
			lhs, rhs := d.L.LhsQ[i], d.L.RhsQ[i]
			if rrt.FiniteLower() {
				lhs = lhs.Sub(delta)
			}
			if rrt.FiniteUpper() {
				rhs = rhs.Sub(delta)
			}
			d.L.SetRow(i, lhs, rhs, rrt.FiniteLower(), rrt.FiniteUpper())
		}
		d.L.SetBounds(j, d.L.LowerQ[j].Sub(s), d.L.UpperQ[j].Sub(s),
			rt.FiniteLower(), rt.FiniteUpper())
	}

	// τ interpolates the shifted sides between 0 and their full value: the
	// coupling coefficient is one reachable point b of each row's side
	// interval, so τ=0 is trivially feasible and τ=1 is the original.
	bvals := make([]rational.R, m0)
	var coeffs lp.RatColumn
	for i := 0; i < m0; i++ {
		rt := d.L.RowRange[i]
		var b rational.R
		if rt.FiniteLower() {
			b = d.L.LhsQ[i]
		} else if rt.FiniteUpper() {
			b = d.L.RhsQ[i]
		}
		bvals[i] = b
		if !b.IsZero() {
			coeffs = append(coeffs, lp.RatEntry{Row: i, Val: b.Neg()})
		}
	}
	tau := d.L.AddCol(coeffs, rational.Zero, rational.One, rational.One, true, true)
	for i := 0; i < m0; i++ {
		rt := d.L.RowRange[i]
		lhs, rhs := rational.Zero, rational.Zero
		if rt.FiniteLower() {
			lhs = d.L.LhsQ[i].Sub(bvals[i])
		}
		if rt.FiniteUpper() {
			rhs = d.L.RhsQ[i].Sub(bvals[i])
		}
		d.L.SetRow(i, lhs, rhs, rt.FiniteLower(), rt.FiniteUpper())
	}
	d.L.SyncFloat()

	st := newIterState(n0+1, m0)
	aux := solution.New(n0+1, m0)
	status := d.performOptIR(st, aux)
	tauVal := aux.Primal[tau]
	farkas := append([]rational.R(nil), aux.Dual...)
	dualFeasible := aux.IsDualFeasible
	d.L.Restore(snap)

	if status != lp.Optimal && status != lp.Regular {
		return status
	}
	feastol := rational.FromFloat64(d.Params.FeasTol)
	if tauVal.Cmp(rational.One.Sub(feastol)) >= 0 {
		for j := 0; j < n0 && j < len(sol.Primal); j++ {
			sol.Primal[j] = aux.Primal[j].Add(shift[j])
		}
		sol.IsPrimalFeasible = true
		if retryPrimal && d.feasRefinements <= 2 {
			d.Log.Logf("feasibility test passed: tau=%v, re-optimizing", tauVal)
			st2 := newIterState(n0, m0)
			if s2 := d.performOptIR(st2, sol); s2 != lp.Infeasible && s2 != lp.Unbounded {
				return s2
			}
		}
		return lp.INForUNBD
	}

	sol.HasDualFarkas = true
	sol.DualFarkas = farkas
	if ok, err := d.verifyFarkas(farkas); err != nil {
		// a box that cannot be computed is a heuristic soft failure, not a
		// wrong answer
		d.Log.Logf("farkas box verification skipped: %v", err)
	} else if ok {
		d.Log.Logf("farkas certificate verified exactly")
	} else {
		d.Log.Logf("farkas certificate failed the exact box check")
	}
	if d.Params.TestDualInf && !dualFeasible {
		return lp.INForUNBD
	}
	return lp.Infeasible
}

// verifyFarkas checks the weighted ℓ₁ infeasibility-box argument exactly.
// With z = Aᵀy, every x inside the variable bounds has
// yᵀAx ≥ σ = Σ_j min(z_j·l_j, z_j·u_j); aggregating the rows in their
// valid directions gives yᵀAx ≤ β = Σ_{y_i>0} y_i·rhs_i + Σ_{y_i<0}
// y_i·lhs_i. σ > β certifies that no x satisfies rows and bounds at once.
// An error means the box could not be computed (a multiplier leans on an
// infinite side, or y·A is nonzero on a free direction).
func (d *Driver) verifyFarkas(y []rational.R) (bool, error) {
	beta := rational.Zero
	for i := 0; i < d.L.NumRows() && i < len(y); i++ {
		switch y[i].Sign() {
		case 1:
			if !d.L.RowRange[i].FiniteUpper() {
				return false, errors.Errorf("row %d: positive multiplier on infinite rhs", i)
			}
			beta = beta.Add(y[i].Mul(d.L.RhsQ[i]))
		case -1:
			if !d.L.RowRange[i].FiniteLower() {
				return false, errors.Errorf("row %d: negative multiplier on infinite lhs", i)
			}
			beta = beta.Add(y[i].Mul(d.L.LhsQ[i]))
		}
	}
	sigma := rational.Zero
	for j := 0; j < d.L.NumCols(); j++ {
		z := rational.Zero
		for _, e := range d.L.ColsQ[j] {
			if e.Row < len(y) {
				z = z.Add(e.Val.Mul(y[e.Row]))
			}
		}
		switch z.Sign() {
		case 1:
			if !d.L.ColRange[j].FiniteLower() {
				return false, errors.Errorf("column %d: y·A nonzero on a free direction", j)
			}
			sigma = sigma.Add(z.Mul(d.L.LowerQ[j]))
		case -1:
			if !d.L.ColRange[j].FiniteUpper() {
				return false, errors.Errorf("column %d: y·A nonzero on a free direction", j)
			}
			sigma = sigma.Add(z.Mul(d.L.UpperQ[j]))
		}
	}
	return sigma.Cmp(beta) > 0, nil
}
