package refine

import (
	"math/big"
	"time"

	"github.com/pkg/errors"

	"simplexcore/lp"
	"simplexcore/rational"
	"simplexcore/ratlu"
	"simplexcore/solution"
)

// applyScaledProblem writes the shifted, scaled problem into the floating
// LP: bounds and sides move to the current iterate and stretch
// by primalScale, the objective stretches by dualScale, and the corrective
// dual term is injected through the per-row objective. The rational data is
// never touched here.
func (d *Driver) applyScaledProblem(st *iterState) {
	P, D := st.primalScale, st.dualScale
	for j := 0; j < d.L.NumCols(); j++ {
		rt := d.L.ColRange[j]
		if rt.FiniteLower() {
			d.L.LowerF[j] = P.Mul(d.L.LowerQ[j].Sub(st.x[j])).Float64()
		} else {
			d.L.LowerF[j] = -lp.Infty
		}
		if rt.FiniteUpper() {
			d.L.UpperF[j] = P.Mul(d.L.UpperQ[j].Sub(st.x[j])).Float64()
		} else {
			d.L.UpperF[j] = lp.Infty
		}
		d.L.ObjF[j] = D.Mul(d.L.ObjQ[j]).Float64()
	}
	for i := 0; i < d.L.NumRows(); i++ {
		rt := d.L.RowRange[i]
		if rt.FiniteLower() {
			d.L.LhsF[i] = P.Mul(d.L.LhsQ[i].Sub(st.slack[i])).Float64()
		} else {
			d.L.LhsF[i] = -lp.Infty
		}
		if rt.FiniteUpper() {
			d.L.RhsF[i] = P.Mul(d.L.RhsQ[i].Sub(st.slack[i])).Float64()
		} else {
			d.L.RhsF[i] = lp.Infty
		}
		// The engine's internal row variable is s_i = -(Ax)_i, so the
		// corrective term dualScale*y_i on (Ax)_i enters with positive sign.
		d.L.RowObjF[i] = D.Mul(st.y[i]).Float64()
	}
}

// restoreFloat resynchronizes the floating LP with the rational data and
// clears the transient row objective, undoing applyScaledProblem.
func (d *Driver) restoreFloat() {
	d.L.SyncFloat()
	for i := range d.L.RowObjF {
		d.L.RowObjF[i] = 0
	}
}

// liftBack folds the fp solution of the scaled problem into the exact
// iterate: basic primal components move by x̂/primalScale, nonbasic ones
// snap exactly to their bounds, and the dual is read off whole: the
// engine's dual already carries the injected row objective, so dividing by
// dualScale yields the corrected dual directly, not a diff. Slacks and
// reduced costs are then recomputed exactly.
func (d *Driver) liftBack(st *iterState) {
	pInv := st.primalScale.Invert()
	dInv := st.dualScale.Invert()
	for j := 0; j < d.L.NumCols(); j++ {
		switch d.L.ColBasis[j] {
		case lp.OnLower, lp.FixedAt:
			st.x[j] = d.L.LowerQ[j]
		case lp.OnUpper:
			st.x[j] = d.L.UpperQ[j]
		case lp.ZeroAt:
			// free nonbasic sits at the expansion point; no movement
		default:
			st.x[j] = st.x[j].Add(rational.FromFloat64(d.eng.Primal(j)).Mul(pInv))
		}
	}
	dual := d.eng.Dual()
	for i := 0; i < d.L.NumRows(); i++ {
		st.y[i] = rational.FromFloat64(dual[i]).Mul(dInv)
	}
	d.computeSlackRed(st)
}

// computeSlackRed recomputes slack = Ax and red = c - Aᵀy exactly from the
// current iterate.
func (d *Driver) computeSlackRed(st *iterState) {
	for i := range st.slack {
		st.slack[i] = rational.Zero
	}
	for j, col := range d.L.ColsQ {
		if st.x[j].IsZero() {
			continue
		}
		for _, e := range col {
			st.slack[e.Row] = st.slack[e.Row].Add(e.Val.Mul(st.x[j]))
		}
	}
	for j, col := range d.L.ColsQ {
		r := d.L.ObjQ[j]
		for _, e := range col {
			r = r.Sub(e.Val.Mul(st.y[e.Row]))
		}
		st.red[j] = r
	}
}

// computeViolations measures the four violation classes (bounds, sides,
// reduced cost, dual) exactly.
// Sign conventions follow the internal maximization: a column nonbasic at
// its lower bound needs a nonpositive reduced cost, a row active at its rhs
// needs a nonnegative dual. The engine's row statuses encode activity
// through its s_i = -(Ax)_i convention: OnLower means the row is tight at
// its rhs, OnUpper at its lhs.
func (d *Driver) computeViolations(st *iterState) {
	bv := rational.Zero
	for j := 0; j < d.L.NumCols(); j++ {
		rt := d.L.ColRange[j]
		if rt.FiniteLower() {
			bv = rational.Max(bv, d.L.LowerQ[j].Sub(st.x[j]))
		}
		if rt.FiniteUpper() {
			bv = rational.Max(bv, st.x[j].Sub(d.L.UpperQ[j]))
		}
	}
	st.boundsViol = bv

	sv := rational.Zero
	for i := 0; i < d.L.NumRows(); i++ {
		rt := d.L.RowRange[i]
		if rt.FiniteLower() {
			sv = rational.Max(sv, d.L.LhsQ[i].Sub(st.slack[i]))
		}
		if rt.FiniteUpper() {
			sv = rational.Max(sv, st.slack[i].Sub(d.L.RhsQ[i]))
		}
		// complementary-slackness extension: a nonzero dual claims the row
		// is tight at one side; the distance from that side counts too
		if st.y[i].Sign() > 0 && rt.FiniteUpper() {
			sv = rational.Max(sv, d.L.RhsQ[i].Sub(st.slack[i]))
		}
		if st.y[i].Sign() < 0 && rt.FiniteLower() {
			sv = rational.Max(sv, st.slack[i].Sub(d.L.LhsQ[i]))
		}
	}
	st.sidesViol = sv

	rv := rational.Zero
	for j := 0; j < d.L.NumCols(); j++ {
		switch d.L.ColBasis[j] {
		case lp.OnLower:
			rv = rational.Max(rv, st.red[j])
		case lp.OnUpper:
			rv = rational.Max(rv, st.red[j].Neg())
		case lp.ZeroAt, lp.Basic:
			rv = rational.Max(rv, st.red[j].Abs())
		}
	}
	st.redViol = rv

	dv := rational.Zero
	for i := 0; i < d.L.NumRows(); i++ {
		switch d.L.RowBasis[i] {
		case lp.Basic, lp.ZeroAt:
			dv = rational.Max(dv, st.y[i].Abs())
		case lp.OnLower:
			dv = rational.Max(dv, st.y[i].Neg())
		case lp.OnUpper:
			dv = rational.Max(dv, st.y[i])
		}
	}
	st.dualViol = dv
}

// updateScales derives the next round's scaling factors: each
// scale is the reciprocal of its violation group, capped to grow by at most
// maxScaleIncr per round and never to shrink, with dualScale additionally
// held within [1, primalScale]. Under POWERSCALING both round down to a
// power of two so the fp scaling stays exact.
func (d *Driver) updateScales(st *iterState) {
	incr := rational.FromFloat64(maxScaleIncr)

	pv := rational.Max(rational.Max(st.boundsViol, st.sidesViol), st.redViol)
	newP := st.primalScale.Mul(incr)
	if pv.Sign() > 0 {
		newP = rational.Min(pv.Invert(), newP)
	}
	newP = rational.Max(newP, st.primalScale)

	dvv := rational.Max(st.redViol, st.dualViol)
	newD := st.dualScale.Mul(incr)
	if dvv.Sign() > 0 {
		newD = rational.Min(dvv.Invert(), newD)
	}
	newD = rational.Max(newD, rational.One)
	newD = rational.Min(newD, newP)

	if d.Params.PowerScaling {
		newP = newP.PowRound()
		newD = newD.PowRound()
	}
	st.primalScale, st.dualScale = newP, newD
}

// fillSolution copies the iterate into the solution container and derives
// the feasibility flags and objective value.
func (d *Driver) fillSolution(st *iterState, sol *solution.Solution, feastol, opttol rational.R) {
	copy(sol.Primal, st.x)
	copy(sol.Slacks, st.slack)
	copy(sol.Dual, st.y)
	copy(sol.RedCost, st.red)
	obj := rational.Zero
	for j := range st.x {
		obj = obj.Add(d.L.ObjQ[j].Mul(st.x[j]))
	}
	sol.ObjValue = obj
	sol.IsPrimalFeasible = st.boundsViol.Cmp(feastol) <= 0 && st.sidesViol.Cmp(feastol) <= 0
	sol.IsDualFeasible = st.redViol.Cmp(opttol) <= 0 && st.dualViol.Cmp(opttol) <= 0
}

// tryReconstruct is the rational reconstruction step: round every primal
// and dual component to a nearby rational with denominator bounded by
// denomBoundSquared, recompute slacks and reduced costs exactly from the
// rounded vectors, and accept only if the exact optimality conditions hold.
// Failure is soft; the caller reschedules.
func (d *Driver) tryReconstruct(st *iterState, sol *solution.Solution) bool {
	bound := new(big.Int).SetInt64(d.Params.DenomBoundSquared)
	n, m := d.L.NumCols(), d.L.NumRows()

	cand := newIterState(n, m)
	for j := 0; j < n; j++ {
		v, ok := rational.Reconstruct(st.x[j], bound)
		if !ok {
			d.Log.Logf("reconstruction: %v", errors.Errorf("primal component %d exceeded the denominator bound", j))
			return false
		}
		cand.x[j] = v
	}
	for i := 0; i < m; i++ {
		v, ok := rational.Reconstruct(st.y[i], bound)
		if !ok {
			d.Log.Logf("reconstruction: %v", errors.Errorf("dual component %d exceeded the denominator bound", i))
			return false
		}
		cand.y[i] = v
	}
	d.computeSlackRed(cand)
	if !d.exactOptimal(cand) {
		return false
	}
	d.acceptExact(cand, sol)
	d.Log.Logf("reconstruction succeeded after %d refinements", d.refinements)
	return true
}

// exactOptimal checks primal feasibility, dual sign conditions and
// complementary slackness exactly,
// without reference to basis statuses: a positive reduced cost forces the
// column to its upper bound, a negative one to its lower; a positive dual
// forces the row to its rhs, a negative one to its lhs.
func (d *Driver) exactOptimal(st *iterState) bool {
	for j := 0; j < d.L.NumCols(); j++ {
		rt := d.L.ColRange[j]
		if rt.FiniteLower() && st.x[j].Cmp(d.L.LowerQ[j]) < 0 {
			return false
		}
		if rt.FiniteUpper() && st.x[j].Cmp(d.L.UpperQ[j]) > 0 {
			return false
		}
		switch st.red[j].Sign() {
		case 1:
			if !(rt.FiniteUpper() && st.x[j].Cmp(d.L.UpperQ[j]) == 0) {
				return false
			}
		case -1:
			if !(rt.FiniteLower() && st.x[j].Cmp(d.L.LowerQ[j]) == 0) {
				return false
			}
		}
	}
	for i := 0; i < d.L.NumRows(); i++ {
		rt := d.L.RowRange[i]
		if rt.FiniteLower() && st.slack[i].Cmp(d.L.LhsQ[i]) < 0 {
			return false
		}
		if rt.FiniteUpper() && st.slack[i].Cmp(d.L.RhsQ[i]) > 0 {
			return false
		}
		switch st.y[i].Sign() {
		case 1:
			if !(rt.FiniteUpper() && st.slack[i].Cmp(d.L.RhsQ[i]) == 0) {
				return false
			}
		case -1:
			if !(rt.FiniteLower() && st.slack[i].Cmp(d.L.LhsQ[i]) == 0) {
				return false
			}
		}
	}
	return true
}

// acceptExact installs a verified exact iterate into the solution.
func (d *Driver) acceptExact(st *iterState, sol *solution.Solution) {
	st.boundsViol, st.sidesViol = rational.Zero, rational.Zero
	st.redViol, st.dualViol = rational.Zero, rational.Zero
	d.fillSolution(st, sol, rational.Zero, rational.Zero)
	sol.IsPrimalFeasible, sol.IsDualFeasible = true, true
}

// tryRatFac is the RATFAC shortcut: factor the current
// basis exactly in rationals, solve for the basic primal and the dual, and
// accept if the resulting basic solution passes the exact optimality
// conditions. A factorization timeout or singularity is soft; refinement
// continues without the shortcut.
func (d *Driver) tryRatFac(st *iterState, sol *solution.Solution) bool {
	if d.eng == nil {
		return false
	}
	n, m := d.L.NumCols(), d.L.NumRows()

	var ids []int
	for j := 0; j < n; j++ {
		if d.L.ColBasis[j] == lp.Basic {
			ids = append(ids, j)
		}
	}
	for i := 0; i < m; i++ {
		if d.L.RowBasis[i] == lp.Basic {
			ids = append(ids, n+i)
		}
	}
	if len(ids) != m {
		return false
	}

	cols := make([]ratlu.Column, m)
	for k, id := range ids {
		if id < n {
			col := make(ratlu.Column, 0, len(d.L.ColsQ[id]))
			for _, e := range d.L.ColsQ[id] {
				col = append(col, ratlu.ColEntry{Row: e.Row, Val: e.Val})
			}
			cols[k] = col
		} else {
			cols[k] = ratlu.Column{{Row: id - n, Val: rational.One}}
		}
	}

	deadline := time.Now().Add(time.Hour)
	if d.timeLimit > 0 {
		deadline = d.start.Add(time.Duration(d.timeLimit * float64(time.Second)))
	}
	ok, rst := d.eng.Adapter.RationalFactorize(m, cols, deadline)
	if !ok {
		d.Log.Logf("rational factorization: %v", errors.New("time budget exhausted, continuing without exact basis"))
		return false
	}
	if rst != ratlu.OK {
		d.Log.Logf("rational factorization: %v", errors.Errorf("basis reported %v", rst))
		return false
	}
	fact := d.eng.Adapter.Rational()

	// Nonbasic values: columns sit at the bound their status names; a
	// nonbasic row is tight at one side (OnLower at rhs, OnUpper at lhs in
	// the engine's convention); a free nonbasic row keeps its activity.
	nbCol := func(j int) rational.R {
		switch d.L.ColBasis[j] {
		case lp.OnUpper:
			return d.L.UpperQ[j]
		case lp.ZeroAt:
			return st.x[j]
		default:
			return d.L.LowerQ[j]
		}
	}

	rhs := make([]rational.R, m)
	for i := 0; i < m; i++ {
		switch d.L.RowBasis[i] {
		case lp.Basic:
		case lp.OnLower:
			rhs[i] = d.L.RhsQ[i]
		case lp.OnUpper:
			rhs[i] = d.L.LhsQ[i]
		case lp.FixedAt:
			rhs[i] = d.L.RhsQ[i]
		default:
			rhs[i] = st.slack[i]
		}
	}
	for j := 0; j < n; j++ {
		if d.L.ColBasis[j] == lp.Basic {
			continue
		}
		v := nbCol(j)
		if v.IsZero() {
			continue
		}
		for _, e := range d.L.ColsQ[j] {
			rhs[e.Row] = rhs[e.Row].Sub(e.Val.Mul(v))
		}
	}

	w := fact.SolveRight(rhs)
	cB := make([]rational.R, m)
	for k, id := range ids {
		if id < n {
			cB[k] = d.L.ObjQ[id]
		}
	}
	y := fact.SolveLeft(cB)

	cand := newIterState(n, m)
	for j := 0; j < n; j++ {
		if d.L.ColBasis[j] != lp.Basic {
			cand.x[j] = nbCol(j)
		}
	}
	for k, id := range ids {
		if id < n {
			cand.x[id] = w[k]
		}
	}
	copy(cand.y, y)
	d.computeSlackRed(cand)
	if !d.exactOptimal(cand) {
		return false
	}
	d.acceptExact(cand, sol)
	d.Log.Logf("exact basis factorization confirmed optimality after %d refinements", d.refinements)
	return true
}
