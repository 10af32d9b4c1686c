// Package simplex implements the revised simplex engine: a
// bounded-variable primal simplex over an LP whose m rows are modeled as m
// additional "row variables", one per constraint, so that every row and
// every structural column shares one status/bound machinery.
//
// Sign convention (an internal detail): row i's variable s_i is defined by
// the augmented equation A x + I s = 0, i.e. s_i = -(Ax)_i. With this
// choice the basis matrix is literally "original LP columns for basic
// columns, unit vector e_i for basic rows", without negating either side.
// External callers never see s_i directly; RowActivity/Dual flip the sign
// back.
//
// Anti-cycling is shift-based: when a run of degenerate pivots trips the
// cycling counter, finite bounds are enlarged (perturb) and the total
// enlargement accumulates in theShift. Optimality is claimed only after
// unShift has removed the enlargement and re-verification against the
// true bounds finds no violator. Setting Params.AcceptCycle disables
// shifting and surfaces AbortCycling instead.
package simplex

import (
	"math"

	"simplexcore/basis"
	"simplexcore/lp"
	"simplexcore/lu"
	"simplexcore/vector"
)

// Engine is one revised-simplex solve session over an *lp.LP.
type Engine struct {
	L       *lp.LP
	Params  lp.Params
	Adapter *basis.Adapter

	n, m int

	// basisVars[k] is the variable id occupying basis position k: ids in
	// [0,n) are structural columns, ids in [n,n+m) are row variables
	// (id-n gives the row index).
	basisVars []int
	basisPos  []int // basisPos[id] = position k, or -1 if nonbasic

	fVec []float64 // values of basic variables, fVec[k] <-> basisVars[k]

	Pricer      Pricer
	RatioTester RatioTester

	iterations int
	numCycle   int

	// Anti-cycling bound shifts: when the cycling counter trips, every
	// finite non-fixed bound is enlarged by a small deterministic amount
	// (shiftLo below lowers, shiftUp above uppers) so the ratio test finds
	// room for a nonzero step. The total enlargement is accumulated in
	// theShift; optimality is only claimed after unShift has removed every
	// shift and the loop has re-verified the true bounds.
	theShift      float64
	shiftLo       []float64 // per id, amount subtracted from the lower bound
	shiftUp       []float64 // per id, amount added to the upper bound
	perturbations int
	useBland      bool // permanent Bland fallback once the perturbation cap is hit

	elapsed func() float64 // injected monotonic clock
	cancel  func() bool    // injected cancellation flag

	valueLimit float64 // AbortValue threshold (maximization); >= lp.Infty disables
	timeLimit  float64 // seconds; <= 0 disables
	iterLimit  int     // pivots; <= 0 disables
}

var _ lp.Solver = (*Engine)(nil)

const (
	tol = 1e-9

	// ssvEps is the zero threshold of the semi-sparse solve results the
	// pivot loop works with; anything this small is below every decision
	// tolerance in the engine.
	ssvEps = 1e-12

	// shiftDelta is the base bound-enlargement unit of one perturbation.
	shiftDelta = 1e-7

	// maxPerturbations bounds how many perturbation rounds a single Solve
	// may attempt before falling back to Bland's rule permanently, which
	// guarantees finite termination.
	maxPerturbations = 3
)

// New builds an Engine over l, ready for Solve. pricer/rt default to the
// params-selected kind if nil.
func New(l *lp.LP, params lp.Params) *Engine {
	n, m := l.NumCols(), l.NumRows()
	mode := lu.ModeForrestTomlin
	e := &Engine{
		L:       l,
		Params:  params,
		Adapter: basis.New(mode, params.MinThresh, 1e-12, params.MaxUpdates, params.MinStabilty, 0),
		n:       n,
		m:       m,

		basisVars: make([]int, m),
		basisPos:  make([]int, n+m),

		shiftLo: make([]float64, n+m),
		shiftUp: make([]float64, n+m),

		elapsed: func() float64 { return 0 },
		cancel:  func() bool { return false },

		valueLimit: lp.Infty,
	}
	e.Pricer = NewPricer(params.Pricer)
	e.RatioTester = NewRatioTester(params.RatioTester)
	e.resetToSlackBasis()
	return e
}

// SetClock injects the monotonic clock and the caller-set cancellation
// flag the solve loop polls at every iteration boundary. Both default to
// never-cancel/zero-time if not set.
func (e *Engine) SetClock(elapsed func() float64, cancel func() bool) {
	e.elapsed, e.cancel = elapsed, cancel
}

// SetTermination sets the abort thresholds: an objective value past which
// the solve stops with AbortValue,
// a wall-clock limit in seconds (AbortTime), and a pivot limit (AbortIter).
// A value >= lp.Infty, time <= 0, or iter <= 0 disables the respective
// limit.
func (e *Engine) SetTermination(value, timeLimit float64, iterLimit int) {
	e.valueLimit, e.timeLimit, e.iterLimit = value, timeLimit, iterLimit
}

// Load replaces the engine's LP and drops every piece of cached state:
// basis, factorization, counters.
func (e *Engine) Load(l *lp.LP) error {
	n, m := l.NumCols(), l.NumRows()
	e.L = l
	e.n, e.m = n, m
	e.Adapter = basis.New(lu.ModeForrestTomlin, e.Params.MinThresh, 1e-12, e.Params.MaxUpdates, e.Params.MinStabilty, 0)
	e.basisVars = make([]int, m)
	e.basisPos = make([]int, n+m)
	e.shiftLo = make([]float64, n+m)
	e.shiftUp = make([]float64, n+m)
	e.fVec = nil
	e.iterations = 0
	e.theShift = 0
	e.perturbations = 0
	e.useBland = false
	e.numCycle = 0
	e.Pricer = NewPricer(e.Params.Pricer)
	e.RatioTester = NewRatioTester(e.Params.RatioTester)
	e.resetToSlackBasis()
	return nil
}

// Time reports elapsed solve time through the injected clock.
func (e *Engine) Time() float64 { return e.elapsed() }

// GetBasis copies the current basis descriptor out of the LP.
func (e *Engine) GetBasis() (rows, cols []lp.BasisStatus) {
	rows = append([]lp.BasisStatus(nil), e.L.RowBasis...)
	cols = append([]lp.BasisStatus(nil), e.L.ColBasis...)
	return rows, cols
}

// SetBasis installs a basis descriptor. The descriptor is validated only
// for length; a descriptor that does not identify a nonsingular basis
// surfaces as Singular at the next Solve's factorization.
func (e *Engine) SetBasis(rows, cols []lp.BasisStatus) {
	if len(rows) == e.m {
		copy(e.L.RowBasis, rows)
	}
	if len(cols) == e.n {
		copy(e.L.ColBasis, cols)
	}
}

func (e *Engine) resetToSlackBasis() {
	for i := 0; i < e.m; i++ {
		e.basisVars[i] = e.n + i
		e.L.RowBasis[i] = lp.Basic
	}
	for j := 0; j < e.n; j++ {
		e.basisPos[j] = -1
		e.L.ColBasis[j] = e.initialNonbasicStatus(j)
	}
	for i := 0; i < e.m; i++ {
		e.basisPos[e.n+i] = i
	}
}

func (e *Engine) initialNonbasicStatus(j int) lp.BasisStatus {
	switch e.L.ColRange[j] {
	case lp.Free:
		return lp.ZeroAt
	case lp.Fixed:
		return lp.FixedAt
	case lp.Upper:
		return lp.OnUpper
	default:
		return lp.OnLower
	}
}

// --- variable accessors over the combined [0,n+m) id space ---

func (e *Engine) denseColumn(id int) []float64 {
	if id < e.n {
		return e.L.ColsF[id].ToDense(e.m)
	}
	d := make([]float64, e.m)
	d[id-e.n] = 1
	return d
}

// ssvColumn scatters a variable's constraint column into a fresh setup SSV,
// the form the semi-sparse basis solves take.
func (e *Engine) ssvColumn(id int) *vector.SSV {
	b := vector.NewSSV(e.m, ssvEps)
	if id < e.n {
		col := e.L.ColsF[id]
		for k := 0; k < col.NNZ(); k++ {
			b.Set(col.Index(k), col.ValueAt(k))
		}
		return b
	}
	b.Set(id-e.n, 1)
	return b
}

// trueLower and trueUpper report the working bounds of a variable: the LP
// bound enlarged by any accumulated anti-cycling shift.
func (e *Engine) trueLower(id int) float64 {
	if id < e.n {
		if e.L.LowerF[id] <= -lp.Infty {
			return -lp.Infty
		}
		return e.L.LowerF[id] - e.shiftLo[id]
	}
	i := id - e.n
	if e.L.RhsF[i] >= lp.Infty {
		return -lp.Infty
	}
	return -e.L.RhsF[i] - e.shiftLo[id]
}

func (e *Engine) trueUpper(id int) float64 {
	if id < e.n {
		if e.L.UpperF[id] >= lp.Infty {
			return lp.Infty
		}
		return e.L.UpperF[id] + e.shiftUp[id]
	}
	i := id - e.n
	if e.L.LhsF[i] <= -lp.Infty {
		return lp.Infty
	}
	return -e.L.LhsF[i] + e.shiftUp[id]
}

func (e *Engine) objCoef(id int) float64 {
	if id < e.n {
		return e.L.ObjF[id]
	}
	return e.L.RowObjF[id-e.n]
}

func (e *Engine) status(id int) lp.BasisStatus {
	if id < e.n {
		return e.L.ColBasis[id]
	}
	return e.L.RowBasis[id-e.n]
}

func (e *Engine) setStatus(id int, s lp.BasisStatus) {
	if id < e.n {
		e.L.ColBasis[id] = s
	} else {
		e.L.RowBasis[id-e.n] = s
	}
}

// nonbasicValue returns the value a nonbasic variable is pinned to by its
// status.
func (e *Engine) nonbasicValue(id int) float64 {
	switch e.status(id) {
	case lp.OnUpper:
		return e.trueUpper(id)
	case lp.ZeroAt:
		return 0
	case lp.FixedAt:
		return e.trueLower(id)
	default: // OnLower
		return e.trueLower(id)
	}
}

// Primal returns structural column j's current value.
func (e *Engine) Primal(j int) float64 {
	if p := e.basisPos[j]; p >= 0 {
		return e.fVec[p]
	}
	return e.nonbasicValue(j)
}

// RowActivity returns (Ax)_i, undoing the internal s_i=-(Ax)_i convention.
func (e *Engine) RowActivity(i int) float64 {
	id := e.n + i
	if p := e.basisPos[id]; p >= 0 {
		return -e.fVec[p]
	}
	return -e.nonbasicValue(id)
}

// computeFVec solves B x_B = -N x_N from scratch, used at initialization and after every refactor.
func (e *Engine) computeFVec() {
	rhs := make([]float64, e.m)
	for id := 0; id < e.n+e.m; id++ {
		if e.basisPos[id] >= 0 {
			continue
		}
		v := e.nonbasicValue(id)
		if v == 0 {
			continue
		}
		col := e.denseColumn(id)
		for i, cv := range col {
			if cv != 0 {
				rhs[i] -= cv * v
			}
		}
	}
	e.fVec = e.Adapter.SolveRight(rhs)
}

func (e *Engine) basisColumns() []lu.Column {
	cols := make([]lu.Column, e.m)
	for k, id := range e.basisVars {
		dense := e.denseColumn(id)
		var c lu.Column
		for i, v := range dense {
			if v != 0 {
				c = append(c, lu.ColEntry{Row: i, Val: v})
			}
		}
		cols[k] = c
	}
	return cols
}

// Solve runs the bounded-variable primal simplex to completion (or to an
// abort/error condition). It always starts from the
// all-row-variables-basic slack basis and, when that start is primal
// infeasible, runs an infeasibility-minimizing pass (using the same pivot
// machinery, just a different pricing cost vector) before optimizing the
// true objective: one pivot loop, parameterized by which cost vector the
// pricer consults each iteration.
func (e *Engine) Solve() lp.Status {
	e.resetToSlackBasis()
	e.clearShifts()
	e.perturbations = 0
	e.useBland = false
	e.numCycle = 0
	if st := e.Adapter.Refactor(e.m, e.basisColumns()); st != lu.OK {
		return lp.Singular
	}
	e.computeFVec()

	maxIter := 200*(e.n+e.m) + 1000
	for {
		if e.cancel() {
			return lp.AbortTime
		}
		if e.timeLimit > 0 && e.elapsed() > e.timeLimit {
			return lp.AbortTime
		}
		if e.iterations > maxIter || (e.iterLimit > 0 && e.iterations > e.iterLimit) {
			return lp.AbortIter
		}
		if violating := e.mostInfeasible(); violating >= 0 {
			st, done := e.pivot(e.phase1Cost, true)
			if !done {
				return st
			}
			continue
		}
		if e.valueLimit < lp.Infty && e.Value() >= e.valueLimit {
			return lp.AbortValue
		}
		st, done := e.pivot(e.objCoef, false)
		if !done {
			return st
		}
		if st == lp.Optimal {
			if e.theShift > 0 {
				// optimal only against the enlarged bounds; remove the
				// shifts and re-verify before claiming anything
				e.unShift()
				continue
			}
			return lp.Optimal
		}
	}
}

// Shift reports the accumulated bound-shift amount. It is zero whenever
// Solve returns Optimal: unShift runs before optimality is accepted.
func (e *Engine) Shift() float64 { return e.theShift }

func (e *Engine) clearShifts() {
	for id := range e.shiftLo {
		e.shiftLo[id] = 0
		e.shiftUp[id] = 0
	}
	e.theShift = 0
}

// perturb enlarges every finite, non-fixed bound by a small deterministic,
// id-varied amount, accumulated into theShift. Degenerate ties that trap
// the ratio test at step length zero break because no two bounds move by
// the same amount. The basic values are recomputed against the enlarged
// bounds before the next ratio test.
func (e *Engine) perturb() {
	e.perturbations++
	for id := 0; id < e.n+e.m; id++ {
		lo, up := e.trueLower(id), e.trueUpper(id)
		if lo == up {
			continue // fixed variables keep their equality
		}
		d := shiftDelta * (1 + float64(id%31))
		if lo > -lp.Infty {
			amt := d * (1 + math.Abs(lo))
			e.shiftLo[id] += amt
			e.theShift += amt
		}
		if up < lp.Infty {
			amt := d * (1 + math.Abs(up))
			e.shiftUp[id] += amt
			e.theShift += amt
		}
	}
	e.computeFVec()
}

// unShift removes every accumulated shift and recomputes the basic values
// against the true bounds. The caller re-enters the pivot loop afterwards,
// where any residual infeasibility or violator the shifts were masking is
// resolved before optimality is claimed.
func (e *Engine) unShift() {
	e.clearShifts()
	e.computeFVec()
}

// phase1Cost is 0 for a feasible basic variable, +1 for one below its
// lower bound (increasing it helps), -1 for one above its upper bound
// (decreasing it helps): the composite infeasibility-minimizing objective
// of the feasibility bootstrap pass.
func (e *Engine) phase1Cost(id int) float64 {
	p := e.basisPos[id]
	if p < 0 {
		return 0
	}
	v := e.fVec[p]
	lo, up := e.trueLower(id), e.trueUpper(id)
	switch {
	case lo > -lp.Infty && v < lo-e.Params.FPFeasTol:
		return 1
	case up < lp.Infty && v > up+e.Params.FPFeasTol:
		return -1
	default:
		return 0
	}
}

func (e *Engine) mostInfeasible() int {
	best, bestViol := -1, e.Params.FPFeasTol
	for k, id := range e.basisVars {
		v := e.fVec[k]
		lo, up := e.trueLower(id), e.trueUpper(id)
		if lo > -lp.Infty && lo-v > bestViol {
			best, bestViol = id, lo-v
		}
		if up < lp.Infty && v-up > bestViol {
			best, bestViol = id, v-up
		}
	}
	return best
}

// pivot performs one simplex iteration using costFn to price.
// Returns (status,true) to keep iterating, (status,false) to stop
// the caller's Solve loop entirely.
func (e *Engine) pivot(costFn func(int) float64, phase1 bool) (lp.Status, bool) {
	e.iterations++

	cB := vector.NewSSV(e.m, ssvEps)
	for k, id := range e.basisVars {
		cB.Set(k, costFn(id))
	}
	y := e.Adapter.SolveLeftSSV(cB, ssvEps)

	var cands []Candidate
	for id := 0; id < e.n+e.m; id++ {
		if e.basisPos[id] >= 0 {
			continue
		}
		var yc float64
		if id < e.n {
			yc = y.DotSV(e.L.ColsF[id])
		} else {
			yc = y.Get(id - e.n)
		}
		d := costFn(id) - yc
		switch e.status(id) {
		case lp.OnLower:
			if d > tol {
				cands = append(cands, Candidate{id, 1, d})
			}
		case lp.OnUpper:
			if d < -tol {
				cands = append(cands, Candidate{id, -1, d})
			}
		case lp.ZeroAt:
			if d > tol {
				cands = append(cands, Candidate{id, 1, d})
			} else if d < -tol {
				cands = append(cands, Candidate{id, -1, d})
			}
		}
	}

	if len(cands) == 0 {
		if phase1 {
			return lp.Infeasible, false
		}
		return lp.Optimal, true
	}

	// an improving candidate exists, but the last pivots were degenerate:
	// this is where a cycle would form
	if e.numCycle >= e.Params.MaxCycle {
		if e.Params.AcceptCycle {
			// shifting disabled by the caller: surface the cycle instead
			// of perturbing bounds
			return lp.AbortCycling, false
		}
		if e.perturbations < maxPerturbations {
			e.perturb()
		} else {
			e.useBland = true
		}
		e.numCycle = 0
	}

	var entering int
	var dir float64
	if e.useBland || e.theShift > 0 {
		// anti-cycling selection while bounds are shifted (or after the
		// perturbation cap): smallest-id improving candidate guarantees
		// finite termination
		entering, dir, _ = blandSelect(cands)
	} else {
		entering, dir, _ = e.Pricer.Select(cands)
	}

	col := e.denseColumn(entering)
	delta := []float64(e.Adapter.SolveRightSSV(e.ssvColumn(entering), ssvEps).Dense())

	selfRange := math.Inf(1)
	if lo, up := e.trueLower(entering), e.trueUpper(entering); lo > -lp.Infty && up < lp.Infty {
		selfRange = up - lo
	}
	tStar, leavePos, hitUpper, isFlip := e.RatioTester.Test(e, delta, dir, selfRange)

	if math.IsInf(tStar, 1) {
		if phase1 {
			return lp.Error, false
		}
		return lp.Unbounded, false
	}

	if tStar <= tol {
		e.numCycle++
		if e.Params.AcceptCycle && e.numCycle >= e.Params.MaxCycle {
			// shifting disabled by the caller: the run of degenerate pivots
			// has reached MaxCycle, surface it instead of taking the step
			return lp.AbortCycling, false
		}
	} else {
		e.numCycle = 0
	}

	for k := range e.fVec {
		e.fVec[k] -= dir * tStar * delta[k]
	}
	enteringOld := e.nonbasicValue(entering)
	enteringNew := enteringOld + dir*tStar

	if isFlip {
		if dir > 0 {
			e.setStatus(entering, lp.OnUpper)
		} else {
			e.setStatus(entering, lp.OnLower)
		}
		return lp.Running, true
	}

	leavingID := e.basisVars[leavePos]
	if hitUpper {
		e.setStatus(leavingID, lp.OnUpper)
	} else {
		e.setStatus(leavingID, lp.OnLower)
	}
	if e.trueLower(leavingID) == e.trueUpper(leavingID) {
		e.setStatus(leavingID, lp.FixedAt)
	}
	e.basisPos[leavingID] = -1

	e.fVec[leavePos] = enteringNew
	e.basisVars[leavePos] = entering
	e.basisPos[entering] = leavePos
	e.setStatus(entering, lp.Basic)

	if e.Adapter.NeedsRefactor() {
		if st := e.Adapter.Refactor(e.m, e.basisColumns()); st != lu.OK {
			e.Adapter.RaiseThreshold()
			return lp.Singular, false
		}
		e.computeFVec()
	} else {
		if st := e.Adapter.Update(leavePos, col); st != lu.OK {
			if st := e.Adapter.Refactor(e.m, e.basisColumns()); st != lu.OK {
				return lp.Singular, false
			}
			e.computeFVec()
		}
	}
	return lp.Running, true
}

// RedCost returns the reduced cost of column j against the true objective,
// recomputed once at the caller's convenience (e.g. after Solve returns
// Optimal), not cached per-iteration.
func (e *Engine) RedCost(j int) float64 {
	cB := make([]float64, e.m)
	for k, id := range e.basisVars {
		cB[k] = e.objCoef(id)
	}
	y := e.Adapter.SolveLeft(cB)
	col := e.L.ColsF[j].ToDense(e.m)
	yc := 0.0
	for i, v := range col {
		yc += y[i] * v
	}
	return e.objCoef(j) - yc
}

// Dual returns the row dual vector y solving Bᵀy=c_B against the true
// objective.
func (e *Engine) Dual() []float64 {
	cB := make([]float64, e.m)
	for k, id := range e.basisVars {
		cB[k] = e.objCoef(id)
	}
	return e.Adapter.SolveLeft(cB)
}

// Value returns the current objective value Σ c_j x_j.
func (e *Engine) Value() float64 {
	v := 0.0
	for j := 0; j < e.n; j++ {
		v += e.L.ObjF[j] * e.Primal(j)
	}
	return v
}

// Iterations returns the pivot count since the last Solve call.
func (e *Engine) Iterations() int { return e.iterations }
