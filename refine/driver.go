// Package refine implements the iterative-refinement driver: the outer
// loop that owns the coupled rational/floating LP, repeatedly solves a
// floating-point LP with shifted and scaled bounds, sides and objective,
// lifts the result back into rationals, and terminates with an exact
// optimum, a primal ray, or a Farkas certificate.
//
// The fp solves go through simplex.Engine; the exact basis shortcut goes
// through ratlu via basis.Adapter.
package refine

import (
	"fmt"
	"io"
	"time"

	"simplexcore/lp"
	"simplexcore/rational"
	"simplexcore/simplex"
	"simplexcore/solution"
)

// Logger is the injectable diagnostics seam. The default is a no-op; tests
// and callers that want a printf trace wire a PrintfLogger.
type Logger interface {
	Logf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Logf(string, ...any) {}

// PrintfLogger writes each log line to W.
type PrintfLogger struct {
	W io.Writer
}

func (l PrintfLogger) Logf(format string, args ...any) {
	fmt.Fprintf(l.W, format+"\n", args...)
}

const (
	// maxScaleIncr caps the per-round growth of the primal and dual scales.
	maxScaleIncr = 1e12
	// maxRefineRounds bounds a single performOptIR call; the stall counter
	// normally terminates far earlier.
	maxRefineRounds = 64
	// maxStalls is how many consecutive no-progress rounds are tolerated
	// before giving up with the best available iterate.
	maxStalls = 2
)

// Driver runs the refinement loop over one *lp.LP.
type Driver struct {
	L      *lp.LP
	Params lp.Params
	Log    Logger

	eng *simplex.Engine

	timeLimit float64
	iterLimit int
	cancel    func() bool
	start     time.Time

	refinements      int
	stallRefinements int
	pivotRefinements int
	feasRefinements  int
	unbdRefinements  int
	nextRatRec       int

	totalIters int

	eqActive *eqState
}

// New builds a Driver over l. The column representation and the fast ratio
// tester are forced regardless of the caller's settings.
func New(l *lp.LP) *Driver {
	p := l.Params
	p.Representation = lp.Column
	p.RatioTester = lp.Fast
	return &Driver{
		L:      l,
		Params: p,
		Log:    nopLogger{},
		cancel: func() bool { return false },
	}
}

// SetTermination sets the wall-clock limit in seconds and the per-solve
// pivot limit; zero disables either.
func (d *Driver) SetTermination(timeLimit float64, iterLimit int) {
	d.timeLimit, d.iterLimit = timeLimit, iterLimit
}

// SetCancel injects a caller-set cancellation flag, polled at every
// refinement iteration and simplex iteration boundary.
func (d *Driver) SetCancel(f func() bool) { d.cancel = f }

func (d *Driver) Iterations() int  { return d.totalIters }
func (d *Driver) Refinements() int { return d.refinements }
func (d *Driver) Time() float64    { return time.Since(d.start).Seconds() }

func (d *Driver) elapsed() float64 { return time.Since(d.start).Seconds() }

func (d *Driver) tripped() bool {
	if d.cancel() {
		return true
	}
	return d.timeLimit > 0 && d.elapsed() > d.timeLimit
}

// iterState is the exact iterate of one performOptIR run: the current
// rational primal/dual, derived slacks and reduced costs, the scaling
// factors, the four violations, and the progress tracker.
type iterState struct {
	x, y       []rational.R
	slack, red []rational.R

	primalScale, dualScale rational.R

	boundsViol, sidesViol, redViol, dualViol rational.R

	bestViol rational.R
	haveBest bool
	failed   int
}

func newIterState(n, m int) *iterState {
	return &iterState{
		x:           make([]rational.R, n),
		y:           make([]rational.R, m),
		slack:       make([]rational.R, m),
		red:         make([]rational.R, n),
		primalScale: rational.One,
		dualScale:   rational.One,
	}
}

// Solve runs the full driver: transforms, the refinement loop, the
// unbounded/feasibility auxiliaries, and the transform undos, restoring
// the LP to its loaded state on every exit path.
func (d *Driver) Solve() (*solution.Solution, lp.Status) {
	d.start = time.Now()
	if d.L.NumCols() == 0 && d.L.NumRows() == 0 {
		return solution.New(0, 0), lp.NoProblem
	}
	snap := d.L.Snapshot()

	// Internally always maximize; minimize enters negated and
	// the reported objective, duals and reduced costs are negated on exit.
	if d.L.Sense == lp.Minimize {
		for j := 0; j < d.L.NumCols(); j++ {
			d.L.SetObj(j, d.L.ObjQ[j].Neg())
		}
	}

	var lift *liftState
	if d.Params.Lifting {
		lift = d.applyLifting()
	}
	var eq *eqState
	if d.Params.EqTrans {
		eq = d.applyEqTrans()
		d.eqActive = eq
	}
	d.L.SyncFloat()

	st := newIterState(d.L.NumCols(), d.L.NumRows())
	sol := solution.New(d.L.NumCols(), d.L.NumRows())
	status := d.performOptIR(st, sol)

	switch status {
	case lp.Unbounded:
		status = d.resolveUnbounded(sol)
	case lp.Infeasible:
		status = d.resolveInfeasible(sol, true)
	}

	// Undo transforms in reverse order of application.
	if eq != nil {
		d.undoEqTrans(eq, sol)
		d.eqActive = nil
	}
	if lift != nil {
		status = d.undoLifting(lift, sol, status)
	}

	if d.L.Sense == lp.Minimize {
		sol.ObjValue = sol.ObjValue.Neg()
		for i := range sol.Dual {
			sol.Dual[i] = sol.Dual[i].Neg()
		}
		for j := range sol.RedCost {
			sol.RedCost[j] = sol.RedCost[j].Neg()
		}
	}

	d.L.Restore(snap)
	return sol, status
}

// performOptIR is one refinement run to convergence or failure. It leaves
// the floating LP restored to the rational data on every return path.
func (d *Driver) performOptIR(st *iterState, sol *solution.Solution) lp.Status {
	feastol := rational.FromFloat64(d.Params.FeasTol)
	opttol := rational.FromFloat64(d.Params.OptTol)

	for round := 0; round < maxRefineRounds; round++ {
		if d.tripped() {
			d.restoreFloat()
			return lp.AbortTime
		}

		d.applyScaledProblem(st)
		fpStatus := d.solveRealStable()
		if fpStatus != lp.Optimal {
			d.restoreFloat()
			return fpStatus
		}
		d.refinements++
		d.liftBack(st)
		d.computeViolations(st)

		maxViol := rational.Max(
			rational.Max(st.boundsViol, st.sidesViol),
			rational.Max(st.redViol, st.dualViol))
		d.Log.Logf("refinement %d: bounds=%v sides=%v redcost=%v dual=%v P=%v D=%v",
			d.refinements, st.boundsViol, st.sidesViol, st.redViol, st.dualViol,
			st.primalScale, st.dualScale)

		if st.boundsViol.Cmp(feastol) <= 0 && st.sidesViol.Cmp(feastol) <= 0 &&
			st.redViol.Cmp(opttol) <= 0 && st.dualViol.Cmp(opttol) <= 0 {
			d.fillSolution(st, sol, feastol, opttol)
			d.restoreFloat()
			return lp.Optimal
		}

		if st.haveBest {
			improv := rational.FromFloat64(d.Params.ImprovementFactor)
			if maxViol.Mul(improv).Cmp(st.bestViol) > 0 {
				st.failed++
				d.stallRefinements++
				st.bestViol = maxViol
			} else {
				st.bestViol = maxViol
				st.failed = 0
			}
		} else {
			st.bestViol, st.haveBest = maxViol, true
		}
		if st.failed > maxStalls {
			d.fillSolution(st, sol, feastol, opttol)
			d.restoreFloat()
			return lp.Regular
		}

		if d.Params.RatRec && d.refinements >= d.nextRatRec {
			if d.tryReconstruct(st, sol) {
				d.restoreFloat()
				return lp.Optimal
			}
			extra := int(d.Params.RatRecFreq * float64(d.refinements))
			if extra < 1 {
				extra = 1
			}
			d.nextRatRec = d.refinements + extra
		}
		if d.Params.RatFac && (d.Params.RatFacJump || st.failed >= d.Params.RatFacMinIts) {
			if d.tryRatFac(st, sol) {
				d.restoreFloat()
				return lp.Optimal
			}
		}

		d.fixSlackBasis()
		d.updateScales(st)
	}
	d.fillSolution(st, sol, feastol, opttol)
	d.restoreFloat()
	return lp.Regular
}

// solveRealStable is the fp-solve recovery ladder: invoke the simplex
// engine; on a numerical failure walk a fixed sequence of setting changes,
// each solve restarting from scratch, until success or exhaustion. All
// setting changes live on a local copy of the parameters, so the driver's
// own settings are untouched afterwards.
func (d *Driver) solveRealStable() lp.Status {
	run := func(p lp.Params) lp.Status {
		e := simplex.New(d.L, p)
		e.SetClock(d.elapsed, d.cancel)
		e.SetTermination(d.Params.ObjLimitUpper, d.timeLimit, d.iterLimit)
		st := e.Solve()
		d.eng = e
		d.totalIters += e.Iterations()
		if e.Iterations() > 0 {
			d.pivotRefinements++
		}
		return st
	}

	p := d.Params
	st := run(p)
	if !retryable(st) {
		return st
	}

	ladder := []struct {
		name string
		mut  func(*lp.Params)
	}{
		{"disable simplifier and scaler", func(q *lp.Params) {
			q.Simplifier, q.Scaler = lp.SimplifierOff, lp.ScalerOff
		}},
		{"raise markowitz threshold to 0.9", func(q *lp.Params) { q.MinThresh = 0.9 }},
		{"force refactorization", func(*lp.Params) {}},
		{"switch scaler", func(q *lp.Params) {
			if q.Scaler == lp.ScalerOff {
				q.Scaler = lp.ScalerBiequi
			} else {
				q.Scaler = lp.ScalerOff
			}
		}},
		{"switch simplifier", func(q *lp.Params) {
			if q.Simplifier == lp.SimplifierOff {
				q.Simplifier = lp.SimplifierInternal
			} else {
				q.Simplifier = lp.SimplifierOff
			}
		}},
		{"relax tolerances to 1e-3", func(q *lp.Params) { q.FPFeasTol, q.FPOptTol = 1e-3, 1e-3 }},
		{"tighten tolerances to 1e-9", func(q *lp.Params) { q.FPFeasTol, q.FPOptTol = 1e-9, 1e-9 }},
		{"switch ratio tester", func(q *lp.Params) {
			if q.RatioTester == lp.Fast {
				q.RatioTester = lp.Textbook
			} else {
				q.RatioTester = lp.Fast
			}
		}},
		{"switch pricer", func(q *lp.Params) {
			if q.Pricer == lp.Devex {
				q.Pricer = lp.Steep
			} else {
				q.Pricer = lp.Devex
			}
		}},
	}
	for _, step := range ladder {
		if d.tripped() {
			return lp.AbortTime
		}
		step.mut(&p)
		d.Log.Logf("fp solve failed (%v); retrying after: %s", st, step.name)
		st = run(p)
		if !retryable(st) {
			return st
		}
	}
	return st
}

func retryable(st lp.Status) bool {
	return st == lp.Singular || st == lp.Error
}

// fixSlackBasis re-establishes the equality-form invariant between rounds
// when EQTRANS is active: every appended slack column basic, its row
// nonbasic.
func (d *Driver) fixSlackBasis() {
	if d.eqActive == nil {
		return
	}
	for k, i := range d.eqActive.rows {
		j := d.eqActive.slackCols[k]
		if d.L.ColBasis[j] != lp.Basic && d.L.RowBasis[i] == lp.Basic {
			d.L.ColBasis[j] = lp.Basic
			d.L.RowBasis[i] = lp.FixedAt
		}
	}
}
