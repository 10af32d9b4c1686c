package simplex

import (
	"math"

	"simplexcore/lp"
)

// RatioTester picks, for an entering direction Δ, the leaving basis
// position and the step length while respecting the variable bounds.
// Numerical-rescue bound shifting mid-ratio-test is not implemented; its
// role is covered by the phase-1 infeasibility pass in simplex.go rather
// than per-pivot bound enlargement.
type RatioTester interface {
	// Test returns the step length t, the basis position that leaves (if
	// any), whether it leaves at its upper bound, and whether this step
	// is instead a bound flip of the entering variable itself (no basis
	// change). delta is B^-1 * column(entering); dir is +1 if entering is
	// increasing, -1 if decreasing; selfRange is the entering variable's
	// own (upper-lower) span (+Inf if unbounded on the far side).
	Test(e *Engine, delta []float64, dir, selfRange float64) (t float64, leavePos int, hitUpper, isFlip bool)
}

// NewRatioTester builds the concrete RatioTester for kind. BoundFlipping
// is not separately implemented: both Fast and Textbook already perform
// the self bound-flip check every call (it is intrinsic to
// bounded-variable simplex, not an optional mode), so BoundFlipping maps
// to Fast, the refinement driver's forced default.
func NewRatioTester(kind lp.RatioTesterKind) RatioTester {
	if kind == lp.Textbook {
		return TextbookRatioTester{}
	}
	return FastRatioTester{}
}

// ratioCandidate is one basic variable's blocking bound, found while
// scanning delta.
type ratioCandidate struct {
	pos        int
	t          float64
	hitUpper   bool
	pivotMag   float64 // |delta[pos]|, used to break near-ties towards stability
}

// scanRatios walks every basic position and finds the first finite bound
// that lies ahead of its current value in the direction deltaVal moves it.
// For a feasible variable that is the far bound; for an infeasible one it
// is the violated bound being re-entered — stopping there is what makes a
// phase-1 step land exactly on the point where the composite infeasibility
// objective changes slope.
func scanRatios(e *Engine, delta []float64, dir float64) []ratioCandidate {
	var out []ratioCandidate
	for k, id := range e.basisVars {
		deltaVal := -dir * delta[k]
		if math.Abs(deltaVal) < 1e-11 {
			continue
		}
		val := e.fVec[k]
		lo, up := e.trueLower(id), e.trueUpper(id)
		if deltaVal > 0 {
			if lo > -lp.Infty && val < lo-1e-9 {
				// below its lower bound, traveling up: blocks on re-entry
				out = append(out, ratioCandidate{k, math.Max((lo-val)/deltaVal, 0), false, math.Abs(delta[k])})
			} else if up < lp.Infty {
				if t := (up - val) / deltaVal; t >= -1e-9 {
					out = append(out, ratioCandidate{k, math.Max(t, 0), true, math.Abs(delta[k])})
				}
			}
		} else {
			if up < lp.Infty && val > up+1e-9 {
				// above its upper bound, traveling down: blocks on re-entry
				out = append(out, ratioCandidate{k, math.Max((up-val)/deltaVal, 0), true, math.Abs(delta[k])})
			} else if lo > -lp.Infty {
				if t := (lo - val) / deltaVal; t >= -1e-9 {
					out = append(out, ratioCandidate{k, math.Max(t, 0), false, math.Abs(delta[k])})
				}
			}
		}
	}
	return out
}

// pickMin finds the smallest-ratio blocking candidate. tieBand widens
// what counts as "tied with the current minimum" (the Fast/Textbook
// difference); among tied candidates the one with the larger pivot
// magnitude wins, for numerical stability.
func pickMin(cands []ratioCandidate, selfRange, tieBand float64) (t float64, pos int, hitUpper, isFlip bool) {
	t = selfRange
	pos, hitUpper, isFlip = -1, false, true
	var pivotMag float64
	for _, c := range cands {
		switch {
		case c.t < t-tieBand:
			t, pos, hitUpper, isFlip, pivotMag = c.t, c.pos, c.hitUpper, false, c.pivotMag
		case c.t < t+tieBand && c.pivotMag > pivotMag:
			t, pos, hitUpper, isFlip, pivotMag = c.t, c.pos, c.hitUpper, false, c.pivotMag
		}
	}
	return
}

// TextbookRatioTester applies the classical minimum-ratio rule with no
// tolerance relaxation.
type TextbookRatioTester struct{}

func (TextbookRatioTester) Test(e *Engine, delta []float64, dir, selfRange float64) (float64, int, bool, bool) {
	cands := scanRatios(e, delta, dir)
	return pickMin(cands, selfRange, 1e-11)
}

// FastRatioTester is a simplified single-pass analogue of the Harris ratio
// test: it widens the zero-tolerance band so near-degenerate
// candidates are not starved out, and tie-breaks on pivot magnitude to
// favor stability the way the classical two-pass Harris test does by
// expanding the feasibility tolerance on its first pass.
type FastRatioTester struct{}

func (FastRatioTester) Test(e *Engine, delta []float64, dir, selfRange float64) (float64, int, bool, bool) {
	cands := scanRatios(e, delta, dir)
	return pickMin(cands, selfRange, 1e-7)
}
