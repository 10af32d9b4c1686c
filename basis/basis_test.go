package basis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplexcore/lu"
	"simplexcore/rational"
	"simplexcore/ratlu"
)

func sampleCols() []lu.Column {
	// [[2,0,1],
	//  [0,3,0],
	//  [1,0,1]]
	return []lu.Column{
		{{Row: 0, Val: 2}, {Row: 2, Val: 1}},
		{{Row: 1, Val: 3}},
		{{Row: 0, Val: 1}, {Row: 2, Val: 1}},
	}
}

func TestRefactorAndSolve(t *testing.T) {
	a := New(lu.ModeForrestTomlin, 0.01, 1e-12, 2, 1e-8, 0)
	require.Equal(t, lu.OK, a.Refactor(3, sampleCols()))

	x := a.SolveRight([]float64{5, 6, 2})
	// [[2,0,1],[0,3,0],[1,0,1]] x = (5,6,2) -> x = (3,2,-1)
	assert.InDelta(t, 3, x[0], 1e-12)
	assert.InDelta(t, 2, x[1], 1e-12)
	assert.InDelta(t, -1, x[2], 1e-12)

	y := a.SolveLeft([]float64{1, 0, 0})
	// Bᵀy = (1,0,0): 2y0+y2=1, 3y1=0, y0+y2=0 -> y = (1,0,-1)
	assert.InDelta(t, 1, y[0], 1e-12)
	assert.InDelta(t, 0, y[1], 1e-12)
	assert.InDelta(t, -1, y[2], 1e-12)
}

func TestUpdateBudgetTriggersRefactor(t *testing.T) {
	a := New(lu.ModeEta, 0.01, 1e-12, 2, 1e-8, 0)
	require.Equal(t, lu.OK, a.Refactor(3, sampleCols()))
	require.False(t, a.NeedsRefactor())

	require.Equal(t, lu.OK, a.Update(0, []float64{1, 0, 0}))
	require.False(t, a.NeedsRefactor())
	require.Equal(t, lu.OK, a.Update(1, []float64{0, 1, 0}))
	assert.True(t, a.NeedsRefactor(), "budget of 2 updates exhausted")

	require.Equal(t, lu.OK, a.Refactor(3, sampleCols()))
	assert.False(t, a.NeedsRefactor())
	assert.Zero(t, a.UpdateCount())
}

func TestStabilityAndThresholdLadder(t *testing.T) {
	a := New(lu.ModeForrestTomlin, 0.01, 1e-12, 50, 1e-8, 0)
	require.Equal(t, lu.OK, a.Refactor(3, sampleCols()))
	s := a.Stability()
	assert.GreaterOrEqual(t, s, 0.0)
	assert.LessOrEqual(t, s, 1.0)

	t0 := a.Threshold()
	a.RaiseThreshold()
	assert.Greater(t, a.Threshold(), t0)
}

func ratCols() []ratlu.Column {
	return []ratlu.Column{
		{{Row: 0, Val: rational.FromInt64(2)}, {Row: 2, Val: rational.FromInt64(1)}},
		{{Row: 1, Val: rational.FromInts(1, 3)}},
		{{Row: 0, Val: rational.FromInt64(1)}, {Row: 2, Val: rational.FromInt64(1)}},
	}
}

func TestRationalFactorize(t *testing.T) {
	a := New(lu.ModeForrestTomlin, 0.01, 1e-12, 50, 1e-8, 0)
	ok, st := a.RationalFactorize(3, ratCols(), time.Now().Add(time.Minute))
	require.True(t, ok)
	require.Equal(t, ratlu.OK, st)

	f := a.Rational()
	require.NotNil(t, f)
	b := []rational.R{rational.FromInt64(5), rational.FromInt64(1), rational.FromInt64(2)}
	x := f.SolveRight(b)
	// 2x0 + x2 = 5, x1/3 = 1, x0 + x2 = 2 -> x = (3, 3, -1)
	assert.Zero(t, x[0].Cmp(rational.FromInt64(3)))
	assert.Zero(t, x[1].Cmp(rational.FromInt64(3)))
	assert.Zero(t, x[2].Cmp(rational.FromInt64(-1)))
}

func TestRationalFactorizeTimeBudget(t *testing.T) {
	// a budget that cannot fit before the deadline is a transient skip, not
	// an error
	a := New(lu.ModeForrestTomlin, 0.01, 1e-12, 50, 1e-8, time.Hour)
	ok, st := a.RationalFactorize(3, ratCols(), time.Now().Add(time.Second))
	assert.False(t, ok)
	assert.Equal(t, ratlu.OK, st)
	assert.Nil(t, a.Rational())
}

func TestUpdateInvalidatesRational(t *testing.T) {
	a := New(lu.ModeEta, 0.01, 1e-12, 50, 1e-8, 0)
	require.Equal(t, lu.OK, a.Refactor(3, sampleCols()))
	ok, st := a.RationalFactorize(3, ratCols(), time.Now().Add(time.Minute))
	require.True(t, ok)
	require.Equal(t, ratlu.OK, st)

	require.Equal(t, lu.OK, a.Update(0, []float64{1, 0, 0}))
	// stale now: the next call rebuilds rather than reusing
	ok, st = a.RationalFactorize(3, ratCols(), time.Now().Add(time.Minute))
	assert.True(t, ok)
	assert.Equal(t, ratlu.OK, st)
}
