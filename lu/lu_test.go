package lu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"simplexcore/vector"
)

func col(pairs ...ColEntry) Column { return Column(pairs) }

// denseInverseSolve cross-checks the sparse LU against gonum's dense
// Inverse; a dense oracle is fine in test code, never inside the solver
// itself.
func denseInverseSolve(t *testing.T, cols []Column, dim int, b []float64) []float64 {
	t.Helper()
	d := mat.NewDense(dim, dim, nil)
	for j, c := range cols {
		for _, e := range c {
			d.Set(e.Row, j, e.Val)
		}
	}
	var inv mat.Dense
	require.NoError(t, inv.Inverse(d))
	bv := mat.NewVecDense(dim, b)
	var xv mat.VecDense
	xv.MulVec(&inv, bv)
	return xv.RawVector().Data
}

func sampleMatrix() []Column {
	// [[2,0,1],
	//  [0,3,0],
	//  [1,0,1]]
	return []Column{
		col(ColEntry{0, 2}, ColEntry{2, 1}),
		col(ColEntry{1, 3}),
		col(ColEntry{0, 1}, ColEntry{2, 1}),
	}
}

func requireClose(t *testing.T, want, got []float64, tol float64) {
	t.Helper()
	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol, "index %d", i)
	}
}

func TestFactorSolveRightMatchesDense(t *testing.T) {
	cols := sampleMatrix()
	f := NewFactorization(ModeEta, 0.01, 1e-12, 50)
	require.Equal(t, OK, f.Factor(3, cols))

	b := []float64{5, 6, 2}
	got := f.SolveRight(b)
	want := denseInverseSolve(t, cols, 3, b)
	requireClose(t, want, got, 1e-9)
}

func TestFactorSolveLeftMatchesDense(t *testing.T) {
	cols := sampleMatrix()
	f := NewFactorization(ModeEta, 0.01, 1e-12, 50)
	require.Equal(t, OK, f.Factor(3, cols))

	c := []float64{1, 2, 3}
	got := f.SolveLeft(c)

	// Cross-check Bᵀ y = c against the dense transpose inverse.
	d := mat.NewDense(3, 3, nil)
	for j, col := range cols {
		for _, e := range col {
			d.Set(e.Row, j, e.Val)
		}
	}
	var dt mat.Dense
	dt.CloneFrom(d.T())
	var inv mat.Dense
	require.NoError(t, inv.Inverse(&dt))
	cv := mat.NewVecDense(3, c)
	var yv mat.VecDense
	yv.MulVec(&inv, cv)
	requireClose(t, yv.RawVector().Data, got, 1e-9)
}

func TestSingularMatrix(t *testing.T) {
	cols := []Column{
		col(ColEntry{0, 1}),
		col(ColEntry{0, 2}), // proportional to column 0 -> singular in a 2x2
	}
	f := NewFactorization(ModeEta, 0.01, 1e-12, 50)
	assert.Equal(t, Singular, f.Factor(2, cols))
}

func TestBetterThresholdEscalation(t *testing.T) {
	f := NewFactorization(ModeEta, 0.01, 1e-12, 50)
	f.BetterThreshold()
	assert.InDelta(t, 0.1, f.Threshold(), 1e-12)
	f.BetterThreshold()
	assert.InDelta(t, 0.55, f.Threshold(), 1e-12)
	for i := 0; i < 16; i++ {
		f.BetterThreshold()
	}
	assert.InDelta(t, 0.99999, f.Threshold(), 1e-9)
}

func TestStabilityAfterFactor(t *testing.T) {
	cols := sampleMatrix()
	f := NewFactorization(ModeEta, 0.01, 1e-12, 50)
	require.Equal(t, OK, f.Factor(3, cols))
	s := f.Stability()
	assert.True(t, s > 0 && s <= 1)
}

func replaceColumn(cols []Column, p int, w Column) []Column {
	out := make([]Column, len(cols))
	copy(out, cols)
	out[p] = w
	return out
}

func TestEtaUpdateMatchesFreshFactorization(t *testing.T) {
	cols := sampleMatrix()
	f := NewFactorization(ModeEta, 0.01, 1e-12, 50)
	require.Equal(t, OK, f.Factor(3, cols))

	newCol := []float64{0, 1, 4} // replace column 1 ([0,3,0]) with [0,1,4]
	require.Equal(t, OK, f.ChangeEta(1, newCol))

	newCols := replaceColumn(cols, 1, col(ColEntry{1, 1}, ColEntry{2, 4}))
	b := []float64{5, 6, 2}
	got := f.SolveRight(b)
	want := denseInverseSolve(t, newCols, 3, b)
	requireClose(t, want, got, 1e-9)
}

func TestForrestTomlinUpdateMatchesFreshFactorization(t *testing.T) {
	cols := sampleMatrix()
	f := NewFactorization(ModeForrestTomlin, 0.01, 1e-12, 50)
	require.Equal(t, OK, f.Factor(3, cols))

	newCol := []float64{0, 1, 4}
	require.Equal(t, OK, f.Change(1, newCol))
	assert.Equal(t, 1, f.UpdateCount())

	newCols := replaceColumn(cols, 1, col(ColEntry{1, 1}, ColEntry{2, 4}))
	b := []float64{5, 6, 2}
	got := f.SolveRight(b)
	want := denseInverseSolve(t, newCols, 3, b)
	requireClose(t, want, got, 1e-9)
}

func TestForrestTomlinUpdateOnEarliestPivot(t *testing.T) {
	cols := sampleMatrix()
	f := NewFactorization(ModeForrestTomlin, 0.01, 1e-12, 50)
	require.Equal(t, OK, f.Factor(3, cols))

	// column 1 holds the first pivot (step 0), so the bump is the whole matrix
	newCol := []float64{1, 5, 0}
	require.Equal(t, OK, f.Change(1, newCol))

	newCols := replaceColumn(cols, 1, col(ColEntry{0, 1}, ColEntry{1, 5}))
	b := []float64{1, 1, 1}
	got := f.SolveRight(b)
	want := denseInverseSolve(t, newCols, 3, b)
	requireClose(t, want, got, 1e-9)
}

func TestNeedsRefactorAfterMaxUpdates(t *testing.T) {
	cols := sampleMatrix()
	f := NewFactorization(ModeEta, 0.01, 1e-12, 2)
	require.Equal(t, OK, f.Factor(3, cols))
	require.False(t, f.NeedsRefactor())
	require.Equal(t, OK, f.ChangeEta(1, []float64{0, 1, 4}))
	require.Equal(t, OK, f.ChangeEta(0, []float64{0, 5, 0}))
	assert.True(t, f.NeedsRefactor())
}

func TestAbsf(t *testing.T) {
	assert.Equal(t, 3.0, absf(-3))
	assert.Equal(t, 3.0, absf(3))
	assert.True(t, math.Abs(absf(0)) < 1e-15)
}

func TestSolveSSVVariantsMatchDense(t *testing.T) {
	cols := sampleMatrix()
	f := NewFactorization(ModeEta, 0.01, 1e-12, 50)
	require.Equal(t, OK, f.Factor(3, cols))

	b := vector.NewSSV(3, 1e-12)
	b.Set(0, 5)
	b.Set(2, 2)

	x := f.SolveRightSSV(b, 1e-12)
	wantX := f.SolveRight([]float64{5, 0, 2})
	require.True(t, x.IsSetup())
	require.True(t, x.CheckInvariant())
	for i := 0; i < 3; i++ {
		assert.InDelta(t, wantX[i], x.Get(i), 1e-12)
	}

	y := f.SolveLeftSSV(b, 1e-12)
	wantY := f.SolveLeft([]float64{5, 0, 2})
	require.True(t, y.IsSetup())
	for i := 0; i < 3; i++ {
		assert.InDelta(t, wantY[i], y.Get(i), 1e-12)
	}
}
