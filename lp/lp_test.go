package lp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplexcore/rational"
)

func q(num, den int64) rational.R { return rational.FromInts(num, den) }

func TestRangeTypeOf(t *testing.T) {
	cases := []struct {
		loF, upF bool
		lo, up   rational.R
		want     RangeType
	}{
		{false, false, rational.Zero, rational.Zero, Free},
		{true, false, q(1, 1), rational.Zero, Lower},
		{false, true, rational.Zero, q(1, 1), Upper},
		{true, true, q(1, 1), q(2, 1), Boxed},
		{true, true, q(3, 2), q(3, 2), Fixed},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RangeTypeOf(c.loF, c.upF, c.lo, c.up))
	}
}

func buildSmall() *LP {
	l := New(2, Maximize, DefaultParams())
	l.SetRow(0, q(1, 1), q(4, 1), true, true)
	l.SetRow(1, q(0, 1), rational.Zero, true, false)
	l.AddCol(RatColumn{{Row: 0, Val: q(1, 1)}, {Row: 1, Val: q(2, 1)}},
		rational.Zero, q(10, 1), q(3, 1), true, true)
	l.AddCol(RatColumn{{Row: 1, Val: q(-1, 2)}},
		rational.Zero, rational.Zero, q(1, 1), true, false)
	return l
}

func TestSentinelMirrors(t *testing.T) {
	l := buildSmall()
	assert.Equal(t, 1.0, l.LhsF[0])
	assert.Equal(t, 4.0, l.RhsF[0])
	assert.Equal(t, Infty, l.RhsF[1], "infinite rhs maps to the sentinel")
	assert.Equal(t, Infty, l.UpperF[1])
	assert.Equal(t, 10.0, l.UpperF[0])
	assert.Equal(t, Boxed, l.ColRange[0])
	assert.Equal(t, Lower, l.ColRange[1])
}

func TestAddRemoveRows(t *testing.T) {
	l := buildSmall()
	i := l.AddRow([]ColCoeff{{Col: 0, Val: q(5, 1)}, {Col: 1, Val: q(-1, 1)}},
		rational.Zero, rational.Zero, true, true)
	assert.Equal(t, 2, i)
	assert.Equal(t, 3, l.NumRows())
	assert.Zero(t, l.Coeff(0, 2).Cmp(q(5, 1)))
	assert.Zero(t, l.Coeff(1, 2).Cmp(q(-1, 1)))

	l.RemoveLastRows(1)
	assert.Equal(t, 2, l.NumRows())
	assert.True(t, l.Coeff(0, 2).IsZero())
	assert.Len(t, l.ColsQ[0], 2)
}

func TestAddRemoveCols(t *testing.T) {
	l := buildSmall()
	j := l.AddCol(RatColumn{{Row: 0, Val: q(7, 1)}}, rational.Zero, q(1, 1), rational.Zero, true, true)
	assert.Equal(t, 2, j)
	assert.Equal(t, 3, l.NumCols())
	l.RemoveLastCols(1)
	assert.Equal(t, 2, l.NumCols())
}

func TestSetCoeff(t *testing.T) {
	l := buildSmall()
	l.SetCoeff(1, 0, q(9, 1))
	assert.Zero(t, l.Coeff(1, 0).Cmp(q(9, 1)))
	// inserted in row order ahead of the existing row-1 entry
	assert.Equal(t, 0, l.ColsQ[1][0].Row)
	assert.Equal(t, 1, l.ColsQ[1][1].Row)

	l.SetCoeff(1, 0, rational.Zero)
	assert.True(t, l.Coeff(1, 0).IsZero())
	assert.Len(t, l.ColsQ[1], 1)
}

func TestSnapshotRestore(t *testing.T) {
	l := buildSmall()
	snap := l.Snapshot()

	l.SetObj(0, q(99, 1))
	l.SetBounds(1, q(-5, 1), q(5, 1), true, true)
	l.SetCoeff(0, 0, q(42, 1))
	l.AddRow(nil, rational.Zero, rational.Zero, true, true)
	l.AddCol(nil, rational.Zero, rational.Zero, rational.Zero, true, false)

	l.Restore(snap)
	assert.Equal(t, 2, l.NumRows())
	assert.Equal(t, 2, l.NumCols())
	assert.Zero(t, l.ObjQ[0].Cmp(q(3, 1)))
	assert.Equal(t, Lower, l.ColRange[1])
	assert.Zero(t, l.Coeff(0, 0).Cmp(q(1, 1)))
	assert.Equal(t, 1.0, l.LhsF[0], "floating mirror resynchronized")
}

func TestBasicCount(t *testing.T) {
	l := buildSmall()
	assert.Equal(t, 0, l.BasicCount())
	l.RowBasis[0] = Basic
	l.ColBasis[1] = Basic
	assert.Equal(t, 2, l.BasicCount())
}

func TestStatusStrings(t *testing.T) {
	require.Equal(t, "OPTIMAL", Optimal.String())
	require.Equal(t, "ABORT_CYCLING", AbortCycling.String())
	require.Equal(t, "UNKNOWN", Unknown.String())
}
