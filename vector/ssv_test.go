package vector

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEps = 1e-9

func TestSSVSetAndInvariant(t *testing.T) {
	s := NewSSV(5, testEps)
	s.Set(2, 3.5)
	s.Set(4, -1.0)
	require.True(t, s.CheckInvariant())
	assert.ElementsMatch(t, []int{2, 4}, s.Idx())
	assert.Equal(t, 3.5, s.Get(2))
}

func TestSSVSetBelowEpsStaysZero(t *testing.T) {
	s := NewSSV(3, testEps)
	s.Set(1, 1e-12)
	assert.Equal(t, 0.0, s.Get(1))
	assert.Empty(t, s.Idx())
}

func TestSSVCancellationRemovesIndex(t *testing.T) {
	s := NewSSV(3, testEps)
	s.Set(0, 5.0)
	require.Contains(t, s.Idx(), 0)
	s.AddScaledSV(-1.0, NewSV([]int{0}, []float64{5.0}))
	assert.Equal(t, 0.0, s.Get(0))
	assert.NotContains(t, s.Idx(), 0)
	assert.True(t, s.CheckInvariant())
}

func TestSSVAddScaledCreatesFillIn(t *testing.T) {
	s := NewSSV(3, testEps)
	sv := NewSV([]int{0, 2}, []float64{1.0, 2.0})
	s.AddScaledSV(2.0, sv)
	assert.Equal(t, 2.0, s.Get(0))
	assert.Equal(t, 4.0, s.Get(2))
	assert.ElementsMatch(t, []int{0, 2}, s.Idx())
	assert.True(t, s.CheckInvariant())
}

func TestSSVUnSetupStopsIndexMaintenance(t *testing.T) {
	s := NewSSV(3, testEps)
	s.Set(0, 1.0)
	s.UnSetup()
	assert.False(t, s.IsSetup())
	s.AddScaledSV(1.0, NewSV([]int{1}, []float64{5.0}))
	// idx is stale (still just {0}) even though val[1] is now nonzero.
	assert.Equal(t, 5.0, s.Get(1))
	s.Setup()
	assert.True(t, s.IsSetup())
	assert.True(t, s.CheckInvariant())
	assert.ElementsMatch(t, []int{0, 1}, s.Idx())
}

func TestSSVDotSVMatchesDense(t *testing.T) {
	s := NewSSV(5, testEps)
	s.Set(0, 1)
	s.Set(3, 2)
	sv := NewSV([]int{0, 1, 3}, []float64{4, 9, 5})
	got := s.DotSV(sv)
	assert.Equal(t, 1*4+2*5, int(got))
}

func TestSSVMaxAbsAndLength2(t *testing.T) {
	s := NewSSV(4, testEps)
	s.Set(1, -3)
	s.Set(2, 2)
	assert.Equal(t, 3.0, s.MaxAbs())
	assert.Equal(t, 13.0, s.Length2())
}

func TestSSVRandomizedInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := NewSSV(20, testEps)
	for i := 0; i < 500; i++ {
		pos := rng.Intn(20)
		v := rng.Float64()*4 - 2
		if rng.Intn(10) == 0 {
			v = 0
		}
		s.Set(pos, v)
		require.True(t, s.CheckInvariant())
	}
}

func TestClearAll(t *testing.T) {
	s := NewSSV(3, testEps)
	s.Set(0, 1)
	s.Set(1, 2)
	s.ClearAll()
	assert.Empty(t, s.Idx())
	assert.True(t, s.IsSetup())
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.0, s.Get(i))
	}
}
