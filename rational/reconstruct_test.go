package rational

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstructRecoversFromDouble(t *testing.T) {
	bound := new(big.Int).SetInt64(1 << 40)
	cases := []struct {
		approx float64
		want   R
	}{
		{1.0 / 3.0, FromInts(1, 3)},
		{-1.0 / 3.0, FromInts(-1, 3)},
		{2.0 / 7.0, FromInts(2, 7)},
		{5.0 / 11.0, FromInts(5, 11)},
		{1.0, FromInt64(1)},
		{0.0, Zero},
	}
	for _, c := range cases {
		got, ok := Reconstruct(FromFloat64(c.approx), bound)
		require.True(t, ok)
		assert.Zero(t, c.want.Cmp(got), "approx %v", c.approx)
	}
}

func TestReconstructIdempotent(t *testing.T) {
	bound := new(big.Int).SetInt64(1 << 40)
	exact := FromInts(22, 7)
	got, ok := Reconstruct(exact, bound)
	require.True(t, ok)
	assert.Zero(t, exact.Cmp(got))

	again, ok := Reconstruct(got, bound)
	require.True(t, ok)
	assert.Zero(t, got.Cmp(again))
}

func TestReconstructRespectsBound(t *testing.T) {
	// with a bound below the true denominator the result is the best
	// convergent under the bound, not the input
	bound := new(big.Int).SetInt64(10)
	got, ok := Reconstruct(FromInts(355, 113), bound)
	require.True(t, ok)
	assert.True(t, got.Rat().Denom().Cmp(bound) <= 0)
}

func TestReconstructRejectsBadBound(t *testing.T) {
	_, ok := Reconstruct(FromInts(1, 3), big.NewInt(0))
	assert.False(t, ok)
	_, ok = Reconstruct(FromInts(1, 3), nil)
	assert.False(t, ok)
}
