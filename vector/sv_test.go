package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSVGetAndDense(t *testing.T) {
	sv := NewSV([]int{1, 3}, []float64{2.0, -4.0})
	assert.Equal(t, 2.0, sv.Get(1))
	assert.Equal(t, 0.0, sv.Get(2))
	dense := sv.ToDense(5)
	assert.Equal(t, DV{0, 2, 0, -4, 0}, dense)
}

func TestUnit(t *testing.T) {
	u := Unit(2)
	assert.Equal(t, 1.0, u.Get(2))
	assert.Equal(t, 0.0, u.Get(0))
	assert.Equal(t, 1, u.NNZ())
}

func TestDVOps(t *testing.T) {
	a := DV{1, 2, 3}
	b := DV{4, 5, 6}
	assert.Equal(t, 32.0, a.Dot(b))
	assert.InDelta(t, 3.741657, a.Norm(), 1e-6)
	assert.Equal(t, 3.0, a.MaxAbs())

	c := DV{1, 1, 1}
	c.AddScaled(2, DV{1, 2, 3})
	assert.Equal(t, DV{3, 5, 7}, c)
}

func TestDVDotSV(t *testing.T) {
	d := DV{1, 2, 3, 4}
	sv := NewSV([]int{0, 2}, []float64{10, 100})
	assert.Equal(t, 1*10+3*100, int(d.DotSV(sv)))
}
