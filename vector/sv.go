// Package vector implements the three vector representations the solver
// works in: SV (immutable sparse index/value pairs), DV (dense), and SSV
// (the semi-sparse dual representation that is the LU/simplex hot path).
package vector

import "gonum.org/v1/gonum/floats"

// SV is an immutable sparse vector: parallel index/value slices, indices
// strictly increasing, no stored zero entries. Teacher's Model kept columns
// as dense mat.Dense column views (model/model.go); SV generalizes that to
// genuine sparsity for constraint columns and unit vectors.
type SV struct {
	idx []int
	val []float64
}

// NewSV builds an SV from already sorted, deduplicated, nonzero entries. The
// slices are taken by reference; callers must not mutate them afterwards.
func NewSV(idx []int, val []float64) SV {
	if len(idx) != len(val) {
		panic("vector: SV index/value length mismatch")
	}
	return SV{idx: idx, val: val}
}

// Unit returns the sparse unit vector e_i of dimension-agnostic sparse form
// (single nonzero at position i, value 1).
func Unit(i int) SV {
	return SV{idx: []int{i}, val: []float64{1}}
}

func (s SV) NNZ() int            { return len(s.idx) }
func (s SV) Index(k int) int     { return s.idx[k] }
func (s SV) ValueAt(k int) float64 { return s.val[k] }

// Get returns the value stored at dense index i, or 0. Linear scan: SV is
// meant for short columns; callers on a hot path should use SSV instead.
func (s SV) Get(i int) float64 {
	for k, ix := range s.idx {
		if ix == i {
			return s.val[k]
		}
	}
	return 0
}

// ToDense scatters s into a freshly allocated dense vector of length dim.
func (s SV) ToDense(dim int) DV {
	d := make(DV, dim)
	for k, ix := range s.idx {
		d[ix] = s.val[k]
	}
	return d
}

// DV is a plain dense vector. Operations are backed by gonum/floats, whose
// Dot/AddScaled/Norm are exactly the dense-vector primitives DV needs.
type DV []float64

// Dot computes the dense dot product.
func (d DV) Dot(o DV) float64 { return floats.Dot(d, o) }

// AddScaled computes d += alpha*o in place (the dense axpy).
func (d DV) AddScaled(alpha float64, o DV) {
	floats.AddScaled(d, alpha, o)
}

// Norm returns the Euclidean (L2) norm.
func (d DV) Norm() float64 { return floats.Norm(d, 2) }

// MaxAbs returns the largest absolute value, or 0 for an empty vector.
func (d DV) MaxAbs() float64 {
	m := 0.0
	for _, v := range d {
		if a := abs(v); a > m {
			m = a
		}
	}
	return m
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// DotSV computes the dense·sparse dot product. DV has no nonzero index, so
// the sparse operand is always the side iterated.
func (d DV) DotSV(s SV) float64 {
	sum := 0.0
	for k, ix := range s.idx {
		sum += d[ix] * s.val[k]
	}
	return sum
}
