package lu

import "simplexcore/vector"

// SolveRightSSV is the semi-sparse right-hand-side variant of SolveRight
//. It scatters b into a dense buffer, solves, and returns the
// result as a freshly setup SSV so the caller (the simplex engine's fVec)
// can keep iterating its nonzero set cheaply afterwards.
func (f *Factorization) SolveRightSSV(b *vector.SSV, eps float64) *vector.SSV {
	x := f.SolveRight(b.Dense())
	out := vector.NewSSV(f.dim, eps)
	copy(out.Dense(), x)
	out.Setup()
	return out
}

// SolveLeftSSV is the semi-sparse variant of SolveLeft, used for coPvec.
func (f *Factorization) SolveLeftSSV(c *vector.SSV, eps float64) *vector.SSV {
	y := f.SolveLeft(c.Dense())
	out := vector.NewSSV(f.dim, eps)
	copy(out.Dense(), y)
	out.Setup()
	return out
}
