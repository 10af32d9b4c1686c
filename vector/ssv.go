package vector

import "math"

// SSV is a semi-sparse vector: a dense value array of length
// dim, plus an index set of the positions currently holding a value whose
// magnitude exceeds eps. The isSetup flag tells a reader which side is
// authoritative:
//
//	isSetup == true:  idx is exactly {i : |val[i]| > eps}; both sides agree.
//	isSetup == false: val is authoritative; idx is stale and must not be
//	                  trusted until Setup() rebuilds it.
//
// The invariant is asserted by the property tests in ssv_test.go rather
// than by runtime checks on the hot path.
type SSV struct {
	val     []float64
	idx     []int
	isSetup bool
	eps     float64
}

// NewSSV returns the zero vector of dimension dim, setup (trivially: no
// nonzeros).
func NewSSV(dim int, eps float64) *SSV {
	return &SSV{val: make([]float64, dim), idx: nil, isSetup: true, eps: eps}
}

func (s *SSV) Dim() int      { return len(s.val) }
func (s *SSV) IsSetup() bool { return s.isSetup }
func (s *SSV) Eps() float64  { return s.eps }

// Idx returns the current index set. Only meaningful when IsSetup() is true;
// callers that need the nonzero positions of a not-setup vector must call
// Setup() first.
func (s *SSV) Idx() []int { return s.idx }

func (s *SSV) Get(i int) float64 { return s.val[i] }

// Dense exposes the underlying dense storage (not a copy). Mutating it
// directly invalidates isSetup; callers that do so must call UnSetup().
func (s *SSV) Dense() DV { return DV(s.val) }

// ClearAll resets every entry to zero and the vector to the (trivially)
// setup empty state.
func (s *SSV) ClearAll() {
	for i := range s.val {
		s.val[i] = 0
	}
	s.idx = s.idx[:0]
	s.isSetup = true
}

// Set assigns val[i] = v, maintaining the isSetup invariant incrementally
// when setup: membership of i in idx is added or removed to match whether
// |v| exceeds eps.
func (s *SSV) Set(i int, v float64) {
	if math.Abs(v) <= s.eps {
		v = 0
	}
	if s.isSetup {
		wasNonzero := math.Abs(s.val[i]) > s.eps
		isNonzero := v != 0
		s.val[i] = v
		if !wasNonzero && isNonzero {
			s.idx = append(s.idx, i)
		} else if wasNonzero && !isNonzero {
			s.removeIdx(i)
		}
		return
	}
	s.val[i] = v
}

func (s *SSV) removeIdx(i int) {
	for k, ix := range s.idx {
		if ix == i {
			s.idx[k] = s.idx[len(s.idx)-1]
			s.idx = s.idx[:len(s.idx)-1]
			return
		}
	}
}

// UnSetup forces the not-setup state: idx is no longer trusted, val is
// authoritative. This is the escape hatch for operations that cannot
// cheaply maintain idx incrementally.
func (s *SSV) UnSetup() {
	s.isSetup = false
}

// ForceSetup marks the vector setup without rebuilding idx. Callers must be
// certain idx already matches val; used only by code (LU solves) that built
// both sides consistently by construction.
func (s *SSV) ForceSetup(idx []int) {
	s.idx = idx
	s.isSetup = true
}

// Setup rescans the dense array and rebuilds idx from scratch, restoring the
// invariant unconditionally. O(dim).
func (s *SSV) Setup() {
	idx := s.idx[:0]
	for i, v := range s.val {
		if math.Abs(v) > s.eps {
			idx = append(idx, i)
		} else if v != 0 {
			s.val[i] = 0
		}
	}
	s.idx = idx
	s.isSetup = true
}

// DotSV computes the dot product of s with a sparse SV, iterating whichever
// side has fewer nonzeros.
func (s *SSV) DotSV(o SV) float64 {
	if s.isSetup && len(s.idx) <= o.NNZ() {
		sum := 0.0
		for _, ix := range s.idx {
			sum += s.val[ix] * o.Get(ix)
		}
		return sum
	}
	sum := 0.0
	for k, ix := range o.idx {
		sum += s.val[ix] * o.val[k]
	}
	return sum
}

// AddScaledSV computes s += alpha*o (sparse axpy).
// When s is setup, idx is maintained incrementally: a position that becomes
// newly nonzero is added, one that cancels below eps is rounded to 0 and
// removed. When s is not setup, only the dense values are touched and idx is
// left untouched (stale) until a later Setup() call.
func (s *SSV) AddScaledSV(alpha float64, o SV) {
	if alpha == 0 {
		return
	}
	if !s.isSetup {
		for k, ix := range o.idx {
			s.val[ix] += alpha * o.val[k]
		}
		return
	}
	for k, ix := range o.idx {
		wasNonzero := math.Abs(s.val[ix]) > s.eps
		nv := s.val[ix] + alpha*o.val[k]
		if math.Abs(nv) <= s.eps {
			nv = 0
		}
		s.val[ix] = nv
		isNonzero := nv != 0
		if !wasNonzero && isNonzero {
			s.idx = append(s.idx, ix)
		} else if wasNonzero && !isNonzero {
			s.removeIdx(ix)
		}
	}
}

// MaxAbs returns the largest |val[i]|, iterating the nonzero list when
// setup and the full dense array otherwise.
func (s *SSV) MaxAbs() float64 {
	m := 0.0
	if s.isSetup {
		for _, ix := range s.idx {
			if a := math.Abs(s.val[ix]); a > m {
				m = a
			}
		}
		return m
	}
	for _, v := range s.val {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

// Length2 returns Σ val[i]², iterating the nonzero list
// when setup and the full dense array otherwise.
func (s *SSV) Length2() float64 {
	sum := 0.0
	if s.isSetup {
		for _, ix := range s.idx {
			sum += s.val[ix] * s.val[ix]
		}
		return sum
	}
	for _, v := range s.val {
		sum += v * v
	}
	return sum
}

// CheckInvariant reports whether isSetup ⇒ idx is exactly the set of
// positions with |val[i]| > eps. Exercised by property tests; not called on
// any hot path.
func (s *SSV) CheckInvariant() bool {
	if !s.isSetup {
		return true
	}
	seen := make(map[int]bool, len(s.idx))
	for _, ix := range s.idx {
		if math.Abs(s.val[ix]) <= s.eps {
			return false
		}
		if seen[ix] {
			return false
		}
		seen[ix] = true
	}
	for i, v := range s.val {
		if math.Abs(v) > s.eps && !seen[i] {
			return false
		}
	}
	return true
}
