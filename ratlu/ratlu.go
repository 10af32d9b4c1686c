// Package ratlu is the exact counterpart of package lu: a sparse LU
// factorization over rational.R with no pivot threshold. Any nonzero
// candidate is an admissible pivot, and a zero pivot is a true singularity,
// not a numerical near-miss. It backs the rational basis factorization the
// refinement driver uses to verify or directly produce an exact basic
// solution.
//
// It follows the same Markowitz elimination shape as package lu, minus the
// numeric tolerance machinery: no threshold, and no Forrest-Tomlin/Eta
// update chain, because a rational factorization is always rebuilt from the
// current basis descriptor rather than patched incrementally.
package ratlu

import "simplexcore/rational"

// Status is the outcome of a rational factorization attempt.
type Status int

const (
	OK Status = iota
	Singular
)

func (s Status) String() string {
	if s == OK {
		return "OK"
	}
	return "SINGULAR"
}

// ColEntry is one (row,value) pair of a sparse rational column.
type ColEntry struct {
	Row int
	Val rational.R
}

// Column is a sparse rational column.
type Column []ColEntry

type entry struct {
	id  int
	val rational.R
}

// Factorization is the exact LU of an m×m nonsingular rational matrix.
type Factorization struct {
	dim int

	rowOrig, colOrig []int
	rowPerm, colPerm []int
	diag             []rational.R

	uRow [][]entry // row-major off-diagonal U entries, keyed by original col id
	lCol [][]entry // multipliers recorded at elimination step k

	uColByStep [][]entry
	lStepBy    [][]entry
}

// NewFactorization returns an empty factorization ready for Factor.
func NewFactorization() *Factorization { return &Factorization{} }

func (f *Factorization) Dim() int { return f.dim }

// Factor performs a from-scratch exact Markowitz-ordered LU of the dim×dim
// matrix whose column j is cols[j]. Any nonzero entry in the active
// submatrix is an admissible pivot; ties break by minimum Markowitz cost,
// then by smallest original row index, mirroring package lu's choosePivot
// without the threshold gate.
func (f *Factorization) Factor(dim int, cols []Column) Status {
	f.dim = dim
	f.rowOrig = make([]int, dim)
	f.colOrig = make([]int, dim)
	f.rowPerm = make([]int, dim)
	f.colPerm = make([]int, dim)
	f.diag = make([]rational.R, dim)
	f.uRow = make([][]entry, dim)
	f.lCol = make([][]entry, dim)
	for i := range f.rowPerm {
		f.rowPerm[i] = -1
		f.colPerm[i] = -1
	}

	// active[row] is a map col -> value, and activeByCol[col] is the set of
	// rows currently holding a nonzero in that column; kept in lockstep.
	active := make([]map[int]rational.R, dim)
	activeByCol := make([]map[int]bool, dim)
	for i := 0; i < dim; i++ {
		active[i] = make(map[int]rational.R)
	}
	for c := 0; c < dim; c++ {
		activeByCol[c] = make(map[int]bool)
	}
	for j, c := range cols {
		for _, e := range c {
			if !e.Val.IsZero() {
				active[e.Row][j] = e.Val
				activeByCol[j][e.Row] = true
			}
		}
	}

	rowDone := make([]bool, dim)
	colDone := make([]bool, dim)

	for k := 0; k < dim; k++ {
		pr, pc, pv, ok := choosePivot(active, activeByCol, dim, rowDone, colDone)
		if !ok {
			return Singular
		}
		f.rowOrig[k] = pr
		f.colOrig[k] = pc
		f.diag[k] = pv

		var pivRow []entry
		for col, v := range active[pr] {
			if col != pc {
				pivRow = append(pivRow, entry{id: col, val: v})
			}
		}
		f.uRow[k] = pivRow

		var affected []int
		for row := range activeByCol[pc] {
			if row != pr {
				affected = append(affected, row)
			}
		}

		for _, r := range affected {
			rv := active[r][pc]
			factorMul := rv.Quo(pv)
			f.lCol[k] = append(f.lCol[k], entry{id: r, val: factorMul})
			for _, ue := range pivRow {
				cur := active[r][ue.id]
				nv := cur.Sub(factorMul.Mul(ue.val))
				if nv.IsZero() {
					delete(active[r], ue.id)
					delete(activeByCol[ue.id], r)
				} else {
					active[r][ue.id] = nv
					activeByCol[ue.id][r] = true
				}
			}
			delete(active[r], pc)
			delete(activeByCol[pc], r)
		}

		for _, ue := range pivRow {
			delete(active[pr], ue.id)
			delete(activeByCol[ue.id], pr)
		}
		rowDone[pr] = true
		colDone[pc] = true
	}

	for k := 0; k < dim; k++ {
		f.rowPerm[f.rowOrig[k]] = k
		f.colPerm[f.colOrig[k]] = k
	}
	f.buildTransposeStores()
	return OK
}

func choosePivot(active []map[int]rational.R, activeByCol []map[int]bool, dim int, rowDone, colDone []bool) (pr, pc int, pv rational.R, ok bool) {
	bestCost := -1
	bestRow, bestCol := -1, -1
	for c := 0; c < dim; c++ {
		if colDone[c] {
			continue
		}
		for row := range activeByCol[c] {
			if rowDone[row] {
				continue
			}
			v := active[row][c]
			if v.IsZero() {
				continue
			}
			cost := (len(active[row]) - 1) * (len(activeByCol[c]) - 1)
			if bestCost == -1 || cost < bestCost || (cost == bestCost && row < bestRow) {
				bestCost = cost
				bestRow, bestCol = row, c
				pv = v
			}
		}
	}
	if bestCost == -1 {
		return 0, 0, rational.Zero, false
	}
	return bestRow, bestCol, pv, true
}

func (f *Factorization) buildTransposeStores() {
	f.uColByStep = make([][]entry, f.dim)
	for k := 0; k < f.dim; k++ {
		for _, e := range f.uRow[k] {
			j := f.colPerm[e.id]
			f.uColByStep[j] = append(f.uColByStep[j], entry{id: k, val: e.val})
		}
	}
	f.lStepBy = make([][]entry, f.dim)
	for k := 0; k < f.dim; k++ {
		for _, e := range f.lCol[k] {
			m := f.rowPerm[e.id]
			f.lStepBy[k] = append(f.lStepBy[k], entry{id: m, val: e.val})
		}
	}
}

// SolveRight solves Bx=b exactly, x = U⁻¹L⁻¹Pb.
func (f *Factorization) SolveRight(b []rational.R) []rational.R {
	w := make([]rational.R, f.dim)
	copy(w, b)

	y := make([]rational.R, f.dim)
	for k := 0; k < f.dim; k++ {
		pr := f.rowOrig[k]
		yk := w[pr]
		y[k] = yk
		if !yk.IsZero() {
			for _, e := range f.lCol[k] {
				w[e.id] = w[e.id].Sub(e.val.Mul(yk))
			}
		}
	}

	x := make([]rational.R, f.dim)
	for k := f.dim - 1; k >= 0; k-- {
		sum := y[k]
		for _, e := range f.uRow[k] {
			j := f.colPerm[e.id]
			sum = sum.Sub(e.val.Mul(x[j]))
		}
		x[k] = sum.Quo(f.diag[k])
	}

	out := make([]rational.R, f.dim)
	for k := 0; k < f.dim; k++ {
		out[f.colOrig[k]] = x[k]
	}
	return out
}

// SolveLeft solves Bᵀy=c exactly.
func (f *Factorization) SolveLeft(c []rational.R) []rational.R {
	v := make([]rational.R, f.dim)
	copy(v, c)

	d := make([]rational.R, f.dim)
	for k := 0; k < f.dim; k++ {
		d[k] = v[f.colOrig[k]]
	}

	wOrd := make([]rational.R, f.dim)
	for k := 0; k < f.dim; k++ {
		sum := d[k]
		for _, e := range f.uColByStep[k] {
			sum = sum.Sub(e.val.Mul(wOrd[e.id]))
		}
		wOrd[k] = sum.Quo(f.diag[k])
	}

	zOrd := make([]rational.R, f.dim)
	for k := f.dim - 1; k >= 0; k-- {
		sum := wOrd[k]
		for _, e := range f.lStepBy[k] {
			sum = sum.Sub(e.val.Mul(zOrd[e.id]))
		}
		zOrd[k] = sum
	}

	y := make([]rational.R, f.dim)
	for k := 0; k < f.dim; k++ {
		y[f.rowOrig[k]] = zOrd[k]
	}
	return y
}
