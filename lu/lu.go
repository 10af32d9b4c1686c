// Package lu implements the sparse, permutation-aware LU factorization at
// the heart of the basis solver: Markowitz pivoting over doubly linked
// row/column rings, forward (Bx=b) and backward (Bᵀy=c) solves, and two
// update strategies, Forrest-Tomlin and Eta, chosen once per
// factorization and fixed for its lifetime.
package lu

import "math"

// Status is the outcome of a factorization or solve attempt.
type Status int

const (
	OK Status = iota
	Singular
	Error
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case Singular:
		return "SINGULAR"
	default:
		return "ERROR"
	}
}

// UpdateMode selects which rank-1 update strategy a Factorization uses.
type UpdateMode int

const (
	ModeForrestTomlin UpdateMode = iota
	ModeEta
)

// entry is a (column-or-row id, value) pair used in the U row/column store
// and the L column store. Indices are always *original* 0..dim-1 ids, never
// pivot-order positions; translation to pivot order happens once, in the
// post-pass that builds uCol/lStep after factor() completes.
type entry struct {
	id  int
	val float64
}

// etaUpdate is one post-factor rank-1 update, applied on top of the base LU
// in the order they were appended.
type etaUpdate struct {
	mode UpdateMode
	pos  int       // basis position replaced
	w    []float64 // Eta: solveRight(w) of the new column, dense, length dim
}

// Factorization is the sparse LU of an m×m nonsingular matrix, P·A·Q = L·U.
type Factorization struct {
	dim int

	// Base factorization (rebuilt from scratch on every Factor call).
	rowOrig []int // rowOrig[k] = original row pivoted at step k
	colOrig []int // colOrig[k] = original col pivoted at step k
	rowPerm []int // rowPerm[origRow] = pivot step k
	colPerm []int // colPerm[origCol] = pivot step k
	diag    []float64

	uRow [][]entry // uRow[k]: off-diagonal U entries (origCol,val) in row k
	lCol [][]entry // lCol[k]: multipliers (origRow,val) recorded at step k

	uColByStep [][]entry // uColByStep[j]: (step k<j, val) with U[k][colOrig[j]]=val
	lStepBy    [][]entry // lStepBy[k]: (step m>k, val) with L[rowOrig[m]][k]=val

	// Post-factor updates.
	mode          UpdateMode
	updates       []etaUpdate // ModeEta chain
	ftUpdateCount int         // ModeForrestTomlin counter (bump updates mutate U/L in place)
	maxUpdates    int
	threshold     float64
	epsFactor     float64
	initMaxabs    float64
	curMaxabs     float64
}

// NewFactorization constructs an empty factorization ready for Factor.
// threshold is the initial Markowitz pivot-admissibility ratio θ; mode is fixed for the lifetime of the
// returned Factorization.
func NewFactorization(mode UpdateMode, threshold, epsFactor float64, maxUpdates int) *Factorization {
	return &Factorization{mode: mode, threshold: threshold, epsFactor: epsFactor, maxUpdates: maxUpdates}
}

// Dim returns the matrix dimension of the current factorization.
func (f *Factorization) Dim() int { return f.dim }

// Threshold returns the current Markowitz pivot threshold θ.
func (f *Factorization) Threshold() float64 { return f.threshold }

// SetThreshold raises θ directly; used by betterThreshold.
func (f *Factorization) SetThreshold(t float64) { f.threshold = t }

// BetterThreshold walks the threshold escalation ladder: ×10 up to 0.1,
// then halve the distance to 1, finally clamp at 0.99999.
func (f *Factorization) BetterThreshold() {
	switch {
	case f.threshold < 0.1:
		f.threshold *= 10
		if f.threshold > 0.1 {
			f.threshold = 0.1
		}
	case f.threshold < 0.99999:
		f.threshold = f.threshold + (1-f.threshold)/2
		if f.threshold > 0.99999 {
			f.threshold = 0.99999
		}
	default:
		f.threshold = 0.99999
	}
}

// Stability is initMaxabs/maxabs, clamped to [0,1].
func (f *Factorization) Stability() float64 {
	if f.curMaxabs == 0 {
		return 1
	}
	s := f.initMaxabs / f.curMaxabs
	if s > 1 {
		s = 1
	}
	if s < 0 {
		s = 0
	}
	return s
}

// UpdateCount is the number of rank-1 updates applied since the last Factor,
// counted in whichever way this Factorization's fixed UpdateMode accrues
// them: Eta appends to the eta chain, Forrest-Tomlin mutates U/L in place
// and increments ftUpdateCount instead.
func (f *Factorization) UpdateCount() int {
	if f.mode == ModeEta {
		return len(f.updates)
	}
	return f.ftUpdateCount
}

// NeedsRefactor reports whether the update budget is exhausted.
func (f *Factorization) NeedsRefactor() bool { return f.UpdateCount() >= f.maxUpdates }

// Mode returns the fixed update strategy this Factorization was built with.
func (f *Factorization) Mode() UpdateMode { return f.mode }

// Factor performs a from-scratch sparse Markowitz LU of the dim×dim matrix
// whose column j is cols[j] (a sparse column given as (index,value) pairs).
// Returns Singular if no admissible pivot exists at some step.
func (f *Factorization) Factor(dim int, cols []Column) Status {
	f.dim = dim
	f.rowOrig = make([]int, dim)
	f.colOrig = make([]int, dim)
	f.rowPerm = make([]int, dim)
	f.colPerm = make([]int, dim)
	f.diag = make([]float64, dim)
	f.uRow = make([][]entry, dim)
	f.lCol = make([][]entry, dim)
	f.updates = nil
	f.ftUpdateCount = 0
	for i := range f.rowPerm {
		f.rowPerm[i] = -1
		f.colPerm[i] = -1
	}

	active := NewRing(dim)
	for j, c := range cols {
		for _, e := range c {
			active.Set(e.Row, j, e.Val)
		}
	}

	res, maxabs, ok := eliminate(active, dim, f.threshold, f.epsFactor)
	if !ok {
		return Singular
	}
	f.rowOrig, f.colOrig, f.diag, f.uRow, f.lCol = res.rowOrig, res.colOrig, res.diag, res.uRow, res.lCol
	for k := 0; k < dim; k++ {
		f.rowPerm[f.rowOrig[k]] = k
		f.colPerm[f.colOrig[k]] = k
	}
	f.initMaxabs = maxabs
	f.curMaxabs = maxabs

	f.buildTransposeStores()
	return OK
}

// elimResult is the product of a from-scratch Markowitz sweep over an
// n×n active ring: the pivot order and the row/column U-stores, all indexed
// by *local* ids of whatever ring was eliminated (the full matrix for
// Factor, a bump submatrix for Change).
type elimResult struct {
	rowOrig, colOrig []int
	diag             []float64
	uRow, lCol       [][]entry
}

// eliminate runs the Markowitz sweep to completion over active (an n×n
// ring), shared by Factor (the whole matrix) and Change (the
// Forrest-Tomlin bump's row-spike cancellation into U). Returns ok=false
// on singularity.
func eliminate(active *Ring, n int, threshold, epsFactor float64) (elimResult, float64, bool) {
	res := elimResult{
		rowOrig: make([]int, n),
		colOrig: make([]int, n),
		diag:    make([]float64, n),
		uRow:    make([][]entry, n),
		lCol:    make([][]entry, n),
	}
	maxabs := 0.0
	for c := 0; c < n; c++ {
		active.IterCol(c, func(_ int, v float64) {
			if a := math.Abs(v); a > maxabs {
				maxabs = a
			}
		})
	}

	rowDone := make([]bool, n)
	colDone := make([]bool, n)

	for k := 0; k < n; k++ {
		pr, pc, pv, ok := choosePivot(active, n, rowDone, colDone, threshold)
		if !ok {
			return res, maxabs, false
		}

		res.rowOrig[k] = pr
		res.colOrig[k] = pc
		res.diag[k] = pv

		var pivRow []entry
		active.IterRow(pr, func(col int, v float64) {
			if col != pc {
				pivRow = append(pivRow, entry{id: col, val: v})
			}
		})
		res.uRow[k] = pivRow

		var affected []int
		active.IterCol(pc, func(row int, _ float64) {
			if row != pr {
				affected = append(affected, row)
			}
		})

		for _, r := range affected {
			rv, _ := active.Get(r, pc)
			factorMul := rv / pv
			res.lCol[k] = append(res.lCol[k], entry{id: r, val: factorMul})
			for _, ue := range pivRow {
				cur, _ := active.Get(r, ue.id)
				nv := cur - factorMul*ue.val
				if math.Abs(nv) < epsFactor {
					nv = 0
				}
				active.Set(r, ue.id, nv)
				if a := math.Abs(nv); a > maxabs {
					maxabs = a
				}
			}
			active.Remove(r, pc)
		}

		for _, ue := range pivRow {
			active.Remove(pr, ue.id)
		}
		rowDone[pr] = true
		colDone[pc] = true
	}
	return res, maxabs, true
}

// Column is a sparse column supplied to Factor: an ordered list of (row,val)
// pairs. It intentionally mirrors vector.SV's shape without importing
// vector, so lu stays a leaf package with no dependency on the basis/LP
// layers above it.
type Column []ColEntry

type ColEntry struct {
	Row int
	Val float64
}

func choosePivot(active *Ring, dim int, rowDone, colDone []bool, threshold float64) (pr, pc int, pv float64, ok bool) {
	bestCost := -1
	bestRow, bestCol := -1, -1
	var bestVal float64
	for c := 0; c < dim; c++ {
		if colDone[c] {
			continue
		}
		active.IterCol(c, func(row int, v float64) {
			if rowDone[row] {
				return
			}
			rowMax := active.RowMax(row)
			if rowMax == 0 {
				return
			}
			if math.Abs(v) < threshold*rowMax {
				return
			}
			cost := (active.RowNNZ(row) - 1) * (active.ColNNZ(c) - 1)
			if bestCost == -1 || cost < bestCost || (cost == bestCost && row < bestRow) {
				bestCost = cost
				bestRow, bestCol, bestVal = row, c, v
			}
		})
	}
	if bestCost == -1 {
		return 0, 0, 0, false
	}
	return bestRow, bestCol, bestVal, true
}

// buildTransposeStores derives uColByStep and lStepBy from uRow/lCol once
// the full pivot order (rowPerm/colPerm) is known: the dual column-major
// view of U and the pivot-order view of L that solveLeft needs.
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
