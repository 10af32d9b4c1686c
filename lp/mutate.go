package lp

import (
	"simplexcore/rational"
	"simplexcore/vector"
)

// ColCoeff is one (column,value) pair of a sparse row, the row-wise analogue
// of RatEntry. AddRow takes rows in this form because the LP stores its
// matrix column-wise.
type ColCoeff struct {
	Col int
	Val rational.R
}

func (lp *LP) rebuildColF(j int) {
	col := lp.ColsQ[j]
	idx := make([]int, len(col))
	val := make([]float64, len(col))
	for k, e := range col {
		idx[k] = e.Row
		val[k] = e.Val.Float64()
	}
	lp.ColsF[j] = vector.NewSV(idx, val)
}

// AddRow appends a row with the given sparse coefficients, sides, and side
// finiteness, returning its index. Entries must reference existing columns.
// Used by the refinement transforms and by the row-mutation half of the LP solver
// contract.
func (lp *LP) AddRow(entries []ColCoeff, lhs, rhs rational.R, loFinite, upFinite bool) int {
	i := len(lp.LhsQ)
	lp.LhsQ = append(lp.LhsQ, lhs)
	lp.RhsQ = append(lp.RhsQ, rhs)
	lp.LhsF = append(lp.LhsF, sentinelF(loFinite, lhs))
	lp.RhsF = append(lp.RhsF, sentinelUF(upFinite, rhs))
	lp.RowRange = append(lp.RowRange, RangeTypeOf(loFinite, upFinite, lhs, rhs))
	lp.RowBasis = append(lp.RowBasis, Basic)
	lp.RowObjF = append(lp.RowObjF, 0)
	for _, e := range entries {
		if !e.Val.IsZero() {
			lp.ColsQ[e.Col] = append(lp.ColsQ[e.Col], RatEntry{Row: i, Val: e.Val})
			lp.rebuildColF(e.Col)
		}
	}
	return i
}

// RemoveLastRows drops the k most recently added rows and every coefficient
// referencing them. Only the transforms call this, always in strict reverse
// order of their AddRow calls, so positional removal is sufficient.
func (lp *LP) RemoveLastRows(k int) {
	m := len(lp.LhsQ) - k
	lp.LhsQ = lp.LhsQ[:m]
	lp.RhsQ = lp.RhsQ[:m]
	lp.LhsF = lp.LhsF[:m]
	lp.RhsF = lp.RhsF[:m]
	lp.RowRange = lp.RowRange[:m]
	lp.RowBasis = lp.RowBasis[:m]
	lp.RowObjF = lp.RowObjF[:m]
	for j := range lp.ColsQ {
		trimmed := lp.ColsQ[j][:0]
		changed := false
		for _, e := range lp.ColsQ[j] {
			if e.Row < m {
				trimmed = append(trimmed, e)
			} else {
				changed = true
			}
		}
		lp.ColsQ[j] = trimmed
		if changed {
			lp.rebuildColF(j)
		}
	}
}

// RemoveLastCols drops the k most recently added columns.
func (lp *LP) RemoveLastCols(k int) {
	n := len(lp.ColsQ) - k
	lp.ColsQ = lp.ColsQ[:n]
	lp.ColsF = lp.ColsF[:n]
	lp.LowerQ = lp.LowerQ[:n]
	lp.UpperQ = lp.UpperQ[:n]
	lp.ObjQ = lp.ObjQ[:n]
	lp.LowerF = lp.LowerF[:n]
	lp.UpperF = lp.UpperF[:n]
	lp.ObjF = lp.ObjF[:n]
	lp.ColRange = lp.ColRange[:n]
	lp.ColBasis = lp.ColBasis[:n]
}

// SetObj changes column j's objective coefficient in both representations.
func (lp *LP) SetObj(j int, v rational.R) {
	lp.ObjQ[j] = v
	lp.ObjF[j] = v.Float64()
}

// SetBounds changes column j's bounds and re-derives its RangeType.
func (lp *LP) SetBounds(j int, lo, up rational.R, loFinite, upFinite bool) {
	lp.LowerQ[j], lp.UpperQ[j] = lo, up
	lp.ColRange[j] = RangeTypeOf(loFinite, upFinite, lo, up)
	lp.LowerF[j] = sentinelF(loFinite, lo)
	lp.UpperF[j] = sentinelUF(upFinite, up)
}

// SetCoeff changes the coefficient of column j in row i. A zero value
// removes the entry. The lifting transform is the main caller:
// it moves out-of-range entries from a structural column into its auxiliary.
func (lp *LP) SetCoeff(j, i int, v rational.R) {
	col := lp.ColsQ[j]
	found := false
	for k := range col {
		if col[k].Row == i {
			if v.IsZero() {
				lp.ColsQ[j] = append(col[:k], col[k+1:]...)
			} else {
				col[k].Val = v
			}
			found = true
			break
		}
	}
	if !found && !v.IsZero() {
		// keep row order sorted
		at := len(col)
		for k := range col {
			if col[k].Row > i {
				at = k
				break
			}
		}
		col = append(col, RatEntry{})
		copy(col[at+1:], col[at:])
		col[at] = RatEntry{Row: i, Val: v}
		lp.ColsQ[j] = col
	}
	lp.rebuildColF(j)
}

// Coeff returns the rational coefficient of column j in row i (zero if no
// entry).
func (lp *LP) Coeff(j, i int) rational.R {
	for _, e := range lp.ColsQ[j] {
		if e.Row == i {
			return e.Val
		}
	}
	return rational.Zero
}

// Snapshot is a deep copy of every piece of LP data a transform can touch:
// dimensions, coefficients, bounds, sides, objective, range types, basis
// statuses. Restore reverts to it wholesale, which is what makes the
// transform/untransform round-trip guarantee structural rather than
// something each transform must re-establish by hand.
type Snapshot struct {
	colsQ    []RatColumn
	lowerQ   []rational.R
	upperQ   []rational.R
	objQ     []rational.R
	lhsQ     []rational.R
	rhsQ     []rational.R
	colRange []RangeType
	rowRange []RangeType
	colBasis []BasisStatus
	rowBasis []BasisStatus
	sense    Sense
}

// Snapshot captures the current rational LP (the floating mirror is
// re-derived on Restore, never stored).
func (lp *LP) Snapshot() *Snapshot {
	s := &Snapshot{
		colsQ:    make([]RatColumn, len(lp.ColsQ)),
		lowerQ:   append([]rational.R(nil), lp.LowerQ...),
		upperQ:   append([]rational.R(nil), lp.UpperQ...),
		objQ:     append([]rational.R(nil), lp.ObjQ...),
		lhsQ:     append([]rational.R(nil), lp.LhsQ...),
		rhsQ:     append([]rational.R(nil), lp.RhsQ...),
		colRange: append([]RangeType(nil), lp.ColRange...),
		rowRange: append([]RangeType(nil), lp.RowRange...),
		colBasis: append([]BasisStatus(nil), lp.ColBasis...),
		rowBasis: append([]BasisStatus(nil), lp.RowBasis...),
		sense:    lp.Sense,
	}
	for j, c := range lp.ColsQ {
		s.colsQ[j] = append(RatColumn(nil), c...)
	}
	return s
}

// Restore reverts the LP to snap and resynchronizes the floating mirror.
func (lp *LP) Restore(snap *Snapshot) {
	n, m := len(snap.colsQ), len(snap.lhsQ)
	lp.ColsQ = make([]RatColumn, n)
	for j := range snap.colsQ {
		lp.ColsQ[j] = append(RatColumn(nil), snap.colsQ[j]...)
	}
	lp.LowerQ = append([]rational.R(nil), snap.lowerQ...)
	lp.UpperQ = append([]rational.R(nil), snap.upperQ...)
	lp.ObjQ = append([]rational.R(nil), snap.objQ...)
	lp.LhsQ = append([]rational.R(nil), snap.lhsQ...)
	lp.RhsQ = append([]rational.R(nil), snap.rhsQ...)
	lp.ColRange = append([]RangeType(nil), snap.colRange...)
	lp.RowRange = append([]RangeType(nil), snap.rowRange...)
	lp.ColBasis = append([]BasisStatus(nil), snap.colBasis...)
	lp.RowBasis = append([]BasisStatus(nil), snap.rowBasis...)
	lp.Sense = snap.sense

	lp.ColsF = make([]vector.SV, n)
	lp.LowerF = make([]float64, n)
	lp.UpperF = make([]float64, n)
	lp.ObjF = make([]float64, n)
	lp.LhsF = make([]float64, m)
	lp.RhsF = make([]float64, m)
	lp.RowObjF = make([]float64, m)
	lp.SyncFloat()
}
