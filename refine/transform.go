package refine

import (
	"simplexcore/lp"
	"simplexcore/rational"
	"simplexcore/solution"
)

// eqState records what applyEqTrans appended so it can be undone.
type eqState struct {
	rows      []int // inequality rows that were converted
	slackCols []int // slackCols[k] is the slack column of rows[k]
}

// applyEqTrans is the EQTRANS option: one slack column
// per inequality row makes every row an equality. Row i's lhs ≤ a·x ≤ rhs
// becomes a·x − s = 0 with s ∈ [lhs, rhs].
func (d *Driver) applyEqTrans() *eqState {
	st := &eqState{}
	m0 := d.L.NumRows()
	for i := 0; i < m0; i++ {
		rt := d.L.RowRange[i]
		if rt == lp.Fixed {
			continue
		}
		j := d.L.AddCol(
			lp.RatColumn{{Row: i, Val: rational.FromInt64(-1)}},
			d.L.LhsQ[i], d.L.RhsQ[i], rational.Zero,
			rt.FiniteLower(), rt.FiniteUpper())
		d.L.SetRow(i, rational.Zero, rational.Zero, true, true)
		st.rows = append(st.rows, i)
		st.slackCols = append(st.slackCols, j)
	}
	return st
}

// undoEqTrans maps the equality-form solution back: each converted row's
// activity is its slack column's value, the dual is unchanged, and the
// auxiliary columns are dropped.
func (d *Driver) undoEqTrans(st *eqState, sol *solution.Solution) {
	for k, i := range st.rows {
		sol.Slacks[i] = sol.Primal[st.slackCols[k]]
	}
	n0 := d.L.NumCols() - len(st.slackCols)
	sol.Primal = sol.Primal[:n0]
	sol.RedCost = sol.RedCost[:n0]
	if sol.HasPrimalRay {
		sol.PrimalRay = sol.PrimalRay[:n0]
	}
	d.L.RemoveLastCols(len(st.slackCols))
}

// liftState records the dimensions before lifting and the auxiliary
// columns, for the project step on undo.
type liftState struct {
	n0, m0 int
	cols   []int
}

// applyLifting rewrites badly scaled matrix entries through auxiliary
// variables: entries with magnitude above LIFTMAXVAL move
// into an auxiliary column z tied to the original column by the relation
// LIFTMAXVAL·x_j − z = 0, scaled down by LIFTMAXVAL; entries below
// LIFTMINVAL go through the symmetric divide-by-LIFTMINVAL auxiliary.
func (d *Driver) applyLifting() *liftState {
	st := &liftState{n0: d.L.NumCols(), m0: d.L.NumRows()}
	maxV := rational.FromFloat64(d.Params.LiftMaxVal)
	minV := rational.FromFloat64(d.Params.LiftMinVal)
	for j := 0; j < st.n0; j++ {
		d.liftColumn(j, maxV, st, true)
		d.liftColumn(j, minV, st, false)
	}
	return st
}

func (d *Driver) liftColumn(j int, scale rational.R, st *liftState, outsized bool) {
	var moved []lp.RatEntry
	for _, e := range d.L.ColsQ[j] {
		if e.Row >= st.m0 {
			continue // rows appended by an earlier lift
		}
		a := e.Val.Abs()
		if outsized && a.Cmp(scale) > 0 {
			moved = append(moved, e)
		}
		if !outsized && a.Sign() != 0 && a.Cmp(scale) < 0 {
			moved = append(moved, e)
		}
	}
	if len(moved) == 0 {
		return
	}
	zcol := make(lp.RatColumn, 0, len(moved))
	for _, e := range moved {
		zcol = append(zcol, lp.RatEntry{Row: e.Row, Val: e.Val.Quo(scale)})
	}
	z := d.L.AddCol(zcol, rational.Zero, rational.Zero, rational.Zero, false, false)
	for _, e := range moved {
		d.L.SetCoeff(j, e.Row, rational.Zero)
	}
	d.L.AddRow(
		[]lp.ColCoeff{{Col: j, Val: scale}, {Col: z, Val: rational.FromInt64(-1)}},
		rational.Zero, rational.Zero, true, true)
	st.cols = append(st.cols, z)
}

// undoLifting drops the auxiliary rows and columns and runs the project
// check: every lifting column's reduced cost must have
// vanished below the rational optimality tolerance.
func (d *Driver) undoLifting(st *liftState, sol *solution.Solution, status lp.Status) lp.Status {
	if status == lp.Optimal {
		opttol := rational.FromFloat64(d.Params.OptTol)
		for _, z := range st.cols {
			if z < len(sol.RedCost) && sol.RedCost[z].Abs().Cmp(opttol) > 0 {
				d.Log.Logf("lifting column %d kept reduced cost %v after projection", z, sol.RedCost[z])
				status = lp.Regular
			}
		}
	}
	sol.Primal = sol.Primal[:st.n0]
	sol.RedCost = sol.RedCost[:st.n0]
	sol.Slacks = sol.Slacks[:st.m0]
	sol.Dual = sol.Dual[:st.m0]
	if sol.HasPrimalRay {
		sol.PrimalRay = sol.PrimalRay[:st.n0]
	}
	if sol.HasDualFarkas && len(sol.DualFarkas) > st.m0 {
		sol.DualFarkas = sol.DualFarkas[:st.m0]
	}
	d.L.RemoveLastRows(d.L.NumRows() - st.m0)
	d.L.RemoveLastCols(d.L.NumCols() - st.n0)
	return status
}
