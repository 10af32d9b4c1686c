package lu

import "math"

// ChangeEta performs the Eta update: the new column w replaces basis
// position p. It appends an Eta column equal to solveRight(w)-e_p to L,
// leaving U untouched, and increases the update counter. Only valid on a
// Factorization built with ModeEta.
func (f *Factorization) ChangeEta(p int, w []float64) Status {
	if f.mode != ModeEta {
		return Error
	}
	what := f.SolveRight(w)
	if math.Abs(what[p]) < f.epsFactor {
		return Singular
	}
	f.updates = append(f.updates, etaUpdate{mode: ModeEta, pos: p, w: what})
	return OK
}

// Change performs the Forrest-Tomlin update: the new column w
// replaces basis position p. It solves L·w'=w (forward substitution through
// the base L only; Forrest-Tomlin never appends eta columns to L), then
// row-spike-cancels the result into U by re-triangularizing the "bump" of
// pivot steps from p's current step onward, exactly the classical
// Forrest & Tomlin (1972) bump update. Entries above the bump (steps before
// p's pivot step) simply get column p's new value — no elimination needed
// there, since a row's upper-triangular admissible columns are anything at
// or after its own step, and those rows sit before the bump. Only valid on
// a Factorization built with ModeForrestTomlin.
func (f *Factorization) Change(p int, w []float64) Status {
	if f.mode != ModeForrestTomlin {
		return Error
	}
	spike := f.solveBaseLOnly(w)
	kp := f.colPerm[p]
	if kp < 0 {
		return Error
	}

	for j := 0; j < kp; j++ {
		f.setURowEntry(j, p, spike[j])
	}

	bumpSize := f.dim - kp
	bumpRow := make([]int, bumpSize)
	bumpCol := make([]int, bumpSize)
	bumpCol[0] = p
	for i := 0; i < bumpSize; i++ {
		bumpRow[i] = f.rowOrig[kp+i]
	}
	for i := 1; i < bumpSize; i++ {
		bumpCol[i] = f.colOrig[kp+i]
	}

	active := NewRing(bumpSize)
	for i := 0; i < bumpSize; i++ {
		t := kp + i
		if v := spike[t]; v != 0 {
			active.Set(i, 0, v)
		}
		for _, e := range f.uRow[t] {
			localCol := f.colPerm[e.id] - kp
			active.Set(i, localCol, e.val)
		}
		if i > 0 {
			active.Set(i, i, f.diag[t])
		}
	}

	// The spike and the U rows are already reduced by the bump's old L
	// columns; multiply those back in so the bump is re-eliminated from
	// rows that only the steps before kp have touched.
	for t := f.dim - 1; t >= kp; t-- {
		var piv []entry
		active.IterRow(t-kp, func(c int, v float64) { piv = append(piv, entry{id: c, val: v}) })
		for _, e := range f.lCol[t] {
			r := f.rowPerm[e.id] - kp
			for _, pe := range piv {
				cur, _ := active.Get(r, pe.id)
				active.Set(r, pe.id, cur+e.val*pe.val)
			}
		}
	}

	res, maxabs, ok := eliminate(active, bumpSize, f.threshold, f.epsFactor)
	if !ok {
		return Singular
	}

	for i := 0; i < bumpSize; i++ {
		t := kp + i
		newRow := bumpRow[res.rowOrig[i]]
		newCol := bumpCol[res.colOrig[i]]
		f.rowOrig[t] = newRow
		f.colOrig[t] = newCol
		f.rowPerm[newRow] = t
		f.colPerm[newCol] = t
		f.diag[t] = res.diag[i]
		mappedURow := make([]entry, len(res.uRow[i]))
		for j, e := range res.uRow[i] {
			mappedURow[j] = entry{id: bumpCol[e.id], val: e.val}
		}
		f.uRow[t] = mappedURow
		mappedLCol := make([]entry, len(res.lCol[i]))
		for j, e := range res.lCol[i] {
			mappedLCol[j] = entry{id: bumpRow[e.id], val: e.val}
		}
		f.lCol[t] = mappedLCol
	}

	if maxabs > f.curMaxabs {
		f.curMaxabs = maxabs
	}
	f.buildTransposeStores()
	f.ftUpdateCount++
	return OK
}

// solveBaseLOnly computes w' = L⁻¹Pw (forward substitution through the base
// L only, stopping short of the U solve), in pivot-order coordinates. This
// is the "first solve L·w'=w" step of the Forrest-Tomlin update.
func (f *Factorization) solveBaseLOnly(b []float64) []float64 {
	w := make([]float64, f.dim)
	copy(w, b)
	y := make([]float64, f.dim)
	for k := 0; k < f.dim; k++ {
		pr := f.rowOrig[k]
		yk := w[pr]
		y[k] = yk
		if yk != 0 {
			for _, e := range f.lCol[k] {
				w[e.id] -= e.val * yk
			}
		}
	}
	return y
}

// setURowEntry sets (or removes, if v rounds to 0) the entry for original
// column col within step j's U row.
func (f *Factorization) setURowEntry(j, col int, v float64) {
	if math.Abs(v) < f.epsFactor {
		v = 0
	}
	row := f.uRow[j]
	for i, e := range row {
		if e.id == col {
			if v == 0 {
				f.uRow[j] = append(row[:i], row[i+1:]...)
			} else {
				row[i].val = v
			}
			return
		}
	}
	if v != 0 {
		f.uRow[j] = append(row, entry{id: col, val: v})
	}
}
