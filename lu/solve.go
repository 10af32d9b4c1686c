package lu

// SolveRight computes x = U⁻¹L⁻¹P b for a dense right-hand side b, then
// applies any post-factor rank-1 updates in the order they were recorded.
func (f *Factorization) SolveRight(b []float64) []float64 {
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

	x := make([]float64, f.dim)
	for k := f.dim - 1; k >= 0; k-- {
		sum := y[k]
		for _, e := range f.uRow[k] {
			j := f.colPerm[e.id]
			sum -= e.val * x[j]
		}
		x[k] = sum / f.diag[k]
	}

	out := make([]float64, f.dim)
	for k := 0; k < f.dim; k++ {
		out[f.colOrig[k]] = x[k]
	}

	for _, u := range f.updates {
		applyEtaForward(out, u)
	}
	return out
}

// SolveLeft computes y = (Bᵀ)⁻¹ c for a dense right-hand side c, i.e. solves
// Bᵀy=c, undoing updates in reverse order first (they were
// applied last when building the forward basis, so they must be unwound
// first here) before solving against the base L and U.
func (f *Factorization) SolveLeft(c []float64) []float64 {
	v := make([]float64, f.dim)
	copy(v, c)
	for i := len(f.updates) - 1; i >= 0; i-- {
		applyEtaTransposeBackward(v, f.updates[i])
	}

	d := make([]float64, f.dim)
	for k := 0; k < f.dim; k++ {
		d[k] = v[f.colOrig[k]]
	}

	wOrd := make([]float64, f.dim)
	for k := 0; k < f.dim; k++ {
		sum := d[k]
		for _, e := range f.uColByStep[k] {
			sum -= e.val * wOrd[e.id]
		}
		wOrd[k] = sum / f.diag[k]
	}

	zOrd := make([]float64, f.dim)
	for k := f.dim - 1; k >= 0; k-- {
		sum := wOrd[k]
		for _, e := range f.lStepBy[k] {
			sum -= e.val * zOrd[e.id]
		}
		zOrd[k] = sum
	}

	y := make([]float64, f.dim)
	for k := 0; k < f.dim; k++ {
		y[f.rowOrig[k]] = zOrd[k]
	}
	return y
}

// applyEtaForward applies E_u⁻¹ to v in place: E_u = I + (w - e_p) e_p^T,
// the product-form-of-the-inverse update the Eta mode builds.
func applyEtaForward(v []float64, u etaUpdate) {
	t := v[u.pos] / u.w[u.pos]
	for i, wi := range u.w {
		if wi != 0 {
			v[i] -= t * wi
		}
	}
	v[u.pos] = t
}

// applyEtaTransposeBackward applies (E_u^T)⁻¹ to v in place. Solving
// E_u^T u = v gives u_i=v_i for every i≠pos unchanged, and
// u_pos = (v_pos - Σ_{i≠pos} w_i·v_i) / w_pos.
func applyEtaTransposeBackward(v []float64, u etaUpdate) {
	var dot float64
	for i, wi := range u.w {
		if i != u.pos && wi != 0 {
			dot += wi * v[i]
		}
	}
	v[u.pos] = (v[u.pos] - dot) / u.w[u.pos]
}
