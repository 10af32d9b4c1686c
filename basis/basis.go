// Package basis wraps package lu for the simplex engine: it owns the
// solve entry points the pivot loop drives every iteration, exposes the
// stability metric and refactor triggers, and lazily builds a rational
// basis factorization (package ratlu) for the exact-verification shortcut.
//
// The basis is always sparse; dense re-inversion per pivot is exactly what
// this adapter exists to avoid, replacing it with incremental LU solves
// and rank-1 updates.
package basis

import (
	"time"

	"simplexcore/lu"
	"simplexcore/ratlu"
	"simplexcore/vector"
)

// Adapter is the basis solver the simplex engine drives every iteration.
type Adapter struct {
	fact *lu.Factorization

	minStability float64

	rat       *ratlu.Factorization
	ratStale  bool
	ratBudget time.Duration
}

// New builds an Adapter with the given update mode, initial Markowitz
// threshold, factorization zero tolerance, update budget, and minimum
// stability.
func New(mode lu.UpdateMode, threshold, epsFactor float64, maxUpdates int, minStability float64, ratBudget time.Duration) *Adapter {
	return &Adapter{
		fact:         lu.NewFactorization(mode, threshold, epsFactor, maxUpdates),
		minStability: minStability,
		ratStale:     true,
		ratBudget:    ratBudget,
	}
}

// Refactor performs a from-scratch factorization of the given basis columns
//. Invalidates the rational factorization,
// since the basis composition may have changed since it was last built.
func (a *Adapter) Refactor(dim int, cols []lu.Column) lu.Status {
	st := a.fact.Factor(dim, cols)
	a.ratStale = true
	return st
}

// NeedsRefactor reports whether the update budget is exhausted or
// stability has fallen below minStability; either way the caller must
// refactor from scratch before the next solve.
func (a *Adapter) NeedsRefactor() bool {
	return a.fact.NeedsRefactor() || a.fact.Stability() < a.minStability
}

// RaiseThreshold escalates the Markowitz threshold one ladder step,
// called when NeedsRefactor is true due to stability loss.
func (a *Adapter) RaiseThreshold() { a.fact.BetterThreshold() }

func (a *Adapter) Stability() float64      { return a.fact.Stability() }
func (a *Adapter) Threshold() float64      { return a.fact.Threshold() }
func (a *Adapter) UpdateCount() int        { return a.fact.UpdateCount() }
func (a *Adapter) Dim() int                { return a.fact.Dim() }
func (a *Adapter) Mode() lu.UpdateMode     { return a.fact.Mode() }
func (a *Adapter) SolveRight(b []float64) []float64 { return a.fact.SolveRight(b) }
func (a *Adapter) SolveLeft(c []float64) []float64  { return a.fact.SolveLeft(c) }

// SolveRightSSV and SolveLeftSSV are the semi-sparse solve variants the
// pivot loop prefers: entering columns and phase-1 cost vectors are sparse,
// and a setup result lets the pricing dot products iterate the sparser
// side.
func (a *Adapter) SolveRightSSV(b *vector.SSV, eps float64) *vector.SSV {
	return a.fact.SolveRightSSV(b, eps)
}

func (a *Adapter) SolveLeftSSV(c *vector.SSV, eps float64) *vector.SSV {
	return a.fact.SolveLeftSSV(c, eps)
}

// Update applies a rank-1 basis change at position p with incoming column w
// (dense, dim-length), dispatching to whichever update strategy this
// Adapter's Factorization was built with. Marks the rational
// factorization stale: the next RationalFactorize call will rebuild it.
func (a *Adapter) Update(p int, w []float64) lu.Status {
	a.ratStale = true
	if a.fact.Mode() == lu.ModeEta {
		return a.fact.ChangeEta(p, w)
	}
	return a.fact.Change(p, w)
}

// RationalFactorize builds (or reuses, if not stale) the exact rational
// basis factorization, against a caller-supplied deadline. On timeout it
// returns ok=false; the caller (refine.Driver) treats this as a transient
// failure and continues without rational verification rather than
// propagating an error.
func (a *Adapter) RationalFactorize(dim int, cols []ratlu.Column, deadline time.Time) (ok bool, status ratlu.Status) {
	if !a.ratStale && a.rat != nil && a.rat.Dim() == dim {
		return true, ratlu.OK
	}
	if a.ratBudget > 0 && time.Now().Add(a.ratBudget).After(deadline) {
		// Not enough budget remains before the deadline to attempt a full
		// rational factorization; report as transient rather than blocking.
		return false, ratlu.OK
	}
	rf := ratlu.NewFactorization()
	st := rf.Factor(dim, cols)
	if st != ratlu.OK {
		return true, st // a genuine singularity is not a timeout; it is reported
	}
	a.rat = rf
	a.ratStale = false
	return true, ratlu.OK
}

// Rational returns the most recently built rational factorization, or nil
// if none has succeeded yet.
func (a *Adapter) Rational() *ratlu.Factorization { return a.rat }
