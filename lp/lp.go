// Package lp is the coupled LP data model: a single container holding the
// rational LP L_q and its floating mirror L_f with parallel coefficient
// storage, plus RangeType, BasisStatus, the solve status taxonomy, and the
// flat Params tunable struct.
//
// The two LPs live in one container rather than as two independent objects
// because the refinement driver needs both representations in lockstep at
// every iteration; a single container eliminates the synchronization code
// two objects would need.
package lp

import (
	"simplexcore/rational"
	"simplexcore/vector"
)

// Sense is the optimization direction the caller declared.
type Sense int

const (
	Maximize Sense = iota
	Minimize
)

// RangeType classifies a bound pair by finiteness. It must agree
// with the finiteness of the corresponding bounds; FiniteLower/FiniteUpper
// below are the only sanctioned way to test finiteness outside IO.
type RangeType int

const (
	Free RangeType = iota
	Lower
	Upper
	Boxed
	Fixed
)

// RangeTypeOf classifies a (lower,upper) pair given as rationals with
// loFinite/upFinite flags (callers at the IO boundary are the only
// ones allowed to derive these from ±infinity sentinels).
func RangeTypeOf(loFinite, upFinite bool, lo, up rational.R) RangeType {
	switch {
	case !loFinite && !upFinite:
		return Free
	case loFinite && !upFinite:
		return Lower
	case !loFinite && upFinite:
		return Upper
	case loFinite && upFinite && lo.Cmp(up) == 0:
		return Fixed
	default:
		return Boxed
	}
}

func (rt RangeType) FiniteLower() bool { return rt == Lower || rt == Boxed || rt == Fixed }
func (rt RangeType) FiniteUpper() bool { return rt == Upper || rt == Boxed || rt == Fixed }

// BasisStatus is the per-row/per-column basis status. Exactly m items
// (across rows and columns together) must carry Basic in a valid basis
// descriptor.
type BasisStatus int

const (
	Undefined BasisStatus = iota
	Basic
	OnLower
	OnUpper
	FixedAt
	ZeroAt
)

// Status is the outward solve result taxonomy.
type Status int

const (
	Unknown Status = iota
	NoProblem
	Regular
	Running
	Optimal
	Infeasible
	Unbounded
	INForUNBD
	AbortTime
	AbortIter
	AbortValue
	AbortCycling
	Singular
	Error
)

func (s Status) String() string {
	switch s {
	case NoProblem:
		return "NO_PROBLEM"
	case Regular:
		return "REGULAR"
	case Running:
		return "RUNNING"
	case Optimal:
		return "OPTIMAL"
	case Infeasible:
		return "INFEASIBLE"
	case Unbounded:
		return "UNBOUNDED"
	case INForUNBD:
		return "INForUNBD"
	case AbortTime:
		return "ABORT_TIME"
	case AbortIter:
		return "ABORT_ITER"
	case AbortValue:
		return "ABORT_VALUE"
	case AbortCycling:
		return "ABORT_CYCLING"
	case Singular:
		return "SINGULAR"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Infty is the floating infinity sentinel, ±1e100 in the floating LP.
// It must never be mixed with machine-ε comparisons; finiteness checks go
// through RangeType instead, except at IO boundaries.
const Infty = 1e100

// RatEntry is one (row,value) pair of a rational sparse column.
type RatEntry struct {
	Row int
	Val rational.R
}

// RangeType/Representation enums for the simplex engine.
type Representation int

const (
	Column Representation = iota
	Row
)

type Algorithm int

const (
	Enter Algorithm = iota
	Leave
)

type RatioTesterKind int

const (
	Textbook RatioTesterKind = iota
	Fast
	BoundFlipping
)

type PricerKind int

const (
	Devex PricerKind = iota
	Steep
	ParMult
)

type SimplifierKind int

const (
	SimplifierOff SimplifierKind = iota
	SimplifierInternal
)

type ScalerKind int

const (
	ScalerOff ScalerKind = iota
	ScalerBiequi
)

type SyncMode int

const (
	Auto SyncMode = iota
	Manual
)

// Params is the flat tunable struct. Configuration parsing lives outside
// this module; callers fill the struct directly.
type Params struct {
	Representation Representation
	Algorithm      Algorithm
	RatioTester    RatioTesterKind
	Pricer         PricerKind
	Simplifier     SimplifierKind
	Scaler         ScalerKind

	EqTrans      bool
	Lifting      bool
	RatFac       bool
	RatFacJump   bool
	RatFacMinIts int
	RatRec       bool
	RatRecFreq   float64
	PowerScaling bool
	ForceBasic   bool
	TestDualInf  bool
	AcceptCycle  bool

	FPFeasTol float64
	FPOptTol  float64
	FeasTol   float64
	OptTol    float64

	ObjLimitLower float64
	ObjLimitUpper float64
	Infty         float64

	LiftMaxVal float64
	LiftMinVal float64

	ObjSense Sense
	SyncMode SyncMode

	MaxUpdates  int
	MinStabilty float64
	MinThresh   float64

	MaxCycle int

	ImprovementFactor float64
	DenomBoundSquared int64
}

// DefaultParams returns the standard numeric defaults: Markowitz
// threshold 0.01, improvementFactor 16, maxCycle 100.
func DefaultParams() Params {
	return Params{
		Representation: Column,
		Algorithm:      Enter,
		RatioTester:    Fast,
		Pricer:         Devex,
		Simplifier:     SimplifierOff,
		Scaler:         ScalerOff,

		EqTrans:      false,
		Lifting:      true,
		RatFac:       true,
		RatFacJump:   false,
		RatFacMinIts: 1,
		RatRec:       true,
		RatRecFreq:   10,
		PowerScaling: false,
		ForceBasic:   false,
		TestDualInf:  false,
		AcceptCycle:  false,

		FPFeasTol: 1e-6,
		FPOptTol:  1e-6,
		FeasTol:   1e-9,
		OptTol:    1e-9,

		ObjLimitLower: -Infty,
		ObjLimitUpper: Infty,
		Infty:         Infty,

		LiftMaxVal: 1e6,
		LiftMinVal: 1e-6,

		ObjSense: Maximize,
		SyncMode: Auto,

		MaxUpdates:  50,
		MinStabilty: 1e-8,
		MinThresh:   0.01,

		MaxCycle: 100,

		ImprovementFactor: 16,
		DenomBoundSquared: 1 << 40,
	}
}

// LP is the coupled rational/floating linear program:
//
//	maximize/minimize  obj · x
//	subject to         lhs <= A x <= rhs
//	                    lower <= x <= upper
//
// stored once in rational.R (the source of truth, L_q) and once mirrored in
// float64 (L_f, derived and kept in sync at solve entry/each refinement
// round). Column j's coefficients live in ColsQ[j] (rational sparse) and
// ColsF[j] (floating sparse, with the ±1e100 sentinel convention).
type LP struct {
	Sense Sense

	// Column data.
	ColsQ    []RatColumn
	ColsF    []vector.SV
	LowerQ   []rational.R
	UpperQ   []rational.R
	ObjQ     []rational.R
	LowerF   []float64
	UpperF   []float64
	ObjF     []float64
	ColRange []RangeType
	ColBasis []BasisStatus

	// Row data.
	LhsQ     []rational.R
	RhsQ     []rational.R
	LhsF     []float64
	RhsF     []float64
	RowRange []RangeType
	RowBasis []BasisStatus
	RowObjF  []float64 // transient per-row objective injected during refinement

	Params Params
}

// RatColumn is a sparse rational column, index-sorted, no explicit zeros.
type RatColumn []RatEntry

// NumRows and NumCols report the current dimensions.
func (lp *LP) NumRows() int { return len(lp.LhsQ) }
func (lp *LP) NumCols() int { return len(lp.ColsQ) }

// New builds an empty m-row LP, ready for AddCol calls.
func New(m int, sense Sense, params Params) *LP {
	return &LP{
		Sense:    sense,
		LhsQ:     make([]rational.R, m),
		RhsQ:     make([]rational.R, m),
		LhsF:     make([]float64, m),
		RhsF:     make([]float64, m),
		RowRange: make([]RangeType, m),
		RowBasis: make([]BasisStatus, m),
		RowObjF:  make([]float64, m),
		Params:   params,
	}
}

// SetRow sets row i's sides and range type; loFinite/upFinite classify the
// sentinel.
func (lp *LP) SetRow(i int, lhs, rhs rational.R, loFinite, upFinite bool) {
	lp.LhsQ[i], lp.RhsQ[i] = lhs, rhs
	lp.RowRange[i] = RangeTypeOf(loFinite, upFinite, lhs, rhs)
	lp.LhsF[i] = sentinelF(loFinite, lhs)
	lp.RhsF[i] = sentinelUF(upFinite, rhs)
}

// AddCol appends a column given its sparse coefficients (sorted, nonzero),
// bounds, and objective coefficient.
func (lp *LP) AddCol(coeffs RatColumn, lower, upper, obj rational.R, loFinite, upFinite bool) int {
	j := len(lp.ColsQ)
	lp.ColsQ = append(lp.ColsQ, coeffs)
	lp.LowerQ = append(lp.LowerQ, lower)
	lp.UpperQ = append(lp.UpperQ, upper)
	lp.ObjQ = append(lp.ObjQ, obj)
	lp.ColRange = append(lp.ColRange, RangeTypeOf(loFinite, upFinite, lower, upper))
	lp.ColBasis = append(lp.ColBasis, OnLower)

	fCol := make([]float64, len(coeffs))
	idx := make([]int, len(coeffs))
	for k, e := range coeffs {
		idx[k] = e.Row
		fCol[k] = e.Val.Float64()
	}
	lp.ColsF = append(lp.ColsF, vector.NewSV(idx, fCol))
	lp.LowerF = append(lp.LowerF, sentinelF(loFinite, lower))
	lp.UpperF = append(lp.UpperF, sentinelUF(upFinite, upper))
	lp.ObjF = append(lp.ObjF, obj.Float64())
	return j
}

func sentinelF(finite bool, v rational.R) float64 {
	if !finite {
		return -Infty
	}
	return v.Float64()
}

func sentinelUF(finite bool, v rational.R) float64 {
	if !finite {
		return Infty
	}
	return v.Float64()
}

// SyncFloat recomputes every ColsF/LowerF/UpperF/ObjF/LhsF/RhsF entry from
// the rational source of truth, used at solve entry and whenever a
// transform has edited L_q directly.
func (lp *LP) SyncFloat() {
	for j := range lp.ColsQ {
		fCol := make([]float64, len(lp.ColsQ[j]))
		idx := make([]int, len(lp.ColsQ[j]))
		for k, e := range lp.ColsQ[j] {
			idx[k] = e.Row
			fCol[k] = e.Val.Float64()
		}
		lp.ColsF[j] = vector.NewSV(idx, fCol)
		lp.LowerF[j] = sentinelF(lp.ColRange[j].FiniteLower(), lp.LowerQ[j])
		lp.UpperF[j] = sentinelUF(lp.ColRange[j].FiniteUpper(), lp.UpperQ[j])
		lp.ObjF[j] = lp.ObjQ[j].Float64()
	}
	for i := range lp.LhsQ {
		lp.LhsF[i] = sentinelF(lp.RowRange[i].FiniteLower(), lp.LhsQ[i])
		lp.RhsF[i] = sentinelUF(lp.RowRange[i].FiniteUpper(), lp.RhsQ[i])
	}
}

// BasicCount returns the number of Basic-status rows plus columns, which
// must equal NumRows() exactly for a valid basis.
func (lp *LP) BasicCount() int {
	n := 0
	for _, s := range lp.RowBasis {
		if s == Basic {
			n++
		}
	}
	for _, s := range lp.ColBasis {
		if s == Basic {
			n++
		}
	}
	return n
}
