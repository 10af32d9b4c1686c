// Package rational provides the arbitrary-precision rational scalar R used
// throughout simplexcore wherever a result must be exact: LP data, basic
// solutions, Farkas/unbounded certificates, and the rational LU factors.
//
// R is a thin value-semantics wrapper over math/big.Rat. Arbitrary precision
// rules out any fixed-width rational type: the numerator and
// denominator of an LP's exact optimum can grow without bound across
// refinement rounds, so only an unbounded big.Int-backed representation is
// correct here.
package rational

import (
	"fmt"
	"math"
	"math/big"
)

// R is an arbitrary-precision rational number. The zero value is 0/1 and is
// ready to use.
type R struct {
	v big.Rat
}

// Zero is the additive identity.
var Zero = R{}

// One is the multiplicative identity.
var One = FromInt64(1)

// FromInt64 builds an exact integer rational.
func FromInt64(n int64) R {
	var r R
	r.v.SetInt64(n)
	return r
}

// FromFloat64 captures the exact binary value of f (not a decimal
// approximation of it).
func FromFloat64(f float64) R {
	var r R
	if math.IsInf(f, 0) || math.IsNaN(f) {
		panic(fmt.Sprintf("rational: cannot represent %v exactly", f))
	}
	r.v.SetFloat64(f)
	return r
}

// FromInts builds num/den, reducing it. Panics if den is zero.
func FromInts(num, den int64) R {
	var r R
	r.v.SetFrac64(num, den)
	return r
}

// Float64 returns the nearest double to the exact value, with the usual
// round-to-even on ties.
func (r R) Float64() float64 {
	f, _ := r.v.Float64()
	return f
}

// Rat exposes the underlying big.Rat for callers (continued-fraction
// reconstruction, LU pivoting) that need direct big.Int access. The returned
// value must not be mutated.
func (r R) Rat() *big.Rat { return &r.v }

// FromRat wraps an existing big.Rat by value (copies it).
func FromRat(v *big.Rat) R {
	var r R
	r.v.Set(v)
	return r
}

func (r R) Add(o R) R { var z R; z.v.Add(&r.v, &o.v); return z }
func (r R) Sub(o R) R { var z R; z.v.Sub(&r.v, &o.v); return z }
func (r R) Mul(o R) R { var z R; z.v.Mul(&r.v, &o.v); return z }

// Quo divides r by o. Panics if o is zero, matching big.Rat's own contract.
func (r R) Quo(o R) R { var z R; z.v.Quo(&r.v, &o.v); return z }

func (r R) Neg() R { var z R; z.v.Neg(&r.v); return z }

// Invert returns 1/r. Panics if r is zero.
func (r R) Invert() R { var z R; z.v.Inv(&r.v); return z }

// Abs returns the absolute value of r.
func (r R) Abs() R {
	if r.Sign() < 0 {
		return r.Neg()
	}
	return r
}

// Sign returns -1, 0, or 1.
func (r R) Sign() int { return r.v.Sign() }

// Cmp returns -1, 0, or 1 as r is less than, equal to, or greater than o.
func (r R) Cmp(o R) int { return r.v.Cmp(&o.v) }

func (r R) IsZero() bool { return r.v.Sign() == 0 }

func (r R) LessThan(o R) bool    { return r.Cmp(o) < 0 }
func (r R) GreaterThan(o R) bool { return r.Cmp(o) > 0 }

// Min returns the smaller of r and o.
func Min(r, o R) R {
	if r.Cmp(o) <= 0 {
		return r
	}
	return o
}

// Max returns the larger of r and o.
func Max(r, o R) R {
	if r.Cmp(o) >= 0 {
		return r
	}
	return o
}

// PowRound returns the largest integer power of two not exceeding |r|,
// carrying r's sign, as an exact rational: PowRound(12) = 8,
// PowRound(1/3) = 1/4, PowRound(0) = 0.
//
// This backs the POWERSCALING tunable: scaling factors rounded down to a
// power of two multiply IEEE doubles without precision loss, which keeps
// the refinement driver's lift-back step exact even though it runs over
// doubles.
func (r R) PowRound() R {
	if r.IsZero() {
		return Zero
	}
	sign := r.Sign()
	a := r.Abs()

	one := big.NewInt(1)
	two := big.NewInt(2)
	if a.Cmp(One) >= 0 {
		// a >= 1: find largest k with 2^k <= a.
		pow := new(big.Int).Set(one)
		k := 0
		for {
			next := new(big.Int).Mul(pow, two)
			cand := new(big.Rat).SetInt(next)
			if cand.Cmp(&a.v) > 0 {
				break
			}
			pow = next
			k++
			if k > 4096 {
				break // pathological input guard, not a normal code path
			}
		}
		out := FromRat(new(big.Rat).SetInt(pow))
		if sign < 0 {
			return out.Neg()
		}
		return out
	}
	// a < 1: find smallest k with 2^-k <= a, i.e. largest denominator power.
	den := new(big.Int).Set(one)
	for new(big.Rat).SetFrac(one, den).Cmp(&a.v) > 0 {
		den = new(big.Int).Mul(den, two)
	}
	out := FromRat(new(big.Rat).SetFrac(one, den))
	if sign < 0 {
		return out.Neg()
	}
	return out
}

func (r R) String() string { return r.v.RatString() }
