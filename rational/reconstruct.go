package rational

import "math/big"

// Reconstruct rounds v to the nearest rational whose denominator does not
// exceed denomBound, using the continued-fraction expansion of v: the
// convergents of a continued fraction are exactly the best rational
// approximations with bounded denominator, so truncating the expansion at
// the last convergent under the bound recovers the intended exact value
// whenever v is within the certification radius of it.
//
// Reconstructing a value whose denominator is already within the bound
// returns it unchanged, making the operation idempotent on exact inputs.
func Reconstruct(v R, denomBound *big.Int) (R, bool) {
	if denomBound == nil || denomBound.Sign() <= 0 {
		return Zero, false
	}
	if v.v.Denom().Cmp(denomBound) <= 0 {
		return v, true
	}

	p := new(big.Int).Set(v.v.Num())
	q := new(big.Int).Set(v.v.Denom())
	neg := p.Sign() < 0
	if neg {
		p.Neg(p)
	}

	// Convergent recurrences h_k = a_k h_{k-1} + h_{k-2}, same for k_k.
	hPrev2, hPrev1 := big.NewInt(0), big.NewInt(1)
	kPrev2, kPrev1 := big.NewInt(1), big.NewInt(0)

	for q.Sign() != 0 {
		a, r := new(big.Int).QuoRem(p, q, new(big.Int))
		h := new(big.Int).Add(new(big.Int).Mul(a, hPrev1), hPrev2)
		k := new(big.Int).Add(new(big.Int).Mul(a, kPrev1), kPrev2)
		if k.Cmp(denomBound) > 0 {
			break
		}
		hPrev2, hPrev1 = hPrev1, h
		kPrev2, kPrev1 = kPrev1, k
		p, q = q, r
	}
	if kPrev1.Sign() == 0 {
		return Zero, false
	}
	out := new(big.Rat).SetFrac(hPrev1, kPrev1)
	if neg {
		out.Neg(out)
	}
	return FromRat(out), true
}
