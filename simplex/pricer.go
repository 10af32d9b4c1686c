package simplex

import "simplexcore/lp"

// Candidate is one nonbasic variable eligible to enter the basis: its id,
// the direction it would move (+1 increasing off a lower/zero bound, -1
// decreasing off an upper/zero bound), and its reduced cost.
//
// Candidates are pre-filtered: only variables whose reduced cost actually
// improves the objective in some admissible direction appear in the
// slice, so a pricer never needs to re-test improvement, only to rank.
type Candidate struct {
	ID  int
	Dir float64
	D   float64
}

// Pricer ranks entering candidates. It is modeled as a sum type over the
// known variants (PricerKind selects one) rather than open-ended
// subclassing.
type Pricer interface {
	// Select picks one improving candidate, or ok=false if cands is
	// empty.
	Select(cands []Candidate) (id int, dir float64, ok bool)
}

// NewPricer builds the concrete Pricer for kind. ParMult (partial
// multiple pricing) is not separately implemented and falls back to
// Dantzig.
func NewPricer(kind lp.PricerKind) Pricer {
	switch kind {
	case lp.Steep:
		return &SteepestEdgePricer{weights: map[int]float64{}}
	case lp.Devex:
		return &DevexPricer{weights: map[int]float64{}}
	default:
		return DantzigPricer{}
	}
}

// DantzigPricer selects the candidate with the largest |reduced cost|,
// the classical most-negative-reduced-cost rule: a one-line, no-state
// default.
type DantzigPricer struct{}

func (DantzigPricer) Select(cands []Candidate) (int, float64, bool) {
	if len(cands) == 0 {
		return 0, 0, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if absf(c.D) > absf(best.D) {
			best = c
		}
	}
	return best.ID, best.Dir, true
}

// DevexPricer approximates steepest-edge pricing
// with Devex reference weights (Forrest & Goldfarb 1992): candidate j is
// scored by d_j^2/w_j, and after each pivot the weights of variables whose
// column shares support with the pivot column are updated multiplicatively.
// This implementation keeps the scoring rule but simplifies weight updates
// to a decay-towards-1 scheme rather than full column-overlap tracking,
// since the engine does not expose per-column nonzero-support sets to the
// pricer — a deliberate simplification, not a different algorithm family.
type DevexPricer struct {
	weights map[int]float64
}

func (p *DevexPricer) weight(id int) float64 {
	if w, ok := p.weights[id]; ok {
		return w
	}
	return 1
}

func (p *DevexPricer) Select(cands []Candidate) (int, float64, bool) {
	if len(cands) == 0 {
		return 0, 0, false
	}
	best := cands[0]
	bestScore := best.D * best.D / p.weight(best.ID)
	for _, c := range cands[1:] {
		score := c.D * c.D / p.weight(c.ID)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	// Reference-weight decay: the chosen variable's weight resets towards
	// 1 (it is about to become basic, so its nonbasic weight is retired);
	// every other live candidate nudges towards the pivot's relative
	// magnitude, approximating the true Devex update's qualitative effect.
	for _, c := range cands {
		if c.ID == best.ID {
			p.weights[c.ID] = 1
			continue
		}
		w := p.weight(c.ID)
		if cand := bestScore / (1 + w); cand > w {
			p.weights[c.ID] = cand
		}
	}
	return best.ID, best.Dir, true
}

// SteepestEdgePricer scores candidates by d_j^2/||B^-1 A_j||^2 in spirit;
// lacking a cheap incremental norm estimate in this engine, it uses the
// same Devex-style weight table.
type SteepestEdgePricer struct {
	weights map[int]float64
}

func (p *SteepestEdgePricer) Select(cands []Candidate) (int, float64, bool) {
	d := &DevexPricer{weights: p.weights}
	return d.Select(cands)
}

// blandSelect implements Bland's anti-cycling rule: the smallest-id
// candidate is always chosen, regardless of reduced cost magnitude. Used by
// the engine only once its degenerate-pivot counter trips; guarantees finite termination at the cost of speed.
func blandSelect(cands []Candidate) (int, float64, bool) {
	if len(cands) == 0 {
		return 0, 0, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.ID < best.ID {
			best = c
		}
	}
	return best.ID, best.Dir, true
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
