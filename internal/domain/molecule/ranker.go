package molecule

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// DefaultNeighborCount is the number of neighbor slots per pair row.
const DefaultNeighborCount = 10

// ─────────────────────────────────────────────────────────────────────────────
// Metric mode
// ─────────────────────────────────────────────────────────────────────────────

// MetricMode selects how a candidate atom's distance to the pair is scored.
type MetricMode string

const (
	// ModeMassWeighted scales each candidate's virtual center-of-mass offset
	// by combined/candidate mass, so heavier atoms rank nearer.  The offset
	// is taken from the pair center, not the origin, so the scores do not
	// change when the molecule is translated.
	ModeMassWeighted MetricMode = "mass-weighted"

	// ModeUnscaled uses the raw offset between the pair center and the
	// virtual center of mass.  Kept to reproduce earlier feature files.
	ModeUnscaled MetricMode = "unscaled"
)

// ParseMetricMode accepts the mode names plus the aliases "weighted" and
// "legacy".  The empty string selects ModeMassWeighted.
func ParseMetricMode(s string) (MetricMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeMassWeighted), "weighted":
		return ModeMassWeighted, nil
	case string(ModeUnscaled), "legacy":
		return ModeUnscaled, nil
	}
	return "", errors.InvalidParam("unknown metric mode").WithDetailf("mode=%q", s)
}

// ─────────────────────────────────────────────────────────────────────────────
// Results
// ─────────────────────────────────────────────────────────────────────────────

// Neighbor is a ranked candidate atom.
type Neighbor struct {
	Index        int
	Symbol       string
	AtomicNumber int
	Distance     float64
}

// Ranking is the ranker's output for one atom pair.
type Ranking struct {
	AtomA, AtomB Atom
	// PairCenter is the two-atom center of mass used as the reference point.
	PairCenter r3.Vec
	// PairDistance is the plain Euclidean distance between the pair's atoms.
	PairDistance float64
	// Neighbors holds at most K entries ordered by ascending Distance, ties
	// broken by ascending atom index.
	Neighbors []Neighbor
}

// ─────────────────────────────────────────────────────────────────────────────
// Ranker
// ─────────────────────────────────────────────────────────────────────────────

// Ranker ranks every other atom of a molecule against an atom pair.  It holds
// no mutable state and is safe for concurrent use.
type Ranker struct {
	k    int
	mode MetricMode
}

// NewRanker returns a ranker keeping the k nearest candidates.
func NewRanker(k int, mode MetricMode) (*Ranker, error) {
	if k < 1 {
		return nil, errors.InvalidParam("neighbor count must be at least 1").WithDetailf("k=%d", k)
	}
	if mode != ModeMassWeighted && mode != ModeUnscaled {
		return nil, errors.InvalidParam("unknown metric mode").WithDetailf("mode=%q", mode)
	}
	return &Ranker{k: k, mode: mode}, nil
}

// K returns the neighbor slot count.
func (r *Ranker) K() int { return r.k }

// Mode returns the metric mode.
func (r *Ranker) Mode() MetricMode { return r.mode }

// Rank scores every atom of m other than a and b and returns the k nearest.
// Out-of-range or identical indices yield a PAIR_* error and no ranking.
func (r *Ranker) Rank(m *Molecule, a, b int) (Ranking, error) {
	if err := checkPair(m, a, b); err != nil {
		return Ranking{}, err
	}
	atomA, atomB := m.atoms[a], m.atoms[b]

	center := WeightedMidpoint(atomA.Mass, atomA.Position, atomB.Mass, atomB.Position)
	combined := (atomA.Mass + atomB.Mass) / 2

	candidates := make([]Neighbor, 0, len(m.atoms))
	for _, c := range m.atoms {
		if c.Index == a || c.Index == b {
			continue
		}
		candidates = append(candidates, Neighbor{
			Index:        c.Index,
			Symbol:       c.Symbol,
			AtomicNumber: c.AtomicNumber,
			Distance:     r.metric(center, combined, c),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].Index < candidates[j].Index
	})
	if len(candidates) > r.k {
		candidates = candidates[:r.k]
	}

	return Ranking{
		AtomA:        atomA,
		AtomB:        atomB,
		PairCenter:   center,
		PairDistance: Distance(atomA.Position, atomB.Position),
		Neighbors:    candidates,
	}, nil
}

// metric mixes the pair center (carrying the pair's mean mass) with the
// candidate and measures how far the resulting virtual center moved.  In
// mass-weighted mode that offset is rescaled about the pair center by
// combined/candidate mass before measuring.
func (r *Ranker) metric(center r3.Vec, combined float64, c Atom) float64 {
	virtual := WeightedMidpoint(combined, center, c.Mass, c.Position)
	offset := r3.Sub(virtual, center)
	if r.mode == ModeMassWeighted {
		offset = r3.Scale(combined/c.Mass, offset)
	}
	return r3.Norm(offset)
}

func checkPair(m *Molecule, a, b int) error {
	n := len(m.atoms)
	for _, idx := range [2]int{a, b} {
		if idx < 0 || idx >= n {
			return errors.New(errors.ErrCodeAtomIndexOutOfRange, "atom index out of range").
				WithDetail(fmt.Sprintf("molecule=%s index=%d atoms=%d", m.id, idx, n))
		}
	}
	if a == b {
		return errors.New(errors.ErrCodeDegeneratePair, "pair references the same atom twice").
			WithDetail(fmt.Sprintf("molecule=%s index=%d", m.id, a))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Geometry
// ─────────────────────────────────────────────────────────────────────────────

// WeightedMidpoint returns the center of mass of two point masses.  The
// expression is symmetric in its two (mass, position) arguments, bit for bit.
func WeightedMidpoint(m1 float64, c1 r3.Vec, m2 float64, c2 r3.Vec) r3.Vec {
	return r3.Scale(1/(m1+m2), r3.Add(r3.Scale(m1, c1), r3.Scale(m2, c2)))
}

// Distance is the Euclidean distance between p and q.
func Distance(p, q r3.Vec) float64 {
	return r3.Norm(r3.Sub(p, q))
}

//Personal.AI order the ending
