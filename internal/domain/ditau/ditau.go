// Package ditau cross-cleans a jet collection against a pair of tau
// candidates for VBF di-tau triggers.
//
// A jet pair (j1, j2) is kept when its invariant mass reaches mjjMin and at
// least one tau pair (t1, t2) exists whose members are both separated from
// both jets by at least dRmin, with at least one of them above the leading
// tau pt cut. The four objects are therefore distinct.
package ditau

import (
	"sort"

	"github.com/okian/hltjet/internal/domain/model"
	"github.com/okian/hltjet/internal/domain/physics"
)

// Default cuts.
const (
	DefaultExtraTauPtCut = 45.0  // GeV
	DefaultMjjMin        = 500.0 // GeV
	DefaultDRMin         = 0.5
)

// Pair is a jet pair that found a compatible tau pair, by index into the
// input collections. The first compatible tau pair is recorded.
type Pair struct {
	Jet1, Jet2 int
	Tau1, Tau2 int
	Mjj        float64
}

// Filter selects jet pairs compatible with a tau pair. It holds no
// per-event state and is safe for concurrent use.
type Filter struct {
	extraTauPtCut float64
	mjjMin        float64
	dRMin         float64
	matchingR2    float64
}

// New creates a Filter.
func New(opts ...Option) *Filter {
	f := &Filter{
		extraTauPtCut: DefaultExtraTauPtCut,
		mjjMin:        DefaultMjjMin,
		dRMin:         DefaultDRMin,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.matchingR2 = f.dRMin * f.dRMin
	return f
}

// MjjMin returns the dijet mass cut.
func (f *Filter) MjjMin() float64 { return f.mjjMin }

// ExtraTauPtCut returns the leading tau pt cut.
func (f *Filter) ExtraTauPtCut() float64 { return f.extraTauPtCut }

// DRMin returns the jet-tau separation cut.
func (f *Filter) DRMin() float64 { return f.dRMin }

// MatchedPairs returns every jet pair that passes, in (j1, j2) order.
// Fewer than two jets or two taus yields nil.
func (f *Filter) MatchedPairs(jets []model.Jet, taus []model.Tau) []Pair {
	if len(jets) < 2 || len(taus) < 2 {
		return nil
	}
	var pairs []Pair
	for j1 := 0; j1 < len(jets); j1++ {
		for j2 := j1 + 1; j2 < len(jets); j2++ {
			mjj := physics.InvariantMass(jets[j1].P4, jets[j2].P4)
			if mjj < f.mjjMin {
				continue
			}
			if t1, t2, ok := f.findTauPair(jets[j1], jets[j2], taus); ok {
				pairs = append(pairs, Pair{Jet1: j1, Jet2: j2, Tau1: t1, Tau2: t2, Mjj: mjj})
			}
		}
	}
	return pairs
}

// Apply returns the jets belonging to at least one passing pair, each once,
// ordered by decreasing pt.
func (f *Filter) Apply(jets []model.Jet, taus []model.Tau) []model.Jet {
	out, _ := f.Select(jets, taus)
	return out
}

// Select is Apply that also returns the pairs behind the selection.
func (f *Filter) Select(jets []model.Jet, taus []model.Tau) ([]model.Jet, []Pair) {
	pairs := f.MatchedPairs(jets, taus)
	if len(pairs) == 0 {
		return []model.Jet{}, nil
	}

	keep := make(map[int]struct{}, 2*len(pairs))
	for _, p := range pairs {
		keep[p.Jet1] = struct{}{}
		keep[p.Jet2] = struct{}{}
	}
	indices := make([]int, 0, len(keep))
	for i := range keep {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	out := make([]model.Jet, 0, len(indices))
	for _, i := range indices {
		out = append(out, jets[i])
	}
	physics.SortByPtDesc(out)
	return out, pairs
}

func (f *Filter) findTauPair(j1, j2 model.Jet, taus []model.Tau) (int, int, bool) {
	for t1 := 0; t1 < len(taus); t1++ {
		if f.overlaps(taus[t1], j1, j2) {
			continue
		}
		for t2 := t1 + 1; t2 < len(taus); t2++ {
			if f.overlaps(taus[t2], j1, j2) {
				continue
			}
			if taus[t1].P4.Pt < f.extraTauPtCut && taus[t2].P4.Pt < f.extraTauPtCut {
				continue
			}
			return t1, t2, true
		}
	}
	return 0, 0, false
}

func (f *Filter) overlaps(tau model.Tau, j1, j2 model.Jet) bool {
	return physics.DeltaR2P4(tau.P4, j1.P4) < f.matchingR2 ||
		physics.DeltaR2P4(tau.P4, j2.P4) < f.matchingR2
}
