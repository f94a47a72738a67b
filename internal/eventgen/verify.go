package eventgen

import (
	"fmt"

	"github.com/okian/hltjet/internal/domain/model"
	"github.com/okian/hltjet/internal/domain/timing"
)

// Timing product instances, as stored by the timing producer.
const (
	instanceCells  = "jetCellsForTiming"
	instanceEcalEt = "jetEcalEtForTiming"
)

// Violation is one broken product invariant.
type Violation struct {
	Event   model.EventKey
	Product string
	Reason  string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s: %s", v.Event, v.Product, v.Reason)
}

// Summary counts what one event's products contained.
type Summary struct {
	Timed   int
	Untimed int
	Kept    int
}

// Verify checks the products of ev against the invariants both producers
// guarantee:
//   - the timing products are parallel to the calo jets
//   - a jet without cells has zero energy and the sentinel time
//   - a jet with cells has positive energy
//   - the cleaned jets are a subset of the PF jets in non-increasing pt
func Verify(ev *model.Event, p *model.Products, labels Labels) (Summary, []Violation) {
	var (
		sum Summary
		out []Violation
	)
	fail := func(product, format string, args ...any) {
		out = append(out, Violation{Event: ev.EventKey, Product: product, Reason: fmt.Sprintf(format, args...)})
	}

	jets := ev.Jets[labels.CaloJets]
	cellsLabel := model.ProductLabel(labels.Timing, instanceCells)
	ecalLabel := model.ProductLabel(labels.Timing, instanceEcalEt)
	times, okT := p.Floats[labels.Timing]
	cells, okC := p.Counts[cellsLabel]
	ecal, okE := p.Floats[ecalLabel]

	switch {
	case !okT || !okC || !okE:
		fail(labels.Timing, "timing products missing")
	case len(times) != len(jets) || len(cells) != len(jets) || len(ecal) != len(jets):
		fail(labels.Timing, "lengths %d/%d/%d for %d jets", len(times), len(cells), len(ecal), len(jets))
	default:
		for i := range jets {
			if cells[i] == 0 {
				sum.Untimed++
				if ecal[i] != 0 || times[i] != timing.SentinelTime {
					fail(labels.Timing, "jet %d has no cells but energy %g and time %g", i, ecal[i], times[i])
				}
				continue
			}
			sum.Timed++
			if ecal[i] <= 0 {
				fail(ecalLabel, "jet %d has %d cells but energy %g", i, cells[i], ecal[i])
			}
		}
	}

	kept, ok := p.Jets[labels.DiTau]
	if !ok {
		fail(labels.DiTau, "cleaned jets missing")
		return sum, out
	}
	sum.Kept = len(kept)
	for i := 1; i < len(kept); i++ {
		if kept[i].P4.Pt > kept[i-1].P4.Pt {
			fail(labels.DiTau, "jet %d pt %g above jet %d pt %g", i, kept[i].P4.Pt, i-1, kept[i-1].P4.Pt)
		}
	}
	if len(kept) == 1 {
		fail(labels.DiTau, "a single cleaned jet cannot form a pair")
	}
	pf := ev.Jets[labels.PFJets]
	for i, k := range kept {
		if !containsJet(pf, k) {
			fail(labels.DiTau, "jet %d is not an input jet", i)
		}
	}
	return sum, out
}

func containsJet(jets []model.Jet, j model.Jet) bool {
	for _, c := range jets {
		if c.P4 == j.P4 {
			return true
		}
	}
	return false
}
