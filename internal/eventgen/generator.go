package eventgen

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/okian/hltjet/internal/domain/geometry"
	"github.com/okian/hltjet/internal/domain/model"
	"github.com/okian/hltjet/internal/domain/physics"
)

// Kinematic ranges of the generated objects.
const (
	eventsPerLumi = 100

	forwardEtaMin = 2.0
	forwardEtaMax = 2.8
	forwardPtMin  = 40.0
	forwardPtMax  = 150.0
	centralEtaMax = 1.3
	centralPtMin  = 20.0
	centralPtMax  = 80.0
	maxCentral    = 3

	tauEtaMax  = 2.1
	tauPtMin   = 20.0
	tauPtMax   = 80.0
	tauMass    = 1.777
	tauOverlap = 0.15 // chance a tau is placed on a jet axis

	maxCellsPerJet = 6
	cellSpread     = 0.3
	cellEnergyMin  = 0.2
	cellEnergyMax  = 15.0
	cellTimeSigma  = 0.5
	jetTimeSigma   = 1.0
	outOfTime      = 0.05
	badFlag        = 0.05
	noiseCells     = 10
)

var badFlags = []model.CellFlag{
	model.FlagWeird,
	model.FlagSaturated,
	model.FlagPoorReco,
}

// Generator produces deterministic synthetic events for one run. It is not
// safe for concurrent use.
type Generator struct {
	rng    *rand.Rand
	run    uint32
	labels Labels
	geo    geometry.Ideal
	next   uint64
}

// NewGenerator creates a generator seeded with seed.
func NewGenerator(run uint32, seed uint64, labels Labels) *Generator {
	return &Generator{
		rng:    rand.New(rand.NewPCG(seed, uint64(run))),
		run:    run,
		labels: labels,
	}
}

// Generate returns the next n events.
func (g *Generator) Generate(n int) []*model.Event {
	events := make([]*model.Event, n)
	for i := range events {
		events[i] = g.Next()
	}
	return events
}

// Next returns one event: two forward jets in opposite hemispheres, up to
// three central jets, two taus and ECAL cells around every calo jet.
func (g *Generator) Next() *model.Event {
	n := g.next
	g.next++

	calo := g.jets()
	taus := g.taus(calo)
	barrel, endcap := g.hits(calo)

	return &model.Event{
		EventKey: model.EventKey{Run: g.run, Lumi: uint32(n/eventsPerLumi) + 1, Event: n + 1},
		Jets: map[string][]model.Jet{
			g.labels.CaloJets: calo,
			g.labels.PFJets:   g.pfJets(calo),
		},
		Taus: map[string][]model.Tau{
			g.labels.Taus: taus,
		},
		Hits: map[string][]model.CellHit{
			g.labels.EBHits: barrel,
			g.labels.EEHits: endcap,
		},
	}
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *Generator) phi() float64 {
	return g.uniform(-math.Pi, math.Pi)
}

func (g *Generator) chance(p float64) bool {
	return g.rng.Float64() < p
}

func (g *Generator) jets() []model.Jet {
	jets := []model.Jet{
		jet(g.uniform(forwardPtMin, forwardPtMax), g.uniform(forwardEtaMin, forwardEtaMax), g.phi()),
		jet(g.uniform(forwardPtMin, forwardPtMax), -g.uniform(forwardEtaMin, forwardEtaMax), g.phi()),
	}
	for i := g.rng.IntN(maxCentral + 1); i > 0; i-- {
		jets = append(jets, jet(g.uniform(centralPtMin, centralPtMax), g.uniform(-centralEtaMax, centralEtaMax), g.phi()))
	}
	physics.SortByPtDesc(jets)
	return jets
}

// pfJets smears the calo jets into a particle-flow collection.
func (g *Generator) pfJets(calo []model.Jet) []model.Jet {
	out := make([]model.Jet, len(calo))
	for i, j := range calo {
		p := j.P4
		p.Pt *= g.uniform(0.9, 1.1)
		p.Eta += g.uniform(-0.02, 0.02)
		p.Phi = physics.DeltaPhi(p.Phi+g.uniform(-0.02, 0.02), 0)
		out[i] = model.Jet{P4: p}
	}
	return out
}

func (g *Generator) taus(jets []model.Jet) []model.Tau {
	taus := make([]model.Tau, 2)
	for i := range taus {
		eta, phi := g.uniform(-tauEtaMax, tauEtaMax), g.phi()
		if g.chance(tauOverlap) {
			axis := jets[g.rng.IntN(len(jets))].P4
			eta, phi = axis.Eta, axis.Phi
		}
		taus[i] = model.Tau{P4: physics.P4{Pt: g.uniform(tauPtMin, tauPtMax), Eta: eta, Phi: phi, Mass: tauMass}}
	}
	return taus
}

// hits scatters cells around each jet axis, sharing one arrival time per
// jet, plus a few soft noise cells anywhere.
func (g *Generator) hits(jets []model.Jet) (barrel, endcap []model.CellHit) {
	barrel, endcap = []model.CellHit{}, []model.CellHit{}
	add := func(eta, phi float64, hit model.CellHit) {
		id, err := g.geo.Locate(eta, phi)
		if err != nil {
			return
		}
		hit.DetID = id
		if id.Subdet() == geometry.SubdetBarrel {
			barrel = append(barrel, hit)
		} else {
			endcap = append(endcap, hit)
		}
	}

	for _, j := range jets {
		t0 := g.rng.NormFloat64() * jetTimeSigma
		for i := g.rng.IntN(maxCellsPerJet + 1); i > 0; i-- {
			eta := j.P4.Eta + g.uniform(-cellSpread, cellSpread)
			phi := j.P4.Phi + g.uniform(-cellSpread, cellSpread)
			add(eta, phi, g.cell(t0))
		}
	}
	for i := g.rng.IntN(noiseCells + 1); i > 0; i-- {
		hit := g.cell(0)
		hit.Energy = float32(g.uniform(0, 2*cellEnergyMin))
		add(g.uniform(-3, 3), g.phi(), hit)
	}
	return barrel, endcap
}

func (g *Generator) cell(t0 float64) model.CellHit {
	t := t0 + g.rng.NormFloat64()*cellTimeSigma
	if g.chance(outOfTime) {
		t = math.Copysign(g.uniform(15, 40), g.rng.NormFloat64())
	}
	var flags model.CellFlags
	if g.chance(badFlag) {
		flags = flags.With(badFlags[g.rng.IntN(len(badFlags))])
	}
	return model.CellHit{
		Energy:    float32(g.uniform(cellEnergyMin, cellEnergyMax)),
		Time:      float32(t),
		TimeError: float32(g.uniform(0.3, 3)),
		Flags:     flags,
	}
}

func jet(pt, eta, phi float64) model.Jet {
	return model.Jet{P4: physics.P4{Pt: pt, Eta: eta, Phi: phi, Mass: 0.1 * pt}}
}

// SaveEvents writes the events to filename as a JSON array.
func SaveEvents(filename string, events []*model.Event) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write events: %w", err)
	}
	return nil
}
