// Package timing estimates the arrival time of calorimeter jets from the
// ECAL cells around their axis.
//
// For every jet the selected cells contribute an energy-weighted mean time,
// with weights E·sinθ. Barrel and endcap are scanned into one running
// Accumulator so that a jet spanning both regions gets a single average.
package timing

import (
	"math"

	"github.com/okian/hltjet/internal/domain/geometry"
	"github.com/okian/hltjet/internal/domain/model"
	"github.com/okian/hltjet/internal/domain/physics"
)

// SentinelTime is reported for jets without any selected cell.
const SentinelTime float32 = -50

// disqualifying flags reject a cell outright.
var disqualifying = []model.CellFlag{
	model.FlagSaturated,
	model.FlagLeadingEdgeRecovered,
	model.FlagPoorReco,
	model.FlagWeird,
	model.FlagDiWeird,
}

// Accumulator is the running state of the weighted average. Between region
// scans Weighted holds the mean time; during a scan it holds Σ t·E·sinθ.
type Accumulator struct {
	Weighted float32
	Energy   float32
	Cells    uint32
}

// Result finalises the accumulator.
func (a Accumulator) Result() Result {
	t := SentinelTime
	if a.Energy > 0 {
		t = a.Weighted
	}
	return Result{Time: t, Energy: a.Energy, Cells: a.Cells}
}

// Result is the timing estimate of one jet.
type Result struct {
	Time   float32 `json:"time"`
	Energy float32 `json:"ecal_et"`
	Cells  uint32  `json:"cells"`
}

// Output holds the per-jet results of one event as parallel slices in jet
// order, plus the cell rejection tally.
type Output struct {
	Times      []float32
	EcalEt     []float32
	Cells      []uint32
	Rejections Rejections
}

// Estimator computes jet times. It holds no per-event state and is safe
// for concurrent use.
type Estimator struct {
	cfg Config
	geo geometry.Lookup
}

// New creates an Estimator resolving cell positions through geo.
func New(geo geometry.Lookup, opts ...Option) *Estimator {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Estimator{cfg: cfg, geo: geo}
}

// Config returns the active configuration.
func (e *Estimator) Config() Config { return e.cfg }

// Scan adds the cells of one region that pass the selection to acc and
// converts acc.Weighted to a mean if any energy has been collected. rej
// may be nil.
func (e *Estimator) Scan(jet model.Jet, hits []model.CellHit, acc *Accumulator, rej *Rejections) {
	for i := range hits {
		hit := &hits[i]
		pos, reason := e.selectCell(jet, hit)
		if reason != Accepted {
			rej.add(reason)
			continue
		}
		sinTheta := math.Sin(pos.Theta())
		acc.Weighted = float32(float64(acc.Weighted) + float64(hit.Time*hit.Energy)*sinTheta)
		acc.Energy = float32(float64(acc.Energy) + float64(hit.Energy)*sinTheta)
		acc.Cells++
	}
	if acc.Energy > 0 {
		acc.Weighted /= acc.Energy
	}
}

// Estimate times one jet from the barrel and endcap hit collections,
// scanning only the enabled regions.
func (e *Estimator) Estimate(jet model.Jet, barrel, endcap []model.CellHit, rej *Rejections) Result {
	var acc Accumulator
	if e.cfg.Barrel {
		e.Scan(jet, barrel, &acc, rej)
	}
	if e.cfg.Endcap {
		// back from a mean to a weighted sum before adding more cells
		acc.Weighted *= acc.Energy
		e.Scan(jet, endcap, &acc, rej)
	}
	return acc.Result()
}

// Produce times every jet of an event.
func (e *Estimator) Produce(jets []model.Jet, barrel, endcap []model.CellHit) Output {
	out := Output{
		Times:  make([]float32, 0, len(jets)),
		EcalEt: make([]float32, 0, len(jets)),
		Cells:  make([]uint32, 0, len(jets)),
	}
	for _, jet := range jets {
		r := e.Estimate(jet, barrel, endcap, &out.Rejections)
		out.Times = append(out.Times, r.Time)
		out.EcalEt = append(out.EcalEt, r.Energy)
		out.Cells = append(out.Cells, r.Cells)
	}
	return out
}

func (e *Estimator) selectCell(jet model.Jet, hit *model.CellHit) (geometry.Position, Reason) {
	if hit.Flags.Any(disqualifying...) {
		return geometry.Position{}, RejectFlag
	}
	if float64(hit.Energy) < e.cfg.CellEnergyThresh {
		return geometry.Position{}, RejectEnergy
	}
	if hit.TimeError <= 0 || float64(hit.TimeError) > e.cfg.CellTimeErrorThresh {
		return geometry.Position{}, RejectTimeError
	}
	if math.Abs(float64(hit.Time)) > e.cfg.CellTimeThresh {
		return geometry.Position{}, RejectTime
	}
	pos, ok := e.geo.Position(hit.DetID)
	if !ok {
		return geometry.Position{}, RejectGeometry
	}
	if physics.DeltaR2(jet.P4.Eta, jet.P4.Phi, pos.Eta(), pos.Phi()) > e.cfg.MatchingRadius2 {
		return geometry.Position{}, RejectDistance
	}
	return pos, Accepted
}
