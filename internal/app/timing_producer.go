package service

import (
	"context"

	"github.com/okian/hltjet/internal/config"
	"github.com/okian/hltjet/internal/domain/geometry"
	"github.com/okian/hltjet/internal/domain/model"
	"github.com/okian/hltjet/internal/domain/timing"
	"github.com/okian/hltjet/pkg/metrics"
)

// Product instance names of the timing producer.
const (
	InstanceCells  = "jetCellsForTiming"
	InstanceEcalEt = "jetEcalEtForTiming"
)

// cacheStats is implemented by geometry.Cached.
type cacheStats interface {
	Stats() (hits, misses int64)
	Size() int
}

// TimingProducer computes the ECAL time of every calo jet.
type TimingProducer struct {
	label  string
	jets   string
	barrel string
	endcap string
	est    *timing.Estimator
	stats  cacheStats
}

// NewTimingProducer creates the producer from its configuration.
func NewTimingProducer(cfg config.Timing, geo geometry.Lookup) *TimingProducer {
	p := &TimingProducer{
		label:  cfg.Label,
		jets:   cfg.Jets,
		barrel: cfg.EBRecHits,
		endcap: cfg.EERecHits,
		est: timing.New(geo,
			timing.WithBarrel(cfg.BarrelJets),
			timing.WithEndcap(cfg.EndcapJets),
			timing.WithEnergyThreshold(cfg.CellEnergyThresh),
			timing.WithTimeThreshold(cfg.CellTimeThresh),
			timing.WithTimeErrorThreshold(cfg.CellTimeErrorThresh),
			timing.WithMatchingRadius2(cfg.MatchingRadius2),
		),
	}
	if s, ok := geo.(cacheStats); ok {
		p.stats = s
	}
	return p
}

// Label implements Producer.
func (p *TimingProducer) Label() string { return p.label }

// Produce implements Producer. It stores the times under the module label
// and the cell counts and ECAL energies under their instance labels, all
// parallel to the input jets.
func (p *TimingProducer) Produce(_ context.Context, ev *model.Event, out *model.Products) error {
	jets, err := ev.JetCollection(p.jets)
	if err != nil {
		return err
	}
	barrel, err := ev.HitCollection(p.barrel)
	if err != nil {
		return err
	}
	endcap, err := ev.HitCollection(p.endcap)
	if err != nil {
		return err
	}

	res := p.est.Produce(jets, barrel, endcap)

	out.PutFloats(p.label, res.Times)
	out.PutCounts(model.ProductLabel(p.label, InstanceCells), res.Cells)
	out.PutFloats(model.ProductLabel(p.label, InstanceEcalEt), res.EcalEt)

	p.record(&res)
	return nil
}

func (p *TimingProducer) record(res *timing.Output) {
	var cells uint64
	untimed := 0
	for i, n := range res.Cells {
		cells += uint64(n)
		if res.EcalEt[i] <= 0 {
			untimed++
		}
	}
	metrics.RecordJetTimes(len(res.Cells)-untimed, untimed)
	metrics.RecordCellsAccepted(cells)
	for _, reason := range timing.Reasons() {
		metrics.RecordCellsRejected(reason.String(), res.Rejections.Count(reason))
	}
	if p.stats != nil {
		hits, misses := p.stats.Stats()
		metrics.UpdateGeometryCache(hits, misses, p.stats.Size())
	}
}
