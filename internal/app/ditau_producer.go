package service

import (
	"context"

	"github.com/okian/hltjet/internal/config"
	"github.com/okian/hltjet/internal/domain/ditau"
	"github.com/okian/hltjet/internal/domain/model"
	"github.com/okian/hltjet/pkg/logger"
	"github.com/okian/hltjet/pkg/metrics"
)

// DiTauProducer keeps the PF jets that form a VBF pair compatible with an
// isolated tau pair.
type DiTauProducer struct {
	label  string
	jets   string
	taus   string
	filter *ditau.Filter
	logger logger.Logger
}

// NewDiTauProducer creates the producer from its configuration.
func NewDiTauProducer(cfg config.DiTau, l logger.Logger) *DiTauProducer {
	return &DiTauProducer{
		label: cfg.Label,
		jets:  cfg.PFJetSrc,
		taus:  cfg.TauSrc,
		filter: ditau.New(
			ditau.WithMjjMin(cfg.MjjMin),
			ditau.WithExtraTauPtCut(cfg.ExtraTauPtCut),
			ditau.WithDRMin(cfg.DRMin),
		),
		logger: l,
	}
}

// Label implements Producer.
func (p *DiTauProducer) Label() string { return p.label }

// Produce implements Producer.
func (p *DiTauProducer) Produce(ctx context.Context, ev *model.Event, out *model.Products) error {
	jets, err := ev.JetCollection(p.jets)
	if err != nil {
		return err
	}
	taus, err := ev.TauCollection(p.taus)
	if err != nil {
		return err
	}

	kept, pairs := p.filter.Select(jets, taus)
	out.PutJets(p.label, kept)

	metrics.RecordDiTau(len(jets), len(pairs), len(kept))
	if len(pairs) > 0 {
		p.logger.Debug(ctx, "dijet pairs matched",
			logger.Stringer("event", ev.EventKey),
			logger.Int("pairs", len(pairs)),
			logger.Float64("max_mjj", maxMjj(pairs)),
			logger.Int("kept", len(kept)))
	}
	return nil
}

func maxMjj(pairs []ditau.Pair) float64 {
	m := pairs[0].Mjj
	for _, p := range pairs[1:] {
		m = max(m, p.Mjj)
	}
	return m
}
