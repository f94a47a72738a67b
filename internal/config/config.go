// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/okian/hltjet/internal/domain/ditau"
	"github.com/okian/hltjet/internal/domain/timing"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of event workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many event keys are remembered for duplicates.
	DedupeSize int `koanf:"dedupe_size"`

	// ProductCapacity bounds the number of events whose products are kept.
	ProductCapacity int `koanf:"product_capacity"`

	// ProductTTLSeconds expires stored products; 0 disables expiry.
	ProductTTLSeconds int `koanf:"product_ttl_seconds"`

	// GeometryCacheSize bounds the memoised cell positions.
	GeometryCacheSize int `koanf:"geometry_cache_size"`

	Timing Timing `koanf:"timing"`
	DiTau  DiTau  `koanf:"ditau"`
}

// Timing configures the jet timing producer.
type Timing struct {
	Label               string  `koanf:"label"`
	Jets                string  `koanf:"jets"`
	EBRecHits           string  `koanf:"eb_rechits"`
	EERecHits           string  `koanf:"ee_rechits"`
	BarrelJets          bool    `koanf:"barrel_jets"`
	EndcapJets          bool    `koanf:"endcap_jets"`
	CellEnergyThresh    float64 `koanf:"cell_energy_thresh"`
	CellTimeThresh      float64 `koanf:"cell_time_thresh"`
	CellTimeErrorThresh float64 `koanf:"cell_time_error_thresh"`
	MatchingRadius2     float64 `koanf:"matching_radius2"`
}

// DiTau configures the di-jet/di-tau cross cleaning producer.
type DiTau struct {
	Label         string  `koanf:"label"`
	PFJetSrc      string  `koanf:"pfjet_src"`
	TauSrc        string  `koanf:"tau_src"`
	ExtraTauPtCut float64 `koanf:"extra_tau_pt_cut"`
	MjjMin        float64 `koanf:"mjj_min"`
	DRMin         float64 `koanf:"dr_min"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		EventQueueSize:    10_000,
		WorkerCount:       runtime.NumCPU(),
		DedupeSize:        100_000,
		ProductCapacity:   100_000,
		ProductTTLSeconds: 600,
		GeometryCacheSize: 100_000,
		Timing: Timing{
			Label:               "hltJetTimingProducer",
			Jets:                "",
			EBRecHits:           "hltEcalRecHit:EcalRecHitsEB",
			EERecHits:           "hltEcalRecHit:EcalRecHitsEE",
			BarrelJets:          false,
			EndcapJets:          false,
			CellEnergyThresh:    timing.DefaultCellEnergyThresh,
			CellTimeThresh:      timing.DefaultCellTimeThresh,
			CellTimeErrorThresh: timing.DefaultCellTimeErrorThresh,
			MatchingRadius2:     timing.DefaultMatchingRadius2,
		},
		DiTau: DiTau{
			Label:         "hltDiJetTauCorrelationFilter",
			PFJetSrc:      "hltAK4PFJetsCorrected",
			TauSrc:        "hltSinglePFTau20TrackPt1LooseChargedIsolationReg",
			ExtraTauPtCut: ditau.DefaultExtraTauPtCut,
			MjjMin:        ditau.DefaultMjjMin,
			DRMin:         ditau.DefaultDRMin,
		},
	}
}

// ProductTTL returns ProductTTLSeconds as a duration.
func (c *Config) ProductTTL() time.Duration {
	return time.Duration(c.ProductTTLSeconds) * time.Second
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.EventQueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.ProductCapacity <= 0:
		return fmt.Errorf("%w: product_capacity must be positive", ErrInvalidConfig)
	case c.ProductTTLSeconds < 0:
		return fmt.Errorf("%w: product_ttl_seconds must not be negative", ErrInvalidConfig)
	case c.GeometryCacheSize <= 0:
		return fmt.Errorf("%w: geometry_cache_size must be positive", ErrInvalidConfig)
	case c.Timing.Label == "" || c.DiTau.Label == "":
		return fmt.Errorf("%w: producer labels must not be empty", ErrInvalidConfig)
	case c.Timing.Label == c.DiTau.Label:
		return fmt.Errorf("%w: producer labels must differ", ErrInvalidConfig)
	case c.Timing.MatchingRadius2 < 0:
		return fmt.Errorf("%w: timing.matching_radius2 must not be negative", ErrInvalidConfig)
	case c.DiTau.DRMin < 0:
		return fmt.Errorf("%w: ditau.dr_min must not be negative", ErrInvalidConfig)
	}
	return nil
}
