// Package eventgen generates synthetic VBF readout events, submits them to
// a running producer service and verifies the products it returns.
package eventgen

import (
	"time"

	"github.com/okian/hltjet/internal/config"
)

// Config holds configuration for a generator run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumEvents  int           // Number of events to generate
	Run        uint32        // Run number stamped on every event
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Attempts   uint          // Attempts per request, retries included
	Settle     time.Duration // How long to wait for products of one event
	Seed       uint64        // Seed of the event generator
	OutputFile string        // Optional JSON file receiving the events
	Verbose    bool          // Log every violation

	Labels Labels
}

// Labels names the collections the events carry and the products to fetch.
// They must match the service configuration.
type Labels struct {
	CaloJets string
	EBHits   string
	EEHits   string
	PFJets   string
	Taus     string

	Timing string
	DiTau  string
}

// LabelsFrom derives the labels from a service configuration.
func LabelsFrom(cfg *config.Config) Labels {
	return Labels{
		CaloJets: cfg.Timing.Jets,
		EBHits:   cfg.Timing.EBRecHits,
		EEHits:   cfg.Timing.EERecHits,
		PFJets:   cfg.DiTau.PFJetSrc,
		Taus:     cfg.DiTau.TauSrc,
		Timing:   cfg.Timing.Label,
		DiTau:    cfg.DiTau.Label,
	}
}

// DefaultConfig returns a configuration matching a service with default
// settings on localhost.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "http://localhost:9080",
		NumEvents: 1000,
		Run:       1,
		Workers:   8,
		Timeout:   10 * time.Second,
		Attempts:  5,
		Settle:    30 * time.Second,
		Seed:      1,
		Labels:    LabelsFrom(config.New()),
	}
}

// AckResponse represents the response from event submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	IngestID  string `json:"ingest_id"`
}

// Stats holds run statistics.
type Stats struct {
	StreamID string

	EventsGenerated  int
	EventsSubmitted  int
	EventsAccepted   int
	EventsDuplicate  int
	EventsFailed     int
	ProductsFetched  int
	ProductsMissing  int
	JetsTimed        int
	JetsUntimed      int
	JetsKept         int
	Violations       []Violation
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
	SubmitDuration   time.Duration
	VerifiedDuration time.Duration
}
