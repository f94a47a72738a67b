// Package model contains the per-event data passed between the host and the
// producers. Everything here is scoped to one readout event.
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/hltjet/internal/domain/geometry"
	"github.com/okian/hltjet/internal/domain/physics"
)

// EventKey identifies a readout event.
type EventKey struct {
	Run   uint32 `json:"run"`
	Lumi  uint32 `json:"lumi"`
	Event uint64 `json:"event"`
}

// String renders the key as run:lumi:event.
func (k EventKey) String() string {
	return fmt.Sprintf("%d:%d:%d", k.Run, k.Lumi, k.Event)
}

// ParseEventKey parses the run:lumi:event form produced by String.
func ParseEventKey(s string) (EventKey, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return EventKey{}, fmt.Errorf("%q: %w", s, ErrInvalidKey)
	}
	run, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return EventKey{}, fmt.Errorf("run %q: %w", parts[0], ErrInvalidKey)
	}
	lumi, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return EventKey{}, fmt.Errorf("lumi %q: %w", parts[1], ErrInvalidKey)
	}
	evt, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return EventKey{}, fmt.Errorf("event %q: %w", parts[2], ErrInvalidKey)
	}
	return EventKey{Run: uint32(run), Lumi: uint32(lumi), Event: evt}, nil
}

// Jet is a reconstructed jet. Only its four-momentum is used here.
type Jet struct {
	P4 physics.P4 `json:"p4"`
}

// Momentum implements physics.Momentum.
func (j Jet) Momentum() physics.P4 { return j.P4 }

// Tau is a hadronic tau candidate that already passed identification and
// isolation upstream.
type Tau struct {
	P4 physics.P4 `json:"p4"`
}

// Momentum implements physics.Momentum.
func (t Tau) Momentum() physics.P4 { return t.P4 }

// Event is one readout event as handed over by the trigger: labelled input
// collections produced by earlier modules.
type Event struct {
	EventKey
	Jets map[string][]Jet     `json:"jets,omitempty"`
	Taus map[string][]Tau     `json:"taus,omitempty"`
	Hits map[string][]CellHit `json:"hits,omitempty"`
}

// JetCollection returns the jets stored under label.
func (e *Event) JetCollection(label string) ([]Jet, error) {
	jets, ok := e.Jets[label]
	if !ok {
		return nil, fmt.Errorf("jets %q: %w", label, ErrProductNotFound)
	}
	return jets, nil
}

// TauCollection returns the taus stored under label.
func (e *Event) TauCollection(label string) ([]Tau, error) {
	taus, ok := e.Taus[label]
	if !ok {
		return nil, fmt.Errorf("taus %q: %w", label, ErrProductNotFound)
	}
	return taus, nil
}

// HitCollection returns the calorimeter hits stored under label.
func (e *Event) HitCollection(label string) ([]CellHit, error) {
	hits, ok := e.Hits[label]
	if !ok {
		return nil, fmt.Errorf("hits %q: %w", label, ErrProductNotFound)
	}
	return hits, nil
}

// CellHit is a single ECAL channel measurement.
type CellHit struct {
	DetID     geometry.DetID `json:"detid"`
	Energy    float32        `json:"energy"`     // GeV
	Time      float32        `json:"time"`       // ns
	TimeError float32        `json:"time_error"` // ns
	Flags     CellFlags      `json:"flags"`
}
