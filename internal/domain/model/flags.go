package model

import "strings"

// CellFlag is the bit position of a reconstruction flag on a cell hit.
type CellFlag uint8

// Reconstruction flags, in the order the ECAL readout assigns their bits.
const (
	FlagGood CellFlag = iota
	FlagPoorReco
	FlagOutOfTime
	FlagFaultyHardware
	FlagNoisy
	FlagPoorCalib
	FlagSaturated
	FlagLeadingEdgeRecovered
	FlagNeighboursRecovered
	FlagTowerRecovered
	FlagDead
	FlagKilled
	FlagTPSaturated
	FlagL1SpikeFlag
	FlagWeird
	FlagDiWeird
	FlagHasSwitchToGain6
	FlagHasSwitchToGain1
	flagUnknown
)

var flagNames = [...]string{
	"good", "poor_reco", "out_of_time", "faulty_hardware", "noisy", "poor_calib",
	"saturated", "leading_edge_recovered", "neighbours_recovered", "tower_recovered",
	"dead", "killed", "tp_saturated", "l1_spike", "weird", "di_weird",
	"gain6", "gain1",
}

// String returns the flag name.
func (f CellFlag) String() string {
	if f < flagUnknown {
		return flagNames[f]
	}
	return "unknown"
}

// CellFlags is a bit set of CellFlag.
type CellFlags uint32

// NewCellFlags builds a set from individual flags.
func NewCellFlags(flags ...CellFlag) CellFlags {
	var s CellFlags
	for _, f := range flags {
		s = s.With(f)
	}
	return s
}

// Has reports whether f is set.
func (s CellFlags) Has(f CellFlag) bool { return s&(1<<f) != 0 }

// With returns a copy with f set.
func (s CellFlags) With(f CellFlag) CellFlags { return s | 1<<f }

// Any reports whether any of flags is set.
func (s CellFlags) Any(flags ...CellFlag) bool {
	for _, f := range flags {
		if s.Has(f) {
			return true
		}
	}
	return false
}

// String lists the set flags separated by '|'.
func (s CellFlags) String() string {
	if s == 0 {
		return ""
	}
	var names []string
	for f := FlagGood; f < flagUnknown; f++ {
		if s.Has(f) {
			names = append(names, f.String())
		}
	}
	return strings.Join(names, "|")
}
