package geometry

import (
	"errors"
	"math"
)

// Sentinel kinds for geometry errors.
var (
	ErrInvalidDetID = errors.New("invalid detector id")
)

// Ideal geometry constants, in cm and radians.
const (
	barrelRadius    = 129.0
	barrelCellEta   = 0.0174
	barrelCellPhi   = 2 * math.Pi / ebMaxIPhi
	endcapFaceZ     = 317.0
	endcapCellPitch = 2.862
	endcapCentre    = 50.5
)

// Position is a point in the detector frame (cm).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Perp returns the transverse distance from the beam line.
func (p Position) Perp() float64 { return math.Hypot(p.X, p.Y) }

// Theta returns the polar angle measured from the +z axis.
func (p Position) Theta() float64 { return math.Atan2(p.Perp(), p.Z) }

// Phi returns the azimuthal angle.
func (p Position) Phi() float64 { return math.Atan2(p.Y, p.X) }

// Eta returns the pseudorapidity of the direction from the origin.
func (p Position) Eta() float64 {
	perp := p.Perp()
	if perp == 0 {
		switch {
		case p.Z > 0:
			return math.Inf(1)
		case p.Z < 0:
			return math.Inf(-1)
		default:
			return 0
		}
	}
	return math.Asinh(p.Z / perp)
}

// FromEtaPhi builds the point at transverse radius r along (eta, phi).
func FromEtaPhi(eta, phi, r float64) Position {
	return Position{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: r * math.Sinh(eta)}
}

// Lookup resolves a cell identifier to its position. Unknown identifiers
// return false.
type Lookup interface {
	Position(id DetID) (Position, bool)
}

// LookupFunc adapts a plain function to Lookup.
type LookupFunc func(id DetID) (Position, bool)

// Position implements Lookup.
func (f LookupFunc) Position(id DetID) (Position, bool) { return f(id) }

// Ideal computes crystal centres analytically from the identifier: barrel
// crystals on a cylinder of radius 129 cm with 0.0174 granularity, endcap
// crystals on the |z| = 317 cm faces with a 2.862 cm pitch. Endcap indices
// outside the circular acceptance still resolve.
type Ideal struct{}

// Position implements Lookup.
func (Ideal) Position(id DetID) (Position, bool) {
	switch id.Subdet() {
	case SubdetBarrel:
		ieta, iphi, _ := id.BarrelIndex()
		if _, err := BarrelID(ieta, iphi); err != nil {
			return Position{}, false
		}
		sign := 1.0
		aeta := ieta
		if ieta < 0 {
			sign, aeta = -1, -ieta
		}
		eta := sign * (float64(aeta) - 0.5) * barrelCellEta
		phi := (float64(iphi)-0.5)*barrelCellPhi - math.Pi
		return FromEtaPhi(eta, phi, barrelRadius), true
	case SubdetEndcap:
		ix, iy, zside, _ := id.EndcapIndex()
		if _, err := EndcapID(ix, iy, zside); err != nil {
			return Position{}, false
		}
		return Position{
			X: (float64(ix) - endcapCentre) * endcapCellPitch,
			Y: (float64(iy) - endcapCentre) * endcapCellPitch,
			Z: float64(zside) * endcapFaceZ,
		}, true
	default:
		return Position{}, false
	}
}

// Table is an explicit id → position map, e.g. loaded from an alignment
// dump. It must not be modified after construction.
type Table map[DetID]Position

// Position implements Lookup.
func (t Table) Position(id DetID) (Position, bool) {
	p, ok := t[id]
	return p, ok
}

// Locate returns the crystal of the ideal geometry that contains the
// direction (eta, phi). Directions that miss the endcap crystal grid fail
// with ErrInvalidDetID.
func (Ideal) Locate(eta, phi float64) (DetID, error) {
	phi = math.Remainder(phi, 2*math.Pi)
	aeta := math.Abs(eta)
	if aeta < ebMaxIEta*barrelCellEta {
		ieta := int(aeta/barrelCellEta) + 1
		if eta < 0 {
			ieta = -ieta
		}
		iphi := int((phi+math.Pi)/barrelCellPhi)%ebMaxIPhi + 1
		return BarrelID(ieta, iphi)
	}

	zside := 1
	if eta < 0 {
		zside = -1
	}
	r := endcapFaceZ / math.Sinh(aeta)
	ix := int(math.Round(r*math.Cos(phi)/endcapCellPitch + endcapCentre))
	iy := int(math.Round(r*math.Sin(phi)/endcapCellPitch + endcapCentre))
	return EndcapID(ix, iy, zside)
}
