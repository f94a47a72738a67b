// Package physics provides the small amount of relativistic kinematics the
// trigger producers need: four-vectors in collider coordinates, angular
// separation and invariant mass.
package physics

import (
	"math"
	"sort"
)

// P4 is a four-momentum in collider coordinates (pt, eta, phi, mass).
// Energies and momenta are in GeV.
type P4 struct {
	Pt   float64 `json:"pt"`
	Eta  float64 `json:"eta"`
	Phi  float64 `json:"phi"`
	Mass float64 `json:"mass"`
}

// Px returns the x component of the momentum.
func (p P4) Px() float64 { return p.Pt * math.Cos(p.Phi) }

// Py returns the y component of the momentum.
func (p P4) Py() float64 { return p.Pt * math.Sin(p.Phi) }

// Pz returns the longitudinal component of the momentum.
func (p P4) Pz() float64 { return p.Pt * math.Sinh(p.Eta) }

// P returns the magnitude of the three-momentum.
func (p P4) P() float64 { return p.Pt * math.Cosh(p.Eta) }

// E returns the energy.
func (p P4) E() float64 {
	mom := p.P()
	return math.Sqrt(mom*mom + p.Mass*p.Mass)
}

// Cartesian converts to an (px, py, pz, E) vector.
func (p P4) Cartesian() Cartesian {
	return Cartesian{Px: p.Px(), Py: p.Py(), Pz: p.Pz(), E: p.E()}
}

// Cartesian is a four-momentum in (px, py, pz, E) components. Sums of
// four-vectors are taken in this representation.
type Cartesian struct {
	Px, Py, Pz, E float64
}

// Add returns the component-wise sum.
func (c Cartesian) Add(o Cartesian) Cartesian {
	return Cartesian{Px: c.Px + o.Px, Py: c.Py + o.Py, Pz: c.Pz + o.Pz, E: c.E + o.E}
}

// M2 returns the squared invariant mass.
func (c Cartesian) M2() float64 {
	return c.E*c.E - c.Px*c.Px - c.Py*c.Py - c.Pz*c.Pz
}

// M returns the invariant mass. A space-like vector yields -sqrt(-m²).
func (c Cartesian) M() float64 {
	m2 := c.M2()
	if m2 < 0 {
		return -math.Sqrt(-m2)
	}
	return math.Sqrt(m2)
}

// InvariantMass returns the mass of the summed four-momentum of a and b.
func InvariantMass(a, b P4) float64 {
	return a.Cartesian().Add(b.Cartesian()).M()
}

// DeltaPhi returns phi1-phi2 folded into (-pi, pi]. Non-finite input
// yields NaN.
func DeltaPhi(phi1, phi2 float64) float64 {
	d := math.Remainder(phi1-phi2, 2*math.Pi)
	if d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// DeltaR2 returns the squared angular separation between two directions.
func DeltaR2(eta1, phi1, eta2, phi2 float64) float64 {
	deta := eta1 - eta2
	dphi := DeltaPhi(phi1, phi2)
	return deta*deta + dphi*dphi
}

// DeltaR2P4 is DeltaR2 for two four-vectors.
func DeltaR2P4(a, b P4) float64 {
	return DeltaR2(a.Eta, a.Phi, b.Eta, b.Phi)
}

// Momentum is anything carrying a four-momentum.
type Momentum interface {
	Momentum() P4
}

// SortByPtDesc orders items by descending transverse momentum. Equal pt
// keeps the input order.
func SortByPtDesc[T Momentum](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Momentum().Pt > items[j].Momentum().Pt
	})
}
