// Package geometry maps ECAL cell identifiers to crystal positions.
//
// The timing producer only needs one question answered per cell: where is
// it? Lookup is that question. Implementations are read-only and safe for
// concurrent use, so one instance can be shared by every worker.
package geometry

import "fmt"

// DetID is a packed ECAL cell identifier.
//
// Layout: detector in bits 28..31, subdetector in bits 25..27, the rest is
// subdetector specific (see BarrelID and EndcapID).
type DetID uint32

// Subdetector identifies the ECAL region a cell belongs to.
type Subdetector uint32

// ECAL subdetectors.
const (
	SubdetUnknown Subdetector = 0
	SubdetBarrel  Subdetector = 1
	SubdetEndcap  Subdetector = 2
)

const (
	detectorEcal = 3

	detectorShift = 28
	subdetShift   = 25
	subdetMask    = 0x7

	// barrel fields
	ebZSideBit   = 1 << 16
	ebIEtaShift  = 9
	ebIEtaMask   = 0x7F
	ebIPhiMask   = 0x1FF
	ebMaxIEta    = 85
	ebMaxIPhi    = 360
	endcapMaxIXY = 100

	// endcap fields
	eeZSideBit = 1 << 14
	eeIXShift  = 7
	eeIXYMask  = 0x7F
)

// BarrelID packs a barrel crystal index. ieta is in ±[1,85], iphi in [1,360].
func BarrelID(ieta, iphi int) (DetID, error) {
	aeta := ieta
	if aeta < 0 {
		aeta = -aeta
	}
	if aeta < 1 || aeta > ebMaxIEta || iphi < 1 || iphi > ebMaxIPhi {
		return 0, fmt.Errorf("barrel index (%d,%d): %w", ieta, iphi, ErrInvalidDetID)
	}
	id := uint32(detectorEcal)<<detectorShift | uint32(SubdetBarrel)<<subdetShift
	if ieta > 0 {
		id |= ebZSideBit
	}
	id |= uint32(aeta)<<ebIEtaShift | uint32(iphi)
	return DetID(id), nil
}

// EndcapID packs an endcap crystal index. ix and iy are in [1,100] and
// zside is +1 or -1.
func EndcapID(ix, iy, zside int) (DetID, error) {
	if ix < 1 || ix > endcapMaxIXY || iy < 1 || iy > endcapMaxIXY || (zside != 1 && zside != -1) {
		return 0, fmt.Errorf("endcap index (%d,%d,%d): %w", ix, iy, zside, ErrInvalidDetID)
	}
	id := uint32(detectorEcal)<<detectorShift | uint32(SubdetEndcap)<<subdetShift
	if zside > 0 {
		id |= eeZSideBit
	}
	id |= uint32(ix)<<eeIXShift | uint32(iy)
	return DetID(id), nil
}

// IsEcal reports whether the identifier carries the ECAL detector code.
func (d DetID) IsEcal() bool { return uint32(d)>>detectorShift == detectorEcal }

// Subdet returns the subdetector encoded in the identifier.
func (d DetID) Subdet() Subdetector {
	if !d.IsEcal() {
		return SubdetUnknown
	}
	return Subdetector((uint32(d) >> subdetShift) & subdetMask)
}

// BarrelIndex unpacks a barrel identifier.
func (d DetID) BarrelIndex() (ieta, iphi int, ok bool) {
	if d.Subdet() != SubdetBarrel {
		return 0, 0, false
	}
	aeta := int((uint32(d) >> ebIEtaShift) & ebIEtaMask)
	iphi = int(uint32(d) & ebIPhiMask)
	if uint32(d)&ebZSideBit == 0 {
		return -aeta, iphi, true
	}
	return aeta, iphi, true
}

// EndcapIndex unpacks an endcap identifier.
func (d DetID) EndcapIndex() (ix, iy, zside int, ok bool) {
	if d.Subdet() != SubdetEndcap {
		return 0, 0, 0, false
	}
	ix = int((uint32(d) >> eeIXShift) & eeIXYMask)
	iy = int(uint32(d) & eeIXYMask)
	zside = -1
	if uint32(d)&eeZSideBit != 0 {
		zside = 1
	}
	return ix, iy, zside, true
}

// String renders the identifier for logs.
func (d DetID) String() string {
	switch d.Subdet() {
	case SubdetBarrel:
		ieta, iphi, _ := d.BarrelIndex()
		return fmt.Sprintf("EB(%d,%d)", ieta, iphi)
	case SubdetEndcap:
		ix, iy, z, _ := d.EndcapIndex()
		return fmt.Sprintf("EE(%d,%d,%+d)", ix, iy, z)
	default:
		return fmt.Sprintf("DetID(0x%08x)", uint32(d))
	}
}
