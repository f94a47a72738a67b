package model

// Products collects the outputs the producers put for one event. Labels
// follow the "module" or "module:instance" convention.
type Products struct {
	EventKey
	Floats map[string][]float32 `json:"floats,omitempty"`
	Counts map[string][]uint32  `json:"counts,omitempty"`
	Jets   map[string][]Jet     `json:"jets,omitempty"`
}

// NewProducts returns an empty product set for key.
func NewProducts(key EventKey) *Products {
	return &Products{
		EventKey: key,
		Floats:   make(map[string][]float32),
		Counts:   make(map[string][]uint32),
		Jets:     make(map[string][]Jet),
	}
}

// ProductLabel joins a module label and an instance name. An empty
// instance yields the bare module label.
func ProductLabel(module, instance string) string {
	if instance == "" {
		return module
	}
	return module + ":" + instance
}

// PutFloats stores a per-object float product.
func (p *Products) PutFloats(label string, v []float32) { p.Floats[label] = v }

// PutCounts stores a per-object count product.
func (p *Products) PutCounts(label string, v []uint32) { p.Counts[label] = v }

// PutJets stores a jet collection product.
func (p *Products) PutJets(label string, v []Jet) { p.Jets[label] = v }

// Len returns the number of stored products.
func (p *Products) Len() int {
	return len(p.Floats) + len(p.Counts) + len(p.Jets)
}
