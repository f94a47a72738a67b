package ditau

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithMjjMin sets the minimum dijet invariant mass.
func WithMjjMin(gev float64) Option {
	return func(f *Filter) {
		f.mjjMin = gev
	}
}

// WithExtraTauPtCut sets the pt that at least one tau of the pair must reach.
func WithExtraTauPtCut(gev float64) Option {
	return func(f *Filter) {
		f.extraTauPtCut = gev
	}
}

// WithDRMin sets the minimum ΔR between any tau and either jet.
func WithDRMin(dr float64) Option {
	return func(f *Filter) {
		f.dRMin = dr
	}
}
