package timing

// Default thresholds.
const (
	DefaultCellEnergyThresh    = 0.5   // GeV
	DefaultCellTimeThresh      = 12.5  // ns
	DefaultCellTimeErrorThresh = 100.0 // ns
	DefaultMatchingRadius2     = 0.16
)

// Config holds the cell selection and region switches of an Estimator.
type Config struct {
	// Barrel and Endcap enable the scan of the respective hit collection.
	Barrel bool
	Endcap bool

	CellEnergyThresh    float64
	CellTimeThresh      float64
	CellTimeErrorThresh float64
	// MatchingRadius2 is the maximum squared ΔR between jet axis and cell.
	MatchingRadius2 float64
}

// DefaultConfig returns the thresholds used when no option overrides them.
// Both regions start disabled.
func DefaultConfig() Config {
	return Config{
		CellEnergyThresh:    DefaultCellEnergyThresh,
		CellTimeThresh:      DefaultCellTimeThresh,
		CellTimeErrorThresh: DefaultCellTimeErrorThresh,
		MatchingRadius2:     DefaultMatchingRadius2,
	}
}

// Option applies a configuration option to the Estimator.
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithBarrel enables or disables the barrel scan.
func WithBarrel(enabled bool) Option {
	return func(c *Config) {
		c.Barrel = enabled
	}
}

// WithEndcap enables or disables the endcap scan.
func WithEndcap(enabled bool) Option {
	return func(c *Config) {
		c.Endcap = enabled
	}
}

// WithEnergyThreshold sets the minimum cell energy.
func WithEnergyThreshold(gev float64) Option {
	return func(c *Config) {
		c.CellEnergyThresh = gev
	}
}

// WithTimeThreshold sets the maximum |cell time|.
func WithTimeThreshold(ns float64) Option {
	return func(c *Config) {
		c.CellTimeThresh = ns
	}
}

// WithTimeErrorThreshold sets the maximum cell time uncertainty.
func WithTimeErrorThreshold(ns float64) Option {
	return func(c *Config) {
		c.CellTimeErrorThresh = ns
	}
}

// WithMatchingRadius2 sets the squared jet-cell matching radius.
func WithMatchingRadius2(r2 float64) Option {
	return func(c *Config) {
		c.MatchingRadius2 = r2
	}
}
