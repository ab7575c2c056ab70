package matrix

type Config struct {
	// Exploration rate at neutral mood.
	BaseEpsilon float64
	// Step size of the value update, in (0, 1].
	LearningRate float64
	// Value assumed for pairs that were never seeded or updated.
	OptimisticInit float64

	// RNG seed (0 => time-based)
	Seed int64
}

// DefaultConfig returns the defaults used when no configuration is given.
func DefaultConfig() Config {
	return Config{
		BaseEpsilon:  0.1,
		LearningRate: 0.5,
	}
}

func (c Config) validate() error {
	if !isFinite(c.BaseEpsilon) || c.BaseEpsilon < 0 || c.BaseEpsilon > 1 {
		return invalidArgf("BaseEpsilon must be in [0,1], got %v", c.BaseEpsilon)
	}
	if !isFinite(c.LearningRate) || c.LearningRate <= 0 || c.LearningRate > 1 {
		return invalidArgf("LearningRate must be in (0,1], got %v", c.LearningRate)
	}
	if !isFinite(c.OptimisticInit) {
		return invalidArgf("OptimisticInit must be finite, got %v", c.OptimisticInit)
	}
	return nil
}

// Validate reports whether c can be used to build a Matrix.
func (c Config) Validate() error { return c.validate() }
