package rps

import (
	"errors"
	"fmt"
	"strconv"
)

// DefaultSeed is the seed used when none is configured.
const DefaultSeed int64 = 124346

// Config controls the lattice dimensions, interaction rates and seeding.
type Config struct {
	// Size is the side length L of the square lattice.
	Size int

	// Mobility M sets the exchange rate through epsilon = M*L*L/2.
	Mobility float64
	// Sigma is the selection rate.
	Sigma float64
	// Mu is the reproduction rate.
	Mu float64

	// T0 is the clock origin.
	T0   float64
	Seed int64
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Size:     100,
		Mobility: 3e-4,
		Sigma:    1,
		Mu:       1,
		T0:       0,
		Seed:     DefaultSeed,
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
// Malformed or out-of-range entries keep their defaults.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["size"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Size = parsed
		}
	}
	if v, ok := cfg["mobility"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && validRate(parsed) {
			c.Mobility = parsed
		}
	}
	if v, ok := cfg["sigma"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && validRate(parsed) {
			c.Sigma = parsed
		}
	}
	if v, ok := cfg["mu"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && validRate(parsed) {
			c.Mu = parsed
		}
	}
	if v, ok := cfg["t0"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			c.T0 = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	return c
}

// Validate reports a non-positive size or any rate that is negative, NaN or
// infinite.
func (c Config) Validate() error {
	var errs []error
	if c.Size <= 0 {
		errs = append(errs, fmt.Errorf("rps: size must be positive, got %d", c.Size))
	}
	errs = append(errs,
		checkRate("mobility", c.Mobility),
		checkRate("sigma", c.Sigma),
		checkRate("mu", c.Mu),
	)
	return errors.Join(errs...)
}

// sanitized replaces invalid fields: the size becomes 1 and bad rates become 0.
func (c Config) sanitized() Config {
	if c.Size <= 0 {
		c.Size = 1
	}
	if !validRate(c.Mobility) {
		c.Mobility = 0
	}
	if !validRate(c.Sigma) {
		c.Sigma = 0
	}
	if !validRate(c.Mu) {
		c.Mu = 0
	}
	return c
}

// Epsilon returns the exchange rate implied by the mobility and lattice size.
func (c Config) Epsilon() float64 {
	return epsilonFor(c.Mobility, c.Size)
}

func epsilonFor(mobility float64, size int) float64 {
	return 0.5 * mobility * float64(size) * float64(size)
}
