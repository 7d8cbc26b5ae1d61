package matching

import "fmt"

// Config holds every tunable of the matching cascade
type Config struct {
	// Permit
	PermitMinDigits        int     // fewer digits than this is permit_too_short
	PermitPrefixLength     int     // leading digits dropped to form the lookup key
	PermitPartialMinLength int     // keys at least this long also try partial lookups
	PermitPartialTrim      int     // digits trimmed from either end for partial lookups
	PermitSizeToleranceSqm float64 // absolute size window for partial permit hits

	// Mapper
	MapperSizeToleranceRatio float64 // relative size window, 0.02 is ±2%
	MapperResultLimit        int

	// Fuzzy
	FuzzySizeWindowSqm float64 // candidates outside this absolute window are dropped
	FuzzyPageSize      int     // rows per page of the coarse name filter, 0 reads them in one query
	Scoring            ScoringConfig
}

// ScoringConfig holds the fuzzy scoring weights
type ScoringConfig struct {
	ExactNamePoints    int
	OrderedNamePoints  int
	TightSizePoints    int
	LooseSizePoints    int
	PropertyTypePoints int
	TightSizeSqm       float64
	LooseSizeSqm       float64
	Threshold          int // minimum score for a candidate to be returned
	ExactTierScore     int // scores at or above this are tier exact
}

func DefaultConfig() Config {
	return Config{
		PermitMinDigits:          3,
		PermitPrefixLength:       2,
		PermitPartialMinLength:   6,
		PermitPartialTrim:        2,
		PermitSizeToleranceSqm:   0.1,
		MapperSizeToleranceRatio: 0.02,
		MapperResultLimit:        50,
		FuzzySizeWindowSqm:       0.02,
		FuzzyPageSize:            0,
		Scoring:                  DefaultScoringConfig(),
	}
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		ExactNamePoints:    5,
		OrderedNamePoints:  4,
		TightSizePoints:    4,
		LooseSizePoints:    3,
		PropertyTypePoints: 2,
		TightSizeSqm:       0.01,
		LooseSizeSqm:       0.02,
		Threshold:          2,
		ExactTierScore:     5,
	}
}

func (c Config) Validate() error {
	if c.PermitMinDigits < 1 {
		return fmt.Errorf("permit min digits must be positive, got %d", c.PermitMinDigits)
	}
	if c.PermitPrefixLength < 0 || c.PermitPrefixLength >= c.PermitMinDigits {
		return fmt.Errorf("permit prefix length %d must be below min digits %d", c.PermitPrefixLength, c.PermitMinDigits)
	}
	if c.PermitPartialTrim < 1 {
		return fmt.Errorf("permit partial trim must be positive, got %d", c.PermitPartialTrim)
	}
	if c.PermitSizeToleranceSqm < 0 || c.MapperSizeToleranceRatio < 0 || c.FuzzySizeWindowSqm < 0 {
		return fmt.Errorf("size tolerances must not be negative")
	}
	if c.FuzzyPageSize < 0 {
		return fmt.Errorf("fuzzy page size must not be negative, got %d", c.FuzzyPageSize)
	}
	if c.MapperResultLimit < 1 {
		return fmt.Errorf("mapper result limit must be positive, got %d", c.MapperResultLimit)
	}
	if c.Scoring.TightSizeSqm > c.Scoring.LooseSizeSqm {
		return fmt.Errorf("tight size window %.3f exceeds loose window %.3f", c.Scoring.TightSizeSqm, c.Scoring.LooseSizeSqm)
	}
	return nil
}
