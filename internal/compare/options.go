// Package compare implements the product comparability engine: given a base
// product and a catalog snapshot it finds comparable products and ranks them
// by a weighted similarity score built from price proximity and normalized
// spec deltas.
package compare

import "fmt"

// Weights defines the relative importance of each feature category in the
// similarity score. The SSD bonus is a fixed extra applied on top of the
// storage size weight when one side has solid-state storage and the other
// does not.
type Weights struct {
	Processor float64
	RAM       float64
	Storage   float64
	SSDBonus  float64
	Screen    float64
	Graphics  float64

	// Other is shared by feature categories the engine has no dedicated
	// normalizer for (e.g. "battery").
	Other float64
}

// DefaultWeights returns the default weighting table.
func DefaultWeights() Weights {
	return Weights{
		Processor: 0.30,
		RAM:       0.20,
		Storage:   0.20,
		SSDBonus:  0.05,
		Screen:    0.15,
		Graphics:  0.10,
		Other:     0.05,
	}
}

// PriceBand bounds candidate prices as multipliers of the base price.
// A candidate at 0.9x the base price passes the default band; one at 1.5x
// does not.
type PriceBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultPriceBand returns the default +-30% band.
func DefaultPriceBand() PriceBand {
	return PriceBand{Min: 0.7, Max: 1.3}
}

// Validate checks that the band multipliers are positive and ordered.
func (b PriceBand) Validate() error {
	if b.Min <= 0 || b.Max <= 0 {
		return fmt.Errorf("price band multipliers must be positive, got min=%g max=%g", b.Min, b.Max)
	}
	if b.Min >= b.Max {
		return fmt.Errorf("price band min %g must be below max %g", b.Min, b.Max)
	}
	return nil
}

// Options is the immutable configuration for a ranking call. The zero value
// is not usable; start from DefaultOptions and override fields as needed.
type Options struct {
	Weights Weights
	Band    PriceBand

	// Damping controls how hard price divergence suppresses the similarity
	// score: the final score is multiplied by 1 / max(1, |ratio-1| * Damping).
	Damping float64

	// Limit caps the number of ranked results returned.
	Limit int

	// Disadvantages enables the symmetric "where the base product wins"
	// strings on each result.
	Disadvantages bool
}

// DefaultLimit is the result cap applied when Options.Limit is unset.
const DefaultLimit = 10

// DefaultOptions returns the engine defaults: +-30% price band, default
// weight table, damping constant 1, top 10 results with disadvantages.
func DefaultOptions() Options {
	return Options{
		Weights:       DefaultWeights(),
		Band:          DefaultPriceBand(),
		Damping:       1,
		Limit:         DefaultLimit,
		Disadvantages: true,
	}
}

// normalized returns a copy with zero-value fields replaced by defaults.
func (o Options) normalized() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Damping <= 0 {
		o.Damping = 1
	}
	if o.Band == (PriceBand{}) {
		o.Band = DefaultPriceBand()
	}
	if o.Weights == (Weights{}) {
		o.Weights = DefaultWeights()
	}
	return o
}
