package fingerprint

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var ErrInvalidTimingRange = errors.New("invalid timing range")

// TimingRange bounds the delta reported with each blackbox, in milliseconds.
type TimingRange struct {
	Min uint32 `json:"min" yaml:"min"`
	Max uint32 `json:"max" yaml:"max"`
}

func DefaultTimingRange() TimingRange {
	return TimingRange{Min: 150, Max: 300}
}

func (r TimingRange) Validate() error {
	if r.Min >= r.Max {
		return fmt.Errorf("%w: min %d must be below max %d", ErrInvalidTimingRange, r.Min, r.Max)
	}
	return nil
}

// Generate returns a uniform sample in [Min, Max).
func (r TimingRange) Generate() uint32 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rand.Uint32N(r.Max-r.Min)
}
