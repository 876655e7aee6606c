// Package reward turns a scored sleep session into currency and, sometimes,
// a collectible tier. It performs no I/O: callers apply the result.
package reward

import (
	"math"
	"math/rand/v2"

	"github.com/phrazzld/sheepify-api/internal/domain"
)

// Roller is a source of uniform draws in [0, 1).
type Roller interface {
	Float64() float64
}

// RollerFunc adapts a function to the Roller interface.
type RollerFunc func() float64

// Float64 implements Roller.
func (f RollerFunc) Float64() float64 {
	return f()
}

// DefaultRoller draws from the process-wide math/rand/v2 source.
var DefaultRoller Roller = RollerFunc(rand.Float64)

// Result is the outcome of a reward calculation.
type Result struct {
	// Currency is the amount to credit. Zero when the score is below the gate.
	Currency int64 `json:"currency"`

	// Rolled reports whether a collectible draw took place.
	Rolled bool `json:"rolled"`

	// CollectibleTier is set when a collectible was won.
	CollectibleTier *domain.Tier `json:"collectible_tier,omitempty"`
}

// Calculator defines the interface for reward calculation
type Calculator interface {
	// Eligible reports whether a session with this score earns any reward.
	Eligible(score float64) bool

	// Calculate computes the reward for a session of durationHours with the
	// given quality score.
	Calculate(durationHours, score float64) Result
}

type defaultCalculator struct {
	params *Params
	roller Roller
}

// NewDefaultCalculator creates a calculator with default parameters drawing
// from DefaultRoller.
func NewDefaultCalculator() Calculator {
	return NewCalculator(NewDefaultParams(), DefaultRoller)
}

// NewCalculator creates a calculator with custom parameters and random source.
// A nil roller falls back to DefaultRoller.
func NewCalculator(params *Params, roller Roller) Calculator {
	if params == nil {
		params = NewDefaultParams()
	}
	if roller == nil {
		roller = DefaultRoller
	}
	return &defaultCalculator{params: params, roller: roller}
}

// Eligible implements Calculator.
func (c *defaultCalculator) Eligible(score float64) bool {
	return score >= c.params.MinRewardScore
}

// Calculate implements Calculator.
func (c *defaultCalculator) Calculate(durationHours, score float64) Result {
	if !c.Eligible(score) {
		return Result{}
	}

	result := Result{Currency: CurrencyFor(durationHours, score, c.params)}

	if score < c.params.CollectibleConsiderScore || score < c.params.CollectibleAwardScore {
		return result
	}

	result.Rolled = true
	if c.roller.Float64() < c.params.AwardChance {
		tier := TierFor(score, c.params)
		result.CollectibleTier = &tier
	}

	return result
}

// CurrencyFor floors the hourly base before scaling it by quality, then
// floors again.
func CurrencyFor(durationHours, score float64, params *Params) int64 {
	base := math.Floor(durationHours * params.CurrencyPerHour)
	return int64(math.Floor(base * (score / 100)))
}

// TierFor picks the collectible tier for a winning score.
func TierFor(score float64, params *Params) domain.Tier {
	for _, th := range params.TierThresholds {
		if score >= th.MinScore {
			return th.Tier
		}
	}
	return params.FallbackTier
}
