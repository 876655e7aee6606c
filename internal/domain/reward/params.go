package reward

import "github.com/phrazzld/sheepify-api/internal/domain"

// TierThreshold awards Tier when the quality score is at least MinScore.
type TierThreshold struct {
	MinScore float64
	Tier     domain.Tier
}

// Params defines the currency rate, the reward gates and the collectible
// tier table. Params values are treated as immutable once handed to a
// Calculator.
type Params struct {
	// CurrencyPerHour is the base reward per whole-or-partial hour slept.
	CurrencyPerHour float64

	// MinRewardScore gates all rewards.
	MinRewardScore float64

	// CollectibleConsiderScore is the score at which a collectible is considered.
	CollectibleConsiderScore float64

	// CollectibleAwardScore is the score at which the award roll happens.
	CollectibleAwardScore float64

	// AwardChance is the probability that a roll awards a collectible.
	AwardChance float64

	// TierThresholds are checked in order; FallbackTier applies when none match.
	TierThresholds []TierThreshold
	FallbackTier   domain.Tier
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		CurrencyPerHour:          50,
		MinRewardScore:           50,
		CollectibleConsiderScore: 70,
		CollectibleAwardScore:    85,
		AwardChance:              0.10,
		TierThresholds: []TierThreshold{
			{MinScore: 95, Tier: domain.TierGolden},
			{MinScore: 90, Tier: domain.TierCotswold},
			{MinScore: 85, Tier: domain.TierSuffolk},
		},
		// Only reachable if CollectibleAwardScore is lowered below the last threshold.
		FallbackTier: domain.TierMerino,
	}
}
