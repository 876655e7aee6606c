package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Tier is the rarity class of a collectible sheep.
type Tier string

// Tiers in ascending rarity.
const (
	TierStarter  Tier = "starter"
	TierMerino   Tier = "merino"
	TierSuffolk  Tier = "suffolk"
	TierCotswold Tier = "cotswold"
	TierGolden   Tier = "golden"
)

const (
	// StarterName is the name given to the sheep every new account receives.
	StarterName = "Fluffy"

	// MaxCustomNameLength bounds a collectible's custom name.
	MaxCustomNameLength = 50

	// levelBonusPerLevel is the flat generation bonus added per level above 1.
	levelBonusPerLevel = 2.0

	// defaultBaseRate applies to tiers the table does not know.
	defaultBaseRate = 5.0
)

// Collectible validation errors
var (
	ErrEmptyCollectibleID        = errors.New("collectible ID cannot be empty")
	ErrEmptyCollectibleAccountID = errors.New("collectible account ID cannot be empty")
	ErrInvalidTier               = errors.New("invalid collectible tier")
	ErrInvalidLevel              = errors.New("collectible level must be at least 1")
	ErrNegativeExperience        = errors.New("collectible experience cannot be negative")
	ErrNegativeModifier          = errors.New("generation modifier cannot be negative")
	ErrCustomNameTooLong         = errors.New("custom name must be at most 50 characters long")
)

// Rank orders tiers; unknown tiers rank below starter.
func (t Tier) Rank() int {
	switch t {
	case TierStarter:
		return 1
	case TierMerino:
		return 2
	case TierSuffolk:
		return 3
	case TierCotswold:
		return 4
	case TierGolden:
		return 5
	default:
		return 0
	}
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t.Rank() > 0
}

// BaseRate is the currency generated per hour by a level 1 collectible of
// this tier with a modifier of 1.0.
func (t Tier) BaseRate() float64 {
	switch t {
	case TierStarter:
		return 5
	case TierMerino:
		return 10
	case TierSuffolk:
		return 15
	case TierCotswold:
		return 20
	case TierGolden:
		return 50
	default:
		return defaultBaseRate
	}
}

// Collectible is an owned sheep. Its tier, level and modifier determine how
// much currency it passively generates per hour.
type Collectible struct {
	ID                 uuid.UUID `json:"id"`
	AccountID          uuid.UUID `json:"account_id"`
	Tier               Tier      `json:"tier"`
	CustomName         string    `json:"custom_name,omitempty"`
	Level              int       `json:"level"`
	Experience         int       `json:"experience"`
	GenerationModifier float64   `json:"generation_modifier"`
	TotalGenerated     int64     `json:"total_generated"`
	IsFavorite         bool      `json:"is_favorite"`
	AcquiredAt         time.Time `json:"acquired_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewCollectible creates a level 1 collectible with no experience and a 1.0
// generation modifier.
func NewCollectible(accountID uuid.UUID, tier Tier, customName string) (*Collectible, error) {
	now := time.Now().UTC()
	c := &Collectible{
		ID:                 uuid.New(),
		AccountID:          accountID,
		Tier:               tier,
		CustomName:         customName,
		Level:              1,
		Experience:         0,
		GenerationModifier: 1.0,
		AcquiredAt:         now,
		UpdatedAt:          now,
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate checks if the Collectible has valid data.
func (c *Collectible) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCollectibleID
	}

	if c.AccountID == uuid.Nil {
		return ErrEmptyCollectibleAccountID
	}

	if !c.Tier.Valid() {
		return ErrInvalidTier
	}

	if c.Level < 1 {
		return ErrInvalidLevel
	}

	if c.Experience < 0 {
		return ErrNegativeExperience
	}

	if c.GenerationModifier < 0 {
		return ErrNegativeModifier
	}

	if len(c.CustomName) > MaxCustomNameLength {
		return ErrCustomNameTooLong
	}

	return nil
}

// GenerationRate is the currency this collectible generates per hour.
func (c *Collectible) GenerationRate() float64 {
	levelBonus := float64(c.Level-1) * levelBonusPerLevel
	return (c.Tier.BaseRate() + levelBonus) * c.GenerationModifier
}

// TotalGenerationRate sums the hourly generation rate of a set of collectibles.
func TotalGenerationRate(collectibles []Collectible) float64 {
	var total float64
	for i := range collectibles {
		total += collectibles[i].GenerationRate()
	}
	return total
}
