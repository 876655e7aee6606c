// Package scoring computes the quality score of a completed sleep session from
// its duration, its start time and the account's recent sleep history.
package scoring

import (
	"math"
	"time"

	"github.com/phrazzld/sheepify-api/internal/domain"
)

// Breakdown reports each component of a quality score alongside the total.
type Breakdown struct {
	Duration    float64 `json:"duration"`
	Timing      float64 `json:"timing"`
	Consistency float64 `json:"consistency"`
	Total       float64 `json:"total"`
}

// Service defines the interface for quality scoring
type Service interface {
	// Score computes the quality of a session lasting durationHours that
	// started at start. history holds the fractional start hours of the
	// account's completed sessions inside the trailing stats window.
	Score(durationHours float64, start time.Time, history []float64) Breakdown
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scoring service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scoring service with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// Score implements Service.
func (s *defaultService) Score(durationHours float64, start time.Time, history []float64) Breakdown {
	b := Breakdown{
		Duration:    calculateDurationPoints(durationHours, s.params),
		Timing:      calculateTimingPoints(start.Hour(), s.params),
		Consistency: calculateConsistencyRatio(history, s.params) * s.params.MaxConsistencyPoints,
	}
	b.Total = math.Max(0, math.Min(b.Duration+b.Timing+b.Consistency, s.params.MaxScore))
	return b
}

// StartHours converts sessions to fractional start hours in loc.
func StartHours(sessions []domain.Session, loc *time.Location) []float64 {
	if loc == nil {
		loc = time.UTC
	}
	hours := make([]float64, 0, len(sessions))
	for i := range sessions {
		start := sessions[i].StartTime.In(loc)
		hours = append(hours, float64(start.Hour())+float64(start.Minute())/60)
	}
	return hours
}
