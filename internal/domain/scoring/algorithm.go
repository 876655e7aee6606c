package scoring

import (
	"math"
)

// calculateDurationPoints scores how long the session lasted.
func calculateDurationPoints(hours float64, params *Params) float64 {
	switch {
	case hours >= params.IdealDurationMinHours && hours <= params.IdealDurationMaxHours:
		return params.IdealDurationPoints
	case hours >= params.GoodDurationMinHours && hours < params.IdealDurationMinHours:
		return params.GoodDurationPoints
	case hours >= params.FairDurationMinHours && hours < params.GoodDurationMinHours:
		return params.FairDurationPoints
	case hours > params.IdealDurationMaxHours:
		return params.LongDurationPoints
	default:
		return params.ShortDurationPoints
	}
}

// calculateTimingPoints scores the hour of day the session started.
func calculateTimingPoints(hour int, params *Params) float64 {
	for _, band := range params.TimingBands {
		if hour >= band.FromHour && hour <= band.ToHour {
			return band.Points
		}
	}
	return params.DefaultTimingPoints
}

// calculateConsistencyRatio maps the spread of recent start hours to [0,1].
// Fewer than MinConsistencySamples samples yields the neutral ratio.
func calculateConsistencyRatio(startHours []float64, params *Params) float64 {
	if len(startHours) < params.MinConsistencySamples || len(startHours) < 2 {
		return params.NeutralConsistencyRatio
	}

	stdDev := sampleStdDev(startHours)
	for _, band := range params.ConsistencyBands {
		if stdDev < band.MaxStdDevHours {
			return band.Ratio
		}
	}
	return params.LooseConsistencyRatio
}

// sampleStdDev returns the sample (n-1) standard deviation. Callers guarantee
// at least two values.
func sampleStdDev(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}
