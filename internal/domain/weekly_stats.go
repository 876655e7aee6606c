package domain

import (
	"math"
	"time"
)

// StatsWindow is the trailing window used for weekly statistics and for
// consistency scoring.
const StatsWindow = 7 * 24 * time.Hour

// WeeklyStats aggregates an account's completed sessions over StatsWindow.
type WeeklyStats struct {
	TotalSessions       int        `json:"total_sessions"`
	TotalHours          float64    `json:"total_hours"`
	AverageQuality      float64    `json:"average_quality"`
	TotalCurrencyEarned int64      `json:"total_currency_earned"`
	BestSessionTime     *time.Time `json:"best_session_time"`
}

// SummarizeSessions builds WeeklyStats from already-filtered completed sessions.
// A nil or empty slice yields the zero value.
//
// Sessions scored 0 (too short to score) are left out of the quality average
// but still count towards totals.
func SummarizeSessions(sessions []Session) WeeklyStats {
	if len(sessions) == 0 {
		return WeeklyStats{}
	}

	var (
		stats       WeeklyStats
		qualitySum  float64
		scoredCount int
		best        *Session
		bestScore   float64
	)

	stats.TotalSessions = len(sessions)
	for i := range sessions {
		s := &sessions[i]
		if s.DurationHours != nil {
			stats.TotalHours += *s.DurationHours
		}
		stats.TotalCurrencyEarned += s.RewardCurrency

		score := 0.0
		if s.QualityScore != nil {
			score = *s.QualityScore
		}
		if score > 0 {
			qualitySum += score
			scoredCount++
		}
		if best == nil || score > bestScore {
			best = s
			bestScore = score
		}
	}

	stats.TotalHours = roundTo2(stats.TotalHours)
	if scoredCount > 0 {
		stats.AverageQuality = roundTo2(qualitySum / float64(scoredCount))
	}
	bestStart := best.StartTime
	stats.BestSessionTime = &bestStart

	return stats
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
