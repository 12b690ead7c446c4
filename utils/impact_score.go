package utils

import "math"

// CalculateImpactScore weighs a user's overall contribution for ranking.
// Streaks are rewarded quadratically so consistency beats one-off savings.
func CalculateImpactScore(streak int, totalSavings, co2Saved float64) float64 {
	streakScore := math.Pow(float64(streak), 2) * 0.3
	savingsScore := totalSavings * 0.5
	co2Score := co2Saved * 2.0

	return streakScore + savingsScore + co2Score
}
