// Package scoring computes the points awarded for a submitted answer.
package scoring

import "math"

const (
	// BasePoints is awarded for any correct answer.
	BasePoints = 10
	// MaxSpeedBonus is the extra awarded for an instant correct answer,
	// decreasing linearly to zero at the question time limit.
	MaxSpeedBonus = 10
)

// Score returns the points for a submission. Incorrect answers score zero.
// responseTimeMs at or beyond the limit earns no bonus; negative values count
// as an instant answer.
func Score(isCorrect bool, responseTimeMs int64, timePerQuestionSec int) int {
	if !isCorrect {
		return 0
	}
	if timePerQuestionSec <= 0 {
		return BasePoints
	}
	if responseTimeMs < 0 {
		responseTimeMs = 0
	}
	limitMs := float64(timePerQuestionSec) * 1000
	bonus := int(math.Round((1 - float64(responseTimeMs)/limitMs) * MaxSpeedBonus))
	if bonus < 0 {
		bonus = 0
	}
	if bonus > MaxSpeedBonus {
		bonus = MaxSpeedBonus
	}
	return BasePoints + bonus
}
