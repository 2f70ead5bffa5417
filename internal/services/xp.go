package services

import "math"

const (
	// XPPerMinute is the base time credit for any tracked session.
	XPPerMinute = 5
	// XPPerAnalysisTopic is the bonus per topic the lecture analysis
	// returned, counted on the analysis, not on actually matched nodes.
	XPPerAnalysisTopic = 8

	xpRequiredCoef = 500.0
)

// XPRequiredForLevel returns the total-XP threshold of a level:
// 500 * level^1.5, rounded up so float rounding never lowers a threshold.
func XPRequiredForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	return int(math.Ceil(xpRequiredCoef * math.Pow(float64(level), 1.5)))
}

// LevelForTotalXP returns the highest level whose threshold totalXP meets.
func LevelForTotalXP(totalXP int) int {
	if totalXP <= 0 {
		return 0
	}

	low, high := 0, 1
	for XPRequiredForLevel(high) <= totalXP {
		low = high
		high *= 2
		if high > 1_000_000 {
			break
		}
	}
	for low+1 < high {
		mid := low + (high-low)/2
		if XPRequiredForLevel(mid) <= totalXP {
			low = mid
		} else {
			high = mid
		}
	}
	return low
}
