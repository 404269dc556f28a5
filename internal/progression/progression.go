// Package progression holds the two independent level curves. Account level
// is derived from experience; mood level is derived from mood points. The two
// counters and curves are never mixed.
package progression

import "math"

const (
	experiencePerLevel = 1000
	moodStep           = 50
)

// AccountLevel returns floor(experience/1000)+1. Negative input is treated as zero.
func AccountLevel(experience int64) int64 {
	if experience < 0 {
		experience = 0
	}
	return experience/experiencePerLevel + 1
}

// MoodLevel returns the highest n such that MoodThreshold(n) <= points.
// The estimate comes from the closed form of the curve and is then corrected
// with an exact integer comparison, so large inputs cost constant time.
func MoodLevel(points int64) int64 {
	if points < 0 {
		points = 0
	}
	// MoodThreshold(n) = 25*n*(n-1) is a multiple of 25, so comparing
	// n*(n-1) against points/25 is exact.
	q := points / (moodStep / 2)

	level := int64((1 + math.Sqrt(1+4*float64(q))) / 2)
	if level < 1 {
		level = 1
	}
	for level > 1 && !reaches(level, q) {
		level--
	}
	for reaches(level+1, q) {
		level++
	}
	return level
}

// reaches reports whether n*(n-1) <= q without multiplying.
func reaches(n, q int64) bool {
	return n <= 1 || n-1 <= q/n
}

// MoodThreshold is the number of mood points required to reach level n:
// 50 * n*(n-1)/2, so each level costs 50 more than the previous one.
// Levels whose threshold does not fit in an int64 saturate at MaxInt64.
func MoodThreshold(level int64) int64 {
	if level <= 1 {
		return 0
	}
	const half = moodStep / 2
	if level > math.MaxInt64/half || level-1 > math.MaxInt64/(half*level) {
		return math.MaxInt64
	}
	return half * level * (level - 1)
}
