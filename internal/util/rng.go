package util

import "math/rand"

// NewRand returns a seeded RNG for humanization rolls. Seed 0 is reserved
// for "pick something" (time-based would break replayability of sim runs,
// so we fall back to a fixed seed instead).
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	return rand.New(rand.NewSource(seed))
}
