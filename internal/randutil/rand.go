// Package randutil builds the explicitly owned random generators used for
// dealing. Nothing in the module draws from a package-level source.
package randutil

import (
	rand "math/rand/v2"
	"time"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand whose sequence is fully determined by seed.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(splitmix(u), splitmix(u+goldenRatio64)))
}

// Seed resolves an optional seed flag: the flag value when set, otherwise a
// seed derived from the current time.
func Seed(flag *int64) int64 {
	if flag != nil {
		return *flag
	}
	return time.Now().UnixNano()
}

// NewFromFlag combines Seed and New and returns the seed actually used so it
// can be logged and replayed.
func NewFromFlag(flag *int64) (*rand.Rand, int64) {
	seed := Seed(flag)
	return New(seed), seed
}

// splitmix is the SplitMix64 finaliser, spreading nearby seeds across the
// whole PCG state space.
func splitmix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
