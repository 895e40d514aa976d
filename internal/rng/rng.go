// Package rng provides the seeded random source threaded through a battle.
// A Source is never shared between simulations.
package rng

import (
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrEmptySeed is returned when a seed is blank.
var ErrEmptySeed = errors.New("seed must not be empty")

// streamSalt separates the second PCG word from the first.
const streamSalt = 0x9e3779b97f4a7c15

// Source is a deterministic random stream derived from a seed string.
type Source struct {
	seed string
	r    *rand.Rand
}

// New creates a Source for seed. The same seed always yields the same stream.
func New(seed string) (*Source, error) {
	if strings.TrimSpace(seed) == "" {
		return nil, ErrEmptySeed
	}
	hi := xxhash.Sum64String(seed)
	lo := xxhash.Sum64String(seed+"#stream") ^ streamSalt
	return &Source{
		seed: seed,
		r:    rand.New(rand.NewPCG(hi, lo)),
	}, nil
}

// Seed returns the seed the Source was built from.
func (s *Source) Seed() string {
	return s.seed
}

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// IntN returns a value in [0, n). n <= 0 yields 0.
func (s *Source) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return s.r.IntN(n)
}

// Between returns a value in [lo, hi].
func (s *Source) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.r.IntN(hi-lo+1)
}

// Chance draws once and reports whether the roll fell under p.
// A draw is consumed even for p <= 0 or p >= 1 so the stream position
// never depends on the probability value.
func (s *Source) Chance(p float64) bool {
	return s.r.Float64() < p
}

// SeedForPair derives the training seed for a matchup. The ids are sorted so
// the same two fighters always map to the same seed.
func SeedForPair(idA, idB string) string {
	if idB < idA {
		idA, idB = idB, idA
	}
	return "training_" + idA + "_" + idB
}
