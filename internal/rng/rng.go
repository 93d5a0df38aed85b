// Package rng implements the deterministic linear-congruential generator that
// drives food placement. The multiplier, increment, and modulus are fixed so
// that a given seed produces the same sequence as every other implementation
// that recorded benchmark seeds; changing them breaks replay comparability.
package rng

const (
	multiplier = 1103515245
	increment  = 12345
	modulus    = 1 << 31
)

// LCG is a seeded linear-congruential generator. Not safe for concurrent use;
// each simulation owns its own instance.
type LCG struct {
	state int64
}

// New creates a generator from the given seed. Negative seeds are normalized
// into the modulus range so the sequence stays well-defined.
func New(seed int64) *LCG {
	s := seed % modulus
	if s < 0 {
		s += modulus
	}
	return &LCG{state: s}
}

// Next advances the generator and returns a float in [0, 1).
func (l *LCG) Next() float64 {
	l.state = (l.state*multiplier + increment) % modulus
	return float64(l.state) / float64(modulus)
}

// NextInt returns a uniformly distributed integer in [min, max].
func (l *LCG) NextInt(min, max int) int {
	return int(l.Next()*float64(max-min+1)) + min
}

// State exposes the raw generator state for golden tests.
func (l *LCG) State() int64 {
	return l.state
}
