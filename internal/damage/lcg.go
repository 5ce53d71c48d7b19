package damage

// RNG is the Numerical-Recipes 32-bit linear congruential generator used for
// every damage roll. It is seeded once per battle from the shared
// handshake seed and never reseeded mid-battle; both peers construct one
// from the same seed and must therefore draw bit-identical sequences.
//
// state' = state*1664525 + 1013904223 (mod 2^32)
//
// chosen over math/rand because nothing in math/rand's algorithm is
// specified across Go versions, and this engine's one invariant is that two
// independent processes produce the same draw from the same seed.
type RNG struct {
	state uint32
}

// NewRNG seeds an RNG. Seed is the shared battle seed, in [1, 99999].
func NewRNG(seed uint32) *RNG {
	return &RNG{state: seed}
}

// Next advances the generator and returns a draw in [0, 1).
func (r *RNG) Next() float64 {
	r.state = r.state*1664525 + 1013904223
	return float64(r.state) / 4294967296.0
}

// RandomMultiplier draws the per-turn damage roll, uniform in [0.85, 1.0).
func (r *RNG) RandomMultiplier() float64 {
	return 0.85 + r.Next()*0.15
}

// State exposes the raw generator state.
func (r *RNG) State() uint32 {
	return r.state
}
