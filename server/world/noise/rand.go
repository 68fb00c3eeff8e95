package noise

// Random is a small seeded PRNG used throughout world generation wherever a
// deterministic-in-the-seed sequence is needed (simplex permutation tables,
// populator placement, ore cluster sampling). It is splitmix64 underneath: fast,
// deterministic, and with good avalanche behaviour, so reseeding with
// nearby values still produces uncorrelated sequences.
type Random struct {
	state uint64
}

// NewRandom returns a Random seeded deterministically from seed.
func NewRandom(seed int64) *Random {
	r := &Random{}
	r.SetSeed(seed)
	return r
}

// SetSeed reseeds the generator. Re-seeding with the same value always
// produces the same subsequent sequence.
func (r *Random) SetSeed(seed int64) {
	r.state = uint64(seed) ^ 0x9E3779B97F4A7C15
}

// next advances the splitmix64 state and returns the next raw 64-bit value.
func (r *Random) next() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Uint64 returns the next raw pseudo-random value.
func (r *Random) Uint64() uint64 { return r.next() }

// Int31n returns a pseudo-random int32 in [0, n). Panics if n <= 0.
func (r *Random) Int31n(n int32) int32 {
	if n <= 0 {
		panic("noise: Int31n called with n <= 0")
	}
	return int32(r.next() % uint64(n))
}

// Range returns a pseudo-random int32 in [lo, hi].
func (r *Random) Range(lo, hi int32) int32 {
	if hi <= lo {
		return lo
	}
	return lo + r.Int31n(hi-lo+1)
}

// Float64 returns a pseudo-random float64 in [0, 1).
func (r *Random) Float64() float64 {
	return float64(r.next()>>11) / (1 << 53)
}

// Shuffle performs an in-place seeded Fisher-Yates shuffle of perm, used to
// build the simplex gradient permutation table.
func (r *Random) Shuffle(perm []int) {
	for i := len(perm) - 1; i > 0; i-- {
		j := int(r.Int31n(int32(i + 1)))
		perm[i], perm[j] = perm[j], perm[i]
	}
}
