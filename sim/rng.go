package sim

// The run RNG lives inside WorldState so Step stays a pure function of its
// inputs: the same state, delta, input and config always yield the same
// next state.

// seedRNG never returns zero; xorshift gets stuck on a zero state.
func seedRNG(seed uint64) uint64 {
	// splitmix64 finaliser spreads small seeds across all bits
	z := seed + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	if z == 0 {
		z = 1
	}
	return z
}

func xorshift(x uint64) uint64 {
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	if x == 0 {
		x = 1
	}
	return x
}

// randFloat returns a float64 in [0, 1) and advances the run RNG.
func (s *WorldState) randFloat() float64 {
	s.Rng = xorshift(s.Rng)
	return float64(s.Rng>>11) / (1 << 53)
}

// randRange returns a float64 in [min, max).
func (s *WorldState) randRange(min, max float64) float64 {
	return min + s.randFloat()*(max-min)
}

// randIntn returns an int in [0, n).
func (s *WorldState) randIntn(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(s.randFloat() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// localRNG is a throwaway generator for pure queries that must not advance
// the run RNG (upgrade candidates are recomputed on every request).
type localRNG struct{ x uint64 }

func newLocalRNG(seed uint64) *localRNG { return &localRNG{x: seedRNG(seed)} }

func (r *localRNG) Float64() float64 {
	r.x = xorshift(r.x)
	return float64(r.x>>11) / (1 << 53)
}
