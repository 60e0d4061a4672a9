package effects

// noiseStream is a deterministic pseudo-random stream seeded purely by its
// inputs (splitmix64). Effects re-seed one per character per tick, so the same
// (character, time) pair always yields the same jitter and results stay
// reproducible without any global RNG state.
type noiseStream struct {
	state uint64
}

func newNoise(seed int64) *noiseStream {
	return &noiseStream{state: uint64(seed)}
}

// next returns the next value in [0, 1).
func (n *noiseStream) next() float64 {
	n.state += 0x9E3779B97F4A7C15
	z := n.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	return float64(z>>11) / (1 << 53)
}
