package pvoc

import "math"

// Geometry holds the FFT size, overlap count, and every constant derived
// from them for one PV graph segment (spec.md §3).
type Geometry struct {
	N int // FFT size, power of two
	O int // overlap count, power of two

	H int // half-size, N/2
	P int // hop size, N/O
	L int // input latency, N-P

	SampleRate float64

	// Analysis constants.
	factorA float64 // sr / (P * 2*pi)
	scaleA  float64 // 2*pi*P / N

	// Synthesis constants.
	factorS float64 // P*2*pi / sr
	scaleS  float64 // sr / N
	ampScl  float64 // 1/sqrt(O)
}

// NewGeometry builds a Geometry from requested size/olaps, rounding each up
// to the next power of two per spec.md §3. rounded reports whether either
// value was rounded, so callers can log the substitution as a warning.
func NewGeometry(size, olaps int, sampleRate float64) (g Geometry, rounded bool) {
	n := nextPow2(size)
	o := nextPow2(olaps)
	rounded = n != size || o != olaps

	g = Geometry{
		N:          n,
		O:          o,
		SampleRate: sampleRate,
	}
	g.H = g.N / 2
	g.P = g.N / g.O
	g.L = g.N - g.P

	g.factorA = sampleRate / (float64(g.P) * 2 * math.Pi)
	g.scaleA = 2 * math.Pi * float64(g.P) / float64(g.N)

	g.factorS = float64(g.P) * 2 * math.Pi / sampleRate
	g.scaleS = sampleRate / float64(g.N)
	g.ampScl = 1 / math.Sqrt(float64(g.O))

	return g, rounded
}

// Equal reports whether two geometries have the same N and O (the only
// fields a downstream consumer needs to compare to detect upstream drift,
// spec.md §3 "Lifecycle").
func (g Geometry) Equal(other Geometry) bool {
	return g.N == other.N && g.O == other.O
}

func nextPow2(v int) int {
	if v < 1 {
		return 1
	}

	p := 1
	for p < v {
		p <<= 1
	}

	return p
}

