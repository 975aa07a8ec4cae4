package pvoc

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-pvoc/internal/testutil"
)

func TestTransposeShiftsDominantBin(t *testing.T) {
	const (
		sampleRate = 48000.0
		size       = 1024
		olaps      = 4
		binIndex   = 16
		block      = 256
	)

	freq := binIndex * sampleRate / size

	a, err := NewAnalyzer(sampleRate, WithFFTSize(size), WithOverlap(olaps), WithBlockSize(block))
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}

	tr, err := NewTranspose(a, 2.0, WithBlockSize(block))
	if err != nil {
		t.Fatalf("NewTranspose: %v", err)
	}

	sig := testutil.DeterministicSine(freq, sampleRate, 1.0, size*8)

	for i := 0; i+block <= len(sig); i += block {
		a.ComputeNextBlock(sig[i : i+block])
		tr.ComputeNextBlock(block)
	}

	stream := tr.PVStream()
	g := a.Geometry()

	peakBin, peakMagn := 0, 0.0
	for row := 0; row < g.O; row++ {
		for k := 0; k < g.H; k++ {
			if m := stream.Magn(row, k); m > peakMagn {
				peakMagn = m
				peakBin = k
			}
		}
	}

	if peakBin != binIndex*2 {
		t.Fatalf("peak bin after 2x transpose = %d, want %d", peakBin, binIndex*2)
	}
}

func TestGateDampsBelowThreshold(t *testing.T) {
	g, _ := NewGeometry(8, 2, 48000)
	src := newStream(g, 4)
	src.setMagnRow(0, []float64{0.1, 5.0, 0.2, 9.0})
	src.setFreqRow(0, []float64{10, 20, 30, 40})
	src.setCount(0, g.N-1)
	src.setCount(1, 0)
	src.setCount(2, 0)
	src.setCount(3, 0)

	// thresh_db = 0 -> linear threshold 10^(0/20) = 1.0.
	gate, err := NewGate(src, 0, 0, WithBlockSize(4))
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}

	gate.ComputeNextBlock(4)

	out := gate.PVStream()
	want := []float64{0, 5.0, 0, 9.0}
	for k, w := range want {
		if out.Magn(0, k) != w {
			t.Fatalf("bin %d = %v, want %v", k, out.Magn(0, k), w)
		}
	}

	// Frequency passes through untouched even where magnitude is gated.
	wantFreq := []float64{10, 20, 30, 40}
	for k, w := range wantFreq {
		if out.Freq(0, k) != w {
			t.Fatalf("freq bin %d = %v, want %v", k, out.Freq(0, k), w)
		}
	}
}

// TestGateThresholdDBConversion exercises testable property 6: with
// thresh_db = T and damp = 0, magn_out[k] must be exactly zero iff
// magn_in[k] < 10^(T/20).
func TestGateThresholdDBConversion(t *testing.T) {
	const thresholdDB = -6.0

	g, _ := NewGeometry(8, 2, 48000)
	src := newStream(g, 4)

	linear := math.Pow(10, thresholdDB/20)
	below := linear * 0.5
	above := linear * 2.0

	src.setMagnRow(0, []float64{below, above, below, above})
	src.setCount(0, g.N-1)
	src.setCount(1, 0)
	src.setCount(2, 0)
	src.setCount(3, 0)

	gate, err := NewGate(src, thresholdDB, 0, WithBlockSize(4))
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}

	gate.ComputeNextBlock(4)

	out := gate.PVStream()
	want := []float64{0, above, 0, above}
	for k, w := range want {
		if out.Magn(0, k) != w {
			t.Fatalf("bin %d = %v, want %v", k, out.Magn(0, k), w)
		}
	}
}

// TestGatePartialDamp checks that a nonzero damp scales sub-threshold bins
// instead of zeroing them.
func TestGatePartialDamp(t *testing.T) {
	const damp = 0.25

	g, _ := NewGeometry(8, 2, 48000)
	src := newStream(g, 4)
	src.setMagnRow(0, []float64{0.1, 5.0, 0.2, 9.0})
	src.setCount(0, g.N-1)
	src.setCount(1, 0)
	src.setCount(2, 0)
	src.setCount(3, 0)

	gate, err := NewGate(src, 0, damp, WithBlockSize(4))
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}

	gate.ComputeNextBlock(4)

	out := gate.PVStream()
	want := []float64{0.1 * damp, 5.0, 0.2 * damp, 9.0}
	for k, w := range want {
		if out.Magn(0, k) != w {
			t.Fatalf("bin %d = %v, want %v", k, out.Magn(0, k), w)
		}
	}
}

func TestGateAudioRateThreshold(t *testing.T) {
	g, _ := NewGeometry(8, 2, 48000)
	src := newStream(g, 8)
	src.setMagnRow(0, []float64{1, 2, 3, 4})
	src.setMagnRow(1, []float64{1, 2, 3, 4})
	gate, err := NewGate(src, -300, 0, WithBlockSize(8))
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}

	calls := 0
	thresholdDB := 20 * math.Log10(2.5)
	gate.SetThresholdFunc(func() float64 {
		calls++
		return thresholdDB
	})

	// Manually craft a schedule where sample 3 completes the first hop.
	src.setCount(0, 0)
	src.setCount(1, 1)
	src.setCount(2, 2)
	src.setCount(3, g.N-1)
	src.setCount(4, 0)
	src.setCount(5, 1)
	src.setCount(6, 2)
	src.setCount(7, g.N-1)

	gate.ComputeNextBlock(8)

	if calls != 2 {
		t.Fatalf("threshold func called %d times, want 2 (once per hop)", calls)
	}

	out := gate.PVStream()
	want := []float64{0, 0, 3, 4}
	for k, w := range want {
		if out.Magn(0, k) != w {
			t.Fatalf("bin %d = %v, want %v", k, out.Magn(0, k), w)
		}
	}
}

// TestReverbDecaysAcrossHops exercises S5's concrete decay factors: at
// revtime=0, damp=0 the mapping yields r=0.75 (per-hop decay) and d=0.997
// (per-bin damping base), the same constants S5 names (spec.md §8's S5 says
// "damp=1" for this case, but the mapping formula in §4.4 only reaches
// d=0.997 at damp=0 — see DESIGN.md's Open Question resolution).
func TestReverbDecaysAcrossHops(t *testing.T) {
	g, _ := NewGeometry(8, 2, 48000)
	src := newStream(g, 4)

	rv, err := NewReverb(src, 0, 0, WithBlockSize(4))
	if err != nil {
		t.Fatalf("NewReverb: %v", err)
	}

	src.setMagnRow(0, []float64{1, 1, 1, 1})
	src.setCount(0, g.N-1)
	src.setCount(1, 0)
	src.setCount(2, 0)
	src.setCount(3, 0)
	rv.ComputeNextBlock(4)

	firstBin0 := rv.PVStream().Magn(0, 0)
	if firstBin0 != 1 {
		t.Fatalf("first hop bin 0 = %v, want 1 (tail starts at zero)", firstBin0)
	}

	src.setMagnRow(1, []float64{0, 0, 0, 0})
	src.setCount(0, 1)
	src.setCount(1, g.N-1)
	src.setCount(2, 0)
	src.setCount(3, 0)
	rv.ComputeNextBlock(4)

	secondBin0 := rv.PVStream().Magn(1, 0)
	wantBin0 := firstBin0 * 0.75
	if math.Abs(secondBin0-wantBin0) > 1e-12 {
		t.Fatalf("second hop bin 0 = %v, want %v (0.75 per-hop decay)", secondBin0, wantBin0)
	}

	secondBin1 := rv.PVStream().Magn(1, 1)
	wantBin1 := firstBin0 * 0.75 * 0.997
	if math.Abs(secondBin1-wantBin1) > 1e-12 {
		t.Fatalf("second hop bin 1 = %v, want %v (0.75 * 0.997^1 decay)", secondBin1, wantBin1)
	}
}

// TestReverbMonotoneAttack exercises testable property 5: feeding a
// non-decreasing magn_in sequence must make l_magn track it exactly, since
// the attack path is instantaneous.
func TestReverbMonotoneAttack(t *testing.T) {
	g, _ := NewGeometry(8, 2, 48000)
	src := newStream(g, 4)

	rv, err := NewReverb(src, 0.5, 0.5)
	if err != nil {
		t.Fatalf("NewReverb: %v", err)
	}

	sequence := [][]float64{
		{0, 1, 2, 3},
		{0.5, 1, 2.5, 3},
		{1, 1, 3, 3},
	}

	row := 0
	for step, magn := range sequence {
		src.setMagnRow(row, magn)

		src.setCount(0, g.N-1)
		for i := 1; i < g.N/2; i++ {
			src.setCount(i, i-1)
		}

		rv.ComputeNextBlock(g.N / 2)

		out := rv.PVStream()
		for k, want := range magn {
			if got := out.Magn(row, k); got != want {
				t.Fatalf("step %d bin %d = %v, want %v (attack must be instantaneous)", step, k, got, want)
			}
		}

		row = (row + 1) % g.O
	}
}
