package pvoc

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-pvoc/dsp/core"
	"github.com/cwbudde/algo-pvoc/dsp/spectrum"
	"github.com/cwbudde/algo-pvoc/dsp/window"
	"github.com/cwbudde/algo-pvoc/pvoc/pvfft"
)

// Analyzer is the time-domain -> spectral node (spec.md §4.2). It windows
// and FFTs overlapping N-sample frames at hop P, estimates true frequency
// per bin via phase unwrapping, and publishes magnitude/frequency into the
// PVStream it owns.
type Analyzer struct {
	playState

	geometry   Geometry
	cfg        nodeConfig
	windowType window.Type

	ring      []float64
	incount   int
	overcount int

	inframe []float64
	fft     *pvfft.Transform
	reBuf   []float64
	imBuf   []float64

	lastPhase []float64
	window    []float64

	stream *Stream
}

// NewAnalyzer constructs an Analyzer for the given sample rate and options.
func NewAnalyzer(sampleRate float64, opts ...Option) (*Analyzer, error) {
	cfg := applyOptions(opts...)
	core.WithSampleRate(sampleRate)(&cfg.ProcessorConfig)

	a := &Analyzer{}
	a.Play()

	err := a.reallocate(sampleRate, cfg.size, cfg.olaps, cfg.windowType, cfg)
	if err != nil {
		return nil, fmt.Errorf("pvoc: new analyzer: %w", err)
	}

	return a, nil
}

// PVStream returns the Stream this Analyzer produces into.
func (a *Analyzer) PVStream() *Stream { return a.stream }

// Geometry returns the Analyzer's current geometry.
func (a *Analyzer) Geometry() Geometry { return a.geometry }

// WindowType returns the currently configured window shape.
func (a *Analyzer) WindowType() window.Type { return a.windowType }

// SetSize changes the FFT size, forcing a full reallocation (phase history
// is discarded — spec.md §4.2 edge case).
func (a *Analyzer) SetSize(size int) error {
	return a.reallocate(a.geometry.SampleRate, size, a.geometry.O, a.windowType, a.cfg)
}

// SetOlaps changes the overlap count, forcing a full reallocation.
func (a *Analyzer) SetOlaps(olaps int) error {
	return a.reallocate(a.geometry.SampleRate, a.geometry.N, olaps, a.windowType, a.cfg)
}

// SetWindowType regenerates the window table in place without touching
// phase history (spec.md §4.2 edge case).
func (a *Analyzer) SetWindowType(t window.Type) error {
	tbl := window.Generate(t, a.geometry.N, window.WithPeriodic())
	if len(tbl) != a.geometry.N {
		return fmt.Errorf("pvoc: analyzer window generation failed for size %d", a.geometry.N)
	}

	a.windowType = t
	a.window = tbl

	return nil
}

func (a *Analyzer) reallocate(sampleRate float64, size, olaps int, wt window.Type, cfg nodeConfig) error {
	g, rounded := NewGeometry(size, olaps, sampleRate)
	if rounded {
		cfg.logger.Warn("pvoc: analyzer geometry rounded up to power of two",
			"requestedSize", size, "requestedOlaps", olaps, "size", g.N, "olaps", g.O)
	}

	fft, err := pvfft.New(g.N)
	if err != nil {
		return err
	}

	tbl := window.Generate(wt, g.N, window.WithPeriodic())
	if len(tbl) != g.N {
		return fmt.Errorf("pvoc: analyzer window generation failed for size %d", g.N)
	}

	a.geometry = g
	a.cfg = cfg
	a.windowType = wt
	a.fft = fft
	a.window = tbl

	a.ring = make([]float64, g.N)
	a.inframe = make([]float64, g.N)
	a.reBuf = make([]float64, g.H)
	a.imBuf = make([]float64, g.H)
	a.lastPhase = make([]float64, g.H)

	if a.stream == nil {
		a.stream = newStream(g, cfg.BlockSize)
	} else {
		a.stream.reallocate(g, cfg.BlockSize)
	}

	a.overcount = 0
	a.incount = g.L

	return nil
}

// ComputeNextBlock consumes one host audio block (spec.md §4.2). Each
// sample is appended to the input ring; every P samples a fresh analysis
// frame is windowed, FFT'd, and unwrapped into the Stream's next hop-slot
// row. A stopped Analyzer (Stop called) leaves the ring, schedule, and
// Stream untouched.
func (a *Analyzer) ComputeNextBlock(block []float64) {
	if !a.Playing() {
		return
	}

	a.stream.ensureCountLen(len(block))

	n := a.geometry.N

	for i, s := range block {
		a.ring[a.incount] = s
		a.stream.setCount(i, a.incount)
		a.incount++

		if a.incount == n {
			a.hop()
		}
	}
}

// hop runs one full analysis frame: step 2a-2g of spec.md §4.2's
// per-sample algorithm, triggered when the input ring has filled.
func (a *Analyzer) hop() {
	g := a.geometry

	a.incount = g.L

	m := g.P * a.overcount
	for k := 0; k < g.N; k++ {
		a.inframe[(k+m)%g.N] = a.ring[k] * a.window[k]
	}

	err := a.fft.Forward(a.reBuf, a.imBuf, a.inframe)
	if err != nil {
		// The FFT plan was validated at construction/reallocation time for
		// this exact geometry; a Forward failure here can only be an
		// allocation failure, which spec.md §7(d) treats as fatal.
		panic(fmt.Errorf("pvoc: analyzer forward FFT failed: %w", err))
	}

	magnRow := a.stream.MagnRow(a.overcount)
	freqRow := a.stream.FreqRow(a.overcount)

	spectrum.MagnitudeFromParts(magnRow, a.reBuf, a.imBuf)

	for k := 0; k < g.H; k++ {
		phase := math.Atan2(a.imBuf[k], a.reBuf[k])
		delta := wrapPhase(phase - a.lastPhase[k])
		a.lastPhase[k] = phase
		freqRow[k] = (delta + float64(k)*g.scaleA) * g.factorA
	}

	copy(a.ring[:g.L], a.ring[g.P:g.N])

	a.overcount = (a.overcount + 1) % g.O
}

// wrapPhase wraps d into (-pi, pi] by repeated +/-2*pi, per spec.md §4.2e.
func wrapPhase(d float64) float64 {
	for d > math.Pi {
		d -= 2 * math.Pi
	}

	for d <= -math.Pi {
		d += 2 * math.Pi
	}

	return d
}
