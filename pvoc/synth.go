package pvoc

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-pvoc/dsp/core"
	"github.com/cwbudde/algo-pvoc/dsp/window"
	"github.com/cwbudde/algo-pvoc/pvoc/pvfft"
)

// Synthesizer is the spectral -> time-domain node (spec.md §4.3). It
// accumulates phase from the frequency row of each hop slot it is handed,
// inverse-FFTs the reconstructed spectrum, and windowed-overlap-adds the
// result into a running output accumulator at hop P.
type Synthesizer struct {
	playState

	geometry   Geometry
	cfg        nodeConfig
	windowType window.Type

	input StreamProvider

	outcount  int
	overcount int

	fft      *pvfft.Transform
	reBuf    []float64
	imBuf    []float64
	outframe []float64

	sumPhase []float64
	window   []float64

	outputAccum []float64 // length N, circular, drained at outcount
	drained     []float64 // scratch holding the most recently drained block
}

// NewSynthesizer constructs a Synthesizer reading from input, which must
// satisfy StreamProvider (the Analyzer or a Transformer).
func NewSynthesizer(input StreamProvider, sampleRate float64, opts ...Option) (*Synthesizer, error) {
	if input == nil {
		return nil, ErrNotAPVStream
	}

	stream, ok := From(input)
	if !ok {
		return nil, ErrNotAPVStream
	}

	cfg := applyOptions(opts...)
	core.WithSampleRate(sampleRate)(&cfg.ProcessorConfig)

	s := &Synthesizer{input: input}
	s.Play()

	err := s.reallocate(stream.Geometry(), cfg.windowType, cfg)
	if err != nil {
		return nil, fmt.Errorf("pvoc: new synthesizer: %w", err)
	}

	return s, nil
}

func (s *Synthesizer) reallocate(g Geometry, wt window.Type, cfg nodeConfig) error {
	fft, err := pvfft.New(g.N)
	if err != nil {
		return err
	}

	tbl := window.Generate(wt, g.N, window.WithPeriodic())
	if len(tbl) != g.N {
		return fmt.Errorf("pvoc: synthesizer window generation failed for size %d", g.N)
	}

	s.geometry = g
	s.cfg = cfg
	s.windowType = wt
	s.fft = fft
	s.window = tbl

	s.reBuf = make([]float64, g.H)
	s.imBuf = make([]float64, g.H)
	s.outframe = make([]float64, g.N)
	s.sumPhase = make([]float64, g.H)
	s.outputAccum = make([]float64, g.N)

	s.overcount = 0
	s.outcount = 0

	return nil
}

// ComputeNextBlock consumes one host audio block's worth of samples from
// the overlap-add accumulator, driving a fresh synthesis hop whenever the
// upstream's schedule marks a sample as belonging to a completed frame
// (spec.md §4.3). The result is written into out, which must have the
// same length as the block most recently passed to the upstream Analyzer.
func (s *Synthesizer) ComputeNextBlock(out []float64) {
	if !s.Playing() {
		for i := range out {
			out[i] = 0
		}

		return
	}

	s.advance(len(out))
	copy(out, s.drained)
}

// Out advances the Synthesizer exactly like ComputeNextBlock, but adds the
// result into bus instead of overwriting it, so the Synthesizer can feed a
// host-owned audio bus shared by other sources (spec.md §6's "out" variant).
// A stopped Synthesizer contributes nothing and leaves bus untouched.
func (s *Synthesizer) Out(bus []float64) {
	if !s.Playing() {
		return
	}

	s.advance(len(bus))

	for i, v := range s.drained {
		bus[i] += v
	}
}

// advance drains n samples of overlap-add output into s.drained, running a
// fresh synthesis hop every time the upstream schedule completes a frame
// (spec.md §4.3), and is the shared core of ComputeNextBlock and Out.
func (s *Synthesizer) advance(n int) {
	upstream := s.input.PVStream()
	if !upstream.geometry.Equal(s.geometry) {
		s.cfg.logger.Info("pvoc: synthesizer detected upstream geometry drift, reallocating",
			"oldSize", s.geometry.N, "newSize", upstream.geometry.N,
			"oldOlaps", s.geometry.O, "newOlaps", upstream.geometry.O)

		err := s.reallocate(upstream.geometry, s.windowType, s.cfg)
		if err != nil {
			panic(fmt.Errorf("pvoc: synthesizer reallocation failed: %w", err))
		}
	}

	g := s.geometry
	s.drained = core.EnsureLen(s.drained, n)

	for i := 0; i < n; i++ {
		if upstream.Count(i) == g.N-1 {
			s.hop(upstream)
		}

		s.drained[i] = s.outputAccum[s.outcount]
		s.outputAccum[s.outcount] = 0
		s.outcount++

		if s.outcount >= g.N {
			s.outcount = 0
		}
	}
}

// hop runs one full synthesis frame: phase accumulation, inverse FFT, and
// windowed overlap-add into the circular output accumulator (spec.md §4.3
// steps 1-5).
func (s *Synthesizer) hop(upstream *Stream) {
	g := s.geometry

	magnRow := upstream.MagnRow(s.overcount)
	freqRow := upstream.FreqRow(s.overcount)

	for k := 0; k < g.H; k++ {
		deviation := (freqRow[k] - float64(k)*g.scaleS) * g.factorS
		s.sumPhase[k] = wrapPhase(s.sumPhase[k] + deviation)

		mag := magnRow[k]
		s.reBuf[k] = mag * math.Cos(s.sumPhase[k])
		s.imBuf[k] = mag * math.Sin(s.sumPhase[k])
	}

	err := s.fft.Inverse(s.outframe, s.reBuf, s.imBuf)
	if err != nil {
		// Same fatal-allocation reasoning as Analyzer.hop.
		panic(fmt.Errorf("pvoc: synthesizer inverse FFT failed: %w", err))
	}

	m := g.P * s.overcount
	for k := 0; k < g.N; k++ {
		idx := (k + m) % g.N
		pos := (s.outcount + k) % g.N

		s.outputAccum[pos] = core.FlushDenormals(s.outputAccum[pos] + s.outframe[idx]*s.window[k]*g.ampScl)
	}

	s.overcount = (s.overcount + 1) % g.O
}
