package pvoc

import "github.com/cwbudde/algo-pvoc/dsp/core"

// Gate damps the magnitude of any bin whose value falls below a dB-scale
// threshold, passing louder bins through unchanged, and leaves frequency
// untouched (spec.md §4.4 Gate). Like Reverb's parameters, threshold and
// damp are each live: they may be updated between hops, and
// SetThresholdFunc/SetDampFunc accept audio-rate sources evaluated once per
// hop (spec.md §5's scalar-vs-audio-rate parameter dispatch).
type Gate struct {
	*transformCore

	thresholdDB   float64
	thresholdFunc func() float64
	threshold     float64 // linear, cached from thresholdDB via core.DBToLinear

	damp     float64
	dampFunc func() float64

	scratchMagn []float64
}

// NewGate constructs a Gate reading from input with the given fixed
// threshold (in dB) and damp (applied to sub-threshold bins).
func NewGate(input StreamProvider, thresholdDB, damp float64, opts ...Option) (*Gate, error) {
	cfg := applyOptions(opts...)

	core, err := newTransformCore(input, cfg.BlockSize)
	if err != nil {
		return nil, err
	}

	g := &Gate{
		transformCore: core,
		scratchMagn:   make([]float64, core.geometry.H),
	}
	g.SetThreshold(thresholdDB)
	g.SetDamp(damp)

	core.onReallocate = func(h int) {
		g.scratchMagn = make([]float64, h)
	}

	return g, nil
}

// SetThreshold sets a fixed (scalar-rate) threshold in dB, clearing any
// previously configured audio-rate source.
func (g *Gate) SetThreshold(thresholdDB float64) {
	g.thresholdDB = thresholdDB
	g.thresholdFunc = nil
	g.threshold = core.DBToLinear(thresholdDB)
}

// SetThresholdFunc installs an audio-rate threshold source (in dB), sampled
// once per hop rather than once per block (spec.md §5). A nil fn removes the
// source; the threshold last applied stays in effect until SetThreshold.
func (g *Gate) SetThresholdFunc(fn func() float64) {
	g.thresholdFunc = fn
}

// Threshold returns the threshold last applied, in dB.
func (g *Gate) Threshold() float64 { return g.thresholdDB }

// SetDamp sets a fixed (scalar-rate) damp factor applied to sub-threshold
// bins, clearing any previously configured audio-rate source.
func (g *Gate) SetDamp(damp float64) {
	g.damp = damp
	g.dampFunc = nil
}

// SetDampFunc installs an audio-rate damp source, sampled once per hop.
// A nil fn removes the source; the damp last applied stays in effect until
// SetDamp.
func (g *Gate) SetDampFunc(fn func() float64) {
	g.dampFunc = fn
}

// Damp returns the damp last applied.
func (g *Gate) Damp() float64 { return g.damp }

// ComputeNextBlock advances the Gate by one host audio block of length
// blockLen, following the upstream schedule (spec.md §4.4).
func (g *Gate) ComputeNextBlock(blockLen int) {
	g.step(blockLen, g.hop)
}

func (g *Gate) hop(row int) {
	if g.thresholdFunc != nil {
		g.thresholdDB = g.thresholdFunc()
		g.threshold = core.DBToLinear(g.thresholdDB)
	}
	if g.dampFunc != nil {
		g.damp = g.dampFunc()
	}

	upstream := g.input.PVStream()
	h := g.geometry.H

	srcMagn := upstream.MagnRow(row)
	srcFreq := upstream.FreqRow(row)

	for k := 0; k < h; k++ {
		if srcMagn[k] < g.threshold {
			g.scratchMagn[k] = srcMagn[k] * g.damp
		} else {
			g.scratchMagn[k] = srcMagn[k]
		}
	}

	g.stream.setMagnRow(row, g.scratchMagn)
	g.stream.setFreqRow(row, srcFreq)
}
