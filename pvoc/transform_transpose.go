package pvoc

// Transpose moves each source bin k to bin floor(k*ratio) for a pitch ratio,
// remapping both magnitude and frequency so the result sounds pitch-shifted
// without a tempo change (spec.md §4.4 Transpose). When two source bins map
// onto the same destination bin, the default policy keeps the last bin
// written (spec.md §4.4 "last writer wins"); WithMagnitudeWeightedFrequency
// selects an alternative that keeps the louder source's frequency instead.
type Transpose struct {
	*transformCore

	ratio float64

	magnWeighted bool

	scratchMagn []float64
	scratchFreq []float64
}

// NewTranspose constructs a Transpose reading from input at the given pitch
// ratio (1.0 = no shift, 2.0 = up one octave, 0.5 = down one octave).
func NewTranspose(input StreamProvider, ratio float64, opts ...Option) (*Transpose, error) {
	cfg := applyOptions(opts...)

	core, err := newTransformCore(input, cfg.BlockSize)
	if err != nil {
		return nil, err
	}

	h := core.geometry.H

	tr := &Transpose{
		transformCore: core,
		ratio:         ratio,
		scratchMagn:   make([]float64, h),
		scratchFreq:   make([]float64, h),
	}
	core.onReallocate = func(h int) {
		tr.scratchMagn = make([]float64, h)
		tr.scratchFreq = make([]float64, h)
	}

	return tr, nil
}

// WithMagnitudeWeightedFrequency makes collisions keep the frequency of the
// louder contributing source bin, rather than the last one written.
func (t *Transpose) WithMagnitudeWeightedFrequency() *Transpose {
	t.magnWeighted = true
	return t
}

// SetRatio changes the pitch ratio applied to subsequent hops.
func (t *Transpose) SetRatio(ratio float64) { t.ratio = ratio }

// Ratio returns the currently applied pitch ratio.
func (t *Transpose) Ratio() float64 { return t.ratio }

// ComputeNextBlock advances the Transpose by one host audio block of length
// blockLen, following the upstream schedule (spec.md §4.4).
func (t *Transpose) ComputeNextBlock(blockLen int) {
	t.step(blockLen, t.hop)
}

func (t *Transpose) hop(row int) {
	upstream := t.input.PVStream()
	h := t.geometry.H

	srcMagn := upstream.MagnRow(row)
	srcFreq := upstream.FreqRow(row)

	for k := range t.scratchMagn {
		t.scratchMagn[k] = 0
		t.scratchFreq[k] = 0
	}

	// Source bins that collide on one destination are contiguous in k, so
	// the loudest contributor so far is tracked per destination run.
	lastDst, loudest := -1, 0.0

	for k := 0; k < h; k++ {
		dst := int(float64(k) * t.ratio)
		if dst < 0 || dst >= h {
			continue
		}

		if dst != lastDst {
			lastDst, loudest = dst, 0
		}

		if t.magnWeighted && srcMagn[k] < loudest {
			t.scratchMagn[dst] += srcMagn[k]
			continue
		}

		loudest = srcMagn[k]
		t.scratchMagn[dst] += srcMagn[k]
		t.scratchFreq[dst] = srcFreq[k] * t.ratio
	}

	t.stream.setMagnRow(row, t.scratchMagn)
	t.stream.setFreqRow(row, t.scratchFreq)
}
