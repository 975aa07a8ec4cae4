package pvoc

// Reverb feeds each bin's magnitude through a per-bin envelope follower that
// attacks instantly and releases exponentially, leaving frequency untouched,
// producing a smeared spectral tail (spec.md §4.4 Reverb). revtime and damp
// are each clamped to [0,1] and mapped onto the follower's decay rate `r`
// and per-bin damping base `d`; like Gate's threshold, either may be a fixed
// scalar or an audio-rate source sampled once per hop (spec.md §5).
type Reverb struct {
	*transformCore

	revtime     float64
	revtimeFunc func() float64
	damp        float64
	dampFunc    func() float64

	r float64 // 0.75 + 0.25*clamp01(revtime)
	d float64 // 0.997 + 0.003*clamp01(damp)

	lMagn []float64 // length H, persists across hops
}

// NewReverb constructs a Reverb reading from input, with the given initial
// revtime and damp (each in [0,1], clamped).
func NewReverb(input StreamProvider, revtime, damp float64, opts ...Option) (*Reverb, error) {
	cfg := applyOptions(opts...)

	core, err := newTransformCore(input, cfg.BlockSize)
	if err != nil {
		return nil, err
	}

	rv := &Reverb{
		transformCore: core,
		lMagn:         make([]float64, core.geometry.H),
	}
	rv.SetRevtime(revtime)
	rv.SetDamp(damp)

	core.onReallocate = func(h int) {
		rv.lMagn = make([]float64, h)
	}

	return rv, nil
}

// SetRevtime sets a fixed (scalar-rate) revtime, clearing any previously
// configured audio-rate source.
func (r *Reverb) SetRevtime(revtime float64) {
	r.revtime = revtime
	r.revtimeFunc = nil
	r.r = reverbDecayRate(revtime)
}

// SetRevtimeFunc installs an audio-rate revtime source, sampled once per
// hop (spec.md §5). A nil fn removes the source; the revtime last applied
// stays in effect until SetRevtime.
func (r *Reverb) SetRevtimeFunc(fn func() float64) {
	r.revtimeFunc = fn
}

// Revtime returns the revtime last applied.
func (r *Reverb) Revtime() float64 { return r.revtime }

// SetDamp sets a fixed (scalar-rate) damp, clearing any previously
// configured audio-rate source.
func (r *Reverb) SetDamp(damp float64) {
	r.damp = damp
	r.dampFunc = nil
	r.d = reverbDampBase(damp)
}

// SetDampFunc installs an audio-rate damp source, sampled once per hop.
// A nil fn removes the source; the damp last applied stays in effect until
// SetDamp.
func (r *Reverb) SetDampFunc(fn func() float64) {
	r.dampFunc = fn
}

// Damp returns the damp last applied.
func (r *Reverb) Damp() float64 { return r.damp }

func reverbDecayRate(revtime float64) float64 {
	return 0.75 + 0.25*clamp01(revtime)
}

func reverbDampBase(damp float64) float64 {
	return 0.997 + 0.003*clamp01(damp)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// ComputeNextBlock advances the Reverb by one host audio block of length
// blockLen, following the upstream schedule (spec.md §4.4).
func (r *Reverb) ComputeNextBlock(blockLen int) {
	r.step(blockLen, r.hop)
}

func (r *Reverb) hop(row int) {
	if r.revtimeFunc != nil {
		r.revtime = r.revtimeFunc()
		r.r = reverbDecayRate(r.revtime)
	}
	if r.dampFunc != nil {
		r.damp = r.dampFunc()
		r.d = reverbDampBase(r.damp)
	}

	upstream := r.input.PVStream()
	h := r.geometry.H

	srcMagn := upstream.MagnRow(row)
	srcFreq := upstream.FreqRow(row)

	amp := 1.0
	for k := 0; k < h; k++ {
		m := srcMagn[k]
		if m > r.lMagn[k] {
			r.lMagn[k] = m
		} else {
			r.lMagn[k] = m + (r.lMagn[k]-m)*r.r*amp
		}

		amp *= r.d
	}

	r.stream.setMagnRow(row, r.lMagn)
	r.stream.setFreqRow(row, srcFreq)
}
