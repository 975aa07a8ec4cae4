// Package pvoc implements a streaming phase-vocoder graph: an Analyzer
// (time-domain -> spectral), a chain of spectral Transformers, and a
// Synthesizer (spectral -> time-domain), connected through a shared Stream
// (spec.md §2). Every node is driven once per fixed-size audio block by a
// host in topological order; no node allocates, blocks, or locks on that
// path (spec.md §5).
package pvoc

// playState implements the play/stop gate spec.md §6 requires of every node
// kind. A stopped node's ComputeNextBlock is a no-op: it neither advances
// its ring/hop state nor republishes its Stream (SPEC_FULL.md §C).
type playState struct {
	playing bool
}

// Play resumes processing on the next ComputeNextBlock call.
func (p *playState) Play() { p.playing = true }

// Stop gates out processing; ComputeNextBlock becomes a no-op until Play.
func (p *playState) Stop() { p.playing = false }

// Playing reports whether the node currently processes audio blocks.
func (p *playState) Playing() bool { return p.playing }

// transformCore is the shared schedule-following machinery every spectral
// Transformer embeds (spec.md §4.4): it owns an output Stream with the same
// geometry as its upstream, mirrors the upstream's per-sample schedule, and
// fires a hop callback once per completed upstream frame.
type transformCore struct {
	playState

	input  StreamProvider
	stream *Stream

	geometry  Geometry
	overcount int

	// onReallocate, if set, resizes a concrete Transformer's own per-bin
	// scratch buffers whenever upstream geometry drift changes H.
	onReallocate func(h int)
}

func newTransformCore(input StreamProvider, blockCap int) (*transformCore, error) {
	if input == nil {
		return nil, ErrNotAPVStream
	}

	upstream, ok := From(input)
	if !ok {
		return nil, ErrNotAPVStream
	}

	t := &transformCore{
		input:    input,
		geometry: upstream.Geometry(),
		stream:   newStream(upstream.Geometry(), blockCap),
	}
	t.Play()

	return t, nil
}

// PVStream lets every Transformer satisfy StreamProvider.
func (t *transformCore) PVStream() *Stream { return t.stream }

// Geometry returns the Transformer's current geometry (tracks upstream).
func (t *transformCore) Geometry() Geometry { return t.geometry }

// step drives one host block: it detects upstream geometry drift, mirrors
// the upstream schedule sample by sample, and invokes hop(row) once per
// completed upstream frame, exactly when a downstream node checking the
// same schedule would see a fresh hop (spec.md §4.4).
func (t *transformCore) step(blockLen int, hop func(row int)) {
	if !t.Playing() {
		return
	}

	upstream := t.input.PVStream()

	if !upstream.geometry.Equal(t.geometry) {
		t.geometry = upstream.geometry
		t.stream.reallocate(t.geometry, blockLen)
		t.overcount = 0

		if t.onReallocate != nil {
			t.onReallocate(t.geometry.H)
		}
	}

	t.stream.ensureCountLen(blockLen)

	n := t.geometry.N

	for i := 0; i < blockLen; i++ {
		c := upstream.Count(i)
		t.stream.setCount(i, c)

		if c == n-1 {
			hop(t.overcount)
			t.overcount = (t.overcount + 1) % t.geometry.O
		}
	}
}
