package pvoc

import (
	"errors"

	"github.com/cwbudde/algo-pvoc/dsp/core"
)

// ErrNotAPVStream is returned by Producer wiring when the supplied upstream
// does not expose a Stream — spec.md §6's "host-side type check... capability
// check, not type name" and §7 taxonomy (b).
var ErrNotAPVStream = errors.New("pvoc: input does not provide a PVStream")

// StreamProvider is implemented by every node kind that produces a PVStream
// (the Analyzer and every Transformer). Consumers wire to a StreamProvider,
// never to a concrete node type, so graphs can mix Analyzer/Transformer
// producers interchangeably (spec.md §6 capability check).
type StreamProvider interface {
	PVStream() *Stream
}

// From performs the host-side capability check: does x produce a PVStream.
// It replaces a type-name check with a capability check per spec.md §6/§7(b).
func From(x any) (*Stream, bool) {
	p, ok := x.(StreamProvider)
	if !ok || p == nil {
		return nil, false
	}

	s := p.PVStream()
	if s == nil {
		return nil, false
	}

	return s, true
}

// Stream is the shared spectral channel (spec.md §4.1): a handle exposing
// read-only views of a producer's magnitude/frequency grids and its
// per-sample write-schedule, to any number of consumers. Exactly one node
// owns (produces into) a Stream; consumers hold a reference to it for their
// lifetime and never mutate it directly.
//
// magn and freq are row-major [O][H] grids flattened to length O*H; row r,
// bin k lives at r*H+k. This avoids O separate allocations and lets a
// producer overwrite a whole row with one slice operation.
type Stream struct {
	geometry Geometry

	magn  []float64 // O*H
	freq  []float64 // O*H
	count []int     // per-block schedule, length B (rebuilt every block)
}

// newStream allocates a Stream sized for g and a host block size of
// capacity blockCap (count grows on demand up to the host's real block
// size; the initial capacity only avoids a reallocation on the first block).
func newStream(g Geometry, blockCap int) *Stream {
	return &Stream{
		geometry: g,
		magn:     make([]float64, g.O*g.H),
		freq:     make([]float64, g.O*g.H),
		count:    make([]int, blockCap),
	}
}

// reallocate resizes the Stream for a new geometry, zeroing every buffer
// (spec.md §3 "Lifecycle": reallocation zeroes all buffers).
func (s *Stream) reallocate(g Geometry, blockCap int) {
	s.geometry = g
	s.magn = core.EnsureLen(s.magn, g.O*g.H)
	s.freq = core.EnsureLen(s.freq, g.O*g.H)
	core.Zero(s.magn)
	core.Zero(s.freq)

	if cap(s.count) < blockCap {
		s.count = make([]int, blockCap)
	} else {
		s.count = s.count[:blockCap]
		for i := range s.count {
			s.count[i] = 0
		}
	}
}

func (s *Stream) ensureCountLen(blockSize int) {
	if cap(s.count) < blockSize {
		s.count = make([]int, blockSize)
		return
	}

	s.count = s.count[:blockSize]
}

// PVStream lets *Stream itself satisfy StreamProvider, so a Stream obtained
// from one node can be handed directly to From/wiring code that expects a
// StreamProvider.
func (s *Stream) PVStream() *Stream { return s }

// FFTSize returns the current geometry's N (get_fft_size, spec.md §4.1).
func (s *Stream) FFTSize() int { return s.geometry.N }

// Overlaps returns the current geometry's O (get_olaps, spec.md §4.1).
func (s *Stream) Overlaps() int { return s.geometry.O }

// Geometry returns the full current geometry, read-only.
func (s *Stream) Geometry() Geometry { return s.geometry }

// Magn returns bin k of hop-slot row r (get_magn_view, spec.md §4.1).
// The returned value is a read-only snapshot for the duration of the
// current audio block.
func (s *Stream) Magn(row, bin int) float64 { return s.magn[row*s.geometry.H+bin] }

// Freq returns bin k of hop-slot row r in Hz (get_freq_view, spec.md §4.1).
func (s *Stream) Freq(row, bin int) float64 { return s.freq[row*s.geometry.H+bin] }

// MagnRow returns the full magnitude row for hop slot r, length H. The
// returned slice aliases the Stream's internal storage; callers must not
// retain it past the current block.
func (s *Stream) MagnRow(row int) []float64 {
	h := s.geometry.H
	return s.magn[row*h : row*h+h]
}

// FreqRow returns the full frequency row for hop slot r, length H. Same
// aliasing caveat as MagnRow.
func (s *Stream) FreqRow(row int) []float64 {
	h := s.geometry.H
	return s.freq[row*h : row*h+h]
}

// Count returns the schedule value published for audio sample i
// (get_count_view, spec.md §4.1). Freshness for sample i is signalled by
// Count(i) == N-1 (spec.md §3 invariant).
func (s *Stream) Count(i int) int { return s.count[i] }

// setMagnRow overwrites row r of the magnitude grid (set_magn, producer only).
func (s *Stream) setMagnRow(row int, vals []float64) { copy(s.MagnRow(row), vals) }

// setFreqRow overwrites row r of the frequency grid (set_freq, producer only).
func (s *Stream) setFreqRow(row int, vals []float64) { copy(s.FreqRow(row), vals) }

// setCount publishes the schedule value for sample i (set_count, producer only).
func (s *Stream) setCount(i, v int) { s.count[i] = v }

// mirrorCount copies another Stream's schedule verbatim, so a Transformer's
// output Stream carries the same per-sample schedule as its upstream
// (spec.md §4.4 "mirror the upstream schedule").
func (s *Stream) mirrorCount(upstream *Stream) {
	s.ensureCountLen(len(upstream.count))
	copy(s.count, upstream.count)
}
