// Package pvfft adapts github.com/MeKo-Christian/algo-fft's complex split-radix
// plan to the real/imaginary bin split the phase-vocoder core operates on: a
// real-valued time frame in, separate re[0:N/2]/im[0:N/2] bin arrays out (and
// the inverse), with the discarded Nyquist bin and the redundant conjugate
// half of the spectrum never materialized.
package pvfft

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Transform holds one forward/inverse FFT plan and its scratch complex
// buffer for a fixed frame size N (a power of two).
type Transform struct {
	n       int
	plan    *algofft.Plan[complex128]
	scratch []complex128
}

// New builds a Transform for frame size n. n must be a power of two.
func New(n int) (*Transform, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("pvfft: frame size must be a power of two: %d", n)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("pvfft: failed to build FFT plan for size %d: %w", n, err)
	}

	return &Transform{
		n:       n,
		plan:    plan,
		scratch: make([]complex128, n),
	}, nil
}

// Size returns the frame size this Transform was built for.
func (t *Transform) Size() int { return t.n }

// Forward computes the real-input forward FFT of inframe and unpacks it into
// the Hermitian-packed real/imag split used throughout the analyzer: for
// k in [0, n/2), re[k] and im[k] hold the k-th bin's real and imaginary
// parts (im[0] is always zero — DC is real).
//
// re and im must each have length n/2.
func (t *Transform) Forward(re, im, inframe []float64) error {
	half := t.n / 2
	if len(re) != half || len(im) != half {
		return fmt.Errorf("pvfft: re/im split must have length %d, got %d/%d", half, len(re), len(im))
	}
	if len(inframe) != t.n {
		return fmt.Errorf("pvfft: inframe must have length %d, got %d", t.n, len(inframe))
	}

	for i, x := range inframe {
		t.scratch[i] = complex(x, 0)
	}

	err := t.plan.Forward(t.scratch, t.scratch)
	if err != nil {
		return fmt.Errorf("pvfft: forward FFT failed: %w", err)
	}

	re[0] = real(t.scratch[0])
	im[0] = 0

	for k := 1; k < half; k++ {
		re[k] = real(t.scratch[k])
		im[k] = imag(t.scratch[k])
	}

	return nil
}

// Inverse packs the real/imag split back into Hermitian symmetry and computes
// the inverse FFT into outframe (length n, real-valued by construction since
// the input is conjugate-symmetric).
//
// re and im must each have length n/2.
func (t *Transform) Inverse(outframe, re, im []float64) error {
	half := t.n / 2
	if len(re) != half || len(im) != half {
		return fmt.Errorf("pvfft: re/im split must have length %d, got %d/%d", half, len(re), len(im))
	}
	if len(outframe) != t.n {
		return fmt.Errorf("pvfft: outframe must have length %d, got %d", t.n, len(outframe))
	}

	t.scratch[0] = complex(re[0], 0)
	t.scratch[half] = 0

	for k := 1; k < half; k++ {
		t.scratch[k] = complex(re[k], im[k])
		t.scratch[t.n-k] = complex(re[k], -im[k])
	}

	err := t.plan.Inverse(t.scratch, t.scratch)
	if err != nil {
		return fmt.Errorf("pvfft: inverse FFT failed: %w", err)
	}

	for i, c := range t.scratch {
		outframe[i] = real(c)
	}

	return nil
}
