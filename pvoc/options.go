package pvoc

import (
	"log/slog"

	"github.com/cwbudde/algo-pvoc/dsp/core"
	"github.com/cwbudde/algo-pvoc/dsp/window"
)

// nodeConfig holds the options shared by every node constructor. The
// block-size/sample-rate pair is dsp/core.ProcessorConfig itself, applied
// through dsp/core.ProcessorOption; size/olaps/windowType/logger are PV-
// specific and have no teacher analogue.
type nodeConfig struct {
	core.ProcessorConfig

	size       int
	olaps      int
	windowType window.Type
	logger     *slog.Logger
}

func defaultNodeConfig() nodeConfig {
	return nodeConfig{
		ProcessorConfig: core.ApplyProcessorOptions(core.WithBlockSize(64)),
		size:            1024,
		olaps:           4,
		windowType:      window.TypeHann,
		logger:          slog.Default(),
	}
}

// Option configures a node at construction time.
type Option func(*nodeConfig)

// WithFFTSize sets the requested FFT size (rounded up to a power of two).
func WithFFTSize(n int) Option {
	return func(c *nodeConfig) {
		if n > 0 {
			c.size = n
		}
	}
}

// WithOverlap sets the requested overlap count (rounded up to a power of two).
func WithOverlap(o int) Option {
	return func(c *nodeConfig) {
		if o > 0 {
			c.olaps = o
		}
	}
}

// WithWindowType selects the window shape applied at analysis/synthesis.
func WithWindowType(t window.Type) Option {
	return func(c *nodeConfig) {
		c.windowType = t
	}
}

// WithLogger sets the logger used for rounding/drift warnings (spec.md §7).
// A nil logger is ignored; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *nodeConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBlockSize sets the host's audio callback block size B, used only to
// size the PVStream's count[] schedule ahead of the first block. Delegates
// to dsp/core.WithBlockSize against the embedded ProcessorConfig.
func WithBlockSize(b int) Option {
	return func(c *nodeConfig) {
		core.WithBlockSize(b)(&c.ProcessorConfig)
	}
}

// WithSampleRate records the processing sample rate on the embedded
// dsp/core.ProcessorConfig. Analyzer/Synthesizer constructors take an
// explicit sampleRate argument as the authoritative source and apply it via
// dsp/core.WithSampleRate themselves at construction time; this option lets
// a caller record the same value on Transformers, which have no sampleRate
// argument of their own.
func WithSampleRate(sr float64) Option {
	return func(c *nodeConfig) {
		core.WithSampleRate(sr)(&c.ProcessorConfig)
	}
}

func applyOptions(opts ...Option) nodeConfig {
	cfg := defaultNodeConfig()
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}

	return cfg
}
