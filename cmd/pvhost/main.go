// Command pvhost runs a live phase-vocoder pitch shifter over the default
// audio input/output devices.
//
// Usage:
//
//	pvhost [flags]
//
// Examples:
//
//	pvhost
//	pvhost -size 2048 -olaps 8 -ratio 1.5
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gordonklaus/portaudio"

	"github.com/cwbudde/algo-pvoc/pvoc"
)

func main() {
	size := flag.Int("size", 1024, "FFT size (rounded up to a power of two)")
	olaps := flag.Int("olaps", 4, "overlap count (rounded up to a power of two)")
	ratio := flag.Float64("ratio", 1.0, "pitch ratio applied by the transpose stage")
	frames := flag.Int("frames", 256, "host callback block size in samples")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pvhost [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a live phase-vocoder pitch shifter over the default audio devices.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pvhost -size 2048 -olaps 8 -ratio 1.5\n")
	}
	flag.Parse()

	logger := slog.Default()

	if err := portaudio.Initialize(); err != nil {
		logger.Error("portaudio init failed", "err", err)
		os.Exit(1)
	}
	defer portaudio.Terminate()

	host, err := newHost(*size, *olaps, *frames, *ratio, logger)
	if err != nil {
		logger.Error("pvhost graph init failed", "err", err)
		os.Exit(1)
	}

	stream, err := portaudio.OpenDefaultStream(1, 1, host.sampleRate, *frames, host.callback)
	if err != nil {
		logger.Error("portaudio stream open failed", "err", err)
		os.Exit(1)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		logger.Error("portaudio stream start failed", "err", err)
		os.Exit(1)
	}
	defer stream.Stop()

	logger.Info("pvhost running", "size", host.analyzer.Geometry().N, "olaps", host.analyzer.Geometry().O, "ratio", *ratio)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}

// host wires one Analyzer -> Transpose -> Synthesizer chain and bridges
// portaudio's float32 callback buffers to the graph's float64 blocks.
type host struct {
	sampleRate float64

	analyzer  *pvoc.Analyzer
	transpose *pvoc.Transpose
	synth     *pvoc.Synthesizer

	inBlock  []float64
	outBlock []float64
}

func newHost(size, olaps, frames int, ratio float64, logger *slog.Logger) (*host, error) {
	const sampleRate = 48000.0

	a, err := pvoc.NewAnalyzer(sampleRate,
		pvoc.WithFFTSize(size),
		pvoc.WithOverlap(olaps),
		pvoc.WithBlockSize(frames),
		pvoc.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("pvhost: analyzer: %w", err)
	}

	tr, err := pvoc.NewTranspose(a, ratio,
		pvoc.WithBlockSize(frames),
		pvoc.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("pvhost: transpose: %w", err)
	}

	s, err := pvoc.NewSynthesizer(tr, sampleRate,
		pvoc.WithFFTSize(size),
		pvoc.WithOverlap(olaps),
		pvoc.WithBlockSize(frames),
		pvoc.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("pvhost: synthesizer: %w", err)
	}

	return &host{
		sampleRate: sampleRate,
		analyzer:   a,
		transpose:  tr,
		synth:      s,
		inBlock:    make([]float64, frames),
		outBlock:   make([]float64, frames),
	}, nil
}

// callback runs once per portaudio block, converting float32 <-> float64 at
// the boundary and driving the graph once in topological order: analyzer,
// then transpose, then synthesizer.
func (h *host) callback(in, out []float32) {
	for i, v := range in {
		h.inBlock[i] = float64(v)
	}

	h.analyzer.ComputeNextBlock(h.inBlock)
	h.transpose.ComputeNextBlock(len(h.inBlock))
	h.synth.ComputeNextBlock(h.outBlock)

	for i, v := range h.outBlock {
		out[i] = float32(v)
	}
}
