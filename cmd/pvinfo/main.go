// Command pvinfo prints the derived geometry for a phase-vocoder graph and
// the analysis/synthesis window's spectral properties.
//
// Usage:
//
//	pvinfo [flags]
//
// Examples:
//
//	pvinfo
//	pvinfo -size 2048 -olaps 8
//	pvinfo -size 1000 -olaps 3 -rate 44100
//	pvinfo -window blackman
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-pvoc/dsp/window"
	"github.com/cwbudde/algo-pvoc/pvoc"
)

var windowTypes = map[string]window.Type{
	"hann":             window.TypeHann,
	"hamming":          window.TypeHamming,
	"blackman":         window.TypeBlackman,
	"blackman-harris4": window.TypeBlackmanHarris4Term,
	"blackman-harris3": window.TypeBlackmanHarris3Term,
	"blackman-nuttall": window.TypeBlackmanNuttall,
	"flat-top":         window.TypeFlatTop,
	"rectangular":      window.TypeRectangular,
}

func main() {
	size := flag.Int("size", 1024, "requested FFT size (rounded up to a power of two)")
	olaps := flag.Int("olaps", 4, "requested overlap count (rounded up to a power of two)")
	rate := flag.Float64("rate", 48000, "sample rate in Hz")
	windowName := flag.String("window", "hann", "window function (hann, hamming, blackman, blackman-harris4, blackman-harris3, blackman-nuttall, flat-top, rectangular)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pvinfo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the derived geometry for a phase-vocoder graph and the\n")
		fmt.Fprintf(os.Stderr, "analysis/synthesis window's spectral properties.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pvinfo -size 2048 -olaps 8\n")
		fmt.Fprintf(os.Stderr, "  pvinfo -size 1000 -olaps 3 -rate 44100\n")
		fmt.Fprintf(os.Stderr, "  pvinfo -window blackman\n")
	}
	flag.Parse()

	wt, ok := windowTypes[*windowName]
	if !ok {
		fmt.Fprintf(os.Stderr, "pvinfo: unknown window %q\n", *windowName)
		flag.Usage()
		os.Exit(2)
	}

	g, rounded := pvoc.NewGeometry(*size, *olaps, *rate)
	if rounded {
		fmt.Printf("requested size=%d olaps=%d rounded up to size=%d olaps=%d\n\n",
			*size, *olaps, g.N, g.O)
	}

	fmt.Printf("FFT size (N):     %d\n", g.N)
	fmt.Printf("overlaps (O):     %d\n", g.O)
	fmt.Printf("half size (H):    %d\n", g.H)
	fmt.Printf("hop size (P):     %d\n", g.P)
	fmt.Printf("input latency (L): %d samples (%.3f ms)\n", g.L, 1000*float64(g.L)/(*rate))
	fmt.Printf("sample rate:      %.0f Hz\n", *rate)
	fmt.Printf("bin spacing:      %.3f Hz\n", *rate/float64(g.N))

	coeffs := window.Generate(wt, g.N, window.WithPeriodic())
	info := window.Info(wt)
	analysis := window.Analyze(coeffs)

	fmt.Printf("\nwindow:           %s (%q, periodic, N=%d)\n", *windowName, info.Name, g.N)
	fmt.Printf("coherent gain:    %.6f\n", analysis.CoherentGain)
	fmt.Printf("ENBW (bins):      %.4f\n", analysis.ENBW)
	fmt.Printf("3dB bandwidth:    %.4f bins\n", analysis.Bandwidth3dB)
	fmt.Printf("first null:       %.4f bins\n", analysis.FirstMinimumBins)
	fmt.Printf("highest sidelobe: %.2f dB\n", analysis.HighestSidelobedB)
	fmt.Printf("scallop loss:     %.2f dB\n", analysis.ScallopLossdB)
}
