// Package engine implements the streaming convolution kernels of the
// resampler: the rational polyphase FIR (FastPP), the DFT-based FIR
// (DFTFilter), and its partitioned variant (PartDFTFilter).
//
// Every kernel is a pull-driven stage: it owns a reference to its
// upstream inlet and produces samples on Read. A Read returns 0 only
// once the upstream has ended and all buffered samples are drained.
package engine

import "github.com/tphakala/go-ssrc/internal/simdops"

// Inlet is the upstream port a kernel pulls from.
type Inlet[F simdops.Float] interface {
	// AtEnd reports whether the next Read is certain to return 0.
	AtEnd() bool

	// Read fills p with up to len(p) samples. It returns 0 only at
	// end-of-stream; otherwise it blocks until at least one sample is
	// available.
	Read(p []F) (int, error)
}

// blockSamples is the output block granularity of the kernels.
const blockSamples = 65536

// widen converts samples to the float64 domain the FFT operates in.
func widen[F simdops.Float](dst []float64, src []F) {
	for i, v := range src {
		dst[i] = float64(v)
	}
}

// ilog2 returns ceil(log2(n)) with a floor of 1.
func ilog2(n int) int {
	ret := 1
	for n > 1<<ret && ret < 63 {
		ret++
	}
	return ret
}
