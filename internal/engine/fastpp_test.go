package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-ssrc/internal/testutil"
)

const (
	testInputLen  = 4000
	testBlockSize = 777 // deliberately unaligned pull size
	identityTol   = 1e-12
	float32Tol    = 1e-6
)

// centeredImpulse returns a unit impulse filter of odd length l.
func centeredImpulse(l int) []float64 {
	taps := make([]float64, l)
	taps[l/2] = 1
	return taps
}

func noiseSignal(n int, seed float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(seed*float64(i)*0.71) * math.Cos(float64(i)*0.013)
	}
	return x
}

func TestFastPP_UnityRatioImpulseIsDelay(t *testing.T) {
	const firLen = 31

	x := noiseSignal(testInputLen, 1)
	src := &testutil.SliceOutlet[float64]{Data: x}
	pp := NewFastPP(src, 48000, 48000, 48000, centeredImpulse(firLen))

	out := testutil.Drain[float64](t, pp, testBlockSize)
	require.Len(t, out, testInputLen)

	// A centered unit impulse delays by (L-1)/2 samples.
	delay := firLen / 2
	for i := range delay {
		assert.InDelta(t, 0, out[i], identityTol, "leading sample %d", i)
	}
	for i := delay; i < len(out); i++ {
		require.InDelta(t, x[i-delay], out[i], identityTol, "sample %d", i)
	}
}

func TestFastPP_OutputLengthFollowsRatio(t *testing.T) {
	tests := []struct {
		name                string
		srcFs, lcmFs, dstFs int64
	}{
		{"up_2_3", 32000, 96000, 48000},
		{"down_3_2", 48000, 96000, 32000},
		{"cd_dat_lcm", 44100, 7056000, 7056000 / 147},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &testutil.SliceOutlet[float64]{Data: noiseSignal(testInputLen, 2)}
			pp := NewFastPP(src, tt.srcFs, tt.lcmFs, tt.dstFs, centeredImpulse(63))

			out := testutil.Drain[float64](t, pp, testBlockSize)

			sstep := int(tt.lcmFs / tt.srcFs)
			dstep := int(tt.lcmFs / tt.dstFs)
			assert.Len(t, out, testInputLen*sstep/dstep)
		})
	}
}

func TestFastPP_UpsampleMatchesZeroStuffedConvolution(t *testing.T) {
	// 1:2 upsampling with an arbitrary FIR must equal direct
	// convolution of the filter with the zero-stuffed input.
	const (
		n      = 256
		firLen = 47
	)

	x := noiseSignal(n, 3)
	taps := noiseSignal(firLen, 4)

	src := &testutil.SliceOutlet[float64]{Data: x}
	pp := NewFastPP(src, 1, 2, 2, taps)
	out := testutil.Drain[float64](t, pp, testBlockSize)
	require.Len(t, out, n*2)

	stuffed := make([]float64, n*2)
	for i, v := range x {
		stuffed[i*2] = v
	}
	want := testutil.DirectConvolve(stuffed, taps)

	// firlen-1 is a multiple of sstep, so each window ends on the newest
	// source sample and the polyphase output is the causal convolution
	// sample for sample.
	for i := range out {
		require.InDelta(t, want[i], out[i], identityTol, "sample %d", i)
	}
}

func TestFastPP_Float32(t *testing.T) {
	x := make([]float32, testInputLen)
	for i := range x {
		x[i] = float32(math.Sin(float64(i) * 0.01))
	}
	taps := make([]float32, 31)
	taps[15] = 1

	src := &testutil.SliceOutlet[float32]{Data: x}
	pp := NewFastPP[float32](src, 44100, 44100, 44100, taps)

	out := testutil.Drain[float32](t, pp, testBlockSize)
	require.Len(t, out, testInputLen)
	for i := 15; i < len(out); i++ {
		require.InDelta(t, float64(x[i-15]), float64(out[i]), float32Tol)
	}
}

func TestFastPP_AtEndAfterDrain(t *testing.T) {
	src := &testutil.SliceOutlet[float64]{Data: noiseSignal(100, 5)}
	pp := NewFastPP(src, 2, 4, 4, centeredImpulse(7))
	testutil.Drain[float64](t, pp, 64)
	assert.True(t, pp.AtEnd())
}
