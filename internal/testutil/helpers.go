// Package testutil provides reusable helpers for the resampler tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-ssrc/internal/simdops"
)

// Default tolerances.
const (
	DefaultTolerance = 1e-12
	FilterTolerance  = 1e-9
	Float32Tolerance = 1e-5
)

// AssertSymmetric verifies that s[i] == s[n-1-i] within tolerance.
func AssertSymmetric(t *testing.T, s []float64, tolerance float64) bool {
	t.Helper()
	n := len(s)
	for i := 0; i < n/2; i++ {
		j := n - 1 - i
		if !assert.InDelta(t, s[i], s[j], tolerance,
			"slice not symmetric: s[%d]=%g != s[%d]=%g", i, s[i], j, s[j]) {
			return false
		}
	}
	return true
}

// AssertNoNaNOrInf verifies that no element is NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllInRange verifies that every element lies in [minVal, maxVal].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%g outside [%g, %g]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertDCGain verifies that the coefficient sum matches the expected DC
// gain.
func AssertDCGain(t *testing.T, coeffs []float64, expectedGain, tolerance float64) bool {
	t.Helper()
	var sum float64
	for _, c := range coeffs {
		sum += c
	}
	return assert.InDelta(t, expectedGain, sum, tolerance,
		"DC gain = %g, want %g", sum, expectedGain)
}

// Energy returns the L2 energy of s.
func Energy[F simdops.Float](s []F) float64 {
	var e float64
	for _, v := range s {
		e += float64(v) * float64(v)
	}
	return e
}

// SliceOutlet serves a fixed sample slice as a pull outlet.
type SliceOutlet[F simdops.Float] struct {
	Data []F
	pos  int
}

// AtEnd reports whether all samples were consumed.
func (o *SliceOutlet[F]) AtEnd() bool { return o.pos >= len(o.Data) }

// Read copies the next samples into p.
func (o *SliceOutlet[F]) Read(p []F) (int, error) {
	n := copy(p, o.Data[o.pos:])
	o.pos += n
	return n, nil
}

// reader is any pull stage.
type reader[F simdops.Float] interface {
	Read(p []F) (int, error)
}

// Drain pulls r to exhaustion in blocks of blockSize.
func Drain[F simdops.Float](t *testing.T, r reader[F], blockSize int) []F {
	t.Helper()
	var out []F
	buf := make([]F, blockSize)
	for {
		n, err := r.Read(buf)
		require.NoError(t, err)
		if n == 0 {
			return out
		}
		out = append(out, buf[:n]...)
	}
}

// DirectConvolve computes the full direct convolution of x with taps,
// returning len(x)+len(taps) samples (the streaming filters flush their
// tail with len(taps) zeros).
func DirectConvolve(x, taps []float64) []float64 {
	out := make([]float64, len(x)+len(taps))
	for n := range out {
		var acc float64
		for k, h := range taps {
			if i := n - k; i >= 0 && i < len(x) {
				acc += h * x[i]
			}
		}
		out[n] = acc
	}
	return out
}

// SpectrumDB returns the magnitude spectrum of x in dB over numBins
// frequencies up to Nyquist, measured by direct DTFT. Slow; use short
// inputs.
func SpectrumDB(x []float64, numBins int) []float64 {
	out := make([]float64, numBins)
	for k := range numBins {
		omega := math.Pi * float64(k) / float64(numBins)
		var re, im float64
		for n, v := range x {
			re += v * math.Cos(omega*float64(n))
			im -= v * math.Sin(omega*float64(n))
		}
		mag := math.Hypot(re, im)
		if mag < 1e-30 {
			mag = 1e-30
		}
		out[k] = 20 * math.Log10(mag)
	}
	return out
}
