package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-ssrc/internal/testutil"
)

const (
	testFs       = 96000.0
	testFp       = 20000.0
	testDf       = 2000.0
	testAtt      = 96.0
	testGain     = 1.0
	testLength   = 255
	dcTolerance  = 0.01
	numSpecBins  = 256
	stopbandSlop = 6.0 // dB of measurement slack on a finite filter
)

func TestMakeLPF_SymmetricOddUnityDC(t *testing.T) {
	taps := MakeLPF[float64](testFs, testFp, testDf, testAtt, testGain)

	require.Equal(t, 1, len(taps)%2, "tap count must be odd")
	testutil.AssertNoNaNOrInf(t, taps)
	testutil.AssertSymmetric(t, taps, testutil.FilterTolerance)
	// Pass-band gain: the tap sum is the response at DC.
	testutil.AssertDCGain(t, taps, testGain, dcTolerance)
}

func TestMakeLPF_GainScalesTaps(t *testing.T) {
	unit := MakeLPF[float64](testFs, testFp, testDf, testAtt, 1)
	scaled := MakeLPF[float64](testFs, testFp, testDf, testAtt, 2)

	require.Equal(t, len(unit), len(scaled))
	for i := range unit {
		assert.InDelta(t, unit[i]*2, scaled[i], testutil.FilterTolerance)
	}
}

func TestMakeLPFWithLength_ForcesOdd(t *testing.T) {
	taps := MakeLPFWithLength[float64](testFs, testFp, 256, testAtt, testGain)
	assert.Len(t, taps, 257)
}

func TestMakeLPF_StopbandAttenuation(t *testing.T) {
	taps := MakeLPF[float64](testFs, testFp, testDf, testAtt, testGain)

	spec := testutil.SpectrumDB(taps, numSpecBins)

	// Stop band starts one transition width above the pass edge.
	stopEdge := (testFp + testDf) / (testFs / 2)
	for k := range numSpecBins {
		freq := float64(k) / numSpecBins
		if freq > stopEdge {
			assert.LessOrEqual(t, spec[k], -testAtt+stopbandSlop,
				"stop band leak at normalized freq %g", freq)
		}
	}
}

func TestMakeLPF_Float32(t *testing.T) {
	taps := MakeLPF[float32](testFs, testFp, testDf, testAtt, testGain)

	var sum float64
	for _, v := range taps {
		sum += float64(v)
	}
	assert.InDelta(t, testGain, sum, dcTolerance)
}

func TestMakeBPF_SymmetricAndBandlimited(t *testing.T) {
	const (
		fp0, fp1 = 5000.0, 15000.0
		g0, g1   = 1.0, 0.5
		subBands = 8
	)
	taps := MakeBPF[float64](testFs, fp0, g0, fp1, g1, testLength, testAtt, subBands, testGain)

	require.Equal(t, 1, len(taps)%2)
	testutil.AssertNoNaNOrInf(t, taps)
	testutil.AssertSymmetric(t, taps, testutil.FilterTolerance)

	// A band-pass has near-zero DC response.
	testutil.AssertDCGain(t, taps, 0, dcTolerance)
}
