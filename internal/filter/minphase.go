package filter

import (
	"math"

	"github.com/tphakala/go-ssrc/internal/dft"
	"github.com/tphakala/go-ssrc/internal/simdops"
)

// Pre-emphasis base for numerical conditioning of the log spectrum.
// alpha = 1 - 2^-20; the synthesis recursion undoes it tap by tap.
var minPhaseAlpha = 1.0 - math.Ldexp(1, -20)

// 7-term Blackman-Harris coefficients, normalized by the first term when
// the window is evaluated.
var blackmanHarris7 = [7]float64{
	0.27105140069342, -0.43329793923448, 0.21812299954311, -0.06592544638803,
	0.01081174209837, -0.00077658482522, 0.00001388721735,
}

// rightHalfWindow evaluates the right half of a 7-term Blackman-Harris
// window of length 2n at offsets n..2n-1.
func rightHalfWindow(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		for k := range blackmanHarris7 {
			v[i] += blackmanHarris7[k] * (1.0 / blackmanHarris7[0]) *
				math.Cos(math.Pi/float64(n)*float64(k)*float64(i+n))
		}
	}
	return v
}

// MinimumPhase converts a linear-phase FIR into its minimum-phase
// equivalent via the real cepstrum.
//
// The input spectrum is pre-emphasized, log-compressed and folded into
// the causal cepstrum; the minimum-phase impulse response is then
// synthesized recursively under the right half of a Blackman-Harris
// window and renormalized so the tap sum is preserved.
//
// Reference: Smith AD, Ferguson RJ. Minimum-phase signal calculation
// using the real cepstrum. CREWES Research Report 26 (2014).
func MinimumPhase[F simdops.Float](taps []F) []F {
	l := dft.NextPow2(len(taps))
	plan := dft.Shared(l)
	win := rightHalfWindow(len(taps))

	buf := make([]float64, l)
	a := 1.0
	ein := 0.0
	for i, t := range taps {
		buf[i] = float64(t) * a
		ein += float64(t)
		a *= minPhaseAlpha
	}

	spec := make([]complex128, plan.SpectrumLen())
	plan.Forward(spec, buf)
	for i, c := range spec {
		spec[i] = complex(math.Log(math.Hypot(real(c), imag(c)))*(1.0/float64(l)), 0)
	}
	plan.Inverse(buf, spec)

	// Fold the conjugate half into the causal cepstrum.
	for i := 1; i < l/2; i++ {
		buf[i] += buf[l-i]
	}

	out := make([]F, len(taps))
	out[0] = F(math.Exp(buf[0]/2) * win[0])
	eout := float64(out[0])
	a = 1.0 / minPhaseAlpha
	for n := 1; n < len(out); n++ {
		sum := 0.0
		for k := 1; k <= n; k++ {
			sum += float64(k) * (1.0 / float64(n)) * buf[k] * float64(out[n-k])
		}
		out[n] = F(sum * a * win[n])
		eout += float64(out[n])
		a *= 1.0 / minPhaseAlpha
	}

	scale := F(ein / eout)
	for n := range out {
		out[n] *= scale
	}

	return out
}
