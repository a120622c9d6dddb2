// Package filter provides the Kaiser-window FIR designer and the
// minimum-phase transformation used by the resampler.
package filter

import (
	"math"

	"github.com/tphakala/go-ssrc/internal/mathutil"
	"github.com/tphakala/go-ssrc/internal/simdops"
)

// window evaluates the Kaiser window at offset n from the center of a
// length len window. iza is the precomputed Izero(alpha) normalizer.
func window(n, length int, alp, iza float64) float64 {
	if n > length-1 {
		return 0
	}
	nn := float64(n)
	ll := float64(length) - 1
	return mathutil.Izero(alp*math.Sqrt(1-4*nn*nn/(ll*ll))) / iza
}

// lpfTap is the ideal low-pass impulse response at offset n for pass-band
// edge fp (Hz) and sampling rate fs (Hz).
func lpfTap(n int, fp, fs float64) float64 {
	t := 1.0 / fs
	omega := 2 * math.Pi * fp
	return 2 * fp * t * mathutil.Sinc(float64(n)*omega*t)
}

// bpfTap is the ideal band-pass impulse response at offset n. The band
// [fp0, fp1] is split into K equal sub-bands whose gains ramp
// exponentially from g0 to g1.
func bpfTap(n int, fp0, g0, fp1, g1, fs float64, k int) float64 {
	sum := 0.0
	for i := range k {
		fl := float64(i)*(fp1-fp0)/float64(k) + fp0
		fh := float64(i+1)*(fp1-fp0)/float64(k) + fp0
		g := math.Exp(float64(i)*(math.Log(g1)-math.Log(g0))/float64(k) + math.Log(g0))
		sum += (lpfTap(n, fh, fs) - lpfTap(n, fl, fs)) * g
	}
	return sum
}

// MakeLPF designs a symmetric low-pass FIR with the tap count derived
// from the attenuation aa (dB) and transition band width df (Hz).
//
//	fs   sampling rate (Hz)
//	fp   pass-band edge frequency (Hz)
func MakeLPF[F simdops.Float](fs, fp, df, aa, gain float64) []F {
	return MakeLPFWithLength[F](fs, fp, int64(mathutil.FilterLength(aa, fs, df)), aa, gain)
}

// MakeLPFWithLength designs a symmetric low-pass FIR of the given length,
// forced odd.
func MakeLPFWithLength[F simdops.Float](fs, fp float64, length int64, aa, gain float64) []F {
	alp := mathutil.KaiserAlpha(aa)
	iza := mathutil.Izero(alp)
	if length&1 == 0 {
		length++
	}
	taps := make([]F, length)
	half := int(length / 2)
	for i := 0; i <= half; i++ {
		v := F(window(i, int(length), alp, iza) * lpfTap(i, fp, fs) * gain)
		taps[half+i] = v
		taps[half-i] = v
	}
	return taps
}

// MakeBPF designs a symmetric band-pass FIR of the given length, forced
// odd, with an exponential gain ramp g0 -> g1 across K sub-bands.
func MakeBPF[F simdops.Float](fs, fp0, g0, fp1, g1 float64, length int64, aa float64, k int, gain float64) []F {
	alp := mathutil.KaiserAlpha(aa)
	iza := mathutil.Izero(alp)
	if length&1 == 0 {
		length++
	}
	taps := make([]F, length)
	half := int(length / 2)
	for i := 0; i <= half; i++ {
		v := F(window(i, int(length), alp, iza) * bpfTap(i, fp0, g0, fp1, g1, fs, k) * gain)
		taps[half+i] = v
		taps[half-i] = v
	}
	return taps
}
