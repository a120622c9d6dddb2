// Package dft wraps gonum's real FFT behind a process-wide plan cache.
//
// Plans are expensive to build and are shared by every filter instance
// that needs the same transform length. A plan's scratch state is not
// safe for concurrent execution, so each plan serializes Forward and
// Inverse behind its own lock; distinct lengths run in parallel.
package dft

import (
	"sync"

	"github.com/tphakala/simd/c128"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Plan is a shared real-FFT plan for one transform length.
type Plan struct {
	n   int
	fft *fourier.FFT
	mu  sync.Mutex
}

var cache struct {
	plans map[int]*Plan
	mu    sync.Mutex
}

// Shared returns the process-wide plan for transforms of length n,
// creating and caching it on first use. Plans are never evicted within a
// process run.
func Shared(n int) *Plan {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cache.plans == nil {
		cache.plans = make(map[int]*Plan)
	}
	if p, ok := cache.plans[n]; ok {
		return p
	}
	p := &Plan{n: n, fft: fourier.NewFFT(n)}
	cache.plans[n] = p
	return p
}

// Len returns the transform length.
func (p *Plan) Len() int { return p.n }

// SpectrumLen returns the number of unique complex bins, n/2 + 1.
func (p *Plan) SpectrumLen() int { return p.n/2 + 1 }

// Forward computes the spectrum of src into dst. dst must have length
// SpectrumLen; src must have length Len.
func (p *Plan) Forward(dst []complex128, src []float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fft.Coefficients(dst, src)
}

// Inverse computes the unnormalized inverse transform of src into dst.
// A Forward/Inverse round trip scales the sequence by Len; callers fold
// the 1/Len factor into their filter spectra.
func (p *Plan) Inverse(dst []float64, src []complex128) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fft.Sequence(dst, src)
}

// MulSpectra multiplies spectra element-wise: dst[i] = a[i] * b[i].
func MulSpectra(dst, a, b []complex128) {
	c128.Mul(dst, a, b)
}

// NextPow2 returns the smallest power of two not below n.
func NextPow2(n int) int {
	ret := 1
	for ret < n {
		ret *= 2
	}
	return ret
}
