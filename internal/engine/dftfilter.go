package engine

import (
	"github.com/tphakala/go-ssrc/internal/dft"
	"github.com/tphakala/go-ssrc/internal/simdops"
)

// DFTFilter convolves its input with a FIR filter in the frequency
// domain. The block length is 2*nextPow2(firlen); each block reads half
// a block of input, multiplies its spectrum with the precomputed filter
// spectrum, and adds the previous block's tail onto the emitted half.
// At end-of-stream firlen zero samples are appended so the filter tail
// is fully flushed.
type DFTFilter[F simdops.Float] struct {
	in Inlet[F]

	firlen  int
	halfLen int
	dftLen  int

	plan       *dft.Plan
	filterSpec []complex128
	spec       []complex128
	block      []float64
	inBuf      []F
	overlap    []float64

	fraction    []F
	fractionLen int
	nZeroPad    int
	endReached  bool
}

// NewDFTFilter creates a frequency-domain FIR stage over in with the
// given taps.
func NewDFTFilter[F simdops.Float](in Inlet[F], taps []F) *DFTFilter[F] {
	firlen := len(taps)
	halfLen := dft.NextPow2(firlen)
	dftLen := halfLen * 2
	plan := dft.Shared(dftLen)

	// The inverse transform is unnormalized; fold 1/dftLen into the
	// filter spectrum once.
	block := make([]float64, dftLen)
	for i, t := range taps {
		block[i] = float64(t) * (1.0 / float64(dftLen))
	}
	filterSpec := make([]complex128, plan.SpectrumLen())
	plan.Forward(filterSpec, block)

	return &DFTFilter[F]{
		in:         in,
		firlen:     firlen,
		halfLen:    halfLen,
		dftLen:     dftLen,
		plan:       plan,
		filterSpec: filterSpec,
		spec:       make([]complex128, plan.SpectrumLen()),
		block:      block,
		inBuf:      make([]F, halfLen),
		overlap:    make([]float64, halfLen),
		fraction:   make([]F, halfLen),
	}
}

// AtEnd reports whether the filtered stream is exhausted.
func (d *DFTFilter[F]) AtEnd() bool {
	return d.fractionLen == 0 && d.endReached && d.nZeroPad == 0
}

func (d *DFTFilter[F]) popFraction(out []F) int {
	n := min(d.fractionLen, len(out))
	copy(out, d.fraction[:n])
	copy(d.fraction, d.fraction[n:d.fractionLen])
	d.fractionLen -= n
	return n
}

// Read produces up to len(out) filtered samples.
func (d *DFTFilter[F]) Read(out []F) (int, error) {
	ret := d.popFraction(out)
	out = out[ret:]

	for len(out) > 0 && (!d.endReached || d.nZeroPad != 0) {
		nRead := 0

		for nRead < d.halfLen {
			if !d.endReached {
				r, err := d.in.Read(d.inBuf[nRead:d.halfLen])
				if err != nil {
					return ret, err
				}
				if r == 0 {
					d.endReached = true
					d.nZeroPad = d.firlen
				}
				nRead += r
			} else {
				r := min(d.halfLen-nRead, d.nZeroPad)
				clear(d.inBuf[nRead : nRead+r])
				nRead += r
				d.nZeroPad -= r
				if d.nZeroPad == 0 {
					break
				}
			}
		}

		widen(d.block[:nRead], d.inBuf[:nRead])
		clear(d.block[nRead:])

		d.plan.Forward(d.spec, d.block)
		dft.MulSpectra(d.spec, d.spec, d.filterSpec)
		d.plan.Inverse(d.block, d.spec)

		nOut := min(nRead, len(out))
		for i := range nOut {
			out[i] = F(d.block[i] + d.overlap[i])
		}
		if nOut < nRead {
			for i := range nRead - nOut {
				d.fraction[i] = F(d.block[nOut+i] + d.overlap[nOut+i])
			}
			d.fractionLen = nRead - nOut
		}

		copy(d.overlap, d.block[d.halfLen:])

		out = out[nOut:]
		ret += nOut

		if d.fractionLen > 0 {
			break
		}
	}

	if len(out) > 0 {
		ret += d.popFraction(out)
	}

	return ret, nil
}
