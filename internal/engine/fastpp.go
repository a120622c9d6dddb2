package engine

import "github.com/tphakala/go-ssrc/internal/simdops"

// FastPP is a rational-ratio polyphase FIR resampler. Filtering is
// defined on the lcmFs grid, which is never physically realised: the
// filter is split into sstep = lcmFs/srcFs subfilters and each output
// sample is one dot product of the subfilter selected by its phase with
// a window of source samples.
type FastPP[F simdops.Float] struct {
	in Inlet[F]

	sstep, dstep int
	firlen       int
	tapsPerPhase int
	coef         [][]F // coef[phase][k] = taps[firlen-1-(k*sstep+phase)]

	buf     []F
	dpos    int // destination samples emitted
	ssize   int // source samples consumed
	dsize   int // destination stream size derived from ssize
	buflast int

	ops *simdops.Ops[F]
}

// NewFastPP creates a polyphase resampler from srcFs to dstFs over the
// common lcmFs grid, with taps designed at lcmFs.
func NewFastPP[F simdops.Float](in Inlet[F], srcFs, lcmFs, dstFs int64, taps []F) *FastPP[F] {
	sstep := int(lcmFs / srcFs)
	dstep := int(lcmFs / dstFs)
	firlen := len(taps)
	tapsPerPhase := (firlen + sstep - 1) / sstep

	coef := make([][]F, sstep)
	for i := range coef {
		coef[i] = make([]F, tapsPerPhase)
	}
	for i := range firlen {
		coef[i%sstep][i/sstep] = taps[firlen-1-i]
	}

	return &FastPP[F]{
		in:           in,
		sstep:        sstep,
		dstep:        dstep,
		firlen:       firlen,
		tapsPerPhase: tapsPerPhase,
		coef:         coef,
		buf:          make([]F, (firlen+blockSamples*dstep)/sstep+2),
		// The window of output d spans source samples
		// [s-(tapsPerPhase-1), s]; seed the ring with that much zero
		// history so the filter is causal.
		buflast: tapsPerPhase - 1,
		ops:     simdops.For[F](),
	}
}

// AtEnd reports whether the derived destination stream is exhausted.
func (f *FastPP[F]) AtEnd() bool {
	return f.dpos >= f.dsize
}

// Read produces up to len(out) destination samples.
func (f *FastPP[F]) Read(out []F) (int, error) {
	nOut := 0

	for len(out) > 0 {
		nRead, err := f.in.Read(f.buf[f.buflast:])
		if err != nil {
			return nOut, err
		}
		f.ssize += nRead
		f.dsize = f.ssize * f.sstep / f.dstep

		endReached := nRead == 0

		if f.dpos >= f.dsize {
			return nOut, nil
		}

		f.buflast += nRead
		clear(f.buf[f.buflast:])

		sorg := (f.dpos*f.dstep + f.sstep - 1) / f.sstep
		bs := min(len(out), blockSamples)

		for i := 0; i < bs && f.dpos < f.dsize; i++ {
			spos := (f.dpos*f.dstep + f.sstep - 1) / f.sstep
			phase := spos*f.sstep - f.dpos*f.dstep

			if f.tapsPerPhase-1+(spos-sorg) >= f.buflast && !endReached {
				break
			}

			window := f.buf[spos-sorg : spos-sorg+f.tapsPerPhase]
			out[0] = f.ops.DotProductUnsafe(f.coef[phase], window)
			out = out[1:]
			f.dpos++
			nOut++
		}

		slast := (f.dpos*f.dstep + f.sstep - 1) / f.sstep
		copy(f.buf, f.buf[slast-sorg:])
		f.buflast -= slast - sorg
	}

	return nOut, nil
}
