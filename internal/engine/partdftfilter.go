package engine

import (
	"github.com/tphakala/go-ssrc/internal/dft"
	"github.com/tphakala/go-ssrc/internal/executor"
	"github.com/tphakala/go-ssrc/internal/simdops"
)

// partition is one log-staggered sub-filter of a PartDFTFilter.
// The level-k partition runs a DFT of length 1<<(l2min+k) and is due
// every 1<<k blocks, consuming a correspondingly larger span of the
// input history.
type partition struct {
	level      int
	dftLen     int
	halfLen    int
	plan       *dft.Plan
	filterSpec []complex128
	spec       []complex128
	block      []float64
}

func newPartition[F simdops.Float](level, dftLen int, taps []F) *partition {
	plan := dft.Shared(dftLen)
	block := make([]float64, dftLen)
	for i, t := range taps {
		block[i] = float64(t) * (1.0 / float64(dftLen))
	}
	filterSpec := make([]complex128, plan.SpectrumLen())
	plan.Forward(filterSpec, block)

	return &partition{
		level:      level,
		dftLen:     dftLen,
		halfLen:    dftLen / 2,
		plan:       plan,
		filterSpec: filterSpec,
		spec:       make([]complex128, plan.SpectrumLen()),
		block:      block,
	}
}

// Run performs the partition's FFT, spectrum product and inverse FFT on
// the time-domain input already staged in block. Additions into the
// shared overlap buffer happen afterwards, serialized by the caller.
func (p *partition) Run() {
	p.plan.Forward(p.spec, p.block)
	dft.MulSpectra(p.spec, p.spec, p.filterSpec)
	p.plan.Inverse(p.block, p.spec)
}

// PartDFTFilter convolves with a long FIR split into log-staggered
// partitions of sizes 2^l2min .. 2^l2max. Only the smallest DFT runs on
// every block, which bounds per-block processing latency; the larger
// partitions run every 2^k blocks over the input history, and every
// contribution accumulates into a single rolling overlap buffer.
type PartDFTFilter[F simdops.Float] struct {
	in Inlet[F]

	firlen  int
	maxHalf int
	maxLen  int
	minHalf int
	minLen  int

	head  *partition   // first partition, fed the newest block directly
	parts []*partition // history partitions, level 0..l2max-l2min

	inBuf   []F       // input history ring, maxHalf + minHalf
	overlap []float64 // rolling accumulation buffer, maxLen

	fraction    []F
	fractionLen int
	overlapLen  int
	nZeroPad    int
	dftCount    uint
	endReached  bool

	mt   bool
	exec executor.Executor
}

// NewPartDFTFilter creates a partitioned frequency-domain FIR stage.
// minDFTLen is rounded up to a power of two and bounds the smallest
// (per-block) transform. When mt is set, the partitions of one block run
// in parallel on the shared worker pool.
func NewPartDFTFilter[F simdops.Float](in Inlet[F], taps []F, minDFTLen int, mt bool) *PartDFTFilter[F] {
	firlen := len(taps)
	maxHalf := dft.NextPow2(firlen) / 2
	maxLen := maxHalf * 2
	minLen := min(dft.NextPow2(minDFTLen), maxLen)
	minHalf := minLen / 2

	f := &PartDFTFilter[F]{
		in:       in,
		firlen:   firlen,
		maxHalf:  maxHalf,
		maxLen:   maxLen,
		minHalf:  minHalf,
		minLen:   minLen,
		inBuf:    make([]F, maxHalf+minHalf),
		overlap:  make([]float64, maxLen),
		fraction: make([]F, minHalf),
		mt:       mt,
	}

	n := min(firlen, minHalf)
	f.head = newPartition(-1, minLen, taps[:n])
	taps = taps[n:]

	nLevels := ilog2(maxLen) - ilog2(minLen) + 1
	f.parts = make([]*partition, nLevels)
	for level := range nLevels {
		dftLen := minLen << level
		n = min(len(taps), dftLen/2)
		f.parts[level] = newPartition(level, dftLen, taps[:n])
		taps = taps[n:]
	}

	return f
}

// AtEnd reports whether the filtered stream is exhausted.
func (f *PartDFTFilter[F]) AtEnd() bool {
	return f.fractionLen == 0 && f.endReached && f.nZeroPad == 0
}

func (f *PartDFTFilter[F]) popFraction(out []F) int {
	n := min(f.fractionLen, len(out))
	copy(out, f.fraction[:n])
	copy(f.fraction, f.fraction[n:f.fractionLen])
	f.fractionLen -= n
	return n
}

// duePartitions stages the input of every partition scheduled for this
// block: the head partition sees the newest half-block, level k sees the
// trailing 2^(l2min+k-1) samples of the history (which excludes the
// newest block by construction of the ring).
func (f *PartDFTFilter[F]) duePartitions() []*partition {
	due := f.parts[:0:0]

	widen(f.head.block[:f.minHalf], f.inBuf[len(f.inBuf)-f.minHalf:])
	clear(f.head.block[f.minHalf:])
	due = append(due, f.head)

	for _, p := range f.parts {
		if p.level != 0 && f.dftCount&(1<<p.level-1) != 0 {
			continue
		}
		widen(p.block[:p.halfLen], f.inBuf[f.maxHalf-p.halfLen:f.maxHalf])
		clear(p.block[p.halfLen:])
		due = append(due, p)
	}

	return due
}

// Read produces up to len(out) filtered samples.
func (f *PartDFTFilter[F]) Read(out []F) (int, error) {
	ret := f.popFraction(out)
	out = out[ret:]

	for len(out) > 0 && (!f.endReached || f.nZeroPad != 0) {
		nRead := 0
		ptrRead := f.inBuf[len(f.inBuf)-f.minHalf:]

		for nRead < f.minHalf {
			if !f.endReached {
				r, err := f.in.Read(ptrRead[nRead:])
				if err != nil {
					return ret, err
				}
				if r == 0 {
					f.endReached = true
					f.nZeroPad = f.firlen
				}
				nRead += r
			} else {
				r := min(f.minHalf-nRead, f.nZeroPad)
				clear(ptrRead[nRead : nRead+r])
				nRead += r
				f.nZeroPad -= r
				if f.nZeroPad == 0 {
					break
				}
			}
		}
		clear(ptrRead[nRead:])

		due := f.duePartitions()

		if f.mt && len(due) > 1 {
			for _, p := range due {
				f.exec.Push(p)
			}
			for range due {
				f.exec.Pop()
			}
		} else {
			for _, p := range due {
				p.Run()
			}
		}

		// Block boundary: contributions are folded into the rolling
		// overlap buffer in level order.
		for _, p := range due {
			for i := range p.dftLen {
				f.overlap[i] += p.block[i]
			}
			f.overlapLen = max(f.overlapLen, p.dftLen)
		}

		nOut := min(nRead, len(out))
		for i := range nOut {
			out[i] = F(f.overlap[i])
		}
		if nOut < nRead {
			for i := range nRead - nOut {
				f.fraction[i] = F(f.overlap[nOut+i])
			}
			f.fractionLen = nRead - nOut
		}

		copy(f.inBuf, f.inBuf[f.minHalf:])
		copy(f.overlap, f.overlap[f.minHalf:])
		clear(f.overlap[len(f.overlap)-f.minHalf:])
		if f.overlapLen >= f.minHalf {
			f.overlapLen -= f.minHalf
		} else {
			f.overlapLen = 0
		}

		out = out[nOut:]
		ret += nOut
		f.dftCount++

		if f.fractionLen > 0 {
			break
		}
	}

	if len(out) > 0 {
		ret += f.popFraction(out)
	}

	return ret, nil
}
