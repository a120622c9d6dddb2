package ssrc

import (
	"fmt"

	"github.com/tphakala/go-ssrc/internal/engine"
	"github.com/tphakala/go-ssrc/internal/filter"
	"github.com/tphakala/go-ssrc/internal/mathutil"
)

// Config controls a rate conversion.
type Config struct {
	// Log2DFTFilterLen is the base-2 log of the wide-band DFT filter
	// length. Longer filters narrow the transition band.
	Log2DFTFilterLen uint

	// Attenuation is the stop-band attenuation of both filters in dB.
	Attenuation float64

	// Guard trades transition width for pass-band margin: 0 keeps the
	// full transition band from lo to the oversampled rate m*hi, larger
	// values narrow it toward zero.
	Guard float64

	// Gain scales the output; 1 is unity.
	Gain float64

	// MinimumPhase replaces both linear-phase filters with their
	// minimum-phase equivalents.
	MinimumPhase bool

	// Log2MinDFTLen, when non-zero and smaller than Log2DFTFilterLen,
	// partitions the DFT filter into log-staggered sub-filters. Only the
	// smallest, with transforms of length 1<<Log2MinDFTLen, runs on every
	// block; the level-k sub-filter runs every 2^k blocks, and the blocks
	// on which it is due also run its longer transform.
	Log2MinDFTLen uint

	// Multithread fans per-partition work out onto the shared worker
	// pool.
	Multithread bool
}

// DefaultConfig matches the "fast" profile at unity gain.
func DefaultConfig() Config {
	return Config{Log2DFTFilterLen: 10, Attenuation: 96, Guard: 1, Gain: 1}
}

// SSRC converts a sample stream from srcFs to dstFs.
//
// The conversion is defined on the least common multiple of the two
// rates. An oversampling multiplier m in {1,2,3} widens the cheap DFT
// filter's operating rate; the polyphase filter bridges the remaining
// rational ratio on the LCM grid without ever realising it.
type SSRC[F Float] struct {
	in           Outlet[F]
	srcFs, dstFs int64
	delay        float64
	tail         Outlet[F]
}

func gcd(x, y int64) int64 {
	for y != 0 {
		x, y = y, x%y
	}
	return x
}

// NewSSRC creates a converter stage over in. srcFs and dstFs are the
// integer source and destination rates in Hz; equal rates yield a
// pass-through.
func NewSSRC[F Float](in Outlet[F], srcFs, dstFs int64, cfg Config) (*SSRC[F], error) {
	if srcFs <= 0 || dstFs <= 0 {
		return nil, fmt.Errorf("%w: rates must be positive (%d -> %d)", ErrUnsupportedRatio, srcFs, dstFs)
	}

	s := &SSRC[F]{in: in, srcFs: srcFs, dstFs: dstFs}

	if srcFs == dstFs {
		s.tail = in
		return s, nil
	}

	fslcm := srcFs / gcd(srcFs, dstFs) * dstFs
	lfs := min(srcFs, dstFs)
	hfs := max(srcFs, dstFs)

	var osm int64
	switch {
	case fslcm/hfs == 1:
		osm = 1
	case fslcm/hfs%2 == 0:
		osm = 2
	case fslcm/hfs%3 == 0:
		osm = 3
	default:
		return nil, fmt.Errorf("%w: %d/gcd(%d, %d) must be divisible by 2 or 3",
			ErrUnsupportedRatio, lfs, srcFs, dstFs)
	}
	fsos := hfs * osm

	dftflen := int64(1) << cfg.Log2DFTFilterLen

	// Anti-image filter on the LCM grid. The pass-band edge interpolates
	// between lfs/2 (guard 0) and fsos/2 (guard -> inf); the transition
	// band narrows from fsos-lfs toward zero with the same factor.
	ppfv := filter.MakeLPF[F](
		float64(fslcm),
		(float64(fsos)+float64(lfs-fsos)/(1.0+cfg.Guard))/2,
		float64(fsos-lfs)/(1.0+cfg.Guard),
		cfg.Attenuation,
		float64(fslcm)/float64(srcFs))

	// Anti-alias filter at the oversampled rate; its transition width
	// follows from the fixed length. The DFT filter stage folds the
	// transform normalisation into its spectrum, so the taps carry only
	// the user gain.
	df := mathutil.TransitionBandWidth(cfg.Attenuation, float64(fsos), int(dftflen-1))
	dftfv := filter.MakeLPFWithLength[F](
		float64(fsos),
		float64(lfs)/2-df,
		dftflen-1,
		cfg.Attenuation,
		cfg.Gain)

	if cfg.MinimumPhase {
		ppfv = filter.MinimumPhase(ppfv)
		dftfv = filter.MinimumPhase(dftfv)
	}

	// Group delay of the linear-phase cascade, in destination samples.
	// In minimum-phase mode the effective delay is near zero; the figure
	// below is kept as an upper bound.
	s.delay = ((float64(len(ppfv))*0.5-1)/float64(fslcm) +
		(float64(len(dftfv))*0.5-1)/float64(fsos)) * float64(dstFs)

	newDFT := func(up Outlet[F]) Outlet[F] {
		if cfg.Log2MinDFTLen != 0 && int64(1)<<cfg.Log2MinDFTLen < dftflen {
			return engine.NewPartDFTFilter(up, dftfv, 1<<cfg.Log2MinDFTLen, cfg.Multithread)
		}
		return engine.NewDFTFilter(up, dftfv)
	}

	if dstFs > srcFs {
		ppf := engine.NewFastPP(s.in, srcFs, fslcm, fsos, ppfv)
		dftf := newDFT(ppf)
		s.tail = newUndersample(dftf, fsos, dstFs)
	} else {
		ov := newOversample(s.in, srcFs, fsos)
		dftf := newDFT(ov)
		s.tail = engine.NewFastPP(dftf, fsos, fslcm, dstFs, ppfv)
	}

	return s, nil
}

// AtEnd reports whether the converted stream is exhausted.
func (s *SSRC[F]) AtEnd() bool {
	return s.tail.AtEnd()
}

// Read produces up to len(out) destination-rate samples.
func (s *SSRC[F]) Read(out []F) (int, error) {
	return s.tail.Read(out)
}

// Delay returns the group delay of the conversion in destination
// samples. For minimum-phase filters this is an upper bound.
func (s *SSRC[F]) Delay() float64 {
	return s.delay
}

// oversample inserts m-1 zeros between consecutive input samples.
type oversample[F Float] struct {
	in         Outlet[F]
	m          int
	remaining  int
	buf        []F
	endReached bool
}

const resampleBlock = 65536

func newOversample[F Float](in Outlet[F], srcFs, dstFs int64) *oversample[F] {
	return &oversample[F]{in: in, m: int(dstFs / srcFs), buf: make([]F, resampleBlock)}
}

func (o *oversample[F]) AtEnd() bool {
	return o.endReached
}

func (o *oversample[F]) Read(out []F) (int, error) {
	ret := 0

	for len(out) > 0 && o.remaining > 0 {
		out[0] = 0
		out = out[1:]
		ret++
		o.remaining--
	}

	for len(out) > 0 {
		want := min((len(out)+o.m-1)/o.m, resampleBlock)
		nRead, err := o.in.Read(o.buf[:want])
		if err != nil {
			return ret, err
		}
		if nRead == 0 {
			o.endReached = true
			break
		}

		for i := range nRead - 1 {
			out[0] = o.buf[i]
			out = out[1:]
			for range o.m - 1 {
				out[0] = 0
				out = out[1:]
			}
		}
		ret += (nRead - 1) * o.m

		out[0] = o.buf[nRead-1]
		out = out[1:]
		ret++

		for j := range o.m - 1 {
			if len(out) == 0 {
				o.remaining = o.m - 1 - j
				break
			}
			out[0] = 0
			out = out[1:]
			ret++
		}
	}

	return ret, nil
}

// undersample keeps every m-th sample.
type undersample[F Float] struct {
	in         Outlet[F]
	m          int
	buf        []F
	endReached bool
}

func newUndersample[F Float](in Outlet[F], srcFs, dstFs int64) *undersample[F] {
	m := int(srcFs / dstFs)
	return &undersample[F]{in: in, m: m, buf: make([]F, resampleBlock*m)}
}

func (u *undersample[F]) AtEnd() bool {
	return u.endReached
}

func (u *undersample[F]) Read(out []F) (int, error) {
	ret := 0

	for len(out) > 0 && !u.endReached {
		toBeRead := min(resampleBlock, len(out)) * u.m
		nRead := 0

		for nRead < toBeRead {
			r, err := u.in.Read(u.buf[nRead:toBeRead])
			if err != nil {
				return ret, err
			}
			if r == 0 {
				u.endReached = true
				break
			}
			nRead += r
		}

		for i := 0; i < nRead; i += u.m {
			out[0] = u.buf[i]
			out = out[1:]
			ret++
		}
	}

	return ret, nil
}
