package ssrc

import (
	"fmt"
	"math"

	"github.com/tphakala/go-ssrc/internal/rng"
)

// NoiseGenerator supplies dither noise, one value per output sample.
type NoiseGenerator interface {
	Fill(p []float64)
}

type triangularNoise struct {
	peak float64
	r    *rng.Rand
}

func (g *triangularNoise) Fill(p []float64) {
	for i := range p {
		p[i] = g.r.Triangular(g.peak)
	}
}

type rectangularNoise struct {
	minVal, maxVal float64
	r              *rng.Rand
}

func (g *rectangularNoise) Fill(p []float64) {
	for i := range p {
		p[i] = g.r.Rectangular(g.minVal, g.maxVal)
	}
}

// NewTriangularNoise returns a seeded TPDF noise source with the given
// peak amplitude.
func NewTriangularNoise(peak float64, seed uint64) NoiseGenerator {
	return &triangularNoise{peak: peak, r: rng.NewSeeded(seed)}
}

// NewTriangularNoiseTimeSalted returns a TPDF noise source whose
// generator is salted with the clock on every step. Use it when
// reproducibility is not wanted.
func NewTriangularNoiseTimeSalted(peak float64) NoiseGenerator {
	return &triangularNoise{peak: peak, r: rng.NewTimeSalted()}
}

// NewRectangularNoise returns a seeded RPDF noise source over
// [minVal, maxVal).
func NewRectangularNoise(minVal, maxVal float64, seed uint64) NoiseGenerator {
	return &rectangularNoise{minVal: minVal, maxVal: maxVal, r: rng.NewSeeded(seed)}
}

// Dither quantizes a float stream to integers with noise-shaped
// dithering.
//
// Each output sample is
//
//	clip(round(gain*in + offset + feedback + noise))
//
// where feedback is the shaper-weighted sum of recent quantization
// errors. After clipping, the newest error is clamped to [-1, +1] so the
// feedback register cannot wind up.
type Dither[F Float] struct {
	in              Outlet[F]
	gain            float64
	offset          int32
	clipMin, clipMax int32
	coef            *NoiseShaperCoef
	noise           NoiseGenerator

	errbuf []float64
	inBuf  []F
	rndBuf []float64
}

// NewDither creates a quantization stage over in. coef selects the
// noise shaper; a nil coef or one with Len 0 applies plain dither
// without feedback.
func NewDither[F Float](in Outlet[F], gain float64, offset, clipMin, clipMax int32,
	coef *NoiseShaperCoef, noise NoiseGenerator) (*Dither[F], error) {

	if clipMin >= clipMax {
		return nil, fmt.Errorf("%w: clip range [%d, %d]", ErrInvalidBitDepth, clipMin, clipMax)
	}
	if noise == nil {
		return nil, fmt.Errorf("%w: nil noise generator", ErrUnknownDither)
	}
	if coef != nil && (coef.Len < 0 || coef.Len > maxShaperLen) {
		return nil, fmt.Errorf("%w: shaper length %d", ErrUnknownDither, coef.Len)
	}

	d := &Dither[F]{
		in:      in,
		gain:    gain,
		offset:  offset,
		clipMin: clipMin,
		clipMax: clipMax,
		coef:    coef,
		noise:   noise,
	}
	if coef != nil {
		d.errbuf = make([]float64, coef.Len)
	}
	return d, nil
}

// AtEnd reports whether the quantized stream is exhausted.
func (d *Dither[F]) AtEnd() bool {
	return d.in.AtEnd()
}

// Read produces up to len(out) quantized samples.
func (d *Dither[F]) Read(out []int32) (int, error) {
	if len(d.inBuf) < len(out) {
		d.inBuf = make([]F, len(out))
		d.rndBuf = make([]float64, len(out))
	}

	n, err := d.in.Read(d.inBuf[:len(out)])
	if err != nil {
		return 0, err
	}
	d.noise.Fill(d.rndBuf[:n])

	shaperLen := 0
	var coefs []float64
	if d.coef != nil {
		shaperLen = d.coef.Len
		coefs = d.coef.Coefs[:shaperLen]
	}

	if shaperLen == 0 {
		for p := range n {
			out[p] = int32(math.RoundToEven(d.gain*float64(d.inBuf[p]) + float64(d.offset) + d.rndBuf[p]))
		}
		return n, nil
	}

	for p := range n {
		h := coefs[shaperLen-1] * d.errbuf[shaperLen-1]
		for i := shaperLen - 2; i >= 0; i-- {
			h += coefs[i] * d.errbuf[i]
			d.errbuf[i+1] = d.errbuf[i]
		}

		x := d.gain*float64(d.inBuf[p]) + float64(d.offset) + h
		q := math.RoundToEven(x + d.rndBuf[p])
		d.errbuf[0] = q - x

		if q < float64(d.clipMin) || q > float64(d.clipMax) {
			q = min(max(q, float64(d.clipMin)), float64(d.clipMax))
			d.errbuf[0] = min(max(q-x, -1), 1)
		}

		out[p] = int32(q)
	}

	return n, nil
}
