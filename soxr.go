package ssrc

import (
	"fmt"
	"math"
)

// soxrMagic guards handle validity; a mismatch indicates use of a
// deleted or corrupted handle and aborts.
const soxrMagic uint64 = 0x8046b5efb58216fc

// Quality recipes of the libsoxr-shaped surface.
const (
	SoxrQQ  = 0
	SoxrLQ  = 1
	SoxrMQ  = 2
	SoxrHQ  = 4
	SoxrVHQ = 6
)

// SoxrQualitySpec carries the conversion parameters of a recipe.
type SoxrQualitySpec struct {
	Log2DFTFilterLen uint
	Attenuation      float64
	Guard            float64
	DoublePrecision  bool
}

// SoxrQuality returns the spec of a recipe.
func SoxrQuality(recipe int) (SoxrQualitySpec, error) {
	switch recipe {
	case SoxrQQ:
		return SoxrQualitySpec{10, 96, 1, false}, nil
	case SoxrLQ:
		return SoxrQualitySpec{12, 96, 1, false}, nil
	case SoxrMQ:
		return SoxrQualitySpec{14, 145, 2, false}, nil
	case SoxrHQ:
		return SoxrQualitySpec{15, 145, 4, true}, nil
	case SoxrVHQ:
		return SoxrQualitySpec{16, 170, 4, true}, nil
	default:
		return SoxrQualitySpec{}, fmt.Errorf("%w: soxr recipe %d", ErrUnknownProfile, recipe)
	}
}

// Soxr is a libsoxr-shaped streaming converter over interleaved float32
// frames. It wraps a Soxifier-adapted pull graph with one SSRC per
// channel.
type Soxr struct {
	magic    uint64
	inRate   float64
	outRate  float64
	channels int
	quality  SoxrQualitySpec
	delay    float64
	adapter  *Soxifier[float32]
}

// NewSoxr creates a converter. Rates must be integers; quality defaults
// to the MQ recipe when nil.
func NewSoxr(inRate, outRate float64, channels int, quality *SoxrQualitySpec) (*Soxr, error) {
	if math.Round(inRate) != inRate || math.Round(outRate) != outRate {
		return nil, fmt.Errorf("%w: non-integer rate", ErrUnsupportedRatio)
	}
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrMatrixShape, channels)
	}

	q := SoxrQualitySpec{14, 145, 2, false}
	if quality != nil {
		q = *quality
	}

	s := &Soxr{
		magic:    soxrMagic,
		inRate:   inRate,
		outRate:  outRate,
		channels: channels,
		quality:  q,
	}
	if err := s.buildGraph(); err != nil {
		return nil, err
	}
	return s, nil
}

// buildGraph assembles the adapter and the per-channel converters.
func (s *Soxr) buildGraph() error {
	adapter := NewSoxifier[float32](s.channels)

	cfg := Config{
		Log2DFTFilterLen: s.quality.Log2DFTFilterLen,
		Attenuation:      s.quality.Attenuation,
		Guard:            s.quality.Guard,
		Gain:             1,
	}

	tails := make([]Outlet[float32], s.channels)
	for ch := range tails {
		conv, err := NewSSRC(adapter.Outlet(ch), int64(s.inRate), int64(s.outRate), cfg)
		if err != nil {
			return err
		}
		s.delay = conv.Delay()
		tails[ch] = conv
	}

	if err := adapter.Clamp(tails); err != nil {
		return err
	}
	if err := adapter.Start(NewWavFormat(FormatIEEEFloat, uint16(s.channels), uint32(s.outRate), 32)); err != nil {
		return err
	}

	s.adapter = adapter
	return nil
}

func (s *Soxr) check(op string) {
	if s.magic != soxrMagic {
		panic("ssrc: " + op + " on invalid soxr handle")
	}
}

// Process pushes interleaved input frames and collects interleaved
// output frames, returning the counts consumed and produced. A nil in
// drains the converter.
func (s *Soxr) Process(in, out []float32) (inFrames, outFrames int, err error) {
	s.check("Process")
	if in == nil {
		n, err := s.adapter.Drain(out)
		return 0, n, err
	}
	return s.adapter.Flow(in, out)
}

// Delay returns the conversion latency in output frames.
func (s *Soxr) Delay() float64 {
	s.check("Delay")
	return s.delay
}

// Clear rebuilds the processing graph, discarding all buffered state so
// the handle can convert a new stream.
func (s *Soxr) Clear() error {
	s.check("Clear")
	s.adapter.Close()
	return s.buildGraph()
}

// Delete invalidates the handle and releases its goroutines.
func (s *Soxr) Delete() {
	s.check("Delete")
	s.magic = 0
	s.adapter.Close()
}
