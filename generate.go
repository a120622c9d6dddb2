package ssrc

import "math"

// ImpulseGenerator produces a periodic unit impulse on every channel.
// It is the reference excitation for measuring a conversion's impulse
// response and stop-band behaviour.
type ImpulseGenerator[F Float] struct {
	format WavFormat
	out    []*impulseOutlet[F]
}

type impulseOutlet[F Float] struct {
	amp       F
	period    int
	remaining int
	n         int
}

// NewImpulseGenerator creates a generator emitting n samples per channel
// with an impulse of amplitude amp every period samples.
func NewImpulseGenerator[F Float](format WavFormat, amp float64, period, n int) *ImpulseGenerator[F] {
	g := &ImpulseGenerator[F]{format: format}
	g.out = make([]*impulseOutlet[F], format.Channels)
	for i := range g.out {
		g.out[i] = &impulseOutlet[F]{amp: F(amp), period: period, remaining: period - 1, n: n}
	}
	return g
}

// Outlet returns the port of channel c.
func (g *ImpulseGenerator[F]) Outlet(c int) Outlet[F] { return g.out[c] }

// Format describes the generated stream.
func (g *ImpulseGenerator[F]) Format() WavFormat { return g.format }

func (o *impulseOutlet[F]) AtEnd() bool { return o.n == 0 }

func (o *impulseOutlet[F]) Read(out []F) (int, error) {
	ret := 0
	n := min(o.n, len(out))

	for n > 0 {
		for o.remaining > 0 && n > 0 {
			out[0] = 0
			out = out[1:]
			ret++
			n--
			o.remaining--
		}

		if n == 0 {
			break
		}
		out[0] = o.amp
		out = out[1:]
		ret++
		n--

		o.remaining = o.period - 1
	}

	o.n -= ret
	return ret, nil
}

// SweepGenerator produces a linear-frequency sine sweep. Channels after
// the first are phase-offset so that a mixdown does not cancel.
type SweepGenerator[F Float] struct {
	format WavFormat
	out    []*sweepOutlet[F]
}

type sweepOutlet[F Float] struct {
	fs         uint32
	ch         int
	start, end float64
	amp        float64
	total      int
	n          int
	phase      float64
}

// NewSweepGenerator creates a generator emitting n samples per channel
// sweeping from start to end Hz at amplitude amp.
func NewSweepGenerator[F Float](format WavFormat, start, end, amp float64, n int) *SweepGenerator[F] {
	g := &SweepGenerator[F]{format: format}
	g.out = make([]*sweepOutlet[F], format.Channels)
	for i := range g.out {
		ch := i
		if start == 0 && end == 0 {
			ch = 0
		}
		g.out[i] = &sweepOutlet[F]{
			fs: format.SampleRate, ch: ch, start: start, end: end, amp: amp, total: n, n: n,
		}
	}
	return g
}

// Outlet returns the port of channel c.
func (g *SweepGenerator[F]) Outlet(c int) Outlet[F] { return g.out[c] }

// Format describes the generated stream.
func (g *SweepGenerator[F]) Format() WavFormat { return g.format }

func (o *sweepOutlet[F]) AtEnd() bool { return o.n == 0 }

func (o *sweepOutlet[F]) Read(out []F) (int, error) {
	n := min(o.n, len(out))

	for i := range n {
		out[i] = F(o.amp * math.Sin(o.phase+float64(o.ch)))
		o.phase += math.Pi * 2 * (o.end + (o.start-o.end)*float64(o.n-i)/float64(o.total)) / float64(o.fs)
	}

	o.n -= n
	return n, nil
}
