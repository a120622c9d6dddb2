package ssrc

import (
	"fmt"
	"sync"

	"github.com/tphakala/go-ssrc/internal/queue"
)

// ChannelMixer mixes an N-channel stream into M channels through a
// gain matrix: out[c] = sum_i matrix[c][i] * in[i], per frame.
//
// All outlets share one mutex and one refill path, so pulls across
// channels stay frame-aligned regardless of which outlet is read first.
type ChannelMixer[F Float] struct {
	in         OutletProvider[F]
	matrix     [][]float64
	format     WavFormat
	snch, dnch int
	out        []*mixerOutlet[F]
	buf        [][]F
	mu         sync.Mutex
}

type mixerOutlet[F Float] struct {
	parent *ChannelMixer[F]
	queue  queue.ArrayQueue[F]
}

// NewChannelMixer creates a mixer over the provider's channels. The
// matrix is indexed [output][input]; every row must have one entry per
// input channel.
func NewChannelMixer[F Float](in OutletProvider[F], matrix [][]float64) (*ChannelMixer[F], error) {
	format := in.Format()
	snch := int(format.Channels)
	dnch := len(matrix)

	if dnch == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrMatrixShape)
	}
	for _, row := range matrix {
		if len(row) != snch {
			return nil, fmt.Errorf("%w: %d columns for %d input channels", ErrMatrixShape, len(row), snch)
		}
	}

	format.Channels = uint16(dnch)

	m := &ChannelMixer[F]{
		in:     in,
		matrix: matrix,
		format: format,
		snch:   snch,
		dnch:   dnch,
		buf:    make([][]F, max(snch, dnch)),
	}
	m.out = make([]*mixerOutlet[F], dnch)
	for c := range m.out {
		m.out[c] = &mixerOutlet[F]{parent: m}
	}
	return m, nil
}

// Outlet returns the port of output channel c.
func (m *ChannelMixer[F]) Outlet(c int) Outlet[F] {
	return m.out[c]
}

// Format describes the mixed stream.
func (m *ChannelMixer[F]) Format() WavFormat {
	return m.format
}

// refill pulls n frames from every input, zero-padding ragged ends,
// mixes them, and appends one buffer per output queue. Caller holds the
// mutex.
func (m *ChannelMixer[F]) refill(n int) (int, error) {
	for c := range m.buf {
		if cap(m.buf[c]) < n {
			m.buf[c] = make([]F, n)
		}
		m.buf[c] = m.buf[c][:n]
	}

	nRead := 0
	for ic := range m.snch {
		z, err := m.in.Outlet(ic).Read(m.buf[ic])
		if err != nil {
			return 0, err
		}
		clear(m.buf[ic][z:])
		nRead = max(nRead, z)
	}

	frame := make([]F, m.dnch)
	for pos := range nRead {
		for oc := range m.dnch {
			s := 0.0
			for ic := range m.snch {
				s += float64(m.buf[ic][pos]) * m.matrix[oc][ic]
			}
			frame[oc] = F(s)
		}
		for oc := range m.dnch {
			m.buf[oc][pos] = frame[oc]
		}
	}

	for oc := range m.dnch {
		m.out[oc].queue.Write(m.buf[oc], nRead)
	}

	return nRead, nil
}

func (m *ChannelMixer[F]) allInputsAtEnd() bool {
	for ic := range m.snch {
		if !m.in.Outlet(ic).AtEnd() {
			return false
		}
	}
	return true
}

func (o *mixerOutlet[F]) AtEnd() bool {
	o.parent.mu.Lock()
	defer o.parent.mu.Unlock()
	return o.queue.Len() == 0 && o.parent.allInputsAtEnd()
}

func (o *mixerOutlet[F]) Read(p []F) (int, error) {
	o.parent.mu.Lock()
	defer o.parent.mu.Unlock()

	s := o.queue.Len()
	if s < len(p) {
		z, err := o.parent.refill(len(p) - s)
		if err != nil {
			return 0, err
		}
		s += z
	}
	if s > len(p) {
		s = len(p)
	}
	return o.queue.Read(p[:s]), nil
}
