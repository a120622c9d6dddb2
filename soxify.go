package ssrc

import (
	"fmt"
	"sync"

	"github.com/tphakala/go-ssrc/internal/queue"
)

// adapterState is the Soxifier life cycle.
type adapterState int

const (
	adapterInit adapterState = iota
	adapterClamped
	adapterStarted
	adapterDraining
	adapterStopped
)

func (s adapterState) String() string {
	switch s {
	case adapterInit:
		return "INIT"
	case adapterClamped:
		return "CLAMPED"
	case adapterStarted:
		return "STARTED"
	case adapterDraining:
		return "DRAINING"
	case adapterStopped:
		return "STOPPED"
	default:
		return "?"
	}
}

// Soxifier converts a pull-based graph into a push/pull processing API.
//
// The adapter exposes one outlet per channel for the graph to pull its
// input from; a goroutine per channel pulls the graph's tail outlet into
// a per-channel result queue. Flow pushes interleaved input and collects
// whatever output the graph has produced; Drain waits for every tail
// reader to observe end-of-stream and then empties the result queues.
//
// The life cycle is a strict state machine:
//
//	INIT --Clamp--> CLAMPED --Start--> STARTED --Drain--> DRAINING --Stop--> STOPPED
//
// Flow is valid in STARTED and DRAINING only; calls outside their state
// return ErrBadState.
type Soxifier[F Float] struct {
	nch int
	n   int

	mu           sync.Mutex
	state        adapterState
	shuttingDown bool

	format  WavFormat
	outlets []*soxOutlet[F]
	tails   []Outlet[F]
	wg      sync.WaitGroup
}

type soxOutlet[F Float] struct {
	parent *Soxifier[F]
	ch     int

	mu       sync.Mutex
	cond     *sync.Cond
	inQ      queue.ArrayQueue[F]
	outQ     queue.ArrayQueue[F]
	draining bool
	finished bool
	err      error
}

// adapterBlock is the tail-reader pull granularity.
const adapterBlock = 65536

// NewSoxifier creates an adapter for nch channels.
func NewSoxifier[F Float](nch int) *Soxifier[F] {
	s := &Soxifier[F]{nch: nch, n: adapterBlock}
	s.outlets = make([]*soxOutlet[F], nch)
	for ch := range s.outlets {
		o := &soxOutlet[F]{parent: s, ch: ch}
		o.cond = sync.NewCond(&o.mu)
		s.outlets[ch] = o
	}
	return s
}

// Outlet returns the graph-facing input port of the given channel.
func (s *Soxifier[F]) Outlet(channel int) Outlet[F] {
	if channel < 0 || channel >= len(s.outlets) {
		panic(fmt.Sprintf("ssrc: Soxifier outlet %d out of range", channel))
	}
	return s.outlets[channel]
}

// Format describes the output stream; valid after Start.
func (s *Soxifier[F]) Format() WavFormat {
	return s.format
}

// Clamp attaches the tail outlets of the pull graph built on top of the
// adapter's input outlets. Valid once, in state INIT.
func (s *Soxifier[F]) Clamp(tails []Outlet[F]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != adapterInit {
		return fmt.Errorf("%w: Clamp in %v", ErrBadState, s.state)
	}
	if len(tails) != s.nch {
		return fmt.Errorf("%w: %d tails for %d channels", ErrMatrixShape, len(tails), s.nch)
	}
	s.tails = tails
	s.state = adapterClamped
	return nil
}

// Start launches the per-channel tail readers. Valid in state CLAMPED.
func (s *Soxifier[F]) Start(format WavFormat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != adapterClamped {
		return fmt.Errorf("%w: Start in %v", ErrBadState, s.state)
	}
	if int(format.Channels) != s.nch {
		return fmt.Errorf("%w: format has %d channels, adapter %d", ErrMatrixShape, format.Channels, s.nch)
	}
	s.format = format

	for _, o := range s.outlets {
		s.wg.Add(1)
		go o.tailLoop()
	}
	s.state = adapterStarted
	return nil
}

// tailLoop pulls the channel's tail outlet until end-of-stream, moving
// everything into the output queue.
func (o *soxOutlet[F]) tailLoop() {
	defer o.parent.wg.Done()
	buf := make([]F, o.parent.n)
	tail := o.parent.tails[o.ch]

	for !o.parent.isShuttingDown() {
		z, err := tail.Read(buf)
		if err != nil {
			o.fail(err)
			return
		}
		if z == 0 {
			break
		}

		o.mu.Lock()
		o.outQ.Write(buf, z)
		o.mu.Unlock()
	}

	o.mu.Lock()
	o.finished = true
	o.cond.Broadcast()
	o.mu.Unlock()
}

// fail records a background error; it is re-raised on the caller at the
// next Flow or Drain.
func (o *soxOutlet[F]) fail(err error) {
	o.mu.Lock()
	o.err = err
	o.finished = true
	o.cond.Broadcast()
	o.mu.Unlock()
}

func (s *Soxifier[F]) isShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuttingDown
}

// AtEnd on an adapter outlet reports whether no pushed input remains and
// the adapter is draining.
func (o *soxOutlet[F]) AtEnd() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inQ.Len() == 0 && o.draining
}

// Read on an adapter outlet hands pushed input to the graph, blocking
// until Flow supplies samples or the adapter drains.
func (o *soxOutlet[F]) Read(p []F) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for o.inQ.Len() == 0 && !o.draining {
		o.cond.Wait()
	}

	z := o.inQ.Read(p)
	if o.inQ.Len() == 0 {
		o.cond.Broadcast()
	}
	return z, nil
}

// collectOutput moves the largest frame-aligned span every channel can
// supply into the interleaved out buffer.
func (s *Soxifier[F]) collectOutput(out []F, frames int) int {
	z := frames
	for _, o := range s.outlets {
		o.mu.Lock()
		z = min(z, o.outQ.Len())
		o.mu.Unlock()
	}

	buf := make([]F, z)
	for ch, o := range s.outlets {
		o.mu.Lock()
		o.outQ.Read(buf)
		o.mu.Unlock()
		for i := range z {
			out[i*s.nch+ch] = buf[i]
		}
	}

	return z
}

func (s *Soxifier[F]) flowState() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != adapterStarted && s.state != adapterDraining {
		return fmt.Errorf("%w: Flow in %v", ErrBadState, s.state)
	}
	return nil
}

func (s *Soxifier[F]) backgroundErr() error {
	for _, o := range s.outlets {
		o.mu.Lock()
		err := o.err
		o.mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// Flow pushes len(in)/nch interleaved input frames into the graph and
// collects up to len(out)/nch interleaved output frames. It returns the
// frame counts consumed and produced. Flow blocks until the graph has
// absorbed all pushed input.
func (s *Soxifier[F]) Flow(in, out []F) (inFrames, outFrames int, err error) {
	if err := s.flowState(); err != nil {
		return 0, 0, err
	}

	ilen := len(in) / s.nch
	olen := len(out) / s.nch

	z := s.collectOutput(out, olen)
	olen -= z
	out = out[z*s.nch:]
	outFrames += z

	for ch, o := range s.outlets {
		v := make([]F, ilen)
		for i := range ilen {
			v[i] = in[i*s.nch+ch]
		}
		o.mu.Lock()
		o.inQ.WriteOwned(v)
		o.cond.Broadcast()
		o.mu.Unlock()
	}

	for _, o := range s.outlets {
		o.mu.Lock()
		for o.inQ.Len() != 0 && !o.finished {
			o.cond.Wait()
		}
		o.mu.Unlock()
	}

	if err := s.backgroundErr(); err != nil {
		return ilen, outFrames, err
	}

	outFrames += s.collectOutput(out, olen)
	return ilen, outFrames, nil
}

// Drain signals end-of-input, waits for every tail reader to observe
// end-of-stream, and collects up to len(out)/nch remaining frames.
// Valid in STARTED and DRAINING.
func (s *Soxifier[F]) Drain(out []F) (int, error) {
	s.mu.Lock()
	if s.state != adapterStarted && s.state != adapterDraining {
		state := s.state
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: Drain in %v", ErrBadState, state)
	}
	first := s.state != adapterDraining
	s.state = adapterDraining
	s.mu.Unlock()

	if first {
		for _, o := range s.outlets {
			o.mu.Lock()
			o.draining = true
			o.cond.Broadcast()
			for !o.finished {
				o.cond.Wait()
			}
			o.mu.Unlock()
		}
	}

	if err := s.backgroundErr(); err != nil {
		return 0, err
	}

	_, n, err := s.Flow(nil, out)
	return n, err
}

// Stop moves the adapter to STOPPED. Valid in STARTED and DRAINING.
func (s *Soxifier[F]) Stop() error {
	s.mu.Lock()
	if s.state != adapterStarted && s.state != adapterDraining {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: Stop in %v", ErrBadState, state)
	}
	s.state = adapterStopped
	s.mu.Unlock()

	for _, o := range s.outlets {
		o.mu.Lock()
		o.draining = true
		o.cond.Broadcast()
		o.mu.Unlock()
	}
	return nil
}

// Close shuts the adapter down, waking every waiter and joining the tail
// readers. The adapter is unusable afterwards.
func (s *Soxifier[F]) Close() {
	s.mu.Lock()
	started := s.state == adapterStarted || s.state == adapterDraining || s.state == adapterStopped
	s.shuttingDown = true
	s.mu.Unlock()

	for _, o := range s.outlets {
		o.mu.Lock()
		o.draining = true
		o.cond.Broadcast()
		o.mu.Unlock()
	}
	if started {
		s.wg.Wait()
	}
}
