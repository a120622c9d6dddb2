// Package wavio provides the WAV/AIFF container collaborators of the
// conversion pipeline: a reader exposing one float outlet per channel
// and a writer draining per-channel outlets into an audio file.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	ssrc "github.com/tphakala/go-ssrc"
	"github.com/tphakala/go-ssrc/internal/queue"
)

// prefetchFrames is the block size of the reader's prefetch goroutine.
const prefetchFrames = 1 << 20

// pcmDecoder is the shared surface of the wav and aiff decoders.
type pcmDecoder interface {
	PCMBuffer(buf *audio.IntBuffer) (int, error)
}

// Reader streams an audio file as per-channel float outlets with
// samples scaled to [-1, +1].
type Reader[F ssrc.Float] struct {
	file      *os.File
	dec       pcmDecoder
	format    ssrc.WavFormat
	container ssrc.ContainerFormat
	nFrames   int64
	scale     float64

	mu      sync.Mutex
	outlets []*readerOutlet[F]
	intBuf  *audio.IntBuffer
	eof     bool

	mt       bool
	prefetch *queue.BlockingArrayQueue[F]
	wg       sync.WaitGroup
}

type readerOutlet[F ssrc.Float] struct {
	reader *Reader[F]
	queue  queue.ArrayQueue[F]
}

// NewReader opens path, decoding WAV or (by extension) AIFF. When mt is
// set, a prefetch goroutine decodes ahead of the graph through a bounded
// queue.
func NewReader[F ssrc.Float](path string, mt bool) (*Reader[F], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := &Reader[F]{file: f, mt: mt}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".aiff", ".aif":
		d := aiff.NewDecoder(f)
		d.ReadInfo()
		if d.NumChans == 0 || d.SampleRate == 0 {
			f.Close()
			return nil, fmt.Errorf("wavio: %s is not a decodable AIFF file", path)
		}
		r.dec = d
		r.container = ssrc.ContainerAIFF
		r.format = ssrc.NewWavFormat(ssrc.FormatPCM, d.NumChans, uint32(d.SampleRate), d.BitDepth)
		r.nFrames = int64(d.NumSampleFrames)
	default:
		d := wav.NewDecoder(f)
		d.ReadInfo()
		if !d.IsValidFile() {
			f.Close()
			return nil, fmt.Errorf("wavio: %s is not a decodable WAV file", path)
		}
		r.dec = d
		r.container = ssrc.ContainerRIFF
		r.format = ssrc.NewWavFormat(d.WavAudioFormat, d.NumChans, d.SampleRate, d.BitDepth)
		// The data chunk size is only known once the decoder has located
		// the chunk.
		if err := d.FwdToPCM(); err != nil {
			f.Close()
			return nil, fmt.Errorf("wavio: %s has no PCM data: %w", path, err)
		}
		r.nFrames = d.PCMLen() / int64(d.NumChans)
	}

	r.scale = 1.0 / float64(int64(1)<<(r.format.BitsPerSample-1))
	r.outlets = make([]*readerOutlet[F], r.format.Channels)
	for ch := range r.outlets {
		r.outlets[ch] = &readerOutlet[F]{reader: r}
	}

	if mt {
		r.prefetch = queue.NewBlockingArrayQueue[F](prefetchFrames * int(r.format.Channels))
		r.wg.Add(1)
		go r.prefetchLoop()
	}

	return r, nil
}

// Format describes the stream.
func (r *Reader[F]) Format() ssrc.WavFormat { return r.format }

// Container identifies the source container.
func (r *Reader[F]) Container() ssrc.ContainerFormat { return r.container }

// NumFrames returns the declared frame count.
func (r *Reader[F]) NumFrames() int64 { return r.nFrames }

// Outlet returns the port of the given channel.
func (r *Reader[F]) Outlet(channel int) ssrc.Outlet[F] {
	if channel < 0 || channel >= len(r.outlets) {
		panic(fmt.Sprintf("wavio: reader outlet %d out of range", channel))
	}
	return r.outlets[channel]
}

// Close releases the file and, in prefetch mode, joins the decode
// goroutine.
func (r *Reader[F]) Close() error {
	if r.prefetch != nil {
		r.prefetch.Close()
		r.wg.Wait()
	}
	return r.file.Close()
}

// decodeFrames reads up to n interleaved frames from the decoder into
// dst, returning the frame count.
func (r *Reader[F]) decodeFrames(dst []F, n int) (int, error) {
	nch := int(r.format.Channels)
	want := n * nch

	if r.intBuf == nil || cap(r.intBuf.Data) < want {
		r.intBuf = &audio.IntBuffer{Data: make([]int, want)}
	}
	r.intBuf.Data = r.intBuf.Data[:want]

	z, err := r.dec.PCMBuffer(r.intBuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("wavio: decode: %w", err)
	}
	for i := range z {
		dst[i] = F(float64(r.intBuf.Data[i]) * r.scale)
	}
	return z / nch, nil
}

// prefetchLoop decodes ahead of the graph into the bounded queue.
func (r *Reader[F]) prefetchLoop() {
	defer r.wg.Done()
	nch := int(r.format.Channels)

	for {
		buf := make([]F, prefetchFrames*nch)
		z, err := r.decodeFrames(buf, prefetchFrames)
		if z == 0 || err != nil {
			r.prefetch.Close()
			return
		}
		r.prefetch.WriteOwned(buf[:z*nch])
	}
}

// refill pulls n frames, deinterleaves them and appends to every
// channel queue. Caller holds the mutex.
func (r *Reader[F]) refill(n int) (int, error) {
	nch := int(r.format.Channels)
	buf := make([]F, n*nch)

	var z int
	if r.mt {
		z = r.prefetch.Read(buf) / nch
	} else {
		var err error
		z, err = r.decodeFrames(buf, n)
		if err != nil {
			return 0, err
		}
	}
	if z == 0 {
		r.eof = true
		return 0, nil
	}

	for ch, o := range r.outlets {
		v := make([]F, z)
		for i := range z {
			v[i] = buf[i*nch+ch]
		}
		o.queue.WriteOwned(v)
	}

	return z, nil
}

func (o *readerOutlet[F]) AtEnd() bool {
	o.reader.mu.Lock()
	defer o.reader.mu.Unlock()
	return o.queue.Len() == 0 && o.reader.eof
}

func (o *readerOutlet[F]) Read(p []F) (int, error) {
	o.reader.mu.Lock()
	defer o.reader.mu.Unlock()

	s := o.queue.Len()
	if s < len(p) {
		z, err := o.reader.refill(len(p) - s)
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
