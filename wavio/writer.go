package wavio

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	ssrc "github.com/tphakala/go-ssrc"
	"github.com/tphakala/go-ssrc/internal/executor"
)

// Sample is the type constraint for writable streams: floats from the
// filter graph or quantized integers from the dither sink.
type Sample interface {
	int32 | float32 | float64
}

// defaultWriteFrames is the per-block pull size of Execute.
const defaultWriteFrames = 65536

// encoder is the shared surface of the wav and aiff encoders.
type encoder interface {
	Write(buf *audio.IntBuffer) error
	Close() error
}

// Writer drains one outlet per channel into an audio file, interleaving
// frame by frame. When mt is set, the per-channel pulls of each block
// run as one task per channel on the shared worker pool; the channels
// are recombined in order before the block is written.
type Writer[T Sample] struct {
	file      *os.File
	enc       encoder
	format    ssrc.WavFormat
	container ssrc.ContainerFormat
	in        []ssrc.Outlet[T]
	n         int
	mt        bool
	isFloat   bool
	scale     float64
	clipMin   int
	clipMax   int
}

// NewWriter creates path and prepares an encoder for the given format
// and container. One upstream outlet per declared channel is required.
func NewWriter[T Sample](path string, format ssrc.WavFormat, container ssrc.ContainerFormat,
	in []ssrc.Outlet[T], bufFrames int, mt bool) (*Writer[T], error) {

	if int(format.Channels) != len(in) {
		return nil, fmt.Errorf("wavio: %d outlets for %d channels", len(in), format.Channels)
	}
	if bufFrames <= 0 {
		bufFrames = defaultWriteFrames
	}

	tag := format.FormatTag
	if tag == ssrc.FormatExtensible {
		if format.SubFormat == ssrc.SubtypeIEEEFloat {
			tag = ssrc.FormatIEEEFloat
		} else {
			tag = ssrc.FormatPCM
		}
	}
	isFloat := tag == ssrc.FormatIEEEFloat
	if isFloat && format.BitsPerSample != 32 {
		return nil, fmt.Errorf("wavio: float output requires 32 bits, got %d", format.BitsPerSample)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := &Writer[T]{
		file:      f,
		format:    format,
		container: container,
		in:        in,
		n:         bufFrames,
		mt:        mt,
		isFloat:   isFloat,
		scale:     float64(int64(1)<<(format.BitsPerSample-1) - 1),
		clipMin:   -(1 << (format.BitsPerSample - 1)),
		clipMax:   1<<(format.BitsPerSample-1) - 1,
	}

	switch container {
	case ssrc.ContainerAIFF:
		if isFloat {
			f.Close()
			return nil, fmt.Errorf("wavio: AIFF does not carry float samples")
		}
		w.enc = aiff.NewEncoder(f, int(format.SampleRate), int(format.BitsPerSample), int(format.Channels))
	case ssrc.ContainerRIFF:
		w.enc = wav.NewEncoder(f, int(format.SampleRate), int(format.BitsPerSample), int(format.Channels), int(tag))
	default:
		f.Close()
		return nil, fmt.Errorf("wavio: unsupported container %v", container)
	}

	return w, nil
}

// channelRead is one block pull of one channel, runnable on the pool.
type channelRead[T Sample] struct {
	out ssrc.Outlet[T]
	buf []T
	z   int
	err error
}

func (t *channelRead[T]) Run() {
	t.z, t.err = t.out.Read(t.buf)
}

// sampleToInt converts one sample to the encoder's integer domain.
func (w *Writer[T]) sampleToInt(v T) int {
	switch s := any(v).(type) {
	case int32:
		// Already quantized by the dither sink.
		return int(s)
	case float32:
		if w.isFloat {
			return int(int32(math.Float32bits(s)))
		}
		return w.quantize(float64(s))
	case float64:
		if w.isFloat {
			return int(int32(math.Float32bits(float32(s))))
		}
		return w.quantize(s)
	default:
		return 0
	}
}

func (w *Writer[T]) quantize(v float64) int {
	q := int(math.RoundToEven(v * w.scale))
	return min(max(q, w.clipMin), w.clipMax)
}

// Execute pulls every channel to exhaustion, interleaving block by
// block. It returns the first error observed from the graph or the
// encoder.
func (w *Writer[T]) Execute() error {
	nch := len(w.in)
	tasks := make([]*channelRead[T], nch)
	for c := range tasks {
		tasks[c] = &channelRead[T]{out: w.in[c], buf: make([]T, w.n)}
	}

	frame := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: nch,
			SampleRate:  int(w.format.SampleRate),
		},
		SourceBitDepth: int(w.format.BitsPerSample),
		Data:           make([]int, w.n*nch),
	}

	var exec executor.Executor

	for {
		if w.mt && nch > 1 {
			for _, t := range tasks {
				exec.Push(t)
			}
			for range tasks {
				exec.Pop()
			}
		} else {
			for _, t := range tasks {
				t.Run()
			}
		}

		zmax := 0
		for _, t := range tasks {
			if t.err != nil {
				return t.err
			}
			zmax = max(zmax, t.z)
		}
		if zmax == 0 {
			break
		}
		for c, t := range tasks {
			for i := range t.z {
				frame.Data[i*nch+c] = w.sampleToInt(t.buf[i])
			}
			for i := t.z; i < zmax; i++ {
				frame.Data[i*nch+c] = 0
			}
		}

		frame.Data = frame.Data[:zmax*nch]
		if err := w.enc.Write(frame); err != nil {
			return fmt.Errorf("wavio: encode: %w", err)
		}
		frame.Data = frame.Data[:w.n*nch]
	}

	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("wavio: close: %w", err)
	}
	return w.file.Close()
}
