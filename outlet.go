package ssrc

// Float is the type constraint for the sample precisions the pipeline
// is generic over.
type Float interface {
	float32 | float64
}

// Outlet is a single-producer, single-consumer streaming port.
type Outlet[T any] interface {
	// AtEnd reports whether the next Read is certain to return 0.
	AtEnd() bool

	// Read fills p with up to len(p) samples and returns the count.
	// It returns 0 only at end-of-stream; otherwise it blocks until at
	// least one sample can be returned. A short read is allowed when
	// more data would require the upstream to block.
	Read(p []T) (int, error)
}

// OutletProvider is a stage with one outlet per channel.
type OutletProvider[T any] interface {
	// Outlet returns the port of the given channel. Channel indices out
	// of range are a programmer error and panic.
	Outlet(channel int) Outlet[T]

	// Format describes the stream.
	Format() WavFormat
}

// WAVE format tags.
const (
	FormatPCM        uint16 = 0x0001
	FormatIEEEFloat  uint16 = 0x0003
	FormatExtensible uint16 = 0xfffe
)

// Subformat GUIDs of the WAVE_FORMAT_EXTENSIBLE layout.
var (
	SubtypePCM = [16]byte{
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
		0x80, 0x00, 0x00, 0xaa, 0x00, 0x38, 0x9b, 0x71,
	}
	SubtypeIEEEFloat = [16]byte{
		0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
		0x80, 0x00, 0x00, 0xaa, 0x00, 0x38, 0x9b, 0x71,
	}
)

// WavFormat mirrors the WAVEFORMATEXTENSIBLE layout.
type WavFormat struct {
	FormatTag          uint16
	Channels           uint16
	SampleRate         uint32
	AvgBytesPerSec     uint32
	BlockAlign         uint16
	BitsPerSample      uint16
	ExtendedSize       uint16
	ValidBitsPerSample uint16
	ChannelMask        uint32
	SubFormat          [16]byte
}

// NewWavFormat builds a format with derived block alignment.
func NewWavFormat(formatTag, channels uint16, sampleRate uint32, bitsPerSample uint16) WavFormat {
	return WavFormat{
		FormatTag:     formatTag,
		Channels:      channels,
		SampleRate:    sampleRate,
		BlockAlign:    channels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
	}
}

// ContainerFormat identifies an audio file container.
type ContainerFormat uint16

// Recognized containers.
const (
	ContainerRIFF ContainerFormat = 0x1000 + iota
	ContainerRIFX
	ContainerW64
	ContainerRF64
	ContainerAIFF
)

func (c ContainerFormat) String() string {
	switch c {
	case ContainerRIFF:
		return "RIFF"
	case ContainerRIFX:
		return "RIFX"
	case ContainerW64:
		return "W64"
	case ContainerRF64:
		return "RF64"
	case ContainerAIFF:
		return "AIFF"
	default:
		return "N/A"
	}
}
