// Package ssrc provides high-quality audio sample-rate conversion in
// pure Go.
//
// The package implements a pull-based streaming graph. Each node is a
// stage exposing one or more outlets; a consumer calls Read on an
// outlet, which blocks until samples are produced or end-of-stream is
// observed. Stages compose by reference: a downstream stage holds the
// outlets of its upstream stages.
//
// # Architecture
//
// The resampler converts between arbitrary integer rates through an
// implicit least-common-multiple rate grid:
//
//	Upsampling:   source -> polyphase FIR (src -> lcm -> oversampled dst) -> DFT low-pass -> keep every m-th
//	Downsampling: source -> zero-stuff to oversampled src -> DFT low-pass -> polyphase FIR (-> lcm -> dst)
//
// Both low-pass filters are designed with the Kaiser window method; the
// wide-band DFT filter runs as overlap-accumulated block convolution,
// optionally partitioned into log-staggered sub-filters so that only
// the smallest transform runs on every block (see Config.Log2MinDFTLen).
//
// On top of the resampler the package offers output quantization with
// noise-shaped dithering (Dither), matrix channel mixing (ChannelMixer),
// a push/pull adapter for streaming callers (Soxifier) and a
// libsoxr-shaped surface (Soxr).
//
// # Quality profiles
//
// Named conversion profiles trade filter length, stop-band attenuation
// and guard band against CPU cost:
//
//	p, _ := ssrc.LookupProfile("standard")
//	conv, err := ssrc.NewSSRC[float32](src, 44100, 48000, p.Config())
//
// # Precision
//
// The pipeline is generic over float32 and float64 samples; the dither
// sink emits int32. Use float32 for throughput, float64 for mastering
// work (the "long" and better profiles select it).
//
// # Thread safety
//
// An outlet is a single-consumer port. Stages that expose several
// outlets (ChannelMixer, the readers in package wavio) keep their
// channels frame-aligned internally and may be pulled from different
// goroutines. Multithreaded variants of the long filters fan work out
// onto a shared, lazily started worker pool sized to the machine.
package ssrc
