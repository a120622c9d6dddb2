// Command ssrc converts the sample rate of WAV/AIFF audio files.
//
// Usage:
//
//	ssrc -rate 48000 input.wav output.wav
//	ssrc -rate 96000 -profile high -bits 24 -dither 0 input.wav output.wav
//	ssrc -rate 96000 -genImpulse 44100,1,2048 impulse96k.wav
//
// Profiles trade filter length and attenuation against CPU cost; -bits
// selects the output quantization (negative for IEEE float), and -dither
// selects a noise shaper for the destination rate.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	ssrc "github.com/tphakala/go-ssrc"
	"github.com/tphakala/go-ssrc/wavio"
)

const (
	defaultProfile = "standard"
	defaultBits    = 16

	// Offset-binary parameters of 8-bit output.
	offset8Bit  = 0x80
	clipMax8Bit = 0xff

	// Generator amplitude, half full scale.
	generatorAmp = 0.5
)

type options struct {
	rate      int64
	att       float64
	bits      int64
	dither    int64
	pdf       int64
	peak      float64
	seed      uint64
	seedSet   bool
	mix       [][]float64
	profile   ssrc.Profile
	minPhase  bool
	partConv  uint
	mt        bool
	container string
	quiet     bool
	debug     bool

	srcPath, dstPath string

	genImpulse []int64   // fs, nch, period
	genSweep   []float64 // fs, nch, length, startfs, endfs
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		rate       = flag.Int64("rate", -1, "Destination sample rate in Hz")
		att        = flag.Float64("att", 0, "Attenuation of the output signal in dB")
		bits       = flag.Int64("bits", defaultBits, "Output quantization bit length; -32 writes IEEE float")
		dither     = flag.Int64("dither", -1, "Noise shaper id (0 = ATH based, 98 = triangular, -1 = off)")
		pdf        = flag.Int64("pdf", 0, "Dither probability distribution: 0 rectangular, 1 triangular")
		peak       = flag.Float64("peak", 1.0, "Dither noise amplitude")
		seed       = flag.Int64("seed", -1, "Dither RNG seed; -1 salts from the clock")
		mix        = flag.String("mixChannels", "", "Mix matrix, e.g. '0.5,0.5' stereo to mono or '1;1' mono to stereo")
		profile    = flag.String("profile", defaultProfile, "Conversion profile (or log2len,att,guard,{d|f})")
		minPhase   = flag.Bool("minPhase", false, "Use minimum phase filters")
		partConv   = flag.Uint("partConv", 0, "Partition the DFT filter to blocks of 2^n samples")
		st         = flag.Bool("st", false, "Disable multithreading")
		container  = flag.String("dstContainer", "", "Output container: riff or aiff")
		genImpulse = flag.String("genImpulse", "", "Generate an impulse: fs,nch,period")
		genSweep   = flag.String("genSweep", "", "Generate a sweep: fs,nch,length,startfs,endfs")
		quiet      = flag.Bool("quiet", false, "Suppress progress output")
		debug      = flag.Bool("debug", false, "Print pipeline parameters")
	)
	flag.Parse()

	prof, err := ssrc.LookupProfile(*profile)
	if err != nil {
		return err
	}

	o := options{
		rate: *rate, att: *att, bits: *bits, dither: *dither, pdf: *pdf, peak: *peak,
		profile: prof, minPhase: *minPhase, partConv: *partConv, mt: !*st,
		container: *container, quiet: *quiet, debug: *debug,
	}

	if *seed >= 0 {
		o.seed = uint64(*seed)
		o.seedSet = true
	} else {
		o.seed = uint64(time.Now().UnixNano())
	}

	if *mix != "" {
		o.mix, err = parseMixMatrix(*mix)
		if err != nil {
			return err
		}
	}
	if *genImpulse != "" {
		o.genImpulse, err = parseInts(*genImpulse, 3)
		if err != nil {
			return fmt.Errorf("-genImpulse expects fs,nch,period: %w", err)
		}
	}
	if *genSweep != "" {
		o.genSweep, err = parseFloats(*genSweep, 5)
		if err != nil {
			return fmt.Errorf("-genSweep expects fs,nch,length,startfs,endfs: %w", err)
		}
	}

	args := flag.Args()
	generating := o.genImpulse != nil || o.genSweep != nil
	switch {
	case generating && len(args) == 1:
		o.dstPath = args[0]
	case !generating && len(args) == 2:
		o.srcPath, o.dstPath = args[0], args[1]
	default:
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <source file> <destination file>\n\n", os.Args[0])
		flag.PrintDefaults()
		return fmt.Errorf("insufficient arguments")
	}

	if prof.DoublePrecision {
		return convert[float64](&o)
	}
	return convert[float32](&o)
}

// convert assembles and drives the pipeline at precision F.
func convert[F ssrc.Float](o *options) error {
	var origin ssrc.OutletProvider[F]

	switch {
	case o.genImpulse != nil:
		fs, nch, period := o.genImpulse[0], o.genImpulse[1], o.genImpulse[2]
		origin = ssrc.NewImpulseGenerator[F](
			ssrc.NewWavFormat(ssrc.FormatIEEEFloat, uint16(nch), uint32(fs), 32),
			generatorAmp, int(period), int(period)*2)
	case o.genSweep != nil:
		fs, nch, length := o.genSweep[0], o.genSweep[1], o.genSweep[2]
		origin = ssrc.NewSweepGenerator[F](
			ssrc.NewWavFormat(ssrc.FormatIEEEFloat, uint16(nch), uint32(fs), 32),
			o.genSweep[3], o.genSweep[4], generatorAmp, int(length))
	default:
		r, err := wavio.NewReader[F](o.srcPath, o.mt)
		if err != nil {
			return err
		}
		defer r.Close()
		origin = r
	}

	srcFormat := origin.Format()
	sfs := int64(srcFormat.SampleRate)
	dfs := o.rate
	if dfs < 0 {
		dfs = sfs
	}

	in := origin
	if o.mix != nil {
		mixer, err := ssrc.NewChannelMixer(origin, o.mix)
		if err != nil {
			return err
		}
		in = mixer
	}
	format := in.Format()
	dnch := int(format.Channels)

	dstContainer := ssrc.ContainerRIFF
	if strings.EqualFold(o.container, "aiff") {
		dstContainer = ssrc.ContainerAIFF
	}

	absBits := o.bits
	dstTag := ssrc.FormatPCM
	if o.bits < 0 {
		absBits = -o.bits
		dstTag = ssrc.FormatIEEEFloat
	}
	dstFormat := ssrc.NewWavFormat(dstTag, uint16(dnch), uint32(dfs), uint16(absBits))

	var shaper *ssrc.NoiseShaperCoef
	if o.dither >= 0 {
		shaper = ssrc.FindNoiseShaper(int32(dfs), int32(o.dither))
		if shaper == nil {
			return fmt.Errorf("%w: id %d at %d Hz", ssrc.ErrUnknownDither, o.dither, dfs)
		}
	}

	cfg := ssrc.Config{
		Log2DFTFilterLen: o.profile.Log2DFTFilterLen,
		Attenuation:      o.profile.Attenuation,
		Guard:            o.profile.Guard,
		Gain:             math.Pow(10, o.att/-20.0),
		MinimumPhase:     o.minPhase,
		Log2MinDFTLen:    o.partConv,
		Multithread:      o.mt,
	}

	var delay float64

	if shaper == nil || o.bits < 0 {
		tails := make([]ssrc.Outlet[F], dnch)
		for c := range tails {
			conv, err := ssrc.NewSSRC(in.Outlet(c), sfs, dfs, cfg)
			if err != nil {
				return err
			}
			delay = conv.Delay()
			tails[c] = conv
		}

		w, err := wavio.NewWriter(o.dstPath, dstFormat, dstContainer, tails, 0, o.mt)
		if err != nil {
			return err
		}
		if err := w.Execute(); err != nil {
			return err
		}
	} else {
		gain := float64(int64(1)<<(absBits-1)) - 1
		clipMin, clipMax := int32(-(int64(1) << (absBits - 1))), int32(int64(1)<<(absBits-1)-1)
		offset := int32(0)
		if absBits == 8 {
			offset, clipMin, clipMax = offset8Bit, 0, clipMax8Bit
		}

		tails := make([]ssrc.Outlet[int32], dnch)
		for c := range tails {
			conv, err := ssrc.NewSSRC(in.Outlet(c), sfs, dfs, cfg)
			if err != nil {
				return err
			}
			delay = conv.Delay()

			var noise ssrc.NoiseGenerator
			switch {
			case o.pdf != 1:
				noise = ssrc.NewRectangularNoise(-o.peak, o.peak, o.seed+uint64(c))
			case o.seedSet:
				noise = ssrc.NewTriangularNoise(o.peak, o.seed+uint64(c))
			default:
				noise = ssrc.NewTriangularNoiseTimeSalted(o.peak)
			}

			dither, err := ssrc.NewDither(conv, gain, offset, clipMin, clipMax, shaper, noise)
			if err != nil {
				return err
			}
			tails[c] = dither
		}

		w, err := wavio.NewWriter(o.dstPath, dstFormat, dstContainer, tails, 0, o.mt)
		if err != nil {
			return err
		}
		if err := w.Execute(); err != nil {
			return err
		}
	}

	if o.debug {
		fmt.Fprintf(os.Stderr, "profile: dftlen=%d aa=%g guard=%g double=%v\n",
			int64(1)<<o.profile.Log2DFTFilterLen, o.profile.Attenuation, o.profile.Guard, o.profile.DoublePrecision)
		fmt.Fprintf(os.Stderr, "delay: %g samples\n", delay)
	}
	if !o.quiet {
		fmt.Fprintf(os.Stderr, "%d Hz -> %d Hz, %d channel(s), %d bits\n", sfs, dfs, dnch, absBits)
	}

	return nil
}

// parseMixMatrix parses rows separated by ';' of comma-separated gains,
// e.g. "0.5,0.5" or "1;1".
func parseMixMatrix(s string) ([][]float64, error) {
	var matrix [][]float64
	cols := 0
	for _, rowStr := range strings.Split(s, ";") {
		var row []float64
		for _, f := range strings.Split(rowStr, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("mix matrix: %w", err)
			}
			row = append(row, v)
		}
		if cols == 0 {
			cols = len(row)
		}
		if len(row) != cols {
			return nil, fmt.Errorf("mix matrix: inconsistent column count")
		}
		matrix = append(matrix, row)
	}
	return matrix, nil
}

func parseInts(s string, n int) ([]int64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d values", n)
	}
	out := make([]int64, n)
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d values", n)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
