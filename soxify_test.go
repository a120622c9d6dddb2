package ssrc_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	ssrc "github.com/tphakala/go-ssrc"
	"github.com/tphakala/go-ssrc/internal/testutil"
)

const (
	soxifyChannels = 2
	soxifyFrames   = 30000
	soxifyChunk    = 4096
)

func TestSoxifier_StateMachine(t *testing.T) {
	s := ssrc.NewSoxifier[float32](1)
	defer s.Close()

	// Flow/Drain/Stop before Start are illegal.
	_, _, err := s.Flow(nil, nil)
	assert.ErrorIs(t, err, ssrc.ErrBadState)
	_, err = s.Drain(nil)
	assert.ErrorIs(t, err, ssrc.ErrBadState)
	assert.ErrorIs(t, s.Stop(), ssrc.ErrBadState)

	// Start before Clamp is illegal.
	format := ssrc.NewWavFormat(ssrc.FormatIEEEFloat, 1, 48000, 32)
	assert.ErrorIs(t, s.Start(format), ssrc.ErrBadState)

	require.NoError(t, s.Clamp([]ssrc.Outlet[float32]{s.Outlet(0)}))
	assert.ErrorIs(t, s.Clamp([]ssrc.Outlet[float32]{s.Outlet(0)}), ssrc.ErrBadState)

	require.NoError(t, s.Start(format))
	assert.ErrorIs(t, s.Start(format), ssrc.ErrBadState)

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Stop(), ssrc.ErrBadState)
}

func TestSoxifier_OutletRangePanics(t *testing.T) {
	s := ssrc.NewSoxifier[float32](1)
	defer s.Close()
	assert.Panics(t, func() { s.Outlet(1) })
}

func TestSoxifier_RoundTripMatchesPullGraph(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Interleaved stereo pushed through Soxifier+SSRC must equal the
	// plain pull-graph conversion channel by channel.
	const (
		srcRate = 44100
		dstRate = 48000
	)

	chans := make([][]float64, soxifyChannels)
	for c := range chans {
		chans[c] = make([]float64, soxifyFrames)
		for i := range chans[c] {
			chans[c][i] = 0.5 * math.Sin(float64(i)*0.01*(float64(c)+1))
		}
	}

	cfg := ssrc.Profiles["fast"].Config()

	// Reference: direct pull conversion of each channel.
	want := make([][]float64, soxifyChannels)
	for c := range chans {
		conv, err := ssrc.NewSSRC[float64](&testutil.SliceOutlet[float64]{Data: chans[c]}, srcRate, dstRate, cfg)
		require.NoError(t, err)
		want[c] = testutil.Drain[float64](t, conv, soxifyChunk)
	}

	// Adapter: same graph, push/pull driven.
	s := ssrc.NewSoxifier[float64](soxifyChannels)
	defer s.Close()

	tails := make([]ssrc.Outlet[float64], soxifyChannels)
	for c := range tails {
		conv, err := ssrc.NewSSRC[float64](s.Outlet(c), srcRate, dstRate, cfg)
		require.NoError(t, err)
		tails[c] = conv
	}
	require.NoError(t, s.Clamp(tails))
	require.NoError(t, s.Start(ssrc.NewWavFormat(ssrc.FormatIEEEFloat, soxifyChannels, dstRate, 32)))

	var got []float64
	in := make([]float64, soxifyChunk*soxifyChannels)
	out := make([]float64, 4*soxifyChunk*soxifyChannels)

	for pos := 0; pos < soxifyFrames; pos += soxifyChunk {
		n := min(soxifyChunk, soxifyFrames-pos)
		for i := range n {
			for c := range soxifyChannels {
				in[i*soxifyChannels+c] = chans[c][pos+i]
			}
		}
		idone, odone, err := s.Flow(in[:n*soxifyChannels], out)
		require.NoError(t, err)
		require.Equal(t, n, idone)
		got = append(got, out[:odone*soxifyChannels]...)
	}

	for {
		n, err := s.Drain(out)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		got = append(got, out[:n*soxifyChannels]...)
	}

	frames := len(got) / soxifyChannels
	require.Equal(t, len(want[0]), frames)
	for c := range soxifyChannels {
		for i := range frames {
			require.InDelta(t, want[c][i], got[i*soxifyChannels+c], 1e-12,
				"channel %d frame %d", c, i)
		}
	}
}

func TestSoxifier_DrainOnEmptyStream(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := ssrc.NewSoxifier[float32](1)
	defer s.Close()

	cfg := ssrc.Profiles["lightning"].Config()
	conv, err := ssrc.NewSSRC[float32](s.Outlet(0), 48000, 96000, cfg)
	require.NoError(t, err)

	require.NoError(t, s.Clamp([]ssrc.Outlet[float32]{conv}))
	require.NoError(t, s.Start(ssrc.NewWavFormat(ssrc.FormatIEEEFloat, 1, 96000, 32)))

	out := make([]float32, 65536)
	total := 0
	for {
		n, err := s.Drain(out)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		total += n
	}

	// Only the filter flush appears; it is numerically silent.
	for i := range total {
		assert.InDelta(t, 0, float64(out[i]), 1e-9)
	}
}
