package ssrc_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ssrc "github.com/tphakala/go-ssrc"
)

func TestSoxrQuality_Recipes(t *testing.T) {
	tests := []struct {
		recipe int
		want   ssrc.SoxrQualitySpec
	}{
		{ssrc.SoxrQQ, ssrc.SoxrQualitySpec{Log2DFTFilterLen: 10, Attenuation: 96, Guard: 1}},
		{ssrc.SoxrLQ, ssrc.SoxrQualitySpec{Log2DFTFilterLen: 12, Attenuation: 96, Guard: 1}},
		{ssrc.SoxrMQ, ssrc.SoxrQualitySpec{Log2DFTFilterLen: 14, Attenuation: 145, Guard: 2}},
		{ssrc.SoxrHQ, ssrc.SoxrQualitySpec{Log2DFTFilterLen: 15, Attenuation: 145, Guard: 4, DoublePrecision: true}},
		{ssrc.SoxrVHQ, ssrc.SoxrQualitySpec{Log2DFTFilterLen: 16, Attenuation: 170, Guard: 4, DoublePrecision: true}},
	}
	for _, tt := range tests {
		got, err := ssrc.SoxrQuality(tt.recipe)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ssrc.SoxrQuality(99)
	assert.Error(t, err)
}

func TestSoxr_CreateValidation(t *testing.T) {
	_, err := ssrc.NewSoxr(44100.5, 48000, 1, nil)
	assert.ErrorIs(t, err, ssrc.ErrUnsupportedRatio)

	_, err = ssrc.NewSoxr(44100, 48000, 0, nil)
	assert.Error(t, err)
}

func TestSoxr_ProcessAndDrain(t *testing.T) {
	q, err := ssrc.SoxrQuality(ssrc.SoxrQQ)
	require.NoError(t, err)

	s, err := ssrc.NewSoxr(44100, 48000, 2, &q)
	require.NoError(t, err)
	defer s.Delete()

	assert.Greater(t, s.Delay(), 0.0)

	const frames = 20000
	in := make([]float32, frames*2)
	for i := range frames {
		v := float32(0.5 * math.Sin(float64(i)*0.01))
		in[i*2] = v
		in[i*2+1] = -v
	}

	out := make([]float32, 4*frames*2)
	total := 0

	idone, odone, err := s.Process(in, out)
	require.NoError(t, err)
	assert.Equal(t, frames, idone)
	total += odone

	for {
		_, odone, err = s.Process(nil, out)
		require.NoError(t, err)
		if odone == 0 {
			break
		}
		total += odone
	}

	// 20000 frames at 44.1k resample to ~21769 at 48k, plus the filter
	// flush.
	want := frames * 48000 / 44100
	assert.GreaterOrEqual(t, total, want)
	assert.Less(t, total, want+4096)
}

func TestSoxr_ClearResetsStream(t *testing.T) {
	s, err := ssrc.NewSoxr(48000, 96000, 1, nil)
	require.NoError(t, err)
	defer s.Delete()

	in := make([]float32, 1000)
	out := make([]float32, 65536)
	_, _, err = s.Process(in, out)
	require.NoError(t, err)

	require.NoError(t, s.Clear())

	// The rebuilt graph accepts a fresh stream.
	_, _, err = s.Process(in, out)
	assert.NoError(t, err)
}

func TestSoxr_DeleteInvalidatesHandle(t *testing.T) {
	s, err := ssrc.NewSoxr(44100, 48000, 1, nil)
	require.NoError(t, err)

	s.Delete()
	assert.Panics(t, func() { s.Delay() })
	assert.Panics(t, func() { s.Delete() })
}
