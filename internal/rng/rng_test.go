package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSeed    = 12345
	testDraws   = 10000
	testBound   = 1000
	testPeak    = 0.75
	chunkBits   = 16
	chunksPer64 = 4
)

func TestLCG64_Deterministic(t *testing.T) {
	a := NewSeeded(testSeed)
	b := NewSeeded(testSeed)

	for range testDraws {
		assert.Equal(t, a.Next64(), b.Next64())
	}
}

func TestLCG64_SeedChangesSequence(t *testing.T) {
	a := NewSeeded(testSeed)
	b := NewSeeded(testSeed + 1)

	same := 0
	for range 64 {
		if a.Next64() == b.Next64() {
			same++
		}
	}
	assert.Less(t, same, 4, "different seeds should diverge")
}

func TestRand_BitPoolMatchesWholeWords(t *testing.T) {
	// Drawing 4x16 bits must consume exactly one 64-bit word,
	// low bits first.
	a := NewSeeded(testSeed)
	b := NewSeeded(testSeed)

	u := a.Next64()
	var rebuilt uint64
	for i := range chunksPer64 {
		rebuilt |= b.Next(chunkBits) << (chunkBits * i)
	}
	assert.Equal(t, u, rebuilt)
}

func TestRand_NextRespectsWidth(t *testing.T) {
	r := NewSeeded(testSeed)
	for _, bits := range []uint32{1, 3, 7, 13, 31, 52, 63} {
		for range 100 {
			v := r.Next(bits)
			assert.Less(t, v, uint64(1)<<bits, "Next(%d) out of range", bits)
		}
	}
}

func TestRand_Float64Range(t *testing.T) {
	r := NewSeeded(testSeed)
	for range testDraws {
		v := r.Float64()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestRand_Uint64nBounds(t *testing.T) {
	r := NewSeeded(testSeed)
	for range testDraws {
		assert.Less(t, r.Uint64n(testBound), uint64(testBound))
	}
	assert.Equal(t, uint64(0), r.Uint64n(0))
	assert.Equal(t, uint64(0), r.Uint64n(1))
}

func TestRand_TriangularStaysWithinPeak(t *testing.T) {
	r := NewSeeded(testSeed)
	var sum float64
	for range testDraws {
		v := r.Triangular(testPeak)
		require.Greater(t, v, -testPeak)
		require.Less(t, v, testPeak)
		sum += v
	}
	// The distribution is symmetric around zero.
	assert.InDelta(t, 0, sum/testDraws, 0.02)
}

func TestRand_RectangularRange(t *testing.T) {
	r := NewSeeded(testSeed)
	for range testDraws {
		v := r.Rectangular(-testPeak, testPeak)
		require.GreaterOrEqual(t, v, -testPeak)
		require.Less(t, v, testPeak)
	}
}

func TestTLCG64_Advances(t *testing.T) {
	r := NewTimeSalted()
	a, b := r.Next64(), r.Next64()
	assert.NotEqual(t, a, b)
}
