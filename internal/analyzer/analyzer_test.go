// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq, rate float64, n int, amp float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = amp * float32(math.Sin(2*math.Pi*freq*float64(i)/rate))
	}
	return out
}

func argmaxBytes(b []byte) int {
	best := 0
	for i, v := range b {
		if v > b[best] {
			best = i
		}
	}
	return best
}

func TestByteFrequencyData_SinePeak(t *testing.T) {
	tests := []struct {
		freq float64
		rate float64
		size int
		amp  float32
	}{
		{freq: 1000, rate: 44100, size: 2048, amp: 1},
		{freq: 1000, rate: 44100, size: 2048, amp: 0.05},
		{freq: 440, rate: 48000, size: 4096, amp: 0.1},
		{freq: 5000, rate: 48000, size: 1024, amp: 0.05},
		{freq: 100, rate: 8000, size: 256, amp: 0.05},
	}
	for _, tt := range tests {
		a, err := New(Options{FFTSize: tt.size})
		require.NoError(t, err)
		out := make([]byte, a.BinCount())
		a.ByteFrequencyData(sine(tt.freq, tt.rate, 2*tt.size, tt.amp), out)

		want := int(math.Round(tt.freq * float64(tt.size) / tt.rate))
		got := argmaxBytes(out)
		assert.InDelta(t, want, got, 1, "f=%v r=%v N=%d amp=%v", tt.freq, tt.rate, tt.size, tt.amp)
		assert.NotZero(t, out[got])
	}
}

func TestFloatFrequencyData_SinePeak(t *testing.T) {
	a, err := New(Options{FFTSize: 2048})
	require.NoError(t, err)
	out := make([]float32, a.BinCount())
	a.FloatFrequencyData(sine(1000, 44100, 4096, 1), out)

	best := 0
	for i, v := range out {
		if v > out[best] {
			best = i
		}
	}
	assert.Equal(t, 46, best)
	assert.InDelta(t, -14.4, out[best], 1.0)
}

func TestByteFrequencyData_Silence(t *testing.T) {
	a, err := New(Options{FFTSize: 64})
	require.NoError(t, err)
	out := make([]byte, a.BinCount())
	for i := range out {
		out[i] = 0xAA
	}
	a.ByteFrequencyData(nil, out)
	assert.Equal(t, make([]byte, 32), out)

	a.ByteFrequencyData(make([]float32, 10), out)
	assert.Equal(t, make([]byte, 32), out)

	nan := []float32{float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1))}
	a.ByteFrequencyData(nan, out)
	assert.Equal(t, make([]byte, 32), out)
}

func TestByteFrequencyData_DstSizes(t *testing.T) {
	a, err := New(Options{FFTSize: 32})
	require.NoError(t, err)
	samples := sine(2000, 8000, 32, 0.5)

	short := make([]byte, 4)
	a.ByteFrequencyData(samples, short)

	long := make([]byte, 40)
	for i := range long {
		long[i] = 1
	}
	a.ByteFrequencyData(samples, long)
	assert.Equal(t, make([]byte, 24), long[16:])
	assert.Equal(t, short, long[:4])
}

func TestFloatFrequencyData_SilenceIsNegInf(t *testing.T) {
	a, err := New(Options{FFTSize: 32})
	require.NoError(t, err)
	out := make([]float32, 20)
	a.FloatFrequencyData(nil, out)
	for _, v := range out {
		assert.True(t, math.IsInf(float64(v), -1))
	}
}

func TestSmoothing_BlendsFrames(t *testing.T) {
	loud := sine(1000, 44100, 2048, 0.5)
	plain, err := New(Options{FFTSize: 2048})
	require.NoError(t, err)
	smooth, err := New(Options{FFTSize: 2048, Smoothing: 0.8})
	require.NoError(t, err)

	a := make([]float32, 1024)
	b := make([]float32, 1024)
	plain.FloatFrequencyData(loud, a)
	smooth.FloatFrequencyData(loud, b)
	// First frame from silence history: 0.2 of the magnitude, about -14 dB.
	assert.InDelta(t, float64(a[46])+20*math.Log10(0.2), float64(b[46]), 0.01)

	smooth.Reset()
	smooth.FloatFrequencyData(loud, b)
	assert.InDelta(t, float64(a[46])+20*math.Log10(0.2), float64(b[46]), 0.01)
}

func TestNew_Validation(t *testing.T) {
	a, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultFFTSize, a.FFTSize())

	for _, opts := range []Options{
		{FFTSize: 16},
		{FFTSize: 65536},
		{FFTSize: 1000},
		{FFTSize: 64, MinDecibels: -30, MaxDecibels: -100},
		{FFTSize: 64, Smoothing: 1.5},
		{FFTSize: 64, Smoothing: -0.1},
	} {
		_, err := New(opts)
		assert.Error(t, err, "%+v", opts)
	}
}

func TestValidFFTSize(t *testing.T) {
	assert.True(t, ValidFFTSize(32))
	assert.True(t, ValidFFTSize(32768))
	assert.False(t, ValidFFTSize(31))
	assert.False(t, ValidFFTSize(0))
}
