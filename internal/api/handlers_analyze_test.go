// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineS16(freq, rate float64, n int, amp float64) []byte {
	buf := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/rate)
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(int16(math.Round(v*32767))))
	}
	return buf
}

func argmax(bins []int) int {
	best := 0
	for i, v := range bins {
		if v > bins[best] {
			best = i
		}
	}
	return best
}

func TestAnalyze_SinePeak(t *testing.T) {
	f := newFixture(t, nil)

	body := sineS16(1000, 44100, 2048, 0.05)
	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/analyze?fftSize=2048&format=s16le&channels=1", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var spec Spectrum
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	assert.Equal(t, 2048, spec.FFTSize)
	require.Len(t, spec.Bins, 1024)

	want := int(math.Round(1000 * 2048 / 44100.0))
	assert.InDelta(t, want, argmax(spec.Bins), 1)
}

func TestAnalyze_ShortInputIsNotAnError(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/analyze?fftSize=64", bytes.NewReader([]byte{0x01})))
	require.Equal(t, http.StatusOK, rec.Code)

	var spec Spectrum
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	require.Len(t, spec.Bins, 32)
	for _, b := range spec.Bins {
		assert.Zero(t, b)
	}
}

func TestAnalyze_BadParameters(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.MaxBodyBytes = 16 })

	for _, url := range []string{
		"/api/analyze?fftSize=1000",
		"/api/analyze?fftSize=16",
		"/api/analyze?fftSize=x",
		"/api/analyze?format=u8",
		"/api/analyze?channels=9",
		"/api/analyze?channels=0",
	} {
		rec := f.do(httptest.NewRequest(http.MethodPost, url, bytes.NewReader(nil)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, url)
	}

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(make([]byte, 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
