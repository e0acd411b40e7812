// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package analyzer computes browser-compatible frequency data from PCM.
//
// Output follows the AnalyserNode contract: the most recent FFTSize samples
// are Blackman-windowed, transformed, normalised by N, converted to decibels
// and mapped linearly from [MinDecibels, MaxDecibels] onto 0..255. Players
// that decode segments manually use it to drive the same visualiser they
// would feed from the native audio graph.
package analyzer

import (
	"fmt"
	"math"
)

const (
	MinFFTSize = 32
	MaxFFTSize = 32768

	DefaultFFTSize     = 2048
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
)

// Blackman coefficients.
const (
	blackmanA0 = 0.42
	blackmanA1 = 0.5
	blackmanA2 = 0.08
)

// Options configures an Analyzer. Zero decibel bounds select the defaults.
type Options struct {
	FFTSize     int
	MinDecibels float64
	MaxDecibels float64
	// Smoothing blends each frame with the previous one (0 disables).
	Smoothing float64
}

// Analyzer owns its scratch buffers and smoothing state. It is not safe for
// concurrent use; create one per goroutine.
type Analyzer struct {
	opts   Options
	window []float64
	re     []float64
	im     []float64
	mag    []float64
}

// ValidFFTSize reports whether n is a power of two in [MinFFTSize, MaxFFTSize].
func ValidFFTSize(n int) bool {
	return n >= MinFFTSize && n <= MaxFFTSize && n&(n-1) == 0
}

// New validates opts and allocates the analyzer's buffers.
func New(opts Options) (*Analyzer, error) {
	if opts.FFTSize == 0 {
		opts.FFTSize = DefaultFFTSize
	}
	if !ValidFFTSize(opts.FFTSize) {
		return nil, fmt.Errorf("analyzer: fft size %d must be a power of two in [%d, %d]", opts.FFTSize, MinFFTSize, MaxFFTSize)
	}
	if opts.MinDecibels == 0 && opts.MaxDecibels == 0 {
		opts.MinDecibels, opts.MaxDecibels = DefaultMinDecibels, DefaultMaxDecibels
	}
	if opts.MinDecibels >= opts.MaxDecibels {
		return nil, fmt.Errorf("analyzer: minDecibels %.1f must be below maxDecibels %.1f", opts.MinDecibels, opts.MaxDecibels)
	}
	if opts.Smoothing < 0 || opts.Smoothing > 1 || math.IsNaN(opts.Smoothing) {
		return nil, fmt.Errorf("analyzer: smoothing %.2f outside [0, 1]", opts.Smoothing)
	}

	n := opts.FFTSize
	a := &Analyzer{
		opts:   opts,
		window: make([]float64, n),
		re:     make([]float64, n),
		im:     make([]float64, n),
		mag:    make([]float64, n/2),
	}
	for i := range a.window {
		x := 2 * math.Pi * float64(i) / float64(n)
		a.window[i] = blackmanA0 - blackmanA1*math.Cos(x) + blackmanA2*math.Cos(2*x)
	}
	return a, nil
}

// FFTSize returns the transform length.
func (a *Analyzer) FFTSize() int { return a.opts.FFTSize }

// BinCount returns FFTSize/2.
func (a *Analyzer) BinCount() int { return a.opts.FFTSize / 2 }

// Reset clears the smoothing history.
func (a *Analyzer) Reset() {
	clear(a.mag)
}

// ByteFrequencyData fills dst with up to BinCount bytes computed from the
// tail of samples. Short input is zero-padded at the front; NaN and Inf
// samples count as silence.
func (a *Analyzer) ByteFrequencyData(samples []float32, dst []byte) {
	a.analyze(samples)
	span := a.opts.MaxDecibels - a.opts.MinDecibels
	n := min(len(dst), len(a.mag))
	for k := 0; k < n; k++ {
		db := toDecibels(a.mag[k])
		scaled := math.Floor(255 * (db - a.opts.MinDecibels) / span)
		switch {
		case math.IsNaN(scaled) || scaled < 0:
			dst[k] = 0
		case scaled > 255:
			dst[k] = 255
		default:
			dst[k] = byte(scaled)
		}
	}
	clear(dst[n:])
}

// FloatFrequencyData fills dst with up to BinCount decibel values. Silent
// bins are -Inf.
func (a *Analyzer) FloatFrequencyData(samples []float32, dst []float32) {
	a.analyze(samples)
	n := min(len(dst), len(a.mag))
	for k := 0; k < n; k++ {
		dst[k] = float32(toDecibels(a.mag[k]))
	}
	for k := n; k < len(dst); k++ {
		dst[k] = float32(math.Inf(-1))
	}
}

func (a *Analyzer) analyze(samples []float32) {
	n := a.opts.FFTSize
	if len(samples) > n {
		samples = samples[len(samples)-n:]
	}
	pad := n - len(samples)
	for i := 0; i < pad; i++ {
		a.re[i] = 0
	}
	for i, s := range samples {
		v := float64(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		a.re[pad+i] = v * a.window[pad+i]
	}
	clear(a.im)

	// Length is a validated power of two, FFT cannot fail here.
	_ = FFT(a.re, a.im)

	s := a.opts.Smoothing
	inv := 1 / float64(n)
	for k := range a.mag {
		m := math.Hypot(a.re[k], a.im[k]) * inv
		a.mag[k] = s*a.mag[k] + (1-s)*m
	}
}

func toDecibels(m float64) float64 {
	if m <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(m)
}
