// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package analyzer

import (
	"errors"
	"math"
	"math/bits"
)

// ErrFFTSize reports buffers that are empty, of unequal length, or not a
// power of two long.
var ErrFFTSize = errors.New("fft: buffers must have equal power-of-two length")

// FFT computes the forward discrete Fourier transform of (re, im) in place
// using iterative radix-2 Cooley-Tukey.
//
// Both slices are owned by the caller, must have the same power-of-two length,
// must not alias each other and must not be shared with a concurrent FFT call.
func FFT(re, im []float64) error {
	n := len(re)
	if n == 0 || n != len(im) || n&(n-1) != 0 {
		return ErrFFTSize
	}
	if n == 1 {
		return nil
	}

	shift := 64 - uint(bits.TrailingZeros(uint(n)))
	for i := 0; i < n; i++ {
		j := int(bits.Reverse64(uint64(i)) >> shift)
		if j > i {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		step := -2 * math.Pi / float64(size)
		for k := 0; k < half; k++ {
			wIm, wRe := math.Sincos(step * float64(k))
			for start := k; start < n; start += size {
				j := start + half
				tRe := wRe*re[j] - wIm*im[j]
				tIm := wRe*im[j] + wIm*re[j]
				re[j] = re[start] - tRe
				im[j] = im[start] - tIm
				re[start] += tRe
				im[start] += tIm
			}
		}
	}
	return nil
}
