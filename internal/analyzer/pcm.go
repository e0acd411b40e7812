// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package analyzer

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Format is a raw PCM sample encoding.
type Format string

const (
	FormatS16LE Format = "s16le"
	FormatF32LE Format = "f32le"
)

// MaxChannels bounds the interleaved channel count accepted by DecodePCM.
const MaxChannels = 8

// ParseFormat maps a query value onto a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatS16LE, "":
		return FormatS16LE, nil
	case FormatF32LE:
		return FormatF32LE, nil
	}
	return "", fmt.Errorf("unsupported pcm format %q", s)
}

func (f Format) bytesPerSample() int {
	if f == FormatF32LE {
		return 4
	}
	return 2
}

// DecodePCM decodes interleaved little-endian PCM and downmixes it to mono
// samples in [-1, 1]. A trailing partial frame is dropped.
func DecodePCM(data []byte, format Format, channels int) ([]float32, error) {
	if format != FormatS16LE && format != FormatF32LE {
		return nil, fmt.Errorf("unsupported pcm format %q", format)
	}
	if channels < 1 || channels > MaxChannels {
		return nil, fmt.Errorf("channel count %d outside [1, %d]", channels, MaxChannels)
	}

	width := format.bytesPerSample()
	frameBytes := width * channels
	frames := len(data) / frameBytes
	out := make([]float32, frames)
	scale := 1 / float32(channels)

	for i := 0; i < frames; i++ {
		frame := data[i*frameBytes : (i+1)*frameBytes]
		var sum float32
		for c := 0; c < channels; c++ {
			b := frame[c*width:]
			if format == FormatS16LE {
				sum += float32(int16(binary.LittleEndian.Uint16(b))) / 32768
			} else {
				v := math.Float32frombits(binary.LittleEndian.Uint32(b))
				if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
					v = 0
				}
				sum += v
			}
		}
		out[i] = sum * scale
	}
	return out, nil
}
