// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package obfuscate XORs the legacy raw stream against a repeating key.
//
// This defeats passive content-type sniffing and naive "save as" tooling.
// It is not encryption: the key ships inside the binary and inside the
// player that undoes it.
package obfuscate

import (
	"errors"
	"fmt"
)

// DefaultKey is the keystream shared with the player.
var DefaultKey = []byte{
	0x5a, 0x13, 0xc7, 0x8e, 0x21, 0xf4, 0x6b, 0x90,
	0x3d, 0xa2, 0x57, 0x1c, 0xe9, 0x84, 0x0f, 0x76,
	0xb1, 0x48, 0xdd, 0x2a, 0x93, 0x65, 0xfe, 0x07,
	0xc3, 0x3a, 0x81, 0x5f, 0x16, 0xec, 0x79, 0xa4,
}

// ErrEmptyKey is returned by New for a zero-length key.
var ErrEmptyKey = errors.New("obfuscation key must not be empty")

// Obfuscator applies the repeating-key XOR. It holds no mutable state and is
// safe for concurrent use.
type Obfuscator struct {
	key []byte
}

// New copies key into a new Obfuscator.
func New(key []byte) (*Obfuscator, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return &Obfuscator{key: append([]byte(nil), key...)}, nil
}

// Default returns an Obfuscator using DefaultKey.
func Default() *Obfuscator {
	o, _ := New(DefaultKey)
	return o
}

// KeyLen returns the keystream period.
func (o *Obfuscator) KeyLen() int { return len(o.key) }

// Transform writes src XOR keystream into dst, starting at key offset 0.
// dst and src may be the same slice. Applying Transform twice restores src.
func (o *Obfuscator) Transform(dst, src []byte) error {
	if len(dst) < len(src) {
		return fmt.Errorf("obfuscate: dst too short (%d < %d)", len(dst), len(src))
	}
	o.xor(dst, src, 0)
	return nil
}

// TransformAt transforms buf in place as if it started at absolute stream
// offset, so a ranged response decodes the same way as the full stream.
func (o *Obfuscator) TransformAt(buf []byte, offset int64) {
	o.xor(buf, buf, offset)
}

func (o *Obfuscator) xor(dst, src []byte, offset int64) {
	n := int64(len(o.key))
	k := int(((offset % n) + n) % n)
	for i, b := range src {
		dst[i] = b ^ o.key[k]
		k++
		if k == len(o.key) {
			k = 0
		}
	}
}
