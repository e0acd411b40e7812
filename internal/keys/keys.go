// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package keys derives the opaque keyMaterial handed out with stream tokens.
// The delivery path never interprets the value; it is passed to the player.
package keys

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// MaterialBytes is the length of derived key material before encoding.
const MaterialBytes = 32

// Deriver produces key material bound to a token subject and nonce.
type Deriver interface {
	Derive(subject string, nonce []byte) (string, error)
}

// HKDF derives key material with HKDF-SHA256 from a master secret.
// The nonce is the salt and the subject is the info string.
type HKDF struct {
	master []byte
}

// NewHKDF copies master into a new deriver.
func NewHKDF(master []byte) (*HKDF, error) {
	if len(master) == 0 {
		return nil, errors.New("keys: empty master secret")
	}
	return &HKDF{master: append([]byte(nil), master...)}, nil
}

// Derive implements Deriver. The result is unpadded base64url.
func (h *HKDF) Derive(subject string, nonce []byte) (string, error) {
	r := hkdf.New(sha256.New, h.master, nonce, []byte("trackgate/v1/"+subject))
	out := make([]byte, MaterialBytes)
	if _, err := io.ReadFull(r, out); err != nil {
		return "", fmt.Errorf("keys: derive: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(out), nil
}
