// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package token issues and verifies short-lived, subject-bound HMAC tokens.
//
// Wire format: base64url(payload) "." base64url(HMAC-SHA256(secret, payload)),
// where payload is the compact JSON encoding of {sub, iat, nonce}.
// There is no revocation; validity is the signature plus the embedded timestamp.
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// MinSecretBytes is the shortest accepted signing secret.
	MinSecretBytes = 32
	// NonceBytes is the size of the random nonce embedded in every token.
	NonceBytes = 8
)

var encoding = base64.RawURLEncoding.Strict()

// Config is the immutable signing configuration of an Authority.
type Config struct {
	Secret []byte
}

// Claims is the decoded payload of a verified token.
type Claims struct {
	Subject  string    `json:"sub"`
	IssuedAt int64     `json:"iat"`
	Nonce    nonceJSON `json:"nonce"`
}

// IssuedTime returns the issue timestamp as time.Time.
func (c Claims) IssuedTime() time.Time {
	return time.UnixMilli(c.IssuedAt)
}

type nonceJSON []byte

func (n nonceJSON) MarshalJSON() ([]byte, error) {
	return json.Marshal(encoding.EncodeToString(n))
}

func (n *nonceJSON) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := encoding.DecodeString(s)
	if err != nil {
		return err
	}
	if len(raw) != NonceBytes {
		return fmt.Errorf("nonce must be %d bytes, got %d", NonceBytes, len(raw))
	}
	*n = raw
	return nil
}

// Issued is the result of Generate.
type Issued struct {
	Token    string
	Nonce    []byte
	IssuedAt time.Time
}

// Option customises an Authority.
type Option func(*Authority)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) { a.now = now }
}

// WithRandom overrides the nonce source.
func WithRandom(r io.Reader) Option {
	return func(a *Authority) { a.rand = r }
}

// Authority signs and verifies tokens. It is safe for concurrent use.
type Authority struct {
	secret []byte
	now    func() time.Time
	rand   io.Reader
}

// NewAuthority validates cfg and returns an Authority bound to a private copy of the secret.
func NewAuthority(cfg Config, opts ...Option) (*Authority, error) {
	if len(cfg.Secret) < MinSecretBytes {
		return nil, fmt.Errorf("token secret must be at least %d bytes, got %d", MinSecretBytes, len(cfg.Secret))
	}
	a := &Authority{
		secret: append([]byte(nil), cfg.Secret...),
		now:    time.Now,
		rand:   rand.Reader,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Generate mints a token bound to subject, issued now.
func (a *Authority) Generate(subject string) (Issued, error) {
	nonce := make([]byte, NonceBytes)
	if _, err := io.ReadFull(a.rand, nonce); err != nil {
		return Issued{}, fmt.Errorf("read nonce: %w", err)
	}
	now := a.now()
	payload, err := json.Marshal(Claims{
		Subject:  subject,
		IssuedAt: now.UnixMilli(),
		Nonce:    nonce,
	})
	if err != nil {
		return Issued{}, fmt.Errorf("encode payload: %w", err)
	}

	var b strings.Builder
	b.Grow(encoding.EncodedLen(len(payload)) + 1 + encoding.EncodedLen(sha256.Size))
	b.WriteString(encoding.EncodeToString(payload))
	b.WriteByte('.')
	b.WriteString(encoding.EncodeToString(a.sign(payload)))

	return Issued{Token: b.String(), Nonce: nonce, IssuedAt: time.UnixMilli(now.UnixMilli())}, nil
}

// Verify checks the signature, age and subject binding of tok.
// A token issued at T is valid through T+ttl inclusive.
// Every failure is a *VerifyError; use ReasonOf or errors.Is to classify it.
func (a *Authority) Verify(tok, expectedSubject string, ttl time.Duration) (Claims, error) {
	payloadPart, sigPart, ok := strings.Cut(tok, ".")
	if !ok || payloadPart == "" || sigPart == "" || strings.Contains(sigPart, ".") {
		return Claims{}, reject(ReasonMalformed, ErrMalformed, "expected payload.signature")
	}

	payload, err := encoding.DecodeString(payloadPart)
	if err != nil {
		return Claims{}, reject(ReasonMalformed, ErrMalformed, "payload encoding")
	}
	sig, err := encoding.DecodeString(sigPart)
	if err != nil {
		return Claims{}, reject(ReasonMalformed, ErrMalformed, "signature encoding")
	}

	if !hmac.Equal(sig, a.sign(payload)) {
		return Claims{}, reject(ReasonInvalidSignature, ErrInvalidSignature, "")
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, reject(ReasonMalformed, ErrMalformed, "payload json")
	}

	age := a.now().UnixMilli() - claims.IssuedAt
	if age > ttl.Milliseconds() {
		return Claims{}, reject(ReasonExpired, ErrExpired, fmt.Sprintf("age %dms > ttl %dms", age, ttl.Milliseconds()))
	}

	if claims.Subject != expectedSubject {
		return Claims{}, reject(ReasonSubjectMismatch, ErrSubjectMismatch, "")
	}

	return claims, nil
}

// Valid is a convenience wrapper reporting only whether Verify succeeded.
func (a *Authority) Valid(tok, expectedSubject string, ttl time.Duration) bool {
	_, err := a.Verify(tok, expectedSubject, ttl)
	return err == nil
}

func (a *Authority) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

// IsRejection reports whether err came from token verification.
func IsRejection(err error) bool {
	var ve *VerifyError
	return errors.As(err, &ve)
}
