// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package token

import (
	"errors"
	"fmt"
)

// Reason classifies a verification failure. Reasons are for server-side logs;
// HTTP callers must collapse all of them into one generic response.
type Reason string

const (
	ReasonMalformed        Reason = "MalformedToken"
	ReasonInvalidSignature Reason = "InvalidSignature"
	ReasonExpired          Reason = "ExpiredToken"
	ReasonSubjectMismatch  Reason = "SubjectMismatch"
)

var (
	ErrMalformed        = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrSubjectMismatch  = errors.New("token subject mismatch")
)

// VerifyError is returned by Authority.Verify for every rejected token.
type VerifyError struct {
	Reason Reason
	err    error
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("token rejected (%s): %v", e.Reason, e.err)
}

func (e *VerifyError) Unwrap() error { return e.err }

func reject(reason Reason, sentinel error, detail string) *VerifyError {
	err := sentinel
	if detail != "" {
		err = fmt.Errorf("%w: %s", sentinel, detail)
	}
	return &VerifyError{Reason: reason, err: err}
}

// ReasonOf extracts the failure reason from err, or "" if err is not a VerifyError.
func ReasonOf(err error) Reason {
	var ve *VerifyError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}
