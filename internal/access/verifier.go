// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package access answers whether the caller of a request may play a track
// inside a lobby.
package access

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ManuGH/trackgate/internal/auth"
	"github.com/ManuGH/trackgate/internal/catalog"
)

var (
	// ErrUnauthenticated means the request carries no valid viewer credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the viewer is known but may not access the track.
	ErrForbidden = errors.New("forbidden")
)

// Catalog is the subset of the catalog store the verifier reads.
type Catalog interface {
	Lookup(ctx context.Context, trackID string) (catalog.Track, error)
	IsMember(ctx context.Context, lobbyID, principalID string) (bool, error)
}

// Authenticator resolves the viewer behind a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*auth.Principal, bool)
}

// Verdict is the outcome of an access decision.
type Verdict struct {
	Allowed     bool
	PrincipalID string
	TenantID    string
	Track       catalog.Track
}

// Verifier combines viewer authentication with catalog ownership.
type Verifier struct {
	authn   Authenticator
	catalog Catalog
}

// NewVerifier returns a Verifier.
func NewVerifier(authn Authenticator, c Catalog) *Verifier {
	return &Verifier{authn: authn, catalog: c}
}

// Verdict authenticates r and checks that trackID belongs to lobbyID, that
// the viewer is a member of that lobby and, for tenant-bound viewers, that
// the track belongs to the same tenant.
//
// A denied verdict is returned together with ErrUnauthenticated or
// ErrForbidden. Unknown tracks yield catalog.ErrTrackNotFound.
func (v *Verifier) Verdict(r *http.Request, trackID, lobbyID string) (Verdict, error) {
	p, ok := v.authn.Authenticate(r)
	if !ok {
		return Verdict{}, ErrUnauthenticated
	}
	verdict := Verdict{PrincipalID: p.ID, TenantID: p.TenantID}

	track, err := v.catalog.Lookup(r.Context(), trackID)
	if err != nil {
		return verdict, err
	}
	if lobbyID == "" || track.LobbyID != lobbyID {
		return verdict, fmt.Errorf("%w: track %s is not in lobby %q", ErrForbidden, trackID, lobbyID)
	}
	if p.TenantID != "" && track.TenantID != p.TenantID {
		return verdict, fmt.Errorf("%w: tenant mismatch", ErrForbidden)
	}
	member, err := v.catalog.IsMember(r.Context(), lobbyID, p.ID)
	if err != nil {
		return verdict, err
	}
	if !member {
		return verdict, fmt.Errorf("%w: %s is not a member of lobby %s", ErrForbidden, p.ID, lobbyID)
	}

	verdict.Allowed = true
	verdict.Track = track
	if verdict.TenantID == "" {
		verdict.TenantID = track.TenantID
	}
	return verdict, nil
}
