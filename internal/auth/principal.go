// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// Principal represents the authenticated identity of a viewer.
type Principal struct {
	// ID is the stable identifier used for lobby membership.
	// It is either the configured viewer id or a hash of the token.
	ID string

	// TenantID binds the viewer to one tenant. Empty means unbound.
	TenantID string
}

// Viewer is one configured viewer credential.
type Viewer struct {
	ID       string `yaml:"id"`
	Token    string `yaml:"token"`
	TenantID string `yaml:"tenantId"`
}

// NewPrincipal creates a Principal for a viewer.
func NewPrincipal(v Viewer) *Principal {
	id := v.ID
	if id == "" {
		// "t_" prefix to distinguish from configured ids
		hash := sha256.Sum256([]byte(v.Token))
		id = "t_" + hex.EncodeToString(hash[:])[:16]
	}
	return &Principal{ID: id, TenantID: v.TenantID}
}

// Registry authenticates requests against the configured viewers.
type Registry struct {
	viewers []Viewer
}

// NewRegistry copies viewers, skipping entries without a token.
func NewRegistry(viewers []Viewer) *Registry {
	r := &Registry{}
	for _, v := range viewers {
		if v.Token != "" {
			r.viewers = append(r.viewers, v)
		}
	}
	return r
}

// Len returns the number of usable viewer credentials.
func (r *Registry) Len() int { return len(r.viewers) }

// Authenticate returns the principal whose token the request carries.
// Every configured token is compared so timing does not reveal which matched.
func (r *Registry) Authenticate(req *http.Request) (*Principal, bool) {
	if req == nil {
		return nil, false
	}
	got := ExtractToken(req)
	if got == "" {
		return nil, false
	}
	var match *Viewer
	for i := range r.viewers {
		if AuthorizeToken(got, r.viewers[i].Token) && match == nil {
			match = &r.viewers[i]
		}
	}
	if match == nil {
		return nil, false
	}
	return NewPrincipal(*match), true
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
