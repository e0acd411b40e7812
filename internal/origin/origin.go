// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package origin implements the anti-hotlinking check applied to segment,
// stream and HLS proxy requests.
//
// The check is substring containment, not an exact match: a request from
// "trackgate.example.evil.test" passes for host "trackgate.example". It is a
// deterrent against casual embedding only and must not be treated as a
// security boundary.
package origin

import (
	"net/http"
	"strings"
)

// Check reports whether a request carrying origin and referer may be served
// for host. Outside production every request passes.
func Check(origin, referer, host string, production bool) bool {
	if !production {
		return true
	}
	if host == "" {
		return false
	}
	return strings.Contains(origin, host) || strings.Contains(referer, host)
}

// Guard applies Check to HTTP requests.
type Guard struct {
	Production bool
}

// Allow checks r against its own Host header.
func (g Guard) Allow(r *http.Request) bool {
	return Check(r.Header.Get("Origin"), r.Header.Get("Referer"), r.Host, g.Production)
}
