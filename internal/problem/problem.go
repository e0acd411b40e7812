// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package problem writes RFC 7807 problem details responses.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/trackgate/internal/log"
)

const (
	// HeaderRequestID carries the correlation id on every response.
	HeaderRequestID = "X-Request-ID"
	// JSONKeyRequestID is the body field mirroring HeaderRequestID.
	JSONKeyRequestID = "requestId"
	// ContentType is the media type of problem responses.
	ContentType = "application/problem+json"
)

// Problem types. They are stable identifiers; titles may change.
const (
	TypeUnauthorized     = "auth/unauthorized"
	TypeForbidden        = "auth/forbidden"
	TypeNotFound         = "delivery/not_found"
	TypeRange            = "delivery/range_not_satisfiable"
	TypeBadRequest       = "request/invalid"
	TypeTooLarge         = "request/too_large"
	TypeUnavailable      = "system/unavailable"
	TypeInternal         = "system/internal"
	TypeMethodNotAllowed = "request/method_not_allowed"
)

// Write writes an RFC 7807 problem details response.
//
//   - problemType: machine identifier, e.g. "delivery/not_found".
//   - title: short human label.
//   - code: stable upper-case code.
//   - detail: optional explanation; never carries token failure reasons.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	instance := ""
	reqID := ""
	if r != nil {
		instance = r.URL.EscapedPath()
		reqID = log.RequestIDFromContext(r.Context())
	} else {
		log.L().Error().Str("type", problemType).Int(log.FieldStatus, status).Msg("problem.Write called with nil request")
	}
	if reqID == "" {
		reqID = w.Header().Get(HeaderRequestID)
	}

	res := map[string]any{
		"type":   problemType,
		"title":  title,
		"status": status,
		"code":   code,
	}
	if reqID != "" {
		res[JSONKeyRequestID] = reqID
		w.Header().Set(HeaderRequestID, reqID)
	}
	if detail != "" {
		res["detail"] = detail
	}
	if instance != "" {
		res["instance"] = instance
	}

	for k, v := range extra {
		switch k {
		case "type", "title", "status", "detail", "instance", "code", JSONKeyRequestID:
			log.L().Warn().Str("key", k).Str("problem_type", problemType).Msg("ignoring reserved key in problem extras")
			continue
		}
		res[k] = v
	}

	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.L().Error().
			Err(err).
			Str("type", problemType).
			Int(log.FieldStatus, status).
			Msg("failed to encode problem response")
	}
}

// Unauthorized writes the generic 401 used for every token and credential failure.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusUnauthorized, TypeUnauthorized, "Unauthorized", "UNAUTHORIZED", "", nil)
}

// Forbidden writes a generic 403.
func Forbidden(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusForbidden, TypeForbidden, "Forbidden", "FORBIDDEN", "", nil)
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Write(w, r, http.StatusNotFound, TypeNotFound, "Not Found", "NOT_FOUND", detail, nil)
}

// BadRequest writes a 400 with detail.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	Write(w, r, http.StatusBadRequest, TypeBadRequest, "Bad Request", "INVALID_INPUT", detail, nil)
}

// Internal writes a 500 without leaking the cause.
func Internal(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusInternalServerError, TypeInternal, "Internal Server Error", "INTERNAL_ERROR", "", nil)
}
