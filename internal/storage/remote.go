// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/idna"

	"github.com/ManuGH/trackgate/internal/fsutil"
	"github.com/ManuGH/trackgate/internal/httpx"
	"github.com/ManuGH/trackgate/internal/metrics"
)

const backendRemote = "remote"

// RemoteConfig configures the object-store backend.
type RemoteConfig struct {
	// BaseURL is the bucket URL; keys are appended as path segments.
	BaseURL string
	// Timeout bounds every backend round trip.
	Timeout time.Duration
	// Client overrides the instrumented default client (tests).
	Client *http.Client
}

// Remote reads resources from an HTTP object store that honours Range.
type Remote struct {
	base   *url.URL
	client *http.Client
}

// NewRemote validates cfg and returns a Remote fetcher.
func NewRemote(cfg RemoteConfig) (*Remote, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	client := cfg.Client
	if client == nil {
		client = httpx.NewInstrumentedClient(cfg.Timeout)
	}
	return &Remote{base: base, client: client}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid object store url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid object store url scheme %q", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("object store url has no host")
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return nil, fmt.Errorf("invalid object store host %q: %w", host, err)
	}
	if port := u.Port(); port != "" {
		u.Host = ascii + ":" + port
	} else {
		u.Host = ascii
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func (r *Remote) objectURL(key string) (string, error) {
	clean, err := fsutil.NormalizeKey(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	parts := strings.Split(clean, "/")
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	u := *r.base
	basePath := strings.TrimSuffix(u.Path, "/")
	baseRaw := strings.TrimSuffix(u.EscapedPath(), "/")
	u.Path = basePath + "/" + clean
	u.RawPath = baseRaw + "/" + strings.Join(escaped, "/")
	return u.String(), nil
}

// Info implements Fetcher using HEAD.
func (r *Remote) Info(ctx context.Context, key string) (info Info, err error) {
	start := time.Now()
	defer func() { metrics.ObserveFetch(backendRemote, "info", time.Since(start), IsFetchFailure(err)) }()

	target, err := r.objectURL(key)
	if err != nil {
		return Info{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return Info{}, &FetchError{Backend: backendRemote, Op: "info", Key: key, Err: err}
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return Info{}, &FetchError{Backend: backendRemote, Op: "info", Key: key, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	case resp.StatusCode != http.StatusOK:
		return Info{}, &FetchError{Backend: backendRemote, Op: "info", Key: key, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if resp.ContentLength < 0 {
		return Info{}, &FetchError{Backend: backendRemote, Op: "info", Key: key, Err: fmt.Errorf("missing Content-Length")}
	}
	return Info{Size: resp.ContentLength}, nil
}

// Range implements Fetcher using a single-range GET. The store must answer
// 206 with a Content-Range starting at start; the body length must match it.
func (r *Remote) Range(ctx context.Context, key string, start, end int64) (data []byte, err error) {
	began := time.Now()
	defer func() { metrics.ObserveFetch(backendRemote, "range", time.Since(began), IsFetchFailure(err)) }()

	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: bytes=%d-%d", ErrRangeUnsatisfiable, start, end)
	}
	target, err := r.objectURL(key)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Backend: backendRemote, Op: "range", Key: key, Err: err}
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &FetchError{Backend: backendRemote, Op: "range", Key: key, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusNotFound, http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	case http.StatusRequestedRangeNotSatisfiable:
		return nil, fmt.Errorf("%w: bytes=%d-%d", ErrRangeUnsatisfiable, start, end)
	default:
		return nil, &FetchError{Backend: backendRemote, Op: "range", Key: key, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	gotStart, gotEnd, err := parseContentRange(resp.Header.Get("Content-Range"))
	if err != nil || gotStart != start || gotEnd > end {
		return nil, &FetchError{Backend: backendRemote, Op: "range", Key: key,
			Err: fmt.Errorf("mismatched Content-Range %q for bytes=%d-%d", resp.Header.Get("Content-Range"), start, end)}
	}
	want := gotEnd - gotStart + 1
	buf := make([]byte, want)
	if _, err := io.ReadFull(resp.Body, buf); err != nil {
		return nil, &FetchError{Backend: backendRemote, Op: "read", Key: key, Err: err}
	}
	return buf, nil
}

// parseContentRange parses "bytes s-e/total" (total may be "*").
func parseContentRange(v string) (int64, int64, error) {
	rest, ok := strings.CutPrefix(v, "bytes ")
	if !ok {
		return 0, 0, fmt.Errorf("bad Content-Range %q", v)
	}
	span, _, ok := strings.Cut(rest, "/")
	if !ok {
		return 0, 0, fmt.Errorf("bad Content-Range %q", v)
	}
	s, e, ok := strings.Cut(span, "-")
	if !ok {
		return 0, 0, fmt.Errorf("bad Content-Range %q", v)
	}
	start, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	end, err := strconv.ParseInt(e, 10, 64)
	if err != nil || end < start {
		return 0, 0, fmt.Errorf("bad Content-Range %q", v)
	}
	return start, end, nil
}
