// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/trackgate/internal/analyzer"
	"github.com/ManuGH/trackgate/internal/log"
	"github.com/ManuGH/trackgate/internal/metrics"
	"github.com/ManuGH/trackgate/internal/problem"
	"github.com/ManuGH/trackgate/internal/telemetry"
	"github.com/ManuGH/trackgate/internal/workpool"
)

// Spectrum is the body of an analysis response.
type Spectrum struct {
	FFTSize int   `json:"fftSize"`
	Bins    []int `json:"bins"`
}

type analyzeParams struct {
	fftSize  int
	format   analyzer.Format
	channels int
}

func (s *Server) parseAnalyzeParams(r *http.Request) (analyzeParams, error) {
	q := r.URL.Query()
	p := analyzeParams{fftSize: s.cfg.Analyzer.FFTSize, channels: 1}

	if v := q.Get("fftSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("fftSize: %w", err)
		}
		p.fftSize = n
	}
	if !analyzer.ValidFFTSize(p.fftSize) {
		return p, fmt.Errorf("fftSize must be a power of two in [%d, %d]", analyzer.MinFFTSize, analyzer.MaxFFTSize)
	}

	format, err := analyzer.ParseFormat(q.Get("format"))
	if err != nil {
		return p, err
	}
	p.format = format

	if v := q.Get("channels"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("channels: %w", err)
		}
		p.channels = n
	}
	if p.channels < 1 || p.channels > analyzer.MaxChannels {
		return p, fmt.Errorf("channels must be in [1, %d]", analyzer.MaxChannels)
	}
	return p, nil
}

// handleAnalyze computes byte frequency data for a block of raw PCM. Short
// or silent input yields low bins rather than an error.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r, "analyzer")

	params, err := s.parseAnalyzeParams(r)
	if err != nil {
		problem.BadRequest(w, r, err.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeTooLarge, "Payload Too Large", "BODY_TOO_LARGE",
				fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit), nil)
			return
		}
		problem.BadRequest(w, r, "unreadable body")
		return
	}

	samples, err := analyzer.DecodePCM(body, params.format, params.channels)
	if err != nil {
		problem.BadRequest(w, r, err.Error())
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(
		telemetry.AnalyzerAttributes(params.fftSize, len(samples), params.channels)...,
	)

	opts := s.cfg.Analyzer
	opts.FFTSize = params.fftSize
	bins, err := workpool.Run(r.Context(), s.deps.CPUPool, func(context.Context) ([]byte, error) {
		start := time.Now()
		a, err := analyzer.New(opts)
		if err != nil {
			return nil, err
		}
		out := make([]byte, a.BinCount())
		a.ByteFrequencyData(samples, out)
		metrics.ObserveAnalyzer(strconv.Itoa(params.fftSize), time.Since(start))
		return out, nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUnavailable, "Service Unavailable", "UNAVAILABLE", "", nil)
			return
		}
		logger.Error().Err(err).Str(log.FieldEvent, "analyzer.failed").Msg("analysis failed")
		problem.BadRequest(w, r, err.Error())
		return
	}

	out := Spectrum{FFTSize: params.fftSize, Bins: make([]int, len(bins))}
	for i, b := range bins {
		out.Bins[i] = int(b)
	}
	writeJSON(w, http.StatusOK, out)
}
