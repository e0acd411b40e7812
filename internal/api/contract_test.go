// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/stretchr/testify/require"
)

const openapiPath = "../../api/openapi.yaml"

var (
	openapiOnce sync.Once
	openapiDoc  *openapi3.T
	openapiErr  error
)

func loadOpenAPIDoc(t *testing.T) *openapi3.T {
	t.Helper()
	openapiOnce.Do(func() {
		doc, err := openapi3.NewLoader().LoadFromFile(openapiPath)
		if err != nil {
			openapiErr = err
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			openapiErr = err
			return
		}
		openapiDoc = doc
	})
	if openapiErr != nil {
		t.Fatalf("openapi load failed: %v", openapiErr)
	}
	return openapiDoc
}

func validateOpenAPIResponse(t *testing.T, doc *openapi3.T, req *http.Request, rr *httptest.ResponseRecorder) {
	t.Helper()
	router, err := legacy.NewRouter(doc)
	require.NoError(t, err, "openapi router init")

	route, pathParams, err := router.FindRoute(req)
	require.NoError(t, err, "openapi route lookup")

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: rr.Code,
		Header: rr.Header(),
	}
	input.SetBodyBytes(rr.Body.Bytes())

	require.NoError(t, openapi3filter.ValidateResponse(context.Background(), input), "openapi response validation")
}

func TestContract_JSONResponses(t *testing.T) {
	doc := loadOpenAPIDoc(t)
	f := newFixture(t, nil)

	cases := []struct {
		name string
		req  func() *http.Request
	}{
		{"health", func() *http.Request { return httptest.NewRequest(http.MethodGet, "/healthz", nil) }},
		{"manifest", func() *http.Request {
			return viewer(httptest.NewRequest(http.MethodGet, "/api/tracks/t1/manifest?lobby="+testLobby, nil), viewerToken)
		}},
		{"stream token", func() *http.Request {
			return viewer(httptest.NewRequest(http.MethodPost, "/api/tracks/t1/token?lobby="+testLobby, nil), viewerToken)
		}},
		{"preload token", func() *http.Request {
			return viewer(httptest.NewRequest(http.MethodPost, "/api/tracks/t1/preload?lobby="+testLobby, nil), viewerToken)
		}},
		{"legacy token", func() *http.Request {
			return viewer(httptest.NewRequest(http.MethodPost, "/api/tracks/t1/legacy-token?lobby="+testLobby, nil), viewerToken)
		}},
		{"analyze", func() *http.Request {
			return httptest.NewRequest(http.MethodPost, "/api/analyze?fftSize=256", bytes.NewReader(sineS16(440, 8000, 256, 0.5)))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(tc.req())
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			validateOpenAPIResponse(t, doc, tc.req(), rec)
		})
	}
}
