// SPDX-License-Identifier: MIT

package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestHTTPAttributes(t *testing.T) {
	m := attrMap(HTTPAttributes("GET", "/api/tracks/{trackID}/stream", "/api/tracks/t1/stream?", 206))
	assert.Equal(t, "GET", m[HTTPMethodKey].AsString())
	assert.Equal(t, "/api/tracks/{trackID}/stream", m[HTTPRouteKey].AsString())
	assert.Equal(t, int64(206), m[HTTPStatusCodeKey].AsInt64())
}

func TestRangeAttributes(t *testing.T) {
	m := attrMap(RangeAttributes("r1", 0, 65535, 100000))
	assert.Equal(t, "r1", m[ResourceIDKey].AsString())
	assert.Equal(t, int64(65535), m[RangeEndKey].AsInt64())
	assert.Equal(t, int64(100000), m[TotalSizeKey].AsInt64())
}

func TestSegmentAndAnalyzerAttributes(t *testing.T) {
	assert.Equal(t, int64(3), attrMap(SegmentAttributes("r1", 3))[SegmentIndexKey].AsInt64())
	m := attrMap(AnalyzerAttributes(2048, 4096, 2))
	assert.Equal(t, int64(2048), m[FFTSizeKey].AsInt64())
	assert.Equal(t, int64(2), m[ChannelsKey].AsInt64())
}

func TestErrorAttributes(t *testing.T) {
	assert.Nil(t, ErrorAttributes(nil, "x"))
	m := attrMap(ErrorAttributes(errors.New("boom"), "fetch"))
	assert.True(t, m[ErrorKey].AsBool())
	assert.Equal(t, "fetch", m[ErrorTypeKey].AsString())
}
