// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by spans across the delivery path.
// Token values and query strings are never recorded.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	ResourceIDKey   = "trackgate.resource_id"
	SegmentIndexKey = "trackgate.segment_index"
	RangeStartKey   = "trackgate.range_start"
	RangeEndKey     = "trackgate.range_end"
	TotalSizeKey    = "trackgate.total_size"
	BackendKey      = "trackgate.backend"

	FFTSizeKey  = "analyzer.fft_size"
	SamplesKey  = "analyzer.samples"
	ChannelsKey = "analyzer.channels"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// RangeAttributes describes a byte range served for a resource.
func RangeAttributes(resourceID string, start, end, total int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ResourceIDKey, resourceID),
		attribute.Int64(RangeStartKey, start),
		attribute.Int64(RangeEndKey, end),
		attribute.Int64(TotalSizeKey, total),
	}
}

// SegmentAttributes describes one planned segment.
func SegmentAttributes(resourceID string, index int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ResourceIDKey, resourceID),
		attribute.Int(SegmentIndexKey, index),
	}
}

// AnalyzerAttributes describes one analysis request.
func AnalyzerAttributes(fftSize, samples, channels int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(FFTSizeKey, fftSize),
		attribute.Int(SamplesKey, samples),
		attribute.Int(ChannelsKey, channels),
	}
}

// ErrorAttributes creates error span attributes.
func ErrorAttributes(err error, errorType string) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
