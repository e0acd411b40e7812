package httpx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidRange = errors.New("invalid range")
	ErrMultiRange   = errors.New("multi-range not supported")
)

// Range represents a byte range [Start, End] (inclusive).
type Range struct {
	Start int64
	End   int64
}

// Len returns the number of bytes covered by r.
func (r Range) Len() int64 {
	return r.End - r.Start + 1
}

// ParseRange parses a "Range" header and returns a single Range.
// Multi-range requests are rejected with ErrMultiRange.
// size is the total size of the resource.
func ParseRange(header string, size int64) (Range, error) {
	if header == "" {
		return Range{}, ErrInvalidRange
	}

	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return Range{}, ErrInvalidRange
	}

	rangesStr := strings.TrimPrefix(header, prefix)
	if strings.Contains(rangesStr, ",") {
		return Range{}, ErrMultiRange
	}

	startStr, endStr, ok := strings.Cut(rangesStr, "-")
	if !ok {
		return Range{}, ErrInvalidRange
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	var r Range

	if startStr == "" {
		// Suffix range: bytes=-500 (last 500 bytes)
		if endStr == "" {
			return Range{}, ErrInvalidRange
		}
		i, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || i <= 0 || size == 0 {
			return Range{}, ErrInvalidRange
		}
		if i > size {
			i = size
		}
		r.Start = size - i
		r.End = size - 1
		return r, nil
	}

	i, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || i < 0 || i >= size {
		return Range{}, ErrInvalidRange
	}
	r.Start = i

	if endStr == "" {
		r.End = size - 1
		return r, nil
	}
	j, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil || j < r.Start {
		return Range{}, ErrInvalidRange
	}
	if j >= size {
		j = size - 1
	}
	r.End = j
	return r, nil
}

// ClampRange caps r to at most ceiling bytes starting at r.Start.
// This ceiling is an anti-bulk-download policy: clients must make many round trips.
func ClampRange(r Range, ceiling int64) Range {
	if ceiling > 0 && r.Len() > ceiling {
		r.End = r.Start + ceiling - 1
	}
	return r
}

// FormatContentRange formats the Content-Range header.
func FormatContentRange(r Range, size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// Format416ContentRange formats the Content-Range header for a 416 response.
func Format416ContentRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}
