package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	const size = 500000
	tests := []struct {
		name    string
		header  string
		want    Range
		wantErr error
	}{
		{name: "closed", header: "bytes=1000-1999", want: Range{1000, 1999}},
		{name: "open ended", header: "bytes=499000-", want: Range{499000, 499999}},
		{name: "suffix", header: "bytes=-500", want: Range{499500, 499999}},
		{name: "suffix larger than size", header: "bytes=-999999", want: Range{0, 499999}},
		{name: "end past size clamps", header: "bytes=10-999999", want: Range{10, 499999}},
		{name: "start at size", header: "bytes=500000-", wantErr: ErrInvalidRange},
		{name: "end before start", header: "bytes=20-10", wantErr: ErrInvalidRange},
		{name: "wrong unit", header: "items=0-1", wantErr: ErrInvalidRange},
		{name: "garbage", header: "bytes=a-b", wantErr: ErrInvalidRange},
		{name: "empty", header: "", wantErr: ErrInvalidRange},
		{name: "multi", header: "bytes=0-1,5-6", wantErr: ErrMultiRange},
		{name: "no dash", header: "bytes=100", wantErr: ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, size)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClampRange(t *testing.T) {
	assert.Equal(t, Range{1000, 1999}, ClampRange(Range{1000, 1999}, 65536))
	assert.Equal(t, Range{0, 65535}, ClampRange(Range{0, 499999}, 65536))
	assert.Equal(t, int64(65536), ClampRange(Range{7, 499999}, 65536).Len())
	assert.Equal(t, Range{0, 499999}, ClampRange(Range{0, 499999}, 0))
}

func TestFormatContentRange(t *testing.T) {
	assert.Equal(t, "bytes 1000-1999/500000", FormatContentRange(Range{1000, 1999}, 500000))
	assert.Equal(t, "bytes */500000", Format416ContentRange(500000))
}
