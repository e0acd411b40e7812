package httpx

import "net/http"

// Content types used on the delivery path.
const (
	ContentTypeHLSPlaylist = "application/vnd.apple.mpegurl"
	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeJSON        = "application/json"
)

// Segment metadata headers.
const (
	HeaderSegmentIndex = "X-Segment-Index"
	HeaderSegmentStart = "X-Segment-Start"
	HeaderSegmentEnd   = "X-Segment-End"
	HeaderTotalSize    = "X-Total-Size"
	HeaderRequestID    = "X-Request-ID"
)

// NoStore disables every cache between the daemon and the player.
func NoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}
