// SPDX-License-Identifier: MIT

// Package playlist routes HLS playlist URIs through the authenticated proxy.
package playlist

import (
	"net/url"
	"regexp"
	"strings"
)

// InitSegmentName is the fMP4 initialization segment written by the packager.
const InitSegmentName = "init.mp4"

// segmentNamePattern matches packager output. Indices beyond 999 do not
// match and pass through unrewritten.
var segmentNamePattern = regexp.MustCompile(`^segment_\d{3}\.(m4s|ts|aac)$`)

const mapTagPrefix = "#EXT-X-MAP:"

// IsSegmentName reports whether name is a file the proxy may serve.
func IsSegmentName(name string) bool {
	return name == InitSegmentName || segmentNamePattern.MatchString(name)
}

// ProxyURI returns the proxied location of a segment file.
func ProxyURI(resourceID, name, authQuery string) string {
	return "/proxy/" + url.PathEscape(resourceID) + "/segment/" + name + authQuery
}

// Rewrite replaces segment references in a playlist with proxy URIs carrying
// authQuery (for example "?token=..."). Line count, line endings and every
// line that is not a segment reference are preserved byte for byte.
func Rewrite(text, resourceID, authQuery string) string {
	lines := strings.Split(text, "\n")
	for i, raw := range lines {
		line, hadCR := strings.CutSuffix(raw, "\r")
		var out string
		switch {
		case strings.HasPrefix(line, mapTagPrefix):
			rewritten, ok := rewriteMapTag(line, resourceID, authQuery)
			if !ok {
				continue
			}
			out = rewritten
		case IsSegmentName(line):
			out = ProxyURI(resourceID, line, authQuery)
		default:
			continue
		}
		if hadCR {
			out += "\r"
		}
		lines[i] = out
	}
	return strings.Join(lines, "\n")
}

// rewriteMapTag rewrites the URI attribute of an EXT-X-MAP tag when it names
// a bare file. Absolute or path-qualified URIs are left alone.
func rewriteMapTag(line, resourceID, authQuery string) (string, bool) {
	const attr = `URI="`
	idx := strings.Index(line, attr)
	if idx < 0 {
		return "", false
	}
	valueStart := idx + len(attr)
	valueLen := strings.IndexByte(line[valueStart:], '"')
	if valueLen <= 0 {
		return "", false
	}
	name := line[valueStart : valueStart+valueLen]
	if strings.ContainsAny(name, "/:?#") {
		return "", false
	}
	return line[:valueStart] + ProxyURI(resourceID, name, authQuery) + line[valueStart+valueLen:], true
}
