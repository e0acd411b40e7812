// SPDX-License-Identifier: MIT

package playlist

import (
	"errors"
	"fmt"
	"strings"

	"github.com/grafov/m3u8"
)

// ErrNotPlaylist is returned by Validate for input that is not HLS.
var ErrNotPlaylist = errors.New("not an HLS playlist")

// Kind is the playlist flavour found by Validate.
type Kind string

const (
	KindMaster Kind = "master"
	KindMedia  Kind = "media"
)

// Validate decodes text as an HLS playlist. It runs before Rewrite so a
// backend returning an error page is never handed to a player.
func Validate(text string) (Kind, error) {
	if !strings.HasPrefix(strings.TrimPrefix(text, "\ufeff"), "#EXTM3U") {
		return "", fmt.Errorf("%w: missing #EXTM3U header", ErrNotPlaylist)
	}
	_, listType, err := m3u8.DecodeFrom(strings.NewReader(text), true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotPlaylist, err)
	}
	switch listType {
	case m3u8.MASTER:
		return KindMaster, nil
	case m3u8.MEDIA:
		return KindMedia, nil
	}
	return "", fmt.Errorf("%w: unknown playlist type", ErrNotPlaylist)
}
