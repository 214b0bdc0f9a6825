package qobuz

import (
	"fmt"
	"regexp"
	"strings"

	"qobuz-relay/internal/shared"
)

// Kind is the catalog item a Qobuz link points at.
type Kind string

const (
	KindAlbum    Kind = "album"
	KindArtist   Kind = "artist"
	KindTrack    Kind = "track"
	KindPlaylist Kind = "playlist"
	KindLabel    Kind = "label"
)

// Matches www/open/play links with an optional locale and any number of slug
// segments before the id, e.g.
// https://www.qobuz.com/fr-fr/album/some-title/0060254735180,
// https://www.qobuz.com/fr-fr/label/warp-records/download-streaming-albums/1240 or
// https://open.qobuz.com/track/23415876.
var urlPattern = regexp.MustCompile(
	`^(?:https?://(?:www|open|play)\.qobuz\.com)?(?:/[a-z]{2}-[a-z]{2})?/(album|artist|track|playlist|label)(?:/[-\w]+)*/(\w+)/?(?:[?#].*)?$`)

// interpreter links use /interpreter/{slug}/{id} for artists
var interpreterPattern = regexp.MustCompile(
	`^(?:https?://www\.qobuz\.com)?(?:/[a-z]{2}-[a-z]{2})?/interpreter/[-\w]+/(\w+)/?(?:[?#].*)?$`)

// ParseURL extracts the item kind and id from a Qobuz link.
func ParseURL(rawURL string) (Kind, string, error) {
	u := strings.TrimSpace(rawURL)
	if m := urlPattern.FindStringSubmatch(u); m != nil {
		return Kind(m[1]), m[2], nil
	}
	if m := interpreterPattern.FindStringSubmatch(u); m != nil {
		return KindArtist, m[1], nil
	}
	return "", "", fmt.Errorf("%q: %w", rawURL, shared.ErrUnsupportedURL)
}

// IsQobuzURL reports whether s looks like a link ParseURL accepts.
func IsQobuzURL(s string) bool {
	_, _, err := ParseURL(s)
	return err == nil
}
