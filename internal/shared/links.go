// Utilities for parsing open.spotify.com share links.
package shared

import (
	"fmt"
	"regexp"
)

var linkPatterns = map[string]*regexp.Regexp{
	"track":  regexp.MustCompile(`^https://open\.spotify\.com/track/([a-zA-Z0-9]+)`),
	"artist": regexp.MustCompile(`^https://open\.spotify\.com/artist/([a-zA-Z0-9]+)`),
	"album":  regexp.MustCompile(`^https://open\.spotify\.com/album/([a-zA-Z0-9]+)`),
}

// ExtractSpotifyID extracts the resource ID from an open.spotify.com share link.
//
// itemType is one of "track", "artist", or "album". Query strings after the ID
// (e.g. ?si=...) are ignored.
func ExtractSpotifyID(link, itemType string) (string, error) {
	pattern, ok := linkPatterns[itemType]
	if !ok {
		return "", fmt.Errorf("%w: unknown link type %q", ErrInvalidLink, itemType)
	}

	match := pattern.FindStringSubmatch(link)
	if match == nil {
		return "", fmt.Errorf("%w: %q is not a spotify %s link", ErrInvalidLink, link, itemType)
	}

	return match[1], nil
}
