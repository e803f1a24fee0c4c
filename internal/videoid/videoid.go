// Package videoid recognizes video references and extracts canonical identifiers.
package videoid

import (
	"fmt"
	"regexp"
	"strings"

	"ytscript/internal/media"
)

var (
	// referencePattern matches a scheme-optional reference to a known host followed by any path.
	referencePattern = regexp.MustCompile(`(?i)^(?:https?://)?(?:(?:www|m|music)\.)?(?:youtube\.com|youtube-nocookie\.com|youtu\.be)(?:[/?#].*)?$`)

	// idPattern captures the identifier segment from the positional and query forms
	// (short link, v= parameter, embed/v/shorts/live paths, legacy /u/x/ paths).
	// Hosts match case-insensitively; the identifier itself is case-sensitive.
	idPattern = regexp.MustCompile(`(?:(?i:youtu\.be)/|/v/|/u/\w/|/embed/|/shorts/|/live/|[?&]v=)([^#&?/\s]*)`)

	// bareIDPattern matches an identifier supplied on its own.
	bareIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// WatchURL returns the canonical watch page URL for id.
func WatchURL(id media.VideoID) string {
	return "https://www.youtube.com/watch?v=" + string(id)
}

// IsReference reports whether s has the shape of a video URL on a known host.
func IsReference(s string) bool {
	return referencePattern.MatchString(strings.TrimSpace(s))
}

// Extract returns the identifier referenced by s.
// The captured segment must be exactly 11 characters from the identifier alphabet;
// the pattern match alone is not enough.
func Extract(s string) (media.VideoID, bool) {
	s = strings.TrimSpace(s)
	if bareIDPattern.MatchString(s) {
		return media.VideoID(s), true
	}
	if !IsReference(s) {
		return "", false
	}

	m := idPattern.FindStringSubmatch(s)
	if len(m) < 2 || !bareIDPattern.MatchString(m[1]) {
		return "", false
	}
	return media.VideoID(m[1]), true
}

// Resolve validates a reference and returns its identifier, or a classified error:
// InvalidReference when the shape is unrecognized, IdentifierNotFound when the
// shape matched but no 11-character identifier could be captured.
func Resolve(reference string) (media.VideoID, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return "", media.NewError(media.KindInvalidReference, "invalid reference: empty", nil)
	}

	if id, ok := Extract(ref); ok {
		return id, nil
	}

	if !IsReference(ref) {
		return "", media.NewError(media.KindInvalidReference, fmt.Sprintf("invalid reference: %q", ref), nil)
	}
	return "", media.NewError(media.KindIdentifierNotFound, fmt.Sprintf("id not found in %q", ref), nil)
}
