// Package subtitle selects caption tracks and turns caption payloads into plain text.
package subtitle

import (
	"sort"

	"ytscript/internal/media"
)

// DefaultLanguage is preferred when the caller expresses no preference.
const DefaultLanguage = "en"

// SelectBest returns the best caption track, preferring English.
func SelectBest(tracks []media.CaptionTrack) (media.CaptionTrack, error) {
	return SelectBestFor(tracks, DefaultLanguage)
}

// SelectBestFor returns the best caption track for language.
// Tracks in language come first; within the same language class, human-authored
// tracks come before auto-generated ones. Ties keep their original order.
// The caller's slice is not modified.
func SelectBestFor(tracks []media.CaptionTrack, language string) (media.CaptionTrack, error) {
	if len(tracks) == 0 {
		return media.CaptionTrack{}, media.NewError(media.KindNoCaptions, "no captions available: video has no caption tracks", nil)
	}
	if language == "" {
		language = DefaultLanguage
	}

	sorted := make([]media.CaptionTrack, len(tracks))
	copy(sorted, tracks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rank(sorted[i], language) < rank(sorted[j], language)
	})
	return sorted[0], nil
}

// rank orders tracks: preferred language before others, human before asr.
func rank(t media.CaptionTrack, language string) int {
	r := 0
	if t.LanguageCode != language {
		r += 2
	}
	if t.AutoGenerated() {
		r++
	}
	return r
}
