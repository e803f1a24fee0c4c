package subtitle

import (
	"encoding/json"
	"strings"

	"ytscript/internal/media"
)

// json3 is the caption payload served with fmt=json3.
type json3 struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// zeroWidth strips characters that render as nothing but break word matching.
var zeroWidth = strings.NewReplacer(
	"\u200b", "", // zero width space
	"\u200c", "", // zero width non-joiner
	"\u200d", "", // zero width joiner
	"\u2060", "", // word joiner
	"\ufeff", "", // byte order mark
)

// ParseJSON3 validates a json3 caption payload and flattens it into normalized text.
// Events without segments are skipped. An empty body, an empty event list, or a
// payload where no event has segments or whose segments normalize to nothing is
// reported as empty content; a body that is not JSON is reported as a parse error.
func ParseJSON3(body []byte) (string, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", media.NewError(media.KindEmptyContent, "empty caption response", nil)
	}

	var payload json3
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", media.NewError(media.KindParse, "decoding caption payload", err)
	}
	if len(payload.Events) == 0 {
		return "", media.NewError(media.KindEmptyContent, "caption payload has no events", nil)
	}

	parts := make([]string, 0, len(payload.Events))
	for _, ev := range payload.Events {
		if len(ev.Segs) == 0 {
			continue
		}
		segs := make([]string, 0, len(ev.Segs))
		for _, seg := range ev.Segs {
			segs = append(segs, seg.UTF8)
		}
		parts = append(parts, strings.Join(segs, " "))
	}
	if len(parts) == 0 {
		return "", media.NewError(media.KindEmptyContent, "caption payload has no segments", nil)
	}

	text := Normalize(strings.Join(parts, " "))
	if text == "" {
		return "", media.NewError(media.KindEmptyContent, "caption payload has no text", nil)
	}
	return text, nil
}

// Normalize strips zero-width characters and collapses whitespace runs to single spaces.
// It is idempotent.
func Normalize(s string) string {
	return strings.Join(strings.Fields(zeroWidth.Replace(s)), " ")
}
