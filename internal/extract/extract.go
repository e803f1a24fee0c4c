// Package extract locates and parses JSON payloads embedded in watch page HTML.
//
// The payloads are assigned to global JavaScript variables inside <script>
// tags and have no stable contract. The boundary heuristic that decides where
// an assignment ends lives only in this package.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ytscript/internal/media"
)

// PlayerResponseVar is the global the watch page assigns the player response to.
const PlayerResponseVar = "ytInitialPlayerResponse"

// boundaryFormat captures an object literal assigned to a variable, ending at the
// first ";" followed by the next statement, a script close, a newline, or the end
// of the script body.
const boundaryFormat = `(?s)%s\s*=\s*(\{.+?\})\s*;\s*(?:var\s+meta|var\s+head|</script|\n|\z)`

var playerResponsePatterns = newPatterns(PlayerResponseVar)

type patterns struct {
	variable string
	boundary *regexp.Regexp
	assign   *regexp.Regexp
}

func newPatterns(variable string) *patterns {
	quoted := regexp.QuoteMeta(variable)
	return &patterns{
		variable: variable,
		boundary: regexp.MustCompile(fmt.Sprintf(boundaryFormat, quoted)),
		assign:   regexp.MustCompile(quoted + `\s*=\s*`),
	}
}

// JSON finds the object literal assigned to variable in html and returns it
// as raw JSON. It fails with a parse error when the assignment is missing or
// the captured text is not valid JSON.
func JSON(html, variable string) (json.RawMessage, error) {
	if variable == "" {
		return nil, media.NewError(media.KindParse, "no variable name given", nil)
	}
	p := playerResponsePatterns
	if variable != PlayerResponseVar {
		p = newPatterns(variable)
	}
	return p.find(html)
}

func (p *patterns) find(html string) (json.RawMessage, error) {
	if !strings.Contains(html, p.variable) {
		return nil, media.NewError(media.KindParse, fmt.Sprintf("marker %s not found in page", p.variable), nil)
	}

	// Prefer script bodies; fall back to the raw payload for pages that are not HTML.
	for _, src := range scriptBodies(html, p.variable) {
		if raw, ok := p.capture(src); ok {
			return raw, nil
		}
	}
	if raw, ok := p.capture(html); ok {
		return raw, nil
	}

	return nil, media.NewError(media.KindParse, fmt.Sprintf("no valid JSON object assigned to %s", p.variable), nil)
}

// capture tries the boundary pattern first and a balanced-brace scan second.
func (p *patterns) capture(src string) (json.RawMessage, bool) {
	if m := p.boundary.FindStringSubmatch(src); len(m) == 2 && json.Valid([]byte(m[1])) {
		return json.RawMessage(m[1]), true
	}

	for _, loc := range p.assign.FindAllStringIndex(src, -1) {
		obj := balancedObject(src[loc[1]:])
		if obj != "" && json.Valid([]byte(obj)) {
			return json.RawMessage(obj), true
		}
	}
	return nil, false
}

// scriptBodies returns the text of every <script> element that mentions variable.
func scriptBodies(html, variable string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var bodies []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if strings.Contains(text, variable) {
			bodies = append(bodies, text)
		}
	})
	return bodies
}

// balancedObject returns the leading {...} of s, honoring JSON string escapes.
// It returns "" when s does not start with an object or the object is unterminated.
func balancedObject(s string) string {
	if s == "" || s[0] != '{' {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
