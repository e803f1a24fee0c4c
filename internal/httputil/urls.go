package httputil

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL checks that a URL is well-formed and uses HTTPS.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("only HTTPS URLs are allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// ResolveURL turns a possibly relative upstream URL into an absolute one.
// Scheme-relative ("//host/path"), bare host ("host/path") and plain http URLs
// get https; path-relative URLs are joined to origin.
func ResolveURL(origin, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty URL")
	}

	switch {
	case strings.HasPrefix(ref, "//"):
		ref = "https:" + ref
	case strings.HasPrefix(ref, "/"):
		ref = strings.TrimRight(origin, "/") + ref
	case !strings.Contains(ref, "://"):
		ref = "https://" + ref
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("malformed URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL %q has no host", ref)
	}
	if strings.EqualFold(u.Scheme, "http") {
		u.Scheme = "https"
	}
	return u.String(), nil
}

// WithQuery returns rawURL with key set to value, re-encoding the query string.
func WithQuery(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("malformed URL: %w", err)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
