// Package httputil provides a hardened HTTP client and the single-request page fetcher.
package httputil

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// UserAgent mimics a desktop browser; bare Go user agents are served consent or bot pages.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	// DefaultTimeout bounds a single request when the caller does not choose one.
	DefaultTimeout = 30 * time.Second

	maxBodySize = 10 * 1024 * 1024 // 10MB
)

// ErrInvalidURL is returned by Fetch for a URL rejected before any request is made.
var ErrInvalidURL = errors.New("invalid URL")

// NewClient creates a hardened HTTP client with secure defaults.
// It sets no overall timeout; Fetcher bounds each request through its context.
func NewClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			DisableCompression:  false,
			MaxIdleConnsPerHost: 5,
		},
	}
}

// TransportError reports a failure to obtain a usable response from upstream.
type TransportError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Fetcher issues single GET requests. It never retries; retry policy belongs to the caller.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewFetcher wraps client. A zero timeout selects DefaultTimeout.
func NewFetcher(client *http.Client, timeout time.Duration) *Fetcher {
	if client == nil {
		client = NewClient()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{client: client, timeout: timeout}
}

// Fetch performs one GET request and returns the response body as text.
// header replaces the default browser headers when non-nil.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, header http.Header) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	if header == nil {
		header = BrowserHeaders()
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &TransportError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", &TransportError{URL: rawURL, Err: fmt.Errorf("reading response: %w", err)}
	}

	return string(body), nil
}

// BrowserHeaders returns the headers used for HTML page requests.
func BrowserHeaders() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", UserAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	return h
}

// CaptionHeaders returns the headers used for caption payload requests.
// Caption endpoints reject requests without a browser User-Agent and a watch-page Referer.
func CaptionHeaders(referer string) http.Header {
	h := make(http.Header)
	h.Set("User-Agent", UserAgent)
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	if referer != "" {
		h.Set("Referer", referer)
	}
	return h
}
