// Package transcript turns one video identifier into a plain-text transcript,
// retrying transient upstream failures with exponential backoff.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"ytscript/internal/extract"
	"ytscript/internal/httputil"
	"ytscript/internal/media"
	"ytscript/internal/subtitle"
)

const (
	DefaultOrigin         = "https://www.youtube.com"
	DefaultMaxAttempts    = 5
	DefaultMinChars       = 100
	DefaultNetworkBackoff = time.Second
	DefaultParseBackoff   = 500 * time.Millisecond
)

// PageFetcher performs a single GET and returns the body. It must not retry.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, header http.Header) (string, error)
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMaxAttempts sets the total number of attempts per video.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithMinChars sets the shortest transcript accepted without retrying.
func WithMinChars(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.minChars = n
		}
	}
}

// WithAcceptShort returns a short but non-empty transcript once the retry
// budget is spent instead of failing.
func WithAcceptShort(accept bool) Option {
	return func(f *Fetcher) { f.acceptShort = accept }
}

// WithBackoff sets the base delays for network and caption parse failures.
func WithBackoff(network, parse time.Duration) Option {
	return func(f *Fetcher) {
		if network > 0 {
			f.networkBackoff = network
		}
		if parse > 0 {
			f.parseBackoff = parse
		}
	}
}

// WithJitter adds up to d of random delay to every retry wait.
func WithJitter(d time.Duration) Option {
	return func(f *Fetcher) { f.jitter = d }
}

// WithLanguage sets the preferred caption language.
func WithLanguage(lang string) Option {
	return func(f *Fetcher) {
		if lang != "" {
			f.language = lang
		}
	}
}

// WithOrigin sets the site origin used for watch pages and relative caption URLs.
func WithOrigin(origin string) Option {
	return func(f *Fetcher) {
		if origin != "" {
			f.origin = strings.TrimRight(origin, "/")
		}
	}
}

// WithLimiter makes every outbound request wait on l. The limiter may be shared.
func WithLimiter(l *rate.Limiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithLogger sets the logger used for state transitions.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithSleep replaces the backoff sleep.
func WithSleep(sleep SleepFunc) Option {
	return func(f *Fetcher) {
		if sleep != nil {
			f.sleep = sleep
		}
	}
}

// WithRand replaces the jitter source. rnd must return a value in [0, n).
func WithRand(rnd func(n int64) int64) Option {
	return func(f *Fetcher) {
		if rnd != nil {
			f.rand = rnd
		}
	}
}

// Fetcher fetches transcripts for single videos.
type Fetcher struct {
	pages          PageFetcher
	origin         string
	language       string
	maxAttempts    int
	minChars       int
	acceptShort    bool
	networkBackoff time.Duration
	parseBackoff   time.Duration
	jitter         time.Duration
	limiter        *rate.Limiter
	logger         *slog.Logger
	sleep          SleepFunc
	rand           func(n int64) int64
}

// New returns a Fetcher that issues requests through pages.
func New(pages PageFetcher, opts ...Option) *Fetcher {
	f := &Fetcher{
		pages:          pages,
		origin:         DefaultOrigin,
		language:       subtitle.DefaultLanguage,
		maxAttempts:    DefaultMaxAttempts,
		minChars:       DefaultMinChars,
		networkBackoff: DefaultNetworkBackoff,
		parseBackoff:   DefaultParseBackoff,
		logger:         slog.Default(),
		sleep:          Sleep,
		rand:           rand.Int63n,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WatchURL returns the watch page URL for id under the fetcher's origin.
func (f *Fetcher) WatchURL(id media.VideoID) string {
	return f.origin + "/watch?v=" + id.String()
}

// Fetch returns the transcript of id. Transient failures are retried up to the
// attempt budget; fatal ones are returned as soon as they occur. A cancelled
// ctx aborts immediately with a KindCancelled error.
func (f *Fetcher) Fetch(ctx context.Context, id media.VideoID) (media.Transcript, error) {
	if !id.Valid() {
		return media.Transcript{}, media.NewError(media.KindIdentifierNotFound, fmt.Sprintf("id not found: %q is not a video id", id), nil)
	}

	log := f.logger.With(slog.String("video", id.String()))
	var (
		lastErr error
		short   *media.Transcript
	)

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return media.Transcript{}, media.Cancelled(err)
		}

		t, state, err := f.attempt(ctx, log.With(slog.Int("attempt", attempt)), id)
		if err == nil {
			log.Debug("transcript fetched", slog.String("state", StateDone.String()), slog.Int("attempt", attempt), slog.Int("chars", len(t.Text)))
			return t, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil || media.KindOf(err) == media.KindCancelled {
			if ctxErr == nil {
				ctxErr = err
			}
			return media.Transcript{}, media.Cancelled(ctxErr)
		}
		lastErr = err

		base, retry := f.backoffBase(state, err)
		if !retry {
			log.Debug("transcript failed", slog.String("state", StateFailed.String()), slog.String("stage", state.String()), slog.Any("error", err))
			return media.Transcript{}, err
		}
		if t.Text != "" && f.acceptShort {
			short = &t
		}
		if attempt == f.maxAttempts {
			break
		}

		wait := base << attempt
		if f.jitter > 0 {
			wait += time.Duration(f.rand(int64(f.jitter)))
		}
		log.Debug("retrying",
			slog.String("state", StateRetrying.String()),
			slog.String("stage", state.String()),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.Any("error", err),
		)
		if err := f.sleep(ctx, wait); err != nil {
			return media.Transcript{}, media.Cancelled(err)
		}
	}

	if short != nil {
		log.Warn("accepting short transcript", slog.Int("chars", utf8.RuneCountInString(short.Text)), slog.Int("min_chars", f.minChars))
		return *short, nil
	}

	msg := fmt.Sprintf("rate limit or no transcripts available after %d attempts (last: %s)", f.maxAttempts, media.KindOf(lastErr))
	log.Warn("retries exhausted", slog.Int("attempts", f.maxAttempts), slog.Any("error", lastErr))
	return media.Transcript{}, media.NewError(media.KindRetriesExhausted, msg, lastErr)
}

// backoffBase reports whether an error at state is retried and with which base delay.
// Parse failures only retry at the caption payload stage; a watch page that does
// not parse will not parse next time either.
func (f *Fetcher) backoffBase(state State, err error) (time.Duration, bool) {
	switch media.KindOf(err) {
	case media.KindTransport, media.KindEmptyContent:
		return f.networkBackoff, true
	case media.KindParse:
		if state == StateValidatingPayload {
			return f.parseBackoff, true
		}
	}
	return 0, false
}

// attempt runs the whole pipeline once. It returns the state it stopped in.
// A transcript shorter than minChars is returned together with an
// EmptyContent error.
func (f *Fetcher) attempt(ctx context.Context, log *slog.Logger, id media.VideoID) (media.Transcript, State, error) {
	watchURL := f.WatchURL(id)

	log.Debug("transcript state", slog.String("state", StateFetchingPage.String()))
	page, err := f.get(ctx, watchURL, httputil.BrowserHeaders())
	if err != nil {
		return media.Transcript{}, StateFetchingPage, err
	}
	if strings.TrimSpace(page) == "" {
		return media.Transcript{}, StateFetchingPage, media.NewError(media.KindEmptyContent, "empty watch page", nil)
	}

	log.Debug("transcript state", slog.String("state", StateExtractingMetadata.String()))
	meta, err := extract.PlayerResponse(page)
	if err != nil {
		return media.Transcript{}, StateExtractingMetadata, err
	}
	title := meta.Title
	if title == "" {
		title = media.UntitledVideo
	}

	log.Debug("transcript state", slog.String("state", StateSelectingTrack.String()), slog.Int("tracks", len(meta.Tracks)))
	if !meta.HasCaptions {
		return media.Transcript{}, StateSelectingTrack, media.NewError(media.KindNoCaptions, noCaptionsMessage(meta), nil)
	}
	track, err := subtitle.SelectBestFor(meta.Tracks, f.language)
	if err != nil {
		return media.Transcript{}, StateSelectingTrack, err
	}
	captionURL, err := f.captionURL(track)
	if err != nil {
		return media.Transcript{}, StateSelectingTrack, media.NewError(media.KindParse, "building caption URL", err)
	}

	log.Debug("transcript state",
		slog.String("state", StateFetchingCaptions.String()),
		slog.String("language", track.LanguageCode),
		slog.Bool("auto_generated", track.AutoGenerated()),
	)
	body, err := f.get(ctx, captionURL, httputil.CaptionHeaders(watchURL))
	if err != nil {
		return media.Transcript{}, StateFetchingCaptions, err
	}

	log.Debug("transcript state", slog.String("state", StateValidatingPayload.String()), slog.Int("bytes", len(body)))
	text, err := subtitle.ParseJSON3([]byte(body))
	if err != nil {
		return media.Transcript{}, StateValidatingPayload, err
	}

	t := media.Transcript{VideoID: id, Title: title, Text: text}
	if n := utf8.RuneCountInString(text); n < f.minChars {
		return t, StateValidatingPayload, media.NewError(media.KindEmptyContent,
			fmt.Sprintf("transcript too short (%d < %d characters)", n, f.minChars), nil)
	}
	return t, StateDone, nil
}

// captionURL makes track's base URL absolute and requests the json3 format.
// The result must be an https URL.
func (f *Fetcher) captionURL(track media.CaptionTrack) (string, error) {
	abs, err := httputil.ResolveURL(f.origin, track.BaseURL)
	if err != nil {
		return "", err
	}
	u, err := httputil.WithQuery(abs, "fmt", "json3")
	if err != nil {
		return "", err
	}
	if err := httputil.ValidateURL(u); err != nil {
		return "", err
	}
	return u, nil
}

// get waits on the shared limiter, then issues one request. A URL rejected
// before sending is a parse error and is not retried; other failures that are
// not already classified are reported as transport errors.
func (f *Fetcher) get(ctx context.Context, rawURL string, header http.Header) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return "", media.Cancelled(ctx.Err())
			}
			return "", media.NewError(media.KindTransport, "rate limiter", err)
		}
	}

	body, err := f.pages.Fetch(ctx, rawURL, header)
	if err != nil {
		var me *media.Error
		if errors.As(err, &me) {
			return "", err
		}
		if errors.Is(err, httputil.ErrInvalidURL) {
			return "", media.NewError(media.KindParse, "rejected request URL", err)
		}
		return "", media.NewError(media.KindTransport, "transport error", err)
	}
	return body, nil
}

func noCaptionsMessage(meta *media.PlayerMetadata) string {
	msg := "no captions available"
	if meta.PlayabilityStatus != "" && meta.PlayabilityStatus != "OK" {
		reason := meta.PlayabilityReason
		if reason == "" {
			reason = strings.ToLower(meta.PlayabilityStatus)
		}
		msg += ": " + reason
	}
	return msg
}
