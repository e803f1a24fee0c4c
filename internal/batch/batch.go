// Package batch runs transcript fetches for a list of references, one at a
// time, with a randomized pause between items.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"ytscript/internal/media"
	"ytscript/internal/transcript"
	"ytscript/internal/videoid"
)

const (
	DefaultDelayMin = 8 * time.Second
	DefaultDelayMax = 12 * time.Second
)

// TranscriptSource fetches the transcript of a single video.
type TranscriptSource interface {
	Fetch(ctx context.Context, id media.VideoID) (media.Transcript, error)
}

// Item is the outcome of one attempted reference, reported to observers.
type Item struct {
	Index      int // position in the input, zero-based
	Reference  string
	VideoID    media.VideoID // empty when the reference did not resolve
	Transcript media.Transcript
	Err        error
}

// BatchError is returned when no reference in a batch succeeded.
type BatchError struct {
	Total int
	First media.Failure
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("all %d references failed: %s", e.Total, e.First.Reason)
}

func (e *BatchError) Unwrap() error { return e.First.Err }

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDelay sets the range of the pause taken before every fetch but the first.
func WithDelay(lo, hi time.Duration) Option {
	return func(o *Orchestrator) {
		if lo < 0 {
			lo = 0
		}
		if hi < lo {
			hi = lo
		}
		o.delayMin, o.delayMax = lo, hi
	}
}

// WithSleep replaces the inter-item sleep.
func WithSleep(sleep transcript.SleepFunc) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithRand replaces the delay source. rnd must return a value in [0, n).
func WithRand(rnd func(n int64) int64) Option {
	return func(o *Orchestrator) {
		if rnd != nil {
			o.rand = rnd
		}
	}
}

// WithObserver registers fn to be called after every attempted reference.
func WithObserver(fn func(Item)) Option {
	return func(o *Orchestrator) { o.onItem = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// Orchestrator serializes transcript fetches for a batch of references.
type Orchestrator struct {
	source   TranscriptSource
	delayMin time.Duration
	delayMax time.Duration
	sleep    transcript.SleepFunc
	rand     func(n int64) int64
	onItem   func(Item)
	logger   *slog.Logger
}

// New returns an Orchestrator fetching through source.
func New(source TranscriptSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:   source,
		delayMin: DefaultDelayMin,
		delayMax: DefaultDelayMax,
		sleep:    transcript.Sleep,
		rand:     rand.Int63n,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Split breaks a comma-delimited reference list into trimmed, non-empty references.
func Split(raw string) []string {
	var refs []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			refs = append(refs, p)
		}
	}
	return refs
}

// Run fetches every reference in raw in order.
//
// A bad or failing reference is recorded and the batch moves on. If nothing
// succeeded, the result is returned together with a *BatchError carrying the
// first failure. If ctx is cancelled, Run stops at once and returns the
// partial result, with every reference not completed listed in Cancelled, and
// a KindCancelled error.
func (o *Orchestrator) Run(ctx context.Context, raw string) (*media.BatchResult, error) {
	refs := Split(raw)
	if len(refs) == 0 {
		return nil, media.NewError(media.KindInvalidReference, "invalid reference: no video references provided", nil)
	}

	res := &media.BatchResult{}
	seen := make(map[media.VideoID]bool, len(refs))
	attempted := 0

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return o.cancel(res, refs[i:], err)
		}

		id, err := videoid.Resolve(ref)
		if err != nil {
			o.fail(res, Item{Index: i, Reference: ref, Err: err})
			continue
		}
		if seen[id] {
			o.logger.Debug("skipping duplicate reference", slog.String("reference", ref), slog.String("video", id.String()))
			continue
		}
		seen[id] = true

		if attempted > 0 {
			wait := o.delay()
			o.logger.Debug("waiting before next item", slog.Duration("wait", wait))
			if err := o.sleep(ctx, wait); err != nil {
				return o.cancel(res, refs[i:], err)
			}
		}
		attempted++

		o.logger.Info("fetching transcript", slog.String("video", id.String()), slog.Int("item", i+1), slog.Int("total", len(refs)))
		t, err := o.source.Fetch(ctx, id)
		if err != nil {
			if media.KindOf(err) == media.KindCancelled {
				return o.cancel(res, refs[i:], err)
			}
			o.fail(res, Item{Index: i, Reference: ref, VideoID: id, Err: err})
			continue
		}

		res.Successes = append(res.Successes, t)
		o.observe(Item{Index: i, Reference: ref, VideoID: id, Transcript: t})
	}

	switch {
	case len(res.Successes) == 0:
		return res, &BatchError{Total: len(res.Failures), First: res.Failures[0]}
	case len(res.Failures) > 0:
		o.logger.Warn("batch partially failed", slog.Int("succeeded", len(res.Successes)), slog.Int("failed", len(res.Failures)))
	}
	return res, nil
}

func (o *Orchestrator) fail(res *media.BatchResult, item Item) {
	res.Failures = append(res.Failures, media.Failure{Reference: item.Reference, Reason: item.Err.Error(), Err: item.Err})
	o.logger.Warn("reference failed", slog.String("reference", item.Reference), slog.Any("error", item.Err))
	o.observe(item)
}

func (o *Orchestrator) observe(item Item) {
	if o.onItem != nil {
		o.onItem(item)
	}
}

func (o *Orchestrator) cancel(res *media.BatchResult, remaining []string, err error) (*media.BatchResult, error) {
	res.Cancelled = append(res.Cancelled, remaining...)
	o.logger.Info("batch cancelled", slog.Int("completed", res.Attempted()), slog.Int("cancelled", len(remaining)))
	if media.KindOf(err) == media.KindCancelled {
		if _, ok := err.(*media.Error); ok {
			return res, err
		}
	}
	return res, media.Cancelled(err)
}

// delay returns a random duration in [delayMin, delayMax].
func (o *Orchestrator) delay() time.Duration {
	span := o.delayMax - o.delayMin
	if span <= 0 {
		return o.delayMin
	}
	return o.delayMin + time.Duration(o.rand(int64(span)+1))
}
