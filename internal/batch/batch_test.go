package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytscript/internal/media"
)

type fakeSource struct {
	errs   map[media.VideoID]error
	calls  []media.VideoID
	onCall func(id media.VideoID)
}

func (s *fakeSource) Fetch(ctx context.Context, id media.VideoID) (media.Transcript, error) {
	s.calls = append(s.calls, id)
	if s.onCall != nil {
		s.onCall(id)
	}
	if err := s.errs[id]; err != nil {
		return media.Transcript{}, err
	}
	return media.Transcript{VideoID: id, Title: "Title " + id.String(), Text: "text of " + id.String()}, nil
}

type fakeSleep struct {
	waits []time.Duration
	err   error
}

func (s *fakeSleep) sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	if s.err != nil {
		return s.err
	}
	return ctx.Err()
}

func newOrchestrator(src TranscriptSource, s *fakeSleep, opts ...Option) *Orchestrator {
	base := []Option{
		WithSleep(s.sleep),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(src, append(base, opts...)...)
}

func ids(ts []media.Transcript) []media.VideoID {
	out := make([]media.VideoID, len(ts))
	for i, t := range ts {
		out[i] = t.VideoID
	}
	return out
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a,b", []string{"a", "b"}},
		{" a , b ,c ", []string{"a", "b", "c"}},
		{"a,,b,", []string{"a", "b"}},
		{"single", []string{"single"}},
		{"", nil},
		{" , ,", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.in))
		})
	}
}

func TestRunPartialFailure(t *testing.T) {
	src := &fakeSource{}
	s := &fakeSleep{}

	res, err := newOrchestrator(src, s).Run(context.Background(), "badref, https://youtu.be/aaaaaaaaaaa")
	require.NoError(t, err)

	require.Len(t, res.Successes, 1)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, media.VideoID("aaaaaaaaaaa"), res.Successes[0].VideoID)
	assert.Equal(t, "badref", res.Failures[0].Reference)
	assert.Contains(t, res.Failures[0].Reason, "invalid reference")
	assert.ErrorIs(t, res.Failures[0].Err, media.ErrInvalidReference)
	assert.True(t, res.Partial())
	assert.Empty(t, res.Cancelled)
	assert.Empty(t, s.waits, "a single attempted item needs no delay")
}

func TestRunAllFail(t *testing.T) {
	src := &fakeSource{}

	res, err := newOrchestrator(src, &fakeSleep{}).Run(context.Background(), "badref, https://www.youtube.com/watch?v=short")
	require.Error(t, err)

	var be *BatchError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 2, be.Total)
	assert.Equal(t, `all 2 references failed: invalid reference: "badref"`, err.Error())
	assert.ErrorIs(t, err, media.ErrInvalidReference)

	require.NotNil(t, res)
	require.Len(t, res.Failures, 2)
	assert.Contains(t, res.Failures[1].Reason, "id not found")
	assert.ErrorIs(t, res.Failures[1].Err, media.ErrIdentifierNotFound)
	assert.Empty(t, src.calls)
}

func TestRunAllFetchesFail(t *testing.T) {
	exhausted := media.NewError(media.KindRetriesExhausted, "rate limit or no transcripts available after 5 attempts", nil)
	src := &fakeSource{errs: map[media.VideoID]error{"aaaaaaaaaaa": exhausted}}

	_, err := newOrchestrator(src, &fakeSleep{}).Run(context.Background(), "aaaaaaaaaaa")
	assert.ErrorIs(t, err, media.ErrRetriesExhausted)
	assert.Contains(t, err.Error(), "all 1 references failed: rate limit")
}

func TestRunOrderAndDelay(t *testing.T) {
	noCaptions := media.NewError(media.KindNoCaptions, "no captions available", nil)
	src := &fakeSource{errs: map[media.VideoID]error{"bbbbbbbbbbb": noCaptions}}
	s := &fakeSleep{}
	fixed := func(n int64) int64 { return int64(1500 * time.Millisecond) }

	res, err := newOrchestrator(src, s, WithRand(fixed)).Run(context.Background(),
		"https://youtu.be/aaaaaaaaaaa, https://www.youtube.com/watch?v=bbbbbbbbbbb, ccccccccccc")
	require.NoError(t, err)

	assert.Equal(t, []media.VideoID{"aaaaaaaaaaa", "ccccccccccc"}, ids(res.Successes))
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "https://www.youtube.com/watch?v=bbbbbbbbbbb", res.Failures[0].Reference)
	assert.Equal(t, "no captions available", res.Failures[0].Reason)
	assert.Equal(t, []media.VideoID{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"}, src.calls)
	assert.Equal(t, []time.Duration{9500 * time.Millisecond, 9500 * time.Millisecond}, s.waits)
	assert.Equal(t, "2 succeeded, 1 failed", res.Summary())
}

func TestRunDelayRange(t *testing.T) {
	s := &fakeSleep{}
	refs := strings.Join([]string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc", "ddddddddddd", "eeeeeeeeeee"}, ",")

	_, err := New(&fakeSource{}, WithSleep(s.sleep), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))).
		Run(context.Background(), refs)
	require.NoError(t, err)
	require.Len(t, s.waits, 4)
	for _, w := range s.waits {
		assert.GreaterOrEqual(t, w, DefaultDelayMin)
		assert.LessOrEqual(t, w, DefaultDelayMax)
	}
}

func TestRunInvalidReferencesDoNotDelay(t *testing.T) {
	s := &fakeSleep{}
	res, err := newOrchestrator(&fakeSource{}, s).Run(context.Background(), "bad1, aaaaaaaaaaa, bad2, bbbbbbbbbbb")
	require.NoError(t, err)
	assert.Len(t, res.Successes, 2)
	assert.Len(t, res.Failures, 2)
	assert.Len(t, s.waits, 1)
}

func TestRunDuplicates(t *testing.T) {
	src := &fakeSource{}
	res, err := newOrchestrator(src, &fakeSleep{}).Run(context.Background(),
		"aaaaaaaaaaa, https://youtu.be/aaaaaaaaaaa, bbbbbbbbbbb")
	require.NoError(t, err)
	assert.Equal(t, []media.VideoID{"aaaaaaaaaaa", "bbbbbbbbbbb"}, src.calls)
	assert.Equal(t, []media.VideoID{"aaaaaaaaaaa", "bbbbbbbbbbb"}, ids(res.Successes))
	assert.Empty(t, res.Failures)
}

func TestRunEmptyInput(t *testing.T) {
	res, err := newOrchestrator(&fakeSource{}, &fakeSleep{}).Run(context.Background(), " , ")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, media.ErrInvalidReference)
}

func TestRunCancelledAfterFirstItem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &fakeSource{onCall: func(media.VideoID) { cancel() }}
	s := &fakeSleep{}

	res, err := newOrchestrator(src, s).Run(ctx, "aaaaaaaaaaa, badref, bbbbbbbbbbb")
	require.Error(t, err)
	assert.ErrorIs(t, err, media.ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)

	require.NotNil(t, res)
	assert.Equal(t, []media.VideoID{"aaaaaaaaaaa"}, ids(res.Successes))
	assert.Empty(t, res.Failures)
	assert.Equal(t, []string{"badref", "bbbbbbbbbbb"}, res.Cancelled)
	assert.Equal(t, []media.VideoID{"aaaaaaaaaaa"}, src.calls)
	assert.Empty(t, s.waits)
}

func TestRunCancelledDuringDelay(t *testing.T) {
	src := &fakeSource{}
	s := &fakeSleep{err: context.Canceled}

	res, err := newOrchestrator(src, s).Run(context.Background(), "aaaaaaaaaaa, bbbbbbbbbbb, ccccccccccc")
	assert.ErrorIs(t, err, media.ErrCancelled)
	assert.Len(t, res.Successes, 1)
	assert.Equal(t, []string{"bbbbbbbbbbb", "ccccccccccc"}, res.Cancelled)
	assert.Len(t, src.calls, 1)
}

func TestRunCancelledInsideFetch(t *testing.T) {
	src := &fakeSource{errs: map[media.VideoID]error{"bbbbbbbbbbb": media.Cancelled(context.Canceled)}}

	res, err := newOrchestrator(src, &fakeSleep{}).Run(context.Background(), "aaaaaaaaaaa, bbbbbbbbbbb, ccccccccccc")
	assert.ErrorIs(t, err, media.ErrCancelled)
	assert.Len(t, res.Successes, 1)
	assert.Empty(t, res.Failures, "cancellation is not a failure")
	assert.Equal(t, []string{"bbbbbbbbbbb", "ccccccccccc"}, res.Cancelled)
}

func TestRunObserver(t *testing.T) {
	var items []Item
	src := &fakeSource{errs: map[media.VideoID]error{"bbbbbbbbbbb": media.NewError(media.KindNoCaptions, "", nil)}}

	_, err := newOrchestrator(src, &fakeSleep{}, WithObserver(func(it Item) { items = append(items, it) })).
		Run(context.Background(), "aaaaaaaaaaa, nope, bbbbbbbbbbb")
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, 0, items[0].Index)
	assert.NoError(t, items[0].Err)
	assert.Equal(t, "Title aaaaaaaaaaa", items[0].Transcript.Title)

	assert.Equal(t, "nope", items[1].Reference)
	assert.Empty(t, items[1].VideoID)
	assert.ErrorIs(t, items[1].Err, media.ErrInvalidReference)

	assert.Equal(t, 2, items[2].Index)
	assert.Equal(t, media.VideoID("bbbbbbbbbbb"), items[2].VideoID)
	assert.ErrorIs(t, items[2].Err, media.ErrNoCaptions)
}

func TestWithDelay(t *testing.T) {
	o := New(&fakeSource{}, WithDelay(2*time.Second, time.Second), WithRand(func(n int64) int64 { return n - 1 }))
	assert.Equal(t, 2*time.Second, o.delay())

	o = New(&fakeSource{}, WithDelay(time.Second, 3*time.Second), WithRand(func(n int64) int64 { return n - 1 }))
	assert.Equal(t, 3*time.Second, o.delay())
}
