package media

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"kind only", NewError(KindNoCaptions, "", nil), "no captions available"},
		{"detail", NewError(KindInvalidReference, "invalid reference: badref", nil), "invalid reference: badref"},
		{"wrapped", NewError(KindTransport, "", errors.New("dial tcp: refused")), "transport error: dial tcp: refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorIsSentinel(t *testing.T) {
	err := fmt.Errorf("fetching abc: %w", NewError(KindNoCaptions, "video has no tracks", nil))

	if !errors.Is(err, ErrNoCaptions) {
		t.Error("errors.Is(err, ErrNoCaptions) = false, want true")
	}
	if errors.Is(err, ErrParse) {
		t.Error("errors.Is(err, ErrParse) = true, want false")
	}
}

func TestCancelledMatchesContext(t *testing.T) {
	err := Cancelled(context.Canceled)

	if !errors.Is(err, ErrCancelled) {
		t.Error("cancelled error should match ErrCancelled")
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("cancelled error should unwrap to context.Canceled")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"classified", NewError(KindParse, "", nil), KindParse},
		{"wrapped", fmt.Errorf("outer: %w", NewError(KindEmptyContent, "", nil)), KindEmptyContent},
		{"context canceled", context.Canceled, KindCancelled},
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), KindCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindTransport, true},
		{KindEmptyContent, true},
		{KindParse, false},
		{KindNoCaptions, false},
		{KindInvalidReference, false},
		{KindCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := IsTransient(NewError(tt.kind, "", nil)); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestBatchResultSummary(t *testing.T) {
	r := &BatchResult{
		Successes: []Transcript{{VideoID: "aaaaaaaaaaa"}},
		Failures:  []Failure{{Reference: "x", Reason: "invalid reference"}},
		Cancelled: []string{"y"},
	}

	if !r.Partial() {
		t.Error("Partial() = false, want true")
	}
	if r.Attempted() != 2 {
		t.Errorf("Attempted() = %d, want 2", r.Attempted())
	}
	if got := r.Summary(); got != "1 succeeded, 1 failed, 1 cancelled" {
		t.Errorf("Summary() = %q", got)
	}
}
