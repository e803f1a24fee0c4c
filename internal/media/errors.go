package media

import (
	"context"
	"errors"
)

// Kind classifies pipeline failures. The classification decides whether a
// failure is retried and is surfaced verbatim to the end user.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidReference
	KindIdentifierNotFound
	KindTransport
	KindParse
	KindEmptyContent
	KindNoCaptions
	KindRetriesExhausted
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidReference:
		return "invalid reference"
	case KindIdentifierNotFound:
		return "id not found"
	case KindTransport:
		return "transport error"
	case KindParse:
		return "parse error"
	case KindEmptyContent:
		return "empty or short content"
	case KindNoCaptions:
		return "no captions available"
	case KindRetriesExhausted:
		return "retries exhausted"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown error"
	}
}

// Error is a classified pipeline error.
type Error struct {
	Kind Kind
	Msg  string // human-readable detail; defaults to the kind name
	Err  error  // underlying cause, if any
}

// NewError returns a classified error.
func NewError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinel errors by kind, so errors.Is(err, ErrNoCaptions) works
// for any error carrying that classification.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Msg != "" || t.Err != nil {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidReference   = &Error{Kind: KindInvalidReference}
	ErrIdentifierNotFound = &Error{Kind: KindIdentifierNotFound}
	ErrTransport          = &Error{Kind: KindTransport}
	ErrParse              = &Error{Kind: KindParse}
	ErrEmptyContent       = &Error{Kind: KindEmptyContent}
	ErrNoCaptions         = &Error{Kind: KindNoCaptions}
	ErrRetriesExhausted   = &Error{Kind: KindRetriesExhausted}
	ErrCancelled          = &Error{Kind: KindCancelled}
)

// KindOf returns the classification of err, looking through wrapping.
// Bare context errors are reported as KindCancelled.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	return KindUnknown
}

// IsTransient reports whether err is generally worth retrying.
// Parse errors are not: whether they are retried depends on the pipeline stage.
func IsTransient(err error) bool {
	switch KindOf(err) {
	case KindTransport, KindEmptyContent:
		return true
	}
	return false
}

// Cancelled wraps a context error as a KindCancelled error.
func Cancelled(err error) *Error {
	if err == nil {
		err = context.Canceled
	}
	return &Error{Kind: KindCancelled, Msg: "cancelled", Err: err}
}
