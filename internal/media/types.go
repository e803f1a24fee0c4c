// Package media defines shared types for the ytscript pipeline.
package media

import (
	"fmt"
	"strings"
	"time"
)

// UntitledVideo is used when the watch page carries no usable title.
const UntitledVideo = "Untitled Video"

// VideoIDLength is the length of every canonical video identifier.
const VideoIDLength = 11

// VideoID is a canonical 11-character video identifier.
type VideoID string

func (id VideoID) String() string { return string(id) }

// Valid reports whether id has the canonical length.
func (id VideoID) Valid() bool { return len(id) == VideoIDLength }

// CaptionTrack describes one subtitle stream advertised by the player response.
type CaptionTrack struct {
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
	BaseURL      string `json:"baseUrl"`
}

// AutoGenerated reports whether the track was produced by speech recognition.
func (t CaptionTrack) AutoGenerated() bool { return t.Kind == "asr" }

// PlayerMetadata is the subset of the embedded player response the pipeline uses.
type PlayerMetadata struct {
	Title             string
	Tracks            []CaptionTrack
	HasCaptions       bool   // false when the captions object is absent entirely
	PlayabilityStatus string // e.g. "OK", "LOGIN_REQUIRED", "ERROR"
	PlayabilityReason string
}

// Transcript is the normalized plain-text transcript of one video.
type Transcript struct {
	VideoID VideoID `json:"id"`
	Title   string  `json:"title"`
	Text    string  `json:"text"`
}

// Failure records why a single reference in a batch did not produce a transcript.
type Failure struct {
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
	Err       error  `json:"-"`
}

// BatchResult aggregates the outcome of one batch.
// Successes keep input order; failures are in encounter order.
type BatchResult struct {
	Successes []Transcript `json:"successes"`
	Failures  []Failure    `json:"failures"`
	// Cancelled lists references that were not completed because the batch was cancelled.
	Cancelled []string `json:"cancelled,omitempty"`
}

// Attempted returns the number of references that reached a terminal outcome.
func (r *BatchResult) Attempted() int {
	return len(r.Successes) + len(r.Failures)
}

// Partial reports whether the batch produced both successes and failures.
func (r *BatchResult) Partial() bool {
	return len(r.Successes) > 0 && len(r.Failures) > 0
}

// Summary returns a one-line description of the batch outcome.
func (r *BatchResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d succeeded, %d failed", len(r.Successes), len(r.Failures))
	if len(r.Cancelled) > 0 {
		fmt.Fprintf(&b, ", %d cancelled", len(r.Cancelled))
	}
	return b.String()
}

// FetchStatus is the recorded outcome of one attempted reference.
type FetchStatus string

const (
	StatusOK     FetchStatus = "ok"
	StatusFailed FetchStatus = "failed"
)

// HistoryEntry is one row of the fetch history. Transcript text is never stored.
type HistoryEntry struct {
	ID        int64       `json:"id"`
	VideoID   VideoID     `json:"video_id,omitempty"`
	Reference string      `json:"reference"`
	Title     string      `json:"title,omitempty"`
	Chars     int         `json:"chars"`
	Status    FetchStatus `json:"status"`
	Reason    string      `json:"reason,omitempty"`
	FetchedAt time.Time   `json:"fetched_at"`
}
