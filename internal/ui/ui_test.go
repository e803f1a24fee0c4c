package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"ytscript/internal/media"
)

func TestSummaryPlain(t *testing.T) {
	r := NewRenderer(false, 0)
	res := &media.BatchResult{
		Successes: []media.Transcript{{VideoID: "aaaaaaaaaaa", Title: "A", Text: "text"}},
		Failures:  []media.Failure{{Reference: "badref", Reason: `invalid reference: "badref"`}},
		Cancelled: []string{"bbbbbbbbbbb"},
	}

	want := "1 succeeded, 1 failed, 1 cancelled\n" +
		"  x badref: invalid reference: \"badref\"\n" +
		"  - bbbbbbbbbbb: cancelled\n"
	if got := r.Summary(res); got != want {
		t.Errorf("Summary() =\n%s\nwant\n%s", got, want)
	}
}

func TestSummaryAllSucceeded(t *testing.T) {
	r := NewRenderer(false, 0)
	res := &media.BatchResult{Successes: make([]media.Transcript, 2)}
	if got := r.Summary(res); got != "2 succeeded\n" {
		t.Errorf("Summary() = %q", got)
	}
	if got := r.Summary(nil); got != "" {
		t.Errorf("Summary(nil) = %q, want empty", got)
	}
}

func TestTranscriptPlain(t *testing.T) {
	r := NewRenderer(false, 0)
	got := r.Transcript(media.Transcript{VideoID: "f6kdp27TYZs", Title: "Go Concurrency Patterns", Text: "hello world"})
	want := "# Go Concurrency Patterns (f6kdp27TYZs)\nhello world\n"
	if got != want {
		t.Errorf("Transcript() = %q, want %q", got, want)
	}
}

func TestTranscriptStyledWraps(t *testing.T) {
	r := NewRenderer(true, 20)
	text := strings.Repeat("word ", 20)
	got := r.Transcript(media.Transcript{VideoID: "f6kdp27TYZs", Title: "T", Text: strings.TrimSpace(text)})

	if !strings.Contains(got, "f6kdp27TYZs") {
		t.Errorf("styled transcript lost the id: %q", got)
	}
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) < 3 {
		t.Errorf("expected wrapped body, got %d lines", len(lines))
	}
}

func TestForFileNonTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if IsTerminal(f) {
		t.Error("regular file reported as terminal")
	}
	if w := Width(f); w != defaultWidth {
		t.Errorf("Width() = %d, want %d", w, defaultWidth)
	}
	if r := ForFile(f); r.styled {
		t.Error("renderer for a file should be plain")
	}
}

func TestForWriter(t *testing.T) {
	var buf bytes.Buffer
	if r := ForWriter(&buf); r.styled {
		t.Error("renderer for a buffer should be plain")
	}

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if r := ForWriter(f); r.styled {
		t.Error("renderer for a regular file should be plain")
	}

	r := ForWriter(&buf)
	got := r.Transcript(media.Transcript{VideoID: "aaaaaaaaaaa", Title: "T", Text: "body"})
	if strings.Contains(got, "\x1b[") {
		t.Errorf("plain output contains escape sequences: %q", got)
	}
}
