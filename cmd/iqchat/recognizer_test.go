package main

import (
	"errors"
	"testing"
	"time"

	"github.com/decisioniq/decisioniq-api/internal/view"
)

func TestCommandRecognizerFeedsSpeech(t *testing.T) {
	rec := &commandRecognizer{name: "sh", args: []string{"-c", "echo best laptop"}}

	s := view.NewSpeech(rec)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for s.State() == view.SpeechListening && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.State() != view.SpeechIdle {
		t.Fatalf("state = %v", s.State())
	}
	if d := s.TakeDraft(); d != "best laptop" {
		t.Fatalf("draft = %q", d)
	}
}

func TestCommandRecognizerEmptyOutput(t *testing.T) {
	rec := &commandRecognizer{name: "true"}
	done := make(chan error, 1)
	err := rec.Start(func(string) { done <- nil }, func(err error) { done <- err })
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case err := <-done:
		if err == nil || err.Error() != "no speech detected" {
			t.Fatalf("err = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no callback")
	}
}

func TestCommandRecognizerStopSuppressesCallbacks(t *testing.T) {
	rec := &commandRecognizer{name: "sleep", args: []string{"5"}}
	called := make(chan struct{}, 1)
	if err := rec.Start(func(string) { called <- struct{}{} }, func(error) { called <- struct{}{} }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec.Stop()
	select {
	case <-called:
		t.Fatal("stopped capture should not report")
	case <-time.After(200 * time.Millisecond):
	}
	if err := rec.Start(func(string) {}, func(error) {}); err != nil {
		t.Fatalf("restart: %v", err)
	}
	rec.Stop()
}

func TestNewCommandRecognizerBlank(t *testing.T) {
	if newCommandRecognizer("  ") != nil {
		t.Fatal("blank command should disable speech")
	}
	if r := newCommandRecognizer("whisper-cli --once"); r == nil || r.name != "whisper-cli" || len(r.args) != 1 {
		t.Fatalf("parsed = %+v", r)
	}
	if err := view.NewSpeech(nil).Start(); !errors.Is(err, view.ErrSpeechUnavailable) {
		t.Fatalf("err = %v", err)
	}
}
