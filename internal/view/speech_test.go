package view

import (
	"errors"
	"testing"
)

type fakeRecognizer struct {
	onResult func(string)
	onError  func(error)
	startErr error
	stopped  int
}

func (f *fakeRecognizer) Start(onResult func(string), onError func(error)) error {
	f.onResult, f.onError = onResult, onError
	return f.startErr
}

func (f *fakeRecognizer) Stop() { f.stopped++ }

func TestSpeechDisabledWithoutRecognizer(t *testing.T) {
	s := NewSpeech(nil)
	if s.State() != SpeechDisabled {
		t.Fatalf("state = %v", s.State())
	}
	if err := s.Start(); !errors.Is(err, ErrSpeechUnavailable) {
		t.Fatalf("Start = %v", err)
	}
	if err := s.Toggle(); !errors.Is(err, ErrSpeechUnavailable) {
		t.Fatalf("Toggle = %v", err)
	}
}

func TestSpeechResultAppendsToDraft(t *testing.T) {
	rec := &fakeRecognizer{}
	s := NewSpeech(rec)

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if s.State() != SpeechListening {
		t.Fatalf("state = %v", s.State())
	}
	rec.onResult("best gaming laptop")
	if s.State() != SpeechIdle {
		t.Fatalf("result should return to idle, got %v", s.State())
	}

	_ = s.Start()
	rec.onResult(" under 1500 ")
	if d := s.TakeDraft(); d != "best gaming laptop under 1500" {
		t.Fatalf("draft = %q", d)
	}
	if s.TakeDraft() != "" {
		t.Fatal("TakeDraft should clear")
	}

	// Late results after returning to idle are ignored.
	rec.onResult("late")
	if s.TakeDraft() != "" {
		t.Fatal("late result should be dropped")
	}
}

func TestSpeechErrorAndStop(t *testing.T) {
	rec := &fakeRecognizer{}
	s := NewSpeech(rec)

	_ = s.Toggle()
	rec.onError(errors.New("no-speech"))
	if s.State() != SpeechIdle || s.Err() == nil {
		t.Fatalf("state %v err %v", s.State(), s.Err())
	}

	_ = s.Toggle()
	if s.Err() != nil {
		t.Fatal("Start should reset the last error")
	}
	_ = s.Toggle()
	if s.State() != SpeechIdle || rec.stopped != 1 {
		t.Fatalf("state %v stopped %d", s.State(), rec.stopped)
	}

	rec.startErr = errors.New("device busy")
	if err := s.Start(); err == nil {
		t.Fatal("start failure should surface")
	}
	if s.State() != SpeechIdle {
		t.Fatalf("failed start should leave idle, got %v", s.State())
	}
}
