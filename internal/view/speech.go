package view

import (
	"errors"
	"strings"
	"sync"
)

var ErrSpeechUnavailable = errors.New("speech recognition is not available")

type SpeechState int

const (
	SpeechDisabled SpeechState = iota
	SpeechIdle
	SpeechListening
)

func (s SpeechState) String() string {
	switch s {
	case SpeechIdle:
		return "idle"
	case SpeechListening:
		return "listening"
	}
	return "disabled"
}

// Recognizer is an external speech-to-text capability. It reports back
// through the callbacks passed to Start.
type Recognizer interface {
	Start(onResult func(text string), onError func(err error)) error
	Stop()
}

// Speech tracks the microphone toggle. Start is the only outbound command;
// a result, an error or an explicit stop returns to idle.
type Speech struct {
	mu      sync.Mutex
	rec     Recognizer
	state   SpeechState
	draft   string
	lastErr error
}

// NewSpeech returns a disabled machine when rec is nil.
func NewSpeech(rec Recognizer) *Speech {
	s := &Speech{rec: rec, state: SpeechIdle}
	if rec == nil {
		s.state = SpeechDisabled
	}
	return s
}

func (s *Speech) State() SpeechState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Speech) Start() error {
	s.mu.Lock()
	switch s.state {
	case SpeechDisabled:
		s.mu.Unlock()
		return ErrSpeechUnavailable
	case SpeechListening:
		s.mu.Unlock()
		return nil
	}
	s.state = SpeechListening
	s.lastErr = nil
	s.mu.Unlock()

	if err := s.rec.Start(s.result, s.fail); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

// Stop ends listening at the user's request.
func (s *Speech) Stop() {
	s.mu.Lock()
	if s.state != SpeechListening {
		s.mu.Unlock()
		return
	}
	s.state = SpeechIdle
	s.mu.Unlock()
	s.rec.Stop()
}

// Toggle starts listening when idle and stops when listening.
func (s *Speech) Toggle() error {
	if s.State() == SpeechListening {
		s.Stop()
		return nil
	}
	return s.Start()
}

func (s *Speech) result(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SpeechListening {
		return
	}
	if text = strings.TrimSpace(text); text != "" {
		if s.draft != "" {
			s.draft += " "
		}
		s.draft += text
	}
	s.state = SpeechIdle
}

func (s *Speech) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SpeechListening {
		s.state = SpeechIdle
	}
	s.lastErr = err
}

func (s *Speech) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// TakeDraft returns the recognized text and clears it.
func (s *Speech) TakeDraft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft
	s.draft = ""
	return d
}
