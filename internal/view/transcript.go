package view

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/decisioniq/decisioniq-api/internal/assistant"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var ErrBusy = errors.New("a request is already in flight")

// Message is one transcript entry. Assistant messages carry the parsed
// answer and their own chart selection.
type Message struct {
	Role     Role
	Text     string
	Response *assistant.Response
	Charts   ChartPrefs
	At       time.Time
}

// Transcript is the append-only chat log. Messages are never edited or
// reordered; only the chart selection of an assistant message can change.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
	inFlight bool
	now      func() time.Time
}

func NewTranscript() *Transcript {
	return &Transcript{now: time.Now}
}

// BeginSend claims the single outstanding request slot.
func (t *Transcript) BeginSend() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inFlight {
		return ErrBusy
	}
	t.inFlight = true
	return nil
}

func (t *Transcript) EndSend() {
	t.mu.Lock()
	t.inFlight = false
	t.mu.Unlock()
}

func (t *Transcript) InFlight() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

// AddUser appends a user message and returns its index.
func (t *Transcript) AddUser(text string) int {
	return t.append(Message{Role: RoleUser, Text: text})
}

// AddAssistant appends an answer and returns its index.
func (t *Transcript) AddAssistant(resp assistant.Response) int {
	r := resp
	return t.append(Message{Role: RoleAssistant, Text: r.IntroText, Response: &r, Charts: DefaultChartPrefs()})
}

func (t *Transcript) append(m Message) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	m.At = t.now()
	t.messages = append(t.messages, m)
	return len(t.messages) - 1
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

func (t *Transcript) Message(i int) (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.messages) {
		return Message{}, false
	}
	return t.messages[i], true
}

// Messages returns a snapshot of the log.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// LastAssistant returns the index of the newest answer, or -1.
func (t *Transcript) LastAssistant() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == RoleAssistant {
			return i
		}
	}
	return -1
}

func (t *Transcript) SetPerformanceChart(i int, c PerformanceChart) error {
	return t.updateCharts(i, func(p *ChartPrefs) { p.Performance = c })
}

func (t *Transcript) SetValueChart(i int, c ValueChart) error {
	return t.updateCharts(i, func(p *ChartPrefs) { p.Value = c })
}

func (t *Transcript) updateCharts(i int, fn func(*ChartPrefs)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.messages) {
		return fmt.Errorf("no message #%d", i)
	}
	if t.messages[i].Role != RoleAssistant {
		return fmt.Errorf("message #%d is not an answer", i)
	}
	fn(&t.messages[i].Charts)
	return nil
}
