// Package chat implements the CardioBot question/answer widget: an ordered
// transcript that allows one outstanding request at a time, a two-rule
// message formatter and the terminal panel that hosts both.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/luki/cardiodash/internal/api"
)

// Speaker identifies who produced a turn.
type Speaker int

const (
	User Speaker = iota
	Bot
)

func (s Speaker) String() string {
	if s == Bot {
		return "CardioBot"
	}
	return "You"
}

// Turn is one entry of the transcript.
type Turn struct {
	Speaker Speaker
	Text    string
}

// Asker answers a single message. *api.Client satisfies it.
type Asker interface {
	Ask(ctx context.Context, message string) (string, error)
}

// Session holds the transcript and the in-flight guard. Sends made while a
// request is outstanding are dropped, not queued.
type Session struct {
	mu      sync.Mutex
	asker   Asker
	turns   []Turn
	pending bool
}

// NewSession creates an empty session answering through a.
func NewSession(a Asker) *Session {
	return &Session{asker: a}
}

// Send runs one full exchange and reports whether text was accepted.
// It blocks until the answer or the error turn has been appended.
func (s *Session) Send(ctx context.Context, text string) bool {
	msg, ok := s.Begin(text)
	if !ok {
		return false
	}
	answer, err := s.asker.Ask(ctx, msg)
	s.Finish(answer, err)
	return true
}

// Begin appends the user turn and marks the session pending. It returns the
// trimmed message to send, or false when the text is blank or a request is
// already in flight.
func (s *Session) Begin(text string) (string, bool) {
	msg := strings.TrimSpace(text)
	if msg == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return "", false
	}
	s.pending = true
	s.turns = append(s.turns, Turn{Speaker: User, Text: msg})
	return msg, true
}

// Finish clears the pending state and appends exactly one bot turn: the
// answer, or the user-facing rendering of err.
func (s *Session) Finish(answer string, err error) Turn {
	t := Turn{Speaker: Bot, Text: answer}
	if err != nil {
		t.Text = ErrorText(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	s.turns = append(s.turns, t)
	return t
}

// Pending reports whether a request is in flight.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Turns returns a copy of the transcript.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// ErrorText turns a failed exchange into the bot's reply.
func ErrorText(err error) string {
	var fe *api.FetchError
	if errors.As(err, &fe) {
		if fe.Message != "" {
			return "❌ Error: " + fe.Message
		}
		return "❌ Error: could not reach the assistant"
	}
	var pe *api.PayloadError
	if errors.As(err, &pe) {
		return "❌ Error: " + pe.Message
	}
	return "❌ Connection error. Please try again."
}
