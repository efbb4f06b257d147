package testutil

import (
	"fmt"
	"sync"
)

// SessionSequence mints numbered session tokens: "<prefix>-1",
// "<prefix>-2", and so on. Unlike engine.FixedGenerator it never runs out,
// so a scenario can reopen the engine any number of times.
//
// Safe for concurrent use.
type SessionSequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSessionSequence creates a sequence. An empty prefix means "session".
func NewSessionSequence(prefix string) *SessionSequence {
	if prefix == "" {
		prefix = "session"
	}
	return &SessionSequence{prefix: prefix}
}

// Generate returns the next token. Implements engine.SessionGenerator.
func (s *SessionSequence) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}
