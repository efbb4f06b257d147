package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/extvars/internal/engine"
)

var _ engine.SessionGenerator = (*SessionSequence)(nil)

func TestSessionSequence_Numbers(t *testing.T) {
	seq := NewSessionSequence("scn")

	assert.Equal(t, "scn-1", seq.Generate())
	assert.Equal(t, "scn-2", seq.Generate())
	assert.Equal(t, "scn-3", seq.Generate())
}

func TestSessionSequence_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "session-1", NewSessionSequence("").Generate())
}

func TestSessionSequence_ThreadSafe(t *testing.T) {
	seq := NewSessionSequence("p")

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tok := seq.Generate()
				mu.Lock()
				seen[tok] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 500, "every token is unique")
}
