// Package testutil holds deterministic helpers shared by the scenario
// harness and tests.
package testutil

import "sync"

// StepClock numbers the steps of a scenario run.
//
// It is separate from the engine's journal clock: a step that fails or
// only reads still takes a step number, so traces stay aligned with the
// scenario file. Reset lets one clock serve repeated runs.
type StepClock struct {
	mu  sync.Mutex
	seq int64
}

// NewStepClock creates a clock whose first Next returns 1.
func NewStepClock() *StepClock {
	return &StepClock{}
}

// Next increments and returns the step number.
func (c *StepClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last step number handed out.
func (c *StepClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
