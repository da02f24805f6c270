package testutil

import "sync"

// Sequencer hands out increasing case numbers starting at 1. Unlike a
// package-level counter it can be rewound, so a suite run twice numbers
// its cases identically.
type Sequencer struct {
	mu  sync.Mutex
	seq int64
}

// NewSequencer returns a sequencer whose first Next is 1.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Next advances and returns the new number.
func (s *Sequencer) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Current returns the last number handed out, 0 before the first Next.
func (s *Sequencer) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset rewinds to 0.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}
