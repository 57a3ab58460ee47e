package graph

import "sync/atomic"

// FirstNodeSeq is the sequence number of the first node a default Builder
// creates. Identities therefore start at "obj100".
const FirstNodeSeq = 100

// Clock is a monotonic logical counter used to assign node identities.
//
// Every node is stamped with a strictly increasing seq from this clock, which
// gives a total order consistent with construction order. A node can only
// depend on nodes that already exist, so dependencies always carry a smaller
// seq than their dependents.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next() returns FirstNodeSeq.
func NewClock() *Clock {
	return NewClockAt(FirstNodeSeq - 1)
}

// NewClockAt creates a clock starting at a specific sequence number.
// The first call to Next() returns start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
