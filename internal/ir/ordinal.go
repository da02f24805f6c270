package ir

import "sync/atomic"

// Ordinals hands out strictly increasing node ordinals.
//
// Ordinals give nodes and scopes a stable identity for ordering inside
// persistent maps and for dumps. They never take part in structural
// comparison.
//
// Thread-safety: Ordinals is safe for concurrent use (atomic operations).
// Nodes of one tree are always built on one goroutine; distinct trees may be
// built concurrently.
type Ordinals struct {
	seq atomic.Int64
}

// NewOrdinals creates a counter starting at 0.
func NewOrdinals() *Ordinals {
	return &Ordinals{}
}

// Next returns the next ordinal.
func (o *Ordinals) Next() int64 {
	return o.seq.Add(1)
}

// Current returns the last ordinal handed out.
func (o *Ordinals) Current() int64 {
	return o.seq.Load()
}

// ordinals is the process-wide counter used by every factory.
var ordinals = NewOrdinals()

func nextOrdinal() int64 { return ordinals.Next() }

// LastOrdinal returns the most recently assigned ordinal. Tests use it to
// check that factories allocate nodes in construction order.
func LastOrdinal() int64 { return ordinals.Current() }
