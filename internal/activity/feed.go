// Package activity maintains the workspace-scoped recent-events view:
// a bounded, newest-first buffer of the most recent events across all
// threads, fed by independent producers through bounded queues into a
// single serialized consumer.
package activity

import (
	"sync"
	"time"

	"github.com/braidhq/braid/pkg/ledger"
)

// DefaultCapacity is the feed capacity used when none is configured.
const DefaultCapacity = 50

// Entry is one record in the activity feed.
//
// Seq is a monotonic global sequence number so recency ordering is stable
// even under clock skew between producers. InsertedAt exists only so
// readers can project a relative age ("2m ago"); it is never used for
// ordering.
type Entry struct {
	Seq        int64
	EventID    string
	ThreadID   string
	ModuleID   string
	Type       ledger.EventType
	AgentID    string
	Content    string
	InsertedAt time.Time
}

// Age returns the display-relative age of the entry at the given instant.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.InsertedAt)
}

// Feed is a bounded buffer of the most recent entries, newest first.
// Entries are held sorted by sequence number, not by arrival: producers
// behind the pipeline race each other, so a lower-sequence entry may
// arrive after a higher one and must still land in its proper slot.
// At capacity the lowest-sequence entry is evicted. Safe for concurrent
// use, though in normal operation a single consumer performs all inserts.
type Feed struct {
	mu       sync.Mutex
	capacity int
	nextSeq  int64
	entries  []Entry // ascending by Seq
	evicted  int64
}

// NewFeed creates a feed with the given capacity.
// Non-positive capacities fall back to DefaultCapacity.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		capacity: capacity,
		entries:  make([]Entry, 0, capacity),
	}
}

// Insert adds an entry in sequence order, evicting the lowest-sequence
// entry if the feed is at capacity. If the entry carries no sequence
// number, one is assigned from the feed's own monotonic counter; entries
// arriving with a sequence (the engine's global sequence) advance that
// counter. Returns the stored entry.
func (f *Feed) Insert(e Entry) Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	if e.Seq == 0 {
		f.nextSeq++
		e.Seq = f.nextSeq
	} else if e.Seq > f.nextSeq {
		f.nextSeq = e.Seq
	}
	if e.InsertedAt.IsZero() {
		e.InsertedAt = time.Now()
	}

	if len(f.entries) == f.capacity {
		if e.Seq < f.entries[0].Seq {
			// Older than everything held: it would be evicted immediately.
			f.evicted++
			return e
		}
		f.entries = f.entries[:copy(f.entries, f.entries[1:])]
		f.evicted++
	}

	// Producers deliver near-ordered, so scan from the newest end.
	pos := len(f.entries)
	for pos > 0 && f.entries[pos-1].Seq > e.Seq {
		pos--
	}
	f.entries = append(f.entries, Entry{})
	copy(f.entries[pos+1:], f.entries[pos:])
	f.entries[pos] = e
	return e
}

// Recent returns up to limit entries, newest first by sequence.
// A non-positive or oversized limit returns everything held.
func (f *Feed) Recent(limit int) []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	if limit <= 0 || limit > len(f.entries) {
		limit = len(f.entries)
	}
	out := make([]Entry, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, f.entries[len(f.entries)-1-i])
	}
	return out
}

// Len returns the number of entries currently held.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Capacity returns the configured capacity.
func (f *Feed) Capacity() int {
	return f.capacity
}

// Evicted returns the total number of entries evicted by capacity pressure.
func (f *Feed) Evicted() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.evicted
}

// Reset clears the feed. Used before replaying the event ledger.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = f.entries[:0]
	f.nextSeq = 0
	f.evicted = 0
}
