// Package ledger provides type-safe Go definitions and Redis schema patterns
// for the Braid event ledger.
//
// # Overview
//
// The ledger is the source of truth for all Braid state. Every piece of
// agent work is recorded as an immutable Event appended to a Thread's
// ordered log; Conflicts, resolutions and lifecycle signals are events like
// any other. Projections - the kanban board, the activity feed, agent
// scorecards - are derived views that can always be rebuilt by replaying
// the per-thread logs from empty state.
//
// # Core concepts
//
// Threads are units of agentic work with a lifecycle status. Threads are
// never deleted; completed work transitions to the terminal "done" status
// and is retained for audit.
//
// Events are append-only records with a strictly increasing per-thread
// sequence number. Once written, an event is never mutated.
//
// Conflicts are disagreements between agents attached to a thread, each
// carrying a fixed set of candidate Options. A thread has at most one
// unresolved conflict at a time, and resolution is one-way.
//
// # Multi-workspace support
//
// All Redis keys and Pub/Sub channels are namespaced by workspace name so
// multiple Braid workspaces can coexist on a single Redis server with
// complete isolation of data and events.
//
// # Redis schema
//
// All keys follow the pattern: braid:{workspace}:{entity}:{uuid}
//
//	Workspace:   braid:{workspace}:workspace
//	Modules:     braid:{workspace}:module:{module_id}
//	Threads:     braid:{workspace}:thread:{thread_id}
//	Thread logs: braid:{workspace}:thread:{thread_id}:events (ZSET by seq)
//	Events:      braid:{workspace}:event:{event_id}
//	Conflicts:   braid:{workspace}:conflict:{conflict_id}
//	Agents:      braid:{workspace}:agent:{agent_id}
//
// Appended events are additionally published on the Pub/Sub channel
// braid:{workspace}:thread_events for live consumers (activity pipeline,
// CLI watch). Pub/Sub delivery is at-most-once; consumers that need
// completeness replay the per-thread logs.
//
// # Design principles
//
//   - Type safety: all structures carry validation methods enforced at
//     every write boundary
//   - Immutability: events are append-only
//   - Auditability: threads and conflicts are retained, never deleted
//   - Isolation: workspace namespacing prevents cross-workspace interference
package ledger
