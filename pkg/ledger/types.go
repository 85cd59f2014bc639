// Package ledger provides type-safe Go definitions and Redis schema patterns
// for the Braid event ledger. The ledger is the authoritative record of all
// agent work: every message, system notice, conflict and resolution is an
// immutable event appended to a thread's ordered log, and every projection
// (kanban board, activity feed, agent scorecards) is derived from it.
//
// All Redis keys and channels are namespaced by workspace name to enable
// multiple Braid workspaces to safely coexist on a single Redis server.
package ledger

import (
	"fmt"

	"github.com/google/uuid"
)

// ThreadStatus is the lifecycle state of a thread.
// Transitions between statuses are enforced by the engine's state machine;
// the ledger only validates membership in the defined set.
type ThreadStatus string

const (
	// StatusInbox is the initial state of every thread.
	StatusInbox ThreadStatus = "inbox"

	// StatusInProgress indicates at least one agent has started work.
	StatusInProgress ThreadStatus = "in_progress"

	// StatusAwaitingResolution indicates an unresolved conflict is attached.
	StatusAwaitingResolution ThreadStatus = "awaiting_resolution"

	// StatusReview indicates work is ready for a human check.
	StatusReview ThreadStatus = "review"

	// StatusBlocked indicates an explicit block signal (e.g. validation failure).
	StatusBlocked ThreadStatus = "blocked"

	// StatusDone is the terminal state. Threads are retained for audit, never deleted.
	StatusDone ThreadStatus = "done"
)

// Priority is the scheduling priority of a thread.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns the sort weight of a priority. Higher sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// EventType classifies an event in a thread's log.
type EventType string

const (
	// EventTypeMessage is an agent- or operator-authored message.
	EventTypeMessage EventType = "message"

	// EventTypeSystem is an engine- or operator-generated notice
	// (block signals, approvals, resolution records, retry actions).
	EventTypeSystem EventType = "system"

	// EventTypeConflict carries an embedded Conflict raised between agents.
	EventTypeConflict EventType = "conflict"
)

// AgentStatus is the liveness status of an agent.
type AgentStatus string

const (
	AgentStatusOnline  AgentStatus = "online"
	AgentStatusIdle    AgentStatus = "idle"
	AgentStatusOffline AgentStatus = "offline"
)

// Well-known Meta keys. Meta is free-form, but these keys carry domain
// signals the engine acts on when deriving lifecycle transitions and
// agent metrics.
const (
	// MetaSignal marks an event as a lifecycle signal. See Signal* values.
	MetaSignal = "signal"

	// MetaLatencyMs reports the wall-clock latency of the task the event
	// concludes, in milliseconds. Feeds the agent registry.
	MetaLatencyMs = "latency_ms"

	// MetaOutcome reports task success or failure. Feeds the agent registry.
	MetaOutcome = "outcome"

	// MetaAction names the operator action that produced a system event
	// (retry, auto_fix, ignore, resolution).
	MetaAction = "action"
)

// Signal values for MetaSignal.
const (
	SignalReadyForReview = "ready_for_review"
	SignalApproved       = "approved"
	SignalBlocked        = "blocked"
)

// Outcome values for MetaOutcome.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Workspace is the top-level tenant. Created at provisioning time;
// identity is immutable.
type Workspace struct {
	ID          string `json:"id"`            // UUID
	Name        string `json:"name"`          // Human-readable workspace name
	CreatedAtMs int64  `json:"created_at_ms"` // Unix timestamp in milliseconds
}

// Module is a named functional area (e.g. SEO, content) within a workspace.
// Modules exclusively own their threads. The active-thread count is derived
// at query time and never stored.
type Module struct {
	ID          string `json:"id"`           // UUID
	WorkspaceID string `json:"workspace_id"` // UUID of the owning workspace
	Name        string `json:"name"`         // Display name, e.g. "SEO"
	Kind        string `json:"kind"`         // Domain kind, e.g. "seo", "content", "social", "launch_ops"
	CreatedAtMs int64  `json:"created_at_ms"`
}

// Thread is a unit of agentic work. Threads are mutated only through the
// engine's per-thread serialized command path and transition to StatusDone
// rather than being deleted.
type Thread struct {
	ID               string       `json:"id"`                 // UUID
	ModuleID         string       `json:"module_id"`          // UUID of the owning module
	Title            string       `json:"title"`              // Short work-item title
	Objective        string       `json:"objective"`          // What the thread is trying to achieve
	Status           ThreadStatus `json:"status"`             // Current lifecycle state
	Priority         Priority     `json:"priority"`           // high / medium / low
	ActiveConflictID string       `json:"active_conflict_id"` // UUID of the unresolved conflict, empty if none
	LastSeq          int64        `json:"last_seq"`           // Highest event sequence number appended
	UpdatedSeq       int64        `json:"updated_seq"`        // Workspace-global sequence stamp of the last mutation
	CreatedAtMs      int64        `json:"created_at_ms"`
}

// Event is an immutable, append-only record in a thread's log.
// Sequence numbers are strictly increasing per thread with no gaps;
// once written an event is never mutated.
type Event struct {
	ID        string `json:"id"`         // UUID
	ThreadID  string `json:"thread_id"`  // UUID of the owning thread
	Seq       int64  `json:"seq"`        // Monotonic per-thread sequence number (starts at 1)
	GlobalSeq int64  `json:"global_seq"` // Workspace-global sequence assigned at append; total order for replay

	Type        EventType         `json:"type"`                  // message | system | conflict
	AgentID     string            `json:"agent_id,omitempty"`    // UUID of the originating agent, empty for engine/operator events
	Content     string            `json:"content"`               // Main content
	LogicChain  []string          `json:"logic_chain,omitempty"` // Ordered reasoning steps
	Meta        map[string]string `json:"meta,omitempty"`        // Structured signals, see Meta* keys
	Conflict    *Conflict         `json:"conflict,omitempty"`    // Only on conflict-typed events
	CreatedAtMs int64             `json:"created_at_ms"`
}

// Conflict is an unresolved disagreement between agents attached to exactly
// one thread. Resolution is one-way: once resolved, never un-resolved.
// Options are fixed at creation; a new disagreement creates a new conflict.
type Conflict struct {
	ID              string   `json:"id"`        // UUID
	ThreadID        string   `json:"thread_id"` // UUID of the thread this conflict is attached to
	Reason          string   `json:"reason"`    // Why the agents disagree
	Options         []Option `json:"options"`   // Candidate resolutions, fixed at creation
	Resolved        bool     `json:"resolved"`
	WinningOptionID string   `json:"winning_option_id,omitempty"` // Set once resolved
	CreatedAtMs     int64    `json:"created_at_ms"`
	ResolvedAtMs    int64    `json:"resolved_at_ms,omitempty"` // Set once resolved
}

// Option is one candidate resolution for a conflict, proposed by one agent.
type Option struct {
	ID              string `json:"id"`       // UUID
	AgentID         string `json:"agent_id"` // UUID of the proposing agent
	Description     string `json:"description"`
	ExpectedOutcome string `json:"expected_outcome,omitempty"`
}

// Agent is an autonomous actor that emits events. Agents are referenced by
// events across many threads; the ledger never owns them. Rolling
// performance metrics live in the engine's registry, not here.
type Agent struct {
	ID          string      `json:"id"`     // UUID
	Name        string      `json:"name"`   // Display name, e.g. "briefwright"
	Role        string      `json:"role"`   // Functional role, e.g. "seo-analyst"
	Avatar      string      `json:"avatar"` // Avatar reference for the dashboard
	Status      AgentStatus `json:"status"`
	CreatedAtMs int64       `json:"created_at_ms"`
}

// Validate checks if the Workspace has valid field values.
func (w *Workspace) Validate() error {
	if !isValidUUID(w.ID) {
		return fmt.Errorf("invalid workspace ID: not a valid UUID")
	}
	if w.Name == "" {
		return fmt.Errorf("workspace name cannot be empty")
	}
	return nil
}

// Validate checks if the Module has valid field values.
func (m *Module) Validate() error {
	if !isValidUUID(m.ID) {
		return fmt.Errorf("invalid module ID: not a valid UUID")
	}
	if !isValidUUID(m.WorkspaceID) {
		return fmt.Errorf("invalid workspace ID: not a valid UUID")
	}
	if m.Name == "" {
		return fmt.Errorf("module name cannot be empty")
	}
	return nil
}

// Validate checks if the Thread has valid field values.
func (t *Thread) Validate() error {
	if !isValidUUID(t.ID) {
		return fmt.Errorf("invalid thread ID: not a valid UUID")
	}
	if !isValidUUID(t.ModuleID) {
		return fmt.Errorf("invalid module ID: not a valid UUID")
	}
	if t.Title == "" {
		return fmt.Errorf("thread title cannot be empty")
	}
	if err := t.Status.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}
	if err := t.Priority.Validate(); err != nil {
		return fmt.Errorf("invalid priority: %w", err)
	}
	if t.ActiveConflictID != "" && !isValidUUID(t.ActiveConflictID) {
		return fmt.Errorf("invalid active conflict ID: not a valid UUID")
	}
	if t.LastSeq < 0 {
		return fmt.Errorf("invalid last_seq: must be >= 0, got %d", t.LastSeq)
	}
	return nil
}

// Validate checks if the ThreadStatus is a valid enum value.
func (s ThreadStatus) Validate() error {
	switch s {
	case StatusInbox, StatusInProgress, StatusAwaitingResolution,
		StatusReview, StatusBlocked, StatusDone:
		return nil
	default:
		return fmt.Errorf("unknown thread status: %q", s)
	}
}

// Validate checks if the Priority is a valid enum value.
func (p Priority) Validate() error {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return nil
	default:
		return fmt.Errorf("unknown priority: %q", p)
	}
}

// Validate checks if the Event has valid field values.
// Conflict-typed events must embed a valid conflict for the same thread;
// other event types must not embed one. This is the ingestion boundary
// that keeps malformed conflict payloads out of the log.
func (e *Event) Validate() error {
	if !isValidUUID(e.ID) {
		return fmt.Errorf("invalid event ID: not a valid UUID")
	}
	if !isValidUUID(e.ThreadID) {
		return fmt.Errorf("invalid thread ID: not a valid UUID")
	}
	if e.Seq < 1 {
		return fmt.Errorf("invalid seq: must be >= 1, got %d", e.Seq)
	}
	if e.GlobalSeq < 1 {
		return fmt.Errorf("invalid global_seq: must be >= 1, got %d", e.GlobalSeq)
	}
	if err := e.Type.Validate(); err != nil {
		return fmt.Errorf("invalid event type: %w", err)
	}
	if e.AgentID != "" && !isValidUUID(e.AgentID) {
		return fmt.Errorf("invalid agent ID: not a valid UUID")
	}

	switch e.Type {
	case EventTypeConflict:
		if e.Conflict == nil {
			return fmt.Errorf("conflict event must embed a conflict")
		}
		if err := e.Conflict.Validate(); err != nil {
			return fmt.Errorf("invalid embedded conflict: %w", err)
		}
		if e.Conflict.ThreadID != e.ThreadID {
			return fmt.Errorf("embedded conflict belongs to thread %s, event belongs to %s",
				e.Conflict.ThreadID, e.ThreadID)
		}
	default:
		if e.Conflict != nil {
			return fmt.Errorf("%s event must not embed a conflict", e.Type)
		}
	}

	return nil
}

// Validate checks if the EventType is a valid enum value.
func (et EventType) Validate() error {
	switch et {
	case EventTypeMessage, EventTypeSystem, EventTypeConflict:
		return nil
	default:
		return fmt.Errorf("unknown event type: %q", et)
	}
}

// Validate checks if the Conflict has valid field values.
// A conflict needs at least two options (one position is not a
// disagreement), each option must be valid, and option IDs must be unique.
func (c *Conflict) Validate() error {
	if !isValidUUID(c.ID) {
		return fmt.Errorf("invalid conflict ID: not a valid UUID")
	}
	if !isValidUUID(c.ThreadID) {
		return fmt.Errorf("invalid thread ID: not a valid UUID")
	}
	if c.Reason == "" {
		return fmt.Errorf("conflict reason cannot be empty")
	}
	if len(c.Options) < 2 {
		return fmt.Errorf("conflict requires at least 2 options, got %d", len(c.Options))
	}

	seen := make(map[string]bool, len(c.Options))
	for i := range c.Options {
		if err := c.Options[i].Validate(); err != nil {
			return fmt.Errorf("invalid option at index %d: %w", i, err)
		}
		if seen[c.Options[i].ID] {
			return fmt.Errorf("duplicate option ID: %s", c.Options[i].ID)
		}
		seen[c.Options[i].ID] = true
	}

	if c.Resolved {
		if !seen[c.WinningOptionID] {
			return fmt.Errorf("winning option %q is not one of the conflict's options", c.WinningOptionID)
		}
	} else if c.WinningOptionID != "" {
		return fmt.Errorf("unresolved conflict must not have a winning option")
	}

	return nil
}

// Option returns the option with the given ID, or nil if absent.
func (c *Conflict) Option(optionID string) *Option {
	for i := range c.Options {
		if c.Options[i].ID == optionID {
			return &c.Options[i]
		}
	}
	return nil
}

// Validate checks if the Option has valid field values.
func (o *Option) Validate() error {
	if !isValidUUID(o.ID) {
		return fmt.Errorf("invalid option ID: not a valid UUID")
	}
	if !isValidUUID(o.AgentID) {
		return fmt.Errorf("invalid agent ID: not a valid UUID")
	}
	if o.Description == "" {
		return fmt.Errorf("option description cannot be empty")
	}
	return nil
}

// Validate checks if the Agent has valid field values.
func (a *Agent) Validate() error {
	if !isValidUUID(a.ID) {
		return fmt.Errorf("invalid agent ID: not a valid UUID")
	}
	if a.Name == "" {
		return fmt.Errorf("agent name cannot be empty")
	}
	if a.Role == "" {
		return fmt.Errorf("agent role cannot be empty")
	}
	if err := a.Status.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}
	return nil
}

// Validate checks if the AgentStatus is a valid enum value.
func (as AgentStatus) Validate() error {
	switch as {
	case AgentStatusOnline, AgentStatusIdle, AgentStatusOffline:
		return nil
	default:
		return fmt.Errorf("unknown agent status: %q", as)
	}
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
