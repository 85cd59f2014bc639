package engine

import (
	"fmt"

	"github.com/braidhq/braid/pkg/ledger"
)

// ValidTransitions defines all allowed thread lifecycle transitions.
// Format: from_status -> []to_statuses
//
// The lifecycle follows this flow:
//
//	Inbox → InProgress, Blocked
//	InProgress → AwaitingResolution, Review, Blocked
//	AwaitingResolution → InProgress, Blocked
//	Review → Done, Blocked
//	Blocked → InProgress
//	Done → (terminal)
var ValidTransitions = map[ledger.ThreadStatus][]ledger.ThreadStatus{
	ledger.StatusInbox:              {ledger.StatusInProgress, ledger.StatusBlocked},
	ledger.StatusInProgress:         {ledger.StatusAwaitingResolution, ledger.StatusReview, ledger.StatusBlocked},
	ledger.StatusAwaitingResolution: {ledger.StatusInProgress, ledger.StatusBlocked},
	ledger.StatusReview:             {ledger.StatusDone, ledger.StatusBlocked},
	ledger.StatusBlocked:            {ledger.StatusInProgress},
	ledger.StatusDone:               {},
}

// IsValidTransition reports whether the lifecycle allows moving a thread
// from one status to another.
func IsValidTransition(from, to ledger.ThreadStatus) bool {
	for _, allowed := range ValidTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether a status has no outgoing transitions.
func IsTerminalStatus(s ledger.ThreadStatus) bool {
	return len(ValidTransitions[s]) == 0
}

// deriveStatus computes the status a thread ends up in after the given
// event is appended. Most events leave the status alone; transitions are
// driven by who authored the event and the signals it carries:
//
//   - first agent-authored event: inbox → in_progress
//   - meta signal "ready_for_review" on an agent event:
//     in_progress → review
//   - meta signal "approved" on a system event: review → done
//     (only when no conflict is attached)
//   - meta signal "blocked" on a system event: any non-done → blocked
//     (a blocked thread accepts a further blocker without a transition)
//
// A signal the current status cannot honor is a guard violation: the
// event is rejected with ErrInvalidTransition and the thread unchanged.
func deriveStatus(t *ledger.Thread, evType ledger.EventType, agentID string, meta map[string]string) (ledger.ThreadStatus, error) {
	if IsTerminalStatus(t.Status) {
		return t.Status, fmt.Errorf("%w: thread %s is %s", ErrInvalidTransition, t.ID, t.Status)
	}

	switch meta[ledger.MetaSignal] {
	case ledger.SignalBlocked:
		if evType != ledger.EventTypeSystem {
			return t.Status, fmt.Errorf("%w: block signal must be a system event", ErrInvalidTransition)
		}
		if t.Status == ledger.StatusBlocked {
			// Re-blocking records the new blocker but is not a transition.
			return t.Status, nil
		}
		return checkTransition(t, ledger.StatusBlocked)

	case ledger.SignalReadyForReview:
		if agentID == "" {
			return t.Status, fmt.Errorf("%w: ready_for_review signal must come from an agent", ErrInvalidTransition)
		}
		if t.Status != ledger.StatusInProgress {
			return t.Status, fmt.Errorf("%w: thread %s is %s, not %s",
				ErrInvalidTransition, t.ID, t.Status, ledger.StatusInProgress)
		}
		return checkTransition(t, ledger.StatusReview)

	case ledger.SignalApproved:
		if evType != ledger.EventTypeSystem {
			return t.Status, fmt.Errorf("%w: approval must be a system event", ErrInvalidTransition)
		}
		if t.Status != ledger.StatusReview {
			return t.Status, fmt.Errorf("%w: thread %s is %s, not %s",
				ErrInvalidTransition, t.ID, t.Status, ledger.StatusReview)
		}
		if t.ActiveConflictID != "" {
			return t.Status, fmt.Errorf("%w: thread %s has an unresolved conflict", ErrInvalidTransition, t.ID)
		}
		return checkTransition(t, ledger.StatusDone)
	}

	if t.Status == ledger.StatusInbox && agentID != "" {
		return checkTransition(t, ledger.StatusInProgress)
	}
	return t.Status, nil
}

func checkTransition(t *ledger.Thread, to ledger.ThreadStatus) (ledger.ThreadStatus, error) {
	if !IsValidTransition(t.Status, to) {
		return t.Status, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, to)
	}
	return to, nil
}
