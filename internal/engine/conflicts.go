package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/braidhq/braid/pkg/ledger"
)

// OptionInput is one caller-supplied candidate resolution for a conflict.
type OptionInput struct {
	AgentID         string
	Description     string
	ExpectedOutcome string
}

// RaiseConflict attaches a new unresolved conflict to a thread and moves
// it to awaiting_resolution. A thread carries at most one unresolved
// conflict: raising while one is active fails with
// ErrConflictAlreadyActive. Conflicts can only be raised on a thread that
// is in_progress.
//
// The conflict's option set is fixed here; a later disagreement is a new
// conflict.
func (e *Engine) RaiseConflict(ctx context.Context, threadID, reason string, options []OptionInput) (*ledger.Conflict, error) {
	unlock, err := e.lockThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	thread, err := e.loadThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.ActiveConflictID != "" {
		return nil, fmt.Errorf("thread %s already has conflict %s: %w",
			threadID, thread.ActiveConflictID, ErrConflictAlreadyActive)
	}
	if thread.Status != ledger.StatusInProgress {
		e.metrics.InvalidTransitions.Inc()
		return nil, fmt.Errorf("%w: conflicts can only be raised on %s threads, thread %s is %s",
			ErrInvalidTransition, ledger.StatusInProgress, threadID, thread.Status)
	}

	now := time.Now().UnixMilli()
	conflict := &ledger.Conflict{
		ID:          uuid.New().String(),
		ThreadID:    threadID,
		Reason:      reason,
		Options:     make([]ledger.Option, 0, len(options)),
		CreatedAtMs: now,
	}
	for _, opt := range options {
		conflict.Options = append(conflict.Options, ledger.Option{
			ID:              uuid.New().String(),
			AgentID:         opt.AgentID,
			Description:     opt.Description,
			ExpectedOutcome: opt.ExpectedOutcome,
		})
	}
	if err := e.store.CreateConflict(ctx, conflict); err != nil {
		return nil, fmt.Errorf("failed to create conflict: %w", err)
	}

	event := &ledger.Event{
		ID:          uuid.New().String(),
		ThreadID:    threadID,
		Type:        ledger.EventTypeConflict,
		Content:     reason,
		Conflict:    conflict,
		CreatedAtMs: now,
	}

	thread.ActiveConflictID = conflict.ID
	if _, err := e.commit(ctx, thread, event, ledger.StatusAwaitingResolution); err != nil {
		return nil, err
	}

	e.metrics.ConflictsRaised.Inc()
	e.log.Info().
		Str("thread_id", threadID).
		Str("conflict_id", conflict.ID).
		Int("options", len(conflict.Options)).
		Msg("conflict raised")
	return conflict, nil
}

// ApproveConflict resolves a conflict by selecting the winning option.
// Resolution is exactly-once: the approval succeeds only while the
// conflict is the thread's active unresolved conflict and the option
// exists. A second approval fails with ErrAlreadyResolved and leaves the
// stored winner unchanged.
//
// Resolution appends a system event recording the decision and unblocks
// the thread: awaiting_resolution moves back to in_progress; a thread
// that was force-blocked in the meantime stays blocked with the conflict
// reference cleared.
func (e *Engine) ApproveConflict(ctx context.Context, actor Actor, threadID, conflictID, optionID string) (*ledger.Conflict, error) {
	if err := e.authorize(actor); err != nil {
		return nil, err
	}

	unlock, err := e.lockThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	thread, err := e.loadThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	conflict, err := e.store.GetConflict(ctx, conflictID)
	if err != nil {
		if ledger.IsNotFound(err) {
			return nil, fmt.Errorf("conflict %s: %w", conflictID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load conflict %s: %w", conflictID, err)
	}
	if conflict.ThreadID != threadID {
		return nil, fmt.Errorf("conflict %s does not belong to thread %s: %w", conflictID, threadID, ErrNotFound)
	}
	if conflict.Resolved {
		if thread.ActiveConflictID == conflictID {
			// An earlier approval persisted the winner but failed before
			// the thread commit landed. Finish that resolution with the
			// stored winner so the thread does not stay stuck in
			// awaiting_resolution; the requested option is ignored.
			winner := conflict.Option(conflict.WinningOptionID)
			if winner == nil {
				return nil, fmt.Errorf("winning option %s on conflict %s: %w",
					conflict.WinningOptionID, conflictID, ErrNotFound)
			}
			e.log.Warn().
				Str("thread_id", threadID).
				Str("conflict_id", conflictID).
				Msg("completing interrupted conflict resolution")
			if err := e.finishResolution(ctx, actor, thread, conflict, winner); err != nil {
				return nil, err
			}
			return conflict, nil
		}
		return nil, fmt.Errorf("conflict %s: %w", conflictID, ErrAlreadyResolved)
	}
	if thread.ActiveConflictID != conflictID {
		// Unresolved but no longer the thread's active conflict: the
		// thread moved under us.
		return nil, fmt.Errorf("conflict %s is not active on thread %s: %w",
			conflictID, threadID, ErrConcurrentModification)
	}

	option := conflict.Option(optionID)
	if option == nil {
		return nil, fmt.Errorf("option %s on conflict %s: %w", optionID, conflictID, ErrNotFound)
	}

	conflict.Resolved = true
	conflict.WinningOptionID = optionID
	conflict.ResolvedAtMs = time.Now().UnixMilli()
	if err := e.store.UpdateConflict(ctx, conflict); err != nil {
		return nil, fmt.Errorf("failed to resolve conflict: %w", err)
	}

	if err := e.finishResolution(ctx, actor, thread, conflict, option); err != nil {
		return nil, err
	}
	return conflict, nil
}

// finishResolution appends the resolution system event, clears the
// thread's conflict reference and unblocks it. The conflict must already
// be persisted as resolved; this is the commit side of an approval, also
// replayed when a prior approval was interrupted between the two writes.
func (e *Engine) finishResolution(ctx context.Context, actor Actor, thread *ledger.Thread, conflict *ledger.Conflict, winner *ledger.Option) error {
	event := &ledger.Event{
		ID:       uuid.New().String(),
		ThreadID: thread.ID,
		Type:     ledger.EventTypeSystem,
		AgentID:  actor.AgentID,
		Content:  fmt.Sprintf("conflict resolved: %s", winner.Description),
		Meta: map[string]string{
			ledger.MetaAction: "resolution",
		},
		CreatedAtMs: time.Now().UnixMilli(),
	}

	next := thread.Status
	if thread.Status == ledger.StatusAwaitingResolution {
		next = ledger.StatusInProgress
	}
	thread.ActiveConflictID = ""
	if _, err := e.commit(ctx, thread, event, next); err != nil {
		return err
	}

	e.metrics.ConflictsResolved.Inc()
	e.log.Info().
		Str("thread_id", thread.ID).
		Str("conflict_id", conflict.ID).
		Str("winning_option_id", conflict.WinningOptionID).
		Msg("conflict resolved")
	return nil
}

// authorize checks the actor against the configured resolution authority.
func (e *Engine) authorize(actor Actor) error {
	switch e.authority {
	case AuthorityOperator:
		if actor.AgentID != "" {
			return fmt.Errorf("agent %s cannot resolve conflicts under the %s policy: %w",
				actor.AgentID, e.authority, ErrNotAuthorized)
		}
	case AuthorityAgent:
		if actor.AgentID == "" {
			return fmt.Errorf("the operator cannot resolve conflicts under the %s policy: %w",
				e.authority, ErrNotAuthorized)
		}
	}
	return nil
}

// RetryAction re-runs a blocked thread: blocked → in_progress, recorded
// as a system event.
func (e *Engine) RetryAction(ctx context.Context, threadID string) (*ledger.Event, error) {
	return e.blockedAction(ctx, threadID, "retry", "operator requested a retry")
}

// AutoFix asks the agents to attempt an automatic fix on a blocked
// thread: blocked → in_progress.
func (e *Engine) AutoFix(ctx context.Context, threadID string) (*ledger.Event, error) {
	return e.blockedAction(ctx, threadID, "auto_fix", "operator requested an automatic fix")
}

// IgnoreIssue dismisses the blocking issue: blocked → in_progress.
func (e *Engine) IgnoreIssue(ctx context.Context, threadID string) (*ledger.Event, error) {
	return e.blockedAction(ctx, threadID, "ignore", "operator dismissed the blocking issue")
}

func (e *Engine) blockedAction(ctx context.Context, threadID, action, content string) (*ledger.Event, error) {
	unlock, err := e.lockThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	thread, err := e.loadThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.Status != ledger.StatusBlocked {
		e.metrics.InvalidTransitions.Inc()
		return nil, fmt.Errorf("%w: %s applies to %s threads, thread %s is %s",
			ErrInvalidTransition, action, ledger.StatusBlocked, threadID, thread.Status)
	}

	event := &ledger.Event{
		ID:       uuid.New().String(),
		ThreadID: threadID,
		Type:     ledger.EventTypeSystem,
		Content:  content,
		Meta: map[string]string{
			ledger.MetaAction: action,
		},
		CreatedAtMs: time.Now().UnixMilli(),
	}
	return e.commit(ctx, thread, event, ledger.StatusInProgress)
}
