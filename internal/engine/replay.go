package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/braidhq/braid/pkg/ledger"
)

// Rebuild reconstructs every in-memory projection from the ledger: agent
// metrics, the activity feed, the board cache watermarks and the global
// sequence counter. Thread status and conflict state live in Redis and
// need no rebuilding.
//
// Replay is deterministic: events are applied in GlobalSeq order, the
// same total order the live commit path produced them in, so the rebuilt
// projections are identical to the state before the restart.
//
// Rebuild holds the sequence mutex for its whole run; concurrent commands
// will block rather than interleave with the replay.
func (e *Engine) Rebuild(ctx context.Context) error {
	e.seqMu.Lock()
	defer e.seqMu.Unlock()

	e.registry.ResetMetrics()
	e.feed.Reset()
	e.boards.Purge()
	e.globalSeq = 0
	e.watermarks = make(map[string]int64)

	moduleIDs, err := e.store.ListModuleIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list modules for replay: %w", err)
	}
	sort.Strings(moduleIDs)

	type placed struct {
		event    *ledger.Event
		moduleID string
	}
	var all []placed

	for _, moduleID := range moduleIDs {
		threadIDs, err := e.store.ListThreadIDs(ctx, moduleID)
		if err != nil {
			return fmt.Errorf("failed to list threads for module %s: %w", moduleID, err)
		}
		sort.Strings(threadIDs)

		for _, threadID := range threadIDs {
			thread, err := e.store.GetThread(ctx, threadID)
			if err != nil {
				return fmt.Errorf("failed to load thread %s for replay: %w", threadID, err)
			}
			if thread.UpdatedSeq > e.watermarks[moduleID] {
				e.watermarks[moduleID] = thread.UpdatedSeq
			}

			events, err := e.store.ListEvents(ctx, threadID)
			if err != nil {
				return fmt.Errorf("failed to load events for thread %s: %w", threadID, err)
			}
			for _, event := range events {
				all = append(all, placed{event: event, moduleID: moduleID})
			}
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].event.GlobalSeq < all[j].event.GlobalSeq
	})

	for _, p := range all {
		e.project(p.event, p.moduleID, false)
		if p.event.GlobalSeq > e.globalSeq {
			e.globalSeq = p.event.GlobalSeq
		}
	}

	e.log.Info().
		Int("events", len(all)).
		Int64("global_seq", e.globalSeq).
		Msg("projections rebuilt from ledger")
	return nil
}
