package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/braidhq/braid/internal/activity"
	"github.com/braidhq/braid/internal/kanban"
	"github.com/braidhq/braid/internal/registry"
	"github.com/braidhq/braid/pkg/ledger"
)

// ModuleSummary pairs a module with its derived active-thread count. The
// count covers every thread not yet done and is computed at query time,
// never stored.
type ModuleSummary struct {
	Module        *ledger.Module
	ActiveThreads int
}

// WorkspaceSnapshot is the dashboard's top-level view.
type WorkspaceSnapshot struct {
	Workspace *ledger.Workspace
	Modules   []ModuleSummary
	Agents    []registry.Snapshot
}

// ModuleSnapshot is one module's board view.
type ModuleSnapshot struct {
	Module        *ledger.Module
	ActiveThreads int
	Columns       []kanban.Column
}

// ThreadSnapshot is one thread's detail view: the thread, its full event
// log in sequence order, and the active conflict if one is attached.
type ThreadSnapshot struct {
	Thread   *ledger.Thread
	Events   []*ledger.Event
	Conflict *ledger.Conflict
}

// GetWorkspace returns the workspace, its modules (sorted by name) with
// derived thread counts, and agent scorecards.
func (e *Engine) GetWorkspace(ctx context.Context) (*WorkspaceSnapshot, error) {
	workspace, err := e.store.GetWorkspace(ctx)
	if err != nil {
		if ledger.IsNotFound(err) {
			return nil, fmt.Errorf("workspace: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}

	moduleIDs, err := e.store.ListModuleIDs(ctx)
	if err != nil {
		return nil, err
	}

	modules := make([]ModuleSummary, 0, len(moduleIDs))
	for _, id := range moduleIDs {
		module, err := e.store.GetModule(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load module %s: %w", id, err)
		}
		threads, err := e.loadModuleThreads(ctx, id)
		if err != nil {
			return nil, err
		}
		modules = append(modules, ModuleSummary{
			Module:        module,
			ActiveThreads: countActive(threads),
		})
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Module.Name != modules[j].Module.Name {
			return modules[i].Module.Name < modules[j].Module.Name
		}
		return modules[i].Module.ID < modules[j].Module.ID
	})

	return &WorkspaceSnapshot{
		Workspace: workspace,
		Modules:   modules,
		Agents:    e.registry.Snapshots(),
	}, nil
}

// GetModule returns a module's snapshot with its kanban columns. The board
// is served from the watermark cache: it is recomputed only when the
// module has mutated since it was last projected.
func (e *Engine) GetModule(ctx context.Context, moduleID string) (*ModuleSnapshot, error) {
	module, err := e.store.GetModule(ctx, moduleID)
	if err != nil {
		if ledger.IsNotFound(err) {
			return nil, fmt.Errorf("module %s: %w", moduleID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load module %s: %w", moduleID, err)
	}

	e.seqMu.Lock()
	watermark := e.watermarks[moduleID]
	e.seqMu.Unlock()

	var active int
	columns, err := e.boards.Columns(moduleID, watermark, func() ([]*ledger.Thread, error) {
		return e.loadModuleThreads(ctx, moduleID)
	})
	if err != nil {
		return nil, err
	}
	for _, column := range columns {
		for _, thread := range column.Threads {
			if thread.Status != ledger.StatusDone {
				active++
			}
		}
	}

	return &ModuleSnapshot{
		Module:        module,
		ActiveThreads: active,
		Columns:       columns,
	}, nil
}

// GetThread returns a thread with its ordered event log and active
// conflict.
func (e *Engine) GetThread(ctx context.Context, threadID string) (*ThreadSnapshot, error) {
	thread, err := e.loadThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	events, err := e.store.ListEvents(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for thread %s: %w", threadID, err)
	}

	snapshot := &ThreadSnapshot{Thread: thread, Events: events}
	if thread.ActiveConflictID != "" {
		conflict, err := e.store.GetConflict(ctx, thread.ActiveConflictID)
		if err != nil {
			return nil, fmt.Errorf("failed to load conflict %s: %w", thread.ActiveConflictID, err)
		}
		snapshot.Conflict = conflict
	}
	return snapshot, nil
}

// GetActivityFeed returns up to limit feed entries, newest first.
func (e *Engine) GetActivityFeed(limit int) []activity.Entry {
	return e.feed.Recent(limit)
}

// GetAgent returns one agent's scorecard.
func (e *Engine) GetAgent(agentID string) (registry.Snapshot, error) {
	snapshot, ok := e.registry.Snapshot(agentID)
	if !ok {
		return registry.Snapshot{}, fmt.Errorf("agent %s: %w", agentID, ErrNotFound)
	}
	return snapshot, nil
}

// loadModuleThreads fetches every thread of a module in stable ID order.
func (e *Engine) loadModuleThreads(ctx context.Context, moduleID string) ([]*ledger.Thread, error) {
	ids, err := e.store.ListThreadIDs(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)

	threads := make([]*ledger.Thread, 0, len(ids))
	for _, id := range ids {
		thread, err := e.store.GetThread(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load thread %s: %w", id, err)
		}
		threads = append(threads, thread)
	}
	return threads, nil
}

func countActive(threads []*ledger.Thread) int {
	n := 0
	for _, t := range threads {
		if t.Status != ledger.StatusDone {
			n++
		}
	}
	return n
}
