// Package kanban derives the status-grouped board view of a module's
// threads. The projection is a pure function of the threads themselves:
// it holds no state of its own and can always be recomputed from the
// ledger, so it can never drift from the source of truth.
package kanban

import (
	"fmt"
	"sort"

	"github.com/braidhq/braid/pkg/ledger"
)

// TieBreak selects the secondary sort key applied after priority and
// recency. Configurable policy rather than a guess at operator intent.
type TieBreak string

const (
	// TieBreakUpdated orders ties by thread ID for a stable board.
	TieBreakUpdated TieBreak = "updated"

	// TieBreakTitle orders ties alphabetically by title.
	TieBreakTitle TieBreak = "title"
)

// Validate checks if the TieBreak is a valid enum value.
func (tb TieBreak) Validate() error {
	switch tb {
	case TieBreakUpdated, TieBreakTitle:
		return nil
	default:
		return fmt.Errorf("unknown tie break: %q", tb)
	}
}

// Column is one status-grouped, ordered slice of a module's board.
// The Blocked column carries both blocked and awaiting-resolution threads;
// items keep their true status so the dashboard can badge them apart.
type Column struct {
	Key      string
	Title    string
	Statuses []ledger.ThreadStatus
	Count    int
	Threads  []*ledger.Thread
}

// columnLayout is the fixed board shape. Order matters: it is the
// left-to-right rendering order.
var columnLayout = []struct {
	key      string
	title    string
	statuses []ledger.ThreadStatus
}{
	{"inbox", "Inbox", []ledger.ThreadStatus{ledger.StatusInbox}},
	{"in_progress", "In Progress", []ledger.ThreadStatus{ledger.StatusInProgress}},
	{"blocked", "Blocked / Awaiting Resolution", []ledger.ThreadStatus{ledger.StatusBlocked, ledger.StatusAwaitingResolution}},
	{"review", "Review", []ledger.ThreadStatus{ledger.StatusReview}},
	{"done", "Done", []ledger.ThreadStatus{ledger.StatusDone}},
}

// Project groups threads into the fixed board columns.
// Ordering within a column: priority descending (high > medium > low),
// ties broken by most-recent update first, then by the configured
// secondary key. The input slice is not modified.
func Project(threads []*ledger.Thread, tieBreak TieBreak) []Column {
	byStatus := make(map[ledger.ThreadStatus][]*ledger.Thread, len(threads))
	for _, t := range threads {
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}

	columns := make([]Column, 0, len(columnLayout))
	for _, layout := range columnLayout {
		var items []*ledger.Thread
		for _, status := range layout.statuses {
			items = append(items, byStatus[status]...)
		}
		sortThreads(items, tieBreak)

		columns = append(columns, Column{
			Key:      layout.key,
			Title:    layout.title,
			Statuses: layout.statuses,
			Count:    len(items),
			Threads:  items,
		})
	}
	return columns
}

func sortThreads(items []*ledger.Thread, tieBreak TieBreak) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		if a.UpdatedSeq != b.UpdatedSeq {
			return a.UpdatedSeq > b.UpdatedSeq
		}
		if tieBreak == TieBreakTitle && a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
}
