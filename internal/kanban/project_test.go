package kanban

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braidhq/braid/pkg/ledger"
)

func thread(title string, status ledger.ThreadStatus, priority ledger.Priority, updatedSeq int64) *ledger.Thread {
	return &ledger.Thread{
		ID:         uuid.New().String(),
		ModuleID:   uuid.New().String(),
		Title:      title,
		Status:     status,
		Priority:   priority,
		UpdatedSeq: updatedSeq,
	}
}

func columnByKey(t *testing.T, columns []Column, key string) Column {
	t.Helper()
	for _, c := range columns {
		if c.Key == key {
			return c
		}
	}
	t.Fatalf("no column with key %q", key)
	return Column{}
}

func TestProjectOneThreadPerStatus(t *testing.T) {
	threads := []*ledger.Thread{
		thread("a", ledger.StatusInbox, ledger.PriorityMedium, 1),
		thread("b", ledger.StatusInProgress, ledger.PriorityMedium, 2),
		thread("c", ledger.StatusReview, ledger.PriorityMedium, 3),
		thread("d", ledger.StatusBlocked, ledger.PriorityMedium, 4),
		thread("e", ledger.StatusDone, ledger.PriorityMedium, 5),
	}

	columns := Project(threads, TieBreakUpdated)
	require.Len(t, columns, 5)

	for _, want := range []struct {
		key   string
		title string
	}{
		{"inbox", "a"},
		{"in_progress", "b"},
		{"review", "c"},
		{"blocked", "d"},
		{"done", "e"},
	} {
		col := columnByKey(t, columns, want.key)
		require.Equal(t, 1, col.Count, "column %s", want.key)
		assert.Equal(t, want.title, col.Threads[0].Title)
	}
}

func TestProjectAwaitingResolutionSharesBlockedColumn(t *testing.T) {
	threads := []*ledger.Thread{
		thread("stuck", ledger.StatusBlocked, ledger.PriorityLow, 1),
		thread("contested", ledger.StatusAwaitingResolution, ledger.PriorityLow, 2),
	}

	columns := Project(threads, TieBreakUpdated)
	blocked := columnByKey(t, columns, "blocked")
	assert.Equal(t, 2, blocked.Count)

	// Items keep their true status inside the shared column.
	statuses := []ledger.ThreadStatus{blocked.Threads[0].Status, blocked.Threads[1].Status}
	assert.Contains(t, statuses, ledger.StatusBlocked)
	assert.Contains(t, statuses, ledger.StatusAwaitingResolution)
}

func TestProjectOrdering(t *testing.T) {
	low := thread("low-recent", ledger.StatusInProgress, ledger.PriorityLow, 90)
	high := thread("high-old", ledger.StatusInProgress, ledger.PriorityHigh, 10)
	medNew := thread("med-new", ledger.StatusInProgress, ledger.PriorityMedium, 50)
	medOld := thread("med-old", ledger.StatusInProgress, ledger.PriorityMedium, 20)

	columns := Project([]*ledger.Thread{low, medOld, high, medNew}, TieBreakUpdated)
	inProgress := columnByKey(t, columns, "in_progress")

	titles := make([]string, 0, inProgress.Count)
	for _, item := range inProgress.Threads {
		titles = append(titles, item.Title)
	}
	// Priority descending first, then most-recent update first.
	assert.Equal(t, []string{"high-old", "med-new", "med-old", "low-recent"}, titles)
}

func TestProjectTitleTieBreak(t *testing.T) {
	a := thread("zeta", ledger.StatusInbox, ledger.PriorityHigh, 7)
	b := thread("alpha", ledger.StatusInbox, ledger.PriorityHigh, 7)

	columns := Project([]*ledger.Thread{a, b}, TieBreakTitle)
	inbox := columnByKey(t, columns, "inbox")
	assert.Equal(t, "alpha", inbox.Threads[0].Title)
	assert.Equal(t, "zeta", inbox.Threads[1].Title)
}

func TestTieBreakValidate(t *testing.T) {
	assert.NoError(t, TieBreakUpdated.Validate())
	assert.NoError(t, TieBreakTitle.Validate())
	assert.Error(t, TieBreak("random").Validate())
}

func TestCacheWatermarkInvalidation(t *testing.T) {
	cache, err := NewCache(8, TieBreakUpdated)
	require.NoError(t, err)

	moduleID := uuid.New().String()
	loads := 0
	loader := func() ([]*ledger.Thread, error) {
		loads++
		return []*ledger.Thread{thread("t", ledger.StatusInbox, ledger.PriorityLow, int64(loads))}, nil
	}

	_, err = cache.Columns(moduleID, 1, loader)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)

	// Same watermark: served from cache, no reload.
	_, err = cache.Columns(moduleID, 1, loader)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)

	// Advanced watermark: stale board recomputed.
	_, err = cache.Columns(moduleID, 2, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)

	cache.Invalidate(moduleID)
	_, err = cache.Columns(moduleID, 2, loader)
	require.NoError(t, err)
	assert.Equal(t, 3, loads)
}

func TestCacheLoaderErrorPropagates(t *testing.T) {
	cache, err := NewCache(8, TieBreakUpdated)
	require.NoError(t, err)

	boom := errors.New("store unavailable")
	_, err = cache.Columns(uuid.New().String(), 1, func() ([]*ledger.Thread, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestNewCacheRejectsBadTieBreak(t *testing.T) {
	_, err := NewCache(8, TieBreak("nope"))
	assert.Error(t, err)
}
