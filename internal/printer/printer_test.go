package printer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/braidhq/braid/pkg/ledger"
)

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title when including suggestions", func(t *testing.T) {
		err := Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})
}

func TestStatusCoversEveryValue(t *testing.T) {
	statuses := []ledger.ThreadStatus{
		ledger.StatusInbox,
		ledger.StatusInProgress,
		ledger.StatusAwaitingResolution,
		ledger.StatusReview,
		ledger.StatusBlocked,
		ledger.StatusDone,
	}
	for _, s := range statuses {
		require.Contains(t, Status(s), string(s))
	}
}
