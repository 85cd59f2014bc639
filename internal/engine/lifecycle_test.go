package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/braidhq/braid/pkg/ledger"
)

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  ledger.ThreadStatus
		to    ledger.ThreadStatus
		valid bool
	}{
		{"inbox to in_progress", ledger.StatusInbox, ledger.StatusInProgress, true},
		{"inbox to blocked", ledger.StatusInbox, ledger.StatusBlocked, true},
		{"inbox to review", ledger.StatusInbox, ledger.StatusReview, false},
		{"in_progress to awaiting_resolution", ledger.StatusInProgress, ledger.StatusAwaitingResolution, true},
		{"in_progress to review", ledger.StatusInProgress, ledger.StatusReview, true},
		{"in_progress to done", ledger.StatusInProgress, ledger.StatusDone, false},
		{"awaiting_resolution to in_progress", ledger.StatusAwaitingResolution, ledger.StatusInProgress, true},
		{"awaiting_resolution to review", ledger.StatusAwaitingResolution, ledger.StatusReview, false},
		{"review to done", ledger.StatusReview, ledger.StatusDone, true},
		{"review to in_progress", ledger.StatusReview, ledger.StatusInProgress, false},
		{"blocked to in_progress", ledger.StatusBlocked, ledger.StatusInProgress, true},
		{"blocked to done", ledger.StatusBlocked, ledger.StatusDone, false},
		{"done is terminal", ledger.StatusDone, ledger.StatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidTransition(tt.from, tt.to))
		})
	}
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(ledger.StatusDone))
	assert.False(t, IsTerminalStatus(ledger.StatusInbox))
	assert.False(t, IsTerminalStatus(ledger.StatusBlocked))
}

func TestEveryTransitionTargetIsDefined(t *testing.T) {
	for from, targets := range ValidTransitions {
		assert.NoError(t, from.Validate())
		for _, to := range targets {
			assert.NoError(t, to.Validate())
		}
	}
}
