package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validThread() *Thread {
	return &Thread{
		ID:       uuid.New().String(),
		ModuleID: uuid.New().String(),
		Title:    "Refresh pillar page keywords",
		Status:   StatusInbox,
		Priority: PriorityMedium,
	}
}

func validConflict(threadID string) *Conflict {
	return &Conflict{
		ID:       uuid.New().String(),
		ThreadID: threadID,
		Reason:   "agents disagree on keyword strategy",
		Options: []Option{
			{ID: uuid.New().String(), AgentID: uuid.New().String(), Description: "Long-tail focus"},
			{ID: uuid.New().String(), AgentID: uuid.New().String(), Description: "Aggressive head terms"},
		},
	}
}

func TestThreadValidate(t *testing.T) {
	t.Run("accepts valid thread", func(t *testing.T) {
		assert.NoError(t, validThread().Validate())
	})

	t.Run("rejects malformed ID", func(t *testing.T) {
		thread := validThread()
		thread.ID = "not-a-uuid"
		assert.Error(t, thread.Validate())
	})

	t.Run("rejects empty title", func(t *testing.T) {
		thread := validThread()
		thread.Title = ""
		assert.Error(t, thread.Validate())
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		thread := validThread()
		thread.Status = "parked"
		assert.Error(t, thread.Validate())
	})

	t.Run("rejects unknown priority", func(t *testing.T) {
		thread := validThread()
		thread.Priority = "urgent"
		assert.Error(t, thread.Validate())
	})
}

func TestThreadStatusValidate(t *testing.T) {
	valid := []ThreadStatus{
		StatusInbox, StatusInProgress, StatusAwaitingResolution,
		StatusReview, StatusBlocked, StatusDone,
	}
	for _, status := range valid {
		assert.NoError(t, status.Validate(), "status %q should be valid", status)
	}
	assert.Error(t, ThreadStatus("archived").Validate())
	assert.Error(t, ThreadStatus("").Validate())
}

func TestPriorityRank(t *testing.T) {
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Equal(t, 0, Priority("unknown").Rank())
}

func TestEventValidate(t *testing.T) {
	threadID := uuid.New().String()

	t.Run("accepts valid message event", func(t *testing.T) {
		event := &Event{
			ID:        uuid.New().String(),
			ThreadID:  threadID,
			Seq:       1,
			GlobalSeq: 1,
			Type:      EventTypeMessage,
			AgentID:   uuid.New().String(),
			Content:   "drafted outline",
		}
		assert.NoError(t, event.Validate())
	})

	t.Run("rejects seq below 1", func(t *testing.T) {
		event := &Event{
			ID:        uuid.New().String(),
			ThreadID:  threadID,
			Seq:       0,
			GlobalSeq: 0,
			Type:      EventTypeMessage,
		}
		assert.Error(t, event.Validate())
	})

	t.Run("conflict event requires embedded conflict", func(t *testing.T) {
		event := &Event{
			ID:        uuid.New().String(),
			ThreadID:  threadID,
			Seq:       2,
			GlobalSeq: 2,
			Type:      EventTypeConflict,
		}
		err := event.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must embed a conflict")
	})

	t.Run("embedded conflict must target the same thread", func(t *testing.T) {
		conflict := validConflict(uuid.New().String())
		event := &Event{
			ID:        uuid.New().String(),
			ThreadID:  threadID,
			Seq:       2,
			GlobalSeq: 2,
			Type:      EventTypeConflict,
			Conflict:  conflict,
		}
		assert.Error(t, event.Validate())
	})

	t.Run("message event must not embed a conflict", func(t *testing.T) {
		event := &Event{
			ID:        uuid.New().String(),
			ThreadID:  threadID,
			Seq:       3,
			GlobalSeq: 3,
			Type:      EventTypeMessage,
			Conflict:  validConflict(threadID),
		}
		assert.Error(t, event.Validate())
	})
}

func TestConflictValidate(t *testing.T) {
	threadID := uuid.New().String()

	t.Run("accepts valid conflict", func(t *testing.T) {
		assert.NoError(t, validConflict(threadID).Validate())
	})

	t.Run("rejects fewer than two options", func(t *testing.T) {
		conflict := validConflict(threadID)
		conflict.Options = conflict.Options[:1]
		assert.Error(t, conflict.Validate())
	})

	t.Run("rejects option with empty description", func(t *testing.T) {
		conflict := validConflict(threadID)
		conflict.Options[1].Description = ""
		assert.Error(t, conflict.Validate())
	})

	t.Run("rejects duplicate option IDs", func(t *testing.T) {
		conflict := validConflict(threadID)
		conflict.Options[1].ID = conflict.Options[0].ID
		assert.Error(t, conflict.Validate())
	})

	t.Run("resolved conflict requires a known winner", func(t *testing.T) {
		conflict := validConflict(threadID)
		conflict.Resolved = true
		conflict.WinningOptionID = uuid.New().String()
		assert.Error(t, conflict.Validate())

		conflict.WinningOptionID = conflict.Options[0].ID
		assert.NoError(t, conflict.Validate())
	})

	t.Run("unresolved conflict must not carry a winner", func(t *testing.T) {
		conflict := validConflict(threadID)
		conflict.WinningOptionID = conflict.Options[0].ID
		assert.Error(t, conflict.Validate())
	})
}

func TestConflictOptionLookup(t *testing.T) {
	conflict := validConflict(uuid.New().String())

	found := conflict.Option(conflict.Options[1].ID)
	require.NotNil(t, found)
	assert.Equal(t, conflict.Options[1].Description, found.Description)

	assert.Nil(t, conflict.Option(uuid.New().String()))
}

func TestAgentValidate(t *testing.T) {
	agent := &Agent{
		ID:     uuid.New().String(),
		Name:   "briefwright",
		Role:   "content-strategist",
		Status: AgentStatusOnline,
	}
	assert.NoError(t, agent.Validate())

	agent.Role = ""
	assert.Error(t, agent.Validate())

	agent.Role = "content-strategist"
	agent.Status = "asleep"
	assert.Error(t, agent.Validate())
}
