package registry

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braidhq/braid/pkg/ledger"
)

func testAgent(name string) ledger.Agent {
	return ledger.Agent{
		ID:     uuid.New().String(),
		Name:   name,
		Role:   "seo-analyst",
		Status: ledger.AgentStatusOnline,
	}
}

func TestRegisterAndSnapshot(t *testing.T) {
	r := New()
	agent := testAgent("rankwatcher")
	require.NoError(t, r.Register(agent))

	snap, ok := r.Snapshot(agent.ID)
	require.True(t, ok)
	assert.Equal(t, agent.Name, snap.Agent.Name)
	assert.Zero(t, snap.Metrics.TasksCompleted)
	assert.Zero(t, snap.Metrics.Accuracy)

	t.Run("unknown agent", func(t *testing.T) {
		_, ok := r.Snapshot(uuid.New().String())
		assert.False(t, ok)
	})

	t.Run("rejects invalid agent", func(t *testing.T) {
		assert.Error(t, r.Register(ledger.Agent{ID: "bad", Name: "x", Role: "y", Status: ledger.AgentStatusIdle}))
	})
}

func TestRecordTaskOutcome(t *testing.T) {
	r := New()
	agent := testAgent("briefwright")
	require.NoError(t, r.Register(agent))

	assert.True(t, r.RecordTaskOutcome(agent.ID, 100, true))
	assert.True(t, r.RecordTaskOutcome(agent.ID, 200, true))
	assert.True(t, r.RecordTaskOutcome(agent.ID, 300, false))

	snap, ok := r.Snapshot(agent.ID)
	require.True(t, ok)
	assert.Equal(t, int64(3), snap.Metrics.TasksCompleted)
	assert.InDelta(t, 2.0/3.0, snap.Metrics.Accuracy, 1e-9)

	// EWMA: 100, then 0.2*200+0.8*100=120, then 0.2*300+0.8*120=156
	assert.InDelta(t, 156.0, snap.Metrics.AvgLatencyMs, 1e-9)

	assert.False(t, r.RecordTaskOutcome(uuid.New().String(), 50, true))
}

func TestSnapshotsOrderedByName(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(testAgent("zephyr")))
	require.NoError(t, r.Register(testAgent("atlasbot")))
	require.NoError(t, r.Register(testAgent("midline")))

	snaps := r.Snapshots()
	require.Len(t, snaps, 3)
	assert.Equal(t, "atlasbot", snaps[0].Agent.Name)
	assert.Equal(t, "midline", snaps[1].Agent.Name)
	assert.Equal(t, "zephyr", snaps[2].Agent.Name)
}

func TestResetMetrics(t *testing.T) {
	r := New()
	agent := testAgent("rankwatcher")
	require.NoError(t, r.Register(agent))
	r.RecordTaskOutcome(agent.ID, 120, true)

	r.ResetMetrics()

	snap, ok := r.Snapshot(agent.ID)
	require.True(t, ok)
	assert.Zero(t, snap.Metrics.TasksCompleted)
	assert.Zero(t, snap.Metrics.AvgLatencyMs)
	assert.Equal(t, "rankwatcher", snap.Agent.Name)
}

func TestConcurrentOutcomeStreams(t *testing.T) {
	r := New()
	a := testAgent("alpha")
	b := testAgent("beta")
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))

	const perAgent = 200
	var wg sync.WaitGroup
	for _, id := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func(agentID string) {
			defer wg.Done()
			for i := 0; i < perAgent; i++ {
				r.RecordTaskOutcome(agentID, 100, i%2 == 0)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []string{a.ID, b.ID} {
		snap, ok := r.Snapshot(id)
		require.True(t, ok)
		assert.Equal(t, int64(perAgent), snap.Metrics.TasksCompleted)
		assert.InDelta(t, 0.5, snap.Metrics.Accuracy, 1e-9)
	}
}
