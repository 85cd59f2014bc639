//go:build integration

package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/braidhq/braid/internal/config"
	"github.com/braidhq/braid/internal/engine"
	"github.com/braidhq/braid/pkg/ledger"
)

// setupRedis starts a Redis container for testing.
func setupRedis(t *testing.T) string {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := redisC.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	})

	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

// TestDaemonLifecycleAgainstRealRedis provisions a workspace, runs a
// thread through its lifecycle including a conflict, restarts the engine
// and verifies the rebuilt projections.
func TestDaemonLifecycleAgainstRealRedis(t *testing.T) {
	addr := setupRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := &config.BraidConfig{
		Version:   "1.0",
		Workspace: "integration",
		Redis:     config.RedisConfig{Addr: addr},
		Modules:   map[string]config.Module{"SEO": {Kind: "seo"}},
		Agents: map[string]config.Agent{
			"briefwright": {Role: "seo-analyst"},
			"redline":     {Role: "content-reviewer"},
		},
	}
	require.NoError(t, cfg.Validate())

	store, err := ledger.NewStore(&redis.Options{Addr: addr}, cfg.Workspace)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Ping(ctx))

	state, err := provision(ctx, store, cfg, zerolog.Nop())
	require.NoError(t, err)

	// Re-provisioning must not duplicate anything.
	again, err := provision(ctx, store, cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, state.workspace.ID, again.workspace.ID)
	assert.Equal(t, state.modules["SEO"].ID, again.modules["SEO"].ID)

	eng, err := engine.New(engine.Options{Store: store, Logger: zerolog.Nop()})
	require.NoError(t, err)
	for _, agent := range state.agents {
		require.NoError(t, eng.Registry().Register(*agent))
	}
	require.NoError(t, eng.Rebuild(ctx))

	thread := &ledger.Thread{
		ID:          uuid.New().String(),
		ModuleID:    state.modules["SEO"].ID,
		Title:       "seo-thread-1",
		Objective:   "improve organic reach",
		Status:      ledger.StatusInbox,
		Priority:    ledger.PriorityHigh,
		CreatedAtMs: time.Now().UnixMilli(),
	}
	require.NoError(t, store.CreateThread(ctx, thread))

	analyst := state.agents["briefwright"]
	reviewer := state.agents["redline"]

	_, err = eng.PostEvent(ctx, engine.EventInput{
		ThreadID: thread.ID,
		Type:     ledger.EventTypeMessage,
		AgentID:  analyst.ID,
		Content:  "starting keyword research",
		Meta: map[string]string{
			ledger.MetaOutcome:   ledger.OutcomeSuccess,
			ledger.MetaLatencyMs: "1500",
		},
	})
	require.NoError(t, err)

	conflict, err := eng.RaiseConflict(ctx, thread.ID, "keyword strategy dispute", []engine.OptionInput{
		{AgentID: analyst.ID, Description: "Short-tail"},
		{AgentID: reviewer.ID, Description: "Long-tail"},
	})
	require.NoError(t, err)

	var longTail string
	for _, opt := range conflict.Options {
		if opt.Description == "Long-tail" {
			longTail = opt.ID
		}
	}
	resolved, err := eng.ApproveConflict(ctx, engine.Operator(), thread.ID, conflict.ID, longTail)
	require.NoError(t, err)
	assert.Equal(t, longTail, resolved.WinningOptionID)

	stored, err := store.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusInProgress, stored.Status)

	// Restart: a fresh engine over the same Redis.
	restarted, err := engine.New(engine.Options{Store: store, Logger: zerolog.Nop()})
	require.NoError(t, err)
	for _, agent := range state.agents {
		require.NoError(t, restarted.Registry().Register(*agent))
	}
	require.NoError(t, restarted.Rebuild(ctx))

	assert.Equal(t, eng.Feed().Recent(0), restarted.Feed().Recent(0))

	snapshot, err := restarted.GetAgent(analyst.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshot.Metrics.TasksCompleted)
	assert.InDelta(t, 1500, snapshot.Metrics.AvgLatencyMs, 1e-9)
}
