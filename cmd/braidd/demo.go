package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/braidhq/braid/internal/engine"
	"github.com/braidhq/braid/internal/producer"
	"github.com/braidhq/braid/pkg/ledger"
)

// demoWorkload seeds one inbox thread per module (skipping modules that
// already have threads) and builds a scripted producer per agent that
// works those threads through a realistic lifecycle: pick up, progress
// updates with task outcomes, a review handoff.
func demoWorkload(ctx context.Context, eng *engine.Engine, store *ledger.Store, state *workspaceState, log zerolog.Logger) (*producer.Runner, error) {
	agents := make([]*ledger.Agent, 0, len(state.agents))
	for _, agent := range state.agents {
		agents = append(agents, agent)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	if len(agents) == 0 {
		return nil, fmt.Errorf("demo workload needs at least one agent")
	}

	moduleNames := make([]string, 0, len(state.modules))
	for name := range state.modules {
		moduleNames = append(moduleNames, name)
	}
	sort.Strings(moduleNames)

	now := time.Now().UnixMilli()
	var threads []*ledger.Thread
	for _, name := range moduleNames {
		module := state.modules[name]
		existing, err := store.ListThreadIDs(ctx, module.ID)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			continue
		}
		thread := &ledger.Thread{
			ID:          uuid.New().String(),
			ModuleID:    module.ID,
			Title:       fmt.Sprintf("%s kickoff", name),
			Objective:   fmt.Sprintf("initial %s workstream", module.Kind),
			Status:      ledger.StatusInbox,
			Priority:    ledger.PriorityMedium,
			CreatedAtMs: now,
		}
		if err := store.CreateThread(ctx, thread); err != nil {
			return nil, err
		}
		threads = append(threads, thread)
		log.Info().Str("thread_id", thread.ID).Str("module", name).Msg("demo thread seeded")
	}
	if len(threads) == 0 {
		log.Info().Msg("demo workload found existing threads, nothing seeded")
		return producer.NewRunner(), nil
	}

	producers := make([]*producer.Producer, 0, len(agents))
	for i, agent := range agents {
		thread := threads[i%len(threads)]
		script := producer.NewScript([]producer.Step{
			{Delay: time.Second, Input: engine.EventInput{
				ThreadID: thread.ID,
				Type:     ledger.EventTypeMessage,
				Content:  fmt.Sprintf("picking up %s", thread.Title),
			}},
			{Delay: 2 * time.Second, Input: engine.EventInput{
				ThreadID: thread.ID,
				Type:     ledger.EventTypeMessage,
				Content:  "research complete",
				Meta: map[string]string{
					ledger.MetaOutcome:   ledger.OutcomeSuccess,
					ledger.MetaLatencyMs: "1850",
				},
				LogicChain: []string{"gathered inputs", "ranked candidates"},
			}},
			{Delay: 2 * time.Second, Input: engine.EventInput{
				ThreadID: thread.ID,
				Type:     ledger.EventTypeMessage,
				Content:  "draft ready for review",
				Meta:     map[string]string{ledger.MetaSignal: ledger.SignalReadyForReview},
			}},
		})
		producers = append(producers, producer.New(eng, agent.ID, script, log))
	}

	return producer.NewRunner(producers...), nil
}
