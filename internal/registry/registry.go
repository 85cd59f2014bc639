// Package registry holds agent identity and rolling performance metrics.
//
// The registry is read-mostly from the engine's perspective: metrics are
// updated only through events attributed to an agent, and each agent's
// metric stream is independent, so no cross-agent coordination is needed.
// Metrics are a projection of the event ledger and are fully rebuilt on
// replay.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/braidhq/braid/pkg/ledger"
)

// latencyAlpha is the smoothing factor for the rolling latency average.
// Higher values weight recent samples more heavily.
const latencyAlpha = 0.2

// Metrics is the rolling performance view of one agent.
type Metrics struct {
	Accuracy       float64 // Fraction of tasks reported successful, 0..1
	AvgLatencyMs   float64 // Exponentially weighted moving average
	TasksCompleted int64   // Total task outcomes recorded
}

// Snapshot is a consistent point-in-time view of an agent for scorecards.
type Snapshot struct {
	Agent   ledger.Agent
	Metrics Metrics
}

// entry is the internal per-agent state. Each entry has its own mutex so
// concurrent outcome streams for different agents never contend.
type entry struct {
	mu        sync.Mutex
	agent     ledger.Agent
	successes int64
	total     int64
	latency   float64
}

// Registry is the process-scoped store of agents and their metrics.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		agents: make(map[string]*entry),
	}
}

// Register adds an agent to the registry, or refreshes its identity fields
// if already present. Metrics are preserved across re-registration.
func (r *Registry) Register(agent ledger.Agent) error {
	if err := agent.Validate(); err != nil {
		return fmt.Errorf("invalid agent: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.agents[agent.ID]; ok {
		existing.mu.Lock()
		existing.agent = agent
		existing.mu.Unlock()
		return nil
	}
	r.agents[agent.ID] = &entry{agent: agent}
	return nil
}

// RecordTaskOutcome updates the rolling accuracy and latency for one agent.
// Returns false if the agent is unknown.
func (r *Registry) RecordTaskOutcome(agentID string, latencyMs float64, success bool) bool {
	r.mu.RLock()
	e, ok := r.agents[agentID]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.total++
	if success {
		e.successes++
	}
	if e.total == 1 {
		e.latency = latencyMs
	} else {
		e.latency = latencyAlpha*latencyMs + (1-latencyAlpha)*e.latency
	}
	return true
}

// Snapshot returns a consistent point-in-time view of one agent.
// Returns false if the agent is unknown.
func (r *Registry) Snapshot(agentID string) (Snapshot, bool) {
	r.mu.RLock()
	e, ok := r.agents[agentID]
	r.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(), true
}

// Snapshots returns views of every registered agent, ordered by name for
// stable scorecard rendering.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.agents))
	for _, e := range r.agents {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	snapshots := make([]Snapshot, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		snapshots = append(snapshots, e.snapshotLocked())
		e.mu.Unlock()
	}

	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].Agent.Name != snapshots[j].Agent.Name {
			return snapshots[i].Agent.Name < snapshots[j].Agent.Name
		}
		return snapshots[i].Agent.ID < snapshots[j].Agent.ID
	})
	return snapshots
}

// ResetMetrics clears all rolling metrics while keeping agent identities.
// Used before replaying the event ledger.
func (r *Registry) ResetMetrics() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.agents {
		e.mu.Lock()
		e.successes = 0
		e.total = 0
		e.latency = 0
		e.mu.Unlock()
	}
}

// snapshotLocked builds a snapshot. Caller must hold e.mu.
func (e *entry) snapshotLocked() Snapshot {
	m := Metrics{
		AvgLatencyMs:   e.latency,
		TasksCompleted: e.total,
	}
	if e.total > 0 {
		m.Accuracy = float64(e.successes) / float64(e.total)
	}
	return Snapshot{Agent: e.agent, Metrics: m}
}
