package ledger

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by workspace name to
// enable multiple Braid workspaces to safely coexist on a single Redis server.
//
// Key pattern: braid:{workspace}:{entity}:{uuid}
// Channel pattern: braid:{workspace}:{event_type}_events

// WorkspaceKey returns the Redis key for the workspace record.
// Pattern: braid:{workspace}:workspace
func WorkspaceKey(workspace string) string {
	return fmt.Sprintf("braid:%s:workspace", workspace)
}

// ModulesKey returns the Redis key for the set of module IDs.
// Pattern: braid:{workspace}:modules
func ModulesKey(workspace string) string {
	return fmt.Sprintf("braid:%s:modules", workspace)
}

// ModuleKey returns the Redis key for a module.
// Pattern: braid:{workspace}:module:{module_id}
func ModuleKey(workspace, moduleID string) string {
	return fmt.Sprintf("braid:%s:module:%s", workspace, moduleID)
}

// ModuleThreadsKey returns the Redis key for a module's thread ID set.
// Pattern: braid:{workspace}:module:{module_id}:threads
func ModuleThreadsKey(workspace, moduleID string) string {
	return fmt.Sprintf("braid:%s:module:%s:threads", workspace, moduleID)
}

// ThreadKey returns the Redis key for a thread.
// Pattern: braid:{workspace}:thread:{thread_id}
func ThreadKey(workspace, threadID string) string {
	return fmt.Sprintf("braid:%s:thread:%s", workspace, threadID)
}

// ThreadEventsKey returns the Redis key for a thread's ordered event log.
// The log is a ZSET where member=event ID and score=per-thread sequence
// number, enabling ordered traversal and efficient tail reads.
// Pattern: braid:{workspace}:thread:{thread_id}:events
func ThreadEventsKey(workspace, threadID string) string {
	return fmt.Sprintf("braid:%s:thread:%s:events", workspace, threadID)
}

// EventKey returns the Redis key for an event.
// Pattern: braid:{workspace}:event:{event_id}
func EventKey(workspace, eventID string) string {
	return fmt.Sprintf("braid:%s:event:%s", workspace, eventID)
}

// ConflictKey returns the Redis key for a conflict.
// Pattern: braid:{workspace}:conflict:{conflict_id}
func ConflictKey(workspace, conflictID string) string {
	return fmt.Sprintf("braid:%s:conflict:%s", workspace, conflictID)
}

// AgentsKey returns the Redis key for the set of agent IDs.
// Pattern: braid:{workspace}:agents
func AgentsKey(workspace string) string {
	return fmt.Sprintf("braid:%s:agents", workspace)
}

// AgentKey returns the Redis key for an agent.
// Pattern: braid:{workspace}:agent:{agent_id}
func AgentKey(workspace, agentID string) string {
	return fmt.Sprintf("braid:%s:agent:%s", workspace, agentID)
}

// ThreadEventsChannel returns the Pub/Sub channel name for appended events,
// workspace-wide. Full event JSON is published after every successful append.
// Pattern: braid:{workspace}:thread_events
func ThreadEventsChannel(workspace string) string {
	return fmt.Sprintf("braid:%s:thread_events", workspace)
}

// EventScore converts a per-thread sequence number to a Redis ZSET score.
func EventScore(seq int64) float64 {
	return float64(seq)
}

// SeqFromScore converts a Redis ZSET score back to a sequence number.
func SeqFromScore(score float64) int64 {
	return int64(score)
}
