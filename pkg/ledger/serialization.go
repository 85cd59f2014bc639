package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Serialization helpers for converting between Go structs and Redis hashes
//
// Redis stores data as string-to-string maps (hashes). Complex fields like
// slices, maps and embedded conflicts are JSON-encoded into single hash
// fields. This balances queryability (individual fields) with flexibility
// (nested structures).

// WorkspaceToHash converts a Workspace to Redis hash format.
func WorkspaceToHash(w *Workspace) map[string]interface{} {
	return map[string]interface{}{
		"id":            w.ID,
		"name":          w.Name,
		"created_at_ms": w.CreatedAtMs,
	}
}

// HashToWorkspace converts a Redis hash to a Workspace.
func HashToWorkspace(hash map[string]string) (*Workspace, error) {
	createdAtMs, err := parseInt64Field(hash, "created_at_ms")
	if err != nil {
		return nil, err
	}
	return &Workspace{
		ID:          hash["id"],
		Name:        hash["name"],
		CreatedAtMs: createdAtMs,
	}, nil
}

// ModuleToHash converts a Module to Redis hash format.
func ModuleToHash(m *Module) map[string]interface{} {
	return map[string]interface{}{
		"id":            m.ID,
		"workspace_id":  m.WorkspaceID,
		"name":          m.Name,
		"kind":          m.Kind,
		"created_at_ms": m.CreatedAtMs,
	}
}

// HashToModule converts a Redis hash to a Module.
func HashToModule(hash map[string]string) (*Module, error) {
	createdAtMs, err := parseInt64Field(hash, "created_at_ms")
	if err != nil {
		return nil, err
	}
	return &Module{
		ID:          hash["id"],
		WorkspaceID: hash["workspace_id"],
		Name:        hash["name"],
		Kind:        hash["kind"],
		CreatedAtMs: createdAtMs,
	}, nil
}

// ThreadToHash converts a Thread to Redis hash format.
func ThreadToHash(t *Thread) map[string]interface{} {
	return map[string]interface{}{
		"id":                 t.ID,
		"module_id":          t.ModuleID,
		"title":              t.Title,
		"objective":          t.Objective,
		"status":             string(t.Status),
		"priority":           string(t.Priority),
		"active_conflict_id": t.ActiveConflictID,
		"last_seq":           t.LastSeq,
		"updated_seq":        t.UpdatedSeq,
		"created_at_ms":      t.CreatedAtMs,
	}
}

// HashToThread converts a Redis hash to a Thread.
func HashToThread(hash map[string]string) (*Thread, error) {
	lastSeq, err := parseInt64Field(hash, "last_seq")
	if err != nil {
		return nil, err
	}
	updatedSeq, err := parseInt64Field(hash, "updated_seq")
	if err != nil {
		return nil, err
	}
	createdAtMs, err := parseInt64Field(hash, "created_at_ms")
	if err != nil {
		return nil, err
	}

	return &Thread{
		ID:               hash["id"],
		ModuleID:         hash["module_id"],
		Title:            hash["title"],
		Objective:        hash["objective"],
		Status:           ThreadStatus(hash["status"]),
		Priority:         Priority(hash["priority"]),
		ActiveConflictID: hash["active_conflict_id"],
		LastSeq:          lastSeq,
		UpdatedSeq:       updatedSeq,
		CreatedAtMs:      createdAtMs,
	}, nil
}

// EventToHash converts an Event to Redis hash format.
// LogicChain, Meta and the embedded Conflict are JSON-encoded.
func EventToHash(e *Event) (map[string]interface{}, error) {
	logicChainJSON, err := json.Marshal(e.LogicChain)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal logic_chain: %w", err)
	}

	metaJSON, err := json.Marshal(e.Meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal meta: %w", err)
	}

	hash := map[string]interface{}{
		"id":            e.ID,
		"thread_id":     e.ThreadID,
		"seq":           e.Seq,
		"global_seq":    e.GlobalSeq,
		"type":          string(e.Type),
		"agent_id":      e.AgentID,
		"content":       e.Content,
		"logic_chain":   string(logicChainJSON),
		"meta":          string(metaJSON),
		"created_at_ms": e.CreatedAtMs,
	}

	if e.Conflict != nil {
		conflictJSON, err := json.Marshal(e.Conflict)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal embedded conflict: %w", err)
		}
		hash["conflict"] = string(conflictJSON)
	} else {
		hash["conflict"] = ""
	}

	return hash, nil
}

// HashToEvent converts a Redis hash to an Event.
func HashToEvent(hash map[string]string) (*Event, error) {
	seq, err := parseInt64Field(hash, "seq")
	if err != nil {
		return nil, err
	}
	globalSeq, err := parseInt64Field(hash, "global_seq")
	if err != nil {
		return nil, err
	}
	createdAtMs, err := parseInt64Field(hash, "created_at_ms")
	if err != nil {
		return nil, err
	}

	var logicChain []string
	if raw := hash["logic_chain"]; raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &logicChain); err != nil {
			return nil, fmt.Errorf("failed to unmarshal logic_chain: %w", err)
		}
	}

	var meta map[string]string
	if raw := hash["meta"]; raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal meta: %w", err)
		}
	}

	var conflict *Conflict
	if raw := hash["conflict"]; raw != "" {
		conflict = &Conflict{}
		if err := json.Unmarshal([]byte(raw), conflict); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedded conflict: %w", err)
		}
	}

	return &Event{
		ID:          hash["id"],
		ThreadID:    hash["thread_id"],
		Seq:         seq,
		GlobalSeq:   globalSeq,
		Type:        EventType(hash["type"]),
		AgentID:     hash["agent_id"],
		Content:     hash["content"],
		LogicChain:  logicChain,
		Meta:        meta,
		Conflict:    conflict,
		CreatedAtMs: createdAtMs,
	}, nil
}

// ConflictToHash converts a Conflict to Redis hash format.
// The options slice is JSON-encoded.
func ConflictToHash(c *Conflict) (map[string]interface{}, error) {
	optionsJSON, err := json.Marshal(c.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal options: %w", err)
	}

	return map[string]interface{}{
		"id":                c.ID,
		"thread_id":         c.ThreadID,
		"reason":            c.Reason,
		"options":           string(optionsJSON),
		"resolved":          strconv.FormatBool(c.Resolved),
		"winning_option_id": c.WinningOptionID,
		"created_at_ms":     c.CreatedAtMs,
		"resolved_at_ms":    c.ResolvedAtMs,
	}, nil
}

// HashToConflict converts a Redis hash to a Conflict.
func HashToConflict(hash map[string]string) (*Conflict, error) {
	var options []Option
	if raw := hash["options"]; raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal options: %w", err)
		}
	}

	resolved, err := strconv.ParseBool(hash["resolved"])
	if err != nil {
		return nil, fmt.Errorf("invalid resolved field: %w", err)
	}

	createdAtMs, err := parseInt64Field(hash, "created_at_ms")
	if err != nil {
		return nil, err
	}
	resolvedAtMs, err := parseInt64Field(hash, "resolved_at_ms")
	if err != nil {
		return nil, err
	}

	return &Conflict{
		ID:              hash["id"],
		ThreadID:        hash["thread_id"],
		Reason:          hash["reason"],
		Options:         options,
		Resolved:        resolved,
		WinningOptionID: hash["winning_option_id"],
		CreatedAtMs:     createdAtMs,
		ResolvedAtMs:    resolvedAtMs,
	}, nil
}

// AgentToHash converts an Agent to Redis hash format.
func AgentToHash(a *Agent) map[string]interface{} {
	return map[string]interface{}{
		"id":            a.ID,
		"name":          a.Name,
		"role":          a.Role,
		"avatar":        a.Avatar,
		"status":        string(a.Status),
		"created_at_ms": a.CreatedAtMs,
	}
}

// HashToAgent converts a Redis hash to an Agent.
func HashToAgent(hash map[string]string) (*Agent, error) {
	createdAtMs, err := parseInt64Field(hash, "created_at_ms")
	if err != nil {
		return nil, err
	}
	return &Agent{
		ID:          hash["id"],
		Name:        hash["name"],
		Role:        hash["role"],
		Avatar:      hash["avatar"],
		Status:      AgentStatus(hash["status"]),
		CreatedAtMs: createdAtMs,
	}, nil
}

// parseInt64Field parses an int64 hash field, treating absence as zero.
func parseInt64Field(hash map[string]string, field string) (int64, error) {
	raw, ok := hash[field]
	if !ok || raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s field: %w", field, err)
	}
	return v, nil
}
