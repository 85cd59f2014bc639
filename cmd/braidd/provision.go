package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/braidhq/braid/internal/config"
	"github.com/braidhq/braid/pkg/ledger"
)

// workspaceState holds the provisioned entities, keyed by display name.
type workspaceState struct {
	workspace *ledger.Workspace
	modules   map[string]*ledger.Module
	agents    map[string]*ledger.Agent
}

// provision creates the workspace, modules and agents declared in
// braid.yml if they do not already exist. Existing entities are matched
// by display name so restarts never duplicate them.
func provision(ctx context.Context, store *ledger.Store, cfg *config.BraidConfig, log zerolog.Logger) (*workspaceState, error) {
	now := time.Now().UnixMilli()

	workspace, err := store.GetWorkspace(ctx)
	if ledger.IsNotFound(err) {
		workspace = &ledger.Workspace{
			ID:          uuid.New().String(),
			Name:        cfg.Workspace,
			CreatedAtMs: now,
		}
		if err := store.CreateWorkspace(ctx, workspace); err != nil {
			return nil, err
		}
		log.Info().Str("workspace_id", workspace.ID).Msg("workspace created")
	} else if err != nil {
		return nil, err
	}

	existingModules, err := modulesByName(ctx, store)
	if err != nil {
		return nil, err
	}
	modules := make(map[string]*ledger.Module, len(cfg.Modules))
	for name, spec := range cfg.Modules {
		if module, ok := existingModules[name]; ok {
			modules[name] = module
			continue
		}
		module := &ledger.Module{
			ID:          uuid.New().String(),
			WorkspaceID: workspace.ID,
			Name:        name,
			Kind:        spec.Kind,
			CreatedAtMs: now,
		}
		if err := store.CreateModule(ctx, module); err != nil {
			return nil, err
		}
		modules[name] = module
		log.Info().Str("module_id", module.ID).Str("name", name).Msg("module created")
	}

	existingAgents, err := agentsByName(ctx, store)
	if err != nil {
		return nil, err
	}
	agents := make(map[string]*ledger.Agent, len(cfg.Agents))
	for name, spec := range cfg.Agents {
		if agent, ok := existingAgents[name]; ok {
			agents[name] = agent
			continue
		}
		agent := &ledger.Agent{
			ID:          uuid.New().String(),
			Name:        name,
			Role:        spec.Role,
			Avatar:      spec.Avatar,
			Status:      ledger.AgentStatusOnline,
			CreatedAtMs: now,
		}
		if err := store.PutAgent(ctx, agent); err != nil {
			return nil, err
		}
		agents[name] = agent
		log.Info().Str("agent_id", agent.ID).Str("name", name).Msg("agent created")
	}

	return &workspaceState{
		workspace: workspace,
		modules:   modules,
		agents:    agents,
	}, nil
}

func modulesByName(ctx context.Context, store *ledger.Store) (map[string]*ledger.Module, error) {
	ids, err := store.ListModuleIDs(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*ledger.Module, len(ids))
	for _, id := range ids {
		module, err := store.GetModule(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load module %s: %w", id, err)
		}
		byName[module.Name] = module
	}
	return byName, nil
}

func agentsByName(ctx context.Context, store *ledger.Store) (map[string]*ledger.Agent, error) {
	ids, err := store.ListAgentIDs(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*ledger.Agent, len(ids))
	for _, id := range ids {
		agent, err := store.GetAgent(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load agent %s: %w", id, err)
		}
		byName[agent.Name] = agent
	}
	return byName, nil
}
