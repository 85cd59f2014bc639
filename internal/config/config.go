// Package config loads and validates braid.yml, the workspace definition
// consumed by the daemon and the CLI.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/braidhq/braid/internal/activity"
	"github.com/braidhq/braid/internal/engine"
	"github.com/braidhq/braid/internal/kanban"
)

// BraidConfig represents the top-level braid.yml configuration.
type BraidConfig struct {
	Version    string            `yaml:"version"`
	Workspace  string            `yaml:"workspace"`
	Redis      RedisConfig       `yaml:"redis,omitempty"`
	Health     HealthConfig      `yaml:"health,omitempty"`
	Feed       FeedConfig        `yaml:"feed,omitempty"`
	Resolution ResolutionConfig  `yaml:"resolution,omitempty"`
	Kanban     KanbanConfig      `yaml:"kanban,omitempty"`
	Modules    map[string]Module `yaml:"modules"`
	Agents     map[string]Agent  `yaml:"agents"`
}

// RedisConfig specifies the Redis connection.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"` // Default: localhost:6379
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// HealthConfig specifies the daemon's HTTP listen address.
type HealthConfig struct {
	Addr string `yaml:"addr,omitempty"` // Default: :8080
}

// FeedConfig specifies the activity feed shape.
type FeedConfig struct {
	Capacity  int `yaml:"capacity,omitempty"`   // Default: 50
	QueueSize int `yaml:"queue_size,omitempty"` // Per-producer queue depth, default: 16
}

// ResolutionConfig specifies the conflict resolution policy.
type ResolutionConfig struct {
	Authority string `yaml:"authority,omitempty"` // operator (default), agent, or any
}

// KanbanConfig specifies board presentation policy.
type KanbanConfig struct {
	TieBreak string `yaml:"tie_break,omitempty"` // updated (default) or title
}

// Module represents a single module configuration, keyed by display name.
type Module struct {
	Kind string `yaml:"kind"` // seo, content, social, launch_ops, ...
}

// Agent represents a single agent configuration, keyed by display name.
type Agent struct {
	Role   string `yaml:"role"`
	Avatar string `yaml:"avatar,omitempty"`
}

// Validate performs strict validation on the configuration.
func (c *BraidConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}
	if c.Workspace == "" {
		return fmt.Errorf("workspace name is required")
	}

	if len(c.Modules) == 0 {
		return fmt.Errorf("no modules defined")
	}
	for name, module := range c.Modules {
		if module.Kind == "" {
			return fmt.Errorf("module '%s' has no kind", name)
		}
	}

	if len(c.Agents) == 0 {
		return fmt.Errorf("no agents defined")
	}
	rolesSeen := make(map[string]string) // role -> agent name
	for name, agent := range c.Agents {
		if agent.Role == "" {
			return fmt.Errorf("agent '%s' has no role", name)
		}
		if existing, exists := rolesSeen[agent.Role]; exists {
			return fmt.Errorf("duplicate agent role '%s' found (agents '%s' and '%s'): all agents must have unique roles",
				agent.Role, existing, name)
		}
		rolesSeen[agent.Role] = name
	}

	if c.Feed.Capacity < 0 {
		return fmt.Errorf("feed capacity must not be negative, got %d", c.Feed.Capacity)
	}
	if c.Feed.QueueSize < 0 {
		return fmt.Errorf("feed queue_size must not be negative, got %d", c.Feed.QueueSize)
	}

	if err := c.Authority().Validate(); err != nil {
		return fmt.Errorf("invalid resolution config: %w", err)
	}
	if err := c.TieBreak().Validate(); err != nil {
		return fmt.Errorf("invalid kanban config: %w", err)
	}

	return nil
}

// RedisAddr returns the configured Redis address or the default.
func (c *BraidConfig) RedisAddr() string {
	if c.Redis.Addr == "" {
		return "localhost:6379"
	}
	return c.Redis.Addr
}

// HealthAddr returns the configured health listen address or the default.
func (c *BraidConfig) HealthAddr() string {
	if c.Health.Addr == "" {
		return ":8080"
	}
	return c.Health.Addr
}

// Authority returns the configured resolution authority or the default.
func (c *BraidConfig) Authority() engine.Authority {
	if c.Resolution.Authority == "" {
		return engine.AuthorityOperator
	}
	return engine.Authority(c.Resolution.Authority)
}

// TieBreak returns the configured kanban tie-break policy or the default.
func (c *BraidConfig) TieBreak() kanban.TieBreak {
	if c.Kanban.TieBreak == "" {
		return kanban.TieBreakUpdated
	}
	return kanban.TieBreak(c.Kanban.TieBreak)
}

// FeedCapacity returns the configured feed capacity or the default.
func (c *BraidConfig) FeedCapacity() int {
	if c.Feed.Capacity == 0 {
		return activity.DefaultCapacity
	}
	return c.Feed.Capacity
}

// Load reads and validates braid.yml from the specified path.
func Load(path string) (*BraidConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config BraidConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
