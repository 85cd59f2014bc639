package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braidhq/braid/internal/engine"
	"github.com/braidhq/braid/internal/kanban"
)

func validConfig() *BraidConfig {
	return &BraidConfig{
		Version:   "1.0",
		Workspace: "acme",
		Modules: map[string]Module{
			"SEO":     {Kind: "seo"},
			"Content": {Kind: "content"},
		},
		Agents: map[string]Agent{
			"briefwright": {Role: "seo-analyst"},
			"redline":     {Role: "content-reviewer"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*BraidConfig)
		errorContains string
	}{
		{
			name:   "valid config",
			mutate: func(c *BraidConfig) {},
		},
		{
			name:          "unsupported version",
			mutate:        func(c *BraidConfig) { c.Version = "2.0" },
			errorContains: "unsupported version",
		},
		{
			name:          "missing workspace",
			mutate:        func(c *BraidConfig) { c.Workspace = "" },
			errorContains: "workspace name is required",
		},
		{
			name:          "no modules",
			mutate:        func(c *BraidConfig) { c.Modules = nil },
			errorContains: "no modules defined",
		},
		{
			name:          "module without kind",
			mutate:        func(c *BraidConfig) { c.Modules["SEO"] = Module{} },
			errorContains: "has no kind",
		},
		{
			name:          "no agents",
			mutate:        func(c *BraidConfig) { c.Agents = nil },
			errorContains: "no agents defined",
		},
		{
			name: "duplicate agent roles",
			mutate: func(c *BraidConfig) {
				c.Agents["copycat"] = Agent{Role: "seo-analyst"}
			},
			errorContains: "duplicate agent role",
		},
		{
			name:          "negative feed capacity",
			mutate:        func(c *BraidConfig) { c.Feed.Capacity = -1 },
			errorContains: "feed capacity",
		},
		{
			name:          "unknown resolution authority",
			mutate:        func(c *BraidConfig) { c.Resolution.Authority = "committee" },
			errorContains: "resolution",
		},
		{
			name:          "unknown tie break",
			mutate:        func(c *BraidConfig) { c.Kanban.TieBreak = "random" },
			errorContains: "kanban",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.errorContains == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	c := validConfig()
	assert.Equal(t, "localhost:6379", c.RedisAddr())
	assert.Equal(t, ":8080", c.HealthAddr())
	assert.Equal(t, engine.AuthorityOperator, c.Authority())
	assert.Equal(t, kanban.TieBreakUpdated, c.TieBreak())
	assert.Equal(t, 50, c.FeedCapacity())

	c.Redis.Addr = "redis:6380"
	c.Resolution.Authority = "any"
	c.Kanban.TieBreak = "title"
	c.Feed.Capacity = 100
	assert.Equal(t, "redis:6380", c.RedisAddr())
	assert.Equal(t, engine.AuthorityAny, c.Authority())
	assert.Equal(t, kanban.TieBreakTitle, c.TieBreak())
	assert.Equal(t, 100, c.FeedCapacity())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "braid.yml")

	yml := `version: "1.0"
workspace: acme
redis:
  addr: localhost:6379
feed:
  capacity: 25
  queue_size: 8
resolution:
  authority: operator
kanban:
  tie_break: title
modules:
  SEO:
    kind: seo
agents:
  briefwright:
    role: seo-analyst
    avatar: fox
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "acme", c.Workspace)
	assert.Equal(t, 25, c.Feed.Capacity)
	assert.Equal(t, 8, c.Feed.QueueSize)
	assert.Equal(t, kanban.TieBreakTitle, c.TieBreak())
	assert.Equal(t, "fox", c.Agents["briefwright"].Avatar)
}

func TestLoadFailures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "braid.yml")
		require.NoError(t, os.WriteFile(path, []byte("version: [unclosed"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "braid.yml")
		require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\n"), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "invalid configuration")
	})
}
