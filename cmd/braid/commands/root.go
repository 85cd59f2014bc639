// Package commands implements the braid CLI.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/braidhq/braid/internal/engine"
	"github.com/braidhq/braid/internal/logging"
	"github.com/braidhq/braid/pkg/ledger"
)

var (
	version string
	commit  string
	date    string

	redisAddr     string
	workspaceName string
	logLevel      string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "braid",
	Short: "Braid - agent work orchestration dashboard",
	Long: `Braid coordinates a team of marketing agents working threads of
tasks across modules, with an append-only event ledger as the source of
truth.

The CLI talks directly to the workspace's Redis ledger: it can watch the
live event stream, render module boards and agent scorecards, post events
and resolve conflicts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	// Formatted colored errors are printed by the printer package.
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", envOr("BRAID_REDIS_ADDR", "localhost:6379"), "Redis address")
	rootCmd.PersistentFlags().StringVarP(&workspaceName, "workspace", "w", envOr("BRAID_WORKSPACE", "default"), "Workspace name")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// openStore connects to the workspace ledger.
func openStore() (*ledger.Store, error) {
	return ledger.NewStore(&redis.Options{Addr: redisAddr}, workspaceName)
}

// buildEngine opens the store and constructs an engine with its
// projections rebuilt from the ledger, so one-shot commands continue the
// workspace's global sequence instead of restarting it.
func buildEngine(ctx context.Context) (*engine.Engine, *ledger.Store, error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	eng, err := engine.New(engine.Options{
		Store:  store,
		Logger: logging.NewConsole(logLevel),
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	agentIDs, err := store.ListAgentIDs(ctx)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	for _, id := range agentIDs {
		agent, err := store.GetAgent(ctx, id)
		if err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("failed to load agent %s: %w", id, err)
		}
		if err := eng.Registry().Register(*agent); err != nil {
			store.Close()
			return nil, nil, err
		}
	}

	if err := eng.Rebuild(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return eng, store, nil
}
