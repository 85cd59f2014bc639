package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/braidhq/braid/internal/printer"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Show agent scorecards",
	Long: `List every agent in the workspace with its rolling performance
metrics (accuracy, average latency, tasks completed), rebuilt from the
event ledger.`,
	RunE: runAgents,
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}

func runAgents(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	eng, store, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	snapshots := eng.Registry().Snapshots()
	if len(snapshots) == 0 {
		printer.Info("No agents registered.\n")
		return nil
	}

	for _, s := range snapshots {
		printer.Header("%s  (%s, %s)\n", s.Agent.Name, s.Agent.Role, s.Agent.Status)
		if s.Metrics.TasksCompleted == 0 {
			printer.Muted("  no task outcomes recorded\n")
			continue
		}
		printer.Info("  accuracy: %.0f%%  avg latency: %.0fms  tasks: %d\n",
			s.Metrics.Accuracy*100, s.Metrics.AvgLatencyMs, s.Metrics.TasksCompleted)
	}
	return nil
}
