package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/braidhq/braid/internal/printer"
)

var boardCmd = &cobra.Command{
	Use:   "board <module-id>",
	Short: "Render a module's kanban board",
	Long: `Render the status-grouped board for one module: fixed columns
(Inbox, In Progress, Blocked / Awaiting Resolution, Review, Done), threads
ordered by priority and recency.

Examples:
  braid board 1f0e4b1c-...`,
	Args: cobra.ExactArgs(1),
	RunE: runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	eng, store, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	snapshot, err := eng.GetModule(ctx, args[0])
	if err != nil {
		return printer.Error(
			"failed to load module board",
			err.Error(),
			[]string{"List modules with:\n  braid threads"},
		)
	}

	printer.Header("%s  (%d active threads)\n\n", snapshot.Module.Name, snapshot.ActiveThreads)
	for _, column := range snapshot.Columns {
		printer.Header("%s (%d)\n", column.Title, column.Count)
		for _, thread := range column.Threads {
			printer.Info("  [%s] %s  %s\n", printer.Priority(thread.Priority), thread.Title, printer.Status(thread.Status))
			if thread.ActiveConflictID != "" {
				printer.Warning("      conflict: %s\n", thread.ActiveConflictID)
			}
		}
		printer.Info("\n")
	}
	return nil
}
