package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/braidhq/braid/internal/printer"
)

var threadsCmd = &cobra.Command{
	Use:   "threads [module-id]",
	Short: "List modules, or the threads of one module",
	Long: `Without arguments, list every module in the workspace with its
active-thread count. With a module ID, list that module's threads.

Examples:
  braid threads
  braid threads 1f0e4b1c-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runThreads,
}

var showCmd = &cobra.Command{
	Use:   "show <thread-id>",
	Short: "Show a thread's event log and active conflict",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(threadsCmd)
	rootCmd.AddCommand(showCmd)
}

func runThreads(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	eng, store, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 0 {
		snapshot, err := eng.GetWorkspace(ctx)
		if err != nil {
			return printer.Error("failed to load workspace", err.Error(), nil)
		}
		printer.Header("Workspace: %s\n\n", snapshot.Workspace.Name)
		for _, summary := range snapshot.Modules {
			printer.Info("%s  %s  (%s, %d active threads)\n",
				summary.Module.ID, summary.Module.Name, summary.Module.Kind, summary.ActiveThreads)
		}
		return nil
	}

	snapshot, err := eng.GetModule(ctx, args[0])
	if err != nil {
		return printer.Error("failed to load module", err.Error(), nil)
	}
	printer.Header("%s\n\n", snapshot.Module.Name)
	for _, column := range snapshot.Columns {
		for _, thread := range column.Threads {
			printer.Info("%s  [%s] %s  %s\n",
				thread.ID, printer.Priority(thread.Priority), thread.Title, printer.Status(thread.Status))
		}
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	eng, store, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	snapshot, err := eng.GetThread(ctx, args[0])
	if err != nil {
		return printer.Error("failed to load thread", err.Error(), nil)
	}

	thread := snapshot.Thread
	printer.Header("%s  [%s] %s\n", thread.Title, printer.Priority(thread.Priority), printer.Status(thread.Status))
	if thread.Objective != "" {
		printer.Muted("%s\n", thread.Objective)
	}
	printer.Info("\n")

	for _, event := range snapshot.Events {
		ts := time.UnixMilli(event.CreatedAtMs).Format("2006-01-02 15:04:05")
		who := event.AgentID
		if who == "" {
			who = "operator"
		}
		printer.Info("#%d  %s  %-8s  %s: %s\n", event.Seq, ts, event.Type, who, event.Content)
		for _, step := range event.LogicChain {
			printer.Muted("      - %s\n", step)
		}
	}

	if conflict := snapshot.Conflict; conflict != nil {
		printer.Warning("\nActive conflict: %s\n", conflict.Reason)
		for _, option := range conflict.Options {
			marker := " "
			if conflict.Resolved && option.ID == conflict.WinningOptionID {
				marker = "*"
			}
			printer.Info("  %s %s  %s\n", marker, option.ID, option.Description)
		}
		printer.Muted("Resolve with:\n  braid resolve %s %s <option-id>\n", thread.ID, conflict.ID)
	}
	return nil
}
