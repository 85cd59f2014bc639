package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/braidhq/braid/internal/engine"
	"github.com/braidhq/braid/internal/printer"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <thread-id> <conflict-id> <option-id>",
	Short: "Resolve a thread's active conflict",
	Long: `Approve one option of a thread's active conflict. Resolution is
exactly-once: if the conflict was already resolved the stored winner is
unchanged and the command fails.

Examples:
  braid resolve 7c2a... 5e91... 0d3f...`,
	Args: cobra.ExactArgs(3),
	RunE: runResolve,
}

var actionCmd = &cobra.Command{
	Use:       "action <thread-id> <retry|auto_fix|ignore>",
	Short:     "Act on a blocked thread",
	Long:      `Unblock a thread with an operator action: retry the work, ask the agents to attempt an automatic fix, or dismiss the blocking issue.`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"retry", "auto_fix", "ignore"},
	RunE:      runAction,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(actionCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	eng, store, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	conflict, err := eng.ApproveConflict(ctx, engine.Operator(), args[0], args[1], args[2])
	if err != nil {
		return printer.Error(
			"failed to resolve conflict",
			err.Error(),
			[]string{"Inspect the thread:\n  braid show " + args[0]},
		)
	}

	winner := conflict.Option(conflict.WinningOptionID)
	printer.Success("conflict resolved: %s\n", winner.Description)
	return nil
}

func runAction(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	eng, store, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	threadID := args[0]
	var actionErr error
	switch args[1] {
	case "retry":
		_, actionErr = eng.RetryAction(ctx, threadID)
	case "auto_fix":
		_, actionErr = eng.AutoFix(ctx, threadID)
	case "ignore":
		_, actionErr = eng.IgnoreIssue(ctx, threadID)
	default:
		return printer.Error(
			"unknown action",
			"Valid actions: retry, auto_fix, ignore",
			nil,
		)
	}
	if actionErr != nil {
		return printer.Error(
			"action rejected",
			actionErr.Error(),
			[]string{"Inspect the thread:\n  braid show " + threadID},
		)
	}

	printer.Success("thread unblocked\n")
	return nil
}
