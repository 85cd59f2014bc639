package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/braidhq/braid/internal/engine"
	"github.com/braidhq/braid/internal/printer"
	"github.com/braidhq/braid/pkg/ledger"
)

var (
	postAgentID string
	postType    string
	postSignal  string
	postLogic   []string
	postMeta    []string
)

var postCmd = &cobra.Command{
	Use:   "post <thread-id> <content>",
	Short: "Post an event to a thread",
	Long: `Append an event to a thread's log through the engine's command
path. Lifecycle transitions implied by the event (picking up inbox work,
review signals, approvals, block signals) are applied atomically with the
append.

Examples:
  # Operator note
  braid post 7c2a... "double-check the serp data"

  # Agent message carrying a lifecycle signal
  braid post 7c2a... "draft ready" --agent 91bd... --signal ready_for_review

  # Approve reviewed work
  braid post 7c2a... "ship it" --type system --signal approved`,
	Args: cobra.ExactArgs(2),
	RunE: runPost,
}

func init() {
	postCmd.Flags().StringVar(&postAgentID, "agent", "", "Agent ID authoring the event (omit for operator)")
	postCmd.Flags().StringVar(&postType, "type", "message", "Event type (message or system)")
	postCmd.Flags().StringVar(&postSignal, "signal", "", "Lifecycle signal (ready_for_review, approved, blocked)")
	postCmd.Flags().StringArrayVar(&postLogic, "logic", nil, "Reasoning step (repeatable)")
	postCmd.Flags().StringArrayVar(&postMeta, "meta", nil, "Extra metadata as key=value (repeatable)")
	rootCmd.AddCommand(postCmd)
}

func runPost(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	meta := make(map[string]string)
	for _, pair := range postMeta {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return printer.Error(
				"invalid metadata",
				fmt.Sprintf("Expected key=value, got: %s", pair),
				nil,
			)
		}
		meta[key] = value
	}
	if postSignal != "" {
		meta[ledger.MetaSignal] = postSignal
	}
	if len(meta) == 0 {
		meta = nil
	}

	eng, store, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	event, err := eng.PostEvent(ctx, engine.EventInput{
		ThreadID:   args[0],
		Type:       ledger.EventType(postType),
		AgentID:    postAgentID,
		Content:    args[1],
		LogicChain: postLogic,
		Meta:       meta,
	})
	if err != nil {
		return printer.Error(
			"event rejected",
			err.Error(),
			[]string{"Inspect the thread:\n  braid show " + args[0]},
		)
	}

	printer.Success("event #%d appended\n", event.Seq)
	return nil
}
