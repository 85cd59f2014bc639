package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/braidhq/braid/internal/printer"
	"github.com/braidhq/braid/pkg/ledger"
)

var watchOutputFormat string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live workspace activity",
	Long: `Stream events as they are appended to the workspace ledger.

Output Formats:
  default - Human-readable output with timestamps
  json    - Line-delimited JSON for programmatic processing

Examples:
  # Watch all activity
  braid watch

  # Export events as JSON
  braid watch --output=json > events.jsonl`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchOutputFormat != "default" && watchOutputFormat != "json" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub, err := store.SubscribeEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Close()

	if watchOutputFormat == "default" {
		printer.Header("Watching workspace '%s' (Ctrl-C to stop)\n", store.Workspace())
	}

	encoder := json.NewEncoder(os.Stdout)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-sub.Errors():
			if !ok {
				return nil
			}
			printer.Warning("stream error: %v\n", err)
		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if watchOutputFormat == "json" {
				if err := encoder.Encode(event); err != nil {
					return err
				}
				continue
			}
			printEvent(event)
		}
	}
}

func printEvent(event *ledger.Event) {
	ts := time.UnixMilli(event.CreatedAtMs).Format("15:04:05")
	who := event.AgentID
	if who == "" {
		who = "operator"
	}

	switch event.Type {
	case ledger.EventTypeConflict:
		printer.Warning("%s  conflict  thread=%s  %s\n", ts, event.ThreadID, event.Content)
	case ledger.EventTypeSystem:
		printer.Muted("%s  system    thread=%s  %s\n", ts, event.ThreadID, event.Content)
	default:
		printer.Info("%s  %-8s  thread=%s  %s: %s\n", ts, event.Type, event.ThreadID, who, event.Content)
	}
	if sig, ok := event.Meta[ledger.MetaSignal]; ok {
		printer.Muted("          signal=%s\n", sig)
	}
}
