// Package printer provides formatted, colored output for the braid CLI.
package printer

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/braidhq/braid/pkg/ledger"
)

func init() {
	// Force color output even when not connected to TTY.
	// Users can disable with the NO_COLOR environment variable.
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green   = color.New(color.FgGreen)
	yellow  = color.New(color.FgYellow)
	red     = color.New(color.FgRed, color.Bold)
	cyan    = color.New(color.FgCyan)
	magenta = color.New(color.FgMagenta)
	faint   = color.New(color.Faint)
)

// Success prints a success message in green with a checkmark prefix.
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		green.Printf("✓ %s", msg)
	} else {
		green.Print(msg)
	}
}

// Info prints an informational message in the default color.
func Info(format string, a ...any) {
	fmt.Printf(format, a...)
}

// Warning prints a warning message in yellow.
func Warning(format string, a ...any) {
	yellow.Printf(format, a...)
}

// Header prints a section header in cyan.
func Header(format string, a ...any) {
	cyan.Printf(format, a...)
}

// Muted prints secondary detail in faint text.
func Muted(format string, a ...any) {
	faint.Printf(format, a...)
}

// Status renders a thread status in its conventional color.
func Status(s ledger.ThreadStatus) string {
	switch s {
	case ledger.StatusInbox:
		return faint.Sprint(string(s))
	case ledger.StatusInProgress:
		return cyan.Sprint(string(s))
	case ledger.StatusAwaitingResolution:
		return magenta.Sprint(string(s))
	case ledger.StatusReview:
		return yellow.Sprint(string(s))
	case ledger.StatusBlocked:
		return red.Sprint(string(s))
	case ledger.StatusDone:
		return green.Sprint(string(s))
	default:
		return string(s)
	}
}

// Priority renders a thread priority in its conventional color.
func Priority(p ledger.Priority) string {
	switch p {
	case ledger.PriorityHigh:
		return red.Sprint(string(p))
	case ledger.PriorityMedium:
		return yellow.Sprint(string(p))
	case ledger.PriorityLow:
		return faint.Sprint(string(p))
	default:
		return string(p)
	}
}

// Error creates a formatted error message with title, explanation and
// suggestions. Prints to stderr with colors and returns a simple error
// for Cobra (which won't reprint it due to SilenceErrors).
func Error(title string, explanation string, suggestions []string) error {
	red.Fprintf(os.Stderr, "%s\n\n", title)
	fmt.Fprintf(os.Stderr, "%s\n", explanation)

	if len(suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(os.Stderr, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(os.Stderr, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	return fmt.Errorf("%s", title)
}
