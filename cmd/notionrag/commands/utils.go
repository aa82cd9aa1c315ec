// ABOUTME: Shared output helpers for CLI commands
// ABOUTME: JSON or aligned text depending on the --format flag
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/harper/notion-rag/internal/refresh"
)

// truncate shortens a string to maxLen runes, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// wantJSON reports whether output should be JSON
func wantJSON() bool {
	return outputFormat == "json"
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// writeStatus prints a refresh status as JSON or a key/value table
func writeStatus(w io.Writer, st refresh.Status) error {
	if wantJSON() {
		return writeJSON(w, st)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "State:\t%s\n", st.State)
	fmt.Fprintf(tw, "Ready:\t%t\n", st.Ready)
	fmt.Fprintf(tw, "Chunks:\t%d\n", st.Chunks)
	fmt.Fprintf(tw, "Cycles:\t%d (%d failed)\n", st.Cycles, st.Failures)
	if st.Generation != "" {
		fmt.Fprintf(tw, "Generation:\t%s\n", st.Generation)
	}
	if st.LastDuration != "" {
		fmt.Fprintf(tw, "Last duration:\t%s\n", st.LastDuration)
	}
	if st.LastError != "" {
		fmt.Fprintf(tw, "Last error:\t%s\n", truncate(st.LastError, 120))
	}
	return tw.Flush()
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
