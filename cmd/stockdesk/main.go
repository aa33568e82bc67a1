// Command stockdesk runs the daily research pipeline and its operational
// helpers against a shared SQLite job ledger.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/emreakdag/stockdesk/internal/platform/sqlite"
)

// exitError carries a specific process exit code out of a subcommand.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	root := &cobra.Command{
		Use:           "stockdesk",
		Short:         "Batch research pipeline with a durable job ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().Bool("verbose", false, "log more information")
	root.PersistentFlags().String("db", defaultDBPath(), "path to the metadata database")

	root.AddCommand(cmdInit())
	root.AddCommand(cmdRun())
	root.AddCommand(cmdHealth())
	root.AddCommand(cmdHistory())
	root.AddCommand(cmdFx())
	root.AddCommand(cmdSymbols())

	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(os.Stderr, ee.msg)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultDBPath() string {
	if v := os.Getenv("STOCKDESK_DB"); v != "" {
		return v
	}
	return sqlite.DefaultPath(".")
}
