package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/emreakdag/stockdesk/internal/adapter/csvdir"
	"github.com/emreakdag/stockdesk/internal/fx"
	"github.com/emreakdag/stockdesk/internal/health"
	"github.com/emreakdag/stockdesk/internal/ledger"
	"github.com/emreakdag/stockdesk/internal/pipeline"
	"github.com/emreakdag/stockdesk/internal/platform/sqlite"
	"github.com/emreakdag/stockdesk/internal/report"
	ledgerrepo "github.com/emreakdag/stockdesk/internal/repository/ledger"
)

const dateFormat = "2006-01-02"

// openStore opens the ledger at the --db flag path, creating the schema when
// absent.
func openStore(cmd *cobra.Command) (*sqlite.DB, *ledgerrepo.Repository, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return db, ledgerrepo.NewRepository(db.DB), nil
}

func cmdInit() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or upgrade the ledger schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			db, err := sqlite.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			resolved, err := sqlite.ResolvePath(dbPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resolved)
			return nil
		},
	}
}

func cmdRun() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the daily batch pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			symbolsText, _ := cmd.Flags().GetString("symbols")
			symbolsFile, _ := cmd.Flags().GetString("symbols-file")
			fileContent := ""
			if symbolsFile != "" {
				data, err := os.ReadFile(symbolsFile)
				if err != nil {
					return fmt.Errorf("read symbols file: %w", err)
				}
				fileContent = string(data)
			}

			db, store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			dataRoot, _ := cmd.Flags().GetString("data-root")
			runner := pipeline.NewRunner(store, csvdir.New(dataRoot))

			startDate, _ := cmd.Flags().GetString("start")
			endDate, _ := cmd.Flags().GetString("end")
			runDate, _ := cmd.Flags().GetString("run-date")
			reportRoot, _ := cmd.Flags().GetString("report-root")
			normalizedRoot, _ := cmd.Flags().GetString("normalized-root")
			workers, _ := cmd.Flags().GetInt("workers")

			result, err := runner.Run(cmd.Context(), pipeline.Config{
				Symbols:        pipeline.LoadSymbolList(symbolsText, fileContent),
				StartDate:      startDate,
				EndDate:        endDate,
				ReportRoot:     reportRoot,
				NormalizedRoot: normalizedRoot,
				RunDate:        runDate,
				Workers:        workers,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d succeeded, %d failed, %d artifacts\n",
				result.RunDate, len(result.SuccessSymbols), len(result.FailedSymbols), len(result.GeneratedFiles))
			fmt.Fprintf(cmd.OutOrStdout(), "summary: %s\n", result.SummaryMarkdownPath)

			allowPartial, _ := cmd.Flags().GetBool("allow-partial")
			switch {
			case len(result.SuccessSymbols) == 0:
				return &exitError{code: 3, msg: "run produced no successful symbols"}
			case result.HasFailures() && !allowPartial:
				return &exitError{code: 2, msg: fmt.Sprintf("%d symbols failed", len(result.FailedSymbols))}
			}
			return nil
		},
	}
	cmd.Flags().String("symbols", "", "comma-separated symbol list")
	cmd.Flags().String("symbols-file", "", "file with one symbol per line (# comments allowed)")
	cmd.Flags().String("start", "", "dataset start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "dataset end date (YYYY-MM-DD)")
	cmd.Flags().String("run-date", "", "override the run date (YYYY-MM-DD)")
	cmd.Flags().String("report-root", "data/reports", "root directory for rendered reports")
	cmd.Flags().String("normalized-root", "data/normalized", "root directory for dataset snapshots")
	cmd.Flags().String("data-root", "data/source", "root directory of normalized source CSVs")
	cmd.Flags().Int("workers", 1, "concurrent entity workers")
	cmd.Flags().Bool("allow-partial", false, "exit 0 even when some symbols failed")
	return cmd
}

func cmdHealth() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Classify pipeline health from the job ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			jobs, err := store.ListJobs(cmd.Context(), ledger.JobFilter{Type: pipeline.JobTypeBatchRun}, 1)
			if err != nil {
				return err
			}

			maxDelayHours, _ := cmd.Flags().GetInt("max-delay-hours")
			h, err := health.Evaluate(jobs, maxDelayHours, time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", h.Code, h.Message)
			if !h.OK {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().Int("max-delay-hours", 36, "staleness threshold in hours")
	return cmd
}

func cmdHistory() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Render recent pipeline jobs as markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			limit, _ := cmd.Flags().GetInt("limit")
			jobs, err := store.ListJobs(cmd.Context(), ledger.JobFilter{Type: pipeline.JobTypeBatchRun}, limit)
			if err != nil {
				return err
			}

			maxDelayHours, _ := cmd.Flags().GetInt("max-delay-hours")
			h, err := health.Evaluate(jobs, maxDelayHours, time.Now())
			if err != nil {
				return err
			}

			markdown := report.HistoryMarkdown(jobs, &h, "")
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), markdown)
				return nil
			}
			return os.WriteFile(output, []byte(markdown), 0o644)
		},
	}
	cmd.Flags().Int("limit", 20, "number of jobs to include")
	cmd.Flags().Int("max-delay-hours", 36, "staleness threshold in hours")
	cmd.Flags().String("output", "", "write markdown to this file instead of stdout")
	return cmd
}

func cmdFx() *cobra.Command {
	root := &cobra.Command{
		Use:   "fx",
		Short: "Maintain the ledger's FX rate cache",
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Upsert a single FX rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			date, _ := cmd.Flags().GetString("date")
			base, _ := cmd.Flags().GetString("base")
			quote, _ := cmd.Flags().GetString("quote")
			rate, _ := cmd.Flags().GetFloat64("rate")
			source, _ := cmd.Flags().GetString("source")
			if date == "" {
				date = time.Now().Format(dateFormat)
			}
			if err := store.UpsertFxRate(cmd.Context(), date, base, quote, rate, source); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s %s/%s = %g (%s)\n", date, base, quote, rate, source)
			return nil
		},
	}
	set.Flags().String("date", "", "rate date (YYYY-MM-DD), defaults to today")
	set.Flags().String("base", "", "base currency code")
	set.Flags().String("quote", ledger.ReportingCurrency, "quote currency code")
	set.Flags().Float64("rate", 0, "conversion rate, must be positive")
	set.Flags().String("source", "manual", "rate source tag")
	_ = set.MarkFlagRequired("base")
	_ = set.MarkFlagRequired("rate")

	sync := &cobra.Command{
		Use:   "sync",
		Short: "Fetch daily FX rates from the chart API",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			base, _ := cmd.Flags().GetString("base")
			quote, _ := cmd.Flags().GetString("quote")
			days, _ := cmd.Flags().GetInt("days")
			to := time.Now()
			from := to.AddDate(0, 0, -days)

			svc := fx.NewService(store)
			n, err := svc.Sync(cmd.Context(), base, quote, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d days for %s/%s\n", n, base, quote)
			return nil
		},
	}
	sync.Flags().String("base", "", "base currency code")
	sync.Flags().String("quote", ledger.ReportingCurrency, "quote currency code")
	sync.Flags().Int("days", 30, "how many days back to fetch")
	_ = sync.MarkFlagRequired("base")

	root.AddCommand(set)
	root.AddCommand(sync)
	return root
}

func cmdSymbols() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "List registered symbols",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			all, _ := cmd.Flags().GetBool("all")
			market, _ := cmd.Flags().GetString("market")
			symbols, err := store.ListSymbols(cmd.Context(), !all, market)
			if err != nil {
				return err
			}
			for _, s := range symbols {
				active := "active"
				if !s.IsActive {
					active = "inactive"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", s.Symbol, s.Market, s.Currency, active)
			}
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "include inactive symbols")
	cmd.Flags().String("market", "", "filter by market")
	return cmd
}
