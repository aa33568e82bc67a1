package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/emreakdag/stockdesk/internal/apperror"
	"github.com/emreakdag/stockdesk/internal/dataset"
	"github.com/emreakdag/stockdesk/internal/dossier"
	"github.com/emreakdag/stockdesk/internal/ledger"
	"github.com/emreakdag/stockdesk/internal/report"
	"github.com/emreakdag/stockdesk/internal/screener"
	"github.com/emreakdag/stockdesk/internal/timing"
)

type runDirs struct {
	report     string
	normalized string
	company    string
	watchlist  string
	timing     string
}

// outcome is the collected result of one entity. Exactly one of failReason
// or (dossier, score) is populated.
type outcome struct {
	symbol     string
	failReason string
	dossier    *dossier.Dossier
	score      *screener.Score
	files      []string
}

// Run executes the batch across the configured entities and returns the run
// summary. Entity-scoped failures are collected; storage failures abort the
// run after a best-effort attempt to mark the top-level job failed.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	symbols := normalizeSymbols(cfg.Symbols)
	if len(symbols) == 0 {
		return nil, apperror.New(apperror.Validation, "no valid symbols provided")
	}

	runDate := cfg.RunDate
	if runDate == "" {
		runDate = r.now().Format(dateFormat)
	}

	dirs, err := makeRunDirs(cfg, runDate)
	if err != nil {
		return nil, err
	}

	if err := r.store.UpsertSymbol(ctx, ledger.Symbol{
		Symbol:   anchorPipeline,
		Market:   anchorMarketTag,
		Currency: ledger.ReportingCurrency,
		Name:     "daily pipeline",
		IsActive: true,
	}); err != nil {
		return nil, err
	}

	runJobID, err := r.store.StartJob(ctx, JobTypeBatchRun, anchorPipeline)
	if err != nil {
		return nil, err
	}
	slog.Info("batch run started", "job", runJobID, "run_date", runDate, "symbols", len(symbols))

	outcomes := make([]outcome, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, raw := range symbols {
		i, raw := i, raw
		g.Go(func() error {
			out, fatal := r.processSymbol(gctx, raw, cfg, dirs, runDate)
			if fatal != nil {
				return fatal
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.failRunJob(ctx, runJobID, err)
		return nil, err
	}

	var (
		successSymbols []string
		failed         []failure
		dossiers       []dossier.Dossier
		scores         []screener.Score
		generatedFiles []string
	)
	for _, out := range outcomes {
		generatedFiles = append(generatedFiles, out.files...)
		if out.failReason != "" {
			failed = append(failed, failure{symbol: out.symbol, reason: out.failReason})
			continue
		}
		successSymbols = append(successSymbols, out.symbol)
		dossiers = append(dossiers, *out.dossier)
		scores = append(scores, *out.score)
	}

	if len(scores) > 0 {
		files, err := r.generateWatchlistReport(ctx, runDate, dirs.watchlist, scores)
		if err != nil {
			r.failRunJob(ctx, runJobID, err)
			return nil, err
		}
		generatedFiles = append(generatedFiles, files...)

		files, err = r.generateMarketTimingReport(ctx, runDate, dirs.timing, dossiers)
		if err != nil {
			r.failRunJob(ctx, runJobID, err)
			return nil, err
		}
		generatedFiles = append(generatedFiles, files...)
	}

	summaryMD, summaryJSON, err := r.writeSummaryFiles(dirs.report, runDate, successSymbols, failed, generatedFiles)
	if err != nil {
		r.failRunJob(ctx, runJobID, err)
		return nil, err
	}
	generatedFiles = append(generatedFiles, summaryMD, summaryJSON)

	// The batch only counts as success when something succeeded and nothing
	// failed; partial runs keep their artifacts but the run job is marked
	// failed so monitoring trips.
	status := ledger.StatusFailed
	errorMessage := ""
	if len(successSymbols) > 0 && len(failed) == 0 {
		status = ledger.StatusSuccess
	} else {
		errorMessage = buildRunErrorMessage(len(successSymbols), failed)
	}
	if err := r.store.FinishJob(ctx, runJobID, status, errorMessage); err != nil {
		return nil, err
	}
	slog.Info("batch run finished", "job", runJobID, "status", status,
		"succeeded", len(successSymbols), "failed", len(failed))

	return &Result{
		RunDate:             runDate,
		SuccessSymbols:      successSymbols,
		FailedSymbols:       failureMap(failed),
		GeneratedFiles:      generatedFiles,
		SummaryMarkdownPath: summaryMD,
		SummaryJSONPath:     summaryJSON,
	}, nil
}

// processSymbol runs the full per-entity chain. The second return is non-nil
// only for failures that must abort the whole run (storage errors); anything
// else is folded into the outcome.
func (r *Runner) processSymbol(ctx context.Context, raw string, cfg Config, dirs runDirs, runDate string) (outcome, error) {
	info, err := r.adapter.Resolve(ctx, raw)
	if err != nil {
		slog.Warn("symbol resolution failed", "symbol", raw, "error", err)
		return outcome{symbol: strings.ToUpper(raw), failReason: err.Error()}, nil
	}

	if err := r.store.UpsertSymbol(ctx, ledger.Symbol{
		Symbol:   info.Symbol,
		Market:   string(info.Market),
		Currency: info.Currency,
		IsActive: true,
	}); err != nil {
		return outcome{}, err
	}

	jobID, err := r.store.StartJob(ctx, JobTypeEntityRefresh, info.Symbol)
	if err != nil {
		return outcome{}, err
	}

	out, err := r.refreshSymbol(ctx, info.Symbol, info.Currency, cfg, dirs, runDate)
	if err != nil {
		if apperror.CodeOf(err) == apperror.Storage {
			_ = r.store.FinishJob(ctx, jobID, ledger.StatusFailed, err.Error())
			return outcome{}, err
		}
		slog.Warn("symbol refresh failed", "symbol", info.Symbol, "error", err)
		if finishErr := r.store.FinishJob(ctx, jobID, ledger.StatusFailed, err.Error()); finishErr != nil {
			return outcome{}, finishErr
		}
		return outcome{symbol: info.Symbol, failReason: err.Error()}, nil
	}

	if err := r.store.FinishJob(ctx, jobID, ledger.StatusSuccess, ""); err != nil {
		return outcome{}, err
	}
	slog.Info("symbol refreshed", "symbol", info.Symbol, "files", len(out.files))
	return out, nil
}

// refreshSymbol fetches, persists, scores, and reports a single resolved
// symbol.
func (r *Runner) refreshSymbol(ctx context.Context, symbol, currency string, cfg Config, dirs runDirs, runDate string) (outcome, error) {
	bundle, err := r.adapter.FetchDataset(ctx, symbol, cfg.StartDate, cfg.EndDate)
	if err != nil {
		return outcome{}, err
	}

	out := outcome{symbol: symbol}

	symbolDir := filepath.Join(dirs.normalized, pathSafe(symbol))
	if err := os.MkdirAll(symbolDir, 0o755); err != nil {
		return outcome{}, fmt.Errorf("create %s: %w", symbolDir, err)
	}
	for _, datasetType := range sortedKeys(bundle) {
		table := bundle[datasetType]
		asOfDate := table.LatestAsOfDate(runDate)
		path := filepath.Join(symbolDir, fmt.Sprintf("%s-%s.csv", datasetType, asOfDate))
		if err := dataset.WriteCSV(table, path); err != nil {
			return outcome{}, err
		}
		checksum, err := dataset.FileChecksum(path)
		if err != nil {
			return outcome{}, err
		}
		if err := r.store.RecordSnapshot(ctx, ledger.Snapshot{
			Symbol:      symbol,
			DatasetType: datasetType,
			AsOfDate:    asOfDate,
			FilePath:    path,
			RowCount:    int64(table.RowCount()),
			Checksum:    checksum,
		}); err != nil {
			return outcome{}, err
		}
		out.files = append(out.files, path)
	}

	var fx *float64
	rate, ok, err := r.store.ResolveToReporting(ctx, currency, cfg.EndDate, true)
	if err != nil {
		return outcome{}, err
	}
	if ok {
		fx = &rate
	}

	d := dossier.Build(symbol, bundle, fx)
	score := screener.ScoreDossier(d)

	reportDate := d.AsOfDate
	if reportDate == "" {
		reportDate = runDate
	}
	reportDir := filepath.Join(dirs.company, pathSafe(symbol))
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return outcome{}, fmt.Errorf("create %s: %w", reportDir, err)
	}
	reportPath := filepath.Join(reportDir, fmt.Sprintf("company-dossier-%s.md", reportDate))
	markdown := report.CompanyDossierMarkdown(d, bundle, r.now())
	if err := os.WriteFile(reportPath, []byte(markdown), 0o644); err != nil {
		return outcome{}, apperror.Wrap(apperror.Render, "write company dossier report", err)
	}

	if err := r.store.RecordReport(ctx, ledger.Report{
		Symbol:     symbol,
		ReportType: reportTypeCompanyDossier,
		ReportDate: reportDate,
		FilePath:   reportPath,
	}); err != nil {
		return outcome{}, err
	}
	out.files = append(out.files, reportPath)
	out.dossier = &d
	out.score = &score
	return out, nil
}

func (r *Runner) generateWatchlistReport(ctx context.Context, runDate, dir string, scores []screener.Score) ([]string, error) {
	if err := r.store.UpsertSymbol(ctx, ledger.Symbol{
		Symbol:   anchorWatchlist,
		Market:   anchorMarketTag,
		Currency: ledger.ReportingCurrency,
		Name:     "watchlist",
		IsActive: true,
	}); err != nil {
		return nil, err
	}

	asOfDate := runDate
	for _, s := range scores {
		if s.AsOfDate > asOfDate {
			asOfDate = s.AsOfDate
		}
	}

	markdownPath := filepath.Join(dir, fmt.Sprintf("watchlist-%s.md", asOfDate))
	markdown := report.WatchlistMarkdown(scores, r.now())
	if err := os.WriteFile(markdownPath, []byte(markdown), 0o644); err != nil {
		return nil, apperror.Wrap(apperror.Render, "write watchlist report", err)
	}

	csvPath := filepath.Join(dir, fmt.Sprintf("watchlist-%s.csv", asOfDate))
	if err := report.WriteScoreCSV(csvPath, scores); err != nil {
		return nil, apperror.Wrap(apperror.Render, "write watchlist scores", err)
	}

	if err := r.store.RecordReport(ctx, ledger.Report{
		Symbol:     anchorWatchlist,
		ReportType: reportTypeWatchlist,
		ReportDate: asOfDate,
		FilePath:   markdownPath,
	}); err != nil {
		return nil, err
	}
	return []string{markdownPath, csvPath}, nil
}

func (r *Runner) generateMarketTimingReport(ctx context.Context, runDate, dir string, dossiers []dossier.Dossier) ([]string, error) {
	if err := r.store.UpsertSymbol(ctx, ledger.Symbol{
		Symbol:   anchorMarket,
		Market:   anchorMarketTag,
		Currency: ledger.ReportingCurrency,
		Name:     "market panel",
		IsActive: true,
	}); err != nil {
		return nil, err
	}

	panel, scores, err := timing.Build(dossiers)
	if err != nil {
		return nil, err
	}
	reportDate := panel.AsOfDate
	if reportDate == "" {
		reportDate = runDate
	}

	markdownPath := filepath.Join(dir, fmt.Sprintf("market-timing-%s.md", reportDate))
	markdown := report.MarketTimingMarkdown(panel, scores, r.now())
	if err := os.WriteFile(markdownPath, []byte(markdown), 0o644); err != nil {
		return nil, apperror.Wrap(apperror.Render, "write market timing report", err)
	}

	csvPath := filepath.Join(dir, fmt.Sprintf("market-timing-scores-%s.csv", reportDate))
	if err := report.WriteScoreCSV(csvPath, scores); err != nil {
		return nil, apperror.Wrap(apperror.Render, "write market timing scores", err)
	}

	if err := r.store.RecordReport(ctx, ledger.Report{
		Symbol:     anchorMarket,
		ReportType: reportTypeMarketTiming,
		ReportDate: reportDate,
		FilePath:   markdownPath,
	}); err != nil {
		return nil, err
	}
	return []string{markdownPath, csvPath}, nil
}

func (r *Runner) failRunJob(ctx context.Context, jobID int64, cause error) {
	if err := r.store.FinishJob(ctx, jobID, ledger.StatusFailed, cause.Error()); err != nil {
		slog.Error("failed to mark run job failed", "job", jobID, "error", err)
	}
}

type failure struct {
	symbol string
	reason string
}

func failureMap(failed []failure) map[string]string {
	m := make(map[string]string, len(failed))
	for _, f := range failed {
		m[f.symbol] = f.reason
	}
	return m
}

func buildRunErrorMessage(successCount int, failed []failure) string {
	if len(failed) == 0 && successCount == 0 {
		return "run produced no successful symbols"
	}
	if len(failed) == 0 {
		return "run did not meet the success condition"
	}
	details := make([]string, len(failed))
	for i, f := range failed {
		details[i] = fmt.Sprintf("%s: %s", f.symbol, f.reason)
	}
	return fmt.Sprintf("%d symbols succeeded; failures: %s", successCount, strings.Join(details, "; "))
}

func makeRunDirs(cfg Config, runDate string) (runDirs, error) {
	reportRoot := filepath.Join(cfg.ReportRoot, runDate)
	dirs := runDirs{
		report:     reportRoot,
		normalized: filepath.Join(cfg.NormalizedRoot, runDate),
		company:    filepath.Join(reportRoot, "company_dossier"),
		watchlist:  filepath.Join(reportRoot, "watchlist_screener"),
		timing:     filepath.Join(reportRoot, "market_timing_panel"),
	}
	for _, dir := range []string{dirs.report, dirs.normalized, dirs.company, dirs.watchlist, dirs.timing} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return runDirs{}, fmt.Errorf("create run directory %s: %w", dir, err)
		}
	}
	return dirs, nil
}

func pathSafe(symbol string) string {
	return strings.ReplaceAll(symbol, ".", "_")
}

func sortedKeys(bundle map[string]*dataset.Table) []string {
	keys := make([]string, 0, len(bundle))
	for k := range bundle {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
