// Package pipeline drives the unattended batch run: fetch, normalize,
// persist, score, and report for every entity on the list, with all
// bookkeeping recorded in the job ledger. A single entity's failure never
// aborts the batch; ledger failures do.
package pipeline

import (
	"strings"
	"time"

	"github.com/emreakdag/stockdesk/internal/adapter"
	"github.com/emreakdag/stockdesk/internal/ledger"
)

const (
	dateFormat = "2006-01-02"

	// Job types recorded in the ledger.
	JobTypeBatchRun      = "batch_run"
	JobTypeEntityRefresh = "entity_refresh"

	// Synthetic anchor symbols for run-level and aggregate artifacts.
	anchorPipeline  = "PIPELINE"
	anchorWatchlist = "WATCHLIST"
	anchorMarket    = "MARKET"
	anchorMarketTag = "META"

	reportTypeCompanyDossier = "company_dossier"
	reportTypeWatchlist      = "watchlist_screener"
	reportTypeMarketTiming   = "market_timing_panel"
)

type Config struct {
	Symbols        []string
	StartDate      string
	EndDate        string
	ReportRoot     string
	NormalizedRoot string
	// RunDate overrides the clock-derived run date (YYYY-MM-DD).
	RunDate string
	// Workers bounds concurrent entity processing; values below 1 mean
	// sequential.
	Workers int
}

type Result struct {
	RunDate             string            `json:"runDate"`
	SuccessSymbols      []string          `json:"successSymbols"`
	FailedSymbols       map[string]string `json:"failedSymbols"`
	GeneratedFiles      []string          `json:"generatedFiles"`
	SummaryMarkdownPath string            `json:"summaryMarkdownPath"`
	SummaryJSONPath     string            `json:"summaryJsonPath"`
}

func (r *Result) HasFailures() bool { return len(r.FailedSymbols) > 0 }

type Runner struct {
	store   ledger.Store
	adapter adapter.Adapter
	now     func() time.Time
}

func NewRunner(store ledger.Store, a adapter.Adapter, opts ...Option) *Runner {
	r := &Runner{
		store:   store,
		adapter: a,
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

type Option func(*Runner)

// WithClock fixes the runner's clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// normalizeSymbols trims, upper-cases, and deduplicates the entity list
// while preserving first-seen order.
func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	var result []string
	for _, s := range symbols {
		normalized := strings.ToUpper(strings.TrimSpace(s))
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		result = append(result, normalized)
	}
	return result
}

// LoadSymbolList merges a comma-separated list with the lines of an optional
// file (blank lines and #-comments skipped), normalized and deduplicated.
func LoadSymbolList(symbolsText string, fileContent string) []string {
	var values []string
	for _, item := range strings.Split(symbolsText, ",") {
		if item = strings.TrimSpace(item); item != "" {
			values = append(values, item)
		}
	}
	for _, line := range strings.Split(fileContent, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		values = append(values, line)
	}
	return normalizeSymbols(values)
}
