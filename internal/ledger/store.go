package ledger

import "context"

// Store is the full ledger surface. Every write is idempotent (upsert
// semantics on natural keys) so a retried run never duplicates bookkeeping.
type Store interface {
	UpsertSymbol(ctx context.Context, s Symbol) error
	ListSymbols(ctx context.Context, onlyActive bool, market string) ([]Symbol, error)

	StartJob(ctx context.Context, jobType, symbol string) (int64, error)
	FinishJob(ctx context.Context, jobID int64, status Status, errorMessage string) error
	ListJobs(ctx context.Context, filter JobFilter, limit int) ([]Job, error)

	RecordSnapshot(ctx context.Context, s Snapshot) error
	RecordReport(ctx context.Context, r Report) error

	UpsertFxRate(ctx context.Context, date, base, quote string, rate float64, source string) error
	// GetFxRate reports the conversion rate base->quote. The second return is
	// false when no usable rate exists. An empty date means "most recent".
	GetFxRate(ctx context.Context, date, base, quote string, allowNearest bool) (float64, bool, error)
	ResolveToReporting(ctx context.Context, currency, date string, allowNearest bool) (float64, bool, error)
}
