package ledger

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/emreakdag/stockdesk/internal/apperror"
	domain "github.com/emreakdag/stockdesk/internal/ledger"
)

func (r *Repository) UpsertFxRate(ctx context.Context, date, base, quote string, rate float64, source string) error {
	if rate <= 0 {
		return apperror.New(apperror.Validation, "fx rate must be greater than 0")
	}
	base = strings.ToUpper(strings.TrimSpace(base))
	quote = strings.ToUpper(strings.TrimSpace(quote))
	source = strings.TrimSpace(source)
	if base == "" || quote == "" {
		return apperror.New(apperror.Validation, "base and quote currency cannot be empty")
	}
	if source == "" {
		return apperror.New(apperror.Validation, "fx rate source cannot be empty")
	}

	const query = `INSERT INTO fx_rates (date, base_currency, quote_currency, rate, source)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date, base_currency, quote_currency) DO UPDATE SET
			rate = excluded.rate,
			source = excluded.source,
			updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.ExecContext(ctx, query, date, base, quote, rate, source); err != nil {
		return storageErr("upsert fx rate", err)
	}
	return nil
}

// GetFxRate looks up base->quote, falling back to the reciprocal of the
// reverse pair. An empty date returns the most recent rate for the pair;
// otherwise allowNearest selects the latest rate on or before date, and a
// strict lookup requires an exact date match.
func (r *Repository) GetFxRate(ctx context.Context, date, base, quote string, allowNearest bool) (float64, bool, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if base == "" || quote == "" {
		return 0, false, nil
	}
	if base == quote {
		return 1.0, true, nil
	}

	direct, ok, err := r.queryFxRate(ctx, date, base, quote, allowNearest)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return direct, true, nil
	}

	reverse, ok, err := r.queryFxRate(ctx, date, quote, base, allowNearest)
	if err != nil {
		return 0, false, err
	}
	// Rates are constrained positive on write, but guard the reciprocal anyway.
	if !ok || reverse == 0 {
		return 0, false, nil
	}
	return 1.0 / reverse, true, nil
}

func (r *Repository) ResolveToReporting(ctx context.Context, currency, date string, allowNearest bool) (float64, bool, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return 0, false, nil
	}
	if currency == domain.ReportingCurrency {
		return 1.0, true, nil
	}
	return r.GetFxRate(ctx, date, currency, domain.ReportingCurrency, allowNearest)
}

func (r *Repository) queryFxRate(ctx context.Context, date, base, quote string, allowNearest bool) (float64, bool, error) {
	var (
		query string
		args  []any
	)
	switch {
	case date == "":
		query = `SELECT rate FROM fx_rates
			WHERE base_currency = ? AND quote_currency = ?
			ORDER BY date DESC LIMIT 1`
		args = []any{base, quote}
	case allowNearest:
		query = `SELECT rate FROM fx_rates
			WHERE base_currency = ? AND quote_currency = ? AND date <= ?
			ORDER BY date DESC LIMIT 1`
		args = []any{base, quote, date}
	default:
		query = `SELECT rate FROM fx_rates
			WHERE base_currency = ? AND quote_currency = ? AND date = ?
			LIMIT 1`
		args = []any{base, quote, date}
	}

	var rate float64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storageErr("query fx rate", err)
	}
	return rate, true, nil
}
