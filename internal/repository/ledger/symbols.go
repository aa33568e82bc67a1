package ledger

import (
	"context"
	"database/sql"

	domain "github.com/emreakdag/stockdesk/internal/ledger"
)

func (r *Repository) UpsertSymbol(ctx context.Context, s domain.Symbol) error {
	const query = `INSERT INTO symbols (symbol, market, name, currency, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			market = excluded.market,
			name = excluded.name,
			currency = excluded.currency,
			is_active = excluded.is_active,
			updated_at = CURRENT_TIMESTAMP`

	var name any
	if s.Name != "" {
		name = s.Name
	}
	active := 0
	if s.IsActive {
		active = 1
	}
	if _, err := r.db.ExecContext(ctx, query, s.Symbol, s.Market, name, s.Currency, active); err != nil {
		return storageErr("upsert symbol", err)
	}
	return nil
}

func (r *Repository) ListSymbols(ctx context.Context, onlyActive bool, market string) ([]domain.Symbol, error) {
	query := `SELECT symbol, market, name, currency, is_active, updated_at
		FROM symbols WHERE 1=1`

	var args []any
	if onlyActive {
		query += " AND is_active = 1"
	}
	if market != "" {
		query += " AND market = ?"
		args = append(args, market)
	}
	query += " ORDER BY symbol ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list symbols", err)
	}
	defer func() { _ = rows.Close() }()

	var symbols []domain.Symbol
	for rows.Next() {
		var s domain.Symbol
		var name sql.NullString
		var active int
		if err := rows.Scan(&s.Symbol, &s.Market, &name, &s.Currency, &active, &s.UpdatedAt); err != nil {
			return nil, storageErr("scan symbol", err)
		}
		if name.Valid {
			s.Name = name.String
		}
		s.IsActive = active != 0
		symbols = append(symbols, s)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("list symbols", err)
	}
	return symbols, nil
}
