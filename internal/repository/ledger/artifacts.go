package ledger

import (
	"context"

	domain "github.com/emreakdag/stockdesk/internal/ledger"
)

// RecordSnapshot indexes one persisted normalized table. Re-recording the
// same (symbol, dataset_type, as_of_date, file_path) key refreshes row count,
// checksum, and timestamp instead of inserting a duplicate.
func (r *Repository) RecordSnapshot(ctx context.Context, s domain.Snapshot) error {
	const query = `INSERT INTO dataset_snapshots
		(symbol, dataset_type, as_of_date, file_path, row_count, checksum)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, dataset_type, as_of_date, file_path) DO UPDATE SET
			row_count = excluded.row_count,
			checksum = excluded.checksum,
			created_at = CURRENT_TIMESTAMP`

	var checksum any
	if s.Checksum != "" {
		checksum = s.Checksum
	}
	if _, err := r.db.ExecContext(ctx, query,
		s.Symbol, s.DatasetType, s.AsOfDate, s.FilePath, s.RowCount, checksum,
	); err != nil {
		return storageErr("record dataset snapshot", err)
	}
	return nil
}

func (r *Repository) RecordReport(ctx context.Context, rep domain.Report) error {
	const query = `INSERT INTO reports (symbol, report_type, report_date, file_path)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol, report_type, report_date, file_path) DO UPDATE SET
			generated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.ExecContext(ctx, query,
		rep.Symbol, rep.ReportType, rep.ReportDate, rep.FilePath,
	); err != nil {
		return storageErr("record report", err)
	}
	return nil
}
