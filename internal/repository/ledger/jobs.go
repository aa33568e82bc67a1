package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emreakdag/stockdesk/internal/apperror"
	domain "github.com/emreakdag/stockdesk/internal/ledger"
)

func (r *Repository) StartJob(ctx context.Context, jobType, symbol string) (int64, error) {
	const query = `INSERT INTO data_jobs (job_type, symbol, status, started_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)`

	var sym any
	if symbol != "" {
		sym = symbol
	}
	res, err := r.db.ExecContext(ctx, query, jobType, sym, string(domain.StatusRunning))
	if err != nil {
		return 0, storageErr("start job", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("start job: last insert id", err)
	}
	return id, nil
}

// FinishJob transitions a running job to its terminal status. A job is
// finished exactly once and never re-opened.
func (r *Repository) FinishJob(ctx context.Context, jobID int64, status domain.Status, errorMessage string) error {
	if status != domain.StatusSuccess && status != domain.StatusFailed {
		return apperror.New(apperror.Validation, fmt.Sprintf("unsupported job status: %s", status))
	}

	const query = `UPDATE data_jobs
		SET status = ?, finished_at = CURRENT_TIMESTAMP, error_message = ?
		WHERE job_id = ?`

	var msg any
	if errorMessage != "" {
		msg = errorMessage
	}
	res, err := r.db.ExecContext(ctx, query, string(status), msg, jobID)
	if err != nil {
		return storageErr("finish job", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageErr("finish job: rows affected", err)
	} else if n == 0 {
		return apperror.New(apperror.Storage, fmt.Sprintf("finish job: job %d not found", jobID))
	}
	return nil
}

func (r *Repository) ListJobs(ctx context.Context, filter domain.JobFilter, limit int) ([]domain.Job, error) {
	if limit <= 0 {
		return nil, apperror.New(apperror.Validation, "limit must be greater than 0")
	}

	query := `SELECT job_id, job_type, symbol, status, started_at, finished_at,
		error_message, created_at
		FROM data_jobs WHERE 1=1`

	var args []any
	if filter.Type != "" {
		query += " AND job_type = ?"
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	query += " ORDER BY job_id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list jobs", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []domain.Job
	for rows.Next() {
		var j domain.Job
		var status string
		var symbol, startedAt, finishedAt, errMsg, createdAt sql.NullString
		if err := rows.Scan(&j.ID, &j.Type, &symbol, &status, &startedAt, &finishedAt, &errMsg, &createdAt); err != nil {
			return nil, storageErr("scan job", err)
		}
		j.Status = domain.Status(status)
		j.Symbol = symbol.String
		j.StartedAt = startedAt.String
		j.FinishedAt = finishedAt.String
		j.ErrorMessage = errMsg.String
		j.CreatedAt = createdAt.String
		jobs = append(jobs, j)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("list jobs", err)
	}
	return jobs, nil
}
