// Package health classifies the pipeline's operational state from its job
// history. Evaluate is a pure function: given the same jobs, threshold, and
// clock it always returns the same result.
package health

import (
	"fmt"
	"time"

	"github.com/emreakdag/stockdesk/internal/apperror"
	"github.com/emreakdag/stockdesk/internal/ledger"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

const (
	CodeNoRuns         = "no_runs"
	CodeLatestFailed   = "latest_failed"
	CodeRunningTimeout = "running_timeout"
	CodeRunning        = "running"
	CodeUnknownStatus  = "unknown_status"
	CodeMissingTime    = "missing_time"
	CodeStale          = "stale"
	CodeOK             = "ok"
)

type Health struct {
	OK              bool    `json:"ok"`
	Code            string  `json:"code"`
	Message         string  `json:"message"`
	CheckedAt       string  `json:"checkedAt"`
	LatestJobID     int64   `json:"latestJobId,omitempty"`
	LatestStatus    string  `json:"latestStatus,omitempty"`
	LatestStartedAt string  `json:"latestStartedAt,omitempty"`
	StaleHours      float64 `json:"staleHours,omitempty"`
}

// Evaluate classifies the most recent job in jobs (which must be ordered
// newest-first, as ListJobs returns them).
func Evaluate(jobs []ledger.Job, maxDelayHours int, now time.Time) (Health, error) {
	if maxDelayHours <= 0 {
		return Health{}, apperror.New(apperror.Validation, "maxDelayHours must be greater than 0")
	}

	checkedAt := now.Format(sqliteTimeLayout)
	if len(jobs) == 0 {
		return Health{
			OK:        false,
			Code:      CodeNoRuns,
			Message:   "no pipeline runs recorded",
			CheckedAt: checkedAt,
		}, nil
	}

	latest := jobs[0]
	startedAt, hasStart := parseStoreTime(latest.StartedAt)
	h := Health{
		CheckedAt:       checkedAt,
		LatestJobID:     latest.ID,
		LatestStatus:    string(latest.Status),
		LatestStartedAt: latest.StartedAt,
	}
	if hasStart {
		h.StaleHours = now.Sub(startedAt).Hours()
	}
	maxDelay := time.Duration(maxDelayHours) * time.Hour

	switch latest.Status {
	case ledger.StatusFailed:
		h.Code = CodeLatestFailed
		h.Message = "latest pipeline run failed, check the error log"
	case ledger.StatusRunning:
		if hasStart && now.Sub(startedAt) > maxDelay {
			h.Code = CodeRunningTimeout
			h.Message = "pipeline has been running past the delay threshold, possibly stuck"
		} else {
			h.OK = true
			h.Code = CodeRunning
			h.Message = "pipeline run is in progress"
		}
	case ledger.StatusSuccess:
		switch {
		case !hasStart:
			h.Code = CodeMissingTime
			h.Message = "latest successful run has no parseable start time"
		case now.Sub(startedAt) > maxDelay:
			h.Code = CodeStale
			h.Message = "latest successful run is older than the delay threshold"
		default:
			h.OK = true
			h.Code = CodeOK
			h.Message = "pipeline is healthy, latest run succeeded within the delay threshold"
		}
	default:
		h.Code = CodeUnknownStatus
		status := string(latest.Status)
		if status == "" {
			status = "UNKNOWN"
		}
		h.Message = fmt.Sprintf("latest job has unexpected status: %s", status)
	}

	return h, nil
}

func parseStoreTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(sqliteTimeLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
