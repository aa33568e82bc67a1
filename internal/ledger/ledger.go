// Package ledger defines the durable metadata model: registered symbols, job
// lifecycle records, produced-artifact indices, and a small FX rate cache.
// The SQLite store is the system of record; nothing here lives only in memory.
package ledger

type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ReportingCurrency is the fixed currency all valuations are normalized to.
const ReportingCurrency = "CNY"

type Symbol struct {
	Symbol    string `json:"symbol"`
	Market    string `json:"market"`
	Name      string `json:"name,omitempty"`
	Currency  string `json:"currency"`
	IsActive  bool   `json:"isActive"`
	UpdatedAt string `json:"updatedAt"`
}

// Job is one unit of tracked work. Timestamps are kept as the store's
// datetime strings: the health evaluator needs to represent records whose
// start time is missing or unparseable.
type Job struct {
	ID           int64  `json:"jobId"`
	Type         string `json:"jobType"`
	Symbol       string `json:"symbol,omitempty"`
	Status       Status `json:"status"`
	StartedAt    string `json:"startedAt,omitempty"`
	FinishedAt   string `json:"finishedAt,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

type Snapshot struct {
	Symbol      string
	DatasetType string
	AsOfDate    string
	FilePath    string
	RowCount    int64
	Checksum    string
}

type Report struct {
	Symbol     string
	ReportType string
	ReportDate string
	FilePath   string
}

type JobFilter struct {
	Type   string
	Status Status
	Symbol string
}
