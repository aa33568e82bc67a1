package report

import (
	"fmt"
	"strings"

	"github.com/emreakdag/stockdesk/internal/health"
	"github.com/emreakdag/stockdesk/internal/ledger"
)

// HistoryMarkdown renders recent job records, optionally preceded by a
// health summary block.
func HistoryMarkdown(jobs []ledger.Job, h *health.Health, title string) string {
	if title == "" {
		title = "Pipeline Run History"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	if h != nil {
		status := "unhealthy"
		if h.OK {
			status = "healthy"
		}
		b.WriteString("## Health\n\n")
		fmt.Fprintf(&b, "- Checked at: %s\n", h.CheckedAt)
		fmt.Fprintf(&b, "- Status: %s (%s)\n", status, h.Code)
		fmt.Fprintf(&b, "- Detail: %s\n", h.Message)
		if h.LatestJobID > 0 {
			fmt.Fprintf(&b, "- Latest job ID: %d\n", h.LatestJobID)
		} else {
			b.WriteString("- Latest job ID: N/A\n")
		}
		fmt.Fprintf(&b, "- Latest status: %s\n", orNA(h.LatestStatus))
		fmt.Fprintf(&b, "- Latest started at: %s\n", orNA(h.LatestStartedAt))
		if h.LatestStartedAt != "" && h.StaleHours >= 0 && h.Code != health.CodeMissingTime && h.Code != health.CodeNoRuns {
			fmt.Fprintf(&b, "- Hours since start: %.2f\n", h.StaleHours)
		} else {
			b.WriteString("- Hours since start: N/A\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recent Jobs\n\n")
	b.WriteString("| job_id | job_type | symbol | status | started_at | finished_at | error_message |\n")
	b.WriteString("| ---: | --- | --- | --- | --- | --- | --- |\n")
	for _, j := range jobs {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s |\n",
			j.ID, orNA(j.Type), orNA(j.Symbol), orNA(string(j.Status)),
			orNA(j.StartedAt), orNA(j.FinishedAt), j.ErrorMessage)
	}
	if len(jobs) == 0 {
		b.WriteString("| N/A | N/A | N/A | N/A | N/A | N/A | N/A |\n")
	}

	return b.String()
}
