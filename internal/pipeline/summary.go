package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeSummaryFiles emits the machine-readable and human-readable run
// summaries into the run's report directory.
func (r *Runner) writeSummaryFiles(reportRoot, runDate string, successSymbols []string, failed []failure, generatedFiles []string) (markdownPath, jsonPath string, err error) {
	summary := struct {
		RunDate        string            `json:"runDate"`
		GeneratedAt    string            `json:"generatedAt"`
		SuccessSymbols []string          `json:"successSymbols"`
		FailedSymbols  map[string]string `json:"failedSymbols"`
		GeneratedFiles []string          `json:"generatedFiles"`
	}{
		RunDate:        runDate,
		GeneratedAt:    r.now().Format("2006-01-02 15:04:05"),
		SuccessSymbols: successSymbols,
		FailedSymbols:  failureMap(failed),
		GeneratedFiles: generatedFiles,
	}

	jsonPath = filepath.Join(reportRoot, fmt.Sprintf("pipeline-summary-%s.json", runDate))
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal run summary: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write run summary json: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Pipeline Run Summary\n\n")
	fmt.Fprintf(&b, "- Run date: %s\n", runDate)
	fmt.Fprintf(&b, "- Succeeded: %d\n", len(successSymbols))
	fmt.Fprintf(&b, "- Failed: %d\n", len(failed))
	fmt.Fprintf(&b, "- Artifacts: %d\n\n", len(generatedFiles))

	if len(successSymbols) > 0 {
		b.WriteString("## Succeeded\n\n")
		for _, symbol := range successSymbols {
			fmt.Fprintf(&b, "- %s\n", symbol)
		}
		b.WriteString("\n")
	}

	if len(failed) > 0 {
		b.WriteString("## Failed\n\n")
		for _, f := range failed {
			fmt.Fprintf(&b, "- %s: %s\n", f.symbol, f.reason)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Artifact Index\n\n")
	for _, path := range generatedFiles {
		fmt.Fprintf(&b, "- %s\n", path)
	}

	markdownPath = filepath.Join(reportRoot, fmt.Sprintf("pipeline-summary-%s.md", runDate))
	if err := os.WriteFile(markdownPath, []byte(b.String()), 0o644); err != nil {
		return "", "", fmt.Errorf("write run summary markdown: %w", err)
	}
	return markdownPath, jsonPath, nil
}
