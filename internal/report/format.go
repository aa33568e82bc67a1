// Package report renders markdown artifacts: per-company dossier cards, the
// watchlist ranking, the market timing panel, and the pipeline run history.
package report

import "fmt"

const timestampLayout = "2006-01-02 15:04:05"

func fmtNumber(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

func fmtPercent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func fmtRatio(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

func fmtFxRate(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.6f", *v)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
