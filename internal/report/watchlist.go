package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emreakdag/stockdesk/internal/screener"
)

// WatchlistMarkdown renders the cross-company ranking report.
func WatchlistMarkdown(scores []screener.Score, now time.Time) string {
	ranked := screener.Rank(scores)

	var b strings.Builder
	b.WriteString("# Watchlist Scoring Report\n\n")
	fmt.Fprintf(&b, "- Generated at: %s\n", now.Format(timestampLayout))
	fmt.Fprintf(&b, "- Companies scored: %d\n\n", len(ranked))

	b.WriteString("## Ranking\n\n")
	b.WriteString("| Rank | Symbol | Total | Tier | Growth | Quality | Valuation | Momentum |\n")
	b.WriteString("| --- | --- | ---: | --- | ---: | ---: | ---: | ---: |\n")
	for i, s := range ranked {
		fmt.Fprintf(&b, "| %d | %s | %.2f | %s | %.2f | %.2f | %.2f | %.2f |\n",
			i+1, s.Symbol, s.TotalScore, s.Tier,
			s.Factors.Growth, s.Factors.Quality, s.Factors.Valuation, s.Factors.Momentum)
	}

	b.WriteString("\n## Per-Company Findings\n\n")
	for _, s := range ranked {
		fmt.Fprintf(&b, "### %s (%s)\n\n", s.Symbol, s.Tier)
		fmt.Fprintf(&b, "- Total score: %.2f\n", s.TotalScore)
		fmt.Fprintf(&b, "- As of: %s\n", orNA(s.AsOfDate))
		if len(s.Notes) > 0 {
			for _, note := range s.Notes {
				fmt.Fprintf(&b, "- %s\n", note)
			}
		} else {
			b.WriteString("- No findings to report (data may be incomplete).\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Notes\n\n")
	b.WriteString("- Scores order research priorities and are not investment advice.\n")

	return b.String()
}

// WriteScoreCSV persists the score detail next to the markdown report.
func WriteScoreCSV(path string, scores []screener.Score) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	header := []string{"symbol", "total_score", "tier", "growth", "quality", "valuation", "momentum", "as_of_date", "notes"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range scores {
		row := []string{
			s.Symbol,
			strconv.FormatFloat(s.TotalScore, 'f', 2, 64),
			s.Tier,
			strconv.FormatFloat(s.Factors.Growth, 'f', 2, 64),
			strconv.FormatFloat(s.Factors.Quality, 'f', 2, 64),
			strconv.FormatFloat(s.Factors.Valuation, 'f', 2, 64),
			strconv.FormatFloat(s.Factors.Momentum, 'f', 2, 64),
			s.AsOfDate,
			strings.Join(s.Notes, "; "),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}
