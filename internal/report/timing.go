package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/emreakdag/stockdesk/internal/screener"
	"github.com/emreakdag/stockdesk/internal/timing"
)

// MarketTimingMarkdown renders the market-level panel report.
func MarketTimingMarkdown(panel timing.Panel, scores []screener.Score, now time.Time) string {
	ranked := screener.Rank(scores)
	top := ranked
	if len(top) > 5 {
		top = top[:5]
	}
	bottom := bottomFive(ranked)

	var b strings.Builder
	b.WriteString("# Market Timing Panel\n\n")
	fmt.Fprintf(&b, "- Generated at: %s\n", now.Format(timestampLayout))
	fmt.Fprintf(&b, "- Data as of: %s\n", orNA(panel.AsOfDate))
	fmt.Fprintf(&b, "- Sample size: %d\n\n", panel.SampleSize)

	b.WriteString("## Core Reading\n\n")
	fmt.Fprintf(&b, "- Risk temperature: %.2f / 100\n", panel.RiskTemperature)
	fmt.Fprintf(&b, "- Market state: %s\n", panel.MarketState)
	fmt.Fprintf(&b, "- Suggested position range: %s\n\n", panel.SuggestedPositionRange)

	b.WriteString("## Factor Medians\n\n")
	b.WriteString("| Factor | Score |\n| --- | ---: |\n")
	fmt.Fprintf(&b, "| Median total score | %.2f |\n", panel.MedianTotalScore)
	fmt.Fprintf(&b, "| Median growth score | %.2f |\n", panel.MedianGrowthScore)
	fmt.Fprintf(&b, "| Median quality score | %.2f |\n", panel.MedianQualityScore)
	fmt.Fprintf(&b, "| Median momentum score | %.2f |\n", panel.MedianMomentumScore)
	fmt.Fprintf(&b, "| Breadth (positive returns) | %s |\n\n", fmtPercent(panel.BreadthPositiveRatio))

	writeRankTable(&b, "## Top Scorers", top)
	writeRankTable(&b, "## Bottom Scorers", bottom)

	b.WriteString("## Risk Notes\n\n")
	for _, note := range panel.Notes {
		fmt.Fprintf(&b, "- %s\n", note)
	}
	b.WriteString("- Panel output is a research aid, not investment advice.\n")
	b.WriteString("- Combine with sector and event context before acting.\n")

	return b.String()
}

func writeRankTable(b *strings.Builder, heading string, scores []screener.Score) {
	b.WriteString(heading + "\n\n")
	b.WriteString("| Rank | Symbol | Total | Tier |\n| --- | --- | ---: | --- |\n")
	for i, s := range scores {
		fmt.Fprintf(b, "| %d | %s | %.2f | %s |\n", i+1, s.Symbol, s.TotalScore, s.Tier)
	}
	b.WriteString("\n")
}

// bottomFive lists the lowest five scores, worst first.
func bottomFive(ranked []screener.Score) []screener.Score {
	n := len(ranked)
	count := 5
	if n < count {
		count = n
	}
	bottom := make([]screener.Score, 0, count)
	for i := n - 1; i >= n-count; i-- {
		bottom = append(bottom, ranked[i])
	}
	return bottom
}
