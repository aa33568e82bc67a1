package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/emreakdag/stockdesk/internal/dataset"
	"github.com/emreakdag/stockdesk/internal/dossier"
)

// CompanyDossierMarkdown renders the per-company analysis card.
func CompanyDossierMarkdown(d dossier.Dossier, bundle map[string]*dataset.Table, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Company Dossier\n\n", d.Symbol)
	fmt.Fprintf(&b, "- Generated at: %s\n", now.Format(timestampLayout))
	fmt.Fprintf(&b, "- Data as of: %s\n", orNA(d.AsOfDate))
	fmt.Fprintf(&b, "- Market: %s\n", d.Market)
	fmt.Fprintf(&b, "- Currency: %s\n", d.Currency)
	fmt.Fprintf(&b, "- FX rate (1 %s = ? CNY): %s\n\n", d.Currency, fmtFxRate(d.FxToReporting))

	b.WriteString("## Headline Readings\n\n")
	fmt.Fprintf(&b, "- Operating quality: ROE=%s, debt-to-asset=%s.\n",
		fmtPercent(d.LatestROE), fmtPercent(d.LatestDebtToAsset))
	fmt.Fprintf(&b, "- Growth: revenue YoY=%s, net profit YoY=%s.\n",
		fmtPercent(d.RevenueYoY), fmtPercent(d.NetProfitYoY))
	fmt.Fprintf(&b, "- Cash flow: OCF/net profit=%s, latest OCF=%s.\n",
		fmtRatio(d.OCFToProfit), fmtNumber(d.LatestOCF))
	fmt.Fprintf(&b, "- Market action: latest close=%s, window return=%s.\n\n",
		fmtNumber(d.LatestClose), fmtPercent(d.PriceReturnSinceStart))

	b.WriteString("## Key Metrics\n\n")
	b.WriteString("| Metric | Value |\n| --- | ---: |\n")
	fmt.Fprintf(&b, "| Latest market cap | %s |\n", fmtNumber(d.LatestMarketCap))
	fmt.Fprintf(&b, "| Latest market cap (CNY) | %s |\n", fmtNumber(d.LatestMarketCapReporting))
	fmt.Fprintf(&b, "| Latest revenue | %s |\n", fmtNumber(d.LatestRevenue))
	fmt.Fprintf(&b, "| Latest revenue (CNY) | %s |\n", fmtNumber(d.LatestRevenueReporting))
	fmt.Fprintf(&b, "| Latest net profit | %s |\n", fmtNumber(d.LatestNetProfit))
	fmt.Fprintf(&b, "| Latest net profit (CNY) | %s |\n", fmtNumber(d.LatestNetProfitReporting))
	fmt.Fprintf(&b, "| Latest OCF | %s |\n", fmtNumber(d.LatestOCF))
	fmt.Fprintf(&b, "| Latest OCF (CNY) | %s |\n", fmtNumber(d.LatestOCFReporting))
	fmt.Fprintf(&b, "| Latest ROE | %s |\n", fmtPercent(d.LatestROE))
	fmt.Fprintf(&b, "| Latest debt-to-asset | %s |\n\n", fmtPercent(d.LatestDebtToAsset))

	b.WriteString("## Data Coverage\n\n")
	b.WriteString("| Dataset | Rows |\n| --- | ---: |\n")
	types := make([]string, 0, len(bundle))
	for dt := range bundle {
		types = append(types, dt)
	}
	sort.Strings(types)
	for _, dt := range types {
		fmt.Fprintf(&b, "| %s | %d |\n", dt, bundle[dt].RowCount())
	}

	b.WriteString("\n## Notes\n\n")
	b.WriteString("- Research aid only, not investment advice.\n")
	b.WriteString("- Missing metrics usually mean the upstream source had no value for the field.\n")

	return b.String()
}
