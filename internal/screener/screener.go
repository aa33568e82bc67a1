// Package screener scores company dossiers for watchlist ranking. The rules
// are deliberately simple linear maps; the hard part of the system is the
// bookkeeping around them, not the math.
package screener

import (
	"math"
	"sort"

	"github.com/emreakdag/stockdesk/internal/dossier"
)

type FactorScores struct {
	Growth    float64 `json:"growth"`
	Quality   float64 `json:"quality"`
	Valuation float64 `json:"valuation"`
	Momentum  float64 `json:"momentum"`
}

type Score struct {
	Symbol     string       `json:"symbol"`
	TotalScore float64      `json:"totalScore"`
	Tier       string       `json:"tier"`
	Factors    FactorScores `json:"factorScores"`
	Notes      []string     `json:"notes"`
	AsOfDate   string       `json:"asOfDate,omitempty"`
}

// ScoreDossier grades a single company: growth and quality carry 35% each,
// valuation and momentum 15% each.
func ScoreDossier(d dossier.Dossier) Score {
	growth := scoreGrowth(d)
	quality := scoreQuality(d)
	valuation := scoreValuation(d)
	momentum := scoreMomentum(d)

	total := growth*0.35 + quality*0.35 + valuation*0.15 + momentum*0.15

	return Score{
		Symbol:     d.Symbol,
		TotalScore: round2(total),
		Tier:       tier(total),
		Factors: FactorScores{
			Growth:    round2(growth),
			Quality:   round2(quality),
			Valuation: round2(valuation),
			Momentum:  round2(momentum),
		},
		Notes:    buildNotes(d, growth, quality, momentum),
		AsOfDate: d.AsOfDate,
	}
}

// Rank orders scores by descending total.
func Rank(scores []Score) []Score {
	ranked := make([]Score, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalScore > ranked[j].TotalScore
	})
	return ranked
}

func scoreGrowth(d dossier.Dossier) float64 {
	revenue := mapGrowthRate(d.RevenueYoY)
	profit := mapGrowthRate(d.NetProfitYoY)
	return (revenue + profit) / 2.0
}

func scoreQuality(d dossier.Dossier) float64 {
	roe := mapRange(d.LatestROE, 0.05, 0.25)
	ocf := mapRange(d.OCFToProfit, 0.5, 1.2)
	debt := mapReverseRange(d.LatestDebtToAsset, 0.2, 0.8)
	return roe*0.45 + ocf*0.35 + debt*0.2
}

func scoreValuation(d dossier.Dossier) float64 {
	marketCap := coalesce(d.LatestMarketCapReporting, d.LatestMarketCap)
	netProfit := coalesce(d.LatestNetProfitReporting, d.LatestNetProfit)
	if marketCap == nil || netProfit == nil {
		return 50.0
	}
	if *netProfit <= 0 {
		return 30.0
	}
	pseudoPE := *marketCap / *netProfit
	return mapReverseRange(&pseudoPE, 10.0, 60.0)
}

func scoreMomentum(d dossier.Dossier) float64 {
	return mapRange(d.PriceReturnSinceStart, -0.2, 0.4)
}

func mapGrowthRate(value *float64) float64 {
	return mapRange(value, -0.2, 0.4)
}

// mapRange maps value linearly onto 0-100 between low and high; missing
// values score a neutral 50.
func mapRange(value *float64, low, high float64) float64 {
	if value == nil || high <= low {
		return 50.0
	}
	ratio := (*value - low) / (high - low)
	return math.Min(1.0, math.Max(0.0, ratio)) * 100.0
}

func mapReverseRange(value *float64, low, high float64) float64 {
	return 100.0 - mapRange(value, low, high)
}

func tier(total float64) string {
	switch {
	case total >= 80:
		return "A"
	case total >= 65:
		return "B"
	case total >= 50:
		return "C"
	default:
		return "D"
	}
}

func buildNotes(d dossier.Dossier, growth, quality, momentum float64) []string {
	var notes []string

	if growth >= 70 {
		notes = append(notes, "Strong growth: revenue and net profit momentum in the upper band.")
	} else if growth <= 40 {
		notes = append(notes, "Weak growth: revenue or net profit momentum is lagging.")
	}

	if quality >= 70 {
		notes = append(notes, "Solid operating quality: ROE, cash conversion, or leverage in good shape.")
	} else if quality <= 40 {
		notes = append(notes, "Weak operating quality: ROE, cash conversion, or leverage needs attention.")
	}

	if momentum >= 65 {
		notes = append(notes, "Positive price momentum over the sample window.")
	} else if momentum <= 35 {
		notes = append(notes, "Weak price momentum over the sample window.")
	}

	if d.LatestOCF != nil && d.LatestNetProfit != nil && *d.LatestNetProfit > 0 && *d.LatestOCF < 0 {
		notes = append(notes, "Risk flag: positive net profit with negative operating cash flow, verify earnings quality.")
	}

	return notes
}

func coalesce(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
