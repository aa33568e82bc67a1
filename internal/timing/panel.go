// Package timing aggregates watchlist scores into a market-level panel: a
// single risk temperature, a coarse state, and a suggested position band.
package timing

import (
	"fmt"
	"math"
	"sort"

	"github.com/emreakdag/stockdesk/internal/apperror"
	"github.com/emreakdag/stockdesk/internal/dossier"
	"github.com/emreakdag/stockdesk/internal/screener"
)

type State string

const (
	StateBullish  State = "bullish"
	StateNeutral  State = "neutral"
	StateCautious State = "cautious"
)

type Panel struct {
	AsOfDate               string   `json:"asOfDate,omitempty"`
	SampleSize             int      `json:"sampleSize"`
	RiskTemperature        float64  `json:"riskTemperature"`
	MarketState            State    `json:"marketState"`
	SuggestedPositionRange string   `json:"suggestedPositionRange"`
	BreadthPositiveRatio   *float64 `json:"breadthPositiveRatio,omitempty"`
	MedianTotalScore       float64  `json:"medianTotalScore"`
	MedianGrowthScore      float64  `json:"medianGrowthScore"`
	MedianQualityScore     float64  `json:"medianQualityScore"`
	MedianMomentumScore    float64  `json:"medianMomentumScore"`
	Notes                  []string `json:"notes"`
}

// Build computes the panel and the per-company scores it is derived from.
func Build(dossiers []dossier.Dossier) (Panel, []screener.Score, error) {
	if len(dossiers) == 0 {
		return Panel{}, nil, apperror.New(apperror.Validation, "dossiers cannot be empty")
	}

	scores := make([]screener.Score, len(dossiers))
	totals := make([]float64, len(dossiers))
	growths := make([]float64, len(dossiers))
	qualities := make([]float64, len(dossiers))
	momentums := make([]float64, len(dossiers))
	for i, d := range dossiers {
		s := screener.ScoreDossier(d)
		scores[i] = s
		totals[i] = s.TotalScore
		growths[i] = s.Factors.Growth
		qualities[i] = s.Factors.Quality
		momentums[i] = s.Factors.Momentum
	}

	breadth := breadthPositiveRatio(dossiers)
	temperature := adjustByBreadth(median(totals), breadth)
	state := temperatureToState(temperature)

	panel := Panel{
		AsOfDate:               latestAsOfDate(dossiers),
		SampleSize:             len(dossiers),
		RiskTemperature:        round2(temperature),
		MarketState:            state,
		SuggestedPositionRange: stateToPosition(state),
		BreadthPositiveRatio:   breadth,
		MedianTotalScore:       round2(median(totals)),
		MedianGrowthScore:      round2(median(growths)),
		MedianQualityScore:     round2(median(qualities)),
		MedianMomentumScore:    round2(median(momentums)),
	}
	panel.Notes = buildNotes(panel)
	return panel, scores, nil
}

// breadthPositiveRatio is the share of companies with a positive price
// return over the sample window; nil when no returns are available.
func breadthPositiveRatio(dossiers []dossier.Dossier) *float64 {
	valid := 0
	positive := 0
	for _, d := range dossiers {
		if d.PriceReturnSinceStart == nil {
			continue
		}
		valid++
		if *d.PriceReturnSinceStart > 0 {
			positive++
		}
	}
	if valid == 0 {
		return nil
	}
	ratio := float64(positive) / float64(valid)
	return &ratio
}

// adjustByBreadth nudges the base temperature by up to +-10 points around a
// 50% breadth midpoint, clipped to 0-100.
func adjustByBreadth(base float64, breadth *float64) float64 {
	if breadth == nil {
		return clip(base)
	}
	return clip(base + (*breadth-0.5)*20.0)
}

func temperatureToState(temperature float64) State {
	switch {
	case temperature >= 65:
		return StateBullish
	case temperature >= 45:
		return StateNeutral
	default:
		return StateCautious
	}
}

func stateToPosition(state State) string {
	switch state {
	case StateBullish:
		return "60%-80%"
	case StateNeutral:
		return "40%-60%"
	default:
		return "20%-40%"
	}
}

func latestAsOfDate(dossiers []dossier.Dossier) string {
	latest := ""
	for _, d := range dossiers {
		if d.AsOfDate > latest {
			latest = d.AsOfDate
		}
	}
	return latest
}

func buildNotes(p Panel) []string {
	var notes []string

	switch p.MarketState {
	case StateBullish:
		notes = append(notes, "Risk appetite is elevated; position size can rise with drawdown control in place.")
	case StateCautious:
		notes = append(notes, "Risk appetite is low; favor defense and cash management.")
	default:
		notes = append(notes, "Market is in a neutral band; stay balanced and watch for inflection.")
	}

	if p.BreadthPositiveRatio != nil {
		notes = append(notes, fmt.Sprintf("Market breadth (share of positive window returns) is %.2f%%.", *p.BreadthPositiveRatio*100))
	} else {
		notes = append(notes, "No usable window returns in the sample; breadth is unavailable.")
	}

	if p.MedianGrowthScore >= 65 {
		notes = append(notes, "Sample growth factor is broadly strong.")
	} else if p.MedianGrowthScore <= 45 {
		notes = append(notes, "Sample growth factor is broadly weak; watch delivery risk.")
	}

	if p.MedianQualityScore <= 45 {
		notes = append(notes, "Sample operating quality is weak; demand a higher financial safety margin.")
	}

	if p.MedianMomentumScore <= 40 {
		notes = append(notes, "Short-term momentum is weak; avoid chasing strength.")
	}

	return notes
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 50.0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func clip(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
