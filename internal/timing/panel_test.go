package timing

import (
	"math"
	"testing"

	"github.com/emreakdag/stockdesk/internal/apperror"
	"github.com/emreakdag/stockdesk/internal/dossier"
)

func ptr(v float64) *float64 { return &v }

func TestBuild_Empty(t *testing.T) {
	_, _, err := Build(nil)
	if apperror.CodeOf(err) != apperror.Validation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuild_NeutralSample(t *testing.T) {
	// Empty dossiers score 50 everywhere; no returns means no breadth
	// adjustment, so the panel stays dead neutral.
	dossiers := []dossier.Dossier{
		{Symbol: "600519.SH", AsOfDate: "2025-06-28"},
		{Symbol: "00700.HK", AsOfDate: "2025-06-30"},
	}

	panel, scores, err := Build(dossiers)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	if panel.SampleSize != 2 {
		t.Errorf("expected sample size 2, got %d", panel.SampleSize)
	}
	if panel.AsOfDate != "2025-06-30" {
		t.Errorf("expected latest as-of date, got %s", panel.AsOfDate)
	}
	if panel.RiskTemperature != 50 {
		t.Errorf("expected temperature 50, got %v", panel.RiskTemperature)
	}
	if panel.MarketState != StateNeutral {
		t.Errorf("expected neutral, got %s", panel.MarketState)
	}
	if panel.SuggestedPositionRange != "40%-60%" {
		t.Errorf("unexpected position range: %s", panel.SuggestedPositionRange)
	}
	if panel.BreadthPositiveRatio != nil {
		t.Errorf("expected nil breadth, got %v", *panel.BreadthPositiveRatio)
	}
	if len(panel.Notes) == 0 {
		t.Error("expected notes")
	}
}

func TestBuild_BreadthAdjustment(t *testing.T) {
	// All three returns positive: breadth 1.0 lifts the median by
	// (1.0-0.5)*20 = +10.
	dossiers := []dossier.Dossier{
		{Symbol: "A", PriceReturnSinceStart: ptr(0.1)},
		{Symbol: "B", PriceReturnSinceStart: ptr(0.2)},
		{Symbol: "C", PriceReturnSinceStart: ptr(0.3)},
	}

	panel, _, err := Build(dossiers)
	if err != nil {
		t.Fatal(err)
	}
	if panel.BreadthPositiveRatio == nil || *panel.BreadthPositiveRatio != 1.0 {
		t.Fatalf("expected breadth 1.0, got %v", panel.BreadthPositiveRatio)
	}
	if panel.RiskTemperature != panel.MedianTotalScore+10 {
		t.Errorf("expected +10 breadth lift: median %v, temperature %v",
			panel.MedianTotalScore, panel.RiskTemperature)
	}
}

func TestBuild_AllNegativeBreadth(t *testing.T) {
	dossiers := []dossier.Dossier{
		{Symbol: "A", PriceReturnSinceStart: ptr(-0.3)},
		{Symbol: "B", PriceReturnSinceStart: ptr(-0.4)},
	}

	panel, _, err := Build(dossiers)
	if err != nil {
		t.Fatal(err)
	}
	if panel.BreadthPositiveRatio == nil || *panel.BreadthPositiveRatio != 0 {
		t.Fatalf("expected breadth 0, got %v", panel.BreadthPositiveRatio)
	}
	if panel.RiskTemperature >= panel.MedianTotalScore {
		t.Errorf("expected breadth drag below the median, got %v vs %v",
			panel.RiskTemperature, panel.MedianTotalScore)
	}
	if panel.MarketState != StateCautious {
		t.Errorf("expected cautious, got %s", panel.MarketState)
	}
	if panel.SuggestedPositionRange != "20%-40%" {
		t.Errorf("unexpected position range: %s", panel.SuggestedPositionRange)
	}
}

func TestTemperatureToState(t *testing.T) {
	tests := map[float64]State{
		80:   StateBullish,
		65:   StateBullish,
		64.9: StateNeutral,
		45:   StateNeutral,
		44.9: StateCautious,
		0:    StateCautious,
	}
	for temp, want := range tests {
		if got := temperatureToState(temp); got != want {
			t.Errorf("temperatureToState(%v): expected %s, got %s", temp, want, got)
		}
	}
}

func TestMedian(t *testing.T) {
	if got := median(nil); got != 50 {
		t.Errorf("expected 50 for empty input, got %v", got)
	}
	if got := median([]float64{10, 30, 20}); got != 20 {
		t.Errorf("expected 20, got %v", got)
	}
	if got := median([]float64{10, 20, 30, 40}); math.Abs(got-25) > 1e-9 {
		t.Errorf("expected 25, got %v", got)
	}
}

func TestAdjustByBreadth_Clipping(t *testing.T) {
	if got := adjustByBreadth(95, ptr(1.0)); got != 100 {
		t.Errorf("expected clip to 100, got %v", got)
	}
	if got := adjustByBreadth(5, ptr(0.0)); got != 0 {
		t.Errorf("expected clip to 0, got %v", got)
	}
	if got := adjustByBreadth(50, nil); got != 50 {
		t.Errorf("expected base when breadth missing, got %v", got)
	}
}
