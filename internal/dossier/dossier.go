// Package dossier derives a per-company analytical summary from a normalized
// dataset bundle. Metrics that cannot be computed stay nil; nothing here
// fabricates a value for missing upstream data.
package dossier

import (
	"github.com/emreakdag/stockdesk/internal/dataset"
	"github.com/emreakdag/stockdesk/internal/ledger"
)

type Dossier struct {
	Symbol   string
	Market   string
	Currency string
	// FxToReporting converts one unit of Currency into the reporting
	// currency; nil when no usable rate was available.
	FxToReporting *float64
	AsOfDate      string

	LatestClose              *float64
	LatestMarketCap          *float64
	LatestMarketCapReporting *float64
	LatestRevenue            *float64
	LatestRevenueReporting   *float64
	LatestNetProfit          *float64
	LatestNetProfitReporting *float64
	LatestOCF                *float64
	LatestOCFReporting       *float64
	LatestROE                *float64
	LatestDebtToAsset        *float64

	RevenueYoY            *float64
	NetProfitYoY          *float64
	OCFToProfit           *float64
	PriceReturnSinceStart *float64
}

// Build assembles the dossier from the bundle's price_history,
// market_cap_history, and financial_indicators tables.
func Build(symbol string, bundle map[string]*dataset.Table, fxToReporting *float64) Dossier {
	prices := bundle[dataset.TypePriceHistory]
	marketCaps := bundle[dataset.TypeMarketCapHistory]
	financials := bundle[dataset.TypeFinancialIndicators]

	market := prices.LatestCell("market")
	if market == "" {
		market = financials.LatestCell("market")
	}
	currency := prices.LatestCell("currency")
	if currency == "" {
		currency = financials.LatestCell("currency")
	}
	if market == "" {
		market = "UNKNOWN"
	}
	if currency == "" {
		currency = "UNKNOWN"
	}

	latestMarketCap := marketCaps.LatestNumeric("market_cap")
	latestRevenue := financials.LatestNumeric("revenue")
	latestNetProfit := financials.LatestNumeric("net_profit")
	latestOCF := financials.LatestNumeric("ocf")
	fx := normalizeFx(currency, fxToReporting)

	return Dossier{
		Symbol:                   symbol,
		Market:                   market,
		Currency:                 currency,
		FxToReporting:            fx,
		AsOfDate:                 latestAsOfDate(prices, marketCaps, financials),
		LatestClose:              prices.LatestNumeric("close"),
		LatestMarketCap:          latestMarketCap,
		LatestMarketCapReporting: convert(latestMarketCap, fx),
		LatestRevenue:            latestRevenue,
		LatestRevenueReporting:   convert(latestRevenue, fx),
		LatestNetProfit:          latestNetProfit,
		LatestNetProfitReporting: convert(latestNetProfit, fx),
		LatestOCF:                latestOCF,
		LatestOCFReporting:       convert(latestOCF, fx),
		LatestROE:                financials.LatestNumeric("roe"),
		LatestDebtToAsset:        financials.LatestNumeric("debt_to_asset"),
		RevenueYoY:               yoy(financials.SortedByDate().NumericColumn("revenue")),
		NetProfitYoY:             yoy(financials.SortedByDate().NumericColumn("net_profit")),
		OCFToProfit:              ratio(latestOCF, latestNetProfit),
		PriceReturnSinceStart:    priceReturn(prices),
	}
}

func latestAsOfDate(tables ...*dataset.Table) string {
	latest := ""
	for _, t := range tables {
		if d := t.LatestAsOfDate(""); d > latest {
			latest = d
		}
	}
	return latest
}

// yoy compares the last two periods of a series, as a fraction of the prior
// period's magnitude.
func yoy(series []float64) *float64 {
	if len(series) < 2 {
		return nil
	}
	prev := series[len(series)-2]
	current := series[len(series)-1]
	if prev == 0 {
		return nil
	}
	v := (current - prev) / abs(prev)
	return &v
}

func ratio(numerator, denominator *float64) *float64 {
	if numerator == nil || denominator == nil || *denominator == 0 {
		return nil
	}
	v := *numerator / *denominator
	return &v
}

func priceReturn(prices *dataset.Table) *float64 {
	closes := prices.SortedByDate().NumericColumn("close")
	if len(closes) < 2 {
		return nil
	}
	start := closes[0]
	end := closes[len(closes)-1]
	if start == 0 {
		return nil
	}
	v := (end - start) / start
	return &v
}

func normalizeFx(currency string, fx *float64) *float64 {
	if currency == ledger.ReportingCurrency {
		one := 1.0
		return &one
	}
	if fx == nil || *fx <= 0 {
		return nil
	}
	return fx
}

func convert(value, fx *float64) *float64 {
	if value == nil || fx == nil {
		return nil
	}
	v := *value * *fx
	return &v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
