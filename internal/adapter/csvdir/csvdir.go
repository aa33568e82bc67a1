// Package csvdir implements the data adapter over a local directory of
// normalized CSV exports, one subdirectory per symbol:
//
//	<root>/600519_SH/price_history.csv
//	<root>/600519_SH/financial_indicators.csv
//
// It exists so the pipeline can run unattended against pre-exported data
// without any upstream connectivity.
package csvdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/emreakdag/stockdesk/internal/apperror"
	"github.com/emreakdag/stockdesk/internal/dataset"
	"github.com/emreakdag/stockdesk/internal/symbols"
)

var datasetTypes = []string{
	dataset.TypePriceHistory,
	dataset.TypeMarketCapHistory,
	dataset.TypeFinancialIndicators,
}

type Adapter struct {
	root          string
	defaultMarket symbols.Market
}

func New(root string, opts ...Option) *Adapter {
	a := &Adapter{root: root}
	for _, o := range opts {
		o(a)
	}
	return a
}

type Option func(*Adapter)

func WithDefaultMarket(m symbols.Market) Option {
	return func(a *Adapter) { a.defaultMarket = m }
}

func (a *Adapter) Resolve(_ context.Context, ref string) (symbols.Info, error) {
	return symbols.Parse(ref, a.defaultMarket)
}

func (a *Adapter) FetchDataset(ctx context.Context, symbol, startDate, endDate string) (map[string]*dataset.Table, error) {
	dir := filepath.Join(a.root, strings.ReplaceAll(symbol, ".", "_"))
	if _, err := os.Stat(dir); err != nil {
		return nil, apperror.Wrap(apperror.Fetch,
			fmt.Sprintf("no dataset directory for %s", symbol), err)
	}

	bundle := make(map[string]*dataset.Table)
	for _, dt := range datasetTypes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, dt+".csv")
		if _, err := os.Stat(path); err != nil {
			continue // dataset type not exported for this symbol
		}
		table, err := dataset.ReadCSV(path)
		if err != nil {
			return nil, apperror.Wrap(apperror.Fetch,
				fmt.Sprintf("read %s dataset for %s", dt, symbol), err)
		}
		bundle[dt] = filterByDate(table, startDate, endDate)
	}

	if len(bundle) == 0 {
		return nil, apperror.New(apperror.Fetch,
			fmt.Sprintf("no datasets found for %s under %s", symbol, dir))
	}
	return bundle, nil
}

// filterByDate keeps rows whose date column falls inside [start, end]. Rows
// without a parseable date are kept; tables without a date column pass
// through untouched.
func filterByDate(t *dataset.Table, start, end string) *dataset.Table {
	if t.Empty() || (start == "" && end == "") {
		return t
	}
	hasDate := false
	for _, c := range t.Columns {
		if c == "date" {
			hasDate = true
			break
		}
	}
	if !hasDate {
		return t
	}

	filtered := &dataset.Table{Columns: t.Columns}
	for i := range t.Rows {
		d := t.Cell(i, "date")
		if d != "" {
			if start != "" && d < start {
				continue
			}
			if end != "" && d > end {
				continue
			}
		}
		filtered.Rows = append(filtered.Rows, t.Rows[i])
	}
	return filtered
}
