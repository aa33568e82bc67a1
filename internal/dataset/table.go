// Package dataset holds the normalized tabular form that adapters produce
// and the pipeline persists. Values stay as strings; numeric and date
// accessors parse on demand and skip anything malformed.
package dataset

import (
	"sort"
	"strconv"
	"time"
)

const DateFormat = "2006-01-02"

// Standard dataset types in a per-company bundle.
const (
	TypePriceHistory        = "price_history"
	TypeMarketCapHistory    = "market_cap_history"
	TypeFinancialIndicators = "financial_indicators"
)

type Table struct {
	Columns []string
	Rows    [][]string
}

func (t *Table) Empty() bool { return t == nil || len(t.Rows) == 0 }

func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) columnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row i, column name, or "" when absent.
func (t *Table) Cell(i int, name string) string {
	idx := t.columnIndex(name)
	if idx < 0 || i < 0 || i >= len(t.Rows) || idx >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][idx]
}

// NumericColumn returns the parseable values of a column in row order.
func (t *Table) NumericColumn(name string) []float64 {
	idx := t.columnIndex(name)
	if idx < 0 {
		return nil
	}
	var values []float64
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return values
}

// LatestAsOfDate returns the maximum parseable value of the date column, or
// fallback when the table has no usable dates.
func (t *Table) LatestAsOfDate(fallback string) string {
	idx := t.columnIndex("date")
	if idx < 0 || t.Empty() {
		return fallback
	}
	var latest time.Time
	found := false
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		d, ok := parseDate(row[idx])
		if !ok {
			continue
		}
		if !found || d.After(latest) {
			latest = d
			found = true
		}
	}
	if !found {
		return fallback
	}
	return latest.Format(DateFormat)
}

// SortedByDate returns a copy of the table with rows ordered by ascending
// date. Rows with unparseable dates sort first, matching their treatment as
// the oldest information available.
func (t *Table) SortedByDate() *Table {
	if t == nil {
		return nil
	}
	idx := t.columnIndex("date")
	sorted := &Table{Columns: t.Columns, Rows: make([][]string, len(t.Rows))}
	copy(sorted.Rows, t.Rows)
	if idx < 0 {
		return sorted
	}
	sort.SliceStable(sorted.Rows, func(a, b int) bool {
		da, oka := parseRowDate(sorted.Rows[a], idx)
		db, okb := parseRowDate(sorted.Rows[b], idx)
		if oka != okb {
			return !oka
		}
		return da.Before(db)
	})
	return sorted
}

// LatestCell returns the named value from the newest row.
func (t *Table) LatestCell(name string) string {
	if t.Empty() {
		return ""
	}
	sorted := t.SortedByDate()
	return sorted.Cell(len(sorted.Rows)-1, name)
}

// LatestNumeric parses the named value from the newest row.
func (t *Table) LatestNumeric(name string) *float64 {
	v, err := strconv.ParseFloat(t.LatestCell(name), 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseRowDate(row []string, idx int) (time.Time, bool) {
	if idx >= len(row) {
		return time.Time{}, false
	}
	return parseDate(row[idx])
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range []string{DateFormat, "2006-01-02 15:04:05"} {
		if d, err := time.Parse(layout, value); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
