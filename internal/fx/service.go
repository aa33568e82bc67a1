// Package fx maintains the ledger's reference-rate cache from a chart API.
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/emreakdag/stockdesk/internal/apperror"
	"github.com/emreakdag/stockdesk/internal/ledger"
)

const (
	defaultChartEndpoint = "https://query2.finance.yahoo.com/v8/finance/chart/%s?interval=1d&period1=%s&period2=%s"
	defaultSource        = "yahoo"
	dateFormat           = "2006-01-02"
)

type Service struct {
	store         ledger.Store
	client        *http.Client
	chartEndpoint string
	source        string
}

func NewService(store ledger.Store, opts ...Option) *Service {
	s := &Service{
		store:         store,
		client:        http.DefaultClient,
		chartEndpoint: defaultChartEndpoint,
		source:        defaultSource,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type Option func(*Service)

func WithClient(c *http.Client) Option {
	return func(s *Service) { s.client = c }
}

func WithChartEndpoint(ep string) Option {
	return func(s *Service) { s.chartEndpoint = ep }
}

func WithSource(source string) Option {
	return func(s *Service) { s.source = source }
}

// Sync fetches daily closes for the currency pair and upserts each day into
// the ledger. Returns the number of days written.
func (s *Service) Sync(ctx context.Context, base, quote string, from, to time.Time) (int, error) {
	if base == "" || quote == "" {
		return 0, apperror.New(apperror.Validation, "base and quote currency cannot be empty")
	}
	if from.After(to) {
		return 0, apperror.New(apperror.Validation, "start date cannot be after end date")
	}

	closes, err := s.fetchChart(ctx, pairToChartSymbol(base, quote), from, to)
	if err != nil {
		return 0, err
	}

	written := 0
	for day, rate := range closes {
		if rate <= 0 {
			continue
		}
		date := day.Format(dateFormat)
		if err := s.store.UpsertFxRate(ctx, date, base, quote, rate, s.source); err != nil {
			return written, fmt.Errorf("upsert fx rate %s %s/%s: %w", date, base, quote, err)
		}
		written++
	}

	slog.Info("synced fx rates", "base", base, "quote", quote, "days", written)
	return written, nil
}

// chartResponse is the minimal chart API response structure.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (s *Service) fetchChart(ctx context.Context, symbol string, from, to time.Time) (map[time.Time]float64, error) {
	url := fmt.Sprintf(s.chartEndpoint, symbol,
		strconv.FormatInt(from.Unix(), 10),
		strconv.FormatInt(to.Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.Fetch, "fetch fx chart", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return nil, apperror.New(apperror.Fetch,
			fmt.Sprintf("fx chart returned HTTP %d for %s", res.StatusCode, symbol))
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, apperror.Wrap(apperror.Fetch, "read fx chart response", err)
	}

	var cr chartResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, apperror.Wrap(apperror.Fetch, "parse fx chart response", err)
	}
	if cr.Chart.Error != nil {
		return nil, apperror.New(apperror.Fetch,
			fmt.Sprintf("fx chart error: %s: %s", cr.Chart.Error.Code, cr.Chart.Error.Description))
	}
	if len(cr.Chart.Result) == 0 || len(cr.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, apperror.New(apperror.Fetch,
			fmt.Sprintf("fx chart returned no quote data for %s", symbol))
	}

	r := cr.Chart.Result[0]
	closes := r.Indicators.Quote[0].Close

	rates := make(map[time.Time]float64, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == 0 {
			continue
		}
		day := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		rates[day] = closes[i]
	}
	return rates, nil
}

func pairToChartSymbol(base, quote string) string {
	return base + quote + "=X"
}
