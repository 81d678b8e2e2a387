package finance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// yahooChartResp mirrors the Yahoo v8 chart response, trimmed to the fields we read.
type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GmtOffset int64  `json:"gmtoffset"`
				Timezone  string `json:"timezone"`
			} `json:"meta"`
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

// YahooOptions tunes the Yahoo provider.
type YahooOptions struct {
	// Hosts are base URLs tried in order on every attempt.
	Hosts    []string
	Timeout  time.Duration
	Backoffs []time.Duration
	// RequestsPerSecond and Burst shape outgoing requests across all hosts.
	RequestsPerSecond float64
	Burst             int
	// BreakerFailures consecutive failed fetches open the circuit for BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultYahooOptions returns the settings used in production.
func DefaultYahooOptions() YahooOptions {
	return YahooOptions{
		Hosts:             []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"},
		Timeout:           20 * time.Second,
		Backoffs:          []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second},
		RequestsPerSecond: 2,
		Burst:             4,
		BreakerFailures:   5,
		BreakerTimeout:    60 * time.Second,
	}
}

// YahooProvider fetches daily closes from the Yahoo Finance chart API.
type YahooProvider struct {
	hosts    []string
	backoffs []time.Duration
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	log      zerolog.Logger
}

// NewYahooProvider builds a provider. Zero-valued options fall back to the defaults.
func NewYahooProvider(opts YahooOptions, log zerolog.Logger) *YahooProvider {
	def := DefaultYahooOptions()
	if len(opts.Hosts) == 0 {
		opts.Hosts = def.Hosts
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.Backoffs == nil {
		opts.Backoffs = def.Backoffs
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = def.RequestsPerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = def.Burst
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = def.BreakerFailures
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = def.BreakerTimeout
	}

	y := &YahooProvider{
		hosts:    opts.Hosts,
		backoffs: opts.Backoffs,
		client:   &http.Client{Timeout: opts.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		log:      log,
	}
	failures := opts.BreakerFailures
	y.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "yahoo",
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return y
}

// Fetch returns the daily closes of symbol in [start, end).
func (y *YahooProvider) Fetch(ctx context.Context, symbol string, start, end time.Time, interval Interval) (PriceSeries, error) {
	if interval == "" {
		interval = Daily
	}
	if interval != Daily {
		return PriceSeries{}, fmt.Errorf("%w: unsupported interval %q", ErrConfiguration, interval)
	}

	q := url.Values{}
	q.Set("period1", strconv.FormatInt(Day(start).Unix(), 10))
	q.Set("period2", strconv.FormatInt(Day(end).Unix(), 10))
	q.Set("interval", string(interval))
	q.Set("events", "div,splits")

	out, err := y.breaker.Execute(func() (interface{}, error) {
		return y.fetchChart(ctx, symbol, q)
	})
	if err != nil {
		return PriceSeries{}, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	yc, _ := out.(*yahooChartResp)
	series := chartToSeries(symbol, yc)
	series = clipWindow(series, start, end)
	y.log.Debug().Str("asset", symbol).Int("points", series.Len()).Msg("yahoo series fetched")
	return series, nil
}

// FetchBenchmark fetches a market index proxy over the same daily window.
func (y *YahooProvider) FetchBenchmark(ctx context.Context, benchmarkID string, start, end time.Time) (PriceSeries, error) {
	return y.Fetch(ctx, benchmarkID, start, end, Daily)
}

// chartToSeries converts a chart response to calendar-day closes in exchange local time.
func chartToSeries(symbol string, yc *yahooChartResp) PriceSeries {
	out := PriceSeries{Asset: symbol}
	if yc == nil || len(yc.Chart.Result) == 0 || len(yc.Chart.Result[0].Indicators.Quote) == 0 {
		return out
	}
	res := yc.Chart.Result[0]
	ts, cl := filterNonPositive(res.Timestamp, res.Indicators.Quote[0].Close)

	pts := make([]PricePoint, 0, len(ts))
	for i := range ts {
		day := Day(time.Unix(ts[i]+res.Meta.GmtOffset, 0).UTC())
		pts = append(pts, PricePoint{Date: day, Close: cl[i]})
	}
	out.Points = dedupeByDay(pts)
	return out
}
