package finance

import (
	"context"
	"strings"
	"sync"
	"time"
)

// PriceSeriesProvider supplies daily closes for a window [start, end).
// An empty series with a nil error means the provider has no data for the window;
// a non-nil error means the fetch itself failed.
type PriceSeriesProvider interface {
	Fetch(ctx context.Context, assetID string, start, end time.Time, interval Interval) (PriceSeries, error)
	FetchBenchmark(ctx context.Context, benchmarkID string, start, end time.Time) (PriceSeries, error)
}

// StaticProvider serves frozen series, keyed by upper-cased symbol. It is the test
// double for PriceSeriesProvider, shared by this package's tests and the ones under
// internal/, so it cannot live in a _test.go file. Build its fixtures with the
// financetest package.
type StaticProvider struct {
	mu     sync.Mutex
	Series map[string]PriceSeries
	// Err, when set, is returned for every fetch of the listed symbols.
	Err map[string]error
	// Calls counts fetches per symbol.
	Calls map[string]int
}

// NewStaticProvider builds a provider from series keyed by their Asset field.
func NewStaticProvider(series ...PriceSeries) *StaticProvider {
	p := &StaticProvider{
		Series: make(map[string]PriceSeries, len(series)),
		Err:    map[string]error{},
		Calls:  map[string]int{},
	}
	for _, s := range series {
		p.Series[strings.ToUpper(s.Asset)] = s
	}
	return p
}

func (p *StaticProvider) Fetch(ctx context.Context, assetID string, start, end time.Time, _ Interval) (PriceSeries, error) {
	return p.lookup(ctx, assetID, start, end)
}

func (p *StaticProvider) FetchBenchmark(ctx context.Context, benchmarkID string, start, end time.Time) (PriceSeries, error) {
	return p.lookup(ctx, benchmarkID, start, end)
}

func (p *StaticProvider) lookup(ctx context.Context, symbol string, start, end time.Time) (PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return PriceSeries{}, err
	}
	key := strings.ToUpper(symbol)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Calls != nil {
		p.Calls[key]++
	}
	if err, ok := p.Err[key]; ok {
		return PriceSeries{}, err
	}
	s, ok := p.Series[key]
	if !ok {
		return PriceSeries{Asset: symbol}, nil
	}
	return clipWindow(s, start, end), nil
}

// clipWindow keeps the points whose date falls in [start, end). A zero bound is open.
func clipWindow(s PriceSeries, start, end time.Time) PriceSeries {
	out := PriceSeries{Asset: s.Asset, Points: make([]PricePoint, 0, len(s.Points))}
	for _, pt := range s.Points {
		if !start.IsZero() && pt.Date.Before(Day(start)) {
			continue
		}
		if !end.IsZero() && !pt.Date.Before(Day(end)) {
			continue
		}
		out.Points = append(out.Points, pt)
	}
	return out
}
