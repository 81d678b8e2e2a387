package finance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// fetchPortfolioAssets fetches daily closes for every symbol over the analyzer window.
// Results land in the slot matching the symbol's position, so the later join is
// independent of completion order. Any failure aborts the whole fetch.
func fetchPortfolioAssets(ctx context.Context, provider PriceSeriesProvider, cfg AnalyzerConfig, log zerolog.Logger) ([]PriceSeries, error) {
	assets := make([]PriceSeries, len(cfg.Assets))

	fetchOne := func(ctx context.Context, i int) error {
		symbol := cfg.Assets[i]
		series, err := provider.Fetch(ctx, symbol, cfg.Start, cfg.End, cfg.Interval)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", symbol, err)
		}
		if series.Empty() {
			return fmt.Errorf("%w: no data available for %s between %s and %s", ErrDataUnavailable,
				symbol, cfg.Start.Format(time.DateOnly), cfg.End.Format(time.DateOnly))
		}
		series = series.ByDay()
		if err := series.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrDataUnavailable, err)
		}
		series.Asset = symbol
		assets[i] = series
		log.Debug().Str("asset", symbol).Int("points", series.Len()).Msg("fetched price series")
		return nil
	}

	if cfg.Concurrency <= 1 {
		for i := range cfg.Assets {
			if err := fetchOne(ctx, i); err != nil {
				return nil, err
			}
		}
		return assets, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i := range cfg.Assets {
		g.Go(func() error { return fetchOne(gctx, i) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

// alignCommonDates restricts every series to the dates present in all of them.
// The returned dates are sorted oldest first and each returned series has exactly
// one point per date, in the same order.
func alignCommonDates(assets []PriceSeries) ([]time.Time, []PriceSeries) {
	if len(assets) == 0 {
		return nil, nil
	}

	counts := make(map[time.Time]int)
	for _, a := range assets {
		for _, p := range a.Points {
			counts[Day(p.Date)]++
		}
	}

	var dates []time.Time
	for d, n := range counts {
		if n == len(assets) {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	common := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		common[d] = struct{}{}
	}

	aligned := make([]PriceSeries, len(assets))
	for i, a := range assets {
		pts := make([]PricePoint, 0, len(dates))
		for _, p := range a.Points {
			if _, ok := common[Day(p.Date)]; ok {
				pts = append(pts, p)
			}
		}
		aligned[i] = PriceSeries{Asset: a.Asset, Points: pts}
	}
	return dates, aligned
}
