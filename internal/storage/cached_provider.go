package storage

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"portfolioRiskBot/internal/finance"
)

// CachedProvider serves price windows from sqlite and falls through to the wrapped
// provider for windows it has not seen. Windows that came back empty are cached too.
type CachedProvider struct {
	inner finance.PriceSeriesProvider
	store *Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewCachedProvider(inner finance.PriceSeriesProvider, store *Store, log zerolog.Logger) *CachedProvider {
	return &CachedProvider{inner: inner, store: store, log: log, now: time.Now}
}

func (c *CachedProvider) Fetch(ctx context.Context, assetID string, start, end time.Time, interval finance.Interval) (finance.PriceSeries, error) {
	return c.fetch(ctx, assetID, start, end, interval, func(ctx context.Context) (finance.PriceSeries, error) {
		return c.inner.Fetch(ctx, assetID, start, end, interval)
	})
}

func (c *CachedProvider) FetchBenchmark(ctx context.Context, benchmarkID string, start, end time.Time) (finance.PriceSeries, error) {
	return c.fetch(ctx, benchmarkID, start, end, finance.Daily, func(ctx context.Context) (finance.PriceSeries, error) {
		return c.inner.FetchBenchmark(ctx, benchmarkID, start, end)
	})
}

func (c *CachedProvider) fetch(ctx context.Context, symbol string, start, end time.Time, interval finance.Interval,
	load func(context.Context) (finance.PriceSeries, error)) (finance.PriceSeries, error) {
	key := strings.ToUpper(symbol)
	if interval == "" {
		interval = finance.Daily
	}

	hit, err := c.store.HasWindow(key, interval, start, end)
	if err != nil {
		c.log.Warn().Err(err).Str("asset", key).Msg("price cache lookup failed")
	} else if hit {
		s, err := c.store.LoadPrices(key, interval, start, end)
		if err == nil {
			c.log.Debug().Str("asset", key).Int("points", s.Len()).Msg("price cache hit")
			return s, nil
		}
		c.log.Warn().Err(err).Str("asset", key).Msg("price cache read failed")
	}

	s, err := load(ctx)
	if err != nil {
		return finance.PriceSeries{}, err
	}
	s.Asset = key
	if err := c.store.SaveWindow(s, interval, start, end, c.now().Unix()); err != nil {
		c.log.Warn().Err(err).Str("asset", key).Msg("price cache write failed")
	}
	return s, nil
}
