package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioRiskBot/internal/finance"
	"portfolioRiskBot/internal/finance/financetest"
)

var (
	winStart = financetest.Day("2020-10-25")
	winEnd   = financetest.Day("2021-10-25")
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenSQLite("file:" + filepath.Join(t.TempDir(), "prices.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, InitSchema(db))
	require.NoError(t, InitSchema(db), "schema creation is idempotent")
	return NewStore(db)
}

func TestStore_SaveAndLoadWindow(t *testing.T) {
	st := openTestStore(t)

	ok, err := st.HasWindow("AZN", finance.Daily, winStart, winEnd)
	require.NoError(t, err)
	assert.False(t, ok)

	s := financetest.Series("AZN", "2021-01-04", 80.5, 81, 79.25)
	require.NoError(t, st.SaveWindow(s, finance.Daily, winStart, winEnd, 1))

	ok, err = st.HasWindow("AZN", finance.Daily, winStart, winEnd)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := st.LoadPrices("AZN", finance.Daily, winStart, winEnd)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	got, err = st.LoadPrices("AZN", finance.Daily, winStart, financetest.Day("2021-01-05"))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len(), "end bound is exclusive")
}

func TestCachedProvider_ReadThrough(t *testing.T) {
	st := openTestStore(t)
	inner := finance.NewStaticProvider(
		financetest.Series("AZN", "2021-01-04", 80, 82, 84),
		financetest.Series("SPY", "2021-01-04", 370, 372, 380),
	)
	cp := NewCachedProvider(inner, st, zerolog.Nop())
	ctx := context.Background()

	first, err := cp.Fetch(ctx, "azn", winStart, winEnd, finance.Daily)
	require.NoError(t, err)
	second, err := cp.Fetch(ctx, "AZN", winStart, winEnd, finance.Daily)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "AZN", second.Asset)
	assert.Equal(t, 1, inner.Calls["AZN"])

	_, err = cp.FetchBenchmark(ctx, "SPY", winStart, winEnd)
	require.NoError(t, err)
	b, err := cp.FetchBenchmark(ctx, "SPY", winStart, winEnd)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 1, inner.Calls["SPY"])
}

func TestCachedProvider_CachesEmptyWindow(t *testing.T) {
	st := openTestStore(t)
	inner := finance.NewStaticProvider()
	cp := NewCachedProvider(inner, st, zerolog.Nop())

	for range 2 {
		s, err := cp.Fetch(context.Background(), "DELISTED", winStart, winEnd, finance.Daily)
		require.NoError(t, err)
		assert.True(t, s.Empty())
	}
	assert.Equal(t, 1, inner.Calls["DELISTED"])
}

func TestCachedProvider_DoesNotCacheErrors(t *testing.T) {
	st := openTestStore(t)
	inner := finance.NewStaticProvider(financetest.Series("AZN", "2021-01-04", 80, 82))
	inner.Err["AZN"] = errors.New("upstream down")
	cp := NewCachedProvider(inner, st, zerolog.Nop())
	ctx := context.Background()

	_, err := cp.Fetch(ctx, "AZN", winStart, winEnd, finance.Daily)
	require.Error(t, err)

	delete(inner.Err, "AZN")
	s, err := cp.Fetch(ctx, "AZN", winStart, winEnd, finance.Daily)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, inner.Calls["AZN"])
}

func TestCachedProvider_WindowsAreDistinct(t *testing.T) {
	st := openTestStore(t)
	inner := finance.NewStaticProvider(financetest.Series("AZN", "2021-01-04", 80, 82, 84, 86))
	cp := NewCachedProvider(inner, st, zerolog.Nop())
	ctx := context.Background()

	_, err := cp.Fetch(ctx, "AZN", winStart, winEnd, finance.Daily)
	require.NoError(t, err)
	s, err := cp.Fetch(ctx, "AZN", winStart, financetest.Day("2021-01-06"), finance.Daily)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, inner.Calls["AZN"])
}

func TestCachedProvider_FeedsAnalyzer(t *testing.T) {
	st := openTestStore(t)
	inner := finance.NewStaticProvider(
		financetest.Series("AAA", "2020-11-02", 100, 110, 90, 120),
		financetest.Series("BBB", "2020-11-02", 100, 110, 90, 120),
	)
	cp := NewCachedProvider(inner, st, zerolog.Nop())
	cfg := finance.AnalyzerConfig{
		Assets: []string{"AAA", "BBB"}, RiskFreeRate: 5,
		Start: winStart, End: winEnd, Interval: finance.Daily, Benchmark: "SPY",
	}

	for range 2 {
		a, err := finance.NewAnalyzer(context.Background(), cp, cfg, zerolog.Nop())
		require.NoError(t, err)
		r, err := a.PortfolioReturn()
		require.NoError(t, err)
		assert.InDelta(t, 20.0, r, 1e-9)
	}
	assert.Equal(t, 1, inner.Calls["AAA"])
}
