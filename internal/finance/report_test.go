package finance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzer_Report(t *testing.T) {
	p := NewStaticProvider(
		dailySeries("AAA", "2020-11-02", 100, 110, 90, 120),
		dailySeries("BBB", "2020-11-02", 100, 110, 90, 120),
		dailySeries("SPY", "2020-11-02", 200, 205, 210, 220),
	)
	a := newTestAnalyzer(t, p, testConfig(5, "AAA", "BBB"))

	r, err := a.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "BBB"}, r.Assets)
	assert.Equal(t, "SPY", r.Benchmark)
	assert.Equal(t, 4, r.Points)
	assert.InDelta(t, 20.0, r.PortfolioReturn, 1e-9)
	assert.True(t, r.SortinoDefined)
	assert.InDelta(t, 0.9961, r.SortinoRatio, 1e-4)
	assert.Equal(t, "0.996", r.SortinoText())
	// Each asset: (20-5)/(10-5) = 3, weight 1.
	assert.InDelta(t, 3.0, r.PortfolioBeta, 1e-9)
}

func TestAnalyzer_ReportUndefinedSortino(t *testing.T) {
	p := NewStaticProvider(
		dailySeries("UP", "2020-11-02", 100, 102, 104),
		dailySeries("SPY", "2020-11-02", 200, 205, 220),
	)
	a := newTestAnalyzer(t, p, testConfig(0, "UP"))

	r, err := a.Report(context.Background())
	require.NoError(t, err)
	assert.False(t, r.SortinoDefined)
	assert.Zero(t, r.SortinoRatio)
	assert.Equal(t, "undefined", r.SortinoText())
	assert.InDelta(t, 4.0, r.PortfolioReturn, 1e-9)
}

func TestAnalyzer_ReportPropagatesBenchmarkFailure(t *testing.T) {
	p := NewStaticProvider(dailySeries("UP", "2020-11-02", 100, 102, 104))
	a := newTestAnalyzer(t, p, testConfig(0, "UP"))

	_, err := a.Report(context.Background())
	require.ErrorIs(t, err, ErrDataUnavailable)
}
