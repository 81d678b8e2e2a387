package finance

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AnalyzerConfig describes one equal-weighted portfolio and the window it is measured over.
type AnalyzerConfig struct {
	Assets []string
	// RiskFreeRate is a percentage-point value over the whole window, not annualized.
	RiskFreeRate float64
	Start        time.Time
	End          time.Time
	Interval     Interval
	Benchmark    string
	// Concurrency bounds parallel asset fetches. Zero or one fetches sequentially.
	Concurrency int
}

// Validate normalizes asset identifiers to upper case and rejects unusable input.
func (c *AnalyzerConfig) Validate() error {
	if len(c.Assets) == 0 {
		return fmt.Errorf("%w: at least one asset is required", ErrConfiguration)
	}
	seen := make(map[string]bool, len(c.Assets))
	normalized := make([]string, 0, len(c.Assets))
	for i, a := range c.Assets {
		sym := strings.ToUpper(strings.TrimSpace(a))
		if sym == "" {
			return fmt.Errorf("%w: empty asset at position %d", ErrConfiguration, i+1)
		}
		if seen[sym] {
			return fmt.Errorf("%w: duplicate asset: %s", ErrConfiguration, sym)
		}
		seen[sym] = true
		normalized = append(normalized, sym)
	}
	c.Assets = normalized

	if c.Interval == "" {
		c.Interval = Daily
	}
	if c.Interval != Daily {
		return fmt.Errorf("%w: unsupported interval %q (only %s)", ErrConfiguration, c.Interval, Daily)
	}
	if c.Start.IsZero() || c.End.IsZero() || !c.Start.Before(c.End) {
		return fmt.Errorf("%w: start date must be before end date", ErrConfiguration)
	}
	if strings.TrimSpace(c.Benchmark) == "" {
		return fmt.Errorf("%w: benchmark is required", ErrConfiguration)
	}
	if math.IsNaN(c.RiskFreeRate) || math.IsInf(c.RiskFreeRate, 0) {
		return fmt.Errorf("%w: risk-free rate must be finite", ErrConfiguration)
	}
	return nil
}

// Analyzer holds the derived series of one portfolio. Everything except the benchmark
// cache is computed in NewAnalyzer and never changes afterwards.
type Analyzer struct {
	cfg      AnalyzerConfig
	provider PriceSeriesProvider
	log      zerolog.Logger

	dates  []time.Time
	values []float64
	ner    []float64
	// assets are restricted to dates and sorted by symbol.
	assets []PriceSeries

	benchMu sync.Mutex
	bench   *PriceSeries
}

// NewAnalyzer fetches every asset, builds the equal-weighted value series over the dates
// common to all assets and derives the negative excess return set.
func NewAnalyzer(ctx context.Context, provider PriceSeriesProvider, cfg AnalyzerConfig, log zerolog.Logger) (*Analyzer, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: price provider is nil", ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Assets = append([]string(nil), cfg.Assets...)

	raw, err := fetchPortfolioAssets(ctx, provider, cfg, log)
	if err != nil {
		return nil, err
	}

	sorted := append([]PriceSeries(nil), raw...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Asset < sorted[j].Asset })

	dates, aligned := alignCommonDates(sorted)
	values := portfolioValues(aligned, len(dates))

	a := &Analyzer{
		cfg:      cfg,
		provider: provider,
		log:      log,
		dates:    dates,
		values:   values,
		assets:   aligned,
	}
	a.ner = negativeExcessReturns(values, cfg.RiskFreeRate)

	log.Debug().
		Strs("assets", cfg.Assets).
		Int("aligned", len(dates)).
		Int("ner", len(a.ner)).
		Msg("portfolio constructed")
	return a, nil
}

// portfolioValues averages the aligned closes date by date.
func portfolioValues(aligned []PriceSeries, n int) []float64 {
	values := make([]float64, n)
	row := make([]float64, len(aligned))
	for day := 0; day < n; day++ {
		for i, s := range aligned {
			row[i] = s.Points[day].Close
		}
		values[day] = stat.Mean(row, nil)
	}
	return values
}

// negativeExcessReturns squares the percentage shortfall of every value below
// values[0] + rf. The threshold is additive on purpose.
func negativeExcessReturns(values []float64, rf float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	threshold := values[0] + rf
	var ner []float64
	for _, v := range values {
		if v < threshold {
			d := (v/threshold - 1) * 100
			ner = append(ner, d*d)
		}
	}
	return ner
}

// seriesReturn is the percentage change from the first to the last value.
func seriesReturn(first, last float64, n int) (float64, error) {
	if n < 2 {
		return 0, fmt.Errorf("%w: need at least 2 data points, got %d", ErrInsufficientData, n)
	}
	if first == 0 {
		return 0, fmt.Errorf("%w: opening value is zero", ErrDegenerateSeries)
	}
	return (last/first - 1) * 100, nil
}

// PortfolioReturn is the percentage return of the value series over the window.
func (a *Analyzer) PortfolioReturn() (float64, error) {
	if len(a.values) == 0 {
		return seriesReturn(0, 0, 0)
	}
	return seriesReturn(a.values[0], a.values[len(a.values)-1], len(a.values))
}

// NegativeExcessReturns returns a copy of the squared shortfalls.
func (a *Analyzer) NegativeExcessReturns() []float64 {
	return append([]float64(nil), a.ner...)
}

// DownsideDeviation is the square root of the summed negative excess returns.
func (a *Analyzer) DownsideDeviation() float64 {
	if len(a.ner) == 0 {
		return 0
	}
	return math.Sqrt(floats.Sum(a.ner))
}

// SortinoRatio divides the excess return by the downside deviation. It returns
// ErrUndefinedRatio when the portfolio never dipped below its threshold.
func (a *Analyzer) SortinoRatio() (float64, error) {
	ret, err := a.PortfolioReturn()
	if err != nil {
		return 0, err
	}
	dd := a.DownsideDeviation()
	if dd == 0 {
		return 0, fmt.Errorf("%w: portfolio never fell below its risk-free-adjusted baseline", ErrUndefinedRatio)
	}
	return (ret - a.cfg.RiskFreeRate) / dd, nil
}

// Beta computes the portfolio beta against the configured benchmark. The benchmark is
// fetched on first use and reused afterwards.
func (a *Analyzer) Beta(ctx context.Context) (float64, error) {
	if len(a.values) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 aligned data points, got %d", ErrInsufficientData, len(a.values))
	}
	if a.values[0] == 0 {
		return 0, fmt.Errorf("%w: opening portfolio value is zero", ErrDegenerateSeries)
	}

	bench, err := a.benchmark(ctx)
	if err != nil {
		return 0, err
	}
	benchReturn, err := seriesReturn(bench.First(), bench.Last(), bench.Len())
	if err != nil {
		return 0, fmt.Errorf("benchmark %s: %w", a.cfg.Benchmark, err)
	}
	excessBench := benchReturn - a.cfg.RiskFreeRate
	if excessBench == 0 {
		return 0, fmt.Errorf("%w: benchmark %s return %.4f%% equals the risk-free rate",
			ErrDegenerateBenchmark, a.cfg.Benchmark, benchReturn)
	}

	n := float64(len(a.assets))
	beta := 0.0
	for _, s := range a.assets {
		assetReturn, err := seriesReturn(s.First(), s.Last(), s.Len())
		if err != nil {
			return 0, fmt.Errorf("asset %s: %w", s.Asset, err)
		}
		weight := s.First() / a.values[0]
		assetBeta := (assetReturn - a.cfg.RiskFreeRate) / excessBench
		beta += assetBeta * weight / n
	}
	return beta, nil
}

func (a *Analyzer) benchmark(ctx context.Context) (PriceSeries, error) {
	a.benchMu.Lock()
	defer a.benchMu.Unlock()
	if a.bench != nil {
		return *a.bench, nil
	}

	s, err := a.provider.FetchBenchmark(ctx, a.cfg.Benchmark, a.cfg.Start, a.cfg.End)
	if err != nil {
		return PriceSeries{}, fmt.Errorf("failed to fetch benchmark %s: %w", a.cfg.Benchmark, err)
	}
	if s.Empty() {
		return PriceSeries{}, fmt.Errorf("%w: no data available for benchmark %s", ErrDataUnavailable, a.cfg.Benchmark)
	}
	s = s.ByDay()
	if err := s.Validate(); err != nil {
		return PriceSeries{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	a.log.Debug().Str("benchmark", a.cfg.Benchmark).Int("points", s.Len()).Msg("fetched benchmark")
	a.bench = &s
	return s, nil
}

// Assets returns the portfolio symbols in the order they were configured.
func (a *Analyzer) Assets() []string { return append([]string(nil), a.cfg.Assets...) }

// RiskFreeRate returns the configured risk-free rate.
func (a *Analyzer) RiskFreeRate() float64 { return a.cfg.RiskFreeRate }

// Config returns a copy of the normalized configuration.
func (a *Analyzer) Config() AnalyzerConfig {
	c := a.cfg
	c.Assets = a.Assets()
	return c
}

// Dates returns a copy of the aligned dates, oldest first.
func (a *Analyzer) Dates() []time.Time { return append([]time.Time(nil), a.dates...) }

// Values returns a copy of the portfolio value series, oldest first.
func (a *Analyzer) Values() []float64 { return append([]float64(nil), a.values...) }
