package finance

import (
	"context"
	"errors"
	"strconv"
)

// Report is the per-portfolio result handed to the presentation layers.
type Report struct {
	Assets            []string `json:"assets"`
	RiskFreeRate      float64  `json:"risk_free_rate"`
	Benchmark         string   `json:"benchmark"`
	Points            int      `json:"points"`
	PortfolioReturn   float64  `json:"portfolio_return"`
	DownsideDeviation float64  `json:"downside_deviation"`
	// SortinoRatio is only meaningful when SortinoDefined is true.
	SortinoRatio   float64 `json:"sortino_ratio"`
	SortinoDefined bool    `json:"sortino_defined"`
	PortfolioBeta  float64 `json:"portfolio_beta"`
}

// Report computes every metric. An undefined Sortino ratio is recorded in the report;
// any other failure is returned unchanged.
func (a *Analyzer) Report(ctx context.Context) (Report, error) {
	r := Report{
		Assets:            a.Assets(),
		RiskFreeRate:      a.cfg.RiskFreeRate,
		Benchmark:         a.cfg.Benchmark,
		Points:            len(a.values),
		DownsideDeviation: a.DownsideDeviation(),
	}

	ret, err := a.PortfolioReturn()
	if err != nil {
		return Report{}, err
	}
	r.PortfolioReturn = ret

	sortino, err := a.SortinoRatio()
	switch {
	case err == nil:
		r.SortinoRatio = sortino
		r.SortinoDefined = true
	case errors.Is(err, ErrUndefinedRatio):
	default:
		return Report{}, err
	}

	beta, err := a.Beta(ctx)
	if err != nil {
		return Report{}, err
	}
	r.PortfolioBeta = beta
	return r, nil
}

// SortinoText formats the ratio with three decimals, or "undefined".
func (r Report) SortinoText() string {
	if !r.SortinoDefined {
		return "undefined"
	}
	return strconv.FormatFloat(r.SortinoRatio, 'f', 3, 64)
}
