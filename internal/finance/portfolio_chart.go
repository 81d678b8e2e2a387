package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/vicanso/go-charts/v2"
)

// MakeRiskChart renders the portfolio value series as a PNG line chart with the
// report's metrics in the title.
func MakeRiskChart(a *Analyzer, r Report) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("no portfolio provided")
	}
	dates, values := a.Dates(), a.Values()
	if len(values) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points to chart, got %d", ErrInsufficientData, len(values))
	}

	cfg := a.Config()
	cacheKey := fmt.Sprintf("risk-%s-%s-%s-%g-%s", strings.Join(cfg.Assets, ","),
		cfg.Start.Format(time.DateOnly), cfg.End.Format(time.DateOnly), cfg.RiskFreeRate, cfg.Benchmark)
	if img, found := riskCharts.get(cacheKey); found {
		return img, nil
	}

	xLabels := make([]string, len(dates))
	for i, d := range dates {
		if len(dates) <= 60 {
			xLabels[i] = d.Format("Jan 02")
		} else {
			xLabels[i] = d.Format("Jan '06")
		}
	}

	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	yMin := minVal - padding
	yMax := maxVal + padding

	title := fmt.Sprintf("Equal Weighted Portfolio (%s)", strings.Join(cfg.Assets, ", "))
	subtitle := fmt.Sprintf("Return: %.2f%% | Sortino: %s | Beta vs %s: %.3f",
		r.PortfolioReturn, r.SortinoText(), r.Benchmark, r.PortfolioBeta)

	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = len(xLabels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	p, err := charts.LineRender(
		[][]float64{values},
		charts.TitleTextOptionFunc(title+"\n"+subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	riskCharts.set(cacheKey, buf)
	return buf, nil
}
