package finance

import (
	"time"
)

var (
	testStart = mustDay("2020-10-25")
	testEnd   = mustDay("2021-10-25")
)

// dailySeries builds a series with one close per calendar day starting at from.
func dailySeries(asset, from string, closes ...float64) PriceSeries {
	d := mustDay(from)
	pts := make([]PricePoint, len(closes))
	for i, c := range closes {
		pts[i] = PricePoint{Date: d.AddDate(0, 0, i), Close: c}
	}
	return PriceSeries{Asset: asset, Points: pts}
}

// datedSeries builds a series from explicit YYYY-MM-DD dates.
func datedSeries(asset string, dates []string, closes ...float64) PriceSeries {
	pts := make([]PricePoint, len(closes))
	for i, c := range closes {
		pts[i] = PricePoint{Date: mustDay(dates[i]), Close: c}
	}
	return PriceSeries{Asset: asset, Points: pts}
}

func testConfig(rf float64, assets ...string) AnalyzerConfig {
	return AnalyzerConfig{
		Assets:       assets,
		RiskFreeRate: rf,
		Start:        testStart,
		End:          testEnd,
		Interval:     Daily,
		Benchmark:    "SPY",
	}
}

// mustDay parses a YYYY-MM-DD date and panics on error.
func mustDay(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func day(offset int) time.Time { return testStart.AddDate(0, 0, offset) }
