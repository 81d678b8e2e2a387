// Package financetest holds price fixtures for tests outside package finance.
package financetest

import (
	"time"

	"portfolioRiskBot/internal/finance"
)

// Day parses a YYYY-MM-DD date and panics on error.
func Day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Series builds a series with one close per calendar day starting at from.
func Series(asset, from string, closes ...float64) finance.PriceSeries {
	d := Day(from)
	pts := make([]finance.PricePoint, len(closes))
	for i, c := range closes {
		pts[i] = finance.PricePoint{Date: d.AddDate(0, 0, i), Close: c}
	}
	return finance.PriceSeries{Asset: asset, Points: pts}
}
