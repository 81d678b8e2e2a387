package finance

import (
	"fmt"
	"math"
	"time"
)

// Interval is the sampling interval requested from a provider.
type Interval string

const (
	// Daily is the only interval the analyzer accepts.
	Daily Interval = "1d"
)

// PricePoint is a single daily close.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// PriceSeries is the chronologically ordered close history of one asset, oldest first.
type PriceSeries struct {
	Asset  string
	Points []PricePoint
}

// Len returns the number of points in the series.
func (s PriceSeries) Len() int { return len(s.Points) }

// Empty reports whether the provider had no data for the window.
func (s PriceSeries) Empty() bool { return len(s.Points) == 0 }

// First returns the oldest close. The series must not be empty.
func (s PriceSeries) First() float64 { return s.Points[0].Close }

// Last returns the most recent close. The series must not be empty.
func (s PriceSeries) Last() float64 { return s.Points[len(s.Points)-1].Close }

// Validate checks the series invariants: non-empty, positive finite closes
// and strictly increasing dates.
func (s PriceSeries) Validate() error {
	if len(s.Points) == 0 {
		return fmt.Errorf("series %s is empty", s.Asset)
	}
	for i, p := range s.Points {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) || p.Close <= 0 {
			return fmt.Errorf("series %s: invalid close %f on %s", s.Asset, p.Close, p.Date.Format(time.DateOnly))
		}
		if i > 0 && !p.Date.After(s.Points[i-1].Date) {
			return fmt.Errorf("series %s: date %s not after %s", s.Asset,
				p.Date.Format(time.DateOnly), s.Points[i-1].Date.Format(time.DateOnly))
		}
	}
	return nil
}

// Day truncates t to its calendar day at UTC midnight. All series dates use this form
// so that assets from different exchanges join on the same key.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ByDay returns a copy of the series with every date truncated by Day.
// The provider's slice is left untouched.
func (s PriceSeries) ByDay() PriceSeries {
	pts := make([]PricePoint, len(s.Points))
	for i, p := range s.Points {
		pts[i] = PricePoint{Date: Day(p.Date), Close: p.Close}
	}
	return PriceSeries{Asset: s.Asset, Points: pts}
}
