package finance

import (
	"math"
	"sort"
)

// filterNonPositive removes points where close <= 0 or is not finite, keeping timestamp
// and value arrays aligned. Yahoo encodes missing closes as null, which decodes to 0.
func filterNonPositive(ts []int64, cl []float64) ([]int64, []float64) {
	if len(ts) != len(cl) {
		n := len(ts)
		if len(cl) < n {
			n = len(cl)
		}
		ts = ts[:n]
		cl = cl[:n]
	}
	outTs := make([]int64, 0, len(ts))
	outCl := make([]float64, 0, len(cl))
	for i := 0; i < len(ts); i++ {
		if cl[i] <= 0 || math.IsNaN(cl[i]) || math.IsInf(cl[i], 0) {
			continue
		}
		outTs = append(outTs, ts[i])
		outCl = append(outCl, cl[i])
	}
	return outTs, outCl
}

// dedupeByDay sorts points by date and keeps the last close seen for each day.
// Yahoo sometimes appends a live bar for the current session next to the daily bar.
func dedupeByDay(pts []PricePoint) []PricePoint {
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })
	out := make([]PricePoint, 0, len(pts))
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}
