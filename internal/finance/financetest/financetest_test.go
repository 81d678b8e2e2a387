package financetest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDay(t *testing.T) {
	assert.Equal(t, time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC), Day("2021-01-04"))
	assert.Panics(t, func() { Day("04/01/2021") })
}

func TestSeries(t *testing.T) {
	s := Series("aaa", "2020-12-31", 10, 11, 12)
	require.Len(t, s.Points, 3)
	assert.Equal(t, "aaa", s.Asset)
	assert.Equal(t, Day("2021-01-02"), s.Points[2].Date)
	assert.Equal(t, 12.0, s.Points[2].Close)
	assert.NoError(t, s.Validate())
	assert.Empty(t, Series("EMPTY", "2021-01-04").Points)
}
