package finance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2021-01-04 14:30 UTC, the NYSE open, then one bar per day.
const chartJSON = `{"chart":{"result":[{"meta":{"symbol":"AZN","gmtoffset":-18000,"timezone":"EST"},
"timestamp":[1609770600,1609857000,1609943400,1610029800,1610116200],
"indicators":{"quote":[{"close":[50.25,null,51.5,51.0,52.75]}]}}],"error":null}}`

func testYahoo(hosts ...string) *YahooProvider {
	return NewYahooProvider(YahooOptions{
		Hosts:             hosts,
		Backoffs:          []time.Duration{},
		RequestsPerSecond: 1000,
		Burst:             100,
	}, zerolog.Nop())
}

func TestYahooProvider_Fetch(t *testing.T) {
	var query atomicValues
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AZN", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		query.Store(r.URL.Query().Get("period1"), r.URL.Query().Get("period2"), r.URL.Query().Get("interval"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	start, end := mustDay("2021-01-01"), mustDay("2021-01-10")
	s, err := testYahoo(srv.URL).Fetch(context.Background(), "AZN", start, end, Daily)
	require.NoError(t, err)

	p1, p2, interval := query.Load()
	assert.Equal(t, strconv.FormatInt(start.Unix(), 10), p1)
	assert.Equal(t, strconv.FormatInt(end.Unix(), 10), p2)
	assert.Equal(t, "1d", interval)

	require.NoError(t, s.Validate())
	require.Equal(t, 4, s.Len(), "null close dropped")
	assert.Equal(t, mustDay("2021-01-04"), s.Points[0].Date)
	assert.Equal(t, mustDay("2021-01-06"), s.Points[1].Date)
	assert.Equal(t, 50.25, s.First())
	assert.Equal(t, 52.75, s.Last())
}

func TestYahooProvider_ClipsWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	s, err := testYahoo(srv.URL).Fetch(context.Background(), "AZN", mustDay("2021-01-05"), mustDay("2021-01-08"), Daily)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, mustDay("2021-01-06"), s.Points[0].Date)
	assert.Equal(t, mustDay("2021-01-07"), s.Points[1].Date)
}

func TestYahooProvider_FallsBackToSecondHost(t *testing.T) {
	var limited int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&limited, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("Edge: Too Many Requests"))
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartJSON))
	}))
	defer good.Close()

	s, err := testYahoo(bad.URL, good.URL).FetchBenchmark(context.Background(), "AZN", mustDay("2021-01-01"), mustDay("2021-01-10"))
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, int32(1), atomic.LoadInt32(&limited))
}

func TestYahooProvider_Responses(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantEmpty bool
		wantErr   string
	}{
		{name: "unknown symbol", status: http.StatusNotFound, body: `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, wantEmpty: true},
		{name: "not found in body", status: http.StatusOK, body: `{"chart":{"result":null,"error":{"code":"Not Found","description":"delisted"}}}`, wantEmpty: true},
		{name: "no bars", status: http.StatusOK, body: `{"chart":{"result":[{"meta":{"gmtoffset":0},"timestamp":[],"indicators":{"quote":[{"close":[]}]}}],"error":null}}`, wantEmpty: true},
		{name: "server error", status: http.StatusBadGateway, body: "upstream unavailable", wantErr: "returned 502"},
		{name: "html body", status: http.StatusOK, body: "<html>consent</html>", wantErr: "non-json"},
		{name: "broken json", status: http.StatusOK, body: `{"chart":`, wantErr: "failed to parse yahoo json"},
		{name: "chart error", status: http.StatusOK, body: `{"chart":{"result":[],"error":{"code":"Bad Request","description":"Invalid input"}}}`, wantErr: "Invalid input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s, err := testYahoo(srv.URL).Fetch(context.Background(), "XYZ", mustDay("2021-01-01"), mustDay("2021-02-01"), Daily)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmpty, s.Empty())
		})
	}
}

func TestYahooProvider_RejectsIntraday(t *testing.T) {
	_, err := testYahoo("http://127.0.0.1:0").Fetch(context.Background(), "AZN", mustDay("2021-01-01"), mustDay("2021-01-10"), "5m")
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestYahooProvider_CircuitBreakerOpens(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	y := NewYahooProvider(YahooOptions{
		Hosts:             []string{srv.URL},
		Backoffs:          []time.Duration{},
		RequestsPerSecond: 1000,
		Burst:             100,
		BreakerFailures:   2,
		BreakerTimeout:    time.Minute,
	}, zerolog.Nop())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := y.Fetch(ctx, "AZN", mustDay("2021-01-01"), mustDay("2021-01-10"), Daily)
		require.Error(t, err)
	}
	_, err := y.Fetch(ctx, "AZN", mustDay("2021-01-01"), mustDay("2021-01-10"), Daily)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestYahooProvider_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testYahoo(srv.URL).Fetch(ctx, "AZN", mustDay("2021-01-01"), mustDay("2021-01-10"), Daily)
	require.ErrorIs(t, err, context.Canceled)
}

type atomicValues struct{ v atomic.Value }

func (a *atomicValues) Store(p1, p2, interval string) { a.v.Store([3]string{p1, p2, interval}) }

func (a *atomicValues) Load() (string, string, string) {
	s, _ := a.v.Load().([3]string)
	return s[0], s[1], s[2]
}
