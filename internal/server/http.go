package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"portfolioRiskBot/internal/config"
	"portfolioRiskBot/internal/finance"
)

// NewHTTPMux registers the health check and the risk API. webhook may be nil when
// the Telegram bot is not configured.
func NewHTTPMux(webhook http.HandlerFunc, provider finance.PriceSeriesProvider, cfg *config.Config, log zerolog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	if webhook != nil {
		mux.HandleFunc("/telegram/webhook", webhook)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) })
	mux.Handle("/api/risk", &riskHandler{provider: provider, cfg: cfg, log: log, timeout: 90 * time.Second})
	return mux
}

func ListenAndServe(addr string, mux *http.ServeMux) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

type riskHandler struct {
	provider finance.PriceSeriesProvider
	cfg      *config.Config
	log      zerolog.Logger
	timeout  time.Duration
}

type errorBody struct {
	Error string `json:"error"`
}

// ServeHTTP answers GET /api/risk?assets=A,B&rf=0.05 with a JSON report.
func (h *riskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return
	}

	q := r.URL.Query()
	var assets []string
	if v := q.Get("assets"); v != "" {
		assets = finance.SplitSymbols(v)
	}
	var rf *float64
	if v := q.Get("rf"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid rf: " + v})
			return
		}
		rf = &f
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	log := h.log.With().Strs("assets", assets).Logger()
	a, err := finance.NewAnalyzer(ctx, h.provider, h.cfg.Analyzer(assets, rf), log)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	rep, err := a.Report(ctx)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *riskHandler) fail(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := statusFor(err)
	ev := log.Warn()
	if status >= 500 {
		ev = log.Error()
	}
	ev.Err(err).Int("status", status).Msg("risk request failed")
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, finance.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, finance.ErrDataUnavailable):
		return http.StatusNotFound
	case errors.Is(err, finance.ErrInsufficientData),
		errors.Is(err, finance.ErrDegenerateSeries),
		errors.Is(err, finance.ErrDegenerateBenchmark):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
