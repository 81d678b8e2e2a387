package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"portfolioRiskBot/internal/config"
	"portfolioRiskBot/internal/finance"
)

var (
	// /sortino S1 S2 ... [rf=0.05]
	reSortino = regexp.MustCompile(`^/sortino(?:@[\w_]+)?(?:\s+.*)?$`)
	// /help
	reHelp = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

// Sender is the part of tgbotapi.BotAPI the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Explainer turns a report into short commentary.
type Explainer interface {
	Explain(ctx context.Context, r finance.Report) (string, error)
}

type Handlers struct {
	api      Sender
	provider finance.PriceSeriesProvider
	cfg      *config.Config
	explain  Explainer
	log      zerolog.Logger
	timeout  time.Duration
}

// NewHandlers wires the command handlers. explain may be nil to skip commentary.
func NewHandlers(api Sender, provider finance.PriceSeriesProvider, cfg *config.Config, explain Explainer, log zerolog.Logger) *Handlers {
	return &Handlers{
		api:      api,
		provider: provider,
		cfg:      cfg,
		explain:  explain,
		log:      log,
		timeout:  90 * time.Second,
	}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	if m == nil || m.Chat == nil {
		return
	}
	txt := strings.TrimSpace(m.Text)
	switch {
	case reSortino.MatchString(txt):
		h.handleSortino(m.Chat.ID, txt)
	case reHelp.MatchString(txt):
		h.handleHelp(m.Chat.ID)
	}
}

func (h *Handlers) handleSortino(chatID int64, txt string) {
	cmd, err := finance.ParseRiskCommand(txt)
	if err != nil {
		h.reply(chatID, "Usage: /sortino S1 S2 ... [rf=0.0502]\n"+err.Error())
		return
	}
	log := h.log.With().Int64("chat_id", chatID).Strs("assets", cmd.Symbols).Logger()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	acfg := h.cfg.Analyzer(cmd.Symbols, cmd.RiskFreeRate)
	a, err := finance.NewAnalyzer(ctx, h.provider, acfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("analyzer construction failed")
		h.reply(chatID, userError(err))
		return
	}
	r, err := a.Report(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("report failed")
		h.reply(chatID, userError(err))
		return
	}
	log.Info().Float64("return", r.PortfolioReturn).Str("sortino", r.SortinoText()).Float64("beta", r.PortfolioBeta).Msg("sortino report")

	h.reply(chatID, formatReport(r, a.Config()))

	if img, err := finance.MakeRiskChart(a, r); err != nil {
		log.Warn().Err(err).Msg("risk chart failed")
	} else {
		name := strings.Join(r.Assets, "_")
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name + "_risk.png", Bytes: img})
		photo.Caption = "Portfolio: " + strings.Join(r.Assets, ", ") + " • " + acfg.Start.Format(time.DateOnly) + " → " + acfg.End.Format(time.DateOnly)
		h.send(photo)
	}

	if h.explain == nil {
		return
	}
	out, err := h.explain.Explain(ctx, r)
	if err != nil {
		log.Warn().Err(err).Msg("commentary failed")
		return
	}
	msg := tgbotapi.NewMessage(chatID, out)
	msg.ParseMode = "Markdown"
	h.send(msg)
}

func (h *Handlers) handleHelp(chatID int64) {
	a := h.cfg.Analysis
	help := "Commands\n\n" +
		"- /sortino S1 S2 ... [rf=0.0502] - Equal-weighted portfolio return, Sortino ratio and beta\n" +
		"- /help - Show this message\n" +
		fmt.Sprintf("\nWindow: %s → %s, daily closes. Benchmark: %s. Default rf: %g (percentage points over the window).",
			a.StartDate.Format(time.DateOnly), a.EndDate.Format(time.DateOnly), a.Benchmark, a.RiskFreeRate)
	h.reply(chatID, help)
}

func formatReport(r finance.Report, cfg finance.AnalyzerConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Portfolio: %s\n", strings.Join(r.Assets, ", "))
	fmt.Fprintf(&b, "Window: %s → %s (%d days)\n", cfg.Start.Format(time.DateOnly), cfg.End.Format(time.DateOnly), r.Points)
	fmt.Fprintf(&b, "Return: %.2f%%\n", r.PortfolioReturn)
	fmt.Fprintf(&b, "Sortino ratio: %s\n", r.SortinoText())
	fmt.Fprintf(&b, "Beta vs %s: %.3f\n", r.Benchmark, r.PortfolioBeta)
	fmt.Fprintf(&b, "Risk-free: %g", r.RiskFreeRate)
	return b.String()
}

func userError(err error) string {
	switch {
	case errors.Is(err, finance.ErrConfiguration):
		return "Invalid request: " + err.Error()
	case errors.Is(err, finance.ErrDataUnavailable):
		return "Couldn’t fetch prices: " + err.Error()
	case errors.Is(err, finance.ErrInsufficientData):
		return "Not enough overlapping prices in the window: " + err.Error()
	case errors.Is(err, finance.ErrDegenerateSeries), errors.Is(err, finance.ErrDegenerateBenchmark):
		return "Can't compute metrics: " + err.Error()
	default:
		return "Analysis failed: " + err.Error()
	}
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.log.Warn().Err(err).Msg("telegram send failed")
	}
}
