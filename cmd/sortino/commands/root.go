package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"portfolioRiskBot/internal/config"
	"portfolioRiskBot/internal/finance"
	"portfolioRiskBot/internal/logger"
	"portfolioRiskBot/internal/storage"
)

var (
	// Global flags
	logLevel  string
	cachePath string
	startDate string
	endDate   string
	benchmark string
	riskFree  float64
)

var rootCmd = &cobra.Command{
	Use:   "sortino",
	Short: "Portfolio return, Sortino ratio and beta from daily closes",
	Long: `Scores equal-weighted portfolios over a fixed window of daily closes.

Defaults come from the environment (.env is loaded when present) and can be
overridden per run with flags.

Examples:
  go run ./cmd/sortino analyze --assets GLEN.L,MRW.L,AZN
  go run ./cmd/sortino compare --portfolio GLEN.L,MRW.L,AZN --portfolio LGEN.L,TSCO,GSK
  go run ./cmd/sortino analyze --assets SPY --rf 0 --cache ./prices.db --chart spy.png`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error), overrides LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "", "sqlite file used as a price cache (disabled when empty)")
	rootCmd.PersistentFlags().StringVar(&startDate, "start", "", "window start YYYY-MM-DD, overrides START_DATE")
	rootCmd.PersistentFlags().StringVar(&endDate, "end", "", "window end YYYY-MM-DD (exclusive), overrides END_DATE")
	rootCmd.PersistentFlags().StringVar(&benchmark, "benchmark", "", "benchmark symbol, overrides BENCHMARK")
	rootCmd.PersistentFlags().Float64Var(&riskFree, "rf", 0, "risk-free threshold in percentage points, overrides RISK_FREE_RATE")
}

// session bundles what every subcommand needs.
type session struct {
	cfg      *config.Config
	log      zerolog.Logger
	provider finance.PriceSeriesProvider
	close    func()
}

func setup(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := applyOverrides(cmd, cfg); err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	log := logger.NewWithWriter(os.Stderr, level, "console")

	rt := &session{cfg: cfg, log: log, close: func() {}}
	var provider finance.PriceSeriesProvider = finance.NewYahooProvider(cfg.YahooOptions(), log)

	if cachePath != "" {
		_ = os.MkdirAll(filepath.Dir(cachePath), 0o755)
		db, err := storage.OpenSQLite("file:" + cachePath)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		if err := storage.InitSchema(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("init cache: %w", err)
		}
		provider = storage.NewCachedProvider(provider, storage.NewStore(db), log)
		rt.close = func() { db.Close() }
		log.Debug().Str("path", cachePath).Msg("price cache enabled")
	}
	rt.provider = provider
	return rt, nil
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("start") {
		t, err := time.Parse(time.DateOnly, startDate)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		cfg.Analysis.StartDate = t
	}
	if flags.Changed("end") {
		t, err := time.Parse(time.DateOnly, endDate)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}
		cfg.Analysis.EndDate = t
	}
	if flags.Changed("benchmark") {
		cfg.Analysis.Benchmark = strings.ToUpper(strings.TrimSpace(benchmark))
	}
	if flags.Changed("rf") {
		cfg.Analysis.RiskFreeRate = riskFree
	}
	return nil
}
