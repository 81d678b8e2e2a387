package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"portfolioRiskBot/internal/finance"
)

// Config is read once at startup; nothing else calls os.Getenv.
type Config struct {
	// Server
	Port   string
	Env    string
	DBPath string

	// Logging
	LogLevel  string
	LogFormat string

	// Telegram and OpenAI; only the bot needs them
	TelegramToken    string
	WebhookPublicURL string
	OpenAIKey        string
	OpenAIModel      string

	Yahoo    YahooConfig
	Analysis AnalysisConfig
}

type YahooConfig struct {
	Hosts             []string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	BreakerFailures   int
	BreakerTimeout    time.Duration
}

// AnalysisConfig holds the defaults used when a request names only its assets.
type AnalysisConfig struct {
	Assets       []string
	RiskFreeRate float64
	StartDate    time.Time
	EndDate      time.Time
	Interval     string
	Benchmark    string
	Concurrency  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:   getEnv("PORT", "9095"),
		Env:    getEnv("ENV", "development"),
		DBPath: getEnv("DB_PATH", "/app/data/prices.db"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", ""),

		TelegramToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookPublicURL: getEnv("WEBHOOK_PUBLIC_URL", ""),
		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4"),

		Yahoo: YahooConfig{
			Hosts:             getEnvAsList("YAHOO_HOSTS", []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"}),
			Timeout:           getEnvAsDuration("YAHOO_TIMEOUT", "20s"),
			RequestsPerSecond: getEnvAsFloat("YAHOO_RPS", 2),
			Burst:             getEnvAsInt("YAHOO_BURST", 4),
			BreakerFailures:   getEnvAsInt("YAHOO_BREAKER_FAILURES", 5),
			BreakerTimeout:    getEnvAsDuration("YAHOO_BREAKER_TIMEOUT", "60s"),
		},

		Analysis: AnalysisConfig{
			Assets:       getEnvAsList("PORTFOLIO_ASSETS", nil),
			RiskFreeRate: getEnvAsFloat("RISK_FREE_RATE", 0.0502),
			StartDate:    getEnvAsDate("START_DATE", "2020-10-25"),
			EndDate:      getEnvAsDate("END_DATE", "2021-10-25"),
			Interval:     getEnv("PRICE_INTERVAL", string(finance.Daily)),
			Benchmark:    strings.ToUpper(getEnv("BENCHMARK", "SPY")),
			Concurrency:  getEnvAsInt("FETCH_CONCURRENCY", 4),
		},
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
		if cfg.IsProduction() {
			cfg.LogFormat = "json"
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	a := c.Analysis
	if a.StartDate.IsZero() || a.EndDate.IsZero() {
		return errors.New("START_DATE and END_DATE must be YYYY-MM-DD")
	}
	if !a.StartDate.Before(a.EndDate) {
		return errors.New("START_DATE must be before END_DATE")
	}
	if a.Interval != string(finance.Daily) {
		return fmt.Errorf("PRICE_INTERVAL %q is not supported, only %s", a.Interval, finance.Daily)
	}
	if a.Benchmark == "" {
		return errors.New("BENCHMARK is required")
	}
	if math.IsNaN(a.RiskFreeRate) || math.IsInf(a.RiskFreeRate, 0) {
		return errors.New("RISK_FREE_RATE must be a finite number")
	}
	if a.Concurrency < 0 {
		return errors.New("FETCH_CONCURRENCY must not be negative")
	}
	if len(c.Yahoo.Hosts) == 0 {
		return errors.New("YAHOO_HOSTS must name at least one host")
	}
	if c.Yahoo.RequestsPerSecond <= 0 || c.Yahoo.Burst < 1 {
		return errors.New("YAHOO_RPS must be positive and YAHOO_BURST at least 1")
	}
	if c.Yahoo.BreakerFailures < 1 {
		return errors.New("YAHOO_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

// RequireBot checks the settings the Telegram surface cannot start without.
func (c *Config) RequireBot() error {
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.WebhookPublicURL == "" {
		missing = append(missing, "WEBHOOK_PUBLIC_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing env %s", strings.Join(missing, ", "))
	}
	return nil
}

// Analyzer builds an analyzer config over the configured window. Nil assets fall back
// to PORTFOLIO_ASSETS and a nil rf to RISK_FREE_RATE.
func (c *Config) Analyzer(assets []string, rf *float64) finance.AnalyzerConfig {
	a := c.Analysis
	if assets == nil {
		assets = a.Assets
	}
	rate := a.RiskFreeRate
	if rf != nil {
		rate = *rf
	}
	return finance.AnalyzerConfig{
		Assets:       append([]string(nil), assets...),
		RiskFreeRate: rate,
		Start:        a.StartDate,
		End:          a.EndDate,
		Interval:     finance.Interval(a.Interval),
		Benchmark:    a.Benchmark,
		Concurrency:  a.Concurrency,
	}
}

func (c *Config) YahooOptions() finance.YahooOptions {
	opts := finance.DefaultYahooOptions()
	opts.Hosts = append([]string(nil), c.Yahoo.Hosts...)
	opts.Timeout = c.Yahoo.Timeout
	opts.RequestsPerSecond = c.Yahoo.RequestsPerSecond
	opts.Burst = c.Yahoo.Burst
	opts.BreakerFailures = uint32(c.Yahoo.BreakerFailures)
	opts.BreakerTimeout = c.Yahoo.BreakerTimeout
	return opts
}

// IsProduction reports whether ENV is "production". It picks the JSON log format
// when LOG_FORMAT is unset.
func (c *Config) IsProduction() bool { return c.Env == "production" }

func getEnv(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, defaultValue)); err == nil {
		return d
	}
	d, _ := time.ParseDuration(defaultValue)
	return d
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvAsDate returns the zero time for a malformed value so validate can reject it.
func getEnvAsDate(key, defaultValue string) time.Time {
	t, err := time.Parse(time.DateOnly, getEnv(key, defaultValue))
	if err != nil {
		return time.Time{}
	}
	return t
}
