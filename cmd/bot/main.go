package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"portfolioRiskBot/internal/config"
	"portfolioRiskBot/internal/finance"
	"portfolioRiskBot/internal/logger"
	"portfolioRiskBot/internal/openai"
	"portfolioRiskBot/internal/server"
	"portfolioRiskBot/internal/storage"
	"portfolioRiskBot/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat).With().Str("env", cfg.Env).Logger()

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	// Ensure parent directory for the DB exists
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := storage.OpenSQLite("file:" + cfg.DBPath + "?_fk=1")
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.InitSchema(db); err != nil {
		return err
	}
	log.Info().Str("path", cfg.DBPath).Msg("db: price cache ready")

	yahoo := finance.NewYahooProvider(cfg.YahooOptions(), log)
	provider := storage.NewCachedProvider(yahoo, storage.NewStore(db), log)

	var webhook http.HandlerFunc
	if err := cfg.RequireBot(); err != nil {
		log.Warn().Err(err).Msg("telegram: disabled")
	} else {
		var explain telegram.Explainer
		if cfg.OpenAIKey != "" {
			explain = openai.NewCommentator(cfg.OpenAIKey, cfg.OpenAIModel)
		}
		tg, err := telegram.NewBot(cfg.TelegramToken, cfg.WebhookPublicURL, func(api telegram.Sender) *telegram.Handlers {
			return telegram.NewHandlers(api, provider, cfg, explain, log)
		}, log)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		webhook = tg.WebhookHandler
	}

	mux := server.NewHTTPMux(webhook, provider, cfg, log)
	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("http: listening")
	return server.ListenAndServe(addr, mux)
}
