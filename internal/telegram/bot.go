package telegram

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type Bot struct {
	api *tgbotapi.BotAPI
	h   *Handlers
	log zerolog.Logger
}

// NewBot connects to Telegram, registers the webhook and returns the bot.
// build receives the connected API so handlers can send through it.
func NewBot(token, webhookURL string, build func(Sender) *Handlers, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	// set webhook
	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, err
	}
	if _, err := api.Request(webhook); err != nil {
		return nil, err
	}
	log.Info().Str("webhook", webhookURL).Str("bot", api.Self.UserName).Msg("telegram: webhook set")

	return &Bot{api: api, h: build(api), log: log}, nil
}

// Webhook HTTP handler (registered at /telegram/webhook)
func (b *Bot) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	webhookHandler(b.h, b.log)(w, r)
}

func webhookHandler(h *Handlers, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		if m := update.Message; m != nil {
			ev := log.Debug().Str("text", m.Text)
			if m.Chat != nil {
				ev = ev.Int64("chat_id", m.Chat.ID)
			}
			if m.From != nil {
				ev = ev.Int64("from", m.From.ID)
			}
			ev.Msg("webhook: message")
			go h.HandleMessage(m)
		} else {
			log.Debug().Int("update_id", update.UpdateID).Msg("webhook: non-message update received")
		}
		w.WriteHeader(http.StatusOK)
	}
}
