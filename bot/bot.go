// Package bot connects Telegram updates to the transcription pipeline.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/transcribe-bot/output"
	"github.com/mrsingh-rishi/transcribe-bot/pipeline"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	output.Sender
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// Handler processes one upload.
type Handler interface {
	Handle(ctx context.Context, req pipeline.Request, replier pipeline.Replier) pipeline.Outcome
	HelpText() string
}

// Dispatcher runs jobs off the update loop.
type Dispatcher interface {
	Submit(job func(ctx context.Context)) bool
}

type Bot struct {
	api        API
	handler    Handler
	dispatcher Dispatcher
	httpClient *http.Client
	maxBytes   int64
	logger     *slog.Logger
}

// New creates a bot. maxFileMB bounds the bytes accepted per download.
func New(api API, handler Handler, dispatcher Dispatcher, maxFileMB int, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:        api,
		handler:    handler,
		dispatcher: dispatcher,
		httpClient: &http.Client{},
		maxBytes:   int64(maxFileMB) * 1024 * 1024,
		logger:     logger,
	}
}

// HandleUpdate answers commands inline and dispatches uploads. It returns
// without waiting for the upload to be processed.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	logger := b.logger.With("chat_id", msg.Chat.ID, "message_id", msg.MessageID)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.reply(logger, msg, "Hi! I'm a transcription bot.\n\n"+b.handler.HelpText())
			return
		case "help":
			b.reply(logger, msg, b.handler.HelpText())
			return
		}
	}

	up, ok := classify(msg)
	if !ok {
		b.reply(logger, msg, "I can only transcribe voice notes and audio files.\n\n"+b.handler.HelpText())
		return
	}

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
		logger.Info("received audio", "user_id", userID, "username", msg.From.UserName, "kind", up.kind.String())
	}
	req := pipeline.Request{
		Kind:     up.kind,
		FileName: up.fileName,
		MimeType: up.mimeType,
		FileSize: up.fileSize,
		Caption:  msg.Caption,
		UserID:   userID,
		Source: &telegramFile{
			api:      b.api,
			client:   b.httpClient,
			fileID:   up.fileID,
			maxBytes: b.maxBytes,
		},
	}
	replier := output.NewTelegram(b.api, msg.Chat.ID, msg.MessageID, logger)
	if !b.dispatcher.Submit(func(ctx context.Context) {
		b.handler.Handle(ctx, req, replier)
	}) {
		logger.Warn("update dropped: shutting down")
	}
}

func (b *Bot) reply(logger *slog.Logger, msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ReplyToMessageID = msg.MessageID
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(out); err != nil {
		logger.Error("reply failed", "error", err)
	}
}

// RunPolling receives updates by long polling until ctx is done.
func (b *Bot) RunPolling(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		b.logger.Warn("could not remove webhook", "error", err)
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message"}
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("polling for updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(update)
		}
	}
}

// WebhookConfig describes how Telegram reaches the webhook server.
type WebhookConfig struct {
	URL    string
	Secret string
	Port   int
}

// RunWebhook registers the webhook and serves deliveries until ctx is done.
// cfg.URL is the public base URL; the served path is appended to it.
func (b *Bot) RunWebhook(ctx context.Context, cfg WebhookConfig) error {
	url := webhookURL(cfg.URL)
	params := tgbotapi.Params{}
	params["url"] = url
	params["secret_token"] = cfg.Secret
	params["allowed_updates"] = `["message"]`
	if _, err := b.api.MakeRequest("setWebhook", params); err != nil {
		return errors.Wrap(err, "set webhook")
	}
	if ctx.Err() != nil {
		return nil
	}

	app := newWebhookApp(cfg.Secret, b.HandleUpdate)
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + strconv.Itoa(cfg.Port))
	}()
	b.logger.Info("webhook server listening", "port", cfg.Port, "url", url)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "webhook server")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown webhook server: %w", err)
		}
		return nil
	}
}

func webhookURL(base string) string {
	return strings.TrimRight(base, "/") + webhookPath
}
