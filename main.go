// Command transcribe-bot is a Telegram bot that transcribes voice notes and
// audio files.
//
// Usage:
//
//	transcribe-bot serve                          run the bot (polling or webhook)
//	transcribe-bot transcribe FILE [--caption ..] run one file through the pipeline locally
//
// Configuration is read from the environment and an optional .env file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/mrsingh-rishi/transcribe-bot/bot"
	"github.com/mrsingh-rishi/transcribe-bot/config"
	"github.com/mrsingh-rishi/transcribe-bot/pipeline"
	"github.com/mrsingh-rishi/transcribe-bot/workers"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "transcribe-bot",
		Short:         "Telegram bot that transcribes voice notes and audio files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newTranscribeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		webhookURL string
		port       int
		backend    string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		Long: `Run the bot until interrupted.

Updates arrive by long polling unless WEBHOOK_URL is set, in which case
the webhook is registered and served on PORT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(true, func(cfg *config.Config) {
				flags := cmd.Flags()
				if flags.Changed("webhook-url") {
					cfg.WebhookURL = webhookURL
				}
				if flags.Changed("port") {
					cfg.Port = port
				}
				if flags.Changed("backend") {
					cfg.STTBackend = backend
				}
			})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "public webhook URL (overrides WEBHOOK_URL)")
	cmd.Flags().IntVar(&port, "port", 8080, "webhook listen port (overrides PORT)")
	cmd.Flags().StringVar(&backend, "backend", "", "transcription backend: openai, whispercpp or deepgram (overrides STT_BACKEND)")
	return cmd
}

func newTranscribeCmd() *cobra.Command {
	var caption string
	cmd := &cobra.Command{
		Use:   "transcribe FILE",
		Short: "Transcribe a local file and print the replies",
		Long: `Run one local audio file through the same pipeline the bot uses and
print every reply to stdout.

Examples:
  transcribe-bot transcribe memo.ogg
  transcribe-bot transcribe interview.m4a --caption "lang=es timestamps=1"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(false, nil)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := buildPipeline(cfg, logger)
			if err != nil {
				return err
			}
			req, err := localRequest(args[0], caption)
			if err != nil {
				return err
			}
			out := p.Handle(ctx, req, newConsoleReplier(cmd.OutOrStdout()))
			if out != pipeline.Delivered {
				return fmt.Errorf("transcription %s", out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&caption, "caption", "c", "", "options as they would appear in a caption, e.g. \"lang=en summary=1\"")
	return cmd
}

// setup loads configuration, applies flag overrides and installs the
// process logger.
func setup(serving bool, override func(*config.Config)) (*config.Config, *slog.Logger, error) {
	config.LoadDotEnv(slog.Default())
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if override != nil {
		override(cfg)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	if err := cfg.Validate(serving); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}
	logger.Info("authorized", "bot", api.Self.UserName)

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	dispatcher, err := workers.NewDispatcher(cfg.MaxConcurrentJobs, logger)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("waiting for in-flight jobs")
		dispatcher.Stop()
	}()

	b := bot.New(api, p, dispatcher, cfg.MaxFileMB, logger)
	if cfg.WebhookURL != "" {
		return b.RunWebhook(ctx, bot.WebhookConfig{
			URL:    cfg.WebhookURL,
			Secret: cfg.WebhookSecret,
			Port:   cfg.Port,
		})
	}
	return b.RunPolling(ctx)
}
