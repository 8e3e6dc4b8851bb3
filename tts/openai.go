package tts

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// OpenAI synthesizes OGG/Opus voice notes.
type OpenAI struct {
	client *openai.Client
	model  string
	voice  string
	logger *slog.Logger
}

// NewOpenAI creates a speech client. Empty model or voice fall back to
// tts-1 and nova.
func NewOpenAI(apiKey, model, voice string, logger *slog.Logger) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	return NewOpenAIWithConfig(openai.DefaultConfig(apiKey), model, voice, logger), nil
}

// NewOpenAIWithConfig creates a speech client from an explicit config.
func NewOpenAIWithConfig(cfg openai.ClientConfig, model, voice string, logger *slog.Logger) *OpenAI {
	if model == "" {
		model = string(openai.TTSModel1)
	}
	if voice == "" {
		voice = string(openai.VoiceNova)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model, voice: voice, logger: logger}
}

func (o *OpenAI) Extension() string { return ".ogg" }

// Synthesize writes an Opus voice note to outPath.
func (o *OpenAI) Synthesize(ctx context.Context, text, outPath string) (Attachment, error) {
	text, truncated := Truncate(text)
	if truncated {
		o.logger.Warn("tts: text truncated", "max_chars", MaxInputChars)
	}
	o.logger.Info("tts: generating speech", "chars", len(text))

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          text,
		Voice:          openai.SpeechVoice(o.voice),
		ResponseFormat: openai.SpeechResponseFormatOpus,
	})
	if err != nil {
		return Attachment{}, errors.Wrap(err, "openai speech")
	}
	defer resp.Close()

	if err := writeFile(outPath, resp); err != nil {
		return Attachment{}, err
	}
	o.logger.Info("tts: speech saved", "path", outPath)
	return Attachment{Path: outPath, Kind: KindVoice}, nil
}
