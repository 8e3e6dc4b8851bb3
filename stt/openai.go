package stt

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"github.com/mrsingh-rishi/transcribe-bot/types"
)

// OpenAI transcribes through the hosted Whisper API.
type OpenAI struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAI creates a Whisper API backend.
func NewOpenAI(apiKey, model string, logger *slog.Logger) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return NewOpenAIWithConfig(openai.DefaultConfig(apiKey), model, logger), nil
}

// NewOpenAIWithConfig creates a backend from a client config (base URL overrides).
func NewOpenAIWithConfig(cfg openai.ClientConfig, model string, logger *slog.Logger) *OpenAI {
	if model == "" {
		model = openai.Whisper1
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("stt: initializing OpenAI client", "model", model)
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model, logger: logger}
}

// Transcribe uploads the audio file. Segments are requested only when
// timestamps are wanted; plain requests report the hint or "auto".
func (o *OpenAI) Transcribe(ctx context.Context, req Request) (types.TranscriptionResult, error) {
	format := openai.AudioResponseFormatJSON
	if req.Timestamps {
		format = openai.AudioResponseFormatVerboseJSON
	}
	o.logger.Debug("stt: transcribing", "path", req.AudioPath, "language", languageOr("", req.Language, LanguageAuto))

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: req.AudioPath,
		Language: req.Language,
		Format:   format,
	})
	if err != nil {
		return types.TranscriptionResult{}, fmt.Errorf("openai transcription: %w", err)
	}

	if !req.Timestamps {
		return types.TranscriptionResult{
			Text:     resp.Text,
			Language: languageOr("", req.Language, LanguageAuto),
		}, nil
	}

	segments := make([]types.Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, types.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	text, kept := FormatSegments(segments, true)
	result := types.TranscriptionResult{
		Text:     text,
		Language: languageOr(resp.Language, req.Language, LanguageUnknown),
		Segments: kept,
	}
	o.logger.Info("stt: transcription complete", "chars", len(result.Text), "language", result.Language)
	return result, nil
}
