package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no chat model is configured.
const DefaultModel = "gpt-4o-mini"

const (
	translateTemperature = 0.3
	summaryTemperature   = 0.5
)

const summaryPrompt = "Summarize the following transcription in bullet points. " +
	"Focus on key points, action items, and important information. " +
	"Be concise but don't miss anything important. " +
	"Use the same language as the input text."

// ErrEmptyCompletion is returned when the model streams no content.
var ErrEmptyCompletion = errors.New("empty completion")

// OpenAIClient generates translations and summaries with chat completions.
type OpenAIClient struct {
	Client *openai.Client
	Model  string
	logger *slog.Logger
}

// NewOpenAIClient creates a chat client for the given key.
func NewOpenAIClient(apiKey, model string, logger *slog.Logger) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	return NewOpenAIClientWithConfig(openai.DefaultConfig(apiKey), model, logger), nil
}

// NewOpenAIClientWithConfig creates a chat client from an explicit config.
func NewOpenAIClientWithConfig(cfg openai.ClientConfig, model string, logger *slog.Logger) *OpenAIClient {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIClient{
		Client: openai.NewClientWithConfig(cfg),
		Model:  model,
		logger: logger,
	}
}

// Translate renders text in the target language, preserving formatting.
func (c *OpenAIClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	name := LanguageName(targetLang)
	c.logger.Info("llm: translating", "target", name)
	system := fmt.Sprintf("You are a translator. Translate the following text to %s. "+
		"Only output the translation, nothing else. Preserve the original formatting.", name)

	out, err := c.complete(ctx, system, text, translateTemperature)
	if err != nil {
		return "", errors.Wrap(err, "translate")
	}
	c.logger.Info("llm: translation complete", "chars", len(out))
	return out, nil
}

// Summarize condenses text into bullet points in the input's language.
func (c *OpenAIClient) Summarize(ctx context.Context, text string) (string, error) {
	c.logger.Info("llm: summarizing")
	out, err := c.complete(ctx, summaryPrompt, text, summaryTemperature)
	if err != nil {
		return "", errors.Wrap(err, "summarize")
	}
	c.logger.Info("llm: summary complete", "chars", len(out))
	return out, nil
}

// complete streams one completion and returns the accumulated, trimmed text.
func (c *OpenAIClient) complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		Stream:      true,
	}

	stream, err := c.Client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "start completion stream")
	}
	defer stream.Close()

	buffer := &strings.Builder{}
	if err := readStream(ctx, stream, buffer); err != nil {
		return "", err
	}
	out := strings.TrimSpace(buffer.String())
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

type chunkReceiver interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
}

func readStream(ctx context.Context, stream chunkReceiver, buffer *strings.Builder) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "receive completion chunk")
		}
		if len(resp.Choices) == 0 {
			continue
		}
		buffer.WriteString(resp.Choices[0].Delta.Content)
	}
}
