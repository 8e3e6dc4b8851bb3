package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sashabaranov/go-openai"

	"github.com/mrsingh-rishi/transcribe-bot/config"
	"github.com/mrsingh-rishi/transcribe-bot/llm"
	"github.com/mrsingh-rishi/transcribe-bot/media"
	"github.com/mrsingh-rishi/transcribe-bot/pipeline"
	"github.com/mrsingh-rishi/transcribe-bot/stt"
	"github.com/mrsingh-rishi/transcribe-bot/tts"
	"github.com/mrsingh-rishi/transcribe-bot/workspace"
)

func buildPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	if err := os.MkdirAll(cfg.TmpDir, 0o700); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	deps := pipeline.Deps{
		Workspace:   workspace.NewManager(cfg.TmpDir, logger),
		Media:       media.NewTool(logger),
		Transcriber: stt.NewLazy(func() (stt.Transcriber, error) { return newTranscriber(cfg, logger) }),
	}

	if cfg.OpenAIAPIKey != "" {
		gen, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ChatModel, logger)
		if err != nil {
			return nil, err
		}
		deps.Generator = gen
	} else {
		logger.Warn("OPENAI_API_KEY not set: translate and summary options are disabled")
	}

	synth, err := newSynthesizer(cfg, logger)
	if err != nil {
		logger.Warn("voice replies disabled", "error", err)
	} else {
		deps.Synthesizer = synth
	}

	return pipeline.New(deps, pipeline.Limits{
		MaxAudioSeconds:   cfg.MaxAudioSeconds,
		MaxFileMB:         cfg.MaxFileMB,
		MaxChunkSize:      cfg.MaxChunkSize,
		Extensions:        cfg.AudioExtensions,
		MimePrefixes:      cfg.MimePrefixes,
		TranscribeTimeout: cfg.TranscribeTimeout,
		GenerateTimeout:   cfg.GenerateTimeout,
	}, logger), nil
}

func newTranscriber(cfg *config.Config, logger *slog.Logger) (stt.Transcriber, error) {
	logger.Info("initializing transcription backend", "backend", cfg.STTBackend)
	switch cfg.STTBackend {
	case config.STTOpenAI:
		return stt.NewOpenAI(cfg.OpenAIAPIKey, cfg.WhisperModel, logger)
	case config.STTWhisperCpp:
		return stt.NewWhisperCpp(cfg.WhisperServerURL, logger), nil
	case config.STTDeepgram:
		return stt.NewDeepgram(cfg.DeepgramAPIKey, cfg.DeepgramURL, logger)
	default:
		return nil, fmt.Errorf("unknown STT_BACKEND %q", cfg.STTBackend)
	}
}

func newSynthesizer(cfg *config.Config, logger *slog.Logger) (tts.Synthesizer, error) {
	switch cfg.TTSBackend {
	case config.TTSElevenLabs:
		return tts.NewElevenLabsClient(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID, cfg.ElevenLabsModelID, logger)
	case config.TTSOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai speech backend")
		}
		return tts.NewOpenAIWithConfig(openai.DefaultConfig(cfg.OpenAIAPIKey), cfg.TTSModel, cfg.TTSVoice, logger), nil
	default:
		return nil, fmt.Errorf("unknown TTS_BACKEND %q", cfg.TTSBackend)
	}
}
