// Package config reads process settings from the environment. Values are
// read once at startup and never change afterwards.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Backend names.
const (
	STTOpenAI     = "openai"
	STTWhisperCpp = "whispercpp"
	STTDeepgram   = "deepgram"

	TTSOpenAI     = "openai"
	TTSElevenLabs = "elevenlabs"
)

type Config struct {
	TelegramToken string
	OpenAIAPIKey  string

	STTBackend       string
	WhisperModel     string
	WhisperServerURL string
	DeepgramAPIKey   string
	DeepgramURL      string

	ChatModel string

	TTSBackend        string
	TTSModel          string
	TTSVoice          string
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	ElevenLabsModelID string

	MaxAudioSeconds   float64
	MaxFileMB         int
	TmpDir            string
	AudioExtensions   []string
	MimePrefixes      []string
	MaxChunkSize      int
	TranscribeTimeout time.Duration
	GenerateTimeout   time.Duration
	MaxConcurrentJobs int

	WebhookURL    string
	WebhookSecret string
	Port          int

	LogLevel slog.Level
}

// LoadDotEnv loads .env into the environment if present.
func LoadDotEnv(logger *slog.Logger) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, falling back to environment variables")
	}
}

// Load builds a Config from the environment. Malformed numbers and
// durations are errors rather than silent defaults.
func Load() (*Config, error) {
	p := &parser{}
	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),

		STTBackend:       strings.ToLower(getEnv("STT_BACKEND", STTOpenAI)),
		WhisperModel:     getEnv("WHISPER_MODEL", "whisper-1"),
		WhisperServerURL: getEnv("WHISPER_SERVER_URL", "http://127.0.0.1:8080"),
		DeepgramAPIKey:   os.Getenv("DEEPGRAM_API_KEY"),
		DeepgramURL:      getEnv("DEEPGRAM_URL", "wss://api.deepgram.com/v1/listen"),

		ChatModel: getEnv("CHAT_MODEL", "gpt-4o-mini"),

		TTSBackend:        strings.ToLower(getEnv("TTS_BACKEND", TTSOpenAI)),
		TTSModel:          getEnv("TTS_MODEL", "tts-1"),
		TTSVoice:          getEnv("TTS_VOICE", "nova"),
		ElevenLabsAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsVoiceID: getEnv("ELEVENLABS_VOICE_ID", "JBFqnCBsd6RMkjVDRZzb"),
		ElevenLabsModelID: getEnv("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2"),

		MaxAudioSeconds:   p.floatVar("MAX_AUDIO_SECONDS", 600),
		MaxFileMB:         p.intVar("MAX_FILE_MB", 25),
		TmpDir:            getEnv("TMP_DIR", "/tmp/telegram_whisper_bot"),
		AudioExtensions:   normalizeExtensions(getList("AUDIO_EXTENSIONS", ".ogg,.opus,.m4a,.mp3,.wav,.mp4,.webm,.mkv")),
		MimePrefixes:      getList("AUDIO_MIME_PREFIXES", "audio/,video/"),
		MaxChunkSize:      p.intVar("MAX_CHUNK_SIZE", 3500),
		TranscribeTimeout: p.durationVar("TRANSCRIBE_TIMEOUT", 5*time.Minute),
		GenerateTimeout:   p.durationVar("GENERATE_TIMEOUT", 2*time.Minute),
		MaxConcurrentJobs: p.intVar("MAX_CONCURRENT_JOBS", 4),

		WebhookURL:    os.Getenv("WEBHOOK_URL"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		Port:          p.intVar("PORT", 8080),
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		p.errs = append(p.errs, fmt.Sprintf("LOG_LEVEL: %v", err))
	}
	if len(p.errs) > 0 {
		return nil, errors.Errorf("invalid configuration: %s", strings.Join(p.errs, "; "))
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need. The
// Telegram token is only required when serving.
func (c *Config) Validate(serving bool) error {
	var problems []string
	if serving && c.TelegramToken == "" {
		problems = append(problems, "TELEGRAM_BOT_TOKEN is required")
	}
	switch c.STTBackend {
	case STTOpenAI:
		if c.OpenAIAPIKey == "" {
			problems = append(problems, "OPENAI_API_KEY is required for the openai backend")
		}
	case STTWhisperCpp:
		if c.WhisperServerURL == "" {
			problems = append(problems, "WHISPER_SERVER_URL is required for the whispercpp backend")
		}
	case STTDeepgram:
		if c.DeepgramAPIKey == "" {
			problems = append(problems, "DEEPGRAM_API_KEY is required for the deepgram backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STT_BACKEND %q", c.STTBackend))
	}
	switch c.TTSBackend {
	case TTSOpenAI, TTSElevenLabs:
	default:
		problems = append(problems, fmt.Sprintf("unknown TTS_BACKEND %q", c.TTSBackend))
	}
	if c.MaxAudioSeconds <= 0 {
		problems = append(problems, "MAX_AUDIO_SECONDS must be positive")
	}
	if c.MaxFileMB <= 0 {
		problems = append(problems, "MAX_FILE_MB must be positive")
	}
	if c.MaxChunkSize <= 0 {
		problems = append(problems, "MAX_CHUNK_SIZE must be positive")
	}
	if c.MaxConcurrentJobs <= 0 {
		problems = append(problems, "MAX_CONCURRENT_JOBS must be positive")
	}
	if c.WebhookURL != "" && c.WebhookSecret == "" {
		problems = append(problems, "WEBHOOK_SECRET is required when WEBHOOK_URL is set")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getList splits a comma-separated variable, dropping blanks.
func getList(key, fallback string) []string {
	raw := strings.Split(getEnv(key, fallback), ",")
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func normalizeExtensions(exts []string) []string {
	for i, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[i] = e
	}
	return exts
}

// parser collects conversion errors so every bad variable is reported at once.
type parser struct {
	errs []string
}

func (p *parser) intVar(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: not an integer: %q", key, v))
		return fallback
	}
	return n
}

func (p *parser) floatVar(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: not a number: %q", key, v))
		return fallback
	}
	return f
}

// durationVar accepts Go duration strings or a bare number of seconds.
func (p *parser) durationVar(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: not a duration: %q", key, v))
		return fallback
	}
	return d
}
