package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultElevenLabsURL     = "https://api.elevenlabs.io"
	DefaultElevenLabsModelID = "eleven_multilingual_v2"
)

// ElevenLabsClient synthesizes MP3 audio through the ElevenLabs REST API.
type ElevenLabsClient struct {
	APIKey  string
	VoiceID string
	ModelID string
	BaseURL string

	httpClient *http.Client
	logger     *slog.Logger
}

func NewElevenLabsClient(apiKey, voiceID, modelID string, logger *slog.Logger) (*ElevenLabsClient, error) {
	if apiKey == "" {
		return nil, errors.New("ElevenLabs API key is required")
	}
	if voiceID == "" {
		return nil, errors.New("ElevenLabs voice id is required")
	}
	if modelID == "" {
		modelID = DefaultElevenLabsModelID
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ElevenLabsClient{
		APIKey:     apiKey,
		VoiceID:    voiceID,
		ModelID:    modelID,
		BaseURL:    DefaultElevenLabsURL,
		httpClient: http.DefaultClient,
		logger:     logger,
	}, nil
}

func (client *ElevenLabsClient) Extension() string { return ".mp3" }

// Synthesize downloads the full MP3 into outPath.
func (client *ElevenLabsClient) Synthesize(ctx context.Context, text, outPath string) (Attachment, error) {
	text, truncated := Truncate(text)
	if truncated {
		client.logger.Warn("tts: text truncated", "max_chars", MaxInputChars)
	}

	base, err := url.Parse(fmt.Sprintf("%s/v1/text-to-speech/%s",
		strings.TrimRight(client.BaseURL, "/"), url.PathEscape(client.VoiceID)))
	if err != nil {
		return Attachment{}, errors.Wrap(err, "build url")
	}
	q := base.Query()
	q.Set("output_format", "mp3_44100_128")
	base.RawQuery = q.Encode()

	payload := map[string]interface{}{
		"text":     text,
		"model_id": client.ModelID,
		"voice_settings": map[string]float64{
			"stability":        0.75,
			"similarity_boost": 0.7,
		},
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return Attachment{}, errors.Wrap(err, "marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.String(), bytes.NewReader(bodyBytes))
	if err != nil {
		return Attachment{}, errors.Wrap(err, "build request")
	}
	req.Header.Set("xi-api-key", client.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	client.logger.Info("tts: generating speech", "chars", len(text), "voice", client.VoiceID)
	resp, err := client.httpClient.Do(req)
	if err != nil {
		return Attachment{}, errors.Wrap(err, "elevenlabs request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Attachment{}, errors.Errorf("elevenlabs bad status: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if err := writeFile(outPath, resp.Body); err != nil {
		return Attachment{}, err
	}
	return Attachment{Path: outPath, Kind: KindAudio}, nil
}
