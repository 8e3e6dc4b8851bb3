package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrsingh-rishi/transcribe-bot/types"
)

// WhisperCpp talks to a local whisper.cpp server (whisper-server).
type WhisperCpp struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type whisperCppResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// NewWhisperCpp creates a client for the whisper.cpp server. The request
// context bounds each call, so the HTTP client carries no timeout.
func NewWhisperCpp(baseURL string, logger *slog.Logger) *WhisperCpp {
	if logger == nil {
		logger = slog.Default()
	}
	return &WhisperCpp{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Transcribe posts the canonical WAV to /inference.
func (c *WhisperCpp) Transcribe(ctx context.Context, req Request) (types.TranscriptionResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	audioFile, err := os.Open(req.AudioPath)
	if err != nil {
		return types.TranscriptionResult{}, fmt.Errorf("open audio: %w", err)
	}
	defer audioFile.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(req.AudioPath))
	if err != nil {
		return types.TranscriptionResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audioFile); err != nil {
		return types.TranscriptionResult{}, fmt.Errorf("copy audio data: %w", err)
	}
	_ = writer.WriteField("response_format", "verbose_json")
	_ = writer.WriteField("temperature", "0.0")
	_ = writer.WriteField("language", languageOr("", req.Language, LanguageAuto))
	if err := writer.Close(); err != nil {
		return types.TranscriptionResult{}, fmt.Errorf("close form: %w", err)
	}

	url := c.baseURL + "/inference"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return types.TranscriptionResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug("stt: sending request to whisper server", "url", url, "path", req.AudioPath)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return types.TranscriptionResult{}, fmt.Errorf("whisper server request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.TranscriptionResult{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return types.TranscriptionResult{}, fmt.Errorf("whisper server error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out whisperCppResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return types.TranscriptionResult{}, fmt.Errorf("decode whisper response: %w", err)
	}

	if !req.Timestamps {
		return types.TranscriptionResult{
			Text:     strings.TrimSpace(out.Text),
			Language: languageOr(out.Language, req.Language, LanguageAuto),
		}, nil
	}

	segments := make([]types.Segment, 0, len(out.Segments))
	for _, s := range out.Segments {
		segments = append(segments, types.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	text, kept := FormatSegments(segments, true)
	return types.TranscriptionResult{
		Text:     text,
		Language: languageOr(out.Language, req.Language, LanguageUnknown),
		Segments: kept,
	}, nil
}
